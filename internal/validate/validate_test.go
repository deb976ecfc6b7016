package validate

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vigilsec/argus/internal/core"
)

type stubProbe struct {
	down map[core.CapabilityID]bool
}

func (p stubProbe) IsHealthy(_ context.Context, id core.CapabilityID) bool {
	return !p.down[id]
}

type stubResources struct {
	disk    uint64
	diskOK  bool
	mem     uint64
	memOK   bool
}

func (r stubResources) DiskFreeBytes() (uint64, bool)     { return r.disk, r.diskOK }
func (r stubResources) MemAvailableBytes() (uint64, bool) { return r.mem, r.memOK }

func plentiful() stubResources {
	return stubResources{disk: 100 << 30, diskOK: true, mem: 32 << 30, memOK: true}
}

func TestSnapshotAllHealthy(t *testing.T) {
	v := New(stubProbe{}, plentiful(), nil)

	flags := v.Snapshot(context.Background())
	for _, id := range allCapabilities() {
		assert.True(t, flags.Healthy(id), "capability %s", id)
	}
	assert.NoError(t, v.CheckMinimumViable(flags))
}

func TestSnapshotProbeFailure(t *testing.T) {
	v := New(stubProbe{down: map[core.CapabilityID]bool{core.CapabilityKnowledge: true}}, plentiful(), nil)

	flags := v.Snapshot(context.Background())
	assert.False(t, flags.Healthy(core.CapabilityKnowledge))
	assert.True(t, flags.Healthy(core.CapabilityDownloader))
	// Knowledge store is optional, so still minimum viable.
	assert.NoError(t, v.CheckMinimumViable(flags))
}

func TestSnapshotDiskVetoesDownloader(t *testing.T) {
	res := plentiful()
	res.disk = 1 << 20 // 1 MiB left
	v := New(stubProbe{}, res, nil)

	flags := v.Snapshot(context.Background())
	assert.False(t, flags.Healthy(core.CapabilityDownloader))
	assert.True(t, flags.Healthy(core.CapabilityTranscribe))

	err := v.CheckMinimumViable(flags)
	require.Error(t, err)
	assert.True(t, core.IsCategory(err, core.ErrCatPrecondition))
	assert.Contains(t, err.Error(), "downloader")
}

func TestSnapshotMemoryVetoesModel(t *testing.T) {
	res := plentiful()
	res.mem = 64 << 20
	v := New(stubProbe{}, res, nil)

	flags := v.Snapshot(context.Background())
	assert.False(t, flags.Healthy(core.CapabilityModel))
	// Model is not in the minimum viable set.
	assert.NoError(t, v.CheckMinimumViable(flags))
}

func TestSnapshotMeasurementFailureDoesNotVeto(t *testing.T) {
	v := New(stubProbe{}, stubResources{}, nil)

	flags := v.Snapshot(context.Background())
	assert.True(t, flags.Healthy(core.CapabilityDownloader))
	assert.True(t, flags.Healthy(core.CapabilityModel))
}

func TestCheckMinimumViableTranscriberDown(t *testing.T) {
	v := New(stubProbe{down: map[core.CapabilityID]bool{core.CapabilityTranscribe: true}}, plentiful(), nil)

	err := v.CheckMinimumViable(v.Snapshot(context.Background()))
	require.Error(t, err)
	assert.False(t, core.IsRetryable(err))
	assert.Contains(t, err.Error(), "transcriber")
}
