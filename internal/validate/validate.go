// Package validate snapshots external capability health and host
// resource headroom before a run is planned. Degraded capabilities
// soft-fail into flags; only the minimum viable set is fatal.
package validate

import (
	"context"
	"fmt"
	"strings"

	"github.com/vigilsec/argus/internal/core"
	"github.com/vigilsec/argus/internal/logging"
)

// Validator combines capability probing with host resource checks.
type Validator struct {
	probe     core.CapabilityProbe
	resources ResourceChecker
	log       *logging.Logger
}

// New creates a validator. A nil resource checker disables resource
// gating (capability probes alone decide).
func New(probe core.CapabilityProbe, resources ResourceChecker, log *logging.Logger) *Validator {
	if log == nil {
		log = logging.NewNop()
	}
	if resources == nil {
		resources = nopChecker{}
	}
	return &Validator{probe: probe, resources: resources, log: log}
}

// Snapshot probes every capability once and folds in resource
// headroom: a downloader without disk space or a model without memory
// is reported unhealthy even when the probe says otherwise.
func (v *Validator) Snapshot(ctx context.Context) core.CapabilityFlags {
	flags := make(core.CapabilityFlags)
	for _, id := range allCapabilities() {
		healthy := v.probe.IsHealthy(ctx, id)
		if healthy {
			if reason := v.resourceVeto(id); reason != "" {
				v.log.Warn("capability degraded by host resources",
					"capability", string(id), "reason", reason)
				healthy = false
			}
		}
		flags[id] = healthy
	}
	return flags
}

// CheckMinimumViable returns a precondition error when any capability
// required by the minimum viable stage set is down.
func (v *Validator) CheckMinimumViable(flags core.CapabilityFlags) error {
	var missing []string
	for _, stage := range core.MinimumViableStages() {
		for _, cap := range core.StageCapabilities(stage) {
			if !flags.Healthy(cap) {
				missing = append(missing, string(cap))
			}
		}
	}
	if len(missing) == 0 {
		return nil
	}
	return core.ErrPrecondition(core.CodeMissingCapability,
		fmt.Sprintf("minimum viable capabilities unavailable: %s", strings.Join(missing, ", ")))
}

func (v *Validator) resourceVeto(id core.CapabilityID) string {
	switch id {
	case core.CapabilityDownloader:
		free, ok := v.resources.DiskFreeBytes()
		if ok && free < minDiskBytes {
			return fmt.Sprintf("disk headroom %d bytes below %d", free, minDiskBytes)
		}
	case core.CapabilityModel:
		avail, ok := v.resources.MemAvailableBytes()
		if ok && avail < minMemBytes {
			return fmt.Sprintf("memory headroom %d bytes below %d", avail, minMemBytes)
		}
	}
	return ""
}

func allCapabilities() []core.CapabilityID {
	return []core.CapabilityID{
		core.CapabilityDownloader,
		core.CapabilityTranscribe,
		core.CapabilityModel,
		core.CapabilityDelivery,
		core.CapabilityKnowledge,
	}
}
