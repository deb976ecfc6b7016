package api

import (
	"bufio"
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vigilsec/argus/internal/core"
)

func TestSessionHubFanout(t *testing.T) {
	hub := NewSessionHub()
	ctx := context.Background()

	events, cancel := hub.Subscribe("session-1")
	defer cancel()

	require.NoError(t, hub.SendProgress(ctx, "session-1", core.ProgressUpdate{
		WorkflowID: "wf-1",
		Stage:      core.StageAcquisition,
		Completed:  1,
		Total:      4,
	}))
	require.NoError(t, hub.SendFinal(ctx, "session-1", core.SynthesizedReport{WorkflowID: "wf-1"}))

	progress := <-events
	require.Equal(t, "progress", progress.Type)
	require.NotNil(t, progress.Progress)
	assert.Equal(t, core.StageAcquisition, progress.Progress.Stage)

	final := <-events
	require.Equal(t, "final", final.Type)
	require.NotNil(t, final.Report)
	assert.Equal(t, core.WorkflowID("wf-1"), final.Report.WorkflowID)
}

func TestSessionHubProgressWithoutSubscriber(t *testing.T) {
	hub := NewSessionHub()

	err := hub.SendProgress(context.Background(), "nobody", core.ProgressUpdate{WorkflowID: "wf-1"})
	assert.NoError(t, err)
}

func TestSessionHubFinalWithoutSubscriberIsUnreachable(t *testing.T) {
	hub := NewSessionHub()

	err := hub.SendFinal(context.Background(), "nobody", core.SynthesizedReport{WorkflowID: "wf-1"})
	require.Error(t, err)
	assert.Equal(t, core.ErrCatDelivery, core.GetCategory(err))
}

func TestSessionHubCancelDetaches(t *testing.T) {
	hub := NewSessionHub()

	_, cancel := hub.Subscribe("session-1")
	cancel()
	cancel() // idempotent

	err := hub.SendFinal(context.Background(), "session-1", core.SynthesizedReport{})
	assert.Error(t, err)
}

func TestSessionHubDropsOnFullBuffer(t *testing.T) {
	hub := NewSessionHub()
	ctx := context.Background()

	events, cancel := hub.Subscribe("session-1")
	defer cancel()

	// Nothing reads; the buffered channel fills and later sends drop
	// instead of blocking.
	for i := 0; i < 64; i++ {
		require.NoError(t, hub.SendProgress(ctx, "session-1", core.ProgressUpdate{Completed: i}))
	}
	assert.Equal(t, 16, len(events))
}

func TestWorkflowEventsStream(t *testing.T) {
	hub := NewSessionHub()
	srv := NewServer(newStubRunner(), nil, nil, hub)
	ts := httptest.NewServer(srv.Handler())
	defer ts.Close()

	resp, err := http.Get(ts.URL + "/api/v1/workflows/wf-1/events?session=session-9")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))

	require.Eventually(t, func() bool {
		hub.mu.RLock()
		defer hub.mu.RUnlock()
		return len(hub.subs["session-9"]) == 1
	}, 2*time.Second, 10*time.Millisecond, "subscriber never attached")

	require.NoError(t, hub.SendProgress(context.Background(), "session-9", core.ProgressUpdate{
		WorkflowID: "wf-1",
		Stage:      core.StageTranscription,
	}))
	require.NoError(t, hub.SendFinal(context.Background(), "session-9", core.SynthesizedReport{WorkflowID: "wf-1"}))

	var sawConnected, sawProgress, sawFinal bool
	scanner := bufio.NewScanner(resp.Body)
	for scanner.Scan() {
		line := scanner.Text()
		switch {
		case line == "event: connected":
			sawConnected = true
		case line == "event: progress":
			sawProgress = true
		case line == "event: final":
			sawFinal = true
		case sawFinal && strings.HasPrefix(line, "data: "):
			assert.Contains(t, line, `"wf-1"`)
		}
		if sawFinal && line == "" {
			break
		}
	}

	assert.True(t, sawConnected, "missing connected event")
	assert.True(t, sawProgress, "missing progress event")
	assert.True(t, sawFinal, "missing final event")
}

func TestWorkflowEventsRequiresSession(t *testing.T) {
	srv := NewServer(newStubRunner(), nil, nil, NewSessionHub())

	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/workflows/wf-1/events", nil))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
