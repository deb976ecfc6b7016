package service

import (
	"context"
	"time"

	"github.com/vigilsec/argus/internal/core"
	"github.com/vigilsec/argus/internal/logging"
)

// progressTimeout bounds how long a single progress send may block the
// run. Updates are best effort: a slow or dead session costs at most
// this much per stage.
const progressTimeout = 2 * time.Second

// ProgressReporter delivers stage-transition updates to the calling
// session. Failures are logged and swallowed; they never abort a run.
type ProgressReporter struct {
	channel core.SessionChannel
	log     *logging.Logger
}

// NewProgressReporter creates a reporter over a session channel.
func NewProgressReporter(channel core.SessionChannel, log *logging.Logger) *ProgressReporter {
	if log == nil {
		log = logging.NewNop()
	}
	return &ProgressReporter{channel: channel, log: log}
}

// NopProgressReporter returns a reporter that drops every update.
func NopProgressReporter() *ProgressReporter {
	return &ProgressReporter{log: logging.NewNop()}
}

// Report sends one update, best effort.
func (p *ProgressReporter) Report(ctx context.Context, req core.WorkflowRequest, update core.ProgressUpdate) {
	if p.channel == nil || req.Session == "" {
		return
	}
	sendCtx, cancel := context.WithTimeout(ctx, progressTimeout)
	defer cancel()

	if err := p.channel.SendProgress(sendCtx, req.Session, update); err != nil {
		p.log.WithWorkflow(string(req.ID)).Debug("progress update dropped",
			"stage", update.Stage.String(), "error", err)
	}
}
