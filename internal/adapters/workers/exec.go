// Package workers provides the stage worker implementations: external
// command workers for production pipelines and deterministic simulated
// workers for development and dry runs.
package workers

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"os/exec"
	"strings"
	"time"

	"github.com/vigilsec/argus/internal/core"
	"github.com/vigilsec/argus/internal/logging"
)

// ExecWorker runs a stage through an external command. The context
// snapshot goes to the command as JSON on stdin; stdout comes back as
// the raw stage output. Commands that print JSON matching the raw
// output shape get a structured payload, anything else is kept as text
// for the extractors to deal with.
type ExecWorker struct {
	stage   core.Stage
	command string
	args    []string
	log     *logging.Logger
}

// NewExecWorker creates a worker around an external command.
func NewExecWorker(stage core.Stage, command string, args []string, log *logging.Logger) *ExecWorker {
	if log == nil {
		log = logging.NewNop()
	}
	return &ExecWorker{
		stage:   stage,
		command: command,
		args:    args,
		log:     log.WithStage(string(stage)),
	}
}

// Stage returns the stage this worker serves.
func (w *ExecWorker) Stage() core.Stage { return w.stage }

// Invoke runs the command against the snapshot, bounded by the plan
// deadline.
func (w *ExecWorker) Invoke(ctx context.Context, snapshot core.ContextSnapshot, deadline time.Time) (core.RawOutput, error) {
	if !deadline.IsZero() {
		var cancel context.CancelFunc
		ctx, cancel = context.WithDeadline(ctx, deadline)
		defer cancel()
	}

	input, err := json.Marshal(snapshot)
	if err != nil {
		return core.RawOutput{}, core.ErrState(core.CodeStateCorrupted, "encoding context snapshot").WithCause(err)
	}

	cmd := exec.CommandContext(ctx, w.command, w.args...)
	configureProcAttr(cmd)
	cmd.Stdin = bytes.NewReader(input)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	runErr := cmd.Run()
	w.logStderr(&stderr)

	if runErr != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			if errors.Is(ctxErr, context.DeadlineExceeded) {
				return core.RawOutput{}, core.ErrTimeout("worker command exceeded stage deadline").WithCause(runErr)
			}
			return core.RawOutput{}, core.ErrCancelled("worker command cancelled").WithCause(runErr)
		}
		return core.RawOutput{}, core.ErrTransient(core.CodeWorkerUnavailable, "worker command failed").
			WithCause(runErr).
			WithDetail("command", w.command)
	}

	return parseOutput(stdout.Bytes()), nil
}

func (w *ExecWorker) logStderr(stderr *bytes.Buffer) {
	scanner := bufio.NewScanner(stderr)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line != "" {
			w.log.Debug("worker stderr", "line", line)
		}
	}
}

// parseOutput interprets command stdout. JSON objects become a payload
// (with an optional "text" passthrough), everything else stays text.
func parseOutput(out []byte) core.RawOutput {
	trimmed := bytes.TrimSpace(out)
	if len(trimmed) == 0 {
		return core.RawOutput{}
	}

	if trimmed[0] == '{' {
		var raw core.RawOutput
		if err := json.Unmarshal(trimmed, &raw); err == nil && !raw.Empty() {
			return raw
		}
		var payload map[string]interface{}
		if err := json.Unmarshal(trimmed, &payload); err == nil && len(payload) > 0 {
			return core.RawOutput{Payload: payload}
		}
	}

	return core.RawOutput{Text: string(trimmed)}
}
