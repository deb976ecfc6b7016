// Package testutil provides shared fakes for the core ports plus
// golden-file helpers.
package testutil

import (
	"context"
	"sync"
	"time"

	"github.com/vigilsec/argus/internal/core"
)

// MockWorker is a scriptable core.Worker.
type MockWorker struct {
	stage  core.Stage
	invoke func(ctx context.Context, snapshot core.ContextSnapshot, deadline time.Time) (core.RawOutput, error)

	mu    sync.Mutex
	calls int
}

// NewMockWorker creates a worker that returns a minimal OK output.
func NewMockWorker(stage core.Stage) *MockWorker {
	return &MockWorker{
		stage: stage,
		invoke: func(context.Context, core.ContextSnapshot, time.Time) (core.RawOutput, error) {
			return core.RawOutput{Text: "ok"}, nil
		},
	}
}

// WithOutput makes the worker return the given output.
func (w *MockWorker) WithOutput(out core.RawOutput) *MockWorker {
	w.invoke = func(context.Context, core.ContextSnapshot, time.Time) (core.RawOutput, error) {
		return out, nil
	}
	return w
}

// WithError makes the worker always fail.
func (w *MockWorker) WithError(err error) *MockWorker {
	w.invoke = func(context.Context, core.ContextSnapshot, time.Time) (core.RawOutput, error) {
		return core.RawOutput{}, err
	}
	return w
}

// WithInvoke installs a custom invocation function.
func (w *MockWorker) WithInvoke(fn func(ctx context.Context, snapshot core.ContextSnapshot, deadline time.Time) (core.RawOutput, error)) *MockWorker {
	w.invoke = fn
	return w
}

// Stage implements core.Worker.
func (w *MockWorker) Stage() core.Stage { return w.stage }

// Invoke implements core.Worker.
func (w *MockWorker) Invoke(ctx context.Context, snapshot core.ContextSnapshot, deadline time.Time) (core.RawOutput, error) {
	w.mu.Lock()
	w.calls++
	w.mu.Unlock()
	return w.invoke(ctx, snapshot, deadline)
}

// Calls reports how many times Invoke ran.
func (w *MockWorker) Calls() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.calls
}

// MockProbe is a core.CapabilityProbe backed by a fixed health table.
// Capabilities not explicitly marked down count as healthy.
type MockProbe struct {
	mu   sync.Mutex
	down map[core.CapabilityID]bool
}

// NewMockProbe creates a probe that reports everything healthy.
func NewMockProbe() *MockProbe {
	return &MockProbe{down: make(map[core.CapabilityID]bool)}
}

// WithDown marks capabilities as unhealthy.
func (p *MockProbe) WithDown(ids ...core.CapabilityID) *MockProbe {
	p.mu.Lock()
	defer p.mu.Unlock()
	for _, id := range ids {
		p.down[id] = true
	}
	return p
}

// IsHealthy implements core.CapabilityProbe.
func (p *MockProbe) IsHealthy(_ context.Context, id core.CapabilityID) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return !p.down[id]
}

// MockSession is a core.SessionChannel that records everything sent to
// it. SendFinal can be scripted to fail a fixed number of times or
// forever.
type MockSession struct {
	mu         sync.Mutex
	progressErr error
	finalErr    error
	failFinal   int // -1 = always, 0 = never, n>0 = first n calls
	finalCalls  int

	Progress []core.ProgressUpdate
	Finals   []core.SynthesizedReport
}

// NewMockSession creates a reachable session.
func NewMockSession() *MockSession { return &MockSession{} }

// WithProgressError makes SendProgress fail.
func (s *MockSession) WithProgressError(err error) *MockSession {
	s.progressErr = err
	return s
}

// WithFinalError makes SendFinal fail every time.
func (s *MockSession) WithFinalError(err error) *MockSession {
	s.finalErr = err
	s.failFinal = -1
	return s
}

// WithFinalFailures makes the first n SendFinal calls fail, then
// succeed.
func (s *MockSession) WithFinalFailures(n int, err error) *MockSession {
	s.finalErr = err
	s.failFinal = n
	return s
}

// SendProgress implements core.SessionChannel.
func (s *MockSession) SendProgress(_ context.Context, _ core.SessionHandle, update core.ProgressUpdate) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.progressErr != nil {
		return s.progressErr
	}
	s.Progress = append(s.Progress, update)
	return nil
}

// SendFinal implements core.SessionChannel.
func (s *MockSession) SendFinal(_ context.Context, _ core.SessionHandle, report core.SynthesizedReport) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.finalCalls++
	if s.failFinal == -1 || s.finalCalls <= s.failFinal {
		return s.finalErr
	}
	s.Finals = append(s.Finals, report)
	return nil
}

// FinalCount reports how many final reports arrived.
func (s *MockSession) FinalCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.Finals)
}

// FinalAttempts reports how many SendFinal calls were made, including
// failed ones.
func (s *MockSession) FinalAttempts() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.finalCalls
}

// MockSink is an in-memory core.PersistenceSink.
type MockSink struct {
	mu      sync.Mutex
	saveErr error
	Saved   map[core.WorkflowID]core.OrphanedResult
}

// NewMockSink creates an empty sink.
func NewMockSink() *MockSink {
	return &MockSink{Saved: make(map[core.WorkflowID]core.OrphanedResult)}
}

// WithSaveError makes Save fail.
func (s *MockSink) WithSaveError(err error) *MockSink {
	s.saveErr = err
	return s
}

// Save implements core.PersistenceSink.
func (s *MockSink) Save(_ context.Context, result core.OrphanedResult) (core.WorkflowID, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.saveErr != nil {
		return "", s.saveErr
	}
	s.Saved[result.WorkflowID] = result
	return result.WorkflowID, nil
}

// Load implements core.PersistenceSink.
func (s *MockSink) Load(_ context.Context, id core.WorkflowID) (*core.OrphanedResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	result, ok := s.Saved[id]
	if !ok {
		return nil, core.ErrState(core.CodeResultNotFound, "no persisted result for "+string(id))
	}
	return &result, nil
}

// List implements core.PersistenceSink.
func (s *MockSink) List(_ context.Context, tenant string) ([]core.WorkflowID, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var ids []core.WorkflowID
	for id, result := range s.Saved {
		if tenant == "" || result.Tenant == tenant {
			ids = append(ids, id)
		}
	}
	return ids, nil
}

// Close implements core.PersistenceSink.
func (s *MockSink) Close() error { return nil }

var (
	_ core.Worker          = (*MockWorker)(nil)
	_ core.CapabilityProbe = (*MockProbe)(nil)
	_ core.SessionChannel  = (*MockSession)(nil)
	_ core.PersistenceSink = (*MockSink)(nil)
)
