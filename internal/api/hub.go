package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"

	"github.com/vigilsec/argus/internal/core"
)

// SessionEvent is one message pushed to a subscribed session.
type SessionEvent struct {
	Type     string                  `json:"type"` // progress or final
	Progress *core.ProgressUpdate    `json:"progress,omitempty"`
	Report   *core.SynthesizedReport `json:"report,omitempty"`
}

// SessionHub routes progress and final reports to HTTP subscribers. It
// implements core.SessionChannel: a session is reachable while at least
// one subscriber is attached to its handle.
type SessionHub struct {
	mu   sync.RWMutex
	subs map[core.SessionHandle]map[chan SessionEvent]struct{}
}

// NewSessionHub creates an empty hub.
func NewSessionHub() *SessionHub {
	return &SessionHub{
		subs: make(map[core.SessionHandle]map[chan SessionEvent]struct{}),
	}
}

// Subscribe attaches a subscriber to a session handle. The returned
// cancel func detaches it and closes the channel.
func (h *SessionHub) Subscribe(session core.SessionHandle) (<-chan SessionEvent, func()) {
	ch := make(chan SessionEvent, 16)

	h.mu.Lock()
	if h.subs[session] == nil {
		h.subs[session] = make(map[chan SessionEvent]struct{})
	}
	h.subs[session][ch] = struct{}{}
	h.mu.Unlock()

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			h.mu.Lock()
			delete(h.subs[session], ch)
			if len(h.subs[session]) == 0 {
				delete(h.subs, session)
			}
			h.mu.Unlock()
			close(ch)
		})
	}
	return ch, cancel
}

// SendProgress fans a progress update out to the session's subscribers.
// A session with no subscribers is not an error; progress is best
// effort and slow subscribers drop updates rather than block the run.
func (h *SessionHub) SendProgress(_ context.Context, session core.SessionHandle, update core.ProgressUpdate) error {
	h.broadcast(session, SessionEvent{Type: "progress", Progress: &update})
	return nil
}

// SendFinal delivers the final report. Without a live subscriber the
// session counts as unreachable so the caller can orphan the result.
func (h *SessionHub) SendFinal(_ context.Context, session core.SessionHandle, report core.SynthesizedReport) error {
	h.mu.RLock()
	live := len(h.subs[session]) > 0
	h.mu.RUnlock()
	if !live {
		return core.ErrDeliveryUnreachable(fmt.Sprintf("no subscriber for session %s", session))
	}

	h.broadcast(session, SessionEvent{Type: "final", Report: &report})
	return nil
}

func (h *SessionHub) broadcast(session core.SessionHandle, event SessionEvent) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for ch := range h.subs[session] {
		select {
		case ch <- event:
		default:
		}
	}
}

var _ core.SessionChannel = (*SessionHub)(nil)

// handleWorkflowEvents streams run progress over SSE. The subscriber
// attaches to the session handle named in ?session=; the stream ends
// after the final report or when the client disconnects.
func (s *Server) handleWorkflowEvents(w http.ResponseWriter, r *http.Request) {
	session := core.SessionHandle(r.URL.Query().Get("session"))
	if session == "" {
		respondError(w, http.StatusBadRequest, "missing session query parameter")
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")

	flusher, ok := w.(http.Flusher)
	if !ok {
		respondError(w, http.StatusInternalServerError, "streaming not supported")
		return
	}

	events, cancel := s.hub.Subscribe(session)
	defer cancel()

	s.logger.Info("event stream connected",
		"remote_addr", r.RemoteAddr,
		"session", string(session),
	)

	s.sendSSEEvent(w, flusher, "connected", map[string]string{"status": "connected"})

	ctx := r.Context()
	for {
		select {
		case <-ctx.Done():
			s.logger.Info("event stream disconnected", "remote_addr", r.RemoteAddr)
			return

		case event, ok := <-events:
			if !ok {
				return
			}
			s.sendSSEEvent(w, flusher, event.Type, event)
			if event.Type == "final" {
				return
			}
		}
	}
}

// sendSSEEvent writes one event in SSE wire format.
func (s *Server) sendSSEEvent(w http.ResponseWriter, flusher http.Flusher, eventType string, data any) {
	jsonData, err := json.Marshal(data)
	if err != nil {
		s.logger.Error("failed to marshal event", "error", err)
		return
	}

	fmt.Fprintf(w, "event: %s\n", eventType)
	fmt.Fprintf(w, "data: %s\n\n", jsonData)
	flusher.Flush()
}
