package api

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/vigilsec/argus/internal/core"
)

// createWorkflowRequest is the POST /workflows body.
type createWorkflowRequest struct {
	URL     string `json:"url"`
	Tier    string `json:"tier"`
	Tenant  string `json:"tenant"`
	Session string `json:"session,omitempty"`

	// Wait blocks the request until the run finishes and returns the
	// synthesized report inline. Off, the run executes in the
	// background and the response carries only the workflow ID.
	Wait bool `json:"wait,omitempty"`
}

// createWorkflowResponse is the async POST /workflows response.
type createWorkflowResponse struct {
	WorkflowID core.WorkflowID `json:"workflow_id"`
	State      core.RunState   `json:"state"`
}

// workflowResultResponse is the synchronous POST /workflows response.
type workflowResultResponse struct {
	WorkflowID core.WorkflowID         `json:"workflow_id"`
	State      core.RunState           `json:"state"`
	Delivery   core.DeliveryOutcome    `json:"delivery"`
	Report     *core.SynthesizedReport `json:"report,omitempty"`
}

func (s *Server) handleCreateWorkflow(w http.ResponseWriter, r *http.Request) {
	var body createWorkflowRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	tier := core.TierStandard
	if body.Tier != "" {
		parsed, err := core.ParseTier(body.Tier)
		if err != nil {
			respondError(w, http.StatusUnprocessableEntity, err.Error())
			return
		}
		tier = parsed
	}

	req := core.WorkflowRequest{
		ID:      core.WorkflowID(uuid.NewString()),
		URL:     body.URL,
		Tier:    tier,
		Tenant:  body.Tenant,
		Session: core.SessionHandle(body.Session),
	}

	if body.Wait {
		outcome, err := s.runner.Run(r.Context(), req)
		if err != nil && outcome == nil {
			respondDomainError(w, err)
			return
		}
		resp := workflowResultResponse{
			WorkflowID: req.ID,
			State:      outcome.State,
			Delivery:   outcome.Delivery,
			Report:     &outcome.Report,
		}
		respondJSON(w, http.StatusOK, resp)
		return
	}

	// Background runs answer to nobody's request context.
	go func() {
		if _, err := s.runner.Run(context.Background(), req); err != nil {
			s.logger.Error("workflow run failed",
				"workflow_id", string(req.ID),
				"error", err,
			)
		}
	}()

	respondJSON(w, http.StatusAccepted, createWorkflowResponse{
		WorkflowID: req.ID,
		State:      core.RunStateRunning,
	})
}

func (s *Server) handleListWorkflows(w http.ResponseWriter, r *http.Request) {
	records := s.registry.List()

	if tenant := r.URL.Query().Get("tenant"); tenant != "" {
		filtered := records[:0]
		for _, rec := range records {
			if rec.Tenant == tenant {
				filtered = append(filtered, rec)
			}
		}
		records = filtered
	}

	respondJSON(w, http.StatusOK, records)
}

func (s *Server) handleGetWorkflow(w http.ResponseWriter, r *http.Request) {
	id := core.WorkflowID(chi.URLParam(r, "workflowID"))

	record, ok := s.registry.Get(id)
	if !ok {
		respondError(w, http.StatusNotFound, "workflow not found")
		return
	}

	respondJSON(w, http.StatusOK, record)
}
