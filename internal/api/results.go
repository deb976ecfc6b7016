package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/vigilsec/argus/internal/core"
)

func (s *Server) handleListResults(w http.ResponseWriter, r *http.Request) {
	tenant := r.URL.Query().Get("tenant")

	ids, err := s.sink.List(r.Context(), tenant)
	if err != nil {
		respondDomainError(w, err)
		return
	}
	if ids == nil {
		ids = []core.WorkflowID{}
	}

	respondJSON(w, http.StatusOK, map[string][]core.WorkflowID{"workflow_ids": ids})
}

func (s *Server) handleGetResult(w http.ResponseWriter, r *http.Request) {
	id := core.WorkflowID(chi.URLParam(r, "workflowID"))

	result, err := s.sink.Load(r.Context(), id)
	if err != nil {
		respondDomainError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, result)
}
