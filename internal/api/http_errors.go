package api

import (
	"errors"
	"net/http"

	"github.com/vigilsec/argus/internal/core"
)

// httpStatusForDomainError maps a domain error to an HTTP status.
func httpStatusForDomainError(err error) (int, bool) {
	var domErr *core.DomainError
	if !errors.As(err, &domErr) || domErr == nil {
		return 0, false
	}

	switch domErr.Category {
	case core.ErrCatValidation:
		return http.StatusUnprocessableEntity, true
	case core.ErrCatPrecondition:
		return http.StatusServiceUnavailable, true
	case core.ErrCatCancelled:
		return http.StatusRequestTimeout, true
	case core.ErrCatState:
		switch domErr.Code {
		case core.CodeResultNotFound:
			return http.StatusNotFound, true
		case core.CodeDuplicateWorkflow:
			return http.StatusConflict, true
		}
		return http.StatusInternalServerError, true
	default:
		return http.StatusInternalServerError, true
	}
}

// respondDomainError writes a mapped domain error, or a generic 500.
func respondDomainError(w http.ResponseWriter, err error) {
	if status, ok := httpStatusForDomainError(err); ok {
		respondError(w, status, err.Error())
		return
	}
	respondError(w, http.StatusInternalServerError, err.Error())
}
