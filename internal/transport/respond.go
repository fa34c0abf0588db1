package transport

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/hirehall/dealflow/internal/coordinator"
	"github.com/hirehall/dealflow/internal/domain/escrow"
	"github.com/hirehall/dealflow/internal/domain/project"
	"github.com/hirehall/dealflow/internal/domain/quote"
	"github.com/hirehall/dealflow/internal/domain/revision"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

type errorBody struct {
	Error string `json:"error"`
}

// writeError maps domain errors to HTTP statuses. The error text carries the
// plain-language reason tied to current entity state.
func writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError

	switch {
	case errors.Is(err, coordinator.ErrPermissionDenied):
		status = http.StatusForbidden
	case errors.Is(err, coordinator.ErrInvalidStateTransition),
		errors.Is(err, coordinator.ErrEscrowIneligible),
		errors.Is(err, revision.ErrOutstanding):
		status = http.StatusConflict
	case errors.Is(err, project.ErrProjectNotFound),
		errors.Is(err, quote.ErrQuoteNotFound),
		errors.Is(err, revision.ErrRevisionNotFound),
		errors.Is(err, escrow.ErrEscrowNotFound):
		status = http.StatusNotFound
	case errors.Is(err, project.ErrInvalidInput),
		errors.Is(err, quote.ErrInvalidInput),
		errors.Is(err, revision.ErrInvalidInput):
		status = http.StatusBadRequest
	}

	writeJSON(w, status, errorBody{Error: err.Error()})
}
