package http

import (
	"errors"
	"net/http"
	"time"

	"rewards/internal/core"
	"rewards/internal/log"
)

// errorResponse is the body of every non-2xx reply.
type errorResponse struct {
	Timestamp string `json:"timestamp"`
	Status    int    `json:"status"`
	Error     string `json:"error"`
	Message   string `json:"message"`
}

func isClientError(err error) bool {
	return errors.Is(err, core.ErrInvalidRange) ||
		errors.Is(err, core.ErrInvalidDate) ||
		errors.Is(err, core.ErrMissingCustomerID)
}

// writeError maps domain errors to statuses. Unexpected errors are logged in
// full and answered with an opaque message.
func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case isClientError(err):
		writeErrorBody(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, core.ErrCustomerNotFound):
		writeErrorBody(w, http.StatusNotFound, err.Error())
	default:
		s.events.LogError(r.Context(), "Reward calculation failed", err, log.OpCalculate,
			log.NewFields().WithCustomer(r.PathValue("customerId")))
		writeErrorBody(w, http.StatusInternalServerError, "An unexpected error occurred")
	}
}

func writeErrorBody(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, errorResponse{
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Status:    status,
		Error:     http.StatusText(status),
		Message:   message,
	})
}
