package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/frontdesk/checkin-backend/internal/session"
	"github.com/frontdesk/checkin-backend/internal/waitlist"
)

const (
	codeAlreadyCheckedIn = "ALREADY_CHECKED_IN"
	codeInvalidState     = "INVALID_STATE"
	codeValidationError  = "VALIDATION_ERROR"
	codeNotFound         = "NOT_FOUND"
	codeNotEligible      = "NOT_ELIGIBLE"
	codePastDueBlocked   = "PAST_DUE_BLOCKED"
	codeNotAuthenticated = "NOT_AUTHENTICATED"
	codeInternalError    = "INTERNAL_ERROR"
)

type errorResponse struct {
	Error         string                 `json:"error"`
	Code          string                 `json:"code"`
	ActiveCheckin *session.ActiveCheckin `json:"activeCheckin,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func writeError(w http.ResponseWriter, status int, code, msg string) {
	writeJSON(w, status, errorResponse{Error: msg, Code: code})
}

// writeDomainError maps the session/waitlist error taxonomy onto HTTP. The
// conflict case is special: its body carries the conflicting session so the
// register can show who holds the lane.
func writeDomainError(w http.ResponseWriter, err error, conflictStatus int) {
	var conflict *session.ConflictError
	switch {
	case errors.As(err, &conflict):
		if conflictStatus == 0 {
			conflictStatus = http.StatusConflict
		}
		writeJSON(w, conflictStatus, errorResponse{
			Error:         err.Error(),
			Code:          codeAlreadyCheckedIn,
			ActiveCheckin: &conflict.Active,
		})
	case errors.Is(err, session.ErrValidation):
		writeError(w, http.StatusBadRequest, codeValidationError, err.Error())
	case errors.Is(err, session.ErrInvalidState):
		writeError(w, http.StatusConflict, codeInvalidState, err.Error())
	case errors.Is(err, session.ErrPastDueBlocked):
		writeError(w, http.StatusConflict, codePastDueBlocked, err.Error())
	case errors.Is(err, waitlist.ErrNotFound):
		writeError(w, http.StatusNotFound, codeNotFound, err.Error())
	case errors.Is(err, waitlist.ErrNotEligible):
		writeError(w, http.StatusConflict, codeNotEligible, err.Error())
	default:
		writeError(w, http.StatusInternalServerError, codeInternalError, "internal error")
	}
}
