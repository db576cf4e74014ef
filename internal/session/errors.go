package session

import (
	"errors"
	"fmt"
	"time"
)

var (
	ErrInvalidState       = errors.New("action not legal in current session state")
	ErrValidation         = errors.New("invalid command data")
	ErrAlreadyCheckedIn   = errors.New("another session is active on this lane")
	ErrPastDueBlocked     = errors.New("customer blocked by past-due balance")
	ErrUnsupportedCommand = errors.New("unsupported command")
)

// ActiveCheckin is the public shape of a conflicting session, returned to the
// caller so the register can show who currently holds the lane.
type ActiveCheckin struct {
	VisitID                string       `json:"visitId"`
	CustomerName           string       `json:"customerName"`
	AssignedResourceType   ResourceType `json:"assignedResourceType,omitempty"`
	AssignedResourceNumber string       `json:"assignedResourceNumber,omitempty"`
	CheckoutAt             time.Time    `json:"checkoutAt,omitzero"`
	Overdue                bool         `json:"overdue"`
	PendingWaitlistTier    RentalType   `json:"pendingWaitlistTier,omitempty"`
}

// ConflictError carries the conflicting session's details alongside the
// ALREADY_CHECKED_IN rejection. errors.Is(err, ErrAlreadyCheckedIn) holds.
type ConflictError struct {
	Active ActiveCheckin
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("already checked in (visit %s)", e.Active.VisitID)
}

func (e *ConflictError) Is(target error) bool { return target == ErrAlreadyCheckedIn }

func validationf(format string, args ...any) error {
	return fmt.Errorf("%w: "+format, append([]any{ErrValidation}, args...)...)
}

func invalidStatef(format string, args ...any) error {
	return fmt.Errorf("%w: "+format, append([]any{ErrInvalidState}, args...)...)
}
