package client

import (
	"context"
	"fmt"

	"github.com/frontdesk/checkin-backend/internal/session"
)

// ConflictKind classifies start conflicts. There is only one kind today:
// the server reports it either as a 409 or as a 200 carrying the code, and
// both collapse here.
type ConflictKind string

const KindAlreadyVisiting ConflictKind = "already-visiting"

// Conflict is the typed start rejection: someone is already mid-visit on
// this lane.
type Conflict struct {
	Kind   ConflictKind
	Active session.ActiveCheckin
}

func (c *Conflict) Error() string {
	return fmt.Sprintf("%s: visit %s", c.Kind, c.Active.VisitID)
}

type StartRequest struct {
	CustomerID   string `json:"customerId"`
	CustomerName string `json:"customerName,omitempty"`
	VisitID      string `json:"visitId,omitempty"`
	RenewalHours int    `json:"renewalHours,omitempty"`
}

// API is one lane's command surface as seen from a station. The HTTP
// implementation lives in this package; tests substitute fakes.
type API interface {
	Start(ctx context.Context, req StartRequest) (*session.View, error)
	ProposeSelection(ctx context.Context, tier session.RentalType, actor session.Actor, backup session.RentalType) (*session.View, error)
	ConfirmSelection(ctx context.Context, actor session.Actor) (*session.View, error)
	CreatePaymentIntent(ctx context.Context) (*session.View, error)
	SessionSnapshot(ctx context.Context) (*session.View, error)
	Reset(ctx context.Context) error
}
