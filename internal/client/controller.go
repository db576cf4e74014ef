package client

import (
	"context"
	"errors"
	"sync"

	"github.com/frontdesk/checkin-backend/internal/session"
)

// Controller drives one station's view of a lane: it owns the mirror,
// feeds snapshots through the reducer, and implements the tap semantics on
// top of the propose/confirm protocol.
type Controller struct {
	api   API
	actor session.Actor

	mu     sync.Mutex
	mirror Mirror
}

func NewController(api API, actor session.Actor) *Controller {
	return &Controller{api: api, actor: actor}
}

func (c *Controller) Mirror() Mirror {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.mirror
}

// ApplySnapshot feeds one server snapshot (socket push or poll result)
// through the reducer.
func (c *Controller) ApplySnapshot(snap *session.View) {
	c.mu.Lock()
	c.mirror = Reduce(c.mirror, snap)
	c.mu.Unlock()
}

// Acknowledge marks the currently pending proposal as rendered.
func (c *Controller) Acknowledge() {
	c.mu.Lock()
	c.mirror = c.mirror.Acknowledge()
	c.mu.Unlock()
}

// StartVisit begins a session for a customer. A conflict is not an error
// in the transport sense: it comes back as a populated *Conflict so the UI
// can show the existing visit inline.
func (c *Controller) StartVisit(ctx context.Context, req StartRequest) (*session.View, *Conflict, error) {
	view, err := c.api.Start(ctx, req)
	if err != nil {
		var conflict *Conflict
		if errors.As(err, &conflict) {
			return nil, conflict, nil
		}
		return nil, nil, err
	}
	c.ApplySnapshot(view)
	return view, nil, nil
}

// TapSelection implements the double-tap convention. The first tap of a
// tier proposes it. A second tap of the same tier, once the mirror's
// snapshot already reflects that exact unconfirmed proposal, confirms it
// and then ensures the payment intent exists, in that order. Tapping a
// different tier just re-proposes.
func (c *Controller) TapSelection(ctx context.Context, tier session.RentalType) error {
	m := c.Mirror()

	if m.Session != nil && m.Session.ProposedRentalType == tier && !m.Session.SelectionConfirmed {
		view, err := c.api.ConfirmSelection(ctx, c.actor)
		if err != nil {
			return err
		}
		c.ApplySnapshot(view)

		view, err = c.api.CreatePaymentIntent(ctx)
		if err != nil {
			return err
		}
		c.ApplySnapshot(view)
		return nil
	}

	view, err := c.api.ProposeSelection(ctx, tier, c.actor, "")
	if err != nil {
		return err
	}
	c.ApplySnapshot(view)
	return nil
}

// Refresh pulls one snapshot outside the push/poll machinery, for initial
// render.
func (c *Controller) Refresh(ctx context.Context) error {
	view, err := c.api.SessionSnapshot(ctx)
	if err != nil {
		return err
	}
	c.ApplySnapshot(view)
	return nil
}
