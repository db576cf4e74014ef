package lane

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/frontdesk/checkin-backend/internal/inventory"
	"github.com/frontdesk/checkin-backend/internal/payment"
	"github.com/frontdesk/checkin-backend/internal/session"
	"github.com/frontdesk/checkin-backend/internal/waitlist"
)

// Push event types on the wire. SESSION_UPDATED carries the full session
// view and is the authoritative reconciliation point; the rest are narrow
// hints for low-latency UI updates.
const (
	PushSessionUpdated      = "SESSION_UPDATED"
	PushSelectionProposed   = "SELECTION_PROPOSED"
	PushSelectionLocked     = "SELECTION_LOCKED"
	PushSelectionForced     = "SELECTION_FORCED"
	PushWaitlistUpdated     = "WAITLIST_UPDATED"
	PushInventoryUpdated    = "INVENTORY_UPDATED"
	PushRoomConfirmPending  = "ROOM_CONFIRM_PENDING"
	PushRoomConfirmResolved = "ROOM_CONFIRM_RESOLVED"
	PushRoomAssigned        = "ROOM_ASSIGNED"
)

// Push is one server-to-subscriber message.
type Push struct {
	Type      string    `json:"type"`
	Timestamp time.Time `json:"timestamp"`
	Payload   any       `json:"payload"`
}

type Msg interface{ isLaneMsg() }

type Join struct {
	ClientID string
	Events   []string // empty = everything
	Outbox   chan Push
}

func (Join) isLaneMsg() {}

type Leave struct{ ClientID string }

func (Leave) isLaneMsg() {}

// Do carries one actor command and the channel its typed result goes back
// on. This is how HTTP handlers get synchronous rejections out of the
// single-writer loop.
type Do struct {
	Cmd   session.Command
	Reply chan DoResult
}

func (Do) isLaneMsg() {}

type DoResult struct {
	View *session.View
	Err  error
}

type Get struct {
	Reply chan *session.View
}

func (Get) isLaneMsg() {}

// Publish injects an externally-produced push (waitlist, inventory) into
// this lane's subscriber fan-out.
type Publish struct{ Push Push }

func (Publish) isLaneMsg() {}

type Shutdown struct{}

func (Shutdown) isLaneMsg() {}

type subscriber struct {
	out    chan Push
	filter map[string]bool // nil = everything
}

func (s subscriber) wants(pushType string) bool {
	return s.filter == nil || s.filter[pushType]
}

// Deps are the collaborators a lane needs around the pure state machine.
type Deps struct {
	Inventory inventory.Reader
	Waitlist  *waitlist.Service
	Gateway   payment.Gateway
	Logger    *zap.Logger
	Now       func() time.Time
	NewID     func() string
	// VisitLength sets checkoutAt relative to assignment time.
	VisitLength time.Duration
}

// Lane is the single writer for one physical lane's session. All mutations
// flow through its inbox, so propose/confirm/assign races linearize instead
// of interleaving.
type Lane struct {
	id     string
	inbox  chan Msg
	state  session.State
	subs   map[string]subscriber
	deps   Deps
	ctx    context.Context
	cancel context.CancelFunc
}

func New(parent context.Context, laneID string, deps Deps) *Lane {
	ctx, cancel := context.WithCancel(parent)
	if deps.Now == nil {
		deps.Now = time.Now
	}
	if deps.VisitLength == 0 {
		deps.VisitLength = 2 * time.Hour
	}
	if deps.Logger == nil {
		deps.Logger = zap.NewNop()
	}
	if deps.NewID == nil {
		deps.NewID = uuid.NewString
	}

	l := &Lane{
		id:     laneID,
		inbox:  make(chan Msg, 64),
		state:  session.NewEmptyState(laneID),
		subs:   make(map[string]subscriber),
		deps:   deps,
		ctx:    ctx,
		cancel: cancel,
	}
	go l.loop()
	return l
}

func (l *Lane) Inbox() chan<- Msg { return l.inbox }

func (l *Lane) loop() {
	for {
		select {
		case <-l.ctx.Done():
			l.shutdown()
			return

		case m := <-l.inbox:
			switch msg := m.(type) {
			case Join:
				sub := subscriber{out: msg.Outbox}
				if len(msg.Events) > 0 {
					sub.filter = make(map[string]bool, len(msg.Events))
					for _, e := range msg.Events {
						sub.filter[e] = true
					}
				}
				l.subs[msg.ClientID] = sub
				// New subscribers get the current truth immediately. Same
				// send-or-drop as broadcast: a joiner whose outbox is already
				// full must not wedge the lane.
				if sub.wants(PushSessionUpdated) {
					l.send(msg.ClientID, sub, l.sessionPush())
				}

			case Leave:
				delete(l.subs, msg.ClientID)

			case Do:
				msg.Reply <- l.handle(msg.Cmd)

			case Get:
				msg.Reply <- l.state.ToView()

			case Publish:
				l.broadcast(msg.Push)

			case Shutdown:
				l.shutdown()
				return
			}
		}
	}
}

// handle prepares a command with everything Apply cannot reach for itself,
// applies it, and fans out the result.
func (l *Lane) handle(cmd session.Command) DoResult {
	cmd.Now = l.deps.Now()

	switch cmd.Type {
	case session.CmdStart:
		if cmd.SessionID == "" {
			cmd.SessionID = l.deps.NewID()
		}
		if cmd.VisitID == "" {
			cmd.VisitID = l.deps.NewID()
		}

	case session.CmdProposeSelection:
		avail, err := l.availability()
		if err != nil {
			return DoResult{Err: err}
		}
		cmd.Availability = avail

	case session.CmdCreatePaymentIntent:
		// Only touch the gateway when Apply is going to accept the command;
		// otherwise a rejected create leaves an orphan intent at the
		// provider. Apply produces the rejection itself below.
		if !l.state.PaymentIntentRequested && l.state.CanCreatePaymentIntent() == nil {
			intentID, err := l.deps.Gateway.CreateIntent(l.ctx, session.BuildQuote(l.state))
			if err != nil {
				l.deps.Logger.Warn("payment intent creation failed",
					zap.String("lane", l.id), zap.Error(err))
				return DoResult{Err: err}
			}
			cmd.IntentID = intentID
		}

	case session.CmdRequestAssign, session.CmdResolveAssign:
		cmd.CheckoutAt = l.deps.Now().Add(l.deps.VisitLength)
	}

	events, newState, err := session.Apply(l.state, cmd)
	if err != nil {
		// InvalidState here means a client acted on a stale view; that is a
		// reconciliation bug worth seeing in the logs, not a user problem.
		l.deps.Logger.Info("command rejected",
			zap.String("lane", l.id),
			zap.String("command", string(cmd.Type)),
			zap.String("status", string(l.state.Status)),
			zap.Error(err))
		return DoResult{View: l.state.ToView(), Err: err}
	}

	l.state = newState
	l.react(cmd, events)

	if len(events) > 0 {
		l.broadcast(l.sessionPush())
		for _, e := range events {
			if push, ok := narrowPush(e, l.deps.Now()); ok {
				l.broadcast(push)
			}
		}
	}

	return DoResult{View: l.state.ToView()}
}

// react runs the side effects an applied command implies: waitlist entry
// creation and the automatic at-most-once payment intent after confirmation.
func (l *Lane) react(cmd session.Command, events []session.Event) {
	for _, e := range events {
		switch e.Type {
		case session.EvtWaitlistRequested:
			if l.deps.Waitlist != nil {
				l.deps.Waitlist.Add(l.state.VisitID, l.state.WaitlistDesiredTier, l.state.WaitlistBackupType)
			}

		case session.EvtSelectionLocked, session.EvtSelectionForced:
			// Fire the intent the instant confirmation lands. The flag in
			// state makes a racing explicit create-payment-intent call a
			// no-op rather than a double charge.
			if !l.state.PaymentIntentRequested {
				res := l.handle(session.Command{Type: session.CmdCreatePaymentIntent, Actor: cmd.Actor})
				if res.Err != nil {
					l.deps.Logger.Warn("auto payment intent failed; awaiting manual retry",
						zap.String("lane", l.id), zap.Error(res.Err))
				}
			}
		}
	}
}

func (l *Lane) availability() (inventory.Availability, error) {
	ctx, cancel := context.WithTimeout(l.ctx, 3*time.Second)
	defer cancel()
	avail, err := l.deps.Inventory.Available(ctx)
	if err != nil {
		return nil, err
	}
	// Effective availability: physically free minus rooms already promised
	// to offered waitlist entries.
	if l.deps.Waitlist != nil {
		for tier, held := range l.deps.Waitlist.OfferedCounts() {
			avail[tier] -= held
		}
	}
	return avail, nil
}

func (l *Lane) sessionPush() Push {
	return Push{Type: PushSessionUpdated, Timestamp: l.deps.Now(), Payload: l.state.ToView()}
}

func narrowPush(e session.Event, now time.Time) (Push, bool) {
	var t string
	switch e.Type {
	case session.EvtSelectionProposed:
		t = PushSelectionProposed
	case session.EvtSelectionLocked:
		t = PushSelectionLocked
	case session.EvtSelectionForced:
		t = PushSelectionForced
	case session.EvtWaitlistRequested:
		t = PushWaitlistUpdated
	case session.EvtAssignPending:
		t = PushRoomConfirmPending
	case session.EvtAssignResolved:
		t = PushRoomConfirmResolved
	case session.EvtAssigned:
		t = PushRoomAssigned
	default:
		return Push{}, false
	}
	return Push{Type: t, Timestamp: now, Payload: map[string]string{
		"actor":      string(e.Actor),
		"rentalType": string(e.RentalType),
	}}, true
}

func (l *Lane) broadcast(push Push) {
	for id, sub := range l.subs {
		if !sub.wants(push.Type) {
			continue
		}
		l.send(id, sub, push)
	}
}

func (l *Lane) send(id string, sub subscriber, push Push) {
	select {
	case sub.out <- push:
		// ok
	default:
		// Slow or stuck subscriber: drop it. Polling fallback plus the
		// next full snapshot make this loss self-healing.
		close(sub.out)
		delete(l.subs, id)
	}
}

func (l *Lane) shutdown() {
	for id, sub := range l.subs {
		close(sub.out)
		delete(l.subs, id)
	}
	l.cancel()
}
