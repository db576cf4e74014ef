package session

import (
	"slices"
	"time"
)

// legalFrom is the transition table: the statuses each command may fire
// from. Commands absent here carry their own legality predicate in Apply
// (Start, ConfirmSelection, ConfirmBypass, ResolveAssign, Reset).
var legalFrom = map[CommandType][]Status{
	CmdSetLanguage:         activeStatuses,
	CmdSetMembership:       {StatusMembershipPending, StatusRentalProposed},
	CmdProposeSelection:    {StatusMembershipPending, StatusRentalProposed},
	CmdForceSelection:      {StatusMembershipPending, StatusRentalProposed, StatusRentalConfirmed},
	CmdCreatePaymentIntent: {StatusRentalConfirmed, StatusPaymentDue, StatusPaymentPaid},
	CmdMarkPaid:            {StatusPaymentDue},
	CmdSignAgreement:       {StatusPaymentPaid, StatusAgreementPending},
	CmdBypassAgreement:     {StatusPaymentPaid, StatusAgreementPending},
	CmdRequestAssign:       {StatusPaymentPaid, StatusAgreementPending},
}

var activeStatuses = []Status{
	StatusLanguagePending, StatusMembershipPending, StatusRentalProposed,
	StatusRentalConfirmed, StatusPaymentDue, StatusPaymentPaid,
	StatusAgreementPending, StatusAssigned,
}

func legal(cmd CommandType, from Status) bool {
	return slices.Contains(legalFrom[cmd], from)
}

// CanCreatePaymentIntent reports whether a create-payment-intent command
// would be accepted right now. The lane actor checks this before talking to
// the payment gateway, so a command Apply is going to reject never mints an
// orphan intent at the provider.
func (s State) CanCreatePaymentIntent() error {
	if !s.Active() {
		return invalidStatef("no active session on lane %s", s.LaneID)
	}
	if !legal(CmdCreatePaymentIntent, s.Status) {
		return invalidStatef("%s not legal from %s", CmdCreatePaymentIntent, s.Status)
	}
	if s.PastDueBlocked {
		return ErrPastDueBlocked
	}
	return nil
}

// Apply runs one command against a session state and returns the events it
// produced and the new state. It never mutates its input and touches no
// clocks, stores, or sockets; the lane actor supplies those through the
// command. Illegal transitions come back as typed errors so callers can
// tell "wrong state" from "wrong data" from "lane is taken".
func Apply(s State, cmd Command) ([]Event, State, error) {
	switch cmd.Type {
	case CmdStart:
		return applyStart(s, cmd)
	case CmdConfirmSelection:
		return applyConfirm(s, cmd)
	case CmdConfirmBypass:
		return applyConfirmBypass(s, cmd)
	case CmdResolveAssign:
		return applyResolveAssign(s, cmd)
	case CmdReset:
		return applyReset(s)
	}

	if !s.Active() {
		return nil, s, invalidStatef("no active session on lane %s", s.LaneID)
	}
	if !legal(cmd.Type, s.Status) {
		return nil, s, invalidStatef("%s not legal from %s", cmd.Type, s.Status)
	}

	newState := s

	switch cmd.Type {
	case CmdSetLanguage:
		if cmd.Language == "" {
			return nil, s, validationf("language is required")
		}
		// No hard lock: employees may correct a wrong pick later.
		newState.Language = cmd.Language
		if newState.Status == StatusLanguagePending {
			newState.Status = StatusMembershipPending
		}
		return []Event{{Type: EvtLanguageSet, Actor: cmd.Actor}}, newState, nil

	case CmdSetMembership:
		newState.MembershipIntent = cmd.PurchaseIntent
		newState.MembershipChoice = cmd.MembershipChoice
		return []Event{{Type: EvtMembershipSet, Actor: cmd.Actor}}, newState, nil

	case CmdProposeSelection:
		return applyPropose(s, cmd)

	case CmdForceSelection:
		if !s.allows(cmd.RentalType) {
			return nil, s, validationf("rental type %s not allowed for this customer", cmd.RentalType)
		}
		newState.ProposedRentalType = cmd.RentalType
		newState.ProposedBy = ActorEmployee
		newState.SelectionConfirmed = true
		newState.ConfirmedBy = ActorEmployee
		newState.CustomerSelectedType = cmd.RentalType
		newState.Status = StatusRentalConfirmed
		return []Event{{Type: EvtSelectionForced, Actor: ActorEmployee, RentalType: cmd.RentalType}}, newState, nil

	case CmdCreatePaymentIntent:
		// At-most-once: a second request returns the existing intent.
		if s.PaymentIntentRequested {
			return nil, s, nil
		}
		if s.PastDueBlocked {
			return nil, s, ErrPastDueBlocked
		}
		quote := BuildQuote(s)
		newState.PaymentIntentRequested = true
		newState.PaymentIntentID = cmd.IntentID
		newState.PaymentStatus = PaymentDue
		newState.PaymentQuote = &quote
		newState.Status = StatusPaymentDue
		return []Event{{Type: EvtPaymentIntentCreated, Actor: cmd.Actor}}, newState, nil

	case CmdMarkPaid:
		if cmd.IntentID != "" && cmd.IntentID != s.PaymentIntentID {
			return nil, s, validationf("unknown payment intent %s", cmd.IntentID)
		}
		newState.PaymentStatus = PaymentPaid
		newState.Status = StatusPaymentPaid
		return []Event{{Type: EvtPaymentPaid}}, newState, nil

	case CmdSignAgreement:
		if cmd.SignMethod != SignDigital && cmd.SignMethod != SignManual {
			return nil, s, validationf("unknown sign method %q", cmd.SignMethod)
		}
		newState.AgreementSigned = true
		newState.AgreementSignedMethod = cmd.SignMethod
		newState.AgreementBypassPending = false
		newState.Status = StatusAgreementPending
		return []Event{{Type: EvtAgreementSigned, Actor: cmd.Actor}}, newState, nil

	case CmdBypassAgreement:
		newState.AgreementBypassPending = true
		newState.Status = StatusAgreementPending
		return []Event{{Type: EvtAgreementBypassed, Actor: cmd.Actor}}, newState, nil

	case CmdRequestAssign:
		return applyRequestAssign(s, cmd)
	}

	return nil, s, ErrUnsupportedCommand
}

func applyStart(s State, cmd Command) ([]Event, State, error) {
	if cmd.CustomerID == "" {
		return nil, s, validationf("customerId is required")
	}
	if s.Active() {
		// Re-entrant for the same customer: the register retried or the
		// kiosk raced it. Nothing changes, nothing broadcasts.
		if s.CustomerID == cmd.CustomerID {
			return nil, s, nil
		}
		return nil, s, &ConflictError{Active: ActiveCheckin{
			VisitID:                s.VisitID,
			CustomerName:           s.CustomerName,
			AssignedResourceType:   s.AssignedResourceType,
			AssignedResourceNumber: s.AssignedResourceNumber,
			CheckoutAt:             s.CheckoutAt,
			Overdue:                !s.CheckoutAt.IsZero() && s.CheckoutAt.Before(cmd.Now),
			PendingWaitlistTier:    s.WaitlistDesiredTier,
		}}
	}

	allowed := cmd.AllowedRentals
	if len(allowed) == 0 {
		allowed = []RentalType{RentalLocker, RentalStandard, RentalDouble, RentalSpecial}
	}
	newState := NewEmptyState(s.LaneID)
	newState.Status = StatusLanguagePending
	newState.SessionID = cmd.SessionID
	newState.CustomerID = cmd.CustomerID
	newState.CustomerName = cmd.CustomerName
	newState.VisitID = cmd.VisitID
	newState.MembershipNumber = cmd.MembershipNumber
	newState.MembershipValidUntil = cmd.MembershipValidUntil
	newState.AllowedRentals = allowed
	newState.PastDueBlocked = cmd.PastDueBlocked
	newState.PastDueBalance = cmd.PastDueBalance
	return []Event{{Type: EvtSessionStarted, Actor: cmd.Actor}}, newState, nil
}

func applyPropose(s State, cmd Command) ([]Event, State, error) {
	if !s.allows(cmd.RentalType) {
		return nil, s, validationf("rental type %s not allowed for this customer", cmd.RentalType)
	}

	newState := s

	if cmd.Availability[cmd.RentalType] <= 0 {
		// Desired tier is sold out: record the waitlist intent instead of a
		// proposal. A backup tier, if given and in stock, becomes the actual
		// proposal so the check-in can still move forward.
		desired := cmd.WaitlistDesiredType
		if desired == "" {
			desired = cmd.RentalType
		}
		newState.WaitlistDesiredTier = desired
		events := []Event{{Type: EvtWaitlistRequested, Actor: cmd.Actor, RentalType: desired}}

		if cmd.BackupRentalType != "" {
			if !s.allows(cmd.BackupRentalType) {
				return nil, s, validationf("backup rental type %s not allowed", cmd.BackupRentalType)
			}
			if cmd.Availability[cmd.BackupRentalType] <= 0 {
				return nil, s, validationf("backup rental type %s is also unavailable", cmd.BackupRentalType)
			}
			newState.WaitlistBackupType = cmd.BackupRentalType
			newState.ProposedRentalType = cmd.BackupRentalType
			newState.ProposedBy = cmd.Actor
			newState.Status = StatusRentalProposed
			events = append(events, Event{Type: EvtSelectionProposed, Actor: cmd.Actor, RentalType: cmd.BackupRentalType})
		}
		return events, newState, nil
	}

	// A re-propose before confirmation simply overwrites the pending
	// proposal; the kiosk's second tap of the same tier confirms instead
	// (client-side, once the snapshot reflects it).
	newState.ProposedRentalType = cmd.RentalType
	newState.ProposedBy = cmd.Actor
	newState.Status = StatusRentalProposed
	return []Event{{Type: EvtSelectionProposed, Actor: cmd.Actor, RentalType: cmd.RentalType}}, newState, nil
}

func applyConfirm(s State, cmd Command) ([]Event, State, error) {
	if !s.Active() {
		return nil, s, invalidStatef("no active session on lane %s", s.LaneID)
	}
	if s.ProposedRentalType == "" {
		return nil, s, invalidStatef("nothing proposed to confirm")
	}
	if s.SelectionConfirmed {
		return nil, s, invalidStatef("selection already confirmed")
	}
	newState := s
	newState.SelectionConfirmed = true
	newState.ConfirmedBy = cmd.Actor
	newState.CustomerSelectedType = s.ProposedRentalType
	newState.Status = StatusRentalConfirmed
	return []Event{{Type: EvtSelectionLocked, Actor: cmd.Actor, RentalType: s.ProposedRentalType}}, newState, nil
}

func applyConfirmBypass(s State, cmd Command) ([]Event, State, error) {
	if !s.Active() || !s.AgreementBypassPending {
		return nil, s, invalidStatef("no agreement bypass pending")
	}
	newState := s
	newState.AgreementBypassPending = false
	newState.BypassConfirmed = true
	return []Event{{Type: EvtBypassConfirmed, Actor: cmd.Actor}}, newState, nil
}

func applyRequestAssign(s State, cmd Command) ([]Event, State, error) {
	if !s.agreementDone() {
		return nil, s, invalidStatef("agreement not signed")
	}
	if cmd.ResourceNumber == "" {
		return nil, s, validationf("resource number is required")
	}

	newState := s

	// A room of a different tier than the customer agreed to needs the
	// kiosk's explicit OK before it is theirs.
	if cmd.ResourceType == ResourceRoom && cmd.ResourceTier != "" && cmd.ResourceTier != s.CustomerSelectedType {
		newState.PendingAssign = &PendingAssign{
			RequestedTier:  s.CustomerSelectedType,
			SelectedTier:   cmd.ResourceTier,
			ResourceNumber: cmd.ResourceNumber,
		}
		return []Event{{Type: EvtAssignPending, Actor: cmd.Actor, RentalType: cmd.ResourceTier}}, newState, nil
	}

	return assign(newState, cmd.ResourceType, cmd.ResourceNumber, cmd.CheckoutAt)
}

func applyResolveAssign(s State, cmd Command) ([]Event, State, error) {
	if !s.Active() || s.PendingAssign == nil {
		return nil, s, invalidStatef("no assignment awaiting confirmation")
	}
	newState := s
	pending := *s.PendingAssign
	newState.PendingAssign = nil

	events := []Event{{Type: EvtAssignResolved, Actor: cmd.Actor, RentalType: pending.SelectedTier}}
	if !cmd.Accept {
		return events, newState, nil
	}

	newState.CustomerSelectedType = pending.SelectedTier
	moreEvents, assigned, err := assign(newState, ResourceRoom, pending.ResourceNumber, cmd.CheckoutAt)
	if err != nil {
		return nil, s, err
	}
	return append(events, moreEvents...), assigned, nil
}

func assign(s State, rt ResourceType, number string, checkoutAt time.Time) ([]Event, State, error) {
	s.AssignedResourceType = rt
	s.AssignedResourceNumber = number
	s.CheckoutAt = checkoutAt
	s.Status = StatusAssigned
	return []Event{{Type: EvtAssigned, RentalType: s.CustomerSelectedType}}, s, nil
}

func applyReset(s State) ([]Event, State, error) {
	empty := NewEmptyState(s.LaneID)
	if !s.Active() {
		// Resetting an idle lane is a no-op, not an error.
		return nil, empty, nil
	}
	return []Event{{Type: EvtSessionCleared}}, empty, nil
}
