package session

import "time"

type CommandType string

const (
	CmdStart               CommandType = "Start"
	CmdSetLanguage         CommandType = "SetLanguage"
	CmdSetMembership       CommandType = "SetMembership"
	CmdProposeSelection    CommandType = "ProposeSelection"
	CmdConfirmSelection    CommandType = "ConfirmSelection"
	CmdForceSelection      CommandType = "ForceSelection"
	CmdCreatePaymentIntent CommandType = "CreatePaymentIntent"
	CmdMarkPaid            CommandType = "MarkPaid"
	CmdSignAgreement       CommandType = "SignAgreement"
	CmdBypassAgreement     CommandType = "BypassAgreement"
	CmdConfirmBypass       CommandType = "ConfirmBypass"
	CmdRequestAssign       CommandType = "RequestAssign"
	CmdResolveAssign       CommandType = "ResolveAssign"
	CmdReset               CommandType = "Reset"
)

// Command is one actor action against a lane session. The lane actor fills
// in the environment-dependent fields (SessionID, Availability, Now) before
// calling Apply, so Apply itself stays pure.
type Command struct {
	Type  CommandType
	Actor Actor

	// Start
	SessionID            string
	CustomerID           string
	CustomerName         string
	VisitID              string
	RenewalHours         int
	AllowedRentals       []RentalType
	PastDueBlocked       bool
	PastDueBalance       int
	MembershipNumber     string
	MembershipValidUntil time.Time

	// SetLanguage
	Language string

	// SetMembership
	PurchaseIntent   PurchaseIntent
	MembershipChoice MembershipChoice

	// Propose/Force
	RentalType          RentalType
	WaitlistDesiredType RentalType
	BackupRentalType    RentalType
	Availability        map[RentalType]int // raw unoccupied counts, injected by the lane

	// Payment
	IntentID string

	// Agreement
	SignMethod SignMethod

	// Assign
	ResourceType   ResourceType
	ResourceNumber string
	ResourceTier   RentalType
	CheckoutAt     time.Time
	Accept         bool

	Now time.Time
}

type EventType string

const (
	EvtSessionStarted       EventType = "SessionStarted"
	EvtLanguageSet          EventType = "LanguageSet"
	EvtMembershipSet        EventType = "MembershipSet"
	EvtSelectionProposed    EventType = "SelectionProposed"
	EvtSelectionLocked      EventType = "SelectionLocked"
	EvtSelectionForced      EventType = "SelectionForced"
	EvtWaitlistRequested    EventType = "WaitlistRequested"
	EvtPaymentIntentCreated EventType = "PaymentIntentCreated"
	EvtPaymentPaid          EventType = "PaymentPaid"
	EvtAgreementSigned      EventType = "AgreementSigned"
	EvtAgreementBypassed    EventType = "AgreementBypassed"
	EvtBypassConfirmed      EventType = "BypassConfirmed"
	EvtAssignPending        EventType = "AssignPending"
	EvtAssignResolved       EventType = "AssignResolved"
	EvtAssigned             EventType = "Assigned"
	EvtSessionCleared       EventType = "SessionCleared"
)

type Event struct {
	Type       EventType
	Actor      Actor
	RentalType RentalType
}

func ContainsEvent(events []Event, eventType EventType) bool {
	for _, event := range events {
		if event.Type == eventType {
			return true
		}
	}
	return false
}
