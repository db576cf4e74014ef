package session

import (
	"slices"
	"time"
)

type RentalType string

const (
	RentalLocker   RentalType = "LOCKER"
	RentalStandard RentalType = "STANDARD"
	RentalDouble   RentalType = "DOUBLE"
	RentalSpecial  RentalType = "SPECIAL"
)

func ParseRentalType(s string) (RentalType, bool) {
	switch RentalType(s) {
	case RentalLocker, RentalStandard, RentalDouble, RentalSpecial:
		return RentalType(s), true
	default:
		return "", false
	}
}

type Actor string

const (
	ActorCustomer Actor = "CUSTOMER"
	ActorEmployee Actor = "EMPLOYEE"
)

func ParseActor(s string) (Actor, bool) {
	switch Actor(s) {
	case ActorCustomer, ActorEmployee:
		return Actor(s), true
	default:
		return "", false
	}
}

type Status string

const (
	StatusEmpty             Status = "EMPTY"
	StatusLanguagePending   Status = "LANGUAGE_PENDING"
	StatusMembershipPending Status = "MEMBERSHIP_PENDING"
	StatusRentalProposed    Status = "RENTAL_PROPOSED"
	StatusRentalConfirmed   Status = "RENTAL_CONFIRMED"
	StatusPaymentDue        Status = "PAYMENT_DUE"
	StatusPaymentPaid       Status = "PAYMENT_PAID"
	StatusAgreementPending  Status = "AGREEMENT_PENDING"
	StatusAssigned          Status = "ASSIGNED"
)

type PurchaseIntent string

const (
	IntentPurchase PurchaseIntent = "PURCHASE"
	IntentRenew    PurchaseIntent = "RENEW"
)

type MembershipChoice string

const (
	ChoiceOneTime  MembershipChoice = "ONE_TIME"
	ChoiceSixMonth MembershipChoice = "SIX_MONTH"
)

type PaymentStatus string

const (
	PaymentDue  PaymentStatus = "DUE"
	PaymentPaid PaymentStatus = "PAID"
)

type SignMethod string

const (
	SignDigital SignMethod = "DIGITAL"
	SignManual  SignMethod = "MANUAL"
)

type ResourceType string

const (
	ResourceRoom   ResourceType = "room"
	ResourceLocker ResourceType = "locker"
)

// QuoteLine is one priced line of a payment quote.
type QuoteLine struct {
	Label  string `json:"label"`
	Amount int    `json:"amount"` // cents
}

type Quote struct {
	Total     int         `json:"total"`
	LineItems []QuoteLine `json:"lineItems"`
	Messages  []string    `json:"messages"`
}

// PendingAssign is the cross-tier assignment confirmation sub-state: the
// employee picked a resource of a different tier than the customer confirmed,
// and the kiosk must accept or decline before assignment proceeds.
type PendingAssign struct {
	RequestedTier  RentalType `json:"requestedTier"`
	SelectedTier   RentalType `json:"selectedTier"`
	ResourceNumber string     `json:"resourceNumber"`
}

// State is the authoritative per-lane session. One active session per lane;
// StatusEmpty means no session, and a completed check-in resets back to it.
type State struct {
	Status    Status
	LaneID    string
	SessionID string

	CustomerID           string
	CustomerName         string
	VisitID              string
	Language             string
	MembershipNumber     string
	MembershipValidUntil time.Time
	MembershipIntent     PurchaseIntent
	MembershipChoice     MembershipChoice

	AllowedRentals []RentalType

	ProposedRentalType   RentalType
	ProposedBy           Actor
	SelectionConfirmed   bool
	ConfirmedBy          Actor
	CustomerSelectedType RentalType

	WaitlistDesiredTier RentalType
	WaitlistBackupType  RentalType

	PaymentIntentRequested bool
	PaymentIntentID        string
	PaymentStatus          PaymentStatus
	PaymentQuote           *Quote
	PastDueBlocked         bool
	PastDueBalance         int

	AgreementSigned        bool
	AgreementSignedMethod  SignMethod
	AgreementBypassPending bool
	BypassConfirmed        bool

	PendingAssign          *PendingAssign
	AssignedResourceType   ResourceType
	AssignedResourceNumber string
	CheckoutAt             time.Time
}

// Active reports whether a session is in progress on this lane.
func (s State) Active() bool {
	return s.Status != StatusEmpty && s.SessionID != ""
}

func (s State) allows(rt RentalType) bool {
	return slices.Contains(s.AllowedRentals, rt)
}

// agreementDone reports whether the agreement step no longer blocks
// resource assignment.
func (s State) agreementDone() bool {
	return s.AgreementSigned || s.BypassConfirmed
}

func NewEmptyState(laneID string) State {
	return State{Status: StatusEmpty, LaneID: laneID}
}
