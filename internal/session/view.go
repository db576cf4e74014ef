package session

import "time"

// View is the public snapshot of a lane session: the exact shape pushed in
// SESSION_UPDATED messages and returned by the session-snapshot endpoint.
// Snapshot semantics, not patch semantics: every field present here is
// authoritative, clients overwrite their mirror wholesale.
type View struct {
	Status    Status `json:"status"`
	LaneID    string `json:"laneId"`
	SessionID string `json:"sessionId"`

	CustomerID           string    `json:"customerId"`
	CustomerName         string    `json:"customerName"`
	VisitID              string    `json:"visitId"`
	Language             string    `json:"language,omitempty"`
	MembershipNumber     string    `json:"membershipNumber,omitempty"`
	MembershipValidUntil time.Time `json:"membershipValidUntil,omitzero"`

	MembershipPurchaseIntent PurchaseIntent   `json:"membershipPurchaseIntent,omitempty"`
	MembershipChoice         MembershipChoice `json:"membershipChoice,omitempty"`

	AllowedRentals []RentalType `json:"allowedRentals"`

	ProposedRentalType   RentalType `json:"proposedRentalType,omitempty"`
	ProposedBy           Actor      `json:"proposedBy,omitempty"`
	SelectionConfirmed   bool       `json:"selectionConfirmed"`
	ConfirmedBy          Actor      `json:"confirmedBy,omitempty"`
	CustomerSelectedType RentalType `json:"customerSelectedType,omitempty"`

	WaitlistDesiredTier RentalType `json:"waitlistDesiredTier,omitempty"`
	WaitlistBackupType  RentalType `json:"waitlistBackupType,omitempty"`

	PaymentIntentID string        `json:"paymentIntentId,omitempty"`
	PaymentStatus   PaymentStatus `json:"paymentStatus,omitempty"`
	PaymentQuote    *Quote        `json:"paymentQuote,omitempty"`
	PastDueBlocked  bool          `json:"pastDueBlocked"`
	PastDueBalance  int           `json:"pastDueBalance"`

	AgreementSigned        bool       `json:"agreementSigned"`
	AgreementSignedMethod  SignMethod `json:"agreementSignedMethod,omitempty"`
	AgreementBypassPending bool       `json:"agreementBypassPending"`

	PendingAssign          *PendingAssign `json:"pendingAssign,omitempty"`
	AssignedResourceType   ResourceType   `json:"assignedResourceType,omitempty"`
	AssignedResourceNumber string         `json:"assignedResourceNumber,omitempty"`
	CheckoutAt             time.Time      `json:"checkoutAt,omitzero"`
}

// ToView projects the authoritative state onto its public snapshot. Returns
// nil when no session is active, which a client must treat as a full reset.
func (s State) ToView() *View {
	if !s.Active() {
		return nil
	}
	return &View{
		Status:                   s.Status,
		LaneID:                   s.LaneID,
		SessionID:                s.SessionID,
		CustomerID:               s.CustomerID,
		CustomerName:             s.CustomerName,
		VisitID:                  s.VisitID,
		Language:                 s.Language,
		MembershipNumber:         s.MembershipNumber,
		MembershipValidUntil:     s.MembershipValidUntil,
		MembershipPurchaseIntent: s.MembershipIntent,
		MembershipChoice:         s.MembershipChoice,
		AllowedRentals:           s.AllowedRentals,
		ProposedRentalType:       s.ProposedRentalType,
		ProposedBy:               s.ProposedBy,
		SelectionConfirmed:       s.SelectionConfirmed,
		ConfirmedBy:              s.ConfirmedBy,
		CustomerSelectedType:     s.CustomerSelectedType,
		WaitlistDesiredTier:      s.WaitlistDesiredTier,
		WaitlistBackupType:       s.WaitlistBackupType,
		PaymentIntentID:          s.PaymentIntentID,
		PaymentStatus:            s.PaymentStatus,
		PaymentQuote:             s.PaymentQuote,
		PastDueBlocked:           s.PastDueBlocked,
		PastDueBalance:           s.PastDueBalance,
		AgreementSigned:          s.AgreementSigned,
		AgreementSignedMethod:    s.AgreementSignedMethod,
		AgreementBypassPending:   s.AgreementBypassPending,
		PendingAssign:            s.PendingAssign,
		AssignedResourceType:     s.AssignedResourceType,
		AssignedResourceNumber:   s.AssignedResourceNumber,
		CheckoutAt:               s.CheckoutAt,
	}
}
