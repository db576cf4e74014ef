package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/frontdesk/checkin-backend/internal/hub"
	"github.com/frontdesk/checkin-backend/internal/inventory"
	"github.com/frontdesk/checkin-backend/internal/lane"
	"github.com/frontdesk/checkin-backend/internal/session"
	"github.com/frontdesk/checkin-backend/internal/waitlist"
)

// commandTimeout bounds both phases of talking to a lane actor: getting the
// command into its inbox and getting the result back. Variable so tests can
// shrink it.
var commandTimeout = 5 * time.Second

var errLaneTimeout = errors.New("lane did not answer in time")

// Server carries the handlers' collaborators. One instance per process,
// explicitly constructed; no package-level state so tests can run many.
type Server struct {
	hub       *hub.Hub
	waitlist  *waitlist.Service
	inventory inventory.Reader
	cache     *inventory.CachedReader // nil when caching is off
	logger    *zap.Logger
	validate  *validator.Validate
}

func NewServer(h *hub.Hub, wl *waitlist.Service, inv inventory.Reader, cache *inventory.CachedReader, logger *zap.Logger) *Server {
	return &Server{
		hub:       h,
		waitlist:  wl,
		inventory: inv,
		cache:     cache,
		logger:    logger,
		validate:  validator.New(),
	}
}

// doLane runs one command through the lane actor and waits for its typed
// result. The timeout guards against a wedged lane, not slow clients; the
// send itself is under it too, since a wedged lane's inbox eventually fills.
func (s *Server) doLane(laneID string, cmd session.Command) (*session.View, error) {
	ln := s.hub.Ensure(laneID)
	reply := make(chan lane.DoResult, 1)
	deadline := time.NewTimer(commandTimeout)
	defer deadline.Stop()
	select {
	case ln.Inbox() <- lane.Do{Cmd: cmd, Reply: reply}:
	case <-deadline.C:
		return nil, errLaneTimeout
	}
	select {
	case res := <-reply:
		return res.View, res.Err
	case <-deadline.C:
		return nil, errLaneTimeout
	}
}

// decode unmarshals and validates a request body, writing the error
// response itself on failure.
func (s *Server) decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		writeError(w, http.StatusBadRequest, codeValidationError, "malformed request body")
		return false
	}
	if err := s.validate.Struct(dst); err != nil {
		writeError(w, http.StatusBadRequest, codeValidationError, err.Error())
		return false
	}
	return true
}

type startRequest struct {
	CustomerID       string   `json:"customerId" validate:"required"`
	CustomerName     string   `json:"customerName"`
	VisitID          string   `json:"visitId"`
	RenewalHours     int      `json:"renewalHours" validate:"gte=0"`
	MembershipNumber string   `json:"membershipNumber"`
	AllowedRentals   []string `json:"allowedRentals" validate:"dive,oneof=LOCKER STANDARD DOUBLE SPECIAL"`
	PastDueBlocked   bool     `json:"pastDueBlocked"`
	PastDueBalance   int      `json:"pastDueBalance" validate:"gte=0"`
}

func (s *Server) Start(w http.ResponseWriter, r *http.Request) {
	var req startRequest
	if !s.decode(w, r, &req) {
		return
	}

	var allowed []session.RentalType
	for _, rt := range req.AllowedRentals {
		tier, _ := session.ParseRentalType(rt)
		allowed = append(allowed, tier)
	}

	cmd := session.Command{
		Type:             session.CmdStart,
		Actor:            session.ActorEmployee,
		CustomerID:       req.CustomerID,
		CustomerName:     req.CustomerName,
		VisitID:          req.VisitID,
		RenewalHours:     req.RenewalHours,
		MembershipNumber: req.MembershipNumber,
		AllowedRentals:   allowed,
		PastDueBlocked:   req.PastDueBlocked,
		PastDueBalance:   req.PastDueBalance,
	}

	view, err := s.doLane(chi.URLParam(r, "lane"), cmd)
	if err != nil {
		// Legacy kiosks expect the conflict as a 200 with a code field;
		// everyone else gets a proper 409. Same conflict either way.
		conflictStatus := 0
		if r.URL.Query().Get("conflict_status") == "200" {
			conflictStatus = http.StatusOK
		}
		writeDomainError(w, err, conflictStatus)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

type languageRequest struct {
	Language string `json:"language" validate:"required"`
	SetBy    string `json:"setBy" validate:"omitempty,oneof=CUSTOMER EMPLOYEE"`
}

func (s *Server) SetLanguage(w http.ResponseWriter, r *http.Request) {
	var req languageRequest
	if !s.decode(w, r, &req) {
		return
	}
	actor, _ := session.ParseActor(req.SetBy)
	s.run(w, r, session.Command{Type: session.CmdSetLanguage, Actor: actor, Language: req.Language})
}

type membershipRequest struct {
	PurchaseIntent   string `json:"purchaseIntent" validate:"required,oneof=PURCHASE RENEW"`
	MembershipChoice string `json:"membershipChoice" validate:"required,oneof=ONE_TIME SIX_MONTH"`
}

func (s *Server) SetMembership(w http.ResponseWriter, r *http.Request) {
	var req membershipRequest
	if !s.decode(w, r, &req) {
		return
	}
	s.run(w, r, session.Command{
		Type:             session.CmdSetMembership,
		PurchaseIntent:   session.PurchaseIntent(req.PurchaseIntent),
		MembershipChoice: session.MembershipChoice(req.MembershipChoice),
	})
}

type proposeRequest struct {
	RentalType          string `json:"rentalType" validate:"required,oneof=LOCKER STANDARD DOUBLE SPECIAL"`
	ProposedBy          string `json:"proposedBy" validate:"required,oneof=CUSTOMER EMPLOYEE"`
	WaitlistDesiredType string `json:"waitlistDesiredType" validate:"omitempty,oneof=LOCKER STANDARD DOUBLE SPECIAL"`
	BackupRentalType    string `json:"backupRentalType" validate:"omitempty,oneof=LOCKER STANDARD DOUBLE SPECIAL"`
}

func (s *Server) ProposeSelection(w http.ResponseWriter, r *http.Request) {
	var req proposeRequest
	if !s.decode(w, r, &req) {
		return
	}
	actor, _ := session.ParseActor(req.ProposedBy)
	s.run(w, r, session.Command{
		Type:                session.CmdProposeSelection,
		Actor:               actor,
		RentalType:          session.RentalType(req.RentalType),
		WaitlistDesiredType: session.RentalType(req.WaitlistDesiredType),
		BackupRentalType:    session.RentalType(req.BackupRentalType),
	})
}

type confirmRequest struct {
	ConfirmedBy string `json:"confirmedBy" validate:"required,oneof=CUSTOMER EMPLOYEE"`
}

func (s *Server) ConfirmSelection(w http.ResponseWriter, r *http.Request) {
	var req confirmRequest
	if !s.decode(w, r, &req) {
		return
	}
	actor, _ := session.ParseActor(req.ConfirmedBy)
	s.run(w, r, session.Command{Type: session.CmdConfirmSelection, Actor: actor})
}

type forceRequest struct {
	RentalType string `json:"rentalType" validate:"required,oneof=LOCKER STANDARD DOUBLE SPECIAL"`
}

func (s *Server) ForceSelection(w http.ResponseWriter, r *http.Request) {
	var req forceRequest
	if !s.decode(w, r, &req) {
		return
	}
	s.run(w, r, session.Command{
		Type:       session.CmdForceSelection,
		Actor:      session.ActorEmployee,
		RentalType: session.RentalType(req.RentalType),
	})
}

func (s *Server) CreatePaymentIntent(w http.ResponseWriter, r *http.Request) {
	s.run(w, r, session.Command{Type: session.CmdCreatePaymentIntent, Actor: session.ActorEmployee})
}

type paymentPaidRequest struct {
	PaymentIntentID string `json:"paymentIntentId"`
}

func (s *Server) PaymentPaid(w http.ResponseWriter, r *http.Request) {
	var req paymentPaidRequest
	if !s.decode(w, r, &req) {
		return
	}
	s.run(w, r, session.Command{Type: session.CmdMarkPaid, IntentID: req.PaymentIntentID})
}

type signRequest struct {
	Method   string `json:"method" validate:"required,oneof=DIGITAL MANUAL"`
	SignedBy string `json:"signedBy" validate:"omitempty,oneof=CUSTOMER EMPLOYEE"`
}

func (s *Server) SignAgreement(w http.ResponseWriter, r *http.Request) {
	var req signRequest
	if !s.decode(w, r, &req) {
		return
	}
	actor, _ := session.ParseActor(req.SignedBy)
	s.run(w, r, session.Command{Type: session.CmdSignAgreement, Actor: actor, SignMethod: session.SignMethod(req.Method)})
}

func (s *Server) BypassAgreement(w http.ResponseWriter, r *http.Request) {
	s.run(w, r, session.Command{Type: session.CmdBypassAgreement, Actor: session.ActorEmployee})
}

func (s *Server) ConfirmBypass(w http.ResponseWriter, r *http.Request) {
	s.run(w, r, session.Command{Type: session.CmdConfirmBypass, Actor: session.ActorEmployee})
}

type assignRequest struct {
	ResourceType   string `json:"resourceType" validate:"required,oneof=room locker"`
	ResourceNumber string `json:"resourceNumber" validate:"required"`
	ResourceTier   string `json:"resourceTier" validate:"omitempty,oneof=LOCKER STANDARD DOUBLE SPECIAL"`
}

func (s *Server) Assign(w http.ResponseWriter, r *http.Request) {
	var req assignRequest
	if !s.decode(w, r, &req) {
		return
	}
	view, err := s.doLane(chi.URLParam(r, "lane"), session.Command{
		Type:           session.CmdRequestAssign,
		Actor:          session.ActorEmployee,
		ResourceType:   session.ResourceType(req.ResourceType),
		ResourceNumber: req.ResourceNumber,
		ResourceTier:   session.RentalType(req.ResourceTier),
	})
	if err != nil {
		writeDomainError(w, err, 0)
		return
	}
	if view != nil && view.AssignedResourceNumber != "" {
		s.inventoryChanged(r)
	}
	writeJSON(w, http.StatusOK, view)
}

type assignResponseRequest struct {
	Accept bool `json:"accept"`
}

func (s *Server) AssignResponse(w http.ResponseWriter, r *http.Request) {
	var req assignResponseRequest
	if !s.decode(w, r, &req) {
		return
	}
	view, err := s.doLane(chi.URLParam(r, "lane"), session.Command{
		Type:   session.CmdResolveAssign,
		Actor:  session.ActorCustomer,
		Accept: req.Accept,
	})
	if err != nil {
		writeDomainError(w, err, 0)
		return
	}
	if req.Accept && view != nil && view.AssignedResourceNumber != "" {
		s.inventoryChanged(r)
	}
	writeJSON(w, http.StatusOK, view)
}

func (s *Server) Reset(w http.ResponseWriter, r *http.Request) {
	// Resetting an idle lane is success, not 404.
	view, err := s.doLane(chi.URLParam(r, "lane"), session.Command{Type: session.CmdReset})
	if err != nil {
		writeDomainError(w, err, 0)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"session": view})
}

func (s *Server) SessionSnapshot(w http.ResponseWriter, r *http.Request) {
	ln := s.hub.Ensure(chi.URLParam(r, "lane"))
	reply := make(chan *session.View, 1)
	deadline := time.NewTimer(commandTimeout)
	defer deadline.Stop()
	select {
	case ln.Inbox() <- lane.Get{Reply: reply}:
	case <-deadline.C:
		writeError(w, http.StatusInternalServerError, codeInternalError, errLaneTimeout.Error())
		return
	}
	select {
	case view := <-reply:
		// view == nil means no active session; clients must fully reset.
		writeJSON(w, http.StatusOK, map[string]any{"session": view})
	case <-deadline.C:
		writeError(w, http.StatusInternalServerError, codeInternalError, errLaneTimeout.Error())
	}
}

// run is the common path for commands whose response is just the new view.
func (s *Server) run(w http.ResponseWriter, r *http.Request, cmd session.Command) {
	view, err := s.doLane(chi.URLParam(r, "lane"), cmd)
	if err != nil {
		writeDomainError(w, err, 0)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

func (s *Server) WaitlistList(w http.ResponseWriter, r *http.Request) {
	status := waitlist.Status(r.URL.Query().Get("status"))
	writeJSON(w, http.StatusOK, map[string]any{"entries": s.waitlist.List(status)})
}

type offerRequest struct {
	RoomID     string `json:"roomId" validate:"required"`
	RoomNumber string `json:"roomNumber" validate:"required"`
}

func (s *Server) WaitlistOffer(w http.ResponseWriter, r *http.Request) {
	var req offerRequest
	if !s.decode(w, r, &req) {
		return
	}
	entry, err := s.waitlist.Offer(r.Context(), chi.URLParam(r, "entry"), req.RoomID, req.RoomNumber)
	if err != nil {
		writeDomainError(w, err, 0)
		return
	}
	writeJSON(w, http.StatusOK, entry)
}

func (s *Server) WaitlistCancel(w http.ResponseWriter, r *http.Request) {
	entry, err := s.waitlist.Cancel(chi.URLParam(r, "entry"))
	if err != nil {
		writeDomainError(w, err, 0)
		return
	}
	writeJSON(w, http.StatusOK, entry)
}

type tierAvailability struct {
	Rooms          int `json:"rooms"`
	RawRooms       int `json:"rawRooms"`
	WaitlistDemand int `json:"waitlistDemand"`
}

type availabilityResponse struct {
	Tiers   map[session.RentalType]tierAvailability `json:"tiers"`
	Lockers int                                     `json:"lockers"`
}

func (s *Server) InventoryAvailable(w http.ResponseWriter, r *http.Request) {
	raw, err := s.inventory.Available(r.Context())
	if err != nil {
		s.logger.Error("inventory read failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, codeInternalError, "inventory unavailable")
		return
	}
	offered := s.waitlist.OfferedCounts()
	demand := s.waitlist.Demand()

	resp := availabilityResponse{Tiers: make(map[session.RentalType]tierAvailability), Lockers: raw[session.RentalLocker]}
	for _, tier := range []session.RentalType{session.RentalStandard, session.RentalDouble, session.RentalSpecial} {
		effective := max(raw[tier]-offered[tier], 0)
		resp.Tiers[tier] = tierAvailability{
			Rooms:          effective,
			RawRooms:       raw[tier],
			WaitlistDemand: demand[tier],
		}
	}
	writeJSON(w, http.StatusOK, resp)
}

// inventoryChanged invalidates the availability cache and tells every
// station to refresh its counts.
func (s *Server) inventoryChanged(r *http.Request) {
	if s.cache != nil {
		s.cache.Invalidate()
	}
	avail, err := s.inventory.Available(r.Context())
	if err != nil {
		s.logger.Warn("availability refresh after assignment failed", zap.Error(err))
		return
	}
	s.hub.Publish(lane.Push{Type: lane.PushInventoryUpdated, Timestamp: time.Now(), Payload: avail})
}

func Healthz(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
}
