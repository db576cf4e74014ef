package waitlist

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/frontdesk/checkin-backend/internal/inventory"
	"github.com/frontdesk/checkin-backend/internal/session"
)

var (
	ErrNotFound    = errors.New("waitlist entry not found")
	ErrNotEligible = errors.New("entry is not eligible for an offer")
)

type Status string

const (
	StatusActive    Status = "ACTIVE"
	StatusOffered   Status = "OFFERED"
	StatusFulfilled Status = "FULFILLED"
	StatusCancelled Status = "CANCELLED"
)

// Entry is a customer's standing request for a currently-unavailable tier.
type Entry struct {
	ID                string             `json:"id"`
	VisitID           string             `json:"visitId"`
	DesiredTier       session.RentalType `json:"desiredTier"`
	BackupTier        session.RentalType `json:"backupTier,omitempty"`
	Status            Status             `json:"status"`
	RoomID            string             `json:"roomId,omitempty"`
	OfferedRoomNumber string             `json:"offeredRoomNumber,omitempty"`
	CreatedAt         time.Time          `json:"createdAt"`
}

// Eligible reports whether an entry may currently be offered a resource.
// An already-offered entry stays eligible (its hold is counted); an active
// entry is eligible only while raw availability for its desired tier, less
// the holds already promised to other entries, remains positive.
func Eligible(e Entry, avail inventory.Availability, offered map[session.RentalType]int) bool {
	if e.Status == StatusOffered {
		return true
	}
	return e.Status == StatusActive && avail[e.DesiredTier]-offered[e.DesiredTier] > 0
}

// Service holds the waitlist and serializes offer check-and-sets so two
// staff members cannot promise the same last room.
type Service struct {
	mu      sync.Mutex
	entries map[string]*Entry
	reader  inventory.Reader
	now     func() time.Time

	// onChange, when set, is called after every mutation with the full list.
	onChange func([]Entry)
}

func NewService(reader inventory.Reader) *Service {
	return &Service{
		entries: make(map[string]*Entry),
		reader:  reader,
		now:     time.Now,
	}
}

// OnChange registers the broadcast hook. Call before serving traffic.
func (s *Service) OnChange(fn func([]Entry)) { s.onChange = fn }

func (s *Service) Add(visitID string, desired, backup session.RentalType) Entry {
	s.mu.Lock()
	e := &Entry{
		ID:          uuid.NewString(),
		VisitID:     visitID,
		DesiredTier: desired,
		BackupTier:  backup,
		Status:      StatusActive,
		CreatedAt:   s.now(),
	}
	s.entries[e.ID] = e
	out := *e
	s.mu.Unlock()

	s.changed()
	return out
}

// List returns entries filtered by status; an empty status means all.
// Ordered oldest first, the order staff work the list in.
func (s *Service) List(status Status) []Entry {
	s.mu.Lock()
	out := make([]Entry, 0, len(s.entries))
	for _, e := range s.entries {
		if status == "" || e.Status == status {
			out = append(out, *e)
		}
	}
	s.mu.Unlock()

	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out
}

// Demand counts ACTIVE entries per desired tier.
func (s *Service) Demand() map[session.RentalType]int {
	s.mu.Lock()
	defer s.mu.Unlock()
	demand := make(map[session.RentalType]int)
	for _, e := range s.entries {
		if e.Status == StatusActive {
			demand[e.DesiredTier]++
		}
	}
	return demand
}

// OfferedCounts counts OFFERED entries per desired tier, the holds that
// must be subtracted from raw availability.
func (s *Service) OfferedCounts() map[session.RentalType]int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.offeredLocked()
}

func (s *Service) offeredLocked() map[session.RentalType]int {
	offered := make(map[session.RentalType]int)
	for _, e := range s.entries {
		if e.Status == StatusOffered {
			offered[e.DesiredTier]++
		}
	}
	return offered
}

// Offer transitions an entry to OFFERED and associates the held room. The
// eligibility check and the transition happen under one lock, so concurrent
// offers for the same tier cannot both pass the capacity check.
func (s *Service) Offer(ctx context.Context, entryID, roomID, roomNumber string) (Entry, error) {
	avail, err := s.reader.Available(ctx)
	if err != nil {
		return Entry{}, err
	}

	s.mu.Lock()
	e, ok := s.entries[entryID]
	if !ok {
		s.mu.Unlock()
		return Entry{}, ErrNotFound
	}
	if !Eligible(*e, avail, s.offeredLocked()) || e.Status != StatusActive {
		s.mu.Unlock()
		return Entry{}, ErrNotEligible
	}
	e.Status = StatusOffered
	e.RoomID = roomID
	e.OfferedRoomNumber = roomNumber
	out := *e
	s.mu.Unlock()

	s.changed()
	return out, nil
}

func (s *Service) Cancel(entryID string) (Entry, error) {
	return s.setStatus(entryID, StatusCancelled)
}

func (s *Service) Fulfill(entryID string) (Entry, error) {
	return s.setStatus(entryID, StatusFulfilled)
}

func (s *Service) setStatus(entryID string, status Status) (Entry, error) {
	s.mu.Lock()
	e, ok := s.entries[entryID]
	if !ok {
		s.mu.Unlock()
		return Entry{}, ErrNotFound
	}
	e.Status = status
	out := *e
	s.mu.Unlock()

	s.changed()
	return out, nil
}

func (s *Service) changed() {
	if s.onChange != nil {
		s.onChange(s.List(""))
	}
}
