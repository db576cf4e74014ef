package inventory

import (
	"context"

	"github.com/frontdesk/checkin-backend/internal/session"
)

// Availability is the raw unoccupied count per rental tier. The LOCKER key
// counts lockers; the other keys count rooms of that tier. "Raw" means
// physically free. Waitlist holds are subtracted by the callers that need
// effective availability.
type Availability map[session.RentalType]int

func (a Availability) Clone() Availability {
	out := make(Availability, len(a))
	for k, v := range a {
		out[k] = v
	}
	return out
}

// Reader is the read contract over the room/locker inventory. The
// persistence layer behind it is not this system's concern.
type Reader interface {
	Available(ctx context.Context) (Availability, error)
}
