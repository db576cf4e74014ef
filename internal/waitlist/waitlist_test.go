package waitlist

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/frontdesk/checkin-backend/internal/inventory"
	"github.com/frontdesk/checkin-backend/internal/session"
)

type staticReader struct{ avail inventory.Availability }

func (r staticReader) Available(context.Context) (inventory.Availability, error) {
	return r.avail.Clone(), nil
}

func TestEligible(t *testing.T) {
	avail := inventory.Availability{session.RentalDouble: 1}

	cases := []struct {
		name    string
		entry   Entry
		offered map[session.RentalType]int
		want    bool
	}{
		{
			name:  "offered entry stays eligible",
			entry: Entry{Status: StatusOffered, DesiredTier: session.RentalDouble},
			want:  true,
		},
		{
			name:  "active entry with stock",
			entry: Entry{Status: StatusActive, DesiredTier: session.RentalDouble},
			want:  true,
		},
		{
			name:    "active entry blocked by an existing hold",
			entry:   Entry{Status: StatusActive, DesiredTier: session.RentalDouble},
			offered: map[session.RentalType]int{session.RentalDouble: 1},
			want:    false,
		},
		{
			name:  "cancelled entry never eligible",
			entry: Entry{Status: StatusCancelled, DesiredTier: session.RentalDouble},
			want:  false,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			require.Equal(t, tc.want, Eligible(tc.entry, avail, tc.offered))
		})
	}
}

func TestOffer_CapacityIsEnforcedAcrossEntries(t *testing.T) {
	// One DOUBLE room, two customers waiting on it: only one offer may land.
	svc := NewService(staticReader{avail: inventory.Availability{session.RentalDouble: 1}})
	first := svc.Add("visit-1", session.RentalDouble, session.RentalStandard)
	second := svc.Add("visit-2", session.RentalDouble, "")

	ctx := context.Background()
	offered, err := svc.Offer(ctx, first.ID, "room-310", "310")
	require.NoError(t, err)
	require.Equal(t, StatusOffered, offered.Status)
	require.Equal(t, "310", offered.OfferedRoomNumber)

	_, err = svc.Offer(ctx, second.ID, "room-310", "310")
	require.ErrorIs(t, err, ErrNotEligible)

	// The held room frees up once the first entry is handled.
	_, err = svc.Cancel(first.ID)
	require.NoError(t, err)
	require.Zero(t, svc.OfferedCounts()[session.RentalDouble])
}

func TestOffer_UnknownEntry(t *testing.T) {
	svc := NewService(staticReader{avail: inventory.Availability{}})
	_, err := svc.Offer(context.Background(), "nope", "", "")
	require.ErrorIs(t, err, ErrNotFound)
}

func TestOnChangeFiresOnMutations(t *testing.T) {
	svc := NewService(staticReader{avail: inventory.Availability{session.RentalSpecial: 1}})

	var notified int
	svc.OnChange(func([]Entry) { notified++ })

	e := svc.Add("visit-1", session.RentalSpecial, "")
	_, err := svc.Offer(context.Background(), e.ID, "room-501", "501")
	require.NoError(t, err)
	_, err = svc.Fulfill(e.ID)
	require.NoError(t, err)

	require.Equal(t, 3, notified)
}

func TestDemandCountsActiveOnly(t *testing.T) {
	svc := NewService(staticReader{avail: inventory.Availability{session.RentalDouble: 1}})
	svc.Add("visit-1", session.RentalDouble, "")
	e := svc.Add("visit-2", session.RentalDouble, "")
	_, err := svc.Offer(context.Background(), e.ID, "room-311", "311")
	require.NoError(t, err)

	require.Equal(t, 1, svc.Demand()[session.RentalDouble])
}
