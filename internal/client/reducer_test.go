package client

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/frontdesk/checkin-backend/internal/session"
)

func snapshot(sessionID string, mutate func(*session.View)) *session.View {
	v := &session.View{
		Status:    session.StatusRentalProposed,
		LaneID:    "lane-1",
		SessionID: sessionID,
	}
	if mutate != nil {
		mutate(v)
	}
	return v
}

func TestReduce_SameSnapshotTwiceIsIdempotent(t *testing.T) {
	snap := snapshot("sess-1", func(v *session.View) {
		v.ProposedRentalType = session.RentalLocker
		v.ProposedBy = session.ActorEmployee
	})

	once := Reduce(Mirror{}, snap)
	twice := Reduce(once, snap)
	assert.Equal(t, once, twice)
}

func TestReduce_NewSessionIDDiscardsEverything(t *testing.T) {
	m := Reduce(Mirror{}, snapshot("sess-1", func(v *session.View) {
		v.ProposedRentalType = session.RentalDouble
		v.SelectionConfirmed = true
		v.PaymentStatus = session.PaymentPaid
		v.AssignedResourceType = session.ResourceRoom
		v.AssignedResourceNumber = "310"
	}))
	m = m.Acknowledge()

	// The new session's payload omits all of those fields. They must still
	// be gone afterwards: session-scoped state never crosses an identity
	// change. Decode from JSON to mimic the wire exactly.
	var incoming session.View
	require.NoError(t, json.Unmarshal([]byte(`{"status":"LANGUAGE_PENDING","laneId":"lane-1","sessionId":"sess-2"}`), &incoming))

	m = Reduce(m, &incoming)

	assert.Equal(t, "sess-2", m.Session.SessionID)
	assert.Empty(t, m.Session.ProposedRentalType)
	assert.False(t, m.Session.SelectionConfirmed)
	assert.Empty(t, m.Session.PaymentStatus)
	assert.Empty(t, m.Session.AssignedResourceType)
	assert.False(t, m.SelectionAcknowledged)
}

func TestReduce_NilSnapshotFullyResets(t *testing.T) {
	m := Reduce(Mirror{}, snapshot("sess-1", nil)).Acknowledge()
	m = Reduce(m, nil)
	assert.Equal(t, Mirror{}, m)
}

func TestReduce_AcknowledgementLifetime(t *testing.T) {
	base := snapshot("sess-1", func(v *session.View) {
		v.ProposedRentalType = session.RentalLocker
	})

	cases := []struct {
		name string
		next *session.View
		want bool
	}{
		{
			name: "survives an unrelated field change",
			next: snapshot("sess-1", func(v *session.View) {
				v.ProposedRentalType = session.RentalLocker
				v.Language = "es"
			}),
			want: true,
		},
		{
			name: "reset when the proposal changes",
			next: snapshot("sess-1", func(v *session.View) {
				v.ProposedRentalType = session.RentalDouble
			}),
			want: false,
		},
		{
			name: "reset when the session changes",
			next: snapshot("sess-2", func(v *session.View) {
				v.ProposedRentalType = session.RentalLocker
			}),
			want: false,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			m := Reduce(Mirror{}, base).Acknowledge()
			m = Reduce(m, tc.next)
			assert.Equal(t, tc.want, m.SelectionAcknowledged)
		})
	}
}

func TestReduce_AcknowledgementResetWhenConfirmationWithdrawn(t *testing.T) {
	confirmed := snapshot("sess-1", func(v *session.View) {
		v.ProposedRentalType = session.RentalLocker
		v.SelectionConfirmed = true
	})
	m := Reduce(Mirror{}, confirmed).Acknowledge()

	unconfirmed := snapshot("sess-1", func(v *session.View) {
		v.ProposedRentalType = session.RentalLocker
		v.SelectionConfirmed = false
	})
	m = Reduce(m, unconfirmed)
	assert.False(t, m.SelectionAcknowledged)
}
