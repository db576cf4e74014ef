package client

import "github.com/frontdesk/checkin-backend/internal/session"

// Mirror is one actor's local copy of the lane session, rebuilt from
// server snapshots. Everything in Session is server-owned; the
// acknowledgement flag is the only client-only coordination state.
type Mirror struct {
	Session *session.View

	// SelectionAcknowledged records that this UI has already rendered the
	// pending-confirmation state for the current proposal. It never
	// survives a session identity change, a different proposal, or a
	// confirmation being withdrawn.
	SelectionAcknowledged bool
}

// Reduce applies one full snapshot to the mirror. Snapshot semantics, not
// patch semantics: the incoming view overwrites wholesale. A nil view means
// no active session and resets everything; a view with a new sessionId
// discards all session-scoped local state before applying, so nothing ever
// leaks across session boundaries.
func Reduce(m Mirror, snap *session.View) Mirror {
	if snap == nil {
		return Mirror{}
	}

	next := Mirror{Session: snap}

	if m.Session != nil && m.Session.SessionID == snap.SessionID {
		sameProposal := m.Session.ProposedRentalType == snap.ProposedRentalType
		withdrawn := m.Session.SelectionConfirmed && !snap.SelectionConfirmed
		next.SelectionAcknowledged = m.SelectionAcknowledged && sameProposal && !withdrawn
	}

	return next
}

// Acknowledge marks the current pending proposal as rendered.
func (m Mirror) Acknowledge() Mirror {
	m.SelectionAcknowledged = true
	return m
}
