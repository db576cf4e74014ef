package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/frontdesk/checkin-backend/internal/hub"
	"github.com/frontdesk/checkin-backend/internal/inventory"
	"github.com/frontdesk/checkin-backend/internal/lane"
	"github.com/frontdesk/checkin-backend/internal/payment"
	"github.com/frontdesk/checkin-backend/internal/session"
	"github.com/frontdesk/checkin-backend/internal/waitlist"
)

type staticReader struct{ avail inventory.Availability }

func (r staticReader) Available(context.Context) (inventory.Availability, error) {
	return r.avail.Clone(), nil
}

func newTestServer(t *testing.T, avail inventory.Availability) (*httptest.Server, *waitlist.Service) {
	t.Helper()
	reader := staticReader{avail: avail}
	wl := waitlist.NewService(reader)
	h := hub.NewHub(context.Background(), lane.Deps{
		Inventory: reader,
		Waitlist:  wl,
		Gateway:   payment.LocalGateway{},
	})
	srv := NewServer(h, wl, reader, nil, zap.NewNop())
	ts := httptest.NewServer(SetupRoutes(srv, RouteOptions{}))
	t.Cleanup(ts.Close)
	return ts, wl
}

func post(t *testing.T, url string, body any) *http.Response {
	t.Helper()
	payload, err := json.Marshal(body)
	require.NoError(t, err)
	resp, err := http.Post(url, "application/json", bytes.NewReader(payload))
	require.NoError(t, err)
	return resp
}

func decodeBody(t *testing.T, resp *http.Response, dst any) {
	t.Helper()
	defer resp.Body.Close()
	require.NoError(t, json.NewDecoder(resp.Body).Decode(dst))
}

func TestStartThenSnapshot(t *testing.T) {
	ts, _ := newTestServer(t, inventory.Availability{session.RentalStandard: 2})

	resp := post(t, ts.URL+"/lane/lane-1/start", map[string]any{
		"customerId":   "cust-1",
		"customerName": "Alex Rivera",
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var view session.View
	decodeBody(t, resp, &view)
	assert.NotEmpty(t, view.SessionID)
	assert.Equal(t, session.StatusLanguagePending, view.Status)

	snap, err := http.Get(ts.URL + "/lane/lane-1/session-snapshot")
	require.NoError(t, err)
	var body struct {
		Session *session.View `json:"session"`
	}
	decodeBody(t, snap, &body)
	require.NotNil(t, body.Session)
	assert.Equal(t, view.SessionID, body.Session.SessionID)
}

func TestSnapshotOfIdleLaneIsNull(t *testing.T) {
	ts, _ := newTestServer(t, inventory.Availability{})

	resp, err := http.Get(ts.URL + "/lane/lane-9/session-snapshot")
	require.NoError(t, err)
	var body struct {
		Session *session.View `json:"session"`
	}
	decodeBody(t, resp, &body)
	assert.Nil(t, body.Session)
}

func TestStartConflict_409AndLegacy200(t *testing.T) {
	ts, _ := newTestServer(t, inventory.Availability{})

	resp := post(t, ts.URL+"/lane/lane-1/start", map[string]any{"customerId": "cust-1", "customerName": "A"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()

	// Default path: a real 409 with the conflicting session attached.
	resp = post(t, ts.URL+"/lane/lane-1/start", map[string]any{"customerId": "cust-2"})
	require.Equal(t, http.StatusConflict, resp.StatusCode)
	var conflict errorResponse
	decodeBody(t, resp, &conflict)
	assert.Equal(t, codeAlreadyCheckedIn, conflict.Code)
	require.NotNil(t, conflict.ActiveCheckin)
	assert.NotEmpty(t, conflict.ActiveCheckin.VisitID)

	// Legacy path: same body, 200 status. Callers must check the code.
	resp = post(t, ts.URL+"/lane/lane-1/start?conflict_status=200", map[string]any{"customerId": "cust-2"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var legacy errorResponse
	decodeBody(t, resp, &legacy)
	assert.Equal(t, codeAlreadyCheckedIn, legacy.Code)
}

func TestProposeConfirmFlowOverHTTP(t *testing.T) {
	ts, _ := newTestServer(t, inventory.Availability{session.RentalLocker: 3})

	post(t, ts.URL+"/lane/lane-1/start", map[string]any{"customerId": "cust-1"}).Body.Close()
	post(t, ts.URL+"/lane/lane-1/set-language", map[string]any{"language": "en", "setBy": "CUSTOMER"}).Body.Close()

	resp := post(t, ts.URL+"/lane/lane-1/propose-selection", map[string]any{
		"rentalType": "LOCKER",
		"proposedBy": "EMPLOYEE",
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var view session.View
	decodeBody(t, resp, &view)
	assert.Equal(t, session.RentalLocker, view.ProposedRentalType)
	assert.False(t, view.SelectionConfirmed)

	resp = post(t, ts.URL+"/lane/lane-1/confirm-selection", map[string]any{"confirmedBy": "CUSTOMER"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	decodeBody(t, resp, &view)
	assert.True(t, view.SelectionConfirmed)
	assert.Equal(t, session.RentalLocker, view.CustomerSelectedType)
	// Confirmation auto-creates the intent.
	assert.NotEmpty(t, view.PaymentIntentID)
	assert.Equal(t, session.PaymentDue, view.PaymentStatus)
}

func TestConfirmWithoutProposalIsConflict(t *testing.T) {
	ts, _ := newTestServer(t, inventory.Availability{})

	post(t, ts.URL+"/lane/lane-1/start", map[string]any{"customerId": "cust-1"}).Body.Close()

	resp := post(t, ts.URL+"/lane/lane-1/confirm-selection", map[string]any{"confirmedBy": "CUSTOMER"})
	require.Equal(t, http.StatusConflict, resp.StatusCode)
	var body errorResponse
	decodeBody(t, resp, &body)
	assert.Equal(t, codeInvalidState, body.Code)
}

func TestValidationErrors(t *testing.T) {
	ts, _ := newTestServer(t, inventory.Availability{})

	cases := []struct {
		name string
		path string
		body map[string]any
	}{
		{name: "start without customer", path: "/lane/lane-1/start", body: map[string]any{}},
		{name: "propose with bad tier", path: "/lane/lane-1/propose-selection", body: map[string]any{"rentalType": "PENTHOUSE", "proposedBy": "CUSTOMER"}},
		{name: "confirm with bad actor", path: "/lane/lane-1/confirm-selection", body: map[string]any{"confirmedBy": "ROBOT"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			resp := post(t, ts.URL+tc.path, tc.body)
			require.Equal(t, http.StatusBadRequest, resp.StatusCode)
			var body errorResponse
			decodeBody(t, resp, &body)
			assert.Equal(t, codeValidationError, body.Code)
		})
	}
}

func TestResetIsIdempotentOverHTTP(t *testing.T) {
	ts, _ := newTestServer(t, inventory.Availability{})

	resp := post(t, ts.URL+"/lane/lane-1/reset", map[string]any{})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()

	post(t, ts.URL+"/lane/lane-1/start", map[string]any{"customerId": "cust-1"}).Body.Close()
	resp = post(t, ts.URL+"/lane/lane-1/reset", map[string]any{})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()

	snap, err := http.Get(ts.URL + "/lane/lane-1/session-snapshot")
	require.NoError(t, err)
	var body struct {
		Session *session.View `json:"session"`
	}
	decodeBody(t, snap, &body)
	assert.Nil(t, body.Session)
}

func TestInventoryAvailableSubtractsOfferedHolds(t *testing.T) {
	ts, wl := newTestServer(t, inventory.Availability{
		session.RentalDouble: 2,
		session.RentalLocker: 5,
	})

	e := wl.Add("visit-1", session.RentalDouble, "")
	_, err := wl.Offer(context.Background(), e.ID, "room-310", "310")
	require.NoError(t, err)
	wl.Add("visit-2", session.RentalDouble, "")

	resp, err := http.Get(ts.URL + "/inventory/available")
	require.NoError(t, err)
	var body availabilityResponse
	decodeBody(t, resp, &body)

	assert.Equal(t, 2, body.Tiers[session.RentalDouble].RawRooms)
	assert.Equal(t, 1, body.Tiers[session.RentalDouble].Rooms)
	assert.Equal(t, 1, body.Tiers[session.RentalDouble].WaitlistDemand)
	assert.Equal(t, 5, body.Lockers)
}

func TestWaitlistOfferEndpointEnforcesCapacity(t *testing.T) {
	ts, wl := newTestServer(t, inventory.Availability{session.RentalDouble: 1})

	first := wl.Add("visit-1", session.RentalDouble, "")
	second := wl.Add("visit-2", session.RentalDouble, "")

	resp := post(t, ts.URL+"/waitlist/"+first.ID+"/offer", map[string]any{"roomId": "room-310", "roomNumber": "310"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()

	resp = post(t, ts.URL+"/waitlist/"+second.ID+"/offer", map[string]any{"roomId": "room-310", "roomNumber": "310"})
	require.Equal(t, http.StatusConflict, resp.StatusCode)
	var body errorResponse
	decodeBody(t, resp, &body)
	assert.Equal(t, codeNotEligible, body.Code)
}

func TestRequireToken(t *testing.T) {
	reader := staticReader{avail: inventory.Availability{}}
	wl := waitlist.NewService(reader)
	h := hub.NewHub(context.Background(), lane.Deps{Inventory: reader, Waitlist: wl, Gateway: payment.LocalGateway{}})
	srv := NewServer(h, wl, reader, nil, zap.NewNop())
	ts := httptest.NewServer(SetupRoutes(srv, RouteOptions{Token: "station-secret"}))
	t.Cleanup(ts.Close)

	resp := post(t, ts.URL+"/lane/lane-1/start", map[string]any{"customerId": "cust-1"})
	require.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	resp.Body.Close()

	req, _ := http.NewRequest(http.MethodPost, ts.URL+"/lane/lane-1/start", bytes.NewReader([]byte(`{"customerId":"cust-1"}`)))
	req.Header.Set("Authorization", "Bearer station-secret")
	authed, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, authed.StatusCode)
	authed.Body.Close()
}

// stuckGateway blocks intent creation until released, wedging the lane actor
// mid-command.
type stuckGateway struct{ release chan struct{} }

func (g stuckGateway) CreateIntent(ctx context.Context, _ session.Quote) (string, error) {
	select {
	case <-g.release:
	case <-ctx.Done():
	}
	return "pi_stuck", nil
}

func TestDoLane_TimesOutWhenLaneIsWedged(t *testing.T) {
	old := commandTimeout
	commandTimeout = 100 * time.Millisecond
	t.Cleanup(func() { commandTimeout = old })

	release := make(chan struct{})
	t.Cleanup(func() { close(release) })

	reader := staticReader{avail: inventory.Availability{session.RentalLocker: 1}}
	wl := waitlist.NewService(reader)
	h := hub.NewHub(context.Background(), lane.Deps{
		Inventory: reader,
		Waitlist:  wl,
		Gateway:   stuckGateway{release: release},
	})
	srv := NewServer(h, wl, reader, nil, zap.NewNop())

	// Drive the session to confirmation; the auto-created payment intent
	// parks the lane actor inside the stuck gateway.
	ln := h.Ensure("lane-1")
	_, err := srv.doLane("lane-1", session.Command{Type: session.CmdStart, Actor: session.ActorEmployee, CustomerID: "cust-1"})
	require.NoError(t, err)
	_, err = srv.doLane("lane-1", session.Command{Type: session.CmdSetLanguage, Actor: session.ActorCustomer, Language: "en"})
	require.NoError(t, err)
	_, err = srv.doLane("lane-1", session.Command{Type: session.CmdProposeSelection, Actor: session.ActorCustomer, RentalType: session.RentalLocker})
	require.NoError(t, err)
	ln.Inbox() <- lane.Do{
		Cmd:   session.Command{Type: session.CmdConfirmSelection, Actor: session.ActorEmployee},
		Reply: make(chan lane.DoResult, 1),
	}

	// Pack the inbox so the next send cannot even be accepted.
fill:
	for {
		select {
		case ln.Inbox() <- lane.Leave{ClientID: "noop"}:
		default:
			break fill
		}
	}

	start := time.Now()
	_, err = srv.doLane("lane-1", session.Command{Type: session.CmdReset})
	require.ErrorIs(t, err, errLaneTimeout)
	assert.Less(t, time.Since(start), time.Second, "handler must give up instead of hanging on the inbox")
}
