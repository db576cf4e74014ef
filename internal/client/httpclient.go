package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/frontdesk/checkin-backend/internal/session"
)

// HTTPClient implements API against the lane HTTP surface. It normalizes
// the server's dual conflict signaling: a 409, or a 200 whose body carries
// code ALREADY_CHECKED_IN, both become the same *Conflict. Callers check
// the code, never the status.
type HTTPClient struct {
	Base  string // e.g. "http://counter:8080"
	Lane  string // e.g. "lane-1"
	Token string
	HTTP  *http.Client
}

type apiError struct {
	Error         string                 `json:"error"`
	Code          string                 `json:"code"`
	ActiveCheckin *session.ActiveCheckin `json:"activeCheckin,omitempty"`
}

func (c *HTTPClient) client() *http.Client {
	if c.HTTP != nil {
		return c.HTTP
	}
	return http.DefaultClient
}

func (c *HTTPClient) post(ctx context.Context, path string, body any, out any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.Base+"/lane/"+c.Lane+path, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if c.Token != "" {
		req.Header.Set("Authorization", "Bearer "+c.Token)
	}
	resp, err := c.client().Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	return decodeResponse(resp, out)
}

// decodeResponse reads the body once, checks the code field regardless of
// HTTP status, and only then falls back on the status itself.
func decodeResponse(resp *http.Response, out any) error {
	var raw json.RawMessage
	if err := json.NewDecoder(resp.Body).Decode(&raw); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}

	var apiErr apiError
	if err := json.Unmarshal(raw, &apiErr); err == nil && apiErr.Code != "" {
		if apiErr.Code == "ALREADY_CHECKED_IN" {
			conflict := &Conflict{Kind: KindAlreadyVisiting}
			if apiErr.ActiveCheckin != nil {
				conflict.Active = *apiErr.ActiveCheckin
			}
			return conflict
		}
		return fmt.Errorf("%s: %s", apiErr.Code, apiErr.Error)
	}

	if resp.StatusCode >= 400 {
		return fmt.Errorf("unexpected status %d", resp.StatusCode)
	}
	if out != nil {
		return json.Unmarshal(raw, out)
	}
	return nil
}

func (c *HTTPClient) Start(ctx context.Context, req StartRequest) (*session.View, error) {
	var view session.View
	if err := c.post(ctx, "/start", req, &view); err != nil {
		return nil, err
	}
	return &view, nil
}

func (c *HTTPClient) ProposeSelection(ctx context.Context, tier session.RentalType, actor session.Actor, backup session.RentalType) (*session.View, error) {
	body := map[string]string{
		"rentalType": string(tier),
		"proposedBy": string(actor),
	}
	if backup != "" {
		body["backupRentalType"] = string(backup)
	}
	var view session.View
	if err := c.post(ctx, "/propose-selection", body, &view); err != nil {
		return nil, err
	}
	return &view, nil
}

func (c *HTTPClient) ConfirmSelection(ctx context.Context, actor session.Actor) (*session.View, error) {
	var view session.View
	if err := c.post(ctx, "/confirm-selection", map[string]string{"confirmedBy": string(actor)}, &view); err != nil {
		return nil, err
	}
	return &view, nil
}

func (c *HTTPClient) CreatePaymentIntent(ctx context.Context) (*session.View, error) {
	var view session.View
	if err := c.post(ctx, "/create-payment-intent", map[string]string{}, &view); err != nil {
		return nil, err
	}
	return &view, nil
}

func (c *HTTPClient) SessionSnapshot(ctx context.Context) (*session.View, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.Base+"/lane/"+c.Lane+"/session-snapshot", nil)
	if err != nil {
		return nil, err
	}
	if c.Token != "" {
		req.Header.Set("Authorization", "Bearer "+c.Token)
	}
	resp, err := c.client().Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var body struct {
		Session *session.View `json:"session"`
	}
	if err := decodeResponse(resp, &body); err != nil {
		return nil, err
	}
	return body.Session, nil
}

func (c *HTTPClient) Reset(ctx context.Context) error {
	return c.post(ctx, "/reset", map[string]string{}, nil)
}
