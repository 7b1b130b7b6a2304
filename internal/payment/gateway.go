// Package payment integrates the external payment provider: creating
// payable intents for pending bookings and decoding the signed webhook
// events the provider delivers at least once.
package payment

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// IntentMetadata is attached to a payable intent and echoed back on
// webhook events so they can be correlated with the booking that is
// being paid for.  The provider treats it as opaque.
type IntentMetadata struct {
	BookingID  string   `json:"booking_id"`
	SessionIDs []string `json:"session_ids"`
}

// IntentRequest describes the payable intent to create.
type IntentRequest struct {
	AmountCents int64          `json:"amount_cents"`
	Currency    string         `json:"currency"`
	Description string         `json:"description,omitempty"`
	Metadata    IntentMetadata `json:"metadata"`
}

// Intent is the provider's answer: an identifier to store as the
// booking's payment reference and a URL to send the customer to.
type Intent struct {
	ID          string `json:"id"`
	RedirectURL string `json:"redirect_url"`
}

// Gateway creates payable intents.  The HTTP implementation talks to
// the real provider; tests substitute a stub.
type Gateway interface {
	CreateIntent(ctx context.Context, req IntentRequest) (*Intent, error)
}

// HTTPGateway implements Gateway against the provider's REST API using
// bearer authentication.  Each call carries its own timeout via the
// configured http.Client.
type HTTPGateway struct {
	baseURL string
	apiKey  string
	client  *http.Client
}

// NewHTTPGateway constructs an HTTPGateway.  A nil client gets a
// default with a 10 second timeout.
func NewHTTPGateway(baseURL, apiKey string, client *http.Client) *HTTPGateway {
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}
	return &HTTPGateway{baseURL: baseURL, apiKey: apiKey, client: client}
}

// CreateIntent POSTs the intent to the provider and decodes its id and
// redirect URL.
func (g *HTTPGateway) CreateIntent(ctx context.Context, req IntentRequest) (*Intent, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("encode intent: %w", err)
	}
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost,
		g.baseURL+"/v1/payment_intents", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+g.apiKey)

	resp, err := g.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("create intent: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("create intent: gateway returned %s", resp.Status)
	}
	var intent Intent
	if err := json.NewDecoder(resp.Body).Decode(&intent); err != nil {
		return nil, fmt.Errorf("decode intent: %w", err)
	}
	if intent.ID == "" {
		return nil, fmt.Errorf("create intent: gateway returned no id")
	}
	return &intent, nil
}
