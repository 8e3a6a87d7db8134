package khalti

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// Client talks to the Khalti ePayment API. Amounts are in paisa throughout,
// which is what the provider expects on the wire.
type Client struct {
	baseURL    string
	secretKey  string
	websiteURL string
	httpClient *http.Client
}

// NewClient instantiates the Khalti client with sane defaults.
func NewClient(baseURL, secretKey, websiteURL string, httpClient *http.Client) (*Client, error) {
	baseURL = strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if baseURL == "" {
		return nil, errors.New("khalti base URL is required")
	}
	secretKey = strings.TrimSpace(secretKey)
	if secretKey == "" {
		return nil, errors.New("khalti secret key is required")
	}
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 10 * time.Second}
	}
	return &Client{
		baseURL:    baseURL,
		secretKey:  secretKey,
		websiteURL: strings.TrimSpace(websiteURL),
		httpClient: httpClient,
	}, nil
}

// InitiateRequest is the epayment/initiate/ payload.
type InitiateRequest struct {
	ReturnURL         string `json:"return_url"`
	WebsiteURL        string `json:"website_url"`
	Amount            int64  `json:"amount"`
	PurchaseOrderID   string `json:"purchase_order_id"`
	PurchaseOrderName string `json:"purchase_order_name"`
}

// InitiateResponse carries the provider session handle and redirect URL.
type InitiateResponse struct {
	Pidx       string `json:"pidx"`
	PaymentURL string `json:"payment_url"`
	ExpiresAt  string `json:"expires_at"`
}

// LookupResponse is the epayment/lookup/ result. Status values include
// Completed, Pending, Expired, User canceled and Refunded.
type LookupResponse struct {
	Pidx        string `json:"pidx"`
	Status      string `json:"status"`
	TotalAmount int64  `json:"total_amount"`
	Refunded    bool   `json:"refunded"`
}

// APIError is a non-2xx provider response with whatever detail it carried.
type APIError struct {
	StatusCode int
	Detail     string
}

func (e *APIError) Error() string {
	if e.Detail == "" {
		return fmt.Sprintf("khalti API status %d", e.StatusCode)
	}
	return fmt.Sprintf("khalti API status %d: %s", e.StatusCode, e.Detail)
}

// Initiate opens a payment session for the given order.
func (c *Client) Initiate(ctx context.Context, req InitiateRequest) (*InitiateResponse, error) {
	if c == nil || c.httpClient == nil {
		return nil, errors.New("khalti client not configured")
	}
	if strings.TrimSpace(req.PurchaseOrderID) == "" {
		return nil, errors.New("purchase order id is required")
	}
	if req.Amount <= 0 {
		return nil, errors.New("amount must be positive")
	}
	if req.WebsiteURL == "" {
		req.WebsiteURL = c.websiteURL
	}
	var resp InitiateResponse
	if err := c.post(ctx, "/epayment/initiate/", req, &resp); err != nil {
		return nil, err
	}
	if resp.Pidx == "" || resp.PaymentURL == "" {
		return nil, errors.New("khalti initiate response missing pidx or payment_url")
	}
	return &resp, nil
}

// Lookup reports the current state of a payment session. Safe to call any
// number of times; the provider lookup has no side effects.
func (c *Client) Lookup(ctx context.Context, pidx string) (*LookupResponse, error) {
	if c == nil || c.httpClient == nil {
		return nil, errors.New("khalti client not configured")
	}
	pidx = strings.TrimSpace(pidx)
	if pidx == "" {
		return nil, errors.New("pidx is required")
	}
	payload := struct {
		Pidx string `json:"pidx"`
	}{Pidx: pidx}
	var resp LookupResponse
	if err := c.post(ctx, "/epayment/lookup/", payload, &resp); err != nil {
		return nil, err
	}
	if resp.Status == "" {
		return nil, errors.New("khalti lookup response missing status")
	}
	return &resp, nil
}

func (c *Client) post(ctx context.Context, path string, payload any, out any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("encode khalti payload: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build khalti request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Key "+c.secretKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("call khalti API: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return fmt.Errorf("read khalti response: %w", err)
	}
	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return &APIError{StatusCode: resp.StatusCode, Detail: errorDetail(raw)}
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("decode khalti response: %w", err)
	}
	return nil
}

// errorDetail extracts the human-readable part of a provider error body.
func errorDetail(raw []byte) string {
	var body struct {
		Detail   string `json:"detail"`
		ErrorKey string `json:"error_key"`
		Message  string `json:"message"`
	}
	if err := json.Unmarshal(raw, &body); err != nil {
		return strings.TrimSpace(string(raw))
	}
	switch {
	case body.Detail != "":
		return body.Detail
	case body.Message != "":
		return body.Message
	case body.ErrorKey != "":
		return body.ErrorKey
	default:
		return strings.TrimSpace(string(raw))
	}
}
