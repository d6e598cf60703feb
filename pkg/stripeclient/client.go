/**
 * @description
 * This package provides a client for the Stripe Transfers API, used to move
 * settled affiliate commission to connected Stripe accounts. It encapsulates
 * authenticated form-encoded requests, idempotency keys, and response
 * parsing.
 *
 * @dependencies
 * - context, fmt, io, net/http, net/url, strconv, strings, time: Standard Go libraries.
 */
package stripeclient

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// Client is a client for the Stripe API.
type Client struct {
	BaseURL    string
	APIKey     string
	HTTPClient *http.Client
}

// NewClient creates a new Stripe API client.
func NewClient(baseURL, apiKey string) *Client {
	return &Client{
		BaseURL: strings.TrimSuffix(baseURL, "/"),
		APIKey:  apiKey,
		HTTPClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// TransferRequest describes one transfer to a connected account. Amount is
// in the currency's minor unit. Metadata is attached verbatim for
// reconciliation and support lookups.
type TransferRequest struct {
	Amount         int64
	Currency       string
	Destination    string
	Description    string
	IdempotencyKey string
	Metadata       map[string]string
}

// Transfer is the subset of Stripe's transfer object the service uses.
type Transfer struct {
	ID          string `json:"id"`
	Object      string `json:"object"`
	Amount      int64  `json:"amount"`
	Currency    string `json:"currency"`
	Destination string `json:"destination"`
	Created     int64  `json:"created"`
}

// ErrorResponse represents an error returned by the Stripe API.
type ErrorResponse struct {
	Err struct {
		Type    string `json:"type"`
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

func (e *ErrorResponse) Error() string {
	if e.Err.Message != "" {
		return fmt.Sprintf("stripe api error: %s - %s", e.Err.Type, e.Err.Message)
	}
	return "unknown stripe api error"
}

// CreateTransfer sends a transfer request to Stripe.
func (c *Client) CreateTransfer(ctx context.Context, transfer TransferRequest) (*Transfer, error) {
	form := url.Values{}
	form.Set("amount", strconv.FormatInt(transfer.Amount, 10))
	form.Set("currency", transfer.Currency)
	form.Set("destination", transfer.Destination)
	if transfer.Description != "" {
		form.Set("description", transfer.Description)
	}
	for key, value := range transfer.Metadata {
		form.Set(fmt.Sprintf("metadata[%s]", key), value)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", c.BaseURL+"/v1/transfers", strings.NewReader(form.Encode()))
	if err != nil {
		return nil, fmt.Errorf("failed to create transfer request: %w", err)
	}

	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Authorization", "Bearer "+c.APIKey)
	if transfer.IdempotencyKey != "" {
		req.Header.Set("Idempotency-Key", transfer.IdempotencyKey)
	}

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to execute transfer request: %w", err)
	}
	defer resp.Body.Close()

	bodyBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read transfer response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var errResp ErrorResponse
		if err := json.Unmarshal(bodyBytes, &errResp); err != nil || errResp.Err.Message == "" {
			log.Printf("level=warn component=stripe_client op=create_transfer status=%d msg=\"non-2xx response (unparsable error body)\"", resp.StatusCode)
			return nil, fmt.Errorf("stripe returned status %d", resp.StatusCode)
		}
		log.Printf("level=warn component=stripe_client op=create_transfer status=%d type=%q message=%q", resp.StatusCode, errResp.Err.Type, errResp.Err.Message)
		return nil, &errResp
	}

	var successResp Transfer
	if err := json.Unmarshal(bodyBytes, &successResp); err != nil {
		return nil, fmt.Errorf("failed to decode transfer response: %w", err)
	}

	return &successResp, nil
}
