package payment

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"
)

// Confirmation is the gateway's answer to a successful payment confirmation.
type Confirmation struct {
	PaymentReference string `json:"payment_reference"`
	CardBrand        string `json:"card_brand,omitempty"`
	Last4            string `json:"last4,omitempty"`
}

// Client talks to the payment gateway over HTTP. Card data never passes
// through here; the shopper's browser tokenizes the instrument and the client
// only forwards opaque references.
type Client struct {
	baseURL    string
	secretKey  string
	httpClient *http.Client
}

// NewClient constructs a gateway client for the given base URL.
func NewClient(baseURL, secretKey string, timeout time.Duration) *Client {
	return &Client{
		baseURL:   strings.TrimRight(baseURL, "/"),
		secretKey: secretKey,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

type confirmRequest struct {
	ClientSecret  string `json:"client_secret"`
	PaymentMethod string `json:"payment_method"`
}

type errorEnvelope struct {
	Error *GatewayError `json:"error"`
}

// Confirm asks the gateway to capture the payment intent identified by
// clientSecret using the tokenized payment method. Gateway rejections come
// back as a *GatewayError so Classify can map them.
func (c *Client) Confirm(ctx context.Context, clientSecret, paymentMethodRef string) (*Confirmation, error) {
	if c.baseURL == "" {
		return nil, fmt.Errorf("payment gateway not configured")
	}

	body, err := json.Marshal(confirmRequest{
		ClientSecret:  clientSecret,
		PaymentMethod: paymentMethodRef,
	})
	if err != nil {
		return nil, fmt.Errorf("marshal confirm request: %w", err)
	}

	url := c.baseURL + "/v1/payments/confirm"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.secretKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusTooManyRequests {
		return nil, &GatewayError{
			Type:    "rate_limit_error",
			Code:    CodeRateLimit,
			Message: "too many requests to the payment gateway",
		}
	}

	if resp.StatusCode >= http.StatusBadRequest {
		var envelope errorEnvelope
		if decodeErr := json.NewDecoder(resp.Body).Decode(&envelope); decodeErr == nil && envelope.Error != nil {
			return nil, envelope.Error
		}
		return nil, fmt.Errorf("unexpected status: %d", resp.StatusCode)
	}

	var confirmation Confirmation
	if err := json.NewDecoder(resp.Body).Decode(&confirmation); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}

	if confirmation.PaymentReference == "" {
		return nil, fmt.Errorf("gateway returned no payment reference")
	}

	return &confirmation, nil
}
