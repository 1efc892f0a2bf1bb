package topup

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"
)

const (
	railACHPush  = "ach_push"
	railEthereum = "ethereum"
	currencyUSD  = "usd"
	currencyUSDC = "usdc"
)

// ErrIntentRejected indicates the funding partner declined or never received
// the intent. No top-up record exists for a rejected intent.
var ErrIntentRejected = errors.New("funding intent rejected")

// IntentRail describes one side of a funding intent.
type IntentRail struct {
	PaymentRail string `json:"payment_rail"`
	Currency    string `json:"currency"`
	ToAddress   string `json:"to_address,omitempty"`
}

// FundingIntent is the funding partner's submission shape: a bank debit in
// USD settling as stablecoin at the wallet address.
type FundingIntent struct {
	Amount       string     `json:"amount"`
	OnBehalfOf   string     `json:"on_behalf_of"`
	DeveloperFee string     `json:"developer_fee"`
	Source       IntentRail `json:"source"`
	Destination  IntentRail `json:"destination"`
}

// BankClient submits funding intents to the partner. A nil error means the
// intent was accepted (2xx); anything else is a rejection.
type BankClient interface {
	SubmitIntent(ctx context.Context, intent FundingIntent, idempotencyKey string) error
}

// HTTPBankClient talks to the funding partner's REST endpoint.
type HTTPBankClient struct {
	endpoint string
	apiKey   string
	client   *http.Client
}

// NewHTTPBankClient builds a partner client for the configured endpoint.
func NewHTTPBankClient(endpoint, apiKey string) *HTTPBankClient {
	return &HTTPBankClient{
		endpoint: endpoint,
		apiKey:   apiKey,
		client:   &http.Client{Timeout: 30 * time.Second},
	}
}

// SubmitIntent posts the intent with the caller's idempotency key.
func (c *HTTPBankClient) SubmitIntent(ctx context.Context, intent FundingIntent, idempotencyKey string) error {
	payload, err := json.Marshal(intent)
	if err != nil {
		return fmt.Errorf("encode intent: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Api-Key", c.apiKey)
	req.Header.Set("Idempotency-Key", idempotencyKey)

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrIntentRejected, err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return fmt.Errorf("%w: status %d", ErrIntentRejected, resp.StatusCode)
	}
	return nil
}
