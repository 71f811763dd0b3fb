package payment

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/fjod/go_shop/internal/domain"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

// ProcessorClient confirms payment intents against the processor's HTTP API.
type ProcessorClient struct {
	baseURL string
	http    *http.Client
}

type ProcessorConfig struct {
	BaseURL string
	Timeout time.Duration
}

func NewProcessorClient(cfg ProcessorConfig) *ProcessorClient {
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 15 * time.Second
	}
	return &ProcessorClient{
		baseURL: cfg.BaseURL,
		http: &http.Client{
			Timeout:   timeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
	}
}

type confirmRequest struct {
	ClientSecret  string `json:"client_secret"`
	PaymentMethod Method `json:"payment_method"`
}

type confirmResponse struct {
	Status        string `json:"status"`
	TransactionID string `json:"transaction_id"`
	Error         *struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

// Confirm submits the intent's client secret plus the user's payment method.
// A decline comes back as a successful HTTP exchange carrying a failed
// Result; only transport problems surface as errors.
func (p *ProcessorClient) Confirm(ctx context.Context, intent domain.CheckoutIntent, method Method) (Result, error) {
	payload, err := json.Marshal(confirmRequest{ClientSecret: intent.ClientSecret, PaymentMethod: method})
	if err != nil {
		return Result{}, fmt.Errorf("failed to marshal confirm request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		p.baseURL+"/v1/payment_intents/confirm", bytes.NewReader(payload))
	if err != nil {
		return Result{}, fmt.Errorf("failed to create confirm request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+intent.PublishableKey)

	resp, err := p.http.Do(req)
	if err != nil {
		return Result{}, &domain.NetworkError{Op: "confirm payment", Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 500 {
		_, _ = io.Copy(io.Discard, resp.Body)
		return Result{}, &domain.NetworkError{Op: "confirm payment", Err: fmt.Errorf("processor returned %d", resp.StatusCode)}
	}

	var cr confirmResponse
	if err := json.NewDecoder(resp.Body).Decode(&cr); err != nil {
		return Result{}, fmt.Errorf("failed to decode confirm response: %w", err)
	}

	if cr.Status == string(StatusSucceeded) {
		return Result{Status: StatusSucceeded, TransactionID: cr.TransactionID}, nil
	}

	result := Result{Status: StatusFailed, TransactionID: cr.TransactionID}
	if cr.Error != nil {
		result.FailureCode = cr.Error.Code
		result.FailureReason = cr.Error.Message
	} else {
		result.FailureReason = fmt.Sprintf("confirmation ended in status %q", cr.Status)
	}
	return result, nil
}
