// Package payment is the boundary to the card processor. The checkout
// orchestrator only depends on the Confirmer contract: hand over a client
// secret, get back an accepted/declined result, whether the confirmation
// happened inline or via a browser redirect.
package payment

import (
	"context"
	"net/url"

	"github.com/fjod/go_shop/internal/domain"
)

type Status string

const (
	StatusSucceeded Status = "succeeded"
	StatusFailed    Status = "failed"
)

// Method carries the payment details the user submitted for an inline
// confirmation. The gateway never stores these.
type Method struct {
	Type  string `json:"type"`
	Token string `json:"token"`
}

// Result is the processor's verdict on one confirmation attempt. A succeeded
// Result means "payment accepted by the processor", nothing more; order
// settlement stays asynchronous on the backend.
type Result struct {
	Status        Status
	TransactionID string
	FailureCode   string
	FailureReason string
}

type Confirmer interface {
	Confirm(ctx context.Context, intent domain.CheckoutIntent, method Method) (Result, error)
}

// Return-URL query parameters for the redirect confirmation style.
const (
	redirectStatusParam = "redirect_status"
	clientSecretParam   = "payment_intent_client_secret"
	transactionParam    = "payment_intent"
)

// ParseReturn reads the processor's status flag out of a redirect return URL.
// It feeds the same orchestrator transition as an inline confirmation.
func ParseReturn(values url.Values) (Result, error) {
	status := values.Get(redirectStatusParam)
	switch status {
	case string(StatusSucceeded):
		return Result{
			Status:        StatusSucceeded,
			TransactionID: values.Get(transactionParam),
		}, nil
	case string(StatusFailed), "requires_payment_method":
		return Result{
			Status:        StatusFailed,
			TransactionID: values.Get(transactionParam),
			FailureCode:   status,
			FailureReason: "payment was not completed",
		}, nil
	default:
		return Result{}, &domain.PaymentError{Reason: "missing or unknown redirect status"}
	}
}

// ClientSecretFromReturn extracts the intent's client secret so the redirect
// can be matched back to the checkout attempt that started it.
func ClientSecretFromReturn(values url.Values) string {
	return values.Get(clientSecretParam)
}
