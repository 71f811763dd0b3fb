package domain

import "fmt"

// AuthError means the access token was rejected and renewal is not possible:
// either no refresh token exists or the renewal itself failed. The session is
// gone; the caller must send the user back to the login entry point.
type AuthError struct {
	Reason string
}

func (e *AuthError) Error() string {
	if e.Reason == "" {
		return "authentication failed"
	}
	return fmt.Sprintf("authentication failed: %s", e.Reason)
}

// ValidationError is a business-rule rejection from the backend (empty cart,
// bad quantity, pricing conflict). It is local to the call that caused it and
// mutates no state.
type ValidationError struct {
	Detail string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("request rejected: %s", e.Detail)
}

// PaymentError is a decline or failure reported by the payment processor
// during confirmation. The cart survives it so the user can retry.
type PaymentError struct {
	Code   string
	Reason string
}

func (e *PaymentError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("payment failed (%s): %s", e.Code, e.Reason)
	}
	return fmt.Sprintf("payment failed: %s", e.Reason)
}

// NetworkError wraps a transport-level failure (connection refused, timeout,
// open circuit breaker, unexpected 5xx). No automatic retry happens beyond
// the single post-refresh replay.
type NetworkError struct {
	Op  string
	Err error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *NetworkError) Unwrap() error {
	return e.Err
}
