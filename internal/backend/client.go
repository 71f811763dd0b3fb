// Package backend is the gateway's client for the shop REST API. Every call
// goes through one pipeline that attaches the session's access token, trips a
// circuit breaker on transport failures, and on a 401 renews the token pair
// once (via the single-flight coordinator) before replaying the request.
package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/fjod/go_shop/internal/domain"
	"github.com/fjod/go_shop/internal/session"
	"github.com/sony/gobreaker/v2"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

// ApiError is the backend's error envelope.
type ApiError struct {
	Detail string `json:"detail"`
}

type Config struct {
	BaseURL string
	Timeout time.Duration
}

type Client struct {
	baseURL string
	http    *http.Client
	store   session.Store
	breaker *gobreaker.CircuitBreaker[*http.Response]
	refresh *RefreshCoordinator
}

func New(cfg Config, store session.Store) *Client {
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 15 * time.Second
	}

	c := &Client{
		baseURL: cfg.BaseURL,
		http: &http.Client{
			Timeout:   timeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
		store: store,
		breaker: gobreaker.NewCircuitBreaker[*http.Response](gobreaker.Settings{
			Name:        "shop-backend",
			MaxRequests: 1,
			Timeout:     30 * time.Second,
			ReadyToTrip: func(counts gobreaker.Counts) bool {
				return counts.ConsecutiveFailures >= 5
			},
		}),
	}
	c.refresh = NewRefreshCoordinator(store, c.renewTokens)
	return c
}

// Refresher exposes the coordinator, mainly so tests can drive renewals
// directly.
func (c *Client) Refresher() *RefreshCoordinator {
	return c.refresh
}

// do runs one authenticated request. On a 401 it renews the session's tokens
// and replays the request exactly once; a second 401 is unrecoverable.
func (c *Client) do(ctx context.Context, sid, method, path string, body, out any) error {
	payload, err := marshalBody(body)
	if err != nil {
		return err
	}

	access, refresh := c.credentials(ctx, sid)
	resp, err := c.send(ctx, method, path, payload, access)
	if err != nil {
		return err
	}

	if resp.StatusCode == http.StatusUnauthorized {
		if refresh == "" {
			// Nothing to renew with (anonymous call or a session that never
			// had tokens). The backend's own rejection, e.g. a wrong
			// password on signin, is the answer.
			detail := errorDetail(resp)
			resp.Body.Close()
			return &domain.AuthError{Reason: detail}
		}
		drain(resp)

		renewed, rerr := c.refresh.Renew(ctx, sid)
		if rerr != nil {
			return rerr
		}

		resp, err = c.send(ctx, method, path, payload, renewed.AccessToken)
		if err != nil {
			return err
		}
		if resp.StatusCode == http.StatusUnauthorized {
			drain(resp)
			// The freshly minted token was rejected too. Nothing left to
			// try; drop the session so the user lands back at login.
			_ = c.store.Clear(ctx, sid)
			return &domain.AuthError{Reason: "access token rejected after renewal"}
		}
	}

	return decodeResponse(resp, method+" "+path, out)
}

// send builds and executes a single HTTP round trip through the breaker.
// A fresh request is built per attempt so the body reader is never reused.
func (c *Client) send(ctx context.Context, method, path string, payload []byte, token string) (*http.Response, error) {
	var bodyReader io.Reader
	if payload != nil {
		bodyReader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, bodyReader)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.breaker.Execute(func() (*http.Response, error) {
		return c.http.Do(req)
	})
	if err != nil {
		return nil, &domain.NetworkError{Op: method + " " + path, Err: err}
	}
	return resp, nil
}

// credentials reads the session's token pair, if any. Anonymous requests go
// out without an Authorization header. The access token may be empty while
// the refresh token survives; that is exactly the expired-access case a 401
// renewal recovers from.
func (c *Client) credentials(ctx context.Context, sid string) (access, refresh string) {
	if sid == "" {
		return "", ""
	}
	s, err := c.store.Get(ctx, sid)
	if err != nil {
		return "", ""
	}
	return s.AccessToken, s.RefreshToken
}

func marshalBody(body any) ([]byte, error) {
	if body == nil {
		return nil, nil
	}
	payload, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request body: %w", err)
	}
	return payload, nil
}

func decodeResponse(resp *http.Response, op string, out any) error {
	defer resp.Body.Close()

	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		if out == nil {
			_, _ = io.Copy(io.Discard, resp.Body)
			return nil
		}
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			if errors.Is(err, io.EOF) {
				return nil // empty body on 204-style responses
			}
			return fmt.Errorf("%s: failed to decode response: %w", op, err)
		}
		return nil

	case resp.StatusCode >= 400 && resp.StatusCode < 500:
		return &domain.ValidationError{Detail: errorDetail(resp)}

	default:
		_, _ = io.Copy(io.Discard, resp.Body)
		return &domain.NetworkError{Op: op, Err: fmt.Errorf("backend returned %d", resp.StatusCode)}
	}
}

func errorDetail(resp *http.Response) string {
	var apiErr ApiError
	if err := json.NewDecoder(resp.Body).Decode(&apiErr); err == nil && apiErr.Detail != "" {
		return apiErr.Detail
	}
	return http.StatusText(resp.StatusCode)
}

func drain(resp *http.Response) {
	_, _ = io.Copy(io.Discard, resp.Body)
	resp.Body.Close()
}
