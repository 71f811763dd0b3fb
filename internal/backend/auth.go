package backend

import (
	"context"
	"net/http"

	"github.com/fjod/go_shop/internal/domain"
)

type SignupRequest struct {
	Email     string `json:"email"`
	Password  string `json:"password"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Role      string `json:"role"`
}

type SigninRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type UpdateProfileRequest struct {
	FirstName string `json:"first_name,omitempty"`
	LastName  string `json:"last_name,omitempty"`
	AvatarURL string `json:"avatar_url,omitempty"`
}

type ChangePasswordRequest struct {
	CurrentPassword string `json:"current_password"`
	NewPassword     string `json:"new_password"`
}

// tokenResponse is what signin/signup/refresh return.
type tokenResponse struct {
	AccessToken  string      `json:"access_token"`
	RefreshToken string      `json:"refresh_token"`
	TokenType    string      `json:"token_type"`
	User         domain.User `json:"user"`
}

type refreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

func (c *Client) Signup(ctx context.Context, req SignupRequest) (*domain.Session, error) {
	var tr tokenResponse
	if err := c.do(ctx, "", http.MethodPost, "/auth/signup", req, &tr); err != nil {
		return nil, err
	}
	return &domain.Session{AccessToken: tr.AccessToken, RefreshToken: tr.RefreshToken, User: tr.User}, nil
}

func (c *Client) Signin(ctx context.Context, req SigninRequest) (*domain.Session, error) {
	var tr tokenResponse
	if err := c.do(ctx, "", http.MethodPost, "/auth/signin", req, &tr); err != nil {
		return nil, err
	}
	return &domain.Session{AccessToken: tr.AccessToken, RefreshToken: tr.RefreshToken, User: tr.User}, nil
}

func (c *Client) Me(ctx context.Context, sid string) (*domain.User, error) {
	var u domain.User
	if err := c.do(ctx, sid, http.MethodGet, "/auth/me", nil, &u); err != nil {
		return nil, err
	}
	return &u, nil
}

func (c *Client) UpdateProfile(ctx context.Context, sid string, req UpdateProfileRequest) (*domain.User, error) {
	var u domain.User
	if err := c.do(ctx, sid, http.MethodPatch, "/auth/me", req, &u); err != nil {
		return nil, err
	}
	return &u, nil
}

func (c *Client) ChangePassword(ctx context.Context, sid string, req ChangePasswordRequest) error {
	return c.do(ctx, sid, http.MethodPost, "/auth/me/change-password", req, nil)
}

func (c *Client) Logout(ctx context.Context, sid string) error {
	return c.do(ctx, sid, http.MethodPost, "/auth/logout", nil, nil)
}

// renewTokens is the coordinator's renewal callback. It deliberately bypasses
// do(): a renewal must never recurse into another renewal.
func (c *Client) renewTokens(ctx context.Context, refreshToken string) (string, string, error) {
	payload, err := marshalBody(refreshRequest{RefreshToken: refreshToken})
	if err != nil {
		return "", "", err
	}

	resp, err := c.send(ctx, http.MethodPost, "/auth/refresh", payload, "")
	if err != nil {
		return "", "", err
	}

	var tr tokenResponse
	if err := decodeResponse(resp, "POST /auth/refresh", &tr); err != nil {
		return "", "", err
	}
	return tr.AccessToken, tr.RefreshToken, nil
}
