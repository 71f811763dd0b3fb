package http

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/fjod/go_shop/internal/backend"
	"github.com/fjod/go_shop/internal/domain"
	"github.com/fjod/go_shop/internal/session"
)

type AuthAPIMock struct {
	session *domain.Session
	user    *domain.User
	err     error

	logoutCalls int
}

func (a *AuthAPIMock) Signup(ctx context.Context, req backend.SignupRequest) (*domain.Session, error) {
	if a.err != nil {
		return nil, a.err
	}
	return a.session, nil
}

func (a *AuthAPIMock) Signin(ctx context.Context, req backend.SigninRequest) (*domain.Session, error) {
	if a.err != nil {
		return nil, a.err
	}
	return a.session, nil
}

func (a *AuthAPIMock) Me(ctx context.Context, sid string) (*domain.User, error) {
	if a.err != nil {
		return nil, a.err
	}
	return a.user, nil
}

func (a *AuthAPIMock) UpdateProfile(ctx context.Context, sid string, req backend.UpdateProfileRequest) (*domain.User, error) {
	if a.err != nil {
		return nil, a.err
	}
	return a.user, nil
}

func (a *AuthAPIMock) ChangePassword(ctx context.Context, sid string, req backend.ChangePasswordRequest) error {
	return a.err
}

func (a *AuthAPIMock) Logout(ctx context.Context, sid string) error {
	a.logoutCalls++
	return a.err
}

type LocalMock struct {
	forgotten []string
}

func (l *LocalMock) Forget(sid string) {
	l.forgotten = append(l.forgotten, sid)
}

func TestSignin_EstablishesSession(t *testing.T) {
	sess := &domain.Session{
		AccessToken:  "access-1",
		RefreshToken: "refresh-1",
		User:         domain.User{ID: 1, Email: "jane@example.com"},
	}
	store := session.NewMemoryStore()
	handler := NewAuthHandler(&AuthAPIMock{session: sess}, store)

	body, _ := json.Marshal(backend.SigninRequest{Email: "jane@example.com", Password: "secret123"})
	recorder := httptest.NewRecorder()
	request := withSID(httptest.NewRequest("POST", "/signin", bytes.NewReader(body)), "sid-1")

	handler.Signin(recorder, request)

	if recorder.Code != http.StatusOK {
		t.Errorf("Expected status code %d, got %d", http.StatusOK, recorder.Code)
	}

	stored, err := store.Get(context.Background(), "sid-1")
	if err != nil {
		t.Fatalf("Expected session in store: %v", err)
	}
	if stored.AccessToken != "access-1" || stored.RefreshToken != "refresh-1" {
		t.Errorf("Stored session has wrong tokens: %+v", stored)
	}

	var user domain.User
	if err := json.NewDecoder(recorder.Body).Decode(&user); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	if user.Email != "jane@example.com" {
		t.Errorf("Expected user email in response, got '%s'", user.Email)
	}
}

func TestSignin_MissingCredentials(t *testing.T) {
	handler := NewAuthHandler(&AuthAPIMock{}, session.NewMemoryStore())

	body, _ := json.Marshal(backend.SigninRequest{Email: "", Password: ""})
	recorder := httptest.NewRecorder()
	request := withSID(httptest.NewRequest("POST", "/signin", bytes.NewReader(body)), "sid-1")

	handler.Signin(recorder, request)

	if recorder.Code != http.StatusBadRequest {
		t.Errorf("Expected status code %d, got %d", http.StatusBadRequest, recorder.Code)
	}
}

func TestSignin_BadCredentials(t *testing.T) {
	mock := &AuthAPIMock{err: &domain.ValidationError{Detail: "invalid email or password"}}
	store := session.NewMemoryStore()
	handler := NewAuthHandler(mock, store)

	body, _ := json.Marshal(backend.SigninRequest{Email: "jane@example.com", Password: "wrong"})
	recorder := httptest.NewRecorder()
	request := withSID(httptest.NewRequest("POST", "/signin", bytes.NewReader(body)), "sid-1")

	handler.Signin(recorder, request)

	if recorder.Code != http.StatusBadRequest {
		t.Errorf("Expected status code %d, got %d", http.StatusBadRequest, recorder.Code)
	}
	if _, err := store.Get(context.Background(), "sid-1"); !errors.Is(err, session.ErrNoSession) {
		t.Errorf("Expected no session after failed signin, got %v", err)
	}
}

func TestSignup_Created(t *testing.T) {
	sess := &domain.Session{
		AccessToken:  "access-1",
		RefreshToken: "refresh-1",
		User:         domain.User{ID: 2, Email: "new@example.com"},
	}
	handler := NewAuthHandler(&AuthAPIMock{session: sess}, session.NewMemoryStore())

	body, _ := json.Marshal(backend.SignupRequest{Email: "new@example.com", Password: "secret123"})
	recorder := httptest.NewRecorder()
	request := withSID(httptest.NewRequest("POST", "/signup", bytes.NewReader(body)), "sid-1")

	handler.Signup(recorder, request)

	if recorder.Code != http.StatusCreated {
		t.Errorf("Expected status code %d, got %d", http.StatusCreated, recorder.Code)
	}
}

func TestMe_SessionExpired(t *testing.T) {
	mock := &AuthAPIMock{err: &domain.AuthError{Reason: "no refresh token"}}
	handler := NewAuthHandler(mock, session.NewMemoryStore())

	recorder := httptest.NewRecorder()
	request := withSID(httptest.NewRequest("GET", "/me", nil), "sid-1")

	handler.Me(recorder, request)

	if recorder.Code != http.StatusUnauthorized {
		t.Errorf("Expected status code %d, got %d", http.StatusUnauthorized, recorder.Code)
	}

	var response ErrorResponse
	json.NewDecoder(recorder.Body).Decode(&response)
	if response.Code != "session_expired" {
		t.Errorf("Expected error code 'session_expired', got '%s'", response.Code)
	}
}

func TestChangePassword_TooShort(t *testing.T) {
	handler := NewAuthHandler(&AuthAPIMock{}, session.NewMemoryStore())

	body, _ := json.Marshal(backend.ChangePasswordRequest{CurrentPassword: "old-secret", NewPassword: "short"})
	recorder := httptest.NewRecorder()
	request := withSID(httptest.NewRequest("POST", "/me/change-password", bytes.NewReader(body)), "sid-1")

	handler.ChangePassword(recorder, request)

	if recorder.Code != http.StatusBadRequest {
		t.Errorf("Expected status code %d, got %d", http.StatusBadRequest, recorder.Code)
	}
}

func TestLogout_ClearsEverything(t *testing.T) {
	store := session.NewMemoryStore()
	_ = store.Set(context.Background(), "sid-1", domain.Session{AccessToken: "a", RefreshToken: "r"})

	mock := &AuthAPIMock{}
	local := &LocalMock{}
	handler := NewAuthHandler(mock, store, local)

	recorder := httptest.NewRecorder()
	request := withSID(httptest.NewRequest("POST", "/logout", nil), "sid-1")

	handler.Logout(recorder, request)

	if recorder.Code != http.StatusNoContent {
		t.Errorf("Expected status code %d, got %d", http.StatusNoContent, recorder.Code)
	}
	if mock.logoutCalls != 1 {
		t.Errorf("Expected 1 backend logout call, got %d", mock.logoutCalls)
	}
	if _, err := store.Get(context.Background(), "sid-1"); !errors.Is(err, session.ErrNoSession) {
		t.Errorf("Expected session cleared, got %v", err)
	}
	if len(local.forgotten) != 1 || local.forgotten[0] != "sid-1" {
		t.Errorf("Expected per-session state forgotten for sid-1, got %v", local.forgotten)
	}
}

func TestLogout_BackendFailureStillClearsLocally(t *testing.T) {
	store := session.NewMemoryStore()
	_ = store.Set(context.Background(), "sid-1", domain.Session{AccessToken: "a", RefreshToken: "r"})

	mock := &AuthAPIMock{err: &domain.NetworkError{Op: "POST /auth/logout", Err: context.DeadlineExceeded}}
	handler := NewAuthHandler(mock, store)

	recorder := httptest.NewRecorder()
	request := withSID(httptest.NewRequest("POST", "/logout", nil), "sid-1")

	handler.Logout(recorder, request)

	if recorder.Code != http.StatusNoContent {
		t.Errorf("Expected status code %d, got %d", http.StatusNoContent, recorder.Code)
	}
	if _, err := store.Get(context.Background(), "sid-1"); !errors.Is(err, session.ErrNoSession) {
		t.Errorf("Expected session cleared despite backend failure, got %v", err)
	}
}
