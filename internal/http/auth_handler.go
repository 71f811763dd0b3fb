package http

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"strings"

	"github.com/fjod/go_shop/internal/backend"
	"github.com/fjod/go_shop/internal/domain"
	"github.com/fjod/go_shop/internal/session"
)

// AuthAPI is the slice of the backend client the auth handlers need.
type AuthAPI interface {
	Signup(ctx context.Context, req backend.SignupRequest) (*domain.Session, error)
	Signin(ctx context.Context, req backend.SigninRequest) (*domain.Session, error)
	Me(ctx context.Context, sid string) (*domain.User, error)
	UpdateProfile(ctx context.Context, sid string, req backend.UpdateProfileRequest) (*domain.User, error)
	ChangePassword(ctx context.Context, sid string, req backend.ChangePasswordRequest) error
	Logout(ctx context.Context, sid string) error
}

// SessionLocal is per-session state the gateway keeps besides tokens. Logout
// has to drop all of it at once.
type SessionLocal interface {
	Forget(sid string)
}

type AuthHandler struct {
	api    AuthAPI
	store  session.Store
	locals []SessionLocal
}

func NewAuthHandler(api AuthAPI, store session.Store, locals ...SessionLocal) *AuthHandler {
	return &AuthHandler{api: api, store: store, locals: locals}
}

func (h *AuthHandler) Signup(w http.ResponseWriter, r *http.Request) {
	var req backend.SignupRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid request body")
		return
	}
	req.Email = strings.TrimSpace(req.Email)
	if req.Email == "" || req.Password == "" {
		respondError(w, http.StatusBadRequest, "invalid_request", "email and password are required")
		return
	}

	sess, err := h.api.Signup(r.Context(), req)
	if err != nil {
		handleCoreError(w, err)
		return
	}
	h.establish(w, r, sess, http.StatusCreated)
}

func (h *AuthHandler) Signin(w http.ResponseWriter, r *http.Request) {
	var req backend.SigninRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid request body")
		return
	}
	req.Email = strings.TrimSpace(req.Email)
	if req.Email == "" || req.Password == "" {
		respondError(w, http.StatusBadRequest, "invalid_request", "email and password are required")
		return
	}

	sess, err := h.api.Signin(r.Context(), req)
	if err != nil {
		handleCoreError(w, err)
		return
	}
	h.establish(w, r, sess, http.StatusOK)
}

// establish persists the freshly issued tokens under the caller's sid. The
// response only carries the user profile.
func (h *AuthHandler) establish(w http.ResponseWriter, r *http.Request, sess *domain.Session, status int) {
	sid := sidFromContext(r.Context())
	if err := h.store.Set(r.Context(), sid, *sess); err != nil {
		log.Printf("failed to persist session %s: %v", sid, err)
		respondError(w, http.StatusInternalServerError, "internal_error", "failed to establish session")
		return
	}
	respondJSON(w, status, sess.User)
}

func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	user, err := h.api.Me(r.Context(), sidFromContext(r.Context()))
	if err != nil {
		handleCoreError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, user)
}

func (h *AuthHandler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	var req backend.UpdateProfileRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid request body")
		return
	}

	user, err := h.api.UpdateProfile(r.Context(), sidFromContext(r.Context()), req)
	if err != nil {
		handleCoreError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, user)
}

func (h *AuthHandler) ChangePassword(w http.ResponseWriter, r *http.Request) {
	var req backend.ChangePasswordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid request body")
		return
	}
	if req.CurrentPassword == "" || req.NewPassword == "" {
		respondError(w, http.StatusBadRequest, "invalid_request", "current and new passwords are required")
		return
	}
	if len(req.NewPassword) < 8 {
		respondError(w, http.StatusBadRequest, "invalid_request", "new password must be at least 8 characters")
		return
	}

	if err := h.api.ChangePassword(r.Context(), sidFromContext(r.Context()), req); err != nil {
		handleCoreError(w, err)
		return
	}
	respondJSON(w, http.StatusNoContent, nil)
}

func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	sid := sidFromContext(r.Context())

	// Best effort: the backend may already consider the tokens dead.
	if err := h.api.Logout(r.Context(), sid); err != nil {
		log.Printf("backend logout for session %s failed: %v", sid, err)
	}
	if err := h.store.Clear(r.Context(), sid); err != nil {
		log.Printf("failed to clear session %s: %v", sid, err)
	}
	for _, l := range h.locals {
		l.Forget(sid)
	}
	respondJSON(w, http.StatusNoContent, nil)
}
