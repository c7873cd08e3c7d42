// Copyright (c) 2025 Biblioteca Universal Arion.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"net/http"

	"github.com/polTorrent/biblioteca-universal-arion/auth"
	"github.com/polTorrent/biblioteca-universal-arion/middleware"
	"github.com/polTorrent/biblioteca-universal-arion/models"
	"github.com/polTorrent/biblioteca-universal-arion/store"
)

// CurrentProfiler reports the profile kept on this device.
type CurrentProfiler interface {
	CurrentProfileID() (string, bool)
}

// AuthHandler serves remote accounts. With no account manager the device
// runs local-only and only the session lookup is answered.
type AuthHandler struct {
	accounts *auth.Manager
	device   CurrentProfiler
}

func NewAuthHandler(accounts *auth.Manager, device CurrentProfiler) *AuthHandler {
	return &AuthHandler{accounts: accounts, device: device}
}

func (h *AuthHandler) requireAccounts(w http.ResponseWriter) bool {
	if h.accounts == nil {
		middleware.ErrorResponse(w, http.StatusServiceUnavailable, "accounts require a remote store")
		return false
	}
	return true
}

func sessionResponse(s auth.Session) models.SessionResponse {
	return models.SessionResponse{
		ProfileID: s.ProfileID,
		Email:     s.Email,
		Token:     s.Token,
		Mode:      store.ModeRemote,
	}
}

// SignUp handles POST /auth/signup
func (h *AuthHandler) SignUp(w http.ResponseWriter, r *http.Request) {
	if !h.requireAccounts(w) {
		return
	}
	var req models.SignUpRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		middleware.BodyError(w, err)
		return
	}

	sess, err := h.accounts.SignUp(r.Context(), req)
	if err != nil {
		middleware.WriteError(w, r, err)
		return
	}
	middleware.JSONResponse(w, http.StatusCreated, sessionResponse(sess))
}

// SignIn handles POST /auth/signin
func (h *AuthHandler) SignIn(w http.ResponseWriter, r *http.Request) {
	if !h.requireAccounts(w) {
		return
	}
	var req models.SignInRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		middleware.BodyError(w, err)
		return
	}

	sess, err := h.accounts.SignIn(r.Context(), req)
	if err != nil {
		middleware.WriteError(w, r, err)
		return
	}
	middleware.JSONResponse(w, http.StatusOK, sessionResponse(sess))
}

// SignOut handles POST /auth/signout
func (h *AuthHandler) SignOut(w http.ResponseWriter, r *http.Request) {
	if !h.requireAccounts(w) {
		return
	}
	h.accounts.SignOut(r.Context())
	w.WriteHeader(http.StatusNoContent)
}

// Session handles GET /auth/session
func (h *AuthHandler) Session(w http.ResponseWriter, r *http.Request) {
	if h.accounts != nil {
		sess, ok := h.accounts.Current()
		if !ok {
			middleware.ErrorResponse(w, http.StatusNotFound, "not signed in")
			return
		}
		middleware.JSONResponse(w, http.StatusOK, sessionResponse(sess))
		return
	}

	if h.device != nil {
		if id, ok := h.device.CurrentProfileID(); ok {
			middleware.JSONResponse(w, http.StatusOK, models.SessionResponse{ProfileID: id, Mode: store.ModeLocal})
			return
		}
	}
	middleware.ErrorResponse(w, http.StatusNotFound, "no profile on this device")
}
