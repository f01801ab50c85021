// Sharelist Reborn - Real-Time Multi-Device Task Lists
// Copyright 2026 antipro
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/antipro/Sharelist-Reborn

package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/antipro/Sharelist-Reborn/internal/metrics"
	"github.com/antipro/Sharelist-Reborn/internal/middleware"
)

type codeRequest struct {
	Email string `json:"email" validate:"required,email,max=254"`
}

type codeResponse struct {
	// Code is echoed to the caller in place of mail delivery.
	Code string `json:"code"`
}

type registerRequest struct {
	Email    string `json:"email" validate:"required,email,max=254"`
	Code     string `json:"code" validate:"required,len=6,numeric"`
	Username string `json:"username" validate:"required,max=50"`
	Password string `json:"password" validate:"required,min=6,max=72"`
}

type loginRequest struct {
	Email    string `json:"email" validate:"required,email,max=254"`
	Password string `json:"password" validate:"required,max=72"`
}

type updateUserRequest struct {
	Timezone string `json:"timezone" validate:"required,max=64"`
	Language string `json:"language" validate:"required,max=16"`
	Theme    string `json:"theme" validate:"required,oneof=dark light"`
}

// requestCode issues a verification code for an email address.
func (h *Handler) requestCode(w http.ResponseWriter, r *http.Request) {
	body, err := decodeBody[codeRequest](r)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	code, err := h.auth.RequestCode(r.Context(), body.Email)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, codeResponse{Code: code})
}

// register creates an account from a verified code.
func (h *Handler) register(w http.ResponseWriter, r *http.Request) {
	body, err := decodeBody[registerRequest](r)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	resp, err := h.auth.Register(r.Context(), body.Email, body.Code, body.Username, body.Password)
	if err != nil {
		metrics.AuthAttempts.WithLabelValues("register", "failure").Inc()
		respondServiceError(w, err)
		return
	}
	metrics.AuthAttempts.WithLabelValues("register", "success").Inc()
	respondJSON(w, http.StatusCreated, resp)
}

// login authenticates with email and password.
func (h *Handler) login(w http.ResponseWriter, r *http.Request) {
	body, err := decodeBody[loginRequest](r)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	resp, err := h.auth.Login(r.Context(), body.Email, body.Password)
	if err != nil {
		metrics.AuthAttempts.WithLabelValues("login", "failure").Inc()
		respondServiceError(w, err)
		return
	}
	metrics.AuthAttempts.WithLabelValues("login", "success").Inc()
	respondJSON(w, http.StatusOK, resp)
}

// updateUser changes the caller's profile settings. The path id must
// match the token identity; there is no admin override.
func (h *Handler) updateUser(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok || userID != chi.URLParam(r, "id") {
		respondError(w, http.StatusForbidden, "forbidden")
		return
	}

	body, err := decodeBody[updateUserRequest](r)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	user, err := h.auth.UpdateProfile(r.Context(), userID, body.Timezone, body.Language, body.Theme)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, user)
}
