// Sharelist Reborn - Real-Time Multi-Device Task Lists
// Copyright 2026 antipro
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/antipro/Sharelist-Reborn

// Package api exposes the HTTP surface: the auth endpoints, the profile
// endpoint, the WebSocket upgrade, health, and Prometheus metrics.
package api

import (
	"errors"
	"net/http"

	"github.com/goccy/go-json"

	"github.com/antipro/Sharelist-Reborn/internal/auth"
	"github.com/antipro/Sharelist-Reborn/internal/config"
	"github.com/antipro/Sharelist-Reborn/internal/database"
	"github.com/antipro/Sharelist-Reborn/internal/logging"
	"github.com/antipro/Sharelist-Reborn/internal/realtime"
	"github.com/antipro/Sharelist-Reborn/internal/validation"
)

// Handler carries the dependencies the HTTP handlers need.
type Handler struct {
	cfg      *config.Config
	auth     *auth.Service
	jwt      *auth.JWTManager
	hub      *realtime.Hub
	dispatch realtime.Dispatcher
}

// NewHandler constructs the HTTP handler set.
func NewHandler(cfg *config.Config, authSvc *auth.Service, jwt *auth.JWTManager, hub *realtime.Hub, dispatch realtime.Dispatcher) *Handler {
	return &Handler{
		cfg:      cfg,
		auth:     authSvc,
		jwt:      jwt,
		hub:      hub,
		dispatch: dispatch,
	}
}

type errorResponse struct {
	Error string `json:"error"`
}

func respondJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if body == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(body); err != nil {
		logging.Error().Err(err).Msg("encoding response")
	}
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, errorResponse{Error: message})
}

// respondServiceError maps domain errors to HTTP statuses. Unknown errors
// become opaque 500s; details stay in the log.
func respondServiceError(w http.ResponseWriter, err error) {
	var verr *validation.RequestValidationError
	switch {
	case errors.As(err, &verr):
		respondError(w, http.StatusBadRequest, verr.Error())
	case errors.Is(err, database.ErrDuplicateEmail):
		respondError(w, http.StatusConflict, err.Error())
	case errors.Is(err, database.ErrCodeInvalid):
		respondError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, auth.ErrInvalidCredentials):
		respondError(w, http.StatusUnauthorized, err.Error())
	case errors.Is(err, database.ErrNotFound):
		respondError(w, http.StatusNotFound, "not found")
	default:
		logging.Error().Err(err).Msg("request failed")
		respondError(w, http.StatusInternalServerError, "internal error")
	}
}

// decodeBody unmarshals and validates a JSON request body.
func decodeBody[T any](r *http.Request) (T, error) {
	var body T
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		return body, validation.NewRequestValidationError(validation.FieldError{
			Field:   "body",
			Tag:     "json",
			Message: "request body is not valid JSON",
		})
	}
	if err := validation.ValidateStruct(&body); err != nil {
		return body, err
	}
	return body, nil
}
