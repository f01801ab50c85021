// Sharelist Reborn - Real-Time Multi-Device Task Lists
// Copyright 2026 antipro
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/antipro/Sharelist-Reborn

package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/antipro/Sharelist-Reborn/internal/middleware"
)

// NewRouter wires the full route tree.
func (h *Handler) NewRouter() http.Handler {
	r := chi.NewRouter()

	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(chimw.Recoverer)
	r.Use(middleware.Metrics)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   h.cfg.Security.CORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	r.Get("/healthz", h.health)
	r.Handle("/metrics", promhttp.Handler())
	r.Get("/ws", h.serveWS)

	r.Route("/api", func(r chi.Router) {
		// Auth endpoints are the abuse surface; rate limit them per IP.
		r.Group(func(r chi.Router) {
			r.Use(httprate.LimitByIP(h.cfg.Security.RateLimitReqs, h.cfg.Security.RateLimitWindow))
			r.Post("/auth/code", h.requestCode)
			r.Post("/auth/register", h.register)
			r.Post("/auth/login", h.login)
		})

		r.Group(func(r chi.Router) {
			r.Use(middleware.Authenticate(h.jwt))
			r.Put("/users/{id}", h.updateUser)
		})
	})

	return r
}

type healthResponse struct {
	Status   string `json:"status"`
	Sessions int    `json:"sessions"`
}

func (h *Handler) health(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, healthResponse{
		Status:   "ok",
		Sessions: h.hub.SessionCount(),
	})
}
