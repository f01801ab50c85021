// Sharelist Reborn - Real-Time Multi-Device Task Lists
// Copyright 2026 antipro
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/antipro/Sharelist-Reborn

// Package metrics defines the Prometheus collectors exposed on /metrics.
// Collectors are registered at init via promauto on the default registry.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// SessionsConnected is the current number of WebSocket sessions.
	SessionsConnected = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "sharelist_sessions_connected",
		Help: "Current number of connected WebSocket sessions.",
	})

	// RoomsActive is the current number of user rooms with at least one
	// bound session.
	RoomsActive = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "sharelist_rooms_active",
		Help: "Current number of active user rooms.",
	})

	// EventsBroadcast counts events accepted for delivery, by event type.
	EventsBroadcast = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "sharelist_events_broadcast_total",
		Help: "Total events queued for delivery to sessions, by event type.",
	}, []string{"event_type"})

	// CommandsDropped counts inbound commands that were rejected before
	// producing an event, by reason.
	CommandsDropped = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "sharelist_commands_dropped_total",
		Help: "Total inbound commands dropped without effect, by reason.",
	}, []string{"reason"})

	// HTTPRequestsTotal counts HTTP requests by method, route pattern,
	// and status class.
	HTTPRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "sharelist_http_requests_total",
		Help: "Total HTTP requests, by method, route, and status.",
	}, []string{"method", "route", "status"})

	// HTTPRequestDuration observes request latency by method and route
	// pattern.
	HTTPRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "sharelist_http_request_duration_seconds",
		Help:    "HTTP request latency, by method and route.",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "route"})

	// AuthAttempts counts authentication outcomes, by operation and result.
	AuthAttempts = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "sharelist_auth_attempts_total",
		Help: "Total authentication attempts, by operation and result.",
	}, []string{"operation", "result"})
)
