// Sharelist Reborn - Real-Time Multi-Device Task Lists
// Copyright 2026 antipro
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/antipro/Sharelist-Reborn

package api

import (
	"net/http"

	"github.com/gorilla/websocket"

	"github.com/antipro/Sharelist-Reborn/internal/logging"
	"github.com/antipro/Sharelist-Reborn/internal/realtime"
)

// serveWS upgrades the connection and registers a session with the hub.
//
// A ?token= query parameter, when present, must be a valid session token;
// it pins the session to that user so a later join:user for anyone else
// is refused. Browsers cannot set headers on WebSocket upgrades, which is
// why the token travels as a query parameter here and as an Authorization
// header everywhere else.
func (h *Handler) serveWS(w http.ResponseWriter, r *http.Request) {
	var allowedUserID string
	if token := r.URL.Query().Get("token"); token != "" {
		claims, err := h.jwt.ValidateToken(token)
		if err != nil {
			logging.Debug().Err(err).Msg("rejected websocket token")
			respondError(w, http.StatusUnauthorized, "unauthorized")
			return
		}
		allowedUserID = claims.UserID
	}

	upgrader := websocket.Upgrader{
		ReadBufferSize:  4096,
		WriteBufferSize: 4096,
		CheckOrigin:     h.checkOrigin,
	}
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade has already written the error response.
		logging.Warn().Err(err).Msg("websocket upgrade failed")
		return
	}

	session := realtime.NewSession(h.hub, conn, h.dispatch, allowedUserID)
	h.hub.Register <- session
	session.Start()
}

// checkOrigin accepts requests with no Origin header (non-browser
// clients) and browser origins on the configured allowlist.
func (h *Handler) checkOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" {
		return true
	}
	for _, allowed := range h.cfg.Security.CORSOrigins {
		if allowed == "*" || allowed == origin {
			return true
		}
	}
	return false
}
