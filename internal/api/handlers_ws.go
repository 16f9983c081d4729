// Parfour - Charity Golf Tournament Platform
// Copyright 2026 Parfour Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/parfour/parfour

package api

import (
	"net/http"

	"github.com/gorilla/websocket"

	"github.com/parfour/parfour/internal/logging"
	"github.com/parfour/parfour/internal/metrics"
	ws "github.com/parfour/parfour/internal/websocket"
)

// newUpgrader builds the WebSocket upgrader. Origin checking mirrors
// the CORS allowlist: same-origin requests (no Origin header) always
// pass, and an empty allowlist admits everything, matching how the
// CORS middleware treats the REST endpoints in development.
func newUpgrader(allowedOrigins []string) *websocket.Upgrader {
	allowed := make(map[string]bool, len(allowedOrigins))
	for _, origin := range allowedOrigins {
		allowed[origin] = true
	}

	return &websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *http.Request) bool {
			origin := r.Header.Get("Origin")
			if origin == "" || len(allowed) == 0 {
				return true
			}
			return allowed[origin]
		},
	}
}

// handleFundsWS upgrades the connection and registers the viewer with
// the hub. The hub replays the current funds total immediately, so the
// page never waits for the next admin update.
//
//	@Summary	Live funds updates
//	@Tags		public
//	@Success	101	{string}	string	"Switching Protocols"
//	@Router		/ws/funds [get]
func (s *Server) handleFundsWS(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade already wrote the HTTP error response.
		metrics.WSErrors.WithLabelValues("upgrade").Inc()
		logging.Err(err).Msg("WebSocket upgrade failed")
		return
	}

	client := ws.NewClient(s.hub, conn)
	s.hub.Register <- client
	client.Start()
}
