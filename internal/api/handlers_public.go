// Parfour - Charity Golf Tournament Platform
// Copyright 2026 Parfour Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/parfour/parfour

package api

import (
	"net/http"

	"github.com/parfour/parfour/internal/logging"
)

// handleListSponsors returns all sponsors, ordered by tier then name.
//
//	@Summary	List sponsors
//	@Tags		public
//	@Produce	json
//	@Success	200	{object}	APIResponse
//	@Router		/sponsors [get]
func (s *Server) handleListSponsors(w http.ResponseWriter, r *http.Request) {
	sponsors, err := s.content.ListSponsors(r.Context())
	if err != nil {
		logging.Err(err).Msg("Failed to list sponsors")
		respondError(w, r, http.StatusInternalServerError, ErrCodeInternal, "failed to load sponsors")
		return
	}
	respondJSON(w, r, http.StatusOK, sponsors)
}

// handleListWinners returns past winners, newest year first.
//
//	@Summary	List winners
//	@Tags		public
//	@Produce	json
//	@Success	200	{object}	APIResponse
//	@Router		/winners [get]
func (s *Server) handleListWinners(w http.ResponseWriter, r *http.Request) {
	winners, err := s.content.ListWinners(r.Context())
	if err != nil {
		logging.Err(err).Msg("Failed to list winners")
		respondError(w, r, http.StatusInternalServerError, ErrCodeInternal, "failed to load winners")
		return
	}
	respondJSON(w, r, http.StatusOK, winners)
}

// handleGetFunds returns the current funds-raised total. Never 404s:
// before the first admin update it reports zeros.
//
//	@Summary	Funds raised
//	@Tags		public
//	@Produce	json
//	@Success	200	{object}	APIResponse
//	@Router		/funds [get]
func (s *Server) handleGetFunds(w http.ResponseWriter, r *http.Request) {
	funds, err := s.content.GetFunds(r.Context())
	if err != nil {
		logging.Err(err).Msg("Failed to load funds total")
		respondError(w, r, http.StatusInternalServerError, ErrCodeInternal, "failed to load funds total")
		return
	}
	respondJSON(w, r, http.StatusOK, funds)
}

// handleHealthz reports liveness.
func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, r, http.StatusOK, map[string]string{"status": "ok"})
}

// handleReadyz reports readiness: the content store must answer.
func (s *Server) handleReadyz(w http.ResponseWriter, r *http.Request) {
	if _, err := s.content.GetFunds(r.Context()); err != nil {
		respondError(w, r, http.StatusServiceUnavailable, ErrCodeInternal, "content store not ready")
		return
	}
	respondJSON(w, r, http.StatusOK, map[string]string{"status": "ready"})
}
