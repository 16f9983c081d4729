// Parfour - Charity Golf Tournament Platform
// Copyright 2026 Parfour Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/parfour/parfour

package api

import (
	"errors"
	"io"
	"net/http"

	"github.com/parfour/parfour/internal/auth"
	"github.com/parfour/parfour/internal/identity"
	"github.com/parfour/parfour/internal/logging"
	"github.com/parfour/parfour/internal/metrics"
)

// maxWebhookBodySize bounds webhook payloads. Identity change events
// are small; anything bigger is not a legitimate notification.
const maxWebhookBodySize = 256 * 1024

// loginRequest is the sign-in request body.
type loginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=1"`
}

// sessionInfo is the client-visible view of a session.
type sessionInfo struct {
	Authenticated bool   `json:"authenticated"`
	UserID        string `json:"user_id,omitempty"`
	Email         string `json:"email,omitempty"`
	Role          string `json:"role,omitempty"`
}

// handleLogin signs the visitor in against the identity provider and
// issues the session cookie.
//
//	@Summary	Sign in
//	@Tags		auth
//	@Accept		json
//	@Produce	json
//	@Param		credentials	body	loginRequest	true	"Email and password"
//	@Success	200	{object}	APIResponse
//	@Failure	401	{object}	APIResponse
//	@Router		/auth/login [post]
func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	session, err := s.sessions.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		var upstream *identity.UpstreamError
		if errors.As(err, &upstream) && upstream.StatusCode >= 400 && upstream.StatusCode < 500 {
			respondError(w, r, http.StatusUnauthorized, ErrCodeAuthentication, "invalid email or password")
			return
		}
		respondError(w, r, http.StatusBadGateway, ErrCodeUpstream, "sign-in is temporarily unavailable")
		return
	}

	s.setSessionCookie(w, session.ID)
	respondJSON(w, r, http.StatusOK, sessionInfo{
		Authenticated: true,
		UserID:        session.UserID,
		Email:         session.Email,
		Role:          string(session.Role),
	})
}

// handleLogout revokes the session on both sides and clears the cookie.
//
//	@Summary	Sign out
//	@Tags		auth
//	@Produce	json
//	@Success	200	{object}	APIResponse
//	@Router		/auth/logout [post]
func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	session := SessionFromContext(r.Context())
	if session != nil {
		if err := s.sessions.Logout(r.Context(), session.ID); err != nil {
			logging.Err(err).Str("session_id", session.ID).Msg("Logout failed")
			respondError(w, r, http.StatusInternalServerError, ErrCodeInternal, "failed to sign out")
			return
		}
	}

	s.clearSessionCookie(w)
	respondJSON(w, r, http.StatusOK, sessionInfo{Authenticated: false})
}

// handleSession reports the current authentication state. The frontend
// calls this on load to resolve its pending auth state.
//
//	@Summary	Current session
//	@Tags		auth
//	@Produce	json
//	@Success	200	{object}	APIResponse
//	@Router		/auth/session [get]
func (s *Server) handleSession(w http.ResponseWriter, r *http.Request) {
	session := SessionFromContext(r.Context())
	if session == nil {
		respondJSON(w, r, http.StatusOK, sessionInfo{Authenticated: false})
		return
	}

	respondJSON(w, r, http.StatusOK, sessionInfo{
		Authenticated: true,
		UserID:        session.UserID,
		Email:         session.Email,
		Role:          string(session.Role),
	})
}

// handleWebhook receives identity change notifications from the
// provider. The HMAC signature is verified before anything is parsed;
// recognized events fan out on the bus for the session verifier.
//
//	@Summary	Identity provider webhook
//	@Tags		auth
//	@Accept		json
//	@Produce	json
//	@Param		X-Webhook-Signature	header	string	true	"HMAC-SHA256 of the raw body, hex"
//	@Success	200	{object}	APIResponse
//	@Failure	401	{object}	APIResponse
//	@Router		/auth/webhook [post]
func (s *Server) handleWebhook(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxWebhookBodySize))
	if err != nil {
		respondError(w, r, http.StatusBadRequest, ErrCodeValidation, "failed to read request body")
		return
	}

	event, err := s.webhook.Decode(body, r.Header.Get("X-Webhook-Signature"))
	switch {
	case errors.Is(err, auth.ErrWebhookSignature):
		metrics.WebhookEvents.WithLabelValues("unknown", "rejected").Inc()
		respondError(w, r, http.StatusUnauthorized, ErrCodeAuthentication, "invalid webhook signature")
		return
	case errors.Is(err, auth.ErrWebhookEventIgnored):
		// Unknown event types are acknowledged so the provider does
		// not retry them forever.
		metrics.WebhookEvents.WithLabelValues("unknown", "accepted").Inc()
		respondJSON(w, r, http.StatusOK, map[string]string{"result": "ignored"})
		return
	case err != nil:
		metrics.WebhookEvents.WithLabelValues("unknown", "rejected").Inc()
		respondError(w, r, http.StatusBadRequest, ErrCodeValidation, "invalid webhook payload")
		return
	}

	if err := s.bus.PublishIdentityChanged(event); err != nil {
		logging.Err(err).Str("type", event.Type).Msg("Failed to publish identity change")
		respondError(w, r, http.StatusInternalServerError, ErrCodeInternal, "failed to process event")
		return
	}

	metrics.WebhookEvents.WithLabelValues(event.Type, "accepted").Inc()
	logging.Info().
		Str("type", event.Type).
		Str("user_id", event.UserID).
		Msg("Identity change event accepted")
	respondJSON(w, r, http.StatusOK, map[string]string{"result": "accepted"})
}
