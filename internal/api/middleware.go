// Parfour - Charity Golf Tournament Platform
// Copyright 2026 Parfour Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/parfour/parfour

package api

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/parfour/parfour/internal/auth"
	"github.com/parfour/parfour/internal/authz"
	"github.com/parfour/parfour/internal/logging"
)

type sessionContextKey struct{}

// SessionFromContext returns the authenticated session for the request,
// or nil for anonymous visitors.
func SessionFromContext(ctx context.Context) *auth.Session {
	session, _ := ctx.Value(sessionContextKey{}).(*auth.Session)
	return session
}

// RevokedSessionMessage is returned when a request arrives on a session
// that was force-revoked after an admin demotion.
const RevokedSessionMessage = "Your access level changed and you have been signed out."

// withSession resolves the session cookie into a session and attaches
// it to the request context. Anonymous requests pass through with no
// session. A cookie pointing at a force-revoked session gets the
// revocation response exactly once, then behaves like any stale cookie.
func (s *Server) withSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		cookie, err := r.Cookie(s.cfg.Security.CookieName)
		if err != nil || cookie.Value == "" {
			next.ServeHTTP(w, r)
			return
		}

		session, err := s.sessions.GetSession(r.Context(), cookie.Value)
		if err != nil {
			if s.verifier != nil && s.verifier.ConsumeDemotion(cookie.Value) {
				s.clearSessionCookie(w)
				respondErrorDetails(w, r, http.StatusUnauthorized, ErrCodeAuthentication,
					RevokedSessionMessage, map[string]string{"redirect_target": authz.RedirectHome})
				return
			}
			if !errors.Is(err, auth.ErrSessionNotFound) && !errors.Is(err, auth.ErrSessionExpired) {
				logging.Err(err).Msg("Session lookup failed")
			}
			s.clearSessionCookie(w)
			next.ServeHTTP(w, r)
			return
		}

		ctx := context.WithValue(r.Context(), sessionContextKey{}, session)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// withGate enforces the role policy for every request. Denials carry a
// redirect target so the frontend knows where to send the visitor.
func (s *Server) withGate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		session := SessionFromContext(r.Context())

		decision, err := s.gate.Decide(session, r.URL.Path, r.Method)
		if err != nil {
			respondError(w, r, http.StatusInternalServerError, ErrCodeInternal, "authorization check failed")
			return
		}

		switch decision.Outcome {
		case authz.OutcomeAllowed:
			// Admin area access keeps the session's admin window fresh,
			// which is what makes a later demotion force a sign-out.
			if session != nil && strings.HasPrefix(r.URL.Path, "/api/v1/admin") {
				if err := s.sessions.MarkAdminAccess(r.Context(), session.ID); err != nil {
					logging.Err(err).Str("session_id", session.ID).Msg("Failed to mark admin access")
				}
			}
			next.ServeHTTP(w, r)

		case authz.OutcomeDeniedUnauthenticated:
			respondErrorDetails(w, r, http.StatusUnauthorized, ErrCodeAuthentication,
				"authentication required", map[string]string{"redirect_target": decision.RedirectTarget})

		case authz.OutcomeDeniedInsufficientRole:
			respondErrorDetails(w, r, http.StatusForbidden, ErrCodeAuthorization,
				decision.Message, map[string]string{"redirect_target": decision.RedirectTarget})

		default:
			respondError(w, r, http.StatusForbidden, ErrCodeAuthorization, "access denied")
		}
	})
}

// setSessionCookie issues the session cookie. HttpOnly keeps it away
// from page scripts; SameSite=Lax blocks cross-site POSTs from riding
// the session while still allowing top-level navigation.
func (s *Server) setSessionCookie(w http.ResponseWriter, sessionID string) {
	http.SetCookie(w, &http.Cookie{
		Name:     s.cfg.Security.CookieName,
		Value:    sessionID,
		Path:     "/",
		MaxAge:   int(s.cfg.Security.SessionTimeout.Seconds()),
		HttpOnly: true,
		Secure:   s.cfg.Security.CookieSecure,
		SameSite: http.SameSiteLaxMode,
	})
}

func (s *Server) clearSessionCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     s.cfg.Security.CookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   s.cfg.Security.CookieSecure,
		SameSite: http.SameSiteLaxMode,
	})
}
