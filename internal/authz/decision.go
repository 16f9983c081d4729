// Parfour - Charity Golf Tournament Platform
// Copyright 2026 Parfour Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/parfour/parfour

package authz

import (
	"github.com/parfour/parfour/internal/auth"
	"github.com/parfour/parfour/internal/metrics"
)

// Outcome is the result of an authorization check.
type Outcome string

// Authorization outcomes.
const (
	// OutcomePending means the session lookup has not resolved yet.
	// The HTTP gate resolves sessions synchronously, so it never emits
	// Pending; clients use it as their initial state before the first
	// session response arrives, and nothing renders until it resolves.
	OutcomePending Outcome = "pending"

	// OutcomeAllowed means the request may proceed.
	OutcomeAllowed Outcome = "allowed"

	// OutcomeDeniedUnauthenticated means no valid session was
	// presented. The visitor is sent to the login page.
	OutcomeDeniedUnauthenticated Outcome = "denied_unauthenticated"

	// OutcomeDeniedInsufficientRole means the session is valid but the
	// role does not cover the route. The visitor is sent home with an
	// explanation rather than to login, which could not help them.
	OutcomeDeniedInsufficientRole Outcome = "denied_insufficient_role"
)

// Redirect targets for denied requests.
const (
	RedirectLogin = "/login"
	RedirectHome  = "/"
)

// DeniedRoleMessage is shown when a signed-in visitor lacks the role
// for a page.
const DeniedRoleMessage = "You do not have permission to view that page."

// Decision is the full result of an authorization check, including
// where to send a denied visitor.
type Decision struct {
	Outcome Outcome `json:"outcome"`

	// RedirectTarget is where the browser should navigate on denial.
	// Empty when allowed.
	RedirectTarget string `json:"redirect_target,omitempty"`

	// Message is a human-readable explanation for denial, shown as a
	// toast after the redirect. Empty when allowed or unauthenticated.
	Message string `json:"message,omitempty"`
}

// Allowed reports whether the request may proceed.
func (d Decision) Allowed() bool {
	return d.Outcome == OutcomeAllowed
}

// anonymousRole is the subject used for requests with no session. It
// is deliberately not configurable: pointing it at a signed-in role
// would open those routes to the public.
const anonymousRole = "anonymous"

// Gate evaluates authorization decisions for requests.
type Gate struct {
	enforcer *Enforcer
}

// NewGate creates an authorization gate.
func NewGate(enforcer *Enforcer) *Gate {
	return &Gate{enforcer: enforcer}
}

// Decide evaluates whether the session (nil for anonymous visitors)
// may perform the method on the path. Denials distinguish "not signed
// in" from "signed in without the role" so the browser can route the
// visitor usefully.
func (g *Gate) Decide(session *auth.Session, path, method string) (Decision, error) {
	role := anonymousRole
	if session != nil {
		role = string(session.Role)
	}

	allowed, err := g.enforcer.Enforce(role, path, method)
	if err != nil {
		return Decision{}, err
	}

	var decision Decision
	switch {
	case allowed:
		decision = Decision{Outcome: OutcomeAllowed}
	case session == nil:
		decision = Decision{
			Outcome:        OutcomeDeniedUnauthenticated,
			RedirectTarget: RedirectLogin,
		}
	default:
		decision = Decision{
			Outcome:        OutcomeDeniedInsufficientRole,
			RedirectTarget: RedirectHome,
			Message:        DeniedRoleMessage,
		}
	}

	metrics.AuthzDecisions.WithLabelValues(string(decision.Outcome)).Inc()
	return decision, nil
}
