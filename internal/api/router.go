// Parfour - Charity Golf Tournament Platform
// Copyright 2026 Parfour Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/parfour/parfour

// Package api exposes the HTTP surface of the Parfour server: public
// content reads, session management against the identity provider,
// the role-gated admin area, and the live funds WebSocket.
package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	httpSwagger "github.com/swaggo/http-swagger/v2"

	"github.com/parfour/parfour/internal/auth"
	"github.com/parfour/parfour/internal/authz"
	"github.com/parfour/parfour/internal/config"
	"github.com/parfour/parfour/internal/events"
	"github.com/parfour/parfour/internal/identity"
	"github.com/parfour/parfour/internal/media"
	"github.com/parfour/parfour/internal/middleware"
	"github.com/parfour/parfour/internal/sponsors"
	ws "github.com/parfour/parfour/internal/websocket"
)

// Server holds the dependencies of the HTTP handlers.
type Server struct {
	cfg      *config.Config
	sessions *auth.Manager
	verifier *auth.Verifier
	gate     *authz.Gate
	identity identity.ClientInterface
	media    media.ClientInterface
	content  *sponsors.Store
	bus      *events.Bus
	hub      *ws.Hub
	webhook  *auth.WebhookVerifier
	upgrader *websocket.Upgrader
	limiter  *middleware.RateLimiter
}

// NewServer wires the HTTP server from its dependencies.
func NewServer(
	cfg *config.Config,
	sessions *auth.Manager,
	verifier *auth.Verifier,
	gate *authz.Gate,
	identityClient identity.ClientInterface,
	mediaClient media.ClientInterface,
	content *sponsors.Store,
	bus *events.Bus,
	hub *ws.Hub,
) *Server {
	return &Server{
		cfg:      cfg,
		sessions: sessions,
		verifier: verifier,
		gate:     gate,
		identity: identityClient,
		media:    mediaClient,
		content:  content,
		bus:      bus,
		hub:      hub,
		webhook:  auth.NewWebhookVerifier(cfg.Identity.WebhookSecret),
		upgrader: newUpgrader(cfg.Security.CORSOrigins),
		limiter: middleware.NewRateLimiter(
			cfg.Security.RateLimitReqs,
			cfg.Security.RateLimitWindow,
			cfg.Security.RateLimitDisabled,
		),
	}
}

// Routes builds the router with the full middleware chain.
func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(chimw.RealIP)
	r.Use(chimw.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   s.cfg.Security.CORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type", "X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           300,
	}))
	r.Use(middleware.SecurityHeaders)
	r.Use(middleware.Compression)
	r.Use(middleware.PrometheusMetrics)
	r.Use(s.withSession)

	// Operational endpoints sit outside the authorization gate.
	r.Get("/healthz", s.handleHealthz)
	r.Get("/readyz", s.handleReadyz)
	r.Handle("/metrics", promhttp.Handler())
	r.Get("/swagger/*", httpSwagger.Handler(
		httpSwagger.URL("/swagger/doc.json"),
		httpSwagger.DeepLinking(true),
		httpSwagger.DocExpansion("list"),
		httpSwagger.DomID("swagger-ui"),
	))

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(s.withGate)

		// Public content.
		r.Group(func(r chi.Router) {
			r.Use(s.limiter.Default())
			r.Get("/sponsors", s.handleListSponsors)
			r.Get("/winners", s.handleListWinners)
			r.Get("/funds", s.handleGetFunds)
		})

		// Live funds updates.
		r.Group(func(r chi.Router) {
			r.Use(s.limiter.WebSocket())
			r.Get("/ws/funds", s.handleFundsWS)
		})

		// Session lifecycle.
		r.Route("/auth", func(r chi.Router) {
			r.With(s.limiter.Login()).Post("/login", s.handleLogin)
			r.With(s.limiter.Default()).Post("/logout", s.handleLogout)
			r.With(s.limiter.Default()).Get("/session", s.handleSession)
			r.With(s.limiter.Default()).Post("/webhook", s.handleWebhook)
		})

		// Admin area. The gate already requires the admin role here;
		// the rate limit protects the upstream services behind it.
		r.Route("/admin", func(r chi.Router) {
			r.Use(s.limiter.Admin())

			r.Get("/users", s.handleListUsers)
			r.Put("/users/{userID}/role", s.handleUpdateUserRole)

			r.Get("/photos", s.handleListPhotos)
			r.Post("/photos", s.handleUploadPhoto)
			r.Delete("/photos/{publicID}", s.handleDeletePhoto)
			r.Post("/photos/batch-delete", s.handleBatchDeletePhotos)

			r.Post("/sponsors", s.handleUpsertSponsor)
			r.Delete("/sponsors/{id}", s.handleDeleteSponsor)

			r.Post("/winners", s.handleUpsertWinner)
			r.Delete("/winners/{id}", s.handleDeleteWinner)

			r.Put("/funds", s.handleUpdateFunds)
		})
	})

	return r
}
