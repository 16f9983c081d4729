// Parfour - Charity Golf Tournament Platform
// Copyright 2026 Parfour Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/parfour/parfour

// Command server runs the Parfour backend: the public content API,
// session management against the hosted identity provider, the
// role-gated admin area, and the live funds WebSocket.
//
//	@title			Parfour API
//	@version		1.0
//	@description	Charity golf tournament platform backend.
//	@BasePath		/api/v1
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	badger "github.com/dgraph-io/badger/v4"

	_ "github.com/parfour/parfour/docs" // swagger spec registration
	"github.com/parfour/parfour/internal/api"
	"github.com/parfour/parfour/internal/auth"
	"github.com/parfour/parfour/internal/authz"
	"github.com/parfour/parfour/internal/config"
	"github.com/parfour/parfour/internal/events"
	"github.com/parfour/parfour/internal/identity"
	"github.com/parfour/parfour/internal/logging"
	"github.com/parfour/parfour/internal/media"
	"github.com/parfour/parfour/internal/sponsors"
	"github.com/parfour/parfour/internal/supervisor"
	"github.com/parfour/parfour/internal/supervisor/services"
	ws "github.com/parfour/parfour/internal/websocket"
)

func main() {
	cfg, err := config.LoadWithKoanf()
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to load configuration")
	}

	logging.Init(logging.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Caller: cfg.Logging.Caller,
	})
	logging.Info().
		Str("environment", cfg.Server.Environment).
		Int("port", cfg.Server.Port).
		Msg("Starting Parfour server")

	if err := run(cfg); err != nil {
		logging.Fatal().Err(err).Msg("Server exited with error")
	}
}

func run(cfg *config.Config) error {
	db, err := badger.Open(badger.DefaultOptions(cfg.Content.DataDir).WithLogger(nil))
	if err != nil {
		return fmt.Errorf("failed to open data store: %w", err)
	}
	defer func() {
		if err := db.Close(); err != nil {
			logging.Err(err).Msg("Failed to close data store")
		}
	}()

	var sessionStore auth.Store
	switch cfg.Security.SessionStore {
	case "memory":
		sessionStore = auth.NewMemoryStore()
	default:
		sessionStore = auth.NewBadgerStore(db)
	}

	// External clients go through circuit breakers so provider outages
	// fail fast instead of piling up timeouts.
	identityClient := identity.NewCircuitBreakerClient(&cfg.Identity)
	mediaClient := media.NewCircuitBreakerClient(&cfg.Media)

	bus := events.NewBus()
	defer func() {
		if err := bus.Close(); err != nil {
			logging.Err(err).Msg("Failed to close event bus")
		}
	}()

	enforcer, err := authz.NewEnforcer(cfg.Security.Casbin)
	if err != nil {
		return fmt.Errorf("failed to build authorization enforcer: %w", err)
	}
	defer enforcer.Close()

	sessions := auth.NewManager(sessionStore, identityClient, cfg.Security.SessionTimeout).
		WithTokenVerifier(identity.NewTokenVerifier(cfg.Identity.JWTSecret))
	verifier := auth.NewVerifier(sessionStore, identityClient, bus)
	hub := ws.NewHub(bus)

	server := api.NewServer(cfg, sessions, verifier, authz.NewGate(enforcer),
		identityClient, mediaClient, sponsors.NewStore(db), bus, hub)

	httpServer := &http.Server{
		Addr:              fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:           server.Routes(),
		ReadTimeout:       cfg.Server.Timeout,
		ReadHeaderTimeout: cfg.Server.Timeout,
		// No WriteTimeout: it would cut off long-lived WebSocket
		// connections on the funds stream.
	}

	tree := supervisor.NewTree(logging.NewSlogLogger(), supervisor.DefaultTreeConfig())
	tree.AddSessionService(verifier)
	tree.AddMessagingService(hub)
	tree.AddAPIService(services.NewHTTPServerService(httpServer, supervisor.DefaultTreeConfig().ShutdownTimeout))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logging.Info().Str("addr", httpServer.Addr).Msg("Listening")
	err = tree.Serve(ctx)
	if err != nil && !errors.Is(err, context.Canceled) {
		return err
	}

	if unstopped, reportErr := tree.UnstoppedServiceReport(); reportErr == nil && len(unstopped) > 0 {
		for _, svc := range unstopped {
			logging.Warn().Str("service", svc.Name).Msg("Service did not stop in time")
		}
	}

	logging.Info().Msg("Shutdown complete")
	return nil
}
