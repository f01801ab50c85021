// Sharelist Reborn - Real-Time Multi-Device Task Lists
// Copyright 2026 antipro
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/antipro/Sharelist-Reborn

// Command server runs the Sharelist backend: auth HTTP API, WebSocket
// event channel, and Prometheus metrics, supervised under a suture tree.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/antipro/Sharelist-Reborn/internal/api"
	"github.com/antipro/Sharelist-Reborn/internal/auth"
	"github.com/antipro/Sharelist-Reborn/internal/config"
	"github.com/antipro/Sharelist-Reborn/internal/database"
	"github.com/antipro/Sharelist-Reborn/internal/logging"
	"github.com/antipro/Sharelist-Reborn/internal/realtime"
	"github.com/antipro/Sharelist-Reborn/internal/supervisor"
)

func main() {
	if err := run(); err != nil {
		logging.Fatal().Err(err).Msg("server exited")
	}
}

// store unifies the two backends behind the consumers' interfaces.
type store interface {
	auth.Store
	realtime.Store
	Close() error
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	logging.Init(logging.Config{
		Level:     cfg.Logging.Level,
		Format:    cfg.Logging.Format,
		Caller:    cfg.Logging.Caller,
		Timestamp: true,
	})
	logging.Info().
		Str("driver", cfg.Database.Driver).
		Int("port", cfg.Server.Port).
		Msg("starting sharelist server")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	st, err := openStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer func() {
		if err := st.Close(); err != nil {
			logging.Warn().Err(err).Msg("closing store")
		}
	}()

	jwtManager, err := auth.NewJWTManager(cfg.Security.JWTSecret, cfg.Security.TokenTTL)
	if err != nil {
		return err
	}
	authSvc := auth.NewService(st, jwtManager, cfg.Security.BcryptCost, cfg.Verification.CodeTTL)

	hub := realtime.NewHub()
	dispatch := realtime.NewHandlers(st, hub)

	handler := api.NewHandler(cfg, authSvc, jwtManager, hub, dispatch)
	server := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      handler.NewRouter(),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	treeCfg := supervisor.DefaultTreeConfig()
	treeCfg.ShutdownTimeout = cfg.Server.ShutdownTimeout
	tree := supervisor.NewTree(logging.NewSlogLogger(), treeCfg)
	tree.AddMessagingService(supervisor.NewHubService(hub))
	tree.AddAPIService(supervisor.NewHTTPServerService(server, cfg.Server.ShutdownTimeout))

	err = tree.Serve(ctx)
	if err != nil && !errors.Is(err, context.Canceled) {
		return err
	}

	if report, rerr := tree.UnstoppedServiceReport(); rerr == nil && len(report) > 0 {
		for _, svc := range report {
			logging.Warn().Str("service", fmt.Sprint(svc.Service)).Msg("service did not stop in time")
		}
	}

	logging.Info().Msg("server stopped")
	return nil
}

// openStore selects the persistence backend from configuration.
func openStore(ctx context.Context, cfg *config.Config) (store, error) {
	switch cfg.Database.Driver {
	case "postgres":
		return database.Open(ctx, cfg.Database.DSN)
	case "memory":
		logging.Warn().Msg("using in-memory store, data will not survive restarts")
		return database.NewMemory(), nil
	default:
		return nil, fmt.Errorf("unknown database driver %q", cfg.Database.Driver)
	}
}
