// Partyline - Epic Party Services Client SDK for Go
// Copyright 2026 Partyline Contributors
// SPDX-License-Identifier: MIT
// https://github.com/partyline/partyline

// Package main is the entry point for the partyline daemon.
//
// Partyline is a client for Epic's party services. It keeps a local party
// session alive: it connects to the notification stream, reacts to party
// notifications, and exposes the local member state through the party
// controller. The daemon form is primarily useful for soak testing and as
// a reference wiring of the library packages.
//
// # Startup Order
//
//  1. Configuration: layered load from defaults, config file, and
//     environment variables (Koanf v2)
//  2. Logging: zerolog with configured level and format
//  3. Metrics (optional): Prometheus endpoint on its own listener
//  4. Party service: REST client wrapped in a circuit breaker
//  5. Realtime: websocket notification stream with reconnect
//  6. Controller: patch queues, member state, notification dispatcher
//
// # Configuration
//
// All settings come from PARTYLINE_* environment variables or a
// partyline.yaml config file. The minimum viable configuration:
//
//	export PARTYLINE_EPIC_ACCOUNT_ID=your-account-id
//	export PARTYLINE_EPIC_DISPLAY_NAME=YourName
//	export PARTYLINE_EPIC_TOKEN=your-access-token
//	./partyline
//
// # Signal Handling
//
// The daemon shuts down gracefully on SIGINT and SIGTERM: it leaves the
// current party, drains the patch queues, and closes the stream.
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/partyline/partyline/internal/config"
	"github.com/partyline/partyline/internal/logging"
	"github.com/partyline/partyline/party"
	"github.com/partyline/partyline/realtime"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to load configuration")
	}

	logging.Init(logging.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
	})

	logging.Info().
		Str("account_id", cfg.Epic.AccountID).
		Str("party_service", cfg.Epic.PartyServiceURL).
		Msg("Starting partyline")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var metricsSrv *http.Server
	if cfg.Metrics.Enabled {
		metricsSrv = startMetricsServer(cfg.Metrics.Addr)
	}

	svc := party.NewService(cfg.Epic.PartyServiceURL, party.StaticToken(cfg.Epic.Token), party.ServiceOptions{
		Timeout:   cfg.HTTP.Timeout,
		RateLimit: cfg.HTTP.RateLimit,
		RateBurst: cfg.HTTP.RateBurst,
	})
	api := party.NewBreakerService(svc)

	stream := realtime.NewClient(cfg.Realtime.URL, cfg.Epic.Token, realtime.Options{
		HandshakeTimeout:  cfg.Realtime.HandshakeTimeout,
		KeepaliveInterval: cfg.Realtime.KeepaliveInterval,
		ReconnectMinDelay: cfg.Realtime.ReconnectMinDelay,
		ReconnectMaxDelay: cfg.Realtime.ReconnectMaxDelay,
	})

	ctrl := party.NewController(api, stream, cfg.Epic.AccountID, cfg.Epic.DisplayName)
	stream.SetHandler(ctrl.Dispatcher().HandleRaw)

	if err := stream.Connect(ctx); err != nil {
		logging.Fatal().Err(err).Msg("Failed to connect notification stream")
	}

	p, err := ctrl.CreateParty(ctx, party.PrivacyPublic)
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to create party")
	}
	logging.Info().Str("party_id", p.ID).Msg("Party created")

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigChan
	logging.Info().Str("signal", sig.String()).Msg("Shutting down")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := ctrl.LeaveParty(shutdownCtx); err != nil && !errors.Is(err, party.ErrNotInParty) {
		logging.Err(err).Msg("Failed to leave party during shutdown")
	}
	ctrl.Close()

	if err := stream.Close(); err != nil {
		logging.Err(err).Msg("Failed to close notification stream")
	}

	if metricsSrv != nil {
		if err := metricsSrv.Shutdown(shutdownCtx); err != nil {
			logging.Err(err).Msg("Failed to shut down metrics server")
		}
	}

	logging.Info().Msg("Shutdown complete")
}

func startMetricsServer(addr string) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())

	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		logging.Info().Str("addr", addr).Msg("Metrics server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logging.Err(err).Msg("Metrics server failed")
		}
	}()
	return srv
}
