// Modelyard - Predictive Model Serving and Lifecycle Management
// Copyright 2026 Modelyard Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/modelyard/modelyard

// Package main is the entry point for the Modelyard server.
//
// Modelyard serves predictive models over HTTP: deploy a trained model with
// its preprocessing chain, run single or batch predictions against it, and
// manage its lifecycle (update, backup, restore, remove) without restarting
// the process.
//
// # Startup Order
//
//  1. Configuration: Koanf v2 layered load (defaults, config.yaml, env)
//  2. Logging: global zerolog logger per the logging config
//  3. Store: filesystem or BadgerDB artifact store
//  4. Core: predictor registry, model cache, stats tracker, backup manager,
//     lifecycle manager (scans the store for deployed models), pipeline
//  5. Supervisor tree: HTTP server plus maintenance loops under suture
//
// # Configuration
//
// Environment variables use the MODELYARD_ prefix and override the config
// file, e.g. MODELYARD_SERVER_PORT=9000 or MODELYARD_CACHE_MAX_SIZE=10.
// MODELYARD_CONFIG points at an explicit config file.
//
// # Signal Handling
//
// SIGINT and SIGTERM trigger graceful shutdown: the HTTP server drains
// in-flight requests within the configured timeout, maintenance loops stop,
// and the store is closed.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/modelyard/modelyard/internal/api"
	"github.com/modelyard/modelyard/internal/backup"
	"github.com/modelyard/modelyard/internal/cache"
	"github.com/modelyard/modelyard/internal/config"
	"github.com/modelyard/modelyard/internal/lifecycle"
	"github.com/modelyard/modelyard/internal/logging"
	"github.com/modelyard/modelyard/internal/pipeline"
	"github.com/modelyard/modelyard/internal/predictor"
	"github.com/modelyard/modelyard/internal/stats"
	"github.com/modelyard/modelyard/internal/store"
	"github.com/modelyard/modelyard/internal/supervisor"
	"github.com/modelyard/modelyard/internal/supervisor/services"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		// Logging is not configured yet; the default logger is fine here.
		logging.Fatal().Err(err).Msg("Failed to load configuration")
	}

	logging.Init(logging.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Caller: cfg.Logging.Caller,
	})

	logging.Info().
		Str("store_backend", cfg.Store.Backend).
		Str("addr", cfg.Server.Addr()).
		Msg("Starting Modelyard")

	st, err := openStore(cfg.Store)
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to open artifact store")
	}
	defer func() {
		if cerr := st.Close(); cerr != nil {
			logging.Error().Err(cerr).Msg("Store close failed")
		}
	}()

	registry := predictor.Default()
	modelCache := cache.New(cfg.Cache.MaxSize, cfg.Cache.TTL)
	tracker := stats.NewTracker(stats.DefaultWindowSize)
	backups := backup.NewManager(st, cfg.Backup.Retain)

	manager, err := lifecycle.New(st, modelCache, backups, registry, tracker)
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to initialize lifecycle manager")
	}
	logging.Info().Int("models", len(manager.ModelIDs())).Msg("Store scan complete")

	pl := pipeline.New(manager, pipeline.Options{
		BreakerThreshold: cfg.Pipeline.BreakerThreshold,
		BreakerCooldown:  cfg.Pipeline.BreakerCooldown,
	})

	handler := api.NewHandler(manager, pl, registry)
	router := api.NewRouter(handler, cfg.Server)

	server := &http.Server{
		Addr:         cfg.Server.Addr(),
		Handler:      router.Routes(),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	treeCfg := supervisor.DefaultTreeConfig()
	treeCfg.ShutdownTimeout = cfg.Server.ShutdownTimeout
	tree := supervisor.NewTree(logging.NewSlogLogger(), treeCfg)

	tree.AddMaintenanceService(services.NewCacheJanitorService(modelCache, cfg.Cache.JanitorInterval))
	tree.AddMaintenanceService(services.NewBackupRetentionService(backups, cfg.Backup.PruneInterval))
	tree.AddAPIService(services.NewHTTPServerService(server, cfg.Server.ShutdownTimeout))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logging.Info().Str("signal", sig.String()).Msg("Received shutdown signal")
		cancel()
	}()

	logging.Info().Msg("Starting supervisor tree")
	errCh := tree.ServeBackground(ctx)

	select {
	case <-ctx.Done():
		logging.Info().Msg("Context canceled, waiting for supervisor to finish")
	case err := <-errCh:
		if err != nil && !errors.Is(err, context.Canceled) {
			logging.Error().Err(err).Msg("Supervisor tree error")
		}
	}

	// Drain the channel; it closes once the supervisor has stopped.
	for err := range errCh {
		if err != nil && !errors.Is(err, context.Canceled) {
			logging.Error().Err(err).Msg("Supervisor shutdown error")
		}
	}

	unstopped, _ := tree.UnstoppedServiceReport()
	for _, svc := range unstopped {
		logging.Warn().Str("service", svc.Name).Msg("Service failed to stop within timeout")
	}

	logging.Info().Msg("Modelyard stopped gracefully")
}

// openStore constructs the configured artifact store backend.
func openStore(cfg config.StoreConfig) (store.Store, error) {
	switch cfg.Backend {
	case "fs":
		return store.NewFSStore(cfg.Dir)
	case "badger":
		return store.NewBadgerStore(cfg.Dir)
	default:
		return nil, fmt.Errorf("unknown store backend %q", cfg.Backend)
	}
}
