// Modelyard - Predictive Model Serving and Lifecycle Management
// Copyright 2026 Modelyard Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/modelyard/modelyard

// Package api provides the HTTP front-end over the serving core. It
// translates wire requests into core operations and error kinds into status
// codes; it holds no serving logic of its own.
package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/modelyard/modelyard/internal/config"
)

// Router assembles the HTTP routes.
type Router struct {
	handler *Handler
	cfg     config.ServerConfig
}

// NewRouter creates a router serving the given handler.
func NewRouter(handler *Handler, cfg config.ServerConfig) *Router {
	return &Router{handler: handler, cfg: cfg}
}

// Routes builds the chi handler tree.
func (rt *Router) Routes() http.Handler {
	r := chi.NewRouter()

	// Global middleware, applied in order.
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(requestLogger)
	r.Use(recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: rt.cfg.CORSOrigins,
		AllowedMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		MaxAge:         300,
	}))

	r.Get("/api/v1/health", rt.handler.Health)
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		if rt.cfg.RateLimit > 0 {
			r.Use(httprate.LimitByIP(rt.cfg.RateLimit, time.Minute))
		}
		r.Use(prometheusMetrics)

		r.Get("/dashboard", rt.handler.Dashboard)
		r.Get("/cache/stats", rt.handler.CacheStats)

		r.Route("/models", func(r chi.Router) {
			r.Get("/", rt.handler.ListModels)
			r.Post("/", rt.handler.Deploy)

			r.Route("/{modelID}", func(r chi.Router) {
				r.Put("/", rt.handler.Update)
				r.Delete("/", rt.handler.Remove)
				r.Post("/predict", rt.handler.Predict)
				r.Post("/batch-predict", rt.handler.BatchPredict)
				r.Get("/performance", rt.handler.Performance)
				r.Get("/backups", rt.handler.ListBackups)
				r.Post("/restore", rt.handler.Restore)
			})
		})
	})

	return r
}
