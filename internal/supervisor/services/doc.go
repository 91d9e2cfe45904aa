// Modelyard - Predictive Model Serving and Lifecycle Management
// Copyright 2026 Modelyard Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/modelyard/modelyard

// Package services contains suture.Service wrappers for Modelyard's
// long-running components: the HTTP server, the cache janitor, and the
// backup retention loop.
package services
