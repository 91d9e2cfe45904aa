// Modelyard - Predictive Model Serving and Lifecycle Management
// Copyright 2026 Modelyard Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/modelyard/modelyard

// Package supervisor provides Suture-based process supervision for
// Modelyard. It builds a small tree with a maintenance layer (cache
// janitor, backup retention) and an API layer (HTTP server), so a
// crashing background loop is restarted without disturbing request
// serving.
package supervisor
