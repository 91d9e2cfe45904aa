// Modelyard - Predictive Model Serving and Lifecycle Management
// Copyright 2026 Modelyard Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/modelyard/modelyard

// Package validation wraps go-playground/validator v10 with a thread-safe
// singleton instance, a custom model_id validator, and human-readable error
// messages for API responses.
//
//	type deployRequest struct {
//	    ModelID string `validate:"required,model_id"`
//	}
//
//	if verr := validation.ValidateStruct(&req); verr != nil {
//	    // respond 400 with verr.Error()
//	}
package validation
