// Modelyard - Predictive Model Serving and Lifecycle Management
// Copyright 2026 Modelyard Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/modelyard/modelyard

package api

import (
	"bytes"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/goccy/go-json"

	"github.com/modelyard/modelyard/internal/backup"
	"github.com/modelyard/modelyard/internal/cache"
	"github.com/modelyard/modelyard/internal/config"
	"github.com/modelyard/modelyard/internal/lifecycle"
	"github.com/modelyard/modelyard/internal/pipeline"
	"github.com/modelyard/modelyard/internal/predictor"
	"github.com/modelyard/modelyard/internal/stats"
	"github.com/modelyard/modelyard/internal/store"
)

// newTestServer wires the full stack over an in-memory store.
func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()

	st := store.NewMemStore()
	registry := predictor.Default()
	manager, err := lifecycle.New(st, cache.New(5, time.Hour), backup.NewManager(st, 0), registry, stats.NewTracker(100))
	if err != nil {
		t.Fatalf("lifecycle.New failed: %v", err)
	}
	pl := pipeline.New(manager, pipeline.Options{})

	cfg := config.ServerConfig{CORSOrigins: []string{"*"}}
	router := NewRouter(NewHandler(manager, pl, registry), cfg)

	srv := httptest.NewServer(router.Routes())
	t.Cleanup(srv.Close)
	return srv
}

func postJSON(t *testing.T, url string, body any) *http.Response {
	t.Helper()
	data, err := json.Marshal(body)
	if err != nil {
		t.Fatal(err)
	}
	resp, err := http.Post(url, "application/json", bytes.NewReader(data))
	if err != nil {
		t.Fatal(err)
	}
	return resp
}

func decodeBody(t *testing.T, resp *http.Response, v any) {
	t.Helper()
	defer resp.Body.Close()
	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		t.Fatalf("decode response: %v", err)
	}
}

// deployBody is a ready-to-post deploy request for a linear model.
func deployBody(modelID string) map[string]any {
	return map[string]any{
		"model_id": modelID,
		"model": map[string]any{
			"type":   "linear_regression",
			"params": map[string]any{"intercept": 1.0, "coefficients": []float64{2.0, 3.0}},
		},
		"metadata": map[string]any{
			"model_type":    "linear_regression",
			"problem_type":  "regression",
			"feature_names": []string{"age", "income"},
			"target_column": "spend",
		},
	}
}

func deployModel(t *testing.T, srv *httptest.Server, modelID string) {
	t.Helper()
	resp := postJSON(t, srv.URL+"/api/v1/models", deployBody(modelID))
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("Deploy returned %d", resp.StatusCode)
	}
}

func TestHealthEndpoint(t *testing.T) {
	srv := newTestServer(t)

	resp, err := http.Get(srv.URL + "/api/v1/health")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("Expected 200, got %d", resp.StatusCode)
	}
}

func TestDeployAndPredict(t *testing.T) {
	srv := newTestServer(t)
	deployModel(t, srv, "spend")

	resp := postJSON(t, srv.URL+"/api/v1/models/spend/predict", map[string]any{
		"features": map[string]float64{"age": 2, "income": 3},
	})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("Predict returned %d", resp.StatusCode)
	}

	var result struct {
		ModelID    string  `json:"model_id"`
		Prediction float64 `json:"prediction"`
	}
	decodeBody(t, resp, &result)
	if result.Prediction != 14 {
		t.Errorf("Expected prediction 14, got %f", result.Prediction)
	}
	if result.ModelID != "spend" {
		t.Errorf("Expected model id spend, got %q", result.ModelID)
	}
}

func TestDeployDuplicateReturns409(t *testing.T) {
	srv := newTestServer(t)
	deployModel(t, srv, "spend")

	resp := postJSON(t, srv.URL+"/api/v1/models", deployBody("spend"))
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusConflict {
		t.Errorf("Expected 409 for duplicate deploy, got %d", resp.StatusCode)
	}

	var body struct {
		Kind string `json:"kind"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatal(err)
	}
	if body.Kind != "duplicate_model" {
		t.Errorf("Expected kind duplicate_model, got %q", body.Kind)
	}
}

func TestDeployRejectsBadRequests(t *testing.T) {
	srv := newTestServer(t)

	tests := []struct {
		name   string
		mutate func(map[string]any)
	}{
		{"missing model id", func(b map[string]any) { delete(b, "model_id") }},
		{"invalid model id", func(b map[string]any) { b["model_id"] = "../escape" }},
		{"missing model", func(b map[string]any) { delete(b, "model") }},
		{"missing metadata", func(b map[string]any) { delete(b, "metadata") }},
		{"unknown model type", func(b map[string]any) {
			b["model"] = map[string]any{"type": "quantum_forest", "params": map[string]any{}}
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			body := deployBody("spend")
			tt.mutate(body)
			resp := postJSON(t, srv.URL+"/api/v1/models", body)
			defer resp.Body.Close()
			if resp.StatusCode != http.StatusBadRequest {
				t.Errorf("Expected 400, got %d", resp.StatusCode)
			}
		})
	}
}

func TestPredictUnknownModelReturns404(t *testing.T) {
	srv := newTestServer(t)

	resp := postJSON(t, srv.URL+"/api/v1/models/ghost/predict", map[string]any{
		"features": map[string]float64{"x": 1},
	})
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("Expected 404, got %d", resp.StatusCode)
	}
}

func TestPredictMissingFeatureReturns422(t *testing.T) {
	srv := newTestServer(t)
	deployModel(t, srv, "spend")

	resp := postJSON(t, srv.URL+"/api/v1/models/spend/predict", map[string]any{
		"features": map[string]float64{"age": 1},
	})
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusUnprocessableEntity {
		t.Errorf("Expected 422, got %d", resp.StatusCode)
	}

	var body struct {
		Kind  string `json:"kind"`
		Error string `json:"error"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatal(err)
	}
	if body.Kind != "validation" {
		t.Errorf("Expected kind validation, got %q", body.Kind)
	}
}

func TestBatchPredictEndpoint(t *testing.T) {
	srv := newTestServer(t)
	deployModel(t, srv, "spend")

	resp := postJSON(t, srv.URL+"/api/v1/models/spend/batch-predict", map[string]any{
		"items": []map[string]float64{
			{"age": 1, "income": 1},
			{"age": 2}, // missing income
			{"age": 3, "income": 3},
		},
	})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("BatchPredict returned %d", resp.StatusCode)
	}

	var result struct {
		Successful int `json:"successful"`
		Failed     int `json:"failed"`
		Items      []struct {
			Index int    `json:"index"`
			Error string `json:"error"`
		} `json:"items"`
	}
	decodeBody(t, resp, &result)
	if result.Successful != 2 || result.Failed != 1 {
		t.Errorf("Expected 2/1, got %d/%d", result.Successful, result.Failed)
	}
	if len(result.Items) != 3 {
		t.Fatalf("Expected 3 items, got %d", len(result.Items))
	}
	if result.Items[1].Error == "" {
		t.Error("Expected error message on failed item")
	}
}

func TestUpdateRemoveRestoreFlow(t *testing.T) {
	srv := newTestServer(t)
	deployModel(t, srv, "spend")

	// Update the predictor; this snapshots the original.
	req, err := http.NewRequest(http.MethodPut, srv.URL+"/api/v1/models/spend", bytes.NewReader(mustJSON(t, map[string]any{
		"model": map[string]any{
			"type":   "linear_regression",
			"params": map[string]any{"intercept": 9.0, "coefficients": []float64{1.0, 1.0}},
		},
	})))
	if err != nil {
		t.Fatal(err)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("Update returned %d", resp.StatusCode)
	}

	// The snapshot is listed.
	resp, err = http.Get(srv.URL + "/api/v1/models/spend/backups")
	if err != nil {
		t.Fatal(err)
	}
	var backups struct {
		Backups []string `json:"backups"`
	}
	decodeBody(t, resp, &backups)
	if len(backups.Backups) != 1 {
		t.Fatalf("Expected 1 backup, got %v", backups.Backups)
	}

	// Remove without a second backup.
	req, err = http.NewRequest(http.MethodDelete, srv.URL+"/api/v1/models/spend?backup=false", nil)
	if err != nil {
		t.Fatal(err)
	}
	resp, err = http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("Remove returned %d", resp.StatusCode)
	}

	// Restore the pre-update generation.
	resp = postJSON(t, srv.URL+"/api/v1/models/spend/restore", map[string]any{
		"timestamp": backups.Backups[0],
	})
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("Restore returned %d", resp.StatusCode)
	}

	// The restored model predicts with the original coefficients.
	resp = postJSON(t, srv.URL+"/api/v1/models/spend/predict", map[string]any{
		"features": map[string]float64{"age": 2, "income": 3},
	})
	var result struct {
		Prediction float64 `json:"prediction"`
	}
	decodeBody(t, resp, &result)
	if result.Prediction != 14 {
		t.Errorf("Expected restored prediction 14, got %f", result.Prediction)
	}
}

func TestPerformanceEndpoint(t *testing.T) {
	srv := newTestServer(t)
	deployModel(t, srv, "spend")

	postJSON(t, srv.URL+"/api/v1/models/spend/predict", map[string]any{
		"features": map[string]float64{"age": 1, "income": 1},
	}).Body.Close()

	resp, err := http.Get(srv.URL + "/api/v1/models/spend/performance")
	if err != nil {
		t.Fatal(err)
	}
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("Performance returned %d", resp.StatusCode)
	}

	var report struct {
		Metadata struct {
			ModelID    string `json:"model_id"`
			UsageCount int64  `json:"usage_count"`
		} `json:"metadata"`
		Stats struct {
			TotalPredictions int64 `json:"total_predictions"`
		} `json:"stats"`
	}
	decodeBody(t, resp, &report)
	if report.Metadata.ModelID != "spend" {
		t.Errorf("Unexpected metadata: %+v", report.Metadata)
	}
	if report.Stats.TotalPredictions != 1 || report.Metadata.UsageCount != 1 {
		t.Errorf("Expected 1 recorded prediction, got stats=%d usage=%d",
			report.Stats.TotalPredictions, report.Metadata.UsageCount)
	}
}

func TestDashboardAndCacheStats(t *testing.T) {
	srv := newTestServer(t)
	deployModel(t, srv, "spend")

	resp, err := http.Get(srv.URL + "/api/v1/dashboard")
	if err != nil {
		t.Fatal(err)
	}
	var dashboard struct {
		TotalModels int `json:"total_models"`
	}
	decodeBody(t, resp, &dashboard)
	if dashboard.TotalModels != 1 {
		t.Errorf("Expected 1 model on dashboard, got %d", dashboard.TotalModels)
	}

	resp, err = http.Get(srv.URL + "/api/v1/cache/stats")
	if err != nil {
		t.Fatal(err)
	}
	var cacheStats struct {
		Stats struct {
			Size int `json:"size"`
		} `json:"stats"`
	}
	decodeBody(t, resp, &cacheStats)
	if cacheStats.Stats.Size != 1 {
		t.Errorf("Expected 1 resident model, got %d", cacheStats.Stats.Size)
	}
}

func TestListModels(t *testing.T) {
	srv := newTestServer(t)
	for i := 0; i < 3; i++ {
		deployModel(t, srv, fmt.Sprintf("model-%d", i))
	}

	resp, err := http.Get(srv.URL + "/api/v1/models")
	if err != nil {
		t.Fatal(err)
	}
	var list struct {
		ModelIDs []string `json:"model_ids"`
	}
	decodeBody(t, resp, &list)
	if len(list.ModelIDs) != 3 {
		t.Errorf("Expected 3 model ids, got %v", list.ModelIDs)
	}
}

func TestMalformedJSONReturns400(t *testing.T) {
	srv := newTestServer(t)

	resp, err := http.Post(srv.URL+"/api/v1/models", "application/json", bytes.NewReader([]byte("{not json")))
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("Expected 400 for malformed JSON, got %d", resp.StatusCode)
	}
}

func mustJSON(t *testing.T, v any) []byte {
	t.Helper()
	data, err := json.Marshal(v)
	if err != nil {
		t.Fatal(err)
	}
	return data
}
