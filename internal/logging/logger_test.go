// Modelyard - Predictive Model Serving and Lifecycle Management
// Copyright 2026 Modelyard Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/modelyard/modelyard

package logging

import (
	"bytes"
	"strings"
	"testing"

	"github.com/rs/zerolog"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want zerolog.Level
	}{
		{"trace", zerolog.TraceLevel},
		{"debug", zerolog.DebugLevel},
		{"info", zerolog.InfoLevel},
		{"warn", zerolog.WarnLevel},
		{"warning", zerolog.WarnLevel},
		{"error", zerolog.ErrorLevel},
		{"disabled", zerolog.Disabled},
		{"ERROR", zerolog.ErrorLevel},
		{"bogus", zerolog.InfoLevel},
		{"", zerolog.InfoLevel},
	}
	for _, tt := range tests {
		if got := parseLevel(tt.in); got != tt.want {
			t.Errorf("parseLevel(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestLogOutputContainsFields(t *testing.T) {
	var buf bytes.Buffer
	old := Logger()
	SetLogger(NewTestLogger(&buf))
	defer SetLogger(old)

	Info().Str("model_id", "fraud-v2").Msg("model deployed")

	out := buf.String()
	if !strings.Contains(out, `"model_id":"fraud-v2"`) {
		t.Errorf("Expected model_id field in output, got %s", out)
	}
	if !strings.Contains(out, "model deployed") {
		t.Errorf("Expected message in output, got %s", out)
	}
}

func TestConsoleFormatInit(t *testing.T) {
	var buf bytes.Buffer
	Init(Config{Level: "debug", Format: "console", Output: &buf})
	defer Init(DefaultConfig())

	Debug().Msg("console check")

	if !strings.Contains(buf.String(), "console check") {
		t.Errorf("Expected console output, got %q", buf.String())
	}
}

func TestNewSlogLoggerBridges(t *testing.T) {
	var buf bytes.Buffer
	old := Logger()
	SetLogger(NewTestLogger(&buf))
	defer SetLogger(old)

	NewSlogLogger().Info("supervisor event", "service", "http-server")

	out := buf.String()
	if !strings.Contains(out, "supervisor event") {
		t.Errorf("Expected bridged message, got %s", out)
	}
	if !strings.Contains(out, "http-server") {
		t.Errorf("Expected bridged attribute, got %s", out)
	}
}
