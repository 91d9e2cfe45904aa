// Modelyard - Predictive Model Serving and Lifecycle Management
// Copyright 2026 Modelyard Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/modelyard/modelyard

// Package config loads Modelyard configuration with layered sources:
// built-in defaults, then an optional YAML file, then environment variables
// (highest priority, MODELYARD_ prefix: MODELYARD_CACHE_MAX_SIZE ->
// cache.max_size).
package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

// DefaultConfigPaths lists where config files are searched, first hit wins.
var DefaultConfigPaths = []string{
	"config.yaml",
	"config.yml",
	"/etc/modelyard/config.yaml",
	"/etc/modelyard/config.yml",
}

// ConfigPathEnvVar overrides the config file path.
const ConfigPathEnvVar = "MODELYARD_CONFIG"

// envPrefix namespaces Modelyard's environment variables.
const envPrefix = "MODELYARD_"

// Config is the root configuration.
type Config struct {
	Server   ServerConfig   `koanf:"server"`
	Store    StoreConfig    `koanf:"store"`
	Cache    CacheConfig    `koanf:"cache"`
	Backup   BackupConfig   `koanf:"backup"`
	Pipeline PipelineConfig `koanf:"pipeline"`
	Logging  LoggingConfig  `koanf:"logging"`
}

// ServerConfig configures the HTTP front-end.
type ServerConfig struct {
	Host            string        `koanf:"host"`
	Port            int           `koanf:"port" validate:"min=1,max=65535"`
	ReadTimeout     time.Duration `koanf:"read_timeout"`
	WriteTimeout    time.Duration `koanf:"write_timeout"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout"`

	// RateLimit is the per-client request budget per minute; 0 disables.
	RateLimit int `koanf:"rate_limit" validate:"min=0"`

	CORSOrigins []string `koanf:"cors_origins"`
}

// Addr returns the listen address.
func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// StoreConfig selects and configures the artifact store backend.
type StoreConfig struct {
	// Backend is "fs" (one file per artifact) or "badger" (embedded KV).
	Backend string `koanf:"backend" validate:"oneof=fs badger"`
	Dir     string `koanf:"dir" validate:"required"`
}

// CacheConfig bounds the model cache.
type CacheConfig struct {
	MaxSize int           `koanf:"max_size" validate:"min=1"`
	TTL     time.Duration `koanf:"ttl" validate:"min=1s"`

	// JanitorInterval is how often expired entries are swept; 0 disables
	// the sweep (expiry still happens lazily on Get).
	JanitorInterval time.Duration `koanf:"janitor_interval"`
}

// BackupConfig controls snapshot retention.
type BackupConfig struct {
	// Retain is the snapshot count kept per model; 0 keeps all.
	Retain int `koanf:"retain" validate:"min=0"`

	// PruneInterval is how often retention is applied across all models;
	// 0 disables the periodic prune.
	PruneInterval time.Duration `koanf:"prune_interval"`
}

// PipelineConfig tunes the prediction pipeline.
type PipelineConfig struct {
	BreakerThreshold uint32        `koanf:"breaker_threshold" validate:"min=1"`
	BreakerCooldown  time.Duration `koanf:"breaker_cooldown" validate:"min=1s"`
}

// LoggingConfig configures the global logger.
type LoggingConfig struct {
	Level  string `koanf:"level" validate:"oneof=trace debug info warn error"`
	Format string `koanf:"format" validate:"oneof=json console"`
	Caller bool   `koanf:"caller"`
}

// defaultConfig returns the built-in defaults, overridden by file and env.
func defaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Host:            "0.0.0.0",
			Port:            8310,
			ReadTimeout:     15 * time.Second,
			WriteTimeout:    30 * time.Second,
			ShutdownTimeout: 10 * time.Second,
			RateLimit:       600,
			CORSOrigins:     []string{"*"},
		},
		Store: StoreConfig{
			Backend: "fs",
			Dir:     "/data/models",
		},
		Cache: CacheConfig{
			MaxSize:         5,
			TTL:             time.Hour,
			JanitorInterval: 5 * time.Minute,
		},
		Backup: BackupConfig{
			Retain:        10,
			PruneInterval: time.Hour,
		},
		Pipeline: PipelineConfig{
			BreakerThreshold: 5,
			BreakerCooldown:  30 * time.Second,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
	}
}

// Load builds the configuration from defaults, optional YAML file, and
// environment variables, then validates it.
func Load() (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(structs.Provider(defaultConfig(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("load defaults: %w", err)
	}

	if path := findConfigFile(); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("load config file %s: %w", path, err)
		}
	}

	if err := k.Load(env.Provider(envPrefix, ".", envTransform), nil); err != nil {
		return nil, fmt.Errorf("load environment: %w", err)
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("unmarshal configuration: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// envTransform maps MODELYARD_SECTION_SOME_KEY to section.some_key. The
// first underscore separates the section; later underscores stay in the key.
func envTransform(s string) string {
	s = strings.ToLower(strings.TrimPrefix(s, envPrefix))
	if i := strings.Index(s, "_"); i > 0 {
		return s[:i] + "." + s[i+1:]
	}
	return s
}

func findConfigFile() string {
	if envPath := os.Getenv(ConfigPathEnvVar); envPath != "" {
		if _, err := os.Stat(envPath); err == nil {
			return envPath
		}
	}
	for _, path := range DefaultConfigPaths {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return ""
}

// Validate checks the configuration against its struct tags.
func (c *Config) Validate() error {
	validate := validator.New()
	if err := validate.Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if ok := isValidationErrors(err, &verrs); ok {
			fields := make([]string, 0, len(verrs))
			for _, fe := range verrs {
				fields = append(fields, fmt.Sprintf("%s (%s)", fe.Namespace(), fe.Tag()))
			}
			return fmt.Errorf("invalid configuration: %s", strings.Join(fields, ", "))
		}
		return fmt.Errorf("invalid configuration: %w", err)
	}
	return nil
}

func isValidationErrors(err error, target *validator.ValidationErrors) bool {
	verrs, ok := err.(validator.ValidationErrors) //nolint:errorlint // validator returns this concrete type
	if ok {
		*target = verrs
	}
	return ok
}
