// Partyline - Epic Party Services Client SDK for Go
// Copyright 2026 Partyline Contributors
// SPDX-License-Identifier: MIT
// https://github.com/partyline/partyline

// Package config loads Partyline configuration with layered sources:
// built-in defaults, an optional YAML file, then environment variables.
// Precedence: ENV > file > defaults.
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

// DefaultConfigPaths lists where config files are searched, in order.
var DefaultConfigPaths = []string{
	"partyline.yaml",
	"partyline.yml",
	"/etc/partyline/config.yaml",
}

// ConfigPathEnvVar overrides the config file path when set.
const ConfigPathEnvVar = "PARTYLINE_CONFIG"

// envPrefix is stripped from environment variables before mapping them to
// config keys: PARTYLINE_EPIC_TOKEN -> epic.token.
const envPrefix = "PARTYLINE_"

// Config is the root configuration for the SDK and the demo binary.
type Config struct {
	Epic     EpicConfig     `koanf:"epic"`
	Realtime RealtimeConfig `koanf:"realtime"`
	HTTP     HTTPConfig     `koanf:"http"`
	Log      LogConfig      `koanf:"log"`
	Metrics  MetricsConfig  `koanf:"metrics"`
}

// EpicConfig identifies the local account and the party service endpoint.
type EpicConfig struct {
	// PartyServiceURL is the base URL of the party REST service.
	PartyServiceURL string `koanf:"party_service_url" validate:"required,url"`

	// AccountID is the local player's Epic account ID.
	AccountID string `koanf:"account_id" validate:"required"`

	// DisplayName is used for the chat-room nickname.
	DisplayName string `koanf:"display_name" validate:"required"`

	// Token is the bearer token for the party service. Obtaining and
	// refreshing it is the host application's responsibility.
	Token string `koanf:"token" validate:"required"`
}

// RealtimeConfig controls the notification-stream connection.
type RealtimeConfig struct {
	URL               string        `koanf:"url" validate:"required,url"`
	HandshakeTimeout  time.Duration `koanf:"handshake_timeout" validate:"gt=0"`
	KeepaliveInterval time.Duration `koanf:"keepalive_interval" validate:"gt=0"`
	ReconnectMinDelay time.Duration `koanf:"reconnect_min_delay" validate:"gt=0"`
	ReconnectMaxDelay time.Duration `koanf:"reconnect_max_delay" validate:"gtefield=ReconnectMinDelay"`
}

// HTTPConfig controls the REST client.
type HTTPConfig struct {
	Timeout time.Duration `koanf:"timeout" validate:"gt=0"`

	// RateLimit is the sustained requests-per-second budget against the
	// party service; RateBurst is the burst allowance.
	RateLimit float64 `koanf:"rate_limit" validate:"gt=0"`
	RateBurst int     `koanf:"rate_burst" validate:"gte=1"`
}

// LogConfig mirrors logging.Config.
type LogConfig struct {
	Level  string `koanf:"level" validate:"oneof=trace debug info warn error disabled"`
	Format string `koanf:"format" validate:"oneof=json console"`
}

// MetricsConfig controls the optional Prometheus exposition endpoint.
type MetricsConfig struct {
	Enabled bool   `koanf:"enabled"`
	Addr    string `koanf:"addr"`
}

// defaultConfig returns a Config with sensible defaults. Credentials have no
// defaults and must come from file or environment.
func defaultConfig() *Config {
	return &Config{
		Epic: EpicConfig{
			PartyServiceURL: "https://party-service-prod.ol.epicgames.com",
		},
		Realtime: RealtimeConfig{
			URL:               "wss://xmpp-service-prod.ol.epicgames.com",
			HandshakeTimeout:  10 * time.Second,
			KeepaliveInterval: 30 * time.Second,
			ReconnectMinDelay: 1 * time.Second,
			ReconnectMaxDelay: 32 * time.Second,
		},
		HTTP: HTTPConfig{
			Timeout:   30 * time.Second,
			RateLimit: 10,
			RateBurst: 20,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "json",
		},
		Metrics: MetricsConfig{
			Enabled: false,
			Addr:    ":9190",
		},
	}
}

// Load builds the configuration from defaults, an optional YAML file and
// PARTYLINE_* environment variables, then validates it.
func Load() (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(structs.Provider(defaultConfig(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	if path := findConfigFile(); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", path, err)
		}
	}

	if err := k.Load(env.Provider(envPrefix, ".", envTransform), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// Validate checks the configuration against its struct tags.
func (c *Config) Validate() error {
	return validator.New().Struct(c)
}

// findConfigFile returns the first existing config file path, or "".
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

// envTransform maps PARTYLINE_EPIC_ACCOUNT_ID to epic.account_id.
// The first underscore separates the section; the rest is the key.
func envTransform(key string) string {
	key = strings.ToLower(strings.TrimPrefix(key, envPrefix))
	parts := strings.SplitN(key, "_", 2)
	if len(parts) != 2 {
		return key
	}
	return parts[0] + "." + parts[1]
}
