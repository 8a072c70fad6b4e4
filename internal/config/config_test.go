// Partyline - Epic Party Services Client SDK for Go
// Copyright 2026 Partyline Contributors
// SPDX-License-Identifier: MIT
// https://github.com/partyline/partyline

package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

// setRequiredEnv sets the credential fields that have no defaults.
func setRequiredEnv(t *testing.T) {
	t.Helper()
	t.Setenv("PARTYLINE_EPIC_ACCOUNT_ID", "11112222333344445555666677778888")
	t.Setenv("PARTYLINE_EPIC_DISPLAY_NAME", "TestPlayer")
	t.Setenv("PARTYLINE_EPIC_TOKEN", "eg1~test-token")
}

func TestLoadDefaults(t *testing.T) {
	setRequiredEnv(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}

	if cfg.Epic.PartyServiceURL != "https://party-service-prod.ol.epicgames.com" {
		t.Errorf("unexpected default party service URL: %q", cfg.Epic.PartyServiceURL)
	}
	if cfg.HTTP.Timeout != 30*time.Second {
		t.Errorf("unexpected default HTTP timeout: %v", cfg.HTTP.Timeout)
	}
	if cfg.Realtime.ReconnectMaxDelay != 32*time.Second {
		t.Errorf("unexpected default reconnect max delay: %v", cfg.Realtime.ReconnectMaxDelay)
	}
	if cfg.Log.Level != "info" || cfg.Log.Format != "json" {
		t.Errorf("unexpected default log config: %+v", cfg.Log)
	}
}

func TestLoadEnvOverride(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("PARTYLINE_LOG_LEVEL", "debug")
	t.Setenv("PARTYLINE_HTTP_RATE_LIMIT", "2.5")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}

	if cfg.Log.Level != "debug" {
		t.Errorf("env override not applied, log level = %q", cfg.Log.Level)
	}
	if cfg.HTTP.RateLimit != 2.5 {
		t.Errorf("env override not applied, rate limit = %v", cfg.HTTP.RateLimit)
	}
}

func TestLoadConfigFile(t *testing.T) {
	setRequiredEnv(t)

	dir := t.TempDir()
	path := filepath.Join(dir, "partyline.yaml")
	contents := []byte("log:\n  level: warn\nhttp:\n  timeout: 5s\n")
	if err := os.WriteFile(path, contents, 0o600); err != nil {
		t.Fatalf("failed to write config file: %v", err)
	}
	t.Setenv(ConfigPathEnvVar, path)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}

	if cfg.Log.Level != "warn" {
		t.Errorf("file override not applied, log level = %q", cfg.Log.Level)
	}
	if cfg.HTTP.Timeout != 5*time.Second {
		t.Errorf("file override not applied, timeout = %v", cfg.HTTP.Timeout)
	}
}

func TestLoadMissingCredentials(t *testing.T) {
	// Only the account ID set; token and display name missing.
	t.Setenv("PARTYLINE_EPIC_ACCOUNT_ID", "11112222333344445555666677778888")

	if _, err := Load(); err == nil {
		t.Fatal("expected validation error with missing credentials, got nil")
	}
}

func TestValidateRejectsBadLevel(t *testing.T) {
	cfg := defaultConfig()
	cfg.Epic.AccountID = "a"
	cfg.Epic.DisplayName = "b"
	cfg.Epic.Token = "c"
	cfg.Log.Level = "loud"

	if err := cfg.Validate(); err == nil {
		t.Fatal("expected validation error for bad log level, got nil")
	}
}

func TestEnvTransform(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"PARTYLINE_EPIC_ACCOUNT_ID", "epic.account_id"},
		{"PARTYLINE_LOG_LEVEL", "log.level"},
		{"PARTYLINE_REALTIME_RECONNECT_MAX_DELAY", "realtime.reconnect_max_delay"},
		{"PARTYLINE_METRICS", "metrics"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			if got := envTransform(tt.input); got != tt.want {
				t.Errorf("envTransform(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}
