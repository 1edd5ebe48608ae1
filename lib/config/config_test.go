// Copyright 2026 The Maitred Authors
// SPDX-License-Identifier: Apache-2.0

package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("writing %s: %v", name, err)
	}
	return path
}

const validYAML = `
relays:
  - https://relay-a.example.com
  - https://relay-b.example.com
keystore_path: /var/lib/maitred/seed.age
publish_timeout: 5s
poll_interval: 30s
policy:
  enabled: true
  check_business_hours: true
  check_conflicts: true
  min_party_size: 1
  max_party_size: 8
  default_duration_minutes: 90
  max_simultaneous_reservations: 2
  conflict_buffer_minutes: 15
`

func TestLoadFile(t *testing.T) {
	path := writeFile(t, t.TempDir(), "maitred.yaml", validYAML)

	cfg, err := LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile: %v", err)
	}
	if len(cfg.Relays) != 2 {
		t.Errorf("relays = %v", cfg.Relays)
	}
	if cfg.PublishTimeout != 5*time.Second {
		t.Errorf("publish_timeout = %v", cfg.PublishTimeout)
	}
	// Unset fields keep their defaults.
	if cfg.ProfileCacheTTL != 5*time.Minute {
		t.Errorf("profile_cache_ttl = %v, want default", cfg.ProfileCacheTTL)
	}
	if cfg.Policy == nil || !cfg.Policy.Enabled || cfg.Policy.MaxPartySize != 8 {
		t.Errorf("policy = %+v", cfg.Policy)
	}
}

func TestLoadFilePolicyPath(t *testing.T) {
	dir := t.TempDir()
	policyPath := writeFile(t, dir, "policy.jsonc", `{
  // business policy, edited by the dashboard
  "enabled": true,
  "checkBusinessHours": false,
  "checkConflicts": true,
  "minPartySize": 2,
  "maxPartySize": 10,
  "defaultDurationMinutes": 120,
  "maxSimultaneousReservations": 3,
  "conflictBufferMinutes": 10, /* trailing comma below */
}`)
	configPath := writeFile(t, dir, "maitred.yaml", `
relays: ["https://relay-a.example.com"]
keystore_path: /var/lib/maitred/seed.age
policy_path: `+policyPath+"\n")

	cfg, err := LoadFile(configPath)
	if err != nil {
		t.Fatalf("LoadFile: %v", err)
	}
	if cfg.Policy == nil {
		t.Fatal("policy file was not loaded")
	}
	if cfg.Policy.MaxPartySize != 10 || cfg.Policy.DefaultDurationMinutes != 120 {
		t.Errorf("policy = %+v", cfg.Policy)
	}
}

func TestLoadFileRejectsBothPolicySources(t *testing.T) {
	dir := t.TempDir()
	policyPath := writeFile(t, dir, "policy.jsonc", `{"enabled": true}`)
	configPath := writeFile(t, dir, "maitred.yaml",
		validYAML+"policy_path: "+policyPath+"\n")

	if _, err := LoadFile(configPath); err == nil {
		t.Fatal("LoadFile accepted both an inline policy and a policy_path")
	}
}

func TestValidateErrors(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		want   string
	}{
		{"no relays", func(c *Config) { c.Relays = nil }, "relays is required"},
		{"bad relay scheme", func(c *Config) { c.Relays = []string{"ftp://relay.example.com"} }, "scheme"},
		{"no keystore", func(c *Config) { c.KeystorePath = "" }, "keystore_path"},
		{"zero poll interval", func(c *Config) { c.PollInterval = 0 }, "poll_interval"},
		{"no policy", func(c *Config) { c.Policy = nil }, "policy is required"},
		{"inverted party bounds", func(c *Config) { c.Policy.MaxPartySize = 0 }, "max_party_size"},
		{
			"conflicts without capacity",
			func(c *Config) { c.Policy.MaxSimultaneousReservations = 0 },
			"max_simultaneous_reservations",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeFile(t, t.TempDir(), "maitred.yaml", validYAML)
			cfg, err := LoadFile(path)
			if err != nil {
				t.Fatalf("LoadFile: %v", err)
			}
			tt.mutate(cfg)
			err = cfg.Validate()
			if err == nil {
				t.Fatal("Validate passed")
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Errorf("error %q does not mention %q", err, tt.want)
			}
		})
	}
}

func TestLoadRequiresEnvironmentVariable(t *testing.T) {
	t.Setenv("MAITRED_CONFIG", "")
	if _, err := Load(); err == nil {
		t.Fatal("Load succeeded without MAITRED_CONFIG")
	}

	path := writeFile(t, t.TempDir(), "maitred.yaml", validYAML)
	t.Setenv("MAITRED_CONFIG", path)
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(cfg.Relays) != 2 {
		t.Errorf("relays = %v", cfg.Relays)
	}
}

func TestExpandVariables(t *testing.T) {
	home, err := os.UserHomeDir()
	if err != nil {
		t.Skip("no home directory")
	}
	path := writeFile(t, t.TempDir(), "maitred.yaml", strings.Replace(validYAML,
		"/var/lib/maitred/seed.age", "${HOME}/.maitred/seed.age", 1))

	cfg, err := LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile: %v", err)
	}
	if cfg.KeystorePath != filepath.Join(home, ".maitred/seed.age") {
		t.Errorf("keystore_path = %q", cfg.KeystorePath)
	}
}
