// Copyright 2026 The Maitred Authors
// SPDX-License-Identifier: Apache-2.0

package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/tidwall/jsonc"
	"gopkg.in/yaml.v3"

	"github.com/maitred-foundation/maitred/reservation"
)

// Config is the master configuration for a Maitred agent.
type Config struct {
	// Relays are the relay endpoints the agent publishes to and
	// polls. At least one is required.
	Relays []string `yaml:"relays"`

	// KeystorePath is the age-encrypted identity seed file.
	KeystorePath string `yaml:"keystore_path"`

	// PublishTimeout bounds each per-relay publish attempt.
	PublishTimeout time.Duration `yaml:"publish_timeout"`

	// PollInterval is how often the agent polls relays for new gift
	// wraps.
	PollInterval time.Duration `yaml:"poll_interval"`

	// ProfileCacheTTL is how long fetched business profiles stay
	// fresh.
	ProfileCacheTTL time.Duration `yaml:"profile_cache_ttl"`

	// TrackingEndpoint is the booking-tracking service base URL.
	// Empty disables tracking.
	TrackingEndpoint string `yaml:"tracking_endpoint"`

	// Policy is the inline auto-accept policy. Mutually exclusive
	// with PolicyPath.
	Policy *reservation.Policy `yaml:"policy,omitempty"`

	// PolicyPath points at a JSONC policy file loaded in place of an
	// inline policy.
	PolicyPath string `yaml:"policy_path,omitempty"`
}

// Default returns the configuration defaults applied before the file
// is merged in.
func Default() *Config {
	return &Config{
		PublishTimeout:  10 * time.Second,
		PollInterval:    15 * time.Second,
		ProfileCacheTTL: 5 * time.Minute,
	}
}

// Load loads configuration from the MAITRED_CONFIG environment
// variable.
//
// This is the only way to load configuration without an explicit
// path. If MAITRED_CONFIG is not set, this fails; there are no
// fallback locations.
func Load() (*Config, error) {
	configPath := os.Getenv("MAITRED_CONFIG")
	if configPath == "" {
		return nil, fmt.Errorf("MAITRED_CONFIG environment variable not set; " +
			"set it to the path of your maitred.yaml config file, or use --config flag")
	}
	return LoadFile(configPath)
}

// LoadFile loads configuration from a specific file path, resolves
// the policy file if one is referenced, and validates the result.
func LoadFile(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}

	cfg.expandVariables()

	if cfg.PolicyPath != "" {
		if cfg.Policy != nil {
			return nil, fmt.Errorf("config sets both policy and policy_path; pick one")
		}
		policy, err := LoadPolicyFile(cfg.PolicyPath)
		if err != nil {
			return nil, err
		}
		cfg.Policy = policy
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadPolicyFile reads an auto-accept policy from a JSONC file: the
// JSON policy object extended with // line comments, /* block
// comments */, and trailing commas.
func LoadPolicyFile(path string) (*reservation.Policy, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	stripped := jsonc.ToJSON(data)

	var policy reservation.Policy
	if err := json.Unmarshal(stripped, &policy); err != nil {
		return nil, fmt.Errorf("parsing policy %s: %w", path, err)
	}
	return &policy, nil
}

// expandVariables expands ${HOME} in path fields for portability.
func (c *Config) expandVariables() {
	home, err := os.UserHomeDir()
	if err != nil {
		return
	}
	expand := func(s string) string {
		return strings.ReplaceAll(s, "${HOME}", home)
	}
	c.KeystorePath = expand(c.KeystorePath)
	c.PolicyPath = expand(c.PolicyPath)
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	var errs []error

	if len(c.Relays) == 0 {
		errs = append(errs, fmt.Errorf("relays is required: name at least one relay endpoint"))
	}
	for _, endpoint := range c.Relays {
		if err := validateEndpoint(endpoint); err != nil {
			errs = append(errs, fmt.Errorf("relay %q: %w", endpoint, err))
		}
	}

	if c.KeystorePath == "" {
		errs = append(errs, fmt.Errorf("keystore_path is required"))
	}
	if c.PublishTimeout <= 0 {
		errs = append(errs, fmt.Errorf("publish_timeout must be positive"))
	}
	if c.PollInterval <= 0 {
		errs = append(errs, fmt.Errorf("poll_interval must be positive"))
	}
	if c.ProfileCacheTTL <= 0 {
		errs = append(errs, fmt.Errorf("profile_cache_ttl must be positive"))
	}
	if c.TrackingEndpoint != "" {
		if err := validateEndpoint(c.TrackingEndpoint); err != nil {
			errs = append(errs, fmt.Errorf("tracking_endpoint: %w", err))
		}
	}

	if c.Policy == nil {
		errs = append(errs, fmt.Errorf("policy is required: set it inline or via policy_path"))
	} else {
		if c.Policy.MinPartySize < 0 {
			errs = append(errs, fmt.Errorf("policy.min_party_size must not be negative"))
		}
		if c.Policy.MaxPartySize < c.Policy.MinPartySize {
			errs = append(errs, fmt.Errorf("policy.max_party_size must be at least min_party_size"))
		}
		if c.Policy.DefaultDurationMinutes <= 0 {
			errs = append(errs, fmt.Errorf("policy.default_duration_minutes must be positive"))
		}
		if c.Policy.CheckConflicts && c.Policy.MaxSimultaneousReservations <= 0 {
			errs = append(errs, fmt.Errorf("policy.max_simultaneous_reservations must be positive when check_conflicts is set"))
		}
		if c.Policy.ConflictBufferMinutes < 0 {
			errs = append(errs, fmt.Errorf("policy.conflict_buffer_minutes must not be negative"))
		}
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}
	return nil
}

func validateEndpoint(endpoint string) error {
	parsed, err := url.Parse(endpoint)
	if err != nil {
		return err
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return fmt.Errorf("scheme must be http or https")
	}
	if parsed.Host == "" {
		return fmt.Errorf("missing host")
	}
	return nil
}
