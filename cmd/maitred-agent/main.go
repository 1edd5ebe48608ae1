// Copyright 2026 The Maitred Authors
// SPDX-License-Identifier: Apache-2.0

// maitred-agent is the long-running reservation listener for one
// business identity. It polls the configured relays for encrypted
// reservation traffic, evaluates each request against the business's
// auto-accept policy and published opening hours, and answers with
// confirmations or declines.
//
// Configuration comes from the YAML file named by MAITRED_CONFIG or
// --config. The identity seed is read from the age-encrypted keystore
// named there; the passphrase is prompted at startup.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/pflag"

	"github.com/maitred-foundation/maitred/envelope"
	"github.com/maitred-foundation/maitred/lib/config"
	"github.com/maitred-foundation/maitred/lib/keystore"
	"github.com/maitred-foundation/maitred/lib/tracking"
	"github.com/maitred-foundation/maitred/profile"
	"github.com/maitred-foundation/maitred/relay"
	"github.com/maitred-foundation/maitred/reservation"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	var configPath string
	var logLevel string

	flagSet := pflag.NewFlagSet("maitred-agent", pflag.ContinueOnError)
	flagSet.StringVar(&configPath, "config", "", "path to maitred.yaml (default: $MAITRED_CONFIG)")
	flagSet.StringVar(&logLevel, "log-level", "info", "log level: debug, info, warn, error")
	if err := flagSet.Parse(os.Args[1:]); err != nil {
		return err
	}

	logger, err := newLogger(logLevel)
	if err != nil {
		return err
	}
	slog.SetDefault(logger)

	var cfg *config.Config
	if configPath != "" {
		cfg, err = config.LoadFile(configPath)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		return err
	}

	passphrase, err := keystore.PromptPassphrase("Keystore passphrase: ")
	if err != nil {
		return err
	}
	seed, err := keystore.Load(cfg.KeystorePath, passphrase)
	if err != nil {
		return err
	}
	identity, err := envelope.NewIdentity(seed)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	client := relay.NewClient(relay.ClientConfig{Logger: logger})
	coordinator := relay.NewCoordinator(relay.CoordinatorConfig{
		Client:  client,
		Timeout: cfg.PublishTimeout,
		Logger:  logger,
	})

	profiles, err := profile.NewLoader(profile.LoaderConfig{
		Fetcher:   client,
		Endpoints: cfg.Relays,
		CacheTTL:  cfg.ProfileCacheTTL,
		Logger:    logger,
	})
	if err != nil {
		return err
	}

	var tracker reservation.Tracker
	if cfg.TrackingEndpoint != "" {
		tracker = tracking.NewReporter(tracking.ReporterConfig{
			Endpoint: cfg.TrackingEndpoint,
			Logger:   logger,
		})
	}

	desk, err := reservation.NewDesk(reservation.DeskConfig{
		Identity:  identity,
		Publisher: coordinator,
		Relays:    cfg.Relays,
		Tracker:   tracker,
		Logger:    logger,
	})
	if err != nil {
		return err
	}

	agent := NewAgent(AgentConfig{
		Identity:     identity,
		Fetcher:      client,
		Desk:         desk,
		Profiles:     profiles,
		Relays:       cfg.Relays,
		Policy:       *cfg.Policy,
		PollInterval: cfg.PollInterval,
		Logger:       logger,
	})
	return agent.Run(ctx)
}

func newLogger(level string) (*slog.Logger, error) {
	var l slog.Level
	if err := l.UnmarshalText([]byte(level)); err != nil {
		return nil, fmt.Errorf("invalid log level %q", level)
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: l})), nil
}
