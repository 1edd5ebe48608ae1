// Copyright 2026 The Maitred Authors
// SPDX-License-Identifier: Apache-2.0

// maitred-keygen creates a business identity: it generates a fresh
// seed, stores it age-encrypted under a passphrase, and prints the
// derived public keys. The author key goes into the business's
// published profile; the exchange key is what counterparties address
// their encrypted reservations to.
package main

import (
	"crypto/subtle"
	"fmt"
	"os"

	"github.com/spf13/pflag"

	"github.com/maitred-foundation/maitred/envelope"
	"github.com/maitred-foundation/maitred/lib/keystore"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	var outPath string

	flagSet := pflag.NewFlagSet("maitred-keygen", pflag.ContinueOnError)
	flagSet.StringVar(&outPath, "out", "", "path to write the encrypted seed file (required)")
	if err := flagSet.Parse(os.Args[1:]); err != nil {
		return err
	}
	if outPath == "" {
		return fmt.Errorf("--out is required")
	}

	passphrase, err := keystore.PromptPassphrase("New keystore passphrase: ")
	if err != nil {
		return err
	}
	if len(passphrase) == 0 {
		return fmt.Errorf("passphrase must not be empty")
	}
	confirm, err := keystore.PromptPassphrase("Confirm passphrase: ")
	if err != nil {
		return err
	}
	if subtle.ConstantTimeCompare(passphrase, confirm) != 1 {
		return fmt.Errorf("passphrases do not match")
	}

	seed, err := keystore.NewSeed()
	if err != nil {
		return err
	}
	identity, err := envelope.NewIdentity(seed)
	if err != nil {
		return err
	}
	if err := keystore.Save(outPath, seed, passphrase); err != nil {
		return err
	}

	fmt.Printf("keystore:     %s\n", outPath)
	fmt.Printf("author key:   %s\n", identity.Author())
	fmt.Printf("exchange key: %s\n", identity.Exchange())
	return nil
}
