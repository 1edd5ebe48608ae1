// Copyright 2026 The Maitred Authors
// SPDX-License-Identifier: Apache-2.0

// Package keystore stores the business identity seed on disk,
// encrypted at rest with age under a passphrase (scrypt recipient).
// The file contains nothing but the age ciphertext of the 32-byte
// seed; the keys themselves are derived from the seed on load and
// never touch disk.
package keystore

import (
	"bytes"
	"crypto/rand"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"filippo.io/age"
)

// SeedSize is the byte length of an identity seed.
const SeedSize = 32

// Save writes the seed to path, age-encrypted under passphrase. The
// file is created with 0600 permissions; an existing file is refused
// so a typo cannot silently destroy an identity.
func Save(path string, seed, passphrase []byte) error {
	if len(seed) != SeedSize {
		return fmt.Errorf("keystore: seed must be %d bytes, got %d", SeedSize, len(seed))
	}
	if len(passphrase) == 0 {
		return fmt.Errorf("keystore: empty passphrase")
	}
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("keystore: %s already exists, refusing to overwrite", path)
	}

	recipient, err := age.NewScryptRecipient(string(passphrase))
	if err != nil {
		return fmt.Errorf("keystore: creating scrypt recipient: %w", err)
	}

	var ciphertext bytes.Buffer
	writer, err := age.Encrypt(&ciphertext, recipient)
	if err != nil {
		return fmt.Errorf("keystore: starting encryption: %w", err)
	}
	if _, err := writer.Write(seed); err != nil {
		return fmt.Errorf("keystore: encrypting seed: %w", err)
	}
	if err := writer.Close(); err != nil {
		return fmt.Errorf("keystore: finalizing encryption: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return fmt.Errorf("keystore: creating key directory: %w", err)
	}
	if err := os.WriteFile(path, ciphertext.Bytes(), 0o600); err != nil {
		return fmt.Errorf("keystore: writing key file: %w", err)
	}
	return nil
}

// Load reads and decrypts the seed from path. A wrong passphrase
// surfaces as age's "no identity matched" error.
func Load(path string, passphrase []byte) ([]byte, error) {
	ciphertext, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("keystore: reading key file: %w", err)
	}

	identity, err := age.NewScryptIdentity(string(passphrase))
	if err != nil {
		return nil, fmt.Errorf("keystore: creating scrypt identity: %w", err)
	}

	reader, err := age.Decrypt(bytes.NewReader(ciphertext), identity)
	if err != nil {
		return nil, fmt.Errorf("keystore: decrypting %s: %w", path, err)
	}
	seed, err := io.ReadAll(reader)
	if err != nil {
		return nil, fmt.Errorf("keystore: reading decrypted seed: %w", err)
	}
	if len(seed) != SeedSize {
		return nil, fmt.Errorf("keystore: decrypted seed is %d bytes, want %d", len(seed), SeedSize)
	}
	return seed, nil
}

// NewSeed generates a fresh random identity seed.
func NewSeed() ([]byte, error) {
	seed := make([]byte, SeedSize)
	if _, err := rand.Read(seed); err != nil {
		return nil, fmt.Errorf("keystore: generating seed: %w", err)
	}
	return seed, nil
}
