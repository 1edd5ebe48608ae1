// Copyright 2026 The Maitred Authors
// SPDX-License-Identifier: Apache-2.0

package keystore

import (
	"fmt"
	"os"

	"golang.org/x/term"
)

// PromptPassphrase reads a passphrase from the controlling terminal
// without echo. When stdin is not a terminal (piped input, CI), it
// falls back to reading one line from stdin so headless use still
// works.
func PromptPassphrase(prompt string) ([]byte, error) {
	fd := int(os.Stdin.Fd())
	if !term.IsTerminal(fd) {
		return readLine(os.Stdin)
	}

	fmt.Fprint(os.Stderr, prompt)
	passphrase, err := term.ReadPassword(fd)
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return nil, fmt.Errorf("keystore: reading passphrase: %w", err)
	}
	if len(passphrase) == 0 {
		return nil, fmt.Errorf("keystore: empty passphrase")
	}
	return passphrase, nil
}

// readLine reads bytes up to (not including) the first newline.
func readLine(file *os.File) ([]byte, error) {
	var line []byte
	buf := make([]byte, 1)
	for {
		n, err := file.Read(buf)
		if n > 0 {
			if buf[0] == '\n' {
				break
			}
			if buf[0] != '\r' {
				line = append(line, buf[0])
			}
			continue
		}
		if err != nil {
			break
		}
	}
	if len(line) == 0 {
		return nil, fmt.Errorf("keystore: empty passphrase")
	}
	return line, nil
}
