// Copyright 2026 The Maitred Authors
// SPDX-License-Identifier: Apache-2.0

// Package config provides configuration loading for Maitred
// components.
//
// Configuration is loaded from a single YAML file specified by:
//   - MAITRED_CONFIG environment variable, or
//   - --config flag passed to the command
//
// There are no fallbacks or automatic discovery. The config file is
// the single source of truth; environment variables do not override
// its values. The only expansion performed is ${HOME} and similar
// path variables for portability.
//
// The auto-accept policy may be written inline in the YAML or kept in
// a separate JSONC file (JSON with comments and trailing commas)
// referenced by path, so the policy can be shared with tooling that
// edits it independently of the agent config.
package config
