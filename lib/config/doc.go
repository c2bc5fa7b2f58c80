// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package config loads agentplatform configuration.
//
// Configuration comes from exactly one file, named by the
// AGENTPLATFORM_CONFIG environment variable ([Load]) or a --config
// flag ([LoadFile]). There is no discovery and no fallback search.
// The file format follows the extension:
//
//   - .yaml, .yml -- YAML
//   - .json, .jsonc -- JSON, with comments and trailing commas allowed
//   - .toml -- TOML
//
// Values in the file are merged over [Default]. An environment section
// (development, production) then overrides the base logging and
// network settings when [Config].Environment matches.
//
// ${HOME} and ${VAR:-default} are expanded in trace.path after
// loading. No other environment variables override config values.
//
// This package depends on no other agentplatform packages.
package config
