// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package version provides build metadata for platform binaries.
//
// Four package-level variables are injected at build time via
// -ldflags -X:
//
//   - [Version] -- release version string
//   - [BuildTime] -- UTC timestamp of the build
//   - [GitCommit] -- short git SHA of the build
//   - [GitDirty] -- "true" if there were uncommitted changes
//
// For example:
//
//	go build -ldflags "\
//	  -X github.com/bureau-foundation/agentplatform/lib/version.Version=1.4.0 \
//	  -X github.com/bureau-foundation/agentplatform/lib/version.BuildTime=$(date -u +%Y-%m-%dT%H:%M:%SZ)"
//
// [Build] renders the diagnostic banner "agentplatform-<version>/<timestamp>"
// that tooling parses out of startup logs. When either value was not
// injected (development builds, go test), Build returns the sentinel
// "(unknown)" instead of a half-filled banner.
//
// [Info] and [Full] are the human-readable forms used by --version.
package version
