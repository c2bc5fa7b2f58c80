// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package version

import (
	"fmt"
	"runtime"
	"strings"
)

// Product is the name that prefixes the build banner.
const Product = "agentplatform"

// Unknown is returned by Build when build metadata was not injected.
const Unknown = "(unknown)"

// These variables are set via -ldflags at build time. Empty means
// "not injected".
var (
	// Version is the release version.
	Version = ""

	// BuildTime is the UTC timestamp of the build.
	BuildTime = ""

	// GitCommit is the short git SHA of the build.
	GitCommit = ""

	// GitDirty indicates whether there were uncommitted changes.
	GitDirty = "false"
)

// Build returns "agentplatform-<Version>/<BuildTime>", or Unknown when
// either value is missing. It never fails.
func Build() string {
	return banner(Version, BuildTime)
}

func banner(version, buildTime string) string {
	version = strings.TrimSpace(version)
	buildTime = strings.TrimSpace(buildTime)
	if version == "" || buildTime == "" {
		return Unknown
	}
	return Product + "-" + version + "/" + buildTime
}

// Info returns a formatted version string suitable for --version output.
func Info() string {
	dirty := ""
	if GitDirty == "true" {
		dirty = "-dirty"
	}
	return fmt.Sprintf("%s (%s%s, %s)", orUnknown(Version), orUnknown(GitCommit), dirty, orUnknown(BuildTime))
}

// Full returns detailed version information including Go version.
func Full() string {
	return fmt.Sprintf("%s\n  Build: %s\n  Go: %s\n  Platform: %s/%s",
		Info(), Build(), runtime.Version(), runtime.GOOS, runtime.GOARCH)
}

func orUnknown(value string) string {
	if value == "" {
		return "unknown"
	}
	return value
}
