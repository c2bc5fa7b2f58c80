// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package cli is the small command-tree framework behind the
// agentplatform binary: a [Command] type with pflag-based flag
// parsing, help output, typo suggestions for unknown commands, the
// [ExitError] convention for handled non-zero exits, and the process
// logger constructor.
package cli
