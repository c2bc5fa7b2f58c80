// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package process holds the entrypoint helpers that write to stderr
// and exit before or after the structured logger exists.
package process
