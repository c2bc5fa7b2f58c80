// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package netutil resolves the address a process advertises to its
// peers: the first IPv4 address of a bound network interface, or the
// resolved host name, falling back to "localhost". Lookups go through
// a [Resolver] so they can be replaced in tests.
package netutil
