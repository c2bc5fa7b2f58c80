// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package testutil provides shared test helpers for platform packages.
//
// [RequireReceive] and [RequireClosed] encapsulate the timeout safety
// valve pattern (select with time.After fallback) so that individual
// tests do not need direct time.After calls. These are the only place
// in the test suite where real wall-clock timeouts are used; engine
// tests otherwise drive time through clock.Fake or the simulated
// engine.
//
// [Sequence] records events from concurrent callbacks (task
// dispatches, container lifecycle calls) so tests can assert on the
// order in which they happened.
//
// All helpers call t.Fatalf on failure rather than returning errors,
// since test setup failures are not recoverable.
//
// This package has no platform-internal dependencies.
package testutil
