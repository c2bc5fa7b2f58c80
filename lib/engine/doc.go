// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package engine provides the time base and scheduling primitive that
// agent containers run on.
//
// An [Engine] combines a time source (NowMillis, NowNanos) with a
// scheduler (Schedule, Idle, Sleep). Two implementations exist:
//
//   - [Realtime] follows the wall clock. Scheduled tasks run on a
//     single dispatcher goroutine when their trigger time arrives, and
//     Idle blocks until the next trigger time or until new work is
//     signalled.
//
//   - [Simulated] keeps a logical clock that moves only when a caller
//     goes idle. Idle jumps the clock straight to the earliest pending
//     trigger time and runs that task on the calling goroutine, so a
//     simulation runs as fast as its tasks allow (or at a fixed ratio
//     to the wall clock when pacing is configured) while preserving
//     causal order.
//
// Both engines order tasks by trigger time and break ties by
// registration order. A task whose trigger time is already past runs
// at the next opportunity; nothing is ever dropped except by Close.
//
// Times passed to Schedule are absolute platform milliseconds: Unix
// epoch milliseconds for Realtime, logical milliseconds for Simulated.
// Code that stays portable across engines derives trigger times from
// NowMillis rather than from time.Now.
package engine
