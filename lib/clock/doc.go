// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package clock provides the wall-clock primitives underneath the
// real-time platform engine.
//
// Engine and container code accepts a Clock instead of calling
// time.Now, time.After, time.AfterFunc, or time.Sleep directly. In
// production, Real() provides the standard library behavior plus a
// monotonic nanosecond counter. In tests, Fake() provides a clock that
// moves only when Advance or AdvanceTo is called.
//
// # Wiring Pattern
//
//	engine := engine.NewRealtime(engine.RealtimeConfig{Clock: clock.Real()})
//
// In tests:
//
//	c := clock.Fake(time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC))
//	engine := engine.NewRealtime(engine.RealtimeConfig{Clock: c})
//	engine.Schedule(task, engine.NowMillis()+100)
//	c.WaitForTimers(1)                  // dispatcher is now waiting
//	c.Advance(100 * time.Millisecond)   // fire deterministically
//
// # Ordering
//
// FakeClock fires pending waiters in deadline order. Waiters with the
// same deadline fire in registration order, and Now observed from
// inside an AfterFunc callback equals that callback's deadline, so the
// fake clock never appears to run backward or skip ahead of a waiter.
package clock
