// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package clock

import "time"

// Clock abstracts wall-clock time for the real-time engine.
type Clock interface {
	// Now returns the current time. For Real, the returned value
	// carries a monotonic reading, so differences between two Now
	// values are immune to wall-clock steps.
	Now() time.Time

	// Nanotime returns a monotonic nanosecond counter. The origin is
	// unspecified; only differences are meaningful. Successive calls
	// never decrease.
	Nanotime() int64

	// After returns a channel that receives the current time after
	// duration d elapses. If d <= 0, the channel receives immediately.
	After(d time.Duration) <-chan time.Time

	// AfterFunc waits for duration d, then calls f. The returned
	// Timer can cancel the pending call with Stop. If d <= 0, f is
	// called immediately in a new goroutine (real) or synchronously
	// (fake).
	AfterFunc(d time.Duration, f func()) *Timer

	// Sleep pauses the current goroutine for at least duration d.
	Sleep(d time.Duration)
}

// Timer represents a pending AfterFunc call.
type Timer struct {
	stopFunc  func() bool
	resetFunc func(time.Duration) bool
}

// Stop prevents the Timer from firing. Returns true if the call stops
// the timer, false if the timer has already fired or been stopped.
func (t *Timer) Stop() bool { return t.stopFunc() }

// Reset changes the timer to fire after duration d. Returns true if
// the timer was active before the reset.
func (t *Timer) Reset(d time.Duration) bool { return t.resetFunc(d) }
