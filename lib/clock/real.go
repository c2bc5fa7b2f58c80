// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package clock

import "time"

// Real returns a Clock backed by the standard time package and the
// operating system's monotonic clock.
func Real() Clock { return realClock{} }

type realClock struct{}

func (realClock) Now() time.Time { return time.Now() }

func (realClock) Nanotime() int64 { return monotonicNanos() }

func (realClock) After(d time.Duration) <-chan time.Time { return time.After(d) }

func (realClock) AfterFunc(d time.Duration, f func()) *Timer {
	timer := time.AfterFunc(d, f)
	return &Timer{
		stopFunc:  timer.Stop,
		resetFunc: timer.Reset,
	}
}

func (realClock) Sleep(d time.Duration) { time.Sleep(d) }

// processStart anchors the portable monotonic fallback. time.Since
// uses the monotonic reading carried by processStart.
var processStart = time.Now()

func sinceProcessStart() int64 { return int64(time.Since(processStart)) }
