// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

//go:build linux

package clock

import "golang.org/x/sys/unix"

// monotonicNanos reads CLOCK_MONOTONIC directly. The value counts from
// an arbitrary point (usually boot) and is unaffected by NTP steps.
func monotonicNanos() int64 {
	var ts unix.Timespec
	if err := unix.ClockGettime(unix.CLOCK_MONOTONIC, &ts); err != nil {
		return sinceProcessStart()
	}
	return ts.Nano()
}
