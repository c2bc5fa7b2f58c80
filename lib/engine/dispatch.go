// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package engine

import (
	"context"
	"io"
	"log/slog"
	"math"
	"sync/atomic"
	"time"

	"github.com/bureau-foundation/agentplatform/lib/clock"
)

// horizon is the trigger of a task whose time lies beyond what int64
// nanoseconds can represent. Such a task never comes due.
const horizon = math.MaxInt64

// millisToNanos converts milliseconds to nanoseconds, saturating at the
// int64 limits instead of wrapping. Only out-of-range inputs produce
// horizon, since math.MaxInt64 is not a whole number of milliseconds.
func millisToNanos(millis int64) int64 {
	const scale = int64(time.Millisecond)
	switch {
	case millis > math.MaxInt64/scale:
		return math.MaxInt64
	case millis < math.MinInt64/scale:
		return math.MinInt64
	}
	return millis * scale
}

// addNanos returns base+delta for a non-negative delta, saturating at
// horizon.
func addNanos(base, delta int64) int64 {
	if base > math.MaxInt64-delta {
		return math.MaxInt64
	}
	return base + delta
}

// dispatcher holds the pieces shared by both engines for handing a
// task to its Run function.
type dispatcher struct {
	logger   *slog.Logger
	recorder Recorder
}

func newDispatcher(logger *slog.Logger, recorder Recorder) dispatcher {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return dispatcher{logger: logger, recorder: recorder}
}

// run records and executes one task. A panicking task is logged and
// contained so that the dispatcher goroutine (real-time) or the Idle
// caller (simulated) survives it.
func (d dispatcher) run(item *pendingTask, clockNanos int64) {
	if d.recorder != nil {
		d.recorder.RecordDispatch(Dispatch{
			ID:           item.id,
			Name:         item.task.Name,
			TriggerNanos: item.trigger,
			ClockNanos:   clockNanos,
		})
	}
	if item.task.Run == nil {
		return
	}
	defer func() {
		if recovered := recover(); recovered != nil {
			d.logger.Error("scheduled task panicked",
				"task", item.task.Name,
				"task_id", item.id,
				"panic", recovered,
			)
		}
	}()
	item.task.Run()
}

// waitFor blocks until d elapses on clk, wake is closed, the engine is
// done, or ctx is cancelled. A nil wake never fires. Returns nil when
// the duration elapsed or wake fired.
func waitFor(ctx context.Context, clk clock.Clock, d time.Duration, wake <-chan struct{}, done <-chan struct{}) error {
	var elapsed <-chan struct{}
	if d > 0 {
		fired := make(chan struct{})
		timer := clk.AfterFunc(d, func() { close(fired) })
		defer timer.Stop()
		elapsed = fired
	} else if d == 0 {
		return nil
	}
	// d < 0 means wait without a deadline.

	select {
	case <-elapsed:
		return nil
	case <-wake:
		return nil
	case <-done:
		return ErrClosed
	case <-ctx.Done():
		return ctx.Err()
	}
}

// monotonic clamps a series of readings so that it never decreases.
type monotonic struct {
	last atomic.Int64
}

func (m *monotonic) observe(value int64) int64 {
	for {
		last := m.last.Load()
		if value <= last {
			return last
		}
		if m.last.CompareAndSwap(last, value) {
			return value
		}
	}
}
