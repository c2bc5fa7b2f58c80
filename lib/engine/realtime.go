// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package engine

import (
	"context"
	"log/slog"
	"math"
	"sync"
	"time"

	"github.com/bureau-foundation/agentplatform/lib/clock"
)

// RealtimeConfig configures a Realtime engine.
type RealtimeConfig struct {
	// Clock supplies wall-clock time and timers. Defaults to
	// clock.Real().
	Clock clock.Clock

	// Logger receives dispatcher diagnostics. Defaults to a discard
	// logger.
	Logger *slog.Logger

	// Recorder, if set, observes every dispatch.
	Recorder Recorder
}

// Realtime is an Engine driven by the wall clock.
//
// Tasks run on one dispatcher goroutine in (trigger time, registration)
// order, so two tasks due on the same millisecond run in the order
// they were scheduled. A task scheduled in the past runs as soon as
// the dispatcher reaches it.
type Realtime struct {
	clock      clock.Clock
	dispatcher dispatcher
	origin     time.Time

	millis monotonic
	nanos  monotonic

	mu       sync.Mutex
	queue    taskQueue
	sequence uint64
	closed   bool
	// changed is closed and replaced whenever the queue changes or a
	// task has been dispatched, releasing Idle callers.
	changed chan struct{}
	// kick wakes the dispatcher when a new earliest task arrives.
	kick chan struct{}
	done chan struct{}
}

// NewRealtime creates a real-time engine and starts its dispatcher
// goroutine. Call Close to stop it.
func NewRealtime(config RealtimeConfig) *Realtime {
	clk := config.Clock
	if clk == nil {
		clk = clock.Real()
	}
	engine := &Realtime{
		clock:      clk,
		dispatcher: newDispatcher(config.Logger, config.Recorder),
		origin:     clk.Now(),
		changed:    make(chan struct{}),
		kick:       make(chan struct{}, 1),
		done:       make(chan struct{}),
	}
	engine.millis.last.Store(math.MinInt64)
	engine.nanos.last.Store(math.MinInt64)
	go engine.dispatch()
	return engine
}

// NowMillis returns Unix epoch milliseconds. The value is derived from
// the wall time at construction plus monotonic elapsed time, so it
// does not jump backward when the system clock is stepped.
func (r *Realtime) NowMillis() int64 {
	elapsed := r.clock.Now().Sub(r.origin)
	return r.millis.observe((r.origin.UnixNano() + int64(elapsed)) / int64(time.Millisecond))
}

// NowNanos returns the clock's monotonic nanosecond counter.
func (r *Realtime) NowNanos() int64 {
	return r.nanos.observe(r.clock.Nanotime())
}

// Schedule registers task to run at Unix epoch millisecond
// triggerMillis. Scheduling after Close is ignored.
func (r *Realtime) Schedule(task Task, triggerMillis int64) TaskID {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.sequence++
	id := TaskID(r.sequence)
	if r.closed {
		r.dispatcher.logger.Warn("task scheduled on closed engine",
			"task", task.Name,
			"trigger_millis", triggerMillis,
		)
		return id
	}

	item := &pendingTask{
		id:      id,
		task:    task,
		trigger: millisToNanos(triggerMillis),
	}
	r.queue.push(item)
	if r.queue.peek() == item {
		select {
		case r.kick <- struct{}{}:
		default:
		}
	}
	r.signalLocked()
	return id
}

// Idle blocks until the earliest pending task is due, until Wake or
// Schedule signals new work, or until ctx is cancelled. With nothing
// pending it waits only for new work. When the earliest task is already
// due, Idle waits for the dispatcher to finish running a task.
func (r *Realtime) Idle(ctx context.Context) error {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return ErrClosed
	}
	changed := r.changed
	wait := time.Duration(-1)
	if r.queue.Len() > 0 {
		wait = r.untilLocked(r.queue.peek())
		if wait <= 0 {
			wait = -1
		}
	}
	r.mu.Unlock()

	return waitFor(ctx, r.clock, wait, changed, r.done)
}

// Sleep blocks for millis of wall-clock time.
func (r *Realtime) Sleep(ctx context.Context, millis int64) error {
	if millis <= 0 {
		return nil
	}
	return waitFor(ctx, r.clock, time.Duration(millisToNanos(millis)), nil, r.done)
}

// Wake releases any caller blocked in Idle.
func (r *Realtime) Wake() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.closed {
		r.signalLocked()
	}
}

// Pending returns the number of tasks not yet dispatched.
func (r *Realtime) Pending() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.queue.Len()
}

// Close stops the dispatcher and discards pending tasks. A task that
// is already running is allowed to finish. Close is idempotent.
func (r *Realtime) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return nil
	}
	r.closed = true
	if dropped := r.queue.clear(); dropped > 0 {
		r.dispatcher.logger.Info("discarding pending tasks on close", "count", dropped)
	}
	close(r.done)
	r.signalLocked()
	return nil
}

// dispatch is the dispatcher goroutine body.
func (r *Realtime) dispatch() {
	for {
		r.mu.Lock()
		if r.closed {
			r.mu.Unlock()
			return
		}
		if r.queue.Len() == 0 {
			r.mu.Unlock()
			select {
			case <-r.kick:
				continue
			case <-r.done:
				return
			}
		}

		next := r.queue.peek()
		wait := r.untilLocked(next)
		if wait <= 0 {
			r.queue.pop()
			r.mu.Unlock()

			r.dispatcher.run(next, r.clock.Now().UnixNano())

			r.mu.Lock()
			if !r.closed {
				r.signalLocked()
			}
			r.mu.Unlock()
			continue
		}
		r.mu.Unlock()

		due := make(chan struct{})
		timer := r.clock.AfterFunc(wait, func() { close(due) })
		select {
		case <-due:
		case <-r.kick:
			timer.Stop()
		case <-r.done:
			timer.Stop()
			return
		}
	}
}

// untilLocked returns the wall-clock duration until item is due.
// Must be called with r.mu held.
func (r *Realtime) untilLocked(item *pendingTask) time.Duration {
	now := millisToNanos(r.NowMillis())
	if item.trigger <= now {
		return 0
	}
	return time.Duration(item.trigger - now)
}

// signalLocked releases everything waiting on the current changed
// channel. Must be called with r.mu held.
func (r *Realtime) signalLocked() {
	close(r.changed)
	r.changed = make(chan struct{})
}
