// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package engine

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/bureau-foundation/agentplatform/lib/clock"
)

// SimulatedConfig configures a Simulated engine.
type SimulatedConfig struct {
	// StartMillis is the initial logical time. Negative values are
	// treated as zero.
	StartMillis int64

	// Speed paces the simulation against the wall clock. Zero (the
	// default) runs as fast as tasks allow. A positive value makes
	// each jump of d logical time take d/Speed of wall-clock time:
	// 1 is real time, 10 is ten times faster, 0.5 is half speed.
	Speed float64

	// Clock is the wall clock used for pacing. Defaults to
	// clock.Real(). Unused when Speed is zero.
	Clock clock.Clock

	// Logger receives dispatch diagnostics. Defaults to a discard
	// logger.
	Logger *slog.Logger

	// Recorder, if set, observes every dispatch.
	Recorder Recorder
}

// Simulated is a discrete-event Engine. Its logical clock moves only
// inside Idle (and RunUntil), which jumps directly to the trigger time
// of the earliest pending task and runs it on the calling goroutine.
//
// Concurrent Idle calls are serialized: each pending task is
// dispatched exactly once, in (trigger time, registration) order, and
// the logical clock never moves backward.
type Simulated struct {
	dispatcher dispatcher
	speed      float64
	wall       clock.Clock

	// step serializes dispatch. It is held while a task runs, so a
	// task must not call Idle on its own engine.
	step sync.Mutex

	// mu guards the fields below. It is never held while a task runs,
	// so tasks may Schedule freely.
	mu       sync.Mutex
	now      int64 // logical nanoseconds
	queue    taskQueue
	sequence uint64
	closed   bool
	done     chan struct{}
}

// NewSimulated creates a simulated engine at config.StartMillis.
func NewSimulated(config SimulatedConfig) *Simulated {
	start := config.StartMillis
	if start < 0 {
		start = 0
	}
	wall := config.Clock
	if wall == nil {
		wall = clock.Real()
	}
	speed := config.Speed
	if speed < 0 {
		speed = 0
	}
	return &Simulated{
		dispatcher: newDispatcher(config.Logger, config.Recorder),
		speed:      speed,
		wall:       wall,
		now:        millisToNanos(start),
		done:       make(chan struct{}),
	}
}

// NowMillis returns the logical time in milliseconds.
func (s *Simulated) NowMillis() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.now / int64(time.Millisecond)
}

// NowNanos returns the logical time in nanoseconds.
func (s *Simulated) NowNanos() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.now
}

// Schedule registers task at logical millisecond triggerMillis.
// Scheduling after Close is ignored.
func (s *Simulated) Schedule(task Task, triggerMillis int64) TaskID {
	s.mu.Lock()
	defer s.mu.Unlock()
	item := s.enqueueLocked(task, millisToNanos(triggerMillis))
	return item.id
}

// enqueueLocked queues a task at a nanosecond trigger. Must be called
// with s.mu held. After Close the task is logged and not queued.
func (s *Simulated) enqueueLocked(task Task, triggerNanos int64) *pendingTask {
	s.sequence++
	item := &pendingTask{
		id:      TaskID(s.sequence),
		task:    task,
		trigger: triggerNanos,
		index:   -1,
	}
	if s.closed {
		s.dispatcher.logger.Warn("task scheduled on closed engine",
			"task", task.Name,
			"trigger_nanos", triggerNanos,
		)
		return item
	}
	s.queue.push(item)
	return item
}

// Idle dispatches the earliest pending task. The logical clock first
// jumps to the task's trigger time if that is in the future; a task
// that is already due runs without moving the clock. With nothing
// pending, Idle returns immediately and the clock stays put. A task
// whose trigger is too far away to represent in nanoseconds is never
// dispatched; it stays pending until Close.
func (s *Simulated) Idle(ctx context.Context) error {
	s.step.Lock()
	defer s.step.Unlock()
	_, err := s.stepLocked(ctx, 0, false)
	return err
}

// RunUntil dispatches every task with a trigger time at or before
// limitMillis, then leaves the logical clock at limitMillis (or later,
// if it was already past). Tasks scheduled by dispatched tasks are
// included when they fall inside the limit. A limit too far away to
// represent in nanoseconds dispatches every reachable task and leaves
// the clock at the last of them.
func (s *Simulated) RunUntil(ctx context.Context, limitMillis int64) error {
	limit := millisToNanos(limitMillis)
	for {
		s.step.Lock()
		dispatched, err := s.stepLocked(ctx, limit, true)
		s.step.Unlock()
		if err != nil || !dispatched {
			return err
		}
	}
}

// Drain idles until no dispatchable tasks remain. A simulation whose
// tasks keep rescheduling themselves never drains; use RunUntil for
// those.
func (s *Simulated) Drain(ctx context.Context) error {
	for {
		s.step.Lock()
		dispatched, err := s.stepLocked(ctx, 0, false)
		s.step.Unlock()
		if err != nil || !dispatched {
			return err
		}
	}
}

// stepLocked dispatches at most one task. When bounded, only tasks at
// or before limit are eligible, and the clock is moved to limit when
// none remain. Reports whether the caller should step again. Must be
// called with s.step held.
func (s *Simulated) stepLocked(ctx context.Context, limit int64, bounded bool) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return false, ErrClosed
	}
	if !s.dueLocked(limit, bounded) {
		if bounded && limit > s.now && limit != horizon {
			jump := limit - s.now
			s.mu.Unlock()
			if err := s.pace(ctx, jump); err != nil {
				return false, err
			}
			s.mu.Lock()
			if s.dueLocked(limit, true) {
				// Scheduled while pacing; step again rather than
				// jump past it.
				s.mu.Unlock()
				return true, nil
			}
			if limit > s.now {
				s.now = limit
			}
		}
		s.mu.Unlock()
		return false, nil
	}

	if jump := s.queue.peek().trigger - s.now; jump > 0 && s.speed > 0 {
		s.mu.Unlock()
		if err := s.pace(ctx, jump); err != nil {
			return false, err
		}
		s.mu.Lock()
		if s.closed {
			s.mu.Unlock()
			return false, ErrClosed
		}
		// Tasks scheduled during pacing may now be at the head;
		// they can only be earlier, so dispatching the new head
		// keeps the order intact.
	}

	item := s.queue.pop()
	if item.trigger > s.now {
		s.now = item.trigger
	}
	clockNanos := s.now
	s.mu.Unlock()

	s.dispatcher.run(item, clockNanos)
	return true, nil
}

// dueLocked reports whether the head of the queue may be dispatched:
// it exists, its trigger is representable and, when bounded, it falls
// at or before limit. Must be called with s.mu held.
func (s *Simulated) dueLocked(limit int64, bounded bool) bool {
	if s.queue.Len() == 0 {
		return false
	}
	trigger := s.queue.peek().trigger
	if trigger == horizon {
		return false
	}
	return !bounded || trigger <= limit
}

// pace waits the wall-clock equivalent of a logical jump.
func (s *Simulated) pace(ctx context.Context, jumpNanos int64) error {
	if s.speed <= 0 || jumpNanos <= 0 {
		return nil
	}
	wait := time.Duration(float64(jumpNanos) / s.speed)
	if wait <= 0 {
		return nil
	}
	return waitFor(ctx, s.wall, wait, nil, s.done)
}

// Sleep blocks the caller until the logical clock has advanced by
// millis. The wake-up is an ordinary pending task, so some other
// goroutine must drive the engine with Idle or RunUntil. A cancelled
// sleep withdraws its wake-up so it no longer pulls the clock forward.
//
// A task must not call Sleep on the engine dispatching it: the
// dispatching goroutine holds the engine until the task returns, so
// the wake-up can never run and Sleep returns only when ctx ends or
// the engine closes. Such a task should Schedule its continuation
// instead.
func (s *Simulated) Sleep(ctx context.Context, millis int64) error {
	if millis <= 0 {
		return nil
	}

	woken := make(chan struct{})
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return ErrClosed
	}
	item := s.enqueueLocked(Func("sleep", func() { close(woken) }), addNanos(s.now, millisToNanos(millis)))
	s.mu.Unlock()

	select {
	case <-woken:
		return nil
	case <-s.done:
		return ErrClosed
	case <-ctx.Done():
		s.mu.Lock()
		s.queue.remove(item)
		s.mu.Unlock()
		return ctx.Err()
	}
}

// Wake is a no-op: a simulated engine never blocks in Idle.
func (s *Simulated) Wake() {}

// Pending returns the number of tasks not yet dispatched, including
// sleep wake-ups.
func (s *Simulated) Pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.queue.Len()
}

// Close discards pending tasks and releases sleepers with ErrClosed.
// Close is idempotent.
func (s *Simulated) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	if dropped := s.queue.clear(); dropped > 0 {
		s.dispatcher.logger.Info("discarding pending tasks on close", "count", dropped)
	}
	close(s.done)
	return nil
}
