// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package engine

import (
	"context"
	"errors"
)

// ErrClosed is returned by Idle and Sleep once the engine is closed.
var ErrClosed = errors.New("engine: closed")

// TimeSource supplies platform time. Within one engine, successive
// readings never decrease.
type TimeSource interface {
	// NowMillis returns the current platform time in milliseconds.
	NowMillis() int64

	// NowNanos returns the current platform time in nanoseconds. The
	// value has nanosecond precision but not necessarily nanosecond
	// accuracy, and for real-time engines it is not epoch-aligned.
	NowNanos() int64
}

// Scheduler accepts deferred work and lets callers wait on platform
// time.
type Scheduler interface {
	// Schedule registers task to run at or after the absolute
	// platform time triggerMillis. Every call is a distinct
	// registration, even for an identical task and time. A trigger too
	// far away to represent in nanoseconds, such as math.MaxInt64,
	// never comes due.
	Schedule(task Task, triggerMillis int64) TaskID

	// Idle is called by the container layer when no agent work is
	// immediately runnable. The meaning depends on the engine; see
	// Realtime.Idle and Simulated.Idle.
	Idle(ctx context.Context) error

	// Sleep suspends the caller for millis of platform time. A task
	// must not Sleep on the simulated engine that is dispatching it;
	// see Simulated.Sleep.
	Sleep(ctx context.Context, millis int64) error

	// Wake tells the engine that new work arrived, releasing any
	// caller blocked in Idle.
	Wake()
}

// Engine is a paired TimeSource and Scheduler.
type Engine interface {
	TimeSource
	Scheduler

	// Pending returns the number of tasks waiting to be dispatched.
	Pending() int

	// Close stops the engine. Pending tasks are discarded and
	// blocked Idle and Sleep callers return ErrClosed.
	Close() error
}

// Task is a unit of deferred work.
type Task struct {
	// Name labels the task in logs and dispatch traces. Optional.
	Name string

	// Run is invoked with no arguments when the task is dispatched.
	Run func()
}

// Func returns a Task that calls run.
func Func(name string, run func()) Task {
	return Task{Name: name, Run: run}
}

// TaskID identifies one Schedule registration. IDs increase with
// registration order within an engine and are never reused.
type TaskID uint64

// Dispatch describes one task as it is handed to its Run function.
type Dispatch struct {
	ID           TaskID
	Name         string
	TriggerNanos int64
	ClockNanos   int64
}

// Recorder observes dispatches in the order they happen. Engines call
// RecordDispatch synchronously before running the task.
type Recorder interface {
	RecordDispatch(Dispatch)
}
