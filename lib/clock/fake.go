// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package clock

import (
	"container/heap"
	"sync"
	"time"
)

// Fake returns a FakeClock initialized to the given time. Time stands
// still until Advance or AdvanceTo is called. All timer and sleep
// operations register pending waiters that fire when the clock
// reaches their deadline.
//
// FakeClock is safe for concurrent use by multiple goroutines.
func Fake(initial time.Time) *FakeClock {
	clock := &FakeClock{
		current: initial,
		origin:  initial,
	}
	clock.waitersChanged = sync.NewCond(&clock.mu)
	return clock
}

// FakeClock is a deterministic Clock for testing. Time advances only
// when Advance or AdvanceTo is called.
//
// AfterFunc callbacks are invoked synchronously during Advance in
// deadline order. Do not call Sleep or Advance from within an
// AfterFunc callback: that would deadlock.
type FakeClock struct {
	mu             sync.Mutex
	current        time.Time
	origin         time.Time
	waiters        waiterHeap
	sequence       uint64
	waitersChanged *sync.Cond
}

// fakeWaiter represents a pending timer or sleep.
type fakeWaiter struct {
	deadline time.Time

	// sequence orders waiters with identical deadlines by
	// registration.
	sequence uint64

	// channel receives the fire time for After and Sleep waiters.
	// Nil for AfterFunc waiters.
	channel chan time.Time

	// callback is invoked synchronously during Advance for AfterFunc
	// waiters.
	callback func()

	// index is the waiter's position in the heap, or -1 once it has
	// fired or been stopped.
	index int
}

// waiterHeap is a min-heap on (deadline, sequence).
type waiterHeap []*fakeWaiter

func (h waiterHeap) Len() int { return len(h) }

func (h waiterHeap) Less(i, j int) bool {
	if h[i].deadline.Equal(h[j].deadline) {
		return h[i].sequence < h[j].sequence
	}
	return h[i].deadline.Before(h[j].deadline)
}

func (h waiterHeap) Swap(i, j int) {
	h[i], h[j] = h[j], h[i]
	h[i].index = i
	h[j].index = j
}

func (h *waiterHeap) Push(x any) {
	waiter := x.(*fakeWaiter)
	waiter.index = len(*h)
	*h = append(*h, waiter)
}

func (h *waiterHeap) Pop() any {
	old := *h
	n := len(old)
	waiter := old[n-1]
	old[n-1] = nil
	waiter.index = -1
	*h = old[:n-1]
	return waiter
}

// Now returns the current fake time.
func (c *FakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.current
}

// Nanotime returns nanoseconds elapsed since the clock's initial time.
func (c *FakeClock) Nanotime() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return int64(c.current.Sub(c.origin))
}

// After returns a channel that receives after duration d elapses. If
// d <= 0, the channel receives immediately without registering a
// waiter.
func (c *FakeClock) After(d time.Duration) <-chan time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()

	channel := make(chan time.Time, 1)
	if d <= 0 {
		channel <- c.current
		return channel
	}

	c.pushLocked(&fakeWaiter{
		deadline: c.current.Add(d),
		channel:  channel,
	})
	return channel
}

// AfterFunc schedules f to be called after duration d. If d <= 0, f is
// called synchronously before AfterFunc returns.
func (c *FakeClock) AfterFunc(d time.Duration, f func()) *Timer {
	if d <= 0 {
		f()
		return &Timer{
			stopFunc:  func() bool { return false },
			resetFunc: func(time.Duration) bool { return false },
		}
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	waiter := &fakeWaiter{
		deadline: c.current.Add(d),
		callback: f,
	}
	c.pushLocked(waiter)

	return &Timer{
		stopFunc: func() bool {
			c.mu.Lock()
			defer c.mu.Unlock()
			if waiter.index < 0 {
				return false
			}
			heap.Remove(&c.waiters, waiter.index)
			c.waitersChanged.Broadcast()
			return true
		},
		resetFunc: func(d time.Duration) bool {
			c.mu.Lock()
			defer c.mu.Unlock()
			wasActive := waiter.index >= 0
			if wasActive {
				heap.Remove(&c.waiters, waiter.index)
			}
			waiter.deadline = c.current.Add(d)
			c.pushLocked(waiter)
			return wasActive
		},
	}
}

// Sleep pauses the calling goroutine until the clock advances past
// the deadline. If d <= 0, returns immediately.
func (c *FakeClock) Sleep(d time.Duration) {
	if d <= 0 {
		return
	}
	<-c.After(d)
}

// pushLocked registers a waiter. Must be called with c.mu held.
func (c *FakeClock) pushLocked(waiter *fakeWaiter) {
	c.sequence++
	waiter.sequence = c.sequence
	heap.Push(&c.waiters, waiter)
	c.waitersChanged.Broadcast()
}

// Advance moves the clock forward by d, firing every waiter whose
// deadline falls within the new time. Negative durations are ignored.
func (c *FakeClock) Advance(d time.Duration) {
	if d < 0 {
		d = 0
	}
	c.mu.Lock()
	target := c.current.Add(d)
	c.mu.Unlock()
	c.AdvanceTo(target)
}

// AdvanceTo moves the clock forward to target, firing waiters one at a
// time in (deadline, registration) order. While a waiter fires, Now
// reports that waiter's deadline. A target before the current time
// leaves the clock unchanged.
//
// Channel sends for After and Sleep are non-blocking; AfterFunc
// callbacks run synchronously in the calling goroutine.
func (c *FakeClock) AdvanceTo(target time.Time) {
	for {
		c.mu.Lock()
		if len(c.waiters) == 0 || c.waiters[0].deadline.After(target) {
			if target.After(c.current) {
				c.current = target
			}
			c.mu.Unlock()
			return
		}
		waiter := heap.Pop(&c.waiters).(*fakeWaiter)
		if waiter.deadline.After(c.current) {
			c.current = waiter.deadline
		}
		fireTime := c.current
		c.waitersChanged.Broadcast()
		c.mu.Unlock()

		if waiter.callback != nil {
			waiter.callback()
		} else if waiter.channel != nil {
			select {
			case waiter.channel <- fireTime:
			default:
			}
		}
	}
}

// NextDeadline returns the earliest pending deadline. The boolean is
// false when nothing is pending.
func (c *FakeClock) NextDeadline() (time.Time, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.waiters) == 0 {
		return time.Time{}, false
	}
	return c.waiters[0].deadline, true
}

// WaitForTimers blocks until at least n timers or sleeps are pending
// (registered but not yet fired). This removes the race between a
// goroutine registering a timer and the test advancing the clock.
//
//	go func() { fakeClock.Sleep(5 * time.Second) }()
//	fakeClock.WaitForTimers(1)         // blocks until Sleep registers
//	fakeClock.Advance(5 * time.Second) // deterministically fires
func (c *FakeClock) WaitForTimers(n int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for len(c.waiters) < n {
		c.waitersChanged.Wait()
	}
}

// PendingCount returns the number of pending waiters.
func (c *FakeClock) PendingCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.waiters)
}
