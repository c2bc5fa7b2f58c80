// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package clock

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

var epoch = time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

func TestFakeClockNow(t *testing.T) {
	clock := Fake(epoch)
	if got := clock.Now(); !got.Equal(epoch) {
		t.Fatalf("Now() = %v, want %v", got, epoch)
	}
	clock.Advance(5 * time.Second)
	want := epoch.Add(5 * time.Second)
	if got := clock.Now(); !got.Equal(want) {
		t.Fatalf("Now() after Advance = %v, want %v", got, want)
	}
}

func TestFakeClockNanotimeTracksAdvance(t *testing.T) {
	clock := Fake(epoch)
	if got := clock.Nanotime(); got != 0 {
		t.Fatalf("Nanotime() = %d, want 0", got)
	}
	clock.Advance(1500 * time.Microsecond)
	if got := clock.Nanotime(); got != 1_500_000 {
		t.Fatalf("Nanotime() = %d, want 1500000", got)
	}
}

func TestFakeClockAfterPartialAdvance(t *testing.T) {
	clock := Fake(epoch)
	channel := clock.After(5 * time.Second)

	clock.Advance(3 * time.Second)
	select {
	case <-channel:
		t.Fatal("After fired before deadline")
	default:
	}

	clock.Advance(2 * time.Second)
	select {
	case fired := <-channel:
		if want := epoch.Add(5 * time.Second); !fired.Equal(want) {
			t.Fatalf("fire time = %v, want %v", fired, want)
		}
	default:
		t.Fatal("After did not fire at exact deadline")
	}
}

func TestFakeClockAfterNonPositiveFiresImmediately(t *testing.T) {
	clock := Fake(epoch)
	for _, d := range []time.Duration{0, -time.Second} {
		select {
		case <-clock.After(d):
		default:
			t.Fatalf("After(%v) should fire immediately", d)
		}
	}
	if got := clock.PendingCount(); got != 0 {
		t.Fatalf("PendingCount() = %d, want 0", got)
	}
}

func TestFakeClockAfterFuncStop(t *testing.T) {
	clock := Fake(epoch)
	var called atomic.Bool
	timer := clock.AfterFunc(2*time.Second, func() {
		called.Store(true)
	})

	if !timer.Stop() {
		t.Fatal("Stop() should return true for unfired timer")
	}
	if timer.Stop() {
		t.Fatal("second Stop() should return false")
	}

	clock.Advance(5 * time.Second)
	if called.Load() {
		t.Fatal("callback invoked after Stop()")
	}
	if got := clock.PendingCount(); got != 0 {
		t.Fatalf("PendingCount() = %d, want 0", got)
	}
}

func TestFakeClockAfterFuncStopAlreadyFired(t *testing.T) {
	clock := Fake(epoch)
	timer := clock.AfterFunc(1*time.Second, func() {})

	clock.Advance(1 * time.Second)

	if timer.Stop() {
		t.Fatal("Stop() should return false for already-fired timer")
	}
}

func TestFakeClockAfterFuncReset(t *testing.T) {
	clock := Fake(epoch)
	var called atomic.Bool
	timer := clock.AfterFunc(5*time.Second, func() {
		called.Store(true)
	})

	if !timer.Reset(2 * time.Second) {
		t.Fatal("Reset() should return true for active timer")
	}

	clock.Advance(2 * time.Second)
	if !called.Load() {
		t.Fatal("callback should fire at new deadline after Reset")
	}
	if got := clock.PendingCount(); got != 0 {
		t.Fatalf("PendingCount() = %d, want 0 (reset must not duplicate)", got)
	}
}

func TestFakeClockSleep(t *testing.T) {
	clock := Fake(epoch)

	done := make(chan struct{})
	go func() {
		clock.Sleep(3 * time.Second)
		close(done)
	}()

	clock.WaitForTimers(1)
	clock.Advance(3 * time.Second)

	select {
	case <-done:
	case <-time.After(1 * time.Second):
		t.Fatal("Sleep did not return after Advance")
	}
}

func TestFakeClockWaitForTimers(t *testing.T) {
	clock := Fake(epoch)

	for i := 0; i < 3; i++ {
		go func() {
			clock.Sleep(5 * time.Second)
		}()
	}

	clock.WaitForTimers(3)

	if got := clock.PendingCount(); got != 3 {
		t.Fatalf("PendingCount() = %d, want 3", got)
	}
	clock.Advance(5 * time.Second)
}

func TestFakeClockFiresInDeadlineThenRegistrationOrder(t *testing.T) {
	clock := Fake(epoch)

	var order []string
	var mu sync.Mutex
	record := func(name string) func() {
		return func() {
			mu.Lock()
			order = append(order, name)
			mu.Unlock()
		}
	}

	clock.AfterFunc(3*time.Second, record("c"))
	clock.AfterFunc(1*time.Second, record("a1"))
	clock.AfterFunc(2*time.Second, record("b"))
	clock.AfterFunc(1*time.Second, record("a2"))
	clock.AfterFunc(1*time.Second, record("a3"))

	clock.Advance(5 * time.Second)

	mu.Lock()
	defer mu.Unlock()
	want := []string{"a1", "a2", "a3", "b", "c"}
	if len(order) != len(want) {
		t.Fatalf("fired %v, want %v", order, want)
	}
	for i := range want {
		if order[i] != want[i] {
			t.Fatalf("fired %v, want %v", order, want)
		}
	}
}

func TestFakeClockNowInsideCallbackIsDeadline(t *testing.T) {
	clock := Fake(epoch)
	var observed time.Time
	clock.AfterFunc(2*time.Second, func() {
		observed = clock.Now()
	})

	clock.Advance(10 * time.Second)

	if want := epoch.Add(2 * time.Second); !observed.Equal(want) {
		t.Fatalf("Now() inside callback = %v, want %v", observed, want)
	}
	if want := epoch.Add(10 * time.Second); !clock.Now().Equal(want) {
		t.Fatalf("Now() after Advance = %v, want %v", clock.Now(), want)
	}
}

func TestFakeClockCallbackRegistersWithinWindow(t *testing.T) {
	clock := Fake(epoch)
	var second atomic.Bool
	clock.AfterFunc(1*time.Second, func() {
		clock.AfterFunc(1*time.Second, func() { second.Store(true) })
	})

	clock.Advance(3 * time.Second)

	if !second.Load() {
		t.Fatal("timer registered by a callback inside the advance window did not fire")
	}
}

func TestFakeClockAdvanceToPastIsNoop(t *testing.T) {
	clock := Fake(epoch)
	clock.Advance(5 * time.Second)
	clock.AdvanceTo(epoch)
	if want := epoch.Add(5 * time.Second); !clock.Now().Equal(want) {
		t.Fatalf("Now() = %v, want %v", clock.Now(), want)
	}
}

func TestFakeClockNextDeadline(t *testing.T) {
	clock := Fake(epoch)
	if _, ok := clock.NextDeadline(); ok {
		t.Fatal("NextDeadline() reported a deadline on an idle clock")
	}
	clock.After(4 * time.Second)
	clock.After(2 * time.Second)
	deadline, ok := clock.NextDeadline()
	if !ok || !deadline.Equal(epoch.Add(2*time.Second)) {
		t.Fatalf("NextDeadline() = %v, %v; want %v, true", deadline, ok, epoch.Add(2*time.Second))
	}
}

func TestFakeClockConcurrentAccess(t *testing.T) {
	clock := Fake(epoch)
	const goroutines = 10

	var wg sync.WaitGroup
	wg.Add(goroutines)
	for i := 0; i < goroutines; i++ {
		go func() {
			defer wg.Done()
			clock.After(1 * time.Second)
			clock.Now()
		}()
	}
	wg.Wait()

	clock.WaitForTimers(goroutines)
	clock.Advance(1 * time.Second)
	if got := clock.PendingCount(); got != 0 {
		t.Fatalf("PendingCount() = %d, want 0", got)
	}
}

func TestClockImplementations(t *testing.T) {
	var _ Clock = (*FakeClock)(nil)
	var _ Clock = Real()
}

func TestRealClockNanotimeMonotonic(t *testing.T) {
	clock := Real()
	previous := clock.Nanotime()
	for i := 0; i < 1000; i++ {
		current := clock.Nanotime()
		if current < previous {
			t.Fatalf("Nanotime went backward: %d after %d", current, previous)
		}
		previous = current
	}
}
