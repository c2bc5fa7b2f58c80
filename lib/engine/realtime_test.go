// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package engine

import (
	"context"
	"errors"
	"math"
	"runtime"
	"testing"
	"time"

	"github.com/bureau-foundation/agentplatform/lib/clock"
	"github.com/bureau-foundation/agentplatform/lib/testutil"
)

var epoch = time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

func newFakeRealtime(t *testing.T) (*Realtime, *clock.FakeClock) {
	t.Helper()
	fake := clock.Fake(epoch)
	engine := NewRealtime(RealtimeConfig{Clock: fake})
	t.Cleanup(func() { engine.Close() })
	return engine, fake
}

// waitForDeadline spins until the fake clock's earliest pending timer
// is at want. The dispatcher re-arms its timer asynchronously after a
// Schedule, so this is how tests know it has picked up the new head.
func waitForDeadline(t *testing.T, fake *clock.FakeClock, want time.Time) {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second) //nolint:realclock test hang prevention
	for {
		next, ok := fake.NextDeadline()
		if ok && next.Equal(want) {
			return
		}
		if time.Now().After(deadline) { //nolint:realclock test hang prevention
			t.Fatalf("timed out waiting for timer at %v (next %v, pending %v)", want, next, ok)
		}
		runtime.Gosched()
	}
}

func TestRealtimeNowMillisFollowsClock(t *testing.T) {
	engine, fake := newFakeRealtime(t)
	if got, want := engine.NowMillis(), epoch.UnixMilli(); got != want {
		t.Fatalf("NowMillis = %d, want %d", got, want)
	}
	fake.Advance(250 * time.Millisecond)
	if got, want := engine.NowMillis(), epoch.UnixMilli()+250; got != want {
		t.Fatalf("NowMillis after Advance = %d, want %d", got, want)
	}
	if got := engine.NowNanos(); got != int64(250*time.Millisecond) {
		t.Fatalf("NowNanos = %d, want %d", got, int64(250*time.Millisecond))
	}
}

func TestRealtimeScheduleFiresAtTrigger(t *testing.T) {
	engine, fake := newFakeRealtime(t)
	ran := make(chan int64, 1)
	engine.Schedule(Func("later", func() { ran <- engine.NowMillis() }), engine.NowMillis()+100)

	fake.WaitForTimers(1)
	fake.Advance(99 * time.Millisecond)
	select {
	case <-ran:
		t.Fatal("task ran before its trigger time")
	default:
	}
	fake.Advance(1 * time.Millisecond)

	got := testutil.RequireReceive(t, ran, 5*time.Second, "scheduled task")
	if want := epoch.UnixMilli() + 100; got != want {
		t.Fatalf("task observed NowMillis = %d, want %d", got, want)
	}
}

func TestRealtimeOverdueTaskRunsImmediately(t *testing.T) {
	engine, _ := newFakeRealtime(t)
	ran := make(chan struct{})
	engine.Schedule(Func("overdue", func() { close(ran) }), engine.NowMillis()-1000)
	testutil.RequireClosed(t, ran, 5*time.Second, "overdue task")
}

func TestRealtimeEqualTriggersRunInRegistrationOrder(t *testing.T) {
	engine, fake := newFakeRealtime(t)
	var events testutil.Sequence
	done := make(chan struct{})
	trigger := engine.NowMillis() + 50
	for _, name := range []string{"a", "b", "c", "d"} {
		engine.Schedule(Func(name, func() { events.Add(name) }), trigger)
	}
	engine.Schedule(Func("done", func() { close(done) }), trigger)

	waitForDeadline(t, fake, epoch.Add(50*time.Millisecond))
	fake.Advance(50 * time.Millisecond)

	testutil.RequireClosed(t, done, 5*time.Second, "final task")
	events.RequireEqual(t, "a", "b", "c", "d")
}

func TestRealtimeEarlierTaskPreemptsDispatcherWait(t *testing.T) {
	engine, fake := newFakeRealtime(t)
	var events testutil.Sequence
	done := make(chan struct{})

	engine.Schedule(Func("x", func() {
		events.Add("x")
		close(done)
	}), engine.NowMillis()+100)
	waitForDeadline(t, fake, epoch.Add(100*time.Millisecond))

	engine.Schedule(Func("y", func() { events.Add("y") }), engine.NowMillis()+50)
	waitForDeadline(t, fake, epoch.Add(50*time.Millisecond))

	fake.Advance(50 * time.Millisecond)
	waitForDeadline(t, fake, epoch.Add(100*time.Millisecond))
	fake.Advance(50 * time.Millisecond)

	testutil.RequireClosed(t, done, 5*time.Second, "task x")
	events.RequireEqual(t, "y", "x")
}

func TestRealtimeUnrepresentableTriggerNeverComesDue(t *testing.T) {
	engine, fake := newFakeRealtime(t)
	engine.Schedule(Func("far", func() { t.Error("unrepresentable trigger was dispatched") }), math.MaxInt64/1000)
	// The dispatcher waits out the whole representable range instead
	// of treating a wrapped trigger as overdue.
	waitForDeadline(t, fake, epoch.Add(time.Duration(math.MaxInt64-epoch.UnixNano())))

	done := make(chan struct{})
	engine.Schedule(Func("near", func() { close(done) }), engine.NowMillis()+10)
	waitForDeadline(t, fake, epoch.Add(10*time.Millisecond))
	fake.Advance(10 * time.Millisecond)

	testutil.RequireClosed(t, done, 5*time.Second, "near task")
	if got := engine.Pending(); got != 1 {
		t.Fatalf("Pending = %d, want 1", got)
	}
}

func TestRealtimeIdleWaitsForDueTaskDispatch(t *testing.T) {
	engine, _ := newFakeRealtime(t)
	started := make(chan struct{})
	release := make(chan struct{})
	now := engine.NowMillis()
	engine.Schedule(Func("slow", func() {
		close(started)
		<-release
	}), now)
	testutil.RequireClosed(t, started, 5*time.Second, "slow task")

	// Due but stuck behind the running task.
	engine.Schedule(Func("due", nil), now)

	result := make(chan error, 1)
	go func() { result <- engine.Idle(context.Background()) }()
	select {
	case err := <-result:
		close(release)
		t.Fatalf("Idle returned %v while the due task was still waiting", err)
	case <-time.After(50 * time.Millisecond): //nolint:realclock negative check
	}

	close(release)
	if err := testutil.RequireError(t, result, 5*time.Second, "Idle"); err != nil {
		t.Fatalf("Idle = %v, want nil", err)
	}
}

func TestRealtimeIdleBlocksUntilNextTrigger(t *testing.T) {
	engine, fake := newFakeRealtime(t)
	engine.Schedule(Func("tick", nil), engine.NowMillis()+100)

	result := make(chan error, 1)
	go func() { result <- engine.Idle(context.Background()) }()

	// One timer for the dispatcher, one for the idle caller.
	fake.WaitForTimers(2)
	select {
	case err := <-result:
		t.Fatalf("Idle returned early: %v", err)
	default:
	}
	fake.Advance(100 * time.Millisecond)

	if err := testutil.RequireError(t, result, 5*time.Second, "Idle"); err != nil {
		t.Fatalf("Idle = %v, want nil", err)
	}
}

func TestRealtimeIdleReturnsOnWake(t *testing.T) {
	engine, _ := newFakeRealtime(t)

	result := make(chan error, 1)
	go func() { result <- engine.Idle(context.Background()) }()

	// Wake until the idle caller is parked and observes one.
	deadline := time.Now().Add(5 * time.Second) //nolint:realclock test hang prevention
	for {
		engine.Wake()
		select {
		case err := <-result:
			if err != nil {
				t.Fatalf("Idle = %v, want nil", err)
			}
			return
		default:
		}
		if time.Now().After(deadline) { //nolint:realclock test hang prevention
			t.Fatal("Idle did not return after Wake")
		}
		runtime.Gosched()
	}
}

func TestRealtimeIdleHonorsContext(t *testing.T) {
	engine, _ := newFakeRealtime(t)
	ctx, cancel := context.WithCancel(context.Background())

	result := make(chan error, 1)
	go func() { result <- engine.Idle(ctx) }()
	cancel()

	if err := testutil.RequireError(t, result, 5*time.Second, "cancelled Idle"); !errors.Is(err, context.Canceled) {
		t.Fatalf("Idle = %v, want context.Canceled", err)
	}
}

func TestRealtimeSleepBlocksForDuration(t *testing.T) {
	engine, fake := newFakeRealtime(t)

	result := make(chan error, 1)
	go func() { result <- engine.Sleep(context.Background(), 500) }()

	fake.WaitForTimers(1)
	fake.Advance(500 * time.Millisecond)

	if err := testutil.RequireError(t, result, 5*time.Second, "Sleep"); err != nil {
		t.Fatalf("Sleep = %v, want nil", err)
	}
}

func TestRealtimeCloseReleasesWaiters(t *testing.T) {
	engine, fake := newFakeRealtime(t)
	engine.Schedule(Func("dropped", func() { t.Error("task ran after Close") }), engine.NowMillis()+1000)

	sleeper := make(chan error, 1)
	go func() { sleeper <- engine.Sleep(context.Background(), 10_000) }()
	// Dispatcher timer plus the sleeper.
	fake.WaitForTimers(2)

	if err := engine.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if err := testutil.RequireError(t, sleeper, 5*time.Second, "sleeper"); !errors.Is(err, ErrClosed) {
		t.Fatalf("Sleep = %v, want ErrClosed", err)
	}
	if err := engine.Idle(context.Background()); !errors.Is(err, ErrClosed) {
		t.Fatalf("Idle after Close = %v, want ErrClosed", err)
	}
	if got := engine.Pending(); got != 0 {
		t.Fatalf("Pending after Close = %d, want 0", got)
	}
	fake.Advance(time.Hour)
}

func TestRealtimePanickingTaskDoesNotStopDispatcher(t *testing.T) {
	engine, _ := newFakeRealtime(t)
	ran := make(chan struct{})
	now := engine.NowMillis()
	engine.Schedule(Func("boom", func() { panic("boom") }), now)
	engine.Schedule(Func("after", func() { close(ran) }), now)
	testutil.RequireClosed(t, ran, 5*time.Second, "task after panic")
}

func TestRealtimeWithRealClock(t *testing.T) {
	engine := NewRealtime(RealtimeConfig{})
	defer engine.Close()

	before := engine.NowNanos()
	ran := make(chan struct{})
	engine.Schedule(Func("soon", func() { close(ran) }), engine.NowMillis()+5)
	testutil.RequireClosed(t, ran, 5*time.Second, "real-clock task")

	if after := engine.NowNanos(); after < before {
		t.Fatalf("NowNanos went backward: %d after %d", after, before)
	}
	millis := engine.NowMillis()
	if wall := time.Now().UnixMilli(); millis > wall+1000 || millis < wall-1000 { //nolint:realclock epoch alignment check
		t.Fatalf("NowMillis = %d, not near wall clock %d", millis, wall)
	}
}
