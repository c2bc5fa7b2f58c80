// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/bureau-foundation/agentplatform/lib/engine"
)

// heartbeat is a container whose only agent beats once per period.
// Each beat schedules the next one at the previous trigger plus the
// period, so beats do not drift even when dispatch runs late.
type heartbeat struct {
	name   string
	period int64 // milliseconds, at least 1
	engine engine.Scheduler
	clock  engine.TimeSource
	logger *slog.Logger

	mu      sync.Mutex
	running bool
	next    int64
	beats   int
}

func newHeartbeat(name string, period time.Duration, eng engine.Engine, logger *slog.Logger) *heartbeat {
	return &heartbeat{
		name:   name,
		period: max(period.Milliseconds(), 1),
		engine: eng,
		clock:  eng,
		logger: logger.With("container", name),
	}
}

func (h *heartbeat) Name() string { return h.name }

func (h *heartbeat) Start(ctx context.Context) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.running {
		return fmt.Errorf("heartbeat %s already running", h.name)
	}
	h.running = true
	h.next = h.clock.NowMillis() + h.period
	h.engine.Schedule(engine.Func(h.name, h.beat), h.next)
	h.logger.Debug("heartbeat started", "period_ms", h.period, "first_beat_ms", h.next)
	return nil
}

func (h *heartbeat) beat() {
	h.mu.Lock()
	defer h.mu.Unlock()
	if !h.running {
		return
	}
	h.beats++
	h.logger.Debug("beat", "count", h.beats, "now_ms", h.clock.NowMillis())
	h.next += h.period
	h.engine.Schedule(engine.Func(h.name, h.beat), h.next)
}

func (h *heartbeat) Shutdown(ctx context.Context) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.running {
		h.logger.Debug("heartbeat stopped", "beats", h.beats)
	}
	h.running = false
	return nil
}

func (h *heartbeat) IsRunning() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.running
}

// Beats returns how many times the heartbeat has fired.
func (h *heartbeat) Beats() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.beats
}
