// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/bureau-foundation/agentplatform/lib/config"
	"github.com/bureau-foundation/agentplatform/lib/engine"
	"github.com/bureau-foundation/agentplatform/lib/platform"
	"github.com/bureau-foundation/agentplatform/lib/trace"
	"github.com/bureau-foundation/agentplatform/lib/version"
)

// identityTimeout bounds the DNS lookup behind the startup identity
// log line.
const identityTimeout = 2 * time.Second

// assembly is a platform built from config, with the pieces the
// commands need to drive and report on it.
type assembly struct {
	config     *config.Config
	platform   *platform.Platform
	simulated  *engine.Simulated // nil for the real-time engine
	recorder   *trace.Recorder
	heartbeats []*heartbeat
	logger     *slog.Logger
}

// assemble builds the engine, platform and heartbeat containers that
// cfg describes. Dispatches are always recorded.
func assemble(cfg *config.Config, logger *slog.Logger) (*assembly, error) {
	recorder := trace.NewRecorder()
	result := &assembly{config: cfg, recorder: recorder, logger: logger}

	var eng engine.Engine
	switch cfg.Engine.Kind {
	case config.EngineSimulated:
		result.simulated = engine.NewSimulated(engine.SimulatedConfig{
			StartMillis: cfg.Engine.StartMillis,
			Speed:       cfg.Engine.Speed,
			Logger:      logger,
			Recorder:    recorder,
		})
		eng = result.simulated
	case config.EngineRealtime:
		eng = engine.NewRealtime(engine.RealtimeConfig{Logger: logger, Recorder: recorder})
	default:
		return nil, fmt.Errorf("unknown engine kind %q", cfg.Engine.Kind)
	}

	p, err := platform.New(platform.Config{
		Engine:        eng,
		Logger:        logger,
		DisableRemote: !cfg.Network.Remote,
	})
	if err != nil {
		eng.Close()
		return nil, err
	}
	result.platform = p

	if err := configureIdentity(p, cfg.Network); err != nil {
		eng.Close()
		return nil, err
	}

	for _, containerConfig := range cfg.Containers {
		period, err := containerConfig.PeriodDuration()
		if err != nil {
			eng.Close()
			return nil, err
		}
		beat := newHeartbeat(containerConfig.Name, period, eng, logger)
		result.heartbeats = append(result.heartbeats, beat)
		if err := p.AddContainer(beat); err != nil {
			eng.Close()
			return nil, err
		}
	}
	return result, nil
}

// configureIdentity applies the network section to p.
func configureIdentity(p *platform.Platform, network config.NetworkConfig) error {
	p.SetHostname(network.Hostname)
	if network.Interface != "" {
		if err := p.SetNetworkInterfaceByName(network.Interface); err != nil {
			return err
		}
	}
	if network.Remote {
		if err := p.SetPort(network.Port); err != nil {
			return err
		}
	}
	return nil
}

// traceHeader describes this assembly's run.
func (a *assembly) traceHeader() trace.Header {
	return trace.Header{
		Engine:      a.config.Engine.Kind,
		StartMillis: a.config.Engine.StartMillis,
		RecordedAt:  time.Now().UTC(),
	}
}

// writeTrace writes the recorded dispatches when a path is configured.
func (a *assembly) writeTrace(path, compressionName string) error {
	if path == "" {
		return nil
	}
	compression, err := trace.ParseCompression(compressionName)
	if err != nil {
		return err
	}
	recorded := a.recorder.Trace(a.traceHeader())
	if err := trace.WriteFile(path, recorded, compression); err != nil {
		return err
	}
	a.logger.Info("trace written",
		"path", path,
		"records", len(recorded.Records),
		"compression", compression.String(),
		"digest", recorded.Digest(),
	)
	return nil
}

// logIdentity reports the platform's advertised address.
func (a *assembly) logIdentity(ctx context.Context) {
	ctx, cancel := context.WithTimeout(ctx, identityTimeout)
	defer cancel()
	attributes := []any{"build", version.Build()}
	if hostname, err := a.platform.Hostname(ctx); err == nil {
		attributes = append(attributes, "hostname", hostname)
	}
	if port, err := a.platform.Port(); err == nil {
		attributes = append(attributes, "port", port)
	}
	a.logger.Info("platform identity", attributes...)
}
