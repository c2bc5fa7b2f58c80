// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package platform

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net"
	"slices"
	"sync"

	"github.com/bureau-foundation/agentplatform/lib/engine"
	"github.com/bureau-foundation/agentplatform/lib/netutil"
	"github.com/bureau-foundation/agentplatform/lib/version"
)

// DefaultPort is the port advertised when none is configured.
const DefaultPort = 1099

// Config configures a Platform.
type Config struct {
	// Engine provides time and scheduling. Required. The platform
	// closes it on Shutdown.
	Engine engine.Engine

	// Logger receives lifecycle events. Defaults to a discard logger.
	Logger *slog.Logger

	// Resolver performs hostname and interface lookups. Defaults to
	// netutil.SystemResolver().
	Resolver netutil.Resolver

	// DisableRemote builds a platform that accepts no remote
	// connections. Port and SetPort then fail with ErrUnsupported.
	DisableRemote bool
}

type lifecycle int

const (
	stateSetup lifecycle = iota
	stateStarted
	stateShutdown
)

func (l lifecycle) String() string {
	switch l {
	case stateSetup:
		return "setup"
	case stateStarted:
		return "started"
	case stateShutdown:
		return "shutdown"
	default:
		return "unknown"
	}
}

// Platform owns an engine and an ordered set of containers.
// All methods are safe for concurrent use.
type Platform struct {
	engine   engine.Engine
	logger   *slog.Logger
	resolver netutil.Resolver
	remote   bool

	mu         sync.Mutex
	state      lifecycle
	containers []Container
	hostname   string
	iface      *net.Interface
	port       int
}

// New creates a platform in the setup state.
func New(config Config) (*Platform, error) {
	if config.Engine == nil {
		return nil, ErrNoEngine
	}
	logger := config.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	resolver := config.Resolver
	if resolver == nil {
		resolver = netutil.SystemResolver()
	}
	return &Platform{
		engine:   config.Engine,
		logger:   logger,
		resolver: resolver,
		remote:   !config.DisableRemote,
		port:     DefaultPort,
	}, nil
}

// Engine returns the platform's engine.
func (p *Platform) Engine() engine.Engine { return p.engine }

// NowMillis returns the engine's current time in milliseconds.
func (p *Platform) NowMillis() int64 { return p.engine.NowMillis() }

// NowNanos returns the engine's current time in nanoseconds.
func (p *Platform) NowNanos() int64 { return p.engine.NowNanos() }

// Schedule registers task with the engine at triggerMillis.
func (p *Platform) Schedule(task engine.Task, triggerMillis int64) engine.TaskID {
	return p.engine.Schedule(task, triggerMillis)
}

// Idle parks the caller until the engine has work; see
// [engine.Scheduler].
func (p *Platform) Idle(ctx context.Context) error { return p.engine.Idle(ctx) }

// Sleep suspends the caller for millis of engine time.
func (p *Platform) Sleep(ctx context.Context, millis int64) error {
	return p.engine.Sleep(ctx, millis)
}

// AddContainer appends container to the registry. A nil container is
// accepted and skipped by bulk operations. Adding the same container
// twice registers it twice.
func (p *Platform) AddContainer(container Container) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.state == stateShutdown {
		return ErrShutdown
	}
	p.containers = append(p.containers, container)
	p.logger.Debug("container added",
		"container", nameOrNil(container),
		"index", len(p.containers)-1,
	)
	return nil
}

// RemoveContainer removes the first registry entry equal to container
// and reports whether one was found. Later entries keep their relative
// order. Container values must be comparable (pointer types are).
func (p *Platform) RemoveContainer(container Container) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	index := slices.Index(p.containers, container)
	if index < 0 {
		return false
	}
	p.containers = slices.Delete(p.containers, index, index+1)
	p.logger.Debug("container removed", "container", nameOrNil(container), "index", index)
	return true
}

// Containers returns a snapshot of the registry in registration order.
func (p *Platform) Containers() []Container {
	p.mu.Lock()
	defer p.mu.Unlock()
	return slices.Clone(p.containers)
}

// Start starts every registered container in registration order. A
// failing container does not stop the rest; failures are joined
// [*ContainerError] values. Start may be called once, and not after
// Shutdown.
func (p *Platform) Start(ctx context.Context) error {
	p.mu.Lock()
	switch p.state {
	case stateStarted:
		p.mu.Unlock()
		return ErrStarted
	case stateShutdown:
		p.mu.Unlock()
		return ErrShutdown
	}
	p.state = stateStarted
	containers := slices.Clone(p.containers)
	p.mu.Unlock()

	p.logger.Info("platform starting",
		"build", version.Build(),
		"containers", len(containers),
	)
	err := p.each(ctx, containers, "start", Container.Start)
	if err != nil {
		p.logger.Error("platform started with failures",
			"failed", len(ContainerErrors(err)),
		)
		return err
	}
	p.logger.Info("platform started")
	return nil
}

// Shutdown shuts down every registered container in registration
// order and then closes the engine. Shutdown is valid in any state;
// calls after the first do nothing.
func (p *Platform) Shutdown(ctx context.Context) error {
	p.mu.Lock()
	if p.state == stateShutdown {
		p.mu.Unlock()
		return nil
	}
	previous := p.state
	p.state = stateShutdown
	containers := slices.Clone(p.containers)
	p.mu.Unlock()

	p.logger.Info("platform shutting down",
		"from", previous.String(),
		"containers", len(containers),
	)
	err := p.each(ctx, containers, "shutdown", Container.Shutdown)
	if closeErr := p.engine.Close(); closeErr != nil {
		p.logger.Error("closing engine", "error", closeErr)
		err = errors.Join(err, closeErr)
	}
	p.logger.Info("platform shut down")
	return err
}

// IsRunning reports whether at least one registered container is
// running. An empty registry is not running.
func (p *Platform) IsRunning() bool {
	for _, container := range p.Containers() {
		if container != nil && container.IsRunning() {
			return true
		}
	}
	return false
}

// each applies op to every non-nil container, collecting failures.
func (p *Platform) each(ctx context.Context, containers []Container, name string, op func(Container, context.Context) error) error {
	var errs []error
	for index, container := range containers {
		if container == nil {
			continue
		}
		if err := invoke(ctx, container, op); err != nil {
			containerError := &ContainerError{
				Index: index,
				Name:  containerName(container),
				Op:    name,
				Err:   err,
			}
			p.logger.Error("container "+name+" failed",
				"container", containerError.Name,
				"index", index,
				"error", err,
			)
			errs = append(errs, containerError)
		}
	}
	return errors.Join(errs...)
}

func nameOrNil(container Container) string {
	if container == nil {
		return "<nil>"
	}
	return containerName(container)
}
