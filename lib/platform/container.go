// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package platform

import (
	"context"
	"fmt"
)

// Container hosts agents. The platform only orchestrates its
// lifecycle.
type Container interface {
	// Start begins running the container's agents.
	Start(ctx context.Context) error

	// Shutdown stops the container.
	Shutdown(ctx context.Context) error

	// IsRunning reports whether the container is running.
	IsRunning() bool
}

// Named is implemented by containers that have a human-readable name
// for logs and errors.
type Named interface {
	Name() string
}

// containerName labels a container for logs and ContainerError.
func containerName(container Container) string {
	if named, ok := container.(Named); ok {
		return named.Name()
	}
	return fmt.Sprintf("%T", container)
}

// invoke calls op on container, converting a panic into an error so a
// misbehaving container cannot abort a bulk operation.
func invoke(ctx context.Context, container Container, op func(Container, context.Context) error) (err error) {
	defer func() {
		if recovered := recover(); recovered != nil {
			err = fmt.Errorf("%w: %v", ErrContainerPanic, recovered)
		}
	}()
	return op(container, ctx)
}
