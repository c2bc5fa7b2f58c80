// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package platform

import (
	"errors"
	"fmt"

	"github.com/bureau-foundation/agentplatform/lib/netutil"
)

var (
	// ErrUnsupported is returned by Port and SetPort on a platform
	// built without remote connections. It matches
	// errors.ErrUnsupported.
	ErrUnsupported = fmt.Errorf("platform: remote connections: %w", errors.ErrUnsupported)

	// ErrInvalidPort is returned by SetPort for a port outside 1-65535.
	ErrInvalidPort = errors.New("platform: invalid port")

	// ErrStarted is returned when an operation is only valid before
	// Start (a second Start, SetPort).
	ErrStarted = errors.New("platform: already started")

	// ErrShutdown is returned by AddContainer and Start after Shutdown.
	ErrShutdown = errors.New("platform: shut down")

	// ErrNoEngine is returned by New when Config.Engine is nil.
	ErrNoEngine = errors.New("platform: no engine configured")

	// ErrContainerPanic wraps a panic raised by a container's Start or
	// Shutdown.
	ErrContainerPanic = errors.New("container panicked")

	// ErrInterfaceNotFound is returned when binding to a named network
	// interface that does not exist.
	ErrInterfaceNotFound = netutil.ErrInterfaceNotFound

	// ErrHostUnresolved is returned by Hostname when the host address
	// cannot be determined.
	ErrHostUnresolved = netutil.ErrHostUnresolved
)

// ContainerError reports one container's failure during a bulk
// operation.
type ContainerError struct {
	// Index is the container's position in registration order.
	Index int

	// Name is the container's Name() if it implements Named, else its
	// Go type.
	Name string

	// Op is "start" or "shutdown".
	Op string

	Err error
}

func (e *ContainerError) Error() string {
	return fmt.Sprintf("container %d (%s): %s: %v", e.Index, e.Name, e.Op, e.Err)
}

func (e *ContainerError) Unwrap() error { return e.Err }

// ContainerErrors extracts the per-container failures from an error
// returned by Start or Shutdown.
func ContainerErrors(err error) []*ContainerError {
	if err == nil {
		return nil
	}
	var result []*ContainerError
	if joined, ok := err.(interface{ Unwrap() []error }); ok {
		for _, inner := range joined.Unwrap() {
			result = append(result, ContainerErrors(inner)...)
		}
		return result
	}
	var containerError *ContainerError
	if errors.As(err, &containerError) {
		result = append(result, containerError)
	}
	return result
}
