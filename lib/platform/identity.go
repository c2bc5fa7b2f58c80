// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package platform

import (
	"context"
	"fmt"
	"net"

	"github.com/bureau-foundation/agentplatform/lib/netutil"
)

// SetHostname overrides the advertised hostname. An empty name clears
// the override.
func (p *Platform) SetHostname(name string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.hostname = name
}

// Hostname returns the advertised host address. An override set with
// SetHostname is returned verbatim. Otherwise the address is resolved
// from the bound network interface (first IPv4 address) or, with no
// interface bound, from the OS host name. Resolution that succeeds but
// finds no address yields "localhost". A failed lookup returns an error
// wrapping ErrHostUnresolved.
func (p *Platform) Hostname(ctx context.Context) (string, error) {
	p.mu.Lock()
	override, iface := p.hostname, p.iface
	p.mu.Unlock()

	if override != "" {
		return override, nil
	}
	address, err := netutil.ResolveAddress(ctx, p.resolver, iface)
	if err != nil {
		p.logger.Warn("resolving hostname", "error", err)
		return "", err
	}
	return address, nil
}

// SetNetworkInterfaceByName binds the platform to the named interface.
// An empty name unbinds. An unknown name returns an error wrapping
// ErrInterfaceNotFound and leaves the previous binding in place.
func (p *Platform) SetNetworkInterfaceByName(name string) error {
	if name == "" {
		p.SetNetworkInterface(nil)
		return nil
	}
	iface, err := netutil.LookupInterface(p.resolver, name)
	if err != nil {
		return err
	}
	p.SetNetworkInterface(iface)
	return nil
}

// SetNetworkInterface binds the platform to iface. Nil unbinds.
func (p *Platform) SetNetworkInterface(iface *net.Interface) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.iface = iface
}

// NetworkInterface returns the bound interface, or nil.
func (p *Platform) NetworkInterface() *net.Interface {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.iface
}

// Port returns the port the platform accepts remote connections on.
func (p *Platform) Port() (int, error) {
	if !p.remote {
		return 0, ErrUnsupported
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.port, nil
}

// SetPort sets the remote connection port. It must be called before
// Start.
func (p *Platform) SetPort(port int) error {
	if !p.remote {
		return ErrUnsupported
	}
	if port < 1 || port > 65535 {
		return fmt.Errorf("%w: %d", ErrInvalidPort, port)
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	switch p.state {
	case stateStarted:
		return fmt.Errorf("setting port: %w", ErrStarted)
	case stateShutdown:
		return fmt.Errorf("setting port: %w", ErrShutdown)
	}
	p.port = port
	return nil
}
