// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package netutil

import (
	"context"
	"errors"
	"fmt"
	"net"
	"os"
)

// Localhost is returned when resolution succeeds but no address
// enumerates.
const Localhost = "localhost"

var (
	// ErrInterfaceNotFound reports that a named network interface does
	// not exist (or could not be enumerated).
	ErrInterfaceNotFound = errors.New("network interface not found")

	// ErrHostUnresolved reports that the local host's address could not
	// be determined (hostname or DNS lookup failed).
	ErrHostUnresolved = errors.New("host address unresolved")
)

// Resolver is the set of OS lookups hostname resolution depends on.
type Resolver interface {
	// InterfaceByName returns the interface with the given name.
	InterfaceByName(name string) (*net.Interface, error)

	// InterfaceAddrs lists the unicast addresses of an interface.
	InterfaceAddrs(iface *net.Interface) ([]net.Addr, error)

	// Hostname returns the kernel's host name.
	Hostname() (string, error)

	// LookupHost resolves a host name to addresses.
	LookupHost(ctx context.Context, host string) ([]string, error)
}

// SystemResolver returns a Resolver backed by the net and os packages.
func SystemResolver() Resolver { return systemResolver{} }

type systemResolver struct{}

func (systemResolver) InterfaceByName(name string) (*net.Interface, error) {
	return net.InterfaceByName(name)
}

func (systemResolver) InterfaceAddrs(iface *net.Interface) ([]net.Addr, error) {
	return iface.Addrs()
}

func (systemResolver) Hostname() (string, error) { return os.Hostname() }

func (systemResolver) LookupHost(ctx context.Context, host string) ([]string, error) {
	return net.DefaultResolver.LookupHost(ctx, host)
}

// LookupInterface finds a network interface by name. Any failure wraps
// ErrInterfaceNotFound.
func LookupInterface(resolver Resolver, name string) (*net.Interface, error) {
	iface, err := resolver.InterfaceByName(name)
	if err != nil {
		return nil, fmt.Errorf("%w: %q: %v", ErrInterfaceNotFound, name, err)
	}
	if iface == nil {
		return nil, fmt.Errorf("%w: %q", ErrInterfaceNotFound, name)
	}
	return iface, nil
}

// ResolveAddress returns the address the local host advertises.
//
// With a bound interface, this is the interface's first IPv4 address;
// IPv6 addresses are skipped. Without one, the host name is resolved
// and the first IPv4 result is preferred over any other. Either way,
// Localhost is returned when nothing enumerates. Lookup failures wrap
// ErrHostUnresolved and return an empty string.
func ResolveAddress(ctx context.Context, resolver Resolver, iface *net.Interface) (string, error) {
	if iface != nil {
		addrs, err := resolver.InterfaceAddrs(iface)
		if err != nil {
			return "", fmt.Errorf("%w: listing addresses of %s: %v", ErrHostUnresolved, iface.Name, err)
		}
		for _, addr := range addrs {
			if ip := addrIP(addr); ip != nil && ip.To4() != nil {
				return ip.String(), nil
			}
		}
		return Localhost, nil
	}

	name, err := resolver.Hostname()
	if err != nil {
		return "", fmt.Errorf("%w: reading host name: %v", ErrHostUnresolved, err)
	}
	addresses, err := resolver.LookupHost(ctx, name)
	if err != nil {
		return "", fmt.Errorf("%w: looking up %q: %v", ErrHostUnresolved, name, err)
	}
	if len(addresses) == 0 {
		return Localhost, nil
	}
	for _, address := range addresses {
		if ip := net.ParseIP(address); ip != nil && ip.To4() != nil {
			return ip.String(), nil
		}
	}
	return addresses[0], nil
}

// addrIP extracts the IP from the address types net.Interface.Addrs
// produces.
func addrIP(addr net.Addr) net.IP {
	switch value := addr.(type) {
	case *net.IPNet:
		return value.IP
	case *net.IPAddr:
		return value.IP
	default:
		return nil
	}
}
