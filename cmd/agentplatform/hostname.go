// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/pflag"

	"github.com/bureau-foundation/agentplatform/cmd/agentplatform/cli"
	"github.com/bureau-foundation/agentplatform/lib/engine"
	"github.com/bureau-foundation/agentplatform/lib/netutil"
	"github.com/bureau-foundation/agentplatform/lib/platform"
)

func hostnameCommand(stdout io.Writer) *cli.Command {
	var (
		iface    string
		override string
	)
	return &cli.Command{
		Name:    "hostname",
		Summary: "Print the address the platform would advertise",
		Description: `Print the address the platform would advertise.

An --override is printed as is. Otherwise the first IPv4 address of
--interface is used, or the host name is resolved. "localhost" is
printed when resolution finds no address.`,
		Flags: func() *pflag.FlagSet {
			flagSet := pflag.NewFlagSet("hostname", pflag.ContinueOnError)
			flagSet.StringVar(&iface, "interface", "", "network interface to take the address from")
			flagSet.StringVar(&override, "override", "", "hostname to advertise instead of resolving")
			return flagSet
		},
		Run: func(args []string) error {
			if len(args) > 0 {
				return fmt.Errorf("%w: unexpected argument %q", cli.ErrUsage, args[0])
			}
			return printHostname(context.Background(), stdout, netutil.SystemResolver(), iface, override)
		},
	}
}

func printHostname(ctx context.Context, stdout io.Writer, resolver netutil.Resolver, iface, override string) error {
	eng := engine.NewSimulated(engine.SimulatedConfig{})
	p, err := platform.New(platform.Config{Engine: eng, Resolver: resolver})
	if err != nil {
		return err
	}
	defer p.Shutdown(ctx)

	p.SetHostname(override)
	if err := p.SetNetworkInterfaceByName(iface); err != nil {
		return err
	}
	hostname, err := p.Hostname(ctx)
	if err != nil {
		return err
	}
	fmt.Fprintln(stdout, hostname)
	return nil
}
