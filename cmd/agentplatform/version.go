// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"fmt"
	"io"

	"github.com/bureau-foundation/agentplatform/cmd/agentplatform/cli"
	"github.com/bureau-foundation/agentplatform/lib/version"
)

func versionCommand(stdout io.Writer) *cli.Command {
	return &cli.Command{
		Name:    "version",
		Summary: "Print build metadata",
		Run: func(args []string) error {
			fmt.Fprintln(stdout, version.Full())
			return nil
		},
	}
}
