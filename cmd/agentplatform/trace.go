// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/pflag"

	"github.com/bureau-foundation/agentplatform/cmd/agentplatform/cli"
	"github.com/bureau-foundation/agentplatform/lib/codec"
	"github.com/bureau-foundation/agentplatform/lib/trace"
)

func traceCommand(stdout io.Writer) *cli.Command {
	return &cli.Command{
		Name:    "trace",
		Summary: "Inspect dispatch traces",
		Subcommands: []*cli.Command{
			traceVerifyCommand(stdout),
			traceDumpCommand(stdout),
		},
	}
}

func traceVerifyCommand(stdout io.Writer) *cli.Command {
	return &cli.Command{
		Name:    "verify",
		Summary: "Check that two traces record the same dispatches",
		Description: `Compare the dispatch records of two trace files. Prints the shared
digest and exits 0 when they match; prints the first differing record
and exits 1 when they do not. Headers (such as when each trace was
recorded) are not compared.`,
		Usage: "agentplatform trace verify A.trace B.trace",
		Run: func(args []string) error {
			if len(args) != 2 {
				return fmt.Errorf("%w: trace verify needs exactly two trace files", cli.ErrUsage)
			}
			return verifyTraces(stdout, args[0], args[1])
		},
	}
}

func verifyTraces(stdout io.Writer, leftPath, rightPath string) error {
	left, err := trace.ReadFile(leftPath)
	if err != nil {
		return err
	}
	right, err := trace.ReadFile(rightPath)
	if err != nil {
		return err
	}

	leftDigest, rightDigest := left.Digest(), right.Digest()
	if leftDigest == rightDigest {
		fmt.Fprintf(stdout, "identical: %d dispatches, digest %s\n", len(left.Records), leftDigest)
		return nil
	}

	fmt.Fprintf(stdout, "traces differ\n  %s: %d dispatches, digest %s\n  %s: %d dispatches, digest %s\n",
		leftPath, len(left.Records), leftDigest,
		rightPath, len(right.Records), rightDigest)
	if divergence := trace.Compare(left.Records, right.Records); divergence != nil {
		fmt.Fprintf(stdout, "  first difference at %s\n", divergence)
	}
	return &cli.ExitError{Code: 1}
}

func traceDumpCommand(stdout io.Writer) *cli.Command {
	var diagnostic bool
	return &cli.Command{
		Name:    "dump",
		Summary: "Print the records of a trace file",
		Usage:   "agentplatform trace dump [--cbor] FILE",
		Flags: func() *pflag.FlagSet {
			flagSet := pflag.NewFlagSet("dump", pflag.ContinueOnError)
			flagSet.BoolVar(&diagnostic, "cbor", false, "print the raw payload in CBOR diagnostic notation")
			return flagSet
		},
		Run: func(args []string) error {
			if len(args) != 1 {
				return fmt.Errorf("%w: trace dump needs one trace file", cli.ErrUsage)
			}
			return dumpTrace(stdout, args[0], diagnostic)
		},
	}
}

func dumpTrace(stdout io.Writer, path string, diagnostic bool) error {
	if diagnostic {
		data, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("reading trace: %w", err)
		}
		payload, err := trace.Payload(data)
		if err != nil {
			return fmt.Errorf("%s: %w", path, err)
		}
		notation, err := codec.Diagnose(payload)
		if err != nil {
			return fmt.Errorf("%s: %w", path, err)
		}
		fmt.Fprintln(stdout, notation)
		return nil
	}

	recorded, err := trace.ReadFile(path)
	if err != nil {
		return err
	}
	fmt.Fprintf(stdout, "engine %s, start %dms, recorded %s\n",
		recorded.Header.Engine, recorded.Header.StartMillis, recorded.Header.RecordedAt.Format("2006-01-02T15:04:05Z07:00"))
	for _, record := range recorded.Records {
		fmt.Fprintln(stdout, record.String())
	}
	fmt.Fprintf(stdout, "digest %s\n", recorded.Digest())
	return nil
}
