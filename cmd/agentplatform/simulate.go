// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/spf13/pflag"

	"github.com/bureau-foundation/agentplatform/cmd/agentplatform/cli"
	"github.com/bureau-foundation/agentplatform/lib/config"
)

type simulateFlags struct {
	configFlags
	until       int64
	tracePath   string
	compression string
}

func simulateCommand(stdout io.Writer) *cli.Command {
	var flags simulateFlags
	return &cli.Command{
		Name:    "simulate",
		Summary: "Run the configuration on the simulated engine",
		Description: `Run the configuration on the simulated engine, ignoring engine.kind
and engine.speed, and print the dispatch count and trace digest.

Two runs of the same configuration always print the same digest.`,
		Usage: "agentplatform simulate [--config FILE] [--until MS] [--trace FILE] [--compression none|lz4|zstd]",
		Flags: func() *pflag.FlagSet {
			flagSet := pflag.NewFlagSet("simulate", pflag.ContinueOnError)
			flags.register(flagSet)
			flagSet.Int64Var(&flags.until, "until", 0, "logical millisecond to stop at (default: start + engine.duration)")
			flagSet.StringVar(&flags.tracePath, "trace", "", "write the dispatch trace here (default: trace.path)")
			flagSet.StringVar(&flags.compression, "compression", "", "trace compression (default: trace.compression)")
			return flagSet
		},
		Run: func(args []string) error {
			if len(args) > 0 {
				return fmt.Errorf("%w: unexpected argument %q", cli.ErrUsage, args[0])
			}
			cfg, err := flags.load()
			if err != nil {
				return err
			}
			logger, err := flags.logger(cfg)
			if err != nil {
				return err
			}
			return simulate(context.Background(), stdout, cfg, flags, logger)
		},
	}
}

// simulate runs cfg on an unpaced simulated engine and reports the
// dispatch count and digest.
func simulate(ctx context.Context, stdout io.Writer, cfg *config.Config, flags simulateFlags, logger *slog.Logger) error {
	simulated := *cfg
	simulated.Engine.Kind = config.EngineSimulated
	simulated.Engine.Speed = 0
	if flags.until > 0 {
		if flags.until < simulated.Engine.StartMillis {
			return fmt.Errorf("%w: --until %d is before the start time %d", cli.ErrUsage, flags.until, simulated.Engine.StartMillis)
		}
		simulated.Engine.Duration = (time.Duration(flags.until-simulated.Engine.StartMillis) * time.Millisecond).String()
	}
	if err := simulated.Validate(); err != nil {
		return err
	}

	a, err := assemble(&simulated, logger)
	if err != nil {
		return err
	}
	if err := a.run(ctx); err != nil {
		return err
	}

	recorded := a.recorder.Trace(a.traceHeader())
	fmt.Fprintf(stdout, "dispatches: %d\n", len(recorded.Records))
	fmt.Fprintf(stdout, "digest:     %s\n", recorded.Digest())

	tracePath := cfg.Trace.Path
	if flags.tracePath != "" {
		tracePath = flags.tracePath
	}
	compression := cfg.Trace.Compression
	if flags.compression != "" {
		compression = flags.compression
	}
	return a.writeTrace(tracePath, compression)
}
