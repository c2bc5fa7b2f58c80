// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/pflag"

	"github.com/bureau-foundation/agentplatform/cmd/agentplatform/cli"
	"github.com/bureau-foundation/agentplatform/lib/engine"
)

func runCommand(stdout io.Writer) *cli.Command {
	var flags configFlags
	return &cli.Command{
		Name:    "run",
		Summary: "Run the configured platform",
		Description: `Run the configured platform.

With the real-time engine the platform runs until SIGINT or SIGTERM,
or until engine.duration elapses when it is set. With the simulated
engine it runs until engine.duration of logical time has passed.
The dispatch trace is written to trace.path when one is configured.`,
		Flags: func() *pflag.FlagSet {
			flagSet := pflag.NewFlagSet("run", pflag.ContinueOnError)
			flags.register(flagSet)
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
			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			a, err := assemble(cfg, logger)
			if err != nil {
				return err
			}
			if err := a.run(ctx); err != nil {
				return err
			}
			fmt.Fprintf(stdout, "%d dispatches\n", a.recorder.Len())
			return a.writeTrace(cfg.Trace.Path, cfg.Trace.Compression)
		},
	}
}

// run starts the platform, drives it for the configured duration (or
// until ctx is done), and shuts it down. Container start failures are
// logged by the platform and do not abort the run unless every
// container failed.
func (a *assembly) run(ctx context.Context) error {
	duration, err := a.config.Engine.RunDuration()
	if err != nil {
		return err
	}

	a.logIdentity(ctx)
	if err := a.platform.Start(ctx); err != nil && !a.platform.IsRunning() {
		a.platform.Shutdown(context.Background())
		return fmt.Errorf("starting platform: %w", err)
	}

	var driveErr error
	if a.simulated != nil {
		until := a.config.Engine.StartMillis + duration.Milliseconds()
		driveErr = a.simulated.RunUntil(ctx, until)
	} else {
		driveErr = a.waitRealtime(ctx, duration)
	}

	shutdownErr := a.platform.Shutdown(context.Background())
	if driveErr != nil && !errors.Is(driveErr, context.Canceled) {
		return errors.Join(driveErr, shutdownErr)
	}
	return shutdownErr
}

// waitRealtime blocks until ctx is done or duration elapses on the
// engine's clock. A zero duration waits for ctx alone.
func (a *assembly) waitRealtime(ctx context.Context, duration time.Duration) error {
	if duration <= 0 {
		<-ctx.Done()
		a.logger.Info("received shutdown signal")
		return nil
	}
	err := a.platform.Sleep(ctx, duration.Milliseconds())
	if errors.Is(err, context.Canceled) {
		a.logger.Info("received shutdown signal")
		return nil
	}
	if errors.Is(err, engine.ErrClosed) {
		return nil
	}
	return err
}
