// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"io"
	"log/slog"

	"github.com/spf13/pflag"

	"github.com/bureau-foundation/agentplatform/cmd/agentplatform/cli"
	"github.com/bureau-foundation/agentplatform/lib/config"
)

// root builds the command tree. Results go to stdout; help goes to
// stderr.
func root(stdout, stderr io.Writer) *cli.Command {
	return &cli.Command{
		Name:        "agentplatform",
		Description: "Run and inspect agent platforms.",
		Help:        stderr,
		Subcommands: []*cli.Command{
			runCommand(stdout),
			simulateCommand(stdout),
			traceCommand(stdout),
			hostnameCommand(stdout),
			versionCommand(stdout),
		},
	}
}

// configFlags are shared by commands that read a config file.
type configFlags struct {
	path  string
	debug bool
}

func (f *configFlags) register(flagSet *pflag.FlagSet) {
	flagSet.StringVar(&f.path, "config", "", "config file (default: $"+config.EnvironmentVariable+")")
	flagSet.BoolVar(&f.debug, "debug", false, "log at debug level regardless of config")
}

// load reads the config named by --config, or AGENTPLATFORM_CONFIG.
func (f *configFlags) load() (*config.Config, error) {
	if f.path != "" {
		return config.LoadFile(f.path)
	}
	return config.Load()
}

// logger builds the process logger at the configured level.
func (f *configFlags) logger(cfg *config.Config) (*slog.Logger, error) {
	level, err := cfg.Logging.SlogLevel()
	if err != nil {
		return nil, err
	}
	if f.debug {
		level = slog.LevelDebug
	}
	return cli.NewLogger(level), nil
}
