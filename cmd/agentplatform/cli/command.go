// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package cli

import (
	"errors"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/spf13/pflag"
)

// Command is a node in the command tree.
type Command struct {
	// Name is the command name as typed (e.g. "verify").
	Name string

	// Summary is the one-line description in the parent's listing.
	Summary string

	// Description is shown in the command's own help.
	Description string

	// Usage overrides the synthesized usage line.
	Usage string

	// Flags returns the command's flag set. Called once per Execute
	// and again for help output, so it must return a fresh set bound
	// to the same variables.
	Flags func() *pflag.FlagSet

	// Subcommands are dispatched by the first positional argument.
	Subcommands []*Command

	// Run receives the positional arguments left after flag parsing.
	Run func(args []string) error

	// Help receives help output. Defaults to io.Discard on commands
	// built without it; the root sets it and children inherit.
	Help io.Writer

	parent *Command
}

// ErrUsage marks errors caused by how the command was invoked.
var ErrUsage = errors.New("usage error")

// Execute parses args and runs the matching command.
func (c *Command) Execute(args []string) error {
	if len(args) > 0 && isHelpFlag(args[0]) {
		c.PrintHelp(c.helpWriter())
		return nil
	}

	if len(c.Subcommands) > 0 && len(args) > 0 && !strings.HasPrefix(args[0], "-") {
		name := args[0]
		for _, sub := range c.Subcommands {
			if sub.Name == name {
				sub.parent = c
				return sub.Execute(args[1:])
			}
		}
		if suggestion := suggestCommand(name, c.Subcommands); suggestion != "" {
			return fmt.Errorf("%w: unknown command %q (did you mean %q?)\n\nRun '%s --help' for usage.",
				ErrUsage, name, suggestion, c.fullName())
		}
		return fmt.Errorf("%w: unknown command %q\n\nRun '%s --help' for usage.",
			ErrUsage, name, c.fullName())
	}

	if len(c.Subcommands) > 0 && c.Run == nil {
		c.PrintHelp(c.helpWriter())
		return fmt.Errorf("%w: subcommand required", ErrUsage)
	}

	if c.Flags != nil {
		flagSet := c.Flags()
		flagSet.SetOutput(io.Discard)
		if err := flagSet.Parse(args); err != nil {
			if errors.Is(err, pflag.ErrHelp) {
				c.PrintHelp(c.helpWriter())
				return nil
			}
			return fmt.Errorf("%w: %v\n\nRun '%s --help' for usage.", ErrUsage, err, c.fullName())
		}
		args = flagSet.Args()
	}

	if c.Run == nil {
		c.PrintHelp(c.helpWriter())
		return fmt.Errorf("no action defined for %q", c.fullName())
	}
	return c.Run(args)
}

// PrintHelp writes help for c to w.
func (c *Command) PrintHelp(w io.Writer) {
	name := c.fullName()

	if c.Description != "" {
		fmt.Fprintf(w, "%s\n\n", c.Description)
	} else if c.Summary != "" {
		fmt.Fprintf(w, "%s\n\n", c.Summary)
	}

	switch {
	case c.Usage != "":
		fmt.Fprintf(w, "Usage:\n  %s\n", c.Usage)
	case len(c.Subcommands) > 0:
		fmt.Fprintf(w, "Usage:\n  %s <command> [flags]\n", name)
	default:
		fmt.Fprintf(w, "Usage:\n  %s [flags]\n", name)
	}

	if len(c.Subcommands) > 0 {
		fmt.Fprintf(w, "\nCommands:\n")
		tw := tabwriter.NewWriter(w, 2, 0, 3, ' ', 0)
		for _, sub := range c.Subcommands {
			fmt.Fprintf(tw, "  %s\t%s\n", sub.Name, sub.Summary)
		}
		tw.Flush()
	}

	if c.Flags != nil {
		var flagHelp strings.Builder
		flagSet := c.Flags()
		flagSet.SetOutput(&flagHelp)
		flagSet.PrintDefaults()
		if flagHelp.Len() > 0 {
			fmt.Fprintf(w, "\nFlags:\n%s", flagHelp.String())
		}
	}

	if len(c.Subcommands) > 0 {
		fmt.Fprintf(w, "\nRun '%s <command> --help' for more information on a command.\n", name)
	}
}

func (c *Command) helpWriter() io.Writer {
	for command := c; command != nil; command = command.parent {
		if command.Help != nil {
			return command.Help
		}
	}
	return io.Discard
}

// fullName returns the command path, e.g. "agentplatform trace verify".
func (c *Command) fullName() string {
	if c.parent == nil {
		return c.Name
	}
	return c.parent.fullName() + " " + c.Name
}

func isHelpFlag(arg string) bool {
	return arg == "-h" || arg == "--help" || arg == "help"
}

// suggestCommand returns the subcommand within edit distance 3 of
// unknown, or "".
func suggestCommand(unknown string, commands []*Command) string {
	bestName := ""
	bestDistance := 4
	for _, command := range commands {
		if distance := levenshtein(unknown, command.Name); distance < bestDistance {
			bestDistance = distance
			bestName = command.Name
		}
	}
	return bestName
}

// levenshtein is the single-character edit distance between a and b.
func levenshtein(a, b string) int {
	if len(a) > len(b) {
		a, b = b, a
	}
	previous := make([]int, len(a)+1)
	for i := range previous {
		previous[i] = i
	}
	for j := 1; j <= len(b); j++ {
		current := make([]int, len(a)+1)
		current[0] = j
		for i := 1; i <= len(a); i++ {
			cost := 1
			if a[i-1] == b[j-1] {
				cost = 0
			}
			current[i] = min(previous[i]+1, current[i-1]+1, previous[i-1]+cost)
		}
		previous = current
	}
	return previous[len(a)]
}
