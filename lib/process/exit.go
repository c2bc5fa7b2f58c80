// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package process

import (
	"fmt"
	"io"
	"os"
)

// Exit ends main with the outcome of run. A nil error returns so main
// can fall off the end. An error with an ExitCode() int method exits
// with that code silently; anything else is written to stderr as
// "error: err" and exits with code 1.
func Exit(err error) {
	if err == nil {
		return
	}
	os.Exit(report(os.Stderr, err))
}

// report writes err to w unless it carries its own exit code, and
// returns the code to exit with.
func report(w io.Writer, err error) int {
	if coder, ok := err.(interface{ ExitCode() int }); ok {
		return coder.ExitCode()
	}
	fmt.Fprintf(w, "error: %v\n", err)
	return 1
}
