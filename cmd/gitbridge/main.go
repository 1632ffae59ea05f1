// Command gitbridge exposes the repository command façade on the command
// line, mainly for debugging and scripting: each subcommand runs one
// façade operation and prints the typed result as JSON.
package main

import (
	"fmt"
	"os"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}
