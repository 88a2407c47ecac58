// Command codegraph drives indexing and cache maintenance from outside
// the MCP server process: a CI step or a developer can run `codegraph
// index` without starting an agent session.
package main

import (
	"fmt"
	"os"
)

var flagFormat string

func main() {
	if err := rootCmd.Execute(); err != nil {
		if !errorHandled {
			fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		}
		os.Exit(1)
	}
}

func validateFormat(format string) error {
	if format != "json" && format != "text" {
		return fmt.Errorf("invalid --format %q: must be json or text", format)
	}
	return nil
}
