package main

import (
	"encoding/json"
	"fmt"
	"os"
)

// errorHandled is set by outputError so main() doesn't double-print.
var errorHandled bool

func outputResult(result Result) error {
	if flagFormat == "text" {
		if result.Results != nil {
			fmt.Printf("%+v\n", result.Results)
		}
		return nil
	}
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(result)
}

func outputError(command string, err error) error {
	errorHandled = true
	if flagFormat == "text" {
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		return err
	}
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	_ = enc.Encode(Result{Command: command, Error: err.Error()})
	return err
}
