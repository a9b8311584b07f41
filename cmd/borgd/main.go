// Package main is the entry point for borgd.
package main

import (
	"errors"
	"os"

	"borgd/internal/services/borg"
)

func main() {
	if err := Execute(); err != nil {
		// single-shot operations propagate the external tool's exit code
		var exitErr *borg.ExitError
		if errors.As(err, &exitErr) && exitErr.Code > 0 {
			os.Exit(exitErr.Code)
		}
		os.Exit(1)
	}
}
