// Package main provides the entry point for the riskctl CLI tool.
//
// riskctl is a thin command-line consumer of the risk quantification
// engine's service facade: it builds RiskTrees, mutates them, and
// queries loss exceedance curves against a filesystem-backed
// repository. The engine itself is a library (internal/service); this
// binary exists for manual operation and scripting, not as the
// product.
package main

import (
	"fmt"
	"os"

	riskerrors "github.com/riskforge/lossengine/internal/errors"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(exitCode(err))
	}
}

// exitCode maps an error's class to a shell exit status: validation and
// not-found problems are the caller's fault (2), conflicts mean retry
// (3), anything else is the engine's fault (1).
func exitCode(err error) int {
	switch riskerrors.ClassOf(err) {
	case riskerrors.ClassValidation, riskerrors.ClassNotFound:
		return 2
	case riskerrors.ClassConflict:
		return 3
	default:
		return 1
	}
}
