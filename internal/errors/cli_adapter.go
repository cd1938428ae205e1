package errors

import (
	"fmt"
	"log/slog"
	"os"
)

// Exit codes form an external contract with the scheduling system that runs
// the mover: it distinguishes task-level fatals from publish failures.
const (
	ExitSuccess    = 0 // everything published
	ExitJobsFailed = 1 // one or more copy jobs failed after retries
	ExitUsage      = 2 // bad invocation (argument count, unreadable flags)
	ExitTaskFatal  = 3 // config/task/manifest failure before any job ran
)

// CLIErrorAdapter handles error presentation and exit code determination for the CLI.
type CLIErrorAdapter struct {
	verbose bool
	logger  *slog.Logger
}

// NewCLIErrorAdapter creates a new CLI error adapter.
func NewCLIErrorAdapter(verbose bool, logger *slog.Logger) *CLIErrorAdapter {
	if logger == nil {
		logger = slog.Default()
	}
	return &CLIErrorAdapter{
		verbose: verbose,
		logger:  logger,
	}
}

// ExitCodeFor determines the appropriate exit code for an error.
func (a *CLIErrorAdapter) ExitCodeFor(err error) int {
	if err == nil {
		return ExitSuccess
	}

	if bme, ok := err.(*BeetmoverError); ok {
		return exitCodeFromCategory(bme)
	}

	return ExitTaskFatal
}

// exitCodeFromCategory maps BeetmoverError categories to exit codes. Anything
// that aborts before the orchestrator ran is a task-level fatal.
func exitCodeFromCategory(err *BeetmoverError) int {
	switch err.Category {
	case CategoryConfig, CategoryValidation, CategoryTask, CategoryManifest:
		return ExitTaskFatal
	case CategoryDownload, CategoryUpload, CategoryNetwork, CategorySource:
		return ExitJobsFailed
	default:
		return ExitTaskFatal
	}
}

// Report logs the error and returns the exit code the process should use.
func (a *CLIErrorAdapter) Report(err error) int {
	if err == nil {
		return ExitSuccess
	}
	if bme, ok := err.(*BeetmoverError); ok {
		attrs := []any{"category", string(bme.Category), "error", bme.Error()}
		if a.verbose && bme.Context != nil {
			for k, v := range bme.Context {
				attrs = append(attrs, k, v)
			}
		}
		a.logger.Error("Run aborted", attrs...)
	} else {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
	}
	return a.ExitCodeFor(err)
}
