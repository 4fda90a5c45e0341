// File: cmd/dailyembed/main.go
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"runtime/debug"
	"syscall"

	"github.com/xkilldash9x/dailyembed/cmd"
	"github.com/xkilldash9x/dailyembed/internal/config"
	"github.com/xkilldash9x/dailyembed/internal/observability"
)

const panicLogFile = "panic.log"

// Exit codes.
const (
	exitOK       = 0
	exitFailure  = 1
	exitConfig   = 2
	exitCanceled = 130
)

// Define function variables for dependency injection/mocking in tests.
var (
	osWriteFile = os.WriteFile
	osExit      = os.Exit
	execute     = cmd.Execute
)

func main() {
	defer handlePanic()

	// Set up a context that listens for interrupt signals (SIGINT, SIGTERM) for graceful shutdown.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	code := exitCode(execute(ctx))
	stop()
	osExit(code)
}

// exitCode maps a command error to the process status.
func exitCode(err error) int {
	var cfgErr *config.ConfigurationError
	switch {
	case err == nil:
		return exitOK
	case errors.Is(err, context.Canceled):
		return exitCanceled
	case errors.As(err, &cfgErr):
		return exitConfig
	default:
		return exitFailure
	}
}

// handlePanic writes the stack of an unrecovered panic to panicLogFile and
// exits non-zero.
func handlePanic() {
	r := recover()
	if r == nil {
		return
	}
	// Ensure logs are flushed before proceeding.
	observability.Sync()

	panicMessage := fmt.Sprintf("panic: %v\n\n%s", r, debug.Stack())
	if err := osWriteFile(panicLogFile, []byte(panicMessage), 0o644); err != nil {
		fmt.Fprintf(os.Stderr, "CRITICAL: Failed to write panic log: %v\n", err)
		fmt.Fprintf(os.Stderr, "Panic details:\n%s\n", panicMessage)
		osExit(exitFailure)
		return
	}
	fmt.Fprintf(os.Stderr, "dailyembed crashed; details logged to %s\n", panicLogFile)
	osExit(exitFailure)
}
