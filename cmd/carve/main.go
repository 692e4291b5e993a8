package main

import (
	"fmt"
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Exit codes
const (
	ExitSuccess          = 0
	ExitGeneralError     = 1
	ExitInvalidArgs      = 2
	ExitSourceNotAccess  = 3
	ExitValidationFailed = 4
	ExitCopyFailed       = 5
	ExitStorageError     = 6
	ExitSyncIncomplete   = 7
)

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	if len(args) == 0 {
		printUsage()
		return ExitInvalidArgs
	}

	command := args[0]
	cmdArgs := args[1:]

	switch command {
	case "split":
		return runSplit(cmdArgs)
	case "sync":
		return runSync(cmdArgs)
	case "status":
		return runStatus(cmdArgs)
	case "help", "-h", "--help":
		printUsage()
		return ExitSuccess
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", command)
		printUsage()
		return ExitInvalidArgs
	}
}

func printUsage() {
	fmt.Fprintln(os.Stderr, `Usage: carve <command> [options]

Commands:
  split     Split a source file into fixed-size chunks, resuming where a
            previous run stopped
  sync      Reconcile chunks against a remote object store: verify by
            digest, upload what is missing, delete local copies after proof
  status    Report chunk layout, resume point, and local/synced state

Run 'carve <command> -h' for command-specific help.`)
}

// newLogger builds the CLI logger: console encoding on stderr, debug
// level when verbose.
func newLogger(verbose bool) *zap.Logger {
	cfg := zap.NewProductionConfig()
	cfg.Encoding = "console"
	cfg.OutputPaths = []string{"stderr"}
	cfg.ErrorOutputPaths = []string{"stderr"}
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	if verbose {
		cfg.Level = zap.NewAtomicLevelAt(zap.DebugLevel)
	}
	log, err := cfg.Build()
	if err != nil {
		return zap.NewNop()
	}
	return log
}
