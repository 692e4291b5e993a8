package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/lucamartinetti/split-resume/internal/config"
	"github.com/lucamartinetti/split-resume/internal/progress"
	"github.com/lucamartinetti/split-resume/pkg/carve"
)

// runSplit splits the source file into fixed-size chunks in the output
// directory, resuming from whatever a previous run left behind.
func runSplit(args []string) int {
	fs := flag.NewFlagSet("split", flag.ExitOnError)

	source := fs.String("source", "", "Source file to split (required)")
	outDir := fs.String("out", "", "Output directory for chunks")
	prefix := fs.String("prefix", "", "Chunk filename prefix (required)")
	chunkSize := fs.String("chunk-size", "", "Size of each chunk (e.g. 256MB)")
	buffer := fs.String("buffer", "", "Free-space safety buffer beyond one chunk (e.g. 64MB)")
	algorithm := fs.String("algorithm", "", "Digest algorithm: sha1, sha256, blake3")
	configPath := fs.String("config", "", "YAML configuration file")
	force := fs.Bool("force", false, "Remove existing chunks and sidecars before splitting")
	verbose := fs.Bool("verbose", false, "Verbose logging")

	fs.Usage = func() {
		fmt.Fprintln(os.Stderr, `Usage: carve split [options]

Split a source file into fixed-size chunks named <prefix>aa, <prefix>ab,
and so on, with a digest sidecar per chunk. Rerunning resumes after the
last chunk on disk; running out of free space pauses cleanly.

Options:`)
		fs.PrintDefaults()
	}

	if err := fs.Parse(args); err != nil {
		return ExitInvalidArgs
	}

	cfg, code := loadConfig(*configPath, config.Config{
		Source:    *source,
		OutputDir: *outDir,
		Prefix:    *prefix,
		Algorithm: *algorithm,
		Force:     *force,
		Verbose:   *verbose,
	}, *chunkSize, *buffer)
	if code != ExitSuccess {
		return code
	}
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		fs.Usage()
		return ExitInvalidArgs
	}

	opts, code := engineOptions(cfg)
	if code != ExitSuccess {
		return code
	}
	defer opts.Logger.Sync()

	ctx, cancel := signalContext()
	defer cancel()

	if cfg.Force {
		removed, err := carve.Reset(opts)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error resetting: %v\n", err)
			return ExitGeneralError
		}
		fmt.Fprintf(os.Stderr, "[carve] Removed %d existing files\n", removed)
	}

	result, err := carve.Split(ctx, opts)
	if err != nil {
		return reportError(err)
	}

	fmt.Fprintf(os.Stderr, "[carve] Created %d chunks (%s) in %s\n",
		result.Created,
		progress.FormatBytes(result.BytesWritten),
		progress.FormatDuration(result.Duration))

	if result.Paused {
		fmt.Fprintf(os.Stderr, "[carve] Paused: insufficient free space. %d chunks remain, next is %s%s\n",
			result.Remaining, cfg.Prefix, result.NextSuffix)
		fmt.Fprintln(os.Stderr, "[carve] Free up space and rerun to continue")
		return ExitSuccess
	}

	fmt.Fprintf(os.Stderr, "[carve] Complete: %d chunks cover %s\n",
		result.Plan.Total, progress.FormatBytes(result.Plan.SourceSize))
	return ExitSuccess
}

// loadConfig layers defaults, an optional YAML file, CARVE_ environment
// variables, and flag overrides, in ascending precedence.
func loadConfig(configPath string, flags config.Config, chunkSize, buffer string) (config.Config, int) {
	cfg := config.Default()

	if configPath != "" {
		fileCfg, err := config.LoadFromFile(configPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			return config.Config{}, ExitInvalidArgs
		}
		cfg = fileCfg
	}

	if err := cfg.LoadFromEnv(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return config.Config{}, ExitInvalidArgs
	}

	if chunkSize != "" {
		size, err := progress.ParseBytes(chunkSize)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Invalid chunk size: %v\n", err)
			return config.Config{}, ExitInvalidArgs
		}
		flags.ChunkSize = size
	}
	if buffer != "" {
		size, err := progress.ParseBytes(buffer)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Invalid buffer size: %v\n", err)
			return config.Config{}, ExitInvalidArgs
		}
		flags.SafetyBuffer = size
	}

	return cfg.Merge(flags), ExitSuccess
}

// engineOptions converts CLI configuration to engine options.
func engineOptions(cfg config.Config) (carve.Options, int) {
	alg, err := carve.ParseAlgorithm(cfg.Algorithm)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return carve.Options{}, ExitInvalidArgs
	}
	return carve.Options{
		SourcePath:   cfg.Source,
		OutputDir:    cfg.OutputDir,
		Prefix:       cfg.Prefix,
		ChunkSize:    cfg.ChunkSize,
		SafetyBuffer: cfg.SafetyBuffer,
		Algorithm:    alg,
		Logger:       newLogger(cfg.Verbose),
	}, ExitSuccess
}

// signalContext returns a context cancelled by SIGINT or SIGTERM.
func signalContext() (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		fmt.Fprintln(os.Stderr, "\n[carve] Received interrupt, shutting down...")
		cancel()
	}()

	return ctx, cancel
}

// reportError prints a fatal engine error and maps it to an exit code.
func reportError(err error) int {
	fmt.Fprintf(os.Stderr, "Error: %v\n", err)

	var sizeErr *carve.SizeMismatchError
	var integrityErr *carve.IntegrityMismatchError
	var copyErr *carve.CopyError
	switch {
	case errors.As(err, &sizeErr), errors.As(err, &integrityErr):
		return ExitValidationFailed
	case errors.As(err, &copyErr):
		return ExitCopyFailed
	case errors.Is(err, os.ErrNotExist):
		return ExitSourceNotAccess
	default:
		return ExitGeneralError
	}
}
