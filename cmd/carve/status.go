package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/lucamartinetti/split-resume/internal/config"
	"github.com/lucamartinetti/split-resume/internal/progress"
	"github.com/lucamartinetti/split-resume/pkg/carve"
)

// runStatus reports the chunk layout and local state without changing
// anything on disk.
func runStatus(args []string) int {
	fs := flag.NewFlagSet("status", flag.ExitOnError)

	source := fs.String("source", "", "Source file (required)")
	outDir := fs.String("out", "", "Directory holding the chunks")
	prefix := fs.String("prefix", "", "Chunk filename prefix (required)")
	chunkSize := fs.String("chunk-size", "", "Size of each chunk (e.g. 256MB)")
	algorithm := fs.String("algorithm", "", "Digest algorithm: sha1, sha256, blake3")
	configPath := fs.String("config", "", "YAML configuration file")
	verbose := fs.Bool("verbose", false, "Verbose logging")

	fs.Usage = func() {
		fmt.Fprintln(os.Stderr, `Usage: carve status [options]

Report how the source splits, which chunks exist locally, which survive
only as digest sidecars, and where the next split run would resume.
Runs the same structural validation as split, so corrupt chunks are
reported here too.

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
		Verbose:   *verbose,
	}, *chunkSize, "")
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

	report, err := carve.Status(opts)
	if err != nil {
		return reportError(err)
	}

	fmt.Printf("Source: %s (%s)\n", cfg.Source, progress.FormatBytes(report.Plan.SourceSize))
	fmt.Printf("Chunks: %d x %s\n", report.Plan.Total, progress.FormatBytes(report.Plan.ChunkSize))
	fmt.Printf("Present locally: %d\n", report.Present)
	fmt.Printf("Sidecar only (synced or relocated): %d\n", report.SidecarOnly)
	if report.MissingBelow > 0 {
		fmt.Printf("Missing below boundary: %d\n", report.MissingBelow)
	}

	if report.NextSuffix == "" {
		fmt.Println("Split: complete")
	} else {
		fmt.Printf("Split: %d chunks remain, next is %s%s\n",
			report.Remaining, cfg.Prefix, report.NextSuffix)
	}

	return ExitSuccess
}
