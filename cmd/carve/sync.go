package main

import (
	"errors"
	"flag"
	"fmt"
	"os"

	"gocloud.dev/blob"
	_ "gocloud.dev/blob/fileblob"
	_ "gocloud.dev/blob/gcsblob"
	_ "gocloud.dev/blob/s3blob"

	"github.com/lucamartinetti/split-resume/internal/config"
	"github.com/lucamartinetti/split-resume/internal/remote"
	"github.com/lucamartinetti/split-resume/pkg/carve"
)

// runSync reconciles every chunk of the source against a remote object
// store, uploading what is missing and deleting local copies only after
// a verified digest match.
func runSync(args []string) int {
	fs := flag.NewFlagSet("sync", flag.ExitOnError)

	source := fs.String("source", "", "Source file the chunks were split from (required)")
	outDir := fs.String("out", "", "Directory holding the chunks")
	prefix := fs.String("prefix", "", "Chunk filename prefix (required)")
	chunkSize := fs.String("chunk-size", "", "Size of each chunk (e.g. 256MB)")
	algorithm := fs.String("algorithm", "", "Digest algorithm: sha1, sha256, blake3")
	bucket := fs.String("bucket", "", "Destination bucket URL, e.g. s3://bucket or gs://bucket (required)")
	remotePrefix := fs.String("remote-prefix", "", "Remote object name prefix (default: chunk prefix)")
	configPath := fs.String("config", "", "YAML configuration file")
	verbose := fs.Bool("verbose", false, "Verbose logging")

	fs.Usage = func() {
		fmt.Fprintln(os.Stderr, `Usage: carve sync [options]

Walk every chunk of the source and reconcile it with the remote store:
verify existing remote objects by digest, upload missing ones, and
delete the local chunk only after a positive match. The digest sidecar
is always kept; chunks already synced and deleted are settled from their
sidecars without any data transfer.

Options:`)
		fs.PrintDefaults()
	}

	if err := fs.Parse(args); err != nil {
		return ExitInvalidArgs
	}

	cfg, code := loadConfig(*configPath, config.Config{
		Source:       *source,
		OutputDir:    *outDir,
		Prefix:       *prefix,
		Algorithm:    *algorithm,
		Bucket:       *bucket,
		RemotePrefix: *remotePrefix,
		Verbose:      *verbose,
	}, *chunkSize, "")
	if code != ExitSuccess {
		return code
	}
	if err := cfg.ValidateSync(); err != nil {
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

	bkt, err := blob.OpenBucket(ctx, cfg.Bucket)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error opening bucket: %v\n", err)
		return ExitStorageError
	}
	defer bkt.Close()

	result, err := carve.Sync(ctx, carve.SyncOptions{
		Options:      opts,
		Store:        remote.NewStore(bkt),
		RemotePrefix: cfg.RemotePrefix,
	})
	if err != nil {
		if ctx.Err() != nil {
			fmt.Fprintln(os.Stderr, "[carve] Sync interrupted, rerun to continue")
			return ExitGeneralError
		}
		if errors.Is(err, carve.ErrRemoteUnavailable) {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			return ExitStorageError
		}
		return reportError(err)
	}

	fmt.Fprintf(os.Stderr, "[carve] Sync: %d verified, %d uploaded, %d settled from sidecars\n",
		result.Verified, result.Uploaded, result.Cached)

	if !result.Ok() {
		fmt.Fprintf(os.Stderr, "[carve] %d chunks failed and were retained locally:\n", len(result.Failed))
		for _, f := range result.Failed {
			fmt.Fprintf(os.Stderr, "  - %s%s: %v\n", cfg.Prefix, f.Suffix, f.Err)
		}
		fmt.Fprintln(os.Stderr, "[carve] Rerun to retry the failed chunks")
		return ExitSyncIncomplete
	}

	fmt.Fprintf(os.Stderr, "[carve] All %d chunks synced to %s\n", result.Plan.Total, cfg.Bucket)
	return ExitSuccess
}
