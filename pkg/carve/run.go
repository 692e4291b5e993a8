package carve

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"go.uber.org/zap"
)

// Options configures a split or sync run. SourcePath, OutputDir, Prefix
// and ChunkSize are required; the rest default.
type Options struct {
	// SourcePath is the large file being split.
	SourcePath string

	// OutputDir is where chunk files and digest sidecars are written.
	OutputDir string

	// Prefix is the chunk filename prefix; chunks are named
	// <Prefix><suffix> with a two-letter suffix ("aa", "ab", ...).
	Prefix string

	// ChunkSize is the size of each chunk in bytes. Must be positive.
	ChunkSize int64

	// SafetyBuffer is free space required beyond one chunk before a new
	// chunk is started. Must be non-negative.
	SafetyBuffer int64

	// Algorithm selects the content digest. Default: SHA1.
	Algorithm Algorithm

	// Logger receives warnings and per-chunk events. Default: no-op.
	Logger *zap.Logger

	// Source overrides the byte-range reader over SourcePath. Used in
	// tests; defaults to FileSource(SourcePath).
	Source RangeReader

	// FreeSpace overrides the free-space probe. Used in tests; defaults
	// to DiskFree.
	FreeSpace FreeSpaceFunc
}

func (o Options) validate() error {
	if o.SourcePath == "" {
		return errors.New("carve: source path is required")
	}
	if o.OutputDir == "" {
		return errors.New("carve: output directory is required")
	}
	if o.Prefix == "" {
		return errors.New("carve: chunk prefix is required")
	}
	if o.ChunkSize <= 0 {
		return errors.New("carve: chunk size must be positive")
	}
	if o.SafetyBuffer < 0 {
		return errors.New("carve: safety buffer must be non-negative")
	}
	return nil
}

func (o Options) withDefaults() Options {
	if o.Algorithm == "" {
		o.Algorithm = SHA1
	}
	if o.Logger == nil {
		o.Logger = zap.NewNop()
	}
	if o.Source == nil {
		o.Source = FileSource(o.SourcePath)
	}
	if o.FreeSpace == nil {
		o.FreeSpace = DiskFree
	}
	return o
}

// Result summarizes a split run.
type Result struct {
	Plan         *Plan
	Created      int
	BytesWritten int64
	Duration     time.Duration

	// Paused is set when the run stopped cleanly for lack of free
	// space. This is a normal outcome, not a failure: free space and
	// rerun to continue from NextSuffix.
	Paused     bool
	NextSuffix string
	Remaining  int
}

// Complete reports whether every chunk of the plan now exists (or has
// existed; gaps below the boundary count as done).
func (r *Result) Complete() bool { return !r.Paused }

// Split runs the resumable chunking engine: plan the chunk layout from
// the source size, find the resume point from the chunks already on
// disk, verify the boundary chunk, then create the remaining chunks in
// order, gating each one on free-space headroom.
//
// Chunk indices are processed strictly sequentially; a crash mid-write
// leaves a partial file that the next invocation rejects with a
// SizeMismatchError before writing anything new.
func Split(ctx context.Context, opts Options) (*Result, error) {
	if err := opts.validate(); err != nil {
		return nil, err
	}
	opts = opts.withDefaults()
	log := opts.Logger
	start := time.Now()

	if fi, err := os.Stat(opts.OutputDir); err != nil {
		return nil, fmt.Errorf("carve: output dir: %w", err)
	} else if !fi.IsDir() {
		return nil, fmt.Errorf("carve: output dir %s is not a directory", opts.OutputDir)
	}

	plan, err := NewPlan(opts.SourcePath, opts.ChunkSize)
	if err != nil {
		return nil, err
	}

	inv, err := TakeInventory(opts.OutputDir, opts.Prefix, plan, log)
	if err != nil {
		return nil, err
	}

	if err := VerifyBoundary(opts.Source, plan, opts.OutputDir, opts.Prefix, inv, opts.Algorithm, log); err != nil {
		return nil, err
	}

	result := &Result{Plan: plan}
	for i := inv.ResumeIndex(); i < plan.Total; i++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		spec := plan.Spec(i)
		ok, available, err := hasHeadroom(opts.FreeSpace, opts.OutputDir, opts.ChunkSize, opts.SafetyBuffer)
		if err != nil {
			return nil, err
		}
		if !ok {
			result.Paused = true
			result.NextSuffix = spec.Suffix
			result.Remaining = plan.Total - i
			log.Info("insufficient free space, pausing",
				zap.Int64("available", available),
				zap.Int64("required", opts.ChunkSize+opts.SafetyBuffer),
				zap.String("next_suffix", spec.Suffix),
				zap.Int("remaining", result.Remaining))
			result.Duration = time.Since(start)
			return result, nil
		}

		path := plan.ChunkPath(opts.OutputDir, opts.Prefix, i)
		digest, err := WriteChunk(opts.Source, spec, path, opts.Algorithm)
		if err != nil {
			return nil, err
		}
		result.Created++
		result.BytesWritten += spec.Length
		log.Info("chunk written",
			zap.String("chunk", path),
			zap.Int64("bytes", spec.Length),
			zap.String("digest", digest))
	}

	result.Duration = time.Since(start)
	return result, nil
}

// Reset removes every chunk file and digest sidecar of the plan from the
// output directory, for a forced restart. Only files named by the plan
// are touched.
func Reset(opts Options) (removed int, err error) {
	if err := opts.validate(); err != nil {
		return 0, err
	}
	opts = opts.withDefaults()

	plan, err := NewPlan(opts.SourcePath, opts.ChunkSize)
	if err != nil {
		return 0, err
	}

	for i := 0; i < plan.Total; i++ {
		path := plan.ChunkPath(opts.OutputDir, opts.Prefix, i)
		for _, p := range []string{path, opts.Algorithm.SidecarPath(path)} {
			if err := os.Remove(p); err != nil {
				if os.IsNotExist(err) {
					continue
				}
				return removed, fmt.Errorf("carve: remove %s: %w", p, err)
			}
			removed++
		}
	}
	return removed, nil
}
