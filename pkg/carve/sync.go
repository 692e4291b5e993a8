package carve

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"go.uber.org/zap"
)

// ObjectStore is the remote capability the sync engine runs against.
// Connection and auth setup happen outside the engine; implementations
// live in internal/remote.
type ObjectStore interface {
	// Accessible reports whether the store can be used at all. Called
	// once before any chunk is processed.
	Accessible(ctx context.Context) error

	// Digest returns the hex content digest of the named object as the
	// store last recorded it. Returns an error wrapping
	// ErrObjectNotFound when the object does not exist; an existing
	// object with no recorded digest returns "".
	Digest(ctx context.Context, name string) (string, error)

	// Upload stores the local file under name, recording digest as the
	// object's content digest.
	Upload(ctx context.Context, name, localPath, digest string) error
}

// UploadVerifyError indicates a post-upload digest re-check failed. The
// upload is not trusted and the local chunk is retained for retry.
type UploadVerifyError struct {
	Name   string
	Local  string
	Remote string
}

func (e *UploadVerifyError) Error() string {
	return fmt.Sprintf("carve: upload of %s not verified: local digest %s, remote digest %s",
		e.Name, e.Local, e.Remote)
}

// SyncOptions configures a sync run.
type SyncOptions struct {
	Options

	// Store is the remote object store. Required.
	Store ObjectStore

	// RemotePrefix prefixes the two-letter suffix to form the remote
	// object name. Defaults to Options.Prefix.
	RemotePrefix string
}

// ChunkFailure records a per-chunk sync step that failed. The local
// chunk, if any, is retained for retry and the run continues.
type ChunkFailure struct {
	Index  int
	Suffix string
	Err    error
}

// SyncResult summarizes a sync run.
type SyncResult struct {
	Plan     *Plan
	Verified int // local content matched remote, local deleted
	Uploaded int // pushed to remote, re-verified, local deleted
	Cached   int // sidecar digest matched remote with no I/O at all
	Failed   []ChunkFailure
	Duration time.Duration
}

// Ok reports whether every chunk synced.
func (r *SyncResult) Ok() bool { return len(r.Failed) == 0 }

// Sync reconciles every chunk of the source against the remote store.
// Each chunk walks a small state machine: hash the local content (or
// trust the sidecar), compare against the remote digest, upload when the
// remote is absent or different, and re-verify every upload before
// trusting it. The local chunk file is deleted only after a positive
// digest match; its sidecar is always kept as the durable proof of
// verification.
//
// The engine iterates the full logical range derived from the source
// size, not just the chunks currently on disk. Chunks that were already
// synced and deleted are matched through their sidecars without any I/O;
// chunks missing locally with no usable sidecar (or a stale one) are
// re-materialized from the source first. There is no per-chunk space
// gate here: each chunk's post-sync deletion reclaims its space before
// the next one is materialized, so the run only ever needs headroom for
// one chunk at a time.
func Sync(ctx context.Context, opts SyncOptions) (*SyncResult, error) {
	if err := opts.validate(); err != nil {
		return nil, err
	}
	if opts.Store == nil {
		return nil, errors.New("carve: object store is required for sync")
	}
	opts.Options = opts.Options.withDefaults()
	if opts.RemotePrefix == "" {
		opts.RemotePrefix = opts.Prefix
	}
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

	if err := opts.Store.Accessible(ctx); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrRemoteUnavailable, err)
	}

	result := &SyncResult{Plan: plan}
	for i := 0; i < plan.Total; i++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if err := syncChunk(ctx, opts, plan, i, result, log); err != nil {
			spec := plan.Spec(i)
			result.Failed = append(result.Failed, ChunkFailure{Index: i, Suffix: spec.Suffix, Err: err})
			log.Warn("chunk sync failed, local copy retained",
				zap.Int("index", i),
				zap.String("suffix", spec.Suffix),
				zap.Error(err))
		}
	}

	result.Duration = time.Since(start)
	return result, nil
}

// syncChunk reconciles a single chunk. Updates result counters on
// success; any returned error leaves local state untouched for retry.
func syncChunk(ctx context.Context, opts SyncOptions, plan *Plan, index int, result *SyncResult, log *zap.Logger) error {
	spec := plan.Spec(index)
	localPath := plan.ChunkPath(opts.OutputDir, opts.Prefix, index)
	remoteName := opts.RemotePrefix + spec.Suffix

	_, statErr := os.Stat(localPath)
	switch {
	case statErr == nil:
		// Local chunk on disk, fall through to the verify/upload flow.
	case os.IsNotExist(statErr):
		// No local chunk. A matching sidecar lets us settle the chunk
		// against the remote digest without touching any content.
		if cached, ok, err := ReadSidecar(localPath, opts.Algorithm); err != nil {
			return err
		} else if ok {
			remoteDigest, err := opts.Store.Digest(ctx, remoteName)
			if err == nil && remoteDigest == cached {
				result.Cached++
				log.Debug("chunk already synced",
					zap.String("object", remoteName),
					zap.String("digest", cached))
				return nil
			}
			if err != nil && !errors.Is(err, ErrObjectNotFound) {
				return err
			}
		}
		// Sidecar absent, stale, or remote disagrees: bring the bytes
		// back from the source and reconcile properly.
		if _, err := WriteChunk(opts.Source, spec, localPath, opts.Algorithm); err != nil {
			return err
		}
	default:
		return fmt.Errorf("carve: stat chunk %s: %w", localPath, statErr)
	}

	localDigest, err := ChunkDigest(localPath, opts.Algorithm)
	if err != nil {
		return err
	}

	remoteDigest, err := opts.Store.Digest(ctx, remoteName)
	if err != nil && !errors.Is(err, ErrObjectNotFound) {
		return err
	}

	if err == nil && remoteDigest == localDigest {
		if err := os.Remove(localPath); err != nil {
			return fmt.Errorf("carve: remove verified chunk %s: %w", localPath, err)
		}
		result.Verified++
		log.Info("chunk verified against remote, local deleted",
			zap.String("object", remoteName),
			zap.String("digest", localDigest))
		return nil
	}

	// Remote absent, digest unknown, or mismatched: upload, then never
	// trust the upload without re-fetching and comparing the digest.
	if err := opts.Store.Upload(ctx, remoteName, localPath, localDigest); err != nil {
		return fmt.Errorf("carve: upload %s: %w", remoteName, err)
	}
	remoteDigest, err = opts.Store.Digest(ctx, remoteName)
	if err != nil {
		return fmt.Errorf("carve: verify upload %s: %w", remoteName, err)
	}
	if remoteDigest != localDigest {
		return &UploadVerifyError{Name: remoteName, Local: localDigest, Remote: remoteDigest}
	}

	if err := os.Remove(localPath); err != nil {
		return fmt.Errorf("carve: remove uploaded chunk %s: %w", localPath, err)
	}
	result.Uploaded++
	log.Info("chunk uploaded and re-verified, local deleted",
		zap.String("object", remoteName),
		zap.String("digest", localDigest))
	return nil
}
