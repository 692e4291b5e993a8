package carve

import (
	"fmt"

	"go.uber.org/zap"
)

// VerifyBoundary re-verifies the content of the boundary chunk, the one
// at inv.LastIndex. Only the most recently written chunk can plausibly
// have been silently corrupted by an interrupted run; every lower chunk
// was itself the boundary in an earlier session, so re-checking the lot
// would cost a full source read on every resume instead of one chunk.
//
// The digest of the corresponding source range is recomputed and compared
// against the chunk's digest (sidecar-cached or computed fresh). A
// mismatch is a *IntegrityMismatchError; the chunk is never deleted
// automatically.
func VerifyBoundary(src RangeReader, plan *Plan, dir, prefix string, inv *Inventory, alg Algorithm, logger *zap.Logger) error {
	if logger == nil {
		logger = zap.NewNop()
	}
	if inv.LastIndex < 0 {
		return nil // fresh run, nothing to verify
	}

	spec := plan.Spec(inv.LastIndex)
	chunkPath := plan.ChunkPath(dir, prefix, inv.LastIndex)

	chunkDigest, err := ChunkDigest(chunkPath, alg)
	if err != nil {
		return err
	}

	sourceDigest, err := alg.DigestRange(src, spec.Offset, spec.Length)
	if err != nil {
		return fmt.Errorf("carve: digest source range [%d,%d): %w", spec.Offset, spec.Offset+spec.Length, err)
	}

	if chunkDigest != sourceDigest {
		return &IntegrityMismatchError{
			Path:     chunkPath,
			Expected: sourceDigest,
			Actual:   chunkDigest,
		}
	}

	logger.Debug("boundary chunk verified",
		zap.String("chunk", chunkPath),
		zap.String("digest", chunkDigest))
	return nil
}
