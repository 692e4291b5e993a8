package carve

import (
	"encoding/hex"
	"fmt"
	"io"
	"os"
)

// WriteChunk extracts the spec's byte range from the source into path and
// persists the digest sidecar. The digest is computed while copying, and
// the sidecar is written only after the full expected length landed on
// disk.
//
// A short or failed copy returns a *CopyError and deliberately leaves the
// partial file in place: the next run's structural validation reports it
// as a SizeMismatchError with the exact path to remove, which makes the
// filesystem itself the recovery ledger. No separate journal is kept.
func WriteChunk(src RangeReader, spec ChunkSpec, path string, alg Algorithm) (string, error) {
	r, err := src.ReadRange(spec.Offset, spec.Length)
	if err != nil {
		return "", fmt.Errorf("carve: open source range: %w", err)
	}
	defer r.Close()

	out, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("carve: create chunk %s: %w", path, err)
	}

	h := alg.New()
	n, err := io.Copy(out, io.TeeReader(r, h))
	if cerr := out.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return "", &CopyError{Path: path, Written: n, Expected: spec.Length, Err: err}
	}
	if n != spec.Length {
		return "", &CopyError{Path: path, Written: n, Expected: spec.Length, Err: io.ErrUnexpectedEOF}
	}

	digest := hex.EncodeToString(h.Sum(nil))
	if err := WriteSidecar(path, alg, digest); err != nil {
		return "", err
	}
	return digest, nil
}
