package carve

import (
	"errors"
	"fmt"
)

// ErrSuffixRange is returned when a chunk index cannot be expressed as a
// two-letter suffix. Callers hit this when the source would split into
// more than MaxChunks pieces; rerun with a larger chunk size.
var ErrSuffixRange = errors.New("carve: chunk index outside two-letter suffix range")

// ErrObjectNotFound is returned by an ObjectStore when the named remote
// object does not exist. Absence is a normal sync outcome, distinct from
// a digest mismatch.
var ErrObjectNotFound = errors.New("carve: remote object not found")

// ErrRemoteUnavailable is returned when the object store cannot be used
// at all. Checked once before any chunk is processed.
var ErrRemoteUnavailable = errors.New("carve: remote store unavailable")

// SizeMismatchError indicates an existing chunk file whose length does not
// match its expected length. The file is never deleted automatically;
// the operator must remove it and rerun.
type SizeMismatchError struct {
	Path     string
	Expected int64
	Actual   int64
}

func (e *SizeMismatchError) Error() string {
	return fmt.Sprintf("carve: chunk %s is %d bytes, expected %d; remove %s and rerun",
		e.Path, e.Actual, e.Expected, e.Path)
}

// IntegrityMismatchError indicates the boundary chunk's content digest does
// not match the digest of the corresponding source range.
type IntegrityMismatchError struct {
	Path     string
	Expected string // hex digest of the source range
	Actual   string // hex digest of the chunk file
}

func (e *IntegrityMismatchError) Error() string {
	return fmt.Sprintf("carve: chunk %s digest %s does not match source digest %s; remove %s and rerun",
		e.Path, e.Actual, e.Expected, e.Path)
}

// CopyError indicates a chunk extraction that did not transfer the full
// expected byte count. The partial file is left in place; the next run's
// structural validation reports it as a SizeMismatchError.
type CopyError struct {
	Path     string
	Written  int64
	Expected int64
	Err      error
}

func (e *CopyError) Error() string {
	return fmt.Sprintf("carve: copy to %s incomplete (%d of %d bytes): %v",
		e.Path, e.Written, e.Expected, e.Err)
}

func (e *CopyError) Unwrap() error { return e.Err }
