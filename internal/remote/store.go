package remote

import (
	"context"
	"fmt"
	"io"
	"os"

	"gocloud.dev/blob"
	"gocloud.dev/gcerrors"

	"github.com/lucamartinetti/split-resume/pkg/carve"
)

// digestKey is the object metadata key holding the hex content digest.
// Written on every upload and read back for verification, so the digest
// algorithm is whatever the run was configured with, independent of the
// provider's native checksums.
const digestKey = "carve-digest"

// Store adapts a gocloud blob bucket to the sync engine's object store
// capability. It satisfies carve.ObjectStore.
type Store struct {
	bucket *blob.Bucket
}

// NewStore wraps an open bucket. The caller keeps ownership of the
// bucket and closes it after the run.
func NewStore(bucket *blob.Bucket) *Store {
	return &Store{bucket: bucket}
}

// Accessible probes the bucket once before any chunk is processed, so
// auth or connectivity problems fail the run up front rather than
// mid-sync.
func (s *Store) Accessible(ctx context.Context) error {
	ok, err := s.bucket.IsAccessible(ctx)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("remote: bucket is not accessible")
	}
	return nil
}

// Digest returns the digest recorded for the named object. Objects
// uploaded by this tool always carry one; an object that exists but
// lacks the metadata returns "" so the engine treats it as unverifiable
// and re-uploads.
func (s *Store) Digest(ctx context.Context, name string) (string, error) {
	attrs, err := s.bucket.Attributes(ctx, name)
	if err != nil {
		if gcerrors.Code(err) == gcerrors.NotFound {
			return "", fmt.Errorf("object %s: %w", name, carve.ErrObjectNotFound)
		}
		return "", fmt.Errorf("remote: attributes of %s: %w", name, err)
	}
	return attrs.Metadata[digestKey], nil
}

// Upload streams the local file into the named object, attaching the
// digest as metadata. The write is committed on Close; a failed or
// cancelled upload commits nothing.
func (s *Store) Upload(ctx context.Context, name, localPath, digest string) error {
	f, err := os.Open(localPath)
	if err != nil {
		return fmt.Errorf("remote: open %s: %w", localPath, err)
	}
	defer f.Close()

	w, err := s.bucket.NewWriter(ctx, name, &blob.WriterOptions{
		Metadata: map[string]string{digestKey: digest},
	})
	if err != nil {
		return fmt.Errorf("remote: create writer for %s: %w", name, err)
	}

	if _, err := io.Copy(w, f); err != nil {
		w.Close()
		return fmt.Errorf("remote: upload %s: %w", name, err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("remote: commit %s: %w", name, err)
	}
	return nil
}
