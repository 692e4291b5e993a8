package remote

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"gocloud.dev/blob"
	_ "gocloud.dev/blob/memblob"

	"github.com/lucamartinetti/split-resume/pkg/carve"
)

func openTestBucket(t *testing.T) *blob.Bucket {
	t.Helper()
	bucket, err := blob.OpenBucket(context.Background(), "mem://")
	if err != nil {
		t.Fatalf("open bucket: %v", err)
	}
	t.Cleanup(func() { bucket.Close() })
	return bucket
}

func TestStoreAccessible(t *testing.T) {
	store := NewStore(openTestBucket(t))
	if err := store.Accessible(context.Background()); err != nil {
		t.Fatalf("Accessible: %v", err)
	}
}

func TestStoreDigestNotFound(t *testing.T) {
	store := NewStore(openTestBucket(t))

	_, err := store.Digest(context.Background(), "missing")
	if !errors.Is(err, carve.ErrObjectNotFound) {
		t.Fatalf("error = %v, want ErrObjectNotFound", err)
	}
}

func TestStoreUploadAndDigest(t *testing.T) {
	ctx := context.Background()
	store := NewStore(openTestBucket(t))

	path := filepath.Join(t.TempDir(), "chunk")
	if err := os.WriteFile(path, []byte("chunk content"), 0o644); err != nil {
		t.Fatalf("write chunk: %v", err)
	}

	const digest = "f0a2eb42d9da673c4b2b4e582223aa10e4f9e2a4"
	if err := store.Upload(ctx, "backup/part_aa", path, digest); err != nil {
		t.Fatalf("Upload: %v", err)
	}

	got, err := store.Digest(ctx, "backup/part_aa")
	if err != nil {
		t.Fatalf("Digest: %v", err)
	}
	if got != digest {
		t.Fatalf("Digest = %q, want %q", got, digest)
	}
}

func TestStoreDigestMissingMetadata(t *testing.T) {
	ctx := context.Background()
	bucket := openTestBucket(t)
	store := NewStore(bucket)

	// An object written by something else, with no digest metadata, is
	// reported as existing but unverifiable.
	if err := bucket.WriteAll(ctx, "foreign", []byte("data"), nil); err != nil {
		t.Fatalf("WriteAll: %v", err)
	}

	got, err := store.Digest(ctx, "foreign")
	if err != nil {
		t.Fatalf("Digest: %v", err)
	}
	if got != "" {
		t.Fatalf("Digest = %q, want empty for missing metadata", got)
	}
}

func TestStoreImplementsObjectStore(t *testing.T) {
	var _ carve.ObjectStore = NewStore(openTestBucket(t))
}
