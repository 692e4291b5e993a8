package carve

import (
	"context"
	"errors"
	"fmt"
	"os"
	"testing"
)

// fakeStore is an in-memory ObjectStore that counts operations.
type fakeStore struct {
	digests map[string]string // object name -> recorded digest
	content map[string]string // object name -> digest of uploaded bytes

	down        bool
	digestCalls int
	uploadCalls int

	// corruptUploads makes every upload record a wrong digest, to
	// exercise the post-upload re-verification.
	corruptUploads bool
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		digests: make(map[string]string),
		content: make(map[string]string),
	}
}

func (s *fakeStore) Accessible(ctx context.Context) error {
	if s.down {
		return errors.New("connection refused")
	}
	return nil
}

func (s *fakeStore) Digest(ctx context.Context, name string) (string, error) {
	s.digestCalls++
	digest, ok := s.digests[name]
	if !ok {
		return "", fmt.Errorf("object %s: %w", name, ErrObjectNotFound)
	}
	return digest, nil
}

func (s *fakeStore) Upload(ctx context.Context, name, localPath, digest string) error {
	s.uploadCalls++
	actual, err := SHA1.DigestFile(localPath)
	if err != nil {
		return err
	}
	s.content[name] = actual
	if s.corruptUploads {
		s.digests[name] = "0000000000000000000000000000000000000000"
	} else {
		s.digests[name] = digest
	}
	return nil
}

func syncOptions(t *testing.T, store ObjectStore) SyncOptions {
	t.Helper()
	return SyncOptions{
		Options: splitOptions(t),
		Store:   store,
	}
}

func TestSyncUploadsEverything(t *testing.T) {
	ctx := context.Background()
	store := newFakeStore()
	opts := syncOptions(t, store)

	if _, err := Split(ctx, opts.Options); err != nil {
		t.Fatalf("Split: %v", err)
	}

	result, err := Sync(ctx, opts)
	if err != nil {
		t.Fatalf("Sync: %v", err)
	}
	if !result.Ok() {
		t.Fatalf("failures: %v", result.Failed)
	}
	if result.Uploaded != 3 || result.Verified != 0 || result.Cached != 0 {
		t.Fatalf("uploaded=%d verified=%d cached=%d, want 3/0/0",
			result.Uploaded, result.Verified, result.Cached)
	}

	for _, suffix := range []string{"aa", "ab", "ac"} {
		name := "part_" + suffix
		if _, ok := store.digests[name]; !ok {
			t.Errorf("remote object %s missing", name)
		}
		// Local chunk deleted, sidecar kept.
		if _, err := os.Stat(opts.OutputDir + "/" + name); !errors.Is(err, os.ErrNotExist) {
			t.Errorf("local chunk %s not deleted", name)
		}
		if _, ok, _ := ReadSidecar(opts.OutputDir+"/"+name, SHA1); !ok {
			t.Errorf("sidecar for %s deleted", name)
		}
	}
}

func TestSyncVerifiesWithoutUpload(t *testing.T) {
	ctx := context.Background()
	store := newFakeStore()
	opts := syncOptions(t, store)

	if _, err := Split(ctx, opts.Options); err != nil {
		t.Fatalf("Split: %v", err)
	}

	// Remote already holds all chunks with the right digests.
	plan, _ := NewPlan(opts.SourcePath, opts.ChunkSize)
	for i := 0; i < plan.Total; i++ {
		spec := plan.Spec(i)
		digest, err := SHA1.DigestFile(plan.ChunkPath(opts.OutputDir, opts.Prefix, i))
		if err != nil {
			t.Fatalf("digest chunk %d: %v", i, err)
		}
		store.digests[opts.Prefix+spec.Suffix] = digest
	}

	result, err := Sync(ctx, opts)
	if err != nil {
		t.Fatalf("Sync: %v", err)
	}
	if result.Verified != 3 || result.Uploaded != 0 {
		t.Fatalf("verified=%d uploaded=%d, want 3/0", result.Verified, result.Uploaded)
	}
	if store.uploadCalls != 0 {
		t.Fatalf("uploadCalls = %d, want 0", store.uploadCalls)
	}

	// Verified chunks lose their content but keep their digest record.
	if _, err := os.Stat(opts.OutputDir + "/part_ab"); !errors.Is(err, os.ErrNotExist) {
		t.Error("verified chunk part_ab not deleted")
	}
	if _, ok, _ := ReadSidecar(opts.OutputDir+"/part_ab", SHA1); !ok {
		t.Error("sidecar part_ab.sha1 deleted")
	}
}

func TestSyncSettlesFromSidecarWithoutIO(t *testing.T) {
	ctx := context.Background()
	store := newFakeStore()
	opts := syncOptions(t, store)

	// Full split + sync, then rerun: every chunk is local-absent with a
	// sidecar matching the remote digest.
	if _, err := Split(ctx, opts.Options); err != nil {
		t.Fatalf("Split: %v", err)
	}
	if _, err := Sync(ctx, opts); err != nil {
		t.Fatalf("first Sync: %v", err)
	}

	store.uploadCalls = 0
	result, err := Sync(ctx, opts)
	if err != nil {
		t.Fatalf("second Sync: %v", err)
	}
	if result.Cached != 3 || result.Uploaded != 0 || result.Verified != 0 {
		t.Fatalf("cached=%d uploaded=%d verified=%d, want 3/0/0",
			result.Cached, result.Uploaded, result.Verified)
	}
	if store.uploadCalls != 0 {
		t.Fatalf("uploadCalls = %d, want 0", store.uploadCalls)
	}

	// No chunk was re-materialized.
	for _, suffix := range []string{"aa", "ab", "ac"} {
		if _, err := os.Stat(opts.OutputDir + "/part_" + suffix); !errors.Is(err, os.ErrNotExist) {
			t.Errorf("chunk part_%s re-materialized for a settled sync", suffix)
		}
	}
}

func TestSyncCachedDigestScenario(t *testing.T) {
	ctx := context.Background()
	store := newFakeStore()
	opts := syncOptions(t, store)
	opts.RemotePrefix = "backup/part_"

	if _, err := Split(ctx, opts.Options); err != nil {
		t.Fatalf("Split: %v", err)
	}

	// Chunk ab was synced earlier: local content gone, sidecar kept,
	// remote digest matches the cache.
	abPath := opts.OutputDir + "/part_ab"
	digest, ok, err := ReadSidecar(abPath, SHA1)
	if err != nil || !ok {
		t.Fatalf("sidecar for ab: ok=%v err=%v", ok, err)
	}
	if err := os.Remove(abPath); err != nil {
		t.Fatalf("remove ab: %v", err)
	}
	store.digests["backup/part_ab"] = digest

	result, err := Sync(ctx, opts)
	if err != nil {
		t.Fatalf("Sync: %v", err)
	}
	if result.Cached != 1 || result.Uploaded != 2 {
		t.Fatalf("cached=%d uploaded=%d, want 1/2", result.Cached, result.Uploaded)
	}

	// ab's sidecar survived and its content was never re-created.
	if _, ok, _ := ReadSidecar(abPath, SHA1); !ok {
		t.Error("ab sidecar deleted")
	}
	if _, err := os.Stat(abPath); !errors.Is(err, os.ErrNotExist) {
		t.Error("ab chunk re-materialized despite digest match")
	}
}

func TestSyncRematerializesStaleChunk(t *testing.T) {
	ctx := context.Background()
	store := newFakeStore()
	opts := syncOptions(t, store)

	if _, err := Split(ctx, opts.Options); err != nil {
		t.Fatalf("Split: %v", err)
	}

	// Chunk ab is gone locally and the remote holds a different
	// version: the bytes must come back from the source and replace it.
	abPath := opts.OutputDir + "/part_ab"
	if err := os.Remove(abPath); err != nil {
		t.Fatalf("remove ab: %v", err)
	}
	store.digests["part_ab"] = "1111111111111111111111111111111111111111"

	result, err := Sync(ctx, opts)
	if err != nil {
		t.Fatalf("Sync: %v", err)
	}
	if !result.Ok() {
		t.Fatalf("failures: %v", result.Failed)
	}
	if result.Uploaded != 3 {
		t.Fatalf("uploaded = %d, want 3", result.Uploaded)
	}

	// The re-uploaded object now carries the true content digest.
	want, ok, _ := ReadSidecar(abPath, SHA1)
	if !ok {
		t.Fatal("ab sidecar missing")
	}
	if store.content["part_ab"] != want {
		t.Fatalf("remote content digest %q, want %q", store.content["part_ab"], want)
	}
}

func TestSyncUploadVerifyFailureRetainsLocal(t *testing.T) {
	ctx := context.Background()
	store := newFakeStore()
	store.corruptUploads = true
	opts := syncOptions(t, store)

	if _, err := Split(ctx, opts.Options); err != nil {
		t.Fatalf("Split: %v", err)
	}

	result, err := Sync(ctx, opts)
	if err != nil {
		t.Fatalf("Sync: %v", err)
	}
	if len(result.Failed) != 3 {
		t.Fatalf("failed = %d, want 3 (run continues past failures)", len(result.Failed))
	}
	var verifyErr *UploadVerifyError
	if !errors.As(result.Failed[0].Err, &verifyErr) {
		t.Fatalf("failure error = %v, want UploadVerifyError", result.Failed[0].Err)
	}

	// Unverified uploads never cost the local copy.
	for _, suffix := range []string{"aa", "ab", "ac"} {
		if _, err := os.Stat(opts.OutputDir + "/part_" + suffix); err != nil {
			t.Errorf("local chunk part_%s missing after failed verify: %v", suffix, err)
		}
	}
}

func TestSyncRemoteUnavailable(t *testing.T) {
	ctx := context.Background()
	store := newFakeStore()
	store.down = true
	opts := syncOptions(t, store)

	if _, err := Split(ctx, opts.Options); err != nil {
		t.Fatalf("Split: %v", err)
	}

	_, err := Sync(ctx, opts)
	if !errors.Is(err, ErrRemoteUnavailable) {
		t.Fatalf("error = %v, want ErrRemoteUnavailable", err)
	}
	if store.digestCalls != 0 || store.uploadCalls != 0 {
		t.Fatal("chunk processing started against an unavailable store")
	}
}

func TestSyncRequiresStore(t *testing.T) {
	ctx := context.Background()
	opts := syncOptions(t, nil)
	if _, err := Sync(ctx, opts); err == nil {
		t.Fatal("nil store: want error")
	}
}
