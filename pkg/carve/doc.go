// Package carve splits one large source file into a sequence of
// fixed-size chunk files, resuming safely across crashes, and optionally
// reconciles chunks against a remote object store.
//
// # Chunk layout
//
// A source of size S split with chunk size C produces ceil(S/C) chunks;
// every chunk is exactly C bytes except the last, which holds the
// remainder. Chunks are named <prefix><suffix> with a two-letter base-26
// suffix ("aa" = 0 through "zz" = 675), the naming scheme of split(1).
// Each chunk gets a digest sidecar <prefix><suffix>.<alg> holding
// "<hex>  <filename>" in checksum-tool form.
//
// # Resume
//
// There is no journal. On every invocation [Split] re-derives the plan
// from the source size, scans the output directory for existing chunks,
// structurally validates each one against its expected length, and
// content-verifies only the boundary chunk (the highest index present)
// against the corresponding source range. A crash mid-write leaves a
// short file which the next run rejects with a [SizeMismatchError]
// naming the exact path to remove; nothing is ever deleted
// automatically. Chunks below the boundary may be moved away to free
// disk space; their absence is a warning, not an error.
//
// Before each new chunk the free space of the destination filesystem
// must cover one chunk plus a safety buffer. Falling below that is a
// clean pause, not a failure: the run reports the next suffix and the
// remaining count, and a later invocation picks up there.
//
// # Sync
//
// [Sync] walks the full logical chunk range against an [ObjectStore],
// uploading chunks the remote is missing, verifying the rest by digest,
// and deleting the local copy only after a positive match. Uploads are
// never trusted without a post-upload digest re-fetch. Sidecars survive
// the deletion of their chunk and let already-synced chunks be settled
// by digest comparison alone.
package carve
