// Package remote adapts gocloud.dev blob buckets to the sync engine's
// object store capability.
//
// The engine needs exactly two remote operations: fetch a named object's
// content digest (with absence reported distinctly) and upload a local
// file under a name. Digests travel as object metadata written at upload
// time, so verification works the same against S3, GCS, or the in-memory
// bucket used in tests, regardless of the provider's native checksum.
package remote
