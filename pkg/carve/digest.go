package carve

import (
	"crypto/sha1"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"hash"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/zeebo/blake3"
)

// Algorithm selects the content digest used for chunk verification. One
// algorithm is chosen per run and shared by sidecars and the remote
// store's metadata, so cached digests stay comparable across modes.
type Algorithm string

const (
	SHA1   Algorithm = "sha1"
	SHA256 Algorithm = "sha256"
	BLAKE3 Algorithm = "blake3"
)

// ParseAlgorithm maps a config string to an Algorithm.
func ParseAlgorithm(s string) (Algorithm, error) {
	switch Algorithm(strings.ToLower(s)) {
	case SHA1:
		return SHA1, nil
	case SHA256:
		return SHA256, nil
	case BLAKE3:
		return BLAKE3, nil
	}
	return "", fmt.Errorf("carve: unknown digest algorithm %q", s)
}

// New returns a fresh hash for the algorithm.
func (a Algorithm) New() hash.Hash {
	switch a {
	case SHA256:
		return sha256.New()
	case BLAKE3:
		return blake3.New()
	default:
		return sha1.New()
	}
}

// Ext returns the sidecar filename extension, including the dot.
func (a Algorithm) Ext() string {
	if a == "" {
		return "." + string(SHA1)
	}
	return "." + string(a)
}

// SidecarPath returns the digest sidecar path for a chunk file.
func (a Algorithm) SidecarPath(chunkPath string) string {
	return chunkPath + a.Ext()
}

// digestReader hashes everything read from r and returns the hex digest.
func (a Algorithm) digestReader(r io.Reader) (string, error) {
	h := a.New()
	if _, err := io.Copy(h, r); err != nil {
		return "", err
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

// DigestFile computes the hex digest of a whole file.
func (a Algorithm) DigestFile(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()
	return a.digestReader(f)
}

// DigestRange computes the hex digest of a byte range of the source.
func (a Algorithm) DigestRange(src RangeReader, offset, length int64) (string, error) {
	r, err := src.ReadRange(offset, length)
	if err != nil {
		return "", err
	}
	defer r.Close()
	return a.digestReader(r)
}

// WriteSidecar persists a chunk's digest next to it in checksum-tool
// form: "<hex>  <filename>\n". Written only after the digest was computed
// from fully-read content; once on disk it is authoritative and outlives
// the chunk file itself.
func WriteSidecar(chunkPath string, alg Algorithm, digest string) error {
	line := fmt.Sprintf("%s  %s\n", digest, filepath.Base(chunkPath))
	if err := os.WriteFile(alg.SidecarPath(chunkPath), []byte(line), 0o644); err != nil {
		return fmt.Errorf("carve: write digest sidecar: %w", err)
	}
	return nil
}

// ReadSidecar loads a previously persisted digest. It returns ok=false
// when the sidecar is absent or malformed; callers recompute in that
// case, never trust a partial record.
func ReadSidecar(chunkPath string, alg Algorithm) (digest string, ok bool, err error) {
	data, err := os.ReadFile(alg.SidecarPath(chunkPath))
	if err != nil {
		if os.IsNotExist(err) {
			return "", false, nil
		}
		return "", false, fmt.Errorf("carve: read digest sidecar: %w", err)
	}

	line := strings.TrimSpace(string(data))
	fields := strings.Fields(line)
	if len(fields) != 2 {
		return "", false, nil
	}
	digest = fields[0]
	if len(digest) != hex.EncodedLen(alg.New().Size()) {
		return "", false, nil
	}
	if _, err := hex.DecodeString(digest); err != nil {
		return "", false, nil
	}
	return digest, true, nil
}

// ChunkDigest returns the chunk's digest, preferring the sidecar cache.
// When the sidecar is missing or malformed the digest is recomputed from
// the chunk content and persisted.
func ChunkDigest(chunkPath string, alg Algorithm) (string, error) {
	if digest, ok, err := ReadSidecar(chunkPath, alg); err != nil {
		return "", err
	} else if ok {
		return digest, nil
	}

	digest, err := alg.DigestFile(chunkPath)
	if err != nil {
		return "", fmt.Errorf("carve: digest %s: %w", chunkPath, err)
	}
	if err := WriteSidecar(chunkPath, alg, digest); err != nil {
		return "", err
	}
	return digest, nil
}
