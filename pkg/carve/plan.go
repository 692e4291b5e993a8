package carve

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// Plan describes how a source file splits into fixed-size chunks. The
// source size is read once when the plan is built and assumed stable for
// the lifetime of the run.
type Plan struct {
	SourcePath string
	SourceSize int64
	ChunkSize  int64
	Total      int // number of chunks
}

// ChunkSpec is the expected shape of a single chunk: its index, suffix,
// byte range in the source, and on-disk length.
type ChunkSpec struct {
	Index  int
	Suffix string
	Offset int64
	Length int64
}

// NewPlan stats the source file and derives the chunk layout. The total
// is ceil(size/chunkSize); every chunk has length chunkSize except the
// last, which holds the remainder. Sources that would need more than
// MaxChunks chunks are rejected before any I/O.
func NewPlan(sourcePath string, chunkSize int64) (*Plan, error) {
	if chunkSize <= 0 {
		return nil, errors.New("carve: chunk size must be positive")
	}

	fi, err := os.Stat(sourcePath)
	if err != nil {
		return nil, fmt.Errorf("carve: stat source: %w", err)
	}
	if fi.IsDir() {
		return nil, fmt.Errorf("carve: source %s is a directory", sourcePath)
	}
	if fi.Size() == 0 {
		return nil, fmt.Errorf("carve: source %s is empty", sourcePath)
	}

	total := int((fi.Size() + chunkSize - 1) / chunkSize)
	if total > MaxChunks {
		return nil, fmt.Errorf("carve: source needs %d chunks, max is %d; rerun with a larger chunk size: %w",
			total, MaxChunks, ErrSuffixRange)
	}

	return &Plan{
		SourcePath: sourcePath,
		SourceSize: fi.Size(),
		ChunkSize:  chunkSize,
		Total:      total,
	}, nil
}

// Spec returns the ChunkSpec for index i. The index must be in
// [0, p.Total); the suffix is always valid because NewPlan bounds Total.
func (p *Plan) Spec(i int) ChunkSpec {
	suffix, err := SuffixFor(i)
	if err != nil {
		panic(err) // unreachable: NewPlan caps Total at MaxChunks
	}
	offset := int64(i) * p.ChunkSize
	length := p.ChunkSize
	if offset+length > p.SourceSize {
		length = p.SourceSize - offset
	}
	return ChunkSpec{Index: i, Suffix: suffix, Offset: offset, Length: length}
}

// ChunkPath returns the output path for the chunk at index i.
func (p *Plan) ChunkPath(dir, prefix string, i int) string {
	return filepath.Join(dir, prefix+p.Spec(i).Suffix)
}

// RangeReader opens a reader over a byte range of the source. Injected so
// the engine can be tested without multi-gigabyte files.
type RangeReader interface {
	ReadRange(offset, length int64) (io.ReadCloser, error)
}

// FileSource returns a RangeReader over a local file. Each range is an
// independent open, so readers do not share file offsets.
func FileSource(path string) RangeReader {
	return fileSource{path: path}
}

type fileSource struct {
	path string
}

func (f fileSource) ReadRange(offset, length int64) (io.ReadCloser, error) {
	fh, err := os.Open(f.path)
	if err != nil {
		return nil, err
	}
	return &sectionCloser{
		Reader: io.NewSectionReader(fh, offset, length),
		file:   fh,
	}, nil
}

type sectionCloser struct {
	io.Reader
	file *os.File
}

func (s *sectionCloser) Close() error { return s.file.Close() }
