package carve

import "fmt"

// MaxChunks is the number of chunks addressable by two-letter suffixes.
const MaxChunks = 26 * 26

// SuffixFor returns the two-letter suffix for a chunk index: "aa" for 0,
// "ab" for 1, ..., "zz" for 675. Indices outside [0, MaxChunks) return
// an error wrapping ErrSuffixRange.
func SuffixFor(index int) (string, error) {
	if index < 0 || index >= MaxChunks {
		return "", fmt.Errorf("index %d: %w", index, ErrSuffixRange)
	}
	return string([]byte{'a' + byte(index/26), 'a' + byte(index%26)}), nil
}

// IndexFor returns the chunk index for a two-letter suffix. Anything that
// is not exactly two lowercase ASCII letters is an error, so malformed
// input is never mistaken for the valid index 0.
func IndexFor(suffix string) (int, error) {
	if len(suffix) != 2 {
		return 0, fmt.Errorf("carve: malformed suffix %q: want exactly two lowercase letters", suffix)
	}
	hi, lo := suffix[0], suffix[1]
	if hi < 'a' || hi > 'z' || lo < 'a' || lo > 'z' {
		return 0, fmt.Errorf("carve: malformed suffix %q: want exactly two lowercase letters", suffix)
	}
	return int(hi-'a')*26 + int(lo-'a'), nil
}
