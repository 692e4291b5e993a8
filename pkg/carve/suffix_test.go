package carve

import (
	"errors"
	"testing"
)

func TestSuffixRoundTrip(t *testing.T) {
	for i := 0; i < MaxChunks; i++ {
		suffix, err := SuffixFor(i)
		if err != nil {
			t.Fatalf("SuffixFor(%d): %v", i, err)
		}
		if len(suffix) != 2 {
			t.Fatalf("SuffixFor(%d) = %q, want two letters", i, suffix)
		}
		back, err := IndexFor(suffix)
		if err != nil {
			t.Fatalf("IndexFor(%q): %v", suffix, err)
		}
		if back != i {
			t.Fatalf("IndexFor(SuffixFor(%d)) = %d", i, back)
		}
	}
}

func TestSuffixKnownValues(t *testing.T) {
	cases := []struct {
		index  int
		suffix string
	}{
		{0, "aa"},
		{1, "ab"},
		{2, "ac"},
		{25, "az"},
		{26, "ba"},
		{675, "zz"},
	}
	for _, c := range cases {
		got, err := SuffixFor(c.index)
		if err != nil {
			t.Fatalf("SuffixFor(%d): %v", c.index, err)
		}
		if got != c.suffix {
			t.Errorf("SuffixFor(%d) = %q, want %q", c.index, got, c.suffix)
		}
	}
}

func TestSuffixForOutOfRange(t *testing.T) {
	for _, i := range []int{-1, MaxChunks, MaxChunks + 1} {
		if _, err := SuffixFor(i); !errors.Is(err, ErrSuffixRange) {
			t.Errorf("SuffixFor(%d) error = %v, want ErrSuffixRange", i, err)
		}
	}
}

func TestIndexForMalformed(t *testing.T) {
	// Malformed input must be an error, never mistaken for index 0.
	for _, s := range []string{"", "a", "aaa", "AA", "a1", "1a", "a ", "-a"} {
		index, err := IndexFor(s)
		if err == nil {
			t.Errorf("IndexFor(%q) = %d, want error", s, index)
		}
	}
}
