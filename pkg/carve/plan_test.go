package carve

import (
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"
)

// writeSource creates a source file with a deterministic byte pattern.
func writeSource(t *testing.T, size int64) string {
	t.Helper()
	data := make([]byte, size)
	for i := range data {
		data[i] = byte(i % 256)
	}
	path := filepath.Join(t.TempDir(), "source.bin")
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("write source: %v", err)
	}
	return path
}

func TestNewPlanScenario(t *testing.T) {
	// 1000 bytes at 400 per chunk: 3 chunks of 400, 400, 200.
	source := writeSource(t, 1000)

	plan, err := NewPlan(source, 400)
	if err != nil {
		t.Fatalf("NewPlan: %v", err)
	}
	if plan.Total != 3 {
		t.Fatalf("Total = %d, want 3", plan.Total)
	}

	wantLengths := []int64{400, 400, 200}
	wantSuffixes := []string{"aa", "ab", "ac"}
	var sum int64
	for i := 0; i < plan.Total; i++ {
		spec := plan.Spec(i)
		if spec.Length != wantLengths[i] {
			t.Errorf("chunk %d length = %d, want %d", i, spec.Length, wantLengths[i])
		}
		if spec.Suffix != wantSuffixes[i] {
			t.Errorf("chunk %d suffix = %q, want %q", i, spec.Suffix, wantSuffixes[i])
		}
		if spec.Offset != int64(i)*400 {
			t.Errorf("chunk %d offset = %d, want %d", i, spec.Offset, int64(i)*400)
		}
		sum += spec.Length
	}
	if sum != plan.SourceSize {
		t.Errorf("sum of lengths = %d, want %d", sum, plan.SourceSize)
	}
}

func TestNewPlanExactMultiple(t *testing.T) {
	source := writeSource(t, 800)

	plan, err := NewPlan(source, 400)
	if err != nil {
		t.Fatalf("NewPlan: %v", err)
	}
	if plan.Total != 2 {
		t.Fatalf("Total = %d, want 2", plan.Total)
	}
	if last := plan.Spec(1).Length; last != 400 {
		t.Errorf("last chunk length = %d, want 400", last)
	}
}

func TestNewPlanErrors(t *testing.T) {
	source := writeSource(t, 1000)

	if _, err := NewPlan(source, 0); err == nil {
		t.Error("chunk size 0: want error")
	}
	if _, err := NewPlan(source, -1); err == nil {
		t.Error("negative chunk size: want error")
	}
	if _, err := NewPlan(filepath.Join(t.TempDir(), "missing"), 400); err == nil {
		t.Error("missing source: want error")
	}

	empty := filepath.Join(t.TempDir(), "empty")
	if err := os.WriteFile(empty, nil, 0o644); err != nil {
		t.Fatalf("write empty: %v", err)
	}
	if _, err := NewPlan(empty, 400); err == nil {
		t.Error("empty source: want error")
	}
}

func TestNewPlanTooManyChunks(t *testing.T) {
	// 677 bytes at 1 byte per chunk needs one more chunk than two
	// letters can address.
	source := writeSource(t, MaxChunks+1)

	_, err := NewPlan(source, 1)
	if !errors.Is(err, ErrSuffixRange) {
		t.Fatalf("error = %v, want ErrSuffixRange", err)
	}

	// At exactly MaxChunks the plan is fine.
	source = writeSource(t, MaxChunks)
	plan, err := NewPlan(source, 1)
	if err != nil {
		t.Fatalf("NewPlan at cap: %v", err)
	}
	if plan.Total != MaxChunks {
		t.Fatalf("Total = %d, want %d", plan.Total, MaxChunks)
	}
}

func TestFileSourceReadRange(t *testing.T) {
	source := writeSource(t, 1000)
	src := FileSource(source)

	r, err := src.ReadRange(400, 200)
	if err != nil {
		t.Fatalf("ReadRange: %v", err)
	}
	defer r.Close()

	data, err := io.ReadAll(r)
	if err != nil {
		t.Fatalf("ReadAll: %v", err)
	}
	if len(data) != 200 {
		t.Fatalf("read %d bytes, want 200", len(data))
	}
	for i, b := range data {
		if want := byte((400 + i) % 256); b != want {
			t.Fatalf("byte %d = %d, want %d", i, b, want)
		}
	}
}
