package carve

import (
	"fmt"
	"os"
	"sort"
	"strings"

	"go.uber.org/zap"
)

// Inventory is the result of scanning the output directory for existing
// chunks of a run. The filesystem state it captures is the only recovery
// ledger: a partial chunk left by an interrupted run shows up here as a
// size mismatch.
type Inventory struct {
	// Present maps chunk index to actual on-disk length.
	Present map[int]int64
	// LastIndex is the highest present chunk index, -1 when no chunks exist.
	LastIndex int
	// Missing lists absent indices below LastIndex, ascending. Gaps are
	// not fatal: finished chunks may have been moved elsewhere to free
	// disk space.
	Missing []int
}

// ResumeIndex is the index of the next chunk to create.
func (inv *Inventory) ResumeIndex() int {
	return inv.LastIndex + 1
}

// TakeInventory scans dir for chunk files matching prefix, excluding
// digest sidecars, and structurally validates every present chunk: its
// length must equal the plan's expected length for that index. Any
// mismatch is a *SizeMismatchError and aborts the run; content is only
// ever checked on the boundary chunk (see VerifyBoundary).
func TakeInventory(dir, prefix string, plan *Plan, logger *zap.Logger) (*Inventory, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("carve: read output dir: %w", err)
	}

	inv := &Inventory{
		Present:   make(map[int]int64),
		LastIndex: -1,
	}

	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		if !strings.HasPrefix(name, prefix) {
			continue
		}
		suffix := name[len(prefix):]
		index, err := IndexFor(suffix)
		if err != nil {
			// Sidecars and unrelated files with the same prefix.
			continue
		}

		fi, err := entry.Info()
		if err != nil {
			return nil, fmt.Errorf("carve: stat chunk %s: %w", name, err)
		}

		if index >= plan.Total {
			return nil, fmt.Errorf("carve: chunk %s (index %d) is beyond the end of the source (%d chunks); remove it and rerun",
				name, index, plan.Total)
		}

		inv.Present[index] = fi.Size()
		if index > inv.LastIndex {
			inv.LastIndex = index
		}
	}

	for index, actual := range inv.Present {
		spec := plan.Spec(index)
		if actual != spec.Length {
			return nil, &SizeMismatchError{
				Path:     plan.ChunkPath(dir, prefix, index),
				Expected: spec.Length,
				Actual:   actual,
			}
		}
	}

	for i := 0; i < inv.LastIndex; i++ {
		if _, ok := inv.Present[i]; !ok {
			inv.Missing = append(inv.Missing, i)
		}
	}
	sort.Ints(inv.Missing)

	for _, i := range inv.Missing {
		logger.Warn("chunk missing below resume point, continuing",
			zap.String("chunk", plan.ChunkPath(dir, prefix, i)),
			zap.Int("index", i))
	}

	return inv, nil
}
