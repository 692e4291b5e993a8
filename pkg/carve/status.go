package carve

import (
	"os"
)

// StatusReport is a read-only snapshot of a run's progress: how the
// source splits, what exists locally, and where the next run resumes.
type StatusReport struct {
	Plan *Plan

	Present      int // chunk files on disk
	MissingBelow int // gaps below the boundary chunk
	SidecarOnly  int // digest sidecar without chunk content (synced or relocated)

	// NextSuffix is the suffix of the next chunk a split run would
	// create, empty when every chunk has been created.
	NextSuffix string
	Remaining  int
}

// Status inspects the output directory without mutating anything. It
// runs the same structural validation as a split, so a corrupt chunk
// surfaces here too.
func Status(opts Options) (*StatusReport, error) {
	if err := opts.validate(); err != nil {
		return nil, err
	}
	opts = opts.withDefaults()

	plan, err := NewPlan(opts.SourcePath, opts.ChunkSize)
	if err != nil {
		return nil, err
	}

	inv, err := TakeInventory(opts.OutputDir, opts.Prefix, plan, opts.Logger)
	if err != nil {
		return nil, err
	}

	report := &StatusReport{
		Plan:         plan,
		Present:      len(inv.Present),
		MissingBelow: len(inv.Missing),
	}

	for i := 0; i < plan.Total; i++ {
		if _, ok := inv.Present[i]; ok {
			continue
		}
		path := plan.ChunkPath(opts.OutputDir, opts.Prefix, i)
		if _, err := os.Stat(opts.Algorithm.SidecarPath(path)); err == nil {
			report.SidecarOnly++
		}
	}

	if next := inv.ResumeIndex(); next < plan.Total {
		report.NextSuffix = plan.Spec(next).Suffix
		report.Remaining = plan.Total - next
	}

	return report, nil
}
