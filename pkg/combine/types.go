package combine

import (
	"fmt"
	"io"
	"path/filepath"
	"time"

	"omnichunk/pkg/manifest"
)

// ChunkResult describes one planned chunk and, unless the run was dry, the
// file it was written to.
type ChunkResult struct {
	Ordinal   int      `yaml:"ordinal"`
	File      string   `yaml:"file"`                // base name inside the output directory
	GroupKeys []string `yaml:"groupKeys,omitempty"` // directory or category keys
	Files     []string `yaml:"files"`               // member paths in chunk order
	Tokens    int      `yaml:"tokens"`
	Oversize  bool     `yaml:"oversize,omitempty"`
}

// Report summarises a run.
type Report struct {
	Root        string
	OutputDir   string
	Mode        manifest.Mode
	Budget      int
	Considered  int // files inspected, eligible or not
	Files       int // eligible files
	TotalTokens int
	Groups      int
	Chunks      []ChunkResult // sorted by ordinal
	IndexFile   string        // empty when no index was written
	DryRun      bool
	Elapsed     time.Duration
}

// Oversize counts chunks whose size exceeds the budget.
func (r *Report) Oversize() int {
	n := 0
	for _, c := range r.Chunks {
		if c.Oversize {
			n++
		}
	}
	return n
}

// Print writes a human-readable summary to w.
func (r *Report) Print(w io.Writer) error {
	if r.Files == 0 {
		_, err := fmt.Fprintf(w, "No eligible files found under %s (%d files considered); nothing to do.\n", r.Root, r.Considered)
		return err
	}

	verb := "Wrote"
	if r.DryRun {
		verb = "Planned"
	}
	if _, err := fmt.Fprintf(w, "%s %d chunk(s) from %d files (~%d tokens, %d groups, mode %s, budget %d)\n",
		verb, len(r.Chunks), r.Files, r.TotalTokens, r.Groups, r.Mode, r.Budget); err != nil {
		return err
	}
	for _, c := range r.Chunks {
		name := c.File
		if !r.DryRun {
			name = filepath.Join(r.OutputDir, c.File)
		}
		line := fmt.Sprintf("  %3d  %8d tokens  %4d files  %s", c.Ordinal, c.Tokens, len(c.Files), name)
		if c.Oversize {
			line += "  (oversize)"
		}
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}
	if n := r.Oversize(); n > 0 {
		if _, err := fmt.Fprintf(w, "%d chunk(s) exceed the budget because a single file does.\n", n); err != nil {
			return err
		}
	}
	if r.IndexFile != "" {
		if _, err := fmt.Fprintf(w, "Index: %s\n", r.IndexFile); err != nil {
			return err
		}
	}
	return nil
}
