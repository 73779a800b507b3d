// File: pkg/combine/config.go
package combine

import (
	"fmt"
	"time"

	"omnichunk/pkg/config"
	"omnichunk/pkg/manifest"
)

// Options holds the settings of one chunking run.
type Options struct {
	Root          string        // directory to scan
	OutputDir     string        // destination of chunk files and the index
	MaxTokens     int           // token budget per chunk
	Mode          manifest.Mode // grouping mode
	Include       []string      // include patterns; empty accepts everything
	Exclude       []string      // exclude patterns
	Separator     string        // per-file delimiter in chunk files
	Project       string        // project name used in headers and file names
	Timestamp     time.Time     // run timestamp shared by every output file
	MaxFileSizeKB int           // larger files are skipped; 0 disables the cap
	Workers       int           // concurrent readers and writers; <= 0 uses NumCPU
	DryRun        bool          // plan and report without writing anything
	Index         bool          // write the YAML index next to the chunks
}

// OptionsFromConfig converts a validated configuration into run options.
func OptionsFromConfig(cfg *config.Config, now time.Time) (Options, error) {
	mode, err := cfg.GroupingMode()
	if err != nil {
		return Options{}, err
	}
	ts, err := cfg.RunTimestamp(now)
	if err != nil {
		return Options{}, fmt.Errorf("failed to resolve run timestamp: %w", err)
	}

	return Options{
		Root:          cfg.Root,
		OutputDir:     cfg.OutputDir,
		MaxTokens:     cfg.MaxTokens,
		Mode:          mode,
		Include:       cfg.Include,
		Exclude:       cfg.Exclude,
		Separator:     cfg.Separator,
		Project:       cfg.Project,
		Timestamp:     ts,
		MaxFileSizeKB: cfg.MaxFileSizeKB,
		Workers:       cfg.Workers,
		DryRun:        cfg.DryRun,
		Index:         cfg.Index,
	}, nil
}
