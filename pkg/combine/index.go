// File: pkg/combine/index.go
package combine

import (
	"fmt"
	"path/filepath"
	"time"

	"omnichunk/pkg/render"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

// Index is the machine-readable listing written next to the chunk files.
type Index struct {
	Project     string        `yaml:"project"`
	Generated   string        `yaml:"generated"`
	Mode        string        `yaml:"mode"`
	Budget      int           `yaml:"budget"`
	TotalFiles  int           `yaml:"totalFiles"`
	TotalTokens int           `yaml:"totalTokens"`
	Chunks      []ChunkResult `yaml:"chunks"`
}

func newIndex(opts Options, report *Report) Index {
	return Index{
		Project:     opts.Project,
		Generated:   opts.Timestamp.Format(time.RFC3339),
		Mode:        string(report.Mode),
		Budget:      report.Budget,
		TotalFiles:  report.Files,
		TotalTokens: report.TotalTokens,
		Chunks:      report.Chunks,
	}
}

// writeIndex marshals the index and writes it into the output directory.
func writeIndex(opts Options, report *Report, logger *zap.Logger) (string, error) {
	data, err := yaml.Marshal(newIndex(opts, report))
	if err != nil {
		return "", fmt.Errorf("failed to marshal index: %w", err)
	}

	path := filepath.Join(opts.OutputDir, render.IndexFileName(opts.Project, opts.Timestamp))
	if err := writeToFile(path, data, 0644, logger); err != nil {
		return "", fmt.Errorf("failed to write index: %w", err)
	}
	return path, nil
}
