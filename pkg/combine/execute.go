// File: pkg/combine/execute.go
package combine

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"omnichunk/pkg/classify"
	"omnichunk/pkg/manifest"
	"omnichunk/pkg/plan"
	"omnichunk/pkg/render"

	"go.uber.org/zap"
)

// Run scans opts.Root, plans chunks under the token budget and writes them
// to opts.OutputDir. Configuration errors are reported before anything is
// written. An empty eligible set is not an error: the report has no chunks.
func Run(ctx context.Context, opts Options, logger *zap.Logger) (*Report, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	startTime := time.Now()
	if opts.Timestamp.IsZero() {
		opts.Timestamp = startTime
	}

	mode, err := manifest.ParseMode(string(opts.Mode))
	if err != nil {
		return nil, err
	}
	planner, err := plan.New(opts.MaxTokens, logger)
	if err != nil {
		return nil, err
	}

	logger.Info("Starting chunking run",
		zap.String("root", opts.Root),
		zap.String("outputDir", opts.OutputDir),
		zap.String("mode", string(mode)),
		zap.Int("budget", opts.MaxTokens),
		zap.Bool("dryRun", opts.DryRun))

	classifier, err := classify.New(classify.Options{
		Root:          opts.Root,
		Include:       opts.Include,
		Exclude:       opts.Exclude,
		OutputDir:     opts.OutputDir,
		MaxFileSizeKB: opts.MaxFileSizeKB,
		Logger:        logger,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to build file classifier: %w", err)
	}
	if opts.Project == "" {
		opts.Project = filepath.Base(classifier.Root())
	}

	m, err := manifest.Scan(ctx, manifest.ScanOptions{
		Root:       classifier.Root(),
		Mode:       mode,
		Classifier: classifier,
		Workers:    opts.Workers,
		Logger:     logger,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to scan %s: %w", opts.Root, err)
	}

	report := &Report{
		Root:        classifier.Root(),
		OutputDir:   opts.OutputDir,
		Mode:        mode,
		Budget:      planner.Budget(),
		Considered:  m.Considered,
		Files:       m.Len(),
		TotalTokens: m.TotalSize,
		Groups:      len(m.Buckets),
		DryRun:      opts.DryRun,
	}
	if m.Len() == 0 {
		logger.Info("No eligible files found; nothing to write", zap.Int("filesConsidered", m.Considered))
		report.Elapsed = time.Since(startTime)
		return report, nil
	}

	var structure []string
	if mode == manifest.ModeDirectory {
		structure = render.StructureListing(m)
	}
	writer, err := render.NewWriter(render.Options{
		Root:      classifier.Root(),
		OutputDir: opts.OutputDir,
		Project:   opts.Project,
		Timestamp: opts.Timestamp,
		Mode:      mode,
		Budget:    planner.Budget(),
		Separator: opts.Separator,
		Structure: structure,
		Logger:    logger,
	})
	if err != nil {
		return nil, err
	}

	if !opts.DryRun {
		if err := ensureDirectory(opts.OutputDir, logger); err != nil {
			return nil, fmt.Errorf("failed to create output directory: %w", err)
		}
	}

	pool := newWriterPool(ctx, writer, opts.Workers, opts.DryRun, logger)
	planErr := planner.Plan(m, pool.Submit)
	results, waitErr := pool.Wait()
	if waitErr != nil {
		return nil, fmt.Errorf("failed to write chunks: %w", waitErr)
	}
	if planErr != nil {
		return nil, fmt.Errorf("failed to plan chunks: %w", planErr)
	}
	report.Chunks = results

	if opts.Index && !opts.DryRun {
		path, err := writeIndex(opts, report, logger)
		if err != nil {
			return nil, err
		}
		report.IndexFile = path
	}

	report.Elapsed = time.Since(startTime)
	logger.Info("Chunking run completed",
		zap.Int("chunks", len(report.Chunks)),
		zap.Int("oversizeChunks", report.Oversize()),
		zap.Int("totalTokens", report.TotalTokens),
		zap.Duration("elapsed", report.Elapsed))
	return report, nil
}

// ensureDirectory ensures a directory exists, creating it if necessary.
func ensureDirectory(path string, logger *zap.Logger) error {
	if err := os.MkdirAll(path, 0755); err != nil {
		logger.Error("Failed to create directory", zap.String("path", path), zap.Error(err))
		return err
	}
	logger.Debug("Ensured directory exists", zap.String("path", path))
	return nil
}

// writeToFile writes data to a file and logs the operation.
func writeToFile(path string, data []byte, perm os.FileMode, logger *zap.Logger) error {
	if err := os.WriteFile(path, data, perm); err != nil {
		logger.Error("Failed to write file", zap.String("path", path), zap.Error(err))
		return err
	}
	logger.Debug("Successfully wrote file", zap.String("path", path))
	return nil
}
