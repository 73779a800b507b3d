// File: pkg/manifest/scanner.go
package manifest

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"runtime"
	"sort"

	"omnichunk/pkg/tokens"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Classifier decides eligibility and categories for paths relative to the
// scan root, always with '/' separators.
type Classifier interface {
	SkipDir(rel string) bool
	Eligible(rel string) (bool, error)
	Category(rel string) string
}

// ScanOptions configures Scan.
type ScanOptions struct {
	Root       string
	Mode       Mode
	Classifier Classifier
	Estimator  tokens.Estimator // nil uses tokens.Estimate
	Workers    int              // <= 0 uses runtime.NumCPU()
	Logger     *zap.Logger
}

// scanned is the per-file outcome of the estimation workers.
type scanned struct {
	eligible bool
	size     int
}

// Scan walks the root once and builds the manifest. Candidate paths are
// sorted lexicographically before anything else happens, so the manifest
// order is independent of filesystem enumeration order.
//
// A file that passes classification but cannot be read aborts the scan.
func Scan(ctx context.Context, opts ScanOptions) (*Manifest, error) {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	if opts.Classifier == nil {
		return nil, fmt.Errorf("scan requires a classifier")
	}
	if _, err := ParseMode(string(opts.Mode)); err != nil {
		return nil, err
	}
	estimate := opts.Estimator
	if estimate == nil {
		estimate = tokens.Estimate
	}

	root, err := filepath.Abs(opts.Root)
	if err != nil {
		return nil, fmt.Errorf("failed to get absolute path: %w", err)
	}
	info, err := os.Stat(root)
	if err != nil {
		return nil, fmt.Errorf("cannot access root %s: %w", root, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("root %s is not a directory", root)
	}

	candidates, err := collectCandidates(root, opts.Classifier, logger)
	if err != nil {
		return nil, err
	}

	results, err := estimateAll(ctx, root, candidates, opts.Classifier, estimate, opts.Workers, logger)
	if err != nil {
		return nil, err
	}

	m := New(opts.Mode)
	m.Considered = len(candidates)
	for i, rel := range candidates {
		if !results[i].eligible {
			continue
		}
		m.Add(FileUnit{
			Path: rel,
			Size: results[i].size,
			Key:  groupKey(opts.Mode, rel, opts.Classifier),
		})
	}

	logger.Info("Scan complete",
		zap.String("root", root),
		zap.String("mode", string(opts.Mode)),
		zap.Int("filesConsidered", m.Considered),
		zap.Int("eligibleFiles", m.Len()),
		zap.Int("groups", len(m.Buckets)),
		zap.Int("totalTokens", m.TotalSize))
	return m, nil
}

// collectCandidates walks root and returns every regular file outside skipped
// directories, as sorted slash-separated relative paths. A directory or file
// that cannot be accessed aborts the walk.
func collectCandidates(root string, c Classifier, logger *zap.Logger) ([]string, error) {
	var candidates []string

	err := filepath.WalkDir(root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			if p == root {
				return err
			}
			rel, _ := filepath.Rel(root, p)
			logger.Error("Error accessing path during traversal", zap.String("path", p), zap.Error(err))
			return fmt.Errorf("failed to access %s: %w", filepath.ToSlash(rel), err)
		}

		rel, err := filepath.Rel(root, p)
		if err != nil {
			return fmt.Errorf("unable to determine relative path of %s: %w", p, err)
		}
		rel = filepath.ToSlash(rel)

		if d.IsDir() {
			if rel != "." && c.SkipDir(rel) {
				return filepath.SkipDir
			}
			return nil
		}
		if !d.Type().IsRegular() {
			logger.Debug("Skipping non-regular file", zap.String("filePath", rel))
			return nil
		}

		candidates = append(candidates, rel)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to traverse %s: %w", root, err)
	}

	sort.Strings(candidates)
	logger.Debug("Collected candidate files", zap.Int("candidates", len(candidates)))
	return candidates, nil
}

// estimateAll classifies and sizes candidates with a bounded worker pool.
// Results are stored by index so the outcome does not depend on scheduling.
func estimateAll(ctx context.Context, root string, candidates []string, c Classifier, estimate tokens.Estimator, workers int, logger *zap.Logger) ([]scanned, error) {
	if workers <= 0 {
		workers = runtime.NumCPU()
		logger.Debug("Adjusted worker count", zap.Int("workers", workers))
	}

	results := make([]scanned, len(candidates))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)

	for i, rel := range candidates {
		i, rel := i, rel
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}

			ok, err := c.Eligible(rel)
			if err != nil {
				return err
			}
			if !ok {
				return nil
			}

			content, err := os.ReadFile(filepath.Join(root, filepath.FromSlash(rel)))
			if err != nil {
				logger.Error("Failed to read file", zap.String("filePath", rel), zap.Error(err))
				return fmt.Errorf("error reading file %s: %w", rel, err)
			}
			results[i] = scanned{eligible: true, size: estimate(content)}
			logger.Debug("Estimated file size",
				zap.String("filePath", rel),
				zap.Int("bytes", len(content)),
				zap.Int("tokens", results[i].size))
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

// groupKey returns the grouping key of rel under mode.
func groupKey(mode Mode, rel string, c Classifier) string {
	switch mode {
	case ModeDirectory:
		return path.Dir(rel)
	case ModeType:
		return c.Category(rel)
	default:
		return ""
	}
}
