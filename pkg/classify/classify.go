// Package classify decides which files of a tree are eligible for chunking
// and assigns each a type category.
package classify

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"omnichunk/pkg/pattern"

	"go.uber.org/zap"
)

// IgnoreFileName is read from the root directory when present.
const IgnoreFileName = ".omnichunkignore"

// DefaultExclusions are always rejected, whatever the include rules say.
var DefaultExclusions = []string{
	// version control metadata
	".git/", ".svn/", ".hg/", ".bzr/", "CVS/",
	// OS artifacts
	".DS_Store", "Thumbs.db", "desktop.ini", "._*",
	// dependency manager caches
	"node_modules/", "bower_components/", "jspm_packages/", ".npm/", ".yarn/",
	".pnpm-store/", "__pycache__/", ".pytest_cache/", ".mypy_cache/", ".tox/",
	".venv/", ".gradle/", ".bundle/",
	// package metadata directories
	"*.egg-info/", "*.dist-info/", ".eggs/",
}

// Options configures a Classifier.
type Options struct {
	Root          string   // directory being scanned
	Include       []string // if non-empty a file must match one of these
	Exclude       []string // any match rejects
	OutputDir     string   // excluded when it lies inside Root
	MaxFileSizeKB int      // 0 disables the size cap
	Logger        *zap.Logger
}

// Classifier applies default exclusions, include/exclude patterns, the
// ignore file, a size cap and binary detection.
type Classifier struct {
	root     string
	defaults *pattern.Set
	include  *pattern.Set
	exclude  *pattern.Set
	maxBytes int64
	logger   *zap.Logger
}

// New builds a Classifier. Invalid patterns are reported as errors.
func New(opts Options) (*Classifier, error) {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	root, err := filepath.Abs(opts.Root)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve root %s: %w", opts.Root, err)
	}

	defaults, err := pattern.Compile(logger, DefaultExclusions...)
	if err != nil {
		return nil, fmt.Errorf("failed to compile default exclusions: %w", err)
	}
	if rel, ok := insideRoot(root, opts.OutputDir); ok {
		if err := defaults.AddLines("", "/"+pattern.Escape(rel)+"/"); err != nil {
			return nil, fmt.Errorf("failed to exclude output directory: %w", err)
		}
		logger.Debug("Excluding output directory inside root", zap.String("outputDir", rel))
	}

	include, err := pattern.Compile(logger, opts.Include...)
	if err != nil {
		return nil, fmt.Errorf("invalid include pattern: %w", err)
	}
	exclude, err := pattern.Compile(logger, opts.Exclude...)
	if err != nil {
		return nil, fmt.Errorf("invalid exclude pattern: %w", err)
	}
	if err := exclude.AddFile(filepath.Join(root, IgnoreFileName)); err != nil {
		return nil, err
	}

	logger.Debug("Classifier ready",
		zap.String("root", root),
		zap.Int("includePatterns", include.Len()),
		zap.Int("excludePatterns", exclude.Len()),
		zap.Int("maxFileSizeKB", opts.MaxFileSizeKB))

	return &Classifier{
		root:     root,
		defaults: defaults,
		include:  include,
		exclude:  exclude,
		maxBytes: int64(opts.MaxFileSizeKB) * 1024,
		logger:   logger,
	}, nil
}

// Root returns the absolute root directory.
func (c *Classifier) Root() string {
	return c.root
}

// SkipDir reports whether a directory, given relative to the root with '/'
// separators, should not be descended into.
func (c *Classifier) SkipDir(rel string) bool {
	if c.defaults.MatchesPath(rel, true) {
		c.logger.Debug("Skipping default-excluded directory", zap.String("directory", rel))
		return true
	}
	if c.exclude.MatchesPath(rel, true) {
		c.logger.Debug("Skipping excluded directory", zap.String("directory", rel))
		return true
	}
	return false
}

// Eligible reports whether the file at rel should be chunked. An error is
// returned when the file cannot be inspected.
func (c *Classifier) Eligible(rel string) (bool, error) {
	if c.defaults.MatchesPath(rel, false) {
		c.logger.Debug("File matches default exclusion", zap.String("file", rel))
		return false, nil
	}
	if matched, rule := c.exclude.MatchesPathWithRule(rel, false); matched {
		c.logger.Debug("File matches exclude pattern", zap.String("file", rel), zap.String("pattern", rule.Line))
		return false, nil
	}
	if !c.include.Empty() && !c.include.MatchesPath(rel, false) {
		c.logger.Debug("File matches no include pattern", zap.String("file", rel))
		return false, nil
	}
	if isCommonBinaryExtension(rel) {
		c.logger.Debug("File has binary extension", zap.String("file", rel), zap.String("extension", filepath.Ext(rel)))
		return false, nil
	}

	abs := filepath.Join(c.root, filepath.FromSlash(rel))
	if c.maxBytes > 0 {
		info, err := os.Stat(abs)
		if err != nil {
			return false, fmt.Errorf("failed to stat %s: %w", rel, err)
		}
		if info.Size() > c.maxBytes {
			c.logger.Debug("File exceeds size limit",
				zap.String("file", rel),
				zap.Int64("sizeBytes", info.Size()),
				zap.Int64("maxBytes", c.maxBytes))
			return false, nil
		}
	}

	isBinary, err := isBinaryFile(abs)
	if err != nil {
		return false, fmt.Errorf("failed to inspect %s: %w", rel, err)
	}
	if isBinary {
		c.logger.Debug("File is binary", zap.String("file", rel))
		return false, nil
	}
	return true, nil
}

// Category returns the type category of rel.
func (c *Classifier) Category(rel string) string {
	return CategoryOf(rel)
}

// insideRoot returns dir relative to root when dir lies strictly inside it.
func insideRoot(root, dir string) (string, bool) {
	if dir == "" {
		return "", false
	}
	absDir, err := filepath.Abs(dir)
	if err != nil {
		return "", false
	}
	rel, err := filepath.Rel(root, absDir)
	if err != nil || rel == "." || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", false
	}
	return filepath.ToSlash(rel), true
}
