// Package render turns chunk plans into plain-text documents on disk.
package render

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"omnichunk/pkg/manifest"
	"omnichunk/pkg/plan"

	"go.uber.org/multierr"
	"go.uber.org/zap"
)

// DefaultSeparator delimits per-file blocks.
const DefaultSeparator = "---"

const (
	filePerm = 0o644
	bufSize  = 64 * 1024
)

// Options configures a Writer.
type Options struct {
	Root      string        // directory file paths are relative to
	OutputDir string        // destination of chunk files
	Project   string        // project name shown in headers and file names
	Timestamp time.Time     // run timestamp, shared by every chunk
	Mode      manifest.Mode // grouping mode, shown in headers
	Budget    int           // token budget, shown in headers
	Separator string        // per-file delimiter, DefaultSeparator when empty
	Structure []string      // corpus structure listing, directory mode only
	Logger    *zap.Logger
}

// Writer renders plans. It holds no state that changes between plans, so
// Write may be called from several goroutines.
type Writer struct {
	opts   Options
	logger *zap.Logger
}

// NewWriter validates opts and returns a Writer.
func NewWriter(opts Options) (*Writer, error) {
	if strings.TrimSpace(opts.OutputDir) == "" {
		return nil, fmt.Errorf("output directory is required")
	}
	if opts.Separator == "" {
		opts.Separator = DefaultSeparator
	}
	if strings.ContainsAny(opts.Separator, "\r\n") {
		return nil, fmt.Errorf("separator must be a single line")
	}
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Writer{opts: opts, logger: logger}, nil
}

// FileName returns the file name used for pl.
func (w *Writer) FileName(pl plan.Plan) string {
	return FileName(w.opts.Project, w.opts.Timestamp, pl.Ordinal, pl.GroupKeys)
}

// Write renders pl into the output directory, which must already exist, and
// returns the written path. The document is staged in a temporary file and
// renamed into place.
func (w *Writer) Write(pl plan.Plan) (path string, err error) {
	dest := filepath.Join(w.opts.OutputDir, w.FileName(pl))
	tmp, err := os.CreateTemp(w.opts.OutputDir, "."+filepath.Base(dest)+".tmp-*")
	if err != nil {
		return "", fmt.Errorf("failed to create temporary file: %w", err)
	}
	tmpName := tmp.Name()
	defer func() {
		if err != nil {
			_ = os.Remove(tmpName)
		}
	}()

	bw := bufio.NewWriterSize(tmp, bufSize)
	if err = w.Render(bw, pl); err == nil {
		err = bw.Flush()
	}
	err = multierr.Append(err, tmp.Close())
	if err != nil {
		w.logger.Error("Failed to write chunk", zap.String("file", dest), zap.Int("ordinal", pl.Ordinal), zap.Error(err))
		return "", fmt.Errorf("failed to write chunk %d: %w", pl.Ordinal, err)
	}

	if err = os.Chmod(tmpName, filePerm); err != nil {
		return "", fmt.Errorf("failed to set permissions on %s: %w", tmpName, err)
	}
	if err = os.Rename(tmpName, dest); err != nil {
		return "", fmt.Errorf("failed to move chunk into place: %w", err)
	}

	w.logger.Debug("Wrote chunk",
		zap.String("file", dest),
		zap.Int("ordinal", pl.Ordinal),
		zap.Int("files", len(pl.Files)),
		zap.Int("tokens", pl.TotalSize))
	return dest, nil
}

// Render writes the document for pl to out: the '#' header, a "---" line,
// then one block per file.
func (w *Writer) Render(out io.Writer, pl plan.Plan) error {
	if _, err := io.WriteString(out, w.header(pl)); err != nil {
		return err
	}
	for _, f := range pl.Files {
		if err := w.renderFile(out, f); err != nil {
			return err
		}
	}
	return nil
}

// header builds the metadata lines.
func (w *Writer) header(pl plan.Plan) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# Project: %s\n", w.opts.Project)
	fmt.Fprintf(&b, "# Generated: %s\n", w.opts.Timestamp.Format(time.RFC3339))
	fmt.Fprintf(&b, "# Chunk: %d\n", pl.Ordinal)
	fmt.Fprintf(&b, "# Grouping: %s\n", w.opts.Mode)
	if len(pl.GroupKeys) > 0 {
		fmt.Fprintf(&b, "# Groups: %s\n", strings.Join(pl.GroupKeys, ", "))
	}
	fmt.Fprintf(&b, "# Files: %d\n", len(pl.Files))
	fmt.Fprintf(&b, "# Estimated tokens: %d (budget %d)\n", pl.TotalSize, w.opts.Budget)
	if pl.Oversize {
		b.WriteString("# Oversize: a single file exceeds the budget\n")
	}

	if w.opts.Mode == manifest.ModeDirectory && len(w.opts.Structure) > 0 {
		b.WriteString("#\n# Structure:\n")
		for _, line := range w.opts.Structure {
			fmt.Fprintf(&b, "#   %s\n", line)
		}
	}
	b.WriteString("---\n")
	return b.String()
}

// renderFile writes one delimited block: separator, path, separator, content.
func (w *Writer) renderFile(out io.Writer, f manifest.FileUnit) error {
	content, err := os.ReadFile(filepath.Join(w.opts.Root, filepath.FromSlash(f.Path)))
	if err != nil {
		return fmt.Errorf("error reading file %s: %w", f.Path, err)
	}

	var b bytes.Buffer
	b.Grow(len(content) + len(f.Path) + 2*len(w.opts.Separator) + 8)
	fmt.Fprintf(&b, "\n%s\n%s\n%s\n", w.opts.Separator, f.Path, w.opts.Separator)
	b.Write(content)
	if len(content) > 0 && content[len(content)-1] != '\n' {
		b.WriteByte('\n')
	}

	_, err = out.Write(b.Bytes())
	return err
}
