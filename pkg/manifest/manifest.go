// Package manifest holds the scanned corpus: every eligible file with its
// size estimate and grouping key, plus the per-key buckets.
package manifest

import (
	"errors"
	"fmt"
	"strings"
)

// Mode is the grouping policy.
type Mode string

const (
	ModeDirectory Mode = "directory"
	ModeType      Mode = "type"
	ModeSize      Mode = "size"
)

// ErrUnknownMode is returned for a grouping policy that is not one of Modes.
var ErrUnknownMode = errors.New("unknown grouping mode")

// Modes lists the supported grouping policies.
var Modes = []Mode{ModeDirectory, ModeType, ModeSize}

// ParseMode converts a name into a Mode.
func ParseMode(s string) (Mode, error) {
	m := Mode(strings.ToLower(strings.TrimSpace(s)))
	switch m {
	case ModeDirectory, ModeType, ModeSize:
		return m, nil
	}
	return "", fmt.Errorf("%w: %q (want one of directory, type, size)", ErrUnknownMode, s)
}

// Grouped reports whether the mode assigns group keys.
func (m Mode) Grouped() bool {
	return m == ModeDirectory || m == ModeType
}

// RootKey is the directory key of files directly in the scan root.
const RootKey = "."

// FileUnit is one eligible file.
type FileUnit struct {
	Path string // slash-separated, relative to the root
	Size int    // estimated tokens
	Key  string // grouping key, empty in size mode
}

// GroupBucket aggregates the files sharing a key.
type GroupBucket struct {
	Key       string
	TotalSize int
	Members   []FileUnit
}

// Manifest is the complete scan result. It is built once by Add calls and
// treated as read-only afterwards.
type Manifest struct {
	Mode      Mode
	Files     []FileUnit
	Buckets   []*GroupBucket // in order of first appearance
	TotalSize int

	// Considered counts the files inspected by the scanner, eligible or not.
	Considered int

	index map[string]*GroupBucket
}

// New returns an empty manifest for mode.
func New(mode Mode) *Manifest {
	return &Manifest{
		Mode:  mode,
		index: make(map[string]*GroupBucket),
	}
}

// Add appends f and updates totals. In grouped modes f joins the bucket for
// its key, which is created on first use.
func (m *Manifest) Add(f FileUnit) {
	m.Files = append(m.Files, f)
	m.TotalSize += f.Size

	if !m.Mode.Grouped() {
		return
	}
	b, ok := m.index[f.Key]
	if !ok {
		b = &GroupBucket{Key: f.Key}
		m.index[f.Key] = b
		m.Buckets = append(m.Buckets, b)
	}
	b.Members = append(b.Members, f)
	b.TotalSize += f.Size
}

// Bucket returns the bucket for key.
func (m *Manifest) Bucket(key string) (*GroupBucket, bool) {
	b, ok := m.index[key]
	return b, ok
}

// Len returns the number of files.
func (m *Manifest) Len() int {
	return len(m.Files)
}

// Keys returns the bucket keys in order of first appearance.
func (m *Manifest) Keys() []string {
	keys := make([]string, len(m.Buckets))
	for i, b := range m.Buckets {
		keys[i] = b.Key
	}
	return keys
}
