package render

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"omnichunk/pkg/manifest"
	"omnichunk/pkg/plan"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

var runTime = time.Date(2026, 10, 19, 14, 30, 5, 0, time.UTC)

// =============================================================================
// Naming
// =============================================================================

func TestFileName(t *testing.T) {
	tests := []struct {
		name    string
		ordinal int
		keys    []string
		want    string
	}{
		{"no keys", 7, nil, "proj_20261019_143005_part007.txt"},
		{"root key", 1, []string{"."}, "proj_20261019_143005_part001_root.txt"},
		{"one key", 2, []string{"pkg/plan"}, "proj_20261019_143005_part002_pkg_plan.txt"},
		{"two keys", 3, []string{"cmd", "docs"}, "proj_20261019_143005_part003_cmd_docs.txt"},
		{"many keys", 4, []string{"a", "b", "c", "d", "e"}, "proj_20261019_143005_part004_a_b_and3more.txt"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := FileName("proj", runTime, tt.ordinal, tt.keys)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, got, FileName("proj", runTime, tt.ordinal, tt.keys), "pure function")
		})
	}
}

func TestSanitizeKey(t *testing.T) {
	tests := map[string]string{
		".":                   "root",
		"":                    "root",
		"src/main":            "src_main",
		"weird name/with:col": "weird_name_with_col",
		"__init__":            "init",
		"v1.2-beta":           "v1.2-beta",
	}
	for in, want := range tests {
		assert.Equal(t, want, SanitizeKey(in), in)
	}

	assert.Equal(t, strings.Repeat("a", maxKeyLen), SanitizeKey(strings.Repeat("a", 60)))
}

func TestIndexFileName(t *testing.T) {
	assert.Equal(t, "my_proj_20261019_143005_index.yaml", IndexFileName("my proj", runTime))
}

// =============================================================================
// Structure listing
// =============================================================================

func TestStructureListing(t *testing.T) {
	m := manifest.New(manifest.ModeDirectory)
	m.Add(manifest.FileUnit{Path: "main.go", Size: 10, Key: "."})
	m.Add(manifest.FileUnit{Path: "pkg/a/a.go", Size: 5, Key: "pkg/a"})
	m.Add(manifest.FileUnit{Path: "pkg/b/b.go", Size: 7, Key: "pkg/b"})
	m.Add(manifest.FileUnit{Path: "docs/x.md", Size: 3, Key: "docs"})

	assert.Equal(t, []string{
		"./ (10 tokens, 1 files)",
		"├── docs/ (3 tokens, 1 files)",
		"└── pkg/",
		"    ├── a/ (5 tokens, 1 files)",
		"    └── b/ (7 tokens, 1 files)",
	}, StructureListing(m))
}

// =============================================================================
// Writer
// =============================================================================

func setupWriter(t *testing.T, mode manifest.Mode, structure []string) (*Writer, string, string) {
	t.Helper()
	root := t.TempDir()
	out := filepath.Join(t.TempDir(), "chunks")
	require.NoError(t, os.MkdirAll(out, 0755))
	require.NoError(t, os.MkdirAll(filepath.Join(root, "pkg"), 0755))
	require.NoError(t, os.WriteFile(filepath.Join(root, "pkg", "a.go"), []byte("package pkg\n"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(root, "notes.txt"), []byte("no trailing newline"), 0644))

	w, err := NewWriter(Options{
		Root:      root,
		OutputDir: out,
		Project:   "demo",
		Timestamp: runTime,
		Mode:      mode,
		Budget:    100,
		Structure: structure,
		Logger:    zaptest.NewLogger(t),
	})
	require.NoError(t, err)
	return w, root, out
}

func samplePlan() plan.Plan {
	return plan.Plan{
		Ordinal:   1,
		GroupKeys: []string{"pkg", "."},
		Files: []manifest.FileUnit{
			{Path: "pkg/a.go", Size: 3, Key: "pkg"},
			{Path: "notes.txt", Size: 4, Key: "."},
		},
		TotalSize: 7,
	}
}

func TestWriter_Render(t *testing.T) {
	w, _, _ := setupWriter(t, manifest.ModeDirectory, []string{"./ (4 tokens, 1 files)", "└── pkg/ (3 tokens, 1 files)"})

	var buf bytes.Buffer
	require.NoError(t, w.Render(&buf, samplePlan()))

	want := strings.Join([]string{
		"# Project: demo",
		"# Generated: 2026-10-19T14:30:05Z",
		"# Chunk: 1",
		"# Grouping: directory",
		"# Groups: pkg, .",
		"# Files: 2",
		"# Estimated tokens: 7 (budget 100)",
		"#",
		"# Structure:",
		"#   ./ (4 tokens, 1 files)",
		"#   └── pkg/ (3 tokens, 1 files)",
		"---",
		"",
		"---",
		"pkg/a.go",
		"---",
		"package pkg",
		"",
		"---",
		"notes.txt",
		"---",
		"no trailing newline",
		"",
	}, "\n")
	assert.Equal(t, want, buf.String())
}

func TestWriter_RenderOmitsStructureOutsideDirectoryMode(t *testing.T) {
	w, _, _ := setupWriter(t, manifest.ModeSize, []string{"./"})
	pl := samplePlan()
	pl.GroupKeys = nil
	pl.Oversize = true

	var buf bytes.Buffer
	require.NoError(t, w.Render(&buf, pl))
	assert.NotContains(t, buf.String(), "# Structure:")
	assert.NotContains(t, buf.String(), "# Groups:")
	assert.Contains(t, buf.String(), "# Oversize: a single file exceeds the budget\n")
}

func TestWriter_Write(t *testing.T) {
	w, _, out := setupWriter(t, manifest.ModeDirectory, nil)

	path, err := w.Write(samplePlan())
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(out, "demo_20261019_143005_part001_pkg_root.txt"), path)

	content, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(content), "# Project: demo\n"))

	entries, err := os.ReadDir(out)
	require.NoError(t, err)
	assert.Len(t, entries, 1, "no temporary files left behind")

	again, err := w.Write(samplePlan())
	require.NoError(t, err)
	second, err := os.ReadFile(again)
	require.NoError(t, err)
	assert.Equal(t, content, second, "rendering is deterministic")
}

func TestWriter_WriteMissingSource(t *testing.T) {
	w, _, out := setupWriter(t, manifest.ModeSize, nil)
	pl := samplePlan()
	pl.Files = append(pl.Files, manifest.FileUnit{Path: "gone.txt"})

	_, err := w.Write(pl)
	require.Error(t, err)

	entries, err := os.ReadDir(out)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestNewWriter_Validation(t *testing.T) {
	_, err := NewWriter(Options{})
	assert.Error(t, err)

	_, err = NewWriter(Options{OutputDir: "out", Separator: "a\nb"})
	assert.Error(t, err)

	w, err := NewWriter(Options{OutputDir: "out"})
	require.NoError(t, err)
	assert.Equal(t, DefaultSeparator, w.opts.Separator)
}

func TestWriter_WriteRequiresOutputDir(t *testing.T) {
	w, _, out := setupWriter(t, manifest.ModeSize, nil)
	require.NoError(t, os.Remove(out))

	_, err := w.Write(samplePlan())
	assert.Error(t, err)
	assert.NoDirExists(t, out)
}
