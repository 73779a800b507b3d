package manifest

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"

	"omnichunk/pkg/classify"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func writeTree(t *testing.T, files map[string]string) string {
	t.Helper()
	root := t.TempDir()
	for rel, content := range files {
		path := filepath.Join(root, filepath.FromSlash(rel))
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	}
	return root
}

func scanTree(t *testing.T, root string, mode Mode) *Manifest {
	t.Helper()
	c, err := classify.New(classify.Options{Root: root})
	require.NoError(t, err)

	m, err := Scan(context.Background(), ScanOptions{
		Root:       root,
		Mode:       mode,
		Classifier: c,
		Workers:    3,
		Logger:     zaptest.NewLogger(t),
	})
	require.NoError(t, err)
	return m
}

func paths(files []FileUnit) []string {
	out := make([]string, len(files))
	for i, f := range files {
		out[i] = f.Path
	}
	return out
}

var sampleTree = map[string]string{
	"main.go":           strings.Repeat("m", 40),
	"b-c.go":            strings.Repeat("x", 8),
	"b/inner.go":        strings.Repeat("i", 12),
	"b/deep/leaf.py":    strings.Repeat("l", 100),
	"docs/guide.md":     strings.Repeat("g", 20),
	"node_modules/x.js": "ignored",
	".git/HEAD":         "ref: refs/heads/main",
	"image.png":         "binary by extension",
}

// =============================================================================
// Ordering and keys
// =============================================================================

func TestScan_LexicographicOrder(t *testing.T) {
	m := scanTree(t, writeTree(t, sampleTree), ModeSize)

	// "b-c.go" sorts before "b/..." because '-' < '/'.
	assert.Equal(t, []string{
		"b-c.go",
		"b/deep/leaf.py",
		"b/inner.go",
		"docs/guide.md",
		"main.go",
	}, paths(m.Files))
	assert.Empty(t, m.Buckets)
	for _, f := range m.Files {
		assert.Empty(t, f.Key)
	}
	assert.Equal(t, 6, m.Considered, "default-excluded directories are never walked")
}

func TestScan_DirectoryKeysAreDirectParents(t *testing.T) {
	m := scanTree(t, writeTree(t, sampleTree), ModeDirectory)

	assert.Equal(t, []string{".", "b/deep", "b", "docs"}, m.Keys())

	b, ok := m.Bucket("b")
	require.True(t, ok)
	assert.Equal(t, 3, b.TotalSize, "descendant directories are not rolled up")
	assert.Equal(t, []string{"b/inner.go"}, paths(b.Members))

	root, ok := m.Bucket(RootKey)
	require.True(t, ok)
	assert.Equal(t, []string{"b-c.go", "main.go"}, paths(root.Members))
	assert.Equal(t, 2+10, root.TotalSize)
}

func TestScan_TypeKeys(t *testing.T) {
	m := scanTree(t, writeTree(t, sampleTree), ModeType)

	assert.Equal(t, []string{"go", "python", "docs"}, m.Keys())
	goBucket, ok := m.Bucket("go")
	require.True(t, ok)
	assert.Equal(t, []string{"b-c.go", "b/inner.go", "main.go"}, paths(goBucket.Members))
}

func TestScan_TotalsAndEstimates(t *testing.T) {
	m := scanTree(t, writeTree(t, sampleTree), ModeDirectory)

	sum := 0
	for _, f := range m.Files {
		sum += f.Size
	}
	assert.Equal(t, sum, m.TotalSize)
	assert.Equal(t, (40+8+12+100+20)/4, m.TotalSize)
}

func TestScan_Deterministic(t *testing.T) {
	root := writeTree(t, sampleTree)
	first := scanTree(t, root, ModeDirectory)
	second := scanTree(t, root, ModeDirectory)
	assert.Equal(t, first.Files, second.Files)
	assert.Equal(t, first.Keys(), second.Keys())
}

func TestScan_EmptyTree(t *testing.T) {
	m := scanTree(t, t.TempDir(), ModeDirectory)
	assert.Equal(t, 0, m.Len())
	assert.Equal(t, 0, m.TotalSize)
}

// =============================================================================
// Errors
// =============================================================================

// vanishingClassifier approves every file but deletes it first, so the
// following content read fails.
type vanishingClassifier struct {
	root string
}

func (v vanishingClassifier) SkipDir(string) bool    { return false }
func (v vanishingClassifier) Category(string) string { return "" }
func (v vanishingClassifier) Eligible(rel string) (bool, error) {
	return true, os.Remove(filepath.Join(v.root, filepath.FromSlash(rel)))
}

func TestScan_UnreadableFileAborts(t *testing.T) {
	root := writeTree(t, map[string]string{"gone.txt": "soon deleted"})

	_, err := Scan(context.Background(), ScanOptions{
		Root:       root,
		Mode:       ModeSize,
		Classifier: vanishingClassifier{root: root},
		Logger:     zaptest.NewLogger(t),
	})
	require.Error(t, err)
	assert.True(t, errors.Is(err, os.ErrNotExist))
}

func TestScan_UnknownMode(t *testing.T) {
	_, err := Scan(context.Background(), ScanOptions{
		Root:       t.TempDir(),
		Mode:       Mode("random"),
		Classifier: vanishingClassifier{},
	})
	assert.True(t, errors.Is(err, ErrUnknownMode))
}

func TestScan_MissingRoot(t *testing.T) {
	_, err := Scan(context.Background(), ScanOptions{
		Root:       filepath.Join(t.TempDir(), "absent"),
		Mode:       ModeSize,
		Classifier: vanishingClassifier{},
	})
	assert.Error(t, err)
}

func lockDir(t *testing.T, dir string) {
	t.Helper()
	if runtime.GOOS == "windows" || os.Geteuid() == 0 {
		t.Skip("directory permissions are not enforced for this user")
	}
	require.NoError(t, os.Chmod(dir, 0))
	t.Cleanup(func() { _ = os.Chmod(dir, 0755) })
}

func TestScan_UnreadableDirectoryAborts(t *testing.T) {
	root := writeTree(t, map[string]string{
		"a.txt":        "visible",
		"locked/b.txt": "hidden",
	})
	lockDir(t, filepath.Join(root, "locked"))

	c, err := classify.New(classify.Options{Root: root})
	require.NoError(t, err)
	_, err = Scan(context.Background(), ScanOptions{
		Root:       root,
		Mode:       ModeSize,
		Classifier: c,
		Logger:     zaptest.NewLogger(t),
	})
	require.Error(t, err)
	assert.True(t, errors.Is(err, os.ErrPermission))
	assert.Contains(t, err.Error(), "locked")
}

func TestScan_UnreadableExcludedDirectoryIsSkipped(t *testing.T) {
	root := writeTree(t, map[string]string{
		"a.txt":              "visible",
		"node_modules/b.txt": "hidden",
	})
	lockDir(t, filepath.Join(root, "node_modules"))

	m := scanTree(t, root, ModeSize)
	assert.Equal(t, []string{"a.txt"}, paths(m.Files))
}
