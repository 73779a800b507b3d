package pattern

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestSet_MatchesPath(t *testing.T) {
	tests := []struct {
		name    string
		pattern string
		path    string
		isDir   bool
		want    bool
	}{
		{"extension at root", "*.go", "main.go", false, true},
		{"extension nested", "*.go", "pkg/plan/plan.go", false, true},
		{"extension mismatch", "*.go", "README.md", false, false},
		{"star does not cross slash", "pkg/*.go", "pkg/plan/plan.go", false, false},
		{"star within segment", "pkg/*.go", "pkg/doc.go", false, true},
		{"question mark", "file?.txt", "file1.txt", false, true},
		{"question mark needs one char", "file?.txt", "file.txt", false, false},
		{"double star leading", "**/testdata", "a/b/testdata", true, true},
		{"double star middle", "a/**/z.txt", "a/z.txt", false, true},
		{"double star middle deep", "a/**/z.txt", "a/b/c/z.txt", false, true},
		{"double star trailing", "build/**", "build/out/x.bin", false, true},
		{"directory only matches dir", "vendor/", "vendor", true, true},
		{"directory only skips file", "vendor/", "vendor", false, false},
		{"directory only matches children", "vendor/", "vendor/lib/a.go", false, true},
		{"rooted matches root", "/docs", "docs/a.md", false, true},
		{"rooted skips nested", "/docs", "site/docs/a.md", false, false},
		{"unrooted matches nested", "docs", "site/docs/a.md", false, true},
		{"middle slash anchors", "pkg/b", "x/pkg/b/c.go", false, false},
		{"character class", "[ab].txt", "b.txt", false, true},
		{"negated character class", "[!ab].txt", "a.txt", false, false},
		{"literal dot", "a.b", "axb", false, false},
		{"dot slash prefix", "*.md", "./README.md", false, true},
		{"escaped hash", `\#notes`, "#notes", false, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, err := Compile(zap.NewNop(), tt.pattern)
			require.NoError(t, err)
			assert.Equal(t, tt.want, s.MatchesPath(tt.path, tt.isDir))
		})
	}
}

func TestSet_NegationOverridesEarlierRule(t *testing.T) {
	s, err := Compile(nil, "*.log", "!keep.log")
	require.NoError(t, err)

	assert.True(t, s.MatchesPath("debug.log", false))
	matched, rule := s.MatchesPathWithRule("keep.log", false)
	assert.False(t, matched)
	require.NotNil(t, rule)
	assert.Equal(t, "!keep.log", rule.Line)
}

func TestSet_SkipsBlankAndComments(t *testing.T) {
	s, err := Compile(nil, "", "   ", "# comment", "*.tmp")
	require.NoError(t, err)
	assert.Equal(t, 1, s.Len())
	assert.False(t, s.Empty())
}

func TestSet_InvalidPattern(t *testing.T) {
	_, err := Compile(nil, "/")
	assert.Error(t, err)
}

func TestSet_AddFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ".omnichunkignore")
	require.NoError(t, os.WriteFile(path, []byte("# generated\r\n*.lock\r\n\r\ndist/\n"), 0644))

	s := NewSet(zap.NewNop())
	require.NoError(t, s.AddFile(path))
	assert.Equal(t, 2, s.Len())
	assert.True(t, s.MatchesPath("go.lock", false))
	assert.True(t, s.MatchesPath("dist/app.js", false))

	_, rule := s.MatchesPathWithRule("dist/app.js", false)
	require.NotNil(t, rule)
	assert.Equal(t, path, rule.Source)
	assert.Equal(t, 4, rule.LineNo)
}

func TestSet_AddFileMissing(t *testing.T) {
	s := NewSet(nil)
	require.NoError(t, s.AddFile(filepath.Join(t.TempDir(), "absent")))
	assert.True(t, s.Empty())
}

func TestEscape(t *testing.T) {
	s, err := Compile(zap.NewNop(), "/"+Escape("out[1]*")+"/")
	require.NoError(t, err)
	assert.True(t, s.MatchesPath("out[1]*", true))
	assert.False(t, s.MatchesPath("out1x", true))
}
