// Package pattern compiles gitignore-style glob patterns and matches them
// against slash-separated relative paths.
package pattern

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"go.uber.org/zap"
)

// Rule is one compiled pattern line.
type Rule struct {
	self    *regexp.Regexp // matches the path itself
	under   *regexp.Regexp // matches anything below the path
	Negate  bool           // line started with '!'
	DirOnly bool           // line ended with '/'
	Line    string         // original pattern text
	Source  string         // file the line came from, empty for inline patterns
	LineNo  int            // 1-based line number within Source
}

// Matches reports whether the rule applies to path.
func (r *Rule) Matches(path string, isDir bool) bool {
	if r.under.MatchString(path) {
		return true
	}
	if r.self.MatchString(path) {
		return !r.DirOnly || isDir
	}
	return false
}

// Set is an ordered collection of rules. Later rules override earlier ones,
// so a negated rule can re-admit a path excluded before it.
type Set struct {
	rules  []*Rule
	logger *zap.Logger
}

// NewSet returns an empty Set.
func NewSet(logger *zap.Logger) *Set {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Set{logger: logger}
}

// Compile builds a Set from inline pattern lines.
func Compile(logger *zap.Logger, lines ...string) (*Set, error) {
	s := NewSet(logger)
	if err := s.AddLines("", lines...); err != nil {
		return nil, err
	}
	return s, nil
}

// Len returns the number of compiled rules.
func (s *Set) Len() int {
	return len(s.rules)
}

// Empty reports whether the set holds no rules.
func (s *Set) Empty() bool {
	return len(s.rules) == 0
}

// AddLines compiles lines into the set. Blank lines and '#' comments are skipped.
func (s *Set) AddLines(source string, lines ...string) error {
	for i, line := range lines {
		rule, err := parseLine(line)
		if err != nil {
			if source != "" {
				return fmt.Errorf("%s:%d: %w", source, i+1, err)
			}
			return err
		}
		if rule == nil {
			continue
		}
		rule.Source = source
		rule.LineNo = i + 1
		s.rules = append(s.rules, rule)
		s.logger.Debug("Compiled pattern",
			zap.String("source", source),
			zap.Int("lineNo", rule.LineNo),
			zap.String("pattern", rule.Line),
			zap.Bool("negate", rule.Negate))
	}
	return nil
}

// AddFile compiles every line of an ignore file. A missing file is not an error.
func (s *Set) AddFile(path string) error {
	content, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			s.logger.Debug("Ignore file does not exist and will be skipped", zap.String("filePath", path))
			return nil
		}
		return fmt.Errorf("failed to read ignore file %s: %w", path, err)
	}

	lines := strings.Split(strings.ReplaceAll(string(content), "\r\n", "\n"), "\n")
	if err := s.AddLines(path, lines...); err != nil {
		return err
	}
	s.logger.Debug("Loaded ignore file", zap.String("filePath", path), zap.Int("totalPatterns", len(s.rules)))
	return nil
}

// MatchesPath reports whether path is matched by the set.
func (s *Set) MatchesPath(path string, isDir bool) bool {
	matched, _ := s.MatchesPathWithRule(path, isDir)
	return matched
}

// MatchesPathWithRule reports whether path is matched and returns the last
// rule that decided the outcome.
func (s *Set) MatchesPathWithRule(path string, isDir bool) (bool, *Rule) {
	normalized := normalizePath(path)

	matched := false
	var decided *Rule
	for _, rule := range s.rules {
		if rule.Matches(normalized, isDir) {
			matched = !rule.Negate
			decided = rule
		}
	}
	return matched, decided
}

// parseLine turns one pattern line into a Rule. It returns nil for blank
// lines and comments.
func parseLine(line string) (*Rule, error) {
	trimmed := strings.TrimSpace(line)
	if trimmed == "" || strings.HasPrefix(trimmed, "#") {
		return nil, nil
	}

	rule := &Rule{Line: trimmed}
	body := trimmed
	if strings.HasPrefix(body, "!") {
		rule.Negate = true
		body = body[1:]
	}
	if strings.HasPrefix(body, `\#`) || strings.HasPrefix(body, `\!`) {
		body = body[1:]
	}

	rooted := strings.HasPrefix(body, "/")
	body = strings.TrimPrefix(body, "/")
	if strings.HasSuffix(body, "/") {
		rule.DirOnly = true
		body = strings.TrimRight(body, "/")
	}
	if body == "" {
		return nil, fmt.Errorf("invalid pattern %q: empty after normalization", trimmed)
	}
	// a slash anywhere but the end anchors the pattern, as in gitignore
	if strings.Contains(body, "/") {
		rooted = true
	}

	expr := globToRegex(body)
	self, err := regexp.Compile(anchor(expr, rooted, "$"))
	if err != nil {
		return nil, fmt.Errorf("invalid pattern %q: %w", trimmed, err)
	}
	under, err := regexp.Compile(anchor(expr, rooted, "/.*$"))
	if err != nil {
		return nil, fmt.Errorf("invalid pattern %q: %w", trimmed, err)
	}
	rule.self = self
	rule.under = under
	return rule, nil
}

// normalizePath converts OS separators to '/' and strips "./" and trailing slashes.
func normalizePath(path string) string {
	path = filepath.ToSlash(path)
	path = strings.TrimPrefix(path, "./")
	return strings.TrimSuffix(path, "/")
}
