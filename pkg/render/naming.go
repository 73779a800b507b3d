// File: pkg/render/naming.go
package render

import (
	"fmt"
	"strings"
	"time"

	"omnichunk/pkg/manifest"
)

// TimestampLayout formats the run timestamp embedded in file names.
const TimestampLayout = "20060102_150405"

// maxKeyLen caps each sanitized key inside a file name.
const maxKeyLen = 40

// FileName derives the chunk file name from its composition. It is a pure
// function of its arguments.
//
//	one key:    <project>_<ts>_part001_<key>.txt
//	two keys:   <project>_<ts>_part001_<key1>_<key2>.txt
//	more keys:  <project>_<ts>_part001_<key1>_<key2>_and3more.txt
func FileName(project string, ts time.Time, ordinal int, keys []string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s_%s_part%03d", SanitizeKey(project), ts.Format(TimestampLayout), ordinal)

	shown := keys
	if len(shown) > 2 {
		shown = shown[:2]
	}
	for _, k := range shown {
		b.WriteString("_")
		b.WriteString(SanitizeKey(k))
	}
	if rest := len(keys) - len(shown); rest > 0 {
		fmt.Fprintf(&b, "_and%dmore", rest)
	}

	b.WriteString(".txt")
	return b.String()
}

// IndexFileName names the run index written next to the chunks.
func IndexFileName(project string, ts time.Time) string {
	return fmt.Sprintf("%s_%s_index.yaml", SanitizeKey(project), ts.Format(TimestampLayout))
}

// SanitizeKey maps a group key onto [A-Za-z0-9._-]. Path separators and
// other characters become '_', the root directory key becomes "root".
func SanitizeKey(key string) string {
	if key == manifest.RootKey || key == "" {
		return "root"
	}

	var b strings.Builder
	lastUnderscore := false
	for _, r := range key {
		ok := (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') || r == '.' || r == '-'
		if ok {
			b.WriteRune(r)
			lastUnderscore = false
			continue
		}
		if !lastUnderscore {
			b.WriteByte('_')
			lastUnderscore = true
		}
	}

	out := strings.Trim(b.String(), "_.")
	if out == "" {
		return "root"
	}
	if len(out) > maxKeyLen {
		out = strings.TrimRight(out[:maxKeyLen], "_.")
	}
	return out
}
