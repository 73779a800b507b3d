// File: pkg/pattern/glob.go
package pattern

import (
	"regexp"
	"strings"
)

// globToRegex converts a shell glob into an unanchored regular expression body.
//
//	*    any run of characters except '/'
//	?    one character except '/'
//	**   any run of characters including '/'; "**/" also matches nothing
//	[..] character class, a leading '!' negates
//	\x   literal x
func globToRegex(glob string) string {
	var b strings.Builder

	for i := 0; i < len(glob); i++ {
		c := glob[i]
		switch c {
		case '*':
			if i+1 < len(glob) && glob[i+1] == '*' {
				i++
				if i+1 < len(glob) && glob[i+1] == '/' {
					i++
					b.WriteString(`(.*/)?`)
				} else {
					b.WriteString(`.*`)
				}
				continue
			}
			b.WriteString(`[^/]*`)
		case '?':
			b.WriteString(`[^/]`)
		case '[':
			end := strings.IndexByte(glob[i+1:], ']')
			if end <= 0 {
				b.WriteString(`\[`)
				continue
			}
			class := glob[i+1 : i+1+end]
			if strings.HasPrefix(class, "!") {
				class = "^" + class[1:]
			}
			b.WriteString("[" + strings.ReplaceAll(class, `\`, `\\`) + "]")
			i += end + 1
		case '\\':
			if i+1 < len(glob) {
				i++
				b.WriteString(regexp.QuoteMeta(glob[i : i+1]))
			} else {
				b.WriteString(`\\`)
			}
		default:
			b.WriteString(regexp.QuoteMeta(glob[i : i+1]))
		}
	}

	return b.String()
}

// anchor wraps a regex body so it matches a whole slash-separated path.
// Rooted patterns match from the start of the path; others match at any depth.
func anchor(body string, rooted bool, suffix string) string {
	if rooted {
		return "^" + body + suffix
	}
	return "^(|.*/)" + body + suffix
}

// Escape quotes glob metacharacters so s matches only itself.
func Escape(s string) string {
	var b strings.Builder
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '*', '?', '[', '\\', '!', '#':
			b.WriteByte('\\')
		}
		b.WriteByte(s[i])
	}
	return b.String()
}
