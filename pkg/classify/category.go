package classify

import (
	"path"
	"strings"
)

// CategoryOther is assigned to files with no entry in the category table.
const CategoryOther = "other"

// categoryByExtension is the fixed extension table used by type grouping.
var categoryByExtension = map[string]string{
	".go": "go",

	".py": "python", ".pyi": "python", ".pyx": "python",

	".js": "javascript", ".jsx": "javascript", ".mjs": "javascript", ".cjs": "javascript",
	".ts": "javascript", ".tsx": "javascript",

	".html": "web", ".htm": "web", ".css": "web", ".scss": "web", ".sass": "web",
	".less": "web", ".vue": "web", ".svelte": "web",

	".java": "jvm", ".kt": "jvm", ".kts": "jvm", ".scala": "jvm", ".groovy": "jvm",
	".gradle": "jvm",

	".c": "c", ".h": "c", ".cc": "c", ".cpp": "c", ".cxx": "c", ".hpp": "c",
	".hh": "c", ".hxx": "c", ".m": "c", ".mm": "c",

	".cs":    "csharp",
	".rs":    "rust",
	".rb":    "ruby",
	".rake":  "ruby",
	".php":   "php",
	".swift": "swift",

	".sh": "shell", ".bash": "shell", ".zsh": "shell", ".fish": "shell", ".ps1": "shell",
	".bat": "shell",

	".md": "docs", ".markdown": "docs", ".rst": "docs", ".txt": "docs", ".adoc": "docs",

	".json": "config", ".yaml": "config", ".yml": "config", ".toml": "config",
	".ini": "config", ".cfg": "config", ".conf": "config", ".xml": "config",
	".properties": "config", ".env": "config",

	".sql": "sql",
}

// categoryByName covers extensionless build files.
var categoryByName = map[string]string{
	"makefile":    "build",
	"gnumakefile": "build",
	"dockerfile":  "build",
	"jenkinsfile": "build",
	"rakefile":    "ruby",
	"gemfile":     "ruby",
}

// CategoryOf maps a slash-separated path to its type category.
func CategoryOf(p string) string {
	base := strings.ToLower(path.Base(p))
	if c, ok := categoryByName[base]; ok {
		return c
	}
	if c, ok := categoryByExtension[path.Ext(base)]; ok {
		return c
	}
	return CategoryOther
}
