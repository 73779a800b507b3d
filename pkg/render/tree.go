// File: pkg/render/tree.go
package render

import (
	"fmt"
	"sort"
	"strings"

	"omnichunk/pkg/manifest"
)

// treeNode is one directory in the structure listing.
type treeNode struct {
	name     string
	children map[string]*treeNode
	bucket   *manifest.GroupBucket
}

func newTreeNode(name string) *treeNode {
	return &treeNode{name: name, children: make(map[string]*treeNode)}
}

// StructureListing renders every directory bucket of m as a tree annotated
// with its token total and file count. Intermediate directories without files
// of their own are shown without annotation. Totals are per directory and
// are not rolled up into ancestors.
func StructureListing(m *manifest.Manifest) []string {
	root := newTreeNode(manifest.RootKey)
	for _, b := range m.Buckets {
		node := root
		if b.Key != manifest.RootKey {
			for _, part := range strings.Split(b.Key, "/") {
				child, ok := node.children[part]
				if !ok {
					child = newTreeNode(part)
					node.children[part] = child
				}
				node = child
			}
		}
		node.bucket = b
	}

	lines := []string{"./" + annotation(root.bucket)}
	return append(lines, renderChildren(root, "")...)
}

// renderChildren draws the subtree below node, children sorted by name.
func renderChildren(node *treeNode, prefix string) []string {
	names := make([]string, 0, len(node.children))
	for name := range node.children {
		names = append(names, name)
	}
	sort.Strings(names)

	var out []string
	for i, name := range names {
		connector := "├── "
		extension := "│   "
		if i == len(names)-1 {
			connector = "└── "
			extension = "    "
		}
		child := node.children[name]
		out = append(out, fmt.Sprintf("%s%s%s/%s", prefix, connector, name, annotation(child.bucket)))
		out = append(out, renderChildren(child, prefix+extension)...)
	}
	return out
}

func annotation(b *manifest.GroupBucket) string {
	if b == nil {
		return ""
	}
	return fmt.Sprintf(" (%d tokens, %d files)", b.TotalSize, len(b.Members))
}
