// Package syntax holds the read-only helpers this module uses to consume
// tree-sitter Java trees: parsing, child iteration, position lookup, and the
// mapping from syntactic type spellings to resolved types. The tree itself
// is owned by the caller and is never mutated here.
package syntax

import (
	"context"
	"fmt"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/java"
)

// Parse parses Java source into a tree-sitter tree.
func Parse(ctx context.Context, src []byte) (*sitter.Tree, error) {
	parser := sitter.NewParser()
	defer parser.Close()
	parser.SetLanguage(java.GetLanguage())

	tree, err := parser.ParseCtx(ctx, nil, src)
	if err != nil {
		return nil, fmt.Errorf("syntax: parse: %w", err)
	}
	return tree, nil
}

// NamedChildren returns a node's named children in order.
func NamedChildren(n *sitter.Node) []*sitter.Node {
	count := int(n.NamedChildCount())
	out := make([]*sitter.Node, 0, count)
	for i := 0; i < count; i++ {
		out = append(out, n.NamedChild(i))
	}
	return out
}

// Text returns a node's source text.
func Text(n *sitter.Node, src []byte) string {
	return n.Content(src)
}

// IsChild reports whether child is a direct child of parent.
func IsChild(parent, child *sitter.Node) bool {
	p := child.Parent()
	return p != nil && p.Equal(parent)
}

// ChildIndex returns child's position among parent's named children, or -1.
func ChildIndex(parent, child *sitter.Node) int {
	count := int(parent.NamedChildCount())
	for i := 0; i < count; i++ {
		if parent.NamedChild(i).Equal(child) {
			return i
		}
	}
	return -1
}

// NodeAt returns the smallest named node covering a 1-based line/column
// position.
func NodeAt(root *sitter.Node, line, col int) *sitter.Node {
	p := sitter.Point{Row: uint32(line - 1), Column: uint32(col - 1)}
	return root.NamedDescendantForPointRange(p, p)
}

// Ancestor walks up from n to the first ancestor (or n itself) whose kind
// satisfies pred, or nil.
func Ancestor(n *sitter.Node, pred func(kind string) bool) *sitter.Node {
	for cur := n; cur != nil; cur = cur.Parent() {
		if pred(cur.Type()) {
			return cur
		}
	}
	return nil
}

// Import describes one import declaration.
type Import struct {
	Path     string // "java.util.List" or the package for wildcards
	Wildcard bool
	Static   bool
}

// Imports reads the import declarations of a compilation unit.
func Imports(program *sitter.Node, src []byte) []Import {
	var out []Import
	for _, child := range NamedChildren(program) {
		if child.Type() != "import_declaration" {
			continue
		}
		text := strings.TrimSuffix(strings.TrimSpace(Text(child, src)), ";")
		text = strings.TrimSpace(strings.TrimPrefix(text, "import"))
		imp := Import{}
		if strings.HasPrefix(text, "static ") {
			imp.Static = true
			text = strings.TrimSpace(strings.TrimPrefix(text, "static"))
		}
		if strings.HasSuffix(text, ".*") {
			imp.Wildcard = true
			text = strings.TrimSuffix(text, ".*")
		}
		imp.Path = text
		out = append(out, imp)
	}
	return out
}

// PackageName reads the package declaration of a compilation unit, or "".
func PackageName(program *sitter.Node, src []byte) string {
	for _, child := range NamedChildren(program) {
		if child.Type() == "package_declaration" {
			text := strings.TrimSuffix(strings.TrimSpace(Text(child, src)), ";")
			return strings.TrimSpace(strings.TrimPrefix(text, "package"))
		}
	}
	return ""
}
