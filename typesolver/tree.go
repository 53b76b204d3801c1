package typesolver

import (
	"sort"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"

	"github.com/jward/understory/internal/syntax"
	"github.com/jward/understory/resolve"
)

// Tree resolves types declared in a single already-parsed compilation unit.
// It lets queries against an ad-hoc parsed file see the file's own
// declarations without the file living under any source root; chained in
// front of the other catalogs it behaves like a one-file source tree.
type Tree struct {
	src   []byte
	root  *sitter.Node
	pkg   string
	names map[string]bool // top-level type simple names in the unit
	cache cache
}

// NewTree builds a catalog over a parsed compilation unit root. The tree and
// source are borrowed: the caller keeps them alive and unmutated for the
// catalog's lifetime.
func NewTree(root *sitter.Node, src []byte) *Tree {
	names := map[string]bool{}
	for _, n := range syntax.NamedChildren(root) {
		if _, ok := typeDeclKinds[n.Type()]; !ok {
			continue
		}
		if id := n.ChildByFieldName("name"); id != nil {
			names[syntax.Text(id, src)] = true
		}
	}
	return &Tree{src: src, root: root, pkg: syntax.PackageName(root, src), names: names}
}

// SolveType resolves a qualified name against the unit's declarations.
func (t *Tree) SolveType(name string) (resolve.SymbolReference[*resolve.TypeDecl], error) {
	if ref, ok := t.cache.get(name); ok {
		return ref, nil
	}
	unsolved := resolve.Unsolved[*resolve.TypeDecl]()

	local := name
	if t.pkg != "" {
		if !strings.HasPrefix(name, t.pkg+".") {
			t.cache.put(name, unsolved)
			return unsolved, nil
		}
		local = name[len(t.pkg)+1:]
	}
	chain := strings.Split(local, ".")
	if !t.names[chain[0]] {
		t.cache.put(name, unsolved)
		return unsolved, nil
	}

	b := &sourceDeclBuilder{src: t.src, pkg: t.pkg, siblings: t.names}
	decl, err := declFromRoot(t.root, b, t.pkg, chain)
	if err != nil {
		return unsolved, err
	}
	if decl == nil {
		t.cache.put(name, unsolved)
		return unsolved, nil
	}
	ref := resolve.Solved(decl)
	t.cache.put(name, ref)
	return ref, nil
}

// ListTypes enumerates the unit's top-level types.
func (t *Tree) ListTypes() ([]string, error) {
	out := make([]string, 0, len(t.names))
	for name := range t.names {
		if t.pkg != "" {
			name = t.pkg + "." + name
		}
		out = append(out, name)
	}
	sort.Strings(out)
	return out, nil
}
