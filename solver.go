package understory

import (
	"context"
	"errors"
	"fmt"

	sitter "github.com/smacker/go-tree-sitter"

	"github.com/jward/understory/contexts"
	"github.com/jward/understory/internal/syntax"
	"github.com/jward/understory/overload"
	"github.com/jward/understory/resolve"
	"github.com/jward/understory/typesolver"
)

// ErrUntypedNode reports a request to compute the type of a node that has no
// well-formed type: a malformed tree, a non-expression node, or a construct
// whose type needs information this model does not carry.
var ErrUntypedNode = errors.New("understory: node has no well-formed type")

// ParseSource parses Java source text. The caller owns the returned tree and
// must Close it; the root node stays valid for the tree's lifetime.
func ParseSource(ctx context.Context, src []byte) (*sitter.Tree, *sitter.Node, error) {
	tree, err := syntax.Parse(ctx, src)
	if err != nil {
		return nil, nil, err
	}
	return tree, tree.RootNode(), nil
}

// Solver resolves symbols, types and calls against one parsed compilation
// unit. The unit's own declarations are always visible, chained in front of
// the given catalogs, so an ad-hoc parsed file needs no source root.
//
// A Solver is safe for concurrent use as long as the underlying tree is not
// mutated; it holds no state beyond borrowed references and catalog caches.
type Solver struct {
	env *contexts.Env
}

// NewSolver builds a Solver over a parsed compilation unit. catalog may be
// nil; the core library table is always reachable.
func NewSolver(root *sitter.Node, src []byte, catalog resolve.TypeCatalog) *Solver {
	children := []typesolver.TypeSolver{typesolver.NewTree(root, src)}
	if catalog != nil {
		children = append(children, catalog)
	}
	children = append(children, typesolver.NewBuiltin())

	s := &Solver{env: &contexts.Env{
		Src:     src,
		Catalog: typesolver.NewCombined(children...),
	}}
	s.env.Infer = s.CalculateType
	return s
}

// Catalog returns the solver's catalog chain.
func (s *Solver) Catalog() resolve.TypeCatalog { return s.env.Catalog }

// ResolveSymbol resolves a value name as visible at the given tree position.
func (s *Solver) ResolveSymbol(node *sitter.Node, name string) (resolve.SymbolReference[resolve.Declaration], error) {
	return contexts.ContextFor(node, s.env).SolveSymbol(name)
}

// ResolveType resolves a type name as visible at the given tree position.
func (s *Solver) ResolveType(node *sitter.Node, name string) (resolve.SymbolReference[*resolve.TypeDecl], error) {
	return contexts.ContextFor(node, s.env).SolveType(name)
}

// ResolveMethodCall selects the method a call with the given name and actual
// argument types binds to at the given position. Candidates are pooled from
// every enclosing type and its supertypes before applicability testing;
// no applicable candidate, like an ambiguous tie, is Unsolved.
func (s *Solver) ResolveMethodCall(node *sitter.Node, name string, argTypes []resolve.Type) (resolve.SymbolReference[resolve.MethodUsage], error) {
	candidates, err := contexts.MethodCandidates(node, s.env, name)
	if err != nil {
		return resolve.Unsolved[resolve.MethodUsage](), err
	}
	return overload.ResolveMethod(candidates, argTypes, s.env.Catalog)
}

// ResolveConstructorCall selects the constructor of the given type for the
// actual argument types.
func (s *Solver) ResolveConstructorCall(typeName string, argTypes []resolve.Type) (resolve.SymbolReference[resolve.ConstructorUsage], error) {
	ref, err := s.env.Catalog.SolveType(typeName)
	if err != nil {
		return resolve.Unsolved[resolve.ConstructorUsage](), err
	}
	if !ref.IsSolved() {
		return resolve.Unsolved[resolve.ConstructorUsage](), nil
	}
	decl := ref.Declaration()
	candidates := make([]*resolve.Constructor, len(decl.CtorList))
	for i := range decl.CtorList {
		candidates[i] = &decl.CtorList[i]
	}
	return overload.ResolveConstructor(candidates, argTypes, s.env.Catalog)
}

// untyped wraps ErrUntypedNode with the offending node's kind and text.
func (s *Solver) untyped(node *sitter.Node, why string) error {
	text := syntax.Text(node, s.env.Src)
	if len(text) > 40 {
		text = text[:40] + "..."
	}
	return fmt.Errorf("%s %q: %s: %w", node.Type(), text, why, ErrUntypedNode)
}
