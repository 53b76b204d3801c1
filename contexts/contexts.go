// Package contexts is the scope graph: a transient Context per
// scope-introducing Java node kind, answering "what declaration does this
// name refer to here". A Context borrows its node and the active catalog;
// parents are derived on demand from the tree's parent edge, so nothing here
// owns or outlives the tree. Resolution walks locals first, then the
// declarations and type-test patterns its enclosing statements expose to it,
// then the parent chain, bottoming out Unsolved at the compilation unit.
package contexts

import (
	"errors"
	"fmt"

	sitter "github.com/smacker/go-tree-sitter"

	"github.com/jward/understory/internal/syntax"
	"github.com/jward/understory/resolve"
)

// ErrNotAChild reports an exposure query for a node that is not a child of
// the queried scope. It flags a broken tree walk, never an absent symbol.
var ErrNotAChild = errors.New("contexts: node is not a child of this scope")

// Env is the per-query state every Context borrows: the source text the tree
// was parsed from and the catalog chain that resolves qualified names.
type Env struct {
	Src     []byte
	Catalog resolve.TypeCatalog

	// Infer computes the type of an initializer expression, used for locals
	// declared with `var`. Optional; without it such locals degrade to
	// java.lang.Object.
	Infer func(node *sitter.Node) (resolve.Type, error)
}

// Context is one lexical scope.
type Context interface {
	// Node returns the borrowed syntax node this scope wraps.
	Node() *sitter.Node
	// Parent returns the enclosing scope, or nil at the compilation unit.
	Parent() Context
	// SolveSymbol resolves a value name visible at this scope.
	SolveSymbol(name string) (resolve.SymbolReference[resolve.Declaration], error)
	// SolveType resolves a type name visible at this scope.
	SolveType(name string) (resolve.SymbolReference[*resolve.TypeDecl], error)
	// LocalDeclarations lists the declarations this scope itself introduces,
	// in declaration order.
	LocalDeclarations() []resolve.Declaration
	// DeclarationsExposedTo lists the declarations visible to the given
	// direct child, in textual order.
	DeclarationsExposedTo(child *sitter.Node) ([]resolve.Declaration, error)
	// PatternsExposedTo lists the type-test pattern variables flowing into
	// the given direct child, in textual order.
	PatternsExposedTo(child *sitter.Node) ([]resolve.PatternVariable, error)
}

// ContextFor maps a node to its Context. Node kinds that introduce no scope
// of their own get a transparent statement context that only delegates.
func ContextFor(node *sitter.Node, env *Env) Context {
	switch node.Type() {
	case "program":
		return newCompilationUnit(node, env)
	case "class_declaration", "interface_declaration", "enum_declaration",
		"record_declaration", "annotation_type_declaration":
		return &TypeBody{base{node, env}}
	case "method_declaration", "constructor_declaration":
		return &Executable{base{node, env}}
	case "block", "constructor_body":
		return &Block{base{node, env}}
	case "switch_block_statement_group", "switch_rule":
		return &SwitchArm{Block{base{node, env}}}
	case "for_statement":
		return &ForLoop{base{node, env}}
	case "enhanced_for_statement":
		return &EnhancedForLoop{base{node, env}}
	case "catch_clause":
		return &CatchClause{base{node, env}}
	case "if_statement":
		return &IfFlow{base{node, env}}
	case "while_statement", "do_statement":
		return &WhileFlow{base{node, env}}
	case "lambda_expression":
		return &Lambda{base{node, env}}
	case "class_body":
		if p := node.Parent(); p != nil && p.Type() == "object_creation_expression" {
			return &AnonymousBody{base{node, env}}
		}
		return &Statement{base{node, env}}
	default:
		return &Statement{base{node, env}}
	}
}

var typeDeclNodeKinds = map[string]bool{
	"class_declaration":           true,
	"interface_declaration":       true,
	"enum_declaration":            true,
	"record_declaration":          true,
	"annotation_type_declaration": true,
}

// base carries the borrowed node/env pair and the shared delegation walk.
type base struct {
	node *sitter.Node
	env  *Env
}

func (b *base) Node() *sitter.Node { return b.node }

func (b *base) Parent() Context {
	p := b.node.Parent()
	if p == nil {
		return nil
	}
	return ContextFor(p, b.env)
}

func (b *base) LocalDeclarations() []resolve.Declaration { return nil }

func (b *base) DeclarationsExposedTo(child *sitter.Node) ([]resolve.Declaration, error) {
	if err := b.requireChild(child); err != nil {
		return nil, err
	}
	return nil, nil
}

func (b *base) PatternsExposedTo(child *sitter.Node) ([]resolve.PatternVariable, error) {
	if err := b.requireChild(child); err != nil {
		return nil, err
	}
	return nil, nil
}

func (b *base) requireChild(child *sitter.Node) error {
	if child == nil || !syntax.IsChild(b.node, child) {
		return fmt.Errorf("%s scope: %w", b.node.Type(), ErrNotAChild)
	}
	return nil
}

// solveInParent continues a symbol search upward: the parent first exposes
// what this node may see of its siblings (declarations, then flow patterns,
// nearest prior match winning), then resolves in its own scope.
func (b *base) solveInParent(name string) (resolve.SymbolReference[resolve.Declaration], error) {
	parent := b.node.Parent()
	if parent == nil {
		return unsolvedDecl(), nil
	}
	pctx := ContextFor(parent, b.env)

	decls, err := pctx.DeclarationsExposedTo(b.node)
	if err != nil {
		return unsolvedDecl(), err
	}
	for i := len(decls) - 1; i >= 0; i-- {
		if decls[i].Name() == name {
			return solvedDecl(decls[i]), nil
		}
	}

	pats, err := pctx.PatternsExposedTo(b.node)
	if err != nil {
		return unsolvedDecl(), err
	}
	for i := len(pats) - 1; i >= 0; i-- {
		if pats[i].VarName == name {
			return solvedDecl(pats[i]), nil
		}
	}

	return pctx.SolveSymbol(name)
}

func (b *base) solveTypeInParent(name string) (resolve.SymbolReference[*resolve.TypeDecl], error) {
	parent := b.node.Parent()
	if parent == nil {
		return unsolvedType(), nil
	}
	return ContextFor(parent, b.env).SolveType(name)
}

func solvedDecl(d resolve.Declaration) resolve.SymbolReference[resolve.Declaration] {
	return resolve.Solved(d)
}

func unsolvedDecl() resolve.SymbolReference[resolve.Declaration] {
	return resolve.Unsolved[resolve.Declaration]()
}

func unsolvedType() resolve.SymbolReference[*resolve.TypeDecl] {
	return resolve.Unsolved[*resolve.TypeDecl]()
}
