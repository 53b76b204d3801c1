// Package understory answers semantic questions about Java source built on
// tree-sitter: what declaration a name refers to at a position, what type an
// expression has, and which overload a call selects. It builds no compiler
// pipeline; everything is resolved on demand against a live syntax tree.
//
// # Resolution
//
// [Solver] wraps one parsed compilation unit plus a catalog chain of type
// declaration sources (the core library table, compiled jars, source roots):
//
//	tree, root, err := understory.ParseSource(ctx, src)
//	if err != nil { ... }
//	defer tree.Close()
//
//	s := understory.NewSolver(root, src, catalogs)
//	ref, err := s.ResolveSymbol(node, "items")
//	t, err := s.CalculateType(exprNode)
//
// Resolution queries answer "legitimately absent" with an unsolved
// [resolve.SymbolReference]; errors are reserved for broken inputs (corrupt
// archives, unparsable sources, exposure queries against the wrong node).
//
// # Scope rules
//
// Name lookup honors Java's lexical scoping: locals before the query point,
// shadowing by the nearest prior declaration, formal parameters, fields
// declared or inherited, imports, and the implicit java.lang import.
// Type-test pattern variables (`x instanceof T v`) flow to the statements
// after them within the same block. Overloaded calls are narrowed in the
// three invocation phases (strict, boxing, variable arity) with
// most-specific selection; a genuine tie is reported unsolved, never picked
// arbitrarily.
//
// # Projects
//
// [Project] bundles the catalogs for a whole codebase (jars plus source
// roots) and can enumerate every reachable type into a SQLite index for the
// CLI; the index is diagnostic only and never consulted during resolution.
package understory
