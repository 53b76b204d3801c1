package contexts

import (
	"strings"

	sitter "github.com/smacker/go-tree-sitter"

	"github.com/jward/understory/internal/syntax"
	"github.com/jward/understory/resolve"
	"github.com/jward/understory/typesolver"
)

// LookupAt builds the resolver that maps a simple type spelling at a tree
// position to its resolved form: type parameters in scope become type
// variables, everything else is qualified through the scope chain. Spellings
// no catalog knows degrade to a bare reference rather than failing.
func LookupAt(n *sitter.Node, env *Env) syntax.Lookup {
	return func(name string) resolve.Type {
		for _, tp := range TypeParamsInScope(n, env) {
			if tp.ParamName == name {
				return tp.AsVariable()
			}
		}
		return resolve.Reference{Name: qualifySpelling(n, env, name)}
	}
}

// TypeParamsInScope collects the type parameters visible at a node,
// innermost declaration first; an inner parameter shadows an outer one with
// the same name.
func TypeParamsInScope(n *sitter.Node, env *Env) []resolve.TypeParameter {
	var nodes []*sitter.Node
	for cur := n; cur != nil; cur = cur.Parent() {
		switch cur.Type() {
		case "method_declaration", "constructor_declaration",
			"class_declaration", "interface_declaration", "record_declaration":
			if tp := cur.ChildByFieldName("type_parameters"); tp != nil {
				nodes = append(nodes, tp)
			}
		}
	}
	if len(nodes) == 0 {
		return nil
	}

	// Names first, so a bound like `T extends Comparable<T>` sees every
	// parameter in scope while its bound is read.
	names := map[string]bool{}
	bare := syntax.QualifyOnly(func(s string) string { return s })
	for _, tp := range nodes {
		for _, p := range syntax.TypeParameters(tp, env.Src, bare) {
			names[p.ParamName] = true
		}
	}
	boundLookup := func(name string) resolve.Type {
		if names[name] {
			return resolve.TypeVariable{Name: name}
		}
		return resolve.Reference{Name: qualifySpelling(n, env, name)}
	}

	var out []resolve.TypeParameter
	seen := map[string]bool{}
	for _, tp := range nodes {
		for _, p := range syntax.TypeParameters(tp, env.Src, boundLookup) {
			if seen[p.ParamName] {
				continue
			}
			seen[p.ParamName] = true
			out = append(out, p)
		}
	}
	return out
}

func qualifySpelling(n *sitter.Node, env *Env, name string) string {
	ref, err := ContextFor(n, env).SolveType(name)
	if err == nil && ref.IsSolved() {
		return ref.Declaration().QName
	}
	if !strings.Contains(name, ".") && typesolver.IsJavaLang(name) {
		return "java.lang." + name
	}
	return name
}

// EnclosingType returns the reference type of the innermost enclosing type
// declaration at n, parameterized with its own type parameters as `this` is.
func EnclosingType(n *sitter.Node, env *Env) (resolve.Reference, bool) {
	qname := enclosingTypeQName(n, env)
	if qname == "" {
		return resolve.Reference{}, false
	}
	ref := resolve.Reference{Name: qname}
	if solved, err := env.Catalog.SolveType(qname); err == nil && solved.IsSolved() {
		d := solved.Declaration()
		if len(d.TypeParams) > 0 {
			args := make([]resolve.Type, len(d.TypeParams))
			for i, tp := range d.TypeParams {
				args[i] = tp.AsVariable()
			}
			ref.Args = args
		}
	}
	return ref, true
}

// enclosingTypeQName builds the qualified name of the innermost type
// declaration at or above n: package, then the nesting chain of type names.
func enclosingTypeQName(n *sitter.Node, env *Env) string {
	var parts []string
	var program *sitter.Node
	for cur := n; cur != nil; cur = cur.Parent() {
		if typeDeclNodeKinds[cur.Type()] {
			if id := cur.ChildByFieldName("name"); id != nil {
				parts = append([]string{syntax.Text(id, env.Src)}, parts...)
			}
		}
		if cur.Type() == "program" {
			program = cur
		}
	}
	qname := strings.Join(parts, ".")
	if program != nil && qname != "" {
		if pkg := syntax.PackageName(program, env.Src); pkg != "" {
			return pkg + "." + qname
		}
	}
	return qname
}

// patternsIntroducedBy collects the type-test pattern variables a statement
// or condition introduces, in textual order. The walk does not cross into
// nested blocks or bodies: patterns bound there stay there.
func patternsIntroducedBy(stmt *sitter.Node, env *Env) []resolve.PatternVariable {
	var out []resolve.PatternVariable
	var walk func(n *sitter.Node)
	walk = func(n *sitter.Node) {
		switch n.Type() {
		case "block", "constructor_body", "lambda_expression",
			"class_body", "interface_body", "enum_body", "switch_block":
			return
		case "instanceof_expression":
			if p, ok := patternOf(n, env); ok {
				out = append(out, p)
			}
		}
		for _, c := range syntax.NamedChildren(n) {
			walk(c)
		}
	}
	if stmt.Type() == "block" {
		return nil
	}
	walk(stmt)
	return out
}

func patternOf(n *sitter.Node, env *Env) (resolve.PatternVariable, bool) {
	id := n.ChildByFieldName("name")
	right := n.ChildByFieldName("right")
	if id == nil || right == nil {
		return resolve.PatternVariable{}, false
	}
	return resolve.PatternVariable{
		VarName: syntax.Text(id, env.Src),
		Type:    syntax.TypeOf(right, env.Src, LookupAt(n, env)),
	}, true
}

// MethodCandidates pools every visible method with the given name from the
// call site outward: each enclosing type's declared methods plus everything
// the catalog reaches through its supertypes. Gathering never stops at the
// first hit; overload selection needs the whole pool.
func MethodCandidates(n *sitter.Node, env *Env, name string) ([]*resolve.Method, error) {
	var out []*resolve.Method
	seen := map[string]bool{}
	var err error
	for cur := n; cur != nil; cur = cur.Parent() {
		if !typeDeclNodeKinds[cur.Type()] {
			continue
		}
		ref, serr := env.Catalog.SolveType(enclosingTypeQName(cur, env))
		if serr != nil {
			return nil, serr
		}
		if !ref.IsSolved() {
			continue
		}
		out, err = appendClosureMethods(out, seen, ref.Declaration().AsReference(), env, name)
		if err != nil {
			return nil, err
		}
	}
	return out, nil
}

// MethodCandidatesOn pools the named methods reachable from a receiver
// type's declaration and its supertypes.
func MethodCandidatesOn(recv resolve.Reference, env *Env, name string) ([]*resolve.Method, error) {
	return appendClosureMethods(nil, map[string]bool{}, recv, env, name)
}

// appendClosureMethods gathers the named methods of ref's supertype closure.
// Each supertype's use-site type arguments are substituted into its methods,
// so candidates reaching the overload phases carry call-site types, not class
// type variables. The closure is breadth-first from the receiver, and an
// override-equivalent signature keeps only its first (most derived) hit: an
// override is one method, not an overload pair.
func appendClosureMethods(out []*resolve.Method, seen map[string]bool, ref resolve.Reference, env *Env, name string) ([]*resolve.Method, error) {
	closure, err := resolve.SupertypeClosure(ref, env.Catalog)
	if err != nil {
		return nil, err
	}
	for _, sup := range closure {
		sref, err := env.Catalog.SolveType(sup.Name)
		if err != nil {
			return nil, err
		}
		if !sref.IsSolved() {
			continue
		}
		decl := sref.Declaration()
		subst := resolve.UseSiteSubst(sup, decl)
		for _, m := range decl.MethodsNamed(name) {
			sm := m.Substituted(subst)
			key := sm.Signature()
			if seen[key] {
				continue
			}
			seen[key] = true
			out = append(out, sm)
		}
	}
	return out, nil
}
