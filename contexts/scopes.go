package contexts

import (
	"strings"

	sitter "github.com/smacker/go-tree-sitter"

	"github.com/jward/understory/internal/syntax"
	"github.com/jward/understory/resolve"
)

// CompilationUnit is the root scope. It resolves type names through the
// unit's imports, its package and the implicit java.lang import, and answers
// every unsolved symbol search with Unsolved.
type CompilationUnit struct {
	base
	pkg     string
	imports []syntax.Import
}

func newCompilationUnit(node *sitter.Node, env *Env) *CompilationUnit {
	return &CompilationUnit{
		base:    base{node, env},
		pkg:     syntax.PackageName(node, env.Src),
		imports: syntax.Imports(node, env.Src),
	}
}

func (c *CompilationUnit) SolveSymbol(name string) (resolve.SymbolReference[resolve.Declaration], error) {
	return unsolvedDecl(), nil
}

func (c *CompilationUnit) SolveType(name string) (resolve.SymbolReference[*resolve.TypeDecl], error) {
	if strings.Contains(name, ".") {
		return c.env.Catalog.SolveType(name)
	}
	for _, qname := range c.spellings(name) {
		ref, err := c.env.Catalog.SolveType(qname)
		if err != nil {
			return unsolvedType(), err
		}
		if ref.IsSolved() {
			return ref, nil
		}
	}
	return unsolvedType(), nil
}

// spellings lists the qualified names a simple type name may stand for, in
// precedence order: single-type imports, the unit's own package, the
// implicit java.lang import, then wildcard imports.
func (c *CompilationUnit) spellings(name string) []string {
	var out []string
	for _, imp := range c.imports {
		if imp.Wildcard || imp.Static {
			continue
		}
		if imp.Path == name || strings.HasSuffix(imp.Path, "."+name) {
			out = append(out, imp.Path)
		}
	}
	if c.pkg != "" {
		out = append(out, c.pkg+"."+name)
	}
	out = append(out, "java.lang."+name)
	for _, imp := range c.imports {
		if imp.Wildcard && !imp.Static {
			out = append(out, imp.Path+"."+name)
		}
	}
	out = append(out, name)
	return out
}

// LocalDeclarations lists the unit's top-level type declarations that the
// catalog can resolve.
func (c *CompilationUnit) LocalDeclarations() []resolve.Declaration {
	var out []resolve.Declaration
	for _, n := range syntax.NamedChildren(c.node) {
		if !typeDeclNodeKinds[n.Type()] {
			continue
		}
		id := n.ChildByFieldName("name")
		if id == nil {
			continue
		}
		qname := syntax.Text(id, c.env.Src)
		if c.pkg != "" {
			qname = c.pkg + "." + qname
		}
		if ref, err := c.env.Catalog.SolveType(qname); err == nil && ref.IsSolved() {
			out = append(out, ref.Declaration())
		}
	}
	return out
}

// TypeBody is the scope of a class, interface, enum, record or annotation
// declaration: its fields and enum constants, declared or inherited, plus
// its nested member types.
type TypeBody struct {
	base
}

func (c *TypeBody) qname() string { return enclosingTypeQName(c.node, c.env) }

func (c *TypeBody) decl() (*resolve.TypeDecl, error) {
	ref, err := c.env.Catalog.SolveType(c.qname())
	if err != nil {
		return nil, err
	}
	if !ref.IsSolved() {
		return nil, nil
	}
	return ref.Declaration(), nil
}

func (c *TypeBody) SolveSymbol(name string) (resolve.SymbolReference[resolve.Declaration], error) {
	d, err := c.decl()
	if err != nil {
		return unsolvedDecl(), err
	}
	if d != nil {
		if f, ok := FieldOn(d, name, c.env.Catalog); ok {
			return solvedDecl(f), nil
		}
	}
	return c.solveInParent(name)
}

func (c *TypeBody) SolveType(name string) (resolve.SymbolReference[*resolve.TypeDecl], error) {
	qname := c.qname()
	if simpleName(qname) == name {
		return c.env.Catalog.SolveType(qname)
	}
	ref, err := c.env.Catalog.SolveType(qname + "." + name)
	if err != nil {
		return unsolvedType(), err
	}
	if ref.IsSolved() {
		return ref, nil
	}
	return c.solveTypeInParent(name)
}

func (c *TypeBody) LocalDeclarations() []resolve.Declaration {
	d, err := c.decl()
	if err != nil || d == nil {
		return nil
	}
	out := make([]resolve.Declaration, 0, len(d.FieldList)+len(d.EnumConsts))
	for _, f := range d.FieldList {
		out = append(out, f)
	}
	for _, e := range d.EnumConsts {
		out = append(out, e)
	}
	return out
}

// Executable is a method or constructor scope: its formal parameters are
// visible throughout the body.
type Executable struct {
	base
}

func (c *Executable) params() []resolve.Declaration {
	ps, _ := syntax.FormalParameters(c.node.ChildByFieldName("parameters"), c.env.Src, LookupAt(c.node, c.env))
	out := make([]resolve.Declaration, len(ps))
	for i, p := range ps {
		out[i] = p
	}
	return out
}

func (c *Executable) SolveSymbol(name string) (resolve.SymbolReference[resolve.Declaration], error) {
	for _, p := range c.params() {
		if p.Name() == name {
			return solvedDecl(p), nil
		}
	}
	return c.solveInParent(name)
}

func (c *Executable) SolveType(name string) (resolve.SymbolReference[*resolve.TypeDecl], error) {
	return c.solveTypeInParent(name)
}

func (c *Executable) LocalDeclarations() []resolve.Declaration { return c.params() }

func (c *Executable) DeclarationsExposedTo(child *sitter.Node) ([]resolve.Declaration, error) {
	if err := c.requireChild(child); err != nil {
		return nil, err
	}
	return c.params(), nil
}

// Block is a statement list scope. It declares nothing visible from the
// outside; what a statement inside it may see is computed relative to that
// statement, scanning only the siblings before it.
type Block struct {
	base
}

func (c *Block) SolveSymbol(name string) (resolve.SymbolReference[resolve.Declaration], error) {
	return c.solveInParent(name)
}

func (c *Block) SolveType(name string) (resolve.SymbolReference[*resolve.TypeDecl], error) {
	return c.solveTypeInParent(name)
}

func (c *Block) LocalDeclarations() []resolve.Declaration {
	return localsIn(syntax.NamedChildren(c.node), c.env)
}

func (c *Block) DeclarationsExposedTo(child *sitter.Node) ([]resolve.Declaration, error) {
	before, err := c.siblingsBefore(child)
	if err != nil {
		return nil, err
	}
	return localsIn(before, c.env), nil
}

func (c *Block) PatternsExposedTo(child *sitter.Node) ([]resolve.PatternVariable, error) {
	before, err := c.siblingsBefore(child)
	if err != nil {
		return nil, err
	}
	var out []resolve.PatternVariable
	for _, stmt := range before {
		out = append(out, patternsIntroducedBy(stmt, c.env)...)
	}
	return out, nil
}

// SwitchArm scopes one arm of a switch, either a colon statement group or
// an arrow rule. The pattern variables its case labels bind flow into the
// arm's statements; within a statement group the usual sibling rules apply
// on top.
type SwitchArm struct {
	Block
}

func (c *SwitchArm) PatternsExposedTo(child *sitter.Node) ([]resolve.PatternVariable, error) {
	flow, err := c.Block.PatternsExposedTo(child)
	if err != nil {
		return nil, err
	}
	if child.Type() == "switch_label" {
		return flow, nil
	}
	var out []resolve.PatternVariable
	for _, lab := range syntax.NamedChildren(c.node) {
		if lab.Type() != "switch_label" {
			continue
		}
		out = append(out, labelPatterns(lab, c.env)...)
	}
	// Later sibling patterns shadow the label bindings.
	return append(out, flow...), nil
}

// labelPatterns collects the variables a case label's type and record
// patterns bind, in textual order. Record pattern components nest, so the
// whole label is walked.
func labelPatterns(label *sitter.Node, env *Env) []resolve.PatternVariable {
	var out []resolve.PatternVariable
	var walk func(n *sitter.Node)
	walk = func(n *sitter.Node) {
		if n.Type() == "type_pattern" {
			kids := syntax.NamedChildren(n)
			if last := len(kids) - 1; last >= 1 && kids[last].Type() == "identifier" {
				out = append(out, resolve.PatternVariable{
					VarName: syntax.Text(kids[last], env.Src),
					Type:    syntax.TypeOf(kids[0], env.Src, LookupAt(n, env)),
				})
			}
			return
		}
		for _, ch := range syntax.NamedChildren(n) {
			walk(ch)
		}
	}
	walk(label)
	return out
}

func (c *Block) siblingsBefore(child *sitter.Node) ([]*sitter.Node, error) {
	if err := c.requireChild(child); err != nil {
		return nil, err
	}
	idx := syntax.ChildIndex(c.node, child)
	if idx < 0 {
		// An unnamed child (punctuation) sees no sibling declarations.
		return nil, nil
	}
	return syntax.NamedChildren(c.node)[:idx], nil
}

// ForLoop scopes a basic for statement: its init declarations are visible to
// the condition, update and body, and condition patterns flow into the body.
type ForLoop struct {
	base
}

func (c *ForLoop) SolveSymbol(name string) (resolve.SymbolReference[resolve.Declaration], error) {
	return c.solveInParent(name)
}

func (c *ForLoop) SolveType(name string) (resolve.SymbolReference[*resolve.TypeDecl], error) {
	return c.solveTypeInParent(name)
}

func (c *ForLoop) LocalDeclarations() []resolve.Declaration {
	init := c.node.ChildByFieldName("init")
	if init == nil || init.Type() != "local_variable_declaration" {
		return nil
	}
	return localVariables(init, c.env)
}

func (c *ForLoop) DeclarationsExposedTo(child *sitter.Node) ([]resolve.Declaration, error) {
	if err := c.requireChild(child); err != nil {
		return nil, err
	}
	if init := c.node.ChildByFieldName("init"); init != nil && child.Equal(init) {
		return nil, nil
	}
	return c.LocalDeclarations(), nil
}

func (c *ForLoop) PatternsExposedTo(child *sitter.Node) ([]resolve.PatternVariable, error) {
	if err := c.requireChild(child); err != nil {
		return nil, err
	}
	body := c.node.ChildByFieldName("body")
	cond := c.node.ChildByFieldName("condition")
	if body == nil || cond == nil || !child.Equal(body) {
		return nil, nil
	}
	return patternsIntroducedBy(cond, c.env), nil
}

// EnhancedForLoop scopes `for (T x : expr)`: the loop variable is visible to
// the body but not to the iterated expression.
type EnhancedForLoop struct {
	base
}

func (c *EnhancedForLoop) SolveSymbol(name string) (resolve.SymbolReference[resolve.Declaration], error) {
	return c.solveInParent(name)
}

func (c *EnhancedForLoop) SolveType(name string) (resolve.SymbolReference[*resolve.TypeDecl], error) {
	return c.solveTypeInParent(name)
}

func (c *EnhancedForLoop) LocalDeclarations() []resolve.Declaration {
	typeNode := c.node.ChildByFieldName("type")
	id := c.node.ChildByFieldName("name")
	if typeNode == nil || id == nil {
		return nil
	}
	t := syntax.TypeOf(typeNode, c.env.Src, LookupAt(c.node, c.env))
	return []resolve.Declaration{resolve.LocalVariable{VarName: syntax.Text(id, c.env.Src), Type: t}}
}

func (c *EnhancedForLoop) DeclarationsExposedTo(child *sitter.Node) ([]resolve.Declaration, error) {
	if err := c.requireChild(child); err != nil {
		return nil, err
	}
	if value := c.node.ChildByFieldName("value"); value != nil && child.Equal(value) {
		return nil, nil
	}
	return c.LocalDeclarations(), nil
}

// CatchClause scopes the caught exception variable, typed as the union of
// the declared catch types.
type CatchClause struct {
	base
}

func (c *CatchClause) SolveSymbol(name string) (resolve.SymbolReference[resolve.Declaration], error) {
	if p, ok := c.param(); ok && p.Name() == name {
		return solvedDecl(p), nil
	}
	return c.solveInParent(name)
}

func (c *CatchClause) SolveType(name string) (resolve.SymbolReference[*resolve.TypeDecl], error) {
	return c.solveTypeInParent(name)
}

func (c *CatchClause) LocalDeclarations() []resolve.Declaration {
	if p, ok := c.param(); ok {
		return []resolve.Declaration{p}
	}
	return nil
}

func (c *CatchClause) DeclarationsExposedTo(child *sitter.Node) ([]resolve.Declaration, error) {
	if err := c.requireChild(child); err != nil {
		return nil, err
	}
	return c.LocalDeclarations(), nil
}

func (c *CatchClause) param() (resolve.Declaration, bool) {
	for _, child := range syntax.NamedChildren(c.node) {
		if child.Type() != "catch_formal_parameter" {
			continue
		}
		name := ""
		if id := child.ChildByFieldName("name"); id != nil {
			name = syntax.Text(id, c.env.Src)
		} else {
			for _, part := range syntax.NamedChildren(child) {
				if part.Type() == "identifier" {
					name = syntax.Text(part, c.env.Src)
				}
			}
		}
		if name == "" {
			return nil, false
		}
		lookup := LookupAt(child, c.env)
		var members []resolve.Type
		for _, part := range syntax.NamedChildren(child) {
			if part.Type() != "catch_type" {
				continue
			}
			for _, t := range syntax.NamedChildren(part) {
				members = append(members, syntax.TypeOf(t, c.env.Src, lookup))
			}
		}
		var t resolve.Type
		switch len(members) {
		case 0:
			t = resolve.Reference{Name: "java.lang.Throwable"}
		case 1:
			t = members[0]
		default:
			t = resolve.Union{Members: members}
		}
		return resolve.LocalVariable{VarName: name, Type: t}, true
	}
	return nil, false
}

// IfFlow exposes the patterns of an if condition to the then branch.
type IfFlow struct {
	base
}

func (c *IfFlow) SolveSymbol(name string) (resolve.SymbolReference[resolve.Declaration], error) {
	return c.solveInParent(name)
}

func (c *IfFlow) SolveType(name string) (resolve.SymbolReference[*resolve.TypeDecl], error) {
	return c.solveTypeInParent(name)
}

func (c *IfFlow) PatternsExposedTo(child *sitter.Node) ([]resolve.PatternVariable, error) {
	if err := c.requireChild(child); err != nil {
		return nil, err
	}
	cons := c.node.ChildByFieldName("consequence")
	cond := c.node.ChildByFieldName("condition")
	if cons == nil || cond == nil || !child.Equal(cons) {
		return nil, nil
	}
	return patternsIntroducedBy(cond, c.env), nil
}

// WhileFlow exposes the patterns of a while/do condition to the loop body.
type WhileFlow struct {
	base
}

func (c *WhileFlow) SolveSymbol(name string) (resolve.SymbolReference[resolve.Declaration], error) {
	return c.solveInParent(name)
}

func (c *WhileFlow) SolveType(name string) (resolve.SymbolReference[*resolve.TypeDecl], error) {
	return c.solveTypeInParent(name)
}

func (c *WhileFlow) PatternsExposedTo(child *sitter.Node) ([]resolve.PatternVariable, error) {
	if err := c.requireChild(child); err != nil {
		return nil, err
	}
	body := c.node.ChildByFieldName("body")
	cond := c.node.ChildByFieldName("condition")
	if body == nil || cond == nil || !child.Equal(body) {
		return nil, nil
	}
	return patternsIntroducedBy(cond, c.env), nil
}

// Lambda scopes lambda parameters. Untyped parameters are not inferred from
// the target functional interface; they degrade to java.lang.Object.
type Lambda struct {
	base
}

func (c *Lambda) params() []resolve.Declaration {
	p := c.node.ChildByFieldName("parameters")
	if p == nil {
		return nil
	}
	object := resolve.Reference{Name: "java.lang.Object"}
	switch p.Type() {
	case "formal_parameters":
		ps, _ := syntax.FormalParameters(p, c.env.Src, LookupAt(c.node, c.env))
		out := make([]resolve.Declaration, len(ps))
		for i, fp := range ps {
			out[i] = fp
		}
		return out
	case "inferred_parameters":
		var out []resolve.Declaration
		for _, id := range syntax.NamedChildren(p) {
			if id.Type() == "identifier" {
				out = append(out, resolve.LocalVariable{VarName: syntax.Text(id, c.env.Src), Type: object})
			}
		}
		return out
	case "identifier":
		return []resolve.Declaration{resolve.LocalVariable{VarName: syntax.Text(p, c.env.Src), Type: object}}
	}
	return nil
}

func (c *Lambda) SolveSymbol(name string) (resolve.SymbolReference[resolve.Declaration], error) {
	for _, p := range c.params() {
		if p.Name() == name {
			return solvedDecl(p), nil
		}
	}
	return c.solveInParent(name)
}

func (c *Lambda) SolveType(name string) (resolve.SymbolReference[*resolve.TypeDecl], error) {
	return c.solveTypeInParent(name)
}

func (c *Lambda) LocalDeclarations() []resolve.Declaration { return c.params() }

func (c *Lambda) DeclarationsExposedTo(child *sitter.Node) ([]resolve.Declaration, error) {
	if err := c.requireChild(child); err != nil {
		return nil, err
	}
	return c.params(), nil
}

// AnonymousBody is the body of an anonymous class created by `new T() {...}`:
// the members of T and its supertypes are in scope.
type AnonymousBody struct {
	base
}

func (c *AnonymousBody) createdType() (*resolve.TypeDecl, error) {
	parent := c.node.Parent()
	if parent == nil {
		return nil, nil
	}
	typeNode := parent.ChildByFieldName("type")
	if typeNode == nil {
		return nil, nil
	}
	t := syntax.TypeOf(typeNode, c.env.Src, LookupAt(parent, c.env))
	ref, ok := t.(resolve.Reference)
	if !ok {
		return nil, nil
	}
	solved, err := c.env.Catalog.SolveType(ref.Name)
	if err != nil {
		return nil, err
	}
	if !solved.IsSolved() {
		return nil, nil
	}
	return solved.Declaration(), nil
}

func (c *AnonymousBody) SolveSymbol(name string) (resolve.SymbolReference[resolve.Declaration], error) {
	d, err := c.createdType()
	if err != nil {
		return unsolvedDecl(), err
	}
	if d != nil {
		if f, ok := FieldOn(d, name, c.env.Catalog); ok {
			return solvedDecl(f), nil
		}
	}
	return c.solveInParent(name)
}

func (c *AnonymousBody) SolveType(name string) (resolve.SymbolReference[*resolve.TypeDecl], error) {
	return c.solveTypeInParent(name)
}

// Statement is the transparent context for node kinds that introduce no
// scope of their own.
type Statement struct {
	base
}

func (c *Statement) SolveSymbol(name string) (resolve.SymbolReference[resolve.Declaration], error) {
	return c.solveInParent(name)
}

func (c *Statement) SolveType(name string) (resolve.SymbolReference[*resolve.TypeDecl], error) {
	return c.solveTypeInParent(name)
}

// FieldOn finds a field or enum constant by name on a declaration or any of
// its supertypes, nearest declaration first. Catalog gaps along the walk are
// treated as absence.
func FieldOn(d *resolve.TypeDecl, name string, cat resolve.TypeCatalog) (resolve.Field, bool) {
	if f, ok := d.FieldNamed(name); ok {
		return f, true
	}
	closure, err := resolve.SupertypeClosure(d.AsReference(), cat)
	if err != nil {
		return resolve.Field{}, false
	}
	for _, sup := range closure[1:] {
		ref, err := cat.SolveType(sup.Name)
		if err != nil || !ref.IsSolved() {
			continue
		}
		if f, ok := ref.Declaration().FieldNamed(name); ok {
			return f, true
		}
	}
	return resolve.Field{}, false
}

// localsIn collects the local variable declarations of a statement list, in
// textual order.
func localsIn(stmts []*sitter.Node, env *Env) []resolve.Declaration {
	var out []resolve.Declaration
	for _, stmt := range stmts {
		if stmt.Type() != "local_variable_declaration" {
			continue
		}
		out = append(out, localVariables(stmt, env)...)
	}
	return out
}

// localVariables reads one local_variable_declaration into declarations,
// inferring `var` types from the initializer when the Env can.
func localVariables(stmt *sitter.Node, env *Env) []resolve.Declaration {
	typeNode := stmt.ChildByFieldName("type")
	if typeNode == nil {
		return nil
	}
	inferring := syntax.Text(typeNode, env.Src) == "var"
	var declared resolve.Type
	if !inferring {
		declared = syntax.TypeOf(typeNode, env.Src, LookupAt(stmt, env))
	}
	var out []resolve.Declaration
	for _, d := range syntax.NamedChildren(stmt) {
		if d.Type() != "variable_declarator" {
			continue
		}
		id := d.ChildByFieldName("name")
		if id == nil {
			continue
		}
		t := declared
		if inferring {
			t = inferredType(d, env)
		}
		out = append(out, resolve.LocalVariable{VarName: syntax.Text(id, env.Src), Type: t})
	}
	return out
}

func inferredType(declarator *sitter.Node, env *Env) resolve.Type {
	if env.Infer != nil {
		if value := declarator.ChildByFieldName("value"); value != nil {
			if t, err := env.Infer(value); err == nil && t != nil {
				return t
			}
		}
	}
	return resolve.Reference{Name: "java.lang.Object"}
}

func simpleName(qname string) string {
	if i := strings.LastIndexByte(qname, '.'); i >= 0 {
		return qname[i+1:]
	}
	return qname
}
