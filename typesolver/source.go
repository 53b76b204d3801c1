package typesolver

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"

	"github.com/jward/understory/internal/syntax"
	"github.com/jward/understory/resolve"
)

// Source resolves qualified names against an un-compiled source tree laid
// out by package directory convention: type a.b.C lives in root/a/b/C.java,
// nested types inside their outermost type's file. Files are parsed lazily
// with tree-sitter and the resulting declarations cached. An unparsable or
// unreadable file is an error, never an unsolved result.
type Source struct {
	root  string
	cache cache
}

// NewSource builds a source catalog over the given root directory.
func NewSource(root string) (*Source, error) {
	info, err := os.Stat(root)
	if err != nil {
		return nil, fmt.Errorf("typesolver: source root: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("typesolver: source root %s is not a directory", root)
	}
	return &Source{root: root}, nil
}

// SolveType resolves a qualified name by locating and parsing the file that
// would declare it.
func (s *Source) SolveType(name string) (resolve.SymbolReference[*resolve.TypeDecl], error) {
	if ref, ok := s.cache.get(name); ok {
		return ref, nil
	}

	parts := strings.Split(name, ".")
	// Longest-match first: a.b.C.D may be top-level D in package a.b.C or
	// type D nested in a.b.C.
	for i := len(parts); i >= 1; i-- {
		rel := filepath.Join(parts[:i-1]...)
		path := filepath.Join(s.root, rel, parts[i-1]+".java")
		if _, err := os.Stat(path); err != nil {
			continue
		}
		decl, err := s.declFromFile(path, strings.Join(parts[:i-1], "."), parts[i-1:])
		if err != nil {
			return resolve.Unsolved[*resolve.TypeDecl](), err
		}
		if decl == nil {
			break
		}
		ref := resolve.Solved(decl)
		s.cache.put(name, ref)
		return ref, nil
	}
	unsolved := resolve.Unsolved[*resolve.TypeDecl]()
	s.cache.put(name, unsolved)
	return unsolved, nil
}

// ListTypes enumerates declared top-level types by directory convention
// without parsing, for diagnostics.
func (s *Source) ListTypes() ([]string, error) {
	var out []string
	err := filepath.WalkDir(s.root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !strings.HasSuffix(d.Name(), ".java") {
			return nil
		}
		rel, err := filepath.Rel(s.root, path)
		if err != nil {
			return err
		}
		qname := strings.ReplaceAll(strings.TrimSuffix(rel, ".java"), string(filepath.Separator), ".")
		out = append(out, qname)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("typesolver: list source types: %w", err)
	}
	sort.Strings(out)
	return out, nil
}

// declFromFile parses path and extracts the declaration named by the nested
// chain (outermost type first). Returns nil when the file does not declare
// the chain.
func (s *Source) declFromFile(path, pkg string, chain []string) (*resolve.TypeDecl, error) {
	src, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("typesolver: read %s: %w", path, err)
	}
	tree, err := syntax.Parse(context.Background(), src)
	if err != nil {
		return nil, fmt.Errorf("typesolver: parse %s: %w", path, err)
	}
	defer tree.Close()

	b := &sourceDeclBuilder{src: src, pkg: pkg, catalog: s}
	return declFromRoot(tree.RootNode(), b, pkg, chain)
}

// declFromRoot walks the nested chain (outermost type first) under a parsed
// compilation unit and builds the named declaration. Returns nil when the
// unit does not declare the chain.
func declFromRoot(root *sitter.Node, b *sourceDeclBuilder, pkg string, chain []string) (*resolve.TypeDecl, error) {
	b.imports = syntax.Imports(root, b.src)

	node := findTypeDecl(syntax.NamedChildren(root), chain[0], b.src)
	var outerParams []resolve.TypeParameter
	for _, nested := range chain[1:] {
		if node == nil {
			return nil, nil
		}
		outerParams = append(outerParams, declaredTypeParams(node, b.src)...)
		body := node.ChildByFieldName("body")
		if body == nil {
			return nil, nil
		}
		node = findTypeDecl(syntax.NamedChildren(body), nested, b.src)
	}
	if node == nil {
		return nil, nil
	}

	qname := qualified(pkg, strings.Join(chain, "."))
	nestedIn := ""
	if len(chain) > 1 {
		nestedIn = qualified(pkg, strings.Join(chain[:len(chain)-1], "."))
	}
	return b.build(node, qname, nestedIn, outerParams)
}

func qualified(pkg, name string) string {
	if pkg == "" {
		return name
	}
	return pkg + "." + name
}

var typeDeclKinds = map[string]resolve.TypeDeclKind{
	"class_declaration":           resolve.ClassKind,
	"interface_declaration":       resolve.InterfaceKind,
	"enum_declaration":            resolve.EnumKind,
	"record_declaration":          resolve.RecordKind,
	"annotation_type_declaration": resolve.AnnotationKind,
}

func findTypeDecl(nodes []*sitter.Node, name string, src []byte) *sitter.Node {
	for _, n := range nodes {
		if _, ok := typeDeclKinds[n.Type()]; !ok {
			continue
		}
		if id := n.ChildByFieldName("name"); id != nil && syntax.Text(id, src) == name {
			return n
		}
	}
	return nil
}

func declaredTypeParams(node *sitter.Node, src []byte) []resolve.TypeParameter {
	tp := node.ChildByFieldName("type_parameters")
	if tp == nil {
		return nil
	}
	return syntax.TypeParameters(tp, src, func(string) resolve.Type {
		return resolve.Reference{Name: "java.lang.Object"}
	})
}

// sourceDeclBuilder converts one type declaration node into a TypeDecl,
// qualifying simple type spellings through imports, package membership and
// the implicit java.lang import.
type sourceDeclBuilder struct {
	src      []byte
	pkg      string
	imports  []syntax.Import
	catalog  *Source         // backing tree for sibling-file checks, may be nil
	siblings map[string]bool // top-level type names in the same unit, may be nil
}

// lookup builds the name resolver for a given set of in-scope type
// parameter names.
func (b *sourceDeclBuilder) lookup(tpNames map[string]bool) syntax.Lookup {
	return func(name string) resolve.Type {
		if tpNames[name] {
			return resolve.TypeVariable{Name: name}
		}
		return resolve.Reference{Name: b.qualify(name)}
	}
}

func (b *sourceDeclBuilder) qualify(name string) string {
	if strings.Contains(name, ".") {
		return name
	}
	for _, imp := range b.imports {
		if imp.Wildcard || imp.Static {
			continue
		}
		if imp.Path == name || strings.HasSuffix(imp.Path, "."+name) {
			return imp.Path
		}
	}
	if b.siblings[name] {
		return qualified(b.pkg, name)
	}
	// Same-package sibling, checkable by file convention.
	if b.catalog != nil {
		sibling := filepath.Join(b.catalog.root, filepath.Join(strings.Split(b.pkg, ".")...), name+".java")
		if _, err := os.Stat(sibling); err == nil {
			return qualified(b.pkg, name)
		}
	}
	if IsJavaLang(name) {
		return "java.lang." + name
	}
	if b.catalog != nil {
		for _, imp := range b.imports {
			if !imp.Wildcard || imp.Static {
				continue
			}
			candidate := filepath.Join(b.catalog.root, filepath.Join(strings.Split(imp.Path, ".")...), name+".java")
			if _, err := os.Stat(candidate); err == nil {
				return imp.Path + "." + name
			}
		}
	}
	return name
}

func (b *sourceDeclBuilder) build(node *sitter.Node, qname, nestedIn string, outerParams []resolve.TypeParameter) (*resolve.TypeDecl, error) {
	kind := typeDeclKinds[node.Type()]
	decl := &resolve.TypeDecl{QName: qname, DeclKind: kind, NestedIn: nestedIn}

	tpNames := map[string]bool{}
	for _, p := range outerParams {
		tpNames[p.ParamName] = true
	}
	classLookup := b.lookup(tpNames)
	decl.TypeParams = syntax.TypeParameters(node.ChildByFieldName("type_parameters"), b.src, classLookup)
	for _, p := range decl.TypeParams {
		tpNames[p.ParamName] = true
	}
	classLookup = b.lookup(tpNames)

	decl.Supers = b.supertypes(node, kind, classLookup)
	decl.Abstract = strings.Contains(modifiersText(node, b.src), "abstract") || kind == resolve.InterfaceKind

	if kind == resolve.RecordKind {
		b.recordComponents(node, decl, classLookup)
	}

	body := node.ChildByFieldName("body")
	if body == nil {
		return decl, nil
	}
	for _, member := range syntax.NamedChildren(body) {
		switch member.Type() {
		case "field_declaration":
			b.fields(member, decl, classLookup)
		case "method_declaration":
			b.method(member, decl, tpNames)
		case "constructor_declaration":
			b.constructor(member, decl, tpNames)
		case "enum_constant":
			if id := member.ChildByFieldName("name"); id != nil {
				decl.EnumConsts = append(decl.EnumConsts, resolve.EnumConstant{
					ConstName: syntax.Text(id, b.src),
					Type:      resolve.Reference{Name: qname},
				})
			}
		case "enum_body_declarations":
			for _, inner := range syntax.NamedChildren(member) {
				switch inner.Type() {
				case "field_declaration":
					b.fields(inner, decl, classLookup)
				case "method_declaration":
					b.method(inner, decl, tpNames)
				case "constructor_declaration":
					b.constructor(inner, decl, tpNames)
				}
			}
		}
	}
	return decl, nil
}

func (b *sourceDeclBuilder) supertypes(node *sitter.Node, kind resolve.TypeDeclKind, lookup syntax.Lookup) []resolve.Type {
	var supers []resolve.Type
	sawClass := false
	for _, child := range syntax.NamedChildren(node) {
		switch child.Type() {
		case "superclass":
			for _, t := range syntax.NamedChildren(child) {
				supers = append(supers, syntax.TypeOf(t, b.src, lookup))
				sawClass = true
			}
		case "super_interfaces", "extends_interfaces":
			for _, list := range syntax.NamedChildren(child) {
				if list.Type() != "type_list" {
					continue
				}
				for _, t := range syntax.NamedChildren(list) {
					supers = append(supers, syntax.TypeOf(t, b.src, lookup))
				}
			}
		}
	}
	if !sawClass {
		switch kind {
		case resolve.ClassKind:
			supers = append([]resolve.Type{resolve.Reference{Name: "java.lang.Object"}}, supers...)
		case resolve.EnumKind:
			supers = append([]resolve.Type{resolve.Reference{Name: "java.lang.Enum"}}, supers...)
		case resolve.RecordKind:
			supers = append([]resolve.Type{resolve.Reference{Name: "java.lang.Record"}}, supers...)
		}
	}
	return supers
}

func (b *sourceDeclBuilder) fields(node *sitter.Node, decl *resolve.TypeDecl, lookup syntax.Lookup) {
	typeNode := node.ChildByFieldName("type")
	if typeNode == nil {
		return
	}
	fieldType := syntax.TypeOf(typeNode, b.src, lookup)
	mods := modifiersText(node, b.src)
	for _, child := range syntax.NamedChildren(node) {
		if child.Type() != "variable_declarator" {
			continue
		}
		id := child.ChildByFieldName("name")
		if id == nil {
			continue
		}
		decl.FieldList = append(decl.FieldList, resolve.Field{
			FieldName: syntax.Text(id, b.src),
			Type:      fieldType,
			Declaring: decl.QName,
			Static:    strings.Contains(mods, "static"),
			Final:     strings.Contains(mods, "final"),
		})
	}
}

func (b *sourceDeclBuilder) method(node *sitter.Node, decl *resolve.TypeDecl, classParams map[string]bool) {
	id := node.ChildByFieldName("name")
	retNode := node.ChildByFieldName("type")
	if id == nil || retNode == nil {
		return
	}
	scope := map[string]bool{}
	for name := range classParams {
		scope[name] = true
	}
	methodLookup := b.lookup(scope)
	methodParams := syntax.TypeParameters(node.ChildByFieldName("type_parameters"), b.src, methodLookup)
	for _, p := range methodParams {
		scope[p.ParamName] = true
	}
	methodLookup = b.lookup(scope)

	params, varargs := b.formalParams(node.ChildByFieldName("parameters"), methodLookup)
	mods := modifiersText(node, b.src)
	decl.MethodList = append(decl.MethodList, resolve.Method{
		MethodName: syntax.Text(id, b.src),
		Declaring:  decl.QName,
		TypeParams: methodParams,
		Params:     params,
		Return:     syntax.TypeOf(retNode, b.src, methodLookup),
		Variadic:   varargs,
		Static:     strings.Contains(mods, "static"),
		Abstract:   strings.Contains(mods, "abstract"),
	})
}

func (b *sourceDeclBuilder) constructor(node *sitter.Node, decl *resolve.TypeDecl, classParams map[string]bool) {
	lookup := b.lookup(classParams)
	params, varargs := b.formalParams(node.ChildByFieldName("parameters"), lookup)
	decl.CtorList = append(decl.CtorList, resolve.Constructor{
		Declaring: decl.QName,
		Params:    params,
		Variadic:  varargs,
	})
}

// recordComponents turns a record header into fields, accessors and the
// canonical constructor.
func (b *sourceDeclBuilder) recordComponents(node *sitter.Node, decl *resolve.TypeDecl, lookup syntax.Lookup) {
	params, varargs := b.formalParams(node.ChildByFieldName("parameters"), lookup)
	for _, p := range params {
		decl.FieldList = append(decl.FieldList, resolve.Field{
			FieldName: p.ParamName, Type: p.DeclaredType(), Declaring: decl.QName, Final: true,
		})
		decl.MethodList = append(decl.MethodList, resolve.Method{
			MethodName: p.ParamName, Declaring: decl.QName, Return: p.DeclaredType(),
		})
	}
	decl.CtorList = append(decl.CtorList, resolve.Constructor{
		Declaring: decl.QName, Params: params, Variadic: varargs,
	})
}

func (b *sourceDeclBuilder) formalParams(node *sitter.Node, lookup syntax.Lookup) ([]resolve.Parameter, bool) {
	return syntax.FormalParameters(node, b.src, lookup)
}

func modifiersText(node *sitter.Node, src []byte) string {
	for _, child := range syntax.NamedChildren(node) {
		if child.Type() == "modifiers" {
			return syntax.Text(child, src)
		}
	}
	return ""
}
