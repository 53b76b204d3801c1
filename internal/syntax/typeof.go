package syntax

import (
	"strings"

	sitter "github.com/smacker/go-tree-sitter"

	"github.com/jward/understory/resolve"
)

// Lookup resolves a simple type name appearing in source to its resolved
// form: a type variable when a type parameter of that name is in scope,
// otherwise a reference whose qualified name is determined by imports,
// package membership and the implicit java.lang import. A Lookup must always
// return a usable type; unresolvable names degrade to a bare reference under
// the spelled name.
type Lookup func(name string) resolve.Type

// QualifyOnly adapts a name-to-qualified-name function into a Lookup.
func QualifyOnly(qualify func(string) string) Lookup {
	return func(name string) resolve.Type {
		return resolve.Reference{Name: qualify(name)}
	}
}

// TypeOf maps a syntactic type node to its resolved type.
func TypeOf(node *sitter.Node, src []byte, lookup Lookup) resolve.Type {
	switch node.Type() {
	case "void_type":
		return resolve.VoidType{}
	case "boolean_type":
		return resolve.Primitive{Name: resolve.Boolean}
	case "integral_type", "floating_point_type":
		return resolve.Primitive{Name: resolve.PrimitiveKind(Text(node, src))}
	case "array_type":
		elem := node.ChildByFieldName("element")
		dims := node.ChildByFieldName("dimensions")
		t := TypeOf(elem, src, lookup)
		for i := 0; i < strings.Count(Text(dims, src), "["); i++ {
			t = resolve.Array{Component: t}
		}
		return t
	case "type_identifier":
		return lookup(Text(node, src))
	case "scoped_type_identifier":
		return resolve.Reference{Name: Text(node, src)}
	case "generic_type":
		return genericTypeOf(node, src, lookup)
	case "wildcard":
		return wildcardOf(node, src, lookup)
	default:
		// Unknown spellings degrade to a bare reference; resolution against
		// a catalog will report them unsolved rather than failing here.
		return resolve.Reference{Name: Text(node, src)}
	}
}

func genericTypeOf(node *sitter.Node, src []byte, lookup Lookup) resolve.Type {
	var base resolve.Type = resolve.Reference{Name: Text(node, src)}
	var args []resolve.Type
	for _, child := range NamedChildren(node) {
		switch child.Type() {
		case "type_identifier":
			base = lookup(Text(child, src))
		case "scoped_type_identifier":
			base = resolve.Reference{Name: Text(child, src)}
		case "type_arguments":
			for _, arg := range NamedChildren(child) {
				args = append(args, TypeOf(arg, src, lookup))
			}
		}
	}
	ref, ok := base.(resolve.Reference)
	if !ok {
		return base
	}
	return resolve.Reference{Name: ref.Name, Args: args}
}

func wildcardOf(node *sitter.Node, src []byte, lookup Lookup) resolve.Type {
	var bound resolve.Type
	for _, child := range NamedChildren(node) {
		bound = TypeOf(child, src, lookup)
	}
	if bound == nil {
		return resolve.Wildcard{Direction: resolve.Unbounded}
	}
	text := Text(node, src)
	if strings.Contains(text, "super") {
		return resolve.Wildcard{Direction: resolve.Super, Bound: bound}
	}
	return resolve.Wildcard{Direction: resolve.Extends, Bound: bound}
}

// FormalParameters reads a formal_parameters node into parameters, reporting
// whether the final parameter is variadic.
func FormalParameters(node *sitter.Node, src []byte, lookup Lookup) ([]resolve.Parameter, bool) {
	if node == nil {
		return nil, false
	}
	var params []resolve.Parameter
	varargs := false
	for _, child := range NamedChildren(node) {
		switch child.Type() {
		case "formal_parameter":
			typeNode := child.ChildByFieldName("type")
			id := child.ChildByFieldName("name")
			if typeNode == nil || id == nil {
				continue
			}
			params = append(params, resolve.Parameter{
				ParamName: Text(id, src),
				Type:      TypeOf(typeNode, src, lookup),
			})
		case "spread_parameter":
			// `Type... name`: the type child precedes a variable_declarator.
			var t resolve.Type
			name := ""
			for _, part := range NamedChildren(child) {
				if part.Type() == "variable_declarator" {
					if id := part.ChildByFieldName("name"); id != nil {
						name = Text(id, src)
					}
					continue
				}
				if t == nil {
					t = TypeOf(part, src, lookup)
				}
			}
			if t == nil {
				continue
			}
			params = append(params, resolve.Parameter{ParamName: name, Type: t, Variadic: true})
			varargs = true
		}
	}
	return params, varargs
}

// TypeParameters reads a type_parameters node into declared parameters.
func TypeParameters(node *sitter.Node, src []byte, lookup Lookup) []resolve.TypeParameter {
	if node == nil {
		return nil
	}
	var out []resolve.TypeParameter
	for _, child := range NamedChildren(node) {
		if child.Type() != "type_parameter" {
			continue
		}
		p := resolve.TypeParameter{}
		var bounds []resolve.Type
		for _, part := range NamedChildren(child) {
			switch part.Type() {
			case "type_identifier", "identifier":
				if p.ParamName == "" {
					p.ParamName = Text(part, src)
				}
			case "type_bound":
				for _, b := range NamedChildren(part) {
					bounds = append(bounds, TypeOf(b, src, lookup))
				}
			}
		}
		switch len(bounds) {
		case 0:
		case 1:
			p.Bound = bounds[0]
		default:
			p.Bound = resolve.Intersection{Members: bounds}
		}
		out = append(out, p)
	}
	return out
}
