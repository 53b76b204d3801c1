package understory

import (
	"strings"

	sitter "github.com/smacker/go-tree-sitter"

	"github.com/jward/understory/contexts"
	"github.com/jward/understory/internal/syntax"
	"github.com/jward/understory/overload"
	"github.com/jward/understory/resolve"
)

// CalculateType computes the resolved type of an expression node. A
// well-formed expression always has some type, so failures are errors
// wrapping [ErrUntypedNode], never unsolved sentinels; callers walking
// possibly broken trees must expect them.
func (s *Solver) CalculateType(node *sitter.Node) (resolve.Type, error) {
	src := s.env.Src
	switch node.Type() {
	case "decimal_integer_literal", "hex_integer_literal",
		"octal_integer_literal", "binary_integer_literal":
		text := syntax.Text(node, src)
		if strings.HasSuffix(text, "l") || strings.HasSuffix(text, "L") {
			return resolve.Primitive{Name: resolve.Long}, nil
		}
		return resolve.Primitive{Name: resolve.Int}, nil
	case "decimal_floating_point_literal", "hex_floating_point_literal":
		text := syntax.Text(node, src)
		if strings.HasSuffix(text, "f") || strings.HasSuffix(text, "F") {
			return resolve.Primitive{Name: resolve.Float}, nil
		}
		return resolve.Primitive{Name: resolve.Double}, nil
	case "true", "false":
		return resolve.Primitive{Name: resolve.Boolean}, nil
	case "character_literal":
		return resolve.Primitive{Name: resolve.Char}, nil
	case "string_literal", "template_expression":
		return resolve.Reference{Name: "java.lang.String"}, nil
	case "null_literal":
		return resolve.NullType{}, nil

	case "identifier":
		return s.typeOfName(node)
	case "this":
		if ref, ok := contexts.EnclosingType(node, s.env); ok {
			return ref, nil
		}
		return nil, s.untyped(node, "no enclosing type")
	case "parenthesized_expression", "expression_statement":
		if inner := node.NamedChild(0); inner != nil {
			return s.CalculateType(inner)
		}
		return nil, s.untyped(node, "empty")

	case "field_access":
		return s.typeOfFieldAccess(node)
	case "array_access":
		arr := node.ChildByFieldName("array")
		if arr == nil {
			return nil, s.untyped(node, "no array operand")
		}
		t, err := s.CalculateType(arr)
		if err != nil {
			return nil, err
		}
		a, ok := t.(resolve.Array)
		if !ok {
			return nil, s.untyped(node, "indexing a non-array")
		}
		return a.Component, nil
	case "method_invocation":
		return s.typeOfInvocation(node)
	case "object_creation_expression":
		typeNode := node.ChildByFieldName("type")
		if typeNode == nil {
			return nil, s.untyped(node, "no created type")
		}
		return syntax.TypeOf(typeNode, src, contexts.LookupAt(node, s.env)), nil
	case "array_creation_expression":
		typeNode := node.ChildByFieldName("type")
		if typeNode == nil {
			return nil, s.untyped(node, "no element type")
		}
		t := syntax.TypeOf(typeNode, src, contexts.LookupAt(node, s.env))
		dims := 0
		for _, child := range syntax.NamedChildren(node) {
			if child.Type() == "dimensions_expr" || child.Type() == "dimensions" {
				dims++
			}
		}
		if dims == 0 {
			dims = 1
		}
		for i := 0; i < dims; i++ {
			t = resolve.Array{Component: t}
		}
		return t, nil

	case "cast_expression":
		typeNode := node.ChildByFieldName("type")
		if typeNode == nil {
			return nil, s.untyped(node, "no target type")
		}
		return syntax.TypeOf(typeNode, src, contexts.LookupAt(node, s.env)), nil
	case "instanceof_expression":
		return resolve.Primitive{Name: resolve.Boolean}, nil
	case "binary_expression":
		return s.typeOfBinary(node)
	case "unary_expression":
		return s.typeOfUnary(node)
	case "update_expression":
		for _, child := range syntax.NamedChildren(node) {
			return s.CalculateType(child)
		}
		return nil, s.untyped(node, "no operand")
	case "assignment_expression":
		left := node.ChildByFieldName("left")
		if left == nil {
			return nil, s.untyped(node, "no assignment target")
		}
		return s.CalculateType(left)
	case "ternary_expression":
		cons := node.ChildByFieldName("consequence")
		alt := node.ChildByFieldName("alternative")
		if cons == nil || alt == nil {
			return nil, s.untyped(node, "missing branch")
		}
		ct, err := s.CalculateType(cons)
		if err != nil {
			return nil, err
		}
		at, err := s.CalculateType(alt)
		if err != nil {
			return nil, err
		}
		return resolve.LeastCommonSupertype(ct, at, s.env.Catalog)
	case "lambda_expression", "method_reference":
		return nil, s.untyped(node, "functional value needs a target type")
	default:
		return nil, s.untyped(node, "not an expression")
	}
}

func (s *Solver) typeOfName(node *sitter.Node) (resolve.Type, error) {
	name := syntax.Text(node, s.env.Src)
	ref, err := s.ResolveSymbol(node, name)
	if err != nil {
		return nil, err
	}
	if !ref.IsSolved() {
		return nil, s.untyped(node, "unresolved name")
	}
	v, ok := ref.Declaration().(resolve.ValueDeclaration)
	if !ok {
		return nil, s.untyped(node, "name is not a value")
	}
	return v.DeclaredType(), nil
}

// receiverType types the receiver of a field access or call: an expression
// when it is one, otherwise a type name (static member access).
func (s *Solver) receiverType(obj *sitter.Node) (resolve.Reference, bool, error) {
	t, err := s.CalculateType(obj)
	if err == nil {
		r, ok := t.(resolve.Reference)
		return r, ok, nil
	}

	// Not a value: try the spelling as a type name.
	name := syntax.Text(obj, s.env.Src)
	switch obj.Type() {
	case "identifier", "field_access", "scoped_identifier":
		ref, terr := s.ResolveType(obj, name)
		if terr != nil {
			return resolve.Reference{}, false, terr
		}
		if ref.IsSolved() {
			return ref.Declaration().AsReference(), true, nil
		}
	}
	return resolve.Reference{}, false, err
}

func (s *Solver) typeOfFieldAccess(node *sitter.Node) (resolve.Type, error) {
	obj := node.ChildByFieldName("object")
	fld := node.ChildByFieldName("field")
	if obj == nil || fld == nil {
		return nil, s.untyped(node, "malformed field access")
	}
	name := syntax.Text(fld, s.env.Src)

	if obj.Type() != "this" {
		// Arrays expose a single member.
		if t, err := s.CalculateType(obj); err == nil {
			if _, ok := t.(resolve.Array); ok && name == "length" {
				return resolve.Primitive{Name: resolve.Int}, nil
			}
		}
	}

	recv, ok, err := s.receiverType(obj)
	if !ok {
		if err == nil {
			err = s.untyped(node, "receiver has no members")
		}
		return nil, err
	}
	decl, derr := s.declOf(recv)
	if derr != nil {
		return nil, derr
	}
	if decl == nil {
		return nil, s.untyped(node, "unknown receiver type")
	}
	f, found := contexts.FieldOn(decl, name, s.env.Catalog)
	if !found {
		return nil, s.untyped(node, "no such field")
	}
	return f.Type.Substitute(resolve.UseSiteSubst(recv, decl)), nil
}

func (s *Solver) typeOfInvocation(node *sitter.Node) (resolve.Type, error) {
	nameNode := node.ChildByFieldName("name")
	if nameNode == nil {
		return nil, s.untyped(node, "no method name")
	}
	name := syntax.Text(nameNode, s.env.Src)

	args, err := s.argumentTypes(node.ChildByFieldName("arguments"))
	if err != nil {
		return nil, err
	}

	obj := node.ChildByFieldName("object")
	var usage resolve.SymbolReference[resolve.MethodUsage]
	if obj == nil || obj.Type() == "this" {
		usage, err = s.ResolveMethodCall(node, name, args)
	} else {
		var recv resolve.Reference
		var ok bool
		recv, ok, err = s.receiverType(obj)
		if !ok {
			if err == nil {
				err = s.untyped(node, "receiver has no methods")
			}
			return nil, err
		}
		// Candidates come back with the receiver's type arguments already
		// substituted in.
		var candidates []*resolve.Method
		candidates, err = contexts.MethodCandidatesOn(recv, s.env, name)
		if err == nil {
			usage, err = overload.ResolveMethod(candidates, args, s.env.Catalog)
		}
	}
	if err != nil {
		return nil, err
	}
	if !usage.IsSolved() {
		return nil, s.untyped(node, "unresolved call")
	}
	return usage.Declaration().ReturnType(), nil
}

func (s *Solver) typeOfBinary(node *sitter.Node) (resolve.Type, error) {
	left := node.ChildByFieldName("left")
	right := node.ChildByFieldName("right")
	opNode := node.ChildByFieldName("operator")
	if left == nil || right == nil || opNode == nil {
		return nil, s.untyped(node, "malformed binary expression")
	}
	op := syntax.Text(opNode, s.env.Src)

	switch op {
	case "==", "!=", "<", "<=", ">", ">=", "&&", "||":
		return resolve.Primitive{Name: resolve.Boolean}, nil
	}

	lt, err := s.CalculateType(left)
	if err != nil {
		return nil, err
	}
	rt, err := s.CalculateType(right)
	if err != nil {
		return nil, err
	}

	str := resolve.Reference{Name: "java.lang.String"}
	if op == "+" && (lt.Equals(str) || rt.Equals(str)) {
		return str, nil
	}

	switch op {
	case "<<", ">>", ">>>":
		return unaryPromote(lt), nil
	}

	lp, lok := asNumeric(lt)
	rp, rok := asNumeric(rt)
	if !lok || !rok {
		if op == "&" || op == "|" || op == "^" {
			// Boolean logical forms of the bitwise operators.
			b := resolve.Primitive{Name: resolve.Boolean}
			if lt.Equals(b) || rt.Equals(b) {
				return b, nil
			}
		}
		return nil, s.untyped(node, "non-numeric operands")
	}
	return resolve.PromoteNumeric(lp, rp), nil
}

func (s *Solver) typeOfUnary(node *sitter.Node) (resolve.Type, error) {
	operand := node.ChildByFieldName("operand")
	if operand == nil {
		return nil, s.untyped(node, "no operand")
	}
	if strings.HasPrefix(syntax.Text(node, s.env.Src), "!") {
		return resolve.Primitive{Name: resolve.Boolean}, nil
	}
	t, err := s.CalculateType(operand)
	if err != nil {
		return nil, err
	}
	return unaryPromote(t), nil
}

func (s *Solver) argumentTypes(argList *sitter.Node) ([]resolve.Type, error) {
	if argList == nil {
		return nil, nil
	}
	children := syntax.NamedChildren(argList)
	out := make([]resolve.Type, 0, len(children))
	for _, arg := range children {
		t, err := s.CalculateType(arg)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, nil
}

func (s *Solver) declOf(r resolve.Reference) (*resolve.TypeDecl, error) {
	ref, err := s.env.Catalog.SolveType(r.Name)
	if err != nil {
		return nil, err
	}
	if !ref.IsSolved() {
		return nil, nil
	}
	return ref.Declaration(), nil
}

func asNumeric(t resolve.Type) (resolve.Primitive, bool) {
	if p, ok := t.(resolve.Primitive); ok {
		return p, p.Name != resolve.Boolean
	}
	if r, ok := t.(resolve.Reference); ok {
		if p, ok := resolve.Unboxed(r); ok {
			return p, p.Name != resolve.Boolean
		}
	}
	return resolve.Primitive{}, false
}

// unaryPromote applies unary numeric promotion: byte, short and char widen
// to int, everything else keeps its type.
func unaryPromote(t resolve.Type) resolve.Type {
	p, ok := asNumeric(t)
	if !ok {
		return t
	}
	switch p.Name {
	case resolve.Byte, resolve.Short, resolve.Char:
		return resolve.Primitive{Name: resolve.Int}
	}
	return p
}
