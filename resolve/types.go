package resolve

import (
	"sort"
	"strings"
)

// Type is the canonical, immutable representation of a resolved Java type,
// distinct from any syntactic spelling. The variant set is closed: Primitive,
// Array, Reference, TypeVariable, Wildcard, Void, Null, Union, Intersection.
type Type interface {
	// Describe returns a stable human-readable spelling, e.g.
	// "java.util.List<java.lang.String>" or "int[]".
	Describe() string

	// Equals reports structural equality. Union and intersection types
	// compare as member sets.
	Equals(other Type) bool

	// Substitute applies a type-variable substitution structurally. It is
	// pure and idempotent: substituting an already-substituted type with the
	// same map is a no-op. Raw reference types are returned unchanged.
	Substitute(s Subst) Type
}

// Subst maps type-variable names to concrete types.
type Subst map[string]Type

// PrimitiveKind identifies one of the eight Java primitive types.
type PrimitiveKind string

const (
	Boolean PrimitiveKind = "boolean"
	Byte    PrimitiveKind = "byte"
	Short   PrimitiveKind = "short"
	Char    PrimitiveKind = "char"
	Int     PrimitiveKind = "int"
	Long    PrimitiveKind = "long"
	Float   PrimitiveKind = "float"
	Double  PrimitiveKind = "double"
)

// Primitive is one of the eight primitive types.
type Primitive struct {
	Name PrimitiveKind
}

func (p Primitive) Describe() string { return string(p.Name) }

func (p Primitive) Equals(other Type) bool {
	o, ok := other.(Primitive)
	return ok && o.Name == p.Name
}

func (p Primitive) Substitute(Subst) Type { return p }

// Array is an array type with a component type.
type Array struct {
	Component Type
}

func (a Array) Describe() string { return a.Component.Describe() + "[]" }

func (a Array) Equals(other Type) bool {
	o, ok := other.(Array)
	return ok && a.Component.Equals(o.Component)
}

func (a Array) Substitute(s Subst) Type {
	return Array{Component: a.Component.Substitute(s)}
}

// Reference is a class, interface, enum, record or annotation type,
// identified by qualified name, possibly parameterized. An empty Args list on
// a generic declaration denotes the raw type.
type Reference struct {
	Name string
	Args []Type
}

// NewReference builds a parameterized reference, enforcing that the argument
// list length matches the declaration's type-parameter count or is empty.
func NewReference(decl *TypeDecl, args []Type) (Reference, bool) {
	if len(args) != 0 && len(args) != len(decl.TypeParams) {
		return Reference{}, false
	}
	return Reference{Name: decl.QName, Args: args}, true
}

// Raw reports whether the reference carries no type arguments.
func (r Reference) Raw() bool { return len(r.Args) == 0 }

func (r Reference) Describe() string {
	if r.Raw() {
		return r.Name
	}
	parts := make([]string, len(r.Args))
	for i, a := range r.Args {
		parts[i] = a.Describe()
	}
	return r.Name + "<" + strings.Join(parts, ", ") + ">"
}

func (r Reference) Equals(other Type) bool {
	o, ok := other.(Reference)
	if !ok || o.Name != r.Name || len(o.Args) != len(r.Args) {
		return false
	}
	for i := range r.Args {
		if !r.Args[i].Equals(o.Args[i]) {
			return false
		}
	}
	return true
}

func (r Reference) Substitute(s Subst) Type {
	if r.Raw() {
		// Raw types have had their generics erased; there is nothing to map.
		return r
	}
	args := make([]Type, len(r.Args))
	for i, a := range r.Args {
		args[i] = a.Substitute(s)
	}
	return Reference{Name: r.Name, Args: args}
}

// TypeVariable is a declared type variable, with java.lang.Object as the
// implicit bound when Bound is nil.
type TypeVariable struct {
	Name  string
	Bound Type
}

func (v TypeVariable) Describe() string { return v.Name }

func (v TypeVariable) Equals(other Type) bool {
	o, ok := other.(TypeVariable)
	return ok && o.Name == v.Name
}

func (v TypeVariable) Substitute(s Subst) Type {
	if t, ok := s[v.Name]; ok {
		// The replacement is not re-substituted: this keeps the operation
		// idempotent when replacement types mention mapped variables.
		return t
	}
	return v
}

// EffectiveBound returns the variable's bound, defaulting to
// java.lang.Object.
func (v TypeVariable) EffectiveBound() Type {
	if v.Bound != nil {
		return v.Bound
	}
	return Reference{Name: "java.lang.Object"}
}

// Variance is a wildcard's bound direction.
type Variance int

const (
	Unbounded Variance = iota
	Extends
	Super
)

// Wildcard is a type-argument wildcard with at most one bound.
type Wildcard struct {
	Direction Variance
	Bound     Type // nil iff Direction == Unbounded
}

func (w Wildcard) Describe() string {
	switch w.Direction {
	case Extends:
		return "? extends " + w.Bound.Describe()
	case Super:
		return "? super " + w.Bound.Describe()
	default:
		return "?"
	}
}

func (w Wildcard) Equals(other Type) bool {
	o, ok := other.(Wildcard)
	if !ok || o.Direction != w.Direction {
		return false
	}
	if w.Bound == nil {
		return o.Bound == nil
	}
	return o.Bound != nil && w.Bound.Equals(o.Bound)
}

func (w Wildcard) Substitute(s Subst) Type {
	if w.Bound == nil {
		return w
	}
	return Wildcard{Direction: w.Direction, Bound: w.Bound.Substitute(s)}
}

// VoidType is the type of a void method's result.
type VoidType struct{}

func (VoidType) Describe() string        { return "void" }
func (VoidType) Equals(other Type) bool  { _, ok := other.(VoidType); return ok }
func (v VoidType) Substitute(Subst) Type { return v }

// NullType is the type of the null literal, assignable to every reference
// type.
type NullType struct{}

func (NullType) Describe() string        { return "null" }
func (NullType) Equals(other Type) bool  { _, ok := other.(NullType); return ok }
func (n NullType) Substitute(Subst) Type { return n }

// Union is a union of reference types, as in a multi-catch clause. Members
// form a set with no defined order.
type Union struct {
	Members []Type
}

func (u Union) Describe() string { return describeSet(u.Members, " | ") }

func (u Union) Equals(other Type) bool {
	o, ok := other.(Union)
	return ok && sameMemberSet(u.Members, o.Members)
}

func (u Union) Substitute(s Subst) Type {
	return Union{Members: substituteAll(u.Members, s)}
}

// Intersection is an intersection of types, as in a bounded type parameter
// `T extends A & B`. Members form a set with no defined order.
type Intersection struct {
	Members []Type
}

func (i Intersection) Describe() string { return describeSet(i.Members, " & ") }

func (i Intersection) Equals(other Type) bool {
	o, ok := other.(Intersection)
	return ok && sameMemberSet(i.Members, o.Members)
}

func (i Intersection) Substitute(s Subst) Type {
	return Intersection{Members: substituteAll(i.Members, s)}
}

func substituteAll(types []Type, s Subst) []Type {
	out := make([]Type, len(types))
	for i, t := range types {
		out[i] = t.Substitute(s)
	}
	return out
}

func describeSet(members []Type, sep string) string {
	parts := make([]string, len(members))
	for i, m := range members {
		parts[i] = m.Describe()
	}
	sort.Strings(parts)
	return strings.Join(parts, sep)
}

// sameMemberSet compares two member lists as sets.
func sameMemberSet(a, b []Type) bool {
	if len(a) != len(b) {
		return false
	}
	matched := make([]bool, len(b))
outer:
	for _, m := range a {
		for i, n := range b {
			if !matched[i] && m.Equals(n) {
				matched[i] = true
				continue outer
			}
		}
		return false
	}
	return true
}
