package resolve

// Declaration is anything that has a name: a variable, field, method,
// constructor or type. It is the common currency between the scope graph,
// the catalogs and the overload engine; syntax-tree declarations and
// catalog-sourced declarations are both adapted into it.
type Declaration interface {
	Name() string
}

// ValueDeclaration is a declaration with a declared type: fields,
// parameters, locals, pattern variables and enum constants.
type ValueDeclaration interface {
	Declaration
	DeclaredType() Type
}

// TypeDeclKind classifies a reference-type declaration.
type TypeDeclKind string

const (
	ClassKind      TypeDeclKind = "class"
	InterfaceKind  TypeDeclKind = "interface"
	EnumKind       TypeDeclKind = "enum"
	RecordKind     TypeDeclKind = "record"
	AnnotationKind TypeDeclKind = "annotation"
)

// TypeParameter is a declared type variable with an optional upper bound.
type TypeParameter struct {
	ParamName string
	Bound     Type // nil means java.lang.Object
}

// AsVariable returns the TypeVariable for this parameter.
func (p TypeParameter) AsVariable() TypeVariable {
	return TypeVariable{Name: p.ParamName, Bound: p.Bound}
}

// TypeDecl is a reference-type declaration (class, interface, enum, record
// or annotation) as produced by a declaration catalog or adapted from a
// source tree. It carries enough structure to be queried without re-walking
// any syntax tree.
type TypeDecl struct {
	QName      string // fully qualified, e.g. "java.util.List"
	DeclKind   TypeDeclKind
	TypeParams []TypeParameter
	// Supers are the resolved direct supertypes: the extended class first
	// (when present), then implemented interfaces. java.lang.Object has none.
	Supers       []Type
	FieldList    []Field
	MethodList   []Method
	CtorList     []Constructor
	EnumConsts   []EnumConstant
	Abstract     bool
	NestedIn     string // qualified name of the enclosing type, or ""
}

func (d *TypeDecl) Name() string {
	if i := lastIndexByte(d.QName, '.'); i >= 0 {
		return d.QName[i+1:]
	}
	return d.QName
}

// AsReference returns the raw reference type for this declaration.
func (d *TypeDecl) AsReference() Reference { return Reference{Name: d.QName} }

// FieldNamed returns the field with the given name declared directly on this
// type, if any.
func (d *TypeDecl) FieldNamed(name string) (Field, bool) {
	for _, f := range d.FieldList {
		if f.FieldName == name {
			return f, true
		}
	}
	for _, c := range d.EnumConsts {
		if c.ConstName == name {
			return Field{FieldName: c.ConstName, Type: c.Type, Declaring: d.QName, Static: true, Final: true}, true
		}
	}
	return Field{}, false
}

// MethodsNamed returns the methods with the given name declared directly on
// this type, in declaration order.
func (d *TypeDecl) MethodsNamed(name string) []*Method {
	var out []*Method
	for i := range d.MethodList {
		if d.MethodList[i].MethodName == name {
			out = append(out, &d.MethodList[i])
		}
	}
	return out
}

func lastIndexByte(s string, b byte) int {
	for i := len(s) - 1; i >= 0; i-- {
		if s[i] == b {
			return i
		}
	}
	return -1
}

// Field is a field declaration.
type Field struct {
	FieldName string
	Type      Type
	Declaring string // qualified name of the declaring type
	Static    bool
	Final     bool
}

func (f Field) Name() string       { return f.FieldName }
func (f Field) DeclaredType() Type { return f.Type }

// Parameter is a formal parameter of a method or constructor.
type Parameter struct {
	ParamName string
	Type      Type
	Variadic  bool
}

func (p Parameter) Name() string { return p.ParamName }

// DeclaredType returns the parameter's declared type. For a variadic
// parameter this is the array type as seen inside the body.
func (p Parameter) DeclaredType() Type {
	if p.Variadic {
		return Array{Component: p.Type}
	}
	return p.Type
}

// ComponentType returns the declared component type of a variadic parameter,
// or the plain declared type otherwise.
func (p Parameter) ComponentType() Type { return p.Type }

// LocalVariable is a local variable declaration.
type LocalVariable struct {
	VarName string
	Type    Type
}

func (l LocalVariable) Name() string       { return l.VarName }
func (l LocalVariable) DeclaredType() Type { return l.Type }

// PatternVariable is a variable introduced by a type-test pattern, visible
// only along control-flow paths where the match is guaranteed.
type PatternVariable struct {
	VarName string
	Type    Type
}

func (p PatternVariable) Name() string       { return p.VarName }
func (p PatternVariable) DeclaredType() Type { return p.Type }

// EnumConstant is a constant of an enum declaration.
type EnumConstant struct {
	ConstName string
	Type      Type // the enum's own reference type
}

func (e EnumConstant) Name() string       { return e.ConstName }
func (e EnumConstant) DeclaredType() Type { return e.Type }

// Method is a method declaration.
type Method struct {
	MethodName string
	Declaring  string // qualified name of the declaring type
	TypeParams []TypeParameter
	Params     []Parameter
	Return     Type
	Variadic   bool
	Static     bool
	Abstract   bool
}

func (m *Method) Name() string { return m.MethodName }

// Arity returns the declared parameter count.
func (m *Method) Arity() int { return len(m.Params) }

// Signature returns a human-readable signature for diagnostics.
func (m *Method) Signature() string {
	s := m.MethodName + "("
	for i, p := range m.Params {
		if i > 0 {
			s += ", "
		}
		s += p.Type.Describe()
		if p.Variadic {
			s += "..."
		}
	}
	return s + ")"
}

// Substituted returns a copy of m with the substitution applied to its
// parameter, return and bound types. Names declared by the method's own type
// parameters are shielded from the substitution. An empty substitution
// returns m itself, so methods of non-generic receivers keep a stable
// identity across gatherings.
func (m *Method) Substituted(s Subst) *Method {
	if len(s) > 0 && len(m.TypeParams) > 0 {
		shielded := make(Subst, len(s))
		for k, v := range s {
			shielded[k] = v
		}
		for _, tp := range m.TypeParams {
			delete(shielded, tp.ParamName)
		}
		s = shielded
	}
	if len(s) == 0 {
		return m
	}
	out := *m
	out.Params = make([]Parameter, len(m.Params))
	for i, p := range m.Params {
		p.Type = p.Type.Substitute(s)
		out.Params[i] = p
	}
	if m.Return != nil {
		out.Return = m.Return.Substitute(s)
	}
	if len(m.TypeParams) > 0 {
		out.TypeParams = make([]TypeParameter, len(m.TypeParams))
		for i, tp := range m.TypeParams {
			if tp.Bound != nil {
				tp.Bound = tp.Bound.Substitute(s)
			}
			out.TypeParams[i] = tp
		}
	}
	return &out
}

// Constructor is a constructor declaration.
type Constructor struct {
	Declaring  string
	TypeParams []TypeParameter
	Params     []Parameter
	Variadic   bool
}

func (c *Constructor) Name() string { return c.Declaring }
func (c *Constructor) Arity() int   { return len(c.Params) }
