package typesolver

import (
	"sort"

	"github.com/jward/understory/resolve"
)

// Builtin is the catalog of core library declarations. It stands in for
// reflection over a loaded runtime: a curated table of the java.lang /
// java.util / java.io types resolution needs most, with their supertype
// edges and the members that matter for assignability walks and overload
// selection. Shared and read-only once constructed.
type Builtin struct {
	decls map[string]*resolve.TypeDecl
}

// NewBuiltin constructs the core-library catalog.
func NewBuiltin() *Builtin {
	return &Builtin{decls: coreDecls()}
}

// SolveType looks up a qualified name in the core table.
func (b *Builtin) SolveType(name string) (resolve.SymbolReference[*resolve.TypeDecl], error) {
	if d, ok := b.decls[name]; ok {
		return resolve.Solved(d), nil
	}
	return resolve.Unsolved[*resolve.TypeDecl](), nil
}

// ListTypes enumerates the core table in sorted order.
func (b *Builtin) ListTypes() ([]string, error) {
	out := make([]string, 0, len(b.decls))
	for name := range b.decls {
		out = append(out, name)
	}
	sort.Strings(out)
	return out, nil
}

// IsJavaLang reports whether "java.lang." + simple names a core type,
// implementing the implicit java.lang import.
func IsJavaLang(simple string) bool {
	return javaLang["java.lang."+simple]
}

var javaLang = map[string]bool{}

func init() {
	for name := range coreDecls() {
		if pkg := "java.lang."; len(name) > len(pkg) && name[:len(pkg)] == pkg {
			javaLang[name] = true
		}
	}
}

// Construction shorthands. The table below is declaration data, not logic.

func ref(name string, args ...resolve.Type) resolve.Reference {
	return resolve.Reference{Name: name, Args: args}
}

func tv(name string) resolve.TypeVariable { return resolve.TypeVariable{Name: name} }

func prim(k resolve.PrimitiveKind) resolve.Primitive { return resolve.Primitive{Name: k} }

func param(name string, t resolve.Type) resolve.Parameter {
	return resolve.Parameter{ParamName: name, Type: t}
}

func method(declaring, name string, ret resolve.Type, params ...resolve.Parameter) resolve.Method {
	return resolve.Method{MethodName: name, Declaring: declaring, Params: params, Return: ret}
}

func static(m resolve.Method) resolve.Method { m.Static = true; return m }

func variadic(m resolve.Method) resolve.Method {
	m.Variadic = true
	m.Params[len(m.Params)-1].Variadic = true
	return m
}

func coreDecls() map[string]*resolve.TypeDecl {
	objectRef := ref("java.lang.Object")
	stringRef := ref("java.lang.String")

	decls := []*resolve.TypeDecl{
		{
			QName: "java.lang.Object", DeclKind: resolve.ClassKind,
			MethodList: []resolve.Method{
				method("java.lang.Object", "equals", prim(resolve.Boolean), param("obj", objectRef)),
				method("java.lang.Object", "hashCode", prim(resolve.Int)),
				method("java.lang.Object", "toString", stringRef),
				method("java.lang.Object", "getClass", ref("java.lang.Class")),
			},
			CtorList: []resolve.Constructor{{Declaring: "java.lang.Object"}},
		},
		{
			QName: "java.lang.String", DeclKind: resolve.ClassKind,
			Supers: []resolve.Type{
				objectRef,
				ref("java.lang.CharSequence"),
				ref("java.lang.Comparable", stringRef),
				ref("java.io.Serializable"),
			},
			MethodList: []resolve.Method{
				method("java.lang.String", "length", prim(resolve.Int)),
				method("java.lang.String", "charAt", prim(resolve.Char), param("index", prim(resolve.Int))),
				method("java.lang.String", "isEmpty", prim(resolve.Boolean)),
				method("java.lang.String", "concat", stringRef, param("str", stringRef)),
				method("java.lang.String", "substring", stringRef, param("beginIndex", prim(resolve.Int))),
				method("java.lang.String", "substring", stringRef, param("beginIndex", prim(resolve.Int)), param("endIndex", prim(resolve.Int))),
				method("java.lang.String", "compareTo", prim(resolve.Int), param("anotherString", stringRef)),
				static(variadic(method("java.lang.String", "format", stringRef, param("format", stringRef), param("args", objectRef)))),
				static(method("java.lang.String", "valueOf", stringRef, param("obj", objectRef))),
			},
			CtorList: []resolve.Constructor{
				{Declaring: "java.lang.String"},
				{Declaring: "java.lang.String", Params: []resolve.Parameter{param("original", stringRef)}},
			},
		},
		{
			QName: "java.lang.CharSequence", DeclKind: resolve.InterfaceKind,
			Supers: []resolve.Type{objectRef},
			MethodList: []resolve.Method{
				method("java.lang.CharSequence", "length", prim(resolve.Int)),
				method("java.lang.CharSequence", "charAt", prim(resolve.Char), param("index", prim(resolve.Int))),
			},
		},
		{
			QName: "java.lang.Comparable", DeclKind: resolve.InterfaceKind,
			TypeParams: []resolve.TypeParameter{{ParamName: "T"}},
			Supers:     []resolve.Type{objectRef},
			MethodList: []resolve.Method{
				method("java.lang.Comparable", "compareTo", prim(resolve.Int), param("o", tv("T"))),
			},
		},
		{
			QName: "java.lang.Number", DeclKind: resolve.ClassKind, Abstract: true,
			Supers: []resolve.Type{objectRef, ref("java.io.Serializable")},
			MethodList: []resolve.Method{
				method("java.lang.Number", "intValue", prim(resolve.Int)),
				method("java.lang.Number", "longValue", prim(resolve.Long)),
				method("java.lang.Number", "doubleValue", prim(resolve.Double)),
			},
		},
		box("java.lang.Integer", resolve.Int, "parseInt"),
		box("java.lang.Long", resolve.Long, "parseLong"),
		box("java.lang.Short", resolve.Short, ""),
		box("java.lang.Byte", resolve.Byte, ""),
		box("java.lang.Float", resolve.Float, ""),
		box("java.lang.Double", resolve.Double, "parseDouble"),
		{
			QName: "java.lang.Character", DeclKind: resolve.ClassKind,
			Supers: []resolve.Type{objectRef, ref("java.lang.Comparable", ref("java.lang.Character"))},
			MethodList: []resolve.Method{
				method("java.lang.Character", "charValue", prim(resolve.Char)),
			},
		},
		{
			QName: "java.lang.Boolean", DeclKind: resolve.ClassKind,
			Supers: []resolve.Type{objectRef, ref("java.lang.Comparable", ref("java.lang.Boolean"))},
			MethodList: []resolve.Method{
				method("java.lang.Boolean", "booleanValue", prim(resolve.Boolean)),
			},
		},
		{QName: "java.lang.Void", DeclKind: resolve.ClassKind, Supers: []resolve.Type{objectRef}},
		{QName: "java.lang.Class", DeclKind: resolve.ClassKind, Supers: []resolve.Type{objectRef}},
		{QName: "java.lang.Cloneable", DeclKind: resolve.InterfaceKind, Supers: []resolve.Type{objectRef}},
		{
			QName: "java.lang.Iterable", DeclKind: resolve.InterfaceKind,
			TypeParams: []resolve.TypeParameter{{ParamName: "T"}},
			Supers:     []resolve.Type{objectRef},
			MethodList: []resolve.Method{
				method("java.lang.Iterable", "iterator", ref("java.util.Iterator", tv("T"))),
			},
		},
		{
			QName: "java.lang.Runnable", DeclKind: resolve.InterfaceKind,
			Supers: []resolve.Type{objectRef},
			MethodList: []resolve.Method{
				method("java.lang.Runnable", "run", resolve.VoidType{}),
			},
		},
		{
			QName: "java.lang.StringBuilder", DeclKind: resolve.ClassKind,
			Supers: []resolve.Type{objectRef, ref("java.lang.CharSequence")},
			MethodList: []resolve.Method{
				method("java.lang.StringBuilder", "append", ref("java.lang.StringBuilder"), param("str", stringRef)),
				method("java.lang.StringBuilder", "append", ref("java.lang.StringBuilder"), param("i", prim(resolve.Int))),
				method("java.lang.StringBuilder", "append", ref("java.lang.StringBuilder"), param("obj", objectRef)),
				method("java.lang.StringBuilder", "toString", stringRef),
			},
			CtorList: []resolve.Constructor{{Declaring: "java.lang.StringBuilder"}},
		},
		{
			QName: "java.lang.Math", DeclKind: resolve.ClassKind,
			Supers: []resolve.Type{objectRef},
			MethodList: []resolve.Method{
				static(method("java.lang.Math", "max", prim(resolve.Int), param("a", prim(resolve.Int)), param("b", prim(resolve.Int)))),
				static(method("java.lang.Math", "max", prim(resolve.Long), param("a", prim(resolve.Long)), param("b", prim(resolve.Long)))),
				static(method("java.lang.Math", "max", prim(resolve.Double), param("a", prim(resolve.Double)), param("b", prim(resolve.Double)))),
				static(method("java.lang.Math", "abs", prim(resolve.Int), param("a", prim(resolve.Int)))),
				static(method("java.lang.Math", "abs", prim(resolve.Double), param("a", prim(resolve.Double)))),
			},
		},
		{
			QName: "java.lang.System", DeclKind: resolve.ClassKind,
			Supers: []resolve.Type{objectRef},
			FieldList: []resolve.Field{
				{FieldName: "out", Type: ref("java.io.PrintStream"), Declaring: "java.lang.System", Static: true, Final: true},
				{FieldName: "err", Type: ref("java.io.PrintStream"), Declaring: "java.lang.System", Static: true, Final: true},
			},
		},
		{
			QName: "java.io.PrintStream", DeclKind: resolve.ClassKind,
			Supers: []resolve.Type{objectRef},
			MethodList: []resolve.Method{
				method("java.io.PrintStream", "println", resolve.VoidType{}),
				method("java.io.PrintStream", "println", resolve.VoidType{}, param("x", stringRef)),
				method("java.io.PrintStream", "println", resolve.VoidType{}, param("x", prim(resolve.Int))),
				method("java.io.PrintStream", "println", resolve.VoidType{}, param("x", objectRef)),
				method("java.io.PrintStream", "print", resolve.VoidType{}, param("s", stringRef)),
			},
		},
		{QName: "java.io.Serializable", DeclKind: resolve.InterfaceKind, Supers: []resolve.Type{objectRef}},
		throwable("java.lang.Throwable", "java.lang.Object"),
		throwable("java.lang.Exception", "java.lang.Throwable"),
		throwable("java.lang.RuntimeException", "java.lang.Exception"),
		throwable("java.lang.IllegalArgumentException", "java.lang.RuntimeException"),
		throwable("java.lang.IllegalStateException", "java.lang.RuntimeException"),
		throwable("java.lang.NullPointerException", "java.lang.RuntimeException"),
		throwable("java.lang.UnsupportedOperationException", "java.lang.RuntimeException"),
		throwable("java.lang.Error", "java.lang.Throwable"),
		{
			QName: "java.util.Iterator", DeclKind: resolve.InterfaceKind,
			TypeParams: []resolve.TypeParameter{{ParamName: "E"}},
			Supers:     []resolve.Type{objectRef},
			MethodList: []resolve.Method{
				method("java.util.Iterator", "hasNext", prim(resolve.Boolean)),
				method("java.util.Iterator", "next", tv("E")),
			},
		},
		{
			QName: "java.util.Collection", DeclKind: resolve.InterfaceKind,
			TypeParams: []resolve.TypeParameter{{ParamName: "E"}},
			Supers:     []resolve.Type{ref("java.lang.Iterable", tv("E"))},
			MethodList: []resolve.Method{
				method("java.util.Collection", "size", prim(resolve.Int)),
				method("java.util.Collection", "isEmpty", prim(resolve.Boolean)),
				method("java.util.Collection", "add", prim(resolve.Boolean), param("e", tv("E"))),
				method("java.util.Collection", "contains", prim(resolve.Boolean), param("o", objectRef)),
			},
		},
		{
			QName: "java.util.List", DeclKind: resolve.InterfaceKind,
			TypeParams: []resolve.TypeParameter{{ParamName: "E"}},
			Supers:     []resolve.Type{ref("java.util.Collection", tv("E"))},
			MethodList: []resolve.Method{
				method("java.util.List", "get", tv("E"), param("index", prim(resolve.Int))),
				method("java.util.List", "set", tv("E"), param("index", prim(resolve.Int)), param("element", tv("E"))),
				static(variadic(resolve.Method{
					MethodName: "of", Declaring: "java.util.List",
					TypeParams: []resolve.TypeParameter{{ParamName: "E"}},
					Params:     []resolve.Parameter{param("elements", tv("E"))},
					Return:     ref("java.util.List", tv("E")),
				})),
			},
		},
		{
			QName: "java.util.Set", DeclKind: resolve.InterfaceKind,
			TypeParams: []resolve.TypeParameter{{ParamName: "E"}},
			Supers:     []resolve.Type{ref("java.util.Collection", tv("E"))},
		},
		{
			QName: "java.util.ArrayList", DeclKind: resolve.ClassKind,
			TypeParams: []resolve.TypeParameter{{ParamName: "E"}},
			Supers:     []resolve.Type{objectRef, ref("java.util.List", tv("E"))},
			CtorList: []resolve.Constructor{
				{Declaring: "java.util.ArrayList"},
				{Declaring: "java.util.ArrayList", Params: []resolve.Parameter{param("initialCapacity", prim(resolve.Int))}},
			},
		},
		{
			QName: "java.util.HashSet", DeclKind: resolve.ClassKind,
			TypeParams: []resolve.TypeParameter{{ParamName: "E"}},
			Supers:     []resolve.Type{objectRef, ref("java.util.Set", tv("E"))},
			CtorList:   []resolve.Constructor{{Declaring: "java.util.HashSet"}},
		},
		{
			QName: "java.util.Map", DeclKind: resolve.InterfaceKind,
			TypeParams: []resolve.TypeParameter{{ParamName: "K"}, {ParamName: "V"}},
			Supers:     []resolve.Type{objectRef},
			MethodList: []resolve.Method{
				method("java.util.Map", "get", tv("V"), param("key", objectRef)),
				method("java.util.Map", "put", tv("V"), param("key", tv("K")), param("value", tv("V"))),
				method("java.util.Map", "containsKey", prim(resolve.Boolean), param("key", objectRef)),
				method("java.util.Map", "size", prim(resolve.Int)),
			},
		},
		{
			QName: "java.util.HashMap", DeclKind: resolve.ClassKind,
			TypeParams: []resolve.TypeParameter{{ParamName: "K"}, {ParamName: "V"}},
			Supers:     []resolve.Type{objectRef, ref("java.util.Map", tv("K"), tv("V"))},
			CtorList:   []resolve.Constructor{{Declaring: "java.util.HashMap"}},
		},
		{
			QName: "java.util.Objects", DeclKind: resolve.ClassKind,
			Supers: []resolve.Type{objectRef},
			MethodList: []resolve.Method{
				static(method("java.util.Objects", "equals", prim(resolve.Boolean), param("a", objectRef), param("b", objectRef))),
				static(method("java.util.Objects", "requireNonNull", objectRef, param("obj", objectRef))),
			},
		},
	}

	out := make(map[string]*resolve.TypeDecl, len(decls))
	for _, d := range decls {
		out[d.QName] = d
	}
	return out
}

// box builds a numeric wrapper class extending Number, with its xxxValue
// accessor, valueOf factory and optional parse method.
func box(qname string, kind resolve.PrimitiveKind, parse string) *resolve.TypeDecl {
	simple := qname[len("java.lang."):]
	accessor := string(kind) + "Value"
	d := &resolve.TypeDecl{
		QName: qname, DeclKind: resolve.ClassKind,
		Supers: []resolve.Type{ref("java.lang.Number"), ref("java.lang.Comparable", ref(qname))},
		MethodList: []resolve.Method{
			method(qname, accessor, prim(kind)),
			method(qname, "compareTo", prim(resolve.Int), param("another"+simple, ref(qname))),
			static(method(qname, "valueOf", ref(qname), param("value", prim(kind)))),
		},
	}
	if parse != "" {
		d.MethodList = append(d.MethodList,
			static(method(qname, parse, prim(kind), param("s", ref("java.lang.String")))))
	}
	return d
}

func throwable(qname, super string) *resolve.TypeDecl {
	return &resolve.TypeDecl{
		QName: qname, DeclKind: resolve.ClassKind,
		Supers: []resolve.Type{ref(super)},
		MethodList: []resolve.Method{
			method(qname, "getMessage", ref("java.lang.String")),
		},
		CtorList: []resolve.Constructor{
			{Declaring: qname},
			{Declaring: qname, Params: []resolve.Parameter{param("message", ref("java.lang.String"))}},
		},
	}
}
