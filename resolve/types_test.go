package resolve

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// mapCatalog is a test-only catalog over a fixed declaration map.
type mapCatalog map[string]*TypeDecl

func (m mapCatalog) SolveType(name string) (SymbolReference[*TypeDecl], error) {
	if d, ok := m[name]; ok {
		return Solved(d), nil
	}
	return Unsolved[*TypeDecl](), nil
}

// testCatalog models Object <- Number <- Integer and Object <- String,
// plus a generic java.util.List<E> extending java.util.Collection<E>.
func testCatalog() mapCatalog {
	object := &TypeDecl{QName: "java.lang.Object", DeclKind: ClassKind}
	number := &TypeDecl{
		QName: "java.lang.Number", DeclKind: ClassKind,
		Supers: []Type{Reference{Name: "java.lang.Object"}},
	}
	integer := &TypeDecl{
		QName: "java.lang.Integer", DeclKind: ClassKind,
		Supers: []Type{Reference{Name: "java.lang.Number"}},
	}
	str := &TypeDecl{
		QName: "java.lang.String", DeclKind: ClassKind,
		Supers: []Type{Reference{Name: "java.lang.Object"}},
	}
	collection := &TypeDecl{
		QName: "java.util.Collection", DeclKind: InterfaceKind,
		TypeParams: []TypeParameter{{ParamName: "E"}},
		Supers:     []Type{Reference{Name: "java.lang.Object"}},
	}
	list := &TypeDecl{
		QName: "java.util.List", DeclKind: InterfaceKind,
		TypeParams: []TypeParameter{{ParamName: "E"}},
		Supers: []Type{Reference{
			Name: "java.util.Collection",
			Args: []Type{TypeVariable{Name: "E"}},
		}},
	}
	return mapCatalog{
		object.QName:     object,
		number.QName:     number,
		integer.QName:    integer,
		str.QName:        str,
		collection.QName: collection,
		list.QName:       list,
	}
}

func TestSubstitute_Structural(t *testing.T) {
	t.Parallel()
	s := Subst{"T": Reference{Name: "java.lang.String"}}

	listOfT := Reference{Name: "java.util.List", Args: []Type{TypeVariable{Name: "T"}}}
	got := listOfT.Substitute(s)
	want := Reference{Name: "java.util.List", Args: []Type{Reference{Name: "java.lang.String"}}}
	assert.True(t, got.Equals(want), "got %s", got.Describe())

	arr := Array{Component: TypeVariable{Name: "T"}}
	assert.True(t, arr.Substitute(s).Equals(Array{Component: Reference{Name: "java.lang.String"}}))
}

func TestSubstitute_Idempotent(t *testing.T) {
	t.Parallel()
	s := Subst{"T": Reference{Name: "java.lang.Integer"}, "U": Primitive{Name: Int}}
	types := []Type{
		TypeVariable{Name: "T"},
		Reference{Name: "java.util.Map", Args: []Type{TypeVariable{Name: "T"}, TypeVariable{Name: "U"}}},
		Array{Component: TypeVariable{Name: "U"}},
		Wildcard{Direction: Extends, Bound: TypeVariable{Name: "T"}},
		Union{Members: []Type{TypeVariable{Name: "T"}, Reference{Name: "java.lang.String"}}},
	}
	for _, typ := range types {
		once := typ.Substitute(s)
		twice := once.Substitute(s)
		assert.True(t, once.Equals(twice), "substitution of %s is not idempotent", typ.Describe())
	}
}

func TestSubstitute_RawTypeUnchanged(t *testing.T) {
	t.Parallel()
	raw := Reference{Name: "java.util.List"}
	got := raw.Substitute(Subst{"E": Reference{Name: "java.lang.String"}})
	assert.True(t, got.Equals(raw))
}

func TestNewReference_ArityInvariant(t *testing.T) {
	t.Parallel()
	list := testCatalog()["java.util.List"]

	_, ok := NewReference(list, []Type{Reference{Name: "java.lang.String"}})
	assert.True(t, ok)
	_, ok = NewReference(list, nil)
	assert.True(t, ok, "raw reference is always valid")
	_, ok = NewReference(list, []Type{Primitive{Name: Int}, Primitive{Name: Int}})
	assert.False(t, ok, "argument count must match the declared parameter count")
}

func TestEquals_SetSemantics(t *testing.T) {
	t.Parallel()
	a := Union{Members: []Type{Reference{Name: "a.A"}, Reference{Name: "b.B"}}}
	b := Union{Members: []Type{Reference{Name: "b.B"}, Reference{Name: "a.A"}}}
	assert.True(t, a.Equals(b), "union members compare as a set")

	i1 := Intersection{Members: []Type{Reference{Name: "a.A"}, Reference{Name: "b.B"}}}
	i2 := Intersection{Members: []Type{Reference{Name: "b.B"}, Reference{Name: "a.A"}}}
	assert.True(t, i1.Equals(i2))
	assert.False(t, a.Equals(i1), "union and intersection are distinct variants")
}

func TestAssignable_PrimitiveWidening(t *testing.T) {
	t.Parallel()
	cat := testCatalog()
	cases := []struct {
		dst, src PrimitiveKind
		want     bool
	}{
		{Int, Int, true},
		{Long, Int, true},
		{Double, Float, true},
		{Int, Long, false},
		{Short, Char, false},
		{Int, Char, true},
	}
	for _, tc := range cases {
		got, err := AssignableStrict(Primitive{Name: tc.dst}, Primitive{Name: tc.src}, cat)
		require.NoError(t, err)
		assert.Equal(t, tc.want, got, "%s <- %s", tc.dst, tc.src)
	}
}

func TestAssignable_BoxingOnlyInLooseMode(t *testing.T) {
	t.Parallel()
	cat := testCatalog()
	integer := Reference{Name: "java.lang.Integer"}

	ok, err := AssignableStrict(integer, Primitive{Name: Int}, cat)
	require.NoError(t, err)
	assert.False(t, ok, "strict mode must not box")

	ok, err = Assignable(integer, Primitive{Name: Int}, cat)
	require.NoError(t, err)
	assert.True(t, ok)

	// Unboxing plus widening: Integer -> long.
	ok, err = Assignable(Primitive{Name: Long}, integer, cat)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestAssignable_SupertypeWalk(t *testing.T) {
	t.Parallel()
	cat := testCatalog()
	number := Reference{Name: "java.lang.Number"}
	integer := Reference{Name: "java.lang.Integer"}
	str := Reference{Name: "java.lang.String"}

	ok, err := AssignableStrict(number, integer, cat)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = AssignableStrict(integer, number, cat)
	require.NoError(t, err)
	assert.False(t, ok, "narrowing is not assignment")

	ok, err = AssignableStrict(number, str, cat)
	require.NoError(t, err)
	assert.False(t, ok)

	// Generic supertype substitution: List<String> -> Collection<String>.
	listOfString := Reference{Name: "java.util.List", Args: []Type{str}}
	collOfString := Reference{Name: "java.util.Collection", Args: []Type{str}}
	ok, err = AssignableStrict(collOfString, listOfString, cat)
	require.NoError(t, err)
	assert.True(t, ok)

	collOfNumber := Reference{Name: "java.util.Collection", Args: []Type{number}}
	ok, err = AssignableStrict(collOfNumber, listOfString, cat)
	require.NoError(t, err)
	assert.False(t, ok, "type arguments are invariant")
}

func TestAssignable_RawErasure(t *testing.T) {
	t.Parallel()
	cat := testCatalog()
	raw := Reference{Name: "java.util.List"}
	parameterized := Reference{Name: "java.util.List", Args: []Type{Reference{Name: "java.lang.String"}}}

	for _, pair := range [][2]Type{{raw, parameterized}, {parameterized, raw}} {
		ok, err := AssignableStrict(pair[0], pair[1], cat)
		require.NoError(t, err)
		assert.True(t, ok, "raw types interoperate with any parameterization")
	}
}

func TestAssignable_WildcardContainment(t *testing.T) {
	t.Parallel()
	cat := testCatalog()
	number := Reference{Name: "java.lang.Number"}
	integer := Reference{Name: "java.lang.Integer"}

	extendsNumber := Reference{Name: "java.util.List", Args: []Type{Wildcard{Direction: Extends, Bound: number}}}
	listOfInteger := Reference{Name: "java.util.List", Args: []Type{integer}}
	ok, err := AssignableStrict(extendsNumber, listOfInteger, cat)
	require.NoError(t, err)
	assert.True(t, ok)

	superNumber := Reference{Name: "java.util.List", Args: []Type{Wildcard{Direction: Super, Bound: number}}}
	ok, err = AssignableStrict(superNumber, listOfInteger, cat)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestAssignable_NullAndArrays(t *testing.T) {
	t.Parallel()
	cat := testCatalog()

	ok, err := AssignableStrict(Reference{Name: "java.lang.String"}, NullType{}, cat)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = AssignableStrict(Primitive{Name: Int}, NullType{}, cat)
	require.NoError(t, err)
	assert.False(t, ok)

	// Reference arrays are covariant, primitive arrays are not.
	numArr := Array{Component: Reference{Name: "java.lang.Number"}}
	intRefArr := Array{Component: Reference{Name: "java.lang.Integer"}}
	ok, err = AssignableStrict(numArr, intRefArr, cat)
	require.NoError(t, err)
	assert.True(t, ok)

	longArr := Array{Component: Primitive{Name: Long}}
	intArr := Array{Component: Primitive{Name: Int}}
	ok, err = AssignableStrict(longArr, intArr, cat)
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = AssignableStrict(Reference{Name: "java.lang.Object"}, intArr, cat)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestCapture_FreshVariables(t *testing.T) {
	t.Parallel()
	number := Reference{Name: "java.lang.Number"}
	wild := Reference{Name: "java.util.List", Args: []Type{Wildcard{Direction: Extends, Bound: number}}}

	first := Capture(wild).(Reference)
	second := Capture(wild).(Reference)

	v1 := first.Args[0].(TypeVariable)
	v2 := second.Args[0].(TypeVariable)
	assert.True(t, v1.Bound.Equals(number))
	assert.NotEqual(t, v1.Name, v2.Name, "capture produces a fresh variable per call")

	plain := Reference{Name: "java.util.List", Args: []Type{number}}
	assert.True(t, Capture(plain).Equals(plain), "no wildcards, no capture")
}

func TestLeastCommonSupertype(t *testing.T) {
	t.Parallel()
	cat := testCatalog()

	got, err := LeastCommonSupertype(Reference{Name: "java.lang.Integer"}, Reference{Name: "java.lang.Integer"}, cat)
	require.NoError(t, err)
	assert.True(t, got.Equals(Reference{Name: "java.lang.Integer"}))

	got, err = LeastCommonSupertype(Reference{Name: "java.lang.Integer"}, Reference{Name: "java.lang.String"}, cat)
	require.NoError(t, err)
	assert.True(t, got.Equals(Reference{Name: "java.lang.Object"}))

	got, err = LeastCommonSupertype(Primitive{Name: Int}, Primitive{Name: Long}, cat)
	require.NoError(t, err)
	assert.True(t, got.Equals(Primitive{Name: Long}))
}

func TestMethodUsage_CallSiteTypes(t *testing.T) {
	t.Parallel()
	m := &Method{
		MethodName: "of",
		Declaring:  "java.util.List",
		TypeParams: []TypeParameter{{ParamName: "T"}},
		Params:     []Parameter{{ParamName: "items", Type: TypeVariable{Name: "T"}, Variadic: true}},
		Return:     Reference{Name: "java.util.List", Args: []Type{TypeVariable{Name: "T"}}},
		Variadic:   true,
	}
	u := MethodUsage{Method: m, Subst: Subst{"T": Reference{Name: "java.lang.String"}}}

	params := u.ParamTypes()
	require.Len(t, params, 1)
	assert.Equal(t, "java.lang.String[]", params[0].Describe(), "variadic parameter reported as array")
	assert.Equal(t, "java.util.List<java.lang.String>", u.ReturnType().Describe())
}

func TestSymbolReference(t *testing.T) {
	t.Parallel()
	u := Unsolved[*TypeDecl]()
	assert.False(t, u.IsSolved())
	assert.Nil(t, u.Declaration())

	d := &TypeDecl{QName: "p.A"}
	s := Solved(d)
	require.True(t, s.IsSolved())
	assert.Equal(t, "A", s.Declaration().Name())

	widened := AdaptRef(s, func(d *TypeDecl) Declaration { return d })
	require.True(t, widened.IsSolved())
	assert.Equal(t, "A", widened.Declaration().Name())
}
