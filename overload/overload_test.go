package overload

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jward/understory/resolve"
	"github.com/jward/understory/typesolver"
)

func intT() resolve.Type    { return resolve.Primitive{Name: resolve.Int} }
func longT() resolve.Type   { return resolve.Primitive{Name: resolve.Long} }
func refT(name string, args ...resolve.Type) resolve.Type {
	return resolve.Reference{Name: name, Args: args}
}

func method(name string, variadic bool, ret resolve.Type, params ...resolve.Parameter) *resolve.Method {
	return &resolve.Method{
		MethodName: name,
		Declaring:  "com.example.A",
		Params:     params,
		Return:     ret,
		Variadic:   variadic,
	}
}

func param(name string, t resolve.Type) resolve.Parameter {
	return resolve.Parameter{ParamName: name, Type: t}
}

func TestResolveMethod_StrictBeatsBoxing(t *testing.T) {
	t.Parallel()
	cat := typesolver.NewBuiltin()
	candidates := []*resolve.Method{
		method("m", false, resolve.VoidType{}, param("a", refT("java.lang.Integer"))),
		method("m", false, resolve.VoidType{}, param("a", intT())),
	}

	ref, err := ResolveMethod(candidates, []resolve.Type{intT()}, cat)
	require.NoError(t, err)
	require.True(t, ref.IsSolved())
	assert.True(t, ref.Declaration().Method.Params[0].Type.Equals(intT()),
		"an int argument picks m(int) in the strict phase, not m(Integer)")
}

func TestResolveMethod_LoosePhaseBoxes(t *testing.T) {
	t.Parallel()
	cat := typesolver.NewBuiltin()
	candidates := []*resolve.Method{
		method("m", false, resolve.VoidType{}, param("a", refT("java.lang.Integer"))),
	}

	ref, err := ResolveMethod(candidates, []resolve.Type{intT()}, cat)
	require.NoError(t, err)
	require.True(t, ref.IsSolved())
}

func TestResolveMethod_VariadicPhase(t *testing.T) {
	t.Parallel()
	cat := typesolver.NewBuiltin()
	candidates := []*resolve.Method{
		method("log", true, resolve.VoidType{},
			resolve.Parameter{ParamName: "args", Type: refT("java.lang.Object"), Variadic: true}),
	}

	str := refT("java.lang.String")
	ref, err := ResolveMethod(candidates, []resolve.Type{str, str}, cat)
	require.NoError(t, err)
	require.True(t, ref.IsSolved())

	// The call-site view reports the synthesized array parameter.
	params := ref.Declaration().ParamTypes()
	require.Len(t, params, 1)
	assert.True(t, params[0].Equals(resolve.Array{Component: refT("java.lang.Object")}))

	// Zero trailing arguments is fine too.
	ref, err = ResolveMethod(candidates, nil, cat)
	require.NoError(t, err)
	assert.True(t, ref.IsSolved())
}

func TestResolveMethod_MostSpecific(t *testing.T) {
	t.Parallel()
	cat := typesolver.NewBuiltin()
	object := method("m", false, resolve.VoidType{}, param("a", refT("java.lang.Object")))
	str := method("m", false, resolve.VoidType{}, param("a", refT("java.lang.String")))

	ref, err := ResolveMethod([]*resolve.Method{object, str}, []resolve.Type{refT("java.lang.String")}, cat)
	require.NoError(t, err)
	require.True(t, ref.IsSolved())
	assert.Same(t, str, ref.Declaration().Method)
}

func TestResolveMethod_AmbiguityIsUnsolved(t *testing.T) {
	t.Parallel()
	cat := typesolver.NewBuiltin()
	candidates := []*resolve.Method{
		method("m", false, resolve.VoidType{}, param("a", intT()), param("b", longT())),
		method("m", false, resolve.VoidType{}, param("a", longT()), param("b", intT())),
	}

	ref, err := ResolveMethod(candidates, []resolve.Type{intT(), intT()}, cat)
	require.NoError(t, err)
	assert.False(t, ref.IsSolved(), "mutually non-dominating candidates are ambiguous, never a pick")
}

func TestResolveMethod_Deterministic(t *testing.T) {
	t.Parallel()
	cat := typesolver.NewBuiltin()
	candidates := []*resolve.Method{
		method("m", false, resolve.VoidType{}, param("a", refT("java.lang.Number"))),
		method("m", false, resolve.VoidType{}, param("a", refT("java.lang.Object"))),
	}
	args := []resolve.Type{refT("java.lang.Integer")}

	first, err := ResolveMethod(candidates, args, cat)
	require.NoError(t, err)
	require.True(t, first.IsSolved())
	for i := 0; i < 10; i++ {
		again, err := ResolveMethod(candidates, args, cat)
		require.NoError(t, err)
		require.True(t, again.IsSolved())
		assert.Same(t, first.Declaration().Method, again.Declaration().Method)
	}
}

func TestResolveMethod_GenericInference(t *testing.T) {
	t.Parallel()
	cat := typesolver.NewBuiltin()
	tv := resolve.TypeVariable{Name: "T"}
	pick := &resolve.Method{
		MethodName: "pick",
		Declaring:  "com.example.A",
		TypeParams: []resolve.TypeParameter{{ParamName: "T"}},
		Params:     []resolve.Parameter{param("a", tv), param("b", tv)},
		Return:     tv,
	}

	// Identical constraints: T is the argument type.
	ref, err := ResolveMethod([]*resolve.Method{pick},
		[]resolve.Type{refT("java.lang.String"), refT("java.lang.String")}, cat)
	require.NoError(t, err)
	require.True(t, ref.IsSolved())
	assert.True(t, ref.Declaration().ReturnType().Equals(refT("java.lang.String")))

	// Mixed constraints join at the least common supertype.
	ref, err = ResolveMethod([]*resolve.Method{pick},
		[]resolve.Type{refT("java.lang.Integer"), refT("java.lang.Long")}, cat)
	require.NoError(t, err)
	require.True(t, ref.IsSolved())
	assert.True(t, ref.Declaration().ReturnType().Equals(refT("java.lang.Number")))
}

func TestResolveMethod_GenericThroughContainer(t *testing.T) {
	t.Parallel()
	cat := typesolver.NewBuiltin()
	tv := resolve.TypeVariable{Name: "E"}
	first := &resolve.Method{
		MethodName: "first",
		Declaring:  "com.example.A",
		TypeParams: []resolve.TypeParameter{{ParamName: "E"}},
		Params:     []resolve.Parameter{param("xs", refT("java.lang.Iterable", tv))},
		Return:     tv,
	}

	// ArrayList<String> constrains E through its Iterable<E> supertype.
	ref, err := ResolveMethod([]*resolve.Method{first},
		[]resolve.Type{refT("java.util.ArrayList", refT("java.lang.String"))}, cat)
	require.NoError(t, err)
	require.True(t, ref.IsSolved())
	assert.True(t, ref.Declaration().ReturnType().Equals(refT("java.lang.String")))
}

func TestResolveMethod_BoundMakesCandidateInapplicable(t *testing.T) {
	t.Parallel()
	cat := typesolver.NewBuiltin()
	tv := resolve.TypeVariable{Name: "T", Bound: refT("java.lang.Number")}
	bounded := &resolve.Method{
		MethodName: "sum",
		Declaring:  "com.example.A",
		TypeParams: []resolve.TypeParameter{{ParamName: "T", Bound: refT("java.lang.Number")}},
		Params:     []resolve.Parameter{param("a", tv)},
		Return:     tv,
	}
	fallback := method("sum", false, resolve.VoidType{}, param("a", refT("java.lang.Object")))

	// A String argument escapes T's bound; only the Object overload remains.
	ref, err := ResolveMethod([]*resolve.Method{bounded, fallback},
		[]resolve.Type{refT("java.lang.String")}, cat)
	require.NoError(t, err)
	require.True(t, ref.IsSolved())
	assert.Same(t, fallback, ref.Declaration().Method)
}

func TestResolveMethod_NoCandidates(t *testing.T) {
	t.Parallel()
	cat := typesolver.NewBuiltin()
	ref, err := ResolveMethod(nil, []resolve.Type{intT()}, cat)
	require.NoError(t, err)
	assert.False(t, ref.IsSolved())
}

func TestResolveConstructor(t *testing.T) {
	t.Parallel()
	cat := typesolver.NewBuiltin()
	empty := &resolve.Constructor{Declaring: "com.example.Point"}
	two := &resolve.Constructor{
		Declaring: "com.example.Point",
		Params:    []resolve.Parameter{param("x", intT()), param("y", intT())},
	}

	ref, err := ResolveConstructor([]*resolve.Constructor{empty, two},
		[]resolve.Type{intT(), intT()}, cat)
	require.NoError(t, err)
	require.True(t, ref.IsSolved())
	assert.Same(t, two, ref.Declaration().Constructor)
	assert.True(t, ref.Declaration().Type().Equals(refT("com.example.Point")))

	none, err := ResolveConstructor([]*resolve.Constructor{two}, nil, cat)
	require.NoError(t, err)
	assert.False(t, none.IsSolved())
}
