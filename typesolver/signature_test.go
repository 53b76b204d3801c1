package typesolver

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jward/understory/resolve"
)

func TestClassSignature(t *testing.T) {
	t.Parallel()

	// class ArrayList<E> extends AbstractList<E> implements List<E>
	tps, supers, err := classSignature(
		"<E:Ljava/lang/Object;>Ljava/util/AbstractList<TE;>;Ljava/util/List<TE;>;")
	require.NoError(t, err)
	require.Len(t, tps, 1)
	assert.Equal(t, "E", tps[0].ParamName)
	require.NotNil(t, tps[0].Bound)
	assert.True(t, tps[0].Bound.Equals(resolve.Reference{Name: "java.lang.Object"}))
	require.Len(t, supers, 2)
	assert.True(t, supers[0].Equals(resolve.Reference{
		Name: "java.util.AbstractList",
		Args: []resolve.Type{resolve.TypeVariable{Name: "E"}},
	}))
	assert.True(t, supers[1].Equals(resolve.Reference{
		Name: "java.util.List",
		Args: []resolve.Type{resolve.TypeVariable{Name: "E"}},
	}))

	// An absent class bound with interface bounds becomes an intersection
	// only when there is more than one bound.
	tps, _, err = classSignature(
		"<T::Ljava/lang/Comparable<TT;>;:Ljava/io/Serializable;>Ljava/lang/Object;")
	require.NoError(t, err)
	require.Len(t, tps, 1)
	inter, ok := tps[0].Bound.(resolve.Intersection)
	require.True(t, ok)
	require.Len(t, inter.Members, 2)

	_, _, err = classSignature("<E:Ljava/lang/Object;>")
	require.Error(t, err, "a class signature without a superclass is malformed")
}

func TestMethodSignature(t *testing.T) {
	t.Parallel()

	// <R> List<R> map(Function<? super T, ? extends R> f) throws E
	tps, params, ret, err := methodSignature(
		"<R:Ljava/lang/Object;>(Ljava/util/function/Function<-TT;+TR;>;)Ljava/util/List<TR;>;^TE;")
	require.NoError(t, err)
	require.Len(t, tps, 1)
	assert.Equal(t, "R", tps[0].ParamName)

	require.Len(t, params, 1)
	fn, ok := params[0].(resolve.Reference)
	require.True(t, ok)
	assert.Equal(t, "java.util.function.Function", fn.Name)
	require.Len(t, fn.Args, 2)
	assert.True(t, fn.Args[0].Equals(resolve.Wildcard{
		Direction: resolve.Super, Bound: resolve.TypeVariable{Name: "T"},
	}))
	assert.True(t, fn.Args[1].Equals(resolve.Wildcard{
		Direction: resolve.Extends, Bound: resolve.TypeVariable{Name: "R"},
	}))

	assert.True(t, ret.Equals(resolve.Reference{
		Name: "java.util.List",
		Args: []resolve.Type{resolve.TypeVariable{Name: "R"}},
	}))

	// Primitives and void pass through untouched.
	_, params, ret, err = methodSignature("(IJ)V")
	require.NoError(t, err)
	require.Len(t, params, 2)
	assert.True(t, params[0].Equals(resolve.Primitive{Name: resolve.Int}))
	assert.True(t, ret.Equals(resolve.VoidType{}))
}

func TestFieldSignature(t *testing.T) {
	t.Parallel()

	got, err := fieldSignature("Ljava/util/Map<TK;Ljava/util/List<TV;>;>;")
	require.NoError(t, err)
	assert.True(t, got.Equals(resolve.Reference{
		Name: "java.util.Map",
		Args: []resolve.Type{
			resolve.TypeVariable{Name: "K"},
			resolve.Reference{
				Name: "java.util.List",
				Args: []resolve.Type{resolve.TypeVariable{Name: "V"}},
			},
		},
	}))

	got, err = fieldSignature("[TT;")
	require.NoError(t, err)
	assert.True(t, got.Equals(resolve.Array{Component: resolve.TypeVariable{Name: "T"}}))

	// Nested segments extend the name; the innermost arguments win.
	got, err = fieldSignature("Ljava/util/Map<TK;TV;>.Entry<TK;TV;>;")
	require.NoError(t, err)
	ref, ok := got.(resolve.Reference)
	require.True(t, ok)
	assert.Equal(t, "java.util.Map.Entry", ref.Name)
	require.Len(t, ref.Args, 2)

	got, err = fieldSignature("Ljava/util/List<*>;")
	require.NoError(t, err)
	ref = got.(resolve.Reference)
	require.Len(t, ref.Args, 1)
	assert.True(t, ref.Args[0].Equals(resolve.Wildcard{Direction: resolve.Unbounded}))

	_, err = fieldSignature("Ljava/util/List<TT;>")
	require.Error(t, err, "unterminated class type")

	_, err = fieldSignature("Qjava/lang/String;")
	require.Error(t, err)
}
