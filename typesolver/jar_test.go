package typesolver

import (
	"archive/zip"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jward/understory/internal/classfile"
	"github.com/jward/understory/internal/classfile/classfiletest"
	"github.com/jward/understory/resolve"
)

// writeJar builds a jar at path containing the given entries.
func writeJar(t *testing.T, path string, entries map[string][]byte) {
	t.Helper()
	f, err := os.Create(path)
	require.NoError(t, err)
	w := zip.NewWriter(f)
	for name, data := range entries {
		entry, err := w.Create(name)
		require.NoError(t, err)
		_, err = entry.Write(data)
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())
	require.NoError(t, f.Close())
}

func newTestJar(t *testing.T, entries map[string][]byte) *Jar {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.jar")
	writeJar(t, path, entries)
	j, err := NewJar(path)
	require.NoError(t, err)
	t.Cleanup(func() { j.Close() })
	return j
}

func TestJar_SolveType(t *testing.T) {
	t.Parallel()
	j := newTestJar(t, map[string][]byte{
		"com/example/Greeter.class": classfiletest.Build(classfiletest.Class{
			Name:       "com/example/Greeter",
			Interfaces: []string{"java/lang/Runnable"},
			Fields: []classfiletest.Member{
				{Name: "name", Descriptor: "Ljava/lang/String;"},
			},
			Methods: []classfiletest.Member{
				{Name: "<init>", Descriptor: "()V"},
				{Name: "greet", Descriptor: "(I)Ljava/lang/String;"},
				{Name: "greetAll", Descriptor: "([Ljava/lang/String;)V", Flags: classfile.AccVarargs},
			},
		}),
		"META-INF/MANIFEST.MF": []byte("Manifest-Version: 1.0\n"),
	})

	ref, err := j.SolveType("com.example.Greeter")
	require.NoError(t, err)
	require.True(t, ref.IsSolved())

	d := ref.Declaration()
	assert.Equal(t, "com.example.Greeter", d.QName)
	assert.Equal(t, resolve.ClassKind, d.DeclKind)
	require.Len(t, d.Supers, 2)
	assert.True(t, d.Supers[0].Equals(resolve.Reference{Name: "java.lang.Object"}))
	assert.True(t, d.Supers[1].Equals(resolve.Reference{Name: "java.lang.Runnable"}))

	f, ok := d.FieldNamed("name")
	require.True(t, ok)
	assert.Equal(t, "java.lang.String", f.Type.Describe())

	require.Len(t, d.CtorList, 1)
	greet := d.MethodsNamed("greet")
	require.Len(t, greet, 1)
	assert.Equal(t, "int", greet[0].Params[0].Type.Describe())

	all := d.MethodsNamed("greetAll")
	require.Len(t, all, 1)
	assert.True(t, all[0].Variadic)
	assert.Equal(t, "java.lang.String", all[0].Params[0].ComponentType().Describe(),
		"variadic parameter records its component type")

	ref, err = j.SolveType("com.example.Missing")
	require.NoError(t, err)
	assert.False(t, ref.IsSolved())
}

func TestJar_GenericSignatures(t *testing.T) {
	t.Parallel()
	j := newTestJar(t, map[string][]byte{
		"com/example/Box.class": classfiletest.Build(classfiletest.Class{
			Name:      "com/example/Box",
			Signature: "<T:Ljava/lang/Object;>Ljava/lang/Object;Ljava/lang/Iterable<TT;>;",
			Fields: []classfiletest.Member{
				{Name: "value", Descriptor: "Ljava/lang/Object;", Signature: "TT;"},
			},
			Methods: []classfiletest.Member{
				{Name: "get", Descriptor: "()Ljava/lang/Object;", Signature: "()TT;"},
				{Name: "map", Descriptor: "(Ljava/util/function/Function;)Ljava/lang/Object;",
					Signature: "<R:Ljava/lang/Object;>(Ljava/util/function/Function<-TT;+TR;>;)TR;"},
			},
		}),
	})

	ref, err := j.SolveType("com.example.Box")
	require.NoError(t, err)
	require.True(t, ref.IsSolved())
	d := ref.Declaration()

	require.Len(t, d.TypeParams, 1)
	assert.Equal(t, "T", d.TypeParams[0].ParamName)
	require.Len(t, d.Supers, 2)
	assert.True(t, d.Supers[1].Equals(resolve.Reference{
		Name: "java.lang.Iterable",
		Args: []resolve.Type{resolve.TypeVariable{Name: "T"}},
	}))

	f, ok := d.FieldNamed("value")
	require.True(t, ok)
	assert.True(t, f.Type.Equals(resolve.TypeVariable{Name: "T"}),
		"the generic signature wins over the erased descriptor")

	get := d.MethodsNamed("get")
	require.Len(t, get, 1)
	assert.True(t, get[0].Return.Equals(resolve.TypeVariable{Name: "T"}))

	m := d.MethodsNamed("map")
	require.Len(t, m, 1)
	require.Len(t, m[0].TypeParams, 1)
	assert.Equal(t, "R", m[0].TypeParams[0].ParamName)
	assert.True(t, m[0].Return.Equals(resolve.TypeVariable{Name: "R"}))
}

func TestJar_NestedClassName(t *testing.T) {
	t.Parallel()
	j := newTestJar(t, map[string][]byte{
		"com/example/Outer$Inner.class": classfiletest.Build(classfiletest.Class{
			Name: "com/example/Outer$Inner",
		}),
	})

	ref, err := j.SolveType("com.example.Outer.Inner")
	require.NoError(t, err)
	require.True(t, ref.IsSolved())
	assert.Equal(t, "com.example.Outer", ref.Declaration().NestedIn)
}

func TestJar_CorruptEntryIsErrorNotUnsolved(t *testing.T) {
	t.Parallel()
	good := classfiletest.Build(classfiletest.Class{Name: "p/Good"})
	j := newTestJar(t, map[string][]byte{
		"p/Bad.class":  {0x00, 0x01, 0x02},
		"p/Good.class": good,
	})

	ref, err := j.SolveType("p.Bad")
	require.Error(t, err)
	assert.False(t, ref.IsSolved())

	// The failure did not poison anything else.
	ref, err = j.SolveType("p.Good")
	require.NoError(t, err)
	assert.True(t, ref.IsSolved())
}

func TestJar_ListTypes(t *testing.T) {
	t.Parallel()
	j := newTestJar(t, map[string][]byte{
		"b/B.class":               classfiletest.Build(classfiletest.Class{Name: "b/B"}),
		"a/A.class":               classfiletest.Build(classfiletest.Class{Name: "a/A"}),
		"module-info.class":       {0xCA, 0xFE},
		"META-INF/services/x.txt": []byte("x"),
	})
	names, err := j.ListTypes()
	require.NoError(t, err)
	assert.Equal(t, []string{"a.A", "b.B"}, names)
}

func TestNewJar_MissingFile(t *testing.T) {
	t.Parallel()
	_, err := NewJar(filepath.Join(t.TempDir(), "nope.jar"))
	require.Error(t, err)
}
