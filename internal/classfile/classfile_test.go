package classfile_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jward/understory/internal/classfile"
	"github.com/jward/understory/internal/classfile/classfiletest"
)

func TestParse_ClassShape(t *testing.T) {
	t.Parallel()
	data := classfiletest.Build(classfiletest.Class{
		Name:       "com/example/Greeter",
		SuperName:  "java/lang/Object",
		Interfaces: []string{"java/lang/Runnable"},
		Fields: []classfiletest.Member{
			{Name: "name", Descriptor: "Ljava/lang/String;"},
			{Name: "COUNT", Descriptor: "I", Flags: classfile.AccStatic | classfile.AccFinal},
		},
		Methods: []classfiletest.Member{
			{Name: "<init>", Descriptor: "(Ljava/lang/String;)V"},
			{Name: "greet", Descriptor: "(I)Ljava/lang/String;"},
			{Name: "greetAll", Descriptor: "([Ljava/lang/String;)V", Flags: classfile.AccVarargs},
		},
	})

	f, err := classfile.Parse(data)
	require.NoError(t, err)

	assert.Equal(t, "com/example/Greeter", f.Name)
	assert.Equal(t, "java/lang/Object", f.SuperName)
	assert.Equal(t, []string{"java/lang/Runnable"}, f.Interfaces)
	assert.False(t, f.IsInterface())

	require.Len(t, f.Fields, 2)
	assert.Equal(t, "Ljava/lang/String;", f.Fields[0].Descriptor)
	assert.NotZero(t, f.Fields[1].Flags&classfile.AccStatic)

	require.Len(t, f.Methods, 3)
	assert.Equal(t, "greet", f.Methods[1].Name)
	assert.Equal(t, "(I)Ljava/lang/String;", f.Methods[1].Descriptor)
	assert.NotZero(t, f.Methods[2].Flags&classfile.AccVarargs)
}

func TestParse_InterfaceFlags(t *testing.T) {
	t.Parallel()
	data := classfiletest.Build(classfiletest.Class{
		Name:  "com/example/Handler",
		Flags: classfile.AccInterface | classfile.AccAbstract,
	})
	f, err := classfile.Parse(data)
	require.NoError(t, err)
	assert.True(t, f.IsInterface())
	assert.False(t, f.IsEnum())
}

func TestParse_SignatureAttributes(t *testing.T) {
	t.Parallel()
	data := classfiletest.Build(classfiletest.Class{
		Name:      "com/example/Box",
		Signature: "<T:Ljava/lang/Object;>Ljava/lang/Object;",
		Fields: []classfiletest.Member{
			{Name: "value", Descriptor: "Ljava/lang/Object;", Signature: "TT;"},
			{Name: "count", Descriptor: "I"},
		},
		Methods: []classfiletest.Member{
			{Name: "get", Descriptor: "()Ljava/lang/Object;", Signature: "()TT;"},
		},
	})

	f, err := classfile.Parse(data)
	require.NoError(t, err)

	assert.Equal(t, "<T:Ljava/lang/Object;>Ljava/lang/Object;", f.Signature)
	require.Len(t, f.Fields, 2)
	assert.Equal(t, "TT;", f.Fields[0].Signature)
	assert.Empty(t, f.Fields[1].Signature)
	require.Len(t, f.Methods, 1)
	assert.Equal(t, "()TT;", f.Methods[0].Signature)
}

func TestParse_Malformed(t *testing.T) {
	t.Parallel()

	_, err := classfile.Parse([]byte{0xDE, 0xAD, 0xBE, 0xEF})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "bad magic")

	valid := classfiletest.Build(classfiletest.Class{Name: "p/A"})
	_, err = classfile.Parse(valid[:len(valid)/2])
	require.Error(t, err, "truncated input must fail, not yield a partial shape")

	_, err = classfile.Parse(nil)
	require.Error(t, err)
}
