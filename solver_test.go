package understory

import (
	"context"
	"testing"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jward/understory/internal/syntax"
	"github.com/jward/understory/resolve"
	"github.com/jward/understory/typesolver"
)

func newTestSolver(t *testing.T, src string, catalog resolve.TypeCatalog) (*sitter.Node, *Solver) {
	t.Helper()
	tree, root, err := ParseSource(context.Background(), []byte(src))
	require.NoError(t, err)
	t.Cleanup(func() { tree.Close() })
	return root, NewSolver(root, []byte(src), catalog)
}

// ident returns the n-th (zero-based) identifier node spelled name, in
// tree order.
func ident(t *testing.T, root *sitter.Node, src, name string, n int) *sitter.Node {
	t.Helper()
	found := findNodes(root, func(node *sitter.Node) bool {
		return node.Type() == "identifier" && syntax.Text(node, []byte(src)) == name
	})
	require.Greater(t, len(found), n, "identifier %q occurrence %d", name, n)
	return found[n]
}

// nodeOfKind returns the n-th node of the given kind, in tree order.
func nodeOfKind(t *testing.T, root *sitter.Node, kind string, n int) *sitter.Node {
	t.Helper()
	found := findNodes(root, func(node *sitter.Node) bool { return node.Type() == kind })
	require.Greater(t, len(found), n, "node kind %q occurrence %d", kind, n)
	return found[n]
}

func findNodes(root *sitter.Node, pred func(*sitter.Node) bool) []*sitter.Node {
	var out []*sitter.Node
	var walk func(n *sitter.Node)
	walk = func(n *sitter.Node) {
		if pred(n) {
			out = append(out, n)
		}
		for i := 0; i < int(n.ChildCount()); i++ {
			walk(n.Child(i))
		}
	}
	walk(root)
	return out
}

func TestSolver_DeepNesting(t *testing.T) {
	t.Parallel()
	src := `class A {
		void m(int p) {
			String outer = "x";
			{
				{
					{
						int use = p;
						String also = outer;
					}
				}
			}
		}
	}`
	root, s := newTestSolver(t, src, nil)

	ref, err := s.ResolveSymbol(ident(t, root, src, "p", 1), "p")
	require.NoError(t, err)
	require.True(t, ref.IsSolved())
	v := ref.Declaration().(resolve.ValueDeclaration)
	assert.True(t, v.DeclaredType().Equals(resolve.Primitive{Name: resolve.Int}))

	ref, err = s.ResolveSymbol(ident(t, root, src, "outer", 1), "outer")
	require.NoError(t, err)
	require.True(t, ref.IsSolved())
	v = ref.Declaration().(resolve.ValueDeclaration)
	assert.True(t, v.DeclaredType().Equals(resolve.Reference{Name: "java.lang.String"}))
}

func TestSolver_VarShadowing(t *testing.T) {
	t.Parallel()
	src := `class A {
		void m() {
			int y = 0;
			{
				int before = y;
				var y = "s";
				int after = y;
			}
		}
	}`
	root, s := newTestSolver(t, src, nil)

	// Before the inner declaration the outer int binding is visible.
	ref, err := s.ResolveSymbol(ident(t, root, src, "y", 1), "y")
	require.NoError(t, err)
	require.True(t, ref.IsSolved())
	v := ref.Declaration().(resolve.ValueDeclaration)
	assert.True(t, v.DeclaredType().Equals(resolve.Primitive{Name: resolve.Int}))

	// After it, the inner var wins and its type comes from the initializer.
	ref, err = s.ResolveSymbol(ident(t, root, src, "y", 3), "y")
	require.NoError(t, err)
	require.True(t, ref.IsSolved())
	v = ref.Declaration().(resolve.ValueDeclaration)
	assert.True(t, v.DeclaredType().Equals(resolve.Reference{Name: "java.lang.String"}),
		"got %s", v.DeclaredType().Describe())
}

func TestSolver_PatternFlow(t *testing.T) {
	t.Parallel()
	src := `class A {
		void m(Object o) {
			if (o instanceof String s) {
				int n = s.length();
			}
			{
				boolean b = o instanceof Integer i;
			}
			Object after = o;
		}
	}`
	root, s := newTestSolver(t, src, nil)

	// Inside the guarded branch and in following siblings the pattern
	// variable is bound.
	ref, err := s.ResolveSymbol(ident(t, root, src, "s", 1), "s")
	require.NoError(t, err)
	require.True(t, ref.IsSolved())
	v := ref.Declaration().(resolve.ValueDeclaration)
	assert.True(t, v.DeclaredType().Equals(resolve.Reference{Name: "java.lang.String"}))

	afterAt := ident(t, root, src, "after", 0)
	ref, err = s.ResolveSymbol(afterAt, "s")
	require.NoError(t, err)
	assert.True(t, ref.IsSolved())

	// A pattern bound inside a nested block never escapes it.
	ref, err = s.ResolveSymbol(afterAt, "i")
	require.NoError(t, err)
	assert.False(t, ref.IsSolved())
}

func TestSolver_CatalogChainPriority(t *testing.T) {
	t.Parallel()
	declA := &resolve.TypeDecl{QName: "com.x.Dup", DeclKind: resolve.ClassKind}
	declB := &resolve.TypeDecl{QName: "com.x.Dup", DeclKind: resolve.InterfaceKind}
	memA := typesolver.NewMemory()
	memA.Put(declA)
	memB := typesolver.NewMemory()
	memB.Put(declB)

	src := `import com.x.Dup;
	class A { Dup f; }`

	root, s := newTestSolver(t, src, typesolver.NewCombined(memA, memB))
	ref, err := s.ResolveType(ident(t, root, src, "f", 0), "Dup")
	require.NoError(t, err)
	require.True(t, ref.IsSolved())
	assert.Same(t, declA, ref.Declaration())

	// Reversing the chain flips the winner.
	root2, s2 := newTestSolver(t, src, typesolver.NewCombined(memB, memA))
	ref, err = s2.ResolveType(ident(t, root2, src, "f", 0), "Dup")
	require.NoError(t, err)
	require.True(t, ref.IsSolved())
	assert.Same(t, declB, ref.Declaration())
}

func TestSolver_MethodCallStrictPick(t *testing.T) {
	t.Parallel()
	src := `class A {
		void m(int x) {}
		void m(Integer x) {}
		void go() { m(1); }
	}`
	root, s := newTestSolver(t, src, nil)
	at := ident(t, root, src, "go", 0)

	usage, err := s.ResolveMethodCall(at, "m", []resolve.Type{resolve.Primitive{Name: resolve.Int}})
	require.NoError(t, err)
	require.True(t, usage.IsSolved())
	params := usage.Declaration().ParamTypes()
	require.Len(t, params, 1)
	assert.True(t, params[0].Equals(resolve.Primitive{Name: resolve.Int}))

	// Same inputs, same winner.
	for i := 0; i < 10; i++ {
		again, err := s.ResolveMethodCall(at, "m", []resolve.Type{resolve.Primitive{Name: resolve.Int}})
		require.NoError(t, err)
		require.True(t, again.IsSolved())
		assert.Same(t, usage.Declaration().Method, again.Declaration().Method)
	}
}

func TestSolver_VariadicCall(t *testing.T) {
	t.Parallel()
	src := `class A {
		void log(Object... parts) {}
		void go() {}
	}`
	root, s := newTestSolver(t, src, nil)
	str := resolve.Reference{Name: "java.lang.String"}

	usage, err := s.ResolveMethodCall(ident(t, root, src, "go", 0), "log", []resolve.Type{str, str})
	require.NoError(t, err)
	require.True(t, usage.IsSolved())
	assert.Equal(t, "log", usage.Declaration().Method.MethodName)
}

func TestSolver_AmbiguousCallUnsolved(t *testing.T) {
	t.Parallel()
	src := `class A {
		void m(int a, long b) {}
		void m(long a, int b) {}
		void go() {}
	}`
	root, s := newTestSolver(t, src, nil)

	usage, err := s.ResolveMethodCall(ident(t, root, src, "go", 0), "m",
		[]resolve.Type{resolve.Primitive{Name: resolve.Int}, resolve.Primitive{Name: resolve.Int}})
	require.NoError(t, err)
	assert.False(t, usage.IsSolved())
}

func TestSolver_InheritedCall(t *testing.T) {
	t.Parallel()
	src := `class Base {
		String describe() { return ""; }
	}
	class A extends Base {
		void go() {}
	}`
	root, s := newTestSolver(t, src, nil)

	usage, err := s.ResolveMethodCall(ident(t, root, src, "go", 0), "describe", nil)
	require.NoError(t, err)
	require.True(t, usage.IsSolved())
	assert.Equal(t, "Base", usage.Declaration().Method.Declaring)
}

func TestSolver_ConstructorCall(t *testing.T) {
	t.Parallel()
	_, s := newTestSolver(t, `class A {}`, nil)
	str := resolve.Reference{Name: "java.lang.String"}

	usage, err := s.ResolveConstructorCall("java.lang.String", []resolve.Type{str})
	require.NoError(t, err)
	require.True(t, usage.IsSolved())
	assert.True(t, usage.Declaration().Type().Equals(str))

	usage, err = s.ResolveConstructorCall("java.lang.String", []resolve.Type{resolve.Primitive{Name: resolve.Boolean}})
	require.NoError(t, err)
	assert.False(t, usage.IsSolved())

	usage, err = s.ResolveConstructorCall("no.such.Type", nil)
	require.NoError(t, err)
	assert.False(t, usage.IsSolved())
}
