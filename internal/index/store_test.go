package index

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "test.db")
	s, err := NewStore(dbPath)
	require.NoError(t, err)
	require.NoError(t, s.Migrate())
	t.Cleanup(func() { s.Close() })
	return s
}

func TestMigrate_TablesExist(t *testing.T) {
	t.Parallel()
	s := newTestStore(t)

	for _, table := range []string{"catalogs", "types"} {
		var name string
		err := s.db.QueryRow(
			"SELECT name FROM sqlite_master WHERE type='table' AND name=?", table,
		).Scan(&name)
		require.NoError(t, err, "table %s should exist", table)
		assert.Equal(t, table, name)
	}

	// Running again should be a no-op.
	require.NoError(t, s.Migrate())
}

func TestUpsertCatalog_ReplacesTypes(t *testing.T) {
	t.Parallel()
	s := newTestStore(t)

	id, err := s.UpsertCatalog("/tmp/lib.jar", "jar")
	require.NoError(t, err)
	require.Positive(t, id)
	require.NoError(t, s.InsertTypes(id, []string{"com.acme.Foo", "com.acme.Bar"}))

	counts, err := s.CountByCatalog()
	require.NoError(t, err)
	assert.Equal(t, 2, counts["/tmp/lib.jar"])

	// Re-indexing the same origin clears the old rows and keeps the id.
	id2, err := s.UpsertCatalog("/tmp/lib.jar", "jar")
	require.NoError(t, err)
	assert.Equal(t, id, id2)
	require.NoError(t, s.InsertTypes(id2, []string{"com.acme.Foo"}))

	counts, err = s.CountByCatalog()
	require.NoError(t, err)
	assert.Equal(t, 1, counts["/tmp/lib.jar"])
}

func TestTypesByPrefix(t *testing.T) {
	t.Parallel()
	s := newTestStore(t)

	id, err := s.UpsertCatalog("src", "source")
	require.NoError(t, err)
	require.NoError(t, s.InsertTypes(id, []string{
		"com.acme.util.Lists",
		"com.acme.util.Maps",
		"com.acme.App",
		"org.other.Thing",
	}))

	got, err := s.TypesByPrefix("com.acme.util.", 10)
	require.NoError(t, err)
	assert.Equal(t, []string{"com.acme.util.Lists", "com.acme.util.Maps"}, got)

	got, err = s.TypesByPrefix("com.", 2)
	require.NoError(t, err)
	assert.Len(t, got, 2)

	got, err = s.TypesByPrefix("net.", 10)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestPackagesOf(t *testing.T) {
	t.Parallel()
	s := newTestStore(t)

	id, err := s.UpsertCatalog("src", "source")
	require.NoError(t, err)
	require.NoError(t, s.InsertTypes(id, []string{
		"com.acme.App",
		"com.acme.util.Lists",
		"com.acme.util.Maps",
		"Toplevel",
	}))

	pkgs, err := s.PackagesOf("src")
	require.NoError(t, err)
	assert.Equal(t, []string{"", "com.acme", "com.acme.util"}, pkgs)

	pkgs, err = s.PackagesOf("missing")
	require.NoError(t, err)
	assert.Empty(t, pkgs)
}
