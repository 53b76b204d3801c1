// Package index persists the contents of type catalogs to SQLite so
// that a project's classpath can be browsed without re-walking jars
// and source roots. The index is advisory: resolution never reads it.
package index

import (
	"database/sql"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

// Store is the SQLite data access layer for the type index.
type Store struct {
	db *sql.DB
}

// NewStore opens a SQLite database at dbPath with WAL mode enabled.
func NewStore(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_foreign_keys=ON&_busy_timeout=30000")
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	return &Store{db: db}, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Migrate creates the tables and indexes. Idempotent.
func (s *Store) Migrate() error {
	_, err := s.db.Exec(schemaDDL)
	if err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	return nil
}

const schemaDDL = `
CREATE TABLE IF NOT EXISTS catalogs (
  id              INTEGER PRIMARY KEY,
  origin          TEXT NOT NULL UNIQUE,
  kind            TEXT NOT NULL,
  last_indexed    TIMESTAMP
);

CREATE TABLE IF NOT EXISTS types (
  id              INTEGER PRIMARY KEY,
  catalog_id      INTEGER NOT NULL REFERENCES catalogs(id),
  qname           TEXT NOT NULL,
  package         TEXT NOT NULL,
  simple_name     TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_types_catalog ON types(catalog_id);
CREATE INDEX IF NOT EXISTS idx_types_qname ON types(qname);
CREATE INDEX IF NOT EXISTS idx_types_simple ON types(simple_name);
CREATE INDEX IF NOT EXISTS idx_types_package ON types(package);
`

// UpsertCatalog records a catalog origin (a jar path, a source root, or
// "builtin") and returns its row id, replacing any previously indexed
// types for that origin.
func (s *Store) UpsertCatalog(origin, kind string) (int64, error) {
	tx, err := s.db.Begin()
	if err != nil {
		return 0, fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	var id int64
	err = tx.QueryRow("SELECT id FROM catalogs WHERE origin = ?", origin).Scan(&id)
	switch {
	case err == sql.ErrNoRows:
		res, ierr := tx.Exec(
			"INSERT INTO catalogs (origin, kind, last_indexed) VALUES (?, ?, ?)",
			origin, kind, time.Now().UTC())
		if ierr != nil {
			return 0, fmt.Errorf("insert catalog: %w", ierr)
		}
		id, _ = res.LastInsertId()
	case err != nil:
		return 0, fmt.Errorf("query catalog: %w", err)
	default:
		if _, uerr := tx.Exec(
			"UPDATE catalogs SET kind = ?, last_indexed = ? WHERE id = ?",
			kind, time.Now().UTC(), id); uerr != nil {
			return 0, fmt.Errorf("update catalog: %w", uerr)
		}
		if _, derr := tx.Exec("DELETE FROM types WHERE catalog_id = ?", id); derr != nil {
			return 0, fmt.Errorf("clear catalog types: %w", derr)
		}
	}
	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit: %w", err)
	}
	return id, nil
}

// InsertTypes adds the given fully-qualified names under a catalog in a
// single transaction.
func (s *Store) InsertTypes(catalogID int64, qnames []string) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(
		"INSERT INTO types (catalog_id, qname, package, simple_name) VALUES (?, ?, ?, ?)")
	if err != nil {
		return fmt.Errorf("prepare insert: %w", err)
	}
	defer stmt.Close()

	for _, qname := range qnames {
		pkg, simple := splitQName(qname)
		if _, err := stmt.Exec(catalogID, qname, pkg, simple); err != nil {
			return fmt.Errorf("insert type %s: %w", qname, err)
		}
	}
	return tx.Commit()
}

// TypesByPrefix returns qualified names starting with prefix, sorted.
func (s *Store) TypesByPrefix(prefix string, limit int) ([]string, error) {
	rows, err := s.db.Query(
		"SELECT qname FROM types WHERE qname LIKE ? || '%' ORDER BY qname LIMIT ?",
		prefix, limit)
	if err != nil {
		return nil, fmt.Errorf("query types: %w", err)
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var qname string
		if err := rows.Scan(&qname); err != nil {
			return nil, fmt.Errorf("scan qname: %w", err)
		}
		out = append(out, qname)
	}
	return out, rows.Err()
}

// PackagesOf lists the distinct packages under a catalog origin.
func (s *Store) PackagesOf(origin string) ([]string, error) {
	rows, err := s.db.Query(`
		SELECT DISTINCT t.package FROM types t
		JOIN catalogs c ON c.id = t.catalog_id
		WHERE c.origin = ? ORDER BY t.package`, origin)
	if err != nil {
		return nil, fmt.Errorf("query packages: %w", err)
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var pkg string
		if err := rows.Scan(&pkg); err != nil {
			return nil, fmt.Errorf("scan package: %w", err)
		}
		out = append(out, pkg)
	}
	return out, rows.Err()
}

// CountByCatalog returns the number of indexed types per catalog origin.
func (s *Store) CountByCatalog() (map[string]int, error) {
	rows, err := s.db.Query(`
		SELECT c.origin, COUNT(t.id) FROM catalogs c
		LEFT JOIN types t ON t.catalog_id = c.id
		GROUP BY c.origin`)
	if err != nil {
		return nil, fmt.Errorf("query counts: %w", err)
	}
	defer rows.Close()

	out := make(map[string]int)
	for rows.Next() {
		var origin string
		var n int
		if err := rows.Scan(&origin, &n); err != nil {
			return nil, fmt.Errorf("scan count: %w", err)
		}
		out[origin] = n
	}
	return out, rows.Err()
}

func splitQName(qname string) (pkg, simple string) {
	for i := len(qname) - 1; i >= 0; i-- {
		if qname[i] == '.' {
			return qname[:i], qname[i+1:]
		}
	}
	return "", qname
}
