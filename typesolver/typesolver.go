// Package typesolver resolves fully-qualified type names against ordered
// chains of declaration catalogs: a built-in core-library catalog, binary
// jar archives, and un-compiled source trees. Each catalog caches its own
// results; chains are composed at construction time and are effectively
// append-only afterward, so a chain may be shared across concurrent
// resolution queries.
package typesolver

import (
	"fmt"
	"sync"

	"github.com/jward/understory/resolve"
)

// TypeSolver resolves a qualified name to a type declaration. "Not found"
// is the unsolved reference; an error means a backing source is broken and
// is never folded into unsolvedness.
type TypeSolver interface {
	SolveType(qualifiedName string) (resolve.SymbolReference[*resolve.TypeDecl], error)
}

// Enumerator is implemented by catalogs that can list every type they
// declare, for diagnostics. Enumeration is not on the resolution hot path.
type Enumerator interface {
	ListTypes() ([]string, error)
}

// cache is the per-catalog result cache: concurrent readers, idempotent
// racing inserts, entries never invalidated for the catalog's lifetime.
// Failed lookups are never stored, so one broken probe cannot poison later
// queries.
type cache struct {
	mu      sync.RWMutex
	entries map[string]resolve.SymbolReference[*resolve.TypeDecl]
}

func (c *cache) get(name string) (resolve.SymbolReference[*resolve.TypeDecl], bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	ref, ok := c.entries[name]
	return ref, ok
}

func (c *cache) put(name string, ref resolve.SymbolReference[*resolve.TypeDecl]) {
	c.mu.Lock()
	if c.entries == nil {
		c.entries = make(map[string]resolve.SymbolReference[*resolve.TypeDecl])
	}
	c.entries[name] = ref
	c.mu.Unlock()
}

// Combined queries an ordered list of catalogs and returns the first solved
// result. Combined catalogs nest: a Combined may itself be a child of
// another. Resolution order is construction order, never a heuristic.
type Combined struct {
	children []TypeSolver
	cache    cache
}

// NewCombined builds a composite catalog over the given children, queried
// in order.
func NewCombined(children ...TypeSolver) *Combined {
	return &Combined{children: children}
}

// Add appends a catalog to the chain. Add is construction-time wiring; a
// chain must not grow once queries are being served against it.
func (c *Combined) Add(child TypeSolver) {
	c.children = append(c.children, child)
}

// SolveType queries the children in order. A failing child does not stop
// the chain: later children are still consulted, and the failure is only
// reported if nothing solves the name.
func (c *Combined) SolveType(name string) (resolve.SymbolReference[*resolve.TypeDecl], error) {
	if ref, ok := c.cache.get(name); ok {
		return ref, nil
	}
	var errs []error
	for _, child := range c.children {
		ref, err := child.SolveType(name)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		if ref.IsSolved() {
			c.cache.put(name, ref)
			return ref, nil
		}
	}
	if len(errs) > 0 {
		return resolve.Unsolved[*resolve.TypeDecl](),
			fmt.Errorf("typesolver: resolving %s had %d catalog error(s): %w", name, len(errs), errs[0])
	}
	unsolved := resolve.Unsolved[*resolve.TypeDecl]()
	c.cache.put(name, unsolved)
	return unsolved, nil
}

// Memory is an in-memory catalog populated explicitly, used by tests and by
// callers that synthesize declarations.
type Memory struct {
	mu    sync.RWMutex
	decls map[string]*resolve.TypeDecl
}

// NewMemory builds an empty in-memory catalog.
func NewMemory() *Memory {
	return &Memory{decls: make(map[string]*resolve.TypeDecl)}
}

// Put registers a declaration under its qualified name.
func (m *Memory) Put(decl *resolve.TypeDecl) {
	m.mu.Lock()
	m.decls[decl.QName] = decl
	m.mu.Unlock()
}

// SolveType looks the name up in the registered declarations.
func (m *Memory) SolveType(name string) (resolve.SymbolReference[*resolve.TypeDecl], error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if d, ok := m.decls[name]; ok {
		return resolve.Solved(d), nil
	}
	return resolve.Unsolved[*resolve.TypeDecl](), nil
}

// ListTypes enumerates the registered names.
func (m *Memory) ListTypes() ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]string, 0, len(m.decls))
	for name := range m.decls {
		out = append(out, name)
	}
	return out, nil
}
