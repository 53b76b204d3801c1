package understory

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
	sitter "github.com/smacker/go-tree-sitter"
	"golang.org/x/sync/errgroup"

	"github.com/jward/understory/internal/index"
	"github.com/jward/understory/resolve"
	"github.com/jward/understory/typesolver"
)

// Project holds the classpath of a Java codebase: source roots, jars and
// the built-in core types, combined into one catalog chain. Source roots
// are consulted before jars, jars before the built-ins, so a project type
// shadows a library type of the same name.
type Project struct {
	catalog     *typesolver.Combined
	sources     []*typesolver.Source
	jars        []*typesolver.Jar
	jarPaths    []string
	sourceRoots []string
	parallelism int
}

// Option configures a Project.
type Option func(*Project)

// WithSourceRoots adds directories whose .java files resolve by their
// package-relative path.
func WithSourceRoots(roots ...string) Option {
	return func(p *Project) {
		p.sourceRoots = append(p.sourceRoots, roots...)
	}
}

// WithJars adds jar files to the classpath.
func WithJars(paths ...string) Option {
	return func(p *Project) {
		p.jarPaths = append(p.jarPaths, paths...)
	}
}

// WithParallelism bounds the number of catalogs indexed concurrently by
// IndexInto. Zero or negative means one goroutine per catalog.
func WithParallelism(n int) Option {
	return func(p *Project) {
		p.parallelism = n
	}
}

// Open builds a Project's catalog chain. Jars are opened eagerly so a
// missing or corrupt archive fails here rather than mid-resolution.
func Open(opts ...Option) (*Project, error) {
	p := &Project{}
	for _, opt := range opts {
		opt(p)
	}

	var chain []typesolver.TypeSolver
	for _, root := range p.sourceRoots {
		src, err := typesolver.NewSource(root)
		if err != nil {
			p.Close()
			return nil, fmt.Errorf("understory: source root %s: %w", root, err)
		}
		p.sources = append(p.sources, src)
		chain = append(chain, src)
	}
	for _, path := range p.jarPaths {
		j, err := typesolver.NewJar(path)
		if err != nil {
			p.Close()
			return nil, fmt.Errorf("understory: jar %s: %w", path, err)
		}
		p.jars = append(p.jars, j)
		chain = append(chain, j)
	}
	chain = append(chain, typesolver.NewBuiltin())

	p.catalog = typesolver.NewCombined(chain...)
	return p, nil
}

// Close releases the jar handles.
func (p *Project) Close() error {
	var errs []error
	for _, j := range p.jars {
		if err := j.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("closing jars had %d error(s): %w", len(errs), errs[0])
	}
	return nil
}

// Catalog returns the project's combined catalog.
func (p *Project) Catalog() resolve.TypeCatalog {
	return p.catalog
}

// SolverFor parses src as a compilation unit and returns a Solver whose
// catalog chain starts with the unit's own declarations, then the
// project classpath. The returned tree owns the nodes the Solver hands
// out; close it when done.
func (p *Project) SolverFor(ctx context.Context, src []byte) (*sitter.Tree, *Solver, error) {
	tree, root, err := ParseSource(ctx, src)
	if err != nil {
		return nil, nil, err
	}
	return tree, NewSolver(root, src, p.catalog), nil
}

// IndexInto enumerates every catalog in the chain and writes its type
// names to the store. Catalogs are indexed concurrently; the index is a
// browsing aid and is never consulted during resolution.
func (p *Project) IndexInto(ctx context.Context, store *index.Store) error {
	type entry struct {
		origin  string
		kind    string
		catalog typesolver.Enumerator
	}
	var entries []entry
	for i, root := range p.sourceRoots {
		entries = append(entries, entry{root, "source", p.sources[i]})
	}
	for i, path := range p.jarPaths {
		entries = append(entries, entry{path, "jar", p.jars[i]})
	}
	entries = append(entries, entry{"builtin", "builtin", typesolver.NewBuiltin()})

	g, ctx := errgroup.WithContext(ctx)
	if p.parallelism > 0 {
		g.SetLimit(p.parallelism)
	}
	for _, e := range entries {
		e := e
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			names, err := e.catalog.ListTypes()
			if err != nil {
				return fmt.Errorf("list %s: %w", e.origin, err)
			}
			id, err := store.UpsertCatalog(e.origin, e.kind)
			if err != nil {
				return fmt.Errorf("record %s: %w", e.origin, err)
			}
			if err := store.InsertTypes(id, names); err != nil {
				return fmt.Errorf("index %s: %w", e.origin, err)
			}
			return nil
		})
	}
	return g.Wait()
}

// Manifest is the understory.toml project file.
type Manifest struct {
	SourceRoots []string `toml:"source_roots"`
	Jars        []string `toml:"jars"`
}

// LoadManifest reads an understory.toml and resolves its paths relative
// to the manifest's directory.
func LoadManifest(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("understory: read manifest: %w", err)
	}
	var m Manifest
	if err := toml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("understory: parse manifest: %w", err)
	}
	base := filepath.Dir(path)
	for i, root := range m.SourceRoots {
		if !filepath.IsAbs(root) {
			m.SourceRoots[i] = filepath.Join(base, root)
		}
	}
	for i, jar := range m.Jars {
		if !filepath.IsAbs(jar) {
			m.Jars[i] = filepath.Join(base, jar)
		}
	}
	return &m, nil
}

// Options returns the manifest expressed as Project options.
func (m *Manifest) Options() []Option {
	return []Option{WithSourceRoots(m.SourceRoots...), WithJars(m.Jars...)}
}
