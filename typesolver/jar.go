package typesolver

import (
	"archive/zip"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/jward/understory/internal/classfile"
	"github.com/jward/understory/resolve"
)

// Jar resolves qualified names against a .jar archive, parsing class files
// lazily and caching the resulting declarations. A corrupt entry is an
// error, never an unsolved result.
type Jar struct {
	path    string
	archive *zip.ReadCloser
	entries map[string]*zip.File // qualified name -> .class entry
	cache   cache
}

// NewJar opens a jar and indexes its class entries. The index maps
// qualified names only; no class file is parsed until resolved.
func NewJar(path string) (*Jar, error) {
	archive, err := zip.OpenReader(path)
	if err != nil {
		return nil, fmt.Errorf("typesolver: open jar %s: %w", path, err)
	}
	j := &Jar{path: path, archive: archive, entries: make(map[string]*zip.File)}
	for _, f := range archive.File {
		name := f.Name
		if !strings.HasSuffix(name, ".class") || strings.HasPrefix(name, "META-INF/") {
			continue
		}
		base := strings.TrimSuffix(name, ".class")
		if strings.HasSuffix(base, "module-info") || strings.HasSuffix(base, "package-info") {
			continue
		}
		j.entries[binaryToQName(base)] = f
	}
	return j, nil
}

// Close releases the underlying archive.
func (j *Jar) Close() error {
	return j.archive.Close()
}

// SolveType resolves a qualified name against the archive index.
func (j *Jar) SolveType(name string) (resolve.SymbolReference[*resolve.TypeDecl], error) {
	if ref, ok := j.cache.get(name); ok {
		return ref, nil
	}
	entry, ok := j.entries[name]
	if !ok {
		unsolved := resolve.Unsolved[*resolve.TypeDecl]()
		j.cache.put(name, unsolved)
		return unsolved, nil
	}

	decl, err := j.parseEntry(entry)
	if err != nil {
		// Not cached: a broken entry must not poison the chain, and the
		// error must reach the caller as an error.
		return resolve.Unsolved[*resolve.TypeDecl](), fmt.Errorf("typesolver: jar %s: entry %s: %w", j.path, entry.Name, err)
	}
	ref := resolve.Solved(decl)
	j.cache.put(name, ref)
	return ref, nil
}

// ListTypes enumerates every indexed qualified name, for diagnostics.
func (j *Jar) ListTypes() ([]string, error) {
	out := make([]string, 0, len(j.entries))
	for name := range j.entries {
		out = append(out, name)
	}
	sort.Strings(out)
	return out, nil
}

func (j *Jar) parseEntry(entry *zip.File) (*resolve.TypeDecl, error) {
	rc, err := entry.Open()
	if err != nil {
		return nil, fmt.Errorf("open: %w", err)
	}
	defer rc.Close()
	data, err := io.ReadAll(rc)
	if err != nil {
		return nil, fmt.Errorf("read: %w", err)
	}
	cf, err := classfile.Parse(data)
	if err != nil {
		return nil, err
	}
	return declFromClassFile(cf)
}

// declFromClassFile adapts a parsed class file into a declaration.
func declFromClassFile(cf *classfile.File) (*resolve.TypeDecl, error) {
	qname := binaryToQName(cf.Name)
	decl := &resolve.TypeDecl{
		QName:    qname,
		DeclKind: resolve.ClassKind,
		Abstract: cf.Flags&classfile.AccAbstract != 0,
	}
	switch {
	case cf.IsAnnotation():
		decl.DeclKind = resolve.AnnotationKind
	case cf.IsInterface():
		decl.DeclKind = resolve.InterfaceKind
	case cf.IsEnum():
		decl.DeclKind = resolve.EnumKind
	}
	if i := strings.LastIndexByte(cf.Name, '$'); i >= 0 {
		decl.NestedIn = binaryToQName(cf.Name[:i])
	}

	if cf.Signature != "" {
		tps, supers, err := classSignature(cf.Signature)
		if err != nil {
			return nil, err
		}
		decl.TypeParams = tps
		decl.Supers = supers
	} else {
		if cf.SuperName != "" {
			decl.Supers = append(decl.Supers, resolve.Reference{Name: binaryToQName(cf.SuperName)})
		}
		for _, iface := range cf.Interfaces {
			decl.Supers = append(decl.Supers, resolve.Reference{Name: binaryToQName(iface)})
		}
	}

	for _, f := range cf.Fields {
		if strings.Contains(f.Name, "$") {
			continue // synthetic
		}
		t, rest, err := fieldTypeFromDescriptor(f.Descriptor)
		if err != nil || rest != "" {
			return nil, fmt.Errorf("field %s: bad descriptor %q", f.Name, f.Descriptor)
		}
		if f.Signature != "" {
			if gt, gerr := fieldSignature(f.Signature); gerr == nil {
				t = gt
			} else {
				return nil, fmt.Errorf("field %s: %w", f.Name, gerr)
			}
		}
		decl.FieldList = append(decl.FieldList, resolve.Field{
			FieldName: f.Name,
			Type:      t,
			Declaring: qname,
			Static:    f.Flags&classfile.AccStatic != 0,
			Final:     f.Flags&classfile.AccFinal != 0,
		})
	}

	for _, m := range cf.Methods {
		if m.Name == "<clinit>" || strings.Contains(m.Name, "$") {
			continue
		}
		paramTypes, ret, err := methodTypeFromDescriptor(m.Descriptor)
		if err != nil {
			return nil, fmt.Errorf("method %s: %w", m.Name, err)
		}
		var tps []resolve.TypeParameter
		if m.Signature != "" {
			gtps, gparams, gret, gerr := methodSignature(m.Signature)
			if gerr != nil {
				return nil, fmt.Errorf("method %s: %w", m.Name, gerr)
			}
			// Compilers omit synthetic leading parameters (enum and inner
			// class constructors) from the signature; when the counts
			// disagree the descriptor wins.
			if len(gparams) == len(paramTypes) {
				tps, paramTypes, ret = gtps, gparams, gret
			}
		}
		varargs := m.Flags&classfile.AccVarargs != 0
		params, err := descriptorParams(paramTypes, varargs)
		if err != nil {
			return nil, fmt.Errorf("method %s: %w", m.Name, err)
		}
		if m.Name == "<init>" {
			decl.CtorList = append(decl.CtorList, resolve.Constructor{
				Declaring: qname,
				Params:    params,
				Variadic:  varargs,
			})
			continue
		}
		decl.MethodList = append(decl.MethodList, resolve.Method{
			MethodName: m.Name,
			Declaring:  qname,
			TypeParams: tps,
			Params:     params,
			Return:     ret,
			Variadic:   varargs,
			Static:     m.Flags&classfile.AccStatic != 0,
			Abstract:   m.Flags&classfile.AccAbstract != 0,
		})
	}
	return decl, nil
}

// descriptorParams converts descriptor types to parameters. Descriptors do
// not record parameter names; positional names are synthesized. A variadic
// method's final parameter is unwrapped to its component type.
func descriptorParams(types []resolve.Type, varargs bool) ([]resolve.Parameter, error) {
	params := make([]resolve.Parameter, len(types))
	for i, t := range types {
		params[i] = resolve.Parameter{ParamName: fmt.Sprintf("arg%d", i), Type: t}
	}
	if varargs {
		if len(params) == 0 {
			return nil, fmt.Errorf("varargs method with no parameters")
		}
		last := &params[len(params)-1]
		arr, ok := last.Type.(resolve.Array)
		if !ok {
			return nil, fmt.Errorf("varargs final parameter %s is not an array", last.Type.Describe())
		}
		last.Type = arr.Component
		last.Variadic = true
	}
	return params, nil
}
