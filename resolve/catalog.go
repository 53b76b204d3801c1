package resolve

// TypeCatalog resolves a fully-qualified name to a reference-type
// declaration. "Not found" is reported as an unsolved reference; a non-nil
// error means the backing source is broken (corrupt archive, unparsable
// file) and is kept strictly apart from unsolvedness.
type TypeCatalog interface {
	SolveType(qualifiedName string) (SymbolReference[*TypeDecl], error)
}
