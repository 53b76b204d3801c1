package resolve

// SymbolReference is the result of any resolution query: either Solved,
// carrying a declaration, or Unsolved. Absence of a solution is an expected
// outcome that callers branch on; it is never reported as an error.
type SymbolReference[D any] struct {
	decl   D
	solved bool
}

// Solved wraps a declaration in a solved reference.
func Solved[D any](decl D) SymbolReference[D] {
	return SymbolReference[D]{decl: decl, solved: true}
}

// Unsolved returns the unsolved reference for D.
func Unsolved[D any]() SymbolReference[D] {
	return SymbolReference[D]{}
}

// IsSolved reports whether the reference carries a declaration.
func (r SymbolReference[D]) IsSolved() bool { return r.solved }

// Declaration returns the carried declaration. For an unsolved reference it
// returns the zero value of D; callers are expected to check IsSolved first.
func (r SymbolReference[D]) Declaration() D { return r.decl }

// AdaptRef widens a solved reference of a concrete declaration kind to a
// reference of a broader interface type, preserving unsolvedness.
func AdaptRef[D any, E any](r SymbolReference[D], widen func(D) E) SymbolReference[E] {
	if !r.solved {
		return Unsolved[E]()
	}
	return Solved(widen(r.decl))
}
