package resolve

// Boxing tables and primitive widening per the language specification,
// consulted by loose-invocation applicability and by type calculation.

var boxOf = map[PrimitiveKind]string{
	Boolean: "java.lang.Boolean",
	Byte:    "java.lang.Byte",
	Short:   "java.lang.Short",
	Char:    "java.lang.Character",
	Int:     "java.lang.Integer",
	Long:    "java.lang.Long",
	Float:   "java.lang.Float",
	Double:  "java.lang.Double",
}

var unboxOf = func() map[string]PrimitiveKind {
	m := make(map[string]PrimitiveKind, len(boxOf))
	for k, v := range boxOf {
		m[v] = k
	}
	return m
}()

// Boxed returns the wrapper reference type for a primitive.
func Boxed(p Primitive) Reference { return Reference{Name: boxOf[p.Name]} }

// Unboxed returns the primitive for a wrapper reference type, if it is one.
func Unboxed(r Reference) (Primitive, bool) {
	k, ok := unboxOf[r.Name]
	return Primitive{Name: k}, ok
}

// widening lists, per source kind, the kinds a value widens to without loss
// of magnitude.
var widening = map[PrimitiveKind][]PrimitiveKind{
	Byte:  {Short, Int, Long, Float, Double},
	Short: {Int, Long, Float, Double},
	Char:  {Int, Long, Float, Double},
	Int:   {Long, Float, Double},
	Long:  {Float, Double},
	Float: {Double},
}

func widensTo(src, dst PrimitiveKind) bool {
	if src == dst {
		return true
	}
	for _, k := range widening[src] {
		if k == dst {
			return true
		}
	}
	return false
}

// numericRank orders kinds for binary numeric promotion.
var numericRank = map[PrimitiveKind]int{
	Byte: 0, Short: 0, Char: 0, Int: 0, Long: 1, Float: 2, Double: 3,
}

// PromoteNumeric applies binary numeric promotion to two primitive operands.
func PromoteNumeric(a, b Primitive) Primitive {
	ra, rb := numericRank[a.Name], numericRank[b.Name]
	r := ra
	if rb > r {
		r = rb
	}
	switch r {
	case 1:
		return Primitive{Name: Long}
	case 2:
		return Primitive{Name: Float}
	case 3:
		return Primitive{Name: Double}
	default:
		return Primitive{Name: Int}
	}
}

// Assignable reports whether a value of type src can be assigned to a
// variable of type dst under loose-invocation rules (boxing and unboxing
// permitted). Errors surface only from broken catalog sources.
func Assignable(dst, src Type, cat TypeCatalog) (bool, error) {
	return assignable(dst, src, cat, true)
}

// AssignableStrict is Assignable without boxing or unboxing conversions, as
// used by the strict invocation phase.
func AssignableStrict(dst, src Type, cat TypeCatalog) (bool, error) {
	return assignable(dst, src, cat, false)
}

func assignable(dst, src Type, cat TypeCatalog, boxing bool) (bool, error) {
	if dst.Equals(src) {
		return true, nil
	}

	// A type variable used as a value has its bound's capabilities.
	if v, ok := src.(TypeVariable); ok {
		return assignable(dst, v.EffectiveBound(), cat, boxing)
	}
	if w, ok := src.(Wildcard); ok {
		if w.Direction == Extends {
			return assignable(dst, w.Bound, cat, boxing)
		}
		return assignable(dst, Reference{Name: "java.lang.Object"}, cat, boxing)
	}
	if u, ok := src.(Union); ok {
		for _, m := range u.Members {
			ok, err := assignable(dst, m, cat, boxing)
			if err != nil || !ok {
				return false, err
			}
		}
		return true, nil
	}
	if i, ok := src.(Intersection); ok {
		for _, m := range i.Members {
			ok, err := assignable(dst, m, cat, boxing)
			if err != nil {
				return false, err
			}
			if ok {
				return true, nil
			}
		}
		return false, nil
	}

	switch d := dst.(type) {
	case Primitive:
		switch s := src.(type) {
		case Primitive:
			return widensTo(s.Name, d.Name), nil
		case Reference:
			if !boxing {
				return false, nil
			}
			p, ok := Unboxed(s)
			if !ok {
				return false, nil
			}
			return widensTo(p.Name, d.Name), nil
		}
		return false, nil

	case Reference:
		switch s := src.(type) {
		case NullType:
			return true, nil
		case Primitive:
			if !boxing {
				return false, nil
			}
			return assignable(d, Boxed(s), cat, false)
		case Array:
			return d.Name == "java.lang.Object" ||
				d.Name == "java.lang.Cloneable" ||
				d.Name == "java.io.Serializable", nil
		case Reference:
			return referenceAssignable(d, s, cat)
		}
		return false, nil

	case Array:
		s, ok := src.(Array)
		if !ok {
			return src.Equals(NullType{}), nil
		}
		dp, dprim := d.Component.(Primitive)
		sp, sprim := s.Component.(Primitive)
		if dprim || sprim {
			return dprim && sprim && dp.Name == sp.Name, nil
		}
		// Reference arrays are covariant.
		return assignable(d.Component, s.Component, cat, false)

	case TypeVariable:
		return src.Equals(NullType{}), nil

	case Intersection:
		for _, m := range d.Members {
			ok, err := assignable(m, src, cat, boxing)
			if err != nil || !ok {
				return false, err
			}
		}
		return true, nil

	case Union:
		for _, m := range d.Members {
			ok, err := assignable(m, src, cat, boxing)
			if err != nil {
				return false, err
			}
			if ok {
				return true, nil
			}
		}
		return false, nil
	}
	return false, nil
}

// referenceAssignable handles reference-to-reference assignability:
// same-declaration argument compatibility (with raw-type erasure semantics
// in both directions) and widening via the supertype walk.
func referenceAssignable(dst, src Reference, cat TypeCatalog) (bool, error) {
	if dst.Name == "java.lang.Object" {
		return true, nil
	}
	if dst.Name == src.Name {
		if dst.Raw() || src.Raw() {
			return true, nil
		}
		if len(dst.Args) != len(src.Args) {
			return false, nil
		}
		for i := range dst.Args {
			ok, err := argumentContains(dst.Args[i], src.Args[i], cat)
			if err != nil || !ok {
				return false, err
			}
		}
		return true, nil
	}

	supers, err := DirectSupertypes(src, cat)
	if err != nil {
		return false, err
	}
	for _, sup := range supers {
		ok, err := assignable(dst, sup, cat, false)
		if err != nil {
			return false, err
		}
		if ok {
			return true, nil
		}
	}
	return false, nil
}

// argumentContains implements type-argument containment: a wildcard target
// contains arguments within its bound, a concrete target requires equality.
func argumentContains(dstArg, srcArg Type, cat TypeCatalog) (bool, error) {
	w, ok := dstArg.(Wildcard)
	if !ok {
		return dstArg.Equals(srcArg), nil
	}
	switch w.Direction {
	case Extends:
		return assignable(w.Bound, srcArg, cat, false)
	case Super:
		return assignable(srcArg, w.Bound, cat, false)
	default:
		return true, nil
	}
}

// DirectSupertypes resolves a reference type's direct supertypes through the
// catalog, substituting the use-site type arguments into the declaration's
// declared supertypes. A raw use site erases the supertypes to raw as well.
// An unknown declaration yields java.lang.Object so partial catalogs degrade
// to erasure rather than failing the walk.
func DirectSupertypes(r Reference, cat TypeCatalog) ([]Type, error) {
	if r.Name == "java.lang.Object" {
		return nil, nil
	}
	ref, err := cat.SolveType(r.Name)
	if err != nil {
		return nil, err
	}
	object := []Type{Reference{Name: "java.lang.Object"}}
	if !ref.IsSolved() {
		return object, nil
	}
	decl := ref.Declaration()
	if len(decl.Supers) == 0 {
		return object, nil
	}

	if r.Raw() || len(decl.TypeParams) == 0 {
		out := make([]Type, 0, len(decl.Supers))
		for _, sup := range decl.Supers {
			if sr, ok := sup.(Reference); ok && r.Raw() {
				out = append(out, Reference{Name: sr.Name})
				continue
			}
			out = append(out, sup)
		}
		return out, nil
	}

	s := make(Subst, len(decl.TypeParams))
	for i, p := range decl.TypeParams {
		if i < len(r.Args) {
			s[p.ParamName] = r.Args[i]
		}
	}
	out := make([]Type, len(decl.Supers))
	for i, sup := range decl.Supers {
		out[i] = sup.Substitute(s)
	}
	return out, nil
}

// UseSiteSubst maps a declaration's type parameters to the type arguments of
// a use site. Raw use sites contribute nothing (erasure).
func UseSiteSubst(r Reference, decl *TypeDecl) Subst {
	if len(r.Args) == 0 || len(decl.TypeParams) == 0 {
		return nil
	}
	s := make(Subst, len(decl.TypeParams))
	for i, p := range decl.TypeParams {
		if i < len(r.Args) {
			s[p.ParamName] = r.Args[i]
		}
	}
	return s
}

// SupertypeClosure returns r and every supertype reachable from it, in
// breadth-first order without duplicates.
func SupertypeClosure(r Reference, cat TypeCatalog) ([]Reference, error) {
	seen := map[string]bool{}
	var out []Reference
	queue := []Reference{r}
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		if seen[cur.Name] {
			continue
		}
		seen[cur.Name] = true
		out = append(out, cur)
		supers, err := DirectSupertypes(cur, cat)
		if err != nil {
			return nil, err
		}
		for _, sup := range supers {
			if sr, ok := sup.(Reference); ok {
				queue = append(queue, sr)
			}
		}
	}
	return out, nil
}

// LeastCommonSupertype joins two types for generic inference: the most
// specific type both inference constraints flow into. Primitives are boxed
// first; the join of two reference types is the first of a's supertype
// closure found in b's closure, falling back to java.lang.Object.
func LeastCommonSupertype(a, b Type, cat TypeCatalog) (Type, error) {
	if a.Equals(b) {
		return a, nil
	}
	pa, aPrim := a.(Primitive)
	pb, bPrim := b.(Primitive)
	if aPrim && bPrim {
		return PromoteNumeric(pa, pb), nil
	}
	if aPrim {
		a = Boxed(pa)
	}
	if bPrim {
		b = Boxed(pb)
	}
	ra, aRef := a.(Reference)
	rb, bRef := b.(Reference)
	if !aRef || !bRef {
		return Reference{Name: "java.lang.Object"}, nil
	}
	bClosure, err := SupertypeClosure(rb, cat)
	if err != nil {
		return nil, err
	}
	inB := make(map[string]bool, len(bClosure))
	for _, t := range bClosure {
		inB[t.Name] = true
	}
	aClosure, err := SupertypeClosure(ra, cat)
	if err != nil {
		return nil, err
	}
	for _, t := range aClosure {
		if inB[t.Name] {
			return Reference{Name: t.Name}, nil
		}
	}
	return Reference{Name: "java.lang.Object"}, nil
}
