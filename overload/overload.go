// Package overload selects among same-named method or constructor candidates
// for a call site. Applicability runs in three ordered phases (strict, then
// with boxing, then variable arity); within the first phase that admits any
// candidate, most-specific selection breaks ties, and a mutual tie is
// reported Unsolved rather than picked arbitrarily. Generic candidates get a
// per-call substitution inferred by unifying declared parameter types against
// the actual argument types.
package overload

import (
	"github.com/jward/understory/resolve"
)

// ResolveMethod selects the applicable, most-specific method for the actual
// argument types. An empty candidate list, no applicable candidate, or an
// ambiguous tie all yield Unsolved; only catalog failures are errors. The
// result is deterministic for a fixed candidate order and argument list.
func ResolveMethod(candidates []*resolve.Method, args []resolve.Type, cat resolve.TypeCatalog) (resolve.SymbolReference[resolve.MethodUsage], error) {
	execs := make([]executable, len(candidates))
	for i, m := range candidates {
		execs[i] = executable{typeParams: m.TypeParams, params: m.Params, variadic: m.Variadic}
	}
	pick, ok, err := selectExecutable(execs, args, cat)
	if err != nil || !ok {
		return resolve.Unsolved[resolve.MethodUsage](), err
	}
	return resolve.Solved(resolve.MethodUsage{Method: candidates[pick.idx], Subst: pick.subst}), nil
}

// ResolveConstructor is the constructor analogue of ResolveMethod.
func ResolveConstructor(candidates []*resolve.Constructor, args []resolve.Type, cat resolve.TypeCatalog) (resolve.SymbolReference[resolve.ConstructorUsage], error) {
	execs := make([]executable, len(candidates))
	for i, c := range candidates {
		execs[i] = executable{typeParams: c.TypeParams, params: c.Params, variadic: c.Variadic}
	}
	pick, ok, err := selectExecutable(execs, args, cat)
	if err != nil || !ok {
		return resolve.Unsolved[resolve.ConstructorUsage](), err
	}
	return resolve.Solved(resolve.ConstructorUsage{Constructor: candidates[pick.idx], Subst: pick.subst}), nil
}

// executable is the phase machinery's view of a method or constructor.
type executable struct {
	typeParams []resolve.TypeParameter
	params     []resolve.Parameter
	variadic   bool
}

type phase int

const (
	strictPhase phase = iota
	loosePhase
	variadicPhase
)

// applicant is one candidate that survived a phase: its index, inferred
// substitution, and per-argument target parameter types in the shape the
// phase matched them (variadic targets repeat the component type).
type applicant struct {
	idx     int
	subst   resolve.Subst
	targets []resolve.Type
}

func selectExecutable(execs []executable, args []resolve.Type, cat resolve.TypeCatalog) (applicant, bool, error) {
	for _, p := range []phase{strictPhase, loosePhase, variadicPhase} {
		var apps []applicant
		for i, e := range execs {
			app, ok, err := applicableIn(p, i, e, args, cat)
			if err != nil {
				return applicant{}, false, err
			}
			if ok {
				apps = append(apps, app)
			}
		}
		if len(apps) == 0 {
			continue
		}
		return mostSpecific(apps, cat)
	}
	return applicant{}, false, nil
}

func applicableIn(p phase, idx int, e executable, args []resolve.Type, cat resolve.TypeCatalog) (applicant, bool, error) {
	targets, ok := targetTypes(p, e, len(args))
	if !ok {
		return applicant{}, false, nil
	}

	subst := resolve.Subst{}
	if len(e.typeParams) > 0 {
		var err error
		subst, ok, err = infer(e, targets, args, cat)
		if err != nil {
			return applicant{}, false, err
		}
		if !ok {
			return applicant{}, false, nil
		}
		for i, t := range targets {
			targets[i] = t.Substitute(subst)
		}
	}

	for i, target := range targets {
		var ok bool
		var err error
		if p == strictPhase {
			ok, err = resolve.AssignableStrict(target, args[i], cat)
		} else {
			ok, err = resolve.Assignable(target, args[i], cat)
		}
		if err != nil {
			return applicant{}, false, err
		}
		if !ok {
			return applicant{}, false, nil
		}
	}
	return applicant{idx: idx, subst: subst, targets: targets}, true, nil
}

// targetTypes shapes a candidate's parameter list to the argument count for
// one phase, or reports the arity unworkable.
func targetTypes(p phase, e executable, argc int) ([]resolve.Type, bool) {
	n := len(e.params)
	switch p {
	case strictPhase, loosePhase:
		if argc != n {
			return nil, false
		}
		out := make([]resolve.Type, n)
		for i, param := range e.params {
			out[i] = param.DeclaredType()
		}
		return out, true
	default:
		if !e.variadic || argc < n-1 {
			return nil, false
		}
		out := make([]resolve.Type, argc)
		for i := 0; i < n-1; i++ {
			out[i] = e.params[i].DeclaredType()
		}
		component := e.params[n-1].ComponentType()
		for i := n - 1; i < argc; i++ {
			out[i] = component
		}
		return out, true
	}
}

// infer unifies declared parameter types against the actual argument types,
// joining multiple constraints on one variable through the least common
// supertype. A substituted variable that escapes its declared bound makes
// this candidate inapplicable, never the whole resolution.
func infer(e executable, targets, args []resolve.Type, cat resolve.TypeCatalog) (resolve.Subst, bool, error) {
	owned := map[string]bool{}
	for _, tp := range e.typeParams {
		owned[tp.ParamName] = true
	}

	constraints := map[string][]resolve.Type{}
	for i, target := range targets {
		if err := unify(target, args[i], owned, constraints, cat); err != nil {
			return nil, false, err
		}
	}

	subst := resolve.Subst{}
	for _, tp := range e.typeParams {
		bounds := constraints[tp.ParamName]
		if len(bounds) == 0 {
			continue
		}
		joined := bounds[0]
		for _, b := range bounds[1:] {
			var err error
			joined, err = resolve.LeastCommonSupertype(joined, b, cat)
			if err != nil {
				return nil, false, err
			}
		}
		subst[tp.ParamName] = joined
	}

	for _, tp := range e.typeParams {
		inferred, bound := subst[tp.ParamName], tp.Bound
		if inferred == nil || bound == nil {
			continue
		}
		ok, err := resolve.Assignable(bound.Substitute(subst), inferred, cat)
		if err != nil {
			return nil, false, err
		}
		if !ok {
			return nil, false, nil
		}
	}
	return subst, true, nil
}

func unify(declared, actual resolve.Type, owned map[string]bool, constraints map[string][]resolve.Type, cat resolve.TypeCatalog) error {
	switch d := declared.(type) {
	case resolve.TypeVariable:
		if !owned[d.Name] {
			return nil
		}
		if p, ok := actual.(resolve.Primitive); ok {
			actual = resolve.Boxed(p)
		}
		if _, ok := actual.(resolve.NullType); ok {
			return nil
		}
		constraints[d.Name] = append(constraints[d.Name], actual)
		return nil
	case resolve.Array:
		if a, ok := actual.(resolve.Array); ok {
			return unify(d.Component, a.Component, owned, constraints, cat)
		}
		return nil
	case resolve.Reference:
		a, ok := actual.(resolve.Reference)
		if !ok || d.Raw() || a.Raw() {
			return nil
		}
		if a.Name != d.Name {
			// Look for the declared shape among the actual's supertypes:
			// List<String> constrains Iterable<E> through List's parents.
			closure, err := resolve.SupertypeClosure(a, cat)
			if err != nil {
				return err
			}
			found := false
			for _, sup := range closure {
				if sup.Name == d.Name {
					a, found = sup, true
					break
				}
			}
			if !found || a.Raw() {
				return nil
			}
		}
		if len(a.Args) != len(d.Args) {
			return nil
		}
		for i := range d.Args {
			arg := d.Args[i]
			if w, ok := arg.(resolve.Wildcard); ok {
				if w.Bound == nil {
					continue
				}
				arg = w.Bound
			}
			if err := unify(arg, a.Args[i], owned, constraints, cat); err != nil {
				return err
			}
		}
		return nil
	default:
		return nil
	}
}

// mostSpecific narrows an applicable set to the unique maximally specific
// candidate. Two or more mutually non-dominating survivors are ambiguous:
// the result is reported not-ok, never an arbitrary pick.
func mostSpecific(apps []applicant, cat resolve.TypeCatalog) (applicant, bool, error) {
	if len(apps) == 1 {
		return apps[0], true, nil
	}
	var best []applicant
	for i, a := range apps {
		dominated := false
		for j, b := range apps {
			if i == j {
				continue
			}
			ba, err := atLeastAsSpecific(b, a, cat)
			if err != nil {
				return applicant{}, false, err
			}
			ab, err := atLeastAsSpecific(a, b, cat)
			if err != nil {
				return applicant{}, false, err
			}
			if ba && !ab {
				dominated = true
				break
			}
		}
		if !dominated {
			best = append(best, a)
		}
	}
	if len(best) != 1 {
		return applicant{}, false, nil
	}
	return best[0], true, nil
}

// atLeastAsSpecific reports whether every parameter type of a is assignable
// to b's corresponding parameter type, in the shapes the winning phase used.
func atLeastAsSpecific(a, b applicant, cat resolve.TypeCatalog) (bool, error) {
	if len(a.targets) != len(b.targets) {
		return false, nil
	}
	for i := range a.targets {
		ok, err := resolve.AssignableStrict(b.targets[i], a.targets[i], cat)
		if err != nil {
			return false, err
		}
		if !ok {
			return false, nil
		}
	}
	return true, nil
}
