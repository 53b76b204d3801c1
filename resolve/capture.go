package resolve

import (
	"fmt"
	"sync/atomic"
)

// captureCounter numbers synthetic capture variables. Fresh per call and
// process-wide unique; capture results are computed on demand, never
// memoized.
var captureCounter atomic.Int64

// Capture applies capture conversion to a reference type: each wildcard
// argument is replaced by a fresh synthetic type variable whose bound is the
// wildcard's upper bound (java.lang.Object when unbounded or lower-bounded).
// Non-wildcard arguments and non-reference types pass through unchanged.
func Capture(t Type) Type {
	r, ok := t.(Reference)
	if !ok || r.Raw() {
		return t
	}
	changed := false
	args := make([]Type, len(r.Args))
	for i, a := range r.Args {
		w, isWildcard := a.(Wildcard)
		if !isWildcard {
			args[i] = a
			continue
		}
		changed = true
		n := captureCounter.Add(1)
		bound := Type(Reference{Name: "java.lang.Object"})
		if w.Direction == Extends {
			bound = w.Bound
		}
		args[i] = TypeVariable{Name: fmt.Sprintf("CAP#%d", n), Bound: bound}
	}
	if !changed {
		return t
	}
	return Reference{Name: r.Name, Args: args}
}
