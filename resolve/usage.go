package resolve

// MethodUsage pairs a resolved method with the per-call substitution of its
// type variables, reporting call-site-specific parameter and return types.
type MethodUsage struct {
	Method *Method
	Subst  Subst
}

// ParamTypes returns the method's parameter types under the call-site
// substitution. The final variadic parameter is reported as an array of its
// declared component type.
func (u MethodUsage) ParamTypes() []Type {
	out := make([]Type, len(u.Method.Params))
	for i, p := range u.Method.Params {
		out[i] = p.DeclaredType().Substitute(u.Subst)
	}
	return out
}

// ReturnType returns the method's return type under the call-site
// substitution.
func (u MethodUsage) ReturnType() Type {
	return u.Method.Return.Substitute(u.Subst)
}

// ConstructorUsage is the constructor analogue of MethodUsage.
type ConstructorUsage struct {
	Constructor *Constructor
	Subst       Subst
}

// ParamTypes returns the constructor's parameter types under the call-site
// substitution.
func (u ConstructorUsage) ParamTypes() []Type {
	out := make([]Type, len(u.Constructor.Params))
	for i, p := range u.Constructor.Params {
		out[i] = p.DeclaredType().Substitute(u.Subst)
	}
	return out
}

// Type returns the constructed reference type.
func (u ConstructorUsage) Type() Type {
	return Reference{Name: u.Constructor.Declaring}.Substitute(u.Subst)
}
