package types

// Environment is the lexically scoped name table: a stack of scopes
// searched innermost-first. One Environment lives for a whole checking
// session; PopScope never removes the outermost (global) scope.
type Environment struct {
	scopes []map[string]*Type
}

// NewEnvironment creates an environment holding only the global scope.
func NewEnvironment() *Environment {
	return &Environment{scopes: []map[string]*Type{{}}}
}

// PushScope enters a new innermost scope.
func (e *Environment) PushScope() {
	e.scopes = append(e.scopes, map[string]*Type{})
}

// PopScope leaves the innermost scope. The global scope is never popped.
func (e *Environment) PopScope() {
	if len(e.scopes) > 1 {
		e.scopes = e.scopes[:len(e.scopes)-1]
	}
}

// Define binds a name in the innermost scope, shadowing outer bindings.
func (e *Environment) Define(name string, t *Type) {
	e.scopes[len(e.scopes)-1][name] = t
}

// Lookup resolves a name, innermost scope first. Returns nil when the
// name is unbound.
func (e *Environment) Lookup(name string) *Type {
	for i := len(e.scopes) - 1; i >= 0; i-- {
		if t, ok := e.scopes[i][name]; ok {
			return t
		}
	}
	return nil
}

// DefinedInCurrentScope reports whether the name is bound in the
// innermost scope specifically.
func (e *Environment) DefinedInCurrentScope(name string) bool {
	_, ok := e.scopes[len(e.scopes)-1][name]
	return ok
}

// LookupFunction resolves a name to a function type accepting the given
// argument types: the arity must match exactly and each parameter must be
// assignable from the corresponding argument. Returns nil when the name
// is unbound, not a function, or does not accept the arguments.
func (e *Environment) LookupFunction(name string, args []*Type) *FunctionData {
	t := e.Lookup(name)
	if t == nil || !t.IsFunction() {
		return nil
	}

	fn := t.Function()
	if len(fn.Params) != len(args) {
		return nil
	}
	for i, p := range fn.Params {
		if !p.AssignableFrom(args[i]) {
			return nil
		}
	}
	return fn
}
