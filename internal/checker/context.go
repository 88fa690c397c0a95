package checker

import (
	"github.com/hashicorp/go-set/v3"

	"github.com/rill-lang/rill/internal/types"
)

// InferenceContext is the flow-sensitive companion of the lexical
// environment: a snapshot of variable types as refined along the current
// control-flow path, plus the set of names reassigned on that path.
// Branches own independent clones; joins merge them back into one.
type InferenceContext struct {
	refined  map[string]*types.Type
	modified *set.Set[string]
}

// NewInferenceContext creates an empty context.
func NewInferenceContext() *InferenceContext {
	return &InferenceContext{
		refined:  map[string]*types.Type{},
		modified: set.New[string](0),
	}
}

// Refine records a flow-narrowed type for a name on the current path.
func (c *InferenceContext) Refine(name string, t *types.Type) {
	c.refined[name] = t
}

// Lookup returns the refined type for a name, or nil when the current
// path holds no refinement.
func (c *InferenceContext) Lookup(name string) *types.Type {
	return c.refined[name]
}

// Drop removes any refinement for a name.
func (c *InferenceContext) Drop(name string) {
	delete(c.refined, name)
}

// MarkModified records that a name was reassigned on the current path.
func (c *InferenceContext) MarkModified(name string) {
	c.modified.Insert(name)
}

// IsModified reports whether a name was reassigned on the current path.
func (c *InferenceContext) IsModified(name string) bool {
	return c.modified.Contains(name)
}

// Clone returns an independent copy. Types are deep-copied so the two
// paths cannot observe each other's refinements.
func (c *InferenceContext) Clone() *InferenceContext {
	refined := make(map[string]*types.Type, len(c.refined))
	for name, t := range c.refined {
		refined[name] = t.Clone()
	}
	return &InferenceContext{refined: refined, modified: c.modified.Copy()}
}

// Merge joins two branch contexts into a fresh one. A name refined on
// both paths unifies; when unification fails the refinement is dropped
// for that name and the merge continues (conservative widening, no
// diagnostic). A name refined on only one path keeps that refinement.
// The modified sets union.
func Merge(a, b *InferenceContext) *InferenceContext {
	out := NewInferenceContext()

	for name, at := range a.refined {
		if bt, ok := b.refined[name]; ok {
			unified := types.Unify(at, bt)
			if !unified.IsError() {
				out.refined[name] = unified
			}
			continue
		}
		out.refined[name] = at.Clone()
	}
	for name, bt := range b.refined {
		if _, ok := a.refined[name]; !ok {
			out.refined[name] = bt.Clone()
		}
	}

	for name := range a.modified.Items() {
		out.modified.Insert(name)
	}
	for name := range b.modified.Items() {
		out.modified.Insert(name)
	}
	return out
}
