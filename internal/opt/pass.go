// Package opt implements the MIR optimization pipeline: a pass
// abstraction, the individual passes, and the manager that assembles
// them per optimization level.
package opt

import (
	"github.com/hashicorp/go-set/v3"

	"github.com/rill-lang/rill/internal/mir"
)

// FunctionPass transforms one function and reports whether it changed
// anything.
type FunctionPass interface {
	Name() string
	RunOnFunction(f *mir.Function) bool
}

// ModulePass transforms a whole module and reports whether it changed
// anything.
type ModulePass interface {
	Name() string
	RunOnModule(m *mir.Module) bool
}

// AnalysisCache holds per-function derived facts. A pass that reports a
// change invalidates the whole entry for that function; nothing is
// re-derived incrementally.
type AnalysisCache struct {
	reach map[*mir.Function]*set.Set[*mir.Block]
}

// NewAnalysisCache creates an empty cache.
func NewAnalysisCache() *AnalysisCache {
	return &AnalysisCache{reach: map[*mir.Function]*set.Set[*mir.Block]{}}
}

// Reachable returns the set of blocks reachable from entry, computing
// and caching it on first use.
func (c *AnalysisCache) Reachable(f *mir.Function) *set.Set[*mir.Block] {
	if s, ok := c.reach[f]; ok {
		return s
	}
	s := reachableBlocks(f)
	c.reach[f] = s
	return s
}

// Invalidate drops every cached analysis for one function.
func (c *AnalysisCache) Invalidate(f *mir.Function) {
	delete(c.reach, f)
}

// InvalidateAll drops the whole cache.
func (c *AnalysisCache) InvalidateAll() {
	c.reach = map[*mir.Function]*set.Set[*mir.Block]{}
}

// reachableBlocks walks forward from entry. Only membership matters;
// the traversal order is irrelevant.
func reachableBlocks(f *mir.Function) *set.Set[*mir.Block] {
	reach := set.New[*mir.Block](len(f.Blocks))
	entry := f.Entry()
	if entry == nil {
		return reach
	}
	worklist := []*mir.Block{entry}
	reach.Insert(entry)
	for len(worklist) > 0 {
		b := worklist[len(worklist)-1]
		worklist = worklist[:len(worklist)-1]
		for _, s := range b.Succs {
			if reach.Insert(s) {
				worklist = append(worklist, s)
			}
		}
	}
	return reach
}

// PassManager runs ordered passes: module passes first, then every
// function pass over every function.
type PassManager struct {
	modulePasses   []ModulePass
	functionPasses []FunctionPass
	cache          *AnalysisCache
}

// NewPassManager creates an empty manager with a fresh analysis cache.
func NewPassManager() *PassManager {
	return &PassManager{cache: NewAnalysisCache()}
}

// Cache exposes the analysis cache so passes can be constructed over it.
func (pm *PassManager) Cache() *AnalysisCache { return pm.cache }

// AddModulePass appends a module-scoped pass.
func (pm *PassManager) AddModulePass(p ModulePass) {
	pm.modulePasses = append(pm.modulePasses, p)
}

// AddFunctionPass appends a function-scoped pass.
func (pm *PassManager) AddFunctionPass(p FunctionPass) {
	pm.functionPasses = append(pm.functionPasses, p)
}

// Run executes the pipeline once and reports whether any pass changed
// anything. Changes invalidate the cached analyses of the affected unit.
func (pm *PassManager) Run(m *mir.Module) bool {
	changed := false

	for _, p := range pm.modulePasses {
		if p.RunOnModule(m) {
			changed = true
			pm.cache.InvalidateAll()
		}
	}
	for _, f := range m.Functions {
		for _, p := range pm.functionPasses {
			if p.RunOnFunction(f) {
				changed = true
				pm.cache.Invalidate(f)
			}
		}
	}
	return changed
}
