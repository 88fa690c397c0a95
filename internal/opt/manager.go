package opt

import (
	"fmt"
	"io"
	"time"

	"github.com/rill-lang/rill/internal/mir"
	"github.com/rill-lang/rill/internal/types"
)

// Level selects how much of the pipeline runs.
type Level int

const (
	O0 Level = iota // no optimization
	O1              // constant folding, dead code elimination
	O2              // O1 plus reassociation, value numbering, inlining
	O3              // O2 plus arithmetic simplification, type-directed
)

func (l Level) String() string { return fmt.Sprintf("O%d", int(l)) }

// ParseLevel reads "O0".."O3" or the bare digit.
func ParseLevel(s string) (Level, error) {
	switch s {
	case "O0", "0":
		return O0, nil
	case "O1", "1":
		return O1, nil
	case "O2", "2":
		return O2, nil
	case "O3", "3":
		return O3, nil
	}
	return O0, fmt.Errorf("unknown optimization level %q", s)
}

// Stats aggregates what one Optimize call did.
type Stats struct {
	InstructionsEliminated int
	ConstantsFolded        int
	FunctionsInlined       int
	LoopsOptimized         int
	Elapsed                time.Duration

	// TypeDirected is populated at O3 only.
	TypeDirected TypeDirectedStats
}

// Manager assembles the pass pipeline for an optimization level and runs
// it over modules. Changing the level rebuilds the pipeline; each
// Optimize call starts from zeroed counters.
type Manager struct {
	level Level
	sigs  map[string]*types.FunctionData

	pm    *PassManager
	fold  *ConstantFolding
	dce   *DeadCodeElimination
	gvn   *ValueNumbering
	arith *ArithmeticSimplification
	inl   *FunctionInlining
	typed *TypeDirectedOptimization

	stats Stats
}

// NewManager creates a manager at the given level. sigs is the checker's
// signature map; pass nil when type checking was skipped.
func NewManager(level Level, sigs map[string]*types.FunctionData) *Manager {
	m := &Manager{level: level, sigs: sigs}
	m.setup()
	return m
}

// Level returns the current optimization level.
func (m *Manager) Level() Level { return m.level }

// SetLevel switches the level and rebuilds the pipeline.
func (m *Manager) SetLevel(l Level) {
	m.level = l
	m.setup()
}

func (m *Manager) setup() {
	m.pm = NewPassManager()
	m.fold = nil
	m.dce = nil
	m.gvn = nil
	m.arith = nil
	m.inl = nil
	m.typed = nil

	if m.level >= O2 {
		m.inl = NewFunctionInlining()
		m.pm.AddModulePass(m.inl)
	}
	if m.level >= O1 {
		m.fold = &ConstantFolding{}
		m.dce = NewDeadCodeElimination(m.pm.Cache())
		m.pm.AddFunctionPass(m.fold)
		m.pm.AddFunctionPass(m.dce)
	}
	if m.level >= O2 {
		m.pm.AddFunctionPass(&Reassociation{})
		m.gvn = &ValueNumbering{}
		m.pm.AddFunctionPass(m.gvn)
	}
	if m.level >= O3 {
		m.arith = &ArithmeticSimplification{}
		m.pm.AddFunctionPass(m.arith)
		m.typed = NewTypeDirectedOptimization(m.sigs)
		m.pm.AddFunctionPass(m.typed)
	}
}

// Optimize runs the pipeline over the module once and returns the stats.
func (m *Manager) Optimize(mod *mir.Module) Stats {
	m.setup()
	start := time.Now()
	m.pm.Run(mod)
	m.stats = Stats{Elapsed: time.Since(start)}

	if m.fold != nil {
		m.stats.ConstantsFolded = m.fold.Folded
	}
	if m.dce != nil {
		m.stats.InstructionsEliminated += m.dce.Eliminated
	}
	if m.gvn != nil {
		m.stats.InstructionsEliminated += m.gvn.Removed
	}
	if m.arith != nil {
		m.stats.InstructionsEliminated += m.arith.Simplified
	}
	if m.inl != nil {
		m.stats.FunctionsInlined = m.inl.Inlined
	}
	if m.typed != nil {
		m.stats.TypeDirected = m.typed.Stats
	}
	return m.stats
}

// Stats returns the counters of the last Optimize call.
func (m *Manager) Stats() Stats { return m.stats }

// Report writes the optimization summary for the last run.
func (m *Manager) Report(w io.Writer) {
	st := m.stats
	fmt.Fprintf(w, "\n=== Rill Optimization Report ===\n")
	fmt.Fprintf(w, "Optimization Level: %s\n", m.level)
	fmt.Fprintf(w, "Optimization Time: %.3f ms\n", float64(st.Elapsed.Nanoseconds())/1e6)
	fmt.Fprintf(w, "Instructions Eliminated: %d\n", st.InstructionsEliminated)
	fmt.Fprintf(w, "Constants Folded: %d\n", st.ConstantsFolded)
	fmt.Fprintf(w, "Functions Inlined: %d\n", st.FunctionsInlined)
	fmt.Fprintf(w, "Loops Optimized: %d\n", st.LoopsOptimized)

	if m.level >= O3 {
		fmt.Fprintf(w, "\n--- Type-Directed Optimizations ---\n")
		fmt.Fprintf(w, "Numeric Operations Optimized: %d\n", st.TypeDirected.NumericOps)
		fmt.Fprintf(w, "Multiplications -> Bit Shifts: %d\n", st.TypeDirected.MulToShifts)
		fmt.Fprintf(w, "Divisions -> Bit Shifts: %d\n", st.TypeDirected.DivToShifts)
		fmt.Fprintf(w, "Type Casts Eliminated: %d\n", st.TypeDirected.CastsEliminated)
		fmt.Fprintf(w, "Type Specializations Applied: %d\n", st.TypeDirected.Specializations)
	}
	fmt.Fprintf(w, "==================================\n")
}
