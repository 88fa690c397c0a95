// Package mir defines the mid-level IR the optimizer works on.
// It is SSA-lite: every instruction lives in a per-function arena and is
// referenced by a stable ID, so passes can redirect uses and free slots
// without dangling references. Mutable state (locals) goes through
// alloca/load/store rather than phi nodes.
package mir

import (
	"github.com/hashicorp/go-set/v3"
)

// ID names an instruction slot in its function's arena. IDs stay valid
// for the function's lifetime; erased slots are marked free, not reused.
type ID int

// None is the null instruction reference.
const None ID = -1

// ====== Values ======

// ValueKind classifies the value category of an operand.
type ValueKind int

const (
	ValInvalid ValueKind = iota
	ValConstInt
	ValConstFloat
	ValConstString
	ValRef
	ValParam
)

// Value is an operand: a constant, a reference to the result of an
// instruction, or a formal parameter.
type Value struct {
	Kind    ValueKind
	Int64   int64
	Float64 float64
	Str     string
	Ref     ID  // defining instruction, for ValRef
	Index   int // parameter position, for ValParam
	Name    string
}

// ConstInt makes an integer constant operand.
func ConstInt(v int64) Value { return Value{Kind: ValConstInt, Int64: v} }

// ConstFloat makes a floating constant operand.
func ConstFloat(v float64) Value { return Value{Kind: ValConstFloat, Float64: v} }

// ConstString makes a string constant operand. Strings exist only as
// print arguments; no other instruction accepts one.
func ConstString(s string) Value { return Value{Kind: ValConstString, Str: s} }

// Ref makes an operand referencing an instruction result.
func Ref(id ID) Value { return Value{Kind: ValRef, Ref: id} }

// Param makes an operand referencing a formal parameter.
func Param(index int, name string) Value {
	return Value{Kind: ValParam, Index: index, Name: name}
}

// IsConst reports whether the value is a numeric constant.
func (v Value) IsConst() bool {
	return v.Kind == ValConstInt || v.Kind == ValConstFloat
}

// AsFloat reads a numeric constant as float64.
func (v Value) AsFloat() float64 {
	if v.Kind == ValConstInt {
		return float64(v.Int64)
	}
	return v.Float64
}

// AsInt reads a numeric constant as int64 (floats truncate).
func (v Value) AsInt() int64 {
	if v.Kind == ValConstFloat {
		return int64(v.Float64)
	}
	return v.Int64
}

// Same reports operand identity: same kind and same payload.
func (v Value) Same(o Value) bool {
	if v.Kind != o.Kind {
		return false
	}
	switch v.Kind {
	case ValConstInt:
		return v.Int64 == o.Int64
	case ValConstFloat:
		return v.Float64 == o.Float64
	case ValConstString:
		return v.Str == o.Str
	case ValRef:
		return v.Ref == o.Ref
	case ValParam:
		return v.Index == o.Index
	}
	return false
}

// ====== Opcodes ======

// Op enumerates the instruction set.
type Op int

const (
	OpInvalid Op = iota

	// Floating arithmetic. Every surface-language operation lowers to
	// these; the integer forms below appear only through optimization.
	OpAdd
	OpSub
	OpMul
	OpDiv
	OpRem

	// Integer arithmetic and shifts.
	OpIAdd
	OpISub
	OpIMul
	OpShl
	OpShr

	// Comparisons producing 0/1. OpCmp compares floats, OpICmp ints.
	OpCmp
	OpICmp

	// Logical combination of 0/1 values.
	OpAnd
	OpOr

	// Scalar conversion between bool, int and float.
	OpCast

	// Stack slots.
	OpAlloca
	OpLoad
	OpStore

	OpCall

	// Terminators.
	OpBr
	OpCondBr
	OpRet
)

// Pred enumerates comparison predicates.
type Pred int

const (
	PredEQ Pred = iota
	PredNE
	PredLT
	PredLE
	PredGT
	PredGE
)

// Scalar names the castable scalar classes.
type Scalar int

const (
	ScalarBool Scalar = iota
	ScalarInt
	ScalarFloat
)

// ====== Instructions ======

// Instr is one instruction slot. Args is the ordered operand list; the
// remaining fields are payload for the ops that need them. An erased
// slot has Block == nil.
type Instr struct {
	ID   ID
	Op   Op
	Args []Value

	Pred     Pred   // OpCmp, OpICmp
	From, To Scalar // OpCast
	Callee   string // OpCall
	Slot     string // OpAlloca: source-level variable name

	Target      *Block // OpBr
	True, False *Block // OpCondBr

	Block *Block

	users *set.Set[ID]
}

// IsTerminator reports whether the instruction ends a block.
func (i *Instr) IsTerminator() bool {
	return i.Op == OpBr || i.Op == OpCondBr || i.Op == OpRet
}

// HasSideEffects reports whether the instruction must be kept even with
// no users. Stores and calls always count as side-effecting.
func (i *Instr) HasSideEffects() bool {
	return i.Op == OpStore || i.Op == OpCall || i.IsTerminator()
}

// DefinesValue reports whether the instruction produces a result other
// instructions may reference.
func (i *Instr) DefinesValue() bool {
	switch i.Op {
	case OpStore, OpBr, OpCondBr, OpRet:
		return false
	}
	return true
}

// Erased reports whether the slot has been freed.
func (i *Instr) Erased() bool { return i.Block == nil }

// ====== Blocks ======

// Block is an ordered instruction sequence ending in one terminator,
// with explicit predecessor and successor edges.
type Block struct {
	Name   string
	Instrs []ID
	Preds  []*Block
	Succs  []*Block

	fn *Function
}

// Func returns the owning function.
func (b *Block) Func() *Function { return b.fn }

// Terminator returns the block's terminator instruction, or nil while
// the block is still under construction.
func (b *Block) Terminator() *Instr {
	if len(b.Instrs) == 0 {
		return nil
	}
	last := b.fn.Instr(b.Instrs[len(b.Instrs)-1])
	if last != nil && last.IsTerminator() {
		return last
	}
	return nil
}

func (b *Block) removeInstr(id ID) {
	for i, x := range b.Instrs {
		if x == id {
			b.Instrs = append(b.Instrs[:i], b.Instrs[i+1:]...)
			return
		}
	}
}

func (b *Block) removePred(p *Block) {
	for i, x := range b.Preds {
		if x == p {
			b.Preds = append(b.Preds[:i], b.Preds[i+1:]...)
			return
		}
	}
}

func (b *Block) removeSucc(s *Block) {
	for i, x := range b.Succs {
		if x == s {
			b.Succs = append(b.Succs[:i], b.Succs[i+1:]...)
			return
		}
	}
}

// ====== Functions ======

// Function is an entry block plus the blocks reachable from it, with
// formal parameters and the instruction arena.
type Function struct {
	Name   string
	Params []string
	Blocks []*Block // Blocks[0] is the entry block

	arena []*Instr
}

// NewFunction creates an empty function with the given parameter names.
func NewFunction(name string, params []string) *Function {
	return &Function{Name: name, Params: params}
}

// Entry returns the entry block, or nil for an empty function.
func (f *Function) Entry() *Block {
	if len(f.Blocks) == 0 {
		return nil
	}
	return f.Blocks[0]
}

// NewBlock appends a fresh block to the function.
func (f *Function) NewBlock(name string) *Block {
	b := &Block{Name: name, fn: f}
	f.Blocks = append(f.Blocks, b)
	return b
}

// Instr resolves an ID to its slot. Erased slots still resolve (with
// Block nil) so passes can test for staleness.
func (f *Function) Instr(id ID) *Instr {
	if id < 0 || int(id) >= len(f.arena) {
		return nil
	}
	return f.arena[id]
}

// Emit appends an instruction to a block, assigns its arena slot and
// registers it as a user of each referenced operand. Branch edges are
// wired when the instruction is a terminator.
func (f *Function) Emit(b *Block, in Instr) ID {
	id := ID(len(f.arena))
	in.ID = id
	in.Block = b
	in.users = set.New[ID](0)

	slot := in
	f.arena = append(f.arena, &slot)
	b.Instrs = append(b.Instrs, id)

	for _, a := range slot.Args {
		f.addUse(a, id)
	}

	switch slot.Op {
	case OpBr:
		f.addEdge(b, slot.Target)
	case OpCondBr:
		f.addEdge(b, slot.True)
		f.addEdge(b, slot.False)
	}
	return id
}

// EmitAt is Emit with an explicit position within the block.
func (f *Function) EmitAt(b *Block, pos int, in Instr) ID {
	id := f.Emit(b, in)
	b.Instrs = b.Instrs[:len(b.Instrs)-1]
	b.Instrs = append(b.Instrs[:pos], append([]ID{id}, b.Instrs[pos:]...)...)
	return id
}

// SplitAfter moves everything after the given instruction into a fresh
// block and transfers the outgoing edges there. The original block is
// left without a terminator; the caller emits one.
func (f *Function) SplitAfter(b *Block, id ID, name string) *Block {
	cont := f.NewBlock(name)

	at := -1
	for i, x := range b.Instrs {
		if x == id {
			at = i
			break
		}
	}
	if at < 0 {
		return cont
	}

	moved := append([]ID(nil), b.Instrs[at+1:]...)
	b.Instrs = b.Instrs[:at+1]
	for _, x := range moved {
		in := f.Instr(x)
		in.Block = cont
		cont.Instrs = append(cont.Instrs, x)
	}

	cont.Succs = b.Succs
	b.Succs = nil
	for _, s := range cont.Succs {
		for i, p := range s.Preds {
			if p == b {
				s.Preds[i] = cont
			}
		}
	}
	return cont
}

func (f *Function) addEdge(from, to *Block) {
	from.Succs = append(from.Succs, to)
	to.Preds = append(to.Preds, from)
}

func (f *Function) addUse(v Value, user ID) {
	if v.Kind != ValRef {
		return
	}
	if def := f.Instr(v.Ref); def != nil {
		def.users.Insert(user)
	}
}

func (f *Function) dropUse(v Value, user ID) {
	if v.Kind != ValRef {
		return
	}
	def := f.Instr(v.Ref)
	if def == nil {
		return
	}
	// Another operand of the same user may still reference the def.
	u := f.Instr(user)
	if u != nil && !u.Erased() {
		for _, a := range u.Args {
			if a.Kind == ValRef && a.Ref == v.Ref {
				return
			}
		}
	}
	def.users.Remove(user)
}

// Users returns the IDs of live instructions referencing the result of
// the given instruction.
func (f *Function) Users(id ID) []ID {
	in := f.Instr(id)
	if in == nil {
		return nil
	}
	return in.users.Slice()
}

// NumUsers returns the user count of an instruction's result.
func (f *Function) NumUsers(id ID) int {
	in := f.Instr(id)
	if in == nil {
		return 0
	}
	return in.users.Size()
}

// SetArg rewrites one operand of an instruction, keeping the def-use
// index consistent.
func (f *Function) SetArg(id ID, idx int, v Value) {
	in := f.Instr(id)
	old := in.Args[idx]
	in.Args[idx] = v
	f.dropUse(old, id)
	f.addUse(v, id)
}

// ReplaceAllUses redirects every use of an instruction's result to the
// replacement value. After it returns the instruction has no users and
// may be erased.
func (f *Function) ReplaceAllUses(id ID, v Value) {
	for _, user := range f.Users(id) {
		u := f.Instr(user)
		for idx, a := range u.Args {
			if a.Kind == ValRef && a.Ref == id {
				u.Args[idx] = v
				f.addUse(v, user)
			}
		}
		f.Instr(id).users.Remove(user)
	}
}

// Erase frees an instruction slot: it is unlinked from its block and
// removed as a user of its operands. Callers must redirect or remove
// every user first (ReplaceAllUses, or DCE's no-users discipline).
func (f *Function) Erase(id ID) {
	in := f.Instr(id)
	if in == nil || in.Erased() {
		return
	}
	for _, a := range in.Args {
		if a.Kind == ValRef {
			if def := f.Instr(a.Ref); def != nil {
				def.users.Remove(id)
			}
		}
	}
	in.Block.removeInstr(id)
	in.Block = nil
	in.users = set.New[ID](0)
}

// RemoveBlock deletes a block: every instruction is erased and the
// block's edges are unlinked. Used for unreachable blocks only, so no
// live instruction elsewhere can reference the deleted results.
func (f *Function) RemoveBlock(b *Block) {
	for _, id := range append([]ID(nil), b.Instrs...) {
		in := f.Instr(id)
		if in == nil || in.Erased() {
			continue
		}
		// Unreachable code may still be referenced by other
		// unreachable code; cut those links before freeing.
		for _, user := range f.Users(id) {
			u := f.Instr(user)
			for idx, a := range u.Args {
				if a.Kind == ValRef && a.Ref == id {
					u.Args[idx] = Value{Kind: ValInvalid}
				}
			}
			in.users.Remove(user)
		}
		f.Erase(id)
	}
	for _, s := range b.Succs {
		s.removePred(b)
	}
	for _, p := range b.Preds {
		p.removeSucc(b)
	}
	for i, x := range f.Blocks {
		if x == b {
			f.Blocks = append(f.Blocks[:i], f.Blocks[i+1:]...)
			break
		}
	}
}

// Instructions iterates the live instructions of the function in block
// order, calling fn for each. Erasing the visited instruction inside fn
// is safe; the iteration works on a snapshot per block.
func (f *Function) Instructions(fn func(*Instr)) {
	for _, b := range f.Blocks {
		for _, id := range append([]ID(nil), b.Instrs...) {
			in := f.Instr(id)
			if in != nil && !in.Erased() {
				fn(in)
			}
		}
	}
}

// NumInstrs counts live instructions.
func (f *Function) NumInstrs() int {
	n := 0
	for _, b := range f.Blocks {
		n += len(b.Instrs)
	}
	return n
}

// ====== Modules ======

// Module is a compilation unit of MIR.
type Module struct {
	Name      string
	Functions []*Function
}

// Find returns the function with the given name, or nil.
func (m *Module) Find(name string) *Function {
	for _, f := range m.Functions {
		if f.Name == name {
			return f
		}
	}
	return nil
}
