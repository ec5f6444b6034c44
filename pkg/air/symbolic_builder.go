package air

import (
	"github.com/zkrisc/chips/pkg/bus"
	"github.com/zkrisc/chips/pkg/bytelookup"
	"github.com/zkrisc/chips/pkg/field"
)

// Constraint is one recorded row-local polynomial identity: Expr must equal
// zero on every row the accumulated selector doesn't vanish on.
type Constraint struct {
	Expr Symbol
}

// SymbolicBuilder collects the constraint set and bus claims a chip's Eval
// describes, without evaluating them against any particular row. This is
// the instantiation an external prover would walk to compile the AIR; here
// it mainly lets tests confirm a chip's Eval builds the expected shape of
// constraint (e.g. exactly one assert_bool per selector column).
type SymbolicBuilder struct {
	selector     Symbol
	Constraints  *[]Constraint
	Sends        *[]bus.InstructionClaim
	Receives     *[]bus.InstructionClaim
	MemorySends  *[]bus.MemoryClaim
	MemoryRecvs  *[]bus.MemoryClaim
}

func NewSymbolicBuilder() *SymbolicBuilder {
	return &SymbolicBuilder{
		selector:    SConst(field.One),
		Constraints: new([]Constraint),
		Sends:       new([]bus.InstructionClaim),
		Receives:    new([]bus.InstructionClaim),
		MemorySends: new([]bus.MemoryClaim),
		MemoryRecvs: new([]bus.MemoryClaim),
	}
}

// Cell references a column of the local or next row. The symbolic
// instantiation never has concrete row data to index into — it only needs
// the (row, col) pair to build the expression tree — so, unlike
// CheckBuilder.Cell, this ignores any row WithRow attached.
func (b *SymbolicBuilder) Cell(pos RowPos, col int) Value { return Cell(pos, col) }

// WithRow is a no-op for the symbolic instantiation: it never evaluates
// against concrete data, so there is nothing to attach.
func (b *SymbolicBuilder) WithRow(row, nextRow []field.Element) Builder { return b }

func (b *SymbolicBuilder) IsFirstRow() Value  { return Cell(RowLocal, firstRowCol) }
func (b *SymbolicBuilder) IsLastRow() Value   { return Cell(RowLocal, lastRowCol) }
func (b *SymbolicBuilder) IsTransition() Value { return Cell(RowLocal, transitionCol) }

// Reserved synthetic column indices used only by the symbolic instantiation
// to reference the prover-supplied row-position selectors (first/last/
// transition), which aren't real trace columns.
const (
	firstRowCol = -1 - iota
	lastRowCol
	transitionCol
)

func (b *SymbolicBuilder) Const(v field.Element) Value { return SConst(v) }

func (b *SymbolicBuilder) AssertZero(v Value) {
	scaled := b.selector.Mul(v).(Symbol)
	*b.Constraints = append(*b.Constraints, Constraint{Expr: scaled})
}

func (b *SymbolicBuilder) AssertEq(x, y Value) { b.AssertZero(x.Sub(y)) }

func (b *SymbolicBuilder) AssertBool(v Value) {
	s := v.(Symbol)
	one := SConst(field.One)
	b.AssertZero(s.Mul(one.Sub(s)))
}

func (b *SymbolicBuilder) When(sel Value) Builder {
	child := *b
	child.selector = b.selector.Mul(sel).(Symbol)
	return &child
}

func (b *SymbolicBuilder) WhenFirstRow() Builder  { return b.When(b.IsFirstRow()) }
func (b *SymbolicBuilder) WhenTransition() Builder { return b.When(b.IsTransition()) }

func (b *SymbolicBuilder) SendInstruction(c bus.InstructionClaim) {
	*b.Sends = append(*b.Sends, c)
}
func (b *SymbolicBuilder) ReceiveInstruction(c bus.InstructionClaim) {
	*b.Receives = append(*b.Receives, c)
}
func (b *SymbolicBuilder) SendSyscall(bus.SyscallClaim)    {}
func (b *SymbolicBuilder) ReceiveSyscall(bus.SyscallClaim) {}
func (b *SymbolicBuilder) SendByteLookup(bytelookup.Claim) {}

func (b *SymbolicBuilder) SendMemory(c bus.MemoryClaim) {
	*b.MemorySends = append(*b.MemorySends, c)
}
func (b *SymbolicBuilder) ReceiveMemory(c bus.MemoryClaim) {
	*b.MemoryRecvs = append(*b.MemoryRecvs, c)
}
