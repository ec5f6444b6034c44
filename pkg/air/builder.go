package air

import (
	"fmt"

	"github.com/zkrisc/chips/pkg/bus"
	"github.com/zkrisc/chips/pkg/bytelookup"
	"github.com/zkrisc/chips/pkg/field"
)

// Builder is the interface every chip's Eval method is written against. It
// is instantiated twice: once by CheckBuilder (concrete field elements, used
// to self-check generated traces row by row) and once by SymbolicBuilder
// (symbolic expressions, used to describe the polynomial identities a
// prover would later compile). A chip writes Eval(b Builder) exactly once
// and it runs under either mode.
type Builder interface {
	IsFirstRow() Value
	IsLastRow() Value
	IsTransition() Value

	Const(v field.Element) Value

	// Cell addresses a trace column generically: CheckBuilder resolves it
	// against the concrete row(s) attached via WithRow, SymbolicBuilder
	// returns a genuine Cell expression referencing that (row, col) pair.
	// Chip Eval methods use this instead of wrapping an already-computed
	// field.Element in Const whenever the value being asserted is trace
	// witness data (as opposed to a true constant like a curve parameter).
	Cell(pos RowPos, col int) Value

	// WithRow attaches the concrete row (and, for transition constraints,
	// the next row) this builder should evaluate Cell references against.
	// The symbolic instantiation ignores the data and returns itself.
	WithRow(row, nextRow []field.Element) Builder

	AssertZero(v Value)
	AssertEq(a, b Value)
	AssertBool(v Value)

	// When returns a Builder whose assertions are scaled by sel, and whose
	// bus sends have their multiplicity scaled by sel, mirroring
	// `builder.when(sel)` in the original implementation.
	When(sel Value) Builder
	WhenFirstRow() Builder
	WhenTransition() Builder

	SendInstruction(c bus.InstructionClaim)
	ReceiveInstruction(c bus.InstructionClaim)
	SendSyscall(c bus.SyscallClaim)
	ReceiveSyscall(c bus.SyscallClaim)
	SendMemory(c bus.MemoryClaim)
	ReceiveMemory(c bus.MemoryClaim)
	SendByteLookup(c bytelookup.Claim)
}

// --- CheckBuilder: concrete evaluation over one (local[, next]) row pair ---

// CheckBuilder evaluates assertions immediately against concrete rows and
// records any violation, instead of panicking, so a test can report every
// broken invariant for a row at once.
type CheckBuilder struct {
	isFirst, isLast  bool
	selector         Const // accumulated `when` scale, starts at 1
	violations       *[]string
	ledger           *bus.Ledger
	byteSink         *bytelookup.Sink
	row, nextRow     []field.Element
}

// NewCheckBuilder constructs a CheckBuilder for one row. isFirst/isLast
// position the row for IsFirstRow/IsLastRow/IsTransition. The row itself is
// attached separately via WithRow once a chip has flattened its Columns.
func NewCheckBuilder(isFirst, isLast bool, sink *bytelookup.Sink, ledger *bus.Ledger) *CheckBuilder {
	return &CheckBuilder{
		isFirst:    isFirst,
		isLast:     isLast,
		selector:   Const{field.One},
		violations: new([]string),
		ledger:     ledger,
		byteSink:   sink,
	}
}

// Cell resolves a (row, col) reference against the row(s) attached via
// WithRow.
func (b *CheckBuilder) Cell(pos RowPos, col int) Value {
	switch pos {
	case RowLocal:
		return Const{b.row[col]}
	case RowNext:
		if b.nextRow == nil {
			panic("air: next-row cell accessed on a CheckBuilder with no next row")
		}
		return Const{b.nextRow[col]}
	default:
		panic("air: bad RowPos")
	}
}

func (b *CheckBuilder) WithRow(row, nextRow []field.Element) Builder {
	child := *b
	child.row = row
	child.nextRow = nextRow
	return &child
}

func boolConst(b bool) Const {
	if b {
		return Const{field.One}
	}
	return Const{field.Zero}
}

func (b *CheckBuilder) IsFirstRow() Value  { return boolConst(b.isFirst) }
func (b *CheckBuilder) IsLastRow() Value   { return boolConst(b.isLast) }
func (b *CheckBuilder) IsTransition() Value { return boolConst(!b.isLast) }

func (b *CheckBuilder) Const(v field.Element) Value { return Const{v} }

func (b *CheckBuilder) AssertZero(v Value) {
	scaled := b.selector.Mul(v).(Const)
	if !scaled.V.IsZero() {
		*b.violations = append(*b.violations, fmt.Sprintf("assert_zero violated: got %v", scaled.V))
	}
}

func (b *CheckBuilder) AssertEq(x, y Value) {
	b.AssertZero(x.Sub(y))
}

func (b *CheckBuilder) AssertBool(v Value) {
	c := v.(Const)
	b.AssertZero(Const{c.V.Mul(field.One.Sub(c.V))})
}

func (b *CheckBuilder) When(sel Value) Builder {
	child := *b
	child.selector = b.selector.Mul(sel).(Const)
	return &child
}

func (b *CheckBuilder) WhenFirstRow() Builder  { return b.When(b.IsFirstRow()) }
func (b *CheckBuilder) WhenTransition() Builder { return b.When(b.IsTransition()) }

func (b *CheckBuilder) scaleMult(m field.Element) field.Element {
	return b.selector.V.Mul(m)
}

func (b *CheckBuilder) SendInstruction(c bus.InstructionClaim) {
	c.Mult = b.scaleMult(c.Mult)
	if b.ledger != nil {
		b.ledger.RecordInstruction(c)
	}
}
func (b *CheckBuilder) ReceiveInstruction(c bus.InstructionClaim) {
	c.Mult = b.scaleMult(c.Mult).Neg()
	if b.ledger != nil {
		b.ledger.RecordInstruction(c)
	}
}
func (b *CheckBuilder) SendSyscall(c bus.SyscallClaim) {
	c.Mult = b.scaleMult(c.Mult)
	if b.ledger != nil {
		b.ledger.RecordSyscall(c)
	}
}
func (b *CheckBuilder) ReceiveSyscall(c bus.SyscallClaim) {
	c.Mult = b.scaleMult(c.Mult).Neg()
	if b.ledger != nil {
		b.ledger.RecordSyscall(c)
	}
}
func (b *CheckBuilder) SendMemory(c bus.MemoryClaim) {
	c.Mult = b.scaleMult(c.Mult)
	if b.ledger != nil {
		b.ledger.RecordMemory(c)
	}
}
func (b *CheckBuilder) ReceiveMemory(c bus.MemoryClaim) {
	c.Mult = b.scaleMult(c.Mult).Neg()
	if b.ledger != nil {
		b.ledger.RecordMemory(c)
	}
}

func (b *CheckBuilder) SendByteLookup(c bytelookup.Claim) {
	if b.selector.V.IsZero() {
		return
	}
	if b.byteSink != nil {
		b.byteSink.Add(c)
	}
}

// Violations returns every assertion failure recorded while evaluating this
// row; an empty slice means the row satisfies every constraint it was
// checked against.
func (b *CheckBuilder) Violations() []string { return *b.violations }
