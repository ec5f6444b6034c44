package weierstrass

import (
	"math/big"

	"github.com/zkrisc/chips/pkg/air"
	"github.com/zkrisc/chips/pkg/bus"
	"github.com/zkrisc/chips/pkg/bytelookup"
	"github.com/zkrisc/chips/pkg/chip"
	"github.com/zkrisc/chips/pkg/field"
	"github.com/zkrisc/chips/pkg/fieldop"
	"github.com/zkrisc/chips/pkg/memory"
)

// Event is one precompile invocation: double the affine point (PX, PY)
// stored at PPtr in memory, in place.
type Event struct {
	Shard, Clk uint32
	PPtr       uint32
	PX, PY     *big.Int
	Curve      CurveID
}

// Columns is the full witness row for one doubling: the eleven chained
// field-op gadgets the tangent-line construction needs, in the exact order
// the original implementation populates them, plus the point's
// read-then-write memory access and the syscall-receive bookkeeping.
type Columns struct {
	IsReal field.Element
	Shard  field.Element
	Clk    field.Element
	Nonce  field.Element
	PPtr   field.Element

	PAccessX []memory.AccessCols // one per byte limb of x
	PAccessY []memory.AccessCols // one per byte limb of y

	PXSquared          fieldop.Cols
	PXSquaredTimes3    fieldop.Cols
	SlopeNumerator     fieldop.Cols
	SlopeDenominator   fieldop.Cols
	Slope              fieldop.Cols
	SlopeSquared       fieldop.Cols
	PXPlusPX           fieldop.Cols
	X3                 fieldop.Cols
	PXMinusX           fieldop.Cols
	SlopeTimesPXMinusX fieldop.Cols
	Y3                 fieldop.Cols
}

// ops returns this row's eleven chained field-op gadgets in the exact order
// the tangent-line construction chains them, shared between ToRow (which
// flattens them into a trace row) and Eval (which addresses them as Cells),
// so the two can never drift out of sync with each other.
func (col *Columns) ops() [11]*fieldop.Cols {
	return [11]*fieldop.Cols{
		&col.PXSquared, &col.PXSquaredTimes3, &col.SlopeNumerator, &col.SlopeDenominator,
		&col.Slope, &col.SlopeSquared, &col.PXPlusPX, &col.X3, &col.PXMinusX,
		&col.SlopeTimesPXMinusX, &col.Y3,
	}
}

// layout assigns every Columns field a column index, for a fixed limb count
// n. buildLayout is the single place this assignment happens; ToRow and Eval
// both call it, so the index scheme trace population and constraint
// addressing use can never disagree.
type layout struct {
	isReal, shard, clk, nonce, pptr int
	pAccessXPrev, pAccessXValue     []int
	pAccessYPrev, pAccessYValue     []int
	ops                             [11]opLayout
}

type opLayout struct {
	result, carry, quotient []int
}

func buildLayout(n int) (layout, int) {
	c := 0
	next := func() int { i := c; c++; return i }
	nextN := func(k int) []int {
		out := make([]int, k)
		for i := range out {
			out[i] = next()
		}
		return out
	}

	var l layout
	l.isReal = next()
	l.shard = next()
	l.clk = next()
	l.nonce = next()
	l.pptr = next()
	l.pAccessXPrev = nextN(n)
	l.pAccessXValue = nextN(n)
	l.pAccessYPrev = nextN(n)
	l.pAccessYValue = nextN(n)
	for i := range l.ops {
		l.ops[i] = opLayout{result: nextN(n), carry: nextN(n), quotient: nextN(n)}
	}
	return l, c
}

// ToRow flattens col into the column order buildLayout assigns, for
// Builder.WithRow to index into under CheckBuilder.
func (col Columns) ToRow() []field.Element {
	n := len(col.PAccessX)
	l, width := buildLayout(n)
	row := make([]field.Element, width)

	row[l.isReal] = col.IsReal
	row[l.shard] = col.Shard
	row[l.clk] = col.Clk
	row[l.nonce] = col.Nonce
	row[l.pptr] = col.PPtr
	for i := 0; i < n; i++ {
		row[l.pAccessXPrev[i]] = col.PAccessX[i].PrevValue
		row[l.pAccessXValue[i]] = col.PAccessX[i].Value
		row[l.pAccessYPrev[i]] = col.PAccessY[i].PrevValue
		row[l.pAccessYValue[i]] = col.PAccessY[i].Value
	}
	ops := col.ops()
	for oi, fc := range ops {
		for i := 0; i < n; i++ {
			row[l.ops[oi].result[i]] = fc.Result[i]
			row[l.ops[oi].carry[i]] = fc.Carry[i]
			row[l.ops[oi].quotient[i]] = fc.Quotient[i]
		}
	}
	return row
}

// Name matches the original's per-curve chip naming (e.g.
// "Secp256k1DoubleAssign"), used by the driver to label trace columns.
func Name(curve CurveID) string { return curve.String() + "DoubleAssign" }

// GenerateTrace populates Columns for one event: the schoolbook
// tangent-line doubling chain, followed by the point's in-place memory
// write. Every field-op limb it emits is range-checked into sink.
func GenerateTrace(sink *bytelookup.Sink, ev Event, nonce uint32) Columns {
	p := ParametersFor(ev.Curve)
	n := p.NumLimbs

	col := Columns{
		IsReal: field.One,
		Shard:  field.New(uint64(ev.Shard)),
		Clk:    field.New(uint64(ev.Clk)),
		Nonce:  field.New(uint64(nonce)),
		PPtr:   field.New(uint64(ev.PPtr)),
	}

	three := big.NewInt(3)
	two := big.NewInt(2)

	col.PXSquared, _ = fieldop.Populate(sink, ev.Shard, 0, p.Modulus, ev.PX, ev.PX, fieldop.OpMul, n)
	pxSquared := fieldLimbsToBig(col.PXSquared.Result)

	col.PXSquaredTimes3, _ = fieldop.Populate(sink, ev.Shard, 0, p.Modulus, pxSquared, three, fieldop.OpMul, n)
	pxSquaredTimes3 := fieldLimbsToBig(col.PXSquaredTimes3.Result)

	col.SlopeNumerator, _ = fieldop.Populate(sink, ev.Shard, 0, p.Modulus, pxSquaredTimes3, p.A, fieldop.OpAdd, n)
	slopeNumerator := fieldLimbsToBig(col.SlopeNumerator.Result)

	col.SlopeDenominator, _ = fieldop.Populate(sink, ev.Shard, 0, p.Modulus, ev.PY, two, fieldop.OpMul, n)
	slopeDenominator := fieldLimbsToBig(col.SlopeDenominator.Result)

	col.Slope, _ = fieldop.Populate(sink, ev.Shard, 0, p.Modulus, slopeNumerator, slopeDenominator, fieldop.OpDiv, n)
	slope := fieldLimbsToBig(col.Slope.Result)

	col.SlopeSquared, _ = fieldop.Populate(sink, ev.Shard, 0, p.Modulus, slope, slope, fieldop.OpMul, n)
	slopeSquared := fieldLimbsToBig(col.SlopeSquared.Result)

	col.PXPlusPX, _ = fieldop.Populate(sink, ev.Shard, 0, p.Modulus, ev.PX, ev.PX, fieldop.OpAdd, n)
	pxPlusPx := fieldLimbsToBig(col.PXPlusPX.Result)

	col.X3, _ = fieldop.Populate(sink, ev.Shard, 0, p.Modulus, slopeSquared, pxPlusPx, fieldop.OpSub, n)
	x3 := fieldLimbsToBig(col.X3.Result)

	col.PXMinusX, _ = fieldop.Populate(sink, ev.Shard, 0, p.Modulus, ev.PX, x3, fieldop.OpSub, n)
	pxMinusX := fieldLimbsToBig(col.PXMinusX.Result)

	col.SlopeTimesPXMinusX, _ = fieldop.Populate(sink, ev.Shard, 0, p.Modulus, slope, pxMinusX, fieldop.OpMul, n)
	slopeTimesPxMinusX := fieldLimbsToBig(col.SlopeTimesPXMinusX.Result)

	col.Y3, _ = fieldop.Populate(sink, ev.Shard, 0, p.Modulus, slopeTimesPxMinusX, ev.PY, fieldop.OpSub, n)

	col.PAccessX = make([]memory.AccessCols, n)
	col.PAccessY = make([]memory.AccessCols, n)
	oldX := bigToFieldLimbs(ev.PX, n)
	oldY := bigToFieldLimbs(ev.PY, n)
	for i := 0; i < n; i++ {
		col.PAccessX[i] = memory.AccessCols{PrevValue: oldX[i], Value: col.X3.Result[i]}
		col.PAccessY[i] = memory.AccessCols{PrevValue: oldY[i], Value: col.Y3.Result[i]}
	}

	return col
}

// PaddingRow returns the witness for a non-real row. It deliberately does
// NOT use the point (0,0): every curve here has a == 0, so doubling (0,0)
// divides the slope by 2y == 0, which the field-op gadget cannot witness at
// all (Populate panics on a zero divisor) — this is spec.md's
// padding-vs-curve-parameter hazard. Padding rows instead double an
// arbitrary nonzero point that satisfies no curve equation but lets every
// field-op gadget compute a real witness; IsReal == 0 then gates out the
// (otherwise meaningless) identities this row would assert, so correctness
// never depends on the padding point being "on the curve."
func PaddingRow(curve CurveID) Columns {
	ev := Event{Shard: 0, Clk: 0, PPtr: 0, PX: big.NewInt(1), PY: big.NewInt(1), Curve: curve}
	col := GenerateTrace(bytelookup.NewSink(), ev, 0)
	col.IsReal = field.Zero
	return col
}

func fieldLimbsToBig(limbs []field.Element) *big.Int {
	out := new(big.Int)
	for i := len(limbs) - 1; i >= 0; i-- {
		out.Lsh(out, 8)
		out.Or(out, big.NewInt(int64(limbs[i].Uint32())))
	}
	return out
}

func bigToFieldLimbs(v *big.Int, n int) []field.Element {
	out := make([]field.Element, n)
	tmp := new(big.Int).Set(v)
	mask := big.NewInt(0xFF)
	for i := 0; i < n; i++ {
		b := new(big.Int).And(tmp, mask)
		out[i] = field.New(b.Uint64())
		tmp.Rsh(tmp, 8)
	}
	return out
}

func cellsOf(b air.Builder, idx []int) []air.Value {
	out := make([]air.Value, len(idx))
	for i, c := range idx {
		out[i] = b.Cell(air.RowLocal, c)
	}
	return out
}

func constsOf(b air.Builder, limbs []field.Element) []air.Value {
	out := make([]air.Value, len(limbs))
	for i, v := range limbs {
		out[i] = b.Const(v)
	}
	return out
}

// Eval re-asserts the eleven-step tangent-line chain plus the point's
// memory read/write, exactly mirroring the original Air impl's eval order:
// each FieldOpCols chained into the next, and the final result limbs
// equated against the witnessed memory write. Every trace-witnessed operand
// — px/py, each gadget's result/quotient — is addressed via b.Cell against
// the row col.ToRow() produces, rather than wrapped as an already-computed
// Const, so this compiles into a genuine polynomial identity under
// SymbolicBuilder. Only true curve constants (the modulus, "a", the small
// integer literals the chain multiplies by) are ever passed as b.Const.
func Eval(b air.Builder, curve CurveID, col Columns) {
	n := len(col.PAccessX)
	l, _ := buildLayout(n)
	b = b.WithRow(col.ToRow(), nil)

	p := ParametersFor(curve)
	isReal := b.Cell(air.RowLocal, l.isReal)
	shard := uint32(col.Shard.Uint32())
	clk := uint32(col.Clk.Uint32())
	ptr := uint32(col.PPtr.Uint32())

	modLimbs := constsOf(b, bigToFieldLimbs(p.Modulus, p.NumLimbs))
	aLimbs := constsOf(b, bigToFieldLimbs(p.A, p.NumLimbs))
	three := constsOf(b, bigToFieldLimbs(big.NewInt(3), p.NumLimbs))
	two := constsOf(b, bigToFieldLimbs(big.NewInt(2), p.NumLimbs))

	px := cellsOf(b, l.pAccessXPrev)
	py := cellsOf(b, l.pAccessYPrev)

	res := func(i int) []air.Value { return cellsOf(b, l.ops[i].result) }
	quo := func(i int) []air.Value { return cellsOf(b, l.ops[i].quotient) }

	fieldop.Eval(b, shard, 0, px, px, modLimbs, res(0), quo(0), fieldop.OpMul, isReal)
	fieldop.Eval(b, shard, 0, res(0), three, modLimbs, res(1), quo(1), fieldop.OpMul, isReal)
	fieldop.Eval(b, shard, 0, res(1), aLimbs, modLimbs, res(2), quo(2), fieldop.OpAdd, isReal)
	fieldop.Eval(b, shard, 0, py, two, modLimbs, res(3), quo(3), fieldop.OpMul, isReal)
	fieldop.Eval(b, shard, 0, res(2), res(3), modLimbs, res(4), quo(4), fieldop.OpDiv, isReal)
	fieldop.Eval(b, shard, 0, res(4), res(4), modLimbs, res(5), quo(5), fieldop.OpMul, isReal)
	fieldop.Eval(b, shard, 0, px, px, modLimbs, res(6), quo(6), fieldop.OpAdd, isReal)
	fieldop.Eval(b, shard, 0, res(5), res(6), modLimbs, res(7), quo(7), fieldop.OpSub, isReal)
	fieldop.Eval(b, shard, 0, px, res(7), modLimbs, res(8), quo(8), fieldop.OpSub, isReal)
	fieldop.Eval(b, shard, 0, res(4), res(8), modLimbs, res(9), quo(9), fieldop.OpMul, isReal)
	fieldop.Eval(b, shard, 0, res(9), py, modLimbs, res(10), quo(10), fieldop.OpSub, isReal)

	// Each limb's memory access is keyed off p_ptr, not the loop index: the
	// X array occupies [ptr, ptr+4n) and the Y array the following [ptr+4n,
	// ptr+8n), so two doublings at different p_ptr never produce identical
	// claims and X/Y never collide with each other.
	gated := b.When(isReal)
	for i := 0; i < n; i++ {
		xAddr := field.New(uint64(ptr + uint32(4*i)))
		yAddr := field.New(uint64(ptr + uint32(4*(n+i))))
		memory.EvalAccess(b, shard, clk, xAddr, col.PAccessX[i], isReal)
		memory.EvalAccess(b, shard, clk, yAddr, col.PAccessY[i], isReal)
		gated.AssertEq(b.Cell(air.RowLocal, l.pAccessXValue[i]), b.Cell(air.RowLocal, l.ops[7].result[i]))
		gated.AssertEq(b.Cell(air.RowLocal, l.pAccessYValue[i]), b.Cell(air.RowLocal, l.ops[10].result[i]))
	}

	gated.ReceiveSyscall(bus.SyscallClaim{
		Shard: shard, Clk: clk,
		SyscallID: field.New(uint64(curve.SyscallID())),
		Arg1:      col.PPtr,
		Mult:      field.One,
	})
}

// DoubleChip adapts this package's free GenerateTrace/Eval functions to the
// chip.Chip contract for one fixed curve, letting a driver register a
// curve's doubling chip alongside others uniformly.
type DoubleChip struct{ Curve CurveID }

func (c DoubleChip) Name() string { return Name(c.Curve) }

// Width is the number of field-element columns one Columns value occupies,
// computed from the same buildLayout ToRow and Eval both use.
func (c DoubleChip) Width() int {
	_, width := buildLayout(ParametersFor(c.Curve).NumLimbs)
	return width
}

func (c DoubleChip) GenerateTrace(sink *bytelookup.Sink, ev Event) Columns {
	return GenerateTrace(sink, ev, 0)
}

func (c DoubleChip) Eval(b air.Builder, col Columns) { Eval(b, c.Curve, col) }

// Included reports whether this shard invoked this curve's doubling
// precompile at all.
func (c DoubleChip) Included(events []Event) bool { return len(events) > 0 }

var _ chip.Chip[Event, Columns] = DoubleChip{}
