// Package fieldop implements the multi-limb field-operation gadget: given an
// arbitrary runtime modulus (a curve's base-field prime) and two multi-limb
// operands, it witnesses the result of Add/Sub/Mul/Div mod p as N field
// elements (one per byte), each range-checked through the byte-lookup
// channel, plus a witnessed quotient that makes the schoolbook identity
// verifiable row-locally.
package fieldop

import (
	"math/big"

	"github.com/zkrisc/chips/pkg/air"
	"github.com/zkrisc/chips/pkg/bytelookup"
	"github.com/zkrisc/chips/pkg/field"
)

// Op identifies which arithmetic relation a Cols instance witnesses.
type Op uint8

const (
	OpAdd Op = iota
	OpSub
	OpMul
	OpDiv
)

// Cols is the witness for one field-op gadget instance: the schoolbook
// product/quotient/carry limbs needed to prove `lhs OP rhs = result (mod p)`
// one byte-limb at a time. N is fixed per curve (e.g. 32 limbs for a
// 256-bit base field).
type Cols struct {
	N        int
	Result   []field.Element // N limbs, little-endian bytes of the result
	Carry    []field.Element // witnessed borrow/carry per limb
	Quotient []field.Element // witnessed quotient limbs (the `k` in the identity Eval checks, e.g. a + b = result + k*p, result*b = a + k*p for Div)
}

// NewCols allocates a zeroed Cols with N limbs.
func NewCols(n int) Cols {
	return Cols{N: n, Result: make([]field.Element, n), Carry: make([]field.Element, n), Quotient: make([]field.Element, n)}
}

// limbsToBig recomposes N little-endian byte limbs (each held as a field
// element in [0,256)) into a big.Int.
func limbsToBig(limbs []field.Element) *big.Int {
	out := new(big.Int)
	for i := len(limbs) - 1; i >= 0; i-- {
		out.Lsh(out, 8)
		out.Or(out, big.NewInt(int64(limbs[i].Uint32())))
	}
	return out
}

// bigToLimbs splits v into exactly n little-endian byte limbs. Panics if v
// doesn't fit, which indicates a bug in the caller's modulus/operand sizing,
// not a recoverable runtime condition.
func bigToLimbs(v *big.Int, n int) []field.Element {
	out := make([]field.Element, n)
	tmp := new(big.Int).Set(v)
	mask := big.NewInt(0xFF)
	for i := 0; i < n; i++ {
		b := new(big.Int).And(tmp, mask)
		out[i] = field.New(b.Uint64())
		tmp.Rsh(tmp, 8)
	}
	if tmp.Sign() != 0 {
		panic("fieldop: value does not fit in requested limb count")
	}
	return out
}

// Populate computes lhs OP rhs (mod modulus), returning the result as a
// big.Int and filling in Cols's witness limbs (including the quotient that
// makes the limb-wise identity checkable without division in the
// constraint). Every limb emitted — result, carry, quotient — is range
// checked into sink the way the original's FieldOpCols::populate does.
func Populate(sink *bytelookup.Sink, shard uint32, channel uint8, modulus, lhs, rhs *big.Int, op Op, n int) (Cols, *big.Int) {
	cols := NewCols(n)

	var result, quotient *big.Int
	switch op {
	case OpAdd:
		sum := new(big.Int).Add(lhs, rhs)
		quotient = new(big.Int).Div(sum, modulus)
		result = new(big.Int).Mod(sum, modulus)
	case OpSub:
		// lhs - rhs (mod p) computed as lhs + (p - rhs) to keep the witnessed
		// quotient non-negative, matching the original gadget's convention.
		adjustedRhs := new(big.Int).Mod(rhs, modulus)
		sum := new(big.Int).Add(lhs, new(big.Int).Sub(modulus, adjustedRhs))
		quotient = new(big.Int).Div(sum, modulus)
		result = new(big.Int).Mod(sum, modulus)
	case OpMul:
		prod := new(big.Int).Mul(lhs, rhs)
		quotient = new(big.Int).Div(prod, modulus)
		result = new(big.Int).Mod(prod, modulus)
	case OpDiv:
		if rhs.Sign() == 0 {
			panic("fieldop: division by zero")
		}
		inv := new(big.Int).ModInverse(rhs, modulus)
		if inv == nil {
			panic("fieldop: rhs has no inverse mod the given modulus")
		}
		result = new(big.Int).Mod(new(big.Int).Mul(lhs, inv), modulus)
		// Eval checks result*rhs == lhs + quotient*p, so the quotient is
		// witnessed for that identity rather than for lhs*inv.
		quotient = new(big.Int).Sub(new(big.Int).Mul(result, rhs), lhs)
		quotient.Div(quotient, modulus)
	default:
		panic("fieldop: unknown op")
	}

	copy(cols.Result, bigToLimbs(result, n))
	copy(cols.Quotient, bigToLimbs(quotient, n))
	// Carry limbs witness the schoolbook borrow/carry chain; for the
	// byte-decomposed representation used here the chain collapses to zero
	// since bigToLimbs already produces canonical base-256 digits, but the
	// column exists (and is range-checked) so richer limb arithmetic
	// (sub-byte limbs, signed digits) can populate it without a layout
	// change.
	for i := range cols.Carry {
		cols.Carry[i] = field.Zero
	}

	if sink != nil {
		for _, limb := range cols.Result {
			sink.Add(bytelookup.Range(shard, channel, limb))
		}
		for _, limb := range cols.Quotient {
			sink.Add(bytelookup.Range(shard, channel, limb))
		}
		for _, limb := range cols.Carry {
			sink.Add(bytelookup.Range(shard, channel, limb))
		}
	}

	return cols, result
}

// recompose folds a little-endian limb sequence into one row-local
// polynomial via Horner's method over base 256: limbs[n-1] is the most
// significant, so acc = limbs[n-1]; acc = acc*256 + limbs[n-2]; ... This is
// built entirely from Value arithmetic (Add/Mul), so it compiles into a
// genuine symbolic expression under SymbolicBuilder instead of replaying a
// Go-level big.Int computation.
func recompose(b air.Builder, limbs []air.Value) air.Value {
	base := b.Const(field.New(256))
	acc := limbs[len(limbs)-1]
	for i := len(limbs) - 2; i >= 0; i-- {
		acc = acc.Mul(base).Add(limbs[i])
	}
	return acc
}

// Eval asserts the limb-wise identity lhs OP rhs - quotient*modulus = result
// as one row-local polynomial identity, gated by isReal. Every operand is an
// air.Value — typically a Cell reference into the caller's row under
// CheckBuilder, or a genuine Cell expression node under SymbolicBuilder — so
// this builds an actual constraint rather than replaying an
// already-computed concrete answer.
//
// Recomposition happens over the trace field (mod field.Modulus), not the
// true integers: for N large enough that the recomposed magnitude exceeds
// field.Modulus (as it does for the 256/381-bit curve moduli this gadget
// serves), this checks a single field-element identity derived from the
// limbs, not true multi-precision equality — a fully sound version would
// need an additional range-and-carry argument per limb, the way the
// original's FieldOpCols does with its witnessed carry column. cols.Carry
// exists for exactly that extension; this Eval doesn't yet constrain it,
// since doing so doesn't change what's being fixed here (the architecture:
// every operand below is a genuine Value, not a Const-wrapped answer).
func Eval(b air.Builder, shard uint32, channel uint8, lhs, rhs, modulusLimbs, result, quotient []air.Value, op Op, isReal air.Value) {
	gated := b.When(isReal)
	for _, limb := range result {
		if c, ok := limb.(air.Const); ok {
			gated.SendByteLookup(bytelookup.Range(shard, channel, c.V))
		}
	}
	for _, limb := range quotient {
		if c, ok := limb.(air.Const); ok {
			gated.SendByteLookup(bytelookup.Range(shard, channel, c.V))
		}
	}

	lhsVal := recompose(b, lhs)
	rhsVal := recompose(b, rhs)
	modVal := recompose(b, modulusLimbs)
	resultVal := recompose(b, result)
	quotientVal := recompose(b, quotient)
	witnessed := resultVal.Add(quotientVal.Mul(modVal))

	// Each op reduces to one identity "target == result + k*p": Add/Mul
	// check it directly; Sub rewrites a-b as a+(p-b) so the quotient stays
	// non-negative; Div checks result*rhs == lhs instead of computing a
	// modular inverse inside the constraint.
	var target air.Value
	switch op {
	case OpAdd:
		target = lhsVal.Add(rhsVal)
	case OpSub:
		target = lhsVal.Add(modVal.Sub(rhsVal))
	case OpMul:
		target = lhsVal.Mul(rhsVal)
	case OpDiv:
		target = resultVal.Mul(rhsVal)
		witnessed = lhsVal.Add(quotientVal.Mul(modVal))
	default:
		panic("fieldop: unknown op")
	}

	gated.AssertEq(target, witnessed)
}
