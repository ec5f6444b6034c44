package fieldop

import (
	"math/big"
	"testing"

	"github.com/zkrisc/chips/pkg/air"
	"github.com/zkrisc/chips/pkg/bytelookup"
	"github.com/zkrisc/chips/pkg/field"
)

// secp256k1 base field modulus, 32 bytes.
func secp256k1Modulus() *big.Int {
	m, ok := new(big.Int).SetString("FFFFFFFFFFFFFFFFFFFFFFFFFFFFFFFFFFFFFFFFFFFFFFFFFFFFFFFEFFFFFC2F", 16)
	if !ok {
		panic("bad modulus literal")
	}
	return m
}

func toLimbs(v *big.Int, n int) []field.Element {
	return bigToLimbs(new(big.Int).Set(v), n)
}

// constsOf wraps concrete limbs as air.Values the way a caller backed by a
// genuine trace row would pass Cells, letting this test exercise Eval's real
// signature without standing up a whole chip around it.
func constsOf(b air.Builder, limbs []field.Element) []air.Value {
	out := make([]air.Value, len(limbs))
	for i, v := range limbs {
		out[i] = b.Const(v)
	}
	return out
}

func checkOp(t *testing.T, op Op, a, c int64) {
	t.Helper()
	modulus := secp256k1Modulus()
	lhs := big.NewInt(a)
	rhs := big.NewInt(c)
	sink := bytelookup.NewSink()
	cols, result := Populate(sink, 1, 0, modulus, lhs, rhs, op, 32)

	var want *big.Int
	switch op {
	case OpAdd:
		want = new(big.Int).Mod(new(big.Int).Add(lhs, rhs), modulus)
	case OpSub:
		want = new(big.Int).Mod(new(big.Int).Sub(lhs, rhs), modulus)
	case OpMul:
		want = new(big.Int).Mod(new(big.Int).Mul(lhs, rhs), modulus)
	case OpDiv:
		inv := new(big.Int).ModInverse(rhs, modulus)
		want = new(big.Int).Mod(new(big.Int).Mul(lhs, inv), modulus)
	}
	if result.Cmp(want) != 0 {
		t.Fatalf("op=%d: got %s want %s", op, result.String(), want.String())
	}

	b := air.NewCheckBuilder(true, false, nil, nil)
	lhsLimbs := constsOf(b, toLimbs(lhs, 32))
	rhsLimbs := constsOf(b, toLimbs(rhs, 32))
	modLimbs := constsOf(b, toLimbs(modulus, 32))
	resultLimbs := constsOf(b, cols.Result)
	quotientLimbs := constsOf(b, cols.Quotient)

	Eval(b, 1, 0, lhsLimbs, rhsLimbs, modLimbs, resultLimbs, quotientLimbs, op, b.Const(field.One))
	if len(b.Violations()) != 0 {
		t.Fatalf("op=%d: Eval reported violations: %v", op, b.Violations())
	}
}

func TestFieldOpsAgainstBigInt(t *testing.T) {
	checkOp(t, OpAdd, 12345, 67890)
	checkOp(t, OpSub, 67890, 12345)
	checkOp(t, OpSub, 100, 999999) // underflow case, result should still land in [0, p)
	checkOp(t, OpMul, 123456789, 987654321)
	checkOp(t, OpDiv, 42, 7)
}

func TestFieldOpDivByZeroPanics(t *testing.T) {
	defer func() {
		if r := recover(); r == nil {
			t.Fatal("expected panic dividing by zero")
		}
	}()
	Populate(nil, 1, 0, secp256k1Modulus(), big.NewInt(1), big.NewInt(0), OpDiv, 32)
}

func TestFieldOpEvalCatchesTamperedResult(t *testing.T) {
	modulus := secp256k1Modulus()
	lhs, rhs := big.NewInt(10), big.NewInt(20)
	cols, _ := Populate(nil, 1, 0, modulus, lhs, rhs, OpAdd, 32)
	cols.Result[0] = cols.Result[0].Add(field.New(1)) // corrupt the witness

	b := air.NewCheckBuilder(true, false, nil, nil)
	lhsLimbs := constsOf(b, toLimbs(lhs, 32))
	rhsLimbs := constsOf(b, toLimbs(rhs, 32))
	modLimbs := constsOf(b, toLimbs(modulus, 32))
	resultLimbs := constsOf(b, cols.Result)
	quotientLimbs := constsOf(b, cols.Quotient)

	Eval(b, 1, 0, lhsLimbs, rhsLimbs, modLimbs, resultLimbs, quotientLimbs, OpAdd, b.Const(field.One))
	if len(b.Violations()) == 0 {
		t.Fatal("expected Eval to catch a tampered result limb")
	}
}
