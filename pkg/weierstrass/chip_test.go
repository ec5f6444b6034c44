package weierstrass

import (
	"math/big"
	"testing"

	"github.com/zkrisc/chips/pkg/air"
	"github.com/zkrisc/chips/pkg/bytelookup"
)

func hexBig(s string) *big.Int {
	v, ok := new(big.Int).SetString(s, 16)
	if !ok {
		panic("bad hex literal: " + s)
	}
	return v
}

// Standard secp256k1 generator and its known double, used as an independent
// oracle for the chip's witnessed output.
var (
	secp256k1Gx = hexBig("79BE667EF9DCBBAC55A06295CE870B07029BFCDB2DCE28D959F2815B16F81798")
	secp256k1Gy = hexBig("483ADA7726A3C4655DA4FBFC0E1108A8FD17B448A68554199C47D08FFB10D4B8")
	secp256k1DoubleGx = hexBig("C6047F9441ED7D6D3045406E95C07CD85C778E4B8CEF3CA7ABAC09B95C709EE5")
	secp256k1DoubleGy = hexBig("1AE168FEA63DC339A3C58419466CEAEEF7F632653266D0E1236431A950CFE52A")
)

func TestSecp256k1DoubleGeneratorMatchesKnownValue(t *testing.T) {
	p := ParametersFor(Secp256k1)
	wantX := new(big.Int).Mod(secp256k1DoubleGx, p.Modulus)
	wantY := new(big.Int).Mod(secp256k1DoubleGy, p.Modulus)

	sink := bytelookup.NewSink()
	ev := Event{Shard: 1, Clk: 4, PPtr: 0x2000, PX: secp256k1Gx, PY: secp256k1Gy, Curve: Secp256k1}
	col := GenerateTrace(sink, ev, 1)

	gotX := fieldLimbsToBig(col.X3.Result)
	gotY := fieldLimbsToBig(col.Y3.Result)
	if gotX.Cmp(wantX) != 0 {
		t.Fatalf("double(G).x = %s, want %s", gotX.Text(16), wantX.Text(16))
	}
	if gotY.Cmp(wantY) != 0 {
		t.Fatalf("double(G).y = %s, want %s", gotY.Text(16), wantY.Text(16))
	}
	if sink.Len() == 0 {
		t.Fatal("expected byte-range claims emitted during trace generation")
	}
}

func TestSecp256k1DoubleEvalAcceptsGeneratedTrace(t *testing.T) {
	ev := Event{Shard: 1, Clk: 4, PPtr: 0x2000, PX: secp256k1Gx, PY: secp256k1Gy, Curve: Secp256k1}
	col := GenerateTrace(bytelookup.NewSink(), ev, 1)

	b := air.NewCheckBuilder(true, false, nil, nil)
	Eval(b, Secp256k1, col)
	if len(b.Violations()) != 0 {
		t.Fatalf("Eval reported violations on a freshly generated trace: %v", b.Violations())
	}
}

func TestDoubleChipAdapterMatchesFreeFunctions(t *testing.T) {
	c := DoubleChip{Curve: Secp256k1}
	events := []Event{{Shard: 1, Clk: 4, PPtr: 0x2000, PX: secp256k1Gx, PY: secp256k1Gy, Curve: Secp256k1}}
	if !c.Included(events) {
		t.Fatal("a nonempty event slice should report Included")
	}
	if c.Included(nil) {
		t.Fatal("an empty event slice should not report Included")
	}
	if c.Width() <= 0 {
		t.Fatalf("Width should be positive, got %d", c.Width())
	}

	sink := bytelookup.NewSink()
	col := c.GenerateTrace(sink, events[0])
	b := air.NewCheckBuilder(true, false, nil, nil)
	c.Eval(b, col)
	if len(b.Violations()) != 0 {
		t.Fatalf("chip adapter's Eval reported violations on its own trace: %v", b.Violations())
	}
}

func TestPaddingRowIsGatedOff(t *testing.T) {
	col := PaddingRow(Secp256k1)
	if !col.IsReal.IsZero() {
		t.Fatal("padding row must have IsReal == 0")
	}

	b := air.NewCheckBuilder(true, false, nil, nil)
	// Every assertion in Eval is gated on IsReal, so even though (1,1)
	// satisfies no curve equation, a padding row built from it must still
	// pass — unlike (0,0), which the gadget can't even compute a witness
	// for (see PaddingRow's doc comment).
	Eval(b, Secp256k1, col)
	if len(b.Violations()) != 0 {
		t.Fatalf("padding row should produce no violations: %v", b.Violations())
	}
}
