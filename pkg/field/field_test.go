package field

import "testing"

func TestAddSubRoundtrip(t *testing.T) {
	tests := []struct {
		a, b uint64
	}{
		{0, 0},
		{1, 1},
		{Modulus - 1, 1},
		{Modulus - 1, Modulus - 1},
		{123456789, 987654321},
	}
	for _, tt := range tests {
		a, b := New(tt.a), New(tt.b)
		sum := a.Add(b)
		back := sum.Sub(b)
		if back != a {
			t.Errorf("Add/Sub roundtrip failed for a=%d b=%d: got %d want %d", tt.a, tt.b, back, a)
		}
	}
}

func TestNegZero(t *testing.T) {
	if Zero.Neg() != Zero {
		t.Fatalf("-0 should be 0, got %d", Zero.Neg())
	}
	one := New(1)
	if one.Add(one.Neg()) != Zero {
		t.Fatalf("1 + (-1) should be 0")
	}
}

func TestInverse(t *testing.T) {
	for _, v := range []uint64{1, 2, 3, 12345, Modulus - 1} {
		e := New(v)
		inv := e.Inverse()
		if e.Mul(inv) != One {
			t.Errorf("e=%d * inv(e)=%d != 1", v, inv.Uint32())
		}
	}
}

func TestInverseZeroPanics(t *testing.T) {
	defer func() {
		if r := recover(); r == nil {
			t.Fatal("expected panic on inverse of zero")
		}
	}()
	Zero.Inverse()
}

func TestWordRoundtrip(t *testing.T) {
	tests := []uint32{0, 1, 0xFF, 0x1234, 0xDEADBEEF, 0xFFFFFFFF}
	for _, v := range tests {
		w := WordFromU32(v)
		if got := w.U32(); got != v {
			t.Errorf("WordFromU32(%x).U32() = %x, want %x", v, got, v)
		}
		if !w.ValidBytes() {
			t.Errorf("word for %x should have valid byte limbs", v)
		}
	}
}

func TestWordReduceMatchesLittleEndian(t *testing.T) {
	w := WordFromBytes(1, 2, 3, 4)
	want := New(1 + 2*256 + 3*256*256 + 4*256*256*256)
	if got := w.Reduce(); got != want {
		t.Errorf("Reduce() = %v, want %v", got, want)
	}
}
