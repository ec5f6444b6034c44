// Package field implements the BabyBear prime field used as the trace field
// for every chip in this repository, plus the 4-byte Word type chips pack
// register-sized values into.
package field

import "fmt"

// Modulus is the BabyBear prime 2^31 - 2^27 + 1. It has a multiplicative
// subgroup of order 2^27 * 15, smooth enough for FFT-friendly trace domains.
const Modulus uint64 = 2013265921

// Element is a canonical residue mod Modulus, always held in [0, Modulus).
type Element uint32

// Zero and One are the additive and multiplicative identities.
var (
	Zero = Element(0)
	One  = Element(1)
)

// New reduces v mod Modulus and returns the canonical Element.
func New(v uint64) Element {
	return Element(v % Modulus)
}

// FromInt64 reduces a signed value into the field, wrapping negatives around
// the modulus the way the original Rust field crate's `From<i32>` does.
func FromInt64(v int64) Element {
	m := int64(Modulus)
	v %= m
	if v < 0 {
		v += m
	}
	return Element(v)
}

func (e Element) Add(o Element) Element {
	s := uint64(e) + uint64(o)
	if s >= Modulus {
		s -= Modulus
	}
	return Element(s)
}

func (e Element) Sub(o Element) Element {
	if uint64(e) >= uint64(o) {
		return Element(uint64(e) - uint64(o))
	}
	return Element(uint64(e) + Modulus - uint64(o))
}

func (e Element) Neg() Element {
	if e == 0 {
		return 0
	}
	return Element(Modulus - uint64(e))
}

func (e Element) Mul(o Element) Element {
	return Element((uint64(e) * uint64(o)) % Modulus)
}

// Exp computes e^n via square-and-multiply.
func (e Element) Exp(n uint64) Element {
	result := One
	base := e
	for n > 0 {
		if n&1 == 1 {
			result = result.Mul(base)
		}
		base = base.Mul(base)
		n >>= 1
	}
	return result
}

// Inverse returns e^-1 via Fermat's little theorem. Panics on zero, matching
// the field-op gadget's precondition that divisors are never zero on a real
// row (spec's division-by-zero is a programming error, not a recoverable one).
func (e Element) Inverse() Element {
	if e == 0 {
		panic("field: inverse of zero")
	}
	return e.Exp(Modulus - 2)
}

func (e Element) IsZero() bool { return e == 0 }

func (e Element) Uint32() uint32 { return uint32(e) }

func (e Element) String() string { return fmt.Sprintf("%d", uint32(e)) }

// Word is a little-endian 4-byte machine word, one field element per byte.
// Each limb is constrained elsewhere (byte-lookup channel) to lie in [0,256).
type Word [4]Element

// WordFromBytes builds a Word from 4 little-endian bytes.
func WordFromBytes(b0, b1, b2, b3 byte) Word {
	return Word{New(uint64(b0)), New(uint64(b1)), New(uint64(b2)), New(uint64(b3))}
}

// WordFromU32 splits a native uint32 into its little-endian byte limbs.
func WordFromU32(v uint32) Word {
	return WordFromBytes(byte(v), byte(v>>8), byte(v>>16), byte(v>>24))
}

// Reduce recomposes the Word into a single field element: limb0 + 256*limb1
// + 256^2*limb2 + 256^3*limb3.
func (w Word) Reduce() Element {
	base := New(256)
	acc := w[3]
	acc = acc.Mul(base).Add(w[2])
	acc = acc.Mul(base).Add(w[1])
	acc = acc.Mul(base).Add(w[0])
	return acc
}

// U32 reinterprets the Word as a native uint32, assuming canonical byte
// limbs (each < 256); callers that need the range check should run
// memory.WordRangeChecker over the Word first.
func (w Word) U32() uint32 {
	return uint32(w[0].Uint32()) | uint32(w[1].Uint32())<<8 | uint32(w[2].Uint32())<<16 | uint32(w[3].Uint32())<<24
}

// ValidBytes reports whether every limb is a canonical byte value, i.e. the
// Word was built from actual bytes rather than arbitrary field elements.
func (w Word) ValidBytes() bool {
	for _, limb := range w {
		if limb.Uint32() > 0xFF {
			return false
		}
	}
	return true
}

func (w Word) Equal(o Word) bool { return w == o }
