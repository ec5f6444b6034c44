// Package weierstrass implements the point-doubling precompile chip: given
// an affine point (x, y) on a short Weierstrass curve y^2 = x^3 + a*x + b,
// it witnesses the doubled point (x', y') via the standard tangent-line
// construction, chaining eleven field-op gadget instances exactly as the
// original sp1 WeierstrassDoubleAssignChip does.
package weierstrass

import (
	"math/big"

	"github.com/consensys/gnark-crypto/ecc/bls12-381/fp"
	bn254fp "github.com/consensys/gnark-crypto/ecc/bn254/fp"
	secpfp "github.com/consensys/gnark-crypto/ecc/secp256k1/fp"
)

// CurveID names the supported curves; each maps to a distinct syscall id in
// the instruction/syscall bus, matching sp1's per-curve precompile dispatch.
type CurveID uint8

const (
	Secp256k1 CurveID = iota
	BN254
	BLS12381
)

// SyscallID returns the syscall identifier this curve's double-precompile
// is dispatched under. Values are placeholders distinct per curve; the
// actual numeric encoding is an external-interface concern owned by the
// out-of-scope executor/ISA definition.
func (c CurveID) SyscallID() uint32 {
	switch c {
	case Secp256k1:
		return 0x00_01_01_2C
	case BN254:
		return 0x00_01_01_5C
	case BLS12381:
		return 0x00_01_01_8C
	default:
		panic("weierstrass: unknown curve id")
	}
}

func (c CurveID) String() string {
	switch c {
	case Secp256k1:
		return "Secp256k1"
	case BN254:
		return "Bn254"
	case BLS12381:
		return "Bls12381"
	default:
		return "Unknown"
	}
}

// Parameters holds the concrete curve constants the double chip needs: the
// base-field modulus, the two Weierstrass coefficients, and the limb count
// that modulus packs into.
type Parameters struct {
	ID       CurveID
	Modulus  *big.Int
	A, B     *big.Int
	NumLimbs int
}

// All three curves this repository supports have a == 0, which is exactly
// why spec.md's padding-row design note matters: a padding row's (x,y) =
// (0,0) point makes 2y == 0 regardless of a, so the chip must gate its
// division-by-2y identity on is_real rather than relying on "a" to save it.

// ParametersFor returns the real base-field modulus (sourced from
// gnark-crypto, not hand-copied) and curve coefficients for id.
func ParametersFor(id CurveID) Parameters {
	switch id {
	case Secp256k1:
		return Parameters{
			ID:       id,
			Modulus:  secpfp.Modulus(),
			A:        big.NewInt(0),
			B:        big.NewInt(7),
			NumLimbs: 32,
		}
	case BN254:
		return Parameters{
			ID:       id,
			Modulus:  bn254fp.Modulus(),
			A:        big.NewInt(0),
			B:        big.NewInt(3),
			NumLimbs: 32,
		}
	case BLS12381:
		return Parameters{
			ID:      id,
			Modulus: fp.Modulus(),
			A:       big.NewInt(0),
			B:       big.NewInt(4),
			// bls12-381's base field is 381 bits; 48 bytes holds it.
			NumLimbs: 48,
		}
	default:
		panic("weierstrass: unknown curve id")
	}
}
