// Package memory implements the memory-access gadget shared by every chip
// that touches memory: the (shard, clk, addr, prev_value, value)
// consistency-log contribution described in spec.md §4.2, plus the word
// range checker that confirms a 4-byte word's numeric value is a valid
// field element.
package memory

import (
	"github.com/zkrisc/chips/pkg/air"
	"github.com/zkrisc/chips/pkg/bus"
	"github.com/zkrisc/chips/pkg/bytelookup"
	"github.com/zkrisc/chips/pkg/field"
)

// AccessCols is the witness a chip carries for one memory cell touched on a
// given row: the value before this access and the value this access leaves
// behind (equal for a read, possibly different for a write).
//
// Each value is the word's base-256 recomposition (field.Word.Reduce())
// packed into one field element, rather than four separate byte-limb
// elements. That is exact for any word whose numeric value is below
// field.Modulus and only an approximation above it (the reduction wraps);
// callers that need an exact consistency log for the full uint32 range
// should carry the four byte limbs instead, the way chips that care about
// byte-level content (see pkg/memoryinstr) already do alongside this type.
type AccessCols struct {
	PrevValue field.Element
	Value     field.Element
}

// Record is the executor-shaped input Populate consumes: the memory
// event for one access, prior to being split across chip columns.
type Record struct {
	Shard, Clk  uint32
	AddrAligned uint32
	PrevValue   field.Element
	Value       field.Element
}

// Populate fills AccessCols from a Record. Trivial today (the gadget is a
// pure relabeling), kept as its own step because real executors attach
// additional per-access bookkeeping (timestamps, clock deltas) here.
func Populate(r Record) AccessCols {
	return AccessCols{PrevValue: r.PrevValue, Value: r.Value}
}

// EvalAccess asserts the two-tuple memory consistency-log claims described
// in spec.md §4.2: a negative (removing) claim for (addr, prev_value) at the
// access's clk, and a positive (inserting) claim for (addr, value) at clk+1,
// both gated by isReal so padding rows contribute nothing to the log. These
// travel on the dedicated memory bus (bus.MemoryClaim), not the instruction
// bus — the two are balanced by separate external accountants (spec.md §6),
// so conflating them would make a real memory access indistinguishable, on
// the wire, from an instruction fetch.
func EvalAccess(b air.Builder, shard, clk uint32, addr field.Element, cols AccessCols, isReal air.Value) {
	gated := b.When(isReal)

	addrU32 := addr.Uint32()
	gated.SendMemory(bus.MemoryClaim{
		Shard: shard, Clk: clk,
		Addr:    addrU32,
		Value:   cols.PrevValue,
		IsWrite: false,
		Mult:    field.One,
	})
	gated.ReceiveMemory(bus.MemoryClaim{
		Shard: shard, Clk: clk + 1,
		Addr:    addrU32,
		Value:   cols.Value,
		IsWrite: true,
		Mult:    field.One,
	})
}

// WordRangeChecker witnesses that a Word's numeric value (as a little-endian
// base-256 integer) is strictly less than field.Modulus, via a most-
// significant-byte-first lexicographic comparison against the modulus's own
// byte decomposition — the same shape as the original's
// BabyBearWordRangeChecker. Needed because a native 4-byte word can exceed
// the ~31-bit field modulus, so "this word denotes a valid field element"
// is a nontrivial constraint, not a tautology.
type WordRangeChecker struct {
	// ByteEqual[i] witnesses word byte i (from the most significant byte)
	// equals the modulus's byte i.
	ByteEqual [4]field.Element
	// ByteLess witnesses, among the most-significant bytes compared so far,
	// that the word is already known to be less than the modulus.
	ByteLess [4]field.Element
}

func modulusBytesBE() [4]byte {
	m := uint32(field.Modulus)
	return [4]byte{byte(m >> 24), byte(m >> 16), byte(m >> 8), byte(m)}
}

// PopulateWordRangeChecker computes the witness for w by comparing its
// bytes (most significant first) against the modulus's bytes.
func PopulateWordRangeChecker(sink *bytelookup.Sink, shard uint32, channel uint8, w field.Word) WordRangeChecker {
	wordBytesBE := [4]byte{byte(w[3].Uint32()), byte(w[2].Uint32()), byte(w[1].Uint32()), byte(w[0].Uint32())}
	modBytes := modulusBytesBE()

	var out WordRangeChecker
	lessSoFar := false
	prefixEqual := true
	for i := 0; i < 4; i++ {
		eq := wordBytesBE[i] == modBytes[i]
		out.ByteEqual[i] = boolElem(eq)
		if prefixEqual && wordBytesBE[i] < modBytes[i] {
			lessSoFar = true
		}
		prefixEqual = prefixEqual && eq
		out.ByteLess[i] = boolElem(lessSoFar)
		if sink != nil {
			sink.Add(bytelookup.Range(shard, channel, field.New(uint64(wordBytesBE[i]))))
		}
	}
	return out
}

func boolElem(b bool) field.Element {
	if b {
		return field.One
	}
	return field.Zero
}

// IsValid reports whether the witness demonstrates word < modulus: the
// ByteLess flags are monotone (set as soon as a strictly-lesser byte is
// found, scanning most-significant first), so the final flag alone answers
// the question.
func (w WordRangeChecker) IsValid() bool {
	return !w.ByteLess[3].IsZero()
}

// Eval asserts the byte-equal/byte-less witness is internally consistent:
// each ByteLess flag is boolean, monotone (once set it would stay set for
// later, less-significant positions, though those aren't tracked further),
// and the final ByteLess[3] flag is exactly what GenerateTrace must set to 1
// on every real row (a word that equals the modulus is never a legal
// element, so the DAG that produces WordRangeChecker witnesses must not be
// able to reach all-equal).
func (w WordRangeChecker) Eval(b air.Builder, isReal air.Value) {
	gated := b.When(isReal)
	for i := 0; i < 4; i++ {
		gated.AssertBool(b.Const(w.ByteEqual[i]))
		gated.AssertBool(b.Const(w.ByteLess[i]))
	}
	for i := 1; i < 4; i++ {
		gated.AssertZero(b.Const(w.ByteLess[i-1]).Mul(b.Const(field.One).Sub(b.Const(w.ByteLess[i]))))
	}
	gated.AssertEq(b.Const(w.ByteLess[3]), b.Const(field.One))
}
