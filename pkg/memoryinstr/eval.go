package memoryinstr

import (
	"github.com/zkrisc/chips/pkg/air"
	"github.com/zkrisc/chips/pkg/bus"
	"github.com/zkrisc/chips/pkg/bytelookup"
	"github.com/zkrisc/chips/pkg/field"
	"github.com/zkrisc/chips/pkg/memory"
)

func recomposeWord(b air.Builder, bytes [4]field.Element) air.Value {
	c256 := b.Const(field.New(256))
	acc := b.Const(bytes[3])
	acc = acc.Mul(c256).Add(b.Const(bytes[2]))
	acc = acc.Mul(c256).Add(b.Const(bytes[1]))
	acc = acc.Mul(c256).Add(b.Const(bytes[0]))
	return acc
}

func constVal(b air.Builder, v field.Element) air.Value { return b.Const(v) }

// Eval asserts every invariant spec.md §4.3.2 lists for a memory
// instruction row: selector/offset one-hot-ness, address formation,
// alignment (which is what makes a misaligned SW row unsatisfiable), the
// memory-access gadget, byte decomposition consistency, unsigned
// extraction, sign extension, x0-destination gating, and the
// instruction-bus receive.
func Eval(b air.Builder, col Columns) {
	isReal := constVal(b, col.IsReal)
	gated := b.When(isReal)

	sel := func(o Opcode) air.Value { return constVal(b, col.Selectors[o]) }
	off := func(i int) air.Value { return constVal(b, col.OffsetFlags[i]) }

	selSum := constVal(b, field.Zero)
	for _, s := range col.Selectors {
		gated.AssertBool(constVal(b, s))
		selSum = selSum.Add(constVal(b, s))
	}
	gated.AssertEq(selSum, constVal(b, field.One))

	offSum := constVal(b, field.Zero)
	for _, f := range col.OffsetFlags {
		gated.AssertBool(constVal(b, f))
		offSum = offSum.Add(constVal(b, f))
	}
	gated.AssertEq(offSum, constVal(b, field.One))

	// Address formation (spec.md §4.3.2 item 2): addr_word is a genuine
	// register-plus-immediate addition, asserted here and backed by a
	// synthetic ADD claim against the instruction bus (balanced elsewhere by
	// the ALU chip), with pc = UNUSED_PC marking it as not a real fetch.
	gated.AssertEq(constVal(b, col.AddrWord), constVal(b, col.OpBValue).Add(constVal(b, col.OpCValue)))
	gated.SendInstruction(bus.InstructionClaim{
		Shard: uint32(col.Shard.Uint32()), Clk: uint32(col.Clk.Uint32()),
		PC: UnusedPC, PCNext: UnusedPC,
		Opcode: field.New(uint64(ADD)),
		Op1:    col.AddrWord, Op2: col.OpBValue, Op3: col.OpCValue,
		Mult: field.One,
	})

	// addr_aligned ties back to addr_word through the one-hot offset flags:
	// addr_word == addr_aligned + offset, offset = sum(i * offset_flags[i]).
	offsetVal := constVal(b, field.Zero)
	for i := 0; i < 4; i++ {
		offsetVal = offsetVal.Add(off(i).Mul(constVal(b, field.New(uint64(i)))))
	}
	gated.AssertEq(constVal(b, col.AddrWord), constVal(b, col.AddrAligned).Add(offsetVal))

	// Alignment decomposition (spec.md §4.3.2 item 4): addr_aligned's own
	// least-significant byte recomposes from a 6-bit witness scaled by 4,
	// which algebraically forces that byte's (and so addr_aligned's) low
	// two bits to 0 — the one-hot offset flags alone only pin addr_word's
	// residue, never addr_aligned's actual bit pattern.
	gated.AssertEq(recomposeWord(b, col.AddrAlignedBytes), constVal(b, col.AddrAligned))
	for i := 0; i < 4; i++ {
		gated.SendByteLookup(bytelookup.Range(uint32(col.Shard.Uint32()), 0, col.AddrAlignedBytes[i]))
	}
	lsbRecomp := constVal(b, field.Zero)
	pow := uint64(1)
	for i := 0; i < 6; i++ {
		gated.AssertBool(constVal(b, col.AddrAlignedLeastSigByteDecomp[i]))
		lsbRecomp = lsbRecomp.Add(constVal(b, col.AddrAlignedLeastSigByteDecomp[i]).Mul(constVal(b, field.New(pow))))
		pow *= 2
	}
	gated.AssertEq(constVal(b, col.AddrAlignedBytes[0]), lsbRecomp.Mul(constVal(b, field.New(4))))

	// Alignment: half-word ops only ever select offset 0 or 2; word ops
	// only ever select offset 0. A row claiming SW (or LW/LH/LHU/SH) with
	// an odd or nonzero-for-word offset flag set is rejected here — this is
	// what makes "SW misaligned" unsatisfiable.
	halfSel := sel(LH).Add(sel(LHU)).Add(sel(SH))
	gated.When(halfSel).AssertZero(off(1))
	gated.When(halfSel).AssertZero(off(3))
	wordSel := sel(LW).Add(sel(SW))
	gated.When(wordSel).AssertZero(off(1))
	gated.When(wordSel).AssertZero(off(2))
	gated.When(wordSel).AssertZero(off(3))

	// addr_word passes a valid field-word check (spec.md §4.3.2 item 3).
	col.AddrWordChecker.Eval(b, isReal)

	// Byte decomposition of the memory word before/after this access must
	// recompose to the witnessed access values.
	gated.AssertEq(recomposeWord(b, col.MemValueBytes), constVal(b, col.MemAccess.PrevValue))
	gated.AssertEq(recomposeWord(b, col.NewValueBytes), constVal(b, col.MemAccess.Value))
	for i := 0; i < 4; i++ {
		gated.SendByteLookup(bytelookup.Range(uint32(col.Shard.Uint32()), 0, col.MemValueBytes[i]))
		gated.SendByteLookup(bytelookup.Range(uint32(col.Shard.Uint32()), 0, col.NewValueBytes[i]))
	}

	memory.EvalAccess(b, uint32(col.Shard.Uint32()), uint32(col.Clk.Uint32()), col.AddrAligned, col.MemAccess, isReal)

	// Unsigned extraction: byte ops read the one-hot-selected byte; half-word
	// ops read the selected 2-byte lane; word ops read the whole word.
	byteSel := sel(LB).Add(sel(LBU))
	byteVal := constVal(b, field.Zero)
	for i := 0; i < 4; i++ {
		byteVal = byteVal.Add(off(i).Mul(constVal(b, col.MemValueBytes[i])))
	}
	gated.When(byteSel).AssertEq(constVal(b, col.UnsignedMemVal), byteVal)

	halfLoadSel := sel(LH).Add(sel(LHU))
	c256 := constVal(b, field.New(256))
	lowHalf := constVal(b, col.MemValueBytes[0]).Add(constVal(b, col.MemValueBytes[1]).Mul(c256))
	highHalf := constVal(b, col.MemValueBytes[2]).Add(constVal(b, col.MemValueBytes[3]).Mul(c256))
	gated.When(halfLoadSel.Mul(off(0))).AssertEq(constVal(b, col.UnsignedMemVal), lowHalf)
	gated.When(halfLoadSel.Mul(off(2))).AssertEq(constVal(b, col.UnsignedMemVal), highHalf)

	gated.When(sel(LW)).AssertEq(constVal(b, col.UnsignedMemVal), recomposeWord(b, col.MemValueBytes))

	// Sign extension, only meaningful for LB/LH: the most-significant-byte
	// bit decomposition must recompose to that byte, and its top bit is the
	// sign.
	signedSel := sel(LB).Add(sel(LH))
	bitSum := constVal(b, field.Zero)
	pow = 1
	for i := 0; i < 8; i++ {
		gated.AssertBool(constVal(b, col.MostSigByteBits[i]))
		bitSum = bitSum.Add(constVal(b, col.MostSigByteBits[i]).Mul(constVal(b, field.New(pow))))
		pow *= 2
	}
	gated.When(sel(LB)).AssertEq(bitSum, byteVal)
	gated.When(sel(LH)).AssertEq(bitSum, highOrLowByte(b, off, col))

	// op_a_0 (destination-is-x0) gating: a load to x0 leaves op_a_value
	// entirely unconstrained (spec.md §4.3.2 item 7, testable property #3),
	// so mem_value_is_neg/mem_value_is_pos and every load-side op_a_value
	// assertion below are scaled by notX0 = (1 - op_a_0); the store-side
	// op_a_value assertion is not.
	gated.AssertBool(constVal(b, col.OpA0))
	notX0 := constVal(b, field.One).Sub(constVal(b, col.OpA0))

	gated.When(signedSel.Mul(notX0)).AssertEq(constVal(b, col.MemValueIsNeg), constVal(b, col.MostSigByteBits[7]))

	loadSel := byteSel.Add(halfLoadSel).Add(sel(LW))
	// A load leaves memory unchanged: value == prev_value.
	gated.When(loadSel).AssertEq(constVal(b, col.MemAccess.Value), constVal(b, col.MemAccess.PrevValue))
	isPosExpected := loadSel.Sub(signedSel.Mul(constVal(b, col.MemValueIsNeg)))
	gated.When(notX0).AssertEq(constVal(b, col.MemValueIsPos), isPosExpected)

	// op_a_value: unsigned pass-through for unsigned/word loads, sign
	// extended via a synthetic SUB claim for signed negative loads, or the
	// stored register's raw value for stores.
	unsignedSel := sel(LBU).Add(sel(LHU)).Add(sel(LW))
	gated.When(unsignedSel.Mul(notX0)).AssertEq(constVal(b, col.OpAValue), constVal(b, col.UnsignedMemVal))

	onesMinusNeg := constVal(b, field.One).Sub(constVal(b, col.MemValueIsNeg))
	posSignedSel := signedSel.Mul(onesMinusNeg)
	gated.When(posSignedSel.Mul(notX0)).AssertEq(constVal(b, col.OpAValue), constVal(b, col.UnsignedMemVal))

	storeSel := sel(SB).Add(sel(SH)).Add(sel(SW))
	gated.When(storeSel).AssertEq(constVal(b, col.OpAValue), constVal(b, col.StoreValue))

	negByteWidth := field.New(0x100)
	negHalfWidth := field.New(0x10000)
	negLBSel := sel(LB).Mul(constVal(b, col.MemValueIsNeg)).Mul(notX0)
	gated.When(negLBSel).AssertEq(constVal(b, col.OpAValue), constVal(b, col.UnsignedMemVal).Sub(constVal(b, negByteWidth)))
	negLHSel := sel(LH).Mul(constVal(b, col.MemValueIsNeg)).Mul(notX0)
	gated.When(negLHSel).AssertEq(constVal(b, col.OpAValue), constVal(b, col.UnsignedMemVal).Sub(constVal(b, negHalfWidth)))

	gated.When(negLBSel).SendInstruction(bus.InstructionClaim{
		Shard: uint32(col.Shard.Uint32()), Clk: uint32(col.Clk.Uint32()),
		Opcode: field.New(uint64(SUB)), Op1: col.OpAValue, Op2: col.UnsignedMemVal, Op3: negByteWidth,
		Mult: field.One,
	})
	gated.When(negLHSel).SendInstruction(bus.InstructionClaim{
		Shard: uint32(col.Shard.Uint32()), Clk: uint32(col.Clk.Uint32()),
		Opcode: field.New(uint64(SUB)), Op1: col.OpAValue, Op2: col.UnsignedMemVal, Op3: negHalfWidth,
		Mult: field.One,
	})

	// is_memory_store carries the store-selector sum onto the bus claim as
	// its own field, the way spec.md §6's tuple keeps it distinct from the
	// opcode id itself.
	gated.AssertEq(constVal(b, col.IsMemoryStore), storeSel)

	// pc_next is DEFAULT_PC_INC past pc for every row this chip handles:
	// none of LB..SW branch.
	gated.AssertEq(constVal(b, col.PCNext), constVal(b, col.PC).Add(constVal(b, field.New(DefaultPCInc))))

	opcodeVal := computeOpcode(col)
	gated.ReceiveInstruction(bus.InstructionClaim{
		Shard: uint32(col.Shard.Uint32()), Clk: uint32(col.Clk.Uint32()),
		PC: uint32(col.PC.Uint32()), PCNext: uint32(col.PCNext.Uint32()),
		Opcode: opcodeVal, Funct: field.Zero,
		Op1: col.OpAValue, Op2: col.OpBValue, Op3: col.OpCValue,
		RdIsX0: col.OpA0, Nonce: col.Nonce, IsMemoryStore: col.IsMemoryStore,
		Selector: col.IsReal,
		Mult:     field.One,
	})
}

// highOrLowByte returns the witnessed most-significant byte of the loaded
// half-word, selected by which offset (0 or 2) this row's half-word load
// used.
func highOrLowByte(b air.Builder, off func(int) air.Value, col Columns) air.Value {
	lowMSB := constVal(b, col.MemValueBytes[1])
	highMSB := constVal(b, col.MemValueBytes[3])
	return off(0).Mul(lowMSB).Add(off(2).Mul(highMSB))
}

func computeOpcode(col Columns) field.Element {
	for i, s := range col.Selectors {
		if !s.IsZero() {
			return field.New(uint64(i))
		}
	}
	return field.Zero
}
