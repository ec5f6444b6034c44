// Package bus models the cross-chip communication buses referenced in each
// chip's Eval: the instruction-fetch/decode bus, the syscall bus, and the
// (row-local) memory-access bus. The real balancing argument that matches
// every send against a receive lives in the out-of-scope global prover; this
// package only gives chips a typed way to describe their claims, and gives
// chip-level tests a Ledger to record and inspect what a single chip emits.
package bus

import "github.com/zkrisc/chips/pkg/field"

// InstructionClaim describes one row's claim against the instruction-fetch
// bus: "at this shard/clk/pc, the decoded instruction has this opcode and
// these operands," with an associated signed multiplicity (+1 to send,
// conceptually -1 for the complementary receive). The field set mirrors the
// tuple spec.md §6 requires every claim to carry: (pc_cur, pc_next,
// opcode_id, funct, rd_val, rs1_val, rs2_val, rd_is_x0, nonce,
// is_memory_store, selector).
type InstructionClaim struct {
	Shard, Clk uint32
	PC, PCNext uint32
	Opcode     field.Element
	Funct      field.Element
	Op1, Op2   field.Element // rd_val, rs1_val
	Op3        field.Element // rs2_val
	RdIsX0     field.Element
	Nonce      field.Element
	IsMemoryStore field.Element
	Selector   field.Element
	Mult       field.Element
}

// SyscallClaim describes a precompile invocation: shard/clk/syscall-id plus
// the two pointer arguments sp1's syscall ABI passes in registers.
type SyscallClaim struct {
	Shard, Clk uint32
	SyscallID  field.Element
	Arg1, Arg2 field.Element
	Mult       field.Element
}

// MemoryClaim describes one memory cell's consistency-log contribution; see
// pkg/memory for the gadget that builds these.
type MemoryClaim struct {
	Shard, Clk  uint32
	Addr        uint32
	Value       field.Element
	IsWrite     bool
	Mult        field.Element
}

// Ledger is an append-only record of claims a single chip emitted while
// evaluating one or more rows. It exists purely so chip tests can assert
// "this row sent exactly this instruction claim" without standing up a full
// cross-chip balancing prover.
type Ledger struct {
	Instructions []InstructionClaim
	Syscalls     []SyscallClaim
	Memory       []MemoryClaim
}

func NewLedger() *Ledger { return &Ledger{} }

func (l *Ledger) RecordInstruction(c InstructionClaim) { l.Instructions = append(l.Instructions, c) }
func (l *Ledger) RecordSyscall(c SyscallClaim)         { l.Syscalls = append(l.Syscalls, c) }
func (l *Ledger) RecordMemory(c MemoryClaim)            { l.Memory = append(l.Memory, c) }
