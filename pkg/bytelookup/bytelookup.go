// Package bytelookup models the byte-lookup channel every chip feeds: a
// multiset of (op, a, b, c) claims later checked against a canonical byte
// table by a global lookup argument (out of scope here). Claims are order
// independent, so generation can shard work across goroutines and merge
// local sinks without locking on the hot path.
package bytelookup

import "github.com/zkrisc/chips/pkg/field"

// Op identifies which byte relation a claim asserts.
type Op uint8

const (
	OpRange Op = iota // a in [0, 256)
	OpU16Range
	OpAnd
	OpOr
	OpXor
)

// Claim is one row's contribution to the byte-lookup multiset: shard/channel
// identify which execution shard and which of the (possibly several)
// parallel lookup channels the claim belongs to, mirroring the original's
// per-channel byte argument.
type Claim struct {
	Shard   uint32
	Channel uint8
	Op      Op
	A, B, C field.Element
}

// Range returns a claim asserting v is a valid byte (0..255).
func Range(shard uint32, channel uint8, v field.Element) Claim {
	return Claim{Shard: shard, Channel: channel, Op: OpRange, A: v}
}

// U16Range returns a claim asserting v is a valid 16-bit value.
func U16Range(shard uint32, channel uint8, v field.Element) Claim {
	return Claim{Shard: shard, Channel: channel, Op: OpU16Range, A: v}
}

// And/Or/Xor assert that c is the bitwise combination of bytes a and b.
func And(shard uint32, channel uint8, a, b, c field.Element) Claim {
	return Claim{Shard: shard, Channel: channel, Op: OpAnd, A: a, B: b, C: c}
}
func Or(shard uint32, channel uint8, a, b, c field.Element) Claim {
	return Claim{Shard: shard, Channel: channel, Op: OpOr, A: a, B: b, C: c}
}
func Xor(shard uint32, channel uint8, a, b, c field.Element) Claim {
	return Claim{Shard: shard, Channel: channel, Op: OpXor, A: a, B: b, C: c}
}

// Sink accumulates claims emitted while generating one worker's share of a
// trace. It carries no lock: callers give each goroutine its own Sink and
// Merge the results once the goroutine finishes, exactly as the original
// implementation accumulates per-thread byte events before a single
// end-of-shard merge.
type Sink struct {
	claims []Claim
}

func NewSink() *Sink { return &Sink{} }

func (s *Sink) Add(c Claim) { s.claims = append(s.claims, c) }

func (s *Sink) Claims() []Claim { return s.claims }

func (s *Sink) Len() int { return len(s.claims) }

// Merge appends this sink's claims onto dst. Multiset semantics mean the
// resulting order never matters to any consumer.
func (s *Sink) Merge(dst *Sink) {
	dst.claims = append(dst.claims, s.claims...)
}
