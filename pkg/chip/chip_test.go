package chip

import (
	"context"
	"testing"

	"github.com/zkrisc/chips/pkg/bytelookup"
	"github.com/zkrisc/chips/pkg/field"
)

func TestRunChunkedPreservesOrderAndMergesClaims(t *testing.T) {
	events := make([]int, 1000)
	for i := range events {
		events[i] = i
	}
	d := NewDriver(37, 8) // an awkward chunk size on purpose, to exercise the tail chunk
	rows, sink, err := RunChunked(context.Background(), d, events, func(ev int, s *bytelookup.Sink) Row {
		s.Add(bytelookup.Range(0, 0, field.New(uint64(ev%256))))
		return Row{field.New(uint64(ev))}
	})
	if err != nil {
		t.Fatalf("RunChunked returned error: %v", err)
	}
	for i, r := range rows {
		if r[0] != field.New(uint64(i)) {
			t.Fatalf("row %d out of order: got %v", i, r[0])
		}
	}
	if sink.Len() != len(events) {
		t.Fatalf("expected %d merged byte claims, got %d", len(events), sink.Len())
	}
	done, total := d.Progress()
	if done != int64(len(events)) || total != int64(len(events)) {
		t.Fatalf("progress = (%d,%d), want (%d,%d)", done, total, len(events), len(events))
	}
}

func TestNextPowerOfTwo(t *testing.T) {
	tests := map[int]int{0: 1, 1: 1, 2: 2, 3: 4, 4: 4, 5: 8, 1000: 1024}
	for in, want := range tests {
		if got := NextPowerOfTwo(in); got != want {
			t.Errorf("NextPowerOfTwo(%d) = %d, want %d", in, got, want)
		}
	}
}
