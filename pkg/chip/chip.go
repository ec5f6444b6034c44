// Package chip defines the uniform contract every chip in this repository
// satisfies, and a Driver that runs GenerateTrace across chips in parallel.
// The contract mirrors spec.md §4.5's table (name/width/generate_trace/
// eval/included); the driver's shape is adapted from the teacher's
// pkg/search.WorkerPool, retargeted from open-ended search tasks to
// chunked, errgroup-parallel trace generation jobs. The only error a run
// returns is the context's, when it is cancelled before a chunk starts; the
// per-event generator has no error return.
package chip

import (
	"context"
	"sync/atomic"

	"golang.org/x/sync/errgroup"

	"github.com/zkrisc/chips/pkg/air"
	"github.com/zkrisc/chips/pkg/bytelookup"
	"github.com/zkrisc/chips/pkg/field"
)

// Row is one row of a chip's trace: field elements in column order.
type Row []field.Element

// Chip is the uniform contract every constraint-system component in this
// repository satisfies: nameable and sizeable for trace layout, able to
// turn one of its own events into a row of columns, able to self-check
// those columns under any Builder instantiation, and able to report
// whether it has any work at all for a given batch of events (a shard with
// no memory instructions contributes no MemoryInstructions rows, and a
// driver registering several chips shouldn't pad an empty one). Event and
// Col are chip-specific; a driver holding several chips at once erases
// them behind this interface per chip rather than sharing one
// instantiation, since Go generics can't express a slice of differently
// instantiated Chip values directly.
type Chip[Event any, Col any] interface {
	Name() string
	Width() int
	GenerateTrace(sink *bytelookup.Sink, ev Event) Col
	Eval(b air.Builder, col Col)
	Included(events []Event) bool
}

// Trace is a chip's full row-major trace, padded to the next power of two
// the way every chip in this repository must (so the prover's FFT domain
// lines up); Width is the number of columns every Row has.
type Trace struct {
	Width int
	Rows  []Row
}

func NextPowerOfTwo(n int) int {
	if n <= 1 {
		return 1
	}
	p := 1
	for p < n {
		p <<= 1
	}
	return p
}

// Driver holds the chunk size, concurrency limit and progress counters that
// RunChunked uses to generate one chip's rows, chunking that chip's events
// across goroutines and merging their byte-lookup sinks once every goroutine
// completes — mirroring spec.md §5's requirement that the merge be
// order-independent and lock-free on the hot path. One Driver can be reused
// across RunChunked calls for several chips.
type Driver struct {
	ChunkSize    int
	Concurrency  int
	completed    atomic.Int64
	totalEvents  atomic.Int64
}

func NewDriver(chunkSize, concurrency int) *Driver {
	if chunkSize <= 0 {
		chunkSize = 256
	}
	if concurrency <= 0 {
		concurrency = 4
	}
	return &Driver{ChunkSize: chunkSize, Concurrency: concurrency}
}

// Progress returns (rows completed, rows submitted) across every RunChunked
// call made with this Driver so far — the parallel analogue of the teacher's
// WorkerPool counters, read with plain atomic loads rather than a mutex.
func (d *Driver) Progress() (done, total int64) {
	return d.completed.Load(), d.totalEvents.Load()
}

// RunChunked executes gen over events in ChunkSize-sized slices, up to
// Concurrency goroutines at a time, merging every chunk's local
// byte-lookup claims into one Sink. Rows come back in the same order as
// events regardless of how chunks interleave, since each chunk writes into
// its own index range of one pre-sized output slice.
func RunChunked[Event any](ctx context.Context, d *Driver, events []Event, gen func(ev Event, sink *bytelookup.Sink) Row) ([]Row, *bytelookup.Sink, error) {
	d.totalEvents.Add(int64(len(events)))
	rows := make([]Row, len(events))
	merged := bytelookup.NewSink()

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(d.Concurrency)

	chunk := d.ChunkSize
	var chunkSinks []*bytelookup.Sink
	numChunks := (len(events) + chunk - 1) / chunk
	if numChunks == 0 {
		return rows, merged, nil
	}
	chunkSinks = make([]*bytelookup.Sink, numChunks)

	for c := 0; c < numChunks; c++ {
		c := c
		start := c * chunk
		end := start + chunk
		if end > len(events) {
			end = len(events)
		}
		g.Go(func() error {
			select {
			case <-gctx.Done():
				return gctx.Err()
			default:
			}
			localSink := bytelookup.NewSink()
			for i := start; i < end; i++ {
				rows[i] = gen(events[i], localSink)
				d.completed.Add(1)
			}
			chunkSinks[c] = localSink
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, nil, err
	}
	for _, s := range chunkSinks {
		s.Merge(merged)
	}
	return rows, merged, nil
}
