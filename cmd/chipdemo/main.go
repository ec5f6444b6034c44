// Command chipdemo exercises the chip framework end to end over synthetic
// events. It is a test harness, not a prover front end: no proof is
// produced, and there is no executor behind it — every event it feeds a
// chip is generated in-process.
package main

import (
	"context"
	"fmt"
	"math/big"
	"math/rand"
	"os"

	"github.com/spf13/cobra"

	"github.com/zkrisc/chips/pkg/air"
	"github.com/zkrisc/chips/pkg/bytelookup"
	"github.com/zkrisc/chips/pkg/chip"
	"github.com/zkrisc/chips/pkg/field"
	"github.com/zkrisc/chips/pkg/memoryinstr"
	"github.com/zkrisc/chips/pkg/weierstrass"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "chipdemo",
		Short: "Generate and self-check synthetic chip traces",
	}

	var numEvents int
	var numWorkers int
	var seed int64

	memCmd := &cobra.Command{
		Use:   "memory",
		Short: "Generate a memory-instructions trace and self-check every row",
		RunE: func(cmd *cobra.Command, args []string) error {
			events := randomMemoryEvents(seed, numEvents)
			fmt.Printf("Memory-instructions chip\n  events: %d\n  workers: %d\n\n", len(events), numWorkers)

			d := chip.NewDriver(64, numWorkers)
			rows, sink, err := chip.RunChunked(context.Background(), d, events, func(ev memoryinstr.Event, s *bytelookup.Sink) chip.Row {
				col := memoryinstr.GenerateTrace(s, ev)
				return columnsToRow(col)
			})
			if err != nil {
				return fmt.Errorf("generating memory-instructions trace: %w", err)
			}

			violations := 0
			for i, ev := range events {
				col := memoryinstr.GenerateTrace(nil, ev)
				b := air.NewCheckBuilder(i == 0, i == len(events)-1, nil, nil)
				memoryinstr.Eval(b, col)
				violations += len(b.Violations())
			}

			fmt.Printf("rows generated: %d\n", len(rows))
			fmt.Printf("byte-lookup claims: %d\n", sink.Len())
			fmt.Printf("violations: %d\n", violations)
			if violations != 0 {
				return fmt.Errorf("self-check found %d constraint violations", violations)
			}
			return nil
		},
	}
	memCmd.Flags().IntVar(&numEvents, "events", 256, "number of synthetic memory events to generate")
	memCmd.Flags().IntVar(&numWorkers, "workers", 4, "number of parallel trace-generation workers")
	memCmd.Flags().Int64Var(&seed, "seed", 1, "PRNG seed for synthetic event generation")

	var curveName string
	weierstrassCmd := &cobra.Command{
		Use:   "weierstrass",
		Short: "Double a curve point and self-check the resulting trace row",
		RunE: func(cmd *cobra.Command, args []string) error {
			curve, err := parseCurve(curveName)
			if err != nil {
				return err
			}
			p := weierstrass.ParametersFor(curve)
			x := new(big.Int).Mod(big.NewInt(12345), p.Modulus)
			y := new(big.Int).Mod(big.NewInt(67890), p.Modulus)

			sink := bytelookup.NewSink()
			ev := weierstrass.Event{Shard: 1, Clk: 4, PPtr: 0x4000, PX: x, PY: y, Curve: curve}
			col := weierstrass.GenerateTrace(sink, ev, 0)

			b := air.NewCheckBuilder(true, true, nil, nil)
			weierstrass.Eval(b, curve, col)
			violations := b.Violations()

			fmt.Printf("%s: doubled a synthetic point, %d byte-lookup claims emitted\n", weierstrass.Name(curve), sink.Len())
			fmt.Printf("violations: %d\n", len(violations))
			if len(violations) != 0 {
				return fmt.Errorf("self-check found %d constraint violations", len(violations))
			}
			return nil
		},
	}
	weierstrassCmd.Flags().StringVar(&curveName, "curve", "secp256k1", "curve to exercise: secp256k1, bn254, bls12-381")

	rootCmd.AddCommand(memCmd, weierstrassCmd)
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func parseCurve(name string) (weierstrass.CurveID, error) {
	switch name {
	case "secp256k1":
		return weierstrass.Secp256k1, nil
	case "bn254":
		return weierstrass.BN254, nil
	case "bls12-381", "bls12381":
		return weierstrass.BLS12381, nil
	default:
		return 0, fmt.Errorf("unknown curve %q", name)
	}
}

func randomMemoryEvents(seed int64, n int) []memoryinstr.Event {
	rng := rand.New(rand.NewSource(seed))
	ops := []memoryinstr.Opcode{
		memoryinstr.LB, memoryinstr.LBU, memoryinstr.LH, memoryinstr.LHU, memoryinstr.LW,
		memoryinstr.SB, memoryinstr.SH, memoryinstr.SW,
	}
	events := make([]memoryinstr.Event, n)
	for i := range events {
		op := ops[rng.Intn(len(ops))]
		// Keep every address below the field modulus so it passes the
		// address word's range check.
		base := uint32(rng.Int63n(int64(field.Modulus)-4)) &^ 3
		var offset uint32
		switch op.Width() {
		case 2:
			offset = uint32(rng.Intn(2)) * 2
		case 4:
			offset = 0
		default:
			offset = uint32(rng.Intn(4))
		}
		events[i] = memoryinstr.Event{
			Shard: 1, Clk: uint32(i) * 4, PC: memoryinstr.DefaultPCInc * uint32(i),
			Op: op, Addr: base + offset,
			MemWordBefore: rng.Uint32(),
			StoreValue:    rng.Uint32(),
		}
	}
	return events
}

func columnsToRow(col memoryinstr.Columns) chip.Row {
	row := chip.Row{col.IsReal, col.Shard, col.Clk, col.PC, col.AddrAligned, col.UnsignedMemVal, col.OpAValue}
	row = append(row, col.Selectors[:]...)
	row = append(row, col.OffsetFlags[:]...)
	return row
}
