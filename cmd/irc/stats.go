package main

import (
	"fmt"
	"os"

	"github.com/PolyhedraZK/ExpanderIRCompiler/ir/common"
	"github.com/PolyhedraZK/ExpanderIRCompiler/ir/hintnormalized"
	"github.com/PolyhedraZK/ExpanderIRCompiler/ir/source"
	"github.com/PolyhedraZK/ExpanderIRCompiler/layered"
	"github.com/spf13/cobra"
)

var statsKind string

var statsCmd = &cobra.Command{
	Use:   "stats <file>",
	Short: "print statistics of a source, witness generation or layered circuit",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		fd, err := selectedField()
		if err != nil {
			return err
		}
		buf, err := os.ReadFile(args[0])
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		switch statsKind {
		case "source":
			r, err := source.Deserialize(buf, fd)
			if err != nil {
				return err
			}
			printIRStats(cmd, r.Stats())
		case "wg":
			r, err := hintnormalized.Deserialize(buf, fd)
			if err != nil {
				return err
			}
			printIRStats(cmd, r.Stats())
		case "layered":
			lc, err := layered.DeserializeRootCircuit(buf, fd.Field())
			if err != nil {
				return err
			}
			st := lc.GetStats()
			fmt.Fprintf(out, "layers: %d\nsegments: %d\ninputs: %d\n", st.NbLayer, st.NbCircuit, st.NbInput)
			fmt.Fprintf(out, "expanded gates: mul %d, add %d, cst %d\n", st.NbExpandedMul, st.NbExpandedAdd, st.NbExpandedCst)
			fmt.Fprintf(out, "gates: %d total, %d used\n", st.NbTotGates, st.NbUsedGates)
			fmt.Fprintf(out, "max mul fanout: %d\ntotal cost: %d\n", st.MaxMulFanout, st.TotalCost)
		default:
			return fmt.Errorf("unknown circuit kind %q", statsKind)
		}
		return nil
	},
}

func printIRStats(cmd *cobra.Command, st *common.Stats) {
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "circuits: %d\ninputs: %d\noutputs: %d\n", st.NumCircuits, st.NumInputs, st.NumOutputs)
	fmt.Fprintf(out, "instructions: %d (%d expanded)\n", st.NumInstructions, st.ExpandedInstructions)
	fmt.Fprintf(out, "constraints: %d (%d expanded)\n", st.NumConstraints, st.ExpandedConstraints)
	fmt.Fprintf(out, "calls: %d\nhint outputs: %d\n", st.NumCalls, st.ExpandedHintOutputs)
	for t := common.ILinComb; t <= common.IInternalVariable; t++ {
		if n := st.InstructionsByType[t]; n > 0 {
			fmt.Fprintf(out, "  %s: %d\n", t, n)
		}
	}
}

func init() {
	statsCmd.Flags().StringVar(&statsKind, "kind", "source", "circuit kind: source, wg or layered")
	rootCmd.AddCommand(statsCmd)
}
