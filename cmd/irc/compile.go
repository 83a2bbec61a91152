package main

import (
	"os"

	"github.com/PolyhedraZK/ExpanderIRCompiler/compile"
	"github.com/PolyhedraZK/ExpanderIRCompiler/ir/common"
	"github.com/PolyhedraZK/ExpanderIRCompiler/ir/source"
	"github.com/consensys/gnark/logger"
	"github.com/spf13/cobra"
)

var (
	compileIn      string
	compileFanout  int
	compileReorder bool
	compileRounds  int
	layeredOut     string
	witnessGenOut  string
)

var compileCmd = &cobra.Command{
	Use:   "compile",
	Short: "compile a source circuit into a layered circuit and its witness generator",
	RunE: func(cmd *cobra.Command, args []string) error {
		fd, err := selectedField()
		if err != nil {
			return err
		}
		buf, err := os.ReadFile(compileIn)
		if err != nil {
			return err
		}
		r, err := source.Deserialize(buf, fd)
		if err != nil {
			return err
		}
		opts := []compile.Option{
			compile.WithField(fd),
			compile.WithMulFanoutLimit(compileFanout),
			compile.WithMaxOptimizationRounds(compileRounds),
		}
		if compileReorder {
			opts = append(opts, compile.WithInputReorder())
		}
		wg, lc, err := compile.Compile(r, opts...)
		if err != nil {
			return err
		}
		if err := os.WriteFile(layeredOut, lc.Serialize(), 0o644); err != nil {
			return err
		}
		if err := os.WriteFile(witnessGenOut, wg.Serialize(), 0o644); err != nil {
			return err
		}
		log := logger.Logger()
		log.Info().Str("layered", layeredOut).Str("witnessGen", witnessGenOut).Msg("written")
		return nil
	},
}

func init() {
	compileCmd.Flags().StringVarP(&compileIn, "in", "i", "circuit.ir", "source circuit")
	compileCmd.Flags().IntVar(&compileFanout, "fanout", compile.DefaultMulFanoutLimit, "maximum mul fanout of a wire")
	compileCmd.Flags().BoolVar(&compileReorder, "reorder", false, "allow the first layer to drop and reorder inputs")
	compileCmd.Flags().IntVar(&compileRounds, "rounds", common.DefaultMaxRounds, "maximum optimization rounds per stage")
	compileCmd.Flags().StringVar(&layeredOut, "out-layered", "circuit.txt", "layered circuit output")
	compileCmd.Flags().StringVar(&witnessGenOut, "out-wg", "witness_gen.ir", "witness generation circuit output")
	rootCmd.AddCommand(compileCmd)
}
