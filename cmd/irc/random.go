package main

import (
	"os"

	"github.com/PolyhedraZK/ExpanderIRCompiler/ir/common"
	"github.com/PolyhedraZK/ExpanderIRCompiler/ir/source"
	"github.com/consensys/gnark/logger"
	"github.com/spf13/cobra"
)

var (
	randomSeed    int64
	randomSize    int
	randomOut     string
	randomPublics int
)

var randomCmd = &cobra.Command{
	Use:   "random",
	Short: "write a random source circuit",
	RunE: func(cmd *cobra.Command, args []string) error {
		fd, err := selectedField()
		if err != nil {
			return err
		}
		conf := common.DefaultRandomCircuitConfig(fd, randomSeed)
		if randomSize > 0 {
			conf.NumInstructions = common.RandRange{Min: randomSize / 2, Max: randomSize}
		}
		conf.NumPublicInputs = randomPublics
		r := source.RandomRootCircuit(conf)
		if err := os.WriteFile(randomOut, r.Serialize(), 0o644); err != nil {
			return err
		}
		st := r.Stats()
		log := logger.Logger()
		log.Info().
			Int("circuits", st.NumCircuits).
			Int("instructions", st.NumInstructions).
			Str("out", randomOut).
			Msg("random circuit written")
		return nil
	},
}

func init() {
	randomCmd.Flags().Int64Var(&randomSeed, "seed", 1, "generator seed")
	randomCmd.Flags().IntVar(&randomSize, "size", 0, "maximum number of instructions per circuit")
	randomCmd.Flags().IntVar(&randomPublics, "public", 0, "number of public inputs")
	randomCmd.Flags().StringVarP(&randomOut, "out", "o", "circuit.ir", "output file")
	rootCmd.AddCommand(randomCmd)
}
