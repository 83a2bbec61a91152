package main

import (
	"fmt"
	"math/rand"
	"os"

	"github.com/PolyhedraZK/ExpanderIRCompiler/hints"
	"github.com/PolyhedraZK/ExpanderIRCompiler/ir/common"
	"github.com/PolyhedraZK/ExpanderIRCompiler/ir/hintnormalized"
	"github.com/PolyhedraZK/ExpanderIRCompiler/layered"
	"github.com/consensys/gnark/constraint"
	"github.com/consensys/gnark/logger"
	"github.com/spf13/cobra"
)

var (
	solveIn      string
	solveCount   int
	solveSeed    int64
	solveLanes   int
	solveOut     string
	solveLayered string
)

// solveCmd fills the witness generation circuit with random assignments and
// the stub hints, which is enough to exercise a compiled circuit end to end.
var solveCmd = &cobra.Command{
	Use:   "solve",
	Short: "solve random witnesses with a witness generation circuit",
	RunE: func(cmd *cobra.Command, args []string) error {
		fd, err := selectedField()
		if err != nil {
			return err
		}
		buf, err := os.ReadFile(solveIn)
		if err != nil {
			return err
		}
		wg, err := hintnormalized.Deserialize(buf, fd)
		if err != nil {
			return err
		}
		numInputs := wg.InputSize()
		assign := func(i int) ([]constraint.Element, []constraint.Element, error) {
			rnd := rand.New(rand.NewSource(solveSeed + int64(i)))
			inputs := common.RandomInputs(fd, numInputs, rnd)
			public := common.RandomInputs(fd, wg.NumPublicInputs, rnd)
			return inputs, public, nil
		}
		randomValue := fd.FromInterface(rand.New(rand.NewSource(solveSeed)).Int63())
		ws := hintnormalized.NewWitnessSolver(wg)
		ws.RandomValue = randomValue
		var w *layered.Witness
		if solveLanes > 1 {
			w, err = ws.SolveWitnessesBatched(solveCount, solveLanes, assign, hints.StubCaller{})
		} else {
			w, err = ws.SolveWitnesses(solveCount, assign, hints.StubCaller{})
		}
		if err != nil {
			return err
		}
		if err := os.WriteFile(solveOut, w.Serialize(), 0o644); err != nil {
			return err
		}
		log := logger.Logger()
		log.Info().Int("witnesses", w.NumWitnesses).Str("out", solveOut).Msg("witness written")

		if solveLayered == "" {
			return nil
		}
		lbuf, err := os.ReadFile(solveLayered)
		if err != nil {
			return err
		}
		lc, err := layered.DeserializeRootCircuit(lbuf, fd.Field())
		if err != nil {
			return err
		}
		satisfied := 0
		for i := 0; i < w.NumWitnesses; i++ {
			layer0, public := w.Get(fd, i)
			ctx := &layered.EvalContext{
				Field:        fd,
				PublicInputs: public,
				RandomValue:  randomValue,
				Hints:        hints.StubCaller{},
			}
			_, ok, err := lc.EvalOutputs(layer0, ctx)
			if err != nil {
				return fmt.Errorf("witness %d: %w", i, err)
			}
			if ok {
				satisfied++
			}
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%d of %d witnesses satisfy the layered circuit\n", satisfied, w.NumWitnesses)
		return nil
	},
}

func init() {
	solveCmd.Flags().StringVarP(&solveIn, "in", "i", "witness_gen.ir", "witness generation circuit")
	solveCmd.Flags().IntVarP(&solveCount, "count", "n", 1, "number of witnesses")
	solveCmd.Flags().Int64Var(&solveSeed, "seed", 1, "seed of the random assignments")
	solveCmd.Flags().IntVar(&solveLanes, "lanes", 1, "SIMD lane width; count must be a multiple of it")
	solveCmd.Flags().StringVarP(&solveOut, "out", "o", "witness.txt", "witness output")
	solveCmd.Flags().StringVar(&solveLayered, "check", "", "layered circuit to evaluate the witnesses against")
	rootCmd.AddCommand(solveCmd)
}
