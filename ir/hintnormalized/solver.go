package hintnormalized

import (
	"fmt"
	"math/big"
	"runtime"

	"github.com/PolyhedraZK/ExpanderIRCompiler/hints"
	"github.com/PolyhedraZK/ExpanderIRCompiler/layered"
	"github.com/consensys/gnark/constraint"
	"github.com/consensys/gnark/logger"
	"golang.org/x/sync/errgroup"
)

// WitnessSolver evaluates a witness generation circuit: its root outputs are
// the layer-0 values of the compiled layered circuit. The circuit is only
// read, so one solver serves any number of goroutines.
type WitnessSolver struct {
	Circuit *RootCircuit
	// RandomValue is substituted for random challenges read while solving.
	RandomValue constraint.Element
}

func NewWitnessSolver(c *RootCircuit) *WitnessSolver {
	return &WitnessSolver{Circuit: c}
}

// Assignment returns the private and public inputs of witness i.
type Assignment func(i int) (inputs, publicInputs []constraint.Element, err error)

func (ws *WitnessSolver) solve(inputs, publicInputs []constraint.Element, caller hints.Caller) ([]*big.Int, int, error) {
	fd := ws.Circuit.Field
	ctx := &EvalContext{
		Field:        fd,
		PublicInputs: publicInputs,
		RandomValue:  ws.RandomValue,
		Hints:        caller,
	}
	res, err := ws.Circuit.EvalSafe(inputs, ctx)
	if err != nil {
		return nil, 0, err
	}
	values := make([]*big.Int, 0, len(res.Outputs)+len(publicInputs))
	for _, x := range res.Outputs {
		values = append(values, fd.ToBigInt(x))
	}
	for _, x := range publicInputs {
		values = append(values, fd.ToBigInt(x))
	}
	return values, len(res.Outputs), nil
}

// SolveWitness computes the witness of one assignment. Hints are called
// once per occurrence, in order.
func (ws *WitnessSolver) SolveWitness(inputs, publicInputs []constraint.Element, caller hints.Caller) (*layered.Witness, error) {
	values, n, err := ws.solve(inputs, publicInputs, caller)
	if err != nil {
		return nil, err
	}
	return &layered.Witness{
		NumWitnesses:              1,
		NumInputsPerWitness:       n,
		NumPublicInputsPerWitness: len(publicInputs),
		Field:                     ws.Circuit.Field.Field(),
		Values:                    values,
	}, nil
}

// SolveWitnesses computes the witnesses of n assignments concurrently. The
// result keeps the assignment order.
func (ws *WitnessSolver) SolveWitnesses(n int, f Assignment, caller hints.Caller) (*layered.Witness, error) {
	results := make([][]*big.Int, n)
	numOutputs := len(ws.Circuit.Circuits[0].Outputs)

	workers := runtime.NumCPU()
	var g errgroup.Group
	g.SetLimit(workers)
	for i := 0; i < n; i++ {
		i := i
		g.Go(func() error {
			inputs, public, err := f(i)
			if err == nil && len(public) != ws.Circuit.NumPublicInputs {
				err = fmt.Errorf("expected %d public inputs, got %d", ws.Circuit.NumPublicInputs, len(public))
			}
			if err == nil {
				results[i], _, err = ws.solve(inputs, public, caller)
			}
			if err != nil {
				return fmt.Errorf("witness %d: %w", i, err)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	w := &layered.Witness{
		NumWitnesses:              n,
		NumInputsPerWitness:       numOutputs,
		NumPublicInputsPerWitness: ws.Circuit.NumPublicInputs,
		Field:                     ws.Circuit.Field.Field(),
	}
	for i := 0; i < n; i++ {
		w.Values = append(w.Values, results[i]...)
	}
	log := logger.Logger()
	log.Debug().Int("witnesses", n).Int("workers", workers).Msg("solved witnesses")
	return w, nil
}

// SolveWitnessesBatched is SolveWitnesses for a prover packing laneWidth
// witnesses into one SIMD value. n must be a multiple of laneWidth; nothing
// is padded or truncated.
func (ws *WitnessSolver) SolveWitnessesBatched(n, laneWidth int, f Assignment, caller hints.Caller) (*layered.Witness, error) {
	if laneWidth <= 0 || n%laneWidth != 0 {
		return nil, fmt.Errorf("%d witnesses cannot be packed into lanes of width %d", n, laneWidth)
	}
	return ws.SolveWitnesses(n, f, caller)
}
