package hintnormalized

import (
	"fmt"
	"math/big"
	"math/rand"
	"sync/atomic"
	"testing"

	"github.com/PolyhedraZK/ExpanderIRCompiler/expr"
	"github.com/PolyhedraZK/ExpanderIRCompiler/field"
	"github.com/PolyhedraZK/ExpanderIRCompiler/field/bn254"
	"github.com/PolyhedraZK/ExpanderIRCompiler/field/m31"
	"github.com/PolyhedraZK/ExpanderIRCompiler/hints"
	"github.com/PolyhedraZK/ExpanderIRCompiler/ir/common"
	"github.com/consensys/gnark/constraint"
	"github.com/stretchr/testify/require"
)

func elems(fd field.Field, xs ...int) []constraint.Element {
	res := make([]constraint.Element, len(xs))
	for i, x := range xs {
		res[i] = fd.FromInterface(x)
	}
	return res
}

func TestRemoveAndExportHints(t *testing.T) {
	for _, fd := range []field.Field{&m31.Field{}, &bn254.Field{}} {
		for seed := int64(1); seed <= 150; seed++ {
			r := common.RandomRootCircuit[Stage](common.DefaultRandomCircuitConfig(fd, seed))
			hl := RemoveHints(r)
			wg := ExportHints(r)
			require.NoError(t, hl.Validate(), "seed %d", seed)
			require.NoError(t, wg.Validate(), "seed %d", seed)
			require.Equal(t, hl.InputSize(), len(wg.Circuits[0].Outputs))

			rnd := rand.New(rand.NewSource(seed))
			inputs := common.RandomInputs(fd, r.InputSize(), rnd)
			ctx := common.RandomEvalContext(fd, r.NumPublicInputs, rnd, hints.StubCaller{})
			expected, err := r.EvalSafe(inputs, ctx)
			require.NoError(t, err)
			w, err := wg.EvalSafe(inputs, ctx)
			require.NoError(t, err)
			got, err := hl.EvalSafe(w.Outputs, ctx)
			require.NoError(t, err)
			require.True(t, common.ElementsEqual(fd, expected.Outputs, got.Outputs), "seed %d", seed)
			require.Equal(t, expected.Satisfied(), got.Satisfied(), "seed %d", seed)
		}
	}
}

// countingCircuit outputs x and two independent calls of a counting hint on
// x, one of them inside a sub circuit.
func countingCircuit(fd field.Field, id uint64) *RootCircuit {
	r := NewRootCircuit(fd)
	r.Circuits[1] = &common.Circuit{
		NumInputs:    1,
		Instructions: []common.Instruction{common.NewHint(id, []int{1}, 1)},
		Outputs:      []int{2},
	}
	r.Circuits[0] = &common.Circuit{
		NumInputs: 1,
		Instructions: []common.Instruction{
			common.NewHint(id, []int{1}, 1),
			common.NewSubCircuitCall(1, []int{1}, 1),
			common.NewLinComb(expr.LinComb{
				Terms: []expr.LinCombTerm{{Var: 2, Coef: fd.One()}, {Var: 3, Coef: fd.FromInterface(-1)}},
			}),
		},
		Constraints: []common.Constraint{{Typ: common.Zero, Var: 4}},
		Outputs:     []int{2},
	}
	return ExportHints(r)
}

func TestSolveWitnessCallsHintPerOccurrence(t *testing.T) {
	assert := require.New(t)
	fd := &m31.Field{}
	var calls atomic.Int64
	reg := hints.NewRegistry()
	id, err := reg.Register("test.double", func(_ *big.Int, in []*big.Int, out []*big.Int) error {
		calls.Add(1)
		out[0].Add(in[0], in[0])
		return nil
	})
	assert.NoError(err)

	ws := NewWitnessSolver(countingCircuit(fd, id))
	w, err := ws.SolveWitness(elems(fd, 21), nil, reg)
	assert.NoError(err)
	assert.Equal(int64(2), calls.Load())

	// input, then own hint, then the hint of the call
	in, public := w.Get(fd, 0)
	assert.True(common.ElementsEqual(fd, elems(fd, 21, 42, 42), in))
	assert.Empty(public)

	_, err = ws.SolveWitness(elems(fd, 1), nil, hints.NewRegistry())
	assert.Error(err)
}

func TestSolveWitnessesOrder(t *testing.T) {
	assert := require.New(t)
	fd := &m31.Field{}
	reg := hints.NewRegistry()
	id, err := reg.Register("test.square", func(_ *big.Int, in []*big.Int, out []*big.Int) error {
		out[0].Mul(in[0], in[0])
		return nil
	})
	assert.NoError(err)
	ws := NewWitnessSolver(countingCircuit(fd, id))

	n := 37
	f := func(i int) ([]constraint.Element, []constraint.Element, error) {
		return elems(fd, i+1), nil, nil
	}
	w, err := ws.SolveWitnesses(n, f, reg)
	assert.NoError(err)
	assert.Equal(n, w.NumWitnesses)
	assert.NoError(w.Validate())
	for i := 0; i < n; i++ {
		in, _ := w.Get(fd, i)
		x := i + 1
		assert.True(common.ElementsEqual(fd, elems(fd, x, x*x, x*x), in), "witness %d", i)
	}

	g := func(i int) ([]constraint.Element, []constraint.Element, error) {
		if i == 5 {
			return nil, nil, fmt.Errorf("no assignment")
		}
		return f(i)
	}
	_, err = ws.SolveWitnesses(n, g, reg)
	assert.Error(err)
}

func TestSolveWitnessesBatched(t *testing.T) {
	assert := require.New(t)
	fd := &m31.Field{}
	ws := NewWitnessSolver(countingCircuit(fd, hints.Identity))
	f := func(i int) ([]constraint.Element, []constraint.Element, error) {
		return elems(fd, i), nil, nil
	}

	w, err := ws.SolveWitnessesBatched(16, 8, f, hints.EmptyCaller{})
	assert.NoError(err)
	assert.Equal(16, w.NumWitnesses)
	packed, err := w.PackSIMD(8)
	assert.NoError(err)
	assert.Equal(len(w.Values), len(packed))

	_, err = ws.SolveWitnessesBatched(10, 8, f, hints.EmptyCaller{})
	assert.Error(err)
	_, err = ws.SolveWitnessesBatched(8, 0, f, hints.EmptyCaller{})
	assert.Error(err)
}
