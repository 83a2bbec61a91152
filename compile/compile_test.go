package compile

import (
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
	"github.com/PolyhedraZK/ExpanderIRCompiler/ir/hintnormalized"
	"github.com/PolyhedraZK/ExpanderIRCompiler/ir/source"
	"github.com/PolyhedraZK/ExpanderIRCompiler/layered"
	"github.com/PolyhedraZK/ExpanderIRCompiler/utils"
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

// sumCircuit asserts x + y + 123 == z.
func sumCircuit(fd field.Field) *source.RootCircuit {
	r := source.NewRootCircuit(fd)
	r.Circuits[0] = &common.Circuit{
		NumInputs: 3,
		Instructions: []common.Instruction{
			common.NewLinComb(expr.LinComb{
				Terms: []expr.LinCombTerm{
					{Var: 1, Coef: fd.One()},
					{Var: 2, Coef: fd.One()},
					{Var: 3, Coef: fd.FromInterface(-1)},
				},
				Constant: fd.FromInterface(123),
			}),
		},
		Constraints: []common.Constraint{{Typ: common.Zero, Var: 4}},
	}
	return r
}

// runCompiled solves the witness with wg and evaluates lc on it.
func runCompiled(t *testing.T, wg *hintnormalized.RootCircuit, lc *layered.RootCircuit, inputs []constraint.Element, ctx *common.EvalContext) ([]constraint.Element, bool) {
	assert := require.New(t)
	ws := hintnormalized.NewWitnessSolver(wg)
	ws.RandomValue = ctx.RandomValue
	w, err := ws.SolveWitness(inputs, ctx.PublicInputs, ctx.Hints)
	assert.NoError(err)
	layer0, public := w.Get(ctx.Field, 0)
	assert.Equal(lc.InputSize(), len(layer0))
	lctx := &layered.EvalContext{
		Field:        ctx.Field,
		PublicInputs: public,
		RandomValue:  ctx.RandomValue,
		Hints:        ctx.Hints,
	}
	outs, ok, err := lc.EvalOutputs(layer0, lctx)
	assert.NoError(err)
	return outs, ok
}

// checkRandom compiles a random source root and compares it with the source
// on a few assignments. It reports false when the seed was skipped.
func checkRandom(t *testing.T, fd field.Field, seed int64, opts ...Option) bool {
	assert := require.New(t)
	r := source.RandomRootCircuit(common.DefaultRandomCircuitConfig(fd, seed))
	wg, lc, err := Compile(r, opts...)
	if err != nil {
		// checked division by a constant zero
		assert.True(utils.IsUserError(err), "seed %d: %v", seed, err)
		return false
	}
	assert.NoError(layered.Validate(lc))

	rnd := rand.New(rand.NewSource(seed))
	checked := false
	for i := 0; i < 3; i++ {
		inputs := common.RandomInputs(fd, r.InputSize(), rnd)
		ctx := common.RandomEvalContext(fd, r.NumPublicInputs, rnd, hints.StubCaller{})
		expected, err := r.EvalSafe(inputs, ctx)
		if err != nil {
			continue
		}
		outs, ok := runCompiled(t, wg, lc, inputs, ctx)
		assert.True(common.ElementsEqual(fd, expected.Outputs, outs), "seed %d", seed)
		assert.Equal(expected.Satisfied(), ok, "seed %d", seed)
		checked = true
	}
	return checked
}

func TestSumAssertion(t *testing.T) {
	assert := require.New(t)
	fd := &m31.Field{}
	wg, lc, err := Compile(sumCircuit(fd))
	assert.NoError(err)
	assert.Equal(1, lc.ExpectedNumOutputZeroes)
	assert.Equal(0, lc.NumActualOutputs)

	ctx := &common.EvalContext{Field: fd, Hints: hints.EmptyCaller{}}
	_, ok := runCompiled(t, wg, lc, elems(fd, 1, 2, 126), ctx)
	assert.True(ok)
	_, ok = runCompiled(t, wg, lc, elems(fd, 1, 2, 127), ctx)
	assert.False(ok)
}

func TestCompileRandom(t *testing.T) {
	for _, fd := range []field.Field{&m31.Field{}, &bn254.Field{}} {
		checked := 0
		for seed := int64(1); seed <= 100; seed++ {
			if checkRandom(t, fd, seed) {
				checked++
			}
		}
		require.Greater(t, checked, 50)
	}
}

func TestCompileInputReorder(t *testing.T) {
	fd := &m31.Field{}
	for seed := int64(1); seed <= 50; seed++ {
		checkRandom(t, fd, seed, WithInputReorder())
	}
}

func TestCompileMulFanout(t *testing.T) {
	fd := &m31.Field{}
	for _, k := range []int{2, 3, 4, 16, 64, 256, 1024} {
		for seed := int64(1); seed <= 20; seed++ {
			conf := common.DefaultRandomCircuitConfig(fd, seed)
			conf.NumInstructions = common.RandRange{Min: 20, Max: 50}
			r := source.RandomRootCircuit(conf)
			_, lc, err := Compile(r, WithMulFanoutLimit(k))
			if err != nil {
				require.True(t, utils.IsUserError(err))
				continue
			}
			require.LessOrEqual(t, layered.MaxMulFanout(lc), k)
		}
		for seed := int64(1); seed <= 10; seed++ {
			checkRandom(t, fd, seed, WithMulFanoutLimit(k))
		}
	}
}

func TestCompileDeterministic(t *testing.T) {
	fd := &m31.Field{}
	for seed := int64(1); seed <= 20; seed++ {
		r := source.RandomRootCircuit(common.DefaultRandomCircuitConfig(fd, seed))
		wg1, lc1, err1 := Compile(r)
		wg2, lc2, err2 := Compile(r)
		if err1 != nil {
			require.Equal(t, err1.Error(), err2.Error())
			continue
		}
		require.NoError(t, err2)
		require.Equal(t, lc1.Serialize(), lc2.Serialize())
		// the layered circuit is already at the optimizer's fixed point
		require.Equal(t, lc1.Serialize(), layered.Optimize(lc1).Serialize())
		require.Equal(t, wg1.Serialize(), wg2.Serialize())
	}
}

func TestCompileErrors(t *testing.T) {
	assert := require.New(t)
	fd := &m31.Field{}

	_, _, err := Compile(sumCircuit(fd), WithMulFanoutLimit(1))
	assert.True(utils.IsUserError(err))

	_, _, err = Compile(sumCircuit(fd), WithMaxOptimizationRounds(0))
	assert.True(utils.IsUserError(err))

	_, _, err = Compile(sumCircuit(fd), WithField(&bn254.Field{}))
	assert.True(utils.IsUserError(err))

	_, _, err = Compile(sumCircuit(fd), WithField(&m31.Field{}))
	assert.NoError(err)

	bad := sumCircuit(fd)
	bad.Circuits[0].Outputs = []int{9}
	_, _, err = Compile(bad)
	assert.True(utils.IsUserError(err))

	// a checked division by a constant zero
	div := source.NewRootCircuit(fd)
	div.Circuits[0] = &common.Circuit{
		NumInputs: 1,
		Instructions: []common.Instruction{
			common.NewLinComb(expr.LinComb{Constant: fd.FromInterface(0)}),
			common.NewDiv(1, 2, true),
		},
		Outputs: []int{3},
	}
	_, _, err = Compile(div)
	assert.True(utils.IsUserError(err))
}

func TestDuplicateCallRunsHintOnce(t *testing.T) {
	assert := require.New(t)
	fd := &m31.Field{}
	var calls atomic.Int64
	reg := hints.NewRegistry()
	id, err := reg.Register("test.triple", func(_ *big.Int, in []*big.Int, out []*big.Int) error {
		calls.Add(1)
		out[0].Mul(in[0], big.NewInt(3))
		return nil
	})
	assert.NoError(err)

	r := source.NewRootCircuit(fd)
	r.Circuits[1] = &common.Circuit{
		NumInputs:    1,
		Instructions: []common.Instruction{common.NewHint(id, []int{1}, 1)},
		Outputs:      []int{2},
	}
	r.Circuits[0] = &common.Circuit{
		NumInputs: 1,
		Instructions: []common.Instruction{
			common.NewSubCircuitCall(1, []int{1}, 1),
			common.NewSubCircuitCall(1, []int{1}, 1),
		},
		Outputs: []int{2, 3},
	}
	wg, lc, err := Compile(r)
	assert.NoError(err)

	ctx := &common.EvalContext{Field: fd, Hints: reg}
	outs, ok := runCompiled(t, wg, lc, elems(fd, 5), ctx)
	assert.True(ok)
	assert.True(common.ElementsEqual(fd, elems(fd, 15, 15), outs))
	assert.Equal(int64(1), calls.Load())
}
