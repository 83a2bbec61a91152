package layering

import (
	"math/big"
	"math/rand"
	"testing"

	"github.com/PolyhedraZK/ExpanderIRCompiler/expr"
	"github.com/PolyhedraZK/ExpanderIRCompiler/field"
	"github.com/PolyhedraZK/ExpanderIRCompiler/field/bn254"
	"github.com/PolyhedraZK/ExpanderIRCompiler/field/m31"
	"github.com/PolyhedraZK/ExpanderIRCompiler/hints"
	"github.com/PolyhedraZK/ExpanderIRCompiler/inputmapping"
	"github.com/PolyhedraZK/ExpanderIRCompiler/ir/common"
	"github.com/PolyhedraZK/ExpanderIRCompiler/ir/dest"
	"github.com/PolyhedraZK/ExpanderIRCompiler/layered"
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

// checkSame compiles r and compares the layered evaluation with the IR one.
func checkSame(t *testing.T, r *dest.RootCircuit, conf Config, inputs []constraint.Element, ctx *common.EvalContext) *layered.RootCircuit {
	assert := require.New(t)
	lc, im, err := Compile(r, conf)
	assert.NoError(err)
	assert.NoError(layered.Validate(lc))
	assert.NoError(layered.ValidateInitialized(lc))
	assert.NoError(im.Validate())
	assert.Equal(lc.InputSize(), im.NextSize)

	expected, err := r.EvalSafe(inputs, ctx)
	assert.NoError(err)
	mapped, err := inputmapping.MapInputs(im, inputs)
	assert.NoError(err)
	got, err := lc.Eval(mapped, ctx)
	assert.NoError(err)
	n := len(expected.Outputs)
	assert.True(common.ElementsEqual(ctx.Field, expected.Outputs, got[:n]))
	for _, x := range got[n:] {
		assert.True(field.IsZero(ctx.Field, x))
	}
	return lc
}

func TestCompileSimple(t *testing.T) {
	fd := &m31.Field{}
	r := dest.NewRootCircuit(fd)
	// out = x*y + 2x + 5, and x passes through
	r.Circuits[0] = &common.Circuit{
		NumInputs: 2,
		Instructions: []common.Instruction{
			common.NewInternalVariable(expr.Expression{
				expr.NewTerm(0, 0, fd.FromInterface(5)),
				expr.NewTerm(1, 0, fd.FromInterface(2)),
				expr.NewTerm(1, 2, fd.One()),
			}),
		},
		Outputs: []int{3, 1},
	}
	ctx := &common.EvalContext{Field: fd, Hints: hints.StubCaller{}}
	lc := checkSame(t, r, Config{}, elems(fd, 3, 4), ctx)

	out, _, err := lc.EvalOutputs(elems(fd, 3, 4), ctx)
	require.NoError(t, err)
	require.True(t, common.ElementsEqual(fd, elems(fd, 23, 3), out))
	require.Equal(t, 2, len(lc.Layers))
}

func TestCompileCalls(t *testing.T) {
	assert := require.New(t)
	fd := &m31.Field{}
	r := dest.NewRootCircuit(fd)
	// sub(a, b) = a*b
	r.Circuits[1] = &common.Circuit{
		NumInputs: 2,
		Instructions: []common.Instruction{
			common.NewInternalVariable(expr.NewQuadraticExpression(1, 2, fd.One())),
		},
		Outputs: []int{3},
	}
	// root(x, y, z) = sub(x, y) + sub(y, z), sub(sub(x, y), 1)
	r.Circuits[0] = &common.Circuit{
		NumInputs: 3,
		Instructions: []common.Instruction{
			common.NewSubCircuitCall(1, []int{1, 2}, 1),
			common.NewSubCircuitCall(1, []int{2, 3}, 1),
			common.NewInternalVariable(expr.Expression{
				expr.NewTerm(4, 0, fd.One()),
				expr.NewTerm(5, 0, fd.One()),
			}),
			common.NewConstantLike(layered.NewConstantCoef(big.NewInt(1))),
			common.NewSubCircuitCall(1, []int{4, 7}, 1),
		},
		Outputs: []int{6, 8},
	}
	ctx := &common.EvalContext{Field: fd, Hints: hints.StubCaller{}}
	lc := checkSame(t, r, Config{}, elems(fd, 2, 3, 5), ctx)

	// the first layer is padded to a power of two
	assert.Equal(4, lc.InputSize())
	out, _, err := lc.EvalOutputs(elems(fd, 2, 3, 5, 0), ctx)
	assert.NoError(err)
	assert.True(common.ElementsEqual(fd, elems(fd, 21, 6), out))

	// both calls of the first layer share one segment of the callee
	shared := false
	for _, c := range lc.Circuits {
		for _, s := range c.SubCircuits {
			if len(s.Allocations) > 1 {
				shared = true
			}
		}
	}
	assert.True(shared)
}

func TestCompileInputReorder(t *testing.T) {
	assert := require.New(t)
	fd := &m31.Field{}
	r := dest.NewRootCircuit(fd)
	r.Circuits[0] = &common.Circuit{
		NumInputs: 5,
		Instructions: []common.Instruction{
			common.NewInternalVariable(expr.NewQuadraticExpression(2, 4, fd.One())),
		},
		Outputs: []int{6},
	}
	ctx := &common.EvalContext{Field: fd, Hints: hints.StubCaller{}}
	checkSame(t, r, Config{AllowInputReorder: true}, elems(fd, 1, 2, 3, 4, 5), ctx)

	_, im, err := Compile(r, Config{AllowInputReorder: true})
	assert.NoError(err)
	assert.Equal(2, im.NextSize)
	assert.Equal([]int{inputmapping.Empty, 0, inputmapping.Empty, 1, inputmapping.Empty}, im.Mapping)

	_, im, err = Compile(r, Config{})
	assert.NoError(err)
	assert.Equal(8, im.NextSize)
	assert.Equal([]int{0, 1, 2, 3, 4}, im.Mapping)
}

func TestCompileRejectsConstraints(t *testing.T) {
	fd := &m31.Field{}
	r := dest.NewRootCircuit(fd)
	r.Circuits[0] = &common.Circuit{
		NumInputs:   1,
		Constraints: []common.Constraint{{Typ: common.Zero, Var: 1}},
		Outputs:     []int{1},
	}
	_, _, err := Compile(r, Config{})
	require.Error(t, err)
}

func TestCompileRandom(t *testing.T) {
	for _, fd := range []field.Field{&m31.Field{}, &bn254.Field{}} {
		for seed := int64(1); seed <= 150; seed++ {
			conf := common.DefaultRandomCircuitConfig(fd, seed)
			r := dest.ExportConstraints(dest.RandomRootCircuit(conf))
			rnd := rand.New(rand.NewSource(seed))
			inputs := common.RandomInputs(fd, r.InputSize(), rnd)
			ctx := common.RandomEvalContext(fd, r.NumPublicInputs, rnd, hints.StubCaller{})
			checkSame(t, r, Config{}, inputs, ctx)
			checkSame(t, r, Config{AllowInputReorder: true}, inputs, ctx)
		}
	}
}

func TestCompileDeterministic(t *testing.T) {
	fd := &m31.Field{}
	for seed := int64(1); seed <= 30; seed++ {
		r := dest.ExportConstraints(dest.RandomRootCircuit(common.DefaultRandomCircuitConfig(fd, seed)))
		a, _, err := Compile(r, Config{})
		require.NoError(t, err)
		b, _, err := Compile(r, Config{})
		require.NoError(t, err)
		require.Equal(t, a.Serialize(), b.Serialize())
	}
}

func TestCompileMulFanout(t *testing.T) {
	fd := &m31.Field{}
	for _, k := range []int{2, 3, 4, 16} {
		for seed := int64(1); seed <= 40; seed++ {
			conf := common.DefaultRandomCircuitConfig(fd, seed)
			conf.NumInstructions = common.RandRange{Min: 20, Max: 60}
			r, err := dest.SolveMulFanoutLimit(dest.RandomRootCircuit(conf), k)
			require.NoError(t, err)
			r = dest.ExportConstraints(r)
			lc, _, err := Compile(r, Config{})
			require.NoError(t, err)
			require.LessOrEqual(t, layered.MaxMulFanout(lc), k)
		}
	}
}

func TestOptimizeRandom(t *testing.T) {
	for _, fd := range []field.Field{&m31.Field{}, &bn254.Field{}} {
		for seed := int64(1); seed <= 100; seed++ {
			conf := common.DefaultRandomCircuitConfig(fd, seed)
			r, err := dest.SolveMulFanoutLimit(dest.RandomRootCircuit(conf), 2)
			require.NoError(t, err)
			r = dest.ExportConstraints(r)
			lc, im, err := Compile(r, Config{})
			require.NoError(t, err)
			before := lc.Serialize()

			opt := layered.Optimize(lc)
			require.Equal(t, before, lc.Serialize(), "seed %d: input modified", seed)
			require.NoError(t, layered.Validate(opt), "seed %d", seed)
			require.NoError(t, layered.ValidateInitialized(opt), "seed %d", seed)
			require.LessOrEqual(t, len(opt.Circuits), len(lc.Circuits))
			require.LessOrEqual(t, layered.MaxMulFanout(opt), 2)
			require.Equal(t, lc.InputSize(), opt.InputSize())
			require.Equal(t, opt.Serialize(), layered.Optimize(opt).Serialize(), "seed %d: not idempotent", seed)

			rnd := rand.New(rand.NewSource(seed))
			for i := 0; i < 3; i++ {
				inputs := common.RandomInputs(fd, r.InputSize(), rnd)
				ctx := common.RandomEvalContext(fd, r.NumPublicInputs, rnd, hints.StubCaller{})
				mapped, err := inputmapping.MapInputs(im, inputs)
				require.NoError(t, err)
				want, wantOk, err := lc.EvalOutputs(mapped, ctx)
				require.NoError(t, err)
				got, gotOk, err := opt.EvalOutputs(mapped, ctx)
				require.NoError(t, err)
				require.True(t, common.ElementsEqual(fd, want, got), "seed %d", seed)
				require.Equal(t, wantOk, gotOk, "seed %d", seed)
			}
		}
	}
}
