package common

import (
	"math/rand"
	"testing"

	"github.com/PolyhedraZK/ExpanderIRCompiler/expr"
	"github.com/PolyhedraZK/ExpanderIRCompiler/field"
	"github.com/PolyhedraZK/ExpanderIRCompiler/field/bn254"
	"github.com/PolyhedraZK/ExpanderIRCompiler/field/m31"
	"github.com/PolyhedraZK/ExpanderIRCompiler/hints"
	"github.com/PolyhedraZK/ExpanderIRCompiler/inputmapping"
	"github.com/PolyhedraZK/ExpanderIRCompiler/layered"
	"github.com/PolyhedraZK/ExpanderIRCompiler/utils"
	"github.com/consensys/gnark/constraint"
	"github.com/stretchr/testify/require"
)

type testStage struct{}

func (testStage) Name() string { return "test" }

func (testStage) Magic() uint64 { return 0x7465737400000000 }

func (testStage) AllowsInstruction(t InstructionType) bool { return true }

func (testStage) AllowsConstraint(t ConstraintType) bool { return true }

type testRoot = RootCircuit[testStage]

func lc(fd field.Field, constant int, terms ...int) expr.LinComb {
	res := expr.LinComb{Constant: fd.FromInterface(constant)}
	for i := 0; i+1 < len(terms); i += 2 {
		res.Terms = append(res.Terms, expr.LinCombTerm{Var: terms[i], Coef: fd.FromInterface(terms[i+1])})
	}
	return res
}

func elems(fd field.Field, xs ...int) []constraint.Element {
	res := make([]constraint.Element, len(xs))
	for i, x := range xs {
		res[i] = fd.FromInterface(x)
	}
	return res
}

func ctxFor(fd field.Field) *EvalContext {
	return &EvalContext{Field: fd, RandomValue: fd.FromInterface(77), Hints: hints.StubCaller{}}
}

func TestEvalCalls(t *testing.T) {
	assert := require.New(t)
	fd := &m31.Field{}
	r := NewRootCircuit[testStage](fd)
	// sub(a, b) = (a*b, a+b), with a*b != 0
	r.Circuits[1] = &Circuit{
		NumInputs:    2,
		Instructions: []Instruction{NewMul(1, 2), NewLinComb(lc(fd, 0, 1, 1, 2, 1))},
		Constraints:  []Constraint{{Typ: NonZero, Var: 3}},
		Outputs:      []int{3, 4},
	}
	r.Circuits[0] = &Circuit{
		NumInputs: 2,
		Instructions: []Instruction{
			NewSubCircuitCall(1, []int{1, 2}, 2),
			NewSubCircuitCall(1, []int{3, 4}, 2),
		},
		Outputs: []int{5, 6},
	}
	assert.NoError(r.Validate())

	res, err := r.EvalSafe(elems(fd, 2, 3), ctxFor(fd))
	assert.NoError(err)
	assert.True(ElementsEqual(fd, elems(fd, 30, 11), res.Outputs))
	assert.True(res.Satisfied())

	res, err = r.EvalSafe(elems(fd, 0, 3), ctxFor(fd))
	assert.NoError(err)
	assert.Equal(2, res.Violations)

	_, err = r.EvalSafe(elems(fd, 1), ctxFor(fd))
	assert.True(utils.IsUserError(err))
}

func TestEvalErrors(t *testing.T) {
	assert := require.New(t)
	fd := &m31.Field{}
	build := func(insn Instruction) *testRoot {
		r := NewRootCircuit[testStage](fd)
		r.Circuits[0] = &Circuit{NumInputs: 2, Instructions: []Instruction{insn}, Outputs: []int{3}}
		return r
	}
	_, err := build(NewDiv(1, 2, true)).EvalSafe(elems(fd, 0, 0), ctxFor(fd))
	assert.True(utils.IsUserError(err))
	res, err := build(NewDiv(1, 2, false)).EvalSafe(elems(fd, 0, 0), ctxFor(fd))
	assert.NoError(err)
	assert.True(field.IsZero(fd, res.Outputs[0]))
	_, err = build(NewDiv(1, 2, false)).EvalSafe(elems(fd, 1, 0), ctxFor(fd))
	assert.True(utils.IsUserError(err))
	_, err = build(NewBoolBinOp(1, 2, BoolAnd)).EvalSafe(elems(fd, 1, 2), ctxFor(fd))
	assert.True(utils.IsUserError(err))
	_, err = build(NewUnconstrainedBinOp(hints.Mod, 1, 2)).EvalSafe(elems(fd, 5, 0), ctxFor(fd))
	assert.True(utils.IsUserError(err))

	res, err = build(NewBoolBinOp(1, 2, BoolXor)).EvalSafe(elems(fd, 1, 1), ctxFor(fd))
	assert.NoError(err)
	assert.True(field.IsZero(fd, res.Outputs[0]))
	res, err = build(NewUnconstrainedBinOp(hints.IntDiv, 1, 2)).EvalSafe(elems(fd, 17, 5), ctxFor(fd))
	assert.NoError(err)
	assert.True(field.Equal(fd, fd.FromInterface(3), res.Outputs[0]))

	assert.Panics(func() {
		build(NewDiv(1, 2, true)).EvalUnsafe(elems(fd, 0, 0), ctxFor(fd))
	})
}

func TestValidate(t *testing.T) {
	fd := &m31.Field{}
	cases := map[string]map[uint64]*Circuit{
		"no root": {1: {NumInputs: 1, Outputs: []int{1}}},
		"forward reference": {0: {
			NumInputs:    1,
			Instructions: []Instruction{NewMul(1, 3), NewMul(1, 1)},
		}},
		"short mul": {0: {NumInputs: 1, Instructions: []Instruction{NewMul(1)}}},
		"missing callee": {0: {
			NumInputs:    1,
			Instructions: []Instruction{NewSubCircuitCall(7, []int{1}, 1)},
		}},
		"output count mismatch": {
			0: {NumInputs: 1, Instructions: []Instruction{NewSubCircuitCall(1, []int{1}, 2)}},
			1: {NumInputs: 1, Outputs: []int{1}},
		},
		"cycle": {
			0: {NumInputs: 1, Instructions: []Instruction{NewSubCircuitCall(1, []int{1}, 1)}},
			1: {NumInputs: 1, Instructions: []Instruction{NewSubCircuitCall(2, []int{1}, 1)}, Outputs: []int{2}},
			2: {NumInputs: 1, Instructions: []Instruction{NewSubCircuitCall(1, []int{1}, 1)}, Outputs: []int{2}},
		},
		"self call": {
			0: {NumInputs: 1, Instructions: []Instruction{NewSubCircuitCall(0, []int{1}, 0)}},
		},
		"nil root": {0: nil},
		"nil callee": {
			0: {NumInputs: 1, Instructions: []Instruction{NewSubCircuitCall(1, []int{1}, 1)}, Outputs: []int{2}},
			1: nil,
		},
		"constraint out of range": {0: {NumInputs: 1, Constraints: []Constraint{{Typ: Zero, Var: 2}}}},
		"bad public input": {0: {
			NumInputs:    1,
			Instructions: []Instruction{NewConstantLike(layered.NewPublicInputCoef(3))},
		}},
	}
	for name, circuits := range cases {
		r := NewRootCircuit[testStage](fd)
		r.Circuits = circuits
		err := r.Validate()
		require.Error(t, err, name)
		require.True(t, utils.IsUserError(err), name)
	}
}

func TestTopoOrder(t *testing.T) {
	assert := require.New(t)
	fd := &m31.Field{}
	r := NewRootCircuit[testStage](fd)
	r.Circuits[0] = &Circuit{NumInputs: 1, Instructions: []Instruction{
		NewSubCircuitCall(5, []int{1}, 1),
		NewSubCircuitCall(2, []int{1}, 1),
	}}
	r.Circuits[5] = &Circuit{NumInputs: 1, Instructions: []Instruction{NewSubCircuitCall(2, []int{1}, 1)}, Outputs: []int{2}}
	r.Circuits[2] = &Circuit{NumInputs: 1, Outputs: []int{1}}
	order, err := r.TopoOrder()
	assert.NoError(err)
	assert.Equal([]uint64{0, 5, 2}, order)
	assert.Equal([]uint64{2, 5, 0}, r.CalleesFirst())
}

func TestRemoveUnreachable(t *testing.T) {
	assert := require.New(t)
	fd := &m31.Field{}
	r := NewRootCircuit[testStage](fd)
	// sub(a, b, c) = (a*b, c+1); only the first output is read
	r.Circuits[1] = &Circuit{
		NumInputs:    3,
		Instructions: []Instruction{NewMul(1, 2), NewLinComb(lc(fd, 1, 3, 1))},
		Outputs:      []int{4, 5},
	}
	// never called
	r.Circuits[2] = &Circuit{NumInputs: 1, Outputs: []int{1}}
	r.Circuits[0] = &Circuit{
		NumInputs: 4,
		Instructions: []Instruction{
			NewMul(1, 1),                            // 5, dead
			NewSubCircuitCall(1, []int{2, 3, 1}, 2), // 6, 7
			NewLinComb(lc(fd, 0, 6, 2)),             // 8
		},
		Outputs: []int{8},
	}
	assert.NoError(r.Validate())
	nr, im := r.RemoveUnreachable()
	assert.NoError(nr.Validate())

	assert.Equal(2, nr.InputSize())
	assert.Equal([]int{inputmapping.Empty, 0, 1, inputmapping.Empty}, im.Mapping)
	assert.Len(nr.Circuits, 2)
	sub := nr.Circuits[1]
	assert.Equal(2, sub.NumInputs)
	assert.Len(sub.Instructions, 1)
	assert.Equal([]int{3}, sub.Outputs)
	root := nr.Circuits[0]
	assert.Len(root.Instructions, 2)
	assert.Equal([]int{1, 2}, root.Instructions[0].Inputs)
	assert.Equal(1, root.Instructions[0].NumOutputs)

	in := elems(fd, 9, 4, 5, 8)
	mapped, err := inputmapping.MapInputs(im, in)
	assert.NoError(err)
	a, _ := r.EvalUnsafe(in, ctxFor(fd))
	b, _ := nr.EvalUnsafe(mapped, ctxFor(fd))
	assert.True(ElementsEqual(fd, a, b))
	assert.True(field.Equal(fd, fd.FromInterface(40), b[0]))
}

func TestRemoveUnreachableKeepsConstraints(t *testing.T) {
	assert := require.New(t)
	fd := &m31.Field{}
	r := NewRootCircuit[testStage](fd)
	// a callee whose only effect is a constraint on its second input
	r.Circuits[2] = &Circuit{NumInputs: 2, Constraints: []Constraint{{Typ: NonZero, Var: 2}}}
	r.Circuits[1] = &Circuit{
		NumInputs:    2,
		Instructions: []Instruction{NewSubCircuitCall(2, []int{1, 2}, 0), NewMul(1, 2)},
		Outputs:      []int{3},
	}
	r.Circuits[0] = &Circuit{
		NumInputs:    3,
		Instructions: []Instruction{NewSubCircuitCall(1, []int{1, 3}, 1)},
	}
	nr, im := r.RemoveUnreachable()
	assert.NoError(nr.Validate())
	assert.Equal([]int{inputmapping.Empty, inputmapping.Empty, 0}, im.Mapping)
	assert.Equal(1, nr.Circuits[2].NumInputs)
	assert.Equal(1, nr.Circuits[1].NumInputs)
	assert.Len(nr.Circuits[1].Instructions, 1)
	assert.Empty(nr.Circuits[1].Outputs)

	res, err := nr.EvalSafe(elems(fd, 0), ctxFor(fd))
	assert.NoError(err)
	assert.Equal(1, res.Violations)
}

func TestReassignDuplicateSubCircuitOutputs(t *testing.T) {
	assert := require.New(t)
	fd := &m31.Field{}
	r := NewRootCircuit[testStage](fd)
	r.Circuits[1] = &Circuit{NumInputs: 2, Instructions: []Instruction{NewMul(1, 2)}, Outputs: []int{3, 1}}
	r.Circuits[0] = &Circuit{
		NumInputs: 2,
		Instructions: []Instruction{
			NewSubCircuitCall(1, []int{1, 2}, 2), // 3, 4
			NewSubCircuitCall(1, []int{2, 1}, 2), // 5, 6
			NewSubCircuitCall(1, []int{1, 2}, 2), // 7, 8
			NewLinComb(lc(fd, 0, 7, 1, 8, 1)),    // 9
		},
		Outputs: []int{3, 7, 8, 9},
	}
	nr := r.ReassignDuplicateSubCircuitOutputs()
	assert.NoError(nr.Validate())
	root := nr.Circuits[0]
	assert.Len(root.Instructions, 3)
	assert.Equal(root.Outputs[0], root.Outputs[1])
	assert.Equal([]int{3, 3, 4, 7}, root.Outputs)
	assert.Equal([]int{3, 4}, root.Instructions[2].LinComb.Vars())

	a, _ := r.EvalUnsafe(elems(fd, 3, 5), ctxFor(fd))
	b, _ := nr.EvalUnsafe(elems(fd, 3, 5), ctxFor(fd))
	assert.True(ElementsEqual(fd, a, b))

	// calls without outputs are deduplicated too
	r.Circuits[2] = &Circuit{NumInputs: 1, Constraints: []Constraint{{Typ: Zero, Var: 1}}}
	r.Circuits[0].Instructions = append(r.Circuits[0].Instructions,
		NewSubCircuitCall(2, []int{1}, 0), NewSubCircuitCall(2, []int{1}, 0))
	nr = r.ReassignDuplicateSubCircuitOutputs()
	assert.Len(nr.Circuits[0].Instructions, 4)
}

func TestDetectChains(t *testing.T) {
	assert := require.New(t)
	fd := &m31.Field{}
	r := NewRootCircuit[testStage](fd)
	r.Circuits[0] = &Circuit{
		NumInputs: 3,
		Instructions: []Instruction{
			NewLinComb(lc(fd, 1, 1, 2)),       // 4 = 2x1 + 1
			NewLinComb(lc(fd, 5, 4, 3, 2, 1)), // 5 = 3*v4 + x2 + 5
			NewMul(1, 2),                      // 6
			NewMul(6, 3, 3),                   // 7
			NewMul(7, 7),                      // 8, v7 used twice
		},
		Outputs: []int{5, 8},
	}
	nr := r.DetectChains()
	insns := nr.Circuits[0].Instructions
	assert.Equal([]int{2, 1}, insns[1].LinComb.Vars())
	assert.Equal([]int{3, 3, 1, 2}, insns[3].Inputs)
	assert.Equal([]int{7, 7}, insns[4].Inputs)

	opt, im, err := r.Optimize(true, DefaultMaxRounds)
	assert.NoError(err)
	assert.True(im.IsIdentity())
	assert.Len(opt.Circuits[0].Instructions, 3)

	in := elems(fd, 2, 3, 4)
	a, _ := r.EvalUnsafe(in, ctxFor(fd))
	b, _ := opt.EvalUnsafe(in, ctxFor(fd))
	assert.True(ElementsEqual(fd, a, b))
}

func checkOptimizePreserves(t *testing.T, fd field.Field, seed int64) {
	conf := DefaultRandomCircuitConfig(fd, seed)
	r := RandomRootCircuit[testStage](conf)
	require.NoError(t, r.Validate(), "seed %d", seed)
	opt, im, err := r.Optimize(true, DefaultMaxRounds)
	require.NoError(t, err, "seed %d", seed)
	require.NoError(t, opt.Validate(), "seed %d", seed)
	require.NoError(t, im.Validate())

	again, im2, err := opt.Optimize(true, DefaultMaxRounds)
	require.NoError(t, err)
	require.Equal(t, opt.Serialize(), again.Serialize(), "seed %d", seed)
	require.True(t, im2.IsIdentity())

	rnd := rand.New(rand.NewSource(seed))
	for i := 0; i < 3; i++ {
		in := RandomInputs(fd, r.InputSize(), rnd)
		ctx := RandomEvalContext(fd, r.NumPublicInputs, rnd, hints.StubCaller{})
		want, err := r.EvalSafe(in, ctx)
		if err != nil {
			continue
		}
		mapped, err := inputmapping.MapInputs(im, in)
		require.NoError(t, err)
		got, err := opt.EvalSafe(mapped, ctx)
		require.NoError(t, err, "seed %d", seed)
		require.True(t, ElementsEqual(fd, want.Outputs, got.Outputs), "seed %d", seed)
		require.Equal(t, want.Satisfied(), got.Satisfied(), "seed %d", seed)
	}
}

func TestOptimizeRandom(t *testing.T) {
	for seed := int64(1); seed <= 200; seed++ {
		checkOptimizePreserves(t, &m31.Field{}, seed)
	}
	for seed := int64(1); seed <= 30; seed++ {
		checkOptimizePreserves(t, &bn254.Field{}, seed)
	}
}

func TestSerializeRoundTrip(t *testing.T) {
	assert := require.New(t)
	for _, fd := range []field.Field{&m31.Field{}, &bn254.Field{}} {
		for seed := int64(1); seed <= 20; seed++ {
			r := RandomRootCircuit[testStage](DefaultRandomCircuitConfig(fd, seed))
			buf := r.Serialize()
			r2, err := Deserialize[testStage](buf, fd)
			assert.NoError(err)
			assert.Equal(buf, r2.Serialize())
		}
	}
	r := RandomRootCircuit[testStage](DefaultRandomCircuitConfig(&m31.Field{}, 3))
	buf := r.Serialize()
	_, err := Deserialize[testStage](buf, &bn254.Field{})
	assert.ErrorContains(err, "modulus")
	bad := append([]byte{}, buf...)
	bad[0] ^= 1
	_, err = Deserialize[testStage](bad, nil)
	assert.ErrorContains(err, "magic")
	_, err = Deserialize[testStage](buf[:len(buf)-3], nil)
	assert.Error(err)
}

func TestStats(t *testing.T) {
	assert := require.New(t)
	fd := &m31.Field{}
	r := NewRootCircuit[testStage](fd)
	r.Circuits[1] = &Circuit{
		NumInputs:    1,
		Instructions: []Instruction{NewHint(5, []int{1}, 2), NewMul(1, 2)},
		Constraints:  []Constraint{{Typ: Zero, Var: 4}},
		Outputs:      []int{4},
	}
	r.Circuits[0] = &Circuit{
		NumInputs: 1,
		Instructions: []Instruction{
			NewSubCircuitCall(1, []int{1}, 1),
			NewSubCircuitCall(1, []int{2}, 1),
		},
		Outputs: []int{3},
	}
	st := r.Stats()
	assert.Equal(2, st.NumCircuits)
	assert.Equal(4, st.NumInstructions)
	assert.Equal(2, st.NumCalls)
	assert.Equal(4, st.ExpandedInstructions)
	assert.Equal(2, st.ExpandedConstraints)
	assert.Equal(4, st.ExpandedHintOutputs)
	assert.Equal(2, st.InstructionsByType[ISubCircuitCall])
}

func TestScatterRootOutputs(t *testing.T) {
	assert := require.New(t)
	fd := &m31.Field{}
	r := NewRootCircuit[testStage](fd)
	r.Circuits[0] = &Circuit{
		NumInputs:    2,
		Instructions: []Instruction{NewMul(1, 2)},
		Outputs:      []int{3, 1},
	}
	res, err := r.ScatterRootOutputs(inputmapping.New(4, []int{2, 0}))
	assert.NoError(err)
	assert.NoError(res.Validate())
	out, err := res.EvalSafe(elems(fd, 3, 5), ctxFor(fd))
	assert.NoError(err)
	assert.True(ElementsEqual(fd, elems(fd, 3, 0, 15, 0), out.Outputs))
	// r is untouched
	assert.Equal([]int{3, 1}, r.Circuits[0].Outputs)
	assert.Len(r.Circuits[0].Instructions, 1)

	_, err = r.ScatterRootOutputs(inputmapping.New(4, []int{2}))
	assert.Error(err)
}

func TestGatherRootInputs(t *testing.T) {
	assert := require.New(t)
	fd := &m31.Field{}
	r := NewRootCircuit[testStage](fd)
	r.Circuits[0] = &Circuit{
		NumInputs:    2,
		Instructions: []Instruction{NewLinComb(lc(fd, 1, 1, 2, 2, 1))},
		Constraints:  []Constraint{{Typ: NonZero, Var: 3}},
		Outputs:      []int{3, 2},
	}
	// new inputs (a, b, c, d): a feeds x, c is unused, d feeds y
	res, err := r.GatherRootInputs(inputmapping.New(2, []int{0, inputmapping.Empty, inputmapping.Empty, 1}))
	assert.NoError(err)
	assert.NoError(res.Validate())
	out, err := res.EvalSafe(elems(fd, 4, 100, 200, 7), ctxFor(fd))
	assert.NoError(err)
	assert.True(ElementsEqual(fd, elems(fd, 16, 7), out.Outputs))
	assert.True(out.Satisfied())

	_, err = r.GatherRootInputs(inputmapping.New(2, []int{0, inputmapping.Empty}))
	assert.Error(err)
}
