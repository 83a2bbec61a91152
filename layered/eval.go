package layered

import (
	"fmt"

	"github.com/PolyhedraZK/ExpanderIRCompiler/field"
	"github.com/PolyhedraZK/ExpanderIRCompiler/utils"
	"github.com/consensys/gnark/constraint"
)

// Eval runs every layer on inputs and returns the values of the last layer.
func (rc *RootCircuit) Eval(inputs []constraint.Element, ctx *EvalContext) ([]constraint.Element, error) {
	if len(inputs) != rc.InputSize() {
		return nil, utils.NewUserError("expected %d inputs, got %d", rc.InputSize(), len(inputs))
	}
	if len(ctx.PublicInputs) != rc.NumPublicInputs {
		return nil, utils.NewUserError("expected %d public inputs, got %d", rc.NumPublicInputs, len(ctx.PublicInputs))
	}
	cur := inputs
	for _, id := range rc.Layers {
		next, err := rc.evalCircuit(id, cur, ctx)
		if err != nil {
			return nil, err
		}
		cur = next
	}
	return cur, nil
}

// EvalOutputs evaluates the circuit and splits the last layer into the actual
// outputs and whether every asserted output is zero.
func (rc *RootCircuit) EvalOutputs(inputs []constraint.Element, ctx *EvalContext) ([]constraint.Element, bool, error) {
	res, err := rc.Eval(inputs, ctx)
	if err != nil {
		return nil, false, err
	}
	ok := true
	for _, x := range res[:rc.ExpectedNumOutputZeroes] {
		if !field.IsZero(ctx.Field, x) {
			ok = false
		}
	}
	return res[rc.ExpectedNumOutputZeroes : rc.ExpectedNumOutputZeroes+rc.NumActualOutputs], ok, nil
}

// CountNonZeroOutputs returns how many asserted outputs are not zero.
func (rc *RootCircuit) CountNonZeroOutputs(inputs []constraint.Element, ctx *EvalContext) (int, error) {
	res, err := rc.Eval(inputs, ctx)
	if err != nil {
		return 0, err
	}
	n := 0
	for _, x := range res[:rc.ExpectedNumOutputZeroes] {
		if !field.IsZero(ctx.Field, x) {
			n++
		}
	}
	return n, nil
}

func (rc *RootCircuit) evalCircuit(id uint64, inputs []constraint.Element, ctx *EvalContext) ([]constraint.Element, error) {
	c := rc.Circuits[id]
	fd := ctx.Field
	res := make([]constraint.Element, c.OutputLen)
	for i := range res {
		res[i] = field.Zero(fd)
	}
	for _, sub := range c.SubCircuits {
		sc := rc.Circuits[sub.Id]
		for _, a := range sub.Allocations {
			out, err := rc.evalCircuit(sub.Id, inputs[a.InputOffset:a.InputOffset+sc.InputLen], ctx)
			if err != nil {
				return nil, err
			}
			for j, x := range out {
				k := a.OutputOffset + uint64(j)
				res[k] = fd.Add(res[k], x)
			}
		}
	}
	for _, m := range c.Mul {
		coef, err := m.Coef.Eval(ctx)
		if err != nil {
			return nil, err
		}
		x := fd.Mul(fd.Mul(inputs[m.In0], inputs[m.In1]), coef)
		res[m.Out] = fd.Add(res[m.Out], x)
	}
	for _, a := range c.Add {
		coef, err := a.Coef.Eval(ctx)
		if err != nil {
			return nil, err
		}
		res[a.Out] = fd.Add(res[a.Out], fd.Mul(inputs[a.In], coef))
	}
	for _, cs := range c.Cst {
		coef, err := cs.Coef.Eval(ctx)
		if err != nil {
			return nil, err
		}
		res[cs.Out] = fd.Add(res[cs.Out], coef)
	}
	for _, ct := range c.Custom {
		coef, err := ct.Coef.Eval(ctx)
		if err != nil {
			return nil, err
		}
		in := make([]constraint.Element, len(ct.Inputs))
		for j, x := range ct.Inputs {
			in[j] = inputs[x]
		}
		out, err := ctx.Hints.Call(fd, ct.GateType, in, 1)
		if err != nil {
			return nil, fmt.Errorf("custom gate %d: %w", ct.GateType, err)
		}
		res[ct.Out] = fd.Add(res[ct.Out], fd.Mul(out[0], coef))
	}
	return res, nil
}
