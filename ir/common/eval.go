package common

import (
	"fmt"
	"math/big"

	"github.com/PolyhedraZK/ExpanderIRCompiler/field"
	"github.com/PolyhedraZK/ExpanderIRCompiler/hints"
	"github.com/PolyhedraZK/ExpanderIRCompiler/layered"
	"github.com/PolyhedraZK/ExpanderIRCompiler/utils"
	"github.com/consensys/gnark/constraint"
)

type EvalContext = layered.EvalContext

// EvalResult is the outcome of evaluating the root circuit.
type EvalResult struct {
	Outputs []constraint.Element
	// Violations counts the constraints that do not hold, in every body
	// instance reached.
	Violations int
}

func (res *EvalResult) Satisfied() bool {
	return res.Violations == 0
}

// EvalSafe evaluates the root circuit on inputs. Failures a user can trigger,
// like a division by zero or an unknown hint, are returned as errors.
func (r *RootCircuit[S]) EvalSafe(inputs []constraint.Element, ctx *EvalContext) (*EvalResult, error) {
	if len(inputs) != r.InputSize() {
		return nil, utils.NewUserError("expected %d inputs, got %d", r.InputSize(), len(inputs))
	}
	if len(ctx.PublicInputs) != r.NumPublicInputs {
		return nil, utils.NewUserError("expected %d public inputs, got %d", r.NumPublicInputs, len(ctx.PublicInputs))
	}
	res := &EvalResult{}
	out, err := r.evalSub(0, inputs, ctx, res)
	if err != nil {
		return nil, err
	}
	res.Outputs = out
	return res, nil
}

// EvalUnsafe is EvalSafe for callers that know evaluation cannot fail. It
// panics otherwise.
func (r *RootCircuit[S]) EvalUnsafe(inputs []constraint.Element, ctx *EvalContext) ([]constraint.Element, bool) {
	res, err := r.EvalSafe(inputs, ctx)
	if err != nil {
		panic(err)
	}
	return res.Outputs, res.Satisfied()
}

// evalSub runs one body in a fresh variable space.
func (r *RootCircuit[S]) evalSub(id uint64, inputs []constraint.Element, ctx *EvalContext, res *EvalResult) ([]constraint.Element, error) {
	c := r.Circuits[id]
	values := make([]constraint.Element, 1, c.NumVars()+1)
	values = append(values, inputs...)
	for i := range c.Instructions {
		insn := &c.Instructions[i]
		var out []constraint.Element
		var err error
		if insn.Type == ISubCircuitCall {
			args := make([]constraint.Element, len(insn.Inputs))
			for j, v := range insn.Inputs {
				args[j] = values[v]
			}
			out, err = r.evalSub(insn.SubCircuitId, args, ctx, res)
		} else {
			out, err = insn.Eval(ctx, values)
		}
		if err != nil {
			return nil, err
		}
		values = append(values, out...)
	}
	for _, con := range c.Constraints {
		if !con.Check(ctx.Field, values[con.Var]) {
			res.Violations++
		}
	}
	out := make([]constraint.Element, len(c.Outputs))
	for i, v := range c.Outputs {
		out[i] = values[v]
	}
	return out, nil
}

// Eval computes the outputs of a single instruction other than a call.
func (insn *Instruction) Eval(ctx *EvalContext, values []constraint.Element) ([]constraint.Element, error) {
	fd := ctx.Field
	in := func(i int) constraint.Element {
		return values[insn.Inputs[i]]
	}
	args := func() []constraint.Element {
		res := make([]constraint.Element, len(insn.Inputs))
		for i, v := range insn.Inputs {
			res[i] = values[v]
		}
		return res
	}
	single := func(x constraint.Element) ([]constraint.Element, error) {
		return []constraint.Element{x}, nil
	}
	switch insn.Type {
	case ILinComb:
		return single(insn.LinComb.Eval(fd, values))
	case IInternalVariable:
		return single(insn.Expr.Eval(fd, values))
	case IMul:
		x := fd.One()
		for i := range insn.Inputs {
			x = fd.Mul(x, in(i))
		}
		return single(x)
	case IConstantLike:
		x, err := insn.Coef.Eval(ctx)
		if err != nil {
			return nil, err
		}
		return single(x)
	case IHint:
		return ctx.Hints.Call(fd, insn.HintId, args(), insn.NumOutputs)
	case ICustomGate:
		return ctx.Hints.Call(fd, insn.GateType, args(), 1)
	case IDiv:
		x, y := in(0), in(1)
		inv, ok := fd.Inverse(y)
		if !ok {
			if field.IsZero(fd, x) && !insn.Checked {
				return single(field.Zero(fd))
			}
			return nil, utils.NewUserError("division by zero")
		}
		return single(fd.Mul(x, inv))
	case IBoolBinOp:
		x, y := in(0), in(1)
		if !isBool(fd, x) || !isBool(fd, y) {
			return nil, utils.NewUserError("invalid bool value")
		}
		xy := fd.Mul(x, y)
		switch insn.BoolOp {
		case BoolXor:
			return single(fd.Sub(fd.Add(x, y), fd.Add(xy, xy)))
		case BoolOr:
			return single(fd.Sub(fd.Add(x, y), xy))
		case BoolAnd:
			return single(xy)
		}
	case IIsZero:
		if field.IsZero(fd, in(0)) {
			return single(fd.One())
		}
		return single(field.Zero(fd))
	case IUnconstrainedBinOp:
		switch insn.HintId {
		case hints.Div, hints.IntDiv, hints.Mod:
			if field.IsZero(fd, in(1)) {
				return nil, utils.NewUserError("division by zero")
			}
		}
		return callBuiltin(fd, insn.HintId, args(), 1)
	case IUnconstrainedSelect:
		return callBuiltin(fd, hints.Select, args(), 1)
	case IToBinary:
		return callBuiltin(fd, hints.ToBinary, args(), insn.NumOutputs)
	}
	return nil, fmt.Errorf("cannot evaluate %s", insn.Type)
}

func isBool(fd field.Field, x constraint.Element) bool {
	return field.IsZero(fd, x) || fd.IsOne(x)
}

func callBuiltin(fd field.Field, id uint64, in []constraint.Element, numOutputs int) ([]constraint.Element, error) {
	bigIn := make([]*big.Int, len(in))
	for i, x := range in {
		bigIn[i] = fd.ToBigInt(x)
	}
	out, err := hints.CallBuiltin(id, fd.Field(), bigIn, numOutputs)
	if err != nil {
		return nil, err
	}
	res := make([]constraint.Element, len(out))
	for i, x := range out {
		res[i] = fd.FromInterface(x)
	}
	return res, nil
}

// ElementsEqual compares two value vectors.
func ElementsEqual(fd field.Field, a, b []constraint.Element) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if !field.Equal(fd, a[i], b[i]) {
			return false
		}
	}
	return true
}
