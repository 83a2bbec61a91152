package builder

import (
	"math/big"

	"github.com/PolyhedraZK/ExpanderIRCompiler/hints"
	"github.com/PolyhedraZK/ExpanderIRCompiler/ir/common"
	"github.com/PolyhedraZK/ExpanderIRCompiler/ir/hintnormalized"
	"github.com/PolyhedraZK/ExpanderIRCompiler/ir/source"
	"github.com/PolyhedraZK/ExpanderIRCompiler/layered"
	"github.com/PolyhedraZK/ExpanderIRCompiler/utils"
	"github.com/consensys/gnark/constraint"
)

// HintNormalize rewrites every convenience instruction of a source root into
// arithmetic instructions around explicit hint calls, and every constraint
// into a must-be-zero constraint. For deterministic hints the result computes
// the same outputs. r must be valid.
func HintNormalize(r *source.RootCircuit) (*hintnormalized.RootCircuit, error) {
	res := hintnormalized.NewRootCircuit(r.Field)
	res.NumPublicInputs = r.NumPublicInputs
	res.ExpectedNumOutputZeroes = r.ExpectedNumOutputZeroes
	for _, id := range r.SortedIds() {
		c, err := normalizeCircuit(r, r.Circuits[id])
		if err != nil {
			return nil, utils.NewUserError("circuit %d: %v", id, err)
		}
		res.Circuits[id] = c
	}
	return res, nil
}

type normalizer struct {
	*builder
	// values of the output variables known at compile time
	consts map[int]constraint.Element
}

func normalizeCircuit(r *source.RootCircuit, c *common.Circuit) (*common.Circuit, error) {
	n := &normalizer{builder: newBuilder(r.Field, c), consts: make(map[int]constraint.Element)}
	v := c.NumInputs + 1
	for i := range c.Instructions {
		insn := c.Instructions[i].Replace(n.mapVar)
		outs, err := n.normalize(&insn)
		if err != nil {
			return nil, err
		}
		for _, o := range outs {
			n.newVar[v] = o
			v++
		}
	}
	for _, con := range c.Constraints {
		x := n.mapVar(con.Var)
		switch con.Typ {
		case common.Zero:
			n.assertZero(x)
		case common.Bool:
			n.assertBoolean(x)
		case common.NonZero:
			_, prod := n.inverse(x)
			n.assertZero(n.linComb(n.tMinusOne, []int{prod}, []constraint.Element{n.tOne}))
		}
	}
	n.out.Outputs = make([]int, len(c.Outputs))
	for i, o := range c.Outputs {
		n.out.Outputs[i] = n.mapVar(o)
	}
	return n.out, nil
}

// constant emits a constant and remembers its value
func (n *normalizer) constant(x constraint.Element) int {
	v := n.emit(common.NewConstantLike(layered.NewConstantCoef(n.field.ToBigInt(x))))
	n.consts[v] = x
	return v
}

func (n *normalizer) constValues(vars []int) ([]*big.Int, bool) {
	res := make([]*big.Int, len(vars))
	for i, v := range vars {
		x, ok := n.consts[v]
		if !ok {
			return nil, false
		}
		res[i] = n.field.ToBigInt(x)
	}
	return res, true
}

// builtin emits a builtin hint call, or its value when every input is known
func (n *normalizer) builtin(id uint64, inputs []int, numOutputs int) []int {
	if in, ok := n.constValues(inputs); ok {
		if out, err := hints.CallBuiltin(id, n.field.Field(), in, numOutputs); err == nil {
			res := make([]int, len(out))
			for i, x := range out {
				res[i] = n.constant(n.field.FromInterface(x))
			}
			return res
		}
	}
	first := n.emit(common.NewHint(id, inputs, numOutputs))
	return seq(first, numOutputs)
}

func seq(first, cnt int) []int {
	res := make([]int, cnt)
	for i := range res {
		res[i] = first + i
	}
	return res
}

// normalize emits the replacement of insn, whose variables are already
// mapped, and returns the variables holding its outputs
func (n *normalizer) normalize(insn *common.Instruction) ([]int, error) {
	fd := n.field
	switch insn.Type {
	case common.ILinComb:
		v := n.emit(*insn)
		if len(insn.LinComb.Terms) == 0 {
			n.consts[v] = insn.LinComb.Constant
		}
		return []int{v}, nil
	case common.IConstantLike:
		if insn.Coef.IsConstant() {
			return []int{n.constant(fd.FromInterface(insn.Coef.Value))}, nil
		}
		return []int{n.emit(*insn)}, nil
	case common.IMul, common.IHint, common.ISubCircuitCall, common.ICustomGate:
		return seq(n.emit(*insn), insn.OutputCount()), nil

	case common.IDiv:
		x, y := insn.Inputs[0], insn.Inputs[1]
		if cy, ok := n.consts[y]; ok {
			inv, nonZero := fd.Inverse(cy)
			if nonZero {
				return []int{n.linComb(constraint.Element{}, []int{x}, []constraint.Element{inv})}, nil
			}
			if insn.Checked {
				return nil, utils.NewUserError("division by constant zero")
			}
		}
		if insn.Checked {
			inv, prod := n.inverse(y)
			n.assertZero(n.linComb(n.tMinusOne, []int{prod}, []constraint.Element{n.tOne}))
			return []int{n.emit(common.NewMul(x, inv))}, nil
		}
		d := n.emit(common.NewHint(hints.Div, []int{x, y}, 1))
		yd := n.emit(common.NewMul(y, d))
		n.assertZero(n.linComb(constraint.Element{}, []int{yd, x}, []constraint.Element{n.tOne, n.tMinusOne}))
		return []int{d}, nil

	case common.IBoolBinOp:
		x, y := insn.Inputs[0], insn.Inputs[1]
		n.assertBoolean(x)
		if y != x {
			n.assertBoolean(y)
		}
		xy := n.emit(common.NewMul(x, y))
		switch insn.BoolOp {
		case common.BoolAnd:
			return []int{xy}, nil
		case common.BoolOr:
			return []int{n.linComb(constraint.Element{}, []int{x, y, xy},
				[]constraint.Element{n.tOne, n.tOne, n.tMinusOne})}, nil
		default:
			return []int{n.linComb(constraint.Element{}, []int{x, y, xy},
				[]constraint.Element{n.tOne, n.tOne, fd.FromInterface(-2)})}, nil
		}

	case common.IIsZero:
		x := insn.Inputs[0]
		if cx, ok := n.consts[x]; ok {
			res := constraint.Element{}
			if fd.ToBigInt(cx).Sign() == 0 {
				res = n.tOne
			}
			return []int{n.constant(res)}, nil
		}
		_, prod := n.inverse(x)
		m := n.linComb(n.tOne, []int{prod}, []constraint.Element{n.tMinusOne})
		n.assertZero(n.emit(common.NewMul(x, m)))
		return []int{m}, nil

	case common.IUnconstrainedBinOp:
		return n.builtin(insn.HintId, insn.Inputs, 1), nil
	case common.IUnconstrainedSelect:
		return n.builtin(hints.Select, insn.Inputs, 1), nil
	case common.IToBinary:
		return n.builtin(hints.ToBinary, insn.Inputs, insn.NumOutputs), nil
	}
	return nil, utils.NewUserError("unexpected instruction %s", insn.Type)
}
