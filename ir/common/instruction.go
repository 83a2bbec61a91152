package common

import (
	"fmt"

	"github.com/PolyhedraZK/ExpanderIRCompiler/expr"
	"github.com/PolyhedraZK/ExpanderIRCompiler/hints"
	"github.com/PolyhedraZK/ExpanderIRCompiler/layered"
)

// InstructionType enumerates the instruction kinds of every stage. Each stage
// accepts a subset of them.
type InstructionType uint8

const (
	_ InstructionType = iota
	ILinComb
	IMul
	IHint
	IConstantLike
	ISubCircuitCall
	ICustomGate
	IDiv
	IBoolBinOp
	IIsZero
	IUnconstrainedBinOp
	IUnconstrainedSelect
	IToBinary
	IInternalVariable
	numInstructionTypes
)

var instructionNames = [...]string{
	ILinComb:             "lincomb",
	IMul:                 "mul",
	IHint:                "hint",
	IConstantLike:        "constant",
	ISubCircuitCall:      "call",
	ICustomGate:          "custom_gate",
	IDiv:                 "div",
	IBoolBinOp:           "bool_binop",
	IIsZero:              "is_zero",
	IUnconstrainedBinOp:  "unconstrained_binop",
	IUnconstrainedSelect: "unconstrained_select",
	IToBinary:            "to_binary",
	IInternalVariable:    "internal_variable",
}

func (t InstructionType) String() string {
	if t == 0 || t >= numInstructionTypes {
		return fmt.Sprintf("instruction(%d)", uint8(t))
	}
	return instructionNames[t]
}

type BoolBinOpType uint8

const (
	BoolXor BoolBinOpType = iota + 1
	BoolOr
	BoolAnd
)

// Instruction is one step of a circuit body. Which fields are meaningful
// depends on Type:
//   - ILinComb: LinComb
//   - IMul: Inputs, at least 2
//   - IHint: HintId, Inputs, NumOutputs
//   - IConstantLike: Coef
//   - ISubCircuitCall: SubCircuitId, Inputs, NumOutputs
//   - ICustomGate: GateType, Inputs
//   - IDiv: Inputs = [x, y], Checked
//   - IBoolBinOp: Inputs = [x, y], BoolOp
//   - IIsZero: Inputs = [x]
//   - IUnconstrainedBinOp: Inputs = [x, y], HintId is the builtin hint of the operation
//   - IUnconstrainedSelect: Inputs = [cond, ifTrue, ifFalse]
//   - IToBinary: Inputs = [x], NumOutputs bits
//   - IInternalVariable: Expr
type Instruction struct {
	Type         InstructionType
	Inputs       []int
	LinComb      expr.LinComb
	Expr         expr.Expression
	Coef         layered.Coef
	HintId       uint64
	GateType     uint64
	SubCircuitId uint64
	BoolOp       BoolBinOpType
	Checked      bool
	NumOutputs   int
}

func NewLinComb(lc expr.LinComb) Instruction {
	return Instruction{Type: ILinComb, LinComb: lc}
}

func NewMul(inputs ...int) Instruction {
	return Instruction{Type: IMul, Inputs: inputs}
}

func NewHint(hintId uint64, inputs []int, numOutputs int) Instruction {
	return Instruction{Type: IHint, HintId: hintId, Inputs: inputs, NumOutputs: numOutputs}
}

func NewConstantLike(c layered.Coef) Instruction {
	return Instruction{Type: IConstantLike, Coef: c}
}

func NewSubCircuitCall(id uint64, inputs []int, numOutputs int) Instruction {
	return Instruction{Type: ISubCircuitCall, SubCircuitId: id, Inputs: inputs, NumOutputs: numOutputs}
}

func NewCustomGate(gateType uint64, inputs ...int) Instruction {
	return Instruction{Type: ICustomGate, GateType: gateType, Inputs: inputs}
}

func NewDiv(x, y int, checked bool) Instruction {
	return Instruction{Type: IDiv, Inputs: []int{x, y}, Checked: checked}
}

func NewBoolBinOp(x, y int, op BoolBinOpType) Instruction {
	return Instruction{Type: IBoolBinOp, Inputs: []int{x, y}, BoolOp: op}
}

func NewIsZero(x int) Instruction {
	return Instruction{Type: IIsZero, Inputs: []int{x}}
}

// NewUnconstrainedBinOp computes the builtin binary hint op off-circuit.
func NewUnconstrainedBinOp(op uint64, x, y int) Instruction {
	return Instruction{Type: IUnconstrainedBinOp, HintId: op, Inputs: []int{x, y}}
}

func NewUnconstrainedSelect(cond, ifTrue, ifFalse int) Instruction {
	return Instruction{Type: IUnconstrainedSelect, Inputs: []int{cond, ifTrue, ifFalse}}
}

func NewToBinary(x int, numBits int) Instruction {
	return Instruction{Type: IToBinary, Inputs: []int{x}, NumOutputs: numBits}
}

func NewInternalVariable(e expr.Expression) Instruction {
	return Instruction{Type: IInternalVariable, Expr: e}
}

// Vars returns every variable the instruction reads, with repetitions.
func (insn *Instruction) Vars() []int {
	switch insn.Type {
	case ILinComb:
		return insn.LinComb.Vars()
	case IInternalVariable:
		return insn.Expr.Vars()
	}
	return insn.Inputs
}

func (insn *Instruction) OutputCount() int {
	switch insn.Type {
	case IHint, ISubCircuitCall, IToBinary:
		return insn.NumOutputs
	}
	return 1
}

// Replace returns a deep copy with every variable v replaced by f(v).
func (insn *Instruction) Replace(f func(int) int) Instruction {
	res := *insn
	if insn.Inputs != nil {
		res.Inputs = make([]int, len(insn.Inputs))
		for i, x := range insn.Inputs {
			res.Inputs[i] = f(x)
		}
	}
	switch insn.Type {
	case ILinComb:
		res.LinComb = insn.LinComb.Replace(f)
	case IInternalVariable:
		res.Expr = insn.Expr.Replace(f)
	}
	return res
}

// validate checks the arity rules of the instruction itself. Variable ranges
// and sub-circuit shapes are checked by the circuit.
func (insn *Instruction) validate(numPublicInputs int) error {
	n := len(insn.Inputs)
	switch insn.Type {
	case ILinComb:
		if n != 0 {
			return fmt.Errorf("lincomb takes no plain inputs")
		}
	case IMul:
		if n < 2 {
			return fmt.Errorf("mul requires at least 2 inputs, got %d", n)
		}
	case IHint:
		return hints.Validate(insn.HintId, n, insn.NumOutputs)
	case IConstantLike:
		if n != 0 {
			return fmt.Errorf("constant takes no inputs")
		}
		return insn.Coef.Validate(numPublicInputs)
	case ISubCircuitCall:
		if insn.NumOutputs < 0 {
			return fmt.Errorf("negative output count")
		}
	case ICustomGate:
		if n == 0 {
			return fmt.Errorf("custom gate requires at least 1 input")
		}
	case IDiv:
		if n != 2 {
			return fmt.Errorf("div requires 2 inputs, got %d", n)
		}
	case IBoolBinOp:
		if n != 2 {
			return fmt.Errorf("bool binop requires 2 inputs, got %d", n)
		}
		if insn.BoolOp < BoolXor || insn.BoolOp > BoolAnd {
			return fmt.Errorf("invalid bool binop %d", insn.BoolOp)
		}
	case IIsZero:
		if n != 1 {
			return fmt.Errorf("is_zero requires 1 input, got %d", n)
		}
	case IUnconstrainedBinOp:
		if !hints.IsBuiltin(insn.HintId) || hints.Validate(insn.HintId, 2, 1) != nil {
			return fmt.Errorf("%s is not a binary op", hints.Name(insn.HintId))
		}
		if n != 2 {
			return fmt.Errorf("unconstrained binop requires 2 inputs, got %d", n)
		}
	case IUnconstrainedSelect:
		if n != 3 {
			return fmt.Errorf("unconstrained select requires 3 inputs, got %d", n)
		}
	case IToBinary:
		if n != 1 {
			return fmt.Errorf("to_binary requires 1 input, got %d", n)
		}
		if insn.NumOutputs < 1 {
			return fmt.Errorf("to_binary requires at least 1 bit")
		}
	case IInternalVariable:
		if n != 0 {
			return fmt.Errorf("internal variable takes no plain inputs")
		}
		if len(insn.Expr) == 0 {
			return fmt.Errorf("empty expression")
		}
		for _, t := range insn.Expr {
			if t.VID0 == 0 && t.VID1 != 0 {
				return fmt.Errorf("VID0 is zero but VID1 %d is not", t.VID1)
			}
		}
	default:
		return fmt.Errorf("unknown instruction type %d", insn.Type)
	}
	return nil
}
