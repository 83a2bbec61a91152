// Package layered is the compiled form of a circuit: a chain of layers, each
// an instance of a segment that may embed child segments.
package layered

import (
	"fmt"
	"math/big"

	"github.com/PolyhedraZK/ExpanderIRCompiler/field"
	"github.com/PolyhedraZK/ExpanderIRCompiler/hints"
	"github.com/PolyhedraZK/ExpanderIRCompiler/utils"
	"github.com/consensys/gnark/constraint"
)

type CoefType uint8

const (
	CoefConstant CoefType = iota + 1
	CoefRandom
	CoefPublicInput
)

// Coef is the coefficient of a gate, or the value of a constant-like
// instruction: a field constant, the verifier challenge, or a public input.
type Coef struct {
	Type          CoefType
	Value         *big.Int
	PublicInputId int
}

func NewConstantCoef(x *big.Int) Coef {
	return Coef{Type: CoefConstant, Value: new(big.Int).Set(x)}
}

func NewRandomCoef() Coef {
	return Coef{Type: CoefRandom}
}

func NewPublicInputCoef(id int) Coef {
	return Coef{Type: CoefPublicInput, PublicInputId: id}
}

// EvalContext carries everything evaluation needs besides the inputs.
type EvalContext struct {
	Field        field.Field
	PublicInputs []constraint.Element
	// RandomValue is substituted for every random coefficient.
	RandomValue constraint.Element
	// Hints evaluates hint calls and custom gates.
	Hints hints.Caller
}

func (c Coef) IsConstant() bool {
	return c.Type == CoefConstant
}

func (c Coef) Eval(ctx *EvalContext) (constraint.Element, error) {
	switch c.Type {
	case CoefConstant:
		return ctx.Field.FromInterface(c.Value), nil
	case CoefRandom:
		return ctx.RandomValue, nil
	case CoefPublicInput:
		if c.PublicInputId < 0 || c.PublicInputId >= len(ctx.PublicInputs) {
			return constraint.Element{}, utils.NewUserError("public input %d out of range, %d given", c.PublicInputId, len(ctx.PublicInputs))
		}
		return ctx.PublicInputs[c.PublicInputId], nil
	}
	return constraint.Element{}, fmt.Errorf("invalid coef type %d", c.Type)
}

func (c Coef) Validate(numPublicInputs int) error {
	switch c.Type {
	case CoefConstant:
		if c.Value == nil || c.Value.Sign() < 0 {
			return fmt.Errorf("invalid constant coef")
		}
	case CoefRandom:
	case CoefPublicInput:
		if c.PublicInputId < 0 || c.PublicInputId >= numPublicInputs {
			return fmt.Errorf("public input %d out of range [0,%d)", c.PublicInputId, numPublicInputs)
		}
	default:
		return fmt.Errorf("invalid coef type %d", c.Type)
	}
	return nil
}

func (c Coef) String() string {
	switch c.Type {
	case CoefConstant:
		return c.Value.String()
	case CoefRandom:
		return "random"
	case CoefPublicInput:
		return fmt.Sprintf("public_input[%d]", c.PublicInputId)
	}
	return "invalid"
}

func (c Coef) Serialize(o *utils.OutputBuf, fieldLen int) {
	o.AppendUint8(uint8(c.Type))
	switch c.Type {
	case CoefConstant:
		o.AppendBigInt(fieldLen, c.Value)
	case CoefPublicInput:
		o.AppendUint64(uint64(c.PublicInputId))
	}
}

func DeserializeCoef(in *utils.InputBuf, fieldLen int) Coef {
	c := Coef{Type: CoefType(in.ReadUint8())}
	switch c.Type {
	case CoefConstant:
		c.Value = in.ReadBigInt(fieldLen)
	case CoefPublicInput:
		c.PublicInputId = int(in.ReadUint64())
	}
	return c
}

type RootCircuit struct {
	Field                   *big.Int
	NumPublicInputs         int
	NumActualOutputs        int
	ExpectedNumOutputZeroes int
	Circuits                []*Circuit
	// Layers[i] is the segment occupying layer i
	Layers []uint64
}

// Circuit is a segment: it maps a layer of InputLen values to a layer of
// OutputLen values.
type Circuit struct {
	InputLen    uint64
	OutputLen   uint64
	SubCircuits []SubCircuit
	Mul         []GateMul
	Add         []GateAdd
	Cst         []GateCst
	Custom      []GateCustom
}

type SubCircuit struct {
	Id          uint64
	Allocations []Allocation
}

type Allocation struct {
	InputOffset  uint64
	OutputOffset uint64
}

type GateMul struct {
	In0  uint64
	In1  uint64
	Out  uint64
	Coef Coef
}

type GateAdd struct {
	In   uint64
	Out  uint64
	Coef Coef
}

type GateCst struct {
	Out  uint64
	Coef Coef
}

// GateCustom evaluates an externally defined gate, identified by GateType,
// over its inputs.
type GateCustom struct {
	GateType uint64
	Inputs   []uint64
	Out      uint64
	Coef     Coef
}

func (c *Circuit) Print() {
	fmt.Printf("Input=%d Output=%d\n", c.InputLen, c.OutputLen)
	for _, sub := range c.SubCircuits {
		fmt.Printf("Apply circuit %d at:\n", sub.Id)
		for _, a := range sub.Allocations {
			fmt.Printf("    InputOffset=%d OutputOffset=%d\n", a.InputOffset, a.OutputOffset)
		}
	}
	for _, m := range c.Mul {
		fmt.Printf("out%d += in%d * in%d * %s\n", m.Out, m.In0, m.In1, m.Coef.String())
	}
	for _, a := range c.Add {
		fmt.Printf("out%d += in%d * %s\n", a.Out, a.In, a.Coef.String())
	}
	for _, cs := range c.Cst {
		fmt.Printf("out%d += %s\n", cs.Out, cs.Coef.String())
	}
	for _, ct := range c.Custom {
		fmt.Printf("out%d += %s(%v) * %s\n", ct.Out, hints.Name(ct.GateType), ct.Inputs, ct.Coef.String())
	}
}

func (rc *RootCircuit) Print() {
	for i, c := range rc.Circuits {
		fmt.Printf("Circuit %d: ", i)
		c.Print()
		fmt.Printf("================================\n")
	}
	fmt.Printf("Layers: %v\n", rc.Layers)
}

// InputSize is the number of values the first layer reads.
func (rc *RootCircuit) InputSize() int {
	return int(rc.Circuits[rc.Layers[0]].InputLen)
}

func (rc *RootCircuit) OutputSize() int {
	return int(rc.Circuits[rc.Layers[len(rc.Layers)-1]].OutputLen)
}
