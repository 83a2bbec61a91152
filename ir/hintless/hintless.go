// Package hintless is the arithmetized IR stage: hint outputs have become
// circuit inputs, so every value is a polynomial in the inputs.
package hintless

import (
	"github.com/PolyhedraZK/ExpanderIRCompiler/field"
	"github.com/PolyhedraZK/ExpanderIRCompiler/ir/common"
)

type Stage struct{}

func (Stage) Name() string { return "hint_less" }

func (Stage) Magic() uint64 { return 0x53534c54_4e49_4800 }

func (Stage) AllowsInstruction(t common.InstructionType) bool {
	switch t {
	case common.ILinComb, common.IMul, common.IConstantLike,
		common.ISubCircuitCall, common.ICustomGate:
		return true
	}
	return false
}

func (Stage) AllowsConstraint(t common.ConstraintType) bool {
	return t == common.Zero
}

type RootCircuit = common.RootCircuit[Stage]

func NewRootCircuit(fd field.Field) *RootCircuit {
	return common.NewRootCircuit[Stage](fd)
}
