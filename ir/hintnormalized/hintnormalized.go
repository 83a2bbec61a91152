// Package hintnormalized is the IR stage where every off-circuit computation
// is an explicit hint call and every constraint asserts a value is zero.
package hintnormalized

import (
	"github.com/PolyhedraZK/ExpanderIRCompiler/field"
	"github.com/PolyhedraZK/ExpanderIRCompiler/ir/common"
)

type Stage struct{}

func (Stage) Name() string { return "hint_normalized" }

func (Stage) Magic() uint64 { return 0x4d524f4e_544e_4948 }

func (Stage) AllowsInstruction(t common.InstructionType) bool {
	switch t {
	case common.ILinComb, common.IMul, common.IHint, common.IConstantLike,
		common.ISubCircuitCall, common.ICustomGate:
		return true
	}
	return false
}

func (Stage) AllowsConstraint(t common.ConstraintType) bool {
	return t == common.Zero
}

type RootCircuit = common.RootCircuit[Stage]

type EvalContext = common.EvalContext

func NewRootCircuit(fd field.Field) *RootCircuit {
	return common.NewRootCircuit[Stage](fd)
}

func Deserialize(buf []byte, expected field.Field) (*RootCircuit, error) {
	return common.Deserialize[Stage](buf, expected)
}
