// Package dest is the layering-ready IR stage. Every value is a degree-2
// expression over earlier variables, a constant-like value, a custom gate or
// the output of a call.
package dest

import (
	"github.com/PolyhedraZK/ExpanderIRCompiler/field"
	"github.com/PolyhedraZK/ExpanderIRCompiler/ir/common"
)

type Stage struct{}

func (Stage) Name() string { return "dest" }

func (Stage) Magic() uint64 { return 0x54534544_5249_0000 }

func (Stage) AllowsInstruction(t common.InstructionType) bool {
	switch t {
	case common.IInternalVariable, common.IConstantLike, common.ISubCircuitCall, common.ICustomGate:
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

// RandomRootCircuit generates a valid dest root from conf.
func RandomRootCircuit(conf *common.RandomCircuitConfig) *RootCircuit {
	return common.RandomRootCircuit[Stage](conf)
}
