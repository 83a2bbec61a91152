// Package source is the first IR stage: the circuit as the builder emits it,
// with every convenience instruction still present.
package source

import (
	"github.com/PolyhedraZK/ExpanderIRCompiler/field"
	"github.com/PolyhedraZK/ExpanderIRCompiler/ir/common"
)

type Stage struct{}

func (Stage) Name() string { return "source" }

func (Stage) Magic() uint64 { return 0x45435255_4f53_5249 }

func (Stage) AllowsInstruction(t common.InstructionType) bool {
	return t != common.IInternalVariable
}

func (Stage) AllowsConstraint(t common.ConstraintType) bool {
	return true
}

type RootCircuit = common.RootCircuit[Stage]

func NewRootCircuit(fd field.Field) *RootCircuit {
	return common.NewRootCircuit[Stage](fd)
}

func Deserialize(buf []byte, expected field.Field) (*RootCircuit, error) {
	return common.Deserialize[Stage](buf, expected)
}

// RandomRootCircuit generates a valid source root from conf.
func RandomRootCircuit(conf *common.RandomCircuitConfig) *RootCircuit {
	return common.RandomRootCircuit[Stage](conf)
}
