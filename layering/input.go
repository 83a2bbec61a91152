package layering

import (
	"github.com/PolyhedraZK/ExpanderIRCompiler/inputmapping"
)

// recordInputMapping records where each root input sits in the first layer
// (used to generate the witness).
func (ctx *compileContext) recordInputMapping() *inputmapping.InputMapping {
	ic := ctx.circuits[0]
	l0 := ic.layouts[0]
	m := make([]int, ic.circuit.NumInputs)
	for i := range m {
		if p, ok := l0.varPos[i+1]; ok {
			m[i] = p
		} else {
			m[i] = inputmapping.Empty
		}
	}
	return inputmapping.New(l0.size, m)
}
