package dest

import (
	"github.com/PolyhedraZK/ExpanderIRCompiler/ir/common"
)

// ExportConstraints turns constraints into outputs. A circuit outputs its
// original outputs followed by its constraint variables and then the
// exported values of its calls, in order. The root instead puts the exported
// values first and records their number in ExpectedNumOutputZeroes, so the
// circuit is satisfied iff its leading outputs are zero. r must be valid.
func ExportConstraints(r *RootCircuit) *RootCircuit {
	res := NewRootCircuit(r.Field)
	res.NumPublicInputs = r.NumPublicInputs
	exported := make(map[uint64]int, len(r.Circuits))
	for _, id := range r.CalleesFirst() {
		c := r.Circuits[id]
		nc := &common.Circuit{NumInputs: c.NumInputs}
		newVar := make([]int, c.NumVars()+1)
		for i := 1; i <= c.NumInputs; i++ {
			newVar[i] = i
		}
		f := func(v int) int { return newVar[v] }
		var fromCalls []int
		next := c.NumInputs + 1
		v := c.NumInputs + 1
		for _, insn := range c.Instructions {
			ni := insn.Replace(f)
			extra := 0
			if insn.Type == common.ISubCircuitCall {
				extra = exported[insn.SubCircuitId]
				ni.NumOutputs += extra
			}
			nc.Instructions = append(nc.Instructions, ni)
			for j := 0; j < insn.OutputCount(); j++ {
				newVar[v] = next
				next++
				v++
			}
			for j := 0; j < extra; j++ {
				fromCalls = append(fromCalls, next)
				next++
			}
		}
		var zeroes []int
		for _, con := range c.Constraints {
			zeroes = append(zeroes, newVar[con.Var])
		}
		zeroes = append(zeroes, fromCalls...)
		exported[id] = len(zeroes)
		outputs := make([]int, len(c.Outputs))
		for i, o := range c.Outputs {
			outputs[i] = newVar[o]
		}
		if id == 0 {
			nc.Outputs = append(zeroes, outputs...)
			res.ExpectedNumOutputZeroes = len(zeroes)
		} else {
			nc.Outputs = append(outputs, zeroes...)
		}
		res.Circuits[id] = nc
	}
	return res
}
