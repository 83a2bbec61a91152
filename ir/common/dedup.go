package common

import (
	"github.com/PolyhedraZK/ExpanderIRCompiler/utils"
)

type callKey struct {
	id     uint64
	inputs []int
}

func (k callKey) HashCode() uint64 {
	return utils.IntSeqHash(k.id, k.inputs)
}

func (k callKey) Equal(o callKey) bool {
	return k.id == o.id && utils.IntSeqEqual(k.inputs, o.inputs)
}

// ReassignDuplicateSubCircuitOutputs removes every call that repeats an
// earlier call of the same body with the same ordered inputs. Readers of the
// removed call's outputs read the first call's outputs instead.
func (r *RootCircuit[S]) ReassignDuplicateSubCircuitOutputs() *RootCircuit[S] {
	res := r.emptyLike()
	for id, c := range r.Circuits {
		res.Circuits[id] = dedupCalls(c)
	}
	return res
}

func dedupCalls(c *Circuit) *Circuit {
	newVar := make([]int, c.NumVars()+1)
	for v := 1; v <= c.NumInputs; v++ {
		newVar[v] = v
	}
	f := func(v int) int { return newVar[v] }
	seen := utils.NewHashMap[callKey, int]()
	nc := &Circuit{NumInputs: c.NumInputs}
	next := c.NumInputs + 1
	v := c.NumInputs + 1
	for i := range c.Instructions {
		insn := c.Instructions[i].Replace(f)
		cnt := insn.OutputCount()
		if insn.Type == ISubCircuitCall {
			key := callKey{id: insn.SubCircuitId, inputs: insn.Inputs}
			if first, ok := seen.Find(key); ok {
				for j := 0; j < cnt; j++ {
					newVar[v] = first + j
					v++
				}
				continue
			}
			seen.Set(key, next)
		}
		nc.Instructions = append(nc.Instructions, insn)
		for j := 0; j < cnt; j++ {
			newVar[v] = next
			next++
			v++
		}
	}
	for _, con := range c.Constraints {
		nc.Constraints = append(nc.Constraints, Constraint{Typ: con.Typ, Var: newVar[con.Var]})
	}
	nc.Outputs = make([]int, len(c.Outputs))
	for i, o := range c.Outputs {
		nc.Outputs[i] = newVar[o]
	}
	return nc
}
