package hintnormalized

import (
	"github.com/PolyhedraZK/ExpanderIRCompiler/ir/common"
	"github.com/PolyhedraZK/ExpanderIRCompiler/ir/hintless"
)

// hintCounts returns, per circuit, the number of hint outputs computed by one
// call of it: its own hint outputs and those of its callees.
func hintCounts(r *RootCircuit) map[uint64]int {
	res := make(map[uint64]int, len(r.Circuits))
	for _, id := range r.CalleesFirst() {
		n := 0
		for _, insn := range r.Circuits[id].Instructions {
			switch insn.Type {
			case common.IHint:
				n += insn.NumOutputs
			case common.ISubCircuitCall:
				n += res[insn.SubCircuitId]
			}
		}
		res[id] = n
	}
	return res
}

// RemoveHints turns every hint output into an extra input. The extra inputs
// of a circuit follow its original inputs: first its own hint outputs in
// order, then those of each call in order. Calls pass the matching slice of
// the caller's extra inputs. r must be valid.
func RemoveHints(r *RootCircuit) *hintless.RootCircuit {
	counts := hintCounts(r)
	res := hintless.NewRootCircuit(r.Field)
	res.NumPublicInputs = r.NumPublicInputs
	res.ExpectedNumOutputZeroes = r.ExpectedNumOutputZeroes
	for id, c := range r.Circuits {
		own := 0
		for _, insn := range c.Instructions {
			if insn.Type == common.IHint {
				own += insn.NumOutputs
			}
		}
		nc := &common.Circuit{NumInputs: c.NumInputs + counts[id]}
		newVar := make([]int, c.NumVars()+1)
		for i := 1; i <= c.NumInputs; i++ {
			newVar[i] = i
		}
		f := func(v int) int { return newVar[v] }
		nextHint := c.NumInputs + 1
		nextCallHint := c.NumInputs + own + 1
		next := nc.NumInputs + 1
		v := c.NumInputs + 1
		for _, insn := range c.Instructions {
			switch insn.Type {
			case common.IHint:
				for j := 0; j < insn.NumOutputs; j++ {
					newVar[v] = nextHint
					nextHint++
					v++
				}
				continue
			case common.ISubCircuitCall:
				call := insn.Replace(f)
				for j := 0; j < counts[insn.SubCircuitId]; j++ {
					call.Inputs = append(call.Inputs, nextCallHint)
					nextCallHint++
				}
				nc.Instructions = append(nc.Instructions, call)
			default:
				nc.Instructions = append(nc.Instructions, insn.Replace(f))
			}
			for j := 0; j < insn.OutputCount(); j++ {
				newVar[v] = next
				next++
				v++
			}
		}
		for _, con := range c.Constraints {
			nc.Constraints = append(nc.Constraints, common.Constraint{Typ: con.Typ, Var: newVar[con.Var]})
		}
		nc.Outputs = make([]int, len(c.Outputs))
		for i, o := range c.Outputs {
			nc.Outputs[i] = newVar[o]
		}
		res.Circuits[id] = nc
	}
	return res
}

// ExportHints builds the witness generation circuit. Every call also returns
// the hint outputs computed inside it, after its original outputs. The root
// outputs its inputs followed by every hint output, in the input order of
// RemoveHints. Constraints are dropped. r must be valid.
func ExportHints(r *RootCircuit) *RootCircuit {
	counts := hintCounts(r)
	res := NewRootCircuit(r.Field)
	res.NumPublicInputs = r.NumPublicInputs
	for id, c := range r.Circuits {
		nc := &common.Circuit{NumInputs: c.NumInputs}
		var own, fromCalls []int
		v := c.NumInputs + 1
		next := c.NumInputs + 1
		newVar := make([]int, c.NumVars()+1)
		for i := 1; i <= c.NumInputs; i++ {
			newVar[i] = i
		}
		f := func(v int) int { return newVar[v] }
		for _, insn := range c.Instructions {
			ni := insn.Replace(f)
			extra := 0
			if insn.Type == common.ISubCircuitCall {
				extra = counts[insn.SubCircuitId]
				ni.NumOutputs += extra
			}
			nc.Instructions = append(nc.Instructions, ni)
			for j := 0; j < insn.OutputCount(); j++ {
				newVar[v] = next
				if insn.Type == common.IHint {
					own = append(own, next)
				}
				next++
				v++
			}
			for j := 0; j < extra; j++ {
				fromCalls = append(fromCalls, next)
				next++
			}
		}
		hintVars := append(own, fromCalls...)
		if id == 0 {
			for i := 1; i <= c.NumInputs; i++ {
				nc.Outputs = append(nc.Outputs, i)
			}
			nc.Outputs = append(nc.Outputs, hintVars...)
		} else {
			for _, o := range c.Outputs {
				nc.Outputs = append(nc.Outputs, newVar[o])
			}
			nc.Outputs = append(nc.Outputs, hintVars...)
		}
		res.Circuits[id] = nc
	}
	return res
}
