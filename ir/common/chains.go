package common

import (
	"github.com/PolyhedraZK/ExpanderIRCompiler/field"
)

// DetectChains fuses single-use chains: a linear combination term that reads
// another linear combination used nowhere else is replaced by that
// combination's terms, and likewise for products. The fused producer is left
// dead for RemoveUnreachable.
func (r *RootCircuit[S]) DetectChains() *RootCircuit[S] {
	res := r.emptyLike()
	for id, c := range r.Circuits {
		res.Circuits[id] = detectChains(r.Field, c)
	}
	return res
}

func detectChains(fd field.Field, c *Circuit) *Circuit {
	n := c.NumVars()
	refs := make([]int, n+1)
	def := make([]int, n+1)
	for v := range def {
		def[v] = -1
	}
	insns := make([]Instruction, len(c.Instructions))
	v := c.NumInputs + 1
	for i := range c.Instructions {
		insns[i] = c.Instructions[i].Replace(func(x int) int { return x })
		for _, x := range insns[i].Vars() {
			refs[x]++
		}
		cnt := insns[i].OutputCount()
		if cnt == 1 {
			def[v] = i
		}
		v += cnt
	}
	for _, con := range c.Constraints {
		refs[con.Var]++
	}
	for _, o := range c.Outputs {
		refs[o]++
	}

	single := func(x int, typ InstructionType) (int, bool) {
		p := def[x]
		if p < 0 || refs[x] != 1 || insns[p].Type != typ {
			return 0, false
		}
		return p, true
	}
	for k := range insns {
		insn := &insns[k]
		switch insn.Type {
		case ILinComb:
			for i := 0; i < len(insn.LinComb.Terms); i++ {
				x := insn.LinComb.Terms[i].Var
				p, ok := single(x, ILinComb)
				if !ok {
					continue
				}
				insn.LinComb = insn.LinComb.Inline(fd, i, insns[p].LinComb)
				refs[x] = 0
				i = -1
			}
		case IMul:
			for i := 0; i < len(insn.Inputs); i++ {
				x := insn.Inputs[i]
				p, ok := single(x, IMul)
				if !ok {
					continue
				}
				rest := make([]int, 0, len(insn.Inputs)-1)
				rest = append(rest, insn.Inputs[:i]...)
				rest = append(rest, insn.Inputs[i+1:]...)
				o := insns[p].Inputs
				if len(rest) >= len(o) {
					insn.Inputs = append(rest, o...)
				} else {
					insn.Inputs = append(append([]int{}, o...), rest...)
				}
				refs[x] = 0
				i = -1
			}
		}
	}
	return &Circuit{
		Instructions: insns,
		Constraints:  append([]Constraint(nil), c.Constraints...),
		Outputs:      append([]int(nil), c.Outputs...),
		NumInputs:    c.NumInputs,
	}
}
