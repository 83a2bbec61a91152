package dest

import (
	"fmt"

	"github.com/PolyhedraZK/ExpanderIRCompiler/expr"
	"github.com/PolyhedraZK/ExpanderIRCompiler/field"
	"github.com/PolyhedraZK/ExpanderIRCompiler/ir/common"
)

// mulRefs counts, per variable, its occurrences as a factor of a quadratic
// term. x*x counts twice.
func mulRefs(c *common.Circuit) []int {
	refs := make([]int, c.NumVars()+1)
	for _, insn := range c.Instructions {
		if insn.Type != common.IInternalVariable {
			continue
		}
		for _, t := range insn.Expr {
			if t.VID1 != 0 {
				refs[t.VID0]++
				refs[t.VID1]++
			}
		}
	}
	return refs
}

// MaxMulFanout is the largest number of quadratic factor occurrences of one
// variable over all circuits.
func MaxMulFanout(r *RootCircuit) int {
	res := 0
	for _, c := range r.Circuits {
		for _, x := range mulRefs(c) {
			if x > res {
				res = x
			}
		}
	}
	return res
}

// SolveMulFanoutLimit bounds by limit the number of quadratic factor
// occurrences of every variable. A variable used more often gets copies,
// defined right after it, and its occurrences are spread over the copies in
// chunks of limit.
func SolveMulFanoutLimit(r *RootCircuit, limit int) (*RootCircuit, error) {
	if limit <= 1 {
		return nil, fmt.Errorf("mul fanout limit must be at least 2, got %d", limit)
	}
	res := NewRootCircuit(r.Field)
	res.NumPublicInputs = r.NumPublicInputs
	res.ExpectedNumOutputZeroes = r.ExpectedNumOutputZeroes
	for id, c := range r.Circuits {
		res.Circuits[id] = solveFanout(r.Field, c, limit)
	}
	return res, nil
}

func solveFanout(fd field.Field, c *common.Circuit, limit int) *common.Circuit {
	refs := mulRefs(c)
	copies := make([][]int, len(refs))
	nc := &common.Circuit{NumInputs: c.NumInputs}
	newVar := make([]int, len(refs))
	next := c.NumInputs + 1

	// copies of v are (v, copy_1, ..., copy_k) in output numbering
	addCopies := func(v int) {
		if refs[v] <= limit {
			return
		}
		k := (refs[v]+limit-1)/limit - 1
		copies[v] = append(copies[v], newVar[v])
		for i := 0; i < k; i++ {
			nc.Instructions = append(nc.Instructions, common.NewInternalVariable(
				expr.NewLinearExpression(newVar[v], fd.One())))
			copies[v] = append(copies[v], next)
			next++
		}
	}
	for v := 1; v <= c.NumInputs; v++ {
		newVar[v] = v
	}
	for v := 1; v <= c.NumInputs; v++ {
		addCopies(v)
	}

	used := make([]int, len(refs))
	factor := func(v int) int {
		if copies[v] == nil {
			return newVar[v]
		}
		i := used[v] / limit
		used[v]++
		return copies[v][i]
	}
	v := c.NumInputs + 1
	for _, insn := range c.Instructions {
		var ni common.Instruction
		if insn.Type == common.IInternalVariable {
			e := make(expr.Expression, len(insn.Expr))
			for i, t := range insn.Expr {
				switch {
				case t.VID1 != 0:
					e[i] = expr.NewTerm(factor(t.VID0), factor(t.VID1), t.Coeff)
				case t.VID0 != 0:
					e[i] = expr.NewTerm(newVar[t.VID0], 0, t.Coeff)
				default:
					e[i] = t
				}
			}
			ni = common.NewInternalVariable(e.Normalize(fd))
		} else {
			ni = insn.Replace(func(x int) int { return newVar[x] })
		}
		nc.Instructions = append(nc.Instructions, ni)
		first := v
		for j := 0; j < insn.OutputCount(); j++ {
			newVar[v] = next
			next++
			v++
		}
		for j := first; j < v; j++ {
			addCopies(j)
		}
	}
	for _, con := range c.Constraints {
		nc.Constraints = append(nc.Constraints, common.Constraint{Typ: con.Typ, Var: newVar[con.Var]})
	}
	nc.Outputs = make([]int, len(c.Outputs))
	for i, o := range c.Outputs {
		nc.Outputs[i] = newVar[o]
	}
	return nc
}
