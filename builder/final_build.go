package builder

import (
	"sort"

	"github.com/PolyhedraZK/ExpanderIRCompiler/expr"
	"github.com/PolyhedraZK/ExpanderIRCompiler/field"
	"github.com/PolyhedraZK/ExpanderIRCompiler/ir/common"
	"github.com/PolyhedraZK/ExpanderIRCompiler/ir/dest"
	"github.com/PolyhedraZK/ExpanderIRCompiler/ir/hintless"
	"github.com/PolyhedraZK/ExpanderIRCompiler/utils"
	"github.com/consensys/gnark/constraint"
)

// FinalBuild lowers a hint-less root into degree-2 expressions. Constants
// are folded into their readers, products become chains of quadratic terms,
// and a value read once is inlined into its reader instead of getting its
// own variable. Call arguments, custom gate inputs, constraints and outputs
// are plain variables. r must be valid.
func FinalBuild(r *hintless.RootCircuit) *dest.RootCircuit {
	res := dest.NewRootCircuit(r.Field)
	res.NumPublicInputs = r.NumPublicInputs
	res.ExpectedNumOutputZeroes = r.ExpectedNumOutputZeroes
	for id, c := range r.Circuits {
		res.Circuits[id] = buildCircuit(newBuilder(r.Field, c), c)
	}
	return res
}

type finalBuilder struct {
	*builder

	// value of each input variable, as an expression over output variables
	values []expr.Expression

	// map from stripped expression to output variable
	internalVariables *utils.HashMap[expr.Expression, int]

	eZero expr.Expression
}

func buildCircuit(b *builder, c *common.Circuit) *common.Circuit {
	fb := &finalBuilder{
		builder:           b,
		values:            make([]expr.Expression, c.NumVars()+1),
		internalVariables: utils.NewHashMap[expr.Expression, int](),
		eZero:             expr.NewConstantExpression(constraint.Element{}),
	}
	refs := make([]int, c.NumVars()+1)
	for i := range c.Instructions {
		for _, x := range c.Instructions[i].Vars() {
			refs[x]++
		}
	}
	for _, con := range c.Constraints {
		refs[con.Var]++
	}
	for _, o := range c.Outputs {
		refs[o]++
	}

	for i := 1; i <= c.NumInputs; i++ {
		fb.values[i] = expr.NewLinearExpression(i, fb.tOne)
	}
	v := c.NumInputs + 1
	for i := range c.Instructions {
		for _, e := range fb.build(&c.Instructions[i]) {
			if refs[v] > 1 && !fb.isSimple(e) {
				e = fb.asInternalVariable(e)
			}
			fb.values[v] = e
			v++
		}
	}
	for _, con := range c.Constraints {
		e := fb.values[con.Var]
		if e.IsConstant() && field.IsZero(fb.field, e[0].Coeff) {
			continue
		}
		fb.assertZero(fb.asVariable(e))
	}
	fb.out.Outputs = make([]int, len(c.Outputs))
	for i, o := range c.Outputs {
		fb.out.Outputs[i] = fb.asVariable(fb.values[o])
	}
	return fb.out
}

// build returns the values of the outputs of insn
func (fb *finalBuilder) build(insn *common.Instruction) []expr.Expression {
	fd := fb.field
	switch insn.Type {
	case common.ILinComb:
		e := expr.NewConstantExpression(insn.LinComb.Constant)
		for _, t := range insn.LinComb.Terms {
			e = append(e, fb.values[t.Var].Scale(fd, t.Coef)...)
		}
		return []expr.Expression{e.Normalize(fd)}
	case common.IMul:
		e := fb.values[insn.Inputs[0]]
		for _, x := range insn.Inputs[1:] {
			e = fb.mul(e, fb.values[x])
		}
		return []expr.Expression{e}
	case common.IConstantLike:
		if insn.Coef.IsConstant() {
			return []expr.Expression{expr.NewConstantExpression(fd.FromInterface(insn.Coef.Value))}
		}
		return []expr.Expression{fb.linear(fb.emit(*insn))}
	case common.ICustomGate:
		in := make([]int, len(insn.Inputs))
		for i, x := range insn.Inputs {
			in[i] = fb.asVariable(fb.values[x])
		}
		return []expr.Expression{fb.linear(fb.emit(common.NewCustomGate(insn.GateType, in...)))}
	case common.ISubCircuitCall:
		in := make([]int, len(insn.Inputs))
		for i, x := range insn.Inputs {
			in[i] = fb.asVariable(fb.values[x])
		}
		first := fb.emit(common.NewSubCircuitCall(insn.SubCircuitId, in, insn.NumOutputs))
		res := make([]expr.Expression, insn.NumOutputs)
		for i := range res {
			res[i] = fb.linear(first + i)
		}
		return res
	}
	panic("unexpected instruction " + insn.Type.String())
}

func (fb *finalBuilder) linear(v int) expr.Expression {
	return expr.NewLinearExpression(v, fb.tOne)
}

// isSimple reports whether e is c*x + k for a variable x
func (fb *finalBuilder) isSimple(e expr.Expression) bool {
	n := 0
	for _, t := range e {
		switch t.Degree() {
		case 1:
			n++
		case 2:
			return false
		}
	}
	return n <= 1
}

// split returns x, c and k with e = c*x + k. e must be simple, and x is 0
// when e is constant.
func (fb *finalBuilder) split(e expr.Expression) (int, constraint.Element, constraint.Element) {
	var x int
	var c, k constraint.Element
	for _, t := range e {
		if t.VID0 == 0 {
			k = fb.field.Add(k, t.Coeff)
		} else {
			x, c = t.VID0, t.Coeff
		}
	}
	return x, c, k
}

// mul returns a*b. Operands of degree 2, or with more than one variable, are
// first replaced by a variable.
func (fb *finalBuilder) mul(a, b expr.Expression) expr.Expression {
	fd := fb.field
	if a.IsConstant() {
		return b.Scale(fd, a[0].Coeff).Normalize(fd)
	}
	if b.IsConstant() {
		return a.Scale(fd, b[0].Coeff).Normalize(fd)
	}
	if !fb.isSimple(a) {
		a = fb.asInternalVariable(a)
	}
	if !fb.isSimple(b) {
		b = fb.asInternalVariable(b)
	}
	x, ca, ka := fb.split(a)
	y, cb, kb := fb.split(b)
	e := expr.Expression{
		expr.NewTerm(x, y, fd.Mul(ca, cb)),
		expr.NewTerm(x, 0, fd.Mul(ca, kb)),
		expr.NewTerm(y, 0, fd.Mul(ka, cb)),
		expr.NewTerm(0, 0, fd.Mul(ka, kb)),
	}
	return e.Normalize(fd)
}

// stripConstant writes e as coeff*s + constant where the first term of s
// has coefficient 1.
func (fb *finalBuilder) stripConstant(e_ expr.Expression) (expr.Expression, constraint.Element, constraint.Element) {
	cst := constraint.Element{}
	e := make(expr.Expression, 0, len(e_))
	for _, term := range e_ {
		if term.VID0 == 0 {
			cst = fb.field.Add(cst, term.Coeff)
		} else {
			e = append(e, term)
		}
	}
	if len(e) == 0 {
		return fb.eZero, constraint.Element{}, cst
	}
	sort.Sort(e)
	v := e[0].Coeff
	vi, _ := fb.field.Inverse(v)
	return e.Scale(fb.field, vi), v, cst
}

// asInternalVariable returns an expression equal to e that reads one
// variable. Expressions equal up to scaling and a constant share the
// variable.
func (fb *finalBuilder) asInternalVariable(e expr.Expression) expr.Expression {
	s, coeff, constant := fb.stripConstant(e)
	if s.IsConstant() {
		return e
	}
	x := fb.lookupOrEmit(s)
	res := expr.Expression{expr.NewTerm(x, 0, coeff), expr.NewTerm(0, 0, constant)}
	return res.Normalize(fb.field)
}

// asVariable returns a variable holding exactly e
func (fb *finalBuilder) asVariable(e expr.Expression) int {
	if len(e) == 1 && e[0].Degree() == 1 && fb.field.IsOne(e[0].Coeff) {
		return e[0].VID0
	}
	return fb.lookupOrEmit(e)
}

func (fb *finalBuilder) lookupOrEmit(e expr.Expression) int {
	if idx, ok := fb.internalVariables.Find(e); ok {
		return idx
	}
	idx := fb.emit(common.NewInternalVariable(e))
	fb.internalVariables.Set(e, idx)
	return idx
}
