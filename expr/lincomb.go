package expr

import (
	"github.com/PolyhedraZK/ExpanderIRCompiler/field"
	"github.com/consensys/gnark/constraint"
)

type LinCombTerm struct {
	Var  int
	Coef constraint.Element
}

// LinComb is sum(Terms[i].Coef * Terms[i].Var) + Constant.
type LinComb struct {
	Terms    []LinCombTerm
	Constant constraint.Element
}

func (lc LinComb) Clone() LinComb {
	terms := make([]LinCombTerm, len(lc.Terms))
	copy(terms, lc.Terms)
	return LinComb{Terms: terms, Constant: lc.Constant}
}

func (lc LinComb) Vars() []int {
	res := make([]int, len(lc.Terms))
	for i, t := range lc.Terms {
		res[i] = t.Var
	}
	return res
}

func (lc LinComb) Replace(f func(int) int) LinComb {
	res := lc.Clone()
	for i := range res.Terms {
		res.Terms[i].Var = f(res.Terms[i].Var)
	}
	return res
}

func (lc LinComb) Eval(fd field.Field, values []constraint.Element) constraint.Element {
	res := lc.Constant
	for _, t := range lc.Terms {
		res = fd.Add(res, fd.Mul(t.Coef, values[t.Var]))
	}
	return res
}

// Inline replaces term i by coef_i * o. The smaller term list is appended
// onto the larger one.
func (lc LinComb) Inline(fd field.Field, i int, o LinComb) LinComb {
	coef := lc.Terms[i].Coef
	rest := make([]LinCombTerm, 0, len(lc.Terms)-1)
	rest = append(rest, lc.Terms[:i]...)
	rest = append(rest, lc.Terms[i+1:]...)
	scaled := make([]LinCombTerm, len(o.Terms))
	for j, t := range o.Terms {
		scaled[j] = LinCombTerm{Var: t.Var, Coef: fd.Mul(t.Coef, coef)}
	}
	var terms []LinCombTerm
	if len(rest) >= len(scaled) {
		terms = append(rest, scaled...)
	} else {
		terms = append(scaled, rest...)
	}
	return LinComb{
		Terms:    terms,
		Constant: fd.Add(lc.Constant, fd.Mul(o.Constant, coef)),
	}
}

// ToExpression converts the combination to a degree-1 expression.
func (lc LinComb) ToExpression(fd field.Field) Expression {
	e := make(Expression, 0, len(lc.Terms)+1)
	for _, t := range lc.Terms {
		e = append(e, NewTerm(t.Var, 0, t.Coef))
	}
	e = append(e, NewConstantExpression(lc.Constant)...)
	return e.Normalize(fd)
}
