// Package expr holds the two expression shapes shared by the IR stages:
// linear combinations, and sums of terms of degree at most 2.
// Expression is implemented based on gnark `frontend/internal/expr`.
package expr

import (
	"sort"

	"github.com/PolyhedraZK/ExpanderIRCompiler/field"
	"github.com/consensys/gnark/constraint"
)

type Expression []Term

// NewConstantExpression returns c
func NewConstantExpression(c constraint.Element) Expression {
	return Expression{NewTerm(0, 0, c)}
}

// NewLinearExpression returns c * v
func NewLinearExpression(v int, c constraint.Element) Expression {
	return Expression{NewTerm(v, 0, c)}
}

// NewQuadraticExpression returns c * v0 * v1
func NewQuadraticExpression(v0, v1 int, c constraint.Element) Expression {
	return Expression{NewTerm(v0, v1, c)}
}

func (e Expression) Clone() Expression {
	res := make(Expression, len(e))
	copy(res, e)
	return res
}

// Len return the length of the Variable (implements Sort interface)
func (e Expression) Len() int {
	return len(e)
}

// Equals returns true if both SORTED expressions are the same
//
// pre conditions: l and o are sorted
func (e Expression) Equal(o Expression) bool {
	if len(e) != len(o) {
		return false
	}
	for i := 0; i < len(e); i++ {
		if e[i] != o[i] {
			return false
		}
	}
	return true
}

// Swap swaps terms in the Variable (implements Sort interface)
func (e Expression) Swap(i, j int) {
	e[i], e[j] = e[j], e[i]
}

// Less returns true if variableID for term at i is less than variableID for term at j (implements Sort interface)
func (e Expression) Less(i, j int) bool {
	if e[i].VID0 != e[j].VID0 {
		return e[i].VID0 < e[j].VID0
	}
	return e[i].VID1 < e[j].VID1
}

// HashCode returns a fast-to-compute but NOT collision resistant hash code identifier for the expression
//
// requires sorted
func (e Expression) HashCode() uint64 {
	h := uint64(17)
	for _, val := range e {
		h = h*23 + val.HashCode()
	}
	return h
}

// Degree returns the degree of the polynomial
func (e Expression) Degree() int {
	res := 0
	for _, val := range e {
		deg := val.Degree()
		if deg == 2 {
			return 2
		}
		if deg > res {
			res = deg
		}
	}
	return res
}

// CountOfDegrees returns the number of terms of each degree
func (e Expression) CountOfDegrees() (int, int, int) {
	res := [3]int{}
	for _, val := range e {
		res[val.Degree()]++
	}
	return res[0], res[1], res[2]
}

func (e Expression) IsConstant() bool {
	for _, term := range e {
		if term.VID0 != 0 {
			return false
		}
	}
	return true
}

// Vars lists every variable occurrence, a quadratic term contributing both factors.
func (e Expression) Vars() []int {
	res := make([]int, 0, len(e)*2)
	for _, t := range e {
		if t.VID0 != 0 {
			res = append(res, t.VID0)
		}
		if t.VID1 != 0 {
			res = append(res, t.VID1)
		}
	}
	return res
}

// Replace returns a copy with every variable v replaced by f(v).
func (e Expression) Replace(f func(int) int) Expression {
	res := make(Expression, len(e))
	for i, t := range e {
		v0, v1 := t.VID0, t.VID1
		if v0 != 0 {
			v0 = f(v0)
		}
		if v1 != 0 {
			v1 = f(v1)
		}
		res[i] = NewTerm(v0, v1, t.Coeff)
	}
	return res
}

// Scale returns c * e.
func (e Expression) Scale(fd field.Field, c constraint.Element) Expression {
	res := make(Expression, len(e))
	for i, t := range e {
		res[i] = t
		res[i].Coeff = fd.Mul(t.Coeff, c)
	}
	return res
}

// Normalize sorts the terms, merges equal monomials and drops zero terms.
// The result is never empty: the zero expression is a single zero constant.
func (e Expression) Normalize(fd field.Field) Expression {
	s := e.Clone()
	sort.Stable(s)
	res := Expression{}
	for _, t := range s {
		if n := len(res); n > 0 && res[n-1].sameMonomial(t) {
			res[n-1].Coeff = fd.Add(res[n-1].Coeff, t.Coeff)
			continue
		}
		res = append(res, t)
	}
	j := 0
	for _, t := range res {
		if !field.IsZero(fd, t.Coeff) {
			res[j] = t
			j++
		}
	}
	res = res[:j]
	if len(res) == 0 {
		return NewConstantExpression(field.Zero(fd))
	}
	return res
}

// Eval computes the expression over values, where values[0] is ignored.
func (e Expression) Eval(fd field.Field, values []constraint.Element) constraint.Element {
	res := field.Zero(fd)
	for _, t := range e {
		x := t.Coeff
		if t.VID0 != 0 {
			x = fd.Mul(x, values[t.VID0])
		}
		if t.VID1 != 0 {
			x = fd.Mul(x, values[t.VID1])
		}
		res = fd.Add(res, x)
	}
	return res
}
