package expr

import "github.com/consensys/gnark/constraint"

// Term is Coeff * VID0 * VID1. Variable 0 stands for the constant 1, so
// VID1 == 0 makes a linear term and VID0 == VID1 == 0 a constant.
type Term struct {
	VID0  int
	VID1  int
	Coeff constraint.Element
}

// NewTerm orders the variables so that VID0 >= VID1, which gives every
// monomial one representation.
func NewTerm(vID0, vID1 int, coeff constraint.Element) Term {
	if vID0 < vID1 {
		vID0, vID1 = vID1, vID0
	}
	return Term{Coeff: coeff, VID0: vID0, VID1: vID1}
}

func (t Term) HashCode() uint64 {
	var x uint64
	for _, limb := range t.Coeff {
		x = x*31 + limb
	}
	return x ^ uint64(t.VID0)*998244353 ^ uint64(t.VID1)*1000000007
}

func (t Term) Degree() int {
	switch {
	case t.VID0 == 0:
		return 0
	case t.VID1 == 0:
		return 1
	}
	return 2
}

func (t Term) sameMonomial(o Term) bool {
	return t.VID0 == o.VID0 && t.VID1 == o.VID1
}
