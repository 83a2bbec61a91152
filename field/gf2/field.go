// Package gf2 is the binary field, used for boolean circuits.
package gf2

import (
	"math/big"
	"strconv"

	"github.com/PolyhedraZK/ExpanderIRCompiler/utils"
	"github.com/consensys/gnark/constraint"
)

var ScalarField = big.NewInt(2)

type Field struct{}

func (engine *Field) FromInterface(i interface{}) constraint.Element {
	b := utils.FromInterface(i)
	return constraint.Element{uint64(b.Bit(0))}
}

func (engine *Field) ToBigInt(c constraint.Element) *big.Int {
	return big.NewInt(int64(c[0] & 1))
}

func (engine *Field) Mul(a, b constraint.Element) constraint.Element {
	return constraint.Element{a[0] & b[0] & 1}
}

func (engine *Field) Add(a, b constraint.Element) constraint.Element {
	return constraint.Element{(a[0] ^ b[0]) & 1}
}

func (engine *Field) Sub(a, b constraint.Element) constraint.Element {
	return constraint.Element{(a[0] ^ b[0]) & 1}
}

func (engine *Field) Neg(a constraint.Element) constraint.Element {
	return a
}

func (engine *Field) Inverse(a constraint.Element) (constraint.Element, bool) {
	return a, a[0]&1 == 1
}

func (engine *Field) IsOne(a constraint.Element) bool {
	return a[0]&1 == 1
}

func (engine *Field) One() constraint.Element {
	return constraint.Element{1}
}

func (engine *Field) String(a constraint.Element) string {
	return strconv.FormatUint(a[0]&1, 10)
}

func (engine *Field) Uint64(a constraint.Element) (uint64, bool) {
	return a[0] & 1, true
}

func (engine *Field) Field() *big.Int {
	return ScalarField
}

func (engine *Field) FieldBitLen() int {
	return 1
}

func (engine *Field) SerializedLen() int {
	return 1
}
