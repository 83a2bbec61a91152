package goldilocks

import (
	"math/big"

	"github.com/PolyhedraZK/ExpanderIRCompiler/utils"
	"github.com/consensys/gnark-crypto/field/goldilocks"
	"github.com/consensys/gnark/constraint"
)

var ScalarField = goldilocks.Modulus()

// Field stores a goldilocks.Element (Montgomery form) in the first limb of a
// constraint.Element.
type Field struct{}

func toElement(c constraint.Element) goldilocks.Element {
	return goldilocks.Element{c[0]}
}

func fromElement(e goldilocks.Element) constraint.Element {
	return constraint.Element{e[0]}
}

func (engine *Field) FromInterface(i interface{}) constraint.Element {
	var e goldilocks.Element
	if _, err := e.SetInterface(i); err != nil {
		b := utils.FromInterface(i)
		e.SetBigInt(&b)
	}
	return fromElement(e)
}

func (engine *Field) ToBigInt(c constraint.Element) *big.Int {
	e := toElement(c)
	r := new(big.Int)
	e.BigInt(r)
	return r
}

func (engine *Field) Mul(a, b constraint.Element) constraint.Element {
	x, y := toElement(a), toElement(b)
	x.Mul(&x, &y)
	return fromElement(x)
}

func (engine *Field) Add(a, b constraint.Element) constraint.Element {
	x, y := toElement(a), toElement(b)
	x.Add(&x, &y)
	return fromElement(x)
}

func (engine *Field) Sub(a, b constraint.Element) constraint.Element {
	x, y := toElement(a), toElement(b)
	x.Sub(&x, &y)
	return fromElement(x)
}

func (engine *Field) Neg(a constraint.Element) constraint.Element {
	x := toElement(a)
	x.Neg(&x)
	return fromElement(x)
}

func (engine *Field) Inverse(a constraint.Element) (constraint.Element, bool) {
	x := toElement(a)
	if x.IsZero() {
		return a, false
	}
	x.Inverse(&x)
	return fromElement(x), true
}

func (engine *Field) IsOne(a constraint.Element) bool {
	x := toElement(a)
	return x.IsOne()
}

func (engine *Field) One() constraint.Element {
	return fromElement(goldilocks.One())
}

func (engine *Field) String(a constraint.Element) string {
	x := toElement(a)
	return x.String()
}

func (engine *Field) Uint64(a constraint.Element) (uint64, bool) {
	x := toElement(a)
	return x.Uint64(), true
}

func (engine *Field) Field() *big.Int {
	return goldilocks.Modulus()
}

func (engine *Field) FieldBitLen() int {
	return 64
}

func (engine *Field) SerializedLen() int {
	return 8
}
