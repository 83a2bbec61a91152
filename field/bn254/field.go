// Package bn254 is the scalar field of the BN254 curve, backed by gnark-crypto.
package bn254

import (
	"math/big"

	"github.com/PolyhedraZK/ExpanderIRCompiler/utils"
	"github.com/consensys/gnark-crypto/ecc/bn254/fr"
	"github.com/consensys/gnark/constraint"
)

var ScalarField = fr.Modulus()

// Field keeps an fr.Element (Montgomery form) in the four limbs of a
// constraint.Element.
type Field struct{}

func toElement(c constraint.Element) fr.Element {
	var e fr.Element
	copy(e[:], c[:fr.Limbs])
	return e
}

func fromElement(e fr.Element) constraint.Element {
	var c constraint.Element
	copy(c[:], e[:])
	return c
}

func (engine *Field) FromInterface(i interface{}) constraint.Element {
	var e fr.Element
	if _, err := e.SetInterface(i); err != nil {
		b := utils.FromInterface(i)
		e.SetBigInt(&b)
	}
	return fromElement(e)
}

func (engine *Field) ToBigInt(c constraint.Element) *big.Int {
	e := toElement(c)
	return e.BigInt(new(big.Int))
}

func (engine *Field) Mul(a, b constraint.Element) constraint.Element {
	x, y := toElement(a), toElement(b)
	return fromElement(*x.Mul(&x, &y))
}

func (engine *Field) Add(a, b constraint.Element) constraint.Element {
	x, y := toElement(a), toElement(b)
	return fromElement(*x.Add(&x, &y))
}

func (engine *Field) Sub(a, b constraint.Element) constraint.Element {
	x, y := toElement(a), toElement(b)
	return fromElement(*x.Sub(&x, &y))
}

func (engine *Field) Neg(a constraint.Element) constraint.Element {
	x := toElement(a)
	return fromElement(*x.Neg(&x))
}

func (engine *Field) Inverse(a constraint.Element) (constraint.Element, bool) {
	x := toElement(a)
	if x.IsZero() {
		return a, false
	}
	return fromElement(*x.Inverse(&x)), true
}

func (engine *Field) IsOne(a constraint.Element) bool {
	x := toElement(a)
	return x.IsOne()
}

func (engine *Field) One() constraint.Element {
	return fromElement(fr.One())
}

func (engine *Field) String(a constraint.Element) string {
	x := toElement(a)
	return x.String()
}

func (engine *Field) Uint64(a constraint.Element) (uint64, bool) {
	x := toElement(a)
	if !x.IsUint64() {
		return 0, false
	}
	return x.Uint64(), true
}

func (engine *Field) Field() *big.Int {
	return fr.Modulus()
}

func (engine *Field) FieldBitLen() int {
	return fr.Bits
}

func (engine *Field) SerializedLen() int {
	return fr.Bytes
}
