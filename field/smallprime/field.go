// Package smallprime implements constraint.Field for primes below 2^32. An
// element is kept fully reduced in the first limb, so the product of two
// elements fits in a uint64 before reduction.
package smallprime

import (
	"math/big"
	"strconv"

	"github.com/PolyhedraZK/ExpanderIRCompiler/utils"
	"github.com/consensys/gnark/constraint"
)

// Params describes one prime. Reduce maps any value below P*P into [0, P).
type Params interface {
	Modulus() uint64
	BitLen() int
	Reduce(x uint64) uint64
}

// Field is stateless; the zero value is ready to use.
type Field[T Params] struct{}

func (*Field[T]) p() uint64 {
	var t T
	return t.Modulus()
}

func (*Field[T]) reduce(x uint64) uint64 {
	var t T
	return t.Reduce(x)
}

func (f *Field[T]) FromInterface(i interface{}) constraint.Element {
	b := utils.FromInterface(i)
	b.Mod(&b, new(big.Int).SetUint64(f.p()))
	return constraint.Element{b.Uint64()}
}

func (f *Field[T]) ToBigInt(c constraint.Element) *big.Int {
	return new(big.Int).SetUint64(c[0])
}

func (f *Field[T]) Mul(a, b constraint.Element) constraint.Element {
	return constraint.Element{f.reduce(a[0] * b[0])}
}

func (f *Field[T]) Add(a, b constraint.Element) constraint.Element {
	res := a[0] + b[0]
	if res >= f.p() {
		res -= f.p()
	}
	return constraint.Element{res}
}

func (f *Field[T]) Sub(a, b constraint.Element) constraint.Element {
	if a[0] >= b[0] {
		return constraint.Element{a[0] - b[0]}
	}
	return constraint.Element{a[0] + f.p() - b[0]}
}

func (f *Field[T]) Neg(a constraint.Element) constraint.Element {
	if a[0] == 0 {
		return a
	}
	return constraint.Element{f.p() - a[0]}
}

// Exp raises a to the power e by square and multiply.
func (f *Field[T]) Exp(a constraint.Element, e uint64) constraint.Element {
	res := uint64(1)
	b := a[0]
	for ; e > 0; e >>= 1 {
		if e&1 != 0 {
			res = f.reduce(res * b)
		}
		b = f.reduce(b * b)
	}
	return constraint.Element{res}
}

// Inverse uses Fermat's little theorem.
func (f *Field[T]) Inverse(a constraint.Element) (constraint.Element, bool) {
	if a[0] == 0 {
		return a, false
	}
	return f.Exp(a, f.p()-2), true
}

func (f *Field[T]) IsOne(a constraint.Element) bool {
	return a[0] == 1
}

func (f *Field[T]) One() constraint.Element {
	return constraint.Element{1}
}

func (f *Field[T]) String(a constraint.Element) string {
	return strconv.FormatUint(a[0], 10)
}

func (f *Field[T]) Uint64(a constraint.Element) (uint64, bool) {
	return a[0], true
}

func (f *Field[T]) Field() *big.Int {
	return new(big.Int).SetUint64(f.p())
}

func (f *Field[T]) FieldBitLen() int {
	var t T
	return t.BitLen()
}

// SerializedLen is the width of one element in the layered and witness
// formats.
func (f *Field[T]) SerializedLen() int {
	return 4
}
