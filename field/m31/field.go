// Package m31 is the Mersenne prime field 2^31 - 1.
package m31

import (
	"math/big"

	"github.com/PolyhedraZK/ExpanderIRCompiler/field/smallprime"
)

const P = 0x7fffffff

var Pbig = big.NewInt(P)
var ScalarField = Pbig

type params struct{}

func (params) Modulus() uint64 { return P }

func (params) BitLen() int { return 31 }

// Reduce folds the high bits twice, since 2^31 = 1 mod P.
func (params) Reduce(x uint64) uint64 {
	x = (x & P) + (x >> 31)
	x = (x & P) + (x >> 31)
	if x >= P {
		x -= P
	}
	return x
}

type Field = smallprime.Field[params]
