// Package babybear is the field of order 15 * 2^27 + 1.
package babybear

import (
	"math/big"

	"github.com/PolyhedraZK/ExpanderIRCompiler/field/smallprime"
)

const P = 2013265921

var ScalarField = big.NewInt(P)

type params struct{}

func (params) Modulus() uint64 { return P }

func (params) BitLen() int { return 31 }

func (params) Reduce(x uint64) uint64 { return x % P }

type Field = smallprime.Field[params]
