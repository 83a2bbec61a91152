// Package field selects the finite field a circuit is compiled over.
// Every field implements gnark's constraint.Field on constraint.Element values.
package field

import (
	"fmt"
	"math/big"

	"github.com/PolyhedraZK/ExpanderIRCompiler/field/babybear"
	"github.com/PolyhedraZK/ExpanderIRCompiler/field/bn254"
	"github.com/PolyhedraZK/ExpanderIRCompiler/field/gf2"
	"github.com/PolyhedraZK/ExpanderIRCompiler/field/goldilocks"
	"github.com/PolyhedraZK/ExpanderIRCompiler/field/m31"
	"github.com/consensys/gnark/constraint"
)

type Field interface {
	constraint.Field
	Field() *big.Int
	FieldBitLen() int
	SerializedLen() int
}

const (
	IdM31        uint64 = 1
	IdBN254      uint64 = 2
	IdGF2        uint64 = 3
	IdGoldilocks uint64 = 4
	IdBabyBear   uint64 = 5
)

var all = []struct {
	id uint64
	f  func() Field
}{
	{IdM31, func() Field { return &m31.Field{} }},
	{IdBN254, func() Field { return &bn254.Field{} }},
	{IdGF2, func() Field { return &gf2.Field{} }},
	{IdGoldilocks, func() Field { return &goldilocks.Field{} }},
	{IdBabyBear, func() Field { return &babybear.Field{} }},
}

// LookupFieldFromOrder returns the field of order x, if it is supported.
func LookupFieldFromOrder(x *big.Int) (Field, bool) {
	for _, e := range all {
		f := e.f()
		if f.Field().Cmp(x) == 0 {
			return f, true
		}
	}
	return nil, false
}

func GetFieldFromOrder(x *big.Int) Field {
	f, ok := LookupFieldFromOrder(x)
	if !ok {
		panic(fmt.Sprintf("unknown field %v", x))
	}
	return f
}

func GetFieldId(f Field) uint64 {
	for _, e := range all {
		if e.f().Field().Cmp(f.Field()) == 0 {
			return e.id
		}
	}
	panic(fmt.Sprintf("unsupported field %v", f.Field()))
}

func GetFieldById(id uint64) Field {
	for _, e := range all {
		if e.id == id {
			return e.f()
		}
	}
	panic(fmt.Sprintf("unsupported field id %v", id))
}

// GetFieldByName accepts the names used on the command line.
func GetFieldByName(name string) (Field, error) {
	switch name {
	case "m31":
		return &m31.Field{}, nil
	case "bn254":
		return &bn254.Field{}, nil
	case "gf2":
		return &gf2.Field{}, nil
	case "goldilocks":
		return &goldilocks.Field{}, nil
	case "babybear":
		return &babybear.Field{}, nil
	}
	return nil, fmt.Errorf("unknown field %q", name)
}

// Zero returns the additive identity.
func Zero(f Field) constraint.Element {
	return f.FromInterface(0)
}

func IsZero(f Field, x constraint.Element) bool {
	return f.ToBigInt(x).Sign() == 0
}

func Equal(f Field, a, b constraint.Element) bool {
	return f.ToBigInt(a).Cmp(f.ToBigInt(b)) == 0
}
