package hints

import (
	"fmt"
	"math/big"

	"github.com/PolyhedraZK/ExpanderIRCompiler/utils"
	"github.com/holiman/uint256"
)

// CallBuiltin evaluates builtin hint id over the prime field of order p.
// Inputs must already be reduced. Outputs are reduced.
func CallBuiltin(id uint64, p *big.Int, inputs []*big.Int, numOutputs int) ([]*big.Int, error) {
	if err := Validate(id, len(inputs), numOutputs); err != nil {
		return nil, utils.AsInternal("hint", err)
	}
	x := inputs[0]
	switch id {
	case Identity:
		res := make([]*big.Int, numOutputs)
		for i := range res {
			res[i] = new(big.Int).Set(inputs[i])
		}
		return res, nil
	case Select:
		if x.Sign() != 0 {
			return one(new(big.Int).Set(inputs[1])), nil
		}
		return one(new(big.Int).Set(inputs[2])), nil
	case ToBinary:
		return toBinary(x, numOutputs)
	}

	y := inputs[1]
	switch id {
	case Div:
		inv := new(big.Int).ModInverse(y, p)
		if y.Sign() == 0 || inv == nil {
			return one(new(big.Int)), nil
		}
		r := inv.Mul(inv, x)
		return one(r.Mod(r, p)), nil
	case Eq:
		return one(boolInt(x.Cmp(y) == 0)), nil
	case NotEq:
		return one(boolInt(x.Cmp(y) != 0)), nil
	case BoolOr:
		return one(boolInt(x.Sign() != 0 || y.Sign() != 0)), nil
	case BoolAnd:
		return one(boolInt(x.Sign() != 0 && y.Sign() != 0)), nil
	case Pow:
		return one(new(big.Int).Exp(x, y, p)), nil
	case LesserEq:
		return one(boolInt(x.Cmp(y) <= 0)), nil
	case GreaterEq:
		return one(boolInt(x.Cmp(y) >= 0)), nil
	case Lesser:
		return one(boolInt(x.Cmp(y) < 0)), nil
	case Greater:
		return one(boolInt(x.Cmp(y) > 0)), nil
	}

	a, b := toU256(x), toU256(y)
	var z uint256.Int
	switch id {
	case BitOr:
		z.Or(a, b)
	case BitAnd:
		z.And(a, b)
	case BitXor:
		z.Xor(a, b)
	case IntDiv:
		// uint256 yields zero for a zero divisor
		z.Div(a, b)
	case Mod:
		z.Mod(a, b)
	case ShiftL:
		z.Set(circomShiftL(p, a, b))
	case ShiftR:
		z.Set(circomShiftR(p, a, b))
	default:
		return nil, utils.AsInternal("hint", fmt.Errorf("unhandled builtin hint %s", Name(id)))
	}
	r := z.ToBig()
	return one(r.Mod(r, p)), nil
}

func one(x *big.Int) []*big.Int {
	return []*big.Int{x}
}

func boolInt(b bool) *big.Int {
	if b {
		return big.NewInt(1)
	}
	return new(big.Int)
}

func toU256(x *big.Int) *uint256.Int {
	z, overflow := uint256.FromBig(x)
	if overflow {
		panic("field element does not fit in 256 bits")
	}
	return z
}

func toBinary(x *big.Int, numOutputs int) ([]*big.Int, error) {
	if x.BitLen() > numOutputs {
		return nil, utils.NewUserError("to_binary hint input too large")
	}
	res := make([]*big.Int, numOutputs)
	for i := range res {
		res[i] = big.NewInt(int64(x.Bit(i)))
	}
	return res, nil
}

// shiftAmount clamps k to a shift count. Anything that does not fit in 64
// bits shifts by the modulus bit length, which clears the value.
func shiftAmount(p *big.Int, k *uint256.Int) uint64 {
	if !k.IsUint64() {
		return uint64(p.BitLen())
	}
	return k.Uint64()
}

// circomShiftL shifts left for k <= p/2 and right by p-k otherwise.
func circomShiftL(p *big.Int, x, k *uint256.Int) *uint256.Int {
	pu := toU256(p)
	top := new(uint256.Int).Rsh(pu, 1)
	if k.Gt(top) {
		return circomShiftR(p, x, new(uint256.Int).Sub(pu, k))
	}
	shift := shiftAmount(p, k)
	if shift >= 256 {
		return new(uint256.Int)
	}
	v := new(uint256.Int).Lsh(x, uint(shift))
	mask := new(uint256.Int).Lsh(uint256.NewInt(1), uint(p.BitLen()))
	mask.SubUint64(mask, 1)
	return v.And(v, mask)
}

func circomShiftR(p *big.Int, x, k *uint256.Int) *uint256.Int {
	pu := toU256(p)
	top := new(uint256.Int).Rsh(pu, 1)
	if k.Gt(top) {
		return circomShiftL(p, x, new(uint256.Int).Sub(pu, k))
	}
	shift := shiftAmount(p, k)
	if shift >= 256 {
		return new(uint256.Int)
	}
	return new(uint256.Int).Rsh(x, uint(shift))
}
