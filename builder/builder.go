// Package builder rewrites circuit bodies between IR stages. HintNormalize
// arithmetizes the source instructions around explicit hint calls, and
// FinalBuild turns the hint-less IR into the degree-2 expressions the
// layering engine consumes.
package builder

import (
	"math/big"

	"github.com/PolyhedraZK/ExpanderIRCompiler/expr"
	"github.com/PolyhedraZK/ExpanderIRCompiler/field"
	"github.com/PolyhedraZK/ExpanderIRCompiler/hints"
	"github.com/PolyhedraZK/ExpanderIRCompiler/ir/common"
	"github.com/PolyhedraZK/ExpanderIRCompiler/layered"
	"github.com/consensys/gnark/constraint"
)

// builder appends instructions to one output circuit body
type builder struct {
	field field.Field

	out *common.Circuit
	// next free variable of out
	next int

	// widely used constants
	tOne, tMinusOne constraint.Element

	// variable holding the constant 1, 0 until emitted
	one int

	// newVar maps a variable of the input body to the output body
	newVar []int
}

func newBuilder(fd field.Field, in *common.Circuit) *builder {
	b := &builder{
		field:  fd,
		out:    &common.Circuit{NumInputs: in.NumInputs},
		next:   in.NumInputs + 1,
		newVar: make([]int, in.NumVars()+1),
	}
	b.tOne = fd.One()
	b.tMinusOne = fd.Neg(b.tOne)
	for i := 1; i <= in.NumInputs; i++ {
		b.newVar[i] = i
	}
	return b
}

// emit appends insn and returns its first output variable
func (b *builder) emit(insn common.Instruction) int {
	r := b.next
	b.out.Instructions = append(b.out.Instructions, insn)
	b.next += insn.OutputCount()
	return r
}

func (b *builder) mapVar(v int) int {
	return b.newVar[v]
}

func (b *builder) constantOne() int {
	if b.one == 0 {
		b.one = b.emit(common.NewConstantLike(layered.NewConstantCoef(big.NewInt(1))))
	}
	return b.one
}

// linComb emits sum(coefs[i] * vars[i]) + constant
func (b *builder) linComb(constant constraint.Element, vars []int, coefs []constraint.Element) int {
	lc := expr.LinComb{Constant: constant}
	for i, v := range vars {
		lc.Terms = append(lc.Terms, expr.LinCombTerm{Var: v, Coef: coefs[i]})
	}
	return b.emit(common.NewLinComb(lc))
}

func (b *builder) assertZero(v int) {
	b.out.Constraints = append(b.out.Constraints, common.Constraint{Typ: common.Zero, Var: v})
}

// assertBoolean asserts x*x - x == 0
func (b *builder) assertBoolean(x int) {
	xx := b.emit(common.NewMul(x, x))
	b.assertZero(b.linComb(constraint.Element{}, []int{xx, x}, []constraint.Element{b.tOne, b.tMinusOne}))
}

// inverse emits a hint for 1/x, which is 0 when x is 0, and returns it with
// x * inv
func (b *builder) inverse(x int) (inv, prod int) {
	inv = b.emit(common.NewHint(hints.Div, []int{b.constantOne(), x}, 1))
	prod = b.emit(common.NewMul(x, inv))
	return inv, prod
}
