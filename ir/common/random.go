package common

import (
	"math/big"
	"math/rand"

	"github.com/PolyhedraZK/ExpanderIRCompiler/expr"
	"github.com/PolyhedraZK/ExpanderIRCompiler/field"
	"github.com/PolyhedraZK/ExpanderIRCompiler/hints"
	"github.com/PolyhedraZK/ExpanderIRCompiler/layered"
	"github.com/consensys/gnark/constraint"
)

type RandRange struct {
	Min int
	Max int
}

func (rr RandRange) sample(r *rand.Rand) int {
	if rr.Max <= rr.Min {
		return rr.Min
	}
	return r.Intn(rr.Max-rr.Min+1) + rr.Min
}

// RandomCircuitConfig shapes the circuits of RandomRootCircuit.
type RandomCircuitConfig struct {
	Seed            int64
	Field           field.Field
	NumCircuits     RandRange
	NumInputs       RandRange
	NumInstructions RandRange
	NumConstraints  RandRange
	NumOutputs      RandRange
	NumPublicInputs int
	// Weights overrides the relative frequency of instruction types.
	Weights map[InstructionType]int
}

// DefaultRandomCircuitConfig is a small mixed configuration.
func DefaultRandomCircuitConfig(fd field.Field, seed int64) *RandomCircuitConfig {
	return &RandomCircuitConfig{
		Seed:            seed,
		Field:           fd,
		NumCircuits:     RandRange{1, 4},
		NumInputs:       RandRange{1, 6},
		NumInstructions: RandRange{3, 20},
		NumConstraints:  RandRange{0, 3},
		NumOutputs:      RandRange{1, 4},
		NumPublicInputs: 2,
	}
}

var defaultWeights = map[InstructionType]int{
	ILinComb:             20,
	IMul:                 15,
	IHint:                4,
	IConstantLike:        5,
	ISubCircuitCall:      6,
	ICustomGate:          2,
	IDiv:                 4,
	IBoolBinOp:           4,
	IIsZero:              4,
	IUnconstrainedBinOp:  4,
	IUnconstrainedSelect: 2,
	IToBinary:            1,
	IInternalVariable:    25,
}

var randomBinOps = []uint64{
	hints.Div, hints.Pow, hints.IntDiv, hints.Mod, hints.ShiftL, hints.ShiftR,
	hints.LesserEq, hints.GreaterEq, hints.Lesser, hints.Greater, hints.Eq, hints.NotEq,
	hints.BoolOr, hints.BoolAnd, hints.BitOr, hints.BitAnd, hints.BitXor,
}

type randomGen struct {
	conf  *RandomCircuitConfig
	rnd   *rand.Rand
	fd    field.Field
	kinds []InstructionType
	total int
}

// RandomRootCircuit generates a valid root of stage S from a seed. Circuit i
// only calls circuits with larger ids, and only instruction and constraint
// types S admits are used. The same config always gives the same root.
func RandomRootCircuit[S Stage](conf *RandomCircuitConfig) *RootCircuit[S] {
	var s S
	g := &randomGen{conf: conf, rnd: rand.New(rand.NewSource(conf.Seed)), fd: conf.Field}
	weights := conf.Weights
	if weights == nil {
		weights = defaultWeights
	}
	for t := ILinComb; t < numInstructionTypes; t++ {
		if s.AllowsInstruction(t) && weights[t] > 0 {
			g.kinds = append(g.kinds, t)
			g.total += weights[t]
		}
	}
	var cons []ConstraintType
	for _, t := range []ConstraintType{Zero, NonZero, Bool} {
		if s.AllowsConstraint(t) {
			cons = append(cons, t)
		}
	}

	r := NewRootCircuit[S](conf.Field)
	r.NumPublicInputs = conf.NumPublicInputs
	n := conf.NumCircuits.sample(g.rnd)
	if n < 1 {
		n = 1
	}
	for id := n - 1; id >= 0; id-- {
		r.Circuits[uint64(id)] = g.circuit(r.Circuits, uint64(id), uint64(n), weights, cons)
	}
	return r
}

func (g *randomGen) element() constraint.Element {
	return g.fd.FromInterface(new(big.Int).Rand(g.rnd, g.fd.Field()))
}

func (g *randomGen) pick(weights map[InstructionType]int) InstructionType {
	x := g.rnd.Intn(g.total)
	for _, t := range g.kinds {
		x -= weights[t]
		if x < 0 {
			return t
		}
	}
	return g.kinds[len(g.kinds)-1]
}

func (g *randomGen) circuit(circuits map[uint64]*Circuit, id, n uint64, weights map[InstructionType]int, cons []ConstraintType) *Circuit {
	rnd := g.rnd
	c := &Circuit{NumInputs: g.conf.NumInputs.sample(rnd)}
	if c.NumInputs < 1 {
		c.NumInputs = 1
	}
	cur := c.NumInputs
	var bools []int
	// values that are likely zero must not be divisors
	small := make(map[int]bool)
	anyVar := func() int { return rnd.Intn(cur) + 1 }
	nonSmall := func() int {
		for tries := 0; tries < 8; tries++ {
			if v := anyVar(); !small[v] {
				return v
			}
		}
		return 0
	}
	m := g.conf.NumInstructions.sample(rnd)
	for i := 0; i < m; i++ {
		var insn Instruction
		t := g.pick(weights)
		switch t {
		case ILinComb:
			lc := expr.LinComb{Constant: g.element()}
			for k := rnd.Intn(3) + 1; k > 0; k-- {
				lc.Terms = append(lc.Terms, expr.LinCombTerm{Var: anyVar(), Coef: g.element()})
			}
			insn = NewLinComb(lc)
		case IMul:
			in := []int{anyVar(), anyVar()}
			if rnd.Intn(3) == 0 {
				in = append(in, anyVar())
			}
			insn = NewMul(in...)
		case IHint:
			in := []int{anyVar()}
			if rnd.Intn(2) == 0 {
				in = append(in, anyVar())
			}
			insn = NewHint(uint64(rnd.Intn(4)+1), in, rnd.Intn(2)+1)
		case IConstantLike:
			switch {
			case g.conf.NumPublicInputs > 0 && rnd.Intn(3) == 0:
				insn = NewConstantLike(layered.NewPublicInputCoef(rnd.Intn(g.conf.NumPublicInputs)))
			case rnd.Intn(4) == 0:
				insn = NewConstantLike(layered.NewRandomCoef())
			default:
				insn = NewConstantLike(layered.NewConstantCoef(g.fd.ToBigInt(g.element())))
			}
		case ISubCircuitCall:
			if id+1 >= n {
				i--
				continue
			}
			sid := id + 1 + uint64(rnd.Int63n(int64(n-id-1)))
			sub := circuits[sid]
			args := make([]int, sub.NumInputs)
			for k := range args {
				args[k] = anyVar()
			}
			insn = NewSubCircuitCall(sid, args, len(sub.Outputs))
		case ICustomGate:
			in := []int{anyVar()}
			if rnd.Intn(2) == 0 {
				in = append(in, anyVar())
			}
			insn = NewCustomGate(uint64(rnd.Intn(3)+100), in...)
		case IDiv:
			y := nonSmall()
			if y == 0 {
				i--
				continue
			}
			insn = NewDiv(anyVar(), y, rnd.Intn(2) == 0)
		case IBoolBinOp:
			if len(bools) == 0 {
				i--
				continue
			}
			x, y := bools[rnd.Intn(len(bools))], bools[rnd.Intn(len(bools))]
			insn = NewBoolBinOp(x, y, BoolBinOpType(rnd.Intn(3)+1))
		case IIsZero:
			insn = NewIsZero(anyVar())
		case IUnconstrainedBinOp:
			op := randomBinOps[rnd.Intn(len(randomBinOps))]
			y := anyVar()
			if op == hints.Div || op == hints.IntDiv || op == hints.Mod {
				if y = nonSmall(); y == 0 {
					i--
					continue
				}
			}
			insn = NewUnconstrainedBinOp(op, anyVar(), y)
		case IUnconstrainedSelect:
			insn = NewUnconstrainedSelect(anyVar(), anyVar(), anyVar())
		case IToBinary:
			insn = NewToBinary(anyVar(), g.fd.FieldBitLen())
		case IInternalVariable:
			e := expr.Expression{}
			for k := rnd.Intn(3) + 1; k > 0; k-- {
				switch rnd.Intn(3) {
				case 0:
					e = append(e, expr.NewConstantExpression(g.element())...)
				case 1:
					e = append(e, expr.NewLinearExpression(anyVar(), g.element())...)
				default:
					e = append(e, expr.NewQuadraticExpression(anyVar(), anyVar(), g.element())...)
				}
			}
			insn = NewInternalVariable(e.Normalize(g.fd))
		}
		c.Instructions = append(c.Instructions, insn)
		cnt := insn.OutputCount()
		switch t {
		case IIsZero, IBoolBinOp:
			bools = append(bools, cur+1)
			small[cur+1] = true
		case IToBinary:
			for k := 1; k <= cnt; k++ {
				bools = append(bools, cur+k)
				small[cur+k] = true
			}
		case IUnconstrainedBinOp, IUnconstrainedSelect, ISubCircuitCall, IConstantLike:
			for k := 1; k <= cnt; k++ {
				small[cur+k] = true
			}
		case IMul, IInternalVariable:
			for _, v := range insn.Vars() {
				if small[v] {
					small[cur+1] = true
				}
			}
		}
		cur += cnt
	}
	if len(cons) > 0 {
		for k := g.conf.NumConstraints.sample(rnd); k > 0; k-- {
			typ := cons[rnd.Intn(len(cons))]
			v := anyVar()
			if typ == Bool && len(bools) > 0 {
				v = bools[rnd.Intn(len(bools))]
			}
			c.Constraints = append(c.Constraints, Constraint{Typ: typ, Var: v})
		}
	}
	for k := g.conf.NumOutputs.sample(rnd); k > 0; k-- {
		c.Outputs = append(c.Outputs, anyVar())
	}
	return c
}

// RandomInputs samples n field elements.
func RandomInputs(fd field.Field, n int, rnd *rand.Rand) []constraint.Element {
	res := make([]constraint.Element, n)
	for i := range res {
		res[i] = fd.FromInterface(new(big.Int).Rand(rnd, fd.Field()))
	}
	return res
}

// RandomEvalContext samples the public inputs and the random challenge.
func RandomEvalContext(fd field.Field, numPublicInputs int, rnd *rand.Rand, caller hints.Caller) *EvalContext {
	return &EvalContext{
		Field:        fd,
		PublicInputs: RandomInputs(fd, numPublicInputs, rnd),
		RandomValue:  RandomInputs(fd, 1, rnd)[0],
		Hints:        caller,
	}
}
