package common

import (
	"fmt"
	"math/big"

	"github.com/PolyhedraZK/ExpanderIRCompiler/inputmapping"
	"github.com/PolyhedraZK/ExpanderIRCompiler/layered"
)

func cloneCircuit(c *Circuit) *Circuit {
	res := &Circuit{
		NumInputs:    c.NumInputs,
		Instructions: make([]Instruction, len(c.Instructions)),
		Constraints:  append([]Constraint(nil), c.Constraints...),
		Outputs:      append([]int(nil), c.Outputs...),
	}
	for i := range c.Instructions {
		res.Instructions[i] = c.Instructions[i].Replace(func(x int) int { return x })
	}
	return res
}

func (r *RootCircuit[S]) withRoot(c *Circuit) *RootCircuit[S] {
	res := r.emptyLike()
	for id, sub := range r.Circuits {
		res.Circuits[id] = sub
	}
	res.Circuits[0] = c
	return res
}

// ScatterRootOutputs rearranges the root outputs: output i moves to position
// m.Mapping[i] of m.NextSize outputs. Positions nothing moves to read a
// constant zero.
func (r *RootCircuit[S]) ScatterRootOutputs(m *inputmapping.InputMapping) (*RootCircuit[S], error) {
	root := r.Circuits[0]
	if m.CurSize() != len(root.Outputs) {
		return nil, fmt.Errorf("mapping covers %d outputs, root has %d", m.CurSize(), len(root.Outputs))
	}
	if err := m.Validate(); err != nil {
		return nil, err
	}
	c := cloneCircuit(root)
	outs, err := inputmapping.MapInputs(m, root.Outputs)
	if err != nil {
		return nil, err
	}
	zero := 0
	for i, x := range outs {
		if x != 0 {
			continue
		}
		if zero == 0 {
			c.Instructions = append(c.Instructions, NewConstantLike(layered.NewConstantCoef(big.NewInt(0))))
			zero = c.NumVars()
		}
		outs[i] = zero
	}
	c.Outputs = outs
	return r.withRoot(c), nil
}

// GatherRootInputs makes the root take m.CurSize() inputs, of which input i
// feeds the current input m.Mapping[i]. Every current input must be fed by
// exactly one new input.
func (r *RootCircuit[S]) GatherRootInputs(m *inputmapping.InputMapping) (*RootCircuit[S], error) {
	root := r.Circuits[0]
	if m.NextSize != root.NumInputs {
		return nil, fmt.Errorf("mapping targets %d inputs, root has %d", m.NextSize, root.NumInputs)
	}
	if err := m.Validate(); err != nil {
		return nil, err
	}
	n := m.CurSize()
	newId := make([]int, root.NumInputs+1)
	for i, x := range m.Mapping {
		if x != inputmapping.Empty {
			newId[x+1] = i + 1
		}
	}
	for i := 1; i <= root.NumInputs; i++ {
		if newId[i] == 0 {
			return nil, fmt.Errorf("root input %d is not fed by any new input", i-1)
		}
	}
	f := func(x int) int {
		if x <= root.NumInputs {
			return newId[x]
		}
		return x - root.NumInputs + n
	}
	c := &Circuit{
		NumInputs:    n,
		Instructions: make([]Instruction, len(root.Instructions)),
		Constraints:  make([]Constraint, len(root.Constraints)),
		Outputs:      make([]int, len(root.Outputs)),
	}
	for i := range root.Instructions {
		c.Instructions[i] = root.Instructions[i].Replace(f)
	}
	for i, x := range root.Constraints {
		c.Constraints[i] = Constraint{Typ: x.Typ, Var: f(x.Var)}
	}
	for i, x := range root.Outputs {
		c.Outputs[i] = f(x)
	}
	return r.withRoot(c), nil
}
