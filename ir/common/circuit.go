// Package common is the IR container shared by every compilation stage: a
// set of circuit bodies over a flat variable arena, generic over the stage.
package common

import (
	"fmt"
	"sort"

	"github.com/PolyhedraZK/ExpanderIRCompiler/field"
	"github.com/PolyhedraZK/ExpanderIRCompiler/utils"
	"github.com/consensys/gnark/constraint"
)

// Stage describes what a compilation stage admits. Implementations are
// empty structs; their methods are called on the zero value.
type Stage interface {
	Name() string
	// Magic prefixes the binary encoding of the stage.
	Magic() uint64
	AllowsInstruction(t InstructionType) bool
	AllowsConstraint(t ConstraintType) bool
}

type ConstraintType uint8

const (
	Zero ConstraintType = iota + 1
	NonZero
	Bool
)

type Constraint struct {
	Typ ConstraintType
	Var int
}

// Check reports whether v satisfies the constraint.
func (c Constraint) Check(fd field.Field, v constraint.Element) bool {
	switch c.Typ {
	case Zero:
		return field.IsZero(fd, v)
	case NonZero:
		return !field.IsZero(fd, v)
	case Bool:
		return field.IsZero(fd, v) || fd.IsOne(v)
	}
	return false
}

// Circuit is one body. Variables 1..NumInputs are the inputs; every
// instruction appends its outputs after them, in order.
type Circuit struct {
	Instructions []Instruction
	Constraints  []Constraint
	Outputs      []int
	NumInputs    int
}

// NumVars is the largest variable index of the body.
func (c *Circuit) NumVars() int {
	n := c.NumInputs
	for i := range c.Instructions {
		n += c.Instructions[i].OutputCount()
	}
	return n
}

// RootCircuit maps circuit ids to bodies. Circuit 0 is the entry point.
type RootCircuit[S Stage] struct {
	Field                   field.Field
	NumPublicInputs         int
	ExpectedNumOutputZeroes int
	Circuits                map[uint64]*Circuit
}

func NewRootCircuit[S Stage](fd field.Field) *RootCircuit[S] {
	return &RootCircuit[S]{Field: fd, Circuits: make(map[uint64]*Circuit)}
}

// SortedIds lists the circuit ids in increasing order.
func (r *RootCircuit[S]) SortedIds() []uint64 {
	ids := make([]uint64, 0, len(r.Circuits))
	for id := range r.Circuits {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

func (r *RootCircuit[S]) InputSize() int {
	return r.Circuits[0].NumInputs
}

// emptyLike returns a root with the same header and no circuits.
func (r *RootCircuit[S]) emptyLike() *RootCircuit[S] {
	return &RootCircuit[S]{
		Field:                   r.Field,
		NumPublicInputs:         r.NumPublicInputs,
		ExpectedNumOutputZeroes: r.ExpectedNumOutputZeroes,
		Circuits:                make(map[uint64]*Circuit),
	}
}

// Validate checks the structure of every body: variable references are in
// range and defined before use, instruction arities hold, calls match their
// callee's shape, and the call graph is acyclic. Failures are user errors.
func (r *RootCircuit[S]) Validate() error {
	var s S
	if r.Field == nil {
		return utils.NewUserError("%s: missing field", s.Name())
	}
	root, ok := r.Circuits[0]
	if !ok {
		return utils.NewUserError("%s: root circuit not found", s.Name())
	}
	for _, id := range r.SortedIds() {
		if r.Circuits[id] == nil {
			return utils.NewUserError("%s: circuit %d: nil body", s.Name(), id)
		}
	}
	for _, id := range r.SortedIds() {
		if err := r.validateCircuit(id); err != nil {
			return utils.NewUserError("%s: circuit %d: %v", s.Name(), id, err)
		}
	}
	if _, err := r.TopoOrder(); err != nil {
		return utils.NewUserError("%s: %v", s.Name(), err)
	}
	if r.NumPublicInputs < 0 {
		return utils.NewUserError("%s: negative public input count", s.Name())
	}
	if r.ExpectedNumOutputZeroes < 0 || r.ExpectedNumOutputZeroes > len(root.Outputs) {
		return utils.NewUserError("%s: %d expected zero outputs, root has %d outputs",
			s.Name(), r.ExpectedNumOutputZeroes, len(root.Outputs))
	}
	return nil
}

func (r *RootCircuit[S]) validateCircuit(id uint64) error {
	var s S
	c := r.Circuits[id]
	if c.NumInputs < 0 {
		return fmt.Errorf("negative input count")
	}
	cur := c.NumInputs
	for i := range c.Instructions {
		insn := &c.Instructions[i]
		if !s.AllowsInstruction(insn.Type) {
			return fmt.Errorf("instruction %d: %s not allowed", i, insn.Type)
		}
		for _, v := range insn.Vars() {
			if v < 1 || v > cur {
				return fmt.Errorf("instruction %d: variable %d out of range [1,%d]", i, v, cur)
			}
		}
		if err := insn.validate(r.NumPublicInputs); err != nil {
			return fmt.Errorf("instruction %d: %v", i, err)
		}
		if insn.Type == ISubCircuitCall {
			sub, ok := r.Circuits[insn.SubCircuitId]
			if !ok {
				return fmt.Errorf("instruction %d: sub circuit %d not found", i, insn.SubCircuitId)
			}
			if len(insn.Inputs) != sub.NumInputs {
				return fmt.Errorf("instruction %d: sub circuit %d takes %d inputs, got %d",
					i, insn.SubCircuitId, sub.NumInputs, len(insn.Inputs))
			}
			if insn.NumOutputs != len(sub.Outputs) {
				return fmt.Errorf("instruction %d: sub circuit %d has %d outputs, call declares %d",
					i, insn.SubCircuitId, len(sub.Outputs), insn.NumOutputs)
			}
		}
		cur += insn.OutputCount()
	}
	for i, con := range c.Constraints {
		if !s.AllowsConstraint(con.Typ) {
			return fmt.Errorf("constraint %d: type %d not allowed", i, con.Typ)
		}
		if con.Var < 1 || con.Var > cur {
			return fmt.Errorf("constraint %d: variable %d out of range [1,%d]", i, con.Var, cur)
		}
	}
	for i, v := range c.Outputs {
		if v < 1 || v > cur {
			return fmt.Errorf("output %d: variable %d out of range [1,%d]", i, v, cur)
		}
	}
	return nil
}

// TopoOrder orders the circuits so that every caller precedes its callees.
// It fails if the call graph has a cycle.
func (r *RootCircuit[S]) TopoOrder() ([]uint64, error) {
	ids := r.SortedIds()
	indeg := make(map[uint64]int, len(ids))
	for _, id := range ids {
		for _, insn := range r.Circuits[id].Instructions {
			if insn.Type == ISubCircuitCall {
				indeg[insn.SubCircuitId]++
			}
		}
	}
	order := make([]uint64, 0, len(ids))
	done := make(map[uint64]bool, len(ids))
	for len(order) < len(ids) {
		progress := false
		for _, id := range ids {
			if done[id] || indeg[id] != 0 {
				continue
			}
			done[id] = true
			progress = true
			order = append(order, id)
			for _, insn := range r.Circuits[id].Instructions {
				if insn.Type == ISubCircuitCall {
					indeg[insn.SubCircuitId]--
				}
			}
		}
		if !progress {
			for _, id := range ids {
				if !done[id] {
					return nil, fmt.Errorf("call graph has a cycle through circuit %d", id)
				}
			}
		}
	}
	return order, nil
}

// CalleesFirst returns the circuit ids with every callee before its callers.
// r must be valid.
func (r *RootCircuit[S]) CalleesFirst() []uint64 {
	order, err := r.TopoOrder()
	if err != nil {
		panic(err)
	}
	for i, j := 0, len(order)-1; i < j; i, j = i+1, j-1 {
		order[i], order[j] = order[j], order[i]
	}
	return order
}
