package common

import (
	"github.com/PolyhedraZK/ExpanderIRCompiler/inputmapping"
	"github.com/bits-and-blooms/bitset"
)

type callSite struct {
	caller uint64
	insn   int
}

// liveness holds the marks of one circuit. Variables are indexed directly,
// instructions and outputs by position.
type liveness struct {
	c           *Circuit
	defInsn     []int // instruction defining each variable, -1 for inputs
	defOff      []int // output position within that instruction
	vars        *bitset.BitSet
	insns       *bitset.BitSet
	outs        *bitset.BitSet
	constrained bool
	callers     []callSite
}

const (
	markVar = iota
	markInsn
	markOut
	markConstrained
)

type mark struct {
	op int
	id uint64
	x  int
}

type reachability struct {
	state map[uint64]*liveness
	stack []mark
}

// reachableIds lists the circuits reachable from the root, callers first.
func (r *RootCircuit[S]) reachableIds() []uint64 {
	reach := map[uint64]bool{0: true}
	var res []uint64
	order, err := r.TopoOrder()
	if err != nil {
		panic(err)
	}
	for _, id := range order {
		if !reach[id] {
			continue
		}
		res = append(res, id)
		for _, insn := range r.Circuits[id].Instructions {
			if insn.Type == ISubCircuitCall {
				reach[insn.SubCircuitId] = true
			}
		}
	}
	return res
}

func newReachability[S Stage](r *RootCircuit[S], ids []uint64) *reachability {
	rc := &reachability{state: make(map[uint64]*liveness, len(ids))}
	for _, id := range ids {
		c := r.Circuits[id]
		n := c.NumVars()
		l := &liveness{
			c:       c,
			defInsn: make([]int, n+1),
			defOff:  make([]int, n+1),
			vars:    bitset.New(uint(n + 1)),
			insns:   bitset.New(uint(len(c.Instructions))),
			outs:    bitset.New(uint(len(c.Outputs))),
		}
		for v := 0; v <= c.NumInputs; v++ {
			l.defInsn[v] = -1
		}
		v := c.NumInputs + 1
		for i := range c.Instructions {
			for j := 0; j < c.Instructions[i].OutputCount(); j++ {
				l.defInsn[v] = i
				l.defOff[v] = j
				v++
			}
		}
		rc.state[id] = l
	}
	for _, id := range ids {
		for i, insn := range r.Circuits[id].Instructions {
			if insn.Type == ISubCircuitCall {
				callee := rc.state[insn.SubCircuitId]
				callee.callers = append(callee.callers, callSite{caller: id, insn: i})
			}
		}
	}
	return rc
}

func (rc *reachability) push(op int, id uint64, x int) {
	rc.stack = append(rc.stack, mark{op: op, id: id, x: x})
}

func (rc *reachability) run() {
	for len(rc.stack) > 0 {
		m := rc.stack[len(rc.stack)-1]
		rc.stack = rc.stack[:len(rc.stack)-1]
		l := rc.state[m.id]
		switch m.op {
		case markVar:
			v := uint(m.x)
			if l.vars.Test(v) {
				continue
			}
			l.vars.Set(v)
			k := l.defInsn[m.x]
			if k < 0 {
				// an input is needed from every live call site
				for _, cs := range l.callers {
					if rc.state[cs.caller].insns.Test(uint(cs.insn)) {
						insn := &rc.state[cs.caller].c.Instructions[cs.insn]
						rc.push(markVar, cs.caller, insn.Inputs[m.x-1])
					}
				}
				continue
			}
			insn := &l.c.Instructions[k]
			if insn.Type == ISubCircuitCall {
				rc.push(markOut, insn.SubCircuitId, l.defOff[m.x])
			}
			rc.push(markInsn, m.id, k)
		case markInsn:
			k := uint(m.x)
			if l.insns.Test(k) {
				continue
			}
			l.insns.Set(k)
			insn := &l.c.Instructions[m.x]
			if insn.Type == ISubCircuitCall {
				callee := rc.state[insn.SubCircuitId]
				for i, a := range insn.Inputs {
					if callee.vars.Test(uint(i + 1)) {
						rc.push(markVar, m.id, a)
					}
				}
				continue
			}
			for _, v := range insn.Vars() {
				rc.push(markVar, m.id, v)
			}
		case markOut:
			j := uint(m.x)
			if l.outs.Test(j) {
				continue
			}
			l.outs.Set(j)
			rc.push(markVar, m.id, l.c.Outputs[m.x])
		case markConstrained:
			if l.constrained {
				continue
			}
			l.constrained = true
			for _, con := range l.c.Constraints {
				rc.push(markVar, m.id, con.Var)
			}
			for _, cs := range l.callers {
				rc.push(markInsn, cs.caller, cs.insn)
				rc.push(markConstrained, cs.caller, 0)
			}
		}
	}
}

// RemoveUnreachable keeps what the root outputs and the constraints depend
// on. Dead instructions, unused sub-circuit inputs and outputs, and circuits
// no longer called are dropped. The surviving root inputs are renumbered
// densely in their original order; the returned mapping describes that.
func (r *RootCircuit[S]) RemoveUnreachable() (*RootCircuit[S], *inputmapping.InputMapping) {
	ids := r.reachableIds()
	rc := newReachability(r, ids)
	for j := range r.Circuits[0].Outputs {
		rc.push(markOut, 0, j)
	}
	for _, id := range ids {
		if len(r.Circuits[id].Constraints) > 0 {
			rc.push(markConstrained, id, 0)
		}
	}
	rc.run()

	kept := map[uint64]bool{0: true}
	res := r.emptyLike()
	var rootMapping []int
	for _, id := range ids {
		if !kept[id] {
			continue
		}
		l := rc.state[id]
		c := l.c
		nc := &Circuit{}
		newVar := make([]int, c.NumVars()+1)
		if id == 0 {
			rootMapping = make([]int, c.NumInputs)
		}
		for v := 1; v <= c.NumInputs; v++ {
			if l.vars.Test(uint(v)) {
				nc.NumInputs++
				newVar[v] = nc.NumInputs
				if id == 0 {
					rootMapping[v-1] = nc.NumInputs - 1
				}
			} else if id == 0 {
				rootMapping[v-1] = inputmapping.Empty
			}
		}
		f := func(v int) int { return newVar[v] }
		next := nc.NumInputs + 1
		v := c.NumInputs + 1
		for i := range c.Instructions {
			insn := &c.Instructions[i]
			cnt := insn.OutputCount()
			if !l.insns.Test(uint(i)) {
				v += cnt
				continue
			}
			if insn.Type != ISubCircuitCall {
				nc.Instructions = append(nc.Instructions, insn.Replace(f))
				for j := 0; j < cnt; j++ {
					newVar[v] = next
					next++
					v++
				}
				continue
			}
			callee := rc.state[insn.SubCircuitId]
			kept[insn.SubCircuitId] = true
			var args []int
			for j, a := range insn.Inputs {
				if callee.vars.Test(uint(j + 1)) {
					args = append(args, newVar[a])
				}
			}
			nout := 0
			for j := 0; j < cnt; j++ {
				if callee.outs.Test(uint(j)) {
					newVar[v] = next
					next++
					nout++
				}
				v++
			}
			nc.Instructions = append(nc.Instructions, NewSubCircuitCall(insn.SubCircuitId, args, nout))
		}
		for _, con := range c.Constraints {
			nc.Constraints = append(nc.Constraints, Constraint{Typ: con.Typ, Var: newVar[con.Var]})
		}
		for j, o := range c.Outputs {
			if id == 0 || l.outs.Test(uint(j)) {
				nc.Outputs = append(nc.Outputs, newVar[o])
			}
		}
		res.Circuits[id] = nc
	}
	return res, inputmapping.New(res.Circuits[0].NumInputs, rootMapping)
}
