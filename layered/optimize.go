package layered

import (
	"math/big"

	"github.com/PolyhedraZK/ExpanderIRCompiler/utils"
)

// coefLess orders constants first, then the random coefficient, then public
// inputs by id.
func coefLess(a, b Coef) bool {
	if a.Type != b.Type {
		return a.Type < b.Type
	}
	switch a.Type {
	case CoefConstant:
		return a.Value.Cmp(b.Value) < 0
	case CoefPublicInput:
		return a.PublicInputId < b.PublicInputId
	}
	return false
}

// mergeCoef adds two constant coefficients modulo p. Other kinds never merge.
func mergeCoef(a, b Coef, p *big.Int) (Coef, bool) {
	if !a.IsConstant() || !b.IsConstant() {
		return Coef{}, false
	}
	v := new(big.Int).Add(a.Value, b.Value)
	return Coef{Type: CoefConstant, Value: v.Mod(v, p)}, true
}

func sortedBy[T any](gates []T, less func(a, b T) bool) []T {
	s := make([]int, len(gates))
	for i := range s {
		s[i] = i
	}
	utils.SortIntSeq(s, func(i, j int) bool { return less(gates[i], gates[j]) })
	res := make([]T, len(gates))
	for i, j := range s {
		res[i] = gates[j]
	}
	return res
}

// dedupGates merges neighbours of a sorted gate list that share their wiring
// and have constant coefficients.
func dedupGates[T any](gates []T, sameWires func(a, b T) bool, coef func(g *T) *Coef, p *big.Int) []T {
	res := make([]T, 0, len(gates))
	for _, g := range gates {
		if n := len(res); n > 0 && sameWires(res[n-1], g) {
			if c, ok := mergeCoef(*coef(&res[n-1]), *coef(&g), p); ok {
				*coef(&res[n-1]) = c
				continue
			}
		}
		res = append(res, g)
	}
	return res
}

func sortMulGates(mul []GateMul, p *big.Int) []GateMul {
	mul = sortedBy(mul, func(a, b GateMul) bool {
		if a.Out != b.Out {
			return a.Out < b.Out
		}
		if a.In0 != b.In0 {
			return a.In0 < b.In0
		}
		if a.In1 != b.In1 {
			return a.In1 < b.In1
		}
		return coefLess(a.Coef, b.Coef)
	})
	return dedupGates(mul, func(a, b GateMul) bool {
		return a.Out == b.Out && a.In0 == b.In0 && a.In1 == b.In1
	}, func(g *GateMul) *Coef { return &g.Coef }, p)
}

func sortAddGates(add []GateAdd, p *big.Int) []GateAdd {
	add = sortedBy(add, func(a, b GateAdd) bool {
		if a.Out != b.Out {
			return a.Out < b.Out
		}
		if a.In != b.In {
			return a.In < b.In
		}
		return coefLess(a.Coef, b.Coef)
	})
	return dedupGates(add, func(a, b GateAdd) bool {
		return a.Out == b.Out && a.In == b.In
	}, func(g *GateAdd) *Coef { return &g.Coef }, p)
}

func sortCstGates(cst []GateCst, p *big.Int) []GateCst {
	cst = sortedBy(cst, func(a, b GateCst) bool {
		if a.Out != b.Out {
			return a.Out < b.Out
		}
		return coefLess(a.Coef, b.Coef)
	})
	return dedupGates(cst, func(a, b GateCst) bool {
		return a.Out == b.Out
	}, func(g *GateCst) *Coef { return &g.Coef }, p)
}

func sameInputs(a, b []uint64) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func inputsLess(a, b []uint64) bool {
	for i := 0; i < len(a) && i < len(b); i++ {
		if a[i] != b[i] {
			return a[i] < b[i]
		}
	}
	return len(a) < len(b)
}

func sortCustomGates(custom []GateCustom, p *big.Int) []GateCustom {
	custom = sortedBy(custom, func(a, b GateCustom) bool {
		if a.Out != b.Out {
			return a.Out < b.Out
		}
		if a.GateType != b.GateType {
			return a.GateType < b.GateType
		}
		if !sameInputs(a.Inputs, b.Inputs) {
			return inputsLess(a.Inputs, b.Inputs)
		}
		return coefLess(a.Coef, b.Coef)
	})
	return dedupGates(custom, func(a, b GateCustom) bool {
		return a.Out == b.Out && a.GateType == b.GateType && sameInputs(a.Inputs, b.Inputs)
	}, func(g *GateCustom) *Coef { return &g.Coef }, p)
}

// expandCircuit copies c with the children in expand inlined at every
// allocation. Their own children stay allocated, shifted by the allocation.
// Gates come out sorted and merged.
func expandCircuit(c *Circuit, prev []*Circuit, p *big.Int, expand map[uint64]bool) *Circuit {
	res := &Circuit{
		InputLen:  c.InputLen,
		OutputLen: c.OutputLen,
		Mul:       append([]GateMul(nil), c.Mul...),
		Add:       append([]GateAdd(nil), c.Add...),
		Cst:       append([]GateCst(nil), c.Cst...),
		Custom:    append([]GateCustom(nil), c.Custom...),
	}
	subIndex := make(map[uint64]int)
	allocate := func(id uint64, a Allocation) {
		x, ok := subIndex[id]
		if !ok {
			x = len(res.SubCircuits)
			subIndex[id] = x
			res.SubCircuits = append(res.SubCircuits, SubCircuit{Id: id})
		}
		res.SubCircuits[x].Allocations = append(res.SubCircuits[x].Allocations, a)
	}
	for _, sub := range c.SubCircuits {
		if !expand[sub.Id] {
			for _, a := range sub.Allocations {
				allocate(sub.Id, a)
			}
			continue
		}
		sc := prev[sub.Id]
		for _, a := range sub.Allocations {
			in, out := a.InputOffset, a.OutputOffset
			for _, m := range sc.Mul {
				res.Mul = append(res.Mul, GateMul{In0: m.In0 + in, In1: m.In1 + in, Out: m.Out + out, Coef: m.Coef})
			}
			for _, g := range sc.Add {
				res.Add = append(res.Add, GateAdd{In: g.In + in, Out: g.Out + out, Coef: g.Coef})
			}
			for _, g := range sc.Cst {
				res.Cst = append(res.Cst, GateCst{Out: g.Out + out, Coef: g.Coef})
			}
			for _, g := range sc.Custom {
				inputs := make([]uint64, len(g.Inputs))
				for i, x := range g.Inputs {
					inputs[i] = x + in
				}
				res.Custom = append(res.Custom, GateCustom{GateType: g.GateType, Inputs: inputs, Out: g.Out + out, Coef: g.Coef})
			}
			for _, ss := range sc.SubCircuits {
				for _, a2 := range ss.Allocations {
					allocate(ss.Id, Allocation{InputOffset: in + a2.InputOffset, OutputOffset: out + a2.OutputOffset})
				}
			}
		}
	}
	res.Mul = sortMulGates(res.Mul, p)
	res.Add = sortAddGates(res.Add, p)
	res.Cst = sortCstGates(res.Cst, p)
	res.Custom = sortCustomGates(res.Custom, p)
	return res
}

const (
	// a segment allocated at most this many times is inlined
	expandUseCountLimit = 1
	// a segment with at most this many gates and allocations is inlined
	expandGateCountLimit = 4
)

// optimize1 inlines small segments and segments used once, drops segments
// nothing refers to, and merges segments that became identical. It reports
// whether anything changed.
func optimize1(rc *RootCircuit) (*RootCircuit, bool) {
	n := len(rc.Circuits)
	inLayers := make([]bool, n)
	usedCount := make([]int, n)
	for _, x := range rc.Layers {
		// layer segments are never inlined
		usedCount[x] += expandUseCountLimit + 1
		inLayers[x] = true
	}
	for i := n - 1; i >= 0; i-- {
		if usedCount[i] > 0 {
			for _, s := range rc.Circuits[i].SubCircuits {
				usedCount[s.Id] += len(s.Allocations)
			}
		}
	}
	changed := false
	expand := make(map[uint64]bool)
	for i, c := range rc.Circuits {
		if usedCount[i] == 0 {
			changed = true
			continue
		}
		if inLayers[i] {
			continue
		}
		gateCount := len(c.Mul) + len(c.Add) + len(c.Cst) + len(c.Custom)
		for _, s := range c.SubCircuits {
			gateCount += len(s.Allocations)
		}
		if usedCount[i] <= expandUseCountLimit || gateCount <= expandGateCountLimit {
			expand[uint64(i)] = true
			changed = true
		}
	}

	expanded := make([]*Circuit, n)
	for i, c := range rc.Circuits {
		if usedCount[i] > 0 {
			expanded[i] = expandCircuit(c, expanded, rc.Field, expand)
		}
	}

	// children keep lower ids, so renumbering in order and merging equal
	// segments as they appear keeps references pointing backwards
	newId := make([]uint64, n)
	seen := make(map[string]uint64)
	var circuits []*Circuit
	for i, c := range expanded {
		if c == nil || expand[uint64(i)] {
			continue
		}
		for j := range c.SubCircuits {
			c.SubCircuits[j].Id = newId[c.SubCircuits[j].Id]
		}
		key := string(SerializeCircuit(c, rc.Field))
		if id, ok := seen[key]; ok {
			newId[i] = id
			changed = true
			continue
		}
		newId[i] = uint64(len(circuits))
		seen[key] = newId[i]
		circuits = append(circuits, c)
	}
	if !changed {
		return rc, false
	}
	layers := make([]uint64, len(rc.Layers))
	for i, x := range rc.Layers {
		layers[i] = newId[x]
	}
	return &RootCircuit{
		Field:                   rc.Field,
		NumPublicInputs:         rc.NumPublicInputs,
		NumActualOutputs:        rc.NumActualOutputs,
		ExpectedNumOutputZeroes: rc.ExpectedNumOutputZeroes,
		Circuits:                circuits,
		Layers:                  layers,
	}, true
}

// Optimize shrinks a valid layered circuit without changing what it
// computes: small or single-use segments are inlined into their parents,
// duplicate gates are merged, and unused or identical segments removed.
// rc is not modified.
func Optimize(rc *RootCircuit) *RootCircuit {
	for {
		next, changed := optimize1(rc)
		if !changed {
			return rc
		}
		rc = next
	}
}
