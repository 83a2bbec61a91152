package layering

import (
	"math/big"

	"github.com/PolyhedraZK/ExpanderIRCompiler/ir/common"
	"github.com/PolyhedraZK/ExpanderIRCompiler/layered"
)

// connectWires builds the segment from layer l to layer l+1 of a circuit and
// returns its id. Identical segments are shared.
func (ctx *compileContext) connectWires(ic *irContext, l int) uint64 {
	c := ic.circuit
	cur := ic.layouts[l]
	next := ic.layouts[l+1]
	res := &layered.Circuit{
		InputLen:    uint64(cur.size),
		OutputLen:   uint64(next.size),
		SubCircuits: []layered.SubCircuit{},
		Mul:         []layered.GateMul{},
		Add:         []layered.GateAdd{},
		Cst:         []layered.GateCst{},
		Custom:      []layered.GateCustom{},
	}
	one := layered.NewConstantCoef(big.NewInt(1))
	addGate := func(in, out int) {
		res.Add = append(res.Add, layered.GateAdd{
			In:   uint64(in),
			Out:  uint64(out),
			Coef: one,
		})
	}

	// connect sub circuits running across this layer
	for k, cs := range ic.calls {
		if cs.start <= l && l+1 <= cs.end {
			sub := ctx.circuits[cs.subId]
			addAllocation(res, sub.segments[l-cs.start], layered.Allocation{
				InputOffset:  uint64(cur.blockOffset[k]),
				OutputOffset: uint64(next.blockOffset[k]),
			})
		}
	}
	// feed the arguments of sub circuits starting at the next layer
	for k, cs := range ic.calls {
		if cs.start == l+1 {
			for i, x := range cs.inputs {
				addGate(ic.pos(x, l), next.blockOffset[k]+i)
			}
		}
	}

	if l+1 == ic.depth {
		for j, x := range c.Outputs {
			addGate(ic.pos(x, l), j)
		}
		return ctx.memorizedSegment(res)
	}

	for v := 1; v <= ic.numVars; v++ {
		if !ic.present(v, l+1) {
			continue
		}
		pos := ic.pos(v, l+1)
		if ic.kind[v] == kindConstLike {
			// const-like values are rebuilt on every layer instead of relayed
			res.Cst = append(res.Cst, ctx.constGates(ic, v, pos)...)
			continue
		}
		if ic.home[v] != l+1 {
			addGate(ic.pos(v, l), pos)
			continue
		}
		insn := &c.Instructions[ic.insnOf[v]]
		switch ic.kind[v] {
		case kindExpr:
			for _, term := range insn.Expr {
				coef := layered.NewConstantCoef(ctx.field.ToBigInt(term.Coeff))
				if term.VID0 == 0 {
					res.Cst = append(res.Cst, layered.GateCst{
						Out:  uint64(pos),
						Coef: coef,
					})
				} else if term.VID1 == 0 {
					res.Add = append(res.Add, layered.GateAdd{
						In:   uint64(ic.pos(term.VID0, l)),
						Out:  uint64(pos),
						Coef: coef,
					})
				} else {
					res.Mul = append(res.Mul, layered.GateMul{
						In0:  uint64(ic.pos(term.VID0, l)),
						In1:  uint64(ic.pos(term.VID1, l)),
						Out:  uint64(pos),
						Coef: coef,
					})
				}
			}
		case kindCustom:
			in := make([]uint64, len(insn.Inputs))
			for i, x := range insn.Inputs {
				in[i] = uint64(ic.pos(x, l))
			}
			res.Custom = append(res.Custom, layered.GateCustom{
				GateType: insn.GateType,
				Inputs:   in,
				Out:      uint64(pos),
				Coef:     one,
			})
		}
	}

	return ctx.memorizedSegment(res)
}

func (ctx *compileContext) constGates(ic *irContext, v int, pos int) []layered.GateCst {
	insn := &ic.circuit.Instructions[ic.insnOf[v]]
	if insn.Type == common.IConstantLike {
		return []layered.GateCst{{Out: uint64(pos), Coef: insn.Coef}}
	}
	res := make([]layered.GateCst, len(insn.Expr))
	for i, term := range insn.Expr {
		res[i] = layered.GateCst{
			Out:  uint64(pos),
			Coef: layered.NewConstantCoef(ctx.field.ToBigInt(term.Coeff)),
		}
	}
	return res
}

func addAllocation(res *layered.Circuit, id uint64, al layered.Allocation) {
	for j := range res.SubCircuits {
		if res.SubCircuits[j].Id == id {
			res.SubCircuits[j].Allocations = append(res.SubCircuits[j].Allocations, al)
			return
		}
	}
	res.SubCircuits = append(res.SubCircuits, layered.SubCircuit{
		Id:          id,
		Allocations: []layered.Allocation{al},
	})
}

func (ctx *compileContext) memorizedSegment(c *layered.Circuit) uint64 {
	key := string(layered.SerializeCircuit(c, ctx.field.Field()))
	if id, ok := ctx.segmentIds[key]; ok {
		return id
	}
	id := uint64(len(ctx.compiledCircuits))
	ctx.compiledCircuits = append(ctx.compiledCircuits, c)
	ctx.segmentIds[key] = id
	return id
}
