package layering

import (
	"sort"

	"github.com/PolyhedraZK/ExpanderIRCompiler/utils"
)

// layerLayout is the placement of one layer of a circuit: callee blocks
// first, then one slot per variable present in the layer.
type layerLayout struct {
	size        int
	varPos      map[int]int
	blockOffset map[int]int // call index -> offset of the callee block
}

func newLayerLayout() *layerLayout {
	return &layerLayout{
		varPos:      make(map[int]int),
		blockOffset: make(map[int]int),
	}
}

func (ctx *compileContext) computeLayouts(ic *irContext) {
	c := ic.circuit
	ic.layouts = make([]*layerLayout, ic.depth+1)

	// input layer
	l0 := newLayerLayout()
	n := 0
	for i := 1; i <= c.NumInputs; i++ {
		if ic.isRoot && ctx.conf.AllowInputReorder && !ic.used.Test(uint(i)) {
			continue
		}
		l0.varPos[i] = n
		n++
	}
	l0.size = utils.NextPowerOfTwo(n)
	ic.layouts[0] = l0

	for l := 1; l < ic.depth; l++ {
		lay := newLayerLayout()
		blockSize := func(k int) int {
			cs := ic.calls[k]
			return ctx.circuits[cs.subId].layouts[l-cs.start].size
		}
		active := []int{}
		for k, cs := range ic.calls {
			if cs.start <= l && l <= cs.end {
				active = append(active, k)
			}
		}
		// blocks are powers of two, so placing them largest first keeps each
		// one aligned to its own size
		sort.SliceStable(active, func(i, j int) bool {
			return blockSize(active[i]) > blockSize(active[j])
		})
		off := 0
		for _, k := range active {
			lay.blockOffset[k] = off
			off += blockSize(k)
		}
		for v := 1; v <= ic.numVars; v++ {
			if ic.present(v, l) {
				lay.varPos[v] = off
				off++
			}
		}
		lay.size = utils.NextPowerOfTwo(off)
		ic.layouts[l] = lay
	}

	// output layer
	out := newLayerLayout()
	out.size = utils.NextPowerOfTwo(len(c.Outputs))
	ic.layouts[ic.depth] = out
}
