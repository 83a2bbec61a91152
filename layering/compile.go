// Package layering provides functionality to compile a dest IR root circuit into a layered circuit.
package layering

import (
	"fmt"

	"github.com/PolyhedraZK/ExpanderIRCompiler/field"
	"github.com/PolyhedraZK/ExpanderIRCompiler/inputmapping"
	"github.com/PolyhedraZK/ExpanderIRCompiler/ir/common"
	"github.com/PolyhedraZK/ExpanderIRCompiler/ir/dest"
	"github.com/PolyhedraZK/ExpanderIRCompiler/layered"
	"github.com/bits-and-blooms/bitset"
	"github.com/consensys/gnark/logger"
)

// Config controls the layout of the root circuit.
type Config struct {
	// AllowInputReorder drops root inputs that are never read from the first
	// layer, packing the remaining ones.
	AllowInputReorder bool
}

type compileContext struct {
	rc    *dest.RootCircuit
	field field.Field
	conf  Config

	// for each circuit ir, we need a context to store some intermediate information
	circuits map[uint64]*irContext

	// callees first, only circuits reachable from the root
	order []uint64

	// compiled segments, deduplicated by their serialization
	compiledCircuits []*layered.Circuit
	segmentIds       map[string]uint64
}

type varKind uint8

const (
	kindInput varKind = iota
	// constant, random or public input value; rebuilt by const gates on every layer
	kindConstLike
	kindExpr
	kindCustom
	kindCallOutput
)

type callSite struct {
	insnId int
	subId  uint64
	inputs []int
	// the callee's layer 0 is the caller's layer start, and its output
	// layer is the caller's layer end
	start int
	end   int
}

type irContext struct {
	circuit *common.Circuit
	isRoot  bool
	numVars int

	// per variable, indexed by variable id
	kind   []varKind
	insnOf []int
	// for call outputs: the call and the output index
	callOf []int
	outIdx []int

	// home is the first layer a variable exists in, need is the last (-1 if
	// nothing reads it). In between it is relayed one layer at a time.
	home []int
	need []int
	used *bitset.BitSet

	calls []callSite

	// the output layer; layers are 0..depth
	depth int

	layouts  []*layerLayout
	segments []uint64
}

// Compile takes a dest RootCircuit, which must have its constraints exported,
// and compiles it into a layered circuit. The returned mapping sends each root
// input to its position in the first layer.
func Compile(rc *dest.RootCircuit, conf Config) (*layered.RootCircuit, *inputmapping.InputMapping, error) {
	ctx := &compileContext{
		rc:         rc,
		field:      rc.Field,
		conf:       conf,
		circuits:   make(map[uint64]*irContext),
		segmentIds: make(map[string]uint64),
	}
	if err := ctx.prepare(); err != nil {
		return nil, nil, err
	}
	ctx.compile()

	root := ctx.circuits[0]
	zeroes := rc.ExpectedNumOutputZeroes
	res := &layered.RootCircuit{
		Field:                   rc.Field.Field(),
		NumPublicInputs:         rc.NumPublicInputs,
		NumActualOutputs:        len(root.circuit.Outputs) - zeroes,
		ExpectedNumOutputZeroes: zeroes,
		Circuits:                ctx.compiledCircuits,
		Layers:                  root.segments,
	}

	log := logger.Logger()
	log.Debug().
		Int("circuits", len(ctx.order)).
		Int("segments", len(res.Circuits)).
		Int("layers", len(res.Layers)).
		Int("inputSize", res.InputSize()).
		Msg("layering done")

	return res, ctx.recordInputMapping(), nil
}

func (ctx *compileContext) prepare() error {
	if _, ok := ctx.rc.Circuits[0]; !ok {
		return fmt.Errorf("root circuit not found")
	}
	order, err := ctx.rc.TopoOrder()
	if err != nil {
		return err
	}
	for id, c := range ctx.rc.Circuits {
		if len(c.Constraints) != 0 {
			return fmt.Errorf("circuit %d: constraints must be exported before layering", id)
		}
	}
	if ctx.rc.ExpectedNumOutputZeroes > len(ctx.rc.Circuits[0].Outputs) {
		return fmt.Errorf("root circuit has %d outputs, fewer than %d expected zeroes",
			len(ctx.rc.Circuits[0].Outputs), ctx.rc.ExpectedNumOutputZeroes)
	}

	// keep only circuits reachable from the root, callees first
	reachable := map[uint64]bool{0: true}
	for _, id := range order {
		if !reachable[id] {
			continue
		}
		for _, insn := range ctx.rc.Circuits[id].Instructions {
			if insn.Type == common.ISubCircuitCall {
				reachable[insn.SubCircuitId] = true
			}
		}
	}
	for i := len(order) - 1; i >= 0; i-- {
		if reachable[order[i]] {
			ctx.order = append(ctx.order, order[i])
		}
	}
	return nil
}

func (ctx *compileContext) compile() {
	// 1. compute the layer range of every variable and the depth of every circuit
	for _, id := range ctx.order {
		ic := newIrContext(ctx.rc.Circuits[id], id == 0)
		ctx.circuits[id] = ic
		ctx.computeLayers(ic)
	}

	// 2. lay out every layer, then connect consecutive layers
	for _, id := range ctx.order {
		ic := ctx.circuits[id]
		ctx.computeLayouts(ic)
		ic.segments = make([]uint64, ic.depth)
		for l := 0; l < ic.depth; l++ {
			ic.segments[l] = ctx.connectWires(ic, l)
		}
	}
}

func newIrContext(c *common.Circuit, isRoot bool) *irContext {
	n := c.NumVars()
	ic := &irContext{
		circuit: c,
		isRoot:  isRoot,
		numVars: n,
		kind:    make([]varKind, n+1),
		insnOf:  make([]int, n+1),
		callOf:  make([]int, n+1),
		outIdx:  make([]int, n+1),
		home:    make([]int, n+1),
		need:    make([]int, n+1),
		used:    bitset.New(uint(n + 1)),
	}
	for i := range ic.need {
		ic.insnOf[i] = -1
		ic.callOf[i] = -1
		ic.need[i] = -1
	}
	return ic
}

func (ctx *compileContext) computeLayers(ic *irContext) {
	c := ic.circuit
	maxHome := func(vs []int) int {
		h := 0
		for _, x := range vs {
			if ic.home[x] > h {
				h = ic.home[x]
			}
		}
		return h
	}

	for i := 1; i <= c.NumInputs; i++ {
		ic.kind[i] = kindInput
		ic.home[i] = 0
	}
	v := c.NumInputs + 1
	for i, insn := range c.Instructions {
		switch insn.Type {
		case common.IInternalVariable:
			ic.insnOf[v] = i
			if insn.Expr.IsConstant() {
				ic.kind[v] = kindConstLike
				ic.home[v] = 1
			} else {
				ic.kind[v] = kindExpr
				ic.home[v] = maxHome(insn.Expr.Vars()) + 1
			}
		case common.IConstantLike:
			ic.insnOf[v] = i
			ic.kind[v] = kindConstLike
			ic.home[v] = 1
		case common.ICustomGate:
			ic.insnOf[v] = i
			ic.kind[v] = kindCustom
			ic.home[v] = maxHome(insn.Inputs) + 1
		case common.ISubCircuitCall:
			sub := ctx.circuits[insn.SubCircuitId]
			start := maxHome(insn.Inputs) + 1
			cs := callSite{
				insnId: i,
				subId:  insn.SubCircuitId,
				inputs: insn.Inputs,
				start:  start,
				end:    start + sub.depth,
			}
			for j := 0; j < insn.NumOutputs; j++ {
				ic.insnOf[v+j] = i
				ic.kind[v+j] = kindCallOutput
				ic.home[v+j] = cs.end
				ic.callOf[v+j] = len(ic.calls)
				ic.outIdx[v+j] = j
			}
			ic.calls = append(ic.calls, cs)
		default:
			panic(fmt.Sprintf("unexpected instruction %s in dest circuit", insn.Type))
		}
		v += insn.OutputCount()
	}

	use := func(x, l int) {
		ic.used.Set(uint(x))
		if ic.need[x] < l {
			ic.need[x] = l
		}
	}
	v = c.NumInputs + 1
	for _, insn := range c.Instructions {
		switch insn.Type {
		case common.IInternalVariable:
			for _, x := range insn.Expr.Vars() {
				use(x, ic.home[v]-1)
			}
		case common.ICustomGate:
			for _, x := range insn.Inputs {
				use(x, ic.home[v]-1)
			}
		}
		v += insn.OutputCount()
	}
	for _, cs := range ic.calls {
		for _, x := range cs.inputs {
			use(x, cs.start-1)
		}
	}

	ic.depth = 1
	for _, x := range c.Outputs {
		if ic.home[x]+1 > ic.depth {
			ic.depth = ic.home[x] + 1
		}
	}
	for _, cs := range ic.calls {
		if cs.end+1 > ic.depth {
			ic.depth = cs.end + 1
		}
	}
	for _, x := range c.Outputs {
		use(x, ic.depth-1)
	}
}

// present reports whether v has its own slot in layer l. Call outputs live
// inside the callee's block on their home layer.
func (ic *irContext) present(v, l int) bool {
	if !ic.used.Test(uint(v)) || ic.need[v] < l {
		return false
	}
	if ic.home[v] < l {
		return true
	}
	return ic.home[v] == l && ic.kind[v] != kindCallOutput
}

// pos returns the slot of v in layer l.
func (ic *irContext) pos(v, l int) int {
	lay := ic.layouts[l]
	if ic.kind[v] == kindCallOutput && ic.home[v] == l {
		return lay.blockOffset[ic.callOf[v]] + ic.outIdx[v]
	}
	p, ok := lay.varPos[v]
	if !ok {
		panic(fmt.Sprintf("variable %d is not present at layer %d", v, l))
	}
	return p
}
