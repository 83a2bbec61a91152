package layered

import (
	"fmt"
	"math/big"

	"github.com/PolyhedraZK/ExpanderIRCompiler/field"
	"github.com/PolyhedraZK/ExpanderIRCompiler/utils"
)

const Magic uint64 = 3770719418566461763

// ModulusLen is the width of a serialized field modulus.
const ModulusLen = 32

// fieldLen is the width of serialized coefficients for the field of order p.
func fieldLen(p *big.Int) int {
	if f, ok := field.LookupFieldFromOrder(p); ok {
		return f.SerializedLen()
	}
	return ModulusLen
}

// Serialize converts a RootCircuit into a byte array for storage or transmission.
func (rc *RootCircuit) Serialize() []byte {
	o := utils.OutputBuf{}
	o.AppendUint64(Magic)
	o.AppendBigInt(ModulusLen, rc.Field)
	fl := fieldLen(rc.Field)
	o.AppendUint64(uint64(rc.NumPublicInputs))
	o.AppendUint64(uint64(rc.NumActualOutputs))
	o.AppendUint64(uint64(rc.ExpectedNumOutputZeroes))
	o.AppendUint64(uint64(len(rc.Circuits)))
	for _, c := range rc.Circuits {
		c.serialize(&o, fl)
	}
	o.AppendUint64(uint64(len(rc.Layers)))
	for _, l := range rc.Layers {
		o.AppendUint64(l)
	}
	return o.Bytes()
}

func (c *Circuit) serialize(o *utils.OutputBuf, fl int) {
	o.AppendUint64(c.InputLen)
	o.AppendUint64(c.OutputLen)
	o.AppendUint64(uint64(len(c.SubCircuits)))
	for _, sub := range c.SubCircuits {
		o.AppendUint64(sub.Id)
		o.AppendUint64(uint64(len(sub.Allocations)))
		for _, a := range sub.Allocations {
			o.AppendUint64(a.InputOffset)
			o.AppendUint64(a.OutputOffset)
		}
	}
	o.AppendUint64(uint64(len(c.Mul)))
	for _, m := range c.Mul {
		o.AppendUint64(m.In0)
		o.AppendUint64(m.In1)
		o.AppendUint64(m.Out)
		m.Coef.Serialize(o, fl)
	}
	o.AppendUint64(uint64(len(c.Add)))
	for _, a := range c.Add {
		o.AppendUint64(a.In)
		o.AppendUint64(a.Out)
		a.Coef.Serialize(o, fl)
	}
	o.AppendUint64(uint64(len(c.Cst)))
	for _, cs := range c.Cst {
		o.AppendUint64(cs.Out)
		cs.Coef.Serialize(o, fl)
	}
	o.AppendUint64(uint64(len(c.Custom)))
	for _, ct := range c.Custom {
		o.AppendUint64(ct.GateType)
		o.AppendUint64(uint64(len(ct.Inputs)))
		for _, x := range ct.Inputs {
			o.AppendUint64(x)
		}
		o.AppendUint64(ct.Out)
		ct.Coef.Serialize(o, fl)
	}
}

// SerializeCircuit returns the encoding of a single segment. Equal encodings
// mean equal segments.
func SerializeCircuit(c *Circuit, p *big.Int) []byte {
	o := utils.OutputBuf{}
	c.serialize(&o, fieldLen(p))
	return o.Bytes()
}

// DeserializeRootCircuit loads a circuit written by Serialize. The header is
// checked before any segment is read: the magic must match, and the modulus
// must equal expected, or be a supported field when expected is nil.
func DeserializeRootCircuit(buf []byte, expected *big.Int) (*RootCircuit, error) {
	in := utils.NewInputBuf(buf)
	if in.ReadUint64() != Magic {
		return nil, fmt.Errorf("invalid file header")
	}
	p := in.ReadBigInt(ModulusLen)
	if err := in.Err(); err != nil {
		return nil, err
	}
	if expected != nil && p.Cmp(expected) != 0 {
		return nil, fmt.Errorf("field modulus mismatch: file has %s, expected %s", p, expected)
	}
	if _, ok := field.LookupFieldFromOrder(p); !ok {
		return nil, fmt.Errorf("unsupported field modulus %s", p)
	}
	fl := fieldLen(p)
	rc := &RootCircuit{Field: p}
	rc.NumPublicInputs = int(in.ReadUint64())
	rc.NumActualOutputs = int(in.ReadUint64())
	rc.ExpectedNumOutputZeroes = int(in.ReadUint64())
	nbCircuits := in.ReadLen(16)
	rc.Circuits = make([]*Circuit, nbCircuits)
	for i := range rc.Circuits {
		rc.Circuits[i] = deserializeCircuit(in, fl)
	}
	nbLayers := in.ReadLen(8)
	rc.Layers = make([]uint64, nbLayers)
	for i := range rc.Layers {
		rc.Layers[i] = in.ReadUint64()
	}
	if err := in.Err(); err != nil {
		return nil, err
	}
	if !in.IsEnd() {
		return nil, fmt.Errorf("trailing bytes after circuit")
	}
	if err := Validate(rc); err != nil {
		return nil, err
	}
	return rc, nil
}

func deserializeCircuit(in *utils.InputBuf, fl int) *Circuit {
	c := &Circuit{}
	c.InputLen = in.ReadUint64()
	c.OutputLen = in.ReadUint64()
	c.SubCircuits = make([]SubCircuit, in.ReadLen(16))
	for j := range c.SubCircuits {
		sub := SubCircuit{}
		sub.Id = in.ReadUint64()
		sub.Allocations = make([]Allocation, in.ReadLen(16))
		for k := range sub.Allocations {
			sub.Allocations[k].InputOffset = in.ReadUint64()
			sub.Allocations[k].OutputOffset = in.ReadUint64()
		}
		c.SubCircuits[j] = sub
	}
	c.Mul = make([]GateMul, in.ReadLen(25))
	for j := range c.Mul {
		c.Mul[j].In0 = in.ReadUint64()
		c.Mul[j].In1 = in.ReadUint64()
		c.Mul[j].Out = in.ReadUint64()
		c.Mul[j].Coef = DeserializeCoef(in, fl)
	}
	c.Add = make([]GateAdd, in.ReadLen(17))
	for j := range c.Add {
		c.Add[j].In = in.ReadUint64()
		c.Add[j].Out = in.ReadUint64()
		c.Add[j].Coef = DeserializeCoef(in, fl)
	}
	c.Cst = make([]GateCst, in.ReadLen(9))
	for j := range c.Cst {
		c.Cst[j].Out = in.ReadUint64()
		c.Cst[j].Coef = DeserializeCoef(in, fl)
	}
	c.Custom = make([]GateCustom, in.ReadLen(25))
	for j := range c.Custom {
		ct := GateCustom{GateType: in.ReadUint64()}
		ct.Inputs = make([]uint64, in.ReadLen(8))
		for k := range ct.Inputs {
			ct.Inputs[k] = in.ReadUint64()
		}
		ct.Out = in.ReadUint64()
		ct.Coef = DeserializeCoef(in, fl)
		c.Custom[j] = ct
	}
	return c
}
