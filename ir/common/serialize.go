package common

import (
	"fmt"

	"github.com/PolyhedraZK/ExpanderIRCompiler/expr"
	"github.com/PolyhedraZK/ExpanderIRCompiler/field"
	"github.com/PolyhedraZK/ExpanderIRCompiler/layered"
	"github.com/PolyhedraZK/ExpanderIRCompiler/utils"
)

// Serialize encodes the root with the stage magic and the field modulus
// first. Circuits are written in increasing id order, so equal roots have
// equal encodings.
func (r *RootCircuit[S]) Serialize() []byte {
	var s S
	o := &utils.OutputBuf{}
	o.AppendUint64(s.Magic())
	o.AppendBigInt(layered.ModulusLen, r.Field.Field())
	o.AppendUint64(uint64(r.NumPublicInputs))
	o.AppendUint64(uint64(r.ExpectedNumOutputZeroes))
	ids := r.SortedIds()
	o.AppendUint64(uint64(len(ids)))
	for _, id := range ids {
		c := r.Circuits[id]
		o.AppendUint64(id)
		o.AppendUint64(uint64(c.NumInputs))
		o.AppendUint64(uint64(len(c.Instructions)))
		for i := range c.Instructions {
			c.Instructions[i].serialize(o, r.Field)
		}
		o.AppendUint64(uint64(len(c.Constraints)))
		for _, con := range c.Constraints {
			o.AppendUint8(uint8(con.Typ))
			o.AppendUint64(uint64(con.Var))
		}
		o.AppendIntSlice(c.Outputs)
	}
	return o.Bytes()
}

func (insn *Instruction) serialize(o *utils.OutputBuf, fd field.Field) {
	o.AppendUint8(uint8(insn.Type))
	switch insn.Type {
	case ILinComb:
		o.AppendUint64(uint64(len(insn.LinComb.Terms)))
		for _, t := range insn.LinComb.Terms {
			o.AppendUint64(uint64(t.Var))
			o.AppendFieldElement(fd, t.Coef)
		}
		o.AppendFieldElement(fd, insn.LinComb.Constant)
	case IInternalVariable:
		o.AppendUint64(uint64(len(insn.Expr)))
		for _, t := range insn.Expr {
			o.AppendUint64(uint64(t.VID0))
			o.AppendUint64(uint64(t.VID1))
			o.AppendFieldElement(fd, t.Coeff)
		}
	case IConstantLike:
		insn.Coef.Serialize(o, fd.SerializedLen())
	default:
		o.AppendIntSlice(insn.Inputs)
	}
	switch insn.Type {
	case IHint, IUnconstrainedBinOp:
		o.AppendUint64(insn.HintId)
	case ICustomGate:
		o.AppendUint64(insn.GateType)
	case ISubCircuitCall:
		o.AppendUint64(insn.SubCircuitId)
	case IDiv:
		if insn.Checked {
			o.AppendUint8(1)
		} else {
			o.AppendUint8(0)
		}
	case IBoolBinOp:
		o.AppendUint8(uint8(insn.BoolOp))
	}
	switch insn.Type {
	case IHint, ISubCircuitCall, IToBinary:
		o.AppendUint64(uint64(insn.NumOutputs))
	}
}

func deserializeInstruction(in *utils.InputBuf, fd field.Field) Instruction {
	insn := Instruction{Type: InstructionType(in.ReadUint8())}
	switch insn.Type {
	case ILinComb:
		n := in.ReadLen(8 + fd.SerializedLen())
		insn.LinComb.Terms = make([]expr.LinCombTerm, n)
		for i := range insn.LinComb.Terms {
			insn.LinComb.Terms[i].Var = int(in.ReadUint64())
			insn.LinComb.Terms[i].Coef = in.ReadFieldElement(fd)
		}
		insn.LinComb.Constant = in.ReadFieldElement(fd)
	case IInternalVariable:
		n := in.ReadLen(16 + fd.SerializedLen())
		insn.Expr = make(expr.Expression, n)
		for i := range insn.Expr {
			insn.Expr[i].VID0 = int(in.ReadUint64())
			insn.Expr[i].VID1 = int(in.ReadUint64())
			insn.Expr[i].Coeff = in.ReadFieldElement(fd)
		}
	case IConstantLike:
		insn.Coef = layered.DeserializeCoef(in, fd.SerializedLen())
	default:
		insn.Inputs = in.ReadIntSlice()
	}
	switch insn.Type {
	case IHint, IUnconstrainedBinOp:
		insn.HintId = in.ReadUint64()
	case ICustomGate:
		insn.GateType = in.ReadUint64()
	case ISubCircuitCall:
		insn.SubCircuitId = in.ReadUint64()
	case IDiv:
		insn.Checked = in.ReadUint8() != 0
	case IBoolBinOp:
		insn.BoolOp = BoolBinOpType(in.ReadUint8())
	}
	switch insn.Type {
	case IHint, ISubCircuitCall, IToBinary:
		insn.NumOutputs = int(in.ReadUint64())
	}
	return insn
}

// Deserialize decodes a root of stage S. The magic and the modulus are
// checked before anything else is read, and the result is validated. A nil
// expected field accepts any supported modulus.
func Deserialize[S Stage](buf []byte, expected field.Field) (*RootCircuit[S], error) {
	var s S
	in := utils.NewInputBuf(buf)
	if m := in.ReadUint64(); m != s.Magic() {
		return nil, fmt.Errorf("%s: invalid magic %d", s.Name(), m)
	}
	p := in.ReadBigInt(layered.ModulusLen)
	if in.Err() != nil {
		return nil, in.Err()
	}
	if expected != nil && p.Cmp(expected.Field()) != 0 {
		return nil, fmt.Errorf("%s: field modulus mismatch: expected %v, got %v", s.Name(), expected.Field(), p)
	}
	fd, ok := field.LookupFieldFromOrder(p)
	if !ok {
		return nil, fmt.Errorf("%s: unsupported field modulus %v", s.Name(), p)
	}
	r := NewRootCircuit[S](fd)
	r.NumPublicInputs = int(in.ReadUint64())
	r.ExpectedNumOutputZeroes = int(in.ReadUint64())
	n := in.ReadLen(32)
	for i := 0; i < n && in.Err() == nil; i++ {
		id := in.ReadUint64()
		c := &Circuit{NumInputs: int(in.ReadUint64())}
		ni := in.ReadLen(1)
		for j := 0; j < ni && in.Err() == nil; j++ {
			c.Instructions = append(c.Instructions, deserializeInstruction(in, fd))
		}
		nc := in.ReadLen(9)
		for j := 0; j < nc; j++ {
			typ := ConstraintType(in.ReadUint8())
			c.Constraints = append(c.Constraints, Constraint{Typ: typ, Var: int(in.ReadUint64())})
		}
		c.Outputs = in.ReadIntSlice()
		if _, dup := r.Circuits[id]; dup {
			return nil, fmt.Errorf("%s: duplicate circuit id %d", s.Name(), id)
		}
		r.Circuits[id] = c
	}
	if err := in.Err(); err != nil {
		return nil, err
	}
	if !in.IsEnd() {
		return nil, fmt.Errorf("%s: trailing bytes", s.Name())
	}
	if err := r.Validate(); err != nil {
		return nil, err
	}
	return r, nil
}
