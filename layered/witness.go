package layered

import (
	"fmt"
	"math/big"

	"github.com/PolyhedraZK/ExpanderIRCompiler/field"
	"github.com/PolyhedraZK/ExpanderIRCompiler/utils"
	"github.com/consensys/gnark/constraint"
)

// Witness holds the layer-0 values and public inputs of one or more
// assignments. Values is witness-major: for each witness, its
// NumInputsPerWitness private values followed by its public inputs.
type Witness struct {
	NumWitnesses              int
	NumInputsPerWitness       int
	NumPublicInputsPerWitness int
	Field                     *big.Int
	Values                    []*big.Int
}

func (w *Witness) stride() int {
	return w.NumInputsPerWitness + w.NumPublicInputsPerWitness
}

func (w *Witness) Validate() error {
	if w.NumWitnesses < 0 || w.NumInputsPerWitness < 0 || w.NumPublicInputsPerWitness < 0 {
		return fmt.Errorf("negative witness dimensions")
	}
	if len(w.Values) != w.NumWitnesses*w.stride() {
		return fmt.Errorf("witness has %d values, expected %d", len(w.Values), w.NumWitnesses*w.stride())
	}
	return nil
}

// Get returns the private inputs and public inputs of witness i.
func (w *Witness) Get(fd field.Field, i int) ([]constraint.Element, []constraint.Element) {
	s := w.stride()
	vals := w.Values[i*s : (i+1)*s]
	inputs := make([]constraint.Element, w.NumInputsPerWitness)
	for j := range inputs {
		inputs[j] = fd.FromInterface(vals[j])
	}
	public := make([]constraint.Element, w.NumPublicInputsPerWitness)
	for j := range public {
		public[j] = fd.FromInterface(vals[w.NumInputsPerWitness+j])
	}
	return inputs, public
}

// PackSIMD regroups the values so that, within each group of laneWidth
// witnesses, the lanes of one variable are adjacent. The number of witnesses
// must be a multiple of laneWidth.
func (w *Witness) PackSIMD(laneWidth int) ([]*big.Int, error) {
	if laneWidth <= 0 {
		return nil, fmt.Errorf("invalid lane width %d", laneWidth)
	}
	if w.NumWitnesses%laneWidth != 0 {
		return nil, fmt.Errorf("%d witnesses cannot be packed into lanes of width %d", w.NumWitnesses, laneWidth)
	}
	s := w.stride()
	res := make([]*big.Int, 0, len(w.Values))
	for g := 0; g < w.NumWitnesses/laneWidth; g++ {
		for j := 0; j < s; j++ {
			for lane := 0; lane < laneWidth; lane++ {
				res = append(res, w.Values[(g*laneWidth+lane)*s+j])
			}
		}
	}
	return res, nil
}

func (w *Witness) Serialize() []byte {
	o := utils.OutputBuf{}
	o.AppendUint64(uint64(w.NumWitnesses))
	o.AppendUint64(uint64(w.NumInputsPerWitness))
	o.AppendUint64(uint64(w.NumPublicInputsPerWitness))
	o.AppendBigInt(ModulusLen, w.Field)
	fl := fieldLen(w.Field)
	for _, x := range w.Values {
		o.AppendBigInt(fl, x)
	}
	return o.Bytes()
}

// DeserializeWitness loads a witness and rejects it unless its modulus
// equals expected.
func DeserializeWitness(buf []byte, expected *big.Int) (*Witness, error) {
	in := utils.NewInputBuf(buf)
	w := &Witness{}
	w.NumWitnesses = int(in.ReadUint64())
	w.NumInputsPerWitness = int(in.ReadUint64())
	w.NumPublicInputsPerWitness = int(in.ReadUint64())
	w.Field = in.ReadBigInt(ModulusLen)
	if err := in.Err(); err != nil {
		return nil, err
	}
	if w.Field.Cmp(expected) != 0 {
		return nil, fmt.Errorf("field modulus mismatch: witness has %s, expected %s", w.Field, expected)
	}
	fl := fieldLen(w.Field)
	n := w.NumWitnesses * w.stride()
	if n < 0 || n > len(buf)/fl {
		return nil, utils.ErrUnexpectedEOF
	}
	w.Values = make([]*big.Int, n)
	for i := range w.Values {
		w.Values[i] = in.ReadBigInt(fl)
	}
	if err := in.Err(); err != nil {
		return nil, err
	}
	if !in.IsEnd() {
		return nil, fmt.Errorf("trailing bytes after witness")
	}
	return w, nil
}
