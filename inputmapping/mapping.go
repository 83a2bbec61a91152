// Package inputmapping tracks how the inputs of a circuit move when a
// compilation stage removes or reorders them.
package inputmapping

import (
	"fmt"

	"github.com/PolyhedraZK/ExpanderIRCompiler/utils"
)

// Empty marks an input that is dropped by the mapping.
const Empty = int(^uint(0) >> 10)

// InputMapping sends input i of the current stage to position Mapping[i] of
// the next stage, which has NextSize inputs.
type InputMapping struct {
	NextSize int
	Mapping  []int
}

func New(nextSize int, mapping []int) *InputMapping {
	return &InputMapping{NextSize: nextSize, Mapping: mapping}
}

func NewIdentity(n int) *InputMapping {
	m := make([]int, n)
	for i := range m {
		m[i] = i
	}
	return &InputMapping{NextSize: n, Mapping: m}
}

func (im *InputMapping) CurSize() int {
	return len(im.Mapping)
}

// Validate checks that every kept target is in range and used at most once.
func (im *InputMapping) Validate() error {
	used := make([]bool, im.NextSize)
	for i, m := range im.Mapping {
		if m == Empty {
			continue
		}
		if m < 0 || m >= im.NextSize {
			return fmt.Errorf("input %d mapped to %d, out of range [0,%d)", i, m, im.NextSize)
		}
		if used[m] {
			return fmt.Errorf("input %d mapped to %d, which is already used", i, m)
		}
		used[m] = true
	}
	return nil
}

// IsIdentity reports whether the mapping keeps every input in place.
func (im *InputMapping) IsIdentity() bool {
	if im.NextSize != len(im.Mapping) {
		return false
	}
	for i, m := range im.Mapping {
		if m != i {
			return false
		}
	}
	return true
}

// Compose returns the mapping that applies im and then other.
func (im *InputMapping) Compose(other *InputMapping) (*InputMapping, error) {
	if im.NextSize != len(other.Mapping) {
		return nil, fmt.Errorf("cannot compose mappings: next size %d, other has %d inputs", im.NextSize, len(other.Mapping))
	}
	m := make([]int, len(im.Mapping))
	for i, x := range im.Mapping {
		if x == Empty {
			m[i] = Empty
		} else {
			m[i] = other.Mapping[x]
		}
	}
	return &InputMapping{NextSize: other.NextSize, Mapping: m}, nil
}

// MapInputs scatters inputs into a fresh vector of NextSize elements.
// Positions no input maps to hold the zero value.
func MapInputs[T any](im *InputMapping, inputs []T) ([]T, error) {
	if len(inputs) != len(im.Mapping) {
		return nil, fmt.Errorf("expected %d inputs, got %d", len(im.Mapping), len(inputs))
	}
	res := make([]T, im.NextSize)
	for i, x := range inputs {
		if im.Mapping[i] != Empty {
			res[im.Mapping[i]] = x
		}
	}
	return res, nil
}

func (im *InputMapping) Serialize(o *utils.OutputBuf) {
	o.AppendUint64(uint64(im.NextSize))
	o.AppendUint64(uint64(len(im.Mapping)))
	for _, x := range im.Mapping {
		o.AppendUint64(uint64(x))
	}
}

func Deserialize(in *utils.InputBuf) (*InputMapping, error) {
	nextSize := int(in.ReadUint64())
	n := in.ReadLen(8)
	m := make([]int, n)
	for i := range m {
		m[i] = int(in.ReadUint64())
	}
	if err := in.Err(); err != nil {
		return nil, err
	}
	im := &InputMapping{NextSize: nextSize, Mapping: m}
	if err := im.Validate(); err != nil {
		return nil, err
	}
	return im, nil
}
