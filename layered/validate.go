package layered

import (
	"fmt"

	"github.com/PolyhedraZK/ExpanderIRCompiler/utils"
)

// Validate checks if the circuit is valid
func Validate(rc *RootCircuit) error {
	if rc.Field == nil {
		return fmt.Errorf("missing field")
	}
	for i, c := range rc.Circuits {
		if !utils.IsPowerOfTwo(c.InputLen) {
			return fmt.Errorf("circuit %d inputlen %d not power of 2", i, c.InputLen)
		}
		if !utils.IsPowerOfTwo(c.OutputLen) {
			return fmt.Errorf("circuit %d outputlen %d not power of 2", i, c.OutputLen)
		}
		for _, m := range c.Mul {
			if m.In0 >= c.InputLen || m.In1 >= c.InputLen || m.Out >= c.OutputLen {
				return fmt.Errorf("circuit %d mul gate (%d, %d, %d) out of range", i, m.In0, m.In1, m.Out)
			}
			if err := m.Coef.Validate(rc.NumPublicInputs); err != nil {
				return fmt.Errorf("circuit %d mul gate: %w", i, err)
			}
		}
		for _, a := range c.Add {
			if a.In >= c.InputLen || a.Out >= c.OutputLen {
				return fmt.Errorf("circuit %d add gate (%d, %d) out of range", i, a.In, a.Out)
			}
			if err := a.Coef.Validate(rc.NumPublicInputs); err != nil {
				return fmt.Errorf("circuit %d add gate: %w", i, err)
			}
		}
		for _, cs := range c.Cst {
			if cs.Out >= c.OutputLen {
				return fmt.Errorf("circuit %d const gate %d out of range", i, cs.Out)
			}
			if err := cs.Coef.Validate(rc.NumPublicInputs); err != nil {
				return fmt.Errorf("circuit %d const gate: %w", i, err)
			}
		}
		for _, ct := range c.Custom {
			if ct.Out >= c.OutputLen {
				return fmt.Errorf("circuit %d custom gate output %d out of range", i, ct.Out)
			}
			if len(ct.Inputs) == 0 {
				return fmt.Errorf("circuit %d custom gate without inputs", i)
			}
			for _, x := range ct.Inputs {
				if x >= c.InputLen {
					return fmt.Errorf("circuit %d custom gate input %d out of range", i, x)
				}
			}
			if err := ct.Coef.Validate(rc.NumPublicInputs); err != nil {
				return fmt.Errorf("circuit %d custom gate: %w", i, err)
			}
		}
		for _, s := range c.SubCircuits {
			if s.Id >= uint64(i) {
				return fmt.Errorf("circuit %d subcircuit %d out of range", i, s.Id)
			}
			sc := rc.Circuits[s.Id]
			for _, a := range s.Allocations {
				if a.InputOffset%sc.InputLen != 0 {
					return fmt.Errorf("circuit %d subcircuit %d input offset %d not aligned to %d", i, s.Id, a.InputOffset, sc.InputLen)
				}
				if a.OutputOffset%sc.OutputLen != 0 {
					return fmt.Errorf("circuit %d subcircuit %d output offset %d not aligned to %d", i, s.Id, a.OutputOffset, sc.OutputLen)
				}
				if a.InputOffset+sc.InputLen > c.InputLen || a.OutputOffset+sc.OutputLen > c.OutputLen {
					return fmt.Errorf("circuit %d subcircuit %d allocation (%d, %d) out of range", i, s.Id, a.InputOffset, a.OutputOffset)
				}
			}
		}
	}
	if len(rc.Layers) == 0 {
		return fmt.Errorf("no layers")
	}
	for i, l := range rc.Layers {
		if l >= uint64(len(rc.Circuits)) {
			return fmt.Errorf("layer %d refers to missing circuit %d", i, l)
		}
	}
	for i := 1; i < len(rc.Layers); i++ {
		cur, prev := rc.Circuits[rc.Layers[i]], rc.Circuits[rc.Layers[i-1]]
		if cur.InputLen != prev.OutputLen {
			return fmt.Errorf("circuit %d inputlen %d not equal to circuit %d outputlen %d",
				rc.Layers[i], cur.InputLen, rc.Layers[i-1], prev.OutputLen,
			)
		}
	}
	if rc.ExpectedNumOutputZeroes < 0 || rc.NumActualOutputs < 0 ||
		rc.ExpectedNumOutputZeroes+rc.NumActualOutputs > rc.OutputSize() {
		return fmt.Errorf("%d zero outputs and %d actual outputs do not fit in %d output gates",
			rc.ExpectedNumOutputZeroes, rc.NumActualOutputs, rc.OutputSize())
	}
	return nil
}

// computeMasks computes whether each input/output occurs in each circuit
func computeMasks(rc *RootCircuit) ([][]bool, [][]bool) {
	inputMask := make([][]bool, len(rc.Circuits))
	outputMask := make([][]bool, len(rc.Circuits))
	for i, c := range rc.Circuits {
		inputMask[i] = make([]bool, c.InputLen)
		outputMask[i] = make([]bool, c.OutputLen)
		for _, m := range c.Mul {
			inputMask[i][m.In0] = true
			inputMask[i][m.In1] = true
			outputMask[i][m.Out] = true
		}
		for _, a := range c.Add {
			inputMask[i][a.In] = true
			outputMask[i][a.Out] = true
		}
		for _, cs := range c.Cst {
			outputMask[i][cs.Out] = true
		}
		for _, ct := range c.Custom {
			for _, x := range ct.Inputs {
				inputMask[i][x] = true
			}
			outputMask[i][ct.Out] = true
		}
		for _, s := range c.SubCircuits {
			sc := rc.Circuits[s.Id]
			for _, a := range s.Allocations {
				for j := uint64(0); j < sc.InputLen; j++ {
					inputMask[i][a.InputOffset+j] = inputMask[i][a.InputOffset+j] || inputMask[s.Id][j]
				}
				for j := uint64(0); j < sc.OutputLen; j++ {
					outputMask[i][a.OutputOffset+j] = outputMask[i][a.OutputOffset+j] || outputMask[s.Id][j]
				}
			}
		}
	}
	return inputMask, outputMask
}

// ValidateInitialized checks that every wire a layer reads is written by the
// layer before it.
func ValidateInitialized(rc *RootCircuit) error {
	inputMask, outputMask := computeMasks(rc)
	for i := 1; i < len(rc.Layers); i++ {
		for j := uint64(0); j < rc.Circuits[rc.Layers[i]].InputLen; j++ {
			if inputMask[rc.Layers[i]][j] && !outputMask[rc.Layers[i-1]][j] {
				return fmt.Errorf("circuit %d input %d not initialized by circuit %d output", rc.Layers[i], j, rc.Layers[i-1])
			}
		}
	}
	return nil
}

// MaxMulFanout returns, over all segments, the largest number of times one
// input wire is read by the multiplication gates of that segment.
func MaxMulFanout(rc *RootCircuit) int {
	res := 0
	for _, c := range rc.Circuits {
		cnt := make(map[uint64]int)
		for _, m := range c.Mul {
			cnt[m.In0]++
			cnt[m.In1]++
		}
		for _, x := range cnt {
			if x > res {
				res = x
			}
		}
	}
	return res
}
