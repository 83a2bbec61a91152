package layered

import "github.com/PolyhedraZK/ExpanderIRCompiler/utils"

type Stats struct {
	// number of layers in the final circuit
	NbLayer int
	// number of circuits (or, segments)
	NbCircuit int
	// number of used input variables
	NbInput int
	// number of mul/add/cst gates in all circuits (unexpanded)
	NbTotMul    int
	NbTotAdd    int
	NbTotCst    int
	NbTotCustom map[uint64]int
	// number of mul/add/cst gates in expanded form of all layers
	NbExpandedMul    int
	NbExpandedAdd    int
	NbExpandedCst    int
	NbExpandedCustom map[uint64]int
	// number of total gates in the final circuit (except input gates)
	NbTotGates int
	// number of actually used gates used in the final circuit
	NbUsedGates int
	// largest mul fan-out of a wire within one segment
	MaxMulFanout int
	// total cost according to some formula
	TotalCost int
}

type circuitStats struct {
	nbExpandedMul    int
	nbExpandedAdd    int
	nbExpandedCst    int
	nbExpandedCustom map[uint64]int
}

// GetStats collects statistics about a RootCircuit: the number of layers and
// segments, and the gate counts before and after expanding child segments.
func (rc *RootCircuit) GetStats() Stats {
	m := make([]circuitStats, len(rc.Circuits))
	ar := Stats{
		NbTotCustom:      make(map[uint64]int),
		NbExpandedCustom: make(map[uint64]int),
	}
	// children always have smaller ids, so one pass in order suffices
	for i, circuit := range rc.Circuits {
		r := &m[i]
		r.nbExpandedMul = len(circuit.Mul)
		r.nbExpandedAdd = len(circuit.Add)
		r.nbExpandedCst = len(circuit.Cst)
		r.nbExpandedCustom = make(map[uint64]int)
		for _, ct := range circuit.Custom {
			ar.NbTotCustom[ct.GateType]++
			r.nbExpandedCustom[ct.GateType]++
		}
		for _, sub := range circuit.SubCircuits {
			n := len(sub.Allocations)
			r.nbExpandedMul += m[sub.Id].nbExpandedMul * n
			r.nbExpandedAdd += m[sub.Id].nbExpandedAdd * n
			r.nbExpandedCst += m[sub.Id].nbExpandedCst * n
			for k, v := range m[sub.Id].nbExpandedCustom {
				r.nbExpandedCustom[k] += v * n
			}
		}
		ar.NbTotMul += len(circuit.Mul)
		ar.NbTotAdd += len(circuit.Add)
		ar.NbTotCst += len(circuit.Cst)
	}
	for _, x := range rc.Layers {
		ar.NbExpandedMul += m[x].nbExpandedMul
		ar.NbExpandedAdd += m[x].nbExpandedAdd
		ar.NbExpandedCst += m[x].nbExpandedCst
		for k, v := range m[x].nbExpandedCustom {
			ar.NbExpandedCustom[k] += v
		}
	}
	ar.NbCircuit = len(rc.Circuits)
	ar.NbLayer = len(rc.Layers)
	inputMask, outputMask := computeMasks(rc)
	for _, l := range rc.Layers {
		ar.NbTotGates += int(rc.Circuits[l].OutputLen)
		for _, used := range outputMask[l] {
			if used {
				ar.NbUsedGates++
			}
		}
	}
	for _, used := range inputMask[rc.Layers[0]] {
		if used {
			ar.NbInput++
		}
	}
	ar.MaxMulFanout = MaxMulFanout(rc)
	ar.TotalCost = rc.InputSize() * utils.CostOfInput
	ar.TotalCost += ar.NbTotGates * utils.CostOfVariable
	ar.TotalCost += ar.NbExpandedMul * utils.CostOfMulGate
	ar.TotalCost += ar.NbExpandedAdd * utils.CostOfAddGate
	ar.TotalCost += ar.NbExpandedCst * utils.CostOfCstGate
	return ar
}
