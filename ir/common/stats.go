package common

// Stats summarizes a root. The Expanded counts are those of the root with
// every call replaced by the callee body.
type Stats struct {
	NumCircuits          int
	NumInstructions      int
	NumConstraints       int
	NumCalls             int
	NumInputs            int
	NumOutputs           int
	InstructionsByType   map[InstructionType]int
	ExpandedInstructions int
	ExpandedConstraints  int
	ExpandedHintOutputs  int
}

func (r *RootCircuit[S]) Stats() *Stats {
	st := &Stats{
		NumCircuits:        len(r.Circuits),
		NumInputs:          r.InputSize(),
		NumOutputs:         len(r.Circuits[0].Outputs),
		InstructionsByType: make(map[InstructionType]int),
	}
	type expanded struct{ insns, cons, hints int }
	exp := make(map[uint64]expanded, len(r.Circuits))
	for _, id := range r.CalleesFirst() {
		c := r.Circuits[id]
		st.NumInstructions += len(c.Instructions)
		st.NumConstraints += len(c.Constraints)
		e := expanded{cons: len(c.Constraints)}
		for i := range c.Instructions {
			insn := &c.Instructions[i]
			st.InstructionsByType[insn.Type]++
			if insn.Type == ISubCircuitCall {
				st.NumCalls++
				sub := exp[insn.SubCircuitId]
				e.insns += sub.insns
				e.cons += sub.cons
				e.hints += sub.hints
				continue
			}
			e.insns++
			if insn.Type == IHint {
				e.hints += insn.NumOutputs
			}
		}
		exp[id] = e
	}
	st.ExpandedInstructions = exp[0].insns
	st.ExpandedConstraints = exp[0].cons
	st.ExpandedHintOutputs = exp[0].hints
	return st
}
