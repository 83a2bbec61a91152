package common

import (
	"bytes"
	"fmt"

	"github.com/PolyhedraZK/ExpanderIRCompiler/inputmapping"
	"github.com/consensys/gnark/logger"
)

// DefaultMaxRounds bounds the fixed-point loop of Optimize.
const DefaultMaxRounds = 64

// SizeMetric is the quantity every optimization round must shrink: per
// circuit one, plus its instructions, constraints, call arguments, inputs
// and, outside the root, outputs.
func (r *RootCircuit[S]) SizeMetric() int {
	n := 0
	for id, c := range r.Circuits {
		n += 1 + len(c.Instructions) + len(c.Constraints) + c.NumInputs
		if id != 0 {
			n += len(c.Outputs)
		}
		for i := range c.Instructions {
			if c.Instructions[i].Type == ISubCircuitCall {
				n += len(c.Instructions[i].Inputs)
			}
		}
	}
	return n
}

// Optimize repeats chain fusion (when chains is set), call deduplication and
// RemoveUnreachable until the root stops changing or maxRounds is reached.
// It returns the composed mapping of the root inputs. A round that changes
// the root without shrinking SizeMetric is an error.
func (r *RootCircuit[S]) Optimize(chains bool, maxRounds int) (*RootCircuit[S], *inputmapping.InputMapping, error) {
	var s S
	log := logger.Logger()
	cur := r
	curBytes := cur.Serialize()
	curMetric := cur.SizeMetric()
	mapping := inputmapping.NewIdentity(r.InputSize())
	for round := 0; round < maxRounds; round++ {
		next := cur
		if chains {
			next = next.DetectChains()
		}
		next = next.ReassignDuplicateSubCircuitOutputs()
		next, m := next.RemoveUnreachable()
		nextBytes := next.Serialize()
		if bytes.Equal(nextBytes, curBytes) {
			log.Debug().Str("stage", s.Name()).Int("rounds", round).Int("size", curMetric).Msg("optimization reached a fixed point")
			return cur, mapping, nil
		}
		nextMetric := next.SizeMetric()
		if nextMetric >= curMetric {
			return nil, nil, fmt.Errorf("%s: optimization round %d did not shrink the circuit (%d -> %d)", s.Name(), round, curMetric, nextMetric)
		}
		var err error
		if mapping, err = mapping.Compose(m); err != nil {
			return nil, nil, err
		}
		cur, curBytes, curMetric = next, nextBytes, nextMetric
	}
	log.Debug().Str("stage", s.Name()).Int("rounds", maxRounds).Int("size", curMetric).Msg("optimization stopped at the round limit")
	return cur, mapping, nil
}
