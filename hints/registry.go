package hints

import (
	"encoding/binary"
	"fmt"
	"math/big"
	"sync"

	"github.com/PolyhedraZK/ExpanderIRCompiler/field"
	"github.com/PolyhedraZK/ExpanderIRCompiler/utils"
	"github.com/consensys/gnark/constraint"
	"github.com/consensys/gnark/constraint/solver"
	"golang.org/x/crypto/sha3"
)

// Caller resolves a hint call during evaluation. Implementations must be safe
// for concurrent use: batched witness solving calls them from many goroutines.
type Caller interface {
	Call(f field.Field, id uint64, inputs []constraint.Element, numOutputs int) ([]constraint.Element, error)
}

// KeyToId maps a hint key to its id: the first 8 bytes (little endian) of the
// keccak256 of the key.
func KeyToId(key string) (uint64, error) {
	h := sha3.NewLegacyKeccak256()
	h.Write([]byte(key))
	id := binary.LittleEndian.Uint64(h.Sum(nil)[:8])
	if inBuiltinRange(id) {
		return 0, fmt.Errorf("hint id %x of key %q collides with the builtin range", id, key)
	}
	return id, nil
}

// Registry is an explicit table of custom hints. Builtin ids always resolve to
// the builtin implementations.
type Registry struct {
	mu    sync.RWMutex
	hints map[uint64]solver.Hint
	names map[uint64]string
}

func NewRegistry() *Registry {
	return &Registry{
		hints: make(map[uint64]solver.Hint),
		names: make(map[uint64]string),
	}
}

// Register adds fn under key and returns its id.
func (r *Registry) Register(key string, fn solver.Hint) (uint64, error) {
	id, err := KeyToId(key)
	if err != nil {
		return 0, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.hints[id]; ok {
		return 0, fmt.Errorf("hint %q (id %x) already registered", key, id)
	}
	r.hints[id] = fn
	r.names[id] = key
	return id, nil
}

// RegisterHint registers fn under its gnark hint name.
func (r *Registry) RegisterHint(fn solver.Hint) (uint64, error) {
	return r.Register(solver.GetHintName(fn), fn)
}

// Lookup returns the key a hint id was registered with.
func (r *Registry) Lookup(id uint64) (string, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	n, ok := r.names[id]
	return n, ok
}

func (r *Registry) Call(f field.Field, id uint64, inputs []constraint.Element, numOutputs int) ([]constraint.Element, error) {
	if IsBuiltin(id) {
		return callBig(f, inputs, numOutputs, func(p *big.Int, in, _ []*big.Int) ([]*big.Int, error) {
			return CallBuiltin(id, p, in, numOutputs)
		})
	}
	r.mu.RLock()
	fn, ok := r.hints[id]
	name := r.names[id]
	r.mu.RUnlock()
	if !ok {
		return nil, utils.NewUserError("hint with id %x not found", id)
	}
	return callBig(f, inputs, numOutputs, func(p *big.Int, in, out []*big.Int) ([]*big.Int, error) {
		if err := fn(p, in, out); err != nil {
			return nil, utils.NewUserError("hint %s failed: %v", name, err)
		}
		return out, nil
	})
}

// StubCaller evaluates hints with Stub.
type StubCaller struct{}

func (StubCaller) Call(f field.Field, id uint64, inputs []constraint.Element, numOutputs int) ([]constraint.Element, error) {
	return callBig(f, inputs, numOutputs, func(p *big.Int, in, _ []*big.Int) ([]*big.Int, error) {
		return Stub(id, p, in, numOutputs)
	})
}

// EmptyCaller knows builtins only.
type EmptyCaller struct{}

func (EmptyCaller) Call(f field.Field, id uint64, inputs []constraint.Element, numOutputs int) ([]constraint.Element, error) {
	if !IsBuiltin(id) {
		return nil, utils.NewUserError("hint with id %x not found", id)
	}
	return callBig(f, inputs, numOutputs, func(p *big.Int, in, _ []*big.Int) ([]*big.Int, error) {
		return CallBuiltin(id, p, in, numOutputs)
	})
}

func callBig(
	f field.Field,
	inputs []constraint.Element,
	numOutputs int,
	fn func(p *big.Int, in, out []*big.Int) ([]*big.Int, error),
) ([]constraint.Element, error) {
	in := make([]*big.Int, len(inputs))
	for i, x := range inputs {
		in[i] = f.ToBigInt(x)
	}
	out := make([]*big.Int, numOutputs)
	for i := range out {
		out[i] = new(big.Int)
	}
	res, err := fn(f.Field(), in, out)
	if err != nil {
		return nil, err
	}
	if len(res) != numOutputs {
		return nil, utils.AsInternal("hint", fmt.Errorf("hint returned %d outputs, expected %d", len(res), numOutputs))
	}
	els := make([]constraint.Element, numOutputs)
	for i, x := range res {
		els[i] = f.FromInterface(x)
	}
	return els, nil
}
