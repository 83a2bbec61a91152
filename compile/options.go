package compile

import (
	"github.com/PolyhedraZK/ExpanderIRCompiler/field"
	"github.com/PolyhedraZK/ExpanderIRCompiler/ir/common"
)

// DefaultMulFanoutLimit bounds how many multiplication gates may read one
// wire of a segment.
const DefaultMulFanoutLimit = 256

// Options configure Compile.
type Options struct {
	MulFanoutLimit        int
	AllowInputReorder     bool
	MaxOptimizationRounds int
	// Field, when set, must match the field of the compiled circuit.
	Field field.Field
}

// Option is a functional option of Compile.
type Option func(opt *Options) error

func defaultOptions() Options {
	return Options{
		MulFanoutLimit:        DefaultMulFanoutLimit,
		MaxOptimizationRounds: common.DefaultMaxRounds,
	}
}

// WithMulFanoutLimit sets the maximum number of multiplication gates reading
// a wire. It must be at least 2.
func WithMulFanoutLimit(k int) Option {
	return func(opt *Options) error {
		opt.MulFanoutLimit = k
		return nil
	}
}

// WithInputReorder lets the layering drop unused root inputs from the first
// layer.
func WithInputReorder() Option {
	return func(opt *Options) error {
		opt.AllowInputReorder = true
		return nil
	}
}

func WithMaxOptimizationRounds(n int) Option {
	return func(opt *Options) error {
		opt.MaxOptimizationRounds = n
		return nil
	}
}

// WithField pins the field; Compile rejects circuits over another field.
func WithField(fd field.Field) Option {
	return func(opt *Options) error {
		opt.Field = fd
		return nil
	}
}
