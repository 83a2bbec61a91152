// Package hints holds the builtin hint set, hint arity validation and the
// registry that resolves custom hint ids to implementations.
package hints

import "fmt"

// Builtin hint ids. They occupy [Identity, Identity+100].
const (
	Identity uint64 = 0xccc000000000 + iota
	Div
	Eq
	NotEq
	BoolOr
	BoolAnd
	BitOr
	BitAnd
	BitXor
	Select
	Pow
	IntDiv
	Mod
	ShiftL
	ShiftR
	LesserEq
	GreaterEq
	Lesser
	Greater
	ToBinary
)

const builtinRangeEnd = Identity + 100

var builtinNames = map[uint64]string{
	Identity:  "identity",
	Div:       "div",
	Eq:        "eq",
	NotEq:     "neq",
	BoolOr:    "bool_or",
	BoolAnd:   "bool_and",
	BitOr:     "bit_or",
	BitAnd:    "bit_and",
	BitXor:    "bit_xor",
	Select:    "select",
	Pow:       "pow",
	IntDiv:    "int_div",
	Mod:       "mod",
	ShiftL:    "shl",
	ShiftR:    "shr",
	LesserEq:  "le",
	GreaterEq: "ge",
	Lesser:    "lt",
	Greater:   "gt",
	ToBinary:  "to_binary",
}

// IsBuiltin reports whether id names one of the builtin hints.
func IsBuiltin(id uint64) bool {
	_, ok := builtinNames[id]
	return ok
}

// inBuiltinRange reports whether id falls into the range reserved for builtins,
// assigned or not.
func inBuiltinRange(id uint64) bool {
	return id >= Identity && id <= builtinRangeEnd
}

// Name returns a printable name for a hint id.
func Name(id uint64) string {
	if n, ok := builtinNames[id]; ok {
		return n
	}
	return fmt.Sprintf("hint_%x", id)
}

// Validate checks the arity of a hint call.
func Validate(id uint64, numInputs, numOutputs int) error {
	if !IsBuiltin(id) {
		if numOutputs == 0 {
			return fmt.Errorf("custom hint requires at least 1 output")
		}
		if numInputs == 0 {
			return fmt.Errorf("custom hint requires at least 1 input")
		}
		return nil
	}
	switch id {
	case Identity:
		if numInputs != numOutputs {
			return fmt.Errorf("identity hint requires exactly the same number of inputs and outputs")
		}
		if numInputs == 0 {
			return fmt.Errorf("identity hint requires at least 1 input")
		}
	case Select:
		if numInputs != 3 || numOutputs != 1 {
			return fmt.Errorf("select requires exactly 3 inputs and 1 output")
		}
	case ToBinary:
		if numInputs != 1 {
			return fmt.Errorf("to_binary requires exactly 1 input")
		}
		if numOutputs == 0 {
			return fmt.Errorf("to_binary requires at least 1 output")
		}
	default:
		if numInputs != 2 || numOutputs != 1 {
			return fmt.Errorf("%s requires exactly 2 inputs and 1 output", Name(id))
		}
	}
	return nil
}
