package utils

import (
	"errors"
	"fmt"

	pkgerrors "github.com/pkg/errors"
)

// UserError reports a problem in the circuit supplied by the caller:
// a malformed IR, a bad witness, or an unknown hint.
type UserError struct {
	Msg string
}

func (e *UserError) Error() string {
	return e.Msg
}

// InternalError reports a violated invariant at an internal stage boundary.
// It always indicates a compiler defect. Cause carries a stack trace.
type InternalError struct {
	Stage string
	Cause error
}

func (e *InternalError) Error() string {
	return fmt.Sprintf("internal error after %s: %v", e.Stage, e.Cause)
}

func (e *InternalError) Unwrap() error {
	return e.Cause
}

func NewUserError(format string, args ...interface{}) error {
	return &UserError{Msg: fmt.Sprintf(format, args...)}
}

// AsInternal reclassifies err as a compiler defect detected after stage.
func AsInternal(stage string, err error) error {
	if err == nil {
		return nil
	}
	return &InternalError{Stage: stage, Cause: pkgerrors.WithStack(err)}
}

// IsUserError reports whether err is a UserError that was not reclassified
// as internal.
func IsUserError(err error) bool {
	if IsInternalError(err) {
		return false
	}
	var ue *UserError
	return errors.As(err, &ue)
}

func IsInternalError(err error) bool {
	var ie *InternalError
	return errors.As(err, &ie)
}
