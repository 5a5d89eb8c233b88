package macro

import (
	"errors"
	"fmt"
)

var (
	// ErrAlreadyExists indicates a function name is already taken in the store.
	ErrAlreadyExists = errors.New("function already exists")
	// ErrNotFound indicates the requested function is not in the store.
	ErrNotFound = errors.New("function not found")
	// ErrCorruptData indicates stored bytes or an event do not match the schema.
	ErrCorruptData = errors.New("corrupt function data")
	// ErrMissingInput indicates a declared input variable was not supplied.
	ErrMissingInput = errors.New("missing input variable")
	// ErrDuplicateVariable indicates a variable name was declared twice in one direction.
	ErrDuplicateVariable = errors.New("duplicate variable")
	// ErrInvalidVariableName indicates a name outside the variable naming rule.
	ErrInvalidVariableName = errors.New("invalid variable name")
	// ErrLag marks playback or recording falling behind real time.
	ErrLag = errors.New("lagging behind real time")
)

// FunctionError attaches the operation and function name to a store or
// recorder failure.
type FunctionError struct {
	Op   string
	Name string
	Err  error
}

func (e *FunctionError) Error() string {
	return fmt.Sprintf("%s %q: %v", e.Op, e.Name, e.Err)
}

func (e *FunctionError) Unwrap() error {
	return e.Err
}

// Direction tells input variables from output variables.
type Direction string

const (
	Input  Direction = "input"
	Output Direction = "output"
)

// VariableError reports a problem with a single variable.
type VariableError struct {
	Direction Direction
	Name      string
	Err       error
}

func (e *VariableError) Error() string {
	return fmt.Sprintf("%s variable %q: %v", e.Direction, e.Name, e.Err)
}

func (e *VariableError) Unwrap() error {
	return e.Err
}

func corrupt(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrCorruptData, fmt.Sprintf(format, args...))
}
