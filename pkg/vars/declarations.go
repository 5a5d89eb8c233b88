package vars

import (
	"github.com/offlinefirst/robodesk/pkg/macro"
)

// Declarations holds the ordered input and output variable names of a
// function under construction.
type Declarations struct {
	inputs  []string
	outputs []string
}

// Declare appends name to the list for dir. Names must be valid and unique
// within their direction.
func (d *Declarations) Declare(dir macro.Direction, name string) error {
	if !macro.ValidVariableName(name) {
		return &macro.VariableError{Direction: dir, Name: name, Err: macro.ErrInvalidVariableName}
	}
	if d.Has(dir, name) {
		return &macro.VariableError{Direction: dir, Name: name, Err: macro.ErrDuplicateVariable}
	}
	switch dir {
	case macro.Input:
		d.inputs = append(d.inputs, name)
	default:
		d.outputs = append(d.outputs, name)
	}
	return nil
}

// Has reports whether name is already declared for dir.
func (d *Declarations) Has(dir macro.Direction, name string) bool {
	for _, existing := range d.list(dir) {
		if existing == name {
			return true
		}
	}
	return false
}

// Inputs returns a copy of the declared input names.
func (d *Declarations) Inputs() []string {
	return append([]string{}, d.inputs...)
}

// Outputs returns a copy of the declared output names.
func (d *Declarations) Outputs() []string {
	return append([]string{}, d.outputs...)
}

// Reset drops every declaration.
func (d *Declarations) Reset() {
	d.inputs = nil
	d.outputs = nil
}

func (d *Declarations) list(dir macro.Direction) []string {
	if dir == macro.Input {
		return d.inputs
	}
	return d.outputs
}
