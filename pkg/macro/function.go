package macro

import (
	"fmt"
	"math"
	"unicode"
	"unicode/utf8"
)

// Function is a replayable event sequence plus its declared variables.
type Function struct {
	Events          []TimedEvent `json:"events"`
	InputVariables  []string     `json:"input_variables"`
	OutputVariables []string     `json:"output_variables"`
}

// ValidVariableName reports whether name uses only letters, digits and
// underscores and does not start with a digit.
func ValidVariableName(name string) bool {
	if name == "" {
		return false
	}
	for i, r := range name {
		if r == '_' || unicode.IsLetter(r) {
			continue
		}
		if unicode.IsDigit(r) && i > 0 {
			continue
		}
		return false
	}
	return true
}

// Origin returns the timestamp of the first event, or 0 for an empty function.
func (f Function) Origin() float64 {
	if len(f.Events) == 0 {
		return 0
	}
	return f.Events[0].Timestamp
}

// Duration returns the recorded span between the first and the last event.
func (f Function) Duration() float64 {
	if len(f.Events) == 0 {
		return 0
	}
	return f.Events[len(f.Events)-1].Timestamp - f.Events[0].Timestamp
}

// Clone returns a deep copy. Events are values so copying the slices is enough.
func (f Function) Clone() Function {
	out := Function{
		Events:          append([]TimedEvent(nil), f.Events...),
		InputVariables:  append([]string(nil), f.InputVariables...),
		OutputVariables: append([]string(nil), f.OutputVariables...),
	}
	return out
}

// validKey rejects keys that would not survive JSON encoding unchanged.
func validKey(i int, key Key) error {
	if key == "" {
		return corrupt("event %d has empty key", i)
	}
	if !utf8.ValidString(string(key)) {
		return corrupt("event %d key is not valid UTF-8", i)
	}
	return nil
}

// Validate checks the structural invariants of a function.
func (f Function) Validate() error {
	inputs, err := variableSet(Input, f.InputVariables)
	if err != nil {
		return err
	}
	outputs, err := variableSet(Output, f.OutputVariables)
	if err != nil {
		return err
	}

	prev := math.Inf(-1)
	for i, te := range f.Events {
		if math.IsNaN(te.Timestamp) || math.IsInf(te.Timestamp, 0) {
			return corrupt("event %d has non-finite timestamp", i)
		}
		if te.Timestamp < prev {
			return corrupt("event %d timestamp %v precedes %v", i, te.Timestamp, prev)
		}
		prev = te.Timestamp

		switch ev := te.Event.(type) {
		case KeyPress:
			if err := validKey(i, ev.Key); err != nil {
				return err
			}
		case KeyRelease:
			if err := validKey(i, ev.Key); err != nil {
				return err
			}
		case MouseMove, MouseScroll:
		case MouseClick:
			if !ev.Button.Valid() {
				return corrupt("event %d has unknown button %q", i, ev.Button)
			}
		case CopyToVariable:
			if _, ok := outputs[ev.Name]; !ok {
				return corrupt("event %d copies into undeclared output %q", i, ev.Name)
			}
		case PasteFromVariable:
			if _, ok := inputs[ev.Name]; !ok {
				return corrupt("event %d pastes undeclared input %q", i, ev.Name)
			}
		case nil:
			return corrupt("event %d is empty", i)
		default:
			return corrupt("event %d has unrecognized kind %q", i, te.Event.Kind())
		}
	}
	return nil
}

func variableSet(dir Direction, names []string) (map[string]struct{}, error) {
	set := make(map[string]struct{}, len(names))
	for _, name := range names {
		if !ValidVariableName(name) {
			return nil, fmt.Errorf("%w: %w", ErrCorruptData, &VariableError{Direction: dir, Name: name, Err: ErrInvalidVariableName})
		}
		if _, dup := set[name]; dup {
			return nil, fmt.Errorf("%w: %w", ErrCorruptData, &VariableError{Direction: dir, Name: name, Err: ErrDuplicateVariable})
		}
		set[name] = struct{}{}
	}
	return set, nil
}
