package vars

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/offlinefirst/robodesk/pkg/macro"
)

// ErrMalformedInputs indicates an --inputs list that cannot be parsed.
var ErrMalformedInputs = errors.New("malformed inputs")

// ParseInputs parses a comma separated list of name=value pairs. Values may
// contain '=' but not ','. An empty string yields an empty map.
func ParseInputs(raw string) (map[string]string, error) {
	out := make(map[string]string)
	if strings.TrimSpace(raw) == "" {
		return out, nil
	}

	for _, pair := range strings.Split(raw, ",") {
		name, value, ok := strings.Cut(pair, "=")
		if !ok {
			return nil, fmt.Errorf("%w: %q is not name=value", ErrMalformedInputs, pair)
		}
		name = strings.TrimSpace(name)
		if !macro.ValidVariableName(name) {
			return nil, fmt.Errorf("%w: invalid variable name %q", ErrMalformedInputs, name)
		}
		if _, dup := out[name]; dup {
			return nil, fmt.Errorf("%w: %q given more than once", ErrMalformedInputs, name)
		}
		out[name] = value
	}
	return out, nil
}

// CheckInputs verifies that every input declared by fn has a non-empty value.
// It returns the supplied names fn does not declare, sorted.
func CheckInputs(fn macro.Function, inputs map[string]string) ([]string, error) {
	for _, name := range fn.InputVariables {
		value, ok := inputs[name]
		if !ok || value == "" {
			return nil, &macro.VariableError{Direction: macro.Input, Name: name, Err: macro.ErrMissingInput}
		}
	}

	declared := make(map[string]struct{}, len(fn.InputVariables))
	for _, name := range fn.InputVariables {
		declared[name] = struct{}{}
	}
	var unused []string
	for name := range inputs {
		if _, ok := declared[name]; !ok {
			unused = append(unused, name)
		}
	}
	sort.Strings(unused)
	return unused, nil
}
