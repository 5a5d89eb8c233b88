package vars

import (
	"errors"
	"testing"

	"github.com/offlinefirst/robodesk/pkg/macro"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDeclarationsRejectDuplicatesPerDirection(t *testing.T) {
	var d Declarations
	require.NoError(t, d.Declare(macro.Input, "name"))
	require.NoError(t, d.Declare(macro.Output, "name"))

	err := d.Declare(macro.Input, "name")
	require.ErrorIs(t, err, macro.ErrDuplicateVariable)
	var verr *macro.VariableError
	require.True(t, errors.As(err, &verr))
	assert.Equal(t, macro.Input, verr.Direction)

	assert.ErrorIs(t, d.Declare(macro.Output, "2x"), macro.ErrInvalidVariableName)
	assert.Equal(t, []string{"name"}, d.Inputs())
	assert.Equal(t, []string{"name"}, d.Outputs())

	d.Reset()
	assert.Empty(t, d.Inputs())
	assert.False(t, d.Has(macro.Output, "name"))
}

func TestParseInputs(t *testing.T) {
	got, err := ParseInputs("greeting=HELLO, who=a=b")
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"greeting": "HELLO", "who": "a=b"}, got)

	got, err = ParseInputs("")
	require.NoError(t, err)
	assert.Empty(t, got)

	got, err = ParseInputs("blank=")
	require.NoError(t, err)
	assert.Equal(t, "", got["blank"])
}

func TestParseInputsMalformed(t *testing.T) {
	for _, raw := range []string{"novalue", "=x", "1a=b", "a=1,a=2", "a=1,"} {
		_, err := ParseInputs(raw)
		assert.ErrorIs(t, err, ErrMalformedInputs, "input %q", raw)
	}
}

func TestCheckInputs(t *testing.T) {
	fn := macro.Function{InputVariables: []string{"greeting"}}

	unused, err := CheckInputs(fn, map[string]string{"greeting": "HELLO", "z": "1", "extra": "2"})
	require.NoError(t, err)
	assert.Equal(t, []string{"extra", "z"}, unused)

	_, err = CheckInputs(fn, map[string]string{})
	assert.ErrorIs(t, err, macro.ErrMissingInput)

	_, err = CheckInputs(fn, map[string]string{"greeting": ""})
	assert.ErrorIs(t, err, macro.ErrMissingInput)
}

func TestRedactor(t *testing.T) {
	r, err := NewRedactor(true, []string{"jwt", `secret-\d+`})
	require.NoError(t, err)

	assert.Equal(t, "mail [REDACTED] now", r.String("mail bob@example.com now"))
	assert.Equal(t, "token [REDACTED]", r.String("token secret-42"))
	assert.Equal(t, map[string]string{"a": "[REDACTED]"}, r.Map(map[string]string{"a": "eyJhbGci.eyJzdWIi.sig"}))
	assert.Nil(t, r.Map(nil))

	var zero Redactor
	assert.Equal(t, "bob@example.com", zero.String("bob@example.com"))

	_, err = NewRedactor(false, []string{"("})
	assert.Error(t, err)
}
