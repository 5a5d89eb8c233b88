//go:build darwin

package input

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/offlinefirst/robodesk/pkg/macro"
)

func TestKeycodeTablesRoundTrip(t *testing.T) {
	for code := range namedKeycode {
		_, ok := keycodeFromKey(keyFromKeycode(code))
		assert.True(t, ok, "keycode %#x", code)
	}
	for code := range charKeycode {
		back, ok := keycodeFromKey(keyFromKeycode(code))
		assert.True(t, ok)
		assert.Equal(t, code, back)
	}
}

func TestKeycodeNames(t *testing.T) {
	assert.Equal(t, macro.KeyEsc, keyFromKeycode(0x35))
	assert.Equal(t, macro.Key("i"), keyFromKeycode(0x22))
	assert.Equal(t, macro.KeyShift, keyFromKeycode(0x3C).Canonical())
	assert.Equal(t, macro.Key("mac_0a"), keyFromKeycode(0x0A))

	code, ok := keycodeFromKey("I")
	assert.True(t, ok)
	assert.Equal(t, uint16(0x22), code)

	code, ok = keycodeFromKey("mac_0a")
	assert.True(t, ok)
	assert.Equal(t, uint16(0x0A), code)

	_, ok = keycodeFromKey("é")
	assert.False(t, ok)
}
