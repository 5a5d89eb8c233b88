package recorder

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/offlinefirst/robodesk/pkg/macro"
)

func TestParseChord(t *testing.T) {
	chord, err := ParseChord("<ESC>+I")
	require.NoError(t, err)
	assert.Equal(t, "<ESC>+I", chord.String())
	assert.Len(t, chord.keys, 2)
	assert.Contains(t, chord.keys, macro.KeyEsc)
	assert.Contains(t, chord.keys, macro.Key("i"))

	chord, err = ParseChord("<ctrl>++")
	require.NoError(t, err)
	assert.Contains(t, chord.keys, macro.Key("+"))

	for _, bad := range []string{"", "esc+i", "<esc>+<esc>", "a+"} {
		_, err := ParseChord(bad)
		assert.Error(t, err, "hotkey %q", bad)
	}
}

func TestChordFiresWhenAllKeysHeld(t *testing.T) {
	chord, err := ParseChord("<esc>+i")
	require.NoError(t, err)

	assert.False(t, chord.Press("i"))
	assert.False(t, chord.Press("x"))
	assert.True(t, chord.Press("Escape"))
	assert.False(t, chord.Press("esc"), "already held keys do not refire")

	chord.Release("i")
	assert.True(t, chord.Press("I"))

	chord.Reset()
	assert.False(t, chord.Press("i"))
}

func TestChordHeldListsPressedKeys(t *testing.T) {
	chord, err := ParseChord("<esc>+i")
	require.NoError(t, err)
	assert.Empty(t, chord.Held())

	chord.Press("i")
	chord.Press("x")
	chord.Press("Escape")
	assert.Equal(t, []macro.Key{"esc", "i"}, chord.Held())

	chord.Release("i")
	assert.Equal(t, []macro.Key{"esc"}, chord.Held())
}
