package recorder

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestControllerFirstStopReasonWins(t *testing.T) {
	c := NewController(nil)
	_, stopping := c.Stopping()
	assert.False(t, stopping)

	c.RequestStop(StopInputHotkey)
	c.RequestStop(StopKey)
	reason, stopping := c.Stopping()
	assert.True(t, stopping)
	assert.Equal(t, StopInputHotkey, reason)

	select {
	case <-c.Signal():
	case <-time.After(time.Second):
		t.Fatal("stop request did not signal")
	}

	c.Reset()
	_, stopping = c.Stopping()
	assert.False(t, stopping)
}

func TestControllerTimeline(t *testing.T) {
	now := time.Date(2024, 1, 2, 3, 4, 5, 0, time.FixedZone("x", 3600))
	c := NewController(func() time.Time { return now })
	c.Transition(StateCapturing, "")
	c.Transition(StatePromptingOutput, string(StopOutputHotkey))

	timeline := c.Timeline()
	require.Len(t, timeline, 3)
	assert.Equal(t, StateIdle, timeline[0].State)
	assert.Equal(t, "output_hotkey", timeline[2].Reason)
	assert.Equal(t, time.UTC, timeline[2].Timestamp.Location())
	assert.Equal(t, StatePromptingOutput, c.State())
}
