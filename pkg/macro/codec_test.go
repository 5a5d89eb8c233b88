package macro

import (
	"encoding/json"
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleFunction() Function {
	return Function{
		Events: []TimedEvent{
			At(0, KeyPress{Key: "h"}),
			At(0.1, KeyRelease{Key: "h"}),
			At(0.30000000000000004, MouseMove{X: 10.5, Y: 20.25}),
			At(0.4, MouseClick{X: 11, Y: 21, Button: ButtonLeft, Pressed: true}),
			At(0.45, MouseClick{X: 11, Y: 21, Button: ButtonLeft, Pressed: false}),
			At(0.5, MouseScroll{X: 11, Y: 21, DX: 0, DY: -1}),
			At(0.5+1.0/3.0, PasteFromVariable{Name: "greeting"}),
			At(2, CopyToVariable{Name: "result"}),
		},
		InputVariables:  []string{"greeting"},
		OutputVariables: []string{"result"},
	}
}

func TestFunctionJSONRoundTrip(t *testing.T) {
	fn := sampleFunction()
	data, err := json.Marshal(fn)
	require.NoError(t, err)

	var decoded Function
	require.NoError(t, json.Unmarshal(data, &decoded))
	require.Equal(t, fn, decoded)

	for i := range fn.Events {
		assert.Equal(t, math.Float64bits(fn.Events[i].Timestamp), math.Float64bits(decoded.Events[i].Timestamp))
	}
}

func TestTimedEventEncodesKindDiscriminator(t *testing.T) {
	data, err := json.Marshal(At(1.5, MouseClick{X: 1, Y: 2, Button: ButtonRight, Pressed: false}))
	require.NoError(t, err)

	var raw map[string]any
	require.NoError(t, json.Unmarshal(data, &raw))
	assert.Equal(t, "mouse_click", raw["kind"])
	assert.Equal(t, 1.5, raw["timestamp"])
	assert.Equal(t, "right", raw["button"])
	assert.Equal(t, false, raw["pressed"])
	assert.NotContains(t, raw, "name")
}

func TestTimedEventZeroCoordinatesSurvive(t *testing.T) {
	data, err := json.Marshal(At(0, MouseMove{}))
	require.NoError(t, err)

	var te TimedEvent
	require.NoError(t, json.Unmarshal(data, &te))
	assert.Equal(t, MouseMove{}, te.Event)
}

func TestUnmarshalUnknownKind(t *testing.T) {
	var te TimedEvent
	err := json.Unmarshal([]byte(`{"kind":"teleport","timestamp":1}`), &te)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrCorruptData))
}

func TestUnmarshalMissingFields(t *testing.T) {
	var te TimedEvent
	err := json.Unmarshal([]byte(`{"kind":"mouse_click","timestamp":1,"x":1,"y":2}`), &te)
	assert.ErrorIs(t, err, ErrCorruptData)
}

func TestMarshalNilEvent(t *testing.T) {
	_, err := json.Marshal(TimedEvent{Timestamp: 1})
	assert.Error(t, err)
}
