package macro

import (
	"encoding/json"
	"fmt"
)

// wireEvent is the flattened JSON form of a TimedEvent. Only the fields of
// the event's kind are populated.
type wireEvent struct {
	Kind      Kind     `json:"kind"`
	Timestamp float64  `json:"timestamp"`
	Key       Key      `json:"key,omitempty"`
	X         *float64 `json:"x,omitempty"`
	Y         *float64 `json:"y,omitempty"`
	Button    Button   `json:"button,omitempty"`
	Pressed   *bool    `json:"pressed,omitempty"`
	DX        *float64 `json:"dx,omitempty"`
	DY        *float64 `json:"dy,omitempty"`
	Name      string   `json:"name,omitempty"`
}

// MarshalJSON encodes the event with a kind discriminator.
func (te TimedEvent) MarshalJSON() ([]byte, error) {
	w := wireEvent{Timestamp: te.Timestamp}
	switch ev := te.Event.(type) {
	case KeyPress:
		w.Kind, w.Key = KindKeyPress, ev.Key
	case KeyRelease:
		w.Kind, w.Key = KindKeyRelease, ev.Key
	case MouseMove:
		w.Kind, w.X, w.Y = KindMouseMove, &ev.X, &ev.Y
	case MouseClick:
		w.Kind, w.X, w.Y = KindMouseClick, &ev.X, &ev.Y
		w.Button, w.Pressed = ev.Button, &ev.Pressed
	case MouseScroll:
		w.Kind, w.X, w.Y = KindMouseScroll, &ev.X, &ev.Y
		w.DX, w.DY = &ev.DX, &ev.DY
	case CopyToVariable:
		w.Kind, w.Name = KindCopyToVariable, ev.Name
	case PasteFromVariable:
		w.Kind, w.Name = KindPasteFromVariable, ev.Name
	default:
		return nil, fmt.Errorf("marshal event: %w", corrupt("unrecognized event %T", te.Event))
	}
	return json.Marshal(w)
}

// UnmarshalJSON decodes an event by its kind discriminator.
func (te *TimedEvent) UnmarshalJSON(data []byte) error {
	var w wireEvent
	if err := json.Unmarshal(data, &w); err != nil {
		return fmt.Errorf("%w: %v", ErrCorruptData, err)
	}

	var ev Event
	switch w.Kind {
	case KindKeyPress:
		ev = KeyPress{Key: w.Key}
	case KindKeyRelease:
		ev = KeyRelease{Key: w.Key}
	case KindMouseMove:
		if w.X == nil || w.Y == nil {
			return corrupt("%s missing coordinates", w.Kind)
		}
		ev = MouseMove{X: *w.X, Y: *w.Y}
	case KindMouseClick:
		if w.X == nil || w.Y == nil || w.Pressed == nil {
			return corrupt("%s missing fields", w.Kind)
		}
		ev = MouseClick{X: *w.X, Y: *w.Y, Button: w.Button, Pressed: *w.Pressed}
	case KindMouseScroll:
		if w.X == nil || w.Y == nil || w.DX == nil || w.DY == nil {
			return corrupt("%s missing fields", w.Kind)
		}
		ev = MouseScroll{X: *w.X, Y: *w.Y, DX: *w.DX, DY: *w.DY}
	case KindCopyToVariable:
		ev = CopyToVariable{Name: w.Name}
	case KindPasteFromVariable:
		ev = PasteFromVariable{Name: w.Name}
	default:
		return corrupt("unrecognized event kind %q", w.Kind)
	}

	te.Event = ev
	te.Timestamp = w.Timestamp
	return nil
}
