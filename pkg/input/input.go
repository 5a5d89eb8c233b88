// Package input abstracts the operating-system collaborators used while
// recording and replaying: a global input hook, a synthetic input injector
// and the clipboard. Native implementations live behind build tags; the
// scripted, dry-run and in-memory implementations serve tests and dry runs.
package input

import (
	"context"
	"errors"
	"time"

	"github.com/offlinefirst/robodesk/pkg/macro"
)

// ErrUnsupported indicates the native backend is not available on this platform.
var ErrUnsupported = errors.New("native input backend unsupported on this platform")

// RawEvent is an event as delivered by a Hook. Only the fields relevant to
// Kind are set. Time is the capture time when the hook provides one.
type RawEvent struct {
	Kind    macro.Kind
	Key     macro.Key
	X, Y    float64
	Button  macro.Button
	Pressed bool
	DX, DY  float64
	Time    time.Time
}

// KeyDown builds a key press raw event.
func KeyDown(key macro.Key, at time.Time) RawEvent {
	return RawEvent{Kind: macro.KindKeyPress, Key: key, Time: at}
}

// KeyUp builds a key release raw event.
func KeyUp(key macro.Key, at time.Time) RawEvent {
	return RawEvent{Kind: macro.KindKeyRelease, Key: key, Time: at}
}

// Move builds a pointer move raw event.
func Move(x, y float64, at time.Time) RawEvent {
	return RawEvent{Kind: macro.KindMouseMove, X: x, Y: y, Time: at}
}

// Event converts the raw event into its recorded form.
func (r RawEvent) Event() (macro.Event, bool) {
	switch r.Kind {
	case macro.KindKeyPress:
		return macro.KeyPress{Key: r.Key}, true
	case macro.KindKeyRelease:
		return macro.KeyRelease{Key: r.Key}, true
	case macro.KindMouseMove:
		return macro.MouseMove{X: r.X, Y: r.Y}, true
	case macro.KindMouseClick:
		return macro.MouseClick{X: r.X, Y: r.Y, Button: r.Button, Pressed: r.Pressed}, true
	case macro.KindMouseScroll:
		return macro.MouseScroll{X: r.X, Y: r.Y, DX: r.DX, DY: r.DY}, true
	default:
		return nil, false
	}
}

// Hook subscribes to global keyboard and mouse events.
type Hook interface {
	Listen(ctx context.Context) (Listener, error)
}

// Listener is one active hook subscription. Stop unsubscribes and returns
// once no further events will be delivered; the Events channel is closed
// after Stop.
type Listener interface {
	Events() <-chan RawEvent
	Stop() error
}

// Injector synthesizes keyboard and mouse input.
type Injector interface {
	KeyDown(key macro.Key) error
	KeyUp(key macro.Key) error
	Type(text string) error
	MoveTo(x, y float64) error
	Button(button macro.Button, pressed bool) error
	Scroll(dx, dy float64) error
}

// Clipboard reads and writes plain text.
type Clipboard interface {
	ReadText() (string, error)
	WriteText(text string) error
}
