package macro

import (
	"strings"
	"unicode/utf8"
)

// Kind discriminates the recorded event variants.
type Kind string

const (
	KindKeyPress          Kind = "key_press"
	KindKeyRelease        Kind = "key_release"
	KindMouseMove         Kind = "mouse_move"
	KindMouseClick        Kind = "mouse_click"
	KindMouseScroll       Kind = "mouse_scroll"
	KindCopyToVariable    Kind = "copy_to_variable"
	KindPasteFromVariable Kind = "paste_from_variable"
)

// Key is an opaque symbolic key identifier: either a single printable
// character or a named key such as "esc" or "enter".
type Key string

// Named keys shared by the recorder, the prompt and the native backends.
const (
	KeyEsc       Key = "esc"
	KeyEnter     Key = "enter"
	KeyBackspace Key = "backspace"
	KeyTab       Key = "tab"
	KeySpace     Key = "space"
	KeyShift     Key = "shift"
	KeyCtrl      Key = "ctrl"
	KeyAlt       Key = "alt"
	KeyCmd       Key = "cmd"
	KeyDelete    Key = "delete"
	KeyUp        Key = "up"
	KeyDown      Key = "down"
	KeyLeft      Key = "left"
	KeyRight     Key = "right"
)

var keyAliases = map[string]Key{
	"escape":    KeyEsc,
	"return":    KeyEnter,
	"bs":        KeyBackspace,
	"control":   KeyCtrl,
	"ctrl_l":    KeyCtrl,
	"ctrl_r":    KeyCtrl,
	"shift_l":   KeyShift,
	"shift_r":   KeyShift,
	"alt_l":     KeyAlt,
	"alt_r":     KeyAlt,
	"option":    KeyAlt,
	"super":     KeyCmd,
	"win":       KeyCmd,
	"meta":      KeyCmd,
	"del":       KeyDelete,
	" ":         KeySpace,
	"spacebar":  KeySpace,
	"arrowup":   KeyUp,
	"arrowdown": KeyDown,
}

// Canonical folds case and aliases so that chord matching does not depend on
// the shift state or on which backend produced the key.
func (k Key) Canonical() Key {
	s := string(k)
	if utf8.RuneCountInString(s) == 1 {
		if s == " " {
			return KeySpace
		}
		return Key(strings.ToLower(s))
	}
	lower := strings.ToLower(strings.TrimSpace(s))
	if alias, ok := keyAliases[lower]; ok {
		return alias
	}
	return Key(lower)
}

// Char returns the character for single-rune keys.
func (k Key) Char() (rune, bool) {
	if utf8.RuneCountInString(string(k)) != 1 {
		return 0, false
	}
	r, _ := utf8.DecodeRuneInString(string(k))
	return r, true
}

// Button identifies a mouse button.
type Button string

const (
	ButtonLeft   Button = "left"
	ButtonRight  Button = "right"
	ButtonMiddle Button = "middle"
)

// Valid reports whether b is one of the supported buttons.
func (b Button) Valid() bool {
	switch b {
	case ButtonLeft, ButtonRight, ButtonMiddle:
		return true
	default:
		return false
	}
}

// Event is one recorded action. The set of implementations is closed.
type Event interface {
	Kind() Kind
	isEvent()
}

// KeyPress records a key going down.
type KeyPress struct {
	Key Key `json:"key"`
}

// KeyRelease records a key going up.
type KeyRelease struct {
	Key Key `json:"key"`
}

// MouseMove records the pointer position.
type MouseMove struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// MouseClick records a button press or release at a position.
type MouseClick struct {
	X       float64 `json:"x"`
	Y       float64 `json:"y"`
	Button  Button  `json:"button"`
	Pressed bool    `json:"pressed"`
}

// MouseScroll records a scroll delta at a position.
type MouseScroll struct {
	X  float64 `json:"x"`
	Y  float64 `json:"y"`
	DX float64 `json:"dx"`
	DY float64 `json:"dy"`
}

// CopyToVariable marks the point where the clipboard is captured into an
// output variable.
type CopyToVariable struct {
	Name string `json:"name"`
}

// PasteFromVariable marks the point where an input variable is delivered.
type PasteFromVariable struct {
	Name string `json:"name"`
}

func (KeyPress) Kind() Kind          { return KindKeyPress }
func (KeyRelease) Kind() Kind        { return KindKeyRelease }
func (MouseMove) Kind() Kind         { return KindMouseMove }
func (MouseClick) Kind() Kind        { return KindMouseClick }
func (MouseScroll) Kind() Kind       { return KindMouseScroll }
func (CopyToVariable) Kind() Kind    { return KindCopyToVariable }
func (PasteFromVariable) Kind() Kind { return KindPasteFromVariable }

func (KeyPress) isEvent()          {}
func (KeyRelease) isEvent()        {}
func (MouseMove) isEvent()         {}
func (MouseClick) isEvent()        {}
func (MouseScroll) isEvent()       {}
func (CopyToVariable) isEvent()    {}
func (PasteFromVariable) isEvent() {}

// TimedEvent pairs an event with its capture timestamp in seconds.
type TimedEvent struct {
	Event     Event
	Timestamp float64
}

// At is a convenience constructor.
func At(timestamp float64, event Event) TimedEvent {
	return TimedEvent{Event: event, Timestamp: timestamp}
}
