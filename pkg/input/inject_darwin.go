//go:build darwin && cgo

package input

/*
#cgo darwin LDFLAGS: -framework CoreGraphics -framework ApplicationServices
#include <ApplicationServices/ApplicationServices.h>
#include <stdint.h>

static int postKey(CGKeyCode code, int down, uint64_t flags) {
        CGEventRef event = CGEventCreateKeyboardEvent(NULL, code, down != 0);
        if (event == NULL) {
                return 0;
        }
        CGEventSetFlags(event, (CGEventFlags)flags);
        CGEventPost(kCGHIDEventTap, event);
        CFRelease(event);
        return 1;
}

static int postUnicode(const UniChar *chars, int count) {
        for (int down = 1; down >= 0; down--) {
                CGEventRef event = CGEventCreateKeyboardEvent(NULL, 0, down != 0);
                if (event == NULL) {
                        return 0;
                }
                CGEventKeyboardSetUnicodeString(event, count, chars);
                CGEventPost(kCGHIDEventTap, event);
                CFRelease(event);
        }
        return 1;
}

static int postMouse(CGEventType type, double x, double y, CGMouseButton button) {
        CGEventRef event = CGEventCreateMouseEvent(NULL, type, CGPointMake(x, y), button);
        if (event == NULL) {
                return 0;
        }
        CGEventPost(kCGHIDEventTap, event);
        CFRelease(event);
        return 1;
}

static int postMouseHere(CGEventType type, CGMouseButton button) {
        CGEventRef current = CGEventCreate(NULL);
        if (current == NULL) {
                return 0;
        }
        CGPoint at = CGEventGetLocation(current);
        CFRelease(current);
        return postMouse(type, at.x, at.y, button);
}

static int postScroll(int32_t vertical, int32_t horizontal) {
        CGEventRef event = CGEventCreateScrollWheelEvent(NULL, kCGScrollEventUnitLine, 2, vertical, horizontal);
        if (event == NULL) {
                return 0;
        }
        CGEventPost(kCGHIDEventTap, event);
        CFRelease(event);
        return 1;
}
*/
import "C"

import (
	"fmt"
	"math"
	"sync"
	"unicode/utf16"
	"unsafe"

	"github.com/offlinefirst/robodesk/pkg/macro"
)

// macInjector posts synthetic events at the HID level. Modifier state is
// tracked so that keys posted while a modifier is held carry its flag.
type macInjector struct {
	mu      sync.Mutex
	flags   uint64
	buttons map[macro.Button]bool
}

func newMacInjector() *macInjector {
	return &macInjector{buttons: make(map[macro.Button]bool)}
}

func (m *macInjector) key(key macro.Key, down bool) error {
	code, ok := keycodeFromKey(key)
	if !ok {
		// No physical key on the layout; type the character once on press.
		if down {
			return m.Type(string(key))
		}
		return nil
	}
	m.mu.Lock()
	if mask, isModifier := modifierFlags[code]; isModifier && code != capsLockKeycode {
		if down {
			m.flags |= mask
		} else {
			m.flags &^= mask
		}
	}
	flags := m.flags
	m.mu.Unlock()

	pressed := C.int(0)
	if down {
		pressed = 1
	}
	if C.postKey(C.CGKeyCode(code), pressed, C.uint64_t(flags)) == 0 {
		return fmt.Errorf("post key %q", key)
	}
	return nil
}

func (m *macInjector) KeyDown(key macro.Key) error {
	return m.key(key, true)
}

func (m *macInjector) KeyUp(key macro.Key) error {
	return m.key(key, false)
}

// Type posts each character as a unicode keystroke independent of the
// keyboard layout.
func (m *macInjector) Type(text string) error {
	for _, r := range text {
		units := utf16.Encode([]rune{r})
		if C.postUnicode((*C.UniChar)(unsafe.Pointer(&units[0])), C.int(len(units))) == 0 {
			return fmt.Errorf("post character %q", r)
		}
	}
	return nil
}

func (m *macInjector) MoveTo(x, y float64) error {
	m.mu.Lock()
	eventType, button := C.CGEventType(C.kCGEventMouseMoved), C.CGMouseButton(C.kCGMouseButtonLeft)
	switch {
	case m.buttons[macro.ButtonLeft]:
		eventType = C.kCGEventLeftMouseDragged
	case m.buttons[macro.ButtonRight]:
		eventType, button = C.kCGEventRightMouseDragged, C.kCGMouseButtonRight
	case m.buttons[macro.ButtonMiddle]:
		eventType, button = C.kCGEventOtherMouseDragged, C.kCGMouseButtonCenter
	}
	m.mu.Unlock()
	if C.postMouse(eventType, C.double(x), C.double(y), button) == 0 {
		return fmt.Errorf("move pointer to %.0f,%.0f", x, y)
	}
	return nil
}

func (m *macInjector) Button(button macro.Button, pressed bool) error {
	var eventType C.CGEventType
	var cgButton C.CGMouseButton
	switch button {
	case macro.ButtonLeft:
		eventType, cgButton = C.kCGEventLeftMouseUp, C.kCGMouseButtonLeft
		if pressed {
			eventType = C.kCGEventLeftMouseDown
		}
	case macro.ButtonRight:
		eventType, cgButton = C.kCGEventRightMouseUp, C.kCGMouseButtonRight
		if pressed {
			eventType = C.kCGEventRightMouseDown
		}
	case macro.ButtonMiddle:
		eventType, cgButton = C.kCGEventOtherMouseUp, C.kCGMouseButtonCenter
		if pressed {
			eventType = C.kCGEventOtherMouseDown
		}
	default:
		return fmt.Errorf("unsupported mouse button %q", button)
	}

	m.mu.Lock()
	if pressed {
		m.buttons[button] = true
	} else {
		delete(m.buttons, button)
	}
	m.mu.Unlock()

	if C.postMouseHere(eventType, cgButton) == 0 {
		return fmt.Errorf("post %s button event", button)
	}
	return nil
}

func (m *macInjector) Scroll(dx, dy float64) error {
	if C.postScroll(C.int32_t(math.Round(dy)), C.int32_t(math.Round(dx))) == 0 {
		return fmt.Errorf("post scroll %.0f,%.0f", dx, dy)
	}
	return nil
}
