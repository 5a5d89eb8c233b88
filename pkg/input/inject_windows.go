//go:build windows

package input

import (
	"fmt"
	"math"
	"unicode/utf16"
	"unsafe"

	"github.com/offlinefirst/robodesk/pkg/macro"
)

const (
	inputMouse    = 0
	inputKeyboard = 1

	mouseeventfLeftDown   = 0x0002
	mouseeventfLeftUp     = 0x0004
	mouseeventfRightDown  = 0x0008
	mouseeventfRightUp    = 0x0010
	mouseeventfMiddleDown = 0x0020
	mouseeventfMiddleUp   = 0x0040
	mouseeventfWheel      = 0x0800
	mouseeventfHWheel     = 0x1000

	keyeventfKeyUp   = 0x0002
	keyeventfUnicode = 0x0004
)

type mouseInput struct {
	Dx          int32
	Dy          int32
	MouseData   uint32
	DwFlags     uint32
	Time        uint32
	DwExtraInfo uintptr
}

type keybdInput struct {
	WVk         uint16
	WScan       uint16
	DwFlags     uint32
	Time        uint32
	DwExtraInfo uintptr
}

// mouseINPUT and keybdINPUT mirror the INPUT union for each variant; the
// keyboard form is padded to the size of the mouse form.
type mouseINPUT struct {
	Type uint32
	Mi   mouseInput
}

type keybdINPUT struct {
	Type    uint32
	Ki      keybdInput
	Padding [8]byte
}

type winInjector struct{}

func sendKeyboard(inputs []keybdINPUT) error {
	if len(inputs) == 0 {
		return nil
	}
	ret, _, err := procSendInput.Call(uintptr(len(inputs)), uintptr(unsafe.Pointer(&inputs[0])), unsafe.Sizeof(inputs[0]))
	if int(ret) != len(inputs) {
		return fmt.Errorf("SendInput (keyboard) failed: %v", err)
	}
	return nil
}

func sendMouse(in mouseINPUT) error {
	ret, _, err := procSendInput.Call(1, uintptr(unsafe.Pointer(&in)), unsafe.Sizeof(in))
	if ret != 1 {
		return fmt.Errorf("SendInput (mouse) failed: %v", err)
	}
	return nil
}

func keyInputs(key macro.Key, up bool) []keybdINPUT {
	var flags uint32
	if up {
		flags = keyeventfKeyUp
	}
	if vk, ok := vkFromKey(key); ok {
		return []keybdINPUT{{Type: inputKeyboard, Ki: keybdInput{WVk: vk, DwFlags: flags}}}
	}
	var inputs []keybdINPUT
	for _, unit := range utf16.Encode([]rune(string(key))) {
		inputs = append(inputs, keybdINPUT{Type: inputKeyboard, Ki: keybdInput{WScan: unit, DwFlags: flags | keyeventfUnicode}})
	}
	return inputs
}

func (winInjector) KeyDown(key macro.Key) error {
	return sendKeyboard(keyInputs(key, false))
}

func (winInjector) KeyUp(key macro.Key) error {
	return sendKeyboard(keyInputs(key, true))
}

// Type sends text as unicode keystrokes independent of the keyboard layout.
func (winInjector) Type(text string) error {
	units := utf16.Encode([]rune(text))
	inputs := make([]keybdINPUT, 0, 2*len(units))
	for _, unit := range units {
		inputs = append(inputs,
			keybdINPUT{Type: inputKeyboard, Ki: keybdInput{WScan: unit, DwFlags: keyeventfUnicode}},
			keybdINPUT{Type: inputKeyboard, Ki: keybdInput{WScan: unit, DwFlags: keyeventfUnicode | keyeventfKeyUp}},
		)
	}
	return sendKeyboard(inputs)
}

func (winInjector) MoveTo(x, y float64) error {
	ret, _, err := procSetCursorPos.Call(uintptr(int32(math.Round(x))), uintptr(int32(math.Round(y))))
	if ret == 0 {
		return fmt.Errorf("SetCursorPos failed: %v", err)
	}
	return nil
}

func (winInjector) Button(button macro.Button, pressed bool) error {
	var flags uint32
	switch button {
	case macro.ButtonLeft:
		flags = mouseeventfLeftUp
		if pressed {
			flags = mouseeventfLeftDown
		}
	case macro.ButtonRight:
		flags = mouseeventfRightUp
		if pressed {
			flags = mouseeventfRightDown
		}
	case macro.ButtonMiddle:
		flags = mouseeventfMiddleUp
		if pressed {
			flags = mouseeventfMiddleDown
		}
	default:
		return fmt.Errorf("unknown button: %s", button)
	}
	return sendMouse(mouseINPUT{Type: inputMouse, Mi: mouseInput{DwFlags: flags}})
}

func (winInjector) Scroll(dx, dy float64) error {
	if dy != 0 {
		data := int32(math.Round(dy * wheelDelta))
		if err := sendMouse(mouseINPUT{Type: inputMouse, Mi: mouseInput{DwFlags: mouseeventfWheel, MouseData: uint32(data)}}); err != nil {
			return err
		}
	}
	if dx != 0 {
		data := int32(math.Round(dx * wheelDelta))
		return sendMouse(mouseINPUT{Type: inputMouse, Mi: mouseInput{DwFlags: mouseeventfHWheel, MouseData: uint32(data)}})
	}
	return nil
}
