//go:build darwin

package input

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/offlinefirst/robodesk/pkg/macro"
)

// Virtual keycodes of the ANSI layout (HIToolbox kVK_* values). Characters
// are the unshifted symbols; shift arrives as its own key event.
var namedKeycode = map[uint16]macro.Key{
	0x24: macro.KeyEnter,
	0x30: macro.KeyTab,
	0x31: macro.KeySpace,
	0x33: macro.KeyBackspace,
	0x35: macro.KeyEsc,
	0x36: "cmd_r",
	0x37: macro.KeyCmd,
	0x38: macro.KeyShift,
	0x39: "caps_lock",
	0x3A: macro.KeyAlt,
	0x3B: macro.KeyCtrl,
	0x3C: "shift_r",
	0x3D: "alt_r",
	0x3E: "ctrl_r",
	0x3F: "fn",
	0x72: "insert",
	0x73: "home",
	0x74: "page_up",
	0x75: macro.KeyDelete,
	0x77: "end",
	0x79: "page_down",
	0x7B: macro.KeyLeft,
	0x7C: macro.KeyRight,
	0x7D: macro.KeyDown,
	0x7E: macro.KeyUp,

	0x7A: "f1", 0x78: "f2", 0x63: "f3", 0x76: "f4", 0x60: "f5",
	0x61: "f6", 0x62: "f7", 0x64: "f8", 0x65: "f9", 0x6D: "f10",
	0x67: "f11", 0x6F: "f12", 0x69: "f13", 0x6B: "f14", 0x71: "f15",
	0x6A: "f16", 0x40: "f17", 0x4F: "f18", 0x50: "f19", 0x5A: "f20",
}

var charKeycode = map[uint16]rune{
	0x00: 'a', 0x01: 's', 0x02: 'd', 0x03: 'f', 0x04: 'h', 0x05: 'g',
	0x06: 'z', 0x07: 'x', 0x08: 'c', 0x09: 'v', 0x0B: 'b', 0x0C: 'q',
	0x0D: 'w', 0x0E: 'e', 0x0F: 'r', 0x10: 'y', 0x11: 't', 0x12: '1',
	0x13: '2', 0x14: '3', 0x15: '4', 0x16: '6', 0x17: '5', 0x18: '=',
	0x19: '9', 0x1A: '7', 0x1B: '-', 0x1C: '8', 0x1D: '0', 0x1E: ']',
	0x1F: 'o', 0x20: 'u', 0x21: '[', 0x22: 'i', 0x23: 'p', 0x25: 'l',
	0x26: 'j', 0x27: '\'', 0x28: 'k', 0x29: ';', 0x2A: '\\', 0x2B: ',',
	0x2C: '/', 0x2D: 'n', 0x2E: 'm', 0x2F: '.', 0x32: '`',
}

// Modifier keycodes and the CGEventFlags bit each one drives.
var modifierFlags = map[uint16]uint64{
	0x36: 0x100000, // command
	0x37: 0x100000,
	0x38: 0x20000, // shift
	0x3C: 0x20000,
	0x39: 0x10000, // caps lock
	0x3A: 0x80000, // option
	0x3D: 0x80000,
	0x3B: 0x40000, // control
	0x3E: 0x40000,
	0x3F: 0x800000, // fn
}

var keycodeByName map[macro.Key]uint16

func init() {
	keycodeByName = make(map[macro.Key]uint16, len(namedKeycode)+len(charKeycode))
	for code, name := range namedKeycode {
		keycodeByName[name] = code
	}
	for code, r := range charKeycode {
		keycodeByName[macro.Key(r)] = code
	}
}

// keyFromKeycode names a virtual keycode. Codes outside the tables are
// reported as "mac_XX" so they still replay.
func keyFromKeycode(code uint16) macro.Key {
	if name, ok := namedKeycode[code]; ok {
		return name
	}
	if r, ok := charKeycode[code]; ok {
		return macro.Key(r)
	}
	return macro.Key(fmt.Sprintf("mac_%02x", code))
}

// keycodeFromKey resolves a key to a virtual keycode. ok is false for
// characters the ANSI layout has no key for; those are typed as unicode.
func keycodeFromKey(key macro.Key) (uint16, bool) {
	canonical := key.Canonical()
	if code, ok := keycodeByName[canonical]; ok {
		return code, true
	}
	if rest, found := strings.CutPrefix(string(canonical), "mac_"); found {
		v, err := strconv.ParseUint(rest, 16, 16)
		if err == nil {
			return uint16(v), true
		}
	}
	return 0, false
}
