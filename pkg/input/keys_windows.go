//go:build windows

package input

import (
	"strings"
	"unicode"

	"github.com/offlinefirst/robodesk/pkg/macro"
)

const mapvkVKToChar = 2

var namedVK = map[uint32]macro.Key{
	0x08: macro.KeyBackspace,
	0x09: macro.KeyTab,
	0x0D: macro.KeyEnter,
	0x10: macro.KeyShift,
	0x11: macro.KeyCtrl,
	0x12: macro.KeyAlt,
	0x13: "pause",
	0x14: "caps_lock",
	0x1B: macro.KeyEsc,
	0x20: macro.KeySpace,
	0x21: "page_up",
	0x22: "page_down",
	0x23: "end",
	0x24: "home",
	0x25: macro.KeyLeft,
	0x26: macro.KeyUp,
	0x27: macro.KeyRight,
	0x28: macro.KeyDown,
	0x2C: "print_screen",
	0x2D: "insert",
	0x2E: macro.KeyDelete,
	0x5B: macro.KeyCmd,
	0x5C: "cmd_r",
	0x5D: "menu",
	0x90: "num_lock",
	0x91: "scroll_lock",
	0xA0: "shift_l",
	0xA1: "shift_r",
	0xA2: "ctrl_l",
	0xA3: "ctrl_r",
	0xA4: "alt_l",
	0xA5: "alt_r",
}

var vkByName map[macro.Key]uint16

func init() {
	vkByName = make(map[macro.Key]uint16, len(namedVK)+24)
	for vk, name := range namedVK {
		vkByName[name] = uint16(vk)
	}
	// Prefer the generic modifier codes over the sided ones.
	vkByName[macro.KeyShift] = 0x10
	vkByName[macro.KeyCtrl] = 0x11
	vkByName[macro.KeyAlt] = 0x12
	for i := 0; i < 24; i++ {
		vkByName[macro.Key("f"+itoa(i+1))] = uint16(0x70 + i)
	}
}

func itoa(n int) string {
	if n < 10 {
		return string(rune('0' + n))
	}
	return string(rune('0'+n/10)) + string(rune('0'+n%10))
}

// keyFromVK names a virtual-key code. Letters are reported lower case so that
// the shift state stays a separate key event.
func keyFromVK(vk uint32) macro.Key {
	if name, ok := namedVK[vk]; ok {
		return name
	}
	switch {
	case vk >= 0x30 && vk <= 0x39:
		return macro.Key(rune(vk))
	case vk >= 0x41 && vk <= 0x5A:
		return macro.Key(unicode.ToLower(rune(vk)))
	case vk >= 0x70 && vk <= 0x87:
		return macro.Key("f" + itoa(int(vk-0x70)+1))
	}
	ch, _, _ := procMapVirtualKey.Call(uintptr(vk), mapvkVKToChar)
	if r := rune(ch & 0x7FFF); r != 0 && unicode.IsPrint(r) {
		return macro.Key(unicode.ToLower(r))
	}
	return macro.Key("vk_" + strings.ToLower(hex(vk)))
}

func hex(v uint32) string {
	const digits = "0123456789ABCDEF"
	return string([]byte{digits[(v>>4)&0xF], digits[v&0xF]})
}

// vkFromKey resolves a key to a virtual-key code. ok is false for characters
// the active layout cannot produce, which are then sent as unicode.
func vkFromKey(key macro.Key) (uint16, bool) {
	canonical := key.Canonical()
	if vk, ok := vkByName[canonical]; ok {
		return vk, true
	}
	if strings.HasPrefix(string(canonical), "vk_") && len(canonical) == 5 {
		var v uint16
		for _, c := range canonical[3:] {
			v <<= 4
			switch {
			case c >= '0' && c <= '9':
				v |= uint16(c - '0')
			case c >= 'a' && c <= 'f':
				v |= uint16(c-'a') + 10
			default:
				return 0, false
			}
		}
		return v, true
	}
	r, ok := canonical.Char()
	if !ok {
		return 0, false
	}
	switch {
	case r >= 'a' && r <= 'z':
		return uint16(unicode.ToUpper(r)), true
	case r >= '0' && r <= '9':
		return uint16(r), true
	}
	res, _, _ := procVkKeyScan.Call(uintptr(r))
	if int16(res) == -1 {
		return 0, false
	}
	return uint16(res & 0xFF), true
}
