package recorder

import (
	"fmt"
	"slices"
	"strings"

	"github.com/offlinefirst/robodesk/pkg/macro"
)

// Chord is a set of keys that fires once all of them are held together.
type Chord struct {
	def   string
	keys  map[macro.Key]struct{}
	state map[macro.Key]struct{}
}

// ParseChord parses a chord such as "<esc>+i". Named keys are wrapped in
// angle brackets; single characters stand for themselves. Matching is case
// insensitive.
func ParseChord(def string) (*Chord, error) {
	trimmed := strings.TrimSpace(def)
	if trimmed == "" {
		return nil, fmt.Errorf("hotkey must not be empty")
	}
	parts := strings.Split(trimmed, "+")
	// "a++" names the plus key itself.
	if strings.HasSuffix(trimmed, "++") {
		parts = append(strings.Split(strings.TrimSuffix(trimmed, "++"), "+"), "+")
	}

	c := &Chord{def: trimmed, keys: make(map[macro.Key]struct{}, len(parts)), state: make(map[macro.Key]struct{})}
	for _, part := range parts {
		key, err := parseChordKey(part)
		if err != nil {
			return nil, fmt.Errorf("hotkey %q: %w", def, err)
		}
		if _, dup := c.keys[key]; dup {
			return nil, fmt.Errorf("hotkey %q: key %q repeated", def, key)
		}
		c.keys[key] = struct{}{}
	}
	return c, nil
}

func parseChordKey(part string) (macro.Key, error) {
	if strings.HasPrefix(part, "<") && strings.HasSuffix(part, ">") && len(part) > 2 {
		return macro.Key(part[1 : len(part)-1]).Canonical(), nil
	}
	if _, ok := macro.Key(part).Char(); ok {
		return macro.Key(part).Canonical(), nil
	}
	if part == "" {
		return "", fmt.Errorf("empty key")
	}
	return "", fmt.Errorf("invalid key %q, wrap named keys in <>", part)
}

// String returns the chord as configured.
func (c *Chord) String() string {
	return c.def
}

// Press records key as held and reports whether the chord just fired. A key
// that is already held does not fire again.
func (c *Chord) Press(key macro.Key) bool {
	key = key.Canonical()
	if _, ok := c.keys[key]; !ok {
		return false
	}
	if _, held := c.state[key]; held {
		return false
	}
	c.state[key] = struct{}{}
	return len(c.state) == len(c.keys)
}

// Release forgets key.
func (c *Chord) Release(key macro.Key) {
	delete(c.state, key.Canonical())
}

// Held returns the chord keys currently down, sorted.
func (c *Chord) Held() []macro.Key {
	keys := make([]macro.Key, 0, len(c.state))
	for key := range c.state {
		keys = append(keys, key)
	}
	slices.Sort(keys)
	return keys
}

// Reset forgets every held key.
func (c *Chord) Reset() {
	clear(c.state)
}
