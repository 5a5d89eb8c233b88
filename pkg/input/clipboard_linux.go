//go:build linux

package input

import "errors"

// SystemClipboard is unavailable on linux builds; the clipboard library
// needs cgo and an X11 display there.
type SystemClipboard struct{}

// NewSystemClipboard reports that the system clipboard is unavailable.
func NewSystemClipboard() (*SystemClipboard, error) {
	return nil, errors.New("system clipboard not available in linux builds")
}

func (SystemClipboard) ReadText() (string, error) {
	return "", errors.New("system clipboard not available in linux builds")
}

func (SystemClipboard) WriteText(string) error {
	return errors.New("system clipboard not available in linux builds")
}
