//go:build !linux

package input

import (
	"fmt"
	"sync"

	"golang.design/x/clipboard"
)

var (
	clipboardOnce sync.Once
	clipboardErr  error
)

// SystemClipboard uses the operating-system clipboard.
type SystemClipboard struct{}

// NewSystemClipboard initialises the system clipboard.
func NewSystemClipboard() (*SystemClipboard, error) {
	clipboardOnce.Do(func() {
		clipboardErr = clipboard.Init()
	})
	if clipboardErr != nil {
		return nil, fmt.Errorf("initialise clipboard: %w", clipboardErr)
	}
	return &SystemClipboard{}, nil
}

func (SystemClipboard) ReadText() (string, error) {
	return string(clipboard.Read(clipboard.FmtText)), nil
}

func (SystemClipboard) WriteText(text string) error {
	clipboard.Write(clipboard.FmtText, []byte(text))
	return nil
}
