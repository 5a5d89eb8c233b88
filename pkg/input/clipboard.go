package input

import "sync"

// MemoryClipboard is a process-local clipboard.
type MemoryClipboard struct {
	mu     sync.Mutex
	text   string
	writes []string
}

// NewMemoryClipboard returns a clipboard holding initial.
func NewMemoryClipboard(initial string) *MemoryClipboard {
	return &MemoryClipboard{text: initial}
}

func (c *MemoryClipboard) ReadText() (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.text, nil
}

func (c *MemoryClipboard) WriteText(text string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.text = text
	c.writes = append(c.writes, text)
	return nil
}

// Writes returns every value written so far.
func (c *MemoryClipboard) Writes() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]string(nil), c.writes...)
}
