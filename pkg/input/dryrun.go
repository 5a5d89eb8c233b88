package input

import (
	"log/slog"
	"sync"

	"github.com/offlinefirst/robodesk/pkg/macro"
)

// Call is one journaled injector invocation.
type Call struct {
	Op      string
	Key     macro.Key
	Text    string
	X, Y    float64
	Button  macro.Button
	Pressed bool
}

// DryRunInjector logs every call and keeps a journal instead of touching the
// desktop.
type DryRunInjector struct {
	mu      sync.Mutex
	logger  *slog.Logger
	journal []Call
}

// NewDryRunInjector returns an injector that logs at debug level to logger.
func NewDryRunInjector(logger *slog.Logger) *DryRunInjector {
	if logger == nil {
		logger = slog.Default()
	}
	return &DryRunInjector{logger: logger}
}

// Calls returns a copy of the journal.
func (d *DryRunInjector) Calls() []Call {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]Call(nil), d.journal...)
}

func (d *DryRunInjector) record(c Call) {
	d.mu.Lock()
	d.journal = append(d.journal, c)
	d.mu.Unlock()
	d.logger.Debug("dry-run input", slog.String("op", c.Op), slog.String("key", string(c.Key)),
		slog.Float64("x", c.X), slog.Float64("y", c.Y), slog.String("button", string(c.Button)),
		slog.Bool("pressed", c.Pressed), slog.Int("text_len", len(c.Text)))
}

func (d *DryRunInjector) KeyDown(key macro.Key) error {
	d.record(Call{Op: "key_down", Key: key})
	return nil
}

func (d *DryRunInjector) KeyUp(key macro.Key) error {
	d.record(Call{Op: "key_up", Key: key})
	return nil
}

func (d *DryRunInjector) Type(text string) error {
	d.record(Call{Op: "type", Text: text})
	return nil
}

func (d *DryRunInjector) MoveTo(x, y float64) error {
	d.record(Call{Op: "move", X: x, Y: y})
	return nil
}

func (d *DryRunInjector) Button(button macro.Button, pressed bool) error {
	d.record(Call{Op: "button", Button: button, Pressed: pressed})
	return nil
}

func (d *DryRunInjector) Scroll(dx, dy float64) error {
	d.record(Call{Op: "scroll", X: dx, Y: dy})
	return nil
}
