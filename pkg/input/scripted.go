package input

import (
	"context"
	"errors"
	"sync"
)

// ErrScriptExhausted is returned by ScriptedHook.Listen once every segment
// has been handed out.
var ErrScriptExhausted = errors.New("scripted hook has no more segments")

// ScriptedHook replays prepared events. Each call to Listen consumes the next
// segment; its events are delivered in order and the channel then stays open
// until Stop, like an idle real hook.
type ScriptedHook struct {
	mu       sync.Mutex
	segments [][]RawEvent
	listens  int
}

// NewScriptedHook returns a hook serving the given segments in order.
func NewScriptedHook(segments ...[]RawEvent) *ScriptedHook {
	return &ScriptedHook{segments: segments}
}

// Append queues another segment.
func (h *ScriptedHook) Append(segment ...RawEvent) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.segments = append(h.segments, segment)
}

// Listens reports how many listeners have been opened.
func (h *ScriptedHook) Listens() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.listens
}

func (h *ScriptedHook) Listen(ctx context.Context) (Listener, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.listens >= len(h.segments) {
		return nil, ErrScriptExhausted
	}
	segment := h.segments[h.listens]
	h.listens++

	ch := make(chan RawEvent, len(segment))
	for _, ev := range segment {
		ch <- ev
	}
	return &scriptedListener{events: ch}, nil
}

type scriptedListener struct {
	once   sync.Once
	events chan RawEvent
}

func (l *scriptedListener) Events() <-chan RawEvent {
	return l.events
}

func (l *scriptedListener) Stop() error {
	l.once.Do(func() { close(l.events) })
	return nil
}
