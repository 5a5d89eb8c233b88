package recorder

import (
	"sync"
	"time"
)

// State is a recorder lifecycle state.
type State string

const (
	StateIdle            State = "idle"
	StateCapturing       State = "capturing"
	StatePromptingInput  State = "prompting_input"
	StatePromptingOutput State = "prompting_output"
	StateFinalizing      State = "finalizing"
	StateDone            State = "done"
)

// StopReason explains why capturing ended.
type StopReason string

const (
	StopKey          StopReason = "stop"
	StopInputHotkey  StopReason = "input_hotkey"
	StopOutputHotkey StopReason = "output_hotkey"
)

// TimelineEntry records a controller state transition for diagnostics.
type TimelineEntry struct {
	State     State     `json:"state" yaml:"state"`
	Reason    string    `json:"reason,omitempty" yaml:"reason,omitempty"`
	Timestamp time.Time `json:"timestamp" yaml:"timestamp"`
}

// Controller tracks the recorder state and carries the stop request between
// the event handler and the capture loop.
type Controller struct {
	mu       sync.Mutex
	clock    func() time.Time
	state    State
	stopping bool
	reason   StopReason
	signal   chan struct{}
	timeline []TimelineEntry
}

// NewController constructs a controller in the idle state.
func NewController(clock func() time.Time) *Controller {
	if clock == nil {
		clock = time.Now
	}
	c := &Controller{clock: clock, signal: make(chan struct{}, 1)}
	c.Transition(StateIdle, "")
	return c
}

// Transition moves to state and appends a timeline entry.
func (c *Controller) Transition(state State, reason string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.state = state
	c.timeline = append(c.timeline, TimelineEntry{State: state, Reason: reason, Timestamp: c.clock().UTC()})
}

// RequestStop asks the capture loop to end. The first reason wins until Reset.
func (c *Controller) RequestStop(reason StopReason) {
	c.mu.Lock()
	if !c.stopping {
		c.stopping = true
		c.reason = reason
	}
	c.mu.Unlock()
	c.notify()
}

// Stopping reports a pending stop request and its reason.
func (c *Controller) Stopping() (StopReason, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.reason, c.stopping
}

// Reset clears the stop request before capturing resumes.
func (c *Controller) Reset() {
	c.mu.Lock()
	c.stopping = false
	c.reason = ""
	c.mu.Unlock()
	select {
	case <-c.signal:
	default:
	}
}

// Signal is notified whenever a stop is requested.
func (c *Controller) Signal() <-chan struct{} {
	return c.signal
}

// State reports the current state.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Timeline returns a copy of the recorded transitions.
func (c *Controller) Timeline() []TimelineEntry {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]TimelineEntry(nil), c.timeline...)
}

func (c *Controller) notify() {
	select {
	case c.signal <- struct{}{}:
	default:
	}
}
