// Package recorder captures live keyboard and mouse input into a Function,
// pausing for operator prompts whenever a variable hotkey is pressed.
package recorder

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/offlinefirst/robodesk/pkg/input"
	"github.com/offlinefirst/robodesk/pkg/macro"
	"github.com/offlinefirst/robodesk/pkg/vars"
)

const (
	DefaultInputHotkey  = "<esc>+i"
	DefaultOutputHotkey = "<esc>+o"
	DefaultStopKey      = "esc"
	DefaultMoveInterval = 100 * time.Millisecond
	DefaultPollInterval = 500 * time.Millisecond
)

var errListenerClosed = errors.New("input listener closed unexpectedly")

// FunctionStore is the part of the store the recorder needs.
type FunctionStore interface {
	Exists(name string) (bool, error)
	Save(name string, fn macro.Function) error
}

// Options configures a Recorder.
type Options struct {
	Store         FunctionStore
	Hook          input.Hook
	Prompter      Prompter
	Clipboard     input.Clipboard
	Logger        *slog.Logger
	Clock         func() time.Time
	Out           io.Writer
	MoveInterval  time.Duration
	PollInterval  time.Duration
	InputHotkey   string
	OutputHotkey  string
	StopKey       string
	PromptExample bool
}

// Recorder records named functions.
type Recorder struct {
	store         FunctionStore
	hook          input.Hook
	prompter      Prompter
	clipboard     input.Clipboard
	logger        *slog.Logger
	clock         func() time.Time
	out           io.Writer
	moveInterval  time.Duration
	pollInterval  time.Duration
	inputHotkey   string
	outputHotkey  string
	stopKey       macro.Key
	promptExample bool
}

// Result describes a finished recording.
type Result struct {
	Name         string
	Function     macro.Function
	Saved        bool
	DroppedMoves int
	Timeline     []TimelineEntry
}

// New validates options and constructs a recorder. A nil Prompter selects a
// HookPrompter on the same hook.
func New(opts Options) (*Recorder, error) {
	if opts.Store == nil {
		return nil, errors.New("recorder requires a store")
	}
	if opts.Hook == nil {
		return nil, errors.New("recorder requires an input hook")
	}
	r := &Recorder{
		store:         opts.Store,
		hook:          opts.Hook,
		prompter:      opts.Prompter,
		clipboard:     opts.Clipboard,
		logger:        opts.Logger,
		clock:         opts.Clock,
		out:           opts.Out,
		moveInterval:  opts.MoveInterval,
		pollInterval:  opts.PollInterval,
		inputHotkey:   opts.InputHotkey,
		outputHotkey:  opts.OutputHotkey,
		stopKey:       macro.Key(opts.StopKey).Canonical(),
		promptExample: opts.PromptExample,
	}
	if r.logger == nil {
		r.logger = slog.Default()
	}
	if r.clock == nil {
		r.clock = time.Now
	}
	if r.out == nil {
		r.out = io.Discard
	}
	if r.prompter == nil {
		r.prompter = &HookPrompter{Hook: r.hook, Out: r.out}
	}
	if r.moveInterval < 0 {
		return nil, errors.New("move interval must not be negative")
	}
	if r.pollInterval <= 0 {
		r.pollInterval = DefaultPollInterval
	}
	if r.inputHotkey == "" {
		r.inputHotkey = DefaultInputHotkey
	}
	if r.outputHotkey == "" {
		r.outputHotkey = DefaultOutputHotkey
	}
	if r.stopKey == "" {
		r.stopKey = DefaultStopKey
	}
	// Parse once here so that configuration errors surface before recording.
	if _, err := ParseChord(r.inputHotkey); err != nil {
		return nil, fmt.Errorf("input hotkey: %w", err)
	}
	if _, err := ParseChord(r.outputHotkey); err != nil {
		return nil, fmt.Errorf("output hotkey: %w", err)
	}
	return r, nil
}

// session is the mutable state of one recording.
type session struct {
	*Recorder
	ctrl         *Controller
	inputChord   *Chord
	outputChord  *Chord
	start        time.Time
	timeDelta    time.Duration
	events       []macro.TimedEvent
	decls        vars.Declarations
	haveMove     bool
	lastMove     float64
	droppedMoves int
}

// Record captures input until the stop key is released and saves the result
// under name. Nothing is written when the context is cancelled or when no
// event was captured.
func (r *Recorder) Record(ctx context.Context, name string) (Result, error) {
	exists, err := r.store.Exists(name)
	if err != nil {
		return Result{Name: name}, &macro.FunctionError{Op: "record", Name: name, Err: err}
	}
	if exists {
		return Result{Name: name}, &macro.FunctionError{Op: "record", Name: name, Err: macro.ErrAlreadyExists}
	}

	inputChord, _ := ParseChord(r.inputHotkey)
	outputChord, _ := ParseChord(r.outputHotkey)
	s := &session{
		Recorder:    r,
		ctrl:        NewController(r.clock),
		inputChord:  inputChord,
		outputChord: outputChord,
	}

	fmt.Fprintln(r.out, "Starting recording ...")
	fmt.Fprintf(r.out, "Press %s to put clipboard content into output variable\n", r.outputHotkey)
	fmt.Fprintf(r.out, "Press %s to put input variable into clipboard\n", r.inputHotkey)
	fmt.Fprintf(r.out, "Press <%s> to stop\n", r.stopKey)
	r.logger.Info("recording started", slog.String("name", name))

	s.start = r.clock()
	for {
		s.ctrl.Transition(StateCapturing, "")
		reason, err := s.capture(ctx)
		if err != nil {
			return s.abort(name, err)
		}

		switch reason {
		case StopInputHotkey:
			s.ctrl.Transition(StatePromptingInput, string(reason))
			err = s.promptVariable(ctx, macro.Input)
		case StopOutputHotkey:
			s.ctrl.Transition(StatePromptingOutput, string(reason))
			err = s.promptVariable(ctx, macro.Output)
		default:
			s.ctrl.Transition(StateFinalizing, string(reason))
			return s.finalize(name)
		}
		if err != nil {
			return s.abort(name, err)
		}
	}
}

func (s *session) abort(name string, err error) (Result, error) {
	s.ctrl.Transition(StateDone, "aborted")
	s.logger.Warn("recording aborted, nothing saved", slog.String("name", name), slog.Any("error", err))
	return Result{Name: name, Timeline: s.ctrl.Timeline(), DroppedMoves: s.droppedMoves}, err
}

// capture runs one listener until a stop is requested.
func (s *session) capture(ctx context.Context) (StopReason, error) {
	listener, err := s.hook.Listen(ctx)
	if err != nil {
		return "", fmt.Errorf("start input listener: %w", err)
	}
	defer listener.Stop()

	s.ctrl.Reset()
	s.inputChord.Reset()
	s.outputChord.Reset()

	poll := time.NewTicker(s.pollInterval)
	defer poll.Stop()

	for {
		if reason, stopping := s.ctrl.Stopping(); stopping {
			return reason, nil
		}
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case ev, ok := <-listener.Events():
			if !ok {
				if ctx.Err() != nil {
					return "", ctx.Err()
				}
				return "", errListenerClosed
			}
			s.handle(ev)
		case <-s.ctrl.Signal():
		case <-poll.C:
		}
	}
}

func (s *session) handle(ev input.RawEvent) {
	ts := s.timestamp(ev.Time)

	switch ev.Kind {
	case macro.KindKeyPress:
		key := ev.Key.Canonical()
		if s.inputChord.Press(key) {
			s.ctrl.RequestStop(StopInputHotkey)
		}
		if s.outputChord.Press(key) {
			s.ctrl.RequestStop(StopOutputHotkey)
		}
	case macro.KindKeyRelease:
		key := ev.Key.Canonical()
		if key == s.stopKey {
			s.ctrl.RequestStop(StopKey)
			return
		}
		s.inputChord.Release(key)
		s.outputChord.Release(key)
	case macro.KindMouseMove:
		if s.haveMove && ts-s.lastMove < s.moveInterval.Seconds() {
			s.droppedMoves++
			return
		}
		s.haveMove = true
		s.lastMove = ts
	}

	recorded, ok := ev.Event()
	if !ok {
		s.logger.Debug("ignoring unrecognized raw event", slog.String("kind", string(ev.Kind)))
		return
	}
	s.append(ts, recorded)
}

// timestamp converts a capture time to seconds since the session start with
// prompt time excluded. A zero time means now.
func (s *session) timestamp(at time.Time) float64 {
	if at.IsZero() {
		at = s.clock()
	}
	return (at.Sub(s.start) - s.timeDelta).Seconds()
}

func (s *session) append(ts float64, ev macro.Event) {
	if n := len(s.events); n > 0 && ts < s.events[n-1].Timestamp {
		ts = s.events[n-1].Timestamp
	}
	s.events = append(s.events, macro.At(ts, ev))
}

// promptVariable asks for a variable name and records the variable event.
// The prompt time is excluded from the timeline even when the operator
// cancels.
func (s *session) promptVariable(ctx context.Context, dir macro.Direction) error {
	began := s.clock()
	defer func() {
		s.timeDelta += s.clock().Sub(began)
	}()

	label, chord := "Output variable name", s.outputChord
	if dir == macro.Input {
		label, chord = "Input variable name", s.inputChord
	}
	name, err := s.prompter.Prompt(ctx, PromptRequest{Label: label, Kind: PromptName, Held: chord.Held()})
	if err != nil {
		return err
	}
	if name == "" {
		s.logger.Info("variable prompt cancelled", slog.String("direction", string(dir)))
		return nil
	}
	if s.decls.Has(dir, name) {
		fmt.Fprintf(s.out, "WARNING: %s variable %q already exists\n", dir, name)
		s.logger.Warn("variable already declared", slog.Any("error", &macro.VariableError{Direction: dir, Name: name, Err: macro.ErrDuplicateVariable}))
		return nil
	}

	if dir == macro.Input && s.promptExample {
		example, err := s.prompter.Prompt(ctx, PromptRequest{Label: "Input example value", Kind: PromptValue})
		if err != nil {
			return err
		}
		if example != "" && s.clipboard != nil {
			if err := s.clipboard.WriteText(example); err != nil {
				s.logger.Warn("could not place example value on clipboard", slog.Any("error", err))
			}
		}
	}

	if err := s.decls.Declare(dir, name); err != nil {
		s.logger.Warn("variable rejected", slog.Any("error", err))
		return nil
	}

	// Close the prompt window before stamping the variable event.
	s.timeDelta += s.clock().Sub(began)
	began = s.clock()

	var ev macro.Event = macro.CopyToVariable{Name: name}
	if dir == macro.Input {
		ev = macro.PasteFromVariable{Name: name}
	}
	s.append(s.timestamp(time.Time{}), ev)
	s.logger.Info("variable declared", slog.String("direction", string(dir)), slog.String("name", name))
	return nil
}

func (s *session) finalize(name string) (Result, error) {
	result := Result{Name: name, DroppedMoves: s.droppedMoves}
	if len(s.events) == 0 {
		fmt.Fprintln(s.out, "WARNING: no input events detected!")
		s.logger.Warn("no input events captured, nothing saved", slog.String("name", name))
		s.ctrl.Transition(StateDone, "empty")
		result.Timeline = s.ctrl.Timeline()
		return result, nil
	}

	origin := s.events[0].Timestamp
	events := make([]macro.TimedEvent, len(s.events))
	for i, te := range s.events {
		events[i] = macro.At(te.Timestamp-origin, te.Event)
	}
	fn := macro.Function{
		Events:          events,
		InputVariables:  s.decls.Inputs(),
		OutputVariables: s.decls.Outputs(),
	}
	result.Function = fn

	if err := s.store.Save(name, fn); err != nil {
		s.ctrl.Transition(StateDone, "save_failed")
		result.Timeline = s.ctrl.Timeline()
		return result, err
	}
	s.ctrl.Transition(StateDone, "saved")
	result.Saved = true
	result.Timeline = s.ctrl.Timeline()
	s.logger.Info("recording saved",
		slog.String("name", name),
		slog.Int("events", len(fn.Events)),
		slog.Int("dropped_moves", s.droppedMoves),
		slog.Float64("duration_seconds", fn.Duration()),
	)
	return result, nil
}
