// Package player replays recorded functions with their original timing,
// scaled by a rate multiplier, substituting variables through the clipboard
// or synthesized typing.
package player

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"time"

	"github.com/offlinefirst/robodesk/pkg/input"
	"github.com/offlinefirst/robodesk/pkg/macro"
	"github.com/offlinefirst/robodesk/pkg/vars"
)

// ErrInvalidRate indicates a rate that is not a finite positive number.
var ErrInvalidRate = errors.New("rate must be a finite number greater than zero")

// PasteMode selects how input variables are delivered.
type PasteMode string

const (
	// PasteClipboard places the value on the clipboard; the recording itself
	// carries the paste keystrokes.
	PasteClipboard PasteMode = "clipboard"
	// PasteType synthesizes the value as keystrokes.
	PasteType PasteMode = "type"
)

const (
	DefaultJitter       = 10 * time.Millisecond
	DefaultLagTolerance = 20 * time.Millisecond
)

// Sleeper waits for d or until ctx is done.
type Sleeper func(ctx context.Context, d time.Duration) error

// Options configures a Player.
type Options struct {
	Injector     input.Injector
	Clipboard    input.Clipboard
	Logger       *slog.Logger
	Clock        func() time.Time
	Sleeper      Sleeper
	Jitter       time.Duration
	LagTolerance time.Duration
	PasteMode    PasteMode
	ReleaseHeld  bool
	Redactor     vars.Redactor
}

// Player replays functions.
type Player struct {
	injector     input.Injector
	clipboard    input.Clipboard
	logger       *slog.Logger
	clock        func() time.Time
	sleeper      Sleeper
	jitter       time.Duration
	lagTolerance time.Duration
	pasteMode    PasteMode
	releaseHeld  bool
	redactor     vars.Redactor
}

// Stats summarises one replay.
type Stats struct {
	Events  int           `json:"events" yaml:"events"`
	Lags    int           `json:"lags" yaml:"lags"`
	MaxLag  time.Duration `json:"max_lag" yaml:"max_lag"`
	Elapsed time.Duration `json:"elapsed" yaml:"elapsed"`
}

// New validates options and constructs a player.
func New(opts Options) (*Player, error) {
	if opts.Injector == nil {
		return nil, errors.New("player requires an injector")
	}
	if opts.Clipboard == nil {
		return nil, errors.New("player requires a clipboard")
	}
	if opts.Jitter < 0 || opts.LagTolerance < 0 {
		return nil, errors.New("jitter and lag tolerance must not be negative")
	}
	p := &Player{
		injector:     opts.Injector,
		clipboard:    opts.Clipboard,
		logger:       opts.Logger,
		clock:        opts.Clock,
		sleeper:      opts.Sleeper,
		jitter:       opts.Jitter,
		lagTolerance: opts.LagTolerance,
		pasteMode:    opts.PasteMode,
		releaseHeld:  opts.ReleaseHeld,
		redactor:     opts.Redactor,
	}
	if p.logger == nil {
		p.logger = slog.Default()
	}
	if p.clock == nil {
		p.clock = time.Now
	}
	if p.sleeper == nil {
		p.sleeper = defaultSleeper
	}
	switch p.pasteMode {
	case "":
		p.pasteMode = PasteClipboard
	case PasteClipboard, PasteType:
	default:
		return nil, fmt.Errorf("unknown paste mode %q", p.pasteMode)
	}
	return p, nil
}

// Play replays fn and returns the captured output variables.
func (p *Player) Play(ctx context.Context, fn macro.Function, rate float64, inputs map[string]string) (map[string]string, error) {
	outputs, _, err := p.PlayWithStats(ctx, fn, rate, inputs)
	return outputs, err
}

// PlayWithStats replays fn and also reports pacing statistics.
//
// Each event is released once the virtual clock, running rate times faster
// than real time, has advanced past the event's offset from the first event
// plus the jitter allowance. Events that are already late are dispatched
// immediately and counted as lags.
func (p *Player) PlayWithStats(ctx context.Context, fn macro.Function, rate float64, inputs map[string]string) (map[string]string, Stats, error) {
	var stats Stats
	if math.IsNaN(rate) || math.IsInf(rate, 0) || rate <= 0 {
		return nil, stats, fmt.Errorf("%w: %v", ErrInvalidRate, rate)
	}
	if err := fn.Validate(); err != nil {
		return nil, stats, err
	}
	unused, err := vars.CheckInputs(fn, inputs)
	if err != nil {
		return nil, stats, err
	}
	for _, name := range unused {
		p.logger.Warn("input variable not used", slog.String("name", name))
	}

	r := &run{Player: p, outputs: make(map[string]string, len(fn.OutputVariables)), inputs: inputs}
	defer r.release()

	start := p.clock()
	origin := fn.Origin()
	epsilon := p.jitter.Seconds()
	for i, te := range fn.Events {
		elapsed := p.clock().Sub(start).Seconds()
		ahead := (te.Timestamp - origin + epsilon) - elapsed*rate
		if ahead > 0 {
			wait := time.Duration(ahead / rate * float64(time.Second))
			if err := p.sleeper(ctx, wait); err != nil {
				stats.Elapsed = p.clock().Sub(start)
				return nil, stats, err
			}
		} else {
			lag := time.Duration(-ahead * float64(time.Second))
			stats.Lags++
			if lag > stats.MaxLag {
				stats.MaxLag = lag
			}
			level := slog.LevelDebug
			if lag > p.lagTolerance {
				level = slog.LevelWarn
			}
			p.logger.Log(ctx, level, "playback lagging",
				slog.Int("event", i),
				slog.Duration("lag", lag),
				slog.Any("error", macro.ErrLag),
			)
		}

		if err := ctx.Err(); err != nil {
			stats.Elapsed = p.clock().Sub(start)
			return nil, stats, err
		}
		if err := r.dispatch(te.Event); err != nil {
			stats.Elapsed = p.clock().Sub(start)
			return nil, stats, fmt.Errorf("dispatch event %d (%s): %w", i, te.Event.Kind(), err)
		}
		stats.Events++
	}
	stats.Elapsed = p.clock().Sub(start)

	p.logger.Info("playback finished",
		slog.Int("events", stats.Events),
		slog.Int("lags", stats.Lags),
		slog.Duration("max_lag", stats.MaxLag),
		slog.Duration("elapsed", stats.Elapsed),
		slog.Any("outputs", p.redactor.Map(r.outputs)),
	)
	return r.outputs, stats, nil
}

// run holds the state of one replay.
type run struct {
	*Player
	inputs  map[string]string
	outputs map[string]string
	keys    []macro.Key
	buttons []macro.Button
}

func (r *run) dispatch(ev macro.Event) error {
	switch e := ev.(type) {
	case macro.KeyPress:
		if err := r.injector.KeyDown(e.Key); err != nil {
			return err
		}
		r.keys = appendUnique(r.keys, e.Key)
	case macro.KeyRelease:
		if err := r.injector.KeyUp(e.Key); err != nil {
			return err
		}
		r.keys = remove(r.keys, e.Key)
	case macro.MouseMove:
		return r.injector.MoveTo(e.X, e.Y)
	case macro.MouseClick:
		if err := r.injector.MoveTo(e.X, e.Y); err != nil {
			return err
		}
		if err := r.injector.Button(e.Button, e.Pressed); err != nil {
			return err
		}
		if e.Pressed {
			r.buttons = appendUnique(r.buttons, e.Button)
		} else {
			r.buttons = remove(r.buttons, e.Button)
		}
	case macro.MouseScroll:
		if err := r.injector.MoveTo(e.X, e.Y); err != nil {
			return err
		}
		return r.injector.Scroll(e.DX, e.DY)
	case macro.CopyToVariable:
		text, err := r.clipboard.ReadText()
		if err != nil {
			return fmt.Errorf("read clipboard: %w", err)
		}
		r.outputs[e.Name] = text
		r.logger.Debug("output captured", slog.String("name", e.Name), slog.String("value", r.redactor.String(text)))
	case macro.PasteFromVariable:
		value := r.inputs[e.Name]
		r.logger.Debug("input delivered", slog.String("name", e.Name), slog.String("mode", string(r.pasteMode)), slog.String("value", r.redactor.String(value)))
		if r.pasteMode == PasteType {
			return r.injector.Type(value)
		}
		if err := r.clipboard.WriteText(value); err != nil {
			return fmt.Errorf("write clipboard: %w", err)
		}
	default:
		return fmt.Errorf("%w: unrecognized event %T", macro.ErrCorruptData, ev)
	}
	return nil
}

// release lifts keys and buttons the replay left down, most recent first.
func (r *run) release() {
	if !r.releaseHeld {
		return
	}
	for i := len(r.keys) - 1; i >= 0; i-- {
		if err := r.injector.KeyUp(r.keys[i]); err != nil {
			r.logger.Warn("could not release key", slog.String("key", string(r.keys[i])), slog.Any("error", err))
		}
	}
	for i := len(r.buttons) - 1; i >= 0; i-- {
		if err := r.injector.Button(r.buttons[i], false); err != nil {
			r.logger.Warn("could not release button", slog.String("button", string(r.buttons[i])), slog.Any("error", err))
		}
	}
	if len(r.keys)+len(r.buttons) > 0 {
		r.logger.Debug("released held input", slog.Int("keys", len(r.keys)), slog.Int("buttons", len(r.buttons)))
	}
	r.keys, r.buttons = nil, nil
}

func appendUnique[T comparable](list []T, v T) []T {
	for _, existing := range list {
		if existing == v {
			return list
		}
	}
	return append(list, v)
}

func remove[T comparable](list []T, v T) []T {
	for i, existing := range list {
		if existing == v {
			return append(list[:i], list[i+1:]...)
		}
	}
	return list
}

func defaultSleeper(ctx context.Context, wait time.Duration) error {
	if wait <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(wait)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
