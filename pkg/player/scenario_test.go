package player_test

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/offlinefirst/robodesk/pkg/input"
	"github.com/offlinefirst/robodesk/pkg/macro"
	"github.com/offlinefirst/robodesk/pkg/player"
	"github.com/offlinefirst/robodesk/pkg/recorder"
	"github.com/offlinefirst/robodesk/pkg/store"
)

func TestRecordThenPlayGreeting(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	base := time.Date(2024, 5, 12, 9, 0, 0, 0, time.UTC)
	at := func(ms int) time.Time { return base.Add(time.Duration(ms) * time.Millisecond) }
	now := base
	clock := func() time.Time { return now }

	var prompt []input.RawEvent
	prompt = append(prompt, input.KeyUp("esc", at(400)), input.KeyUp("i", at(410)))
	for _, r := range "greeting" {
		prompt = append(prompt, input.KeyDown(macro.Key(string(r)), at(500)), input.KeyUp(macro.Key(string(r)), at(510)))
	}
	prompt = append(prompt, input.KeyDown("enter", at(600)))

	hook := input.NewScriptedHook(
		[]input.RawEvent{
			input.Move(100, 200, at(100)),
			input.KeyDown("esc", at(200)),
			input.KeyDown("i", at(300)),
		},
		prompt,
		[]input.RawEvent{
			input.KeyDown("ctrl", at(2000)),
			input.KeyDown("v", at(2100)),
			input.KeyUp("v", at(2150)),
			input.KeyUp("ctrl", at(2200)),
			input.KeyDown("esc", at(2500)),
			input.KeyUp("esc", at(2550)),
		},
	)

	fs := store.New(store.Options{Logger: logger, Clock: clock})
	out := &bytes.Buffer{}
	rec, err := recorder.New(recorder.Options{
		Store:        fs,
		Hook:         hook,
		Logger:       logger,
		Clock:        clock,
		Out:          out,
		PollInterval: 10 * time.Millisecond,
	})
	require.NoError(t, err)

	res, err := rec.Record(context.Background(), "hi")
	require.NoError(t, err)
	require.True(t, res.Saved)
	assert.Contains(t, out.String(), "Input variable name (ESC to cancel): greeting\n")

	fn, err := fs.Load("hi")
	require.NoError(t, err)
	assert.Equal(t, []string{"greeting"}, fn.InputVariables)
	assert.Empty(t, fn.OutputVariables)

	clip := input.NewMemoryClipboard("")
	injector := input.NewDryRunInjector(logger)
	p, err := player.New(player.Options{
		Injector:    injector,
		Clipboard:   clip,
		Logger:      logger,
		Sleeper:     func(context.Context, time.Duration) error { return nil },
		ReleaseHeld: true,
	})
	require.NoError(t, err)

	outputs, err := fs.Play(context.Background(), p, "hi", 1, map[string]string{"greeting": "HELLO"})
	require.NoError(t, err)
	assert.Empty(t, outputs)
	assert.Equal(t, []string{"HELLO"}, clip.Writes())

	var keys []string
	for _, c := range injector.Calls() {
		switch c.Op {
		case "key_down":
			keys = append(keys, "+"+string(c.Key))
		case "key_up":
			keys = append(keys, "-"+string(c.Key))
		}
	}
	assert.Equal(t, []string{"+esc", "+i", "+ctrl", "+v", "-v", "-ctrl", "+esc", "-i", "-esc"}, keys)
	assert.Equal(t, input.Call{Op: "move", X: 100, Y: 200}, injector.Calls()[0])

	_, err = fs.Play(context.Background(), p, "hi", 1, nil)
	assert.ErrorIs(t, err, macro.ErrMissingInput)
}
