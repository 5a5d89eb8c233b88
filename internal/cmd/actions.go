package cmd

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sort"
	"strings"

	"github.com/offlinefirst/robodesk/pkg/input"
	"github.com/offlinefirst/robodesk/pkg/macro"
	"github.com/offlinefirst/robodesk/pkg/player"
	"github.com/offlinefirst/robodesk/pkg/recorder"
	"github.com/offlinefirst/robodesk/pkg/store"
	"github.com/offlinefirst/robodesk/pkg/vars"
)

func (rc *RootCommand) runRecord(ctx context.Context, app *AppContext, s *store.Store) error {
	backend, err := newBackend(input.OpenOptions{Logger: app.Logger})
	if err != nil {
		return fmt.Errorf("open input backend: %w", err)
	}
	if backend.Hook == nil {
		return fmt.Errorf("recording needs a native input hook, %s backend has none", backend.Provider)
	}

	cfg := app.Config.Recorder
	rec, err := recorder.New(recorder.Options{
		Store:         s,
		Hook:          backend.Hook,
		Clipboard:     backend.Clipboard,
		Logger:        app.Logger,
		Out:           rc.stdout,
		MoveInterval:  cfg.MoveInterval,
		PollInterval:  cfg.PollInterval,
		InputHotkey:   cfg.InputHotkey,
		OutputHotkey:  cfg.OutputHotkey,
		StopKey:       cfg.StopKey,
		PromptExample: cfg.PromptExample,
	})
	if err != nil {
		return err
	}

	result, err := rec.Record(ctx, rc.record)
	if err != nil {
		return err
	}
	if result.Saved {
		fmt.Fprintf(rc.stdout, "%s %s (%d events, %.2fs)\n",
			styles.ok.Render("Saved"), styles.name.Render(result.Name),
			len(result.Function.Events), result.Function.Duration())
	}
	return nil
}

// statsRunner adapts the player to store.Runner and keeps the last stats.
type statsRunner struct {
	player *player.Player
	stats  player.Stats
}

func (r *statsRunner) Play(ctx context.Context, fn macro.Function, rate float64, inputs map[string]string) (map[string]string, error) {
	outputs, stats, err := r.player.PlayWithStats(ctx, fn, rate, inputs)
	r.stats = stats
	return outputs, err
}

type playReport struct {
	Function string            `json:"function" yaml:"function"`
	Rate     float64           `json:"rate" yaml:"rate"`
	Outputs  map[string]string `json:"outputs" yaml:"outputs"`
	Stats    player.Stats      `json:"stats" yaml:"stats"`
}

func (rc *RootCommand) runPlay(ctx context.Context, app *AppContext, s *store.Store, rate float64) error {
	inputs, err := vars.ParseInputs(rc.inputs)
	if err != nil {
		return err
	}

	backend, err := newBackend(input.OpenOptions{DryRun: rc.dryRun, Logger: app.Logger})
	if err != nil {
		return fmt.Errorf("open input backend: %w", err)
	}

	privacy := app.Config.Privacy
	redactor, err := vars.NewRedactor(privacy.RedactEmails, privacy.RedactPatterns)
	if err != nil {
		return err
	}

	cfg := app.Config.Player
	p, err := player.New(player.Options{
		Injector:     backend.Injector,
		Clipboard:    backend.Clipboard,
		Logger:       app.Logger,
		Jitter:       cfg.Jitter,
		LagTolerance: cfg.LagTolerance,
		PasteMode:    player.PasteMode(cfg.PasteMode),
		ReleaseHeld:  cfg.ReleaseHeld,
		Redactor:     redactor,
	})
	if err != nil {
		return err
	}

	runner := &statsRunner{player: p}
	outputs, err := s.Play(ctx, runner, rc.play, rate, inputs)
	if err != nil {
		return err
	}
	if outputs == nil {
		outputs = map[string]string{}
	}

	report := playReport{Function: rc.play, Rate: rate, Outputs: outputs, Stats: runner.stats}
	return render(rc.stdout, rc.output, report, func() {
		names := make([]string, 0, len(outputs))
		for name := range outputs {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			fmt.Fprintf(rc.stdout, "%s=%s\n", name, outputs[name])
		}
		if runner.stats.Lags > 0 {
			fmt.Fprintf(rc.stderr, "%s replay fell behind %d times (max %s)\n",
				styles.warn.Render("WARNING:"), runner.stats.Lags, runner.stats.MaxLag)
		}
	})
}

type listReport struct {
	Functions []functionSummary `json:"functions" yaml:"functions"`
	Skipped   []skippedEntry    `json:"skipped,omitempty" yaml:"skipped,omitempty"`
}

type skippedEntry struct {
	Name  string `json:"name" yaml:"name"`
	Error string `json:"error" yaml:"error"`
}

func (rc *RootCommand) runList(s *store.Store) error {
	listing, err := s.List()
	if err != nil {
		return err
	}

	report := listReport{Functions: make([]functionSummary, 0, len(listing.Entries))}
	for _, entry := range listing.Entries {
		report.Functions = append(report.Functions, summarize(entry))
	}
	for _, failure := range listing.Failures {
		report.Skipped = append(report.Skipped, skippedEntry{Name: failure.Name, Error: failure.Err.Error()})
	}

	return render(rc.stdout, rc.output, report, func() {
		for _, fn := range report.Functions {
			fmt.Fprintf(rc.stdout, "- %s:\n", styles.name.Render(fn.Name))
			fmt.Fprintf(rc.stdout, "\tInputs:  %s\n", formatNames(fn.Inputs))
			fmt.Fprintf(rc.stdout, "\tOutputs: %s\n", formatNames(fn.Outputs))
			fmt.Fprintln(rc.stdout)
		}
	})
}

func (rc *RootCommand) runDelete(app *AppContext, s *store.Store) error {
	exists, err := s.Exists(rc.delete)
	if err != nil {
		return err
	}
	if !exists {
		return &macro.FunctionError{Op: "delete", Name: rc.delete, Err: macro.ErrNotFound}
	}

	if !rc.confirm {
		fmt.Fprintf(rc.stdout, "Confirm delete %q (y/n): ", rc.delete)
		answer, err := bufio.NewReader(rc.stdin).ReadString('\n')
		if err != nil && !errors.Is(err, io.EOF) {
			return fmt.Errorf("read confirmation: %w", err)
		}
		if a := strings.TrimSpace(answer); a == "n" || a == "N" {
			fmt.Fprintln(rc.stdout, "Canceled delete")
			app.Logger.Debug("delete declined", slog.String("function", rc.delete))
			return nil
		}
	}
	return s.Delete(rc.delete)
}

func formatNames(names []string) string {
	if len(names) == 0 {
		return "[]"
	}
	return "[" + strings.Join(names, ", ") + "]"
}
