package cmd

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/offlinefirst/robodesk/internal/buildinfo"
	"github.com/offlinefirst/robodesk/pkg/input"
	"github.com/offlinefirst/robodesk/pkg/macro"
	"github.com/offlinefirst/robodesk/pkg/store"
)

type cliResult struct {
	stdout string
	stderr string
	err    error
}

type harness struct {
	t         *testing.T
	dir       string
	config    string
	injector  *input.DryRunInjector
	clipboard *input.MemoryClipboard
	hook      input.Hook
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	h := &harness{
		t:         t,
		dir:       t.TempDir(),
		injector:  input.NewDryRunInjector(nil),
		clipboard: input.NewMemoryClipboard("copied"),
	}
	h.config = filepath.Join(t.TempDir(), "robodesk.yaml")
	require.NoError(t, os.WriteFile(h.config, []byte("logging:\n  level: error\nplayer:\n  jitter: 0s\n"), 0o644))

	orig := newBackend
	newBackend = func(opts input.OpenOptions) (input.Backend, error) {
		provider := input.ProviderNative
		if opts.DryRun {
			provider = input.ProviderDryRun
		}
		return input.Backend{Provider: provider, Hook: h.hook, Injector: h.injector, Clipboard: h.clipboard}, nil
	}
	t.Cleanup(func() { newBackend = orig })
	return h
}

func (h *harness) run(ctx context.Context, stdin string, args ...string) cliResult {
	h.t.Helper()
	var stdout, stderr bytes.Buffer
	root := NewRootCommand()
	root.SetIO(strings.NewReader(stdin), &stdout, &stderr)
	full := append([]string{"--config", h.config, "--path", h.dir}, args...)
	err := root.Execute(ctx, full)
	return cliResult{stdout: stdout.String(), stderr: stderr.String(), err: err}
}

func (h *harness) store() *store.Store {
	h.t.Helper()
	backend, err := store.OpenFileBackend(h.dir)
	require.NoError(h.t, err)
	return store.New(store.Options{Backend: backend})
}

func (h *harness) save(name string, fn macro.Function) {
	h.t.Helper()
	require.NoError(h.t, h.store().Save(name, fn))
}

func greetingFunction() macro.Function {
	return macro.Function{
		Events: []macro.TimedEvent{
			macro.At(0, macro.CopyToVariable{Name: "result"}),
			macro.At(0.01, macro.PasteFromVariable{Name: "greeting"}),
			macro.At(0.02, macro.KeyPress{Key: "a"}),
			macro.At(0.03, macro.KeyRelease{Key: "a"}),
		},
		InputVariables:  []string{"greeting"},
		OutputVariables: []string{"result"},
	}
}

func TestNoActionPrintsHelp(t *testing.T) {
	h := newHarness(t)
	res := h.run(context.Background(), "")
	require.NoError(t, res.err)
	assert.Contains(t, res.stdout, "robodesk records keyboard and mouse activity")
	assert.Contains(t, res.stdout, "--record")
}

func TestListText(t *testing.T) {
	h := newHarness(t)
	h.save("hi", greetingFunction())
	h.save("empty", macro.Function{Events: []macro.TimedEvent{macro.At(0, macro.KeyPress{Key: "x"})}})

	res := h.run(context.Background(), "", "-l")
	require.NoError(t, res.err)
	assert.Contains(t, res.stdout, "- hi:\n\tInputs:  [greeting]\n\tOutputs: [result]\n")
	assert.Contains(t, res.stdout, "- empty:\n\tInputs:  []\n\tOutputs: []\n")
	assert.Less(t, strings.Index(res.stdout, "empty"), strings.Index(res.stdout, "hi"))
}

func TestListJSONReportsSkippedEntries(t *testing.T) {
	h := newHarness(t)
	h.save("hi", greetingFunction())
	require.NoError(t, os.WriteFile(filepath.Join(h.dir, "broken"), []byte("not json"), 0o644))

	res := h.run(context.Background(), "", "-l", "-o", "json")
	require.NoError(t, res.err)

	var report listReport
	require.NoError(t, json.Unmarshal([]byte(res.stdout), &report))
	require.Len(t, report.Functions, 1)
	assert.Equal(t, "hi", report.Functions[0].Name)
	assert.Equal(t, 4, report.Functions[0].Events)
	require.Len(t, report.Skipped, 1)
	assert.Equal(t, "broken", report.Skipped[0].Name)
}

func TestListWarnsOncePerCorruptEntry(t *testing.T) {
	h := newHarness(t)
	h.save("hi", greetingFunction())
	require.NoError(t, os.WriteFile(filepath.Join(h.dir, "broken"), []byte("not json"), 0o644))

	res := h.run(context.Background(), "", "-l", "--log-level", "warn", "--log-format", "json")
	require.NoError(t, res.err)
	assert.Equal(t, 1, strings.Count(res.stderr, "skipping unreadable function"), res.stderr)
	assert.Contains(t, res.stderr, `"name":"broken"`)
}

func TestPlayPastesInputsAndPrintsOutputs(t *testing.T) {
	h := newHarness(t)
	h.save("hi", greetingFunction())

	res := h.run(context.Background(), "", "-p", "hi", "-i", "greeting=HELLO", "--rate", "50", "--dry-run")
	require.NoError(t, res.err, res.stderr)
	assert.Equal(t, "result=copied\n", res.stdout)
	assert.Equal(t, []string{"HELLO"}, h.clipboard.Writes())

	calls := h.injector.Calls()
	require.Len(t, calls, 2)
	assert.Equal(t, "key_down", calls[0].Op)
	assert.Equal(t, "key_up", calls[1].Op)
}

func TestPlayYAMLReport(t *testing.T) {
	h := newHarness(t)
	h.save("hi", greetingFunction())

	res := h.run(context.Background(), "", "-p", "hi", "-i", "greeting=x", "--rate", "50", "-o", "yaml")
	require.NoError(t, res.err, res.stderr)

	var report map[string]any
	require.NoError(t, yaml.Unmarshal([]byte(res.stdout), &report))
	assert.Equal(t, "hi", report["function"])
	assert.EqualValues(t, 50, report["rate"])
	assert.Equal(t, map[string]any{"result": "copied"}, report["outputs"])
	stats, ok := report["stats"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, 4, stats["events"])
}

func TestPlayMissingInputInjectsNothing(t *testing.T) {
	h := newHarness(t)
	h.save("hi", greetingFunction())

	res := h.run(context.Background(), "", "-p", "hi")
	require.Error(t, res.err)
	assert.ErrorIs(t, res.err, macro.ErrMissingInput)
	assert.Equal(t, 1, ExitCode(res.err))
	assert.Contains(t, res.stderr, "greeting")
	assert.Empty(t, h.injector.Calls())
	assert.Empty(t, h.clipboard.Writes())
}

func TestPlayUnknownFunction(t *testing.T) {
	h := newHarness(t)
	res := h.run(context.Background(), "", "-p", "nope")
	assert.ErrorIs(t, res.err, macro.ErrNotFound)
}

func TestPlayMalformedInputs(t *testing.T) {
	h := newHarness(t)
	h.save("hi", greetingFunction())
	res := h.run(context.Background(), "", "-p", "hi", "-i", "greeting")
	require.Error(t, res.err)
	assert.Empty(t, h.injector.Calls())
}

func TestPlayInterruptedPrintsCanceled(t *testing.T) {
	h := newHarness(t)
	h.save("slow", macro.Function{Events: []macro.TimedEvent{
		macro.At(0, macro.KeyPress{Key: "a"}),
		macro.At(30, macro.KeyRelease{Key: "a"}),
	}})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	res := h.run(ctx, "", "-p", "slow", "--dry-run")
	require.ErrorIs(t, res.err, context.Canceled)
	assert.Equal(t, 130, ExitCode(res.err))
	assert.Contains(t, res.stdout, "Canceled")
	assert.Empty(t, h.injector.Calls())
}

func TestInputsRequirePlay(t *testing.T) {
	h := newHarness(t)
	res := h.run(context.Background(), "", "-l", "-i", "a=1")
	assert.Error(t, res.err)
}

func TestActionsAreMutuallyExclusive(t *testing.T) {
	h := newHarness(t)
	res := h.run(context.Background(), "", "-l", "--delete", "hi")
	assert.Error(t, res.err)
}

func TestDeleteConfirmation(t *testing.T) {
	h := newHarness(t)
	h.save("hi", greetingFunction())

	res := h.run(context.Background(), "n\n", "--delete", "hi")
	require.NoError(t, res.err)
	assert.Contains(t, res.stdout, `Confirm delete "hi" (y/n): `)
	assert.Contains(t, res.stdout, "Canceled delete")
	exists, err := h.store().Exists("hi")
	require.NoError(t, err)
	assert.True(t, exists)

	res = h.run(context.Background(), "yes please\n", "--delete", "hi")
	require.NoError(t, res.err)
	exists, err = h.store().Exists("hi")
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestDeleteWithYesAndMissing(t *testing.T) {
	h := newHarness(t)
	h.save("hi", greetingFunction())

	res := h.run(context.Background(), "", "--delete", "hi", "--yes")
	require.NoError(t, res.err)
	assert.NotContains(t, res.stdout, "Confirm")

	res = h.run(context.Background(), "", "--delete", "hi", "--yes")
	assert.ErrorIs(t, res.err, macro.ErrNotFound)
}

func TestRecordSavesFunction(t *testing.T) {
	h := newHarness(t)
	h.hook = input.NewScriptedHook([]input.RawEvent{
		input.KeyDown("a", time.Time{}),
		input.KeyUp("a", time.Time{}),
		input.KeyDown(macro.KeyEsc, time.Time{}),
		input.KeyUp(macro.KeyEsc, time.Time{}),
	})

	res := h.run(context.Background(), "", "-r", "typed")
	require.NoError(t, res.err, res.stderr)
	assert.Contains(t, res.stdout, "Starting recording ...")
	assert.Contains(t, res.stdout, "Saved typed (3 events")

	fn, err := h.store().Load("typed")
	require.NoError(t, err)
	require.Len(t, fn.Events, 3)
	assert.Equal(t, macro.KeyPress{Key: "a"}, fn.Events[0].Event)
	assert.Zero(t, fn.Events[0].Timestamp)
}

func TestRecordRefusesExistingName(t *testing.T) {
	h := newHarness(t)
	h.hook = input.NewScriptedHook()
	h.save("hi", greetingFunction())

	res := h.run(context.Background(), "", "-r", "hi")
	assert.ErrorIs(t, res.err, macro.ErrAlreadyExists)
}

func TestRecordWithoutHook(t *testing.T) {
	h := newHarness(t)
	res := h.run(context.Background(), "", "-r", "typed")
	require.Error(t, res.err)
	assert.Contains(t, res.err.Error(), "input hook")
}

func TestShowDescribesFunction(t *testing.T) {
	h := newHarness(t)
	h.save("hi", greetingFunction())

	res := h.run(context.Background(), "", "show", "hi")
	require.NoError(t, res.err)
	assert.Contains(t, res.stdout, "events:   4 over 0.03s")
	assert.Contains(t, res.stdout, "inputs:   [greeting]")
	assert.Contains(t, res.stdout, "copy_to_variable")

	res = h.run(context.Background(), "", "show", "missing")
	assert.ErrorIs(t, res.err, macro.ErrNotFound)
}

func TestDoctorReportsEnvironment(t *testing.T) {
	h := newHarness(t)
	orig := detectEnvironment
	detectEnvironment = func() input.Environment {
		return input.Environment{Provider: input.ProviderDryRun, Guidance: "playback is still possible with --dry-run"}
	}
	t.Cleanup(func() { detectEnvironment = orig })

	res := h.run(context.Background(), "", "doctor")
	require.NoError(t, res.err)
	assert.Contains(t, res.stdout, "provider: dry_run unavailable")
	assert.Contains(t, res.stdout, "input monitoring:")
	assert.Contains(t, res.stdout, "--dry-run")
	assert.Contains(t, res.stdout, h.config)
}

func TestVersionJSON(t *testing.T) {
	h := newHarness(t)
	orig := readBuildInfo
	readBuildInfo = func() buildinfo.Info {
		return buildinfo.Info{Version: "v9.9.9", GoVersion: "go1.24.4", Platform: "linux/amd64"}
	}
	t.Cleanup(func() { readBuildInfo = orig })

	res := h.run(context.Background(), "", "version")
	require.NoError(t, res.err)
	assert.Equal(t, "robodesk v9.9.9 (go1.24.4/linux/amd64)\n", res.stdout)

	res = h.run(context.Background(), "", "version", "-o", "json")
	require.NoError(t, res.err)
	var info buildinfo.Info
	require.NoError(t, json.Unmarshal([]byte(res.stdout), &info))
	assert.Equal(t, "v9.9.9", info.Version)
}

func TestUnsupportedOutputFormat(t *testing.T) {
	h := newHarness(t)
	res := h.run(context.Background(), "", "-l", "-o", "xml")
	require.Error(t, res.err)
	assert.Contains(t, res.stderr, "unsupported output format")
}
