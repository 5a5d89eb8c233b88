package input

import (
	"context"
	"io"
	"log/slog"
	"runtime"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/offlinefirst/robodesk/pkg/macro"
)

func TestScriptedHookServesSegmentsInOrder(t *testing.T) {
	base := time.Unix(100, 0)
	hook := NewScriptedHook(
		[]RawEvent{KeyDown("a", base), KeyUp("a", base.Add(time.Millisecond))},
		[]RawEvent{Move(1, 2, base)},
	)
	ctx := context.Background()

	first, err := hook.Listen(ctx)
	require.NoError(t, err)
	assert.Equal(t, KeyDown("a", base), <-first.Events())
	assert.Equal(t, KeyUp("a", base.Add(time.Millisecond)), <-first.Events())
	select {
	case ev := <-first.Events():
		t.Fatalf("unexpected event %+v", ev)
	default:
	}
	require.NoError(t, first.Stop())
	require.NoError(t, first.Stop())
	_, open := <-first.Events()
	assert.False(t, open)

	second, err := hook.Listen(ctx)
	require.NoError(t, err)
	assert.Equal(t, macro.KindMouseMove, (<-second.Events()).Kind)

	_, err = hook.Listen(ctx)
	assert.ErrorIs(t, err, ErrScriptExhausted)
	assert.Equal(t, 2, hook.Listens())
}

func TestScriptedHookHonoursCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := NewScriptedHook(nil).Listen(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestRawEventConversion(t *testing.T) {
	ev, ok := RawEvent{Kind: macro.KindMouseClick, X: 3, Y: 4, Button: macro.ButtonRight, Pressed: true}.Event()
	require.True(t, ok)
	assert.Equal(t, macro.MouseClick{X: 3, Y: 4, Button: macro.ButtonRight, Pressed: true}, ev)

	ev, ok = RawEvent{Kind: macro.KindMouseScroll, DY: -1}.Event()
	require.True(t, ok)
	assert.Equal(t, macro.MouseScroll{DY: -1}, ev)

	_, ok = RawEvent{Kind: macro.KindCopyToVariable}.Event()
	assert.False(t, ok)
}

func TestDryRunInjectorJournals(t *testing.T) {
	inj := NewDryRunInjector(slog.New(slog.NewTextHandler(io.Discard, nil)))
	require.NoError(t, inj.KeyDown("h"))
	require.NoError(t, inj.KeyUp("h"))
	require.NoError(t, inj.MoveTo(5, 6))
	require.NoError(t, inj.Button(macro.ButtonLeft, true))
	require.NoError(t, inj.Scroll(0, 2))
	require.NoError(t, inj.Type("hello"))

	calls := inj.Calls()
	require.Len(t, calls, 6)
	assert.Equal(t, Call{Op: "key_down", Key: "h"}, calls[0])
	assert.Equal(t, Call{Op: "move", X: 5, Y: 6}, calls[2])
	assert.Equal(t, Call{Op: "button", Button: macro.ButtonLeft, Pressed: true}, calls[3])
	assert.Equal(t, "hello", calls[5].Text)
}

func TestMemoryClipboard(t *testing.T) {
	clip := NewMemoryClipboard("seed")
	text, err := clip.ReadText()
	require.NoError(t, err)
	assert.Equal(t, "seed", text)

	require.NoError(t, clip.WriteText("one"))
	require.NoError(t, clip.WriteText("two"))
	text, _ = clip.ReadText()
	assert.Equal(t, "two", text)
	assert.Equal(t, []string{"one", "two"}, clip.Writes())
}

func TestDetectEnvironmentHonoursOverrides(t *testing.T) {
	denied := func(key string) (string, bool) {
		if key == "ROBODESK_INPUT_MONITORING" {
			return "denied", true
		}
		return "", false
	}
	env := detectEnvironment(denied)
	assert.False(t, env.Available)
	assert.Equal(t, ProviderDryRun, env.Provider)
	assert.Equal(t, "denied", env.Permission)
	assert.NotEmpty(t, env.Guidance)

	granted := func(string) (string, bool) { return "granted", true }
	env = detectEnvironment(granted)
	assert.Equal(t, nativeSupported, env.Available)
	assert.Equal(t, "granted", env.Clipboard)
}

func TestOpenDryRun(t *testing.T) {
	backend, err := Open(OpenOptions{DryRun: true})
	require.NoError(t, err)
	assert.Equal(t, ProviderDryRun, backend.Provider)
	assert.Nil(t, backend.Hook)
	assert.IsType(t, &DryRunInjector{}, backend.Injector)
	assert.IsType(t, &MemoryClipboard{}, backend.Clipboard)
}

func TestOpenNativeUnsupported(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("native backend available")
	}
	_, err := Open(OpenOptions{})
	assert.ErrorIs(t, err, ErrUnsupported)
}
