package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func noEnv(string) (string, bool) { return "", false }

func isolated(t *testing.T) Loader {
	t.Helper()
	return Loader{
		SearchPaths: []string{},
		DotEnv:      filepath.Join(t.TempDir(), "missing.env"),
		LookupEnv:   noEnv,
	}
}

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadDefaultsWhenNoFile(t *testing.T) {
	cfg, err := isolated(t).Load()
	require.NoError(t, err)

	assert.Equal(t, "<defaults>", cfg.Source)
	assert.Equal(t, "~/.robodesk/functions", cfg.Store.Path)
	assert.Equal(t, "<esc>+i", cfg.Recorder.InputHotkey)
	assert.Equal(t, "<esc>+o", cfg.Recorder.OutputHotkey)
	assert.Equal(t, "esc", cfg.Recorder.StopKey)
	assert.Equal(t, 100*time.Millisecond, cfg.Recorder.MoveInterval)
	assert.Equal(t, 500*time.Millisecond, cfg.Recorder.PollInterval)
	assert.True(t, cfg.Recorder.PromptExample)
	assert.Equal(t, 1.0, cfg.Player.Rate)
	assert.Equal(t, 10*time.Millisecond, cfg.Player.Jitter)
	assert.Equal(t, 20*time.Millisecond, cfg.Player.LagTolerance)
	assert.Equal(t, "clipboard", cfg.Player.PasteMode)
	assert.True(t, cfg.Player.ReleaseHeld)
	assert.True(t, cfg.Privacy.RedactEmails)
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.Equal(t, "console", cfg.Logging.Format)
}

func TestLoadFromFileOverridesDefaults(t *testing.T) {
	path := writeFile(t, "robodesk.yaml", `store:
  path: /tmp/functions
recorder:
  input_hotkey: "<ctrl>+i"
  move_interval: 50ms
  prompt_example: false
player:
  rate: 2.5
  lag_tolerance: 1s
  paste_mode: TYPE
  release_held: false
privacy:
  redact_emails: false
  redact_patterns:
    - "secret-[0-9]+"
    - "  "
logging:
  level: DEBUG
  format: json
`)
	loader := isolated(t)
	loader.Path = path

	cfg, err := loader.Load()
	require.NoError(t, err)

	assert.Equal(t, path, cfg.Source)
	assert.Equal(t, "/tmp/functions", cfg.Store.Path)
	assert.Equal(t, "<ctrl>+i", cfg.Recorder.InputHotkey)
	assert.Equal(t, "<esc>+o", cfg.Recorder.OutputHotkey)
	assert.Equal(t, 50*time.Millisecond, cfg.Recorder.MoveInterval)
	assert.False(t, cfg.Recorder.PromptExample)
	assert.Equal(t, 2.5, cfg.Player.Rate)
	assert.Equal(t, time.Second, cfg.Player.LagTolerance)
	assert.Equal(t, "type", cfg.Player.PasteMode)
	assert.False(t, cfg.Player.ReleaseHeld)
	assert.False(t, cfg.Privacy.RedactEmails)
	assert.Equal(t, []string{"secret-[0-9]+"}, cfg.Privacy.RedactPatterns)
	assert.Equal(t, "DEBUG", cfg.Logging.Level)
	assert.Equal(t, "json", cfg.Logging.Format)
}

func TestLoadRejectsUnknownKeys(t *testing.T) {
	loader := isolated(t)
	loader.Path = writeFile(t, "robodesk.yaml", "player:\n  speed: 3\n")

	_, err := loader.Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "decode config")
}

func TestLoadMissingExplicitFile(t *testing.T) {
	loader := isolated(t)
	loader.Path = filepath.Join(t.TempDir(), "nope.yaml")

	_, err := loader.Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not found")
}

func TestLoadSearchesPathsInOrder(t *testing.T) {
	second := writeFile(t, "second.yaml", "player:\n  rate: 3\n")
	loader := isolated(t)
	loader.SearchPaths = []string{filepath.Join(t.TempDir(), "absent.yaml"), second}

	cfg, err := loader.Load()
	require.NoError(t, err)
	assert.Equal(t, second, cfg.Source)
	assert.Equal(t, 3.0, cfg.Player.Rate)
}

func TestEnvironmentOverridesDotEnvAndFile(t *testing.T) {
	loader := isolated(t)
	loader.Path = writeFile(t, "robodesk.yaml", "player:\n  rate: 2\n  jitter: 5ms\nlogging:\n  level: warn\n")
	loader.DotEnv = writeFile(t, ".env", "ROBODESK_PLAYER_RATE=4\nROBODESK_LOGGING_LEVEL=error\nUNRELATED=1\n")
	loader.LookupEnv = func(name string) (string, bool) {
		if name == "ROBODESK_PLAYER_RATE" {
			return "0.5", true
		}
		return "", false
	}

	cfg, err := loader.Load()
	require.NoError(t, err)
	assert.Equal(t, 0.5, cfg.Player.Rate)
	assert.Equal(t, "error", cfg.Logging.Level)
	assert.Equal(t, 5*time.Millisecond, cfg.Player.Jitter)
}

func TestEnvironmentParsesDurationsAndLists(t *testing.T) {
	loader := isolated(t)
	loader.LookupEnv = func(name string) (string, bool) {
		switch name {
		case "ROBODESK_RECORDER_POLL_INTERVAL":
			return "250ms", true
		case "ROBODESK_PRIVACY_REDACT_PATTERNS":
			return "token,pin", true
		}
		return "", false
	}

	cfg, err := loader.Load()
	require.NoError(t, err)
	assert.Equal(t, 250*time.Millisecond, cfg.Recorder.PollInterval)
	assert.Equal(t, []string{"token", "pin"}, cfg.Privacy.RedactPatterns)
}

func TestValidateRejectsBadValues(t *testing.T) {
	tests := map[string]func(*Config){
		"empty store":     func(c *Config) { c.Store.Path = " " },
		"zero rate":       func(c *Config) { c.Player.Rate = 0 },
		"negative jitter": func(c *Config) { c.Player.Jitter = -time.Millisecond },
		"zero poll":       func(c *Config) { c.Recorder.PollInterval = 0 },
		"paste mode":      func(c *Config) { c.Player.PasteMode = "telepathy" },
		"log level":       func(c *Config) { c.Logging.Level = "verbose" },
		"log format":      func(c *Config) { c.Logging.Format = "xml" },
		"stop key":        func(c *Config) { c.Recorder.StopKey = "" },
	}
	for name, mutate := range tests {
		t.Run(name, func(t *testing.T) {
			cfg := Default()
			mutate(&cfg)
			assert.Error(t, cfg.Validate())
		})
	}
	assert.NoError(t, Default().Validate())
}

func TestNormalizers(t *testing.T) {
	level, err := NormalizeLogLevel(" Warning ")
	require.NoError(t, err)
	assert.Equal(t, "warn", level)

	format, err := NormalizeFormat("TEXT")
	require.NoError(t, err)
	assert.Equal(t, "console", format)

	mode, err := NormalizePasteMode("")
	require.NoError(t, err)
	assert.Equal(t, "clipboard", mode)
}
