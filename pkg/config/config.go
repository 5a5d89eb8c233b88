// Package config loads robodesk settings from defaults, an optional YAML
// file, an optional .env file and ROBODESK_* environment variables, in
// increasing order of precedence.
package config

import (
	"errors"
	"fmt"
	"math"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/offlinefirst/robodesk/pkg/store"
)

// EnvPrefix is the prefix of environment variables that override settings.
const EnvPrefix = "ROBODESK"

// DefaultFileName is looked up in the working directory when no path is given.
const DefaultFileName = "robodesk.yaml"

// Config captures the user-adjustable knobs.
type Config struct {
	Store    StoreConfig    `mapstructure:"store" yaml:"store" json:"store"`
	Recorder RecorderConfig `mapstructure:"recorder" yaml:"recorder" json:"recorder"`
	Player   PlayerConfig   `mapstructure:"player" yaml:"player" json:"player"`
	Privacy  PrivacyConfig  `mapstructure:"privacy" yaml:"privacy" json:"privacy"`
	Logging  LoggingConfig  `mapstructure:"logging" yaml:"logging" json:"logging"`

	// Source indicates where the configuration originated (defaults or a file path).
	Source string `mapstructure:"-" yaml:"-" json:"source"`
}

// StoreConfig locates the function store.
type StoreConfig struct {
	Path string `mapstructure:"path" yaml:"path" json:"path"`
}

// RecorderConfig controls hotkeys and capture cadence.
type RecorderConfig struct {
	InputHotkey   string        `mapstructure:"input_hotkey" yaml:"input_hotkey" json:"input_hotkey"`
	OutputHotkey  string        `mapstructure:"output_hotkey" yaml:"output_hotkey" json:"output_hotkey"`
	StopKey       string        `mapstructure:"stop_key" yaml:"stop_key" json:"stop_key"`
	MoveInterval  time.Duration `mapstructure:"move_interval" yaml:"move_interval" json:"move_interval"`
	PollInterval  time.Duration `mapstructure:"poll_interval" yaml:"poll_interval" json:"poll_interval"`
	PromptExample bool          `mapstructure:"prompt_example" yaml:"prompt_example" json:"prompt_example"`
}

// PlayerConfig controls replay pacing and variable delivery.
type PlayerConfig struct {
	Rate         float64       `mapstructure:"rate" yaml:"rate" json:"rate"`
	Jitter       time.Duration `mapstructure:"jitter" yaml:"jitter" json:"jitter"`
	LagTolerance time.Duration `mapstructure:"lag_tolerance" yaml:"lag_tolerance" json:"lag_tolerance"`
	PasteMode    string        `mapstructure:"paste_mode" yaml:"paste_mode" json:"paste_mode"`
	ReleaseHeld  bool          `mapstructure:"release_held" yaml:"release_held" json:"release_held"`
}

// PrivacyConfig configures masking of variable values in logs.
type PrivacyConfig struct {
	RedactEmails   bool     `mapstructure:"redact_emails" yaml:"redact_emails" json:"redact_emails"`
	RedactPatterns []string `mapstructure:"redact_patterns" yaml:"redact_patterns" json:"redact_patterns"`
}

// LoggingConfig defines log verbosity and formatting.
type LoggingConfig struct {
	Level  string `mapstructure:"level" yaml:"level" json:"level"`
	Format string `mapstructure:"format" yaml:"format" json:"format"`
}

// Default returns the baseline configuration used when no overrides are supplied.
func Default() Config {
	return Config{
		Store: StoreConfig{Path: "~/.robodesk/functions"},
		Recorder: RecorderConfig{
			InputHotkey:   "<esc>+i",
			OutputHotkey:  "<esc>+o",
			StopKey:       "esc",
			MoveInterval:  100 * time.Millisecond,
			PollInterval:  500 * time.Millisecond,
			PromptExample: true,
		},
		Player: PlayerConfig{
			Rate:         1.0,
			Jitter:       10 * time.Millisecond,
			LagTolerance: 20 * time.Millisecond,
			PasteMode:    "clipboard",
			ReleaseHeld:  true,
		},
		Privacy: PrivacyConfig{RedactEmails: true},
		Logging: LoggingConfig{Level: "info", Format: "console"},
		Source:  "<defaults>",
	}
}

// Loader resolves configuration sources. The zero value searches
// ./robodesk.yaml then ~/.robodesk/config.yaml and reads ./.env.
type Loader struct {
	// Path is an explicit config file; it must exist when set.
	Path string
	// SearchPaths are tried in order when Path is empty.
	SearchPaths []string
	// DotEnv is the .env file to read; a missing file is ignored.
	DotEnv string
	// LookupEnv resolves environment variables.
	LookupEnv func(string) (string, bool)
}

// Load reads configuration using the default search order.
func Load(path string) (Config, error) {
	return Loader{Path: path}.Load()
}

// Load resolves, validates and returns the configuration.
func (l Loader) Load() (Config, error) {
	cfg := Default()
	lookup := l.LookupEnv
	if lookup == nil {
		lookup = os.LookupEnv
	}

	v := viper.New()
	v.SetConfigType("yaml")
	setDefaults(v, cfg)

	source, err := l.resolveFile()
	if err != nil {
		return cfg, err
	}
	if source != "" {
		v.SetConfigFile(source)
		if err := v.ReadInConfig(); err != nil {
			return cfg, fmt.Errorf("read config file %q: %w", source, err)
		}
	}

	overrides, err := l.environment(lookup)
	if err != nil {
		return cfg, err
	}
	for key, value := range overrides {
		v.Set(key, value)
	}

	if err := v.UnmarshalExact(&cfg); err != nil {
		return cfg, fmt.Errorf("decode config: %w", err)
	}
	cfg.Source = "<defaults>"
	if source != "" {
		cfg.Source = source
	}
	cfg.normalize()

	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func (l Loader) resolveFile() (string, error) {
	if explicit := strings.TrimSpace(l.Path); explicit != "" {
		path, err := store.ExpandHome(explicit)
		if err != nil {
			return "", err
		}
		if _, err := os.Stat(path); err != nil {
			if errors.Is(err, os.ErrNotExist) {
				return "", fmt.Errorf("config file %q not found", explicit)
			}
			return "", fmt.Errorf("open config file %q: %w", explicit, err)
		}
		return path, nil
	}

	candidates := l.SearchPaths
	if candidates == nil {
		candidates = []string{DefaultFileName, "~/.robodesk/config.yaml"}
	}
	for _, candidate := range candidates {
		path, err := store.ExpandHome(candidate)
		if err != nil {
			continue
		}
		if info, err := os.Stat(path); err == nil && !info.IsDir() {
			return path, nil
		}
	}
	return "", nil
}

// environment collects ROBODESK_* overrides, with real environment
// variables taking precedence over the .env file.
func (l Loader) environment(lookup func(string) (string, bool)) (map[string]string, error) {
	values := make(map[string]string)

	dotenv := l.DotEnv
	if dotenv == "" {
		dotenv = ".env"
	}
	if data, err := os.ReadFile(dotenv); err == nil {
		parsed, err := godotenv.Unmarshal(string(data))
		if err != nil {
			return nil, fmt.Errorf("parse %s: %w", dotenv, err)
		}
		for name, value := range parsed {
			if key, ok := settingKey(name); ok {
				values[key] = value
			}
		}
	} else if !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("read %s: %w", dotenv, err)
	}

	for _, key := range settingKeys() {
		if value, ok := lookup(envName(key)); ok {
			values[key] = value
		}
	}
	return values, nil
}

var keys = []string{
	"store.path",
	"recorder.input_hotkey",
	"recorder.output_hotkey",
	"recorder.stop_key",
	"recorder.move_interval",
	"recorder.poll_interval",
	"recorder.prompt_example",
	"player.rate",
	"player.jitter",
	"player.lag_tolerance",
	"player.paste_mode",
	"player.release_held",
	"privacy.redact_emails",
	"privacy.redact_patterns",
	"logging.level",
	"logging.format",
}

func settingKeys() []string {
	return keys
}

// envName maps "player.lag_tolerance" to "ROBODESK_PLAYER_LAG_TOLERANCE".
func envName(key string) string {
	return EnvPrefix + "_" + strings.ToUpper(strings.ReplaceAll(key, ".", "_"))
}

func settingKey(name string) (string, bool) {
	for _, key := range keys {
		if envName(key) == name {
			return key, true
		}
	}
	return "", false
}

func setDefaults(v *viper.Viper, cfg Config) {
	v.SetDefault("store.path", cfg.Store.Path)
	v.SetDefault("recorder.input_hotkey", cfg.Recorder.InputHotkey)
	v.SetDefault("recorder.output_hotkey", cfg.Recorder.OutputHotkey)
	v.SetDefault("recorder.stop_key", cfg.Recorder.StopKey)
	v.SetDefault("recorder.move_interval", cfg.Recorder.MoveInterval)
	v.SetDefault("recorder.poll_interval", cfg.Recorder.PollInterval)
	v.SetDefault("recorder.prompt_example", cfg.Recorder.PromptExample)
	v.SetDefault("player.rate", cfg.Player.Rate)
	v.SetDefault("player.jitter", cfg.Player.Jitter)
	v.SetDefault("player.lag_tolerance", cfg.Player.LagTolerance)
	v.SetDefault("player.paste_mode", cfg.Player.PasteMode)
	v.SetDefault("player.release_held", cfg.Player.ReleaseHeld)
	v.SetDefault("privacy.redact_emails", cfg.Privacy.RedactEmails)
	v.SetDefault("privacy.redact_patterns", cfg.Privacy.RedactPatterns)
	v.SetDefault("logging.level", cfg.Logging.Level)
	v.SetDefault("logging.format", cfg.Logging.Format)
}

// Validate ensures essential configuration values are present and sensible.
func (c Config) Validate() error {
	if strings.TrimSpace(c.Store.Path) == "" {
		return errors.New("store.path must not be empty")
	}
	if strings.TrimSpace(c.Recorder.InputHotkey) == "" || strings.TrimSpace(c.Recorder.OutputHotkey) == "" {
		return errors.New("recorder hotkeys must not be empty")
	}
	if strings.TrimSpace(c.Recorder.StopKey) == "" {
		return errors.New("recorder.stop_key must not be empty")
	}
	if c.Recorder.MoveInterval < 0 {
		return errors.New("recorder.move_interval must not be negative")
	}
	if c.Recorder.PollInterval <= 0 {
		return errors.New("recorder.poll_interval must be positive")
	}
	if math.IsNaN(c.Player.Rate) || math.IsInf(c.Player.Rate, 0) || c.Player.Rate <= 0 {
		return errors.New("player.rate must be a finite number greater than zero")
	}
	if c.Player.Jitter < 0 {
		return errors.New("player.jitter must not be negative")
	}
	if c.Player.LagTolerance < 0 {
		return errors.New("player.lag_tolerance must not be negative")
	}
	if _, err := NormalizePasteMode(c.Player.PasteMode); err != nil {
		return err
	}
	if _, err := NormalizeLogLevel(c.Logging.Level); err != nil {
		return err
	}
	if _, err := NormalizeFormat(c.Logging.Format); err != nil {
		return err
	}
	return nil
}

func (c *Config) normalize() {
	defaults := Default()

	c.Store.Path = strings.TrimSpace(c.Store.Path)
	if c.Store.Path == "" {
		c.Store.Path = defaults.Store.Path
	}
	if strings.TrimSpace(c.Logging.Level) == "" {
		c.Logging.Level = defaults.Logging.Level
	}
	if strings.TrimSpace(c.Logging.Format) == "" {
		c.Logging.Format = defaults.Logging.Format
	}
	if mode, err := NormalizePasteMode(c.Player.PasteMode); err == nil {
		c.Player.PasteMode = mode
	}
	var patterns []string
	for _, p := range c.Privacy.RedactPatterns {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			patterns = append(patterns, trimmed)
		}
	}
	c.Privacy.RedactPatterns = patterns
}

// NormalizeLogLevel validates and canonicalizes log level identifiers.
func NormalizeLogLevel(level string) (string, error) {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "", "info":
		return "info", nil
	case "debug":
		return "debug", nil
	case "warn", "warning":
		return "warn", nil
	case "error":
		return "error", nil
	default:
		return "", fmt.Errorf("unsupported log level %q", level)
	}
}

// NormalizeFormat validates and canonicalizes logging format identifiers.
func NormalizeFormat(format string) (string, error) {
	switch strings.ToLower(strings.TrimSpace(format)) {
	case "", "console", "text":
		return "console", nil
	case "json":
		return "json", nil
	default:
		return "", fmt.Errorf("unsupported log format %q", format)
	}
}

// NormalizePasteMode validates how input variables are delivered.
func NormalizePasteMode(mode string) (string, error) {
	switch strings.ToLower(strings.TrimSpace(mode)) {
	case "", "clipboard":
		return "clipboard", nil
	case "type", "typing":
		return "type", nil
	default:
		return "", fmt.Errorf("unsupported player.paste_mode %q", mode)
	}
}
