// Package logging builds the structured loggers used across robodesk.
package logging

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/log"

	"github.com/offlinefirst/robodesk/pkg/config"
)

// Options describe how to configure a logger instance.
type Options struct {
	Level  string
	Format string
	Output io.Writer
	// Prefix is shown ahead of console messages.
	Prefix string
}

// New creates a structured logger. JSON output uses slog's JSON handler with
// UTC timestamps; console output renders through a styled charm logger.
func New(opts Options) (*slog.Logger, error) {
	lvl, err := parseLevel(opts.Level)
	if err != nil {
		return nil, err
	}

	out := opts.Output
	if out == nil {
		out = os.Stderr
	}

	format, err := config.NormalizeFormat(opts.Format)
	if err != nil {
		return nil, err
	}

	var handler slog.Handler
	switch format {
	case "json":
		handler = slog.NewJSONHandler(out, &slog.HandlerOptions{
			Level:       lvl,
			ReplaceAttr: replaceTimeAttr,
		})
	case "console":
		handler = newConsoleLogger(out, lvl, opts.Prefix)
	default:
		return nil, fmt.Errorf("unhandled log format %q", format)
	}

	return slog.New(handler), nil
}

// Discard returns a logger that drops every record.
func Discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: slog.LevelError + 1}))
}

func parseLevel(level string) (slog.Level, error) {
	normalized, err := config.NormalizeLogLevel(level)
	if err != nil {
		return 0, err
	}

	switch normalized {
	case "info":
		return slog.LevelInfo, nil
	case "debug":
		return slog.LevelDebug, nil
	case "warn":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return 0, fmt.Errorf("unhandled log level %q", normalized)
	}
}

func newConsoleLogger(out io.Writer, lvl slog.Level, prefix string) *log.Logger {
	styles := log.DefaultStyles()
	styles.Levels[log.DebugLevel] = badge("DEBUG", "240")
	styles.Levels[log.InfoLevel] = badge("INFO", "33")
	styles.Levels[log.WarnLevel] = badge("WARN", "214")
	styles.Levels[log.ErrorLevel] = badge("ERROR", "196")

	styles.Keys["function"] = lipgloss.NewStyle().Foreground(lipgloss.Color("51"))
	styles.Keys["variable"] = lipgloss.NewStyle().Foreground(lipgloss.Color("39"))
	styles.Keys["err"] = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	styles.Values["function"] = lipgloss.NewStyle().Bold(true)
	styles.Values["err"] = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("196"))

	logger := log.NewWithOptions(out, log.Options{
		Level:           log.Level(lvl),
		ReportTimestamp: true,
		TimeFormat:      time.Kitchen,
	})
	if prefix != "" {
		logger.SetPrefix(prefix + " ")
	}
	logger.SetStyles(styles)
	return logger
}

func badge(label, background string) lipgloss.Style {
	return lipgloss.NewStyle().
		SetString(label).
		Padding(0, 1, 0, 1).
		Background(lipgloss.Color(background)).
		Foreground(lipgloss.Color("15"))
}

func replaceTimeAttr(_ []string, attr slog.Attr) slog.Attr {
	if attr.Key == slog.TimeKey && attr.Value.Kind() == slog.KindTime {
		attr.Value = slog.StringValue(attr.Value.Time().UTC().Format(time.RFC3339))
	}
	return attr
}
