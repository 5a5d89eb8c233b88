package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"gopkg.in/yaml.v3"

	"github.com/offlinefirst/robodesk/pkg/macro"
	"github.com/offlinefirst/robodesk/pkg/store"
)

var styles = struct {
	name lipgloss.Style
	ok   lipgloss.Style
	warn lipgloss.Style
	err  lipgloss.Style
	dim  lipgloss.Style
}{
	name: lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("51")),
	ok:   lipgloss.NewStyle().Foreground(lipgloss.Color("46")),
	warn: lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("214")),
	err:  lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("196")),
	dim:  lipgloss.NewStyle().Foreground(lipgloss.Color("240")),
}

func checkOutputFormat(format string) error {
	switch strings.ToLower(strings.TrimSpace(format)) {
	case "", "text", "json", "yaml":
		return nil
	default:
		return fmt.Errorf("unsupported output format %q (want text, json or yaml)", format)
	}
}

// render writes v as JSON or YAML, or calls text for the human format.
func render(w io.Writer, format string, v any, text func()) error {
	switch strings.ToLower(strings.TrimSpace(format)) {
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	case "yaml":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(v); err != nil {
			return err
		}
		return enc.Close()
	case "", "text":
		text()
		return nil
	default:
		return checkOutputFormat(format)
	}
}

// functionSummary is the listing and show view of a stored function.
type functionSummary struct {
	Name            string         `json:"name" yaml:"name"`
	ID              string         `json:"id,omitempty" yaml:"id,omitempty"`
	CreatedAt       time.Time      `json:"created_at" yaml:"created_at"`
	Hostname        string         `json:"hostname,omitempty" yaml:"hostname,omitempty"`
	AppVersion      string         `json:"app_version,omitempty" yaml:"app_version,omitempty"`
	Events          int            `json:"events" yaml:"events"`
	DurationSeconds float64        `json:"duration_seconds" yaml:"duration_seconds"`
	Inputs          []string       `json:"inputs" yaml:"inputs"`
	Outputs         []string       `json:"outputs" yaml:"outputs"`
	Kinds           map[string]int `json:"kinds,omitempty" yaml:"kinds,omitempty"`
}

func summarize(entry store.Entry) functionSummary {
	fn := entry.Function
	summary := functionSummary{
		Name:            entry.Name,
		ID:              entry.ID,
		CreatedAt:       entry.CreatedAt,
		Hostname:        entry.Hostname,
		AppVersion:      entry.AppVersion,
		Events:          len(fn.Events),
		DurationSeconds: fn.Duration(),
		Inputs:          nonNil(fn.InputVariables),
		Outputs:         nonNil(fn.OutputVariables),
	}
	if len(fn.Events) > 0 {
		summary.Kinds = make(map[string]int)
		for _, te := range fn.Events {
			summary.Kinds[string(kindOf(te))]++
		}
	}
	return summary
}

func kindOf(te macro.TimedEvent) macro.Kind {
	if te.Event == nil {
		return ""
	}
	return te.Event.Kind()
}

func nonNil(names []string) []string {
	if names == nil {
		return []string{}
	}
	return names
}
