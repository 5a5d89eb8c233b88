// Package permissions reports whether the host will let robodesk observe
// and synthesize input and use the clipboard.
package permissions

import (
	"os"
	"runtime"
	"strings"
)

// Status enumerates coarse permission results.
type Status string

const (
	// StatusUnknown indicates no explicit signal about permission state.
	StatusUnknown Status = "unknown"
	// StatusGranted signals that the capability can be used.
	StatusGranted Status = "granted"
	// StatusDenied indicates the user has explicitly denied access.
	StatusDenied Status = "denied"
	// StatusPromptRequired means the platform will prompt at runtime.
	StatusPromptRequired Status = "prompt"
	// StatusUnavailable reports that the capability is not supported.
	StatusUnavailable Status = "unavailable"
)

// Environment variables that override check results.
const (
	EnvInputMonitoring = "ROBODESK_INPUT_MONITORING"
	EnvAccessibility   = "ROBODESK_ACCESSIBILITY"
	EnvClipboard       = "ROBODESK_CLIPBOARD"
)

// CheckResult represents the coarse state for a permission surface.
type CheckResult struct {
	Status   Status
	Message  string
	Guidance string
}

// LookupEnvFunc exposes environment lookups for testability.
type LookupEnvFunc func(string) (string, bool)

// lookupEnv is declared for swapping in tests.
var lookupEnv = func(key string) (string, bool) {
	return os.LookupEnv(key)
}

// goos is declared for swapping in tests.
var goos = runtime.GOOS

type trustState int

const (
	trustUnknown trustState = iota
	trustGranted
	trustMissing
)

// accessibilityTrust is declared for swapping in tests.
var accessibilityTrust = processTrust

const accessibilityGuidance = "allow the terminal under System Settings > Privacy & Security > Accessibility"

// darwinTrust maps the process accessibility trust onto a result. Missing
// trust still counts as usable because the first listen raises the macOS
// consent prompt.
func darwinTrust(subject string) CheckResult {
	switch accessibilityTrust() {
	case trustGranted:
		return CheckResult{Status: StatusGranted, Message: subject + ": accessibility trust granted"}
	case trustMissing:
		return CheckResult{Status: StatusPromptRequired, Message: subject + ": accessibility trust not granted yet; macOS prompts on first use", Guidance: accessibilityGuidance}
	default:
		return CheckResult{Status: StatusUnavailable, Message: subject + ": built without cgo, the Quartz backend is unavailable", Guidance: "rebuild with CGO_ENABLED=1 or use --dry-run"}
	}
}

// CheckInputMonitoring reports whether global keyboard and mouse events can
// be observed.
func CheckInputMonitoring(lookup LookupEnvFunc) CheckResult {
	if lookup == nil {
		lookup = lookupEnv
	}
	if value, ok := lookup(EnvInputMonitoring); ok {
		return interpretPermissionFlag("input monitoring", value)
	}
	switch goos {
	case "windows":
		return CheckResult{Status: StatusGranted, Message: "low-level input hooks need no extra permission"}
	case "darwin":
		return darwinTrust("event tap")
	default:
		return CheckResult{Status: StatusUnavailable, Message: "global input hooks unsupported on this platform"}
	}
}

// CheckAccessibility reports whether synthetic input can be injected.
func CheckAccessibility(lookup LookupEnvFunc) CheckResult {
	if lookup == nil {
		lookup = lookupEnv
	}
	if value, ok := lookup(EnvAccessibility); ok {
		return interpretPermissionFlag("accessibility", value)
	}
	switch goos {
	case "windows":
		return CheckResult{Status: StatusGranted, Message: "SendInput available", Guidance: "elevated windows ignore input from a non-elevated process"}
	case "darwin":
		return darwinTrust("CGEventPost")
	default:
		return CheckResult{Status: StatusUnavailable, Message: "input injection unsupported on this platform"}
	}
}

// CheckClipboard reports whether the system clipboard is reachable.
func CheckClipboard(lookup LookupEnvFunc) CheckResult {
	if lookup == nil {
		lookup = lookupEnv
	}
	if value, ok := lookup(EnvClipboard); ok {
		return interpretPermissionFlag("clipboard", value)
	}
	if goos == "linux" {
		return CheckResult{Status: StatusUnavailable, Message: "system clipboard not built for linux; an in-memory clipboard is used"}
	}
	return CheckResult{Status: StatusGranted, Message: "system clipboard available"}
}

func interpretPermissionFlag(name, value string) CheckResult {
	normalised := strings.ToLower(strings.TrimSpace(value))
	switch normalised {
	case "granted", "allow", "allowed", "yes", "true":
		return CheckResult{Status: StatusGranted, Message: name + " permission pre-authorised via env override"}
	case "denied", "no", "false", "blocked":
		return CheckResult{Status: StatusDenied, Message: name + " permission denied via env override", Guidance: "grant the permission in system settings or update ROBODESK_* env to re-test"}
	case "prompt", "ask":
		return CheckResult{Status: StatusPromptRequired, Message: name + " permission will prompt at runtime"}
	case "unavailable", "unsupported":
		return CheckResult{Status: StatusUnavailable, Message: name + " unavailable on this platform"}
	default:
		return CheckResult{Status: StatusUnknown, Message: name + " permission state unknown"}
	}
}

// Usable reports whether the capability can be attempted.
func (p CheckResult) Usable() bool {
	return p.Status == StatusGranted || p.Status == StatusPromptRequired
}

// StatusString returns the string representation for reports.
func (p CheckResult) StatusString() string {
	if p.Status == "" {
		return string(StatusUnknown)
	}
	return string(p.Status)
}
