package permissions

import "testing"

type fakeLookup map[string]string

func (f fakeLookup) get(key string) (string, bool) {
	v, ok := f[key]
	return v, ok
}

func withGOOS(t *testing.T, value string) {
	t.Helper()
	prev := goos
	goos = value
	t.Cleanup(func() { goos = prev })
}

func withTrust(t *testing.T, state trustState) {
	t.Helper()
	prev := accessibilityTrust
	accessibilityTrust = func() trustState { return state }
	t.Cleanup(func() { accessibilityTrust = prev })
}

func TestInterpretPermissionFlag(t *testing.T) {
	cases := map[string]struct {
		value    string
		expected Status
	}{
		"granted":     {"granted", StatusGranted},
		"denied":      {"denied", StatusDenied},
		"prompt":      {"prompt", StatusPromptRequired},
		"unsupported": {"unsupported", StatusUnavailable},
		"unknown":     {"", StatusUnknown},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			res := interpretPermissionFlag("test", tc.value)
			if res.Status != tc.expected {
				t.Fatalf("expected %s, got %s", tc.expected, res.Status)
			}
		})
	}
}

func TestCheckInputMonitoringHonoursEnv(t *testing.T) {
	lookup := fakeLookup{EnvInputMonitoring: "denied"}
	res := CheckInputMonitoring(lookup.get)
	if res.Status != StatusDenied {
		t.Fatalf("expected denied, got %s", res.Status)
	}
	if res.Guidance == "" {
		t.Fatalf("expected guidance when denied")
	}
	if res.Usable() {
		t.Fatalf("denied check must not be usable")
	}
}

func TestCheckPlatformDefaults(t *testing.T) {
	withGOOS(t, "windows")
	empty := fakeLookup{}
	if res := CheckInputMonitoring(empty.get); res.Status != StatusGranted {
		t.Fatalf("expected granted hooks on windows, got %s", res.Status)
	}
	if res := CheckAccessibility(empty.get); !res.Usable() {
		t.Fatalf("expected usable injection on windows, got %s", res.Status)
	}

	withGOOS(t, "linux")
	if res := CheckInputMonitoring(empty.get); res.Status != StatusUnavailable {
		t.Fatalf("expected unavailable hooks on linux, got %s", res.Status)
	}
	if res := CheckClipboard(empty.get); res.Status != StatusUnavailable {
		t.Fatalf("expected unavailable clipboard on linux, got %s", res.Status)
	}
}

func TestCheckClipboardHonoursEnv(t *testing.T) {
	lookup := fakeLookup{EnvClipboard: "granted"}
	res := CheckClipboard(lookup.get)
	if res.Status != StatusGranted {
		t.Fatalf("expected granted, got %s", res.Status)
	}
}

func TestStatusStringDefaultsToUnknown(t *testing.T) {
	if got := (CheckResult{}).StatusString(); got != "unknown" {
		t.Fatalf("expected unknown, got %s", got)
	}
}

func TestCheckDarwinReflectsAccessibilityTrust(t *testing.T) {
	withGOOS(t, "darwin")
	empty := fakeLookup{}

	withTrust(t, trustGranted)
	if res := CheckInputMonitoring(empty.get); res.Status != StatusGranted {
		t.Fatalf("expected granted event tap, got %s", res.Status)
	}
	if res := CheckAccessibility(empty.get); res.Status != StatusGranted {
		t.Fatalf("expected granted injection, got %s", res.Status)
	}

	withTrust(t, trustMissing)
	res := CheckInputMonitoring(empty.get)
	if res.Status != StatusPromptRequired || !res.Usable() {
		t.Fatalf("expected usable prompt state, got %s", res.Status)
	}
	if res.Guidance == "" {
		t.Fatalf("expected guidance when trust is missing")
	}

	withTrust(t, trustUnknown)
	if res := CheckAccessibility(empty.get); res.Status != StatusUnavailable {
		t.Fatalf("expected unavailable without cgo, got %s", res.Status)
	}
}

func TestCheckDarwinEnvOverrideWins(t *testing.T) {
	withGOOS(t, "darwin")
	withTrust(t, trustGranted)
	lookup := fakeLookup{EnvInputMonitoring: "denied"}
	if res := CheckInputMonitoring(lookup.get); res.Status != StatusDenied {
		t.Fatalf("expected env override to win, got %s", res.Status)
	}
}
