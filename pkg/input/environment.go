package input

import (
	"fmt"
	"log/slog"

	"github.com/offlinefirst/robodesk/pkg/permissions"
)

// Environment summarises input backend support on this host.
type Environment struct {
	Provider   string
	Available  bool
	Permission string
	Message    string
	Guidance   string
	Clipboard  string
}

const (
	// ProviderNative is the platform hook and injector.
	ProviderNative = nativeProvider
	// ProviderDryRun journals injections without touching the desktop.
	ProviderDryRun = "dry_run"
)

// DetectEnvironment reports whether the native backend can be used.
func DetectEnvironment() Environment {
	return detectEnvironment(nil)
}

func detectEnvironment(lookup permissions.LookupEnvFunc) Environment {
	monitoring := permissions.CheckInputMonitoring(lookup)
	injection := permissions.CheckAccessibility(lookup)
	clip := permissions.CheckClipboard(lookup)

	env := Environment{
		Provider:   ProviderNative,
		Available:  nativeSupported && monitoring.Usable() && injection.Usable(),
		Permission: monitoring.StatusString(),
		Message:    monitoring.Message,
		Guidance:   monitoring.Guidance,
		Clipboard:  clip.StatusString(),
	}
	if monitoring.Usable() && !injection.Usable() {
		env.Permission = injection.StatusString()
		env.Message = injection.Message
		env.Guidance = injection.Guidance
	}
	if !env.Available {
		env.Provider = ProviderDryRun
		if env.Guidance == "" {
			env.Guidance = "playback is still possible with --dry-run"
		}
	}
	return env
}

// Backend bundles the collaborators used by the recorder and the player.
// Hook is nil for dry-run backends.
type Backend struct {
	Provider  string
	Hook      Hook
	Injector  Injector
	Clipboard Clipboard
}

// OpenOptions selects the backend.
type OpenOptions struct {
	DryRun bool
	Logger *slog.Logger
}

// Open assembles a backend. The system clipboard is used when it can be
// initialised; otherwise a process-local clipboard stands in and a warning
// is logged.
func Open(opts OpenOptions) (Backend, error) {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	if opts.DryRun {
		return Backend{
			Provider:  ProviderDryRun,
			Injector:  NewDryRunInjector(logger),
			Clipboard: NewMemoryClipboard(""),
		}, nil
	}

	env := DetectEnvironment()
	if !env.Available {
		return Backend{}, fmt.Errorf("%w: %s", ErrUnsupported, env.Message)
	}
	hook, injector, err := openNative(logger)
	if err != nil {
		return Backend{}, err
	}

	var clip Clipboard
	if system, err := NewSystemClipboard(); err == nil {
		clip = system
	} else {
		logger.Warn("system clipboard unavailable, using in-memory clipboard", slog.Any("error", err))
		clip = NewMemoryClipboard("")
	}

	return Backend{
		Provider:  ProviderNative,
		Hook:      hook,
		Injector:  injector,
		Clipboard: clip,
	}, nil
}
