//go:build !windows && !(darwin && cgo)

package input

import "log/slog"

const (
	nativeProvider  = "native"
	nativeSupported = false
)

func openNative(*slog.Logger) (Hook, Injector, error) {
	return nil, nil, ErrUnsupported
}
