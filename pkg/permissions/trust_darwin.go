//go:build darwin && cgo

package permissions

/*
#cgo darwin LDFLAGS: -framework ApplicationServices
#include <ApplicationServices/ApplicationServices.h>
*/
import "C"

// processTrust asks without raising the consent prompt; the input hook
// raises it when recording starts.
func processTrust() trustState {
	if C.AXIsProcessTrusted() != 0 {
		return trustGranted
	}
	return trustMissing
}
