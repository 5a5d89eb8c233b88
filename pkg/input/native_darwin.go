//go:build darwin && cgo

package input

/*
#cgo darwin CFLAGS: -x objective-c -fmodules -fobjc-arc
#cgo darwin LDFLAGS: -framework CoreGraphics -framework ApplicationServices
#include <ApplicationServices/ApplicationServices.h>
#include <CoreFoundation/CoreFoundation.h>
#include <stdint.h>

static Boolean axCheckTrusted(void) {
        const void *keys[] = { kAXTrustedCheckOptionPrompt };
        const void *values[] = { kCFBooleanTrue };
        CFDictionaryRef options = CFDictionaryCreate(kCFAllocatorDefault, keys, values, 1,
                                                     &kCFTypeDictionaryKeyCallBacks,
                                                     &kCFTypeDictionaryValueCallBacks);
        Boolean trusted = AXIsProcessTrustedWithOptions(options);
        CFRelease(options);
        return trusted;
}

extern CGEventRef goHandleEvent(CGEventTapProxy proxy, CGEventType type, CGEventRef event, void *userInfo);

static CFRunLoopSourceRef startEventTap(uintptr_t handle, CGEventMask mask, CFMachPortRef *tapOut) {
        CFMachPortRef tap = CGEventTapCreate(kCGSessionEventTap,
                                             kCGHeadInsertEventTap,
                                             kCGEventTapOptionListenOnly,
                                             mask,
                                             goHandleEvent,
                                             (void *)handle);
        if (tap == NULL) {
                return NULL;
        }
        CGEventTapEnable(tap, true);
        CFRunLoopSourceRef source = CFMachPortCreateRunLoopSource(kCFAllocatorDefault, tap, 0);
        *tapOut = tap;
        return source;
}

static void setTapEnabled(CFMachPortRef tap, int enabled) {
        CGEventTapEnable(tap, enabled != 0);
}

static CGEventMask cgEventMaskBit(CGEventType type) {
        return ((CGEventMask)1) << type;
}

static void addSourceToRunLoop(CFRunLoopRef loop, CFRunLoopSourceRef source) {
        CFRunLoopAddSource(loop, source, kCFRunLoopCommonModes);
}

static void removeSourceFromRunLoop(CFRunLoopRef loop, CFRunLoopSourceRef source) {
        CFRunLoopRemoveSource(loop, source, kCFRunLoopCommonModes);
}

static void runLoopFor(double seconds) {
        CFRunLoopRunInMode(kCFRunLoopDefaultMode, seconds, false);
}

static void stopRunLoop(CFRunLoopRef loop) {
        CFRunLoopStop(loop);
        CFRunLoopWakeUp(loop);
}

static void releaseRef(CFTypeRef ref) {
        CFRelease(ref);
}

static double cgEventGetX(CGEventRef event) {
        return CGEventGetLocation(event).x;
}

static double cgEventGetY(CGEventRef event) {
        return CGEventGetLocation(event).y;
}

static int64_t cgEventGetKeycode(CGEventRef event) {
        return CGEventGetIntegerValueField(event, kCGKeyboardEventKeycode);
}

static uint64_t cgEventGetFlags(CGEventRef event) {
        return (uint64_t)CGEventGetFlags(event);
}

static int64_t cgEventGetButton(CGEventRef event) {
        return CGEventGetIntegerValueField(event, kCGMouseEventButtonNumber);
}

static int64_t cgEventScrollVertical(CGEventRef event) {
        return CGEventGetIntegerValueField(event, kCGScrollWheelEventDeltaAxis1);
}

static int64_t cgEventScrollHorizontal(CGEventRef event) {
        return CGEventGetIntegerValueField(event, kCGScrollWheelEventDeltaAxis2);
}
*/
import "C"

import (
	"context"
	"errors"
	"log/slog"
	"runtime"
	"runtime/cgo"
	"sync"
	"sync/atomic"
	"time"
	"unsafe"

	"github.com/offlinefirst/robodesk/pkg/macro"
)

const (
	nativeProvider  = "quartz_event_tap"
	nativeSupported = true
)

const capsLockKeycode = 0x39

var (
	errAccessibility       = errors.New("accessibility access not granted; allow this terminal under System Settings > Privacy & Security > Accessibility and retry")
	errListenerAlreadyOpen = errors.New("another input listener is already active")
	activeListener         atomic.Pointer[macListener]
)

func openNative(logger *slog.Logger) (Hook, Injector, error) {
	return &macHook{logger: logger}, newMacInjector(), nil
}

type macHook struct {
	logger *slog.Logger
}

type macListener struct {
	events   chan RawEvent
	tap      C.CFMachPortRef
	loop     C.CFRunLoopRef
	stopping atomic.Bool
	done     chan struct{}
	stopOnce sync.Once
	dropped  atomic.Int64
	// held tracks modifier keycodes; only touched on the run loop thread.
	held   map[uint16]bool
	logger *slog.Logger
}

// Listen installs a listen-only Quartz event tap on a dedicated OS thread
// running a CFRunLoop. The process must be trusted for accessibility; the
// first call asks macOS to show the consent prompt.
func (h *macHook) Listen(ctx context.Context) (Listener, error) {
	if C.axCheckTrusted() == 0 {
		return nil, errAccessibility
	}
	l := &macListener{
		events: make(chan RawEvent, 1024),
		done:   make(chan struct{}),
		held:   make(map[uint16]bool),
		logger: h.logger,
	}
	if !activeListener.CompareAndSwap(nil, l) {
		return nil, errListenerAlreadyOpen
	}

	ready := make(chan error, 1)
	go l.run(ready)
	if err := <-ready; err != nil {
		activeListener.CompareAndSwap(l, nil)
		return nil, err
	}

	go func() {
		select {
		case <-ctx.Done():
			_ = l.Stop()
		case <-l.done:
		}
	}()
	return l, nil
}

func tapMask() C.CGEventMask {
	var mask C.CGEventMask
	for _, t := range []C.CGEventType{
		C.kCGEventKeyDown, C.kCGEventKeyUp, C.kCGEventFlagsChanged,
		C.kCGEventLeftMouseDown, C.kCGEventLeftMouseUp,
		C.kCGEventRightMouseDown, C.kCGEventRightMouseUp,
		C.kCGEventOtherMouseDown, C.kCGEventOtherMouseUp,
		C.kCGEventMouseMoved, C.kCGEventLeftMouseDragged,
		C.kCGEventRightMouseDragged, C.kCGEventOtherMouseDragged,
		C.kCGEventScrollWheel,
	} {
		mask |= C.cgEventMaskBit(t)
	}
	return mask
}

func (l *macListener) run(ready chan<- error) {
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()
	defer close(l.done)
	defer activeListener.CompareAndSwap(l, nil)
	defer close(l.events)

	handle := cgo.NewHandle(l)
	defer handle.Delete()

	var tap C.CFMachPortRef
	source := C.startEventTap(C.uintptr_t(handle), tapMask(), &tap)
	if source == 0 {
		ready <- errors.New("create event tap: the process may lack accessibility or input monitoring access")
		return
	}
	defer C.releaseRef(C.CFTypeRef(tap))
	defer C.releaseRef(C.CFTypeRef(source))
	defer C.setTapEnabled(tap, 0)

	l.tap = tap
	l.loop = C.CFRunLoopGetCurrent()
	C.addSourceToRunLoop(l.loop, source)
	defer C.removeSourceFromRunLoop(l.loop, source)
	ready <- nil

	// Short slices keep a Stop that lands before the loop starts from
	// being lost.
	for !l.stopping.Load() {
		C.runLoopFor(0.1)
	}
	if dropped := l.dropped.Load(); dropped > 0 {
		l.logger.Warn("input events dropped by slow consumer", slog.Int64("count", dropped))
	}
}

func (l *macListener) Events() <-chan RawEvent {
	return l.events
}

// Stop ends the run loop and waits for the tap to be removed.
func (l *macListener) Stop() error {
	l.stopOnce.Do(func() {
		l.stopping.Store(true)
		C.stopRunLoop(l.loop)
		<-l.done
	})
	return nil
}

func (l *macListener) deliver(ev RawEvent) {
	select {
	case l.events <- ev:
	default:
		l.dropped.Add(1)
	}
}

func (l *macListener) handleFlags(event C.CGEventRef, now time.Time) {
	code := uint16(C.cgEventGetKeycode(event))
	mask, ok := modifierFlags[code]
	if !ok {
		return
	}
	key := keyFromKeycode(code)
	if code == capsLockKeycode {
		// Caps lock reports a single flag toggle per physical press.
		l.deliver(KeyDown(key, now))
		l.deliver(KeyUp(key, now))
		return
	}
	flags := uint64(C.cgEventGetFlags(event))
	if flags&mask == 0 || l.held[code] {
		delete(l.held, code)
		l.deliver(KeyUp(key, now))
		return
	}
	l.held[code] = true
	l.deliver(KeyDown(key, now))
}

func otherButton(event C.CGEventRef) (macro.Button, bool) {
	if C.cgEventGetButton(event) == 2 {
		return macro.ButtonMiddle, true
	}
	return "", false
}

//export goHandleEvent
func goHandleEvent(_ C.CGEventTapProxy, eventType C.CGEventType, event C.CGEventRef, userInfo unsafe.Pointer) C.CGEventRef {
	l, ok := cgo.Handle(uintptr(userInfo)).Value().(*macListener)
	if !ok {
		return event
	}
	if eventType == C.kCGEventTapDisabledByTimeout || eventType == C.kCGEventTapDisabledByUserInput {
		C.setTapEnabled(l.tap, 1)
		return event
	}

	now := time.Now()
	x, y := float64(C.cgEventGetX(event)), float64(C.cgEventGetY(event))
	click := func(button macro.Button, pressed bool) {
		l.deliver(RawEvent{Kind: macro.KindMouseClick, X: x, Y: y, Button: button, Pressed: pressed, Time: now})
	}

	switch eventType {
	case C.kCGEventKeyDown:
		l.deliver(KeyDown(keyFromKeycode(uint16(C.cgEventGetKeycode(event))), now))
	case C.kCGEventKeyUp:
		l.deliver(KeyUp(keyFromKeycode(uint16(C.cgEventGetKeycode(event))), now))
	case C.kCGEventFlagsChanged:
		l.handleFlags(event, now)
	case C.kCGEventMouseMoved, C.kCGEventLeftMouseDragged,
		C.kCGEventRightMouseDragged, C.kCGEventOtherMouseDragged:
		l.deliver(Move(x, y, now))
	case C.kCGEventLeftMouseDown:
		click(macro.ButtonLeft, true)
	case C.kCGEventLeftMouseUp:
		click(macro.ButtonLeft, false)
	case C.kCGEventRightMouseDown:
		click(macro.ButtonRight, true)
	case C.kCGEventRightMouseUp:
		click(macro.ButtonRight, false)
	case C.kCGEventOtherMouseDown:
		if button, ok := otherButton(event); ok {
			click(button, true)
		}
	case C.kCGEventOtherMouseUp:
		if button, ok := otherButton(event); ok {
			click(button, false)
		}
	case C.kCGEventScrollWheel:
		l.deliver(RawEvent{
			Kind: macro.KindMouseScroll,
			X:    x,
			Y:    y,
			DX:   float64(C.cgEventScrollHorizontal(event)),
			DY:   float64(C.cgEventScrollVertical(event)),
			Time: now,
		})
	}
	return event
}
