//go:build windows

package input

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime"
	"sync"
	"sync/atomic"
	"time"
	"unsafe"

	"golang.org/x/sys/windows"

	"github.com/offlinefirst/robodesk/pkg/macro"
)

const (
	nativeProvider  = "win32_ll_hook"
	nativeSupported = true
)

const (
	whKeyboardLL = 13
	whMouseLL    = 14

	wmQuit        = 0x0012
	wmKeyDown     = 0x0100
	wmKeyUp       = 0x0101
	wmSysKeyDown  = 0x0104
	wmSysKeyUp    = 0x0105
	wmMouseMove   = 0x0200
	wmLButtonDown = 0x0201
	wmLButtonUp   = 0x0202
	wmRButtonDown = 0x0204
	wmRButtonUp   = 0x0205
	wmMButtonDown = 0x0207
	wmMButtonUp   = 0x0208
	wmMouseWheel  = 0x020A
	wmMouseHWheel = 0x020E

	wheelDelta = 120
)

var (
	user32                 = windows.NewLazySystemDLL("user32.dll")
	procSetWindowsHookEx   = user32.NewProc("SetWindowsHookExW")
	procUnhookWindowsHook  = user32.NewProc("UnhookWindowsHookEx")
	procCallNextHookEx     = user32.NewProc("CallNextHookEx")
	procGetMessage         = user32.NewProc("GetMessageW")
	procPostThreadMessage  = user32.NewProc("PostThreadMessageW")
	procMapVirtualKey      = user32.NewProc("MapVirtualKeyW")
	procVkKeyScan          = user32.NewProc("VkKeyScanW")
	procSendInput          = user32.NewProc("SendInput")
	procSetCursorPos       = user32.NewProc("SetCursorPos")
	callbacksOnce          sync.Once
	keyboardCallback       uintptr
	mouseCallback          uintptr
	activeListener         atomic.Pointer[winListener]
	errListenerAlreadyOpen = errors.New("another input listener is already active")
)

type point struct {
	X, Y int32
}

type msllHookStruct struct {
	Pt          point
	MouseData   uint32
	Flags       uint32
	Time        uint32
	DwExtraInfo uintptr
}

type kbdllHookStruct struct {
	VkCode      uint32
	ScanCode    uint32
	Flags       uint32
	Time        uint32
	DwExtraInfo uintptr
}

type msg struct {
	Hwnd    uintptr
	Message uint32
	WParam  uintptr
	LParam  uintptr
	Time    uint32
	Pt      point
}

func openNative(logger *slog.Logger) (Hook, Injector, error) {
	if err := user32.Load(); err != nil {
		return nil, nil, fmt.Errorf("load user32: %w", err)
	}
	return &winHook{logger: logger}, &winInjector{}, nil
}

type winHook struct {
	logger *slog.Logger
}

type winListener struct {
	events   chan RawEvent
	threadID atomic.Uint32
	done     chan struct{}
	stopOnce sync.Once
	dropped  atomic.Int64
	logger   *slog.Logger
}

// Listen installs low-level keyboard and mouse hooks on a dedicated OS
// thread running a message loop. Only one listener may be active at a time.
func (h *winHook) Listen(ctx context.Context) (Listener, error) {
	l := &winListener{
		events: make(chan RawEvent, 1024),
		done:   make(chan struct{}),
		logger: h.logger,
	}
	if !activeListener.CompareAndSwap(nil, l) {
		return nil, errListenerAlreadyOpen
	}
	callbacksOnce.Do(func() {
		keyboardCallback = windows.NewCallback(keyboardProc)
		mouseCallback = windows.NewCallback(mouseProc)
	})

	ready := make(chan error, 1)
	go l.loop(ready)
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

func (l *winListener) loop(ready chan<- error) {
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()
	defer close(l.done)
	defer activeListener.CompareAndSwap(l, nil)
	defer close(l.events)

	keyboard, _, err := procSetWindowsHookEx.Call(whKeyboardLL, keyboardCallback, 0, 0)
	if keyboard == 0 {
		ready <- fmt.Errorf("install keyboard hook: %v", err)
		return
	}
	defer procUnhookWindowsHook.Call(keyboard)

	mouse, _, err := procSetWindowsHookEx.Call(whMouseLL, mouseCallback, 0, 0)
	if mouse == 0 {
		ready <- fmt.Errorf("install mouse hook: %v", err)
		return
	}
	defer procUnhookWindowsHook.Call(mouse)

	l.threadID.Store(windows.GetCurrentThreadId())
	ready <- nil

	var m msg
	for {
		ret, _, _ := procGetMessage.Call(uintptr(unsafe.Pointer(&m)), 0, 0, 0)
		// 0 is WM_QUIT, -1 is an error.
		if ret == 0 || int32(ret) == -1 {
			break
		}
	}
	if dropped := l.dropped.Load(); dropped > 0 {
		l.logger.Warn("input events dropped by slow consumer", slog.Int64("count", dropped))
	}
}

func (l *winListener) Events() <-chan RawEvent {
	return l.events
}

// Stop ends the message loop and waits for the hooks to be removed.
func (l *winListener) Stop() error {
	var err error
	l.stopOnce.Do(func() {
		ret, _, callErr := procPostThreadMessage.Call(uintptr(l.threadID.Load()), wmQuit, 0, 0)
		if ret == 0 {
			err = fmt.Errorf("stop input listener: %v", callErr)
			return
		}
		<-l.done
	})
	return err
}

func (l *winListener) deliver(ev RawEvent) {
	select {
	case l.events <- ev:
	default:
		l.dropped.Add(1)
	}
}

func keyboardProc(nCode int, wParam uintptr, lParam uintptr) uintptr {
	if l := activeListener.Load(); nCode >= 0 && l != nil {
		info := (*kbdllHookStruct)(unsafe.Pointer(lParam))
		key := keyFromVK(info.VkCode)
		if key != "" {
			switch wParam {
			case wmKeyDown, wmSysKeyDown:
				l.deliver(KeyDown(key, time.Now()))
			case wmKeyUp, wmSysKeyUp:
				l.deliver(KeyUp(key, time.Now()))
			}
		}
	}
	ret, _, _ := procCallNextHookEx.Call(0, uintptr(nCode), wParam, lParam)
	return ret
}

func mouseProc(nCode int, wParam uintptr, lParam uintptr) uintptr {
	if l := activeListener.Load(); nCode >= 0 && l != nil {
		info := (*msllHookStruct)(unsafe.Pointer(lParam))
		x, y := float64(info.Pt.X), float64(info.Pt.Y)
		now := time.Now()
		click := func(button macro.Button, pressed bool) {
			l.deliver(RawEvent{Kind: macro.KindMouseClick, X: x, Y: y, Button: button, Pressed: pressed, Time: now})
		}
		delta := float64(int16(info.MouseData>>16)) / wheelDelta

		switch wParam {
		case wmMouseMove:
			l.deliver(Move(x, y, now))
		case wmLButtonDown:
			click(macro.ButtonLeft, true)
		case wmLButtonUp:
			click(macro.ButtonLeft, false)
		case wmRButtonDown:
			click(macro.ButtonRight, true)
		case wmRButtonUp:
			click(macro.ButtonRight, false)
		case wmMButtonDown:
			click(macro.ButtonMiddle, true)
		case wmMButtonUp:
			click(macro.ButtonMiddle, false)
		case wmMouseWheel:
			l.deliver(RawEvent{Kind: macro.KindMouseScroll, X: x, Y: y, DY: delta, Time: now})
		case wmMouseHWheel:
			l.deliver(RawEvent{Kind: macro.KindMouseScroll, X: x, Y: y, DX: delta, Time: now})
		}
	}
	ret, _, _ := procCallNextHookEx.Call(0, uintptr(nCode), wParam, lParam)
	return ret
}
