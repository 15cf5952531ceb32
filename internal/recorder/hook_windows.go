//go:build windows

package recorder

import (
	"fmt"
	"runtime"
	"sync"
	"unsafe"

	"go.uber.org/zap"
	"golang.org/x/sys/windows"

	"github.com/xkilldash9x/rere/internal/macro"
	"github.com/xkilldash9x/rere/internal/scancode"
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

	llkhfExtended = 0x01
	llkhfInjected = 0x10
	llmhfInjected = 0x01

	wheelDelta = 120
)

var (
	user32                = windows.NewLazySystemDLL("user32.dll")
	procSetWindowsHookEx  = user32.NewProc("SetWindowsHookExW")
	procUnhookWindowsHook = user32.NewProc("UnhookWindowsHookEx")
	procCallNextHookEx    = user32.NewProc("CallNextHookEx")
	procGetMessage        = user32.NewProc("GetMessageW")
	procPostThreadMessage = user32.NewProc("PostThreadMessageW")
	procTranslateMessage  = user32.NewProc("TranslateMessage")
	procDispatchMessage   = user32.NewProc("DispatchMessageW")
)

type point struct {
	X, Y int32
}

type msg struct {
	Hwnd    uintptr
	Message uint32
	WParam  uintptr
	LParam  uintptr
	Time    uint32
	Pt      point
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

// HookSource captures input with low-level keyboard and mouse hooks running
// on a dedicated, locked OS thread. Injected input (including our own
// playback) is ignored.
type HookSource struct {
	logger *zap.Logger

	mu       sync.Mutex
	emit     func(RawEvent)
	threadID uint32
	done     chan struct{}
}

// NewSystemSource returns the OS capture source for this platform.
func NewSystemSource(logger *zap.Logger) Source {
	return &HookSource{logger: logger.Named("hook_source")}
}

// Start installs the hooks and returns once they are live.
func (h *HookSource) Start(emit func(RawEvent)) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.done != nil {
		return ErrAlreadyRecording
	}
	h.emit = emit

	ready := make(chan error, 1)
	done := make(chan struct{})
	go h.run(ready, done)
	if err := <-ready; err != nil {
		return err
	}
	h.done = done
	return nil
}

// Stop posts WM_QUIT to the hook thread and waits for it to unhook.
func (h *HookSource) Stop() error {
	h.mu.Lock()
	done, tid := h.done, h.threadID
	h.done = nil
	h.mu.Unlock()
	if done == nil {
		return nil
	}

	ret, _, err := procPostThreadMessage.Call(uintptr(tid), wmQuit, 0, 0)
	if ret == 0 {
		return fmt.Errorf("failed to signal hook thread: %w", err)
	}
	<-done
	return nil
}

func (h *HookSource) run(ready chan<- error, done chan<- struct{}) {
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()
	defer close(done)

	h.mu.Lock()
	h.threadID = windows.GetCurrentThreadId()
	h.mu.Unlock()

	kbHook, _, err := procSetWindowsHookEx.Call(whKeyboardLL, windows.NewCallback(h.keyboardProc), 0, 0)
	if kbHook == 0 {
		ready <- fmt.Errorf("failed to install keyboard hook: %w", err)
		return
	}
	defer procUnhookWindowsHook.Call(kbHook)

	mouseHook, _, err := procSetWindowsHookEx.Call(whMouseLL, windows.NewCallback(h.mouseProc), 0, 0)
	if mouseHook == 0 {
		ready <- fmt.Errorf("failed to install mouse hook: %w", err)
		return
	}
	defer procUnhookWindowsHook.Call(mouseHook)

	ready <- nil
	h.logger.Debug("Input hooks installed")

	var m msg
	for {
		ret, _, _ := procGetMessage.Call(uintptr(unsafe.Pointer(&m)), 0, 0, 0)
		if int32(ret) <= 0 {
			break
		}
		procTranslateMessage.Call(uintptr(unsafe.Pointer(&m)))
		procDispatchMessage.Call(uintptr(unsafe.Pointer(&m)))
	}
	h.logger.Debug("Input hooks removed")
}

func (h *HookSource) keyboardProc(nCode int32, wParam uintptr, lParam uintptr) uintptr {
	if nCode >= 0 {
		ks := (*kbdllHookStruct)(unsafe.Pointer(lParam))
		if ks.Flags&llkhfInjected == 0 {
			code := scancode.Code(ks.ScanCode & 0xFF)
			if ks.Flags&llkhfExtended != 0 {
				code |= 0xE000
			}
			if name, ok := scancode.Name(code); ok {
				switch uint32(wParam) {
				case wmKeyDown, wmSysKeyDown:
					h.emit(RawEvent{Kind: RawKeyDown, Key: name})
				case wmKeyUp, wmSysKeyUp:
					h.emit(RawEvent{Kind: RawKeyUp, Key: name})
				}
			}
		}
	}
	ret, _, _ := procCallNextHookEx.Call(0, uintptr(nCode), wParam, lParam)
	return ret
}

func (h *HookSource) mouseProc(nCode int32, wParam uintptr, lParam uintptr) uintptr {
	if nCode >= 0 {
		ms := (*msllHookStruct)(unsafe.Pointer(lParam))
		if ms.Flags&llmhfInjected == 0 {
			switch uint32(wParam) {
			case wmMouseMove:
				h.emit(RawEvent{Kind: RawMouseMove, X: int(ms.Pt.X), Y: int(ms.Pt.Y)})
			case wmLButtonDown, wmLButtonUp:
				h.emit(RawEvent{Kind: RawButton, Button: macro.ButtonLeft, Pressed: uint32(wParam) == wmLButtonDown})
			case wmRButtonDown, wmRButtonUp:
				h.emit(RawEvent{Kind: RawButton, Button: macro.ButtonRight, Pressed: uint32(wParam) == wmRButtonDown})
			case wmMButtonDown, wmMButtonUp:
				h.emit(RawEvent{Kind: RawButton, Button: macro.ButtonMiddle, Pressed: uint32(wParam) == wmMButtonDown})
			case wmMouseWheel:
				delta := int(int16(ms.MouseData >> 16))
				if notches := delta / wheelDelta; notches != 0 {
					h.emit(RawEvent{Kind: RawScroll, Notches: notches})
				}
			}
		}
	}
	ret, _, _ := procCallNextHookEx.Call(0, uintptr(nCode), wParam, lParam)
	return ret
}
