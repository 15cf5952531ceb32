//go:build windows

package input

import (
	"unsafe"

	"go.uber.org/zap"
	"golang.org/x/sys/windows"

	"github.com/xkilldash9x/rere/internal/scancode"
)

const (
	inputMouse    = 0
	inputKeyboard = 1

	keyeventfExtendedKey = 0x0001
	keyeventfKeyUp       = 0x0002
	keyeventfScanCode    = 0x0008

	mouseeventfMove  = 0x0001
	mouseeventfWheel = 0x0800
)

var (
	user32        = windows.NewLazySystemDLL("user32.dll")
	procSendInput = user32.NewProc("SendInput")
)

// mouseInput mirrors MOUSEINPUT.
type mouseInput struct {
	Dx          int32
	Dy          int32
	MouseData   uint32
	DwFlags     uint32
	Time        uint32
	DwExtraInfo uintptr
}

// keybdInput mirrors KEYBDINPUT, padded to the size of the INPUT union.
type keybdInput struct {
	WVk         uint16
	WScan       uint16
	DwFlags     uint32
	Time        uint32
	DwExtraInfo uintptr
	_           [8]byte
}

type mouseInputRecord struct {
	Type uint32
	_    [4]byte
	Mi   mouseInput
}

type keybdInputRecord struct {
	Type uint32
	_    [4]byte
	Ki   keybdInput
}

// SendInputSink injects input with user32!SendInput using scan codes only.
type SendInputSink struct {
	logger *zap.Logger
}

// NewSystemSink returns the OS input sink for this platform.
func NewSystemSink(logger *zap.Logger) (Sink, error) {
	if err := procSendInput.Find(); err != nil {
		return nil, err
	}
	return &SendInputSink{logger: logger.Named("sendinput")}, nil
}

func (s *SendInputSink) sendKey(sc scancode.Code, up bool) bool {
	flags := uint32(keyeventfScanCode)
	if sc.IsExtended() {
		flags |= keyeventfExtendedKey
	}
	if up {
		flags |= keyeventfKeyUp
	}
	rec := keybdInputRecord{
		Type: inputKeyboard,
		Ki:   keybdInput{WScan: sc.Low(), DwFlags: flags},
	}
	return s.send(unsafe.Pointer(&rec), unsafe.Sizeof(rec))
}

func (s *SendInputSink) sendMouse(mi mouseInput) bool {
	rec := mouseInputRecord{Type: inputMouse, Mi: mi}
	return s.send(unsafe.Pointer(&rec), unsafe.Sizeof(rec))
}

func (s *SendInputSink) send(p unsafe.Pointer, size uintptr) bool {
	ret, _, err := procSendInput.Call(1, uintptr(p), size)
	if ret != 1 {
		s.logger.Debug("SendInput refused the event", zap.Error(err))
		return false
	}
	return true
}

func (s *SendInputSink) KeyDown(sc scancode.Code) bool { return s.sendKey(sc, false) }
func (s *SendInputSink) KeyUp(sc scancode.Code) bool   { return s.sendKey(sc, true) }

func (s *SendInputSink) MoveRelative(dx, dy int) bool {
	return s.sendMouse(mouseInput{Dx: int32(dx), Dy: int32(dy), DwFlags: mouseeventfMove})
}

func (s *SendInputSink) MouseButtonDown(flag ButtonFlag) bool {
	return s.sendMouse(mouseInput{DwFlags: uint32(flag)})
}

func (s *SendInputSink) MouseButtonUp(flag ButtonFlag) bool {
	return s.sendMouse(mouseInput{DwFlags: uint32(flag)})
}

// Scroll sends a wheel event; positive is away from the user.
func (s *SendInputSink) Scroll(delta int) bool {
	return s.sendMouse(mouseInput{MouseData: uint32(int32(delta)), DwFlags: mouseeventfWheel})
}
