// Package input defines the hardware input sink used by playback and the
// quick actions, plus the helpers shared by every implementation.
package input

import (
	"errors"

	"go.uber.org/zap"

	"github.com/xkilldash9x/rere/internal/scancode"
)

// ErrUnsupportedPlatform is returned when no OS injection backend exists.
var ErrUnsupportedPlatform = errors.New("input injection requires Windows")

// ButtonFlag is a mouse button transition flag in SendInput MOUSEINPUT.dwFlags terms.
type ButtonFlag uint32

const (
	LeftDown   ButtonFlag = 0x0002
	LeftUp     ButtonFlag = 0x0004
	RightDown  ButtonFlag = 0x0008
	RightUp    ButtonFlag = 0x0010
	MiddleDown ButtonFlag = 0x0020
	MiddleUp   ButtonFlag = 0x0040
)

// WheelDelta is one wheel notch.
const WheelDelta = 120

// Packet size bounds for relative mouse moves, matching typical hardware report granularity.
const (
	PacketMin     = 8
	PacketMax     = 12
	PacketDefault = PacketMax
)

// Sink injects single input transitions. Every call is one atomic injection;
// a false return means the OS refused it. Implementations must be safe for
// concurrent use since the player and the quick actions share one sink.
type Sink interface {
	KeyDown(sc scancode.Code) bool
	KeyUp(sc scancode.Code) bool
	MoveRelative(dx, dy int) bool
	MouseButtonDown(flag ButtonFlag) bool
	MouseButtonUp(flag ButtonFlag) bool
	Scroll(delta int) bool
}

// ClampPacket bounds a configured packet size to [PacketMin, PacketMax].
func ClampPacket(maxStep int) int {
	if maxStep < PacketMin {
		return PacketMin
	}
	if maxStep > PacketMax {
		return PacketMax
	}
	return maxStep
}

// Chunk splits a relative delta into packets whose components never exceed maxStep.
func Chunk(dx, dy, maxStep int) [][2]int {
	if maxStep < 1 {
		maxStep = 1
	}
	var out [][2]int
	for dx != 0 || dy != 0 {
		sx := clampInt(dx, -maxStep, maxStep)
		sy := clampInt(dy, -maxStep, maxStep)
		out = append(out, [2]int{sx, sy})
		dx -= sx
		dy -= sy
	}
	return out
}

// MoveRelativeChunked sends a relative move as packets of at most maxStep pixels.
// It stops at the first refused packet.
func MoveRelativeChunked(s Sink, dx, dy, maxStep int) bool {
	for _, p := range Chunk(dx, dy, maxStep) {
		if !s.MoveRelative(p[0], p[1]) {
			return false
		}
	}
	return true
}

// ReleaseAll issues a key up for every known scan code and releases every
// mouse button. It is best effort: sink failures and panics are logged and swallowed.
func ReleaseAll(s Sink, logger *zap.Logger) {
	if logger == nil {
		logger = zap.NewNop()
	}
	failed := 0
	for _, sc := range scancode.All() {
		if !safeCall(func() bool { return s.KeyUp(sc) }) {
			failed++
		}
	}
	for _, f := range []ButtonFlag{LeftUp, RightUp, MiddleUp} {
		if !safeCall(func() bool { return s.MouseButtonUp(f) }) {
			failed++
		}
	}
	if failed > 0 {
		logger.Debug("Some release calls were refused by the sink", zap.Int("failed", failed))
	}
}

// safeCall runs one sink call, converting a panic into a failure so a single
// bad key does not abort the whole release sweep.
func safeCall(fn func() bool) (ok bool) {
	defer func() {
		if recover() != nil {
			ok = false
		}
	}()
	return fn()
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
