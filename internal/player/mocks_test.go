package player

import (
	"fmt"
	"sync"
	"time"

	"github.com/xkilldash9x/rere/internal/input"
	"github.com/xkilldash9x/rere/internal/scancode"
)

// sinkCall is one recorded sink invocation.
type sinkCall struct {
	Op   string
	Args string
	At   time.Time
}

// mockSink records every call with its timestamp.
type mockSink struct {
	mu    sync.Mutex
	calls []sinkCall

	MockKeyDown func(sc scancode.Code) bool
}

func (m *mockSink) record(op string, format string, args ...any) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, sinkCall{Op: op, Args: fmt.Sprintf(format, args...), At: time.Now()})
}

func (m *mockSink) KeyDown(sc scancode.Code) bool {
	m.record("key_down", "%#x", uint16(sc))
	if m.MockKeyDown != nil {
		return m.MockKeyDown(sc)
	}
	return true
}

func (m *mockSink) KeyUp(sc scancode.Code) bool {
	m.record("key_up", "%#x", uint16(sc))
	return true
}

func (m *mockSink) MoveRelative(dx, dy int) bool {
	m.record("move", "%d,%d", dx, dy)
	return true
}

func (m *mockSink) MouseButtonDown(flag input.ButtonFlag) bool {
	m.record("button_down", "%#x", uint32(flag))
	return true
}

func (m *mockSink) MouseButtonUp(flag input.ButtonFlag) bool {
	m.record("button_up", "%#x", uint32(flag))
	return true
}

func (m *mockSink) Scroll(delta int) bool {
	m.record("scroll", "%d", delta)
	return true
}

func (m *mockSink) getCalls() []sinkCall {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]sinkCall, len(m.calls))
	copy(out, m.calls)
	return out
}

// ops strips timestamps so call sequences can be compared.
func (m *mockSink) ops() []sinkCall {
	calls := m.getCalls()
	for i := range calls {
		calls[i].At = time.Time{}
	}
	return calls
}

// parseMove extracts the delta of a recorded move call.
func parseMove(c sinkCall) (int, int) {
	var dx, dy int
	_, _ = fmt.Sscanf(c.Args, "%d,%d", &dx, &dy)
	return dx, dy
}

// moveSum totals every relative move.
func (m *mockSink) moveSum() (int, int) {
	var sx, sy int
	for _, c := range m.getCalls() {
		if c.Op != "move" {
			continue
		}
		dx, dy := parseMove(c)
		sx += dx
		sy += dy
	}
	return sx, sy
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
