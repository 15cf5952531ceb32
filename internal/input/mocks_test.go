package input

import (
	"sync"

	"github.com/xkilldash9x/rere/internal/scancode"
)

// mockSink records every call. Individual operations can be overridden.
type mockSink struct {
	mu     sync.Mutex
	events []string
	moves  [][2]int

	MockKeyUp        func(sc scancode.Code) bool
	MockMoveRelative func(dx, dy int) bool
}

func (m *mockSink) record(ev string) {
	m.mu.Lock()
	m.events = append(m.events, ev)
	m.mu.Unlock()
}

func (m *mockSink) KeyDown(sc scancode.Code) bool {
	m.record("key_down")
	return true
}

func (m *mockSink) KeyUp(sc scancode.Code) bool {
	m.record("key_up")
	if m.MockKeyUp != nil {
		return m.MockKeyUp(sc)
	}
	return true
}

func (m *mockSink) MoveRelative(dx, dy int) bool {
	m.mu.Lock()
	m.moves = append(m.moves, [2]int{dx, dy})
	m.mu.Unlock()
	if m.MockMoveRelative != nil {
		return m.MockMoveRelative(dx, dy)
	}
	return true
}

func (m *mockSink) MouseButtonDown(flag ButtonFlag) bool {
	m.record("button_down")
	return true
}

func (m *mockSink) MouseButtonUp(flag ButtonFlag) bool {
	m.record("button_up")
	return true
}

func (m *mockSink) Scroll(delta int) bool {
	m.record("scroll")
	return true
}

func (m *mockSink) count(ev string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, e := range m.events {
		if e == ev {
			n++
		}
	}
	return n
}
