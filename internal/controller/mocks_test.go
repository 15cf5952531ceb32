package controller

import (
	"sync"
	"sync/atomic"

	"github.com/xkilldash9x/rere/internal/input"
	"github.com/xkilldash9x/rere/internal/macro"
	"github.com/xkilldash9x/rere/internal/scancode"
)

// countingSink counts calls per operation. Safe for concurrent use.
type countingSink struct {
	mu     sync.Mutex
	counts map[string]int
	held   map[scancode.Code]bool

	panicOnKeyUp atomic.Bool
}

func newCountingSink() *countingSink {
	return &countingSink{counts: map[string]int{}, held: map[scancode.Code]bool{}}
}

func (s *countingSink) inc(op string) {
	s.mu.Lock()
	s.counts[op]++
	s.mu.Unlock()
}

func (s *countingSink) KeyDown(sc scancode.Code) bool {
	s.mu.Lock()
	s.counts["key_down"]++
	s.held[sc] = true
	s.mu.Unlock()
	return true
}

func (s *countingSink) KeyUp(sc scancode.Code) bool {
	if s.panicOnKeyUp.Load() {
		panic("sink failure")
	}
	s.mu.Lock()
	s.counts["key_up"]++
	delete(s.held, sc)
	s.mu.Unlock()
	return true
}

func (s *countingSink) MoveRelative(dx, dy int) bool          { s.inc("move"); return true }
func (s *countingSink) MouseButtonDown(input.ButtonFlag) bool { s.inc("button_down"); return true }
func (s *countingSink) MouseButtonUp(input.ButtonFlag) bool   { s.inc("button_up"); return true }
func (s *countingSink) Scroll(int) bool                       { s.inc("scroll"); return true }

func (s *countingSink) count(op string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.counts[op]
}

func (s *countingSink) heldKeys() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.held)
}

// fakeRecorder returns canned events on Stop.
type fakeRecorder struct {
	mu       sync.Mutex
	running  bool
	startErr error
	events   []macro.Event
	live     func(macro.Event)
	starts   int
}

func (r *fakeRecorder) Start() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.startErr != nil {
		return r.startErr
	}
	r.running = true
	r.starts++
	return nil
}

func (r *fakeRecorder) Stop() []macro.Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.running = false
	return macro.Clone(r.events)
}

func (r *fakeRecorder) SetLiveCallback(cb func(macro.Event)) {
	r.mu.Lock()
	r.live = cb
	r.mu.Unlock()
}

func (r *fakeRecorder) isRunning() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.running
}

func (r *fakeRecorder) liveCallback() func(macro.Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.live
}

// threadRecorder mimics a hook-based recorder: a capture goroutine feeds the
// live callback continuously and Stop joins that goroutine.
type threadRecorder struct {
	mu   sync.Mutex
	live func(macro.Event)
	quit chan struct{}
	done chan struct{}
	sent atomic.Int64
}

func (r *threadRecorder) Start() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.quit = make(chan struct{})
	r.done = make(chan struct{})
	go r.capture(r.live, r.quit, r.done)
	return nil
}

func (r *threadRecorder) capture(live func(macro.Event), quit, done chan struct{}) {
	defer close(done)
	for {
		select {
		case <-quit:
			return
		default:
		}
		if live != nil {
			live(macro.Event{Kind: macro.KeyDown, Key: "a"})
		}
		r.sent.Add(1)
	}
}

func (r *threadRecorder) Stop() []macro.Event {
	r.mu.Lock()
	quit, done := r.quit, r.done
	r.mu.Unlock()
	if quit == nil {
		return nil
	}
	close(quit)
	<-done
	return []macro.Event{{Kind: macro.KeyDown, Key: "a"}, {Kind: macro.KeyUp, T: 0.1, Key: "a"}}
}

func (r *threadRecorder) SetLiveCallback(cb func(macro.Event)) {
	r.mu.Lock()
	r.live = cb
	r.mu.Unlock()
}

// stateLog records observer notifications.
type stateLog struct {
	mu     sync.Mutex
	states []State
}

func (l *stateLog) observe(s State) {
	l.mu.Lock()
	l.states = append(l.states, s)
	l.mu.Unlock()
}

func (l *stateLog) get() []State {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]State(nil), l.states...)
}
