package recorder

import (
	"runtime"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/xkilldash9x/rere/internal/macro"
)

// fakeSource hands the emit function to the test.
type fakeSource struct {
	mu       sync.Mutex
	emit     func(RawEvent)
	startErr error
	stops    int
}

func (f *fakeSource) Start(emit func(RawEvent)) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.startErr != nil {
		return f.startErr
	}
	f.emit = emit
	return nil
}

func (f *fakeSource) Stop() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.stops++
	return nil
}

func (f *fakeSource) send(ev RawEvent) {
	f.mu.Lock()
	emit := f.emit
	f.mu.Unlock()
	emit(ev)
}

// fakeClock advances only when told to.
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

func newTestRecorder(t *testing.T) (*Recorder, *fakeSource, *fakeClock) {
	src := &fakeSource{}
	clock := &fakeClock{now: time.Unix(1700000000, 0)}
	r := New(src, zaptest.NewLogger(t))
	r.now = clock.Now
	return r, src, clock
}

func TestRecorder_CapturesRelativeEvents(t *testing.T) {
	// 1. Setup
	r, src, clock := newTestRecorder(t)
	require.NoError(t, r.Start())
	assert.True(t, r.Running())

	// 2. Execution
	src.send(RawEvent{Kind: RawMouseMove, X: 100, Y: 100})
	clock.Advance(50 * time.Millisecond)
	src.send(RawEvent{Kind: RawKeyDown, Key: "a"})
	clock.Advance(50 * time.Millisecond)
	src.send(RawEvent{Kind: RawMouseMove, X: 110, Y: 95})
	src.send(RawEvent{Kind: RawMouseMove, X: 110, Y: 95})
	clock.Advance(100 * time.Millisecond)
	src.send(RawEvent{Kind: RawButton, Button: macro.ButtonRight, Pressed: true})
	src.send(RawEvent{Kind: RawButton, Button: macro.ButtonRight, Pressed: false})
	src.send(RawEvent{Kind: RawScroll, Notches: -2})
	src.send(RawEvent{Kind: RawKeyUp, Key: "a"})
	src.send(RawEvent{Kind: RawKeyDown, Key: ""})
	events := r.Stop()

	// 3. Assertions
	want := []macro.Event{
		{Kind: macro.KeyDown, T: 0.05, Key: "a"},
		{Kind: macro.MouseMove, T: 0.1, DX: 10, DY: -5},
		{Kind: macro.MouseDown, T: 0.2, Button: macro.ButtonRight},
		{Kind: macro.MouseUp, T: 0.2, Button: macro.ButtonRight},
		{Kind: macro.MouseScroll, T: 0.2, DY: -2},
		{Kind: macro.KeyUp, T: 0.2, Key: "a"},
	}
	require.Len(t, events, len(want))
	for i := range want {
		assert.Equal(t, want[i].Kind, events[i].Kind, "event %d", i)
		assert.InDelta(t, want[i].T, events[i].T, 1e-9, "event %d", i)
		assert.Equal(t, want[i].Key, events[i].Key, "event %d", i)
		assert.Equal(t, want[i].DX, events[i].DX, "event %d", i)
		assert.Equal(t, want[i].DY, events[i].DY, "event %d", i)
		assert.Equal(t, want[i].Button, events[i].Button, "event %d", i)
	}
	assert.False(t, r.Running())
	assert.Equal(t, 1, src.stops)
}

func TestRecorder_IgnoresEventsWhenStopped(t *testing.T) {
	r, src, _ := newTestRecorder(t)
	require.NoError(t, r.Start())
	r.Stop()

	src.send(RawEvent{Kind: RawKeyDown, Key: "a"})
	assert.Empty(t, r.Stop())
	assert.Equal(t, 1, src.stops, "stopping twice does not stop the source twice")
}

func TestRecorder_StartErrors(t *testing.T) {
	r, src, _ := newTestRecorder(t)
	src.startErr = ErrUnsupportedPlatform
	err := r.Start()
	assert.ErrorIs(t, err, ErrUnsupportedPlatform)
	assert.False(t, r.Running())

	src.startErr = nil
	require.NoError(t, r.Start())
	assert.ErrorIs(t, r.Start(), ErrAlreadyRecording)
	r.Stop()
}

func TestRecorder_RestartClearsBuffer(t *testing.T) {
	r, src, _ := newTestRecorder(t)
	require.NoError(t, r.Start())
	src.send(RawEvent{Kind: RawKeyDown, Key: "a"})
	assert.Len(t, r.Stop(), 1)

	require.NoError(t, r.Start())
	src.send(RawEvent{Kind: RawMouseMove, X: 5, Y: 5})
	assert.Empty(t, r.Stop(), "the first move after a restart only seeds the position")
}

func TestRecorder_LiveCallback(t *testing.T) {
	r, src, _ := newTestRecorder(t)

	var mu sync.Mutex
	var live []macro.Event
	r.SetLiveCallback(func(ev macro.Event) {
		mu.Lock()
		live = append(live, ev)
		mu.Unlock()
		if ev.Key == "boom" {
			panic("callback failure")
		}
	})
	require.NoError(t, r.Start())

	src.send(RawEvent{Kind: RawMouseMove, X: 0, Y: 0})
	for i := 1; i <= 50; i++ {
		src.send(RawEvent{Kind: RawMouseMove, X: i, Y: 0})
	}
	assert.NotPanics(t, func() { src.send(RawEvent{Kind: RawKeyDown, Key: "boom"}) })
	src.send(RawEvent{Kind: RawKeyUp, Key: "boom"})
	events := r.Stop()

	assert.Len(t, events, 52, "recording itself is never throttled")

	mu.Lock()
	defer mu.Unlock()
	var moves, keys int
	for _, ev := range live {
		if ev.Kind == macro.MouseMove {
			moves++
		} else {
			keys++
		}
	}
	assert.Equal(t, 2, keys, "key events always reach the live callback")
	assert.GreaterOrEqual(t, moves, 1)
	assert.Less(t, moves, 50, "a burst of moves is thinned for the live view")
}

func TestNewSystemSource_Unsupported(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("installs global hooks on Windows")
	}
	src := NewSystemSource(zaptest.NewLogger(t))
	assert.ErrorIs(t, src.Start(func(RawEvent) {}), ErrUnsupportedPlatform)
	assert.NoError(t, src.Stop())

	r := New(src, zaptest.NewLogger(t))
	assert.ErrorIs(t, r.Start(), ErrUnsupportedPlatform)
}
