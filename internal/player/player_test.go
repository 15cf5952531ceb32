package player

import (
	"context"
	"math"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/xkilldash9x/rere/internal/humanoid"
	"github.com/xkilldash9x/rere/internal/macro"
)

func threeEventMacro() []macro.Event {
	return []macro.Event{
		{Kind: macro.KeyDown, T: 0.0, Key: "a"},
		{Kind: macro.KeyUp, T: 0.1, Key: "a"},
		{Kind: macro.MouseMove, T: 0.2, DX: 5, DY: 5},
	}
}

func newTestPlayer(t *testing.T, events []macro.Event, opts Options) (*Player, *mockSink) {
	t.Helper()
	sink := &mockSink{}
	if opts.Settings == (humanoid.Settings{}) {
		opts.Settings = humanoid.DefaultSettings()
	}
	return New(events, opts, sink, zaptest.NewLogger(t)), sink
}

func TestPlay_ThreeEventScenario(t *testing.T) {
	// 1. Setup
	p, sink := newTestPlayer(t, threeEventMacro(), Options{Speed: 1.0})

	// 2. Execution
	require.NoError(t, p.Play(context.Background(), NewSignals()))

	// 3. Assertions
	calls := sink.getCalls()
	require.Len(t, calls, 3)
	assert.Equal(t, sinkCall{Op: "key_down", Args: "0x1e"}, sinkCall{Op: calls[0].Op, Args: calls[0].Args})
	assert.Equal(t, sinkCall{Op: "key_up", Args: "0x1e"}, sinkCall{Op: calls[1].Op, Args: calls[1].Args})
	assert.Equal(t, "move", calls[2].Op)

	sx, sy := sink.moveSum()
	assert.Equal(t, 5, sx)
	assert.Equal(t, 5, sy)

	assert.InDelta(t, 100, calls[1].At.Sub(calls[0].At).Milliseconds(), 25)
	assert.InDelta(t, 100, calls[2].At.Sub(calls[1].At).Milliseconds(), 25)
}

func TestPlay_Deterministic(t *testing.T) {
	events := []macro.Event{
		{Kind: macro.KeyDown, T: 0.01, Key: "w"},
		{Kind: macro.MouseMove, T: 0.02, DX: 47, DY: -13},
		{Kind: macro.MouseDown, T: 0.03, Button: macro.ButtonLeft},
		{Kind: macro.MouseUp, T: 0.04, Button: macro.ButtonLeft},
		{Kind: macro.MouseScroll, T: 0.05, DY: -1},
		{Kind: macro.KeyUp, T: 0.06, Key: "w"},
	}

	p1, s1 := newTestPlayer(t, events, Options{Speed: 1.0})
	require.NoError(t, p1.Play(context.Background(), NewSignals()))
	p2, s2 := newTestPlayer(t, events, Options{Speed: 1.0})
	require.NoError(t, p2.Play(context.Background(), NewSignals()))

	if diff := cmp.Diff(s1.ops(), s2.ops(), cmpopts.EquateEmpty()); diff != "" {
		t.Errorf("dispatched calls differ between runs (-first +second):\n%s", diff)
	}

	want := []sinkCall{
		{Op: "key_down", Args: "0x11"},
		{Op: "move", Args: "12,-12"},
		{Op: "move", Args: "12,-1"},
		{Op: "move", Args: "12,0"},
		{Op: "move", Args: "11,0"},
		{Op: "button_down", Args: "0x2"},
		{Op: "button_up", Args: "0x4"},
		{Op: "scroll", Args: "-120"},
		{Op: "key_up", Args: "0x11"},
	}
	if diff := cmp.Diff(want, s1.ops()); diff != "" {
		t.Errorf("unexpected dispatch sequence (-want +got):\n%s", diff)
	}
}

func TestPlay_SpeedScaling(t *testing.T) {
	events := []macro.Event{
		{Kind: macro.KeyDown, T: 0.0, Key: "a"},
		{Kind: macro.KeyUp, T: 0.3, Key: "a"},
	}
	for _, speed := range []float64{0.5, 1.0, 3.0} {
		p, sink := newTestPlayer(t, events, Options{Speed: speed})
		start := time.Now()
		require.NoError(t, p.Play(context.Background(), NewSignals()))
		elapsed := time.Since(start)

		want := time.Duration(0.3 / speed * float64(time.Second))
		assert.InDelta(t, want.Milliseconds(), elapsed.Milliseconds(), 40, "speed %.1f", speed)
		assert.Len(t, sink.getCalls(), 2)
	}
}

func TestClampSpeed(t *testing.T) {
	assert.Equal(t, 0.5, ClampSpeed(0.1))
	assert.Equal(t, 3.0, ClampSpeed(10))
	assert.Equal(t, 1.5, ClampSpeed(1.5))
	assert.Equal(t, 0.5, ClampSpeed(0))
	assert.Equal(t, 0.5, ClampSpeed(-2))
	assert.Equal(t, 0.5, ClampSpeed(math.Inf(-1)))
	assert.Equal(t, 3.0, ClampSpeed(math.Inf(1)))
	assert.Equal(t, SpeedDefault, ClampSpeed(math.NaN()))
}

func TestPlay_StopResponsiveness(t *testing.T) {
	events := []macro.Event{
		{Kind: macro.KeyDown, T: 0.0, Key: "a"},
		{Kind: macro.KeyUp, T: 2.0, Key: "a"},
	}
	p, sink := newTestPlayer(t, events, Options{Speed: 1.0})
	sig := NewSignals()

	done := make(chan error, 1)
	go func() { done <- p.Play(context.Background(), sig) }()

	time.Sleep(150 * time.Millisecond)
	stopAt := time.Now()
	sig.Stop()

	select {
	case err := <-done:
		assert.ErrorIs(t, err, ErrStopped)
		assert.Less(t, time.Since(stopAt), 50*time.Millisecond)
	case <-time.After(time.Second):
		t.Fatal("player did not stop")
	}
	assert.Len(t, sink.getCalls(), 1, "key up must not be dispatched after stop")
}

func TestPlay_ContextCancel(t *testing.T) {
	events := []macro.Event{
		{Kind: macro.KeyDown, T: 0.0, Key: "a"},
		{Kind: macro.KeyUp, T: 1.0, Key: "a"},
	}
	p, _ := newTestPlayer(t, events, Options{Speed: 1.0})
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	assert.ErrorIs(t, p.Play(ctx, NewSignals()), ErrStopped)
}

func TestPlay_PauseResume(t *testing.T) {
	events := []macro.Event{
		{Kind: macro.KeyDown, T: 0.0, Key: "a"},
		{Kind: macro.KeyUp, T: 0.05, Key: "a"},
	}
	p, sink := newTestPlayer(t, events, Options{Speed: 1.0})
	sig := NewSignals()
	sig.Pause()

	done := make(chan error, 1)
	go func() { done <- p.Play(context.Background(), sig) }()

	time.Sleep(100 * time.Millisecond)
	assert.Empty(t, sink.getCalls(), "nothing is dispatched while paused")

	sig.Resume()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("player did not resume")
	}
	assert.Len(t, sink.getCalls(), 2)
}

func TestPlay_SkipsUnknownInput(t *testing.T) {
	events := []macro.Event{
		{Kind: macro.KeyDown, T: 0, Key: "hyper"},
		{Kind: macro.MouseDown, T: 0, Button: macro.Button("x2")},
		{Kind: macro.Kind("gamepad"), T: 0},
		{Kind: macro.MouseScroll, T: 0, DY: 0},
		{Kind: macro.KeyDown, T: 0, Key: "ctrl_r"},
	}
	p, sink := newTestPlayer(t, events, Options{Speed: 1.0})
	require.NoError(t, p.Play(context.Background(), nil))
	assert.Equal(t, []sinkCall{{Op: "key_down", Args: "0xe01d"}}, sink.ops())
}

func TestPlay_NonIncreasingTimestamps(t *testing.T) {
	events := []macro.Event{
		{Kind: macro.KeyDown, T: 0.5, Key: "a"},
		{Kind: macro.KeyUp, T: 0.2, Key: "a"},
		{Kind: macro.KeyDown, T: 0.2, Key: "b"},
	}
	p, sink := newTestPlayer(t, events, Options{Speed: 3.0})
	start := time.Now()
	require.NoError(t, p.Play(context.Background(), nil))
	assert.Less(t, time.Since(start), 300*time.Millisecond)
	assert.Len(t, sink.getCalls(), 3)
}

func TestNew_StrategySelection(t *testing.T) {
	settings := humanoid.DefaultSettings()

	p, _ := newTestPlayer(t, threeEventMacro(), Options{Speed: 1, Settings: settings})
	assert.Nil(t, p.Engine())
	assert.Equal(t, "none", p.Strategy().Name())

	p, _ = newTestPlayer(t, threeEventMacro(), Options{Speed: 1, Randomize: true, Settings: settings})
	assert.NotNil(t, p.Engine())
	assert.Equal(t, "engine", p.Strategy().Name())

	settings.AdvancedEnabled = false
	settings.Intensity = 1
	p, _ = newTestPlayer(t, threeEventMacro(), Options{Speed: 1, Randomize: true, Settings: settings})
	assert.Nil(t, p.Engine())
	assert.Equal(t, "legacy", p.Strategy().Name())
}

func TestPlay_HumanizedConservesMovement(t *testing.T) {
	settings := humanoid.DefaultSettings()
	settings.Intensity = 3
	settings.MousePxMin, settings.MousePxMax = 0, 0
	events := []macro.Event{
		{Kind: macro.MouseMove, T: 0, DX: 180, DY: -75},
		{Kind: macro.MouseMove, T: 0, DX: -3, DY: 2},
	}
	report := humanoid.NewReport()
	p, sink := newTestPlayer(t, events, Options{Speed: 3, Randomize: true, Settings: settings, Reporter: report})
	require.NoError(t, p.Play(context.Background(), nil))

	sx, sy := sink.moveSum()
	assert.Equal(t, 177, sx)
	assert.Equal(t, -73, sy)
	for _, c := range sink.getCalls() {
		require.Equal(t, "move", c.Op)
		dx, dy := parseMove(c)
		assert.LessOrEqual(t, abs(dx), settings.PacketMax)
		assert.LessOrEqual(t, abs(dy), settings.PacketMax)
	}
	assert.Equal(t, humanoid.Snapshot{}, report.Snapshot(), "report is cleared when the session ends")
}

func TestPlay_VariableKeyHold(t *testing.T) {
	settings := humanoid.DefaultSettings()
	settings.Intensity = 0
	settings.VariableKeyHold = true
	events := []macro.Event{
		{Kind: macro.KeyDown, T: 0, Key: "e"},
		{Kind: macro.KeyUp, T: 0, Key: "e"},
	}
	p, sink := newTestPlayer(t, events, Options{Speed: 1, Randomize: true, Settings: settings})
	require.NoError(t, p.Play(context.Background(), nil))

	calls := sink.getCalls()
	require.Len(t, calls, 2)
	// At intensity 0 the hold is the 115ms midpoint.
	assert.GreaterOrEqual(t, calls[1].At.Sub(calls[0].At), 110*time.Millisecond)
}

func TestSeed(t *testing.T) {
	events := threeEventMacro()
	assert.Equal(t, Seed(events), Seed(events), "same slice, same seed")
	assert.NotEqual(t, Seed(events), Seed(macro.Clone(events)), "a fresh copy reseeds")
	assert.Zero(t, Seed(nil))
	assert.GreaterOrEqual(t, Seed(events), int64(0))
}
