// Package controller coordinates recording, playback and the quick actions
// (key spammer and mouse clicker) behind one thread-safe state machine.
package controller

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/xkilldash9x/rere/internal/humanoid"
	"github.com/xkilldash9x/rere/internal/input"
	"github.com/xkilldash9x/rere/internal/macro"
	"github.com/xkilldash9x/rere/internal/player"
)

// Join bounds for stopping background workers.
const (
	PlaybackJoinTimeout    = 2 * time.Second
	QuickActionJoinTimeout = time.Second
)

// Recorder is the capture side the controller drives.
type Recorder interface {
	Start() error
	Stop() []macro.Event
	SetLiveCallback(cb func(macro.Event))
}

// Options tune a Controller. The zero value is usable.
type Options struct {
	Settings humanoid.Settings
	// Reporter receives humanization values from playback sessions.
	Reporter humanoid.Reporter
	// OnStateChange is called after every actual state change, outside the
	// controller's lock and possibly from a worker goroutine.
	OnStateChange func(State)
}

// Controller is the record/playback state machine. All methods are safe to
// call from any goroutine.
type Controller struct {
	sink     input.Sink
	recorder Recorder
	logger   *zap.Logger
	reporter humanoid.Reporter
	onChange func(State)

	// mu guards everything below; generation is only written under mu but
	// read lock-free by session reporters. recStopping is set while the
	// recorder is being stopped outside mu.
	mu          sync.Mutex
	state       State
	settings    humanoid.Settings
	recorded    []macro.Event
	live        func(macro.Event)
	signals     *player.Signals
	playback    *worker
	generation  atomic.Uint64
	recStopping bool

	quick *quickActions
}

// New creates a Controller in the Idle state.
func New(sink input.Sink, recorder Recorder, logger *zap.Logger, opts Options) (*Controller, error) {
	if sink == nil {
		return nil, errors.New("input sink cannot be nil")
	}
	if recorder == nil {
		return nil, errors.New("recorder cannot be nil")
	}
	if logger == nil {
		return nil, errors.New("logger cannot be nil")
	}
	if opts.Reporter == nil {
		opts.Reporter = humanoid.NopReporter{}
	}
	if opts.OnStateChange == nil {
		opts.OnStateChange = func(State) {}
	}
	if opts.Settings == (humanoid.Settings{}) {
		opts.Settings = humanoid.DefaultSettings()
	}
	if opts.Reporter == nil {
		opts.Reporter = humanoid.NopReporter{}
	}

	logger = logger.With(zap.String("component", "controller"))
	c := &Controller{
		sink:     sink,
		recorder: recorder,
		logger:   logger,
		reporter: opts.Reporter,
		onChange: opts.OnStateChange,
		state:    Idle,
		settings: opts.Settings,
		signals:  player.NewSignals(),
	}
	c.quick = newQuickActions(sink, logger, c.Settings)
	return c, nil
}

// State returns the current state.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Settings returns the humanization settings used for new sessions.
func (c *Controller) Settings() humanoid.Settings {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.settings
}

// SetSettings replaces the settings for sessions started from now on.
func (c *Controller) SetSettings(s humanoid.Settings) {
	c.mu.Lock()
	c.settings = s
	c.mu.Unlock()
}

// setStateLocked changes state and reports whether it actually changed.
// c.mu must be held; call notify after unlocking.
func (c *Controller) setStateLocked(s State) bool {
	if c.state == s {
		return false
	}
	c.state = s
	return true
}

func (c *Controller) notify(changed bool, s State) {
	if !changed {
		return
	}
	c.logger.Debug("State changed", zap.Stringer("state", s))
	defer func() {
		if p := recover(); p != nil {
			c.logger.Error("State observer panicked", zap.Any("panic", p))
		}
	}()
	c.onChange(s)
}

// SetLiveEventCallback streams events to cb while recording.
func (c *Controller) SetLiveEventCallback(cb func(macro.Event)) {
	c.mu.Lock()
	c.live = cb
	c.mu.Unlock()
}

// RecordedEvents returns a copy of the current event buffer.
func (c *Controller) RecordedEvents() []macro.Event {
	c.mu.Lock()
	defer c.mu.Unlock()
	return macro.Clone(c.recorded)
}

// SetRecordedEvents replaces the event buffer with a copy of events.
func (c *Controller) SetRecordedEvents(events []macro.Event) {
	c.mu.Lock()
	c.recorded = macro.Clone(events)
	c.mu.Unlock()
}

// StartRecording moves Idle to Recording and starts capture. If capture
// cannot start the state returns to Idle and the result is Failed.
func (c *Controller) StartRecording() Result {
	c.mu.Lock()
	if c.state != Idle || c.recStopping {
		c.mu.Unlock()
		return Ignored
	}
	c.recorder.SetLiveCallback(c.live)
	if err := c.recorder.Start(); err != nil {
		c.mu.Unlock()
		c.logger.Error("Failed to start recording", zap.Error(err))
		return Failed
	}
	changed := c.setStateLocked(Recording)
	c.mu.Unlock()

	c.logger.Info("Recording started")
	c.notify(changed, Recording)
	return Applied
}

// StopRecording moves Recording to Idle, stores the captured events as the
// current buffer and returns a copy of them.
func (c *Controller) StopRecording() ([]macro.Event, Result) {
	c.mu.Lock()
	if c.state != Recording || c.recStopping {
		c.mu.Unlock()
		return nil, Ignored
	}
	c.recStopping = true
	c.mu.Unlock()

	// Stop joins the capture thread, which may be inside the live callback
	// calling back into the controller, so mu must not be held here.
	events := c.recorder.Stop()

	c.mu.Lock()
	c.recStopping = false
	c.recorded = events
	changed := c.setStateLocked(Idle)
	c.mu.Unlock()

	c.logger.Info("Recording stopped", zap.Int("events", len(events)))
	c.notify(changed, Idle)
	return macro.Clone(events), Applied
}

// StartPlayback plays events, or the current buffer when events is nil, on a
// background goroutine. It is ignored unless Idle with something to play.
func (c *Controller) StartPlayback(events []macro.Event, speed float64, randomize bool) Result {
	c.mu.Lock()
	if c.state != Idle {
		c.mu.Unlock()
		return Ignored
	}
	toPlay := events
	if toPlay == nil {
		// The buffer itself, not a copy, so repeated plays reuse the same seed.
		toPlay = c.recorded
	}
	if len(toPlay) == 0 {
		c.mu.Unlock()
		return Ignored
	}

	c.signals = player.NewSignals()
	gen := c.generation.Add(1)
	sig := c.signals
	w, ctx := newWorker()
	c.playback = w
	p := player.New(toPlay, player.Options{
		Speed:     speed,
		Randomize: randomize,
		Settings:  c.settings,
		Reporter:  newSessionReporter(c.reporter, &c.generation, gen),
	}, c.sink, c.logger.With(zap.String("session_id", w.id)))
	changed := c.setStateLocked(Playing)
	c.mu.Unlock()

	c.logger.Info("Playback started",
		zap.String("session_id", w.id),
		zap.Int("events", len(toPlay)),
		zap.Float64("speed", p.Speed()),
		zap.Bool("randomize", randomize))
	c.notify(changed, Playing)

	go c.runPlayback(ctx, w, p, sig, gen)
	return Applied
}

func (c *Controller) runPlayback(ctx context.Context, w *worker, p *player.Player, sig *player.Signals, gen uint64) {
	defer close(w.done)

	err := func() (err error) {
		defer func() {
			if r := recover(); r != nil {
				c.logger.Error("Playback worker panicked", zap.String("session_id", w.id), zap.Any("panic", r))
				err = errors.New("playback panicked")
			}
		}()
		return p.Play(ctx, sig)
	}()

	switch {
	case errors.Is(err, player.ErrStopped):
		c.logger.Info("Playback stopped", zap.String("session_id", w.id))
	case err != nil:
		c.logger.Warn("Playback ended with error", zap.String("session_id", w.id), zap.Error(err))
	default:
		c.logger.Info("Playback finished", zap.String("session_id", w.id))
	}
	c.finishPlayback(gen)
}

// finishPlayback returns to Idle if gen is still the current session. A
// stale worker from an abandoned session must not touch a newer one.
func (c *Controller) finishPlayback(gen uint64) {
	c.mu.Lock()
	current := c.generation.Load() == gen
	changed := false
	if current {
		// Retire the session so its reporter goes quiet even if the worker
		// was abandoned and is still running.
		c.generation.Add(1)
		c.playback = nil
		if c.state == Playing || c.state == Paused {
			changed = c.setStateLocked(Idle)
		}
	}
	c.mu.Unlock()
	if current {
		c.reporter.Clear()
	}
	c.notify(changed, Idle)
}

// Pause moves Playing to Paused.
func (c *Controller) Pause() Result {
	c.mu.Lock()
	if c.state != Playing {
		c.mu.Unlock()
		return Ignored
	}
	c.signals.Pause()
	changed := c.setStateLocked(Paused)
	c.mu.Unlock()
	c.notify(changed, Paused)
	return Applied
}

// Resume moves Paused to Playing.
func (c *Controller) Resume() Result {
	c.mu.Lock()
	if c.state != Paused {
		c.mu.Unlock()
		return Ignored
	}
	c.signals.Resume()
	changed := c.setStateLocked(Playing)
	c.mu.Unlock()
	c.notify(changed, Playing)
	return Applied
}

// StopPlayback stops the current session and waits up to two seconds for
// the worker. The state is Idle afterwards either way; a worker that missed
// the deadline has already been cancelled and is logged.
func (c *Controller) StopPlayback() Result {
	c.mu.Lock()
	if c.state != Playing && c.state != Paused {
		c.mu.Unlock()
		return Ignored
	}
	c.signals.Stop()
	w, gen := c.playback, c.generation.Load()
	c.mu.Unlock()

	if w != nil && !w.stop(PlaybackJoinTimeout) {
		c.logger.Warn("Playback worker did not stop in time, forcing idle",
			zap.String("session_id", w.id),
			zap.Duration("timeout", PlaybackJoinTimeout))
	}
	c.finishPlayback(gen)
	return Applied
}

// PlaybackDone returns a channel closed when the current playback worker
// exits. With no playback running the channel is already closed.
func (c *Controller) PlaybackDone() <-chan struct{} {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.playback == nil {
		return closedChan
	}
	return c.playback.done
}

// StartKeySpammer presses key repeatedly (tap) or holds it down (hold) on a
// background goroutine. A nil count repeats until stopped. Unknown keys are
// ignored. A running spammer is stopped first.
func (c *Controller) StartKeySpammer(key string, tap bool, intervalMs int, count *int, randomize bool) Result {
	return c.quick.startKeySpammer(key, tap, intervalMs, count, randomize)
}

// StopKeySpammer stops the key spammer, waiting up to one second. Idempotent.
func (c *Controller) StopKeySpammer() Result { return c.quick.stopKeySpammer() }

// KeySpammerRunning reports whether the key spammer is active.
func (c *Controller) KeySpammerRunning() bool { return c.quick.keySpammerRunning() }

// LastKeyIntervalMs returns the last interval the spammer waited, jitter included.
func (c *Controller) LastKeyIntervalMs() (float64, bool) { return c.quick.lastKeyInterval() }

// KeySpammerDone returns a channel closed when the key spammer exits.
func (c *Controller) KeySpammerDone() <-chan struct{} { return c.quick.keySpammerDone() }

// StartMouseClicker clicks the left (or right) button repeatedly.
func (c *Controller) StartMouseClicker(left bool, intervalMs int, count *int, randomize bool) Result {
	return c.quick.startMouseClicker(left, intervalMs, count, randomize)
}

// StopMouseClicker stops the clicker, waiting up to one second. Idempotent.
func (c *Controller) StopMouseClicker() Result { return c.quick.stopMouseClicker() }

// MouseClickerRunning reports whether the clicker is active.
func (c *Controller) MouseClickerRunning() bool { return c.quick.mouseClickerRunning() }

// LastMouseIntervalMs returns the last interval the clicker waited, jitter included.
func (c *Controller) LastMouseIntervalMs() (float64, bool) { return c.quick.lastMouseInterval() }

// MouseClickerDone returns a channel closed when the clicker exits.
func (c *Controller) MouseClickerDone() <-chan struct{} { return c.quick.mouseClickerDone() }

// EmergencyStop halts everything: both quick actions, then recording or
// playback, then releases every key and mouse button. It never fails and
// always leaves the controller Idle with no quick action running.
func (c *Controller) EmergencyStop() {
	defer func() {
		if p := recover(); p != nil {
			c.logger.Error("Emergency stop recovered from panic", zap.Any("panic", p))
		}
	}()
	c.logger.Warn("Emergency stop")

	var g errgroup.Group
	g.Go(func() error {
		c.StopKeySpammer()
		return nil
	})
	g.Go(func() error {
		c.StopMouseClicker()
		return nil
	})
	_ = g.Wait()

	// Each is a no-op unless it applies to the current state.
	c.StopRecording()
	c.StopPlayback()

	input.ReleaseAll(c.sink, c.logger)
	c.forceIdle()
}

// forceIdle is the last resort of EmergencyStop: whatever state a racing
// request left behind, end in Idle.
func (c *Controller) forceIdle() {
	c.StopRecording()

	c.mu.Lock()
	if c.recStopping {
		// A concurrent StopRecording finishes the move to Idle.
		c.mu.Unlock()
		return
	}
	retired := false
	switch c.state {
	case Playing, Paused:
		c.signals.Stop()
		if c.playback != nil {
			c.playback.cancel()
		}
		c.playback = nil
		c.generation.Add(1)
		retired = true
	}
	changed := c.setStateLocked(Idle)
	c.mu.Unlock()
	if retired {
		c.reporter.Clear()
	}
	c.notify(changed, Idle)
}

// lastInterval holds an optional float for lock-free reads.
type lastInterval struct {
	v atomic.Pointer[float64]
}

func (l *lastInterval) set(ms float64) { l.v.Store(&ms) }
func (l *lastInterval) clear()         { l.v.Store(nil) }

func (l *lastInterval) get() (float64, bool) {
	p := l.v.Load()
	if p == nil {
		return 0, false
	}
	return *p, true
}
