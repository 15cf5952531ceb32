package controller

import (
	"context"
	"math/rand"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/xkilldash9x/rere/internal/config"
	"github.com/xkilldash9x/rere/internal/humanoid"
	"github.com/xkilldash9x/rere/internal/input"
	"github.com/xkilldash9x/rere/internal/scancode"
)

// quickAction is one independently started background loop.
type quickAction struct {
	name string
	// ctl serializes start and stop so a restart never overlaps two workers.
	ctl    sync.Mutex
	worker atomic.Pointer[worker]
	last   lastInterval
}

func (q *quickAction) running() bool {
	w := q.worker.Load()
	return w != nil && !w.finished()
}

func (q *quickAction) done() <-chan struct{} {
	if w := q.worker.Load(); w != nil {
		return w.done
	}
	return closedChan
}

// stopLocked stops the current worker. q.ctl must be held.
func (q *quickAction) stopLocked(logger *zap.Logger) Result {
	w := q.worker.Swap(nil)
	if w == nil {
		return Ignored
	}
	if !w.stop(QuickActionJoinTimeout) {
		logger.Warn("Quick action worker did not stop in time",
			zap.String("action", q.name),
			zap.String("worker_id", w.id),
			zap.Duration("timeout", QuickActionJoinTimeout))
	}
	q.last.clear()
	return Applied
}

type quickActions struct {
	sink     input.Sink
	logger   *zap.Logger
	settings func() humanoid.Settings

	key   quickAction
	mouse quickAction
}

func newQuickActions(sink input.Sink, logger *zap.Logger, settings func() humanoid.Settings) *quickActions {
	return &quickActions{
		sink:     sink,
		logger:   logger.Named("quick"),
		settings: settings,
		key:      quickAction{name: "key_spammer"},
		mouse:    quickAction{name: "mouse_clicker"},
	}
}

// loopSpec describes one tap loop.
type loopSpec struct {
	press      func() bool
	release    func() bool
	intervalMs int
	count      *int
	jitter     func() float64
}

func (qa *quickActions) jitterFunc(randomize bool) func() float64 {
	if !randomize {
		return func() float64 { return 0 }
	}
	s := humanoid.NewLegacyStrategy(qa.settings(), rand.New(rand.NewSource(time.Now().UnixNano())))
	return s.JitterMs
}

// validInterval keeps tap loops from spinning: every press is followed by a
// real sleep of at least the configured minimum.
func validInterval(ms int) bool {
	return ms >= config.QuickIntervalMinMs && ms <= config.QuickIntervalMaxMs
}

func (qa *quickActions) startKeySpammer(key string, tap bool, intervalMs int, count *int, randomize bool) Result {
	sc, ok := scancode.Lookup(key)
	if !ok {
		qa.logger.Warn("Unknown key for spammer", zap.String("key", key))
		return Ignored
	}
	if count != nil && *count <= 0 {
		return Ignored
	}
	if tap && !validInterval(intervalMs) {
		qa.logger.Warn("Key spammer interval out of range", zap.Int("interval_ms", intervalMs))
		return Ignored
	}

	qa.key.ctl.Lock()
	defer qa.key.ctl.Unlock()
	qa.key.stopLocked(qa.logger)

	w, ctx := newWorker()
	qa.key.worker.Store(w)
	logger := qa.logger.With(zap.String("action", qa.key.name), zap.String("worker_id", w.id))

	if !tap {
		logger.Info("Key spammer holding", zap.String("key", key))
		go qa.runHold(ctx, w, sc, logger)
		return Applied
	}

	logger.Info("Key spammer started",
		zap.String("key", key),
		zap.Int("interval_ms", intervalMs),
		zap.Bool("randomize", randomize))
	go qa.runTap(ctx, w, &qa.key.last, loopSpec{
		press:      func() bool { return qa.sink.KeyDown(sc) },
		release:    func() bool { return qa.sink.KeyUp(sc) },
		intervalMs: intervalMs,
		count:      count,
		jitter:     qa.jitterFunc(randomize),
	}, logger)
	return Applied
}

func (qa *quickActions) stopKeySpammer() Result {
	qa.key.ctl.Lock()
	defer qa.key.ctl.Unlock()
	return qa.key.stopLocked(qa.logger)
}

func (qa *quickActions) keySpammerRunning() bool         { return qa.key.running() }
func (qa *quickActions) lastKeyInterval() (float64, bool) { return qa.key.last.get() }
func (qa *quickActions) keySpammerDone() <-chan struct{}  { return qa.key.done() }

func (qa *quickActions) startMouseClicker(left bool, intervalMs int, count *int, randomize bool) Result {
	if count != nil && *count <= 0 {
		return Ignored
	}
	if !validInterval(intervalMs) {
		qa.logger.Warn("Mouse clicker interval out of range", zap.Int("interval_ms", intervalMs))
		return Ignored
	}
	down, up, button := input.LeftDown, input.LeftUp, "left"
	if !left {
		down, up, button = input.RightDown, input.RightUp, "right"
	}

	qa.mouse.ctl.Lock()
	defer qa.mouse.ctl.Unlock()
	qa.mouse.stopLocked(qa.logger)

	w, ctx := newWorker()
	qa.mouse.worker.Store(w)
	logger := qa.logger.With(zap.String("action", qa.mouse.name), zap.String("worker_id", w.id))
	logger.Info("Mouse clicker started",
		zap.String("button", button),
		zap.Int("interval_ms", intervalMs),
		zap.Bool("randomize", randomize))

	go qa.runTap(ctx, w, &qa.mouse.last, loopSpec{
		press:      func() bool { return qa.sink.MouseButtonDown(down) },
		release:    func() bool { return qa.sink.MouseButtonUp(up) },
		intervalMs: intervalMs,
		count:      count,
		jitter:     qa.jitterFunc(randomize),
	}, logger)
	return Applied
}

func (qa *quickActions) stopMouseClicker() Result {
	qa.mouse.ctl.Lock()
	defer qa.mouse.ctl.Unlock()
	return qa.mouse.stopLocked(qa.logger)
}

func (qa *quickActions) mouseClickerRunning() bool         { return qa.mouse.running() }
func (qa *quickActions) lastMouseInterval() (float64, bool) { return qa.mouse.last.get() }
func (qa *quickActions) mouseClickerDone() <-chan struct{}  { return qa.mouse.done() }

// runTap presses and releases until count is reached or ctx is cancelled.
// There is no wait after the final press.
func (qa *quickActions) runTap(ctx context.Context, w *worker, last *lastInterval, spec loopSpec, logger *zap.Logger) {
	defer close(w.done)
	defer func() {
		if r := recover(); r != nil {
			logger.Error("Quick action worker panicked", zap.Any("panic", r))
		}
	}()

	presses := 0
	for spec.count == nil || presses < *spec.count {
		if ctx.Err() != nil {
			break
		}
		if !spec.press() || !spec.release() {
			logger.Debug("Sink refused quick action input")
		}
		presses++
		if spec.count != nil && presses >= *spec.count {
			break
		}

		ms := max(0, float64(spec.intervalMs)+spec.jitter())
		last.set(ms)
		if !sleepCtx(ctx, time.Duration(ms*float64(time.Millisecond))) {
			break
		}
	}
	logger.Info("Quick action finished", zap.Int("presses", presses))
}

// runHold keeps the key down until ctx is cancelled. The key is released on
// every exit path.
func (qa *quickActions) runHold(ctx context.Context, w *worker, sc scancode.Code, logger *zap.Logger) {
	defer close(w.done)
	defer func() {
		if r := recover(); r != nil {
			logger.Error("Key hold worker panicked", zap.Any("panic", r))
		}
	}()
	defer func() {
		if !qa.sink.KeyUp(sc) {
			logger.Warn("Failed to release held key", zap.Uint16("scancode", uint16(sc)))
		}
	}()

	if !qa.sink.KeyDown(sc) {
		logger.Warn("Failed to press held key", zap.Uint16("scancode", uint16(sc)))
	}
	<-ctx.Done()
	logger.Info("Key hold released")
}
