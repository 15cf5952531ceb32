// Package player replays recorded events through an input sink, either
// exactly as recorded or with humanized timing and mouse paths.
package player

import (
	"context"
	"errors"
	"hash/fnv"
	"math"
	"math/rand"
	"time"
	"unsafe"

	json "github.com/json-iterator/go"
	"go.uber.org/zap"

	"github.com/xkilldash9x/rere/internal/humanoid"
	"github.com/xkilldash9x/rere/internal/input"
	"github.com/xkilldash9x/rere/internal/macro"
	"github.com/xkilldash9x/rere/internal/scancode"
)

// ErrStopped is returned by Play when the session was cancelled before the
// last event was dispatched.
var ErrStopped = errors.New("playback stopped")

// Speed bounds for playback.
const (
	SpeedMin     = 0.5
	SpeedMax     = 3.0
	SpeedDefault = 1.0
)

const (
	seedEvents = 32

	waitStep  = time.Millisecond
	pauseStep = 10 * time.Millisecond
)

// Options configure one playback session.
type Options struct {
	Speed     float64
	Randomize bool
	Settings  humanoid.Settings
	// Reporter receives the applied humanization values. Optional.
	Reporter humanoid.Reporter
}

// Player replays one event list. It is single use: build a new Player for
// every session.
type Player struct {
	events   []macro.Event
	speed    float64
	settings humanoid.Settings
	engine   *humanoid.Engine
	strategy humanoid.Strategy
	reporter humanoid.Reporter
	sink     input.Sink
	logger   *zap.Logger
	packet   int

	holdKey   string
	holdUntil time.Time
}

// New builds a player. Speed is clamped to [SpeedMin, SpeedMax]. An engine is
// created only when Randomize is set and advanced humanization is enabled.
func New(events []macro.Event, opts Options, sink input.Sink, logger *zap.Logger) *Player {
	if logger == nil {
		logger = zap.NewNop()
	}
	reporter := opts.Reporter
	if reporter == nil {
		reporter = humanoid.NopReporter{}
	}
	p := &Player{
		events:   events,
		speed:    ClampSpeed(opts.Speed),
		settings: opts.Settings,
		reporter: reporter,
		sink:     sink,
		logger:   logger.Named("player"),
		packet:   input.ClampPacket(opts.Settings.PacketMax),
		strategy: humanoid.NoJitter{},
	}

	switch {
	case opts.Randomize && opts.Settings.AdvancedEnabled:
		p.engine = humanoid.NewEngine(Seed(events), opts.Settings, reporter)
		p.strategy = humanoid.EngineStrategy{Engine: p.engine}
	case opts.Randomize:
		p.strategy = humanoid.NewLegacyStrategy(opts.Settings, rand.New(rand.NewSource(time.Now().UnixNano())))
	}
	return p
}

// ClampSpeed bounds a speed multiplier to [SpeedMin, SpeedMax]. NaN maps to
// the default.
func ClampSpeed(speed float64) float64 {
	if math.IsNaN(speed) {
		return SpeedDefault
	}
	return math.Max(SpeedMin, math.Min(SpeedMax, speed))
}

// Seed derives the engine seed from an event list: the address of its backing
// array plus the content of its first 32 events, hashed with FNV-1a. Playing
// the same slice again yields the same seed; a new recording or load does not.
func Seed(events []macro.Event) int64 {
	if len(events) == 0 {
		return 0
	}
	h := fnv.New64a()
	addr := uint64(uintptr(unsafe.Pointer(unsafe.SliceData(events))))
	var buf [8]byte
	for i := range buf {
		buf[i] = byte(addr >> (8 * i))
	}
	_, _ = h.Write(buf[:])

	head := events[:min(len(events), seedEvents)]
	if data, err := json.Marshal(head); err == nil {
		_, _ = h.Write(data)
	}
	return int64(h.Sum64() & math.MaxUint32)
}

// Speed returns the clamped speed.
func (p *Player) Speed() float64 { return p.speed }

// Engine returns the session engine, or nil when playback is not humanized.
func (p *Player) Engine() *humanoid.Engine { return p.engine }

// Strategy returns the jitter strategy in use.
func (p *Player) Strategy() humanoid.Strategy { return p.strategy }

// Play dispatches every event in order, honoring the recorded gaps divided by
// speed. It returns ErrStopped if ctx is cancelled or sig.Stop is called first.
func (p *Player) Play(ctx context.Context, sig *Signals) error {
	if sig == nil {
		sig = NewSignals()
	}
	defer p.reporter.Clear()

	p.logger.Debug("Playback starting",
		zap.Int("events", len(p.events)),
		zap.Float64("speed", p.speed),
		zap.String("strategy", p.strategy.Name()))

	lastT := 0.0
	for i := range p.events {
		ev := p.events[i]
		if p.stopped(ctx, sig) {
			return ErrStopped
		}
		if !p.waitWhilePaused(ctx, sig) {
			return ErrStopped
		}

		delay := ev.T - lastT
		if delay > 0 {
			delay = p.strategy.AdjustDelay(delay) / p.speed
			if !p.wait(ctx, sig, secondsToDuration(delay)) {
				return ErrStopped
			}
			if p.engine != nil && p.engine.ShouldMicroPause() {
				pause := p.engine.MicroPauseMs() / 1000.0 / p.speed
				if !p.wait(ctx, sig, secondsToDuration(pause)) {
					return ErrStopped
				}
			}
		}
		lastT = ev.T

		if !p.holdUntil.IsZero() {
			if ev.Kind == macro.KeyUp && ev.Key == p.holdKey {
				if !p.wait(ctx, sig, time.Until(p.holdUntil)) {
					return ErrStopped
				}
			}
			p.holdUntil = time.Time{}
		}

		p.dispatch(ev)

		if ev.Kind == macro.KeyDown && p.engine != nil && p.settings.VariableKeyHold &&
			i+1 < len(p.events) && p.events[i+1].Kind == macro.KeyUp && p.events[i+1].Key == ev.Key {
			hold := p.engine.KeyHoldMs() / 1000.0 / p.speed
			p.holdKey = ev.Key
			p.holdUntil = time.Now().Add(secondsToDuration(hold))
		}
	}

	p.logger.Debug("Playback finished", zap.Int("events", len(p.events)))
	return nil
}

func (p *Player) stopped(ctx context.Context, sig *Signals) bool {
	return sig.Stopped() || ctx.Err() != nil
}

// waitWhilePaused blocks while the pause signal is set. It reports false if
// the session was stopped meanwhile.
func (p *Player) waitWhilePaused(ctx context.Context, sig *Signals) bool {
	for sig.Paused() {
		if p.stopped(ctx, sig) {
			return false
		}
		time.Sleep(pauseStep)
	}
	return !p.stopped(ctx, sig)
}

// wait sleeps until d has elapsed in 1ms steps, re-checking stop and pause on
// every step. The deadline is fixed when wait starts; time spent paused counts
// toward it.
func (p *Player) wait(ctx context.Context, sig *Signals, d time.Duration) bool {
	deadline := time.Now().Add(d)
	for {
		if !p.waitWhilePaused(ctx, sig) {
			return false
		}
		remaining := time.Until(deadline)
		if remaining <= 0 {
			return true
		}
		time.Sleep(min(remaining, waitStep))
	}
}

func (p *Player) dispatch(ev macro.Event) {
	switch ev.Kind {
	case macro.KeyDown, macro.KeyUp:
		sc, ok := scancode.Lookup(ev.Key)
		if !ok {
			p.logger.Debug("Skipping unknown key", zap.String("key", ev.Key))
			return
		}
		var sent bool
		if ev.Kind == macro.KeyDown {
			sent = p.sink.KeyDown(sc)
		} else {
			sent = p.sink.KeyUp(sc)
		}
		p.checkSent(sent, ev)

	case macro.MouseMove:
		dx := ev.DX + p.strategy.MousePx()
		dy := ev.DY + p.strategy.MousePx()
		if p.engine != nil && p.settings.AdvancedEnabled {
			for _, pkt := range p.engine.Path(dx, dy, p.packet) {
				if !p.sink.MoveRelative(pkt[0], pkt[1]) {
					p.checkSent(false, ev)
					return
				}
			}
			return
		}
		p.checkSent(input.MoveRelativeChunked(p.sink, dx, dy, p.packet), ev)

	case macro.MouseDown, macro.MouseUp:
		down, up, ok := ev.Button.Flags()
		if !ok {
			p.logger.Debug("Skipping unknown mouse button", zap.String("button", string(ev.Button)))
			return
		}
		if ev.Kind == macro.MouseDown {
			p.checkSent(p.sink.MouseButtonDown(down), ev)
		} else {
			p.checkSent(p.sink.MouseButtonUp(up), ev)
		}

	case macro.MouseScroll:
		if ev.DY != 0 {
			p.checkSent(p.sink.Scroll(ev.DY*input.WheelDelta), ev)
		}

	default:
		p.logger.Debug("Skipping unknown event type", zap.String("type", string(ev.Kind)))
	}
}

func (p *Player) checkSent(ok bool, ev macro.Event) {
	if !ok {
		p.logger.Debug("Input sink refused event", zap.String("type", string(ev.Kind)), zap.Float64("t", ev.T))
	}
}

func secondsToDuration(s float64) time.Duration {
	if s <= 0 || math.IsNaN(s) {
		return 0
	}
	return time.Duration(s * float64(time.Second))
}
