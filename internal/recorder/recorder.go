// Package recorder timestamps raw OS input into macro events.
package recorder

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/xkilldash9x/rere/internal/macro"
)

var (
	// ErrUnsupportedPlatform is returned by sources that cannot capture input here.
	ErrUnsupportedPlatform = errors.New("input capture is not supported on this platform")
	// ErrAlreadyRecording is returned by Start while a recording is active.
	ErrAlreadyRecording = errors.New("recording already in progress")
)

// liveMoveRate bounds how many mouse moves per second reach the live callback.
const liveMoveRate = 60

// RawKind classifies a raw capture event.
type RawKind int

const (
	RawKeyDown RawKind = iota
	RawKeyUp
	RawMouseMove
	RawButton
	RawScroll
)

// RawEvent is one input notification from a Source. Mouse moves carry the
// absolute cursor position; scroll events carry wheel notches.
type RawEvent struct {
	Kind    RawKind
	Key     string
	X, Y    int
	Button  macro.Button
	Pressed bool
	Notches int
}

// Source delivers raw OS input. Start must not block; emit may be called from
// any goroutine until Stop returns.
type Source interface {
	Start(emit func(RawEvent)) error
	Stop() error
}

// Recorder turns raw input into an ordered list of macro events with
// timestamps relative to Start.
type Recorder struct {
	source Source
	logger *zap.Logger
	now    func() time.Time

	mu        sync.Mutex
	running   bool
	start     time.Time
	events    []macro.Event
	lastPos   [2]int
	havePos   bool
	live      func(macro.Event)
	liveMoves *rate.Limiter
}

// New creates a Recorder reading from source.
func New(source Source, logger *zap.Logger) *Recorder {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Recorder{
		source:    source,
		logger:    logger.Named("recorder"),
		now:       time.Now,
		liveMoves: rate.NewLimiter(rate.Limit(liveMoveRate), 1),
	}
}

// SetLiveCallback registers cb to receive every recorded event as it happens.
// cb runs on the capture goroutine and must not block. Mouse moves are
// thinned to 60 per second for the callback only; the recording keeps all of them.
func (r *Recorder) SetLiveCallback(cb func(macro.Event)) {
	r.mu.Lock()
	r.live = cb
	r.mu.Unlock()
}

// Running reports whether a recording is active.
func (r *Recorder) Running() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.running
}

// Start clears the buffer and begins capturing.
func (r *Recorder) Start() error {
	r.mu.Lock()
	if r.running {
		r.mu.Unlock()
		return ErrAlreadyRecording
	}
	r.events = nil
	r.havePos = false
	r.start = r.now()
	r.running = true
	r.mu.Unlock()

	if err := r.source.Start(r.handle); err != nil {
		r.mu.Lock()
		r.running = false
		r.mu.Unlock()
		return fmt.Errorf("failed to start input capture: %w", err)
	}
	r.logger.Debug("Recording started")
	return nil
}

// Stop ends capturing and returns a copy of the recorded events.
// Calling Stop when not recording returns the last recording.
func (r *Recorder) Stop() []macro.Event {
	r.mu.Lock()
	wasRunning := r.running
	r.running = false
	r.mu.Unlock()

	if wasRunning {
		if err := r.source.Stop(); err != nil {
			r.logger.Warn("Input capture did not stop cleanly", zap.Error(err))
		}
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.logger.Debug("Recording stopped", zap.Int("events", len(r.events)))
	return macro.Clone(r.events)
}

func (r *Recorder) handle(raw RawEvent) {
	r.mu.Lock()
	if !r.running {
		r.mu.Unlock()
		return
	}
	t := r.now().Sub(r.start).Seconds()

	var ev macro.Event
	switch raw.Kind {
	case RawKeyDown, RawKeyUp:
		if raw.Key == "" {
			r.mu.Unlock()
			return
		}
		kind := macro.KeyDown
		if raw.Kind == RawKeyUp {
			kind = macro.KeyUp
		}
		ev = macro.Event{Kind: kind, T: t, Key: raw.Key}

	case RawMouseMove:
		// The first position only seeds the delta baseline.
		prev, had := r.lastPos, r.havePos
		r.lastPos, r.havePos = [2]int{raw.X, raw.Y}, true
		dx, dy := raw.X-prev[0], raw.Y-prev[1]
		if !had || (dx == 0 && dy == 0) {
			r.mu.Unlock()
			return
		}
		ev = macro.Event{Kind: macro.MouseMove, T: t, DX: dx, DY: dy}

	case RawButton:
		kind := macro.MouseUp
		if raw.Pressed {
			kind = macro.MouseDown
		}
		ev = macro.Event{Kind: kind, T: t, Button: raw.Button}

	case RawScroll:
		ev = macro.Event{Kind: macro.MouseScroll, T: t, DY: raw.Notches}

	default:
		r.mu.Unlock()
		return
	}

	r.events = append(r.events, ev)
	live := r.live
	if live != nil && ev.Kind == macro.MouseMove && !r.liveMoves.Allow() {
		live = nil
	}
	r.mu.Unlock()

	if live != nil {
		r.emitLive(live, ev)
	}
}

func (r *Recorder) emitLive(cb func(macro.Event), ev macro.Event) {
	defer func() {
		if p := recover(); p != nil {
			r.logger.Error("Live event callback panicked", zap.Any("panic", p))
		}
	}()
	cb(ev)
}
