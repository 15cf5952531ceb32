// internal/humanoid/strategy.go
package humanoid

import (
	"math/rand"
	"sync"
)

// Strategy decides how recorded timing and mouse deltas are varied on replay.
type Strategy interface {
	// Name identifies the strategy in logs.
	Name() string
	// AdjustDelay applies jitter to a positive inter-event delay in seconds,
	// before speed scaling.
	AdjustDelay(delay float64) float64
	// MousePx returns pixel noise for one axis of a mouse move.
	MousePx() int
}

// EngineStrategy applies gaussian jitter and session drift from an Engine.
type EngineStrategy struct {
	Engine *Engine
}

func (s EngineStrategy) Name() string { return "engine" }

func (s EngineStrategy) AdjustDelay(delay float64) float64 {
	delay += s.Engine.DelayJitterMs() / 1000.0
	return delay * s.Engine.DriftFactor()
}

func (s EngineStrategy) MousePx() int { return s.Engine.MousePx() }

// LegacyStrategy applies independent uniform jitter: +-[min,max] ms on delays
// and +-[min,max] px on each mouse axis.
type LegacyStrategy struct {
	mu       sync.Mutex
	rng      *rand.Rand
	settings Settings
}

// NewLegacyStrategy creates a LegacyStrategy drawing from rng.
func NewLegacyStrategy(settings Settings, rng *rand.Rand) *LegacyStrategy {
	return &LegacyStrategy{rng: rng, settings: settings}
}

func (s *LegacyStrategy) Name() string { return "legacy" }

func (s *LegacyStrategy) AdjustDelay(delay float64) float64 {
	return delay + s.JitterMs()/1000.0
}

// JitterMs returns signed jitter whose magnitude lies in the configured
// [min, max] ms range, with a 0.5ms floor.
func (s *LegacyStrategy) JitterMs() float64 {
	lo, hi := s.settings.timeBounds()
	s.mu.Lock()
	defer s.mu.Unlock()
	ms := lo + (hi-lo)*s.rng.Float64()
	if s.rng.Float64() < 0.5 {
		return ms
	}
	return -ms
}

func (s *LegacyStrategy) MousePx() int {
	lo, hi := s.settings.pxBounds()
	s.mu.Lock()
	defer s.mu.Unlock()
	px := lo + s.rng.Intn(hi-lo+1)
	if s.rng.Float64() < 0.5 {
		return px
	}
	return -px
}

// NoJitter replays recorded timing and deltas unchanged.
type NoJitter struct{}

func (NoJitter) Name() string                      { return "none" }
func (NoJitter) AdjustDelay(delay float64) float64 { return delay }
func (NoJitter) MousePx() int                      { return 0 }
