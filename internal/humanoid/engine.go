// internal/humanoid/engine.go
package humanoid

import (
	"math"
	"math/rand"
	"sync"
	"time"
)

// Engine tuning. Jitter is in ms, drift is a fraction of the delay.
const (
	gaussianMsLo = 3.0
	gaussianMsHi = 18.0

	keyHoldMsLo = 50.0
	keyHoldMsHi = 180.0

	driftPct       = 0.04
	driftPeriodMin = 5 * 60.0
	driftPeriodMax = 30 * 60.0

	microPauseMsLo    = 150.0
	microPauseMsHi    = 450.0
	microPauseEveryLo = 8
	microPauseEveryHi = 25
	microPauseProbLo  = 0.03
	microPauseProbHi  = 0.07

	maxIntensityScale = 2.0
)

// Engine produces the randomness for one humanized playback session.
// It is seeded once, so a given seed yields the same sequence of values.
type Engine struct {
	// mu protects every field below; all draws advance rng.
	mu         sync.Mutex
	rng        *rand.Rand
	intensity  float64
	eventCount int
	start      time.Time
	phase      float64
	pxMin      int
	pxMax      int
	reporter   Reporter
	now        func() time.Time
}

// NewEngine creates an engine seeded with seed. The intensity scale comes from
// the settings' level and is clamped to [0, 2].
func NewEngine(seed int64, settings Settings, reporter Reporter) *Engine {
	if reporter == nil {
		reporter = NopReporter{}
	}
	rng := rand.New(rand.NewSource(seed))
	lo, hi := settings.pxBounds()
	e := &Engine{
		rng:       rng,
		intensity: math.Max(0, math.Min(maxIntensityScale, settings.IntensityScale())),
		start:     time.Now(),
		pxMin:     lo,
		pxMax:     hi,
		reporter:  reporter,
		now:       time.Now,
	}
	e.phase = rng.Float64() * 2 * math.Pi
	return e
}

// Intensity returns the clamped intensity scale.
func (e *Engine) Intensity() float64 { return e.intensity }

func (e *Engine) scale(lo, hi float64) float64 {
	return lo + (hi-lo)*e.intensity
}

func (e *Engine) uniform(lo, hi float64) float64 {
	return lo + (hi-lo)*e.rng.Float64()
}

// randInt returns an int in [lo, hi], inclusive.
func (e *Engine) randInt(lo, hi int) int {
	if hi <= lo {
		return lo
	}
	return lo + e.rng.Intn(hi-lo+1)
}

// DelayJitterMs returns zero-mean gaussian jitter, clamped to +-hi where hi
// grows from 9ms to 18ms with intensity.
func (e *Engine) DelayJitterMs() float64 {
	e.mu.Lock()
	lo := e.scale(gaussianMsLo, gaussianMsHi*0.5)
	hi := e.scale(gaussianMsHi*0.5, gaussianMsHi)
	sigma := (lo + hi) / 4.0
	j := e.rng.NormFloat64() * sigma
	e.mu.Unlock()

	j = math.Max(-hi, math.Min(hi, j))
	e.reporter.DelayJitter(j)
	return j
}

// KeyHoldMs returns a key hold duration in [50, 180] ms. At zero intensity it
// is always the midpoint.
func (e *Engine) KeyHoldMs() float64 {
	e.mu.Lock()
	u := e.uniform(keyHoldMsLo, keyHoldMsHi)
	e.mu.Unlock()

	mid := (keyHoldMsLo + keyHoldMsHi) / 2
	v := u*e.intensity*0.5 + (1-e.intensity*0.5)*mid
	e.reporter.KeyHold(v)
	return v
}

// DriftFactor returns a slow multiplier around 1.0 (+-4% at intensity 1) that
// follows a sine over the session's elapsed time.
func (e *Engine) DriftFactor() float64 {
	e.mu.Lock()
	period := e.uniform(driftPeriodMin, driftPeriodMax)
	elapsed := e.now().Sub(e.start).Seconds()
	phase := e.phase + 2*math.Pi*elapsed/period
	e.mu.Unlock()

	f := 1.0 + driftPct*math.Sin(phase)*e.intensity
	e.reporter.Drift(f)
	return f
}

// ShouldMicroPause counts one event and decides whether to insert a micro-pause.
func (e *Engine) ShouldMicroPause() bool {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.eventCount++
	every := e.randInt(microPauseEveryLo, microPauseEveryHi)
	if e.eventCount%every != 0 {
		return false
	}
	return e.rng.Float64() < e.scale(microPauseProbLo, microPauseProbHi)
}

// MicroPauseMs returns a micro-pause duration in [150, 450] ms.
func (e *Engine) MicroPauseMs() float64 {
	e.mu.Lock()
	v := e.uniform(microPauseMsLo, microPauseMsHi)
	e.mu.Unlock()

	e.reporter.MicroPause(v)
	return v
}

// MousePx returns signed pixel noise with magnitude in the configured bounds.
func (e *Engine) MousePx() int {
	e.mu.Lock()
	defer e.mu.Unlock()

	px := e.randInt(e.pxMin, e.pxMax)
	if e.rng.Float64() < 0.5 {
		return px
	}
	return -px
}

// Path synthesizes a curved packet path for (dx, dy) with 4 to 8 control points.
func (e *Engine) Path(dx, dy, maxStep int) [][2]int {
	e.mu.Lock()
	defer e.mu.Unlock()

	numControl := 4 + e.rng.Intn(5)
	return NaturalPath(dx, dy, numControl, maxStep, e.rng)
}
