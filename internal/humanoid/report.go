// internal/humanoid/report.go
package humanoid

import "sync"

// Reporter observes the humanization values applied during a session.
// Implementations must be safe for concurrent use: the player writes from its
// worker goroutine while a UI reads from elsewhere.
type Reporter interface {
	DelayJitter(ms float64)
	Drift(factor float64)
	MicroPause(ms float64)
	KeyHold(ms float64)
	// Clear drops all values. Called when a session ends.
	Clear()
}

// Snapshot is a point-in-time copy of the last applied values.
// A nil field means nothing has been applied since the last Clear.
type Snapshot struct {
	DelayJitterMs *float64 `json:"delay_jitter_ms"`
	DriftFactor   *float64 `json:"drift_factor"`
	MicroPauseMs  *float64 `json:"micro_pause_ms"`
	KeyHoldMs     *float64 `json:"variable_key_hold_ms"`
}

// Report is the standard Reporter: it keeps the last value of each kind.
type Report struct {
	mu   sync.RWMutex
	snap Snapshot
}

// NewReport creates an empty Report.
func NewReport() *Report {
	return &Report{}
}

func (r *Report) DelayJitter(ms float64) { r.set(&r.snap.DelayJitterMs, ms) }
func (r *Report) Drift(factor float64)   { r.set(&r.snap.DriftFactor, factor) }
func (r *Report) MicroPause(ms float64)  { r.set(&r.snap.MicroPauseMs, ms) }
func (r *Report) KeyHold(ms float64)     { r.set(&r.snap.KeyHoldMs, ms) }

func (r *Report) set(field **float64, v float64) {
	r.mu.Lock()
	*field = &v
	r.mu.Unlock()
}

// Clear drops every recorded value.
func (r *Report) Clear() {
	r.mu.Lock()
	r.snap = Snapshot{}
	r.mu.Unlock()
}

// Snapshot returns a copy of the last applied values.
func (r *Report) Snapshot() Snapshot {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return Snapshot{
		DelayJitterMs: copyFloat(r.snap.DelayJitterMs),
		DriftFactor:   copyFloat(r.snap.DriftFactor),
		MicroPauseMs:  copyFloat(r.snap.MicroPauseMs),
		KeyHoldMs:     copyFloat(r.snap.KeyHoldMs),
	}
}

func copyFloat(p *float64) *float64 {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

// NopReporter discards everything.
type NopReporter struct{}

func (NopReporter) DelayJitter(float64) {}
func (NopReporter) Drift(float64)       {}
func (NopReporter) MicroPause(float64)  {}
func (NopReporter) KeyHold(float64)     {}
func (NopReporter) Clear()              {}
