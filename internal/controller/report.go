package controller

import (
	"sync/atomic"

	"github.com/xkilldash9x/rere/internal/humanoid"
)

// sessionReporter forwards to the shared reporter only while its playback
// session is the current one. A worker abandoned after a join timeout can
// neither overwrite nor clear the values of a newer session.
type sessionReporter struct {
	next    humanoid.Reporter
	current *atomic.Uint64
	gen     uint64
}

func newSessionReporter(next humanoid.Reporter, current *atomic.Uint64, gen uint64) sessionReporter {
	return sessionReporter{next: next, current: current, gen: gen}
}

func (r sessionReporter) live() bool { return r.current.Load() == r.gen }

func (r sessionReporter) DelayJitter(ms float64) {
	if r.live() {
		r.next.DelayJitter(ms)
	}
}

func (r sessionReporter) Drift(factor float64) {
	if r.live() {
		r.next.Drift(factor)
	}
}

func (r sessionReporter) MicroPause(ms float64) {
	if r.live() {
		r.next.MicroPause(ms)
	}
}

func (r sessionReporter) KeyHold(ms float64) {
	if r.live() {
		r.next.KeyHold(ms)
	}
}

func (r sessionReporter) Clear() {
	if r.live() {
		r.next.Clear()
	}
}
