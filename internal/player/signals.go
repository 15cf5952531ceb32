package player

import "sync/atomic"

// Signals carries the stop and pause requests for one playback session.
// The controller is the only writer; the playback worker only reads.
type Signals struct {
	stop  atomic.Bool
	pause atomic.Bool
}

// NewSignals returns cleared signals.
func NewSignals() *Signals { return &Signals{} }

func (s *Signals) Stop()         { s.stop.Store(true) }
func (s *Signals) Pause()        { s.pause.Store(true) }
func (s *Signals) Resume()       { s.pause.Store(false) }
func (s *Signals) Stopped() bool { return s.stop.Load() }
func (s *Signals) Paused() bool  { return s.pause.Load() }
