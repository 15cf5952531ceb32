package input

import (
	"sync/atomic"

	"go.uber.org/zap"

	"github.com/xkilldash9x/rere/internal/scancode"
)

// LogSink is a dry-run sink: it logs every transition at debug level and
// reports success without touching the OS.
type LogSink struct {
	logger *zap.Logger
	calls  atomic.Int64
}

// NewLogSink creates a LogSink.
func NewLogSink(logger *zap.Logger) *LogSink {
	return &LogSink{logger: logger.Named("dry_run_sink")}
}

// Calls returns the number of transitions received so far.
func (s *LogSink) Calls() int64 { return s.calls.Load() }

func (s *LogSink) KeyDown(sc scancode.Code) bool {
	s.calls.Add(1)
	s.logger.Debug("key down", zap.Uint16("scan_code", uint16(sc)))
	return true
}

func (s *LogSink) KeyUp(sc scancode.Code) bool {
	s.calls.Add(1)
	s.logger.Debug("key up", zap.Uint16("scan_code", uint16(sc)))
	return true
}

func (s *LogSink) MoveRelative(dx, dy int) bool {
	s.calls.Add(1)
	s.logger.Debug("mouse move", zap.Int("dx", dx), zap.Int("dy", dy))
	return true
}

func (s *LogSink) MouseButtonDown(flag ButtonFlag) bool {
	s.calls.Add(1)
	s.logger.Debug("mouse button down", zap.Uint32("flag", uint32(flag)))
	return true
}

func (s *LogSink) MouseButtonUp(flag ButtonFlag) bool {
	s.calls.Add(1)
	s.logger.Debug("mouse button up", zap.Uint32("flag", uint32(flag)))
	return true
}

func (s *LogSink) Scroll(delta int) bool {
	s.calls.Add(1)
	s.logger.Debug("mouse scroll", zap.Int("delta", delta))
	return true
}
