//go:build !windows

package input

import (
	"go.uber.org/zap"
)

// NewSystemSink returns the OS input sink for this platform.
func NewSystemSink(logger *zap.Logger) (Sink, error) {
	logger.Debug("No SendInput backend on this platform")
	return nil, ErrUnsupportedPlatform
}
