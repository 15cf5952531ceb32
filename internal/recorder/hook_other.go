//go:build !windows

package recorder

import "go.uber.org/zap"

type unsupportedSource struct{}

// NewSystemSource returns the OS capture source for this platform.
func NewSystemSource(logger *zap.Logger) Source {
	logger.Debug("No input hook backend on this platform")
	return unsupportedSource{}
}

func (unsupportedSource) Start(func(RawEvent)) error { return ErrUnsupportedPlatform }
func (unsupportedSource) Stop() error                { return nil }
