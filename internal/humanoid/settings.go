// internal/humanoid/settings.go
package humanoid

import "github.com/xkilldash9x/rere/internal/input"

// IntensityLevels maps the user-facing intensity level (0-4) to the engine scale.
var IntensityLevels = [5]float64{0.0, 0.4, 0.7, 1.0, 1.5}

// Settings is the slice of configuration the humanization layer needs.
// It is built from the application config and handed to each session.
type Settings struct {
	AdvancedEnabled bool
	Intensity       int
	VariableKeyHold bool

	TimeMsMin  int
	TimeMsMax  int
	MousePxMin int
	MousePxMax int

	PacketMax int
}

// DefaultSettings returns the stock humanization settings.
func DefaultSettings() Settings {
	return Settings{
		AdvancedEnabled: true,
		Intensity:       0,
		TimeMsMin:       5,
		TimeMsMax:       15,
		MousePxMin:      1,
		MousePxMax:      4,
		PacketMax:       input.PacketDefault,
	}
}

// IntensityScale looks up the engine scale for the configured level,
// clamping the level into the table.
func (s Settings) IntensityScale() float64 {
	lvl := s.Intensity
	if lvl < 0 {
		lvl = 0
	}
	if lvl >= len(IntensityLevels) {
		lvl = len(IntensityLevels) - 1
	}
	return IntensityLevels[lvl]
}

// pxBounds returns the pixel noise bounds with min <= max and both >= 0.
func (s Settings) pxBounds() (int, int) {
	lo, hi := s.MousePxMin, s.MousePxMax
	if lo < 0 {
		lo = 0
	}
	if hi < lo {
		hi = lo
	}
	return lo, hi
}

// timeBounds returns the legacy jitter bounds in ms, with a 0.5ms floor.
func (s Settings) timeBounds() (float64, float64) {
	lo := float64(s.TimeMsMin)
	if lo < 0.5 {
		lo = 0.5
	}
	hi := float64(s.TimeMsMax)
	if hi < lo {
		hi = lo
	}
	return lo, hi
}
