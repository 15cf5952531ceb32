// File: internal/config/humanoid_config.go
// This file defines the HumanizationConfig struct, which holds the tunable
// parameters of the playback humanization layer: the advanced engine switch,
// its intensity level, optional variable key hold, and the uniform jitter
// bounds used by the legacy randomizer. The playback layer never reads this
// struct directly; it receives a humanoid.Settings value built from it.
package config

import (
	"fmt"

	"github.com/spf13/viper"

	"github.com/xkilldash9x/rere/internal/humanoid"
)

// HumanizationConfig mirrors the "humanization" section of the config file.
// Intensity selects one of the five engine levels, 0 through 4.
type HumanizationConfig struct {
	AdvancedEnabled bool `mapstructure:"advanced_enabled" yaml:"advanced_enabled"`
	Intensity       int  `mapstructure:"intensity" yaml:"intensity"`
	VariableKeyHold bool `mapstructure:"variable_key_hold" yaml:"variable_key_hold"`

	TimeMsMin  int `mapstructure:"randomize_time_ms_min" yaml:"randomize_time_ms_min"`
	TimeMsMax  int `mapstructure:"randomize_time_ms_max" yaml:"randomize_time_ms_max"`
	MousePxMin int `mapstructure:"randomize_mouse_px_min" yaml:"randomize_mouse_px_min"`
	MousePxMax int `mapstructure:"randomize_mouse_px_max" yaml:"randomize_mouse_px_max"`
}

func setHumanizationDefaults(v *viper.Viper) {
	d := humanoid.DefaultSettings()
	v.SetDefault("humanization.advanced_enabled", d.AdvancedEnabled)
	v.SetDefault("humanization.intensity", d.Intensity)
	v.SetDefault("humanization.variable_key_hold", d.VariableKeyHold)
	v.SetDefault("humanization.randomize_time_ms_min", d.TimeMsMin)
	v.SetDefault("humanization.randomize_time_ms_max", d.TimeMsMax)
	v.SetDefault("humanization.randomize_mouse_px_min", d.MousePxMin)
	v.SetDefault("humanization.randomize_mouse_px_max", d.MousePxMax)
}

// Validate checks the humanization settings.
func (h *HumanizationConfig) Validate() error {
	if h.Intensity < 0 || h.Intensity >= len(humanoid.IntensityLevels) {
		return fmt.Errorf("intensity must be between 0 and %d", len(humanoid.IntensityLevels)-1)
	}
	if h.TimeMsMin < 0 || h.TimeMsMax < h.TimeMsMin {
		return fmt.Errorf("randomize_time_ms bounds must satisfy 0 <= min <= max")
	}
	if h.MousePxMin < 0 || h.MousePxMax < h.MousePxMin {
		return fmt.Errorf("randomize_mouse_px bounds must satisfy 0 <= min <= max")
	}
	return nil
}

// HumanoidSettings builds the value handed to playback sessions and the
// quick actions.
func (c *Config) HumanoidSettings() humanoid.Settings {
	c.mu.RLock()
	defer c.mu.RUnlock()
	h := c.HumanizationCfg
	return humanoid.Settings{
		AdvancedEnabled: h.AdvancedEnabled,
		Intensity:       h.Intensity,
		VariableKeyHold: h.VariableKeyHold,
		TimeMsMin:       h.TimeMsMin,
		TimeMsMax:       h.TimeMsMax,
		MousePxMin:      h.MousePxMin,
		MousePxMax:      h.MousePxMax,
		PacketMax:       c.PlaybackCfg.PacketMax,
	}
}
