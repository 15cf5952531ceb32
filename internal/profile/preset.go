package profile

import (
	"fmt"
	"sort"
	"strings"

	"github.com/xkilldash9x/rere/internal/config"
)

// Preset names.
const (
	Safe       = "safe"
	Aggressive = "aggressive"
	Stealth    = "stealth"
	Custom     = "custom"
)

// preset is the humanization override a preset applies. A nil intensity
// leaves the current settings untouched.
type preset struct {
	advanced  bool
	intensity *int
}

func level(n int) *int { return &n }

var presets = map[string]preset{
	Safe:       {advanced: true, intensity: level(0)},
	Aggressive: {advanced: true, intensity: level(2)},
	Stealth:    {advanced: true, intensity: level(4)},
	Custom:     {},
}

// Presets returns the preset names in a stable order.
func Presets() []string {
	names := make([]string, 0, len(presets))
	for name := range presets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// ApplyPreset switches cfg to the named preset. Only the engine switch and
// intensity change; "custom" only records the name.
func ApplyPreset(cfg config.Interface, name string) error {
	name = strings.ToLower(strings.TrimSpace(name))
	p, ok := presets[name]
	if !ok {
		return fmt.Errorf("unknown preset %q (want one of %s)", name, strings.Join(Presets(), ", "))
	}
	if p.intensity != nil {
		cfg.SetHumanizationAdvancedEnabled(p.advanced)
		cfg.SetHumanizationIntensity(*p.intensity)
	}
	cfg.SetProfile(name)
	return nil
}
