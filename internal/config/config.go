// File: internal/config/config.go
package config

import (
	"fmt"
	"sync"

	"github.com/spf13/viper"

	"github.com/xkilldash9x/rere/internal/input"
)

// Interface defines the contract for accessing application configuration.
// This allows for dependency injection and mocking in tests.
type Interface interface {
	Logger() LoggerConfig
	Storage() StorageConfig
	Playback() PlaybackConfig
	Humanization() HumanizationConfig
	QuickActions() QuickActionsConfig
	Hotkeys() HotkeysConfig
	Profile() string

	// Playback Setters
	SetPlaybackSpeed(float64)

	// Humanization Setters
	SetHumanizationIntensity(int)
	SetHumanizationAdvancedEnabled(bool)
	SetHumanizationVariableKeyHold(bool)
	SetHumanization(HumanizationConfig)

	// Profile Setter
	SetProfile(string)
}

// Config holds the entire application configuration.
// Access goes through the Interface's methods; a mutex guards the setters
// because hot reload and the CLI may touch the same instance.
type Config struct {
	mu sync.RWMutex

	LoggerCfg       LoggerConfig       `mapstructure:"logger" yaml:"logger"`
	StorageCfg      StorageConfig      `mapstructure:"storage" yaml:"storage"`
	PlaybackCfg     PlaybackConfig     `mapstructure:"playback" yaml:"playback"`
	HumanizationCfg HumanizationConfig `mapstructure:"humanization" yaml:"humanization"`
	QuickActionsCfg QuickActionsConfig `mapstructure:"quick_actions" yaml:"quick_actions"`
	HotkeysCfg      HotkeysConfig      `mapstructure:"hotkeys" yaml:"hotkeys"`
	ProfileName     string             `mapstructure:"profile" yaml:"profile"`
}

// --- Interface Method Implementations (Getters) ---

func (c *Config) Logger() LoggerConfig {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.LoggerCfg
}

func (c *Config) Storage() StorageConfig {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.StorageCfg
}

func (c *Config) Playback() PlaybackConfig {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.PlaybackCfg
}

func (c *Config) Humanization() HumanizationConfig {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.HumanizationCfg
}

func (c *Config) QuickActions() QuickActionsConfig {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.QuickActionsCfg
}

func (c *Config) Hotkeys() HotkeysConfig {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.HotkeysCfg
}

func (c *Config) Profile() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.ProfileName
}

// --- Interface Method Implementations (Setters) ---

func (c *Config) SetPlaybackSpeed(s float64) {
	c.mu.Lock()
	c.PlaybackCfg.Speed = s
	c.mu.Unlock()
}

func (c *Config) SetHumanizationIntensity(level int) {
	c.mu.Lock()
	c.HumanizationCfg.Intensity = level
	c.mu.Unlock()
}

func (c *Config) SetHumanizationAdvancedEnabled(b bool) {
	c.mu.Lock()
	c.HumanizationCfg.AdvancedEnabled = b
	c.mu.Unlock()
}

func (c *Config) SetHumanizationVariableKeyHold(b bool) {
	c.mu.Lock()
	c.HumanizationCfg.VariableKeyHold = b
	c.mu.Unlock()
}

func (c *Config) SetHumanization(h HumanizationConfig) {
	c.mu.Lock()
	c.HumanizationCfg = h
	c.mu.Unlock()
}

func (c *Config) SetProfile(name string) {
	c.mu.Lock()
	c.ProfileName = name
	c.mu.Unlock()
}

// LoggerConfig holds all the configuration for the logger.
type LoggerConfig struct {
	Level       string      `mapstructure:"level" yaml:"level"`
	Format      string      `mapstructure:"format" yaml:"format"`
	AddSource   bool        `mapstructure:"add_source" yaml:"add_source"`
	ServiceName string      `mapstructure:"service_name" yaml:"service_name"`
	LogFile     string      `mapstructure:"log_file" yaml:"log_file"`
	MaxSize     int         `mapstructure:"max_size" yaml:"max_size"`
	MaxBackups  int         `mapstructure:"max_backups" yaml:"max_backups"`
	MaxAge      int         `mapstructure:"max_age" yaml:"max_age"`
	Compress    bool        `mapstructure:"compress" yaml:"compress"`
	Colors      ColorConfig `mapstructure:"colors" yaml:"colors"`
}

// ColorConfig defines the color codes for different log levels.
type ColorConfig struct {
	Debug  string `mapstructure:"debug" yaml:"debug"`
	Info   string `mapstructure:"info" yaml:"info"`
	Warn   string `mapstructure:"warn" yaml:"warn"`
	Error  string `mapstructure:"error" yaml:"error"`
	DPanic string `mapstructure:"dpanic" yaml:"dpanic"`
	Panic  string `mapstructure:"panic" yaml:"panic"`
	Fatal  string `mapstructure:"fatal" yaml:"fatal"`
}

// StorageConfig locates saved macros and profiles. Empty directories resolve
// under the application data directory.
type StorageConfig struct {
	MacrosDir   string `mapstructure:"macros_dir" yaml:"macros_dir"`
	ProfilesDir string `mapstructure:"profiles_dir" yaml:"profiles_dir"`
}

// PlaybackConfig holds replay defaults.
type PlaybackConfig struct {
	Speed     float64 `mapstructure:"speed" yaml:"speed"`
	Randomize bool    `mapstructure:"randomize" yaml:"randomize"`
	PacketMax int     `mapstructure:"packet_max" yaml:"packet_max"`
}

// QuickActionsConfig holds key spammer and mouse clicker defaults.
type QuickActionsConfig struct {
	KeyIntervalMs   int  `mapstructure:"key_interval_ms" yaml:"key_interval_ms"`
	KeyCount        int  `mapstructure:"key_count" yaml:"key_count"`
	ClickIntervalMs int  `mapstructure:"click_interval_ms" yaml:"click_interval_ms"`
	ClickCount      int  `mapstructure:"click_count" yaml:"click_count"`
	Randomize       bool `mapstructure:"randomize" yaml:"randomize"`
}

// HotkeysConfig names the global hotkeys. Registration is the host
// application's job; these are carried so profiles and the UI agree.
type HotkeysConfig struct {
	Emergency      string `mapstructure:"emergency" yaml:"emergency"`
	StartRecording string `mapstructure:"start_recording" yaml:"start_recording"`
	StopRecording  string `mapstructure:"stop_recording" yaml:"stop_recording"`
	Play           string `mapstructure:"play" yaml:"play"`
	Pause          string `mapstructure:"pause" yaml:"pause"`
	Stop           string `mapstructure:"stop" yaml:"stop"`
}

// Quick action bounds.
const (
	QuickIntervalMinMs = 50
	QuickIntervalMaxMs = 600000
	QuickCountMin      = 10
	QuickCountMax      = 9999
)

// Playback speed bounds.
const (
	SpeedMin = 0.5
	SpeedMax = 3.0
)

// NewDefaultConfig creates a new configuration struct populated with default values.
func NewDefaultConfig() *Config {
	v := viper.New()
	SetDefaults(v)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		// This should not happen with defaults, but good to be safe.
		panic(fmt.Sprintf("failed to unmarshal default config: %v", err))
	}
	return &cfg
}

// SetDefaults initializes default values for various configuration parameters.
func SetDefaults(v *viper.Viper) {
	// -- Logger --
	v.SetDefault("logger.level", "info")
	v.SetDefault("logger.format", "console")
	v.SetDefault("logger.add_source", false)
	v.SetDefault("logger.service_name", "rere")
	v.SetDefault("logger.log_file", "")
	v.SetDefault("logger.max_size", 10)
	v.SetDefault("logger.max_backups", 3)
	v.SetDefault("logger.max_age", 14)
	v.SetDefault("logger.compress", true)
	v.SetDefault("logger.colors.debug", "cyan")
	v.SetDefault("logger.colors.info", "green")
	v.SetDefault("logger.colors.warn", "yellow")
	v.SetDefault("logger.colors.error", "red")
	v.SetDefault("logger.colors.dpanic", "magenta")
	v.SetDefault("logger.colors.panic", "magenta")
	v.SetDefault("logger.colors.fatal", "magenta")

	// -- Storage --
	v.SetDefault("storage.macros_dir", "")
	v.SetDefault("storage.profiles_dir", "")

	// -- Playback --
	v.SetDefault("playback.speed", 1.0)
	v.SetDefault("playback.randomize", false)
	v.SetDefault("playback.packet_max", input.PacketDefault)

	// Humanization defaults live next to the conversion in humanoid_config.go.
	setHumanizationDefaults(v)

	// -- Quick Actions --
	v.SetDefault("quick_actions.key_interval_ms", 200)
	v.SetDefault("quick_actions.key_count", 0)
	v.SetDefault("quick_actions.click_interval_ms", 200)
	v.SetDefault("quick_actions.click_count", 0)
	v.SetDefault("quick_actions.randomize", false)

	// -- Hotkeys --
	v.SetDefault("hotkeys.emergency", "ctrl+shift+f12")
	v.SetDefault("hotkeys.start_recording", "f9")
	v.SetDefault("hotkeys.stop_recording", "f10")
	v.SetDefault("hotkeys.play", "f11")
	v.SetDefault("hotkeys.pause", "pause")
	v.SetDefault("hotkeys.stop", "f12")

	v.SetDefault("profile", "safe")
}

// NewConfigFromViper creates a new configuration instance from a viper object.
func NewConfigFromViper(v *viper.Viper) (*Config, error) {
	var cfg Config

	// Bind environment variables for the values most often overridden per run.
	v.BindEnv("storage.macros_dir", "RERE_MACROS_DIR")
	v.BindEnv("logger.level", "RERE_LOG_LEVEL")

	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return &cfg, nil
}

// Validate checks the configuration for required fields and sane values.
func (c *Config) Validate() error {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if err := c.PlaybackCfg.Validate(); err != nil {
		return fmt.Errorf("playback configuration invalid: %w", err)
	}
	if err := c.HumanizationCfg.Validate(); err != nil {
		return fmt.Errorf("humanization configuration invalid: %w", err)
	}
	if err := c.QuickActionsCfg.Validate(); err != nil {
		return fmt.Errorf("quick_actions configuration invalid: %w", err)
	}
	return nil
}

// Validate checks the playback settings.
func (p *PlaybackConfig) Validate() error {
	if p.Speed < SpeedMin || p.Speed > SpeedMax {
		return fmt.Errorf("speed must be between %.1f and %.1f", SpeedMin, SpeedMax)
	}
	if p.PacketMax < input.PacketMin || p.PacketMax > input.PacketMax {
		return fmt.Errorf("packet_max must be between %d and %d", input.PacketMin, input.PacketMax)
	}
	return nil
}

// Validate checks the quick action settings. A count of 0 means unbounded.
func (q *QuickActionsConfig) Validate() error {
	for name, ms := range map[string]int{"key_interval_ms": q.KeyIntervalMs, "click_interval_ms": q.ClickIntervalMs} {
		if ms < QuickIntervalMinMs || ms > QuickIntervalMaxMs {
			return fmt.Errorf("%s must be between %d and %d", name, QuickIntervalMinMs, QuickIntervalMaxMs)
		}
	}
	for name, n := range map[string]int{"key_count": q.KeyCount, "click_count": q.ClickCount} {
		if n != 0 && (n < QuickCountMin || n > QuickCountMax) {
			return fmt.Errorf("%s must be 0 or between %d and %d", name, QuickCountMin, QuickCountMax)
		}
	}
	return nil
}
