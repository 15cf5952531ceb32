package config

import (
	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

// Watch re-reads the config file on every write and hands the validated
// result to onChange. Invalid edits are logged and skipped so a typo never
// replaces a working configuration.
func Watch(v *viper.Viper, logger *zap.Logger, onChange func(*Config)) {
	logger = logger.Named("config")
	v.OnConfigChange(func(e fsnotify.Event) {
		if !e.Has(fsnotify.Write) && !e.Has(fsnotify.Create) {
			return
		}
		reload(v, logger, e.Name, onChange)
	})
	v.WatchConfig()
}

func reload(v *viper.Viper, logger *zap.Logger, file string, onChange func(*Config)) {
	cfg, err := NewConfigFromViper(v)
	if err != nil {
		logger.Warn("Ignoring invalid config change", zap.String("file", file), zap.Error(err))
		return
	}
	logger.Info("Configuration reloaded", zap.String("file", file))
	onChange(cfg)
}
