package cmd

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/xkilldash9x/rere/internal/config"
	"github.com/xkilldash9x/rere/internal/controller"
	"github.com/xkilldash9x/rere/internal/humanoid"
	"github.com/xkilldash9x/rere/internal/input"
	"github.com/xkilldash9x/rere/internal/macro"
	"github.com/xkilldash9x/rere/internal/observability"
	"github.com/xkilldash9x/rere/internal/recorder"
)

// Function variables for dependency injection in tests.
var (
	newSystemSink   = input.NewSystemSink
	newSystemSource = recorder.NewSystemSource
)

// session bundles what a long-running command needs.
type session struct {
	cfg    *config.Config
	logger *zap.Logger
	ctl    *controller.Controller
	report *humanoid.Report
	sink   input.Sink
}

// openSink picks the dry-run sink or the OS sink.
func openSink(logger *zap.Logger, dryRun bool) (input.Sink, error) {
	if dryRun {
		return input.NewLogSink(logger), nil
	}
	sink, err := newSystemSink(logger)
	if err != nil {
		if errors.Is(err, input.ErrUnsupportedPlatform) {
			return nil, fmt.Errorf("%w (use --dry-run to replay without injecting)", err)
		}
		return nil, err
	}
	return sink, nil
}

// newSession wires a controller to the sink, the OS recorder and a fresh
// humanization report, and starts following config file changes.
func newSession(ctx context.Context, dryRun bool) (*session, error) {
	cfg, err := getConfig(ctx)
	if err != nil {
		return nil, err
	}
	logger := observability.GetLogger()

	sink, err := openSink(logger, dryRun)
	if err != nil {
		return nil, err
	}

	report := humanoid.NewReport()
	rec := recorder.New(newSystemSource(logger), logger)
	ctl, err := controller.New(sink, rec, logger, controller.Options{
		Settings: cfg.HumanoidSettings(),
		Reporter: report,
		OnStateChange: func(s controller.State) {
			logger.Debug("Controller state", zap.Stringer("state", s))
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create controller: %w", err)
	}

	s := &session{cfg: cfg, logger: logger, ctl: ctl, report: report, sink: sink}
	s.watchConfig(getViper(ctx))
	return s, nil
}

// watchConfig applies humanization and log level edits while a command runs.
func (s *session) watchConfig(v *viper.Viper) {
	if v.ConfigFileUsed() == "" {
		return
	}
	config.Watch(v, s.logger, func(next *config.Config) {
		s.ctl.SetSettings(next.HumanoidSettings())
		if err := observability.SetLevel(next.Logger().Level); err != nil {
			s.logger.Warn("Keeping current log level", zap.Error(err))
		}
	})
}

// openMacroStore opens the configured macro directory.
func openMacroStore(cfg *config.Config) (*macro.Store, error) {
	dir, err := cfg.MacrosDir()
	if err != nil {
		return nil, err
	}
	return macro.NewStore(dir, observability.GetLogger())
}

// waitFor blocks until done closes, ctx is cancelled, or limit elapses
// (zero means no limit). It reports whether done closed on its own.
func waitFor(ctx context.Context, done <-chan struct{}, limit time.Duration) bool {
	var timeout <-chan time.Time
	if limit > 0 {
		timer := time.NewTimer(limit)
		defer timer.Stop()
		timeout = timer.C
	}
	select {
	case <-done:
		return true
	case <-ctx.Done():
		return false
	case <-timeout:
		return false
	}
}

// countPtr maps the CLI convention (0 = until stopped) to the controller's.
func countPtr(n int) *int {
	if n <= 0 {
		return nil
	}
	return &n
}

func checkInterval(ms int) error {
	if ms < config.QuickIntervalMinMs || ms > config.QuickIntervalMaxMs {
		return fmt.Errorf("interval must be between %d and %d ms", config.QuickIntervalMinMs, config.QuickIntervalMaxMs)
	}
	return nil
}

func checkCount(n int) error {
	if n != 0 && (n < config.QuickCountMin || n > config.QuickCountMax) {
		return fmt.Errorf("count must be 0 (until stopped) or between %d and %d", config.QuickCountMin, config.QuickCountMax)
	}
	return nil
}
