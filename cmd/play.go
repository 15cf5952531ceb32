package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/xkilldash9x/rere/internal/controller"
	"github.com/xkilldash9x/rere/internal/humanoid"
	"github.com/xkilldash9x/rere/internal/macro"
	"github.com/xkilldash9x/rere/internal/player"
)

// reportInterval is how often the humanization report is logged during playback.
const reportInterval = time.Second

func newPlayCmd() *cobra.Command {
	var (
		speed     float64
		randomize bool
		dryRun    bool
		repeat    int
	)

	playCmd := &cobra.Command{
		Use:   "play <name|path>",
		Short: "Replay a saved macro",
		Long: `Play replays a macro from the library (or a path to a macro file).
Ctrl+C triggers an emergency stop that releases every key and button.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			cfg, err := getConfig(ctx)
			if err != nil {
				return err
			}
			if !cmd.Flags().Changed("speed") {
				speed = cfg.Playback().Speed
			}
			if !cmd.Flags().Changed("randomize") {
				randomize = cfg.Playback().Randomize
			}
			if repeat < 1 {
				return fmt.Errorf("repeat must be at least 1")
			}

			store, err := openMacroStore(cfg)
			if err != nil {
				return err
			}
			m, err := store.Load(args[0])
			if err != nil {
				return err
			}

			s, err := newSession(ctx, dryRun)
			if err != nil {
				return err
			}
			s.ctl.SetRecordedEvents(m.Events)

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Playing %q: %d events, %.2fs at %.2fx\n",
				m.Name, len(m.Events), macro.Duration(m.Events), player.ClampSpeed(speed))

			for i := 0; i < repeat; i++ {
				if s.ctl.StartPlayback(nil, speed, randomize) != controller.Applied {
					return fmt.Errorf("playback could not start")
				}
				if !s.followPlayback(ctx) {
					s.ctl.EmergencyStop()
					fmt.Fprintln(out, "Playback aborted.")
					return ctx.Err()
				}
			}
			fmt.Fprintln(out, "Playback finished.")
			return nil
		},
	}

	playCmd.Flags().Float64VarP(&speed, "speed", "s", 1.0, "playback speed multiplier (0.5 to 3.0)")
	playCmd.Flags().BoolVarP(&randomize, "randomize", "r", false, "humanize timing and mouse movement")
	playCmd.Flags().BoolVar(&dryRun, "dry-run", false, "log input instead of injecting it")
	playCmd.Flags().IntVarP(&repeat, "repeat", "n", 1, "number of times to play the macro")
	return playCmd
}

// followPlayback waits for the current session and logs the humanization
// report while it runs. It returns false if ctx ended first.
func (s *session) followPlayback(ctx context.Context) bool {
	ticker := time.NewTicker(reportInterval)
	defer ticker.Stop()
	done := s.ctl.PlaybackDone()
	for {
		select {
		case <-done:
			return true
		case <-ctx.Done():
			return false
		case <-ticker.C:
			logReport(s.logger, s.report.Snapshot())
		}
	}
}

func logReport(logger *zap.Logger, snap humanoid.Snapshot) {
	fields := make([]zap.Field, 0, 4)
	add := func(key string, v *float64) {
		if v != nil {
			fields = append(fields, zap.Float64(key, *v))
		}
	}
	add("delay_jitter_ms", snap.DelayJitterMs)
	add("drift_factor", snap.DriftFactor)
	add("micro_pause_ms", snap.MicroPauseMs)
	add("key_hold_ms", snap.KeyHoldMs)
	if len(fields) > 0 {
		logger.Debug("Humanization", fields...)
	}
}
