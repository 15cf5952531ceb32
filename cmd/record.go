package cmd

import (
	"fmt"
	"sync/atomic"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/xkilldash9x/rere/internal/controller"
	"github.com/xkilldash9x/rere/internal/macro"
)

func newRecordCmd() *cobra.Command {
	var duration time.Duration

	recordCmd := &cobra.Command{
		Use:   "record [name]",
		Short: "Record keyboard and mouse input into a macro",
		Long: `Record captures keyboard and mouse input until --duration elapses or
Ctrl+C is pressed, then saves it to the macro library.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			name := time.Now().Format("recording-20060102-150405")
			if len(args) == 1 {
				name = args[0]
			}

			cfg, err := getConfig(ctx)
			if err != nil {
				return err
			}
			store, err := openMacroStore(cfg)
			if err != nil {
				return err
			}
			// Recording never injects, so the dry-run sink is enough for emergency release.
			s, err := newSession(ctx, true)
			if err != nil {
				return err
			}

			var captured atomic.Int64
			s.ctl.SetLiveEventCallback(func(ev macro.Event) {
				s.logger.Debug("Captured", zap.String("type", string(ev.Kind)), zap.Int64("n", captured.Add(1)))
			})

			switch s.ctl.StartRecording() {
			case controller.Failed:
				return fmt.Errorf("could not start recording; see log for details")
			case controller.Ignored:
				return fmt.Errorf("controller busy")
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Recording... press Ctrl+C to stop.")

			waitFor(ctx, nil, duration)
			events, _ := s.ctl.StopRecording()
			if len(events) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "Nothing recorded.")
				return nil
			}

			path, err := store.Save(name, events)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Saved %d events (%.2fs) to %s\n", len(events), macro.Duration(events), path)
			return nil
		},
	}

	recordCmd.Flags().DurationVarP(&duration, "duration", "d", 0, "stop recording after this long (0 = until Ctrl+C)")
	return recordCmd
}
