package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/xkilldash9x/rere/internal/controller"
)

// quickFlags are shared by spam and click.
type quickFlags struct {
	interval  int
	count     int
	randomize bool
	duration  time.Duration
	dryRun    bool
}

func (f *quickFlags) register(cmd *cobra.Command, what string) {
	cmd.Flags().IntVarP(&f.interval, "interval", "i", 200, "milliseconds between "+what)
	cmd.Flags().IntVarP(&f.count, "count", "n", 0, what+" to send (0 = until stopped)")
	cmd.Flags().BoolVarP(&f.randomize, "randomize", "r", false, "jitter each interval")
	cmd.Flags().DurationVarP(&f.duration, "duration", "d", 0, "stop after this long (0 = until done or Ctrl+C)")
	cmd.Flags().BoolVar(&f.dryRun, "dry-run", false, "log input instead of injecting it")
}

// resolve fills unset flags from the config defaults and validates the result.
func (f *quickFlags) resolve(cmd *cobra.Command, interval, count int, randomize bool) error {
	if !cmd.Flags().Changed("interval") {
		f.interval = interval
	}
	if !cmd.Flags().Changed("count") {
		f.count = count
	}
	if !cmd.Flags().Changed("randomize") {
		f.randomize = randomize
	}
	if err := checkInterval(f.interval); err != nil {
		return err
	}
	return checkCount(f.count)
}

func newSpamCmd() *cobra.Command {
	var (
		flags quickFlags
		hold  bool
	)

	spamCmd := &cobra.Command{
		Use:   "spam <key>",
		Short: "Tap (or hold) a key repeatedly",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			cfg, err := getConfig(ctx)
			if err != nil {
				return err
			}
			qa := cfg.QuickActions()
			if err := flags.resolve(cmd, qa.KeyIntervalMs, qa.KeyCount, qa.Randomize); err != nil {
				return err
			}

			s, err := newSession(ctx, flags.dryRun)
			if err != nil {
				return err
			}
			if s.ctl.StartKeySpammer(args[0], !hold, flags.interval, countPtr(flags.count), flags.randomize) != controller.Applied {
				return fmt.Errorf("unknown key %q", args[0])
			}

			out := cmd.OutOrStdout()
			if hold {
				fmt.Fprintf(out, "Holding %s... press Ctrl+C to release.\n", args[0])
			} else {
				fmt.Fprintf(out, "Spamming %s every %dms... press Ctrl+C to stop.\n", args[0], flags.interval)
			}

			finished := waitFor(ctx, s.ctl.KeySpammerDone(), flags.duration)
			if !finished {
				s.ctl.EmergencyStop()
			}
			if ms, ok := s.ctl.LastKeyIntervalMs(); ok {
				fmt.Fprintf(out, "Last interval: %.1fms\n", ms)
			}
			fmt.Fprintln(out, "Key spammer stopped.")
			return nil
		},
	}

	flags.register(spamCmd, "presses")
	spamCmd.Flags().BoolVar(&hold, "hold", false, "hold the key down instead of tapping")
	return spamCmd
}

func newClickCmd() *cobra.Command {
	var (
		flags quickFlags
		right bool
	)

	clickCmd := &cobra.Command{
		Use:   "click",
		Short: "Click a mouse button repeatedly",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			cfg, err := getConfig(ctx)
			if err != nil {
				return err
			}
			qa := cfg.QuickActions()
			if err := flags.resolve(cmd, qa.ClickIntervalMs, qa.ClickCount, qa.Randomize); err != nil {
				return err
			}

			s, err := newSession(ctx, flags.dryRun)
			if err != nil {
				return err
			}
			if s.ctl.StartMouseClicker(!right, flags.interval, countPtr(flags.count), flags.randomize) != controller.Applied {
				return fmt.Errorf("mouse clicker could not start")
			}

			out := cmd.OutOrStdout()
			button := "left"
			if right {
				button = "right"
			}
			fmt.Fprintf(out, "Clicking %s every %dms... press Ctrl+C to stop.\n", button, flags.interval)

			if !waitFor(ctx, s.ctl.MouseClickerDone(), flags.duration) {
				s.ctl.EmergencyStop()
			}
			if ms, ok := s.ctl.LastMouseIntervalMs(); ok {
				fmt.Fprintf(out, "Last interval: %.1fms\n", ms)
			}
			fmt.Fprintln(out, "Mouse clicker stopped.")
			return nil
		},
	}

	flags.register(clickCmd, "clicks")
	clickCmd.Flags().BoolVar(&right, "right", false, "click the right button instead of the left")
	return clickCmd
}
