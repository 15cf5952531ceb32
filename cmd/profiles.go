package cmd

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/xkilldash9x/rere/internal/config"
	"github.com/xkilldash9x/rere/internal/observability"
	"github.com/xkilldash9x/rere/internal/profile"
)

func newProfilesCmd() *cobra.Command {
	profilesCmd := &cobra.Command{
		Use:   "profiles",
		Short: "Manage humanization presets and saved profiles",
	}
	profilesCmd.AddCommand(
		newProfilesListCmd(),
		newProfilesSaveCmd(),
		newProfilesApplyCmd(),
		newProfilesDeleteCmd(),
	)
	return profilesCmd
}

func openProfileStore(cfg *config.Config) (*profile.Store, error) {
	dir, err := cfg.ProfilesDir()
	if err != nil {
		return nil, err
	}
	return profile.NewStore(dir, observability.GetLogger()), nil
}

func newProfilesListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List presets and saved profiles",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := getConfig(cmd.Context())
			if err != nil {
				return err
			}
			store, err := openProfileStore(cfg)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			active := cfg.Profile()
			mark := func(name string) string {
				if name == active {
					return "* "
				}
				return "  "
			}
			fmt.Fprintln(out, "Presets:")
			for _, name := range profile.Presets() {
				fmt.Fprintf(out, "%s%s\n", mark(name), name)
			}
			saved := store.List()
			if len(saved) == 0 {
				return nil
			}
			fmt.Fprintln(out, "Saved:")
			for _, name := range saved {
				fmt.Fprintf(out, "  %s\n", name)
			}
			return nil
		},
	}
}

func newProfilesSaveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "save <name>",
		Short: "Save the current settings as a named profile",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := getConfig(cmd.Context())
			if err != nil {
				return err
			}
			store, err := openProfileStore(cfg)
			if err != nil {
				return err
			}
			if err := store.Save(args[0], profile.Snapshot(cfg)); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Saved profile %q\n", args[0])
			return nil
		},
	}
}

func newProfilesApplyCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "apply <preset|name>",
		Short: "Apply a preset or saved profile and persist it to the config file",
		Long: `Apply switches to a built-in preset (safe, aggressive, stealth, custom)
or to a saved profile. Saved profiles take precedence over presets of the same name.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			cfg, err := getConfig(ctx)
			if err != nil {
				return err
			}
			store, err := openProfileStore(cfg)
			if err != nil {
				return err
			}

			name := args[0]
			p, err := store.Get(name)
			switch {
			case err == nil:
				if err := p.Apply(cfg); err != nil {
					return err
				}
			case errors.Is(err, profile.ErrNotFound):
				if err := profile.ApplyPreset(cfg, name); err != nil {
					return err
				}
			default:
				return err
			}

			path, err := persistSettings(getViper(ctx), cfg)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Applied %q (saved to %s)\n", name, path)
			return nil
		},
	}
}

func newProfilesDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <name>",
		Short: "Delete a saved profile",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := getConfig(cmd.Context())
			if err != nil {
				return err
			}
			store, err := openProfileStore(cfg)
			if err != nil {
				return err
			}
			if err := store.Delete(args[0]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted profile %q\n", args[0])
			return nil
		},
	}
}

// persistSettings writes the settings a profile can change back through
// viper and returns the file written.
func persistSettings(v *viper.Viper, cfg *config.Config) (string, error) {
	h := cfg.Humanization()
	v.Set("profile", cfg.Profile())
	v.Set("playback.speed", cfg.Playback().Speed)
	v.Set("humanization.advanced_enabled", h.AdvancedEnabled)
	v.Set("humanization.intensity", h.Intensity)
	v.Set("humanization.variable_key_hold", h.VariableKeyHold)
	v.Set("humanization.randomize_time_ms_min", h.TimeMsMin)
	v.Set("humanization.randomize_time_ms_max", h.TimeMsMax)
	v.Set("humanization.randomize_mouse_px_min", h.MousePxMin)
	v.Set("humanization.randomize_mouse_px_max", h.MousePxMax)

	path, err := configWritePath(v)
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return "", fmt.Errorf("failed to create config directory: %w", err)
	}
	if err := v.WriteConfigAs(path); err != nil {
		return "", fmt.Errorf("failed to write config: %w", err)
	}
	observability.GetLogger().Debug("Settings persisted", zap.String("path", path))
	return path, nil
}
