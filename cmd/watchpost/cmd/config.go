package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/watchpost/watchpost/configs"
	"github.com/watchpost/watchpost/internal/config"
	"github.com/watchpost/watchpost/internal/output"
)

// newConfigCmd creates the config command with its subcommands.
func newConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage watchpost configuration",
		Long: `Inspect and initialize watchpost configuration.

Configuration is merged from two layers: the machine-level user config
(providers, credentials) and the per-project .watchpost.yaml (directories,
debounce and cooldown settings). Project values win.`,
	}

	cmd.AddCommand(newConfigShowCmd())
	cmd.AddCommand(newConfigInitCmd())
	cmd.AddCommand(newConfigPathCmd())

	return cmd
}

// newConfigShowCmd creates the config show subcommand.
func newConfigShowCmd() *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "show",
		Short: "Show the effective configuration",
		Long:  `Display the merged configuration for the current directory (defaults, user config, project config, environment overrides).`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}

			if jsonOutput {
				data, err := json.MarshalIndent(cfg, "", "  ")
				if err != nil {
					return fmt.Errorf("failed to marshal config: %w", err)
				}
				fmt.Fprintln(cmd.OutOrStdout(), string(data))
				return nil
			}

			w := output.New(cmd.OutOrStdout())
			w.Statusf("📧", "Email provider: %s (notifications %s)", cfg.Email.Provider, onOff(cfg.Settings.EmailOnChange()))
			w.Statusf("📦", "Storage provider: %s (archive %s)", cfg.Storage.Provider, onOff(cfg.Settings.Archive()))
			w.Statusf("🔍", "Search provider: %s", cfg.Search.Provider)
			w.Statusf("✍️", "Signature provider: %s", cfg.Signature.Provider)
			w.Statusf("⏱️", "Debounce %s, cooldown %s", cfg.Settings.DebounceDelay(), cfg.Settings.Cooldown())
			w.Newline()

			dirs := cfg.EnabledDirectories()
			if len(dirs) == 0 {
				w.Warning("No directories enabled. Add entries to .watchpost.yaml.")
				return nil
			}
			w.Statusf("👀", "Watching %d directories:", len(dirs))
			for _, d := range dirs {
				recursive := ""
				if d.Recursive {
					recursive = " (recursive)"
				}
				w.Status("", d.Path+recursive)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output config as JSON")

	return cmd
}

// newConfigInitCmd creates the config init subcommand.
func newConfigInitCmd() *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Write starter config files",
		Long: `Create a commented user config at the machine-level path and a
.watchpost.yaml template in the current directory. Existing files are
left alone unless --force is given; a forced overwrite backs up the
user config first.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			w := output.New(cmd.OutOrStdout())

			userPath := config.GetUserConfigPath()
			if config.UserConfigExists() && !force {
				w.Warningf("User config already exists: %s (use --force to overwrite)", userPath)
			} else {
				if config.UserConfigExists() {
					backup, err := config.BackupUserConfig()
					if err != nil {
						return fmt.Errorf("failed to back up user config: %w", err)
					}
					w.Statusf("💾", "Backed up existing config to %s", backup)
				}
				if err := os.MkdirAll(filepath.Dir(userPath), 0o755); err != nil {
					return fmt.Errorf("failed to create config directory: %w", err)
				}
				if err := os.WriteFile(userPath, []byte(configs.UserConfigTemplate), 0o600); err != nil {
					return fmt.Errorf("failed to write user config: %w", err)
				}
				w.Successf("Wrote user config: %s", userPath)
			}

			projectPath := ".watchpost.yaml"
			if _, err := os.Stat(projectPath); err == nil && !force {
				w.Warningf("Project config already exists: %s (use --force to overwrite)", projectPath)
			} else {
				if err := os.WriteFile(projectPath, []byte(configs.ProjectConfigTemplate), 0o644); err != nil {
					return fmt.Errorf("failed to write project config: %w", err)
				}
				w.Successf("Wrote project config: %s", projectPath)
			}

			w.Newline()
			w.Status("💡", "List your directories in .watchpost.yaml, for example:")
			w.Code(`directories:
  - path: /srv/invoices
    recursive: true
    notify_email: ops@example.com`)
			w.Status("", "then run 'watchpost watch'.")
			return nil
		},
	}

	cmd.Flags().BoolVar(&force, "force", false, "Overwrite existing config files")

	return cmd
}

// newConfigPathCmd creates the config path subcommand.
func newConfigPathCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "path",
		Short: "Print the user config path",
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Fprintln(cmd.OutOrStdout(), config.GetUserConfigPath())
			return nil
		},
	}
}

func onOff(enabled bool) string {
	if enabled {
		return "on"
	}
	return "off"
}
