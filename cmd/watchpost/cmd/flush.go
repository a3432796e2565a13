package cmd

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/watchpost/watchpost/internal/daemon"
	"github.com/watchpost/watchpost/internal/output"
)

// newFlushCmd creates the flush command.
func newFlushCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "flush <dir>",
		Short: "Flush a directory's pending changes now",
		Long: `Ask the running watch process to flush the given directory
immediately instead of waiting for its debounce window to expire.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir, err := filepath.Abs(args[0])
			if err != nil {
				return err
			}

			client := daemon.NewClient(daemon.DefaultConfig())
			if !client.IsRunning() {
				return fmt.Errorf("no watch process running; start one with 'watchpost watch'")
			}

			if err := client.Flush(cmd.Context(), dir); err != nil {
				return err
			}
			output.New(cmd.OutOrStdout()).Successf("Flushed %s", dir)
			return nil
		},
	}
}
