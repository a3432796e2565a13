package cmd

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/watchpost/watchpost/internal/daemon"
	"github.com/watchpost/watchpost/internal/output"
)

// newStatusCmd creates the status command.
func newStatusCmd() *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show the running watch process's status",
		Long: `Query the watch process over its control socket and report each
watched directory: state, pending changes, events seen, and when it
last flushed.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			dcfg := daemon.DefaultConfig()
			client := daemon.NewClient(dcfg)
			w := output.New(cmd.OutOrStdout())

			if !client.IsRunning() {
				// The socket may be gone while the process lingers; fall
				// back to the PID file for a better message.
				pidFile := daemon.NewPIDFile(dcfg.PIDPath)
				if pid, err := pidFile.Read(); err == nil && pidFile.IsRunning() {
					w.Warningf("Watch process (pid %d) is running but not answering on %s", pid, dcfg.SocketPath)
					return nil
				}
				if jsonOutput {
					fmt.Fprintln(cmd.OutOrStdout(), `{"running": false}`)
					return nil
				}
				w.Status("💤", "No watch process running. Start one with 'watchpost watch'.")
				return nil
			}

			status, err := client.Status(cmd.Context())
			if err != nil {
				return err
			}

			if jsonOutput {
				data, err := json.MarshalIndent(status, "", "  ")
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), string(data))
				return nil
			}

			w.Statusf("👀", "Watch process running (pid %d, up %s, %d cooldowns active)",
				status.PID, status.Uptime, status.Cooldowns)
			for _, dir := range status.Directories {
				line := fmt.Sprintf("%s: %s", dir.Path, dir.State)
				if dir.Pending > 0 {
					line += fmt.Sprintf(", %d pending", dir.Pending)
				}
				line += fmt.Sprintf(", %d events", dir.EventsSeen)
				if !dir.LastFlush.IsZero() {
					line += ", last flush " + dir.LastFlush.Local().Format("15:04:05")
				}
				w.Status("", line)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output status as JSON")

	return cmd
}
