package cmd

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/watchpost/watchpost/internal/logging"
	"github.com/watchpost/watchpost/internal/mailbox"
	"github.com/watchpost/watchpost/internal/output"
)

// newFetchCmd creates the fetch command.
func newFetchCmd() *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "fetch",
		Short: "Fetch matching mail and save attachments",
		Long: `Connect to the configured IMAP mailbox, find messages matching the
fetch filters (senders, subject, age), and save their attachments under
the configured output directory. A JSON metadata file is written next
to each message's attachments.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}

			trail, err := logging.OpenDefaultTrail()
			if err != nil {
				return err
			}
			defer trail.Close()

			fetcher := mailbox.NewFetcher(cfg.Mailbox, trail)
			report, err := fetcher.Fetch(cmd.Context())
			if err != nil {
				return fmt.Errorf("fetch failed: %w", err)
			}

			if jsonOutput {
				data, err := json.MarshalIndent(report, "", "  ")
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), string(data))
				return nil
			}

			w := output.New(cmd.OutOrStdout())
			w.Statusf("📬", "Matched %d messages", report.Messages)
			for _, path := range report.Saved {
				w.Status("", path)
			}
			if report.SkippedAttachments > 0 {
				w.Warningf("Skipped %d attachments (type or size filter)", report.SkippedAttachments)
			}
			w.Successf("Saved %d attachments to %s", len(report.Saved), cfg.Mailbox.Fetch.OutputDir)
			return nil
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output the fetch report as JSON")

	return cmd
}
