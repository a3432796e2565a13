package cmd

import (
	"encoding/json"
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/watchpost/watchpost/internal/organizer"
	"github.com/watchpost/watchpost/internal/output"
	"github.com/watchpost/watchpost/internal/ui"
)

// newDedupeCmd creates the dedupe command.
func newDedupeCmd() *cobra.Command {
	var (
		dryRun     bool
		jsonOutput bool
	)

	cmd := &cobra.Command{
		Use:   "dedupe <dir>",
		Short: "Remove duplicate files by content hash",
		Long: `Hash every file under the given directory and delete all but one copy
of each duplicate set. The oldest path sorts first and is kept. Use
--dry-run to see what would be removed without touching anything.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir, err := filepath.Abs(args[0])
			if err != nil {
				return err
			}

			report, err := organizer.Dedupe(cmd.Context(), dir, dryRun)
			if err != nil {
				return fmt.Errorf("dedupe failed: %w", err)
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
			for _, path := range report.Removed {
				w.Status("", path)
			}
			verb := "Removed"
			if dryRun {
				verb = "Would remove"
			}
			w.Successf("%s %d duplicates, freeing %s", verb, len(report.Removed), ui.FormatSize(report.BytesFreed))
			return nil
		},
	}

	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Report duplicates without deleting")
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output the report as JSON")

	return cmd
}
