package cmd

import (
	"encoding/json"
	"fmt"
	"path/filepath"
	"sort"

	"github.com/spf13/cobra"

	"github.com/watchpost/watchpost/internal/organizer"
	"github.com/watchpost/watchpost/internal/output"
)

// newOrganizeCmd creates the organize command.
func newOrganizeCmd() *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "organize <src> [dst]",
		Short: "Sort a directory's files into category folders",
		Long: `Move every file in the source directory into a category subfolder
(documents, images, archives, ...) based on extension and content
sniffing. Name conflicts get a numeric suffix instead of overwriting.
Files are filed under the destination root when one is given, otherwise
in place.`,
		Args: cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			src, err := filepath.Abs(args[0])
			if err != nil {
				return err
			}
			dest := src
			if len(args) > 1 {
				if dest, err = filepath.Abs(args[1]); err != nil {
					return err
				}
			}

			report, err := organizer.Organize(src, dest)
			if err != nil {
				return fmt.Errorf("organize failed: %w", err)
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
			categories := make([]string, 0, len(report.ByCategory))
			for c := range report.ByCategory {
				categories = append(categories, c)
			}
			sort.Strings(categories)
			for _, c := range categories {
				w.Statusf("📁", "%s: %d files", c, report.ByCategory[c])
			}
			if report.Skipped > 0 {
				w.Statusf("", "skipped %d entries", report.Skipped)
			}
			w.Successf("Moved %d files into %s", len(report.Moved), dest)
			return nil
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output the report as JSON")

	return cmd
}
