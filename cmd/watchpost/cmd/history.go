package cmd

import (
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"github.com/spf13/cobra"

	"github.com/watchpost/watchpost/internal/history"
	"github.com/watchpost/watchpost/internal/notify"
	"github.com/watchpost/watchpost/internal/output"
)

// newHistoryCmd creates the history command.
func newHistoryCmd() *cobra.Command {
	var (
		limit      int
		failedOnly bool
		jsonOutput bool
	)

	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show recent notification deliveries",
		Long: `List recent deliveries from the history database: who was notified,
for which directory, how many files, and whether the send succeeded.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := openHistory()
			if err != nil {
				return err
			}
			defer store.Close()

			var deliveries []notify.Delivery
			if failedOnly {
				deliveries, err = store.Failed(cmd.Context(), limit)
			} else {
				deliveries, err = store.Recent(cmd.Context(), limit)
			}
			if err != nil {
				return err
			}

			if jsonOutput {
				data, err := json.MarshalIndent(deliveries, "", "  ")
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), string(data))
				return nil
			}

			w := output.New(cmd.OutOrStdout())
			if len(deliveries) == 0 {
				w.Status("📭", "No deliveries recorded")
				return nil
			}
			for _, d := range deliveries {
				icon := "✅"
				if d.Status == notify.DeliveryFailed {
					icon = "❌"
				}
				w.Statusf(icon, "%s  %s → %s (%d files)",
					d.SentAt.Local().Format("2006-01-02 15:04:05"), d.Directory, d.Recipient, d.FileCount)
				if d.Error != "" {
					w.Status("", "   "+d.Error)
				}
			}
			return nil
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 20, "Maximum number of rows")
	cmd.Flags().BoolVar(&failedOnly, "failed", false, "Only show failed deliveries")
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output deliveries as JSON")

	cmd.AddCommand(newHistoryCountsCmd())
	cmd.AddCommand(newHistoryPruneCmd())

	return cmd
}

func openHistory() (*history.Store, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	return history.Open(cfg.History.Path)
}

func newHistoryCountsCmd() *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "counts",
		Short: "Show delivery totals per directory",
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := openHistory()
			if err != nil {
				return err
			}
			defer store.Close()

			counts, err := store.CountsByDirectory(cmd.Context())
			if err != nil {
				return err
			}

			if jsonOutput {
				data, err := json.MarshalIndent(counts, "", "  ")
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), string(data))
				return nil
			}

			dirs := make([]string, 0, len(counts))
			for dir := range counts {
				dirs = append(dirs, dir)
			}
			sort.Strings(dirs)

			w := output.New(cmd.OutOrStdout())
			for _, dir := range dirs {
				c := counts[dir]
				w.Statusf("", "%-40s sent %d, failed %d", dir, c.Sent, c.Failed)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output counts as JSON")

	return cmd
}

func newHistoryPruneCmd() *cobra.Command {
	var olderThan time.Duration

	cmd := &cobra.Command{
		Use:   "prune",
		Short: "Delete delivery rows older than a cutoff",
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := openHistory()
			if err != nil {
				return err
			}
			defer store.Close()

			removed, err := store.Prune(cmd.Context(), olderThan)
			if err != nil {
				return err
			}
			output.New(cmd.OutOrStdout()).Successf("Pruned %d deliveries older than %s", removed, olderThan)
			return nil
		},
	}

	cmd.Flags().DurationVar(&olderThan, "older-than", 90*24*time.Hour, "Delete rows older than this")

	return cmd
}
