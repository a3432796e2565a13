package cmd

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/watchpost/watchpost/internal/output"
	"github.com/watchpost/watchpost/internal/provider/search"
)

// newSearchCmd creates the search command.
func newSearchCmd() *cobra.Command {
	var (
		limit      int
		jsonOutput bool
	)

	cmd := &cobra.Command{
		Use:   "search <query>...",
		Short: "Query the configured search provider",
		Long: `Run a query against the configured search provider: serper for web
search, index for the local file inventory built by 'watchpost
inventory --index'.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}

			svc, err := search.New(cfg)
			if err != nil {
				return err
			}
			if closer, ok := svc.(interface{ Close() error }); ok {
				defer closer.Close()
			}

			query := strings.Join(args, " ")
			results, err := svc.Search(cmd.Context(), query, limit)
			if err != nil {
				return fmt.Errorf("search failed: %w", err)
			}

			if jsonOutput {
				data, err := json.MarshalIndent(results, "", "  ")
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), string(data))
				return nil
			}

			w := output.New(cmd.OutOrStdout())
			if len(results) == 0 {
				w.Statusf("🔍", "No results for %q via %s", query, svc.Name())
				return nil
			}
			for i, r := range results {
				w.Statusf("", "%d. %s", i+1, r.Title)
				w.Status("", "   "+r.URL)
				if r.Snippet != "" {
					w.Status("", "   "+r.Snippet)
				}
			}
			w.Statusf("🔍", "%d results via %s", len(results), svc.Name())
			return nil
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 10, "Maximum number of results")
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output results as JSON")

	return cmd
}
