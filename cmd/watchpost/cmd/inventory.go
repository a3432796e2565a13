package cmd

import (
	"encoding/json"
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/watchpost/watchpost/internal/organizer"
	"github.com/watchpost/watchpost/internal/output"
	"github.com/watchpost/watchpost/internal/provider/search"
	"github.com/watchpost/watchpost/internal/ui"
)

// newInventoryCmd creates the inventory command.
func newInventoryCmd() *cobra.Command {
	var (
		outPath    string
		index      bool
		jsonOutput bool
	)

	cmd := &cobra.Command{
		Use:   "inventory <dir>",
		Short: "Catalog a directory tree with hashes and categories",
		Long: `Walk the given directory and record every file's category, SHA-256
hash, size and modification time. The catalog can be written to a JSON
file with --output and fed into the local search index with --index.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir, err := filepath.Abs(args[0])
			if err != nil {
				return err
			}

			files, err := organizer.Inventory(cmd.Context(), dir)
			if err != nil {
				return fmt.Errorf("inventory failed: %w", err)
			}

			w := output.New(cmd.OutOrStdout())

			if outPath != "" {
				if err := organizer.WriteInventory(outPath, files); err != nil {
					return err
				}
				w.Successf("Wrote inventory of %d files to %s", len(files), outPath)
			}

			if index {
				cfg, err := loadConfig()
				if err != nil {
					return err
				}
				svc, err := search.OpenIndexService(cfg.Search.Index.Path)
				if err != nil {
					return err
				}
				defer svc.Close()

				docs := make([]search.FileDoc, 0, len(files))
				for _, f := range files {
					docs = append(docs, search.FileDoc{
						Path:       f.Path,
						Name:       f.Name,
						Category:   f.Category,
						Size:       f.Size,
						ModifiedAt: f.ModifiedAt,
					})
				}
				if err := svc.IndexFiles(docs); err != nil {
					return fmt.Errorf("indexing failed: %w", err)
				}
				total, err := svc.Count()
				if err != nil {
					return err
				}
				w.Successf("Indexed %d files (%d total in index)", len(docs), total)
			}

			if jsonOutput {
				data, err := json.MarshalIndent(files, "", "  ")
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), string(data))
				return nil
			}

			if outPath == "" && !index {
				for _, f := range files {
					w.Statusf("", "%-10s %8s  %s", f.Category, ui.FormatSize(f.Size), f.Path)
				}
			}
			w.Statusf("📋", "%d files cataloged under %s", len(files), dir)
			return nil
		},
	}

	cmd.Flags().StringVar(&outPath, "output", "", "Write the inventory to a JSON file")
	cmd.Flags().BoolVar(&index, "index", false, "Add the files to the local search index")
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Print the inventory as JSON")

	return cmd
}
