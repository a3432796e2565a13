package cmd

import (
	"encoding/json"
	"fmt"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/watchpost/watchpost/internal/output"
	"github.com/watchpost/watchpost/internal/provider/storage"
	"github.com/watchpost/watchpost/internal/ui"
)

// newStorageCmd creates the storage command with its subcommands.
func newStorageCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "storage",
		Short: "Work with the configured object store",
		Long:  `Upload, download, list and link objects in the configured storage backend (local directory or S3-compatible endpoint).`,
	}

	cmd.AddCommand(newStorageUploadCmd())
	cmd.AddCommand(newStorageDownloadCmd())
	cmd.AddCommand(newStorageListCmd())
	cmd.AddCommand(newStorageURLCmd())

	return cmd
}

func storageService() (storage.Service, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	return storage.New(cfg)
}

func newStorageUploadCmd() *cobra.Command {
	var key string

	cmd := &cobra.Command{
		Use:   "upload <file>",
		Short: "Upload a file to the object store",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := storageService()
			if err != nil {
				return err
			}
			if key == "" {
				key = filepath.Base(args[0])
			}
			stored, err := svc.Upload(cmd.Context(), args[0], key)
			if err != nil {
				return fmt.Errorf("upload failed: %w", err)
			}
			output.New(cmd.OutOrStdout()).Successf("Uploaded %s as %s (%s)", args[0], stored, svc.Name())
			return nil
		},
	}

	cmd.Flags().StringVar(&key, "key", "", "Object key (defaults to the file name)")

	return cmd
}

func newStorageDownloadCmd() *cobra.Command {
	var outPath string

	cmd := &cobra.Command{
		Use:   "download <key>",
		Short: "Download an object to a local file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := storageService()
			if err != nil {
				return err
			}
			if outPath == "" {
				outPath = filepath.Base(args[0])
			}
			if err := svc.Download(cmd.Context(), args[0], outPath); err != nil {
				return fmt.Errorf("download failed: %w", err)
			}
			output.New(cmd.OutOrStdout()).Successf("Downloaded %s to %s", args[0], outPath)
			return nil
		},
	}

	cmd.Flags().StringVar(&outPath, "output", "", "Local path (defaults to the key's base name)")

	return cmd
}

func newStorageListCmd() *cobra.Command {
	var (
		prefix     string
		jsonOutput bool
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List objects in the store",
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := storageService()
			if err != nil {
				return err
			}
			objects, err := svc.List(cmd.Context(), prefix)
			if err != nil {
				return fmt.Errorf("list failed: %w", err)
			}

			if jsonOutput {
				data, err := json.MarshalIndent(objects, "", "  ")
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), string(data))
				return nil
			}

			w := output.New(cmd.OutOrStdout())
			for _, obj := range objects {
				w.Statusf("", "%-10s %s  %s",
					ui.FormatSize(obj.Size), obj.ModifiedAt.Format("2006-01-02 15:04"), obj.Key)
			}
			w.Statusf("📦", "%d objects (%s)", len(objects), svc.Name())
			return nil
		},
	}

	cmd.Flags().StringVar(&prefix, "prefix", "", "Only list keys starting with this prefix")
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output the listing as JSON")

	return cmd
}

func newStorageURLCmd() *cobra.Command {
	var expiry time.Duration

	cmd := &cobra.Command{
		Use:   "url <key>",
		Short: "Print a retrieval URL for an object",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := storageService()
			if err != nil {
				return err
			}
			url, err := svc.URL(cmd.Context(), args[0], expiry)
			if err != nil {
				return fmt.Errorf("url failed: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), url)
			return nil
		},
	}

	cmd.Flags().DurationVar(&expiry, "expiry", time.Hour, "How long a presigned link stays valid")

	return cmd
}
