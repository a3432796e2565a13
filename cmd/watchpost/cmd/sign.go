package cmd

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/watchpost/watchpost/internal/output"
	"github.com/watchpost/watchpost/internal/provider/signature"
)

// newSignCmd creates the sign command with its subcommands.
func newSignCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sign",
		Short: "Send documents for electronic signature",
		Long:  `Submit documents to the configured e-signature provider and track their lifecycle (sent, viewed, signed, declined, voided).`,
	}

	cmd.AddCommand(newSignSendCmd())
	cmd.AddCommand(newSignStatusCmd())
	cmd.AddCommand(newSignDownloadCmd())
	cmd.AddCommand(newSignVoidCmd())

	return cmd
}

func signService() (signature.Service, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	return signature.New(cfg)
}

func printRequest(cmd *cobra.Command, req *signature.Request, asJSON bool) error {
	if asJSON {
		data, err := json.MarshalIndent(req, "", "  ")
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), string(data))
		return nil
	}
	w := output.New(cmd.OutOrStdout())
	w.Statusf("✍️", "Request %s: %s", req.ID, req.Status)
	w.Statusf("", "document:   %s", req.Document)
	w.Statusf("", "recipients: %s", strings.Join(req.Recipients, ", "))
	w.Statusf("", "updated:    %s", req.UpdatedAt.Format("2006-01-02 15:04:05"))
	return nil
}

func newSignSendCmd() *cobra.Command {
	var (
		recipients []string
		subject    string
		jsonOutput bool
	)

	cmd := &cobra.Command{
		Use:   "send <document>",
		Short: "Submit a document for signing",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := signService()
			if err != nil {
				return err
			}
			req, err := svc.Send(cmd.Context(), args[0], recipients, subject)
			if err != nil {
				return fmt.Errorf("send failed: %w", err)
			}
			return printRequest(cmd, req, jsonOutput)
		},
	}

	cmd.Flags().StringSliceVar(&recipients, "to", nil, "Signer address (repeatable)")
	cmd.Flags().StringVar(&subject, "subject", "", "Request subject")
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output the request as JSON")
	_ = cmd.MarkFlagRequired("to")

	return cmd
}

func newSignStatusCmd() *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "status <request-id>",
		Short: "Show the state of a signature request",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := signService()
			if err != nil {
				return err
			}
			req, err := svc.Status(cmd.Context(), args[0])
			if err != nil {
				return fmt.Errorf("status lookup failed: %w", err)
			}
			return printRequest(cmd, req, jsonOutput)
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output the request as JSON")

	return cmd
}

func newSignDownloadCmd() *cobra.Command {
	var outPath string

	cmd := &cobra.Command{
		Use:   "download <request-id>",
		Short: "Download a signed document",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := signService()
			if err != nil {
				return err
			}
			if outPath == "" {
				outPath = args[0] + "-signed.pdf"
			}
			if err := svc.Download(cmd.Context(), args[0], outPath); err != nil {
				return fmt.Errorf("download failed: %w", err)
			}
			output.New(cmd.OutOrStdout()).Successf("Saved signed document to %s", outPath)
			return nil
		},
	}

	cmd.Flags().StringVar(&outPath, "output", "", "Where to save the signed document")

	return cmd
}

func newSignVoidCmd() *cobra.Command {
	var reason string

	cmd := &cobra.Command{
		Use:   "void <request-id>",
		Short: "Cancel an outstanding signature request",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := signService()
			if err != nil {
				return err
			}
			if err := svc.Void(cmd.Context(), args[0], reason); err != nil {
				return fmt.Errorf("void failed: %w", err)
			}
			output.New(cmd.OutOrStdout()).Successf("Voided request %s", args[0])
			return nil
		},
	}

	cmd.Flags().StringVar(&reason, "reason", "", "Why the request is being voided")

	return cmd
}
