package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/watchpost/watchpost/internal/notify"
	"github.com/watchpost/watchpost/internal/output"
	"github.com/watchpost/watchpost/internal/provider/email"
)

// newSendCmd creates the send command.
func newSendCmd() *cobra.Command {
	var (
		to      []string
		cc      []string
		bcc     []string
		subject string
		body    string
		from    string
		attach  []string
	)

	cmd := &cobra.Command{
		Use:   "send",
		Short: "Send a one-off email through the configured provider",
		Long: `Send an email using the configured provider without touching the
watch pipeline. Useful for verifying SMTP credentials before relying
on change notifications.`,
		Example: `  watchpost send --to ops@example.com --subject "test" --body "hello"
  watchpost send --to a@x.com --to b@x.com --subject "report" --attach report.pdf`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}

			for _, path := range attach {
				if _, err := os.Stat(path); err != nil {
					return fmt.Errorf("attachment not found: %s", path)
				}
			}

			svc, err := email.New(cfg)
			if err != nil {
				return err
			}

			if from == "" {
				from = cfg.Email.SMTP.Username
			}

			msg := notify.Message{
				From:        from,
				To:          to,
				CC:          cc,
				BCC:         bcc,
				Subject:     subject,
				Body:        body,
				Attachments: attach,
			}

			w := output.New(cmd.OutOrStdout())
			w.Statusf("📧", "Sending via %s to %s", svc.Name(), strings.Join(to, ", "))

			if err := svc.Send(cmd.Context(), msg); err != nil {
				return fmt.Errorf("send failed: %w", err)
			}

			w.Success("Message sent")
			return nil
		},
	}

	cmd.Flags().StringSliceVar(&to, "to", nil, "Recipient address (repeatable)")
	cmd.Flags().StringSliceVar(&cc, "cc", nil, "CC address (repeatable)")
	cmd.Flags().StringSliceVar(&bcc, "bcc", nil, "BCC address (repeatable)")
	cmd.Flags().StringVar(&subject, "subject", "", "Message subject")
	cmd.Flags().StringVar(&body, "body", "", "Message body")
	cmd.Flags().StringVar(&from, "from", "", "Sender address (defaults to SMTP username)")
	cmd.Flags().StringSliceVar(&attach, "attach", nil, "File to attach (repeatable)")
	_ = cmd.MarkFlagRequired("to")
	_ = cmd.MarkFlagRequired("subject")

	return cmd
}
