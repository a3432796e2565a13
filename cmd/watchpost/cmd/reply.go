package cmd

import (
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/watchpost/watchpost/internal/config"
	"github.com/watchpost/watchpost/internal/daemon"
	"github.com/watchpost/watchpost/internal/logging"
	"github.com/watchpost/watchpost/internal/mailbox"
	"github.com/watchpost/watchpost/internal/output"
	"github.com/watchpost/watchpost/internal/provider/email"
)

// newReplyCmd creates the reply command.
func newReplyCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "reply",
		Short: "Run the inbox auto-replier in the foreground",
		Long: `Poll the configured IMAP mailbox and send an automated acknowledgment
for each new message. Only mail arriving after startup is answered;
replies are suppressed when the provider keeps failing. Runs until
interrupted.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}

			// Separate lock from the watch process: one replier per
			// machine, but a watch and a replier may coexist.
			lock := daemon.NewInstanceLock(
				filepath.Join(config.DataDir(), "watchpost-reply.lock"),
				filepath.Join(config.DataDir(), "watchpost-reply.pid"))
			if err := lock.Acquire(); err != nil {
				return err
			}
			defer lock.Release()

			sender, err := email.New(cfg)
			if err != nil {
				return err
			}

			trail, err := logging.OpenDefaultTrail()
			if err != nil {
				return err
			}
			defer trail.Close()

			w := output.New(cmd.OutOrStdout())

			replier := mailbox.NewAutoReplier(cfg.Mailbox, sender, trail)
			if err := replier.Start(); err != nil {
				return err
			}

			w.Statusf("🤖", "Auto-replying on %s every %s (ctrl-c to stop)",
				cfg.Mailbox.IMAP.Username, cfg.Mailbox.AutoReply.PollInterval())

			sigCh := make(chan os.Signal, 1)
			signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
			select {
			case <-sigCh:
			case <-cmd.Context().Done():
			}

			replier.Stop()
			w.Success("Auto-replier stopped")
			return nil
		},
	}
}
