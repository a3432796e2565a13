package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/watchpost/watchpost/internal/config"
	"github.com/watchpost/watchpost/internal/daemon"
	"github.com/watchpost/watchpost/internal/errors"
	"github.com/watchpost/watchpost/internal/history"
	"github.com/watchpost/watchpost/internal/logging"
	"github.com/watchpost/watchpost/internal/mailbox"
	"github.com/watchpost/watchpost/internal/monitor"
	"github.com/watchpost/watchpost/internal/notify"
	"github.com/watchpost/watchpost/internal/output"
	"github.com/watchpost/watchpost/internal/provider/email"
	"github.com/watchpost/watchpost/internal/provider/storage"
	"github.com/watchpost/watchpost/internal/ui"
	"github.com/watchpost/watchpost/internal/watcher"
)

// newWatchCmd creates the watch command.
func newWatchCmd() *cobra.Command {
	var (
		plain bool
		tui   bool
	)

	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Watch configured directories and notify on changes",
		Long: `Watch every enabled directory from the configuration and send one
email per burst of changes. Events are debounced per directory;
recently notified files are suppressed for the cooldown window.

Only one watch process runs per machine. While running it answers
'watchpost status' and 'watchpost flush' over a control socket.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			return runWatch(cmd, cfg, plain, tui)
		},
	}

	cmd.Flags().BoolVar(&plain, "plain", false, "Line-per-event output instead of the dashboard")
	cmd.Flags().BoolVar(&tui, "tui", false, "Force the dashboard even when auto-detection would pick plain")
	cmd.MarkFlagsMutuallyExclusive("plain", "tui")

	return cmd
}

func runWatch(cmd *cobra.Command, cfg *config.Config, plain, tui bool) error {
	w := output.New(cmd.OutOrStdout())

	dcfg := daemon.DefaultConfig()
	lock := daemon.NewInstanceLock(dcfg.LockPath, dcfg.PIDPath)
	if err := lock.Acquire(); err != nil {
		return err
	}
	defer lock.Release()

	trail, err := logging.OpenDefaultTrail()
	if err != nil {
		return err
	}
	defer trail.Close()

	store, err := history.Open(cfg.History.Path)
	if err != nil {
		return err
	}
	defer store.Close()

	var sender notify.Sender
	if cfg.Settings.EmailOnChange() {
		svc, err := email.New(cfg)
		if err != nil {
			return err
		}
		sender = svc
	}

	var archiver notify.Archiver
	if cfg.Settings.Archive() {
		objStore, err := storage.New(cfg)
		if err != nil {
			return err
		}
		archiver = storage.NewArchiver(objStore)
	}

	// The renderer is built before the monitor so its hooks can be
	// wired in; the status closure reads mon once it exists.
	var mon *monitor.Monitor
	uiCfg := ui.NewConfig(cmd.OutOrStdout(),
		ui.WithForcePlain(plain),
		ui.WithNoColor(ui.DetectNoColor()),
		ui.WithStatus(func() []ui.DirectorySnapshot {
			if mon == nil {
				return nil
			}
			return snapshotDirectories(mon.Status())
		}))

	var renderer ui.Renderer
	if tui {
		r, err := ui.NewTUIRenderer(uiCfg)
		if err != nil {
			return err
		}
		renderer = r
	} else {
		renderer = ui.NewRenderer(uiCfg)
	}

	if _, isTUI := renderer.(*ui.TUIRenderer); isTUI {
		// The dashboard owns the terminal; send logs to the file only.
		cleanup, err := logging.SetupTUIMode(cfg.Logging.Level)
		if err != nil {
			return err
		}
		defer cleanup()
	}

	mon, err = monitor.New(monitor.Options{
		Config:   cfg,
		Sender:   sender,
		History:  &displayRecorder{store: store, renderer: renderer, emailOn: cfg.Settings.EmailOnChange()},
		Archiver: archiver,
		Trail:    trail,
		OnEvent: func(dir string, ev watcher.FileEvent) {
			renderer.RecordEvent(ui.EventNotice{
				Directory: dir,
				Path:      ev.Path,
				Kind:      ev.Operation.String(),
				Size:      ev.Size,
				Time:      ev.Timestamp,
			})
		},
	})
	if err != nil {
		return err
	}
	if err := mon.Start(); err != nil {
		return err
	}
	defer mon.Stop()

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	server := daemon.NewServer(dcfg.SocketPath)
	server.SetHandler(daemon.NewMonitorHandler(mon))
	go func() {
		if err := server.ListenAndServe(ctx); err != nil {
			renderer.AddError(ui.ErrorEvent{Scope: "control", Err: err, IsWarn: true})
		}
	}()
	defer server.Close()

	var replier *mailbox.AutoReplier
	if cfg.Mailbox.AutoReply.Enabled {
		if sender == nil {
			return errors.New(errors.ErrCodeConfigInvalid,
				"auto-reply requires email sending to be enabled", nil)
		}
		replier = mailbox.NewAutoReplier(cfg.Mailbox, sender, trail)
		if err := replier.Start(); err != nil {
			renderer.AddError(ui.ErrorEvent{Scope: "autoreply", Err: err, IsWarn: true})
			replier = nil
		}
	}

	if err := renderer.Start(ctx); err != nil {
		return err
	}

	if _, isPlain := renderer.(*ui.PlainRenderer); isPlain {
		w.Statusf("👀", "Watching %d directories (ctrl-c to stop)", len(mon.Status()))
	}

	// Quitting the dashboard ends the watch like a signal would.
	var tuiDone <-chan struct{}
	if tui, ok := renderer.(*ui.TUIRenderer); ok {
		tuiDone = tui.Done()
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	select {
	case <-sigCh:
	case <-tuiDone:
	case <-ctx.Done():
	}

	if replier != nil {
		replier.Stop()
	}
	if err := renderer.Stop(); err != nil {
		w.Warningf("display shutdown: %v", err)
	}
	w.Status("👋", "Stopping watch process")
	return nil
}

// snapshotDirectories converts monitor state into display rows.
func snapshotDirectories(statuses []monitor.DirectoryStatus) []ui.DirectorySnapshot {
	out := make([]ui.DirectorySnapshot, 0, len(statuses))
	for _, s := range statuses {
		out = append(out, ui.DirectorySnapshot{
			Path:        s.Path,
			State:       s.State,
			WatcherType: s.WatcherType,
			Pending:     s.Pending,
			EventsSeen:  s.EventsSeen,
			LastFlush:   s.LastFlush,
		})
	}
	return out
}

// displayRecorder persists deliveries and mirrors them to the display.
type displayRecorder struct {
	store    notify.DeliveryRecorder
	renderer ui.Renderer
	emailOn  bool
}

func (r *displayRecorder) RecordDelivery(ctx context.Context, d notify.Delivery) error {
	status := d.Status
	if !r.emailOn && d.Status == notify.DeliverySent {
		status = "logged"
	}
	r.renderer.RecordFlush(ui.FlushNotice{
		Directory: d.Directory,
		Recipient: d.Recipient,
		Files:     d.FileCount,
		Status:    status,
		Time:      d.SentAt,
	})
	return r.store.RecordDelivery(ctx, d)
}
