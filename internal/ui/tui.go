package ui

import (
	"context"
	"fmt"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// maxRecentLines bounds the event feed shown in the dashboard.
const maxRecentLines = 12

// TUIRenderer provides a rich terminal dashboard using bubbletea.
type TUIRenderer struct {
	mu      sync.Mutex
	cfg     Config
	program *tea.Program
	model   *watchModel
	cancel  context.CancelFunc
	started bool
	done    chan struct{}
}

// NewTUIRenderer creates a dashboard renderer. Returns an error when
// the output is not a TTY.
func NewTUIRenderer(cfg Config) (*TUIRenderer, error) {
	if !IsTTY(cfg.Output) {
		return nil, fmt.Errorf("output is not a TTY")
	}

	model := newWatchModel(cfg.Status)
	if cfg.NoColor || DetectNoColor() {
		model.styles = NoColorStyles()
	}

	return &TUIRenderer{
		cfg:   cfg,
		model: model,
		done:  make(chan struct{}),
	}, nil
}

// Start implements Renderer.
func (r *TUIRenderer) Start(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.started {
		return nil
	}

	_, r.cancel = context.WithCancel(ctx)

	var opts []tea.ProgramOption
	if f, ok := r.cfg.Output.(*os.File); ok {
		opts = append(opts, tea.WithOutput(f))
	}
	opts = append(opts, tea.WithAltScreen())

	r.program = tea.NewProgram(r.model, opts...)
	r.started = true

	go func() {
		defer close(r.done)
		_, _ = r.program.Run()
	}()

	return nil
}

// Done is closed when the dashboard exits, including a user quit.
func (r *TUIRenderer) Done() <-chan struct{} {
	return r.done
}

// RecordEvent implements Renderer.
func (r *TUIRenderer) RecordEvent(event EventNotice) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.program != nil {
		r.program.Send(eventMsg(event))
	}
}

// RecordFlush implements Renderer.
func (r *TUIRenderer) RecordFlush(notice FlushNotice) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.program != nil {
		r.program.Send(flushMsg(notice))
	}
}

// AddError implements Renderer.
func (r *TUIRenderer) AddError(event ErrorEvent) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.program != nil {
		r.program.Send(errorMsg(event))
	}
}

// Stop implements Renderer.
func (r *TUIRenderer) Stop() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.cancel != nil {
		r.cancel()
	}

	if r.program != nil {
		r.program.Quit()

		// Wait with timeout to avoid hanging on an unresponsive TUI.
		select {
		case <-r.done:
		case <-time.After(2 * time.Second):
		}
	}
	return nil
}

// Message types for bubbletea.
type eventMsg EventNotice
type flushMsg FlushNotice
type errorMsg ErrorEvent
type tickMsg time.Time

// watchModel is the bubbletea model for the watch dashboard.
type watchModel struct {
	status   StatusFunc
	dirs     []DirectorySnapshot
	recent   []string
	errors   int
	notified int
	spinner  spinner.Model
	styles   Styles
	width    int
	height   int
	quitting bool
}

func newWatchModel(status StatusFunc) *watchModel {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(lipgloss.Color(ColorLime))

	return &watchModel{
		status:  status,
		spinner: s,
		styles:  DefaultStyles(),
		width:   80,
		height:  24,
	}
}

// Init implements tea.Model.
func (m *watchModel) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, tickCmd())
}

// tickCmd refreshes the status panels twice a second.
func tickCmd() tea.Cmd {
	return tea.Tick(500*time.Millisecond, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

// Update implements tea.Model.
func (m *watchModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "q":
			m.quitting = true
			return m, tea.Quit
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height

	case tickMsg:
		if m.status != nil {
			m.dirs = m.status()
		}
		return m, tickCmd()

	case eventMsg:
		m.pushRecent(fmt.Sprintf("%s %-8s %s (%s)",
			msg.Time.Format("15:04:05"), msg.Kind, msg.Path, FormatSize(msg.Size)))
		return m, nil

	case flushMsg:
		m.notified++
		line := fmt.Sprintf("%s notified %d file(s) -> %s",
			msg.Time.Format("15:04:05"), msg.Files, msg.Recipient)
		if msg.Status == "failed" {
			line = fmt.Sprintf("%s FAILED   %d file(s) -> %s",
				msg.Time.Format("15:04:05"), msg.Files, msg.Recipient)
		}
		m.pushRecent(line)
		return m, nil

	case errorMsg:
		m.errors++
		m.pushRecent(fmt.Sprintf("ERROR %s: %v", msg.Scope, msg.Err))
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}

	return m, nil
}

func (m *watchModel) pushRecent(line string) {
	m.recent = append(m.recent, line)
	if len(m.recent) > maxRecentLines {
		m.recent = m.recent[len(m.recent)-maxRecentLines:]
	}
}

// View implements tea.Model.
func (m *watchModel) View() string {
	if m.quitting {
		return ""
	}

	var b strings.Builder

	b.WriteString(m.styles.Header.Render("watchpost"))
	b.WriteString(" ")
	b.WriteString(m.spinner.View())
	b.WriteString(m.styles.Label.Render(fmt.Sprintf(" watching %d directories", len(m.dirs))))
	b.WriteString("\n\n")

	b.WriteString(m.renderDirectories())
	b.WriteString("\n")
	b.WriteString(m.renderRecent())

	footer := fmt.Sprintf("%d notified, %d errors", m.notified, m.errors)
	b.WriteString("\n")
	b.WriteString(m.styles.Dim.Render(footer + "  (q to quit)"))
	b.WriteString("\n")

	return b.String()
}

func (m *watchModel) renderDirectories() string {
	if len(m.dirs) == 0 {
		return m.styles.Dim.Render("waiting for directory status...")
	}

	var lines []string
	for _, d := range m.dirs {
		state := m.styles.Label.Render(d.State)
		if d.State == "accumulating" {
			state = m.styles.Active.Render(d.State)
		}
		lastFlush := "never"
		if !d.LastFlush.IsZero() {
			lastFlush = time.Since(d.LastFlush).Round(time.Second).String() + " ago"
		}
		lines = append(lines, fmt.Sprintf("%s  %s  pending %d  events %d  flushed %s  [%s]",
			m.styles.Header.Render(d.Path), state, d.Pending, d.EventsSeen, lastFlush, d.WatcherType))
	}
	return m.styles.Panel.Render(strings.Join(lines, "\n"))
}

func (m *watchModel) renderRecent() string {
	if len(m.recent) == 0 {
		return m.styles.Dim.Render("no events yet")
	}
	return m.styles.Panel.Render(strings.Join(m.recent, "\n"))
}
