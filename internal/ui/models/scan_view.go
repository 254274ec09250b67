package models

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	dprogress "github.com/fenilsonani/dupcleaner/internal/progress"
	"github.com/fenilsonani/dupcleaner/internal/scanner"
	"github.com/fenilsonani/dupcleaner/internal/session"
	"github.com/fenilsonani/dupcleaner/internal/ui/styles"
	uiutils "github.com/fenilsonani/dupcleaner/internal/ui/utils"
	"github.com/fenilsonani/dupcleaner/pkg/utils"
)

// ScanViewModel handles the scanning progress view
type ScanViewModel struct {
	ctx       context.Context
	session   *session.Session
	spinner   spinner.Model
	bar       progress.Model
	events    <-chan dprogress.Event
	scanning  bool
	startTime time.Time
	last      dprogress.ScanProgress
	result    *ScanCompleteMsg
}

// scanStartedMsg hands the scan's event channel to the view
type scanStartedMsg struct {
	events <-chan dprogress.Event
}

// ScanProgressMsg is one progress snapshot from the running scan
type ScanProgressMsg struct {
	Progress dprogress.ScanProgress
}

// NewScanViewModel creates a new scan view model
func NewScanViewModel(ctx context.Context, sess *session.Session) *ScanViewModel {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = styles.SelectedStyle

	return &ScanViewModel{
		ctx:       ctx,
		session:   sess,
		spinner:   s,
		bar:       progress.New(progress.WithDefaultGradient()),
		scanning:  true,
		startTime: time.Now(),
	}
}

// Init initializes the scan view
func (m *ScanViewModel) Init() tea.Cmd {
	return tea.Batch(
		m.spinner.Tick,
		m.startScan,
	)
}

// startScan waits for background enumeration, then starts the scan
func (m *ScanViewModel) startScan() tea.Msg {
	if err := m.session.WaitEnumeration(m.ctx); err != nil {
		return ScanCompleteMsg{State: scanner.StateCancelled, Err: err}
	}

	events, err := m.session.StartScan(m.ctx)
	if err != nil {
		return ScanCompleteMsg{State: scanner.StateFailed, Err: err}
	}
	return scanStartedMsg{events: events}
}

// waitForEvent reads one event; the view re-arms it after every progress
// snapshot until ScanFinished arrives
func waitForEvent(events <-chan dprogress.Event) tea.Cmd {
	return func() tea.Msg {
		for ev := range events {
			switch ev := ev.(type) {
			case dprogress.ScanProgress:
				return ScanProgressMsg{Progress: ev}
			case scanner.ScanFinished:
				return ScanCompleteMsg{
					State:  ev.State,
					Groups: len(ev.Groups),
					Errors: ev.Errors,
					Err:    ev.Err,
				}
			}
		}
		return nil
	}
}

// Update handles messages
func (m *ScanViewModel) Update(msg tea.Msg) (*ScanViewModel, tea.Cmd) {
	switch msg := msg.(type) {
	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case scanStartedMsg:
		m.events = msg.events
		return m, waitForEvent(m.events)

	case ScanProgressMsg:
		m.last = msg.Progress
		return m, waitForEvent(m.events)

	case ScanCompleteMsg:
		m.scanning = false
		m.result = &msg
		return m, nil
	}

	return m, nil
}

// View renders the scan view
func (m *ScanViewModel) View() string {
	var b strings.Builder

	b.WriteString(styles.TitleStyle.Render("🔍 Scanning for Duplicates"))
	b.WriteString("\n\n")

	if m.scanning {
		b.WriteString(m.spinner.View())
		if m.events == nil {
			b.WriteString(fmt.Sprintf(" Collecting files... %s found ", utils.FormatCount(m.session.FileCount())))
		} else {
			b.WriteString(" Hashing... ")
		}
		b.WriteString(styles.DimStyle.Render(fmt.Sprintf("(%s)", time.Since(m.startTime).Round(time.Second))))
		b.WriteString("\n\n")

		if m.events != nil {
			b.WriteString(m.bar.ViewAs(m.last.Percent() / 100))
			b.WriteString("\n\n")

			b.WriteString(fmt.Sprintf("Files: %s/%s  %s  ETA: %s\n",
				styles.BoldStyle.Render(utils.FormatCount(m.last.Processed)),
				utils.FormatCount(m.last.Total),
				styles.DimStyle.Render(fmt.Sprintf("%.1f files/s", m.last.Throughput)),
				dprogress.FormatETA(m.last.ETA, m.last.ETAAvailable)))

			if m.last.CurrentPath != "" {
				b.WriteString(styles.DimStyle.Render("Current: "))
				b.WriteString(styles.FilePathStyle.Render(uiutils.TruncatePath(m.last.CurrentPath, 60)))
				b.WriteString("\n")
			}
		}
	} else if m.result != nil {
		switch m.result.State {
		case scanner.StateCancelled:
			b.WriteString(styles.WarningStyle.Render("Scan cancelled"))
		case scanner.StateFailed:
			b.WriteString(styles.ErrorStyle.Render("✗ Scan failed"))
		default:
			b.WriteString(styles.SuccessStyle.Render("✓ Scan Complete!"))
		}
		b.WriteString("\n\n")
		b.WriteString(fmt.Sprintf("Found %s duplicate groups\n",
			styles.BoldStyle.Render(utils.FormatCount(m.result.Groups))))
		if m.result.Errors > 0 {
			b.WriteString(styles.WarningStyle.Render(fmt.Sprintf("%d files could not be read", m.result.Errors)))
			b.WriteString("\n")
		}
	}

	return b.String()
}
