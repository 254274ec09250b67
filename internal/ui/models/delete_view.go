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
	"github.com/fenilsonani/dupcleaner/internal/session"
	"github.com/fenilsonani/dupcleaner/internal/ui/styles"
	uiutils "github.com/fenilsonani/dupcleaner/internal/ui/utils"
	"github.com/fenilsonani/dupcleaner/pkg/utils"
)

// DeleteViewModel shows a deletion pass in progress
type DeleteViewModel struct {
	ctx       context.Context
	session   *session.Session
	spinner   spinner.Model
	bar       progress.Model
	updates   <-chan dprogress.Event
	last      dprogress.DeleteProgress
	startTime time.Time
	done      bool
}

// DeleteProgressMsg is one snapshot of the running deletion
type DeleteProgressMsg struct {
	Progress dprogress.DeleteProgress
}

// NewDeleteViewModel creates a new delete view model
func NewDeleteViewModel(ctx context.Context, sess *session.Session) *DeleteViewModel {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = styles.SelectedStyle

	return &DeleteViewModel{
		ctx:       ctx,
		session:   sess,
		spinner:   s,
		bar:       progress.New(progress.WithDefaultGradient()),
		updates:   sess.Progress().Subscribe(),
		startTime: time.Now(),
	}
}

// Init initializes the delete view
func (m *DeleteViewModel) Init() tea.Cmd {
	return tea.Batch(
		m.spinner.Tick,
		waitForDeleteProgress(m.updates),
		m.performDelete,
	)
}

// waitForDeleteProgress reads the next deletion snapshot, skipping other
// events. It returns nil once the subscription is closed.
func waitForDeleteProgress(updates <-chan dprogress.Event) tea.Cmd {
	return func() tea.Msg {
		for ev := range updates {
			if p, ok := ev.(dprogress.DeleteProgress); ok {
				return DeleteProgressMsg{Progress: p}
			}
		}
		return nil
	}
}

// performDelete runs the deletion pass
func (m *DeleteViewModel) performDelete() tea.Msg {
	report, err := m.session.Delete(m.ctx)
	m.session.Progress().Unsubscribe(m.updates)
	return CleanupCompleteMsg{Report: report, Err: err}
}

// Update handles messages
func (m *DeleteViewModel) Update(msg tea.Msg) (*DeleteViewModel, tea.Cmd) {
	switch msg := msg.(type) {
	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case DeleteProgressMsg:
		m.last = msg.Progress
		if m.done {
			return m, nil
		}
		return m, waitForDeleteProgress(m.updates)

	case CleanupCompleteMsg:
		m.done = true
		return m, nil
	}

	return m, nil
}

// View renders the delete view
func (m *DeleteViewModel) View() string {
	var b strings.Builder

	b.WriteString(styles.TitleStyle.Render("🗑️  Removing Duplicates"))
	b.WriteString("\n\n")

	if m.done {
		b.WriteString(styles.SuccessStyle.Render("✓ Done"))
		b.WriteString("\n")
		return b.String()
	}

	b.WriteString(m.spinner.View())
	b.WriteString(" ")
	b.WriteString(dprogress.FormatDeleteProgress(m.last))
	b.WriteString(" ")
	b.WriteString(styles.DimStyle.Render(fmt.Sprintf("(%s)", time.Since(m.startTime).Round(time.Second))))
	b.WriteString("\n\n")

	percent := 0.0
	if m.last.Total > 0 {
		percent = float64(m.last.Attempted) / float64(m.last.Total)
	}
	b.WriteString(m.bar.ViewAs(percent))
	b.WriteString("\n\n")

	b.WriteString(fmt.Sprintf("Deleted: %s  Skipped: %s  Failed: %s  Freed: %s\n",
		styles.SuccessStyle.Render(utils.FormatCount(m.last.Deleted)),
		utils.FormatCount(m.last.Skipped),
		styles.ErrorStyle.Render(utils.FormatCount(m.last.Failed)),
		styles.FileSizeStyle.Render(utils.FormatSize(m.last.BytesFreed))))

	if m.last.CurrentFile != "" {
		b.WriteString(styles.DimStyle.Render("Current: "))
		b.WriteString(styles.FilePathStyle.Render(uiutils.TruncatePath(m.last.CurrentFile, 60)))
		b.WriteString("\n")
	}

	return b.String()
}
