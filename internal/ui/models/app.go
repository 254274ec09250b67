package models

import (
	"context"
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/fenilsonani/dupcleaner/internal/cleaner"
	"github.com/fenilsonani/dupcleaner/internal/scanner"
	"github.com/fenilsonani/dupcleaner/internal/session"
	"github.com/fenilsonani/dupcleaner/internal/ui/components"
	"github.com/fenilsonani/dupcleaner/internal/ui/styles"
)

// ViewState represents the current view in the app
type ViewState int

const (
	ViewScanning ViewState = iota
	ViewReview
	ViewConfirmation
	ViewDeleting
	ViewSummary
	ViewHelp
)

// AppModel is the root model for the interactive TUI
type AppModel struct {
	// Current state
	state         ViewState
	previousState ViewState // For back navigation

	// Shared data
	session *session.Session
	ctx     context.Context
	cancel  context.CancelFunc

	// View models
	scanView    *ScanViewModel
	reviewView  *ReviewViewModel
	confirmView *ConfirmViewModel
	deleteView  *DeleteViewModel
	summaryView *SummaryViewModel

	// UI state
	width  int
	height int
	err    error
}

// NewAppModel creates a new app model driving sess
func NewAppModel(sess *session.Session) *AppModel {
	ctx, cancel := context.WithCancel(context.Background())
	return &AppModel{
		state:   ViewScanning,
		session: sess,
		ctx:     ctx,
		cancel:  cancel,
	}
}

// State returns the current view
func (m *AppModel) State() ViewState {
	return m.state
}

// Err returns the error that stopped the app, if any
func (m *AppModel) Err() error {
	return m.err
}

// Init initializes the model
func (m *AppModel) Init() tea.Cmd {
	// Start scanning immediately
	m.scanView = NewScanViewModel(m.ctx, m.session)
	return m.scanView.Init()
}

// Update handles messages
func (m *AppModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if m.state == ViewHelp {
			// any key closes help
			m.state = m.previousState
			return m, nil
		}

		switch msg.String() {
		case "ctrl+c":
			// cancels a running scan or deletion; both finish cooperatively
			m.cancel()
			if m.state != ViewDeleting {
				return m, tea.Quit
			}
			return m, nil
		case "q":
			if m.state != ViewDeleting {
				m.cancel()
				return m, tea.Quit
			}
		case "?":
			m.previousState = m.state
			m.state = ViewHelp
			return m, nil
		case "esc":
			if m.state == ViewConfirmation {
				m.state = ViewReview
				return m, nil
			}
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		// every view keeps its own size
		return m.broadcast(msg)

	case ScanCompleteMsg:
		if msg.Err != nil && msg.State == scanner.StateFailed {
			m.err = msg.Err
			return m, nil
		}
		m.scanView.Update(msg)
		m.reviewView = NewReviewViewModel(m.session, m.width, m.height)
		m.state = ViewReview
		return m, nil

	case FilesSelectedMsg:
		m.confirmView = NewConfirmViewModel(msg.Count, msg.Bytes, msg.DryRun, m.width, m.height)
		m.state = ViewConfirmation
		return m, nil

	case ReviewSelectionMsg:
		m.state = ViewReview
		return m, nil

	case ConfirmedMsg:
		m.deleteView = NewDeleteViewModel(m.ctx, m.session)
		m.state = ViewDeleting
		return m, m.deleteView.Init()

	case CleanupCompleteMsg:
		if msg.Err != nil {
			m.err = msg.Err
			return m, nil
		}
		m.deleteView.Update(msg)
		m.summaryView = NewSummaryViewModel(msg.Report, m.width, m.height)
		m.state = ViewSummary
		return m, nil

	case RescanMsg:
		if m.ctx.Err() != nil {
			// a cancelled deletion leaves the old context spent
			m.ctx, m.cancel = context.WithCancel(context.Background())
		}
		m.scanView = NewScanViewModel(m.ctx, m.session)
		m.state = ViewScanning
		return m, m.scanView.Init()
	}

	// Delegate to current view
	return m.delegateUpdate(msg)
}

func (m *AppModel) broadcast(msg tea.WindowSizeMsg) (tea.Model, tea.Cmd) {
	if m.reviewView != nil {
		m.reviewView.Update(msg)
	}
	if m.confirmView != nil {
		m.confirmView.Update(msg)
	}
	if m.summaryView != nil {
		m.summaryView.Update(msg)
	}
	return m, nil
}

// delegateUpdate delegates the update to the current view
func (m *AppModel) delegateUpdate(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch m.state {
	case ViewScanning:
		if m.scanView != nil {
			m.scanView, cmd = m.scanView.Update(msg)
		}
	case ViewReview:
		if m.reviewView != nil {
			m.reviewView, cmd = m.reviewView.Update(msg)
		}
	case ViewConfirmation:
		if m.confirmView != nil {
			m.confirmView, cmd = m.confirmView.Update(msg)
		}
	case ViewDeleting:
		if m.deleteView != nil {
			m.deleteView, cmd = m.deleteView.Update(msg)
		}
	case ViewSummary:
		if m.summaryView != nil {
			m.summaryView, cmd = m.summaryView.Update(msg)
		}
	}

	return m, cmd
}

// View renders the current view
func (m *AppModel) View() string {
	if m.err != nil {
		return styles.ErrorStyle.Render("Error: "+m.err.Error()) + "\n\n" + components.RenderSimple("Press q to quit.", m.width)
	}

	switch m.state {
	case ViewScanning:
		if m.scanView != nil {
			return m.scanView.View()
		}
	case ViewReview:
		if m.reviewView != nil {
			return m.reviewView.View()
		}
	case ViewConfirmation:
		if m.confirmView != nil {
			return m.confirmView.View()
		}
	case ViewDeleting:
		if m.deleteView != nil {
			return m.deleteView.View()
		}
	case ViewSummary:
		if m.summaryView != nil {
			return m.summaryView.View()
		}
	case ViewHelp:
		return m.renderHelp()
	}

	return "Loading..."
}

// renderHelp renders the help view with context-aware content
func (m *AppModel) renderHelp() string {
	var b strings.Builder

	var viewName string
	var helpContent string

	switch m.previousState {
	case ViewScanning:
		viewName = "Scan View"
		helpContent = helpForScan
	case ViewReview:
		viewName = "Duplicate Review"
		helpContent = helpForReview
	case ViewConfirmation:
		viewName = "Confirmation"
		helpContent = helpForConfirm
	case ViewDeleting:
		viewName = "Deletion"
		helpContent = helpForDelete
	case ViewSummary:
		viewName = "Summary"
		helpContent = helpForSummary
	default:
		viewName = "General"
		helpContent = helpGeneral
	}

	b.WriteString(styles.TitleStyle.Render(fmt.Sprintf("Help - %s", viewName)))
	b.WriteString("\n\n")
	b.WriteString(helpContent)
	b.WriteString("\n\n")
	b.WriteString(styles.HelpStyle.Render("Press any key to close"))

	return b.String()
}

const helpForScan = `Hashing the files under your target folders to find identical copies.

Files are first grouped by size, then compared by a quick digest of
their first 64 KiB, and finally by a digest of their whole content.

Actions:
  ctrl+c  - Cancel scan and exit
  q       - Cancel scan and exit

The review opens automatically when the scan finishes.`

const helpForReview = `Every group below holds files with identical content.
The file marked ★ is kept; the others are deleted when selected.

Navigation:
  ↑/k     - Move up
  ↓/j     - Move down
  g / G   - Top / bottom
  ctrl+f  - Page down
  ctrl+b  - Page up

Selection:
  space   - Toggle file
  ctrl+a  - Select all
  ctrl+d  - Deselect all
  p       - Switch between keep-first and keep-newest
  i       - Show file details

Actions:
  enter   - Delete selected duplicates
  r       - Rescan
  q       - Quit`

const helpForConfirm = `Review and confirm your deletion choices.

Navigation:
  ←/→/h/l - Switch between buttons

Actions:
  enter   - Confirm selection
  y       - Yes, proceed
  n       - No, cancel
  e       - Edit selection (go back)
  esc     - Go back

Files go to the trash when possible and are removed permanently
only when the trash is unavailable.`

const helpForDelete = `Deleting the selected duplicates.

Actions:
  ctrl+c  - Stop after the current file

Files that were not reached are reported as cancelled.`

const helpForSummary = `Deletion complete. Review the results.

Actions:
  r       - Rescan what remains
  enter   - Exit application
  q       - Exit application`

const helpGeneral = `dupcleaner - Interactive Mode Help

Global Shortcuts:
  ?       - Toggle this help
  esc     - Go back / Close help
  q       - Quit (from most views)
  ctrl+c  - Cancel and quit

This interactive mode guides you through:
  1. Scanning - Find identical files
  2. Review - Choose which copies to delete
  3. Confirmation - Check your choices
  4. Deletion - Move duplicates to the trash
  5. Summary - View results`

// Custom messages

// ScanCompleteMsg carries the final event of a scan
type ScanCompleteMsg struct {
	State  scanner.State
	Groups int
	Errors int
	Err    error
}

// FilesSelectedMsg leaves the review with the current selection
type FilesSelectedMsg struct {
	Count  int
	Bytes  uint64
	DryRun bool
}

type ConfirmedMsg struct{}

type ReviewSelectionMsg struct{}

// RescanMsg starts a new scan of the current targets
type RescanMsg struct{}

// CleanupCompleteMsg carries the result of a deletion pass
type CleanupCompleteMsg struct {
	Report *cleaner.DeletionReport
	Err    error
}
