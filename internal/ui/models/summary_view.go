package models

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/fenilsonani/dupcleaner/internal/cleaner"
	"github.com/fenilsonani/dupcleaner/internal/reporter"
	"github.com/fenilsonani/dupcleaner/internal/ui/styles"
	"github.com/fenilsonani/dupcleaner/pkg/utils"
)

// SummaryViewModel handles the summary/results view
type SummaryViewModel struct {
	report *cleaner.DeletionReport
	width  int
	height int
}

// NewSummaryViewModel creates a new summary view model
func NewSummaryViewModel(report *cleaner.DeletionReport, width, height int) *SummaryViewModel {
	return &SummaryViewModel{
		report: report,
		width:  width,
		height: height,
	}
}

// Init initializes the summary view
func (m *SummaryViewModel) Init() tea.Cmd {
	return nil
}

// Update handles messages
func (m *SummaryViewModel) Update(msg tea.Msg) (*SummaryViewModel, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "enter":
			return m, tea.Quit
		case "r":
			return m, func() tea.Msg { return RescanMsg{} }
		}
	}

	return m, nil
}

// View renders the summary view
func (m *SummaryViewModel) View() string {
	var b strings.Builder

	b.WriteString(styles.TitleStyle.Render("✨ Deletion Summary"))
	b.WriteString("\n\n")

	if m.report != nil {
		b.WriteString(styles.SuccessStyle.Render(fmt.Sprintf("✓ Deleted %s files, freed %s",
			utils.FormatCount(m.report.Deleted), utils.FormatSize(m.report.BytesFreed))))
		b.WriteString("\n")

		if m.report.Skipped() > 0 {
			b.WriteString(styles.WarningStyle.Render(fmt.Sprintf("⚠ Skipped %s files",
				utils.FormatCount(m.report.Skipped()))))
			b.WriteString("\n")
		}
		if m.report.Failed > 0 {
			b.WriteString(styles.ErrorStyle.Render(fmt.Sprintf("✗ %s files could not be deleted",
				utils.FormatCount(m.report.Failed))))
			b.WriteString("\n")
		}

		// full breakdown with samples, as the CLI prints it
		var details strings.Builder
		reporter.PrintDeletionSummary(&details, m.report)
		b.WriteString("\n")
		b.WriteString(styles.DimStyle.Render(details.String()))

		if m.report.DryRun {
			b.WriteString("\n")
			b.WriteString(styles.InfoStyle.Render("Note: This was a dry run. No files were actually deleted."))
			b.WriteString("\n")
		}
	}

	b.WriteString("\n")
	b.WriteString(styles.HelpStyle.Render("r:rescan  q/enter:exit"))

	return b.String()
}
