package models

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/fenilsonani/dupcleaner/internal/ui/styles"
	uiutils "github.com/fenilsonani/dupcleaner/internal/ui/utils"
	"github.com/fenilsonani/dupcleaner/pkg/utils"
)

// RiskLevel represents the risk level of a deletion operation
type RiskLevel int

const (
	RiskLow RiskLevel = iota
	RiskMedium
	RiskHigh
)

const (
	mediumRiskFiles = 50
	highRiskFiles   = 500
	mediumRiskBytes = 1 << 30  // 1 GiB
	highRiskBytes   = 10 << 30 // 10 GiB
)

// ConfirmViewModel handles the confirmation screen
type ConfirmViewModel struct {
	count     int
	bytes     uint64
	dryRun    bool
	cursor    int // 0 = Yes, 1 = Review, 2 = Cancel
	riskLevel RiskLevel
	width     int
	height    int
}

// NewConfirmViewModel creates a new confirm view model
func NewConfirmViewModel(count int, bytes uint64, dryRun bool, width, height int) *ConfirmViewModel {
	risk := calculateRiskLevel(count, bytes)
	defaultCursor := 0

	// Default to "Cancel" for high risk
	if risk == RiskHigh && !dryRun {
		defaultCursor = 2
	}

	if width == 0 {
		width = 80
	}
	if height == 0 {
		height = 24
	}

	return &ConfirmViewModel{
		count:     count,
		bytes:     bytes,
		dryRun:    dryRun,
		cursor:    defaultCursor,
		riskLevel: risk,
		width:     width,
		height:    height,
	}
}

// calculateRiskLevel grades a deletion pass by file count and volume
func calculateRiskLevel(count int, bytes uint64) RiskLevel {
	if count > highRiskFiles || bytes >= highRiskBytes {
		return RiskHigh
	}
	if count >= mediumRiskFiles || bytes >= mediumRiskBytes {
		return RiskMedium
	}
	return RiskLow
}

// Init initializes the confirm view
func (m *ConfirmViewModel) Init() tea.Cmd {
	return nil
}

// Update handles messages
func (m *ConfirmViewModel) Update(msg tea.Msg) (*ConfirmViewModel, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height

	case tea.KeyMsg:
		switch msg.String() {
		case "left", "h":
			if m.cursor > 0 {
				m.cursor--
			}
		case "right", "l":
			if m.cursor < 2 {
				m.cursor++
			}
		case "tab":
			m.cursor = (m.cursor + 1) % 3
		case "enter":
			switch m.cursor {
			case 0: // Yes
				return m, func() tea.Msg { return ConfirmedMsg{} }
			case 1: // Review
				return m, func() tea.Msg { return ReviewSelectionMsg{} }
			case 2: // Cancel
				return m, tea.Quit
			}
		case "y":
			return m, func() tea.Msg { return ConfirmedMsg{} }
		case "e":
			return m, func() tea.Msg { return ReviewSelectionMsg{} }
		case "n":
			return m, tea.Quit
		}
	}

	return m, nil
}

// View renders the confirmation view
func (m *ConfirmViewModel) View() string {
	var b strings.Builder

	if warning := uiutils.GetSizeWarningBanner(m.width, m.height); warning != "" {
		b.WriteString(warning)
	}

	b.WriteString(styles.TitleStyle.Render("⚠️  Confirm Deletion"))
	b.WriteString("\n\n")

	verb := "delete"
	if m.dryRun {
		verb = "simulate deleting"
	}
	b.WriteString(styles.BoldStyle.Render(fmt.Sprintf("You are about to %s %s duplicate files (%s)",
		verb, utils.FormatCount(m.count), utils.FormatSize(m.bytes))))
	b.WriteString("\n")
	b.WriteString(styles.DimStyle.Render("One copy of every group is kept."))
	b.WriteString("\n\n")

	riskText, riskStyle, riskIcon := m.getRiskDisplay()
	b.WriteString(fmt.Sprintf("Risk Level: %s %s\n", riskIcon, riskStyle(riskText)))

	if m.riskLevel == RiskHigh {
		b.WriteString("\n")
		b.WriteString(styles.ErrorStyle.Render("⚠️  HIGH RISK OPERATION ⚠️"))
		b.WriteString("\n")
	}

	b.WriteString("\n")
	if m.dryRun {
		b.WriteString(styles.InfoStyle.Render("Dry run: nothing will be touched."))
	} else {
		b.WriteString(styles.WarningStyle.Render("Files go to the trash; if the trash is unavailable they are deleted permanently."))
	}
	b.WriteString("\n\n")

	yesBtn := "[ Yes, delete ]"
	reviewBtn := "[ Review ]"
	cancelBtn := "[ Cancel ]"

	switch m.cursor {
	case 0:
		yesBtn = styles.HighlightStyle.Render(yesBtn)
	case 1:
		reviewBtn = styles.HighlightStyle.Render(reviewBtn)
	case 2:
		cancelBtn = styles.HighlightStyle.Render(cancelBtn)
	}

	b.WriteString(fmt.Sprintf("%s  %s  %s", yesBtn, reviewBtn, cancelBtn))
	b.WriteString("\n\n")

	helpText := "y:confirm  e:edit  n:cancel  ←/→:navigate"
	if m.width < 60 {
		helpText = "y:yes  e:edit  n:no  ←/→"
	}
	b.WriteString(styles.HelpStyle.Render(helpText))

	return b.String()
}

// getRiskDisplay returns the display text, style render function, and icon for the current risk level
func (m *ConfirmViewModel) getRiskDisplay() (string, func(...string) string, string) {
	switch m.riskLevel {
	case RiskHigh:
		return "HIGH (many files or a large volume)", styles.ErrorStyle.Render, "🔴"
	case RiskMedium:
		return "MEDIUM", styles.WarningStyle.Render, "⚠️"
	default:
		return "LOW", styles.SuccessStyle.Render, "✓"
	}
}
