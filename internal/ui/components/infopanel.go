package components

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/fenilsonani/dupcleaner/internal/scanner"
	"github.com/fenilsonani/dupcleaner/internal/ui/styles"
	uiutils "github.com/fenilsonani/dupcleaner/internal/ui/utils"
	"github.com/fenilsonani/dupcleaner/pkg/utils"
)

// InfoPanel represents a contextual information panel
type InfoPanel struct {
	title   string
	content []InfoItem
	visible bool
	width   int
}

// InfoItem represents a single piece of information
type InfoItem struct {
	Label string
	Value string
	Icon  string
}

// NewInfoPanel creates a new info panel
func NewInfoPanel(title string, width int) *InfoPanel {
	return &InfoPanel{
		title:   title,
		content: []InfoItem{},
		visible: false,
		width:   width,
	}
}

// AddItem adds an information item to the panel
func (p *InfoPanel) AddItem(label, value, icon string) {
	p.content = append(p.content, InfoItem{
		Label: label,
		Value: value,
		Icon:  icon,
	})
}

// SetVisible sets the visibility of the panel
func (p *InfoPanel) SetVisible(visible bool) {
	p.visible = visible
}

// IsVisible returns whether the panel is visible
func (p *InfoPanel) IsVisible() bool {
	return p.visible
}

// Toggle toggles the visibility of the panel
func (p *InfoPanel) Toggle() {
	p.visible = !p.visible
}

// Clear clears all content from the panel
func (p *InfoPanel) Clear() {
	p.content = []InfoItem{}
}

// SetWidth sets the width of the panel
func (p *InfoPanel) SetWidth(width int) {
	p.width = width
}

// Render renders the info panel
func (p *InfoPanel) Render() string {
	if !p.visible || len(p.content) == 0 {
		return ""
	}

	var b strings.Builder

	// half the terminal, clamped to [40, 80]
	panelWidth := p.width / 2
	if panelWidth < 40 {
		panelWidth = 40
	}
	if panelWidth > 80 {
		panelWidth = 80
	}

	// Create panel style
	panelStyle := lipgloss.NewStyle().
		Border(lipgloss.ThickBorder()).
		BorderForeground(styles.FocusBorder).
		Padding(1, 2).
		Width(panelWidth).
		Background(styles.BgDark)

	// Title
	titleStyle := lipgloss.NewStyle().
		Foreground(styles.Primary).
		Bold(true).
		Underline(true)

	var content strings.Builder
	content.WriteString(titleStyle.Render(p.title))
	content.WriteString("\n\n")

	// Content items
	for i, item := range p.content {
		// Icon and label
		labelStyle := lipgloss.NewStyle().
			Foreground(styles.Secondary).
			Bold(true)

		if item.Icon != "" {
			content.WriteString(item.Icon + " ")
		}
		content.WriteString(labelStyle.Render(item.Label) + ": ")

		// Value
		valueStyle := lipgloss.NewStyle().
			Foreground(styles.Text)

		content.WriteString(valueStyle.Render(item.Value))

		if i < len(p.content)-1 {
			content.WriteString("\n")
		}
	}

	// Footer hint
	content.WriteString("\n\n")
	footerStyle := lipgloss.NewStyle().
		Foreground(styles.TextDim).
		Italic(true)
	content.WriteString(footerStyle.Render("Press 'i' or 'esc' to close"))

	b.WriteString(panelStyle.Render(content.String()))

	return b.String()
}

// GroupInfoPanel describes a duplicate group
func GroupInfoPanel(g scanner.DuplicateGroup, keeper string, width int) *InfoPanel {
	panel := NewInfoPanel(fmt.Sprintf("Group %d", g.ID), width)

	panel.AddItem("Copies", fmt.Sprintf("%d", g.Len()), "📊")
	panel.AddItem("File Size", utils.FormatSize(g.Size), "💾")
	panel.AddItem("Reclaimable", utils.FormatSize(g.ReclaimableSize()), "🧹")
	panel.AddItem("Keeping", uiutils.TruncateMiddle(keeper, 60), "★")
	if g.Digest != "" {
		panel.AddItem("Digest", uiutils.TruncateString(g.Digest, 40), "#")
	}

	return panel
}

// FileInfoPanel describes one member of a group
func FileInfoPanel(fe scanner.FileEntry, kind FileKind, kept bool, width int) *InfoPanel {
	panel := NewInfoPanel("File Information", width)

	panel.AddItem("Path", uiutils.TruncateMiddle(fe.Path, 60), "📁")
	panel.AddItem("Size", utils.FormatSize(fe.Size), "💾")
	panel.AddItem("Modified", fe.ModTime.Format("2006-01-02 15:04:05"), "🕒")
	panel.AddItem("Type", kind.String(), styles.KindIcon(kind.Kind))

	action := "Delete if selected"
	if kept {
		action = "Keep"
	}
	panel.AddItem("Action", action, "⚙")

	return panel
}
