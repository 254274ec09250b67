package models

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/fenilsonani/dupcleaner/internal/retention"
	"github.com/fenilsonani/dupcleaner/internal/scanner"
	"github.com/fenilsonani/dupcleaner/internal/session"
	"github.com/fenilsonani/dupcleaner/internal/ui/components"
	"github.com/fenilsonani/dupcleaner/internal/ui/styles"
	uiutils "github.com/fenilsonani/dupcleaner/internal/ui/utils"
	"github.com/fenilsonani/dupcleaner/pkg/utils"
)

// reviewRow is one line of the review list: a group header or a member
type reviewRow struct {
	group  int
	header bool
	file   scanner.FileEntry
	kept   bool
}

// ReviewViewModel lists duplicate groups and lets the user choose which
// copies to delete
type ReviewViewModel struct {
	session     *session.Session
	groups      []scanner.DuplicateGroup
	resolutions []retention.Resolution
	rows        []reviewRow

	cursor   int
	offset   int
	pageSize int
	width    int
	height   int
	notice   string

	statusBar *components.StatusBar
	info      *components.InfoPanel
	detector  *components.KindDetector
}

// NewReviewViewModel creates a review of the session's last scan
func NewReviewViewModel(sess *session.Session, width, height int) *ReviewViewModel {
	if width == 0 {
		width = 80
	}
	if height == 0 {
		height = 24
	}

	m := &ReviewViewModel{
		session:   sess,
		width:     width,
		height:    height,
		pageSize:  uiutils.CalculatePageSize(height),
		statusBar: components.NewStatusBar(),
		detector:  components.NewKindDetector(),
	}
	m.statusBar.SetView("Review")
	m.statusBar.SetShortcuts(map[string]string{
		"space": "toggle",
		"enter": "delete",
		"p":     "policy",
		"i":     "info",
		"?":     "help",
		"q":     "quit",
	})
	m.rebuild()
	return m
}

// rebuild resolves the groups with the current policy and lays out rows
func (m *ReviewViewModel) rebuild() {
	m.groups = m.session.Groups()
	m.resolutions = retention.ResolveAll(m.groups, m.session.Policy())

	m.rows = m.rows[:0]
	for gi, g := range m.groups {
		kept := m.resolutions[gi].Kept.Path
		m.rows = append(m.rows, reviewRow{group: gi, header: true})
		for _, f := range g.Files {
			m.rows = append(m.rows, reviewRow{group: gi, file: f, kept: f.Path == kept})
		}
	}

	if m.cursor >= len(m.rows) {
		m.cursor = max(len(m.rows)-1, 0)
	}
	m.offset = uiutils.ScrollOffset(m.cursor, m.offset, m.pageSize)
	m.updateStatus()
}

// Selection returns how many candidates are selected and their total size
func (m *ReviewViewModel) Selection() (count int, bytes uint64) {
	for _, r := range m.resolutions {
		for _, c := range r.Candidates {
			if m.session.Selected(c.Path) {
				count++
				bytes += c.Size
			}
		}
	}
	return count, bytes
}

func (m *ReviewViewModel) candidateCount() int {
	return len(retention.Candidates(m.resolutions))
}

func (m *ReviewViewModel) updateStatus() {
	count, bytes := m.Selection()
	m.statusBar.SetSelection(count, m.candidateCount(), bytes)
}

// setGroup selects or deselects every candidate of group gi
func (m *ReviewViewModel) setGroup(gi int, selected bool) {
	for _, c := range m.resolutions[gi].Candidates {
		m.session.SetSelected(c.Path, selected)
	}
}

func (m *ReviewViewModel) groupSelected(gi int) bool {
	for _, c := range m.resolutions[gi].Candidates {
		if !m.session.Selected(c.Path) {
			return false
		}
	}
	return true
}

func (m *ReviewViewModel) setAll(selected bool) {
	for gi := range m.resolutions {
		m.setGroup(gi, selected)
	}
}

// toggle flips the row under the cursor. A header flips its whole group;
// the kept file cannot be selected.
func (m *ReviewViewModel) toggle() {
	if len(m.rows) == 0 {
		return
	}
	row := m.rows[m.cursor]
	switch {
	case row.header:
		m.setGroup(row.group, !m.groupSelected(row.group))
	case row.kept:
		m.notice = "The kept file cannot be deleted; press p to change the policy"
	default:
		m.session.SetSelected(row.file.Path, !m.session.Selected(row.file.Path))
	}
}

func (m *ReviewViewModel) move(delta int) {
	if len(m.rows) == 0 {
		return
	}
	m.cursor = min(max(m.cursor+delta, 0), len(m.rows)-1)
	m.offset = uiutils.ScrollOffset(m.cursor, m.offset, m.pageSize)
	if m.info != nil && m.info.IsVisible() {
		m.showInfo()
	}
}

func (m *ReviewViewModel) showInfo() {
	row := m.rows[m.cursor]
	g := m.groups[row.group]
	if row.header {
		m.info = components.GroupInfoPanel(g, m.resolutions[row.group].Kept.Path, m.width)
	} else {
		m.info = components.FileInfoPanel(row.file, m.kindOf(row.group), row.kept, m.width)
	}
	m.info.SetVisible(true)
}

// kindOf sniffs the group's first readable member; every member has the
// same content
func (m *ReviewViewModel) kindOf(gi int) components.FileKind {
	kind := components.FileKind{Kind: "Unknown"}
	for _, f := range m.groups[gi].Files {
		if kind = m.detector.Detect(f.Path); kind.Kind != "Unknown" {
			break
		}
	}
	return kind
}

// Init initializes the review view
func (m *ReviewViewModel) Init() tea.Cmd {
	return nil
}

// Update handles messages
func (m *ReviewViewModel) Update(msg tea.Msg) (*ReviewViewModel, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.pageSize = uiutils.CalculatePageSize(msg.Height)
		m.offset = uiutils.ScrollOffset(m.cursor, m.offset, m.pageSize)

	case tea.KeyMsg:
		m.notice = ""
		switch msg.String() {
		case "up", "k":
			m.move(-1)
		case "down", "j":
			m.move(1)
		case "g", "home":
			m.move(-len(m.rows))
		case "G", "end":
			m.move(len(m.rows))
		case "ctrl+f", "pgdown":
			m.move(m.pageSize)
		case "ctrl+b", "pgup":
			m.move(-m.pageSize)
		case " ", "space", "x":
			m.toggle()
		case "ctrl+a":
			m.setAll(true)
		case "ctrl+d":
			m.setAll(false)
		case "p":
			next := retention.KeepNewest
			if m.session.Policy() == retention.KeepNewest {
				next = retention.KeepFirst
			}
			m.session.SetPolicy(next)
			m.rebuild()
			m.notice = "Policy: " + next.String()
		case "i":
			if len(m.rows) == 0 {
				break
			}
			if m.info != nil && m.info.IsVisible() {
				m.info.SetVisible(false)
			} else {
				m.showInfo()
			}
		case "esc":
			if m.info != nil {
				m.info.SetVisible(false)
			}
		case "r":
			return m, func() tea.Msg { return RescanMsg{} }
		case "enter":
			count, bytes := m.Selection()
			if count == 0 {
				m.notice = "Nothing selected"
				break
			}
			dryRun := m.session.Config().DryRun
			return m, func() tea.Msg {
				return FilesSelectedMsg{Count: count, Bytes: bytes, DryRun: dryRun}
			}
		}
		m.updateStatus()
	}

	return m, nil
}

// View renders the review view
func (m *ReviewViewModel) View() string {
	var b strings.Builder

	if warning := uiutils.GetSizeWarningBanner(m.width, m.height); warning != "" {
		b.WriteString(warning)
	}

	b.WriteString(styles.TitleStyle.Render("🗂  Duplicate Review"))
	b.WriteString("\n")

	if len(m.groups) == 0 {
		b.WriteString(styles.SuccessStyle.Render("No duplicates found"))
		b.WriteString("\n\n")
		b.WriteString(styles.HelpStyle.Render("r:rescan  q:quit"))
		return b.String()
	}

	b.WriteString(styles.SubtitleStyle.Render(fmt.Sprintf("%s groups, %s reclaimable, policy %s",
		utils.FormatCount(len(m.groups)),
		utils.FormatSize(scanner.ReclaimableSize(m.groups)),
		m.session.Policy())))
	b.WriteString("\n")

	end := min(m.offset+m.pageSize, len(m.rows))
	for i := m.offset; i < end; i++ {
		b.WriteString(m.renderRow(i))
		b.WriteString("\n")
	}
	if len(m.rows) > m.pageSize {
		b.WriteString(styles.DimStyle.Render(fmt.Sprintf("  [%d-%d of %d]", m.offset+1, end, len(m.rows))))
		b.WriteString("\n")
	}

	if m.info != nil && m.info.IsVisible() {
		b.WriteString("\n")
		b.WriteString(m.info.Render())
		b.WriteString("\n")
	}

	if m.notice != "" {
		b.WriteString("\n")
		b.WriteString(styles.InfoStyle.Render(m.notice))
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(m.statusBar.Render(m.width))
	return b.String()
}

func (m *ReviewViewModel) renderRow(i int) string {
	row := m.rows[i]
	prefix := "  "
	if i == m.cursor {
		prefix = styles.SelectedStyle.Render("> ")
	}

	if row.header {
		g := m.groups[row.group]
		return prefix + styles.GroupHeaderStyle.Render(fmt.Sprintf("Group %d", row.group+1)) +
			styles.DimStyle.Render(fmt.Sprintf("  %d files x ", g.Len())) +
			styles.FileSizeStyle.Render(utils.FormatSize(g.Size))
	}

	var box string
	switch {
	case row.kept:
		box = styles.KeptMarker()
	case m.session.Selected(row.file.Path):
		box = styles.CheckedBox()
	default:
		box = styles.UncheckedBox()
	}

	path := uiutils.TruncatePath(row.file.Path, max(m.width-12, 20))
	line := fmt.Sprintf("%s  %s %s", prefix, box, styles.FilePathStyle.Render(path))
	if row.kept {
		line += styles.KeptStyle.Render("  (kept)")
	}
	return line
}
