package ui

import (
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/fenilsonani/dupcleaner/internal/session"
	"github.com/fenilsonani/dupcleaner/internal/ui/models"
)

// RunInteractive starts the interactive TUI over the session's targets
func RunInteractive(sess *session.Session) error {
	m := models.NewAppModel(sess)

	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithMouseCellMotion())

	final, err := p.Run()
	if err != nil {
		return fmt.Errorf("error running interactive mode: %w", err)
	}

	if app, ok := final.(*models.AppModel); ok && app.Err() != nil {
		return app.Err()
	}
	return nil
}
