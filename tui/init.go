package tui

import (
	tea "github.com/charmbracelet/bubbletea"
)

// Init picks up whatever the controller is doing when the surface opens.
func (b *statefulBubble) Init() tea.Cmd {
	return b.apply(b.controller.Snapshot(), nil)
}
