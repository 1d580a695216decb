package tui

import "github.com/charmbracelet/lipgloss"

var styles = struct {
	title    lipgloss.Style
	author   lipgloss.Style
	muted    lipgloss.Style
	status   lipgloss.Style
	filled   lipgloss.Style
	track    lipgloss.Style
	action   lipgloss.Style
	err      lipgloss.Style
	overlay  lipgloss.Style
	username lipgloss.Style
}{
	title:    lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#FE2C55")),
	author:   lipgloss.NewStyle().Bold(true),
	muted:    lipgloss.NewStyle().Foreground(lipgloss.Color("#626262")),
	status:   lipgloss.NewStyle().Foreground(lipgloss.Color("#25F4EE")),
	filled:   lipgloss.NewStyle().Foreground(lipgloss.Color("#FE2C55")),
	track:    lipgloss.NewStyle().Foreground(lipgloss.Color("#3A3A3A")),
	action:   lipgloss.NewStyle().Foreground(lipgloss.Color("#FFFFFF")),
	err:      lipgloss.NewStyle().Foreground(lipgloss.Color("#FF5F5F")),
	overlay:  lipgloss.NewStyle().Foreground(lipgloss.Color("#DADADA")),
	username: lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#25F4EE")),
}
