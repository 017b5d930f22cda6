package main

import "github.com/charmbracelet/lipgloss"

var (
	titleStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#382110"))
	successStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#00635D"))
	errorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#D93025"))
	infoStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#1a73e8"))
	labelStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#5f6368")).Width(16)
	boxStyle     = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(1, 2).BorderForeground(lipgloss.Color("#382110"))
)

func renderKV(pairs ...string) string {
	out := ""
	for i := 0; i+1 < len(pairs); i += 2 {
		out += labelStyle.Render(pairs[i]) + pairs[i+1] + "\n"
	}
	return boxStyle.Render(out)
}
