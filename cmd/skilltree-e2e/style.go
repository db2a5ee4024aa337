package main

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

var (
	headerStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12"))
	successStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	warningStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("11"))
	errorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
	mutedStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	boxStyle     = lipgloss.NewStyle().
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("8")).
			Padding(0, 1)
)

// summary renders a titled key/value box.
func summary(title string, rows [][2]string) string {
	width := 0
	for _, r := range rows {
		if len(r[0]) > width {
			width = len(r[0])
		}
	}
	var sb strings.Builder
	sb.WriteString(headerStyle.Render(title))
	for _, r := range rows {
		sb.WriteString("\n")
		sb.WriteString(mutedStyle.Render(fmt.Sprintf("%-*s", width, r[0])))
		sb.WriteString("  ")
		sb.WriteString(r[1])
	}
	return boxStyle.Render(sb.String())
}

func passFail(ok bool) string {
	if ok {
		return successStyle.Render("PASS")
	}
	return errorStyle.Render("FAIL")
}
