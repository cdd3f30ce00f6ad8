// ABOUTME: Lipgloss styles for diagnostic and REPL output.
// ABOUTME: StyleForSeverity maps a diagnostic severity to its display style.
package main

import "github.com/charmbracelet/lipgloss"

var (
	errorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Bold(true)
	warningStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("214"))
	infoStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("75"))
	ruleStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	okStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))

	// REPL
	promptStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("170")).Bold(true)
	versionStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
)

// styleForSeverity returns the style used to print a diagnostic of the given severity.
func styleForSeverity(severity string) lipgloss.Style {
	switch severity {
	case "error":
		return errorStyle
	case "warning":
		return warningStyle
	default:
		return infoStyle
	}
}
