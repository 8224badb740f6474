// Package ui holds the terminal styles and renderers the sindri CLI
// prints with. Styles degrade to plain text when stdout is not a terminal.
package ui

import (
	"github.com/charmbracelet/lipgloss"
)

// Color palette.
var (
	colorPrimary   = lipgloss.Color("#7C3AED") // Purple
	colorSecondary = lipgloss.Color("#A78BFA") // Light purple
	colorSuccess   = lipgloss.Color("#10B981") // Green
	colorDanger    = lipgloss.Color("#EF4444") // Red
	colorMuted     = lipgloss.Color("#6B7280") // Gray
	colorBorder    = lipgloss.Color("#374151") // Dark gray
	colorWarning   = lipgloss.Color("#F59E0B") // Amber
)

// Shared styles.
var (
	TitleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(colorPrimary)

	MutedStyle = lipgloss.NewStyle().
			Foreground(colorMuted)

	BadgeStyle = lipgloss.NewStyle().
			Foreground(colorSecondary)

	SuccessStyle = lipgloss.NewStyle().
			Foreground(colorSuccess)

	ErrorStyle = lipgloss.NewStyle().
			Foreground(colorDanger)

	WarningStyle = lipgloss.NewStyle().
			Foreground(colorWarning)

	sectionHeaderStyle = lipgloss.NewStyle().
				Bold(true).
				Foreground(colorMuted)

	sectionRuleStyle = lipgloss.NewStyle().
				Foreground(colorBorder)
)

// SectionHeader renders a label between short rules: "── TOOLS ──".
func SectionHeader(label string) string {
	rule := sectionRuleStyle.Render("──")
	return rule + sectionHeaderStyle.Render(" "+label+" ") + rule
}

// StateStyle picks the style for a lifecycle state or file status label.
func StateStyle(label string) lipgloss.Style {
	switch label {
	case "loaded", "ok", "valid", "enabled":
		return SuccessStyle
	case "failed", "missing", "invalid":
		return ErrorStyle
	case "disabled", "modified", "pinned":
		return WarningStyle
	}
	return MutedStyle
}
