// Package ui provides consistent styling and components for the xnested CLI
package ui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Color palette - consistent across the application
var (
	ColorPrimary   = lipgloss.Color("39")  // Bright blue
	ColorSecondary = lipgloss.Color("205") // Pink/magenta
	ColorSuccess   = lipgloss.Color("82")  // Green
	ColorWarning   = lipgloss.Color("214") // Orange
	ColorError     = lipgloss.Color("196") // Red
	ColorInfo      = lipgloss.Color("86")  // Cyan

	ColorText   = lipgloss.Color("252") // Light gray
	ColorSubtle = lipgloss.Color("241") // Medium gray
	ColorMuted  = lipgloss.Color("238") // Dark gray

	ColorEnabled  = ColorSuccess
	ColorDisabled = ColorSubtle
)

// Base styles
var (
	TextStyle = lipgloss.NewStyle().
			Foreground(ColorText)

	SubtleStyle = lipgloss.NewStyle().
			Foreground(ColorSubtle)

	MutedStyle = lipgloss.NewStyle().
			Foreground(ColorMuted)

	HeaderStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(ColorPrimary)

	TitleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(ColorPrimary).
			Background(ColorMuted).
			Padding(0, 1)

	SuccessStyle = lipgloss.NewStyle().
			Foreground(ColorSuccess)

	WarningStyle = lipgloss.NewStyle().
			Foreground(ColorWarning)

	ErrorStyle = lipgloss.NewStyle().
			Foreground(ColorError)

	InfoStyle = lipgloss.NewStyle().
			Foreground(ColorInfo)

	BoxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(ColorSubtle).
			Padding(1, 2)

	SpinnerStyle = lipgloss.NewStyle().
			Foreground(ColorSecondary)

	ControlKeyStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(ColorPrimary)

	ControlDescStyle = lipgloss.NewStyle().
				Foreground(ColorText)
)

// Table styles
var (
	TableHeaderStyle = lipgloss.NewStyle().
				Bold(true).
				Foreground(ColorPrimary).
				PaddingRight(2)

	TableCellStyle = lipgloss.NewStyle().
			Foreground(ColorText).
			PaddingRight(2)
)

// Status icons
var (
	IconSuccess = "✓"
	IconError   = "✗"
	IconWarning = "!"
	IconCheck   = "»"
	IconPhase   = "·"

	EnabledIndicator = lipgloss.NewStyle().
				Foreground(ColorEnabled).
				Render("●")

	DisabledIndicator = lipgloss.NewStyle().
				Foreground(ColorDisabled).
				Render("○")
)

func FormatControl(key, desc string) string {
	return ControlKeyStyle.Render(key) + " - " + ControlDescStyle.Render(desc)
}

func FormatStatus(ok bool, status string) string {
	indicator := DisabledIndicator
	if ok {
		indicator = EnabledIndicator
	}
	return indicator + " " + status
}

// FormatCheckHeader renders a section header followed by a separator.
func FormatCheckHeader(title string) string {
	header := HeaderStyle.Render(InfoStyle.Render(IconCheck) + " " + title)
	return header + "\n" + CreateSeparator(50, "─")
}

// Check severities for FormatCheckResult.
const (
	CheckOK = iota
	CheckWarn
	CheckFail
)

// FormatCheckResult renders one line of a capability report.
func FormatCheckResult(severity int, step, message string) string {
	icon, style := SuccessStyle.Render(IconSuccess), SuccessStyle
	switch severity {
	case CheckWarn:
		icon, style = WarningStyle.Render(IconWarning), WarningStyle
	case CheckFail:
		icon, style = ErrorStyle.Render(IconError), ErrorStyle
	}

	result := "   " + icon + " " + step
	if message != "" {
		result += " - " + style.Render(message)
	}
	return result
}

// CreateSeparator creates a horizontal line separator
func CreateSeparator(width int, char string) string {
	if width <= 0 {
		width = 50
	}
	if char == "" {
		char = "─"
	}
	return lipgloss.NewStyle().
		Foreground(ColorSubtle).
		Render(strings.Repeat(char, width))
}
