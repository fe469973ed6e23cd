// Package report renders mining results for the terminal and as Markdown.
package report

import "github.com/charmbracelet/lipgloss"

var (
	// AccentColor is the main theme color.
	AccentColor = lipgloss.Color("#4ECDC4")
	// WarningColor marks data-quality notes.
	WarningColor = lipgloss.Color("#FFE66D")
	// ErrorColor marks failures.
	ErrorColor = lipgloss.Color("#FF6B6B")
	// SubtleColor is used for secondary text.
	SubtleColor = lipgloss.Color("#666666")

	TitleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(AccentColor)

	SubtleStyle = lipgloss.NewStyle().
			Foreground(SubtleColor)

	SuccessStyle = lipgloss.NewStyle().
			Foreground(AccentColor)

	WarningStyle = lipgloss.NewStyle().
			Foreground(WarningColor)

	ErrorStyle = lipgloss.NewStyle().
			Foreground(ErrorColor)

	HeaderStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("86"))

	BoxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#333")).
			Padding(0, 1)

	BarStyle = lipgloss.NewStyle().
			Foreground(AccentColor)
)

const (
	SuccessIcon = "✓"
	ErrorIcon   = "✗"
	WarningIcon = "⚠"
)

// FormatSuccess formats a success line with icon.
func FormatSuccess(msg string) string { return SuccessStyle.Render(SuccessIcon + " " + msg) }

// FormatError formats an error line with icon.
func FormatError(msg string) string { return ErrorStyle.Render(ErrorIcon + " " + msg) }

// FormatWarning formats a warning line with icon.
func FormatWarning(msg string) string { return WarningStyle.Render(WarningIcon + " " + msg) }

// FormatTitle formats a section title.
func FormatTitle(msg string) string { return TitleStyle.Render(msg) }
