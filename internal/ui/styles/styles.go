// Package styles provides shared lipgloss styles for cfmt's terminal output.
//
// Styles always emit ANSI sequences; writers wrap their output with
// colorprofile so that pipes and NO_COLOR terminals get plain text.
package styles

import "charm.land/lipgloss/v2"

// Colors used throughout the UI
var (
	// Success is used for checkmarks and positive outcomes (green)
	Success = lipgloss.Color("82")

	// Error is used for failures (red)
	Error = lipgloss.Color("196")

	// Warning is used for problems that do not break formatting (orange)
	Warning = lipgloss.Color("214")

	// Muted is used for secondary text (gray)
	Muted = lipgloss.Color("240")
)

// Common styles
var (
	Bold         = lipgloss.NewStyle().Bold(true)
	SuccessStyle = lipgloss.NewStyle().Foreground(Success)
	ErrorStyle   = lipgloss.NewStyle().Foreground(Error)
	WarningStyle = lipgloss.NewStyle().Foreground(Warning)
	MutedStyle   = lipgloss.NewStyle().Foreground(Muted)
)

// Status symbols
const (
	SymbolOK     = "✓"
	SymbolWarn   = "⚠"
	SymbolFail   = "✗"
	SymbolBullet = "•"
)

// OK prefixes text with a green checkmark.
func OK(text string) string {
	return SuccessStyle.Render(SymbolOK) + " " + text
}

// Warn prefixes text with an orange warning sign.
func Warn(text string) string {
	return WarningStyle.Render(SymbolWarn) + " " + text
}

// Fail prefixes text with a red cross.
func Fail(text string) string {
	return ErrorStyle.Render(SymbolFail) + " " + text
}
