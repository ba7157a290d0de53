// Package tui provides a bubbletea + lipgloss terminal UI for annotating a
// dataset one sample at a time.
package tui

import "github.com/charmbracelet/lipgloss"

// defaultAccentColor is the default accent color (indigo).
const defaultAccentColor = "#7D56F4"

var (
	colorWhite  = lipgloss.Color("#FAFAFA")
	colorGray   = lipgloss.Color("#888888")
	colorDark   = lipgloss.Color("#3C3C3C")
	colorGreen  = lipgloss.Color("#6BCB77")
	colorYellow = lipgloss.Color("#FFD93D")
	colorRed    = lipgloss.Color("#FF6B6B")
)

// Styles used across the TUI. Accent-dependent styles live on Theme.
var (
	footerStyle = lipgloss.NewStyle().
			Foreground(colorGray)

	labelStyle = lipgloss.NewStyle().
			Foreground(colorGray).
			Width(12)

	valueStyle = lipgloss.NewStyle().
			Foreground(colorWhite)

	buttonStyle = lipgloss.NewStyle().
			Foreground(colorWhite).
			Background(colorDark).
			Padding(0, 1)

	disabledButtonStyle = lipgloss.NewStyle().
				Foreground(colorGray).
				Padding(0, 1)

	infoStyle = lipgloss.NewStyle().
			Foreground(colorGreen)

	warnStyle = lipgloss.NewStyle().
			Foreground(colorYellow)

	errorStyle = lipgloss.NewStyle().
			Foreground(colorRed).
			Bold(true)
)

// statusLevel selects how a status message is rendered.
type statusLevel int

const (
	levelInfo statusLevel = iota
	levelWarn
	levelError
)

// statusIcon returns the prefix shown before a status message.
func statusIcon(l statusLevel) string {
	switch l {
	case levelWarn:
		return "⚠ "
	case levelError:
		return "✗ "
	default:
		return "ℹ "
	}
}

// statusStyle returns the lipgloss style for a status level.
func statusStyle(l statusLevel) lipgloss.Style {
	switch l {
	case levelWarn:
		return warnStyle
	case levelError:
		return errorStyle
	default:
		return infoStyle
	}
}
