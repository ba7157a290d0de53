package tui

import "github.com/charmbracelet/lipgloss"

// Theme holds accent-color-derived styles.
type Theme struct {
	headerStyle lipgloss.Style // header bar background
	activeStyle lipgloss.Style // the label button matching the annotation
	accentStyle lipgloss.Style // accented foreground text
}

// NewTheme creates a Theme from a hex accent color string (e.g. "#7D56F4").
// If accentColor is empty, the default accent color is used.
func NewTheme(accentColor string) Theme {
	color := defaultAccentColor
	if accentColor != "" {
		color = accentColor
	}
	c := lipgloss.Color(color)
	return Theme{
		headerStyle: lipgloss.NewStyle().
			Background(c).
			Foreground(lipgloss.Color("#FFFFFF")).
			Bold(true),
		activeStyle: lipgloss.NewStyle().
			Background(c).
			Foreground(lipgloss.Color("#FFFFFF")).
			Bold(true).
			Padding(0, 1),
		accentStyle: lipgloss.NewStyle().
			Foreground(c).
			Bold(true),
	}
}

// HeaderStyle returns the style for the header bar.
func (t Theme) HeaderStyle() lipgloss.Style { return t.headerStyle }

// ActiveButtonStyle returns the style for the selected label button.
func (t Theme) ActiveButtonStyle() lipgloss.Style { return t.activeStyle }

// AccentStyle returns the accent foreground style.
func (t Theme) AccentStyle() lipgloss.Style { return t.accentStyle }
