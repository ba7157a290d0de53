package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/LISSConsulting/LISSTech.Whisker/internal/hotkey"
)

// View renders the annotator: header, sample details, label buttons,
// navigation buttons, footer.
func (m Model) View() string {
	if m.layout.TooSmall {
		msg := fmt.Sprintf("Terminal too small (%dx%d).\nPlease resize to at least %dx%d.", m.width, m.height, minWidth, minHeight)
		return lipgloss.NewStyle().
			Width(m.width).
			Align(lipgloss.Center).
			Render(msg)
	}

	labels, _ := m.labelRow()
	nav, _ := m.navRow()
	row := lipgloss.NewStyle().Width(m.width).MaxWidth(m.width).MaxHeight(1)

	return lipgloss.JoinVertical(lipgloss.Left,
		m.renderHeader(),
		lipgloss.NewStyle().
			Width(m.layout.Body.Width).
			Height(m.layout.Body.Height).
			MaxHeight(m.layout.Body.Height).
			Render(m.renderBody()),
		row.Render(labels),
		row.Render(nav),
		row.Render(m.renderFooter()),
	)
}

func (m Model) renderHeader() string {
	parts := []string{"🐱 Whisker"}
	if m.projectName != "" {
		parts = append(parts, m.projectName)
	}
	if m.token != "" {
		parts = append(parts, "session: "+m.token)
	}
	parts = append(parts, m.now.Format("15:04:05"))
	return m.theme.HeaderStyle().
		Width(m.width).
		MaxWidth(m.width).
		MaxHeight(1).
		Render(strings.Join(parts, "  │  "))
}

func (m Model) renderBody() string {
	if m.showHelp {
		return m.help.FullHelpView(m.keys.FullHelp())
	}

	var lines []string
	field := func(name, value string) {
		lines = append(lines, labelStyle.Render(name)+valueStyle.Render(value))
	}

	if m.hasSample {
		total := "?"
		if n, ok := m.ann.MaxLength(); ok {
			total = fmt.Sprintf("%d", n)
		}
		field("Sample", fmt.Sprintf("#%d of %s", m.sample.Index, total))
		field("ID", m.sample.ID)
		field("Image", m.sample.ImagePath)
		annotation := "—"
		if m.sample.Annotation != nil {
			annotation = m.theme.AccentStyle().Render(*m.sample.Annotation)
		}
		field("Annotation", annotation)
	} else {
		lines = append(lines, valueStyle.Render("Press → or click Next to load the first image."))
	}

	lines = append(lines, "")
	field("Annotated", plural(m.ann.AnnotatedCount(), "sample"))
	if saved := m.ann.LastSaved(); !saved.IsZero() {
		field("Last saved", saved.Format("2006-01-02 15:04:05"))
	}

	if m.status.text != "" {
		lines = append(lines, "", statusStyle(m.status.level).Render(statusIcon(m.status.level)+m.status.text))
	}
	return strings.Join(lines, "\n")
}

// labelRow renders the label buttons and their click zones.
func (m Model) labelRow() (string, []zone) {
	buttons := make([]button, 0, len(m.ctl.labels))
	for _, b := range m.ctl.labels {
		caption := b.label
		if b.hotkey != "" {
			caption = b.hotkey + " " + b.label
		}
		active := m.hasSample && m.sample.Annotation != nil && *m.sample.Annotation == b.label
		buttons = append(buttons, button{caption: caption, element: b.element, active: active})
	}
	return renderButtons(buttons, m.width, m.theme)
}

// navRow renders the navigation buttons and their click zones.
func (m Model) navRow() (string, []zone) {
	saveCaption := "💾 Save (Ctrl+S)"
	if m.saving {
		saveCaption = "💾 Saving"
	}
	return renderButtons([]button{
		{caption: "◀ Prev", element: m.ctl.prev},
		{caption: "Next ▶", element: m.ctl.next},
		{caption: saveCaption, element: m.ctl.save},
		{caption: "✕ Clear (Esc)", element: m.ctl.unannotate},
	}, m.width, m.theme)
}

func (m Model) renderFooter() string {
	right := idleIndicator(m.ctl.router)

	// The help gives way to the idle indicator; Width 0 would mean unlimited.
	h := m.help
	h.Width = m.width - lipgloss.Width(right) - 2
	if h.Width < 1 {
		h.Width = 1
	}
	left := h.ShortHelpView(m.keys.ShortHelp())

	gap := m.width - lipgloss.Width(left) - lipgloss.Width(right)
	if gap < 2 {
		gap = 2
	}
	return footerStyle.Render(left + strings.Repeat(" ", gap) + right)
}

// idleIndicator describes the router's idle timer.
func idleIndicator(r *hotkey.Router) string {
	switch r.State() {
	case hotkey.IdleFired:
		return "○ idle (auto save disabled)"
	case hotkey.IdleStopped:
		return "○ stopped"
	default:
		return fmt.Sprintf("● active (idle after %s)", r.IdleTimeout())
	}
}
