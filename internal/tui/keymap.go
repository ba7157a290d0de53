package tui

import (
	"strings"

	"github.com/charmbracelet/bubbles/key"
)

// KeyMap lists the annotator's keys for the help view. Quit and Help are
// handled by the model directly; the rest are routed through the hotkey
// router and listed here for display.
type KeyMap struct {
	Prev       key.Binding
	Next       key.Binding
	Save       key.Binding
	Label      key.Binding
	Unannotate key.Binding
	Help       key.Binding
	Quit       key.Binding
}

// NewKeyMap builds the key map for the given label hotkeys.
func NewKeyMap(labelKeys []string) KeyMap {
	km := KeyMap{
		Prev: key.NewBinding(
			key.WithKeys("left"),
			key.WithHelp("←", "prev"),
		),
		Next: key.NewBinding(
			key.WithKeys("right"),
			key.WithHelp("→", "next"),
		),
		Save: key.NewBinding(
			key.WithKeys("ctrl+s"),
			key.WithHelp("ctrl+s", "save"),
		),
		Label: key.NewBinding(
			key.WithKeys(labelKeys...),
			key.WithHelp(summarizeKeys(labelKeys), "toggle label"),
		),
		Unannotate: key.NewBinding(
			key.WithKeys("esc"),
			key.WithHelp("esc", "clear label"),
		),
		Help: key.NewBinding(
			key.WithKeys("?"),
			key.WithHelp("?", "help"),
		),
		Quit: key.NewBinding(
			key.WithKeys("ctrl+c", "ctrl+q"),
			key.WithHelp("ctrl+q", "quit"),
		),
	}
	if len(labelKeys) == 0 {
		km.Label.SetEnabled(false)
	}
	return km
}

// ShortHelp implements help.KeyMap.
func (k KeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Prev, k.Next, k.Label, k.Save, k.Help, k.Quit}
}

// FullHelp implements help.KeyMap.
func (k KeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Prev, k.Next, k.Save},
		{k.Label, k.Unannotate},
		{k.Help, k.Quit},
	}
}

// summarizeKeys renders a compact description of a hotkey list, collapsing
// consecutive characters into ranges: "1-9 a-z".
func summarizeKeys(keys []string) string {
	var parts []string
	for i := 0; i < len(keys); {
		j := i
		for j+1 < len(keys) && consecutive(keys[j], keys[j+1]) {
			j++
		}
		switch {
		case j-i >= 2:
			parts = append(parts, keys[i]+"-"+keys[j])
		case j > i:
			parts = append(parts, keys[i], keys[j])
		default:
			parts = append(parts, keys[i])
		}
		i = j + 1
	}
	return strings.Join(parts, " ")
}

func consecutive(a, b string) bool {
	ra, rb := []rune(a), []rune(b)
	return len(ra) == 1 && len(rb) == 1 && rb[0] == ra[0]+1
}
