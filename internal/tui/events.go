package tui

import (
	"strings"
	"unicode"
	"unicode/utf8"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/LISSConsulting/LISSTech.Whisker/internal/hotkey"
)

// keyNames maps bubbletea key names to the key identifiers bindings use.
var keyNames = map[string]string{
	"left":      "ArrowLeft",
	"right":     "ArrowRight",
	"up":        "ArrowUp",
	"down":      "ArrowDown",
	"esc":       "Escape",
	"enter":     "Enter",
	"tab":       "Tab",
	"backspace": "Backspace",
	"delete":    "Delete",
	"home":      "Home",
	"end":       "End",
	"pgup":      "PageUp",
	"pgdown":    "PageDown",
	"space":     " ",
}

var modPrefixes = []struct {
	prefix string
	mod    hotkey.Modifiers
}{
	{"ctrl+", hotkey.ModCtrl},
	{"alt+", hotkey.ModAlt},
	{"shift+", hotkey.ModShift},
}

// translateKey converts a bubbletea key message into a key identifier and
// modifier set. Upper-case letters carry ModShift.
func translateKey(msg tea.KeyMsg) (string, hotkey.Modifiers) {
	name := msg.String()
	var mods hotkey.Modifiers
	for stripped := true; stripped; {
		stripped = false
		for _, p := range modPrefixes {
			if len(name) > len(p.prefix) && strings.HasPrefix(name, p.prefix) {
				name = name[len(p.prefix):]
				mods |= p.mod
				stripped = true
			}
		}
	}
	if k, ok := keyNames[name]; ok {
		return k, mods
	}
	if r, size := utf8.DecodeRuneInString(name); size == len(name) && unicode.IsUpper(r) {
		mods |= hotkey.ModShift
	}
	return name, mods
}

// producesCharacter reports whether a key-down would be followed by a
// key-press: single characters and Enter, without ctrl/alt/meta.
func producesCharacter(key string, mods hotkey.Modifiers) bool {
	if mods.Has(hotkey.ModCtrl) || mods.Has(hotkey.ModAlt) || mods.Has(hotkey.ModMeta) {
		return false
	}
	return key == "Enter" || utf8.RuneCountInString(key) == 1
}

// dispatchKey feeds a key message into the document: a key-down, then a
// key-press when the key produces a character and the key-down was not
// default-prevented.
func (c *controls) dispatchKey(msg tea.KeyMsg) {
	name, mods := translateKey(msg)
	down := &hotkey.Event{Type: hotkey.KeyDown, Key: name, Mods: mods}
	if !c.doc.Dispatch(down) {
		return
	}
	if producesCharacter(name, mods) {
		c.doc.Dispatch(&hotkey.Event{Type: hotkey.KeyPress, Key: name, Mods: mods})
	}
}

func mouseMods(msg tea.MouseMsg) hotkey.Modifiers {
	var mods hotkey.Modifiers
	if msg.Ctrl {
		mods |= hotkey.ModCtrl
	}
	if msg.Alt {
		mods |= hotkey.ModAlt
	}
	if msg.Shift {
		mods |= hotkey.ModShift
	}
	return mods
}

// dispatchMouse feeds a mouse message into the document. Motion becomes a
// pointer-move. A left-button release clicks the element under the pointer,
// or the document itself when there is none.
func (c *controls) dispatchMouse(msg tea.MouseMsg, elementAt func(x, y int) *hotkey.Element) {
	switch {
	case msg.Action == tea.MouseActionMotion:
		c.doc.Dispatch(&hotkey.Event{Type: hotkey.PointerMove, Mods: mouseMods(msg)})
	case msg.Action == tea.MouseActionRelease && msg.Button == tea.MouseButtonLeft:
		if el := elementAt(msg.X, msg.Y); el != nil {
			el.Click()
			return
		}
		c.doc.Dispatch(&hotkey.Event{Type: hotkey.Click, Mods: mouseMods(msg)})
	}
}
