// Package hotkey routes keyboard shortcuts to UI buttons and keeps the
// inactivity timer that runs alongside an annotation session.
//
// The router never touches a terminal or a screen directly. It is installed
// into an EventSource (something that delivers key, click and pointer events)
// and resolves button ids through an ElementLookup. Document is the in-process
// implementation of both used by the TUI and by tests.
package hotkey

import "strings"

// EventType identifies the class of an input event.
type EventType int

const (
	KeyDown     EventType = iota // A key went down
	KeyPress                     // A character-producing key was pressed
	Click                        // A click landed on the document or an element
	PointerMove                  // The pointer moved
)

// String returns the DOM-style name of the event type.
func (t EventType) String() string {
	switch t {
	case KeyDown:
		return "keydown"
	case KeyPress:
		return "keypress"
	case Click:
		return "click"
	case PointerMove:
		return "pointermove"
	default:
		return "unknown"
	}
}

// Modifiers is a bit set of modifier keys held during an event.
type Modifiers uint8

const (
	ModCtrl Modifiers = 1 << iota
	ModAlt
	ModShift
	ModMeta
)

// Has reports whether every modifier in want is set in m.
func (m Modifiers) Has(want Modifiers) bool {
	return m&want == want
}

// count returns the number of modifiers set.
func (m Modifiers) count() int {
	n := 0
	for b := m; b != 0; b &= b - 1 {
		n++
	}
	return n
}

// String renders the modifiers as "ctrl+alt+" style prefixes.
func (m Modifiers) String() string {
	var b strings.Builder
	if m.Has(ModCtrl) {
		b.WriteString("ctrl+")
	}
	if m.Has(ModAlt) {
		b.WriteString("alt+")
	}
	if m.Has(ModShift) {
		b.WriteString("shift+")
	}
	if m.Has(ModMeta) {
		b.WriteString("meta+")
	}
	return b.String()
}

// Event is a single input event. Key uses DOM key names ("ArrowLeft", "s",
// "Escape"). Target is the id of the element a click landed on, empty for
// events aimed at the document itself.
type Event struct {
	Type   EventType
	Key    string
	Mods   Modifiers
	Target string

	defaultPrevented bool
}

// PreventDefault marks the event so the environment skips its own handling.
func (e *Event) PreventDefault() {
	e.defaultPrevented = true
}

// DefaultPrevented reports whether a handler called PreventDefault.
func (e *Event) DefaultPrevented() bool {
	return e.defaultPrevented
}

// Handler receives dispatched events. Handlers must not block.
type Handler func(*Event)

// EventSource delivers events of a given type to subscribed handlers.
type EventSource interface {
	Subscribe(t EventType, h Handler)
}

// Clicker is anything whose click handler can be invoked programmatically.
type Clicker interface {
	Click()
}

// ElementLookup resolves an element id to a clickable element.
type ElementLookup interface {
	Element(id string) (Clicker, bool)
}
