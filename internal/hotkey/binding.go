package hotkey

import "fmt"

// Element ids the default bindings target.
const (
	LeftButton  = "left-button"
	RightButton = "right-button"
	SaveButton  = "save-button"
)

// Binding associates a key trigger with the element it clicks.
//
// A binding matches a key-down event when the keys are equal and every
// modifier in Mods is held. Extra modifiers on the event do not prevent a
// match; when several bindings match, the one requiring the most modifiers
// wins and ties go to the earliest registered.
type Binding struct {
	Key            string
	Mods           Modifiers
	Target         string
	PreventDefault bool
}

// Trigger returns the human-readable trigger, e.g. "ctrl+s".
func (b Binding) Trigger() string {
	return b.Mods.String() + b.Key
}

// String implements fmt.Stringer.
func (b Binding) String() string {
	return fmt.Sprintf("%s → #%s", b.Trigger(), b.Target)
}

func (b Binding) matches(e *Event) bool {
	return e.Key == b.Key && e.Mods.Has(b.Mods)
}

// DefaultBindings returns the navigation and save bindings every router
// starts with. Ctrl+S suppresses the environment's own save handling.
func DefaultBindings() []Binding {
	return []Binding{
		{Key: "ArrowLeft", Target: LeftButton},
		{Key: "ArrowRight", Target: RightButton},
		{Key: "s", Mods: ModCtrl, Target: SaveButton, PreventDefault: true},
	}
}

// bindingTable holds at most one binding per trigger.
type bindingTable struct {
	list []Binding
}

// add inserts b, replacing any binding with the same trigger in place.
func (t *bindingTable) add(b Binding) {
	for i, existing := range t.list {
		if existing.Key == b.Key && existing.Mods == b.Mods {
			t.list[i] = b
			return
		}
	}
	t.list = append(t.list, b)
}

// match returns the most specific binding for e.
func (t *bindingTable) match(e *Event) (Binding, bool) {
	best := -1
	for i, b := range t.list {
		if !b.matches(e) {
			continue
		}
		if best < 0 || b.Mods.count() > t.list[best].Mods.count() {
			best = i
		}
	}
	if best < 0 {
		return Binding{}, false
	}
	return t.list[best], true
}

func (t *bindingTable) snapshot() []Binding {
	out := make([]Binding, len(t.list))
	copy(out, t.list)
	return out
}
