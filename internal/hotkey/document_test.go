package hotkey

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDocument_DispatchOrderAndPrevent(t *testing.T) {
	doc := NewDocument()
	var order []string
	doc.Subscribe(KeyDown, func(*Event) { order = append(order, "first") })
	doc.Subscribe(KeyDown, func(e *Event) {
		order = append(order, "second")
		e.PreventDefault()
	})
	doc.Subscribe(Click, func(*Event) { order = append(order, "click") })

	proceed := doc.Dispatch(&Event{Type: KeyDown, Key: "x"})
	assert.False(t, proceed)
	assert.Equal(t, []string{"first", "second"}, order)
}

func TestDocument_ElementClickBubbles(t *testing.T) {
	doc := NewDocument()
	var seen []string
	doc.Subscribe(Click, func(e *Event) { seen = append(seen, "doc:"+e.Target) })
	doc.Register("next", func() { seen = append(seen, "handler") })

	el, ok := doc.Element("next")
	require.True(t, ok)
	el.Click()
	assert.Equal(t, []string{"handler", "doc:next"}, seen)
}

func TestDocument_DisabledElement(t *testing.T) {
	doc := NewDocument()
	var clicks, bubbled int
	doc.Subscribe(Click, func(*Event) { bubbled++ })
	el := doc.Register("prev", func() { clicks++ })

	el.SetEnabled(false)
	assert.False(t, el.Enabled())
	el.Click()
	assert.Zero(t, clicks)
	assert.Zero(t, bubbled)

	el.SetEnabled(true)
	el.Click()
	assert.Equal(t, 1, clicks)
	assert.Equal(t, 1, bubbled)
}

func TestDocument_LookupMissing(t *testing.T) {
	doc := NewDocument()
	_, ok := doc.Element("nope")
	assert.False(t, ok)

	doc.Register("gone", nil)
	doc.Remove("gone")
	_, ok = doc.Lookup("gone")
	assert.False(t, ok)
}

func TestDocument_HandlerMaySubscribe(t *testing.T) {
	doc := NewDocument()
	calls := 0
	doc.Subscribe(KeyPress, func(*Event) {
		calls++
		doc.Subscribe(KeyPress, func(*Event) { calls++ })
	})
	doc.Dispatch(&Event{Type: KeyPress})
	assert.Equal(t, 1, calls, "handlers added during dispatch run from the next event")
}

func TestModifiers(t *testing.T) {
	m := ModCtrl | ModShift
	assert.True(t, m.Has(ModCtrl))
	assert.True(t, m.Has(ModCtrl|ModShift))
	assert.False(t, m.Has(ModAlt))
	assert.Equal(t, "ctrl+shift+", m.String())
	assert.Equal(t, 2, m.count())
}

func TestBinding_String(t *testing.T) {
	b := Binding{Key: "s", Mods: ModCtrl, Target: SaveButton}
	assert.Equal(t, "ctrl+s", b.Trigger())
	assert.Equal(t, "ctrl+s → #save-button", b.String())
}

func TestManualScheduler(t *testing.T) {
	s := NewManualScheduler()
	var fired []string
	s.AfterFunc(20, func() { fired = append(fired, "b") })
	s.AfterFunc(10, func() { fired = append(fired, "a") })
	stopped := s.AfterFunc(15, func() { fired = append(fired, "x") })
	assert.True(t, stopped.Stop())
	assert.False(t, stopped.Stop())

	s.Advance(5)
	assert.Empty(t, fired)
	assert.Equal(t, 2, s.Pending())

	s.Advance(20)
	assert.Equal(t, []string{"a", "b"}, fired)
	assert.Zero(t, s.Pending())
	assert.EqualValues(t, 25, s.Elapsed())
}

func TestManualScheduler_ChainedWithinWindow(t *testing.T) {
	s := NewManualScheduler()
	count := 0
	var tick func()
	tick = func() {
		count++
		if count < 3 {
			s.AfterFunc(10, tick)
		}
	}
	s.AfterFunc(10, tick)
	s.Advance(30)
	assert.Equal(t, 3, count)
}
