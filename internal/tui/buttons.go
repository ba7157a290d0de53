package tui

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/LISSConsulting/LISSTech.Whisker/internal/hotkey"
)

// Element ids beyond the router's default navigation targets.
const (
	UnannotateButton  = "btn_unannotate_label"
	labelButtonPrefix = "btn_label_"
)

// LabelButtonID returns the element id of the button for label.
func LabelButtonID(label string) string { return labelButtonPrefix + label }

// LabelBindings binds labels[i] to the plain key keys[i], and Escape to the
// unannotate button. Labels without a key get no binding.
func LabelBindings(labels, keys []string) []hotkey.Binding {
	bs := make([]hotkey.Binding, 0, len(labels)+1)
	for i, label := range labels {
		if i >= len(keys) {
			break
		}
		bs = append(bs, hotkey.Binding{Key: keys[i], Target: LabelButtonID(label)})
	}
	return append(bs, hotkey.Binding{Key: "Escape", Target: UnannotateButton})
}

type actionKind int

const (
	actPrev actionKind = iota
	actNext
	actSave
	actLabel
	actUnannotate
)

// action is queued by an element's click handler and applied by Update.
type action struct {
	kind  actionKind
	label string
}

// labelButton pairs a label's element with its caption.
type labelButton struct {
	label   string
	hotkey  string
	element *hotkey.Element
}

// controls owns the document, its button elements and the router installed
// on it. Model values share one *controls; it is only touched from the
// bubbletea update goroutine, apart from the router's own idle timer.
type controls struct {
	doc    *hotkey.Document
	router *hotkey.Router

	prev, next, save, unannotate *hotkey.Element
	labels                       []labelButton

	queue []action
}

func newControls(labels, keys []string, opts ...hotkey.Option) *controls {
	c := &controls{doc: hotkey.NewDocument()}

	c.prev = c.doc.Register(hotkey.LeftButton, c.enqueue(action{kind: actPrev}))
	c.next = c.doc.Register(hotkey.RightButton, c.enqueue(action{kind: actNext}))
	c.save = c.doc.Register(hotkey.SaveButton, c.enqueue(action{kind: actSave}))
	c.unannotate = c.doc.Register(UnannotateButton, c.enqueue(action{kind: actUnannotate}))
	for i, label := range labels {
		b := labelButton{
			label:   label,
			element: c.doc.Register(LabelButtonID(label), c.enqueue(action{kind: actLabel, label: label})),
		}
		if i < len(keys) {
			b.hotkey = keys[i]
		}
		c.labels = append(c.labels, b)
	}

	opts = append(opts, hotkey.WithBindings(LabelBindings(labels, keys)...))
	c.router = hotkey.Install(c.doc, c.doc, opts...)
	return c
}

func (c *controls) enqueue(a action) func() {
	return func() { c.queue = append(c.queue, a) }
}

// drain returns and clears the queued actions.
func (c *controls) drain() []action {
	q := c.queue
	c.queue = nil
	return q
}

// zone is the horizontal extent of a rendered button.
type zone struct {
	x0, x1  int // [x0, x1)
	element *hotkey.Element
}

// button is one renderable entry of a button row.
type button struct {
	caption string
	element *hotkey.Element
	active  bool
}

// renderButtons lays out buttons left to right, separated by one space,
// dropping any that would not fit in width. It returns the rendered row and
// the zone of every button drawn.
func renderButtons(buttons []button, width int, th Theme) (string, []zone) {
	var (
		parts []string
		zones []zone
		x     int
	)
	for _, b := range buttons {
		style := buttonStyle
		switch {
		case !b.element.Enabled():
			style = disabledButtonStyle
		case b.active:
			style = th.ActiveButtonStyle()
		}
		rendered := style.Render(b.caption)
		w := lipgloss.Width(rendered)
		start := x
		if len(parts) > 0 {
			start++
		}
		if start+w > width {
			break
		}
		if len(parts) > 0 {
			parts = append(parts, " ")
		}
		parts = append(parts, rendered)
		zones = append(zones, zone{x0: start, x1: start + w, element: b.element})
		x = start + w
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, parts...), zones
}

// hit returns the element whose zone contains x.
func hit(zones []zone, x int) *hotkey.Element {
	for _, z := range zones {
		if x >= z.x0 && x < z.x1 {
			return z.element
		}
	}
	return nil
}
