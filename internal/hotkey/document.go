package hotkey

import "sync"

// Document is an in-process event target with an element registry. It
// implements both EventSource and ElementLookup.
type Document struct {
	mu       sync.RWMutex
	handlers map[EventType][]Handler
	elements map[string]*Element
}

// NewDocument returns an empty Document.
func NewDocument() *Document {
	return &Document{
		handlers: make(map[EventType][]Handler),
		elements: make(map[string]*Element),
	}
}

// Subscribe adds h to the handlers for t. Handlers run in subscription order.
func (d *Document) Subscribe(t EventType, h Handler) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.handlers[t] = append(d.handlers[t], h)
}

// Dispatch delivers e to every handler subscribed to its type and reports
// whether the default action should still run.
func (d *Document) Dispatch(e *Event) bool {
	d.mu.RLock()
	hs := make([]Handler, len(d.handlers[e.Type]))
	copy(hs, d.handlers[e.Type])
	d.mu.RUnlock()

	for _, h := range hs {
		h(e)
	}
	return !e.DefaultPrevented()
}

// Register adds an enabled element with the given click handler, replacing
// any element with the same id.
func (d *Document) Register(id string, onClick func()) *Element {
	el := &Element{id: id, onClick: onClick, doc: d}
	d.mu.Lock()
	d.elements[id] = el
	d.mu.Unlock()
	return el
}

// Remove drops the element with the given id.
func (d *Document) Remove(id string) {
	d.mu.Lock()
	delete(d.elements, id)
	d.mu.Unlock()
}

// Element implements ElementLookup.
func (d *Document) Element(id string) (Clicker, bool) {
	el, ok := d.Lookup(id)
	if !ok {
		return nil, false
	}
	return el, true
}

// Lookup returns the concrete element registered under id.
func (d *Document) Lookup(id string) (*Element, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	el, ok := d.elements[id]
	return el, ok
}

// Element is a clickable button in a Document.
type Element struct {
	id       string
	onClick  func()
	disabled bool
	doc      *Document
}

// ID returns the element id.
func (e *Element) ID() string { return e.id }

// Enabled reports whether clicks on the element are honored.
func (e *Element) Enabled() bool {
	e.doc.mu.RLock()
	defer e.doc.mu.RUnlock()
	return !e.disabled
}

// SetEnabled toggles whether the element accepts clicks.
func (e *Element) SetEnabled(enabled bool) {
	e.doc.mu.Lock()
	e.disabled = !enabled
	e.doc.mu.Unlock()
}

// Click runs the element's handler and then lets the click reach the
// document's click subscribers. Clicking a disabled element does nothing.
func (e *Element) Click() {
	if !e.Enabled() {
		return
	}
	if e.onClick != nil {
		e.onClick()
	}
	e.doc.Dispatch(&Event{Type: Click, Target: e.id})
}
