package tui

// Rect represents a rectangular region of the terminal.
type Rect struct {
	X, Y, Width, Height int
}

// Minimum terminal size the annotator renders in.
const (
	minWidth  = 40
	minHeight = 10
)

// Layout holds the computed row geometry for a given terminal size.
type Layout struct {
	Header, Body Rect
	Labels, Nav  Rect
	Footer       Rect
	TooSmall     bool
}

// Calculate computes the layout for a terminal of the given dimensions.
//
// Rows, top to bottom: header (1), body (rest), label buttons (1),
// navigation buttons (1), footer (1). Button rows sit at fixed offsets from
// the bottom so mouse clicks can be hit-tested by row.
func Calculate(width, height int) Layout {
	if width < minWidth || height < minHeight {
		return Layout{TooSmall: true}
	}
	bodyH := height - 4
	return Layout{
		Header: Rect{X: 0, Y: 0, Width: width, Height: 1},
		Body:   Rect{X: 0, Y: 1, Width: width, Height: bodyH},
		Labels: Rect{X: 0, Y: height - 3, Width: width, Height: 1},
		Nav:    Rect{X: 0, Y: height - 2, Width: width, Height: 1},
		Footer: Rect{X: 0, Y: height - 1, Width: width, Height: 1},
	}
}
