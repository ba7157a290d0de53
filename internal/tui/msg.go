package tui

import "time"

// tickMsg is sent every second for the clock and idle indicator.
type tickMsg time.Time

// saveDoneMsg carries the outcome of a background save.
type saveDoneMsg struct {
	count int
	err   error
}
