package tui

import (
	"errors"
	"fmt"
	"time"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"

	"github.com/LISSConsulting/LISSTech.Whisker/internal/annotate"
	"github.com/LISSConsulting/LISSTech.Whisker/internal/hotkey"
	"github.com/LISSConsulting/LISSTech.Whisker/internal/notify"
)

// Update handles all incoming bubbletea messages.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.layout = Calculate(msg.Width, msg.Height)
		m.help.Width = msg.Width
		return m, nil
	case tea.KeyMsg:
		return m.handleKey(msg)
	case tea.MouseMsg:
		m.ctl.dispatchMouse(msg, m.elementAt)
		return m.applyActions()
	case tickMsg:
		m.now = time.Time(msg)
		return m, tickCmd()
	case saveDoneMsg:
		return m.handleSaveDone(msg)
	}
	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.Help):
		m.showHelp = !m.showHelp
	}
	m.ctl.dispatchKey(msg)
	return m.applyActions()
}

// elementAt hit-tests the button rows.
func (m Model) elementAt(x, y int) *hotkey.Element {
	if m.layout.TooSmall {
		return nil
	}
	switch y {
	case m.layout.Labels.Y:
		_, zones := m.labelRow()
		return hit(zones, x)
	case m.layout.Nav.Y:
		_, zones := m.navRow()
		return hit(zones, x)
	}
	return nil
}

// applyActions runs the actions queued by button clicks during dispatch.
func (m Model) applyActions() (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd
	for _, a := range m.ctl.drain() {
		var cmd tea.Cmd
		m, cmd = m.apply(a)
		if cmd != nil {
			cmds = append(cmds, cmd)
		}
	}
	m.syncControls()
	if len(cmds) == 0 {
		return m, nil
	}
	return m, tea.Batch(cmds...)
}

func (m Model) apply(a action) (Model, tea.Cmd) {
	switch a.kind {
	case actPrev:
		s, err := m.ann.Prev()
		if errors.Is(err, annotate.ErrFirstSample) {
			m.status = status{levelError, "This is the first image, no previous sample."}
			return m, nil
		}
		return m.show(s, err), nil

	case actNext:
		s, err := m.ann.Next()
		if errors.Is(err, annotate.ErrExhausted) {
			m.status = status{levelWarn, "No more images in the data source, you have met the end."}
			return m, nil
		}
		m = m.show(s, err)
		if err == nil {
			m.status = status{levelInfo, fmt.Sprintf("Loaded image #%d.", s.Index)}
		}
		return m, nil

	case actLabel:
		s, err := m.ann.Toggle(a.label)
		return m.show(s, err), nil

	case actUnannotate:
		s, err := m.ann.Annotate(nil)
		return m.show(s, err), nil

	case actSave:
		if m.saving {
			return m, nil
		}
		m.saving = true
		m.status = status{levelInfo, fmt.Sprintf("Saving %s ...", plural(m.ann.AnnotatedCount(), "annotated sample"))}
		return m, saveCmd(m.ann)
	}
	return m, nil
}

// show makes s the displayed sample, or reports err.
func (m Model) show(s annotate.Sample, err error) Model {
	if err != nil {
		m.log.Error("annotate", zap.Error(err))
		m.status = status{levelError, err.Error()}
		return m
	}
	m.sample, m.hasSample = s, true
	m.status = status{}
	return m
}

// saveCmd runs the save off the update goroutine.
func saveCmd(ann *annotate.Annotator) tea.Cmd {
	return func() tea.Msg {
		n, err := ann.Save()
		return saveDoneMsg{count: n, err: err}
	}
}

func (m Model) handleSaveDone(msg saveDoneMsg) (tea.Model, tea.Cmd) {
	m.saving = false
	if msg.err != nil {
		m.log.Error("save failed", zap.Error(msg.err))
		m.status = status{levelError, "Save failed: " + msg.err.Error()}
		m.hook(notify.Event{Kind: notify.SaveFailed, Message: fmt.Sprintf("%s: save failed: %v", m.title(), msg.err)})
	} else {
		m.status = status{levelInfo, plural(msg.count, "sample") + " saved!"}
		m.hook(notify.Event{Kind: notify.Saved, Message: fmt.Sprintf("%s: saved %s (session %s)", m.title(), plural(msg.count, "annotated sample"), m.token)})
	}
	m.syncControls()
	return m, nil
}

func (m Model) hook(e notify.Event) {
	if m.notifier != nil {
		m.notifier.Hook(e)
	}
}

func (m Model) title() string {
	if m.projectName != "" {
		return m.projectName
	}
	return "whisker"
}

// plural formats a count with a singular or plural noun.
func plural(n int, word string) string {
	if n == 1 {
		return fmt.Sprintf("1 %s", word)
	}
	return fmt.Sprintf("%d %ss", n, word)
}
