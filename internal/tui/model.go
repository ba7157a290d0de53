package tui

import (
	"time"

	"github.com/charmbracelet/bubbles/help"
	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"

	"github.com/LISSConsulting/LISSTech.Whisker/internal/annotate"
	"github.com/LISSConsulting/LISSTech.Whisker/internal/hotkey"
	"github.com/LISSConsulting/LISSTech.Whisker/internal/notify"
)

// Notifier receives save outcomes. *notify.Notifier satisfies it.
type Notifier interface {
	Hook(notify.Event)
}

// Options configures the annotator TUI.
type Options struct {
	Annotator    *annotate.Annotator
	Labels       []string
	LabelKeys    []string // LabelKeys[i] toggles Labels[i]
	ProjectName  string
	SessionToken string
	AccentColor  string
	IdleTimeout  time.Duration    // zero = hotkey.DefaultIdleTimeout
	Scheduler    hotkey.Scheduler // nil = real timers
	Logger       *zap.Logger
	Notifier     Notifier // may be nil
}

// status is the one-line message under the sample details.
type status struct {
	level statusLevel
	text  string
}

// Model is the bubbletea model for the annotator.
type Model struct {
	ann *annotate.Annotator
	ctl *controls

	keys     KeyMap
	help     help.Model
	showHelp bool

	layout Layout
	theme  Theme
	width  int
	height int

	projectName string
	token       string
	log         *zap.Logger
	notifier    Notifier

	sample    annotate.Sample
	hasSample bool
	saving    bool
	status    status
	now       time.Time
}

// New creates the annotator Model and installs the input router on its
// button document. The router's idle timer starts immediately.
func New(opts Options) Model {
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}

	routerOpts := []hotkey.Option{hotkey.WithLogger(log)}
	if opts.Scheduler != nil {
		routerOpts = append(routerOpts, hotkey.WithScheduler(opts.Scheduler))
	}
	if opts.IdleTimeout > 0 {
		routerOpts = append(routerOpts, hotkey.WithIdleTimeout(opts.IdleTimeout))
	}

	m := Model{
		ann:         opts.Annotator,
		ctl:         newControls(opts.Labels, opts.LabelKeys, routerOpts...),
		keys:        NewKeyMap(opts.LabelKeys),
		help:        help.New(),
		layout:      Calculate(80, 24),
		theme:       NewTheme(opts.AccentColor),
		width:       80,
		height:      24,
		projectName: opts.ProjectName,
		token:       opts.SessionToken,
		log:         log,
		notifier:    opts.Notifier,
		now:         time.Now(),
	}
	m.help.Width = m.width

	// A restored position shows its sample right away.
	if s, err := m.ann.Current(); err == nil {
		m.sample, m.hasSample = s, true
	}
	m.syncControls()
	return m
}

// Init returns the initial command: the clock ticker.
func (m Model) Init() tea.Cmd {
	return tickCmd()
}

// Router returns the input router installed on the model's buttons.
func (m Model) Router() *hotkey.Router { return m.ctl.router }

// Stop cancels the router's idle timer. Call once the program has exited.
func (m Model) Stop() { m.ctl.router.Stop() }

// tickCmd schedules the next one-second clock tick.
func tickCmd() tea.Cmd {
	return tea.Tick(time.Second, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

// syncControls enables each button according to the annotator's position.
func (m Model) syncControls() {
	m.ctl.prev.SetEnabled(m.ann.CanPrev())
	m.ctl.next.SetEnabled(m.ann.CanNext())
	m.ctl.save.SetEnabled(m.ann.CanSave() && !m.saving)
	m.ctl.unannotate.SetEnabled(m.hasSample)
	for _, b := range m.ctl.labels {
		b.element.SetEnabled(m.hasSample)
	}
}
