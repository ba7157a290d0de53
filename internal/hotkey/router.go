package hotkey

import (
	"sync"
	"time"

	"go.uber.org/zap"
)

// DefaultIdleTimeout is the quiet period after which the idle callback runs.
const DefaultIdleTimeout = 30 * time.Second

// IdleState is the state of the router's idle timer.
type IdleState int

const (
	IdlePending IdleState = iota // Waiting for the quiet period to elapse
	IdleFired                    // The idle callback ran; waiting for activity
	IdleStopped                  // Router stopped; no further callbacks
)

// String returns a short lowercase label for the state.
func (s IdleState) String() string {
	switch s {
	case IdlePending:
		return "pending"
	case IdleFired:
		return "idle"
	case IdleStopped:
		return "stopped"
	default:
		return "unknown"
	}
}

// Router dispatches key-down events to element clicks and owns the idle timer.
type Router struct {
	lookup      ElementLookup
	sched       Scheduler
	idleTimeout time.Duration
	log         *zap.Logger

	// mu protects bindings, idle, gen and state
	mu       sync.Mutex
	bindings bindingTable
	idle     Timer
	gen      uint64
	state    IdleState
	fired    int
}

// Option configures a Router at installation.
type Option func(*Router)

// WithScheduler replaces SystemScheduler.
func WithScheduler(s Scheduler) Option {
	return func(r *Router) { r.sched = s }
}

// WithIdleTimeout overrides DefaultIdleTimeout. Non-positive values are ignored.
func WithIdleTimeout(d time.Duration) Option {
	return func(r *Router) {
		if d > 0 {
			r.idleTimeout = d
		}
	}
}

// WithLogger sets the logger used for dispatch and idle diagnostics.
func WithLogger(l *zap.Logger) Option {
	return func(r *Router) {
		if l != nil {
			r.log = l
		}
	}
}

// WithBindings adds bindings after the defaults. A binding whose trigger is
// already bound replaces the earlier one.
func WithBindings(bs ...Binding) Option {
	return func(r *Router) {
		for _, b := range bs {
			r.bindings.add(b)
		}
	}
}

// Install creates a Router, subscribes it to src and starts the idle timer.
// Key-down events drive the bindings; pointer-move, key-press and click
// events reset the idle timer.
func Install(src EventSource, lookup ElementLookup, opts ...Option) *Router {
	r := &Router{
		lookup:      lookup,
		sched:       SystemScheduler,
		idleTimeout: DefaultIdleTimeout,
		log:         zap.NewNop(),
	}
	for _, b := range DefaultBindings() {
		r.bindings.add(b)
	}
	for _, opt := range opts {
		opt(r)
	}

	src.Subscribe(KeyDown, r.handleKeyDown)
	for _, t := range []EventType{PointerMove, KeyPress, Click} {
		src.Subscribe(t, r.handleActivity)
	}

	r.ResetIdle()
	return r
}

// Bindings returns a copy of the active bindings in registration order.
func (r *Router) Bindings() []Binding {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.bindings.snapshot()
}

// IdleTimeout returns the configured quiet period.
func (r *Router) IdleTimeout() time.Duration {
	return r.idleTimeout
}

// State returns the idle timer state.
func (r *Router) State() IdleState {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state
}

// IdleCount returns how many times the idle callback has run.
func (r *Router) IdleCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.fired
}

func (r *Router) handleKeyDown(e *Event) {
	r.mu.Lock()
	b, ok := r.bindings.match(e)
	r.mu.Unlock()
	if !ok {
		return
	}

	if b.PreventDefault {
		e.PreventDefault()
	}

	el, found := r.lookup.Element(b.Target)
	if !found || el == nil {
		r.log.Debug("hotkey target not found",
			zap.String("trigger", b.Trigger()),
			zap.String("target", b.Target))
		return
	}
	r.log.Debug("hotkey", zap.String("trigger", b.Trigger()), zap.String("target", b.Target))
	el.Click()
}

func (r *Router) handleActivity(*Event) {
	r.ResetIdle()
}

// ResetIdle cancels any pending idle callback and schedules a fresh one.
func (r *Router) ResetIdle() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.state == IdleStopped {
		return
	}
	if r.idle != nil {
		r.idle.Stop()
	}
	r.gen++
	gen := r.gen
	r.state = IdlePending
	r.idle = r.sched.AfterFunc(r.idleTimeout, func() { r.expire(gen) })
}

// Stop cancels the idle timer permanently.
func (r *Router) Stop() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.idle != nil {
		r.idle.Stop()
		r.idle = nil
	}
	r.state = IdleStopped
}

// expire runs when a timer comes due. A timer superseded by a later reset
// carries a stale generation and is ignored.
func (r *Router) expire(gen uint64) {
	r.mu.Lock()
	if gen != r.gen || r.state != IdlePending {
		r.mu.Unlock()
		return
	}
	r.state = IdleFired
	r.fired++
	r.idle = nil
	r.mu.Unlock()

	r.onIdle()
}

// onIdle is the idle callback. It only logs; it never clicks save.
func (r *Router) onIdle() {
	r.log.Info("auto save disabled", zap.Duration("idle_timeout", r.idleTimeout))
}
