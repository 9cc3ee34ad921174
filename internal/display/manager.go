package display

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/jmylchreest/stackalert/internal/config"
	"github.com/jmylchreest/stackalert/internal/model"
)

// How long Stop waits for the loop to detach the remaining alerts.
const stopTimeout = time.Second

// CloseCallback is called when an alert reaches StateRemoved.
type CloseCallback func(alert *model.Alert, reason model.CloseReason)

// alertState tracks one alert in the stack.
// Fields other than alert are only touched on the loop goroutine.
type alertState struct {
	alert   *model.Alert
	view    View
	timer   *Timer
	mounted bool
	reason  model.CloseReason
}

// Manager keeps the alert stack and drives a Surface.
//
// Show, Dismiss, CloseAll and UpdateConfig may be called from any goroutine.
// They post work to the loop, which owns the deque and issues every surface command.
type Manager struct {
	loop    *Loop
	surface Surface
	views   ViewFactory
	logger  *slog.Logger

	// Read by Show before it posts
	defaultDuration atomic.Int64
	stopped         atomic.Bool

	// Owned by the loop goroutine
	config  *config.Config
	alerts  Deque[*alertState]
	leaving map[*alertState]struct{}

	mu      sync.Mutex
	onClose CloseCallback
}

// NewManager creates a manager that runs on loop and renders onto surface.
func NewManager(loop *Loop, surface Surface, views ViewFactory, cfg *config.Config, logger *slog.Logger) *Manager {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	if views == nil {
		views = TextViewFactory{}
	}

	m := &Manager{
		loop:    loop,
		surface: surface,
		views:   views,
		logger:  logger,
		config:  cfg,
		leaving: make(map[*alertState]struct{}),
	}
	m.defaultDuration.Store(int64(cfg.Stack.DefaultDuration.Duration()))
	return m
}

// SetCloseCallback sets the callback for alert removal.
func (m *Manager) SetCloseCallback(cb CloseCallback) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.onClose = cb
}

// Show displays a new alert entering from anchor and returns its handle.
// A non-positive duration selects the configured default.
// The alert is dismissed automatically once duration has elapsed.
func (m *Manager) Show(message string, duration time.Duration, anchor model.Anchor) *model.Alert {
	if duration <= 0 {
		duration = time.Duration(m.defaultDuration.Load())
	}
	alert := model.NewAlert(message, duration, anchor)
	st := &alertState{alert: alert}

	if m.stopped.Load() || !m.loop.Post(func() { m.show(st) }) {
		m.logger.Debug("alert dropped, manager stopped", "alert_id", alert.ID)
		m.discard(st, model.CloseReasonClosed)
	}
	return alert
}

// show runs on the loop.
func (m *Manager) show(st *alertState) {
	if m.stopped.Load() {
		m.discard(st, model.CloseReasonClosed)
		return
	}

	anchor := st.alert.Anchor

	// Make room. Top arrivals push out the back, bottom arrivals the front,
	// whatever the anchor of the evicted alert.
	for m.alerts.Len() >= m.capacity() {
		var victim *alertState
		var ok bool
		if anchor == model.AnchorTop {
			victim, ok = m.alerts.Back()
		} else {
			victim, ok = m.alerts.Front()
		}
		if !ok {
			break
		}
		m.dismiss(victim, false, anchor, model.CloseReasonEvicted)
	}

	entry := m.layout().EntryFrame(anchor)

	if anchor == model.AnchorTop {
		m.alerts.PushFront(st)
	} else {
		m.alerts.PushBack(st)
	}

	m.loop.Post(func() { m.mount(st, entry) })

	st.timer = m.loop.AfterFunc(st.alert.Duration, func() {
		m.dismiss(st, true, st.alert.Anchor, model.CloseReasonExpired)
	})

	m.logger.Debug("alert queued",
		"alert_id", st.alert.ID,
		"anchor", anchor,
		"message", st.alert.MessageTruncated(40),
		"duration", st.alert.Duration,
		"active_alerts", m.alerts.Len(),
	)
}

// mount attaches the alert off-screen and slides the stack into place.
func (m *Manager) mount(st *alertState, entry Frame) {
	// Evicted or dismissed before it reached the surface
	if st.alert.State() != model.StatePending {
		return
	}

	st.view = m.views.NewView(st.alert.Message)
	m.surface.Mount(st.view, entry, 0)
	st.mounted = true
	m.transition(st, model.StateMounted)

	m.repositionAlerts(st.alert.Anchor)
}

// Dismiss removes alert from the stack and animates it out towards its own anchor.
// Dismissing an alert that is absent, or that is neither first nor last, does nothing.
func (m *Manager) Dismiss(alert *model.Alert) {
	if alert == nil {
		return
	}
	m.loop.Post(func() {
		if st := m.find(alert); st != nil {
			m.dismiss(st, true, alert.Anchor, model.CloseReasonDismissed)
		}
	})
}

// dismiss runs on the loop. Removal only happens at either end of the deque.
func (m *Manager) dismiss(st *alertState, reposition bool, anchor model.Anchor, reason model.CloseReason) {
	if st == nil {
		return
	}

	front, _ := m.alerts.Front()
	back, _ := m.alerts.Back()
	switch st {
	case front:
		m.alerts.PopFront()
	case back:
		m.alerts.PopBack()
	default:
		if m.contains(st) {
			m.logger.Debug("dismiss skipped, alert is not at either end",
				"alert_id", st.alert.ID,
				"reason", reason,
			)
		}
		return
	}

	st.timer.Stop()

	if !st.mounted {
		m.discard(st, reason)
		if reposition {
			m.repositionAlerts(anchor)
		}
		return
	}

	m.transition(st, model.StateDismissing)
	st.reason = reason
	m.leaving[st] = struct{}{}

	m.logger.Debug("alert dismissed",
		"alert_id", st.alert.ID,
		"anchor", anchor,
		"reason", reason,
		"active_alerts", m.alerts.Len(),
	)

	// Next tick, so the exit always follows the mount in surface order
	m.loop.Post(func() { m.animateOut(st, reposition, anchor) })
}

// animateOut slides a dismissed alert off-screen and detaches it.
func (m *Manager) animateOut(st *alertState, reposition bool, anchor model.Anchor) {
	if _, ok := m.leaving[st]; !ok {
		return
	}
	exit := Move{View: st.view, Frame: m.layout().ExitFrame(anchor), Alpha: 0}
	anim := Animation{Duration: m.config.Animation.Duration.Duration(), Curve: CurveEase}

	m.surface.Animate([]Move{exit}, anim, func() {
		// Already detached by Stop
		if _, ok := m.leaving[st]; !ok {
			return
		}
		m.detach(st)

		if reposition {
			m.repositionAlerts(anchor)
		}
	})
}

// repositionAlerts moves every mounted alert to its slot in one transaction.
// Every slot is computed for the triggering anchor, including alerts that
// entered from the other edge.
func (m *Manager) repositionAlerts(anchor model.Anchor) {
	snapshot := m.alerts.Snapshot()
	if len(snapshot) == 0 {
		return
	}

	layout := m.layout()
	moves := make([]Move, 0, len(snapshot))
	settling := make([]*alertState, 0, len(snapshot))
	for i, st := range snapshot {
		if !st.mounted {
			continue
		}
		moves = append(moves, Move{
			View:  st.view,
			Frame: layout.SlotFrame(anchor, i, len(snapshot)),
			Alpha: 1,
		})
		settling = append(settling, st)
	}
	if len(moves) == 0 {
		return
	}

	anim := Animation{
		Duration: m.config.Animation.Duration.Duration(),
		Curve:    CurveSpring,
		Damping:  m.config.Animation.Damping,
	}
	m.surface.Animate(moves, anim, func() {
		for _, st := range settling {
			if st.alert.State() == model.StateMounted {
				m.transition(st, model.StateVisible)
			}
		}
	})
}

// CloseAll removes every alert, animating each out towards its own anchor.
func (m *Manager) CloseAll() {
	m.loop.Post(m.closeAll)
}

func (m *Manager) closeAll() {
	for {
		st, ok := m.alerts.Front()
		if !ok {
			return
		}
		m.dismiss(st, false, st.alert.Anchor, model.CloseReasonClosed)
	}
}

// Snapshot returns the active alerts in stack order.
func (m *Manager) Snapshot(ctx context.Context) ([]*model.Alert, error) {
	var alerts []*model.Alert
	err := m.loop.Call(ctx, func() {
		alerts = make([]*model.Alert, 0, m.alerts.Len())
		for _, st := range m.alerts.Snapshot() {
			alerts = append(alerts, st.alert)
		}
	})
	if err != nil {
		return nil, err
	}
	return alerts, nil
}

// Len returns the number of active alerts.
func (m *Manager) Len(ctx context.Context) (int, error) {
	var n int
	err := m.loop.Call(ctx, func() {
		n = m.alerts.Len()
	})
	return n, err
}

// UpdateConfig swaps the configuration for later operations.
// Running timers keep their durations.
func (m *Manager) UpdateConfig(cfg *config.Config) {
	if cfg == nil {
		return
	}
	m.defaultDuration.Store(int64(cfg.Stack.DefaultDuration.Duration()))
	m.loop.Post(func() {
		m.config = cfg
		m.logger.Debug("display config updated",
			"max_alerts", cfg.Stack.MaxAlerts,
			"default_duration", cfg.Stack.DefaultDuration.Duration(),
		)
	})
}

// Stop closes every alert and rejects further alerts.
// Alerts are detached at once, without exit animations, since the loop is
// usually stopped right after. Must not be called from a loop task.
func (m *Manager) Stop() {
	if m.stopped.Swap(true) {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), stopTimeout)
	defer cancel()

	if err := m.loop.Call(ctx, m.teardown); err != nil {
		m.logger.Warn("display manager stopped without closing alerts", "error", err)
		return
	}
	m.logger.Info("display manager stopped")
}

// teardown runs on the loop and detaches every alert, including those
// still animating out.
func (m *Manager) teardown() {
	for {
		st, ok := m.alerts.PopFront()
		if !ok {
			break
		}
		st.timer.Stop()
		if !st.mounted {
			m.discard(st, model.CloseReasonClosed)
			continue
		}
		m.transition(st, model.StateDismissing)
		st.reason = model.CloseReasonClosed
		m.leaving[st] = struct{}{}
	}

	for st := range m.leaving {
		m.detach(st)
	}
}

// detach unmounts an alert that is leaving and reports it closed.
func (m *Manager) detach(st *alertState) {
	delete(m.leaving, st)
	m.surface.Unmount(st.view)
	m.transition(st, model.StateRemoved)
	m.notifyClose(st.alert, st.reason)
}

// capacity returns the configured stack size. Configs that skipped
// validation still get room for one alert.
func (m *Manager) capacity() int {
	return max(m.config.Stack.MaxAlerts, 1)
}

// layout builds the layout for the current bounds and config.
func (m *Manager) layout() Layout {
	return NewLayout(m.config.Layout, m.surface.Bounds())
}

// find returns the state for alert, or nil if it is not in the stack.
func (m *Manager) find(alert *model.Alert) *alertState {
	for _, st := range m.alerts.Snapshot() {
		if st.alert == alert {
			return st
		}
	}
	return nil
}

func (m *Manager) contains(st *alertState) bool {
	for _, s := range m.alerts.Snapshot() {
		if s == st {
			return true
		}
	}
	return false
}

// discard takes an alert that never reached the surface straight to StateRemoved.
func (m *Manager) discard(st *alertState, reason model.CloseReason) {
	m.transition(st, model.StateDismissing)
	m.transition(st, model.StateRemoved)
	m.notifyClose(st.alert, reason)
}

func (m *Manager) transition(st *alertState, to model.State) {
	if err := st.alert.Transition(to); err != nil {
		m.logger.Debug("alert state not changed", "alert_id", st.alert.ID, "error", err)
	}
}

func (m *Manager) notifyClose(alert *model.Alert, reason model.CloseReason) {
	m.mu.Lock()
	cb := m.onClose
	m.mu.Unlock()

	if cb != nil {
		cb(alert, reason)
	}
}
