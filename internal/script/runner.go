package script

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/jmylchreest/stackalert/internal/display"
	"github.com/jmylchreest/stackalert/internal/model"
)

// AlertResult is the outcome of one shown alert.
type AlertResult struct {
	ID       string        `json:"id" yaml:"id"`
	Message  string        `json:"message" yaml:"message"`
	Anchor   model.Anchor  `json:"anchor" yaml:"anchor"`
	Duration time.Duration `json:"duration" yaml:"duration"`
	State    string        `json:"state" yaml:"state"`
	Reason   string        `json:"reason,omitempty" yaml:"reason,omitempty"`
}

// Trace is the result of a script run.
type Trace struct {
	Script       string            `json:"script,omitempty" yaml:"script,omitempty"`
	Alerts       []AlertResult     `json:"alerts" yaml:"alerts"`
	Transactions int               `json:"transactions" yaml:"transactions"`
	Commands     []display.Command `json:"commands" yaml:"commands"`
}

// Runner replays scripts against a manager.
type Runner struct {
	manager *display.Manager
	logger  *slog.Logger

	mu      sync.Mutex
	reasons map[*model.Alert]model.CloseReason
}

// NewRunner creates a runner. It installs the manager's close callback.
func NewRunner(manager *display.Manager, logger *slog.Logger) *Runner {
	if logger == nil {
		logger = slog.Default()
	}
	r := &Runner{
		manager: manager,
		logger:  logger,
		reasons: make(map[*model.Alert]model.CloseReason),
	}
	manager.SetCloseCallback(r.recordClose)
	return r
}

func (r *Runner) recordClose(alert *model.Alert, reason model.CloseReason) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.reasons[alert] = reason
}

// Run executes every step in real time, then waits until every shown alert
// has been removed or ctx is done.
func (r *Runner) Run(ctx context.Context, s *Script) ([]AlertResult, error) {
	var shown []*model.Alert

	for i, step := range s.Steps {
		if err := ctx.Err(); err != nil {
			return r.results(shown), err
		}

		r.logger.Debug("script step", "step", i+1, "action", step.Action)

		switch step.Action {
		case ActionShow:
			shown = append(shown, r.manager.Show(step.Message, step.Duration.Duration(), step.Anchor))

		case ActionDismissFront, ActionDismissBack:
			alerts, err := r.manager.Snapshot(ctx)
			if err != nil {
				return r.results(shown), fmt.Errorf("step %d: %w", i+1, err)
			}
			if len(alerts) == 0 {
				continue
			}
			target := alerts[0]
			if step.Action == ActionDismissBack {
				target = alerts[len(alerts)-1]
			}
			r.manager.Dismiss(target)

		case ActionCloseAll:
			r.manager.CloseAll()

		case ActionWait:
			select {
			case <-time.After(step.Duration.Duration()):
			case <-ctx.Done():
				return r.results(shown), ctx.Err()
			}
		}
	}

	ticker := time.NewTicker(10 * time.Millisecond)
	defer ticker.Stop()
	for !allRemoved(shown) {
		select {
		case <-ticker.C:
		case <-ctx.Done():
			return r.results(shown), ctx.Err()
		}
	}

	return r.results(shown), nil
}

func (r *Runner) results(alerts []*model.Alert) []AlertResult {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]AlertResult, 0, len(alerts))
	for _, a := range alerts {
		res := AlertResult{
			ID:       a.ID,
			Message:  a.Message,
			Anchor:   a.Anchor,
			Duration: a.Duration,
			State:    a.State().String(),
		}
		if reason, ok := r.reasons[a]; ok {
			res.Reason = reason.String()
		}
		out = append(out, res)
	}
	return out
}

func allRemoved(alerts []*model.Alert) bool {
	for _, a := range alerts {
		if !a.IsRemoved() {
			return false
		}
	}
	return true
}
