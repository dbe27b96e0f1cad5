package session

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/dwizi/commentctl/internal/heartbeat"
	"github.com/dwizi/commentctl/internal/notify"
)

// transitionNotifier turns health transitions of the optional components
// into alerts. Poller failures are left to the log.
type transitionNotifier struct {
	alerts *notify.Queue
	logger *slog.Logger
}

func newTransitionNotifier(alerts *notify.Queue, logger *slog.Logger) *transitionNotifier {
	if logger == nil {
		logger = slog.Default()
	}
	return &transitionNotifier{alerts: alerts, logger: logger}
}

func (n *transitionNotifier) HandleTransition(_ context.Context, transition heartbeat.Transition, snapshot heartbeat.Snapshot) {
	if n == nil || n.alerts == nil {
		return
	}
	switch transition.Component {
	case heartbeat.ComponentWatcher, heartbeat.ComponentMetrics, heartbeat.ComponentJournal:
	default:
		return
	}
	kind := transition.Kind()
	if kind == heartbeat.TransitionChanged {
		return
	}
	n.logger.Debug("component health alert",
		"component", transition.Component,
		"from", transition.FromState,
		"to", transition.ToState,
		"overall", snapshot.Overall,
	)
	if kind == heartbeat.TransitionDegraded {
		n.alerts.Warn(degradedMessage(transition))
		return
	}
	n.alerts.Info(fmt.Sprintf("%s recovered", transition.Component))
}

func degradedMessage(transition heartbeat.Transition) string {
	if transition.Error != "" {
		return fmt.Sprintf("%s degraded: %s", transition.Component, transition.Error)
	}
	return fmt.Sprintf("%s is %s", transition.Component, transition.ToState)
}
