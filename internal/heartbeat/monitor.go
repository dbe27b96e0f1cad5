package heartbeat

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

type TransitionKind string

const (
	TransitionDegraded  TransitionKind = "degraded"
	TransitionRecovered TransitionKind = "recovered"
	TransitionChanged   TransitionKind = "changed"
)

// Transition is one component moving between two observed states.
type Transition struct {
	Component string    `json:"component"`
	FromState State     `json:"from_state"`
	ToState   State     `json:"to_state"`
	Message   string    `json:"message,omitempty"`
	Error     string    `json:"error,omitempty"`
	At        time.Time `json:"at"`
}

// Kind classifies t. Moving between two degraded states, or out of a
// degraded state into anything but healthy, is a plain change.
func (t Transition) Kind() TransitionKind {
	fromDegraded := IsDegradedState(t.FromState)
	toDegraded := IsDegradedState(t.ToState)
	switch {
	case !fromDegraded && toDegraded:
		return TransitionDegraded
	case fromDegraded && t.ToState == StateHealthy:
		return TransitionRecovered
	default:
		return TransitionChanged
	}
}

// Diff compares snapshot against the states seen last time and updates
// previous in place. Components seen for the first time yield nothing.
func Diff(previous map[string]State, snapshot Snapshot) []Transition {
	var out []Transition
	for _, item := range snapshot.Components {
		before, seen := previous[item.Name]
		previous[item.Name] = item.State
		if !seen || before == item.State {
			continue
		}
		out = append(out, Transition{
			Component: item.Name,
			FromState: before,
			ToState:   item.State,
			Message:   item.Message,
			Error:     item.Error,
			At:        snapshot.GeneratedAt,
		})
	}
	return out
}

type MonitorConfig struct {
	Interval     time.Duration
	StaleAfter   time.Duration
	Logger       *slog.Logger
	OnTransition func(context.Context, Transition, Snapshot)
}

// Monitor samples a Registry on an interval and reports state changes.
type Monitor struct {
	registry     *Registry
	interval     time.Duration
	staleAfter   time.Duration
	logger       *slog.Logger
	onTransition func(context.Context, Transition, Snapshot)

	mu       sync.Mutex
	previous map[string]State
}

func NewMonitor(registry *Registry, cfg MonitorConfig) *Monitor {
	interval := cfg.Interval
	if interval <= 0 {
		interval = 5 * time.Second
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Monitor{
		registry:     registry,
		interval:     interval,
		staleAfter:   cfg.StaleAfter,
		logger:       logger,
		onTransition: cfg.OnTransition,
		previous:     map[string]State{},
	}
}

// Check takes one sample and dispatches any transitions it finds.
func (m *Monitor) Check(ctx context.Context) []Transition {
	if m.registry == nil {
		return nil
	}
	snapshot := m.registry.Snapshot(m.staleAfter)
	m.mu.Lock()
	transitions := Diff(m.previous, snapshot)
	m.mu.Unlock()

	for _, transition := range transitions {
		if transition.Kind() == TransitionDegraded {
			m.logger.Warn("component degraded", "component", transition.Component, "state", transition.ToState, "error", transition.Error)
		} else {
			m.logger.Info("component state changed", "component", transition.Component, "from", transition.FromState, "to", transition.ToState)
		}
		if m.onTransition != nil {
			m.onTransition(ctx, transition, snapshot)
		}
	}
	return transitions
}

func (m *Monitor) Run(ctx context.Context) error {
	if m.registry == nil {
		<-ctx.Done()
		return nil
	}
	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()
	m.logger.Debug("health monitor started", "interval", m.interval.String(), "stale_after", m.staleAfter.String())
	for {
		m.Check(ctx)
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
	}
}
