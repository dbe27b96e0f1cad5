package heartbeat

import (
	"sort"
	"strings"
	"sync"
	"time"
)

type State string

const (
	StateStarting State = "starting"
	StateHealthy  State = "healthy"
	StateDegraded State = "degraded"
	StateDisabled State = "disabled"
	StateStopped  State = "stopped"
	StateStale    State = "stale"
	StateIdle     State = "idle"
	StateUnknown  State = "unknown"
)

// Components the console reports on.
const (
	ComponentPoller  = "poller"
	ComponentWatcher = "watcher"
	ComponentMetrics = "metrics"
	ComponentJournal = "journal"
)

type Reporter interface {
	Starting(component, message string)
	Beat(component, message string)
	Degrade(component, message string, err error)
	Disabled(component, message string)
	Stopped(component, message string)
}

type ComponentStatus struct {
	Name       string    `json:"name"`
	State      State     `json:"state"`
	BaseState  State     `json:"base_state"`
	Message    string    `json:"message,omitempty"`
	Error      string    `json:"error,omitempty"`
	LastBeatAt time.Time `json:"last_beat_at,omitempty"`
	UpdatedAt  time.Time `json:"updated_at"`
	Stale      bool      `json:"stale,omitempty"`
}

type Snapshot struct {
	GeneratedAt time.Time         `json:"generated_at"`
	Overall     State             `json:"overall"`
	Components  []ComponentStatus `json:"components"`
}

// Component returns the named status, if the component ever reported.
func (s Snapshot) Component(name string) (ComponentStatus, bool) {
	name = normalizeComponent(name)
	for _, item := range s.Components {
		if item.Name == name {
			return item, true
		}
	}
	return ComponentStatus{}, false
}

type componentRecord struct {
	state      State
	message    string
	lastError  string
	lastBeatAt time.Time
	updatedAt  time.Time
}

type Registry struct {
	mu         sync.RWMutex
	now        func() time.Time
	components map[string]componentRecord
}

func NewRegistry() *Registry {
	return &Registry{
		now:        time.Now,
		components: map[string]componentRecord{},
	}
}

func (r *Registry) Starting(component, message string) {
	r.set(component, StateStarting, message, "", false)
}

func (r *Registry) Beat(component, message string) {
	r.set(component, StateHealthy, message, "", true)
}

func (r *Registry) Degrade(component, message string, err error) {
	errorText := ""
	if err != nil {
		errorText = strings.TrimSpace(err.Error())
	}
	r.set(component, StateDegraded, message, errorText, false)
}

func (r *Registry) Disabled(component, message string) {
	r.set(component, StateDisabled, message, "", false)
}

func (r *Registry) Stopped(component, message string) {
	r.set(component, StateStopped, message, "", false)
}

func (r *Registry) set(component string, state State, message, errorText string, beat bool) {
	name := normalizeComponent(component)
	if name == "" {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	now := r.now().UTC()
	record := r.components[name]
	record.state = state
	record.message = strings.TrimSpace(message)
	record.lastError = strings.TrimSpace(errorText)
	record.updatedAt = now
	if beat || record.lastBeatAt.IsZero() {
		record.lastBeatAt = now
	}
	r.components[name] = record
}

// Snapshot reports every component. Healthy or starting components that
// have not beaten within staleAfter are reported stale; zero disables that.
func (r *Registry) Snapshot(staleAfter time.Duration) Snapshot {
	r.mu.RLock()
	defer r.mu.RUnlock()
	now := r.now().UTC()

	results := make([]ComponentStatus, 0, len(r.components))
	for name, record := range r.components {
		status := ComponentStatus{
			Name:       name,
			State:      record.state,
			BaseState:  record.state,
			Message:    record.message,
			Error:      record.lastError,
			LastBeatAt: record.lastBeatAt,
			UpdatedAt:  record.updatedAt,
		}
		if staleAfter > 0 && canBecomeStale(record.state) && now.Sub(record.lastBeatAt) > staleAfter {
			status.State = StateStale
			status.Stale = true
		}
		results = append(results, status)
	}
	sort.Slice(results, func(left, right int) bool {
		return results[left].Name < results[right].Name
	})
	return Snapshot{
		GeneratedAt: now,
		Overall:     computeOverall(results),
		Components:  results,
	}
}

func IsDegradedState(state State) bool {
	return state == StateDegraded || state == StateStale
}

func normalizeComponent(component string) string {
	return strings.ToLower(strings.TrimSpace(component))
}

func canBecomeStale(state State) bool {
	return state == StateHealthy || state == StateStarting
}

func computeOverall(items []ComponentStatus) State {
	if len(items) == 0 {
		return StateUnknown
	}
	hasHealthy := false
	hasStarting := false
	for _, item := range items {
		switch item.State {
		case StateDegraded, StateStale:
			return StateDegraded
		case StateHealthy:
			hasHealthy = true
		case StateStarting:
			hasStarting = true
		}
	}
	if hasStarting {
		return StateStarting
	}
	if hasHealthy {
		return StateHealthy
	}
	return StateIdle
}
