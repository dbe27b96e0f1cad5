package notify

import (
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

type Level string

const (
	LevelInfo    Level = "info"
	LevelSuccess Level = "success"
	LevelWarning Level = "warning"
	LevelDanger  Level = "danger"
)

const (
	DefaultTTL = 5 * time.Second
	LoadingKey = "loading"
)

type Alert struct {
	ID        string
	Level     Level
	Message   string
	CreatedAt time.Time
	ExpiresAt time.Time
}

// Loading is the single exclusive progress notice.
type Loading struct {
	Token     string
	Message   string
	StartedAt time.Time
}

// Queue keeps transient alerts in insertion order. Alerts expire after the
// TTL unless dismissed first; the loading notice never expires on its own.
type Queue struct {
	mu      sync.Mutex
	ttl     time.Duration
	now     func() time.Time
	alerts  []Alert
	history []Alert
	loading *Loading
	onPush  func(Alert)
}

func NewQueue(ttl time.Duration) *Queue {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Queue{ttl: ttl, now: time.Now}
}

// SetClock swaps the time source; used by tests and the TUI clock.
func (q *Queue) SetClock(now func() time.Time) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if now == nil {
		now = time.Now
	}
	q.now = now
}

// OnPush registers a hook called for every new alert, outside the lock.
func (q *Queue) OnPush(hook func(Alert)) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.onPush = hook
}

func (q *Queue) Push(level Level, message string) Alert {
	q.mu.Lock()
	now := q.now().UTC()
	alert := Alert{
		ID:        "alert-" + uuid.NewString(),
		Level:     normalizeLevel(level),
		Message:   strings.TrimSpace(message),
		CreatedAt: now,
		ExpiresAt: now.Add(q.ttl),
	}
	q.pruneLocked(now)
	q.alerts = append(q.alerts, alert)
	q.history = append(q.history, alert)
	if len(q.history) > maxHistory {
		q.history = q.history[len(q.history)-maxHistory:]
	}
	hook := q.onPush
	q.mu.Unlock()
	if hook != nil {
		hook(alert)
	}
	return alert
}

const maxHistory = 200

func (q *Queue) Info(message string) Alert    { return q.Push(LevelInfo, message) }
func (q *Queue) Success(message string) Alert { return q.Push(LevelSuccess, message) }
func (q *Queue) Warn(message string) Alert    { return q.Push(LevelWarning, message) }
func (q *Queue) Danger(message string) Alert  { return q.Push(LevelDanger, message) }

func (q *Queue) Dismiss(id string) bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	for index, alert := range q.alerts {
		if alert.ID == id {
			q.alerts = append(q.alerts[:index], q.alerts[index+1:]...)
			return true
		}
	}
	return false
}

// Active returns unexpired alerts, oldest first, dropping expired ones.
func (q *Queue) Active() []Alert {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.pruneLocked(q.now().UTC())
	out := make([]Alert, len(q.alerts))
	copy(out, q.alerts)
	return out
}

// History returns every alert pushed this session, newest last.
func (q *Queue) History() []Alert {
	q.mu.Lock()
	defer q.mu.Unlock()
	out := make([]Alert, len(q.history))
	copy(out, q.history)
	return out
}

func (q *Queue) pruneLocked(now time.Time) {
	kept := q.alerts[:0]
	for _, alert := range q.alerts {
		if now.Before(alert.ExpiresAt) {
			kept = append(kept, alert)
		}
	}
	for index := len(kept); index < len(q.alerts); index++ {
		q.alerts[index] = Alert{}
	}
	q.alerts = kept
}

// ShowLoading replaces any current loading notice and returns its token.
func (q *Queue) ShowLoading(message string) string {
	q.mu.Lock()
	defer q.mu.Unlock()
	message = strings.TrimSpace(message)
	if message == "" {
		message = "Loading..."
	}
	token := LoadingKey + "-" + uuid.NewString()
	q.loading = &Loading{Token: token, Message: message, StartedAt: q.now().UTC()}
	return token
}

// HideLoading removes the loading notice only if token still owns it, so an
// older operation finishing late cannot hide a newer operation's notice.
func (q *Queue) HideLoading(token string) bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.loading == nil || q.loading.Token != token {
		return false
	}
	q.loading = nil
	return true
}

func (q *Queue) Loading() (Loading, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.loading == nil {
		return Loading{}, false
	}
	return *q.loading, true
}

func normalizeLevel(level Level) Level {
	switch level {
	case LevelSuccess, LevelWarning, LevelDanger:
		return level
	default:
		return LevelInfo
	}
}
