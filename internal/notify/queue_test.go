package notify

import (
	"strings"
	"testing"
	"time"
)

type fakeClock struct {
	now time.Time
}

func (c *fakeClock) Now() time.Time { return c.now }

func newTestQueue() (*Queue, *fakeClock) {
	clock := &fakeClock{now: time.Date(2025, 10, 14, 9, 0, 0, 0, time.UTC)}
	queue := NewQueue(5 * time.Second)
	queue.SetClock(clock.Now)
	return queue, clock
}

func TestAlertsExpireAfterTTL(t *testing.T) {
	t.Parallel()

	queue, clock := newTestQueue()
	first := queue.Success("Tokens file uploaded successfully!")
	clock.now = clock.now.Add(3 * time.Second)
	queue.Danger("Failed to start task: boom")

	if got := len(queue.Active()); got != 2 {
		t.Fatalf("expected two active alerts, got %d", got)
	}
	clock.now = clock.now.Add(2 * time.Second)
	active := queue.Active()
	if len(active) != 1 || active[0].ID == first.ID {
		t.Fatalf("expected only the second alert after 5s, got %+v", active)
	}
	clock.now = clock.now.Add(10 * time.Second)
	if got := len(queue.Active()); got != 0 {
		t.Fatalf("expected all alerts expired, got %d", got)
	}
	if got := len(queue.History()); got != 2 {
		t.Fatalf("expected history to keep both alerts, got %d", got)
	}
}

func TestDismissRemovesEarly(t *testing.T) {
	t.Parallel()

	queue, _ := newTestQueue()
	alert := queue.Info("hello")
	if !strings.HasPrefix(alert.ID, "alert-") {
		t.Fatalf("unexpected alert id: %s", alert.ID)
	}
	if !queue.Dismiss(alert.ID) {
		t.Fatal("expected dismiss to succeed")
	}
	if queue.Dismiss(alert.ID) {
		t.Fatal("expected second dismiss to be a no-op")
	}
	if got := len(queue.Active()); got != 0 {
		t.Fatalf("expected no active alerts, got %d", got)
	}
}

func TestAlertsKeepInsertionOrder(t *testing.T) {
	t.Parallel()

	queue, _ := newTestQueue()
	queue.Info("one")
	queue.Warn("two")
	queue.Push(Level("bogus"), "three")
	active := queue.Active()
	if len(active) != 3 || active[0].Message != "one" || active[2].Message != "three" {
		t.Fatalf("unexpected order: %+v", active)
	}
	if active[2].Level != LevelInfo {
		t.Fatalf("unknown level should normalise to info, got %s", active[2].Level)
	}
}

func TestLoadingIsExclusive(t *testing.T) {
	t.Parallel()

	queue, clock := newTestQueue()
	first := queue.ShowLoading("Uploading tokens file...")
	second := queue.ShowLoading("Starting task...")

	loading, ok := queue.Loading()
	if !ok || loading.Message != "Starting task..." {
		t.Fatalf("expected latest loading notice, got %+v", loading)
	}
	if queue.HideLoading(first) {
		t.Fatal("stale token must not hide the newer notice")
	}
	clock.now = clock.now.Add(time.Minute)
	if _, ok := queue.Loading(); !ok {
		t.Fatal("loading notice must not expire on the timer")
	}
	if !queue.HideLoading(second) {
		t.Fatal("expected owner token to hide the notice")
	}
	if _, ok := queue.Loading(); ok {
		t.Fatal("expected loading notice removed")
	}
}

func TestOnPushHook(t *testing.T) {
	t.Parallel()

	queue, _ := newTestQueue()
	var seen []Level
	queue.OnPush(func(alert Alert) { seen = append(seen, alert.Level) })
	queue.Success("ok")
	queue.Danger("bad")
	if len(seen) != 2 || seen[1] != LevelDanger {
		t.Fatalf("unexpected hook calls: %v", seen)
	}
}
