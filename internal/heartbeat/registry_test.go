package heartbeat

import (
	"errors"
	"testing"
	"time"
)

func TestSnapshotMarksStalePoller(t *testing.T) {
	registry := NewRegistry()
	current := time.Date(2025, 10, 14, 9, 0, 0, 0, time.UTC)
	registry.now = func() time.Time { return current }
	registry.Beat(ComponentPoller, "3 tasks")

	current = current.Add(3 * time.Minute)
	snapshot := registry.Snapshot(time.Minute)
	if snapshot.Overall != StateDegraded {
		t.Fatalf("expected degraded overall state, got %s", snapshot.Overall)
	}
	poller, ok := snapshot.Component("Poller")
	if !ok {
		t.Fatal("expected poller component")
	}
	if poller.State != StateStale || poller.BaseState != StateHealthy || !poller.Stale {
		t.Fatalf("unexpected poller status: %+v", poller)
	}
}

func TestSnapshotIdleForDisabledComponents(t *testing.T) {
	registry := NewRegistry()
	registry.Disabled(ComponentWatcher, "re-upload on change is off")
	registry.Disabled(ComponentMetrics, "no listen address")

	snapshot := registry.Snapshot(time.Minute)
	if snapshot.Overall != StateIdle {
		t.Fatalf("expected idle overall state, got %s", snapshot.Overall)
	}
}

func TestDegradeKeepsLastBeat(t *testing.T) {
	registry := NewRegistry()
	current := time.Date(2025, 10, 14, 9, 0, 0, 0, time.UTC)
	registry.now = func() time.Time { return current }
	registry.Beat(ComponentPoller, "ok")
	beatAt := current

	current = current.Add(10 * time.Second)
	registry.Degrade(ComponentPoller, "poll failed", errors.New("connection refused"))
	poller, _ := registry.Snapshot(0).Component(ComponentPoller)
	if poller.State != StateDegraded || poller.Error != "connection refused" {
		t.Fatalf("unexpected degraded status: %+v", poller)
	}
	if !poller.LastBeatAt.Equal(beatAt) {
		t.Fatalf("degrade must not count as a beat: %s", poller.LastBeatAt)
	}
	if snapshot := registry.Snapshot(0); snapshot.Overall != StateDegraded {
		t.Fatalf("expected degraded overall, got %s", snapshot.Overall)
	}
}

func TestEmptyRegistryIsUnknown(t *testing.T) {
	if overall := NewRegistry().Snapshot(0).Overall; overall != StateUnknown {
		t.Fatalf("expected unknown, got %s", overall)
	}
}
