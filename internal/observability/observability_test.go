package observability

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/dwizi/commentctl/internal/heartbeat"
	"github.com/dwizi/commentctl/internal/tasks"
)

func TestMetricsRecordRequestsAndPolls(t *testing.T) {
	t.Parallel()

	metrics := NewMetrics()
	metrics.ObserveRequest("start_task", "ok", 120*time.Millisecond)
	metrics.ObserveRequest("start_task", "application", 80*time.Millisecond)
	metrics.ObservePoll("success")
	metrics.ObservePoll("failure")
	metrics.ObservePoll("success")
	metrics.SetTrackedTasks(3)
	metrics.ObserveAlert("danger")

	if got := testutil.ToFloat64(metrics.RegistryRequests.WithLabelValues("start_task", "ok")); got != 1 {
		t.Fatalf("expected one ok start, got %v", got)
	}
	if got := testutil.ToFloat64(metrics.Polls.WithLabelValues("success")); got != 2 {
		t.Fatalf("expected two successful polls, got %v", got)
	}
	if got := testutil.ToFloat64(metrics.TrackedTasks); got != 3 {
		t.Fatalf("expected tracked tasks gauge 3, got %v", got)
	}
	if got := testutil.CollectAndCount(metrics.RegistryLatency); got != 1 {
		t.Fatalf("expected one latency series, got %d", got)
	}
	if got := testutil.ToFloat64(metrics.Alerts.WithLabelValues("danger")); got != 1 {
		t.Fatalf("expected one danger alert, got %v", got)
	}
}

type staticTasks []tasks.TaskSummary

func (s staticTasks) Tasks() []tasks.TaskSummary { return s }

type failingPinger struct{}

func (failingPinger) Ping(ctx context.Context) error { return errors.New("database is locked") }

func TestRouterServesMetricsAndTasks(t *testing.T) {
	t.Parallel()

	metrics := NewMetrics()
	metrics.ObservePoll("success")
	registry := heartbeat.NewRegistry()
	registry.Beat(heartbeat.ComponentPoller, "1 running")
	server := httptest.NewServer(NewRouter(Dependencies{
		Environment: "test",
		Metrics:     metrics,
		Health:      registry,
		Tasks:       staticTasks{{TaskID: "a1b2c3d4"}},
	}))
	defer server.Close()

	res, err := http.Get(server.URL + "/metrics")
	if err != nil {
		t.Fatalf("get metrics: %v", err)
	}
	body, _ := io.ReadAll(res.Body)
	res.Body.Close()
	if !strings.Contains(string(body), `commentctl_polls_total{outcome="success"} 1`) {
		t.Fatalf("metrics output missing poll counter:\n%s", body)
	}

	res, err = http.Get(server.URL + "/api/v1/tasks")
	if err != nil {
		t.Fatalf("get tasks: %v", err)
	}
	var payload struct {
		Items []tasks.TaskSummary `json:"items"`
		Count int                 `json:"count"`
	}
	if err := json.NewDecoder(res.Body).Decode(&payload); err != nil {
		t.Fatalf("decode tasks: %v", err)
	}
	res.Body.Close()
	if payload.Count != 1 || payload.Items[0].TaskID != "a1b2c3d4" {
		t.Fatalf("unexpected tasks payload: %+v", payload)
	}

	res, err = http.Get(server.URL + "/readyz")
	if err != nil {
		t.Fatalf("get readyz: %v", err)
	}
	res.Body.Close()
	if res.StatusCode != http.StatusOK {
		t.Fatalf("expected ready, got %d", res.StatusCode)
	}
}

func TestReadyReportsDegradedPollerAndJournal(t *testing.T) {
	t.Parallel()

	registry := heartbeat.NewRegistry()
	registry.Degrade(heartbeat.ComponentPoller, "poll failed", errors.New("connection refused"))
	handler := NewRouter(Dependencies{Health: registry})

	recorder := httptest.NewRecorder()
	handler.ServeHTTP(recorder, httptest.NewRequest(http.MethodGet, "/readyz", nil))
	if recorder.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503 for degraded poller, got %d", recorder.Code)
	}

	handler = NewRouter(Dependencies{Journal: failingPinger{}})
	recorder = httptest.NewRecorder()
	handler.ServeHTTP(recorder, httptest.NewRequest(http.MethodGet, "/readyz", nil))
	if recorder.Code != http.StatusServiceUnavailable || !strings.Contains(recorder.Body.String(), "database is locked") {
		t.Fatalf("expected 503 for journal failure, got %d %s", recorder.Code, recorder.Body.String())
	}

	recorder = httptest.NewRecorder()
	handler.ServeHTTP(recorder, httptest.NewRequest(http.MethodGet, "/api/v1/heartbeat", nil))
	if recorder.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected heartbeat unavailable without registry, got %d", recorder.Code)
	}
}

func TestServeStopsOnCancel(t *testing.T) {
	t.Parallel()

	registry := heartbeat.NewRegistry()
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- Serve(ctx, "127.0.0.1:0", NewRouter(Dependencies{}), registry, nil) }()
	time.Sleep(20 * time.Millisecond)
	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("serve: %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("server did not stop")
	}
	metrics, _ := registry.Snapshot(0).Component(heartbeat.ComponentMetrics)
	if metrics.State != heartbeat.StateStopped {
		t.Fatalf("expected stopped metrics component, got %s", metrics.State)
	}
}
