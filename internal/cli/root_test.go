package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/dwizi/commentctl/internal/consoleerr"
	"github.com/dwizi/commentctl/internal/livesync"
	"github.com/dwizi/commentctl/internal/tasks"
)

type registryStub struct {
	mu        sync.Mutex
	started   []map[string]any
	stopped   []string
	uploaded  []string
	startedAt string
}

func (r *registryStub) server(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/upload", func(w http.ResponseWriter, req *http.Request) {
		if err := req.ParseMultipartForm(1 << 20); err != nil {
			t.Errorf("parse multipart: %v", err)
		}
		files := map[string]string{}
		r.mu.Lock()
		for field := range req.MultipartForm.File {
			r.uploaded = append(r.uploaded, field)
			files[field] = "uploads/" + field + ".txt"
		}
		r.mu.Unlock()
		_ = json.NewEncoder(w).Encode(map[string]any{"success": true, "files": files})
	})
	mux.HandleFunc("/start_task", func(w http.ResponseWriter, req *http.Request) {
		var body map[string]any
		if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
			t.Errorf("decode start body: %v", err)
		}
		r.mu.Lock()
		r.started = append(r.started, body)
		r.mu.Unlock()
		_, _ = w.Write([]byte(`{"success":true,"task_id":"a1b2c3d4","message":"Task started successfully"}`))
	})
	mux.HandleFunc("/stop_task", func(w http.ResponseWriter, req *http.Request) {
		var body map[string]string
		_ = json.NewDecoder(req.Body).Decode(&body)
		r.mu.Lock()
		r.stopped = append(r.stopped, body["task_id"])
		r.mu.Unlock()
		_, _ = w.Write([]byte(`{"success":true,"message":"Task ` + body["task_id"] + ` stopped successfully"}`))
	})
	mux.HandleFunc("/running_tasks", func(w http.ResponseWriter, req *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{
			"success": true,
			"tasks": []map[string]any{{
				"task_id": "a1b2c3d4",
				"stats":   map[string]any{"comments_sent": 80, "errors": 20, "started_at": r.startedAt, "current_token": "tok-1"},
			}},
		})
	})
	mux.HandleFunc("/task_status/a1b2c3d4", func(w http.ResponseWriter, req *http.Request) {
		_, _ = w.Write([]byte(`{"success":true,"stats":{"comments_sent":80,"errors":20,"started_at":"2025-10-14T09:00:00","current_token":"tok-1","current_comment":"","status":"running"}}`))
	})
	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)
	return server
}

func setupEnv(t *testing.T) (*registryStub, string) {
	t.Helper()
	stub := &registryStub{startedAt: "Tue, 14 Oct 2025 09:00:00 GMT"}
	server := stub.server(t)
	dataDir := t.TempDir()
	t.Setenv("COMMENTCTL_API_URL", server.URL)
	t.Setenv("COMMENTCTL_DATA_DIR", dataDir)
	t.Setenv("COMMENTCTL_JOURNAL_ENABLED", "true")
	t.Setenv("COMMENTCTL_POLL_SCHEDULE", "@every 1h")
	t.Setenv("COMMENTCTL_METRICS_ADDR", "")
	return stub, dataDir
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	root := NewRoot(logger)
	var output bytes.Buffer
	root.SetOut(&output)
	root.SetErr(&output)
	root.SetArgs(args)
	err := root.ExecuteContext(context.Background())
	return output.String(), err
}

func writeInput(t *testing.T, dir, name string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte("line one\nline two\n"), 0o644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return path
}

func TestNewRootIncludesExpectedSubcommands(t *testing.T) {
	root := NewRoot(nil)
	expected := []string{"tui", "upload", "start", "stop", "tasks", "status", "watch", "history", "version"}
	for _, name := range expected {
		if _, _, err := root.Find([]string{name}); err != nil {
			t.Fatalf("expected subcommand %q to exist: %v", name, err)
		}
	}
}

func TestStartUploadsFilesAndJournalsTask(t *testing.T) {
	stub, dataDir := setupEnv(t)
	tokens := writeInput(t, dataDir, "tokens.txt")
	comments := writeInput(t, dataDir, "comments.txt")

	output, err := execute(t, "start",
		"--tokens", tokens,
		"--comments", comments,
		"--post-id", " 123_456 ",
		"--delay-mode", "accurate",
		"--delays", " 5, 10 ,15 ",
	)
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	if !strings.Contains(output, "Task started: a1b2c3d4") {
		t.Fatalf("unexpected output %q", output)
	}
	if len(stub.uploaded) != 2 {
		t.Fatalf("expected two uploads, got %v", stub.uploaded)
	}
	if len(stub.started) != 1 {
		t.Fatalf("expected one start request, got %d", len(stub.started))
	}
	body := stub.started[0]
	if body["post_id"] != "123_456" {
		t.Fatalf("expected trimmed post id, got %v", body["post_id"])
	}
	if body["token_file"] != "uploads/tokens.txt" {
		t.Fatalf("unexpected token ref %v", body["token_file"])
	}
	delay, _ := body["delay_config"].(map[string]any)
	if delay["mode"] != "accurate" || delay["values"] != "5, 10 ,15" {
		t.Fatalf("unexpected delay config %v", delay)
	}

	history, err := execute(t, "history")
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	if !strings.Contains(history, "a1b2c3d4") || !strings.Contains(history, "running") {
		t.Fatalf("expected journaled task in history, got %q", history)
	}
}

func TestStartWithRefsSkipsUpload(t *testing.T) {
	stub, _ := setupEnv(t)
	_, err := execute(t, "start",
		"--token-ref", "uploads/t.txt",
		"--comment-ref", "uploads/c.txt",
		"--post-id", "42",
		"--min-delay", "30",
		"--max-delay", "90",
		"--mention-id", "100",
		"--mention-name", "Jane",
	)
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	if len(stub.uploaded) != 0 {
		t.Fatalf("expected no uploads, got %v", stub.uploaded)
	}
	body := stub.started[0]
	if body["mention_enabled"] != true || body["mention_name"] != "Jane" {
		t.Fatalf("unexpected mention fields %v", body)
	}
	delay, _ := body["delay_config"].(map[string]any)
	if delay["min"] != float64(30) || delay["max"] != float64(90) {
		t.Fatalf("unexpected random delay %v", delay)
	}
}

func TestStartValidationNeverReachesRegistry(t *testing.T) {
	stub, _ := setupEnv(t)
	_, err := execute(t, "start",
		"--token-ref", "uploads/t.txt",
		"--comment-ref", "uploads/c.txt",
		"--post-id", "   ",
	)
	if !errors.Is(err, consoleerr.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if len(stub.started) != 0 {
		t.Fatal("registry must not be called for an invalid form")
	}
}

func TestStopJournalsMessage(t *testing.T) {
	stub, _ := setupEnv(t)
	output, err := execute(t, "stop", "  a1b2c3d4 ")
	if err != nil {
		t.Fatalf("stop: %v", err)
	}
	if strings.TrimSpace(output) != "Task a1b2c3d4 stopped successfully" {
		t.Fatalf("unexpected output %q", output)
	}
	if len(stub.stopped) != 1 || stub.stopped[0] != "a1b2c3d4" {
		t.Fatalf("unexpected stop requests %v", stub.stopped)
	}
}

func TestTasksPrintsSuccessRate(t *testing.T) {
	setupEnv(t)
	output, err := execute(t, "tasks")
	if err != nil {
		t.Fatalf("tasks: %v", err)
	}
	if !strings.Contains(output, "a1b2c3d4") || !strings.Contains(output, "80%") {
		t.Fatalf("unexpected tasks output %q", output)
	}
}

func TestStatusPrintsCurrentActivity(t *testing.T) {
	setupEnv(t)
	output, err := execute(t, "status", "a1b2c3d4")
	if err != nil {
		t.Fatalf("status: %v", err)
	}
	for _, want := range []string{"Status:         Running", "Success Rate:   80%", "Current Comment: N/A"} {
		if !strings.Contains(output, want) {
			t.Fatalf("expected %q in output %q", want, output)
		}
	}
}

func TestStatusIncludesJournalEntryForLocalTask(t *testing.T) {
	setupEnv(t)
	if _, err := execute(t, "start",
		"--token-ref", "uploads/t.txt",
		"--comment-ref", "uploads/c.txt",
		"--post-id", "42",
	); err != nil {
		t.Fatalf("start: %v", err)
	}
	output, err := execute(t, "status", "a1b2c3d4")
	if err != nil {
		t.Fatalf("status: %v", err)
	}
	for _, want := range []string{"Post ID:        42", "Delay:          random 60-120s", "Launched Here:"} {
		if !strings.Contains(output, want) {
			t.Fatalf("expected %q in output %q", want, output)
		}
	}
	if strings.Contains(output, "Stopped Here:") {
		t.Fatalf("running task should not show a stop time: %q", output)
	}
}

func TestHistoryFailsWhenJournalDisabled(t *testing.T) {
	setupEnv(t)
	t.Setenv("COMMENTCTL_JOURNAL_ENABLED", "false")
	if _, err := execute(t, "history"); err == nil {
		t.Fatal("expected an error with the journal disabled")
	}
}

type fixedSource struct {
	status livesync.Status
	items  []tasks.TaskSummary
}

func (f fixedSource) Tasks() []tasks.TaskSummary { return f.items }
func (f fixedSource) Status() livesync.Status    { return f.status }

func TestWatchTasksPrintsFrameAndStops(t *testing.T) {
	t.Parallel()
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	var output bytes.Buffer
	source := fixedSource{
		status: livesync.Status{Polls: 3, Failures: 1, LastError: errors.New("connection refused")},
		items:  []tasks.TaskSummary{{TaskID: "t-1", Stats: tasks.TaskStats{CommentsSent: 1}}},
	}
	if err := watchTasks(ctx, &output, source); err != nil {
		t.Fatalf("watch: %v", err)
	}
	rendered := output.String()
	if strings.Count(rendered, "== ") != 1 {
		t.Fatalf("expected exactly one frame, got %q", rendered)
	}
	if !strings.Contains(rendered, "showing last good list") || !strings.Contains(rendered, "t-1") {
		t.Fatalf("unexpected frame %q", rendered)
	}
}
