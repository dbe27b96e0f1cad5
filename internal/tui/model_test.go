package tui

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	tea "charm.land/bubbletea/v2"

	"github.com/dwizi/commentctl/internal/apiclient"
	"github.com/dwizi/commentctl/internal/config"
	"github.com/dwizi/commentctl/internal/consoleerr"
	"github.com/dwizi/commentctl/internal/form"
	"github.com/dwizi/commentctl/internal/lifecycle"
	"github.com/dwizi/commentctl/internal/session"
	"github.com/dwizi/commentctl/internal/tasks"
)

func keyPress(code rune, text string, mods ...tea.KeyMod) tea.KeyPressMsg {
	var mod tea.KeyMod
	for _, item := range mods {
		mod |= item
	}
	return tea.KeyPressMsg(tea.Key{
		Code: code,
		Text: text,
		Mod:  mod,
	})
}

func keyRune(r rune) tea.KeyPressMsg {
	return keyPress(r, string(r))
}

func fakeRegistry(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/upload", func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			t.Errorf("parse multipart: %v", err)
		}
		files := map[string]string{}
		for field := range r.MultipartForm.File {
			files[field] = field + "-ref"
		}
		_ = json.NewEncoder(w).Encode(map[string]any{"success": true, "files": files})
	})
	mux.HandleFunc("/start_task", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"success":true,"task_id":"task-7","message":"Task started successfully"}`))
	})
	mux.HandleFunc("/running_tasks", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"success":true,"tasks":[]}`))
	})
	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)
	return server
}

func newTestModel(t *testing.T) model {
	t.Helper()
	server := fakeRegistry(t)
	cfg := config.Config{
		Environment:       "test",
		APIURL:            server.URL,
		HTTPTimeoutSec:    5,
		RequestTimeoutSec: 5,
		PollSchedule:      "@every 1h",
		AlertTTLSec:       60,
		MaxUploadBytes:    1 << 20,
		DataDir:           t.TempDir(),
	}
	client, err := apiclient.New(cfg)
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	sess, err := session.New(cfg, client, logger)
	if err != nil {
		t.Fatalf("new session: %v", err)
	}
	t.Cleanup(func() { _ = sess.Close() })

	m := newModel(context.Background(), sess, "", logger)
	m.width = 140
	m.height = 48
	m.resizeWidgets()
	return m
}

func launchModel(t *testing.T, field form.Field) model {
	t.Helper()
	m := newTestModel(t)
	m.activeView = viewLaunch
	m.focus = focusWorkbench
	m.focusField(field)
	_ = m.applyFocusCmd()
	return m
}

func TestRecoverInvalidTLSConfigClearsInvalidPair(t *testing.T) {
	tempDir := t.TempDir()
	invalidCert := filepath.Join(tempDir, "invalid.crt")
	invalidKey := filepath.Join(tempDir, "invalid.key")
	if err := os.WriteFile(invalidCert, []byte("not-a-cert"), 0o644); err != nil {
		t.Fatalf("write invalid cert: %v", err)
	}
	if err := os.WriteFile(invalidKey, []byte("not-a-key"), 0o644); err != nil {
		t.Fatalf("write invalid key: %v", err)
	}

	cfg := config.Config{
		TLSCertFile: invalidCert,
		TLSKeyFile:  invalidKey,
	}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	updated, info := recoverInvalidTLSConfig(cfg, logger)
	if updated.TLSCertFile != "" || updated.TLSKeyFile != "" {
		t.Fatal("expected invalid client cert config to be cleared")
	}
	if info == "" {
		t.Fatal("expected a startup note")
	}
}

func TestRecoverInvalidTLSConfigClearsBadCA(t *testing.T) {
	caPath := filepath.Join(t.TempDir(), "ca.pem")
	if err := os.WriteFile(caPath, []byte("garbage"), 0o644); err != nil {
		t.Fatalf("write ca: %v", err)
	}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	updated, _ := recoverInvalidTLSConfig(config.Config{TLSCAFile: caPath}, logger)
	if updated.TLSCAFile != "" {
		t.Fatalf("expected ca file to be cleared, got %s", updated.TLSCAFile)
	}
}

func TestTabCyclesFocusZones(t *testing.T) {
	m := newTestModel(t)
	if m.focus != focusSidebar {
		t.Fatalf("expected initial sidebar focus, got %d", m.focus)
	}
	updated, _ := m.Update(keyPress(tea.KeyTab, ""))
	typed := updated.(model)
	if typed.focus != focusWorkbench {
		t.Fatalf("expected workbench focus, got %d", typed.focus)
	}
	updated, _ = typed.Update(keyPress(tea.KeyTab, ""))
	typed = updated.(model)
	if typed.focus != focusInspector {
		t.Fatalf("expected inspector focus, got %d", typed.focus)
	}
}

func TestShiftTabCyclesFocusBackward(t *testing.T) {
	m := newTestModel(t)
	m.focus = focusWorkbench
	updated, _ := m.Update(keyPress(tea.KeyTab, "", tea.ModShift))
	typed := updated.(model)
	if typed.focus != focusSidebar {
		t.Fatalf("expected sidebar focus, got %d", typed.focus)
	}
}

func TestNumericViewSwitch(t *testing.T) {
	m := newTestModel(t)
	updated, _ := m.Update(keyRune('3'))
	typed := updated.(model)
	if typed.activeView != viewTasks {
		t.Fatalf("expected active view %s, got %s", viewTasks, typed.activeView)
	}
	if typed.sidebarIndex != sidebarIndexForView(viewTasks) {
		t.Fatalf("expected sidebar index %d, got %d", sidebarIndexForView(viewTasks), typed.sidebarIndex)
	}
}

func TestWindowResizeUpdatesDimensions(t *testing.T) {
	m := newTestModel(t)
	updated, _ := m.Update(tea.WindowSizeMsg{Width: 160, Height: 52})
	typed := updated.(model)
	if typed.width != 160 || typed.height != 52 {
		t.Fatalf("expected dimensions 160x52, got %dx%d", typed.width, typed.height)
	}
}

func TestTypingPostIDUpdatesSessionForm(t *testing.T) {
	m := launchModel(t, form.FieldPostID)
	if !m.typing() {
		t.Fatal("expected post id input to own the cursor")
	}

	typed := m
	for _, r := range "12_34" {
		updated, _ := typed.Update(keyRune(r))
		typed = updated.(model)
	}
	if got := typed.sess.Form().Snapshot().PostID; got != "12_34" {
		t.Fatalf("expected post id 12_34 in form, got %q", got)
	}
	if typed.activeView != viewLaunch {
		t.Fatalf("digits should not switch views while typing, got %s", typed.activeView)
	}
}

func TestEscLeavesFieldWithoutQuitting(t *testing.T) {
	m := launchModel(t, form.FieldPostID)
	updated, _ := m.Update(keyPress(tea.KeyEscape, ""))
	typed := updated.(model)
	if typed.quitting {
		t.Fatal("esc must not quit")
	}
	if typed.focus != focusSidebar {
		t.Fatalf("expected sidebar focus after esc, got %d", typed.focus)
	}
	if typed.typing() {
		t.Fatal("expected no input to own the cursor")
	}
}

func TestToggleDelayModeSwapsVisibleFields(t *testing.T) {
	m := launchModel(t, form.FieldDelayMode)
	if m.typing() {
		t.Fatal("delay mode is a choice, not a text input")
	}
	updated, _ := m.Update(keyPress(tea.KeySpace, " "))
	typed := updated.(model)

	if typed.sess.Form().Snapshot().DelayMode != tasks.DelayAccurate {
		t.Fatalf("expected accurate mode, got %s", typed.sess.Form().Snapshot().DelayMode)
	}
	if typed.currentField() != form.FieldDelayMode {
		t.Fatalf("expected cursor to stay on delay mode, got %s", typed.currentField())
	}
	for _, field := range typed.formFields {
		if field == form.FieldMinDelay || field == form.FieldMaxDelay {
			t.Fatalf("random range fields should be hidden, got %v", typed.formFields)
		}
	}
	if typed.inputs.minDelay.Value() != "60" {
		t.Fatalf("hidden min delay should keep its value, got %q", typed.inputs.minDelay.Value())
	}
}

func TestLeavingMinDelayAdjustsMax(t *testing.T) {
	m := newTestModel(t)
	m.sess.Form().Update(func(state *form.State) {
		state.MinDelay = "150"
		state.MaxDelay = "100"
	})
	m.pullInputs()
	m.activeView = viewLaunch
	m.focus = focusWorkbench
	m.focusField(form.FieldMinDelay)
	_ = m.applyFocusCmd()

	updated, _ := m.Update(keyPress(tea.KeyDown, ""))
	typed := updated.(model)
	if typed.currentField() != form.FieldMaxDelay {
		t.Fatalf("expected max delay field, got %s", typed.currentField())
	}
	if got := typed.sess.Form().Snapshot().MaxDelay; got != "151" {
		t.Fatalf("expected max delay 151, got %q", got)
	}
	if typed.inputs.maxDelay.Value() != "151" {
		t.Fatalf("expected max input 151, got %q", typed.inputs.maxDelay.Value())
	}
}

func TestStartSuccessClearsPathInputs(t *testing.T) {
	m := launchModel(t, form.FieldPostID)
	m.inputs.tokens.SetValue("/tmp/tokens.txt")
	m.inputs.comments.SetValue("/tmp/comments.txt")
	m.pendingActions = 1

	updated, _ := m.Update(startDoneMsg{result: lifecycle.StartResult{TaskID: "task-9"}})
	typed := updated.(model)
	if typed.inputs.tokens.Value() != "" || typed.inputs.comments.Value() != "" {
		t.Fatal("expected file path inputs to be cleared")
	}
	if !strings.Contains(typed.statusText, "task-9") {
		t.Fatalf("expected status to mention task-9, got %q", typed.statusText)
	}
	if typed.pendingActions != 0 {
		t.Fatalf("expected no pending actions, got %d", typed.pendingActions)
	}
}

func TestValidationErrorFocusesField(t *testing.T) {
	m := launchModel(t, form.FieldTokens)
	updated, _ := m.Update(startDoneMsg{err: &consoleerr.ValidationError{
		Field:   string(form.FieldPostID),
		Message: "Post ID is required",
	}})
	typed := updated.(model)
	if typed.currentField() != form.FieldPostID {
		t.Fatalf("expected post id field focused, got %s", typed.currentField())
	}
	if typed.errorText != "Post ID is required" {
		t.Fatalf("unexpected error text %q", typed.errorText)
	}
	if !typed.inputs.postID.Focused() {
		t.Fatal("expected post id input to hold the cursor")
	}
}

func TestTaskCursorClampsWhenListShrinks(t *testing.T) {
	m := newTestModel(t)
	m.tasks = []tasks.TaskSummary{{TaskID: "a"}, {TaskID: "b"}, {TaskID: "c"}}
	m.rebuildTaskRows()
	m.tasksTable.SetCursor(2)

	m.tasks = []tasks.TaskSummary{{TaskID: "a"}}
	m.rebuildTaskRows()
	if m.tasksTable.Cursor() != 0 {
		t.Fatalf("expected cursor normalized to 0, got %d", m.tasksTable.Cursor())
	}
	selected, ok := m.selectedTask()
	if !ok || selected.TaskID != "a" {
		t.Fatalf("expected task a selected, got %+v", selected)
	}
}

func TestStopSelectedWithoutTasksReportsError(t *testing.T) {
	m := newTestModel(t)
	m.activeView = viewTasks
	m.focus = focusWorkbench
	_ = m.applyFocusCmd()

	updated, cmd := m.Update(keyRune('s'))
	typed := updated.(model)
	if cmd != nil {
		t.Fatal("expected no command without a selected task")
	}
	if typed.errorText != "no task selected" {
		t.Fatalf("unexpected error text %q", typed.errorText)
	}
}

func TestSubmitCommandStartsTask(t *testing.T) {
	m := newTestModel(t)
	dir := t.TempDir()
	for name, kind := range map[string]tasks.ResourceKind{"tokens.txt": tasks.KindTokens, "comments.txt": tasks.KindComments} {
		path := filepath.Join(dir, name)
		if err := os.WriteFile(path, []byte("line\n"), 0o644); err != nil {
			t.Fatalf("write %s: %v", name, err)
		}
		msg := m.uploadCmd(kind, path)().(uploadDoneMsg)
		if msg.err != nil {
			t.Fatalf("upload %s: %v", kind, msg.err)
		}
	}
	m.inputs.postID.SetValue("  123_456  ")
	m.pushInputs()

	msg := m.submitCmd()().(startDoneMsg)
	if msg.err != nil {
		t.Fatalf("submit: %v", msg.err)
	}
	if msg.result.TaskID != "task-7" {
		t.Fatalf("expected task-7, got %s", msg.result.TaskID)
	}
	if msg.result.Config.PostID != "123_456" {
		t.Fatalf("expected trimmed post id, got %q", msg.result.Config.PostID)
	}
}

func TestRenderViewCoversEveryView(t *testing.T) {
	m := newTestModel(t)
	for _, view := range allViews() {
		m.activeView = view
		m.refreshInspector()
		out := m.renderView()
		if !strings.Contains(out, "commentctl") {
			t.Fatalf("expected header in %s view", view)
		}
	}
}
