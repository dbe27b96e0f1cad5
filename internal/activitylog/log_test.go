package activitylog

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestAppendCreatesDailyMarkdownLog(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	at := time.Date(2026, 10, 17, 10, 0, 0, 0, time.UTC)
	for _, message := range []string{"Task started successfully! Task ID: a1", "Task a1 stopped successfully"} {
		if err := Append(Entry{
			Dir:         dir,
			Environment: "Prod EU",
			Registry:    "http://registry",
			Level:       "success",
			Message:     message,
			Timestamp:   at,
		}); err != nil {
			t.Fatalf("append failed: %v", err)
		}
	}

	data, err := os.ReadFile(filepath.Join(dir, "prod-eu", "2026-10-17.md"))
	if err != nil {
		t.Fatalf("read log failed: %v", err)
	}
	content := string(data)
	if strings.Count(content, "# Activity Log") != 1 {
		t.Fatalf("expected one header, got %s", content)
	}
	if !strings.Contains(content, "`SUCCESS`") || !strings.Contains(content, "Task a1 stopped successfully") {
		t.Fatalf("expected both entries, got %s", content)
	}
}

func TestAppendSkipsEmptyMessageOrDir(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	if err := Append(Entry{Dir: dir, Environment: "test", Message: "   "}); err != nil {
		t.Fatalf("append failed: %v", err)
	}
	if _, err := os.Stat(filepath.Join(dir, "test")); !os.IsNotExist(err) {
		t.Fatalf("expected nothing written for empty message, got err=%v", err)
	}
	if err := Append(Entry{Message: "hello"}); err != nil {
		t.Fatalf("empty dir should be a no-op, got %v", err)
	}
}
