package filewatch

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/dwizi/commentctl/internal/tasks"
)

type change struct {
	kind tasks.ResourceKind
	path string
}

func TestServiceReportsEditsToTrackedFiles(t *testing.T) {
	dir := t.TempDir()
	tokens := filepath.Join(dir, "tokens.txt")
	other := filepath.Join(dir, "notes.txt")
	for _, path := range []string{tokens, other} {
		if err := os.WriteFile(path, []byte("v1\n"), 0o644); err != nil {
			t.Fatalf("write %s: %v", path, err)
		}
	}

	changes := make(chan change, 4)
	service, err := New(nil, nil, 20*time.Millisecond, func(ctx context.Context, kind tasks.ResourceKind, path string) {
		changes <- change{kind: kind, path: path}
	})
	if err != nil {
		t.Fatalf("new watcher: %v", err)
	}
	if err := service.Track(tasks.KindTokens, tokens); err != nil {
		t.Fatalf("track: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- service.Run(ctx) }()
	time.Sleep(20 * time.Millisecond)

	if err := os.WriteFile(other, []byte("ignored\n"), 0o644); err != nil {
		t.Fatalf("write other: %v", err)
	}
	for range 3 {
		if err := os.WriteFile(tokens, []byte("v2\n"), 0o644); err != nil {
			t.Fatalf("write tokens: %v", err)
		}
	}

	select {
	case got := <-changes:
		absolute, _ := filepath.Abs(tokens)
		if got.kind != tasks.KindTokens || got.path != absolute {
			t.Fatalf("unexpected change: %+v", got)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("expected change notification")
	}
	select {
	case extra := <-changes:
		t.Fatalf("expected burst to be debounced, got extra %+v", extra)
	case <-time.After(100 * time.Millisecond):
	}

	cancel()
	if err := <-done; err != nil {
		t.Fatalf("run: %v", err)
	}
}

func TestTrackReplacesPathPerKind(t *testing.T) {
	dir := t.TempDir()
	first := filepath.Join(dir, "a.txt")
	second := filepath.Join(dir, "b.txt")

	service, err := New(nil, nil, 0, nil)
	if err != nil {
		t.Fatalf("new watcher: %v", err)
	}
	defer service.watcher.Close()

	if err := service.Track(tasks.KindComments, first); err != nil {
		t.Fatalf("track first: %v", err)
	}
	if err := service.Track(tasks.KindComments, second); err != nil {
		t.Fatalf("track second: %v", err)
	}
	tracked := service.Tracked()
	if len(tracked) != 1 || filepath.Base(tracked[tasks.KindComments]) != "b.txt" {
		t.Fatalf("unexpected tracked set: %v", tracked)
	}
	if service.dirs[dir] != 1 {
		t.Fatalf("expected one watch on the directory, got %d", service.dirs[dir])
	}

	service.UntrackAll()
	if len(service.Tracked()) != 0 || len(service.dirs) != 0 {
		t.Fatal("expected nothing tracked")
	}
	if err := service.Track(tasks.KindTokens, " "); err == nil {
		t.Fatal("expected error for empty path")
	}
}
