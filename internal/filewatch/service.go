package filewatch

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/dwizi/commentctl/internal/heartbeat"
	"github.com/dwizi/commentctl/internal/tasks"
)

const DefaultDebounce = 500 * time.Millisecond

type ChangeFunc func(ctx context.Context, kind tasks.ResourceKind, path string)

// Service watches the files bound to each resource kind and reports edits
// once they settle. Parent directories are watched so editors that replace
// files through a rename are still seen.
type Service struct {
	logger   *slog.Logger
	health   heartbeat.Reporter
	onChange ChangeFunc
	debounce time.Duration
	watcher  *fsnotify.Watcher

	mu     sync.Mutex
	ctx    context.Context
	byKind map[tasks.ResourceKind]string
	byPath map[string]tasks.ResourceKind
	dirs   map[string]int
	timers map[string]*time.Timer
}

func New(logger *slog.Logger, health heartbeat.Reporter, debounce time.Duration, onChange ChangeFunc) (*Service, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	fileWatcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create fsnotify watcher: %w", err)
	}
	return &Service{
		logger:   logger,
		health:   health,
		onChange: onChange,
		debounce: debounce,
		watcher:  fileWatcher,
		ctx:      context.Background(),
		byKind:   map[tasks.ResourceKind]string{},
		byPath:   map[string]tasks.ResourceKind{},
		dirs:     map[string]int{},
		timers:   map[string]*time.Timer{},
	}, nil
}

// Track replaces whatever file was watched for kind with path.
func (s *Service) Track(kind tasks.ResourceKind, path string) error {
	path = strings.TrimSpace(path)
	if path == "" {
		return fmt.Errorf("watch %s: path is required", kind)
	}
	absolute, err := filepath.Abs(path)
	if err != nil {
		return fmt.Errorf("resolve %s: %w", path, err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if current, ok := s.byKind[kind]; ok {
		if current == absolute {
			return nil
		}
		s.untrackLocked(kind)
	}
	dir := filepath.Dir(absolute)
	if s.dirs[dir] == 0 {
		if err := s.watcher.Add(dir); err != nil {
			return fmt.Errorf("watch path %s: %w", dir, err)
		}
	}
	s.dirs[dir]++
	s.byKind[kind] = absolute
	s.byPath[absolute] = kind
	s.logger.Info("watching bound file", "kind", kind, "path", absolute)
	return nil
}

func (s *Service) Untrack(kind tasks.ResourceKind) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.untrackLocked(kind)
}

func (s *Service) UntrackAll() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for kind := range s.byKind {
		s.untrackLocked(kind)
	}
}

func (s *Service) untrackLocked(kind tasks.ResourceKind) {
	path, ok := s.byKind[kind]
	if !ok {
		return
	}
	delete(s.byKind, kind)
	delete(s.byPath, path)
	if timer, ok := s.timers[path]; ok {
		timer.Stop()
		delete(s.timers, path)
	}
	dir := filepath.Dir(path)
	s.dirs[dir]--
	if s.dirs[dir] <= 0 {
		delete(s.dirs, dir)
		if err := s.watcher.Remove(dir); err != nil {
			s.logger.Debug("remove watch failed", "path", dir, "error", err)
		}
	}
}

// Tracked returns the watched path per kind.
func (s *Service) Tracked() map[tasks.ResourceKind]string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[tasks.ResourceKind]string, len(s.byKind))
	for kind, path := range s.byKind {
		out[kind] = path
	}
	return out
}

func (s *Service) Run(ctx context.Context) error {
	defer s.watcher.Close()
	s.mu.Lock()
	s.ctx = ctx
	s.mu.Unlock()

	if s.health != nil {
		s.health.Beat(heartbeat.ComponentWatcher, "watching bound files")
	}
	s.logger.Info("bound file watcher started")
	for {
		select {
		case <-ctx.Done():
			s.stopTimers()
			if s.health != nil {
				s.health.Stopped(heartbeat.ComponentWatcher, "session closed")
			}
			s.logger.Info("bound file watcher stopped")
			return nil
		case event, ok := <-s.watcher.Events:
			if !ok {
				return nil
			}
			s.handleEvent(event)
		case err, ok := <-s.watcher.Errors:
			if !ok {
				return nil
			}
			if err != nil {
				s.logger.Error("file watcher error", "error", err)
				if s.health != nil {
					s.health.Degrade(heartbeat.ComponentWatcher, "watch error", err)
				}
			}
		}
	}
}

func (s *Service) handleEvent(event fsnotify.Event) {
	if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
		return
	}
	path := filepath.Clean(event.Name)
	s.mu.Lock()
	defer s.mu.Unlock()
	kind, ok := s.byPath[path]
	if !ok {
		return
	}
	if timer, exists := s.timers[path]; exists {
		timer.Reset(s.debounce)
		return
	}
	s.timers[path] = time.AfterFunc(s.debounce, func() { s.fire(kind, path) })
}

func (s *Service) fire(kind tasks.ResourceKind, path string) {
	s.mu.Lock()
	delete(s.timers, path)
	current, tracked := s.byKind[kind]
	ctx := s.ctx
	s.mu.Unlock()
	if !tracked || current != path || ctx.Err() != nil {
		return
	}
	s.logger.Info("bound file changed", "kind", kind, "path", path)
	if s.health != nil {
		s.health.Beat(heartbeat.ComponentWatcher, "change seen on "+filepath.Base(path))
	}
	if s.onChange != nil {
		s.onChange(ctx, kind, path)
	}
}

func (s *Service) stopTimers() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for path, timer := range s.timers {
		timer.Stop()
		delete(s.timers, path)
	}
}
