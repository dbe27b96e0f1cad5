package livesync

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/robfig/cron/v3"
	"golang.org/x/sync/semaphore"
	"golang.org/x/sync/singleflight"

	"github.com/dwizi/commentctl/internal/consoleerr"
	"github.com/dwizi/commentctl/internal/heartbeat"
	"github.com/dwizi/commentctl/internal/tasks"
)

const DefaultInterval = 5 * time.Second

type Fetcher interface {
	RunningTasks(ctx context.Context) ([]tasks.TaskSummary, error)
	TaskStatus(ctx context.Context, taskID string) (tasks.TaskDetail, error)
}

type Recorder interface {
	ObservePoll(outcome string)
	SetTrackedTasks(count int)
}

type Options struct {
	Schedule       string
	RequestTimeout time.Duration
	Logger         *slog.Logger
	Health         heartbeat.Reporter
	Metrics        Recorder
	OnUpdate       func([]tasks.TaskSummary)
	Now            func() time.Time
}

// Status describes the outcome of the most recent polls.
type Status struct {
	LastSuccess time.Time
	LastAttempt time.Time
	LastError   error
	Polls       int
	Failures    int
	Skipped     int
}

// Detail is one on-demand task lookup with its derived success rate.
type Detail struct {
	tasks.TaskDetail
	SuccessRate float64
	HasRate     bool
	FetchedAt   time.Time
}

func (d Detail) SuccessRateText() string {
	return tasks.FormatSuccessRate(d.CommentsSent, d.Errors)
}

// Synchronizer keeps the last successfully polled task collection. A failed
// poll never replaces it, and at most one poll is in flight at a time.
type Synchronizer struct {
	fetcher        Fetcher
	logger         *slog.Logger
	health         heartbeat.Reporter
	metrics        Recorder
	onUpdate       func([]tasks.TaskSummary)
	now            func() time.Time
	interval       time.Duration
	requestTimeout time.Duration

	inflight *semaphore.Weighted
	pending  atomic.Bool
	details  singleflight.Group

	mu     sync.RWMutex
	tasks  []tasks.TaskSummary
	status Status
}

func New(fetcher Fetcher, opts Options) *Synchronizer {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	interval, err := ParseInterval(opts.Schedule)
	if err != nil {
		logger.Warn("invalid poll schedule, using default", "schedule", opts.Schedule, "error", err, "interval", DefaultInterval.String())
		interval = DefaultInterval
	}
	return &Synchronizer{
		fetcher:        fetcher,
		logger:         logger,
		health:         opts.Health,
		metrics:        opts.Metrics,
		onUpdate:       opts.OnUpdate,
		now:            now,
		interval:       interval,
		requestTimeout: opts.RequestTimeout,
		inflight:       semaphore.NewWeighted(1),
		tasks:          []tasks.TaskSummary{},
	}
}

// ParseInterval turns a cron descriptor such as "@every 5s" into the gap
// between two consecutive activations. Empty means DefaultInterval.
func ParseInterval(spec string) (time.Duration, error) {
	spec = strings.TrimSpace(spec)
	if spec == "" {
		return DefaultInterval, nil
	}
	schedule, err := cron.ParseStandard(spec)
	if err != nil {
		return 0, err
	}
	if constant, ok := schedule.(cron.ConstantDelaySchedule); ok {
		return constant.Delay, nil
	}
	anchor := time.Date(2000, time.January, 1, 0, 0, 0, 0, time.UTC)
	first := schedule.Next(anchor)
	second := schedule.Next(first)
	if !second.After(first) {
		return 0, fmt.Errorf("schedule %q never repeats", spec)
	}
	return second.Sub(first), nil
}

func (s *Synchronizer) Interval() time.Duration {
	return s.interval
}

// Refresh runs one poll unless another is already in flight, in which case
// it returns ErrRefreshSkipped without touching the network.
func (s *Synchronizer) Refresh(ctx context.Context) error {
	if !s.inflight.TryAcquire(1) {
		s.mu.Lock()
		s.status.Skipped++
		s.mu.Unlock()
		if s.metrics != nil {
			s.metrics.ObservePoll("skipped")
		}
		return consoleerr.ErrRefreshSkipped
	}
	err := s.poll(ctx)
	s.inflight.Release(1)
	if s.pending.Load() {
		s.drain(ctx)
	}
	return err
}

// RequestRefresh asks for a poll now. When one is already running the
// request is remembered and served right after it completes.
func (s *Synchronizer) RequestRefresh(ctx context.Context) error {
	s.pending.Store(true)
	return s.drain(ctx)
}

func (s *Synchronizer) drain(ctx context.Context) error {
	var err error
	for s.pending.Load() {
		if !s.inflight.TryAcquire(1) {
			return nil
		}
		if !s.pending.CompareAndSwap(true, false) {
			s.inflight.Release(1)
			return err
		}
		err = s.poll(ctx)
		s.inflight.Release(1)
	}
	return err
}

func (s *Synchronizer) poll(ctx context.Context) error {
	if s.requestTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.requestTimeout)
		defer cancel()
	}
	attemptAt := s.now().UTC()
	items, err := s.fetcher.RunningTasks(ctx)
	if err != nil {
		s.mu.Lock()
		s.status.LastAttempt = attemptAt
		s.status.LastError = err
		s.status.Polls++
		s.status.Failures++
		s.mu.Unlock()
		s.logger.Warn("task poll failed, keeping previous view", "error", err)
		if s.health != nil {
			s.health.Degrade(heartbeat.ComponentPoller, "poll failed", err)
		}
		if s.metrics != nil {
			s.metrics.ObservePoll("failure")
		}
		return err
	}

	snapshot := make([]tasks.TaskSummary, len(items))
	copy(snapshot, items)
	s.mu.Lock()
	s.tasks = snapshot
	s.status.LastAttempt = attemptAt
	s.status.LastSuccess = attemptAt
	s.status.LastError = nil
	s.status.Polls++
	s.mu.Unlock()

	s.logger.Debug("task poll succeeded", "tasks", len(snapshot))
	if s.health != nil {
		s.health.Beat(heartbeat.ComponentPoller, fmt.Sprintf("%d running", len(snapshot)))
	}
	if s.metrics != nil {
		s.metrics.ObservePoll("success")
		s.metrics.SetTrackedTasks(len(snapshot))
	}
	if s.onUpdate != nil {
		s.onUpdate(s.Tasks())
	}
	return nil
}

// Run polls immediately and then on every interval until ctx is done.
func (s *Synchronizer) Run(ctx context.Context) error {
	if s.health != nil {
		s.health.Starting(heartbeat.ComponentPoller, "polling every "+s.interval.String())
	}
	s.logger.Info("task poller started", "interval", s.interval.String())
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()
	for {
		if err := s.Refresh(ctx); errors.Is(err, consoleerr.ErrRefreshSkipped) {
			s.logger.Debug("poll tick dropped, previous poll still running")
		}
		select {
		case <-ctx.Done():
			if s.health != nil {
				s.health.Stopped(heartbeat.ComponentPoller, "session closed")
			}
			s.logger.Info("task poller stopped")
			return nil
		case <-ticker.C:
		}
	}
}

// Tasks returns a copy of the last successfully polled collection.
func (s *Synchronizer) Tasks() []tasks.TaskSummary {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]tasks.TaskSummary, len(s.tasks))
	copy(out, s.tasks)
	return out
}

func (s *Synchronizer) Status() Status {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.status
}

// Detail fetches one task. Concurrent lookups of the same task share a
// single request. The result is never merged into Tasks.
func (s *Synchronizer) Detail(ctx context.Context, taskID string) (Detail, error) {
	taskID = strings.TrimSpace(taskID)
	if taskID == "" {
		return Detail{}, consoleerr.ErrTaskIDRequired
	}
	value, err, shared := s.details.Do(taskID, func() (any, error) {
		lookupCtx := ctx
		if s.requestTimeout > 0 {
			var cancel context.CancelFunc
			lookupCtx, cancel = context.WithTimeout(ctx, s.requestTimeout)
			defer cancel()
		}
		return s.fetcher.TaskStatus(lookupCtx, taskID)
	})
	if err != nil {
		s.logger.Warn("task detail failed", "task_id", taskID, "error", err)
		return Detail{}, err
	}
	if shared {
		s.logger.Debug("task detail shared with concurrent lookup", "task_id", taskID)
	}
	detail := value.(tasks.TaskDetail)
	detail.TaskID = taskID
	rate, ok := tasks.SuccessRate(detail.CommentsSent, detail.Errors)
	return Detail{
		TaskDetail:  detail,
		SuccessRate: rate,
		HasRate:     ok,
		FetchedAt:   s.now().UTC(),
	}, nil
}
