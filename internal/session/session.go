package session

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/dwizi/commentctl/internal/activitylog"
	"github.com/dwizi/commentctl/internal/apiclient"
	"github.com/dwizi/commentctl/internal/binder"
	"github.com/dwizi/commentctl/internal/config"
	"github.com/dwizi/commentctl/internal/consoleerr"
	"github.com/dwizi/commentctl/internal/filewatch"
	"github.com/dwizi/commentctl/internal/form"
	"github.com/dwizi/commentctl/internal/heartbeat"
	"github.com/dwizi/commentctl/internal/journal"
	"github.com/dwizi/commentctl/internal/lifecycle"
	"github.com/dwizi/commentctl/internal/livesync"
	"github.com/dwizi/commentctl/internal/notify"
	"github.com/dwizi/commentctl/internal/observability"
	"github.com/dwizi/commentctl/internal/tasks"
)

// Version is stamped at build time.
var Version = "dev"

// Session owns everything one operator console needs: the form, the bound
// resources, the alert queue, the synchronizer and the controller. Nothing
// here is global; two sessions never share state.
type Session struct {
	cfg     config.Config
	logger  *slog.Logger
	client  *apiclient.Client
	metrics *observability.Metrics
	health  *heartbeat.Registry
	alerts  *notify.Queue
	form    *form.Form
	binder  *binder.Binder

	resources  *trackedResources
	syncer     *livesync.Synchronizer
	controller *lifecycle.Controller
	journal    *journal.Journal
	watcher    *filewatch.Service
	monitor    *heartbeat.Monitor

	runOnce   sync.Once
	closeOnce sync.Once
	closeErr  error
}

// New wires a session around client. A nil client is built from cfg.
func New(cfg config.Config, client *apiclient.Client, logger *slog.Logger) (*Session, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if client == nil {
		built, err := apiclient.New(cfg)
		if err != nil {
			return nil, err
		}
		client = built
	}

	metrics := observability.NewMetrics()
	client = client.WithObserver(metrics)

	health := heartbeat.NewRegistry()
	alerts := notify.NewQueue(cfg.AlertTTL())
	alerts.OnPush(func(alert notify.Alert) {
		metrics.ObserveAlert(string(alert.Level))
		if err := activitylog.Append(activitylog.Entry{
			Dir:         cfg.ActivityLogDir,
			Environment: cfg.Environment,
			Registry:    client.BaseURL(),
			Level:       string(alert.Level),
			Message:     alert.Message,
			Timestamp:   alert.CreatedAt,
		}); err != nil {
			logger.Warn("activity log append failed", "dir", cfg.ActivityLogDir, "error", err)
		}
	})

	s := &Session{
		cfg:     cfg,
		logger:  logger,
		client:  client,
		metrics: metrics,
		health:  health,
		alerts:  alerts,
		form:    form.New(),
		binder:  binder.New(client, cfg.MaxUploadBytes, logger.With("component", "binder")),
	}
	s.resources = &trackedResources{Binder: s.binder, logger: logger}

	s.syncer = livesync.New(client, livesync.Options{
		Schedule:       cfg.PollSchedule,
		RequestTimeout: cfg.RequestTimeout(),
		Logger:         logger.With("component", "livesync"),
		Health:         health,
		Metrics:        metrics,
	})

	opts := lifecycle.Options{
		Logger:         logger.With("component", "lifecycle"),
		RegistryName:   client.BaseURL(),
		RequestTimeout: cfg.RequestTimeout(),
	}
	if cfg.JournalEnabled {
		if err := s.openJournal(); err != nil {
			logger.Warn("task journal unavailable", "path", cfg.JournalPath, "error", err)
			health.Degrade(heartbeat.ComponentJournal, "journal unavailable", err)
		} else {
			opts.Journal = s.journal
		}
	} else {
		health.Disabled(heartbeat.ComponentJournal, "journal disabled")
	}
	s.controller = lifecycle.New(client, s.form, s.resources, s.syncer, alerts, opts)

	if cfg.ReuploadOnChange {
		watcher, err := filewatch.New(logger.With("component", "filewatch"), health, filewatch.DefaultDebounce, s.reupload)
		if err != nil {
			logger.Warn("bound file watcher unavailable", "error", err)
			health.Degrade(heartbeat.ComponentWatcher, "watcher unavailable", err)
		} else {
			s.watcher = watcher
			s.resources.watcher = watcher
		}
	} else {
		health.Disabled(heartbeat.ComponentWatcher, "re-upload on change disabled")
	}
	if strings.TrimSpace(cfg.MetricsAddr) == "" {
		health.Disabled(heartbeat.ComponentMetrics, "metrics address not set")
	}

	interval := s.syncer.Interval()
	s.monitor = heartbeat.NewMonitor(health, heartbeat.MonitorConfig{
		Interval:     interval,
		StaleAfter:   3 * interval,
		Logger:       logger.With("component", "heartbeat"),
		OnTransition: newTransitionNotifier(alerts, logger).HandleTransition,
	})
	return s, nil
}

func (s *Session) openJournal() error {
	store, err := journal.Open(s.cfg.JournalPath)
	if err != nil {
		return err
	}
	if err := store.AutoMigrate(context.Background()); err != nil {
		store.Close()
		return err
	}
	s.journal = store
	s.health.Beat(heartbeat.ComponentJournal, "journal open")
	return nil
}

func (s *Session) Config() config.Config { return s.cfg }
func (s *Session) Client() *apiclient.Client { return s.client }
func (s *Session) Controller() *lifecycle.Controller { return s.controller }
func (s *Session) Synchronizer() *livesync.Synchronizer { return s.syncer }
func (s *Session) Alerts() *notify.Queue { return s.alerts }
func (s *Session) Form() *form.Form { return s.form }
func (s *Session) Binder() *binder.Binder { return s.binder }
func (s *Session) Health() *heartbeat.Registry { return s.health }
func (s *Session) Metrics() *observability.Metrics { return s.metrics }
func (s *Session) Watcher() *filewatch.Service { return s.watcher }
func (s *Session) HealthSnapshot() heartbeat.Snapshot { return s.health.Snapshot(3 * s.syncer.Interval()) }
func (s *Session) Journal() (*journal.Journal, bool) { return s.journal, s.journal != nil }

// Run drives the background loops until ctx is done: the poller, the bound
// file watcher, the metrics listener and the health monitor. A session runs
// at most once.
func (s *Session) Run(ctx context.Context) error {
	started := false
	s.runOnce.Do(func() { started = true })
	if !started {
		return errors.New("session already running")
	}
	s.logger.Info("session starting",
		"registry", s.client.BaseURL(),
		"poll_interval", s.syncer.Interval().String(),
		"journal", s.journal != nil,
		"watcher", s.watcher != nil,
	)

	group, groupCtx := errgroup.WithContext(ctx)
	group.Go(func() error {
		return s.syncer.Run(groupCtx)
	})
	if s.watcher != nil {
		group.Go(func() error {
			return s.watcher.Run(groupCtx)
		})
	}
	if addr := strings.TrimSpace(s.cfg.MetricsAddr); addr != "" {
		group.Go(func() error {
			if err := observability.Serve(groupCtx, addr, s.Router(), s.health, s.logger.With("component", "observability")); err != nil {
				s.logger.Error("metrics server failed", "addr", addr, "error", err)
				s.alerts.Warn(fmt.Sprintf("Metrics server on %s stopped: %v", addr, err))
			}
			return nil
		})
	}
	group.Go(func() error {
		return s.monitor.Run(groupCtx)
	})
	err := group.Wait()
	s.logger.Info("session stopped")
	return err
}

// Router exposes health, metrics and the tracked tasks over HTTP.
func (s *Session) Router() http.Handler {
	deps := observability.Dependencies{
		Environment: s.cfg.Environment,
		RegistryURL: s.client.BaseURL(),
		Version:     Version,
		Metrics:     s.metrics,
		Health:      s.health,
		StaleAfter:  3 * s.syncer.Interval(),
		Tasks:       s.syncer,
		Logger:      s.logger.With("component", "observability"),
	}
	if s.journal != nil {
		deps.Journal = s.journal
	}
	return observability.NewRouter(deps)
}

func (s *Session) reupload(ctx context.Context, kind tasks.ResourceKind, path string) {
	_, err := s.controller.UploadFile(ctx, kind, path)
	switch {
	case err == nil:
		s.logger.Info("bound file re-uploaded", "kind", kind, "path", path)
	case errors.Is(err, consoleerr.ErrControlBusy):
		s.logger.Debug("re-upload skipped, upload in flight", "kind", kind)
	default:
		s.logger.Warn("re-upload failed", "kind", kind, "path", path, "error", err)
	}
}

// Close releases the journal. Call it after Run has returned.
func (s *Session) Close() error {
	s.closeOnce.Do(func() {
		if s.journal != nil {
			s.closeErr = s.journal.Close()
		}
	})
	return s.closeErr
}

// trackedResources keeps the file watcher in step with the binder: files
// bound from disk are watched, anything else is not.
type trackedResources struct {
	*binder.Binder
	watcher *filewatch.Service
	logger  *slog.Logger
}

func (r *trackedResources) UploadFile(ctx context.Context, kind tasks.ResourceKind, path string) (binder.Resource, error) {
	resource, err := r.Binder.UploadFile(ctx, kind, path)
	if err != nil || r.watcher == nil {
		return resource, err
	}
	if trackErr := r.watcher.Track(kind, resource.SourcePath); trackErr != nil {
		r.logger.Warn("watch bound file failed", "kind", kind, "path", resource.SourcePath, "error", trackErr)
	}
	return resource, nil
}

func (r *trackedResources) Upload(ctx context.Context, kind tasks.ResourceKind, filename string, content io.Reader) (binder.Resource, error) {
	resource, err := r.Binder.Upload(ctx, kind, filename, content)
	if err == nil && r.watcher != nil {
		r.watcher.Untrack(kind)
	}
	return resource, err
}

func (r *trackedResources) Reset() {
	r.Binder.Reset()
	if r.watcher != nil {
		r.watcher.UntrackAll()
	}
}
