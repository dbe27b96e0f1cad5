package observability

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/dwizi/commentctl/internal/heartbeat"
	"github.com/dwizi/commentctl/internal/tasks"
)

type Pinger interface {
	Ping(ctx context.Context) error
}

type TaskSource interface {
	Tasks() []tasks.TaskSummary
}

type Dependencies struct {
	Environment string
	RegistryURL string
	Version     string
	Metrics     *Metrics
	Health      *heartbeat.Registry
	StaleAfter  time.Duration
	Journal     Pinger
	Tasks       TaskSource
	Logger      *slog.Logger
}

type router struct {
	deps Dependencies
}

func NewRouter(deps Dependencies) http.Handler {
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}
	rt := &router{deps: deps}
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Get("/healthz", rt.handleHealth)
	r.Get("/readyz", rt.handleReady)
	r.Get("/api/v1/heartbeat", rt.handleHeartbeat)
	r.Get("/api/v1/info", rt.handleInfo)
	r.Get("/api/v1/tasks", rt.handleTasks)
	if deps.Metrics != nil {
		r.Handle("/metrics", deps.Metrics.Handler())
	}
	return r
}

func (r *router) handleHealth(w http.ResponseWriter, req *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (r *router) handleReady(w http.ResponseWriter, req *http.Request) {
	if r.deps.Journal != nil {
		if err := r.deps.Journal.Ping(req.Context()); err != nil {
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "not-ready", "error": err.Error()})
			return
		}
	}
	if r.deps.Health != nil {
		snapshot := r.deps.Health.Snapshot(r.deps.StaleAfter)
		if poller, ok := snapshot.Component(heartbeat.ComponentPoller); ok && heartbeat.IsDegradedState(poller.State) {
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "not-ready", "error": poller.Error})
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}

func (r *router) handleHeartbeat(w http.ResponseWriter, req *http.Request) {
	if r.deps.Health == nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{
			"status": "unavailable",
			"error":  "health registry is disabled",
		})
		return
	}
	writeJSON(w, http.StatusOK, r.deps.Health.Snapshot(r.deps.StaleAfter))
}

func (r *router) handleInfo(w http.ResponseWriter, req *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"name":        "commentctl",
		"version":     r.deps.Version,
		"environment": r.deps.Environment,
		"registry":    r.deps.RegistryURL,
	})
}

func (r *router) handleTasks(w http.ResponseWriter, req *http.Request) {
	items := []tasks.TaskSummary{}
	if r.deps.Tasks != nil {
		items = r.deps.Tasks.Tasks()
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"items": items,
		"count": len(items),
	})
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

// Serve runs handler on addr until ctx is done.
func Serve(ctx context.Context, addr string, handler http.Handler, health heartbeat.Reporter, logger *slog.Logger) error {
	if logger == nil {
		logger = slog.Default()
	}
	server := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		logger.Info("metrics server listening", "addr", addr)
		errCh <- server.ListenAndServe()
	}()
	if health != nil {
		health.Beat(heartbeat.ComponentMetrics, "listening on "+addr)
	}

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if health != nil {
			health.Stopped(heartbeat.ComponentMetrics, "session closed")
		}
		return server.Shutdown(shutdownCtx)
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		if health != nil {
			health.Degrade(heartbeat.ComponentMetrics, "listener failed", err)
		}
		return err
	}
}
