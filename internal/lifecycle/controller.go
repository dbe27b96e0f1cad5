package lifecycle

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync/atomic"
	"time"

	"github.com/dwizi/commentctl/internal/apiclient"
	"github.com/dwizi/commentctl/internal/binder"
	"github.com/dwizi/commentctl/internal/consoleerr"
	"github.com/dwizi/commentctl/internal/form"
	"github.com/dwizi/commentctl/internal/livesync"
	"github.com/dwizi/commentctl/internal/notify"
	"github.com/dwizi/commentctl/internal/tasks"
)

// ErrNoTracker is returned by Inspect when the controller was built without
// a status tracker.
var ErrNoTracker = errors.New("task status tracker not configured")

type Registry interface {
	StartTask(ctx context.Context, cfg tasks.TaskConfig) (apiclient.StartTaskResponse, error)
	StopTask(ctx context.Context, taskID string) (string, error)
}

type Resources interface {
	UploadFile(ctx context.Context, kind tasks.ResourceKind, path string) (binder.Resource, error)
	Upload(ctx context.Context, kind tasks.ResourceKind, filename string, content io.Reader) (binder.Resource, error)
	Bindings() form.Bindings
	Reset()
}

type Tracker interface {
	RequestRefresh(ctx context.Context) error
	Detail(ctx context.Context, taskID string) (livesync.Detail, error)
}

type Recorder interface {
	RecordStart(ctx context.Context, registry, taskID string, cfg tasks.TaskConfig) error
	RecordStop(ctx context.Context, registry, taskID, message string) error
}

type Options struct {
	Logger         *slog.Logger
	Journal        Recorder
	RegistryName   string
	RequestTimeout time.Duration
}

type StartResult struct {
	TaskID string
	Config tasks.TaskConfig
}

// Controller runs the operator actions. Each control is disabled while its
// request is in flight; a second trigger gets ErrControlBusy.
type Controller struct {
	registry     Registry
	form         *form.Form
	resources    Resources
	tracker      Tracker
	alerts       *notify.Queue
	journal      Recorder
	logger       *slog.Logger
	registryName string
	timeout      time.Duration

	startBusy atomic.Bool
	stopBusy  atomic.Bool
	uploading map[tasks.ResourceKind]*atomic.Bool
}

func New(registry Registry, f *form.Form, resources Resources, tracker Tracker, alerts *notify.Queue, opts Options) *Controller {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	if alerts == nil {
		alerts = notify.NewQueue(notify.DefaultTTL)
	}
	uploading := map[tasks.ResourceKind]*atomic.Bool{}
	for _, kind := range tasks.Kinds() {
		uploading[kind] = &atomic.Bool{}
	}
	return &Controller{
		registry:     registry,
		form:         f,
		resources:    resources,
		tracker:      tracker,
		alerts:       alerts,
		journal:      opts.Journal,
		logger:       logger,
		registryName: opts.RegistryName,
		timeout:      opts.RequestTimeout,
		uploading:    uploading,
	}
}

func (c *Controller) StartBusy() bool { return c.startBusy.Load() }
func (c *Controller) StopBusy() bool  { return c.stopBusy.Load() }

func (c *Controller) UploadBusy(kind tasks.ResourceKind) bool {
	flag, ok := c.uploading[kind]
	return ok && flag.Load()
}

func (c *Controller) Form() *form.Form { return c.form }

func (c *Controller) Alerts() *notify.Queue { return c.alerts }

// UploadFile binds a file from disk, reporting progress and the outcome.
func (c *Controller) UploadFile(ctx context.Context, kind tasks.ResourceKind, path string) (binder.Resource, error) {
	return c.upload(ctx, kind, func(ctx context.Context) (binder.Resource, error) {
		return c.resources.UploadFile(ctx, kind, path)
	})
}

func (c *Controller) Upload(ctx context.Context, kind tasks.ResourceKind, filename string, content io.Reader) (binder.Resource, error) {
	return c.upload(ctx, kind, func(ctx context.Context) (binder.Resource, error) {
		return c.resources.Upload(ctx, kind, filename, content)
	})
}

func (c *Controller) upload(ctx context.Context, kind tasks.ResourceKind, run func(context.Context) (binder.Resource, error)) (binder.Resource, error) {
	flag, ok := c.uploading[kind]
	if !ok {
		err := fmt.Errorf("%w: %q", consoleerr.ErrUnknownKind, kind)
		c.alerts.Danger(err.Error())
		return binder.Resource{}, err
	}
	if !flag.CompareAndSwap(false, true) {
		return binder.Resource{}, consoleerr.ErrControlBusy
	}
	defer flag.Store(false)

	token := c.alerts.ShowLoading(fmt.Sprintf("Uploading %s file...", kind))
	defer c.alerts.HideLoading(token)

	reqCtx, cancel := c.requestContext(ctx)
	defer cancel()
	resource, err := run(reqCtx)
	switch {
	case errors.Is(err, consoleerr.ErrStaleUpload):
		c.alerts.Warn(fmt.Sprintf("%s upload finished after the form was reset and was discarded", kind.Title()))
		return binder.Resource{}, err
	case err != nil:
		c.alerts.Danger(failureMessage("upload "+string(kind)+" file", "uploading "+string(kind)+" file", err))
		return binder.Resource{}, err
	}
	c.alerts.Success(fmt.Sprintf("%s file uploaded successfully!", kind.Title()))
	return resource, nil
}

// Submit validates the form against the current bindings and starts a task.
// Validation failures never reach the registry.
func (c *Controller) Submit(ctx context.Context) (StartResult, error) {
	if c.startBusy.Load() {
		return StartResult{}, consoleerr.ErrControlBusy
	}
	cfg, err := form.Build(c.form.Snapshot(), c.resources.Bindings())
	if err != nil {
		c.alerts.Danger(consoleerr.UserMessage(err))
		return StartResult{}, err
	}
	return c.Start(ctx, cfg)
}

// Start submits cfg. On success the form and bindings return to defaults and
// a refresh is requested; on failure the form is left as it was.
func (c *Controller) Start(ctx context.Context, cfg tasks.TaskConfig) (StartResult, error) {
	result, err := c.start(ctx, cfg)
	if err != nil {
		return StartResult{}, err
	}
	c.refresh(ctx)
	return result, nil
}

// start runs the request with the control disabled and the loading notice
// shown. Both are released before Start requests the follow-up refresh.
func (c *Controller) start(ctx context.Context, cfg tasks.TaskConfig) (StartResult, error) {
	if !c.startBusy.CompareAndSwap(false, true) {
		return StartResult{}, consoleerr.ErrControlBusy
	}
	defer c.startBusy.Store(false)

	token := c.alerts.ShowLoading("Starting task...")
	defer c.alerts.HideLoading(token)

	reqCtx, cancel := c.requestContext(ctx)
	response, err := c.registry.StartTask(reqCtx, cfg)
	cancel()
	if err != nil {
		c.logger.Warn("start task failed", "post_id", cfg.PostID, "error", err)
		c.alerts.Danger(failureMessage("start task", "starting task", err))
		return StartResult{}, err
	}

	c.form.Reset()
	c.resources.Reset()
	c.logger.Info("task started", "task_id", response.TaskID, "post_id", cfg.PostID, "delay", cfg.Delay.Describe())
	c.alerts.Success("Task started successfully! Task ID: " + response.TaskID)
	if c.journal != nil {
		if err := c.journal.RecordStart(ctx, c.registryName, response.TaskID, cfg); err != nil {
			c.logger.Warn("journal start failed", "task_id", response.TaskID, "error", err)
		}
	}
	return StartResult{TaskID: response.TaskID, Config: cfg}, nil
}

// Stop stops the task named in the form's stop field.
func (c *Controller) Stop(ctx context.Context) (string, error) {
	return c.StopTask(ctx, c.form.Snapshot().StopTaskID)
}

// StopTask stops taskID. On success the stop field is cleared if it named
// this task; on failure it is left intact.
func (c *Controller) StopTask(ctx context.Context, taskID string) (string, error) {
	message, err := c.stop(ctx, strings.TrimSpace(taskID))
	if err != nil {
		return "", err
	}
	c.refresh(ctx)
	return message, nil
}

func (c *Controller) stop(ctx context.Context, taskID string) (string, error) {
	if taskID == "" {
		c.alerts.Danger("Please enter a Task ID")
		return "", consoleerr.ErrTaskIDRequired
	}
	if !c.stopBusy.CompareAndSwap(false, true) {
		return "", consoleerr.ErrControlBusy
	}
	defer c.stopBusy.Store(false)

	token := c.alerts.ShowLoading("Stopping task...")
	defer c.alerts.HideLoading(token)

	reqCtx, cancel := c.requestContext(ctx)
	message, err := c.registry.StopTask(reqCtx, taskID)
	cancel()
	if err != nil {
		c.logger.Warn("stop task failed", "task_id", taskID, "error", err)
		c.alerts.Danger(failureMessage("stop task", "stopping task", err))
		return "", err
	}

	c.form.Update(func(state *form.State) {
		if strings.TrimSpace(state.StopTaskID) == taskID {
			state.StopTaskID = ""
		}
	})
	if strings.TrimSpace(message) == "" {
		message = fmt.Sprintf("Task %s stopped successfully", taskID)
	}
	c.logger.Info("task stopped", "task_id", taskID)
	c.alerts.Success(message)
	if c.journal != nil {
		if err := c.journal.RecordStop(ctx, c.registryName, taskID, message); err != nil {
			c.logger.Warn("journal stop failed", "task_id", taskID, "error", err)
		}
	}
	return message, nil
}

// Inspect loads one task's detail, alerting on failure.
func (c *Controller) Inspect(ctx context.Context, taskID string) (livesync.Detail, error) {
	if strings.TrimSpace(taskID) == "" {
		c.alerts.Danger("Please enter a Task ID")
		return livesync.Detail{}, consoleerr.ErrTaskIDRequired
	}
	if c.tracker == nil {
		return livesync.Detail{}, ErrNoTracker
	}
	detail, err := c.tracker.Detail(ctx, taskID)
	if err != nil {
		c.alerts.Danger(failureMessage("load task status", "loading task status", err))
		return livesync.Detail{}, err
	}
	return detail, nil
}

func (c *Controller) refresh(ctx context.Context) {
	if c.tracker == nil {
		return
	}
	if err := c.tracker.RequestRefresh(ctx); err != nil {
		c.logger.Warn("refresh after action failed", "error", err)
	}
}

func (c *Controller) requestContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if c.timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, c.timeout)
}

// failureMessage phrases registry rejections as "Failed to ..." and
// transport problems as "Error ...".
func failureMessage(verb, gerund string, err error) string {
	message := consoleerr.UserMessage(err)
	if errors.Is(err, consoleerr.ErrTransport) {
		return fmt.Sprintf("Error %s: %s", gerund, message)
	}
	return fmt.Sprintf("Failed to %s: %s", verb, message)
}
