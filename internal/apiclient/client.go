package apiclient

import (
	"bytes"
	"context"
	"crypto/tls"
	"crypto/x509"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/dwizi/commentctl/internal/config"
	"github.com/dwizi/commentctl/internal/consoleerr"
	"github.com/dwizi/commentctl/internal/tasks"
)

// Observer receives one call per registry request. outcome is "ok",
// "transport" or "application".
type Observer interface {
	ObserveRequest(op, outcome string, elapsed time.Duration)
}

type Client struct {
	baseURL  string
	http     *http.Client
	observer Observer
}

type StartTaskResponse struct {
	TaskID  string
	Message string
}

type envelope struct {
	Success *bool  `json:"success"`
	Error   string `json:"error"`
}

type uploadResponse struct {
	envelope
	Files map[string]string `json:"files"`
}

type startTaskResponse struct {
	envelope
	TaskID  string `json:"task_id"`
	Message string `json:"message"`
}

type stopTaskResponse struct {
	envelope
	Message string `json:"message"`
}

type runningTasksResponse struct {
	envelope
	Tasks []tasks.TaskSummary `json:"tasks"`
}

type taskStatusResponse struct {
	envelope
	Stats tasks.TaskDetail `json:"stats"`
}

func (e envelope) failed() bool {
	return e.Success == nil || !*e.Success
}

func New(cfg config.Config) (*Client, error) {
	tlsConfig := &tls.Config{
		MinVersion:         tls.VersionTLS12,
		InsecureSkipVerify: cfg.TLSSkipVerify,
	}
	if cfg.TLSCAFile != "" {
		caBytes, err := os.ReadFile(cfg.TLSCAFile)
		if err != nil {
			return nil, fmt.Errorf("read tls ca file: %w", err)
		}
		certPool := x509.NewCertPool()
		if ok := certPool.AppendCertsFromPEM(caBytes); !ok {
			return nil, fmt.Errorf("parse tls ca file")
		}
		tlsConfig.RootCAs = certPool
	}
	if cfg.TLSCertFile != "" || cfg.TLSKeyFile != "" {
		if cfg.TLSCertFile == "" || cfg.TLSKeyFile == "" {
			return nil, fmt.Errorf("both COMMENTCTL_TLS_CERT_FILE and COMMENTCTL_TLS_KEY_FILE are required")
		}
		clientCert, err := tls.LoadX509KeyPair(cfg.TLSCertFile, cfg.TLSKeyFile)
		if err != nil {
			return nil, fmt.Errorf("load tls client cert: %w", err)
		}
		tlsConfig.Certificates = []tls.Certificate{clientCert}
	}

	baseURL := strings.TrimRight(strings.TrimSpace(cfg.APIURL), "/")
	if baseURL == "" {
		return nil, fmt.Errorf("registry url is required")
	}
	if _, err := url.Parse(baseURL); err != nil {
		return nil, fmt.Errorf("parse registry url: %w", err)
	}

	timeout := time.Duration(cfg.HTTPTimeoutSec) * time.Second
	if timeout < time.Second {
		timeout = 30 * time.Second
	}

	return &Client{
		baseURL: baseURL,
		http: &http.Client{
			Transport: &http.Transport{
				TLSClientConfig: tlsConfig,
			},
			Timeout: timeout,
		},
	}, nil
}

func (c *Client) WithTimeout(timeout time.Duration) *Client {
	if c == nil {
		return nil
	}
	if timeout < time.Second {
		return c
	}
	clone := *c
	if c.http == nil {
		clone.http = &http.Client{Timeout: timeout}
		return &clone
	}
	httpClone := *c.http
	httpClone.Timeout = timeout
	clone.http = &httpClone
	return &clone
}

// WithObserver returns a copy that reports every request to observer.
func (c *Client) WithObserver(observer Observer) *Client {
	if c == nil {
		return nil
	}
	clone := *c
	clone.observer = observer
	return &clone
}

func (c *Client) BaseURL() string {
	return c.baseURL
}

// Upload sends one file as multipart form data under the field named after
// kind and returns the reference the registry assigned to it.
func (c *Client) Upload(ctx context.Context, kind tasks.ResourceKind, filename string, content io.Reader) (string, error) {
	const op = "upload"
	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	part, err := writer.CreateFormFile(string(kind), filename)
	if err != nil {
		return "", fmt.Errorf("build upload form: %w", err)
	}
	if _, err := io.Copy(part, content); err != nil {
		return "", fmt.Errorf("read %s file: %w", kind, err)
	}
	if err := writer.Close(); err != nil {
		return "", fmt.Errorf("build upload form: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/upload", &body)
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	var response uploadResponse
	if err := c.doJSON(op, req, &response, &response.envelope); err != nil {
		return "", err
	}
	ref := strings.TrimSpace(response.Files[string(kind)])
	if ref == "" {
		return "", &consoleerr.ApplicationError{Op: op, Message: fmt.Sprintf("registry returned no reference for %s", kind)}
	}
	return ref, nil
}

func (c *Client) StartTask(ctx context.Context, cfg tasks.TaskConfig) (StartTaskResponse, error) {
	const op = "start_task"
	requestBody, err := json.Marshal(cfg)
	if err != nil {
		return StartTaskResponse{}, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/start_task", bytes.NewReader(requestBody))
	if err != nil {
		return StartTaskResponse{}, err
	}
	req.Header.Set("Content-Type", "application/json")

	var response startTaskResponse
	if err := c.doJSON(op, req, &response, &response.envelope); err != nil {
		return StartTaskResponse{}, err
	}
	if strings.TrimSpace(response.TaskID) == "" {
		return StartTaskResponse{}, &consoleerr.TransportError{Op: op, Err: fmt.Errorf("response is missing task_id")}
	}
	return StartTaskResponse{TaskID: response.TaskID, Message: response.Message}, nil
}

func (c *Client) StopTask(ctx context.Context, taskID string) (string, error) {
	const op = "stop_task"
	taskID = strings.TrimSpace(taskID)
	if taskID == "" {
		return "", consoleerr.ErrTaskIDRequired
	}
	requestBody, err := json.Marshal(map[string]string{"task_id": taskID})
	if err != nil {
		return "", err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/stop_task", bytes.NewReader(requestBody))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")

	var response stopTaskResponse
	if err := c.doJSON(op, req, &response, &response.envelope); err != nil {
		return "", err
	}
	return response.Message, nil
}

func (c *Client) RunningTasks(ctx context.Context) ([]tasks.TaskSummary, error) {
	const op = "running_tasks"
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/running_tasks", nil)
	if err != nil {
		return nil, err
	}
	var response runningTasksResponse
	if err := c.doJSON(op, req, &response, &response.envelope); err != nil {
		return nil, err
	}
	if response.Tasks == nil {
		response.Tasks = []tasks.TaskSummary{}
	}
	return response.Tasks, nil
}

func (c *Client) TaskStatus(ctx context.Context, taskID string) (tasks.TaskDetail, error) {
	const op = "task_status"
	taskID = strings.TrimSpace(taskID)
	if taskID == "" {
		return tasks.TaskDetail{}, consoleerr.ErrTaskIDRequired
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/task_status/"+url.PathEscape(taskID), nil)
	if err != nil {
		return tasks.TaskDetail{}, err
	}
	var response taskStatusResponse
	if err := c.doJSON(op, req, &response, &response.envelope); err != nil {
		return tasks.TaskDetail{}, err
	}
	detail := response.Stats
	detail.TaskID = taskID
	return detail, nil
}

// doJSON runs req and decodes the body into out. env must point at the
// envelope embedded in out so success=false can be reported.
func (c *Client) doJSON(op string, req *http.Request, out any, env *envelope) (err error) {
	started := time.Now()
	defer func() {
		if c.observer == nil {
			return
		}
		c.observer.ObserveRequest(op, outcome(err), time.Since(started))
	}()

	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-ID", uuid.NewString())
	res, err := c.http.Do(req)
	if err != nil {
		return &consoleerr.TransportError{Op: op, Err: err}
	}
	defer res.Body.Close()

	raw, err := io.ReadAll(res.Body)
	if err != nil {
		return &consoleerr.TransportError{Op: op, Err: fmt.Errorf("read response: %w", err)}
	}
	if err := json.Unmarshal(raw, out); err != nil {
		if res.StatusCode >= http.StatusBadRequest {
			return &consoleerr.ApplicationError{Op: op, Message: res.Status, StatusCode: res.StatusCode}
		}
		return &consoleerr.TransportError{Op: op, Err: fmt.Errorf("decode response: %w", err)}
	}
	if env.failed() {
		message := strings.TrimSpace(env.Error)
		if message == "" && res.StatusCode >= http.StatusBadRequest {
			message = res.Status
		}
		return &consoleerr.ApplicationError{Op: op, Message: message, StatusCode: res.StatusCode}
	}
	return nil
}

func outcome(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, consoleerr.ErrApplication):
		return "application"
	default:
		return "transport"
	}
}
