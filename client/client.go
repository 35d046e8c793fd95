// Package client is the Go client for the taskboard HTTP API together with an
// optimistic, snapshot based view of one project.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/sony/gobreaker"

	"github.com/stsysd/taskboard/logging"
	"github.com/stsysd/taskboard/model"
)

// APIError is a non-2xx response from the server.
type APIError struct {
	Status  int
	Message string
	// Rule is set when the server rejected the request with a rule violation.
	Rule string
}

func (e *APIError) Error() string {
	if e.Rule != "" {
		return fmt.Sprintf("%d %s (%s)", e.Status, e.Message, e.Rule)
	}
	return fmt.Sprintf("%d %s", e.Status, e.Message)
}

// IsNotFound reports whether err is a 404 from the server.
func IsNotFound(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Status == http.StatusNotFound
}

// Client calls the taskboard API. Every call goes through one circuit breaker;
// client errors (4xx) never trip it.
type Client struct {
	baseURL string
	http    *http.Client
	breaker *gobreaker.CircuitBreaker
	logger  logrus.FieldLogger
}

// Option configures a Client.
type Option func(*clientConfig)

type clientConfig struct {
	httpClient *http.Client
	logger     logrus.FieldLogger
	settings   gobreaker.Settings
}

// WithHTTPClient replaces the default http.Client.
func WithHTTPClient(c *http.Client) Option {
	return func(cfg *clientConfig) { cfg.httpClient = c }
}

// WithLogger sets the logger used for breaker state changes.
func WithLogger(l logrus.FieldLogger) Option {
	return func(cfg *clientConfig) { cfg.logger = l }
}

// WithBreakerTimeout sets how long the breaker stays open before probing.
func WithBreakerTimeout(d time.Duration) Option {
	return func(cfg *clientConfig) { cfg.settings.Timeout = d }
}

// WithMaxFailures sets the number of consecutive failures that opens the breaker.
func WithMaxFailures(n uint32) Option {
	return func(cfg *clientConfig) {
		cfg.settings.ReadyToTrip = func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= n
		}
	}
}

// New returns a Client for the server at baseURL, e.g. "http://localhost:3001".
func New(baseURL string, opts ...Option) *Client {
	cfg := &clientConfig{
		httpClient: &http.Client{Timeout: 10 * time.Second},
		logger:     logging.Logger,
		settings: gobreaker.Settings{
			Name:        "taskboard-api",
			MaxRequests: 1,
			Timeout:     30 * time.Second,
		},
	}
	WithMaxFailures(5)(cfg)
	for _, opt := range opts {
		opt(cfg)
	}

	logger := cfg.logger
	cfg.settings.OnStateChange = func(name string, from, to gobreaker.State) {
		logger.WithFields(logrus.Fields{
			"breaker": name,
			"from":    from.String(),
			"to":      to.String(),
		}).Warn("circuit breaker state changed")
	}
	cfg.settings.IsSuccessful = func(err error) bool {
		var apiErr *APIError
		if errors.As(err, &apiErr) {
			return apiErr.Status < http.StatusInternalServerError
		}
		return err == nil
	}

	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    cfg.httpClient,
		breaker: gobreaker.NewCircuitBreaker(cfg.settings),
		logger:  logger,
	}
}

// State returns the current breaker state.
func (c *Client) State() gobreaker.State {
	return c.breaker.State()
}

// ListProjects returns every project with its task count.
func (c *Client) ListProjects(ctx context.Context) ([]*model.ProjectSummary, error) {
	var out []*model.ProjectSummary
	if err := c.do(ctx, http.MethodGet, "/api/projects", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// GetProject returns one project with its tasks.
func (c *Client) GetProject(ctx context.Context, id uuid.UUID) (*model.ProjectWithTasks, error) {
	var out model.ProjectWithTasks
	if err := c.do(ctx, http.MethodGet, "/api/projects/"+id.String(), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// CreateProjects creates one project per name in a single batch.
func (c *Client) CreateProjects(ctx context.Context, names ...string) ([]*model.Project, error) {
	body := struct {
		Projects []model.ProjectInput `json:"projects"`
	}{Projects: make([]model.ProjectInput, len(names))}
	for i := range names {
		body.Projects[i] = model.ProjectInput{Name: &names[i]}
	}
	var out []*model.Project
	if err := c.do(ctx, http.MethodPost, "/api/projects", body, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// UpdateProject applies a partial update to a project.
func (c *Client) UpdateProject(ctx context.Context, id uuid.UUID, patch model.ProjectPatch) (*model.Project, error) {
	var out model.Project
	if err := c.do(ctx, http.MethodPut, "/api/projects/"+id.String(), patch, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// DeleteProject deletes a completed project.
func (c *Client) DeleteProject(ctx context.Context, id uuid.UUID) error {
	return c.do(ctx, http.MethodDelete, "/api/projects/"+id.String(), nil, nil)
}

// CreateTasks creates one task per title under projectID.
func (c *Client) CreateTasks(ctx context.Context, projectID uuid.UUID, titles ...string) ([]*model.Task, error) {
	body := struct {
		Tasks []model.TaskInput `json:"tasks"`
	}{Tasks: make([]model.TaskInput, len(titles))}
	for i := range titles {
		body.Tasks[i] = model.TaskInput{Title: &titles[i]}
	}
	var out []*model.Task
	if err := c.do(ctx, http.MethodPost, "/api/projects/"+projectID.String()+"/tasks", body, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// UpdateTask applies a partial update to a task.
func (c *Client) UpdateTask(ctx context.Context, id uuid.UUID, patch model.TaskPatch) (*model.Task, error) {
	var out model.Task
	if err := c.do(ctx, http.MethodPut, "/api/tasks/"+id.String(), patch, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// DeleteTask deletes a task.
func (c *Client) DeleteTask(ctx context.Context, id uuid.UUID) error {
	return c.do(ctx, http.MethodDelete, "/api/tasks/"+id.String(), nil, nil)
}

// Health checks that the server and its store are up.
func (c *Client) Health(ctx context.Context) error {
	return c.do(ctx, http.MethodGet, "/api/health", nil, nil)
}

func (c *Client) do(ctx context.Context, method, path string, in, out any) error {
	_, err := c.breaker.Execute(func() (interface{}, error) {
		return nil, c.roundTrip(ctx, method, path, in, out)
	})
	return err
}

func (c *Client) roundTrip(ctx context.Context, method, path string, in, out any) error {
	var body io.Reader
	if in != nil {
		buf, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("failed to encode request: %w", err)
		}
		body = bytes.NewReader(buf)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return decodeError(resp)
	}
	if out == nil || resp.StatusCode == http.StatusNoContent {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

func decodeError(resp *http.Response) error {
	apiErr := &APIError{Status: resp.StatusCode}
	var body struct {
		Error   string `json:"error"`
		Message string `json:"message"`
		Rule    string `json:"rule"`
	}
	raw, err := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	if err != nil {
		// a truncated body is not trusted even if it parses
		apiErr.Message = http.StatusText(resp.StatusCode)
		return apiErr
	}
	if err := json.Unmarshal(raw, &body); err == nil {
		apiErr.Message = body.Error
		if apiErr.Message == "" {
			apiErr.Message = body.Message
		}
		apiErr.Rule = body.Rule
	}
	if apiErr.Message == "" {
		apiErr.Message = http.StatusText(resp.StatusCode)
	}
	return apiErr
}
