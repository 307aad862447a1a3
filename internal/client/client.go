package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"signer-cli/internal/model"

	"github.com/google/uuid"
)

const (
	tasksPath    = "/api/sign/tasks"
	actionsPath  = "/api/meta/actions"
	templatePath = "/api/sign/template"

	// RequestIDHeader carries a per-call id so store logs can be matched to
	// client requests.
	RequestIDHeader = "X-Request-ID"

	DefaultTimeout = 15 * time.Second
)

// Client talks to the sign task store over HTTP.
type Client struct {
	baseURL string
	http    *http.Client
}

func New(baseURL string, timeout time.Duration) (*Client, error) {
	baseURL = strings.TrimSuffix(strings.TrimSpace(baseURL), "/")
	if baseURL == "" {
		return nil, errors.New("server url is required (set --server or SIGNER_SERVER)")
	}
	if _, err := url.ParseRequestURI(baseURL); err != nil {
		return nil, fmt.Errorf("invalid server url %q", baseURL)
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Client{
		baseURL: baseURL,
		http:    &http.Client{Timeout: timeout},
	}, nil
}

// NewWithHTTPClient is used by tests to point at an httptest server.
func NewWithHTTPClient(baseURL string, hc *http.Client) *Client {
	return &Client{baseURL: strings.TrimSuffix(baseURL, "/"), http: hc}
}

func (c *Client) BaseURL() string { return c.baseURL }

func taskPath(name string) string {
	return tasksPath + "/" + url.PathEscape(name)
}

func (c *Client) ListTasks(ctx context.Context) ([]model.TaskSummary, error) {
	var out struct {
		Tasks []model.TaskSummary `json:"tasks"`
	}
	if err := c.do(ctx, "list tasks", http.MethodGet, tasksPath, nil, &out); err != nil {
		return nil, err
	}
	if out.Tasks == nil {
		out.Tasks = []model.TaskSummary{}
	}
	return out.Tasks, nil
}

func (c *Client) GetTask(ctx context.Context, name string) (model.TaskEnvelope, error) {
	var out model.TaskEnvelope
	err := c.do(ctx, "load task", http.MethodGet, taskPath(name), nil, &out)
	return out, err
}

func (c *Client) CreateTask(ctx context.Context, name string) (model.TaskEnvelope, error) {
	var out model.TaskEnvelope
	in := map[string]any{"name": name}
	err := c.do(ctx, "create task", http.MethodPost, tasksPath, in, &out)
	if err == nil && out.Name == "" {
		out.Name = name
	}
	return out, err
}

func (c *Client) UpdateTask(ctx context.Context, name string, cfg model.Task) (model.TaskEnvelope, error) {
	var out model.TaskEnvelope
	in := map[string]any{"config": cfg}
	err := c.do(ctx, "save task", http.MethodPut, taskPath(name), in, &out)
	return out, err
}

func (c *Client) DeleteTask(ctx context.Context, name string) error {
	return c.do(ctx, "delete task", http.MethodDelete, taskPath(name), nil, nil)
}

func (c *Client) ListActions(ctx context.Context) ([]model.ActionTypeDescriptor, error) {
	var out struct {
		Actions []model.ActionTypeDescriptor `json:"actions"`
	}
	if err := c.do(ctx, "load action types", http.MethodGet, actionsPath, nil, &out); err != nil {
		return nil, err
	}
	return out.Actions, nil
}

// Template returns the store's default config for new tasks.
func (c *Client) Template(ctx context.Context) (model.Task, error) {
	var out model.TaskEnvelope
	err := c.do(ctx, "load template", http.MethodGet, templatePath, nil, &out)
	return out.Config, err
}

func (c *Client) do(ctx context.Context, op, method, path string, in, out any) error {
	var body io.Reader
	if in != nil {
		raw, err := json.Marshal(in)
		if err != nil {
			return &FetchError{Op: op, Err: err}
		}
		body = bytes.NewReader(raw)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return &FetchError{Op: op, Err: err}
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set(RequestIDHeader, uuid.NewString())

	resp, err := c.http.Do(req)
	if err != nil {
		return &FetchError{Op: op, Err: err}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return &FetchError{Op: op, Status: resp.StatusCode, Err: err}
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return decodeError(op, resp.StatusCode, raw)
	}
	if out == nil || resp.StatusCode == http.StatusNoContent || len(bytes.TrimSpace(raw)) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return &FetchError{Op: op, Status: resp.StatusCode, Err: fmt.Errorf("decode response: %w", err)}
	}
	return nil
}

type errorBody struct {
	Detail json.RawMessage `json:"detail"`
}

type wireIssue struct {
	Loc []any  `json:"loc"`
	Msg string `json:"msg"`
}

// decodeError maps an error response to the error taxonomy. A structured
// detail list always becomes a ValidationError.
func decodeError(op string, status int, raw []byte) error {
	var eb errorBody
	_ = json.Unmarshal(raw, &eb)

	var issues []wireIssue
	if len(eb.Detail) > 0 && json.Unmarshal(eb.Detail, &issues) == nil && issues != nil {
		out := &ValidationError{Issues: make([]Issue, 0, len(issues))}
		for _, it := range issues {
			out.Issues = append(out.Issues, Issue{Location: locationSegments(it.Loc), Message: it.Msg})
		}
		return out
	}

	var detail string
	if len(eb.Detail) > 0 {
		if err := json.Unmarshal(eb.Detail, &detail); err != nil {
			detail = string(eb.Detail)
		}
	}
	if detail == "" && len(bytes.TrimSpace(raw)) > 0 && eb.Detail == nil {
		detail = string(bytes.TrimSpace(raw))
	}

	switch status {
	case http.StatusNotFound:
		return &NotFoundError{Detail: detail}
	case http.StatusConflict:
		return &ConflictError{Detail: detail}
	case http.StatusUnprocessableEntity:
		return &ValidationError{Detail: detail}
	default:
		return &FetchError{Op: op, Status: status, Detail: detail}
	}
}
