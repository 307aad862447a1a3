package editor

import (
	"context"
	"strings"
	"time"

	"signer-cli/internal/model"
	"signer-cli/internal/schema"
)

// Remote is the store the editor syncs with. *client.Client implements it.
type Remote interface {
	ListTasks(ctx context.Context) ([]model.TaskSummary, error)
	GetTask(ctx context.Context, name string) (model.TaskEnvelope, error)
	CreateTask(ctx context.Context, name string) (model.TaskEnvelope, error)
	UpdateTask(ctx context.Context, name string, cfg model.Task) (model.TaskEnvelope, error)
	DeleteTask(ctx context.Context, name string) error
	ListActions(ctx context.Context) ([]model.ActionTypeDescriptor, error)
}

// Request is one remote call. Requests carry everything they need so they can
// run away from the event loop; their Result goes back through Session.Apply.
type Request interface {
	perform(ctx context.Context, r Remote) Result
}

type Result interface {
	Err() error
}

type ActionsRequest struct{}

type ActionsResult struct {
	Actions []model.ActionTypeDescriptor
	Error   error
}

type ListRequest struct{}

type ListResult struct {
	Tasks []model.TaskSummary
	Error error
}

type LoadRequest struct {
	Name string
	Seq  int
}

type LoadResult struct {
	Name  string
	Seq   int
	Task  model.Task
	Error error
}

type CreateRequest struct {
	Name string
}

type CreateResult struct {
	Name  string
	Error error
}

// SaveRequest holds a snapshot of the document taken when the save started.
type SaveRequest struct {
	Name string
	Task model.Task
}

type SaveResult struct {
	Name  string
	Error error
}

type DeleteRequest struct {
	Name string
}

type DeleteResult struct {
	Name  string
	Error error
}

func (r ActionsResult) Err() error { return r.Error }
func (r ListResult) Err() error    { return r.Error }
func (r LoadResult) Err() error    { return r.Error }
func (r CreateResult) Err() error  { return r.Error }
func (r SaveResult) Err() error    { return r.Error }
func (r DeleteResult) Err() error  { return r.Error }

func (ActionsRequest) perform(ctx context.Context, r Remote) Result {
	reg, err := schema.Load(ctx, r)
	return ActionsResult{Actions: reg.Descriptors(), Error: err}
}

func (ListRequest) perform(ctx context.Context, r Remote) Result {
	tasks, err := r.ListTasks(ctx)
	return ListResult{Tasks: tasks, Error: err}
}

func (q LoadRequest) perform(ctx context.Context, r Remote) Result {
	env, err := r.GetTask(ctx, q.Name)
	name := env.Name
	if name == "" {
		name = q.Name
	}
	return LoadResult{Name: name, Seq: q.Seq, Task: env.Config, Error: err}
}

func (q CreateRequest) perform(ctx context.Context, r Remote) Result {
	env, err := r.CreateTask(ctx, q.Name)
	name := env.Name
	if name == "" {
		name = q.Name
	}
	return CreateResult{Name: name, Error: err}
}

func (q SaveRequest) perform(ctx context.Context, r Remote) Result {
	_, err := r.UpdateTask(ctx, q.Name, q.Task)
	return SaveResult{Name: q.Name, Error: err}
}

func (q DeleteRequest) perform(ctx context.Context, r Remote) Result {
	return DeleteResult{Name: q.Name, Error: r.DeleteTask(ctx, q.Name)}
}

// Controller executes requests against a Remote.
type Controller struct {
	remote  Remote
	timeout time.Duration
}

// NewController returns a controller that bounds each request by timeout.
// A zero timeout leaves requests bounded only by the caller's context.
func NewController(remote Remote, timeout time.Duration) *Controller {
	return &Controller{remote: remote, timeout: timeout}
}

// Perform runs one request. It does not touch any Session and may be called
// from any goroutine.
func (c *Controller) Perform(ctx context.Context, req Request) Result {
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}
	return req.perform(ctx, c.remote)
}

// Run performs reqs in order on the calling goroutine, applying each result to
// s and queueing the follow-up requests Apply returns. It returns the first
// request error, if any.
func (c *Controller) Run(ctx context.Context, s *Session, reqs ...Request) error {
	queue := append([]Request(nil), reqs...)
	var first error
	for len(queue) > 0 {
		req := queue[0]
		queue = queue[1:]
		res := c.Perform(ctx, req)
		if err := res.Err(); err != nil && first == nil {
			first = err
		}
		queue = append(queue, s.Apply(res)...)
	}
	return first
}

// Start returns the requests issued when a session opens: the action catalog
// first, then the task list.
func (s *Session) Start() []Request {
	return []Request{ActionsRequest{}, ListRequest{}}
}

func (s *Session) Refresh() Request { return ListRequest{} }

// Select starts loading name. Only the most recent load is applied.
func (s *Session) Select(name string) Request {
	s.loadSeq++
	s.loading = name
	return LoadRequest{Name: name, Seq: s.loadSeq}
}

// Create validates the name and returns the create request.
func (s *Session) Create(name string) (Request, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		s.fail("Create failed", ErrEmptyName)
		return nil, ErrEmptyName
	}
	return CreateRequest{Name: name}, nil
}

// Save snapshots the working document for saving. It refuses when there is
// nothing to save.
func (s *Session) Save() (Request, error) {
	if s.active == "" || s.doc == nil {
		return nil, ErrNoActiveTask
	}
	if !s.dirty {
		return nil, ErrNoChanges
	}
	return SaveRequest{Name: s.active, Task: s.doc.Clone()}, nil
}

// Delete returns the delete request for the active task. Confirmation is the
// caller's job.
func (s *Session) Delete() (Request, error) {
	if s.active == "" {
		return nil, ErrNoActiveTask
	}
	return DeleteRequest{Name: s.active}, nil
}

// Apply folds a request result into the session and returns any follow-up
// requests. Failures become status messages; none of them end the session.
func (s *Session) Apply(res Result) []Request {
	switch r := res.(type) {
	case ActionsResult:
		if r.Error != nil {
			s.registry = schema.New(nil)
			s.fail("Failed to load action types", r.Error)
			return nil
		}
		s.registry = schema.New(r.Actions)
		return nil

	case ListResult:
		if r.Error != nil {
			s.fail("Failed to list tasks", r.Error)
			return nil
		}
		s.tasks = append([]model.TaskSummary{}, r.Tasks...)
		return s.reconcile()

	case LoadResult:
		if r.Seq != s.loadSeq {
			return nil
		}
		s.loading = ""
		if r.Error != nil {
			s.fail("Failed to load task", r.Error)
			return nil
		}
		doc := r.Task.Clone()
		s.active = r.Name
		s.doc = &doc
		s.dirty = false
		s.succeed("Loaded task %q", r.Name)
		return nil

	case CreateResult:
		if r.Error != nil {
			s.fail("Create failed", r.Error)
			return nil
		}
		s.succeed("Task %q created", r.Name)
		return []Request{s.Refresh(), s.Select(r.Name)}

	case SaveResult:
		if r.Error != nil {
			s.fail("Save failed", r.Error)
			return nil
		}
		if r.Name == s.active {
			s.dirty = false
		}
		s.succeed("Saved")
		return nil

	case DeleteResult:
		if r.Error != nil {
			s.fail("Delete failed", r.Error)
			return nil
		}
		if r.Name == s.active {
			s.ClearSelection()
		}
		s.succeed("Task %q deleted", r.Name)
		return []Request{s.Refresh()}
	}
	return nil
}

// reconcile matches the selection against a fresh task list. A vanished
// active task is cleared and a listed one is reloaded from the store, unless
// a newer load is already in flight.
func (s *Session) reconcile() []Request {
	if s.active == "" {
		return nil
	}
	if !s.listed(s.active) && !model.Hidden(s.active) {
		if s.loading != "" {
			s.active, s.doc, s.dirty = "", nil, false
			return nil
		}
		s.ClearSelection()
		return nil
	}
	if s.loading != "" || (s.dirty && s.opts.KeepEditsOnRefresh) {
		return nil
	}
	return []Request{s.Select(s.active)}
}

func (s *Session) listed(name string) bool {
	for _, t := range s.tasks {
		if t.Name == name {
			return true
		}
	}
	return false
}
