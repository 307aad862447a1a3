package editor

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"reflect"
	"strings"
	"testing"
	"time"

	"signer-cli/internal/client"
	"signer-cli/internal/model"
	"signer-cli/internal/taskstore"
)

func newStore(t *testing.T, wrap func(http.Handler) http.Handler) (*Controller, *taskstore.MemoryRepo) {
	t.Helper()
	repo := taskstore.NewMemoryRepo()
	var h http.Handler = taskstore.NewHandler(repo, nil)
	if wrap != nil {
		h = wrap(h)
	}
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return NewController(client.NewWithHTTPClient(srv.URL, srv.Client()), 5*time.Second), repo
}

func oneChatTask() model.Task {
	id := int64(-100)
	t := taskstore.DefaultConfig()
	t.Chats = []model.Chat{{
		ChatID:         &id,
		Name:           "group",
		ActionInterval: 1,
		Actions:        []model.Action{{Type: 1, Payload: map[string]string{"text": "hello"}}},
	}}
	return t
}

func startSession(t *testing.T, c *Controller, opts Options) *Session {
	t.Helper()
	s := NewSession(opts)
	if err := c.Run(context.Background(), s, s.Start()...); err != nil {
		t.Fatalf("start: %v", err)
	}
	return s
}

func TestCreateEditSaveScenario(t *testing.T) {
	ctx := context.Background()
	c, repo := newStore(t, nil)
	s := startSession(t, c, Options{})

	req, err := s.Create("  alpha  ")
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := c.Run(ctx, s, req); err != nil {
		t.Fatalf("run create: %v", err)
	}
	if s.Active() != "alpha" {
		t.Fatalf("expected alpha to be loaded after create; got %q", s.Active())
	}
	if s.Dirty() || s.SaveEnabled() {
		t.Fatalf("expected clean document after create")
	}

	if err := s.SetGeneralField("sign_at", "06:00:00"); err != nil {
		t.Fatalf("set sign_at: %v", err)
	}
	if !s.Dirty() || !s.SaveEnabled() {
		t.Fatalf("expected dirty document with save enabled")
	}

	save, err := s.Save()
	if err != nil {
		t.Fatalf("save: %v", err)
	}
	if err := c.Run(ctx, s, save); err != nil {
		t.Fatalf("run save: %v", err)
	}
	if s.Dirty() {
		t.Fatalf("expected dirty=false after save")
	}
	if s.Status().Kind != StatusSuccess {
		t.Fatalf("expected success status; got %+v", s.Status())
	}
	if _, err := repo.Get(ctx, "alpha"); err != nil {
		t.Fatalf("expected alpha stored: %v", err)
	}
}

func TestLoadTwiceIsIdempotent(t *testing.T) {
	ctx := context.Background()
	c, repo := newStore(t, nil)
	_ = repo.Create(ctx, "alpha", oneChatTask())
	s := startSession(t, c, Options{})

	_ = c.Run(ctx, s, s.Select("alpha"))
	first := s.Document().Clone()
	if s.Dirty() {
		t.Fatalf("expected dirty=false after first load")
	}
	_ = c.Run(ctx, s, s.Select("alpha"))
	if s.Dirty() {
		t.Fatalf("expected dirty=false after second load")
	}
	if !reflect.DeepEqual(first, *s.Document()) {
		t.Fatalf("expected identical documents; got %+v vs %+v", first, *s.Document())
	}
}

func TestSaveThenReloadRoundTrips(t *testing.T) {
	ctx := context.Background()
	c, repo := newStore(t, nil)
	_ = repo.Create(ctx, "alpha", oneChatTask())
	s := startSession(t, c, Options{})
	_ = c.Run(ctx, s, s.Select("alpha"))

	_, _ = s.AddAction(0)
	_ = s.SetActionType(0, 1, 2)
	_ = s.SetChatField(0, "delete_after", "30")
	_ = s.SetActionPayload(0, 0, "  keep spaces ")
	saved := s.Document().Clone()

	save, _ := s.Save()
	if err := c.Run(ctx, s, save); err != nil {
		t.Fatalf("save: %v", err)
	}
	_ = c.Run(ctx, s, s.Select("alpha"))
	if !reflect.DeepEqual(saved, *s.Document()) {
		t.Fatalf("expected reload to equal saved doc\nsaved: %+v\ngot:   %+v", saved, *s.Document())
	}
}

func TestSaveValidationErrorIsShown(t *testing.T) {
	ctx := context.Background()
	reject := func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Method == http.MethodPut {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusUnprocessableEntity)
				_, _ = w.Write([]byte(`{"detail":[{"loc":["chats",0,"chat_id"],"msg":"required"}]}`))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
	c, repo := newStore(t, reject)
	_ = repo.Create(ctx, "alpha", oneChatTask())
	s := startSession(t, c, Options{})
	_ = c.Run(ctx, s, s.Select("alpha"))

	_ = s.SetChatField(0, "chat_id", "")
	save, _ := s.Save()
	err := c.Run(ctx, s, save)

	var ve *client.ValidationError
	if !errors.As(err, &ve) {
		t.Fatalf("expected ValidationError; got %T %v", err, err)
	}
	st := s.Status()
	if st.Kind != StatusError {
		t.Fatalf("expected error status; got %+v", st)
	}
	if !strings.Contains(st.Text, "chats.0.chat_id") || !strings.Contains(st.Text, "required") {
		t.Fatalf("expected joined location and message in status; got %q", st.Text)
	}
	if !s.Dirty() {
		t.Fatalf("expected document to stay dirty after a failed save")
	}
}

func TestCreateConflictReported(t *testing.T) {
	ctx := context.Background()
	c, repo := newStore(t, nil)
	_ = repo.Create(ctx, "alpha", taskstore.DefaultConfig())
	s := startSession(t, c, Options{})

	req, _ := s.Create("alpha")
	err := c.Run(ctx, s, req)
	if !errors.As(err, new(*client.ConflictError)) {
		t.Fatalf("expected ConflictError; got %v", err)
	}
	if got := s.Status().Text; !strings.HasPrefix(got, "Create failed: ") {
		t.Fatalf("expected create failure status; got %q", got)
	}
	if s.Active() != "" {
		t.Fatalf("expected no selection after failed create; got %q", s.Active())
	}
}

func TestCreateRejectsBlankName(t *testing.T) {
	s := NewSession(Options{})
	req, err := s.Create("   ")
	if !errors.Is(err, ErrEmptyName) || req != nil {
		t.Fatalf("expected ErrEmptyName and no request; got %v %v", req, err)
	}
	if s.Status().Kind != StatusError {
		t.Fatalf("expected error status")
	}
}

func TestDeleteClearsSelectionAndRefreshes(t *testing.T) {
	ctx := context.Background()
	c, repo := newStore(t, nil)
	_ = repo.Create(ctx, "alpha", oneChatTask())
	_ = repo.Create(ctx, "beta", oneChatTask())
	s := startSession(t, c, Options{})
	_ = c.Run(ctx, s, s.Select("alpha"))

	del, err := s.Delete()
	if err != nil {
		t.Fatalf("delete: %v", err)
	}
	if err := c.Run(ctx, s, del); err != nil {
		t.Fatalf("run delete: %v", err)
	}
	if s.Active() != "" || s.Document() != nil || s.Dirty() {
		t.Fatalf("expected cleared selection after delete")
	}
	if tasks := s.Tasks(); len(tasks) != 1 || tasks[0].Name != "beta" {
		t.Fatalf("expected refreshed list [beta]; got %+v", tasks)
	}
}

func TestLoadMissingTaskReportsNotFound(t *testing.T) {
	ctx := context.Background()
	c, _ := newStore(t, nil)
	s := startSession(t, c, Options{})

	err := c.Run(ctx, s, s.Select("ghost"))
	if !errors.As(err, new(*client.NotFoundError)) {
		t.Fatalf("expected NotFoundError; got %v", err)
	}
	if s.Active() != "" {
		t.Fatalf("expected no active task; got %q", s.Active())
	}
}

func TestListRefreshReconciliation(t *testing.T) {
	loaded := func(s *Session, name string) {
		s.Apply(LoadResult{Name: name, Seq: s.loadSeq, Task: oneChatTask()})
	}

	t.Run("missing active task is cleared", func(t *testing.T) {
		s := NewSession(Options{})
		s.Select("alpha")
		loaded(s, "alpha")
		_ = s.SetGeneralField("sign_at", "07:00")

		follow := s.Apply(ListResult{Tasks: []model.TaskSummary{{Name: "beta"}}})
		if len(follow) != 0 {
			t.Fatalf("expected no follow-up; got %+v", follow)
		}
		if s.Active() != "" || s.Dirty() {
			t.Fatalf("expected selection cleared and dirty reset")
		}
	})

	t.Run("present active task is reloaded", func(t *testing.T) {
		s := NewSession(Options{})
		s.Select("alpha")
		loaded(s, "alpha")
		_ = s.SetGeneralField("sign_at", "07:00")

		follow := s.Apply(ListResult{Tasks: []model.TaskSummary{{Name: "alpha"}}})
		if len(follow) != 1 {
			t.Fatalf("expected one reload request; got %+v", follow)
		}
		if lr, ok := follow[0].(LoadRequest); !ok || lr.Name != "alpha" {
			t.Fatalf("expected LoadRequest for alpha; got %#v", follow[0])
		}
	})

	t.Run("keep edits skips reload while dirty", func(t *testing.T) {
		s := NewSession(Options{KeepEditsOnRefresh: true})
		s.Select("alpha")
		loaded(s, "alpha")
		_ = s.SetGeneralField("sign_at", "07:00")

		if follow := s.Apply(ListResult{Tasks: []model.TaskSummary{{Name: "alpha"}}}); len(follow) != 0 {
			t.Fatalf("expected no reload; got %+v", follow)
		}
		if !s.Dirty() || s.Document().SignAt != "07:00" {
			t.Fatalf("expected unsaved edit to survive")
		}
	})

	t.Run("list failure keeps previous list", func(t *testing.T) {
		s := NewSession(Options{})
		s.Apply(ListResult{Tasks: []model.TaskSummary{{Name: "alpha"}}})
		s.Apply(ListResult{Error: errors.New("boom")})
		if tasks := s.Tasks(); len(tasks) != 1 {
			t.Fatalf("expected previous list retained; got %+v", tasks)
		}
		if !strings.Contains(s.Status().Text, "boom") {
			t.Fatalf("expected error in status; got %q", s.Status().Text)
		}
	})
}

func TestStaleLoadIsDropped(t *testing.T) {
	s := NewSession(Options{})
	a := s.Select("alpha").(LoadRequest)
	b := s.Select("beta").(LoadRequest)

	s.Apply(LoadResult{Name: "beta", Seq: b.Seq, Task: oneChatTask()})
	s.Apply(LoadResult{Name: "alpha", Seq: a.Seq, Task: taskstore.DefaultConfig()})

	if s.Active() != "beta" {
		t.Fatalf("expected newer selection to win; got %q", s.Active())
	}
	if len(s.Document().Chats) != 1 {
		t.Fatalf("expected beta's document; got %+v", s.Document())
	}
}

func TestCreateRefreshesAndLoadsNewTask(t *testing.T) {
	s := NewSession(Options{})
	s.Select("alpha")
	s.Apply(LoadResult{Name: "alpha", Seq: s.loadSeq, Task: oneChatTask()})

	follow := s.Apply(CreateResult{Name: "beta"})
	if len(follow) != 2 {
		t.Fatalf("expected list refresh and load after create; got %+v", follow)
	}
	if _, ok := follow[0].(ListRequest); !ok {
		t.Fatalf("expected ListRequest first; got %#v", follow[0])
	}
	load, ok := follow[1].(LoadRequest)
	if !ok || load.Name != "beta" {
		t.Fatalf("expected load of the new task; got %#v", follow[1])
	}

	if more := s.Apply(ListResult{Tasks: []model.TaskSummary{{Name: "alpha"}, {Name: "beta"}}}); len(more) != 0 {
		t.Fatalf("expected no reload of alpha while beta is loading; got %+v", more)
	}
	s.Apply(LoadResult{Name: "beta", Seq: load.Seq, Task: taskstore.DefaultConfig()})
	if s.Active() != "beta" {
		t.Fatalf("expected beta active; got %q", s.Active())
	}
}

func TestCreateLoadsTaskMissingFromList(t *testing.T) {
	c, _ := newStore(t, nil)
	s := startSession(t, c, Options{})

	req, err := s.Create(".hidden")
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := c.Run(context.Background(), s, req); err != nil {
		t.Fatalf("run: %v", err)
	}
	if s.Active() != ".hidden" || s.Document() == nil {
		t.Fatalf("expected .hidden loaded; got active=%q doc=%v", s.Active(), s.Document())
	}
	if len(s.Tasks()) != 0 {
		t.Fatalf("expected hidden task left out of the list; got %+v", s.Tasks())
	}

	if err := c.Run(context.Background(), s, s.Refresh()); err != nil {
		t.Fatalf("refresh: %v", err)
	}
	if s.Active() != ".hidden" {
		t.Fatalf("expected hidden task to stay selected after refresh; got %q", s.Active())
	}
}

func TestCreateLoadsTaskWhenListFails(t *testing.T) {
	s := NewSession(Options{})
	follow := s.Apply(CreateResult{Name: "beta"})
	load := follow[1].(LoadRequest)

	if more := s.Apply(ListResult{Error: context.DeadlineExceeded}); len(more) != 0 {
		t.Fatalf("expected no follow-up from a failed list; got %+v", more)
	}
	s.Apply(LoadResult{Name: "beta", Seq: load.Seq, Task: taskstore.DefaultConfig()})
	if s.Active() != "beta" || s.Document() == nil {
		t.Fatalf("expected beta loaded; got active=%q", s.Active())
	}
}

func TestCreateDoesNotOverrideLaterSelect(t *testing.T) {
	s := NewSession(Options{})
	follow := s.Apply(CreateResult{Name: "beta"})
	created := follow[1].(LoadRequest)
	s.Apply(ListResult{Error: errors.New("boom")})

	picked := s.Select("alpha").(LoadRequest)
	s.Apply(LoadResult{Name: "alpha", Seq: picked.Seq, Task: oneChatTask()})
	s.Apply(LoadResult{Name: "beta", Seq: created.Seq, Task: taskstore.DefaultConfig()})
	_ = s.SetGeneralField("sign_at", "07:00")

	more := s.Apply(ListResult{Tasks: []model.TaskSummary{{Name: "alpha"}, {Name: "beta"}}})
	if len(more) != 1 {
		t.Fatalf("expected a single reload; got %+v", more)
	}
	if lr := more[0].(LoadRequest); lr.Name != "alpha" {
		t.Fatalf("expected reload of the user's pick; got %q", lr.Name)
	}
	if s.Active() != "alpha" {
		t.Fatalf("expected alpha to stay active; got %q", s.Active())
	}
}

func TestActionsFailureLeavesEmptyRegistry(t *testing.T) {
	s := NewSession(Options{})
	s.Apply(ActionsResult{Error: errors.New("offline")})
	if s.Registry().Len() != 0 {
		t.Fatalf("expected empty registry")
	}
	if got := s.Status().Text; !strings.HasPrefix(got, "Failed to load action types") {
		t.Fatalf("expected action load failure status; got %q", got)
	}

	s.Select("alpha")
	s.Apply(LoadResult{Name: "alpha", Seq: s.loadSeq, Task: taskstore.DefaultConfig()})
	if _, err := s.AddChat(); err != nil {
		t.Fatalf("add chat: %v", err)
	}
	a := s.Document().Chats[0].Actions[0]
	if a.Type != 1 || a.Payload != nil {
		t.Fatalf("expected payload-less fallback action; got %+v", a)
	}
}

func TestSaveRequiresChanges(t *testing.T) {
	s := NewSession(Options{})
	if _, err := s.Save(); !errors.Is(err, ErrNoActiveTask) {
		t.Fatalf("expected ErrNoActiveTask; got %v", err)
	}
	s.Select("alpha")
	s.Apply(LoadResult{Name: "alpha", Seq: s.loadSeq, Task: oneChatTask()})
	if _, err := s.Save(); !errors.Is(err, ErrNoChanges) {
		t.Fatalf("expected ErrNoChanges; got %v", err)
	}
}

func TestSaveSnapshotIsDetached(t *testing.T) {
	s := NewSession(Options{})
	s.Select("alpha")
	s.Apply(LoadResult{Name: "alpha", Seq: s.loadSeq, Task: oneChatTask()})
	_ = s.SetChatField(0, "name", "before")

	req, _ := s.Save()
	_ = s.SetChatField(0, "name", "after")
	if got := req.(SaveRequest).Task.Chats[0].Name; got != "before" {
		t.Fatalf("expected snapshot to keep %q; got %q", "before", got)
	}
}
