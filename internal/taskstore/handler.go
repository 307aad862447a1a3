package taskstore

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"
	"time"

	"signer-cli/internal/model"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

const requestIDHeader = "X-Request-ID"

type server struct {
	repo   Repo
	logger *log.Logger
}

// NewHandler serves the sign task API over repo. A nil logger disables
// request logging.
func NewHandler(repo Repo, logger *log.Logger) http.Handler {
	s := &server{repo: repo, logger: logger}

	r := chi.NewRouter()
	r.Use(s.requestLog)

	r.Get("/api/meta/actions", s.listActions)
	r.Get("/api/sign/template", s.template)
	r.Route("/api/sign/tasks", func(r chi.Router) {
		r.Get("/", s.listTasks)
		r.Post("/", s.createTask)
		r.Get("/{name}", s.getTask)
		r.Put("/{name}", s.updateTask)
		r.Delete("/{name}", s.deleteTask)
	})
	return r
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (w *statusRecorder) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}

func (s *server) requestLog(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := strings.TrimSpace(r.Header.Get(requestIDHeader))
		if id == "" {
			id = uuid.NewString()
		}
		w.Header().Set(requestIDHeader, id)

		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		start := time.Now()
		next.ServeHTTP(rec, r)
		if s.logger != nil {
			s.logger.Printf("%s %s %d %s id=%s", r.Method, r.URL.Path, rec.status, time.Since(start).Round(time.Microsecond), id)
		}
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeDetail(w http.ResponseWriter, status int, detail any) {
	writeJSON(w, status, map[string]any{"detail": detail})
}

func (s *server) writeRepoError(w http.ResponseWriter, name string, err error) {
	switch {
	case errors.Is(err, ErrNotFound):
		writeDetail(w, http.StatusNotFound, fmt.Sprintf("Task '%s' does not exist.", name))
	case errors.Is(err, ErrConflict):
		writeDetail(w, http.StatusConflict, fmt.Sprintf("Task '%s' already exists.", name))
	case errors.Is(err, ErrInvalidName):
		writeDetail(w, http.StatusBadRequest, "task name must not be empty")
	default:
		if s.logger != nil {
			s.logger.Printf("repo error: %v", err)
		}
		writeDetail(w, http.StatusInternalServerError, "internal error")
	}
}

func (s *server) listActions(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"actions": Catalog})
}

func (s *server) template(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, model.TaskEnvelope{Name: "template", Config: DefaultConfig()})
}

func (s *server) listTasks(w http.ResponseWriter, r *http.Request) {
	names, err := s.repo.List(r.Context())
	if err != nil {
		s.writeRepoError(w, "", err)
		return
	}
	tasks := make([]model.TaskSummary, 0, len(names))
	for _, n := range names {
		tasks = append(tasks, model.TaskSummary{Name: n})
	}
	writeJSON(w, http.StatusOK, map[string]any{"tasks": tasks})
}

func (s *server) getTask(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	t, err := s.repo.Get(r.Context(), name)
	if err != nil {
		s.writeRepoError(w, name, err)
		return
	}
	writeJSON(w, http.StatusOK, model.TaskEnvelope{Name: name, Config: t})
}

// decodeConfig reads a request body and reports malformed configs the same
// way as rule violations.
func decodeConfig(r io.Reader, into any) []Issue {
	if err := json.NewDecoder(r).Decode(into); err != nil {
		return []Issue{{Loc: []any{"body"}, Msg: err.Error()}}
	}
	return nil
}

func (s *server) createTask(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		Name   string      `json:"name"`
		Config *model.Task `json:"config"`
	}
	if issues := decodeConfig(r.Body, &payload); issues != nil {
		writeDetail(w, http.StatusUnprocessableEntity, issues)
		return
	}
	if err := ValidateName(payload.Name); err != nil {
		s.writeRepoError(w, payload.Name, err)
		return
	}
	cfg := DefaultConfig()
	if payload.Config != nil {
		cfg = *payload.Config
		if issues := Validate(cfg); len(issues) > 0 {
			writeDetail(w, http.StatusUnprocessableEntity, issues)
			return
		}
	}
	if err := s.repo.Create(r.Context(), payload.Name, cfg); err != nil {
		s.writeRepoError(w, payload.Name, err)
		return
	}
	writeJSON(w, http.StatusCreated, model.TaskEnvelope{Name: payload.Name, Config: cfg})
}

func (s *server) updateTask(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	if _, err := s.repo.Get(r.Context(), name); err != nil {
		s.writeRepoError(w, name, err)
		return
	}
	var payload struct {
		Config *model.Task `json:"config"`
	}
	if issues := decodeConfig(r.Body, &payload); issues != nil {
		writeDetail(w, http.StatusUnprocessableEntity, issues)
		return
	}
	if payload.Config == nil {
		writeDetail(w, http.StatusUnprocessableEntity, []Issue{{Loc: []any{"body", "config"}, Msg: "field required"}})
		return
	}
	if issues := Validate(*payload.Config); len(issues) > 0 {
		writeDetail(w, http.StatusUnprocessableEntity, issues)
		return
	}
	if err := s.repo.Put(r.Context(), name, *payload.Config); err != nil {
		s.writeRepoError(w, name, err)
		return
	}
	writeJSON(w, http.StatusOK, model.TaskEnvelope{Name: name, Config: *payload.Config})
}

func (s *server) deleteTask(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	if err := s.repo.Delete(r.Context(), name); err != nil {
		s.writeRepoError(w, name, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
