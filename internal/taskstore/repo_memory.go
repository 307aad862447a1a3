package taskstore

import (
	"context"
	"sort"
	"sync"

	"signer-cli/internal/model"
)

type MemoryRepo struct {
	mu    sync.RWMutex
	tasks map[string]model.Task
}

func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{tasks: map[string]model.Task{}}
}

func (r *MemoryRepo) List(ctx context.Context) ([]string, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.tasks))
	for name := range r.tasks {
		if model.Hidden(name) {
			continue
		}
		names = append(names, name)
	}
	sort.Strings(names)
	return names, nil
}

func (r *MemoryRepo) Get(ctx context.Context, name string) (model.Task, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	t, ok := r.tasks[name]
	if !ok {
		return model.Task{}, ErrNotFound
	}
	return t.Clone(), nil
}

func (r *MemoryRepo) Create(ctx context.Context, name string, t model.Task) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.tasks[name]; ok {
		return ErrConflict
	}
	r.tasks[name] = t.Clone()
	return nil
}

func (r *MemoryRepo) Put(ctx context.Context, name string, t model.Task) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.tasks[name]; !ok {
		return ErrNotFound
	}
	r.tasks[name] = t.Clone()
	return nil
}

func (r *MemoryRepo) Delete(ctx context.Context, name string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.tasks[name]; !ok {
		return ErrNotFound
	}
	delete(r.tasks, name)
	return nil
}
