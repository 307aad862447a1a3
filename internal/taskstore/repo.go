package taskstore

import (
	"context"
	"errors"
	"strings"

	"signer-cli/internal/model"
)

var (
	ErrNotFound    = errors.New("task not found")
	ErrConflict    = errors.New("task already exists")
	ErrInvalidName = errors.New("invalid task name")
)

// Repo persists sign task configs by name.
type Repo interface {
	List(ctx context.Context) ([]string, error)
	Get(ctx context.Context, name string) (model.Task, error)
	Create(ctx context.Context, name string, t model.Task) error
	Put(ctx context.Context, name string, t model.Task) error
	Delete(ctx context.Context, name string) error
}

// DefaultConfig is stored for tasks created without a config.
func DefaultConfig() model.Task {
	return model.Task{
		SignAt:        "06:00:00",
		RandomSeconds: 0,
		SignInterval:  1,
		Chats:         []model.Chat{},
	}
}

// ValidateName rejects names that cannot be used as a single path segment.
func ValidateName(name string) error {
	if strings.TrimSpace(name) == "" || name != strings.TrimSpace(name) {
		return ErrInvalidName
	}
	if strings.ContainsAny(name, "/\\") || name == "." || name == ".." {
		return ErrInvalidName
	}
	return nil
}
