package taskstore

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"time"

	"signer-cli/internal/model"

	_ "modernc.org/sqlite"
)

// SQLiteRepo keeps one row per task with the config stored as JSON.
type SQLiteRepo struct {
	db *sql.DB
}

func OpenSQLite(ctx context.Context, path string) (*SQLiteRepo, error) {
	if dir := filepath.Dir(path); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, err
		}
	}
	// modernc.org/sqlite driver name is "sqlite".
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	// WAL lets the TUI and scripted commands read while the server writes.
	pragmas := []string{
		"PRAGMA journal_mode=WAL;",
		"PRAGMA synchronous=NORMAL;",
		"PRAGMA busy_timeout=5000;",
	}
	for _, p := range pragmas {
		if _, err := db.ExecContext(ctx, p); err != nil {
			_ = db.Close()
			return nil, err
		}
	}
	if err := migrateSQLite(ctx, db); err != nil {
		_ = db.Close()
		return nil, err
	}
	return &SQLiteRepo{db: db}, nil
}

func migrateSQLite(ctx context.Context, db *sql.DB) error {
	_, err := db.ExecContext(ctx, `
CREATE TABLE IF NOT EXISTS sign_tasks (
  name TEXT PRIMARY KEY,
  config TEXT NOT NULL,
  created_at TEXT NOT NULL,
  updated_at TEXT NOT NULL
);`)
	return err
}

func (r *SQLiteRepo) Close() error {
	return r.db.Close()
}

func (r *SQLiteRepo) List(ctx context.Context) ([]string, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT name FROM sign_tasks ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	names := []string{}
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		if model.Hidden(name) {
			continue
		}
		names = append(names, name)
	}
	return names, rows.Err()
}

func (r *SQLiteRepo) Get(ctx context.Context, name string) (model.Task, error) {
	var raw string
	err := r.db.QueryRowContext(ctx, `SELECT config FROM sign_tasks WHERE name = ?`, name).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Task{}, ErrNotFound
	}
	if err != nil {
		return model.Task{}, err
	}
	var t model.Task
	if err := json.Unmarshal([]byte(raw), &t); err != nil {
		return model.Task{}, err
	}
	return t, nil
}

func (r *SQLiteRepo) Create(ctx context.Context, name string, t model.Task) error {
	raw, err := json.Marshal(t)
	if err != nil {
		return err
	}
	now := time.Now().UTC().Format(time.RFC3339Nano)
	_, err = r.db.ExecContext(ctx,
		`INSERT INTO sign_tasks(name, config, created_at, updated_at) VALUES(?, ?, ?, ?)`,
		name, string(raw), now, now)
	if err != nil && isUniqueViolation(err) {
		return ErrConflict
	}
	return err
}

func (r *SQLiteRepo) Put(ctx context.Context, name string, t model.Task) error {
	raw, err := json.Marshal(t)
	if err != nil {
		return err
	}
	res, err := r.db.ExecContext(ctx,
		`UPDATE sign_tasks SET config = ?, updated_at = ? WHERE name = ?`,
		string(raw), time.Now().UTC().Format(time.RFC3339Nano), name)
	if err != nil {
		return err
	}
	return requireRow(res)
}

func (r *SQLiteRepo) Delete(ctx context.Context, name string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM sign_tasks WHERE name = ?`, name)
	if err != nil {
		return err
	}
	return requireRow(res)
}

func requireRow(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func isUniqueViolation(err error) bool {
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "unique constraint") || strings.Contains(msg, "constraint failed")
}
