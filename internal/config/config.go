package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"
)

// Config holds user defaults. Flags and SIGNER_* environment variables take
// precedence over anything set here.
type Config struct {
	// Server is the base URL of the task store.
	Server string `json:"server,omitempty"`
	// Timeout bounds each store request, as a Go duration string ("15s").
	Timeout string `json:"timeout,omitempty"`
	// DB is the SQLite file used by `signer serve`.
	DB string `json:"db,omitempty"`

	// TUI holds optional user preferences for the interactive editor.
	TUI *TUIConfig `json:"tui,omitempty"`
}

type TUIConfig struct {
	// Theme is "light", "dark" or "auto".
	Theme string `json:"theme,omitempty"`
	// KeepEditsOnRefresh keeps unsaved edits when the task list refreshes.
	KeepEditsOnRefresh bool `json:"keepEditsOnRefresh,omitempty"`
}

func Dir() (string, error) {
	// Test/advanced override (keeps unit tests from touching ~/.signer).
	if v := strings.TrimSpace(os.Getenv("SIGNER_CONFIG_DIR")); v != "" {
		return v, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".signer"), nil
}

func Path() (string, error) {
	dir, err := Dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.json"), nil
}

// DefaultDBPath is where `signer serve` keeps its database when neither
// --db nor the config file name one.
func DefaultDBPath() (string, error) {
	dir, err := Dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "tasks.sqlite"), nil
}

// Load reads the config file. A missing file yields an empty config.
func Load() (*Config, error) {
	path, err := Path()
	if err != nil {
		return nil, err
	}
	b, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return &Config{}, nil
		}
		return nil, err
	}
	var cfg Config
	if err := json.Unmarshal(b, &cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return &cfg, nil
}

func atomicWriteFile(dir, tmpPattern, path string, b []byte, perm os.FileMode) error {
	f, err := os.CreateTemp(dir, tmpPattern)
	if err != nil {
		return err
	}
	tmp := f.Name()
	defer func() { _ = os.Remove(tmp) }()
	if _, err := f.Write(b); err != nil {
		_ = f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}
	_ = os.Chmod(tmp, perm)
	return os.Rename(tmp, path)
}

func Save(cfg *Config) error {
	path, err := Path()
	if err != nil {
		return err
	}
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	b, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return err
	}
	// Unique temp name + rename so a CLI write never tears a file the TUI is reading.
	return atomicWriteFile(dir, "config.json.*.tmp", path, b, 0o600)
}

// TimeoutOr parses Timeout, falling back to d when unset or invalid.
func (c *Config) TimeoutOr(d time.Duration) time.Duration {
	if c == nil || strings.TrimSpace(c.Timeout) == "" {
		return d
	}
	v, err := time.ParseDuration(strings.TrimSpace(c.Timeout))
	if err != nil || v <= 0 {
		return d
	}
	return v
}

// Keys lists the names accepted by Set, in sorted order.
func Keys() []string {
	keys := make([]string, 0, len(setters))
	for k := range setters {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

var setters = map[string]func(c *Config, v string) error{
	"server": func(c *Config, v string) error {
		c.Server = strings.TrimSpace(v)
		return nil
	},
	"timeout": func(c *Config, v string) error {
		v = strings.TrimSpace(v)
		if v != "" {
			if d, err := time.ParseDuration(v); err != nil || d <= 0 {
				return fmt.Errorf("invalid timeout %q (want e.g. 15s)", v)
			}
		}
		c.Timeout = v
		return nil
	},
	"db": func(c *Config, v string) error {
		c.DB = strings.TrimSpace(v)
		return nil
	},
	"tui.theme": func(c *Config, v string) error {
		v = strings.ToLower(strings.TrimSpace(v))
		switch v {
		case "", "auto", "light", "dark":
		default:
			return fmt.Errorf("invalid theme %q (want light|dark|auto)", v)
		}
		c.tui().Theme = v
		return nil
	},
	"tui.keepEditsOnRefresh": func(c *Config, v string) error {
		b, err := strconv.ParseBool(strings.TrimSpace(v))
		if err != nil {
			return fmt.Errorf("invalid boolean %q", v)
		}
		c.tui().KeepEditsOnRefresh = b
		return nil
	},
}

// Set assigns one key from Keys.
func (c *Config) Set(key, value string) error {
	fn, ok := setters[key]
	if !ok {
		return fmt.Errorf("unknown config key %q (known: %s)", key, strings.Join(Keys(), ", "))
	}
	return fn(c, value)
}

func (c *Config) tui() *TUIConfig {
	if c.TUI == nil {
		c.TUI = &TUIConfig{}
	}
	return c.TUI
}

func (c *Config) Theme() string {
	if c == nil || c.TUI == nil {
		return ""
	}
	return c.TUI.Theme
}

func (c *Config) KeepEditsOnRefresh() bool {
	return c != nil && c.TUI != nil && c.TUI.KeepEditsOnRefresh
}
