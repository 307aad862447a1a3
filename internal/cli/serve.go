package cli

import (
	"context"
	"errors"
	"log"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"signer-cli/internal/config"
	"signer-cli/internal/taskstore"

	"github.com/spf13/cobra"
)

func newServeCmd(app *App) *cobra.Command {
	var addr string
	var dbPath string
	var memory bool

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run a local sign task store",
		Long: strings.TrimSpace(`
Run the sign task store the editor talks to, backed by a SQLite file or, with
--memory, by process memory.

The store validates configs on save the same way the full service does, so
edits that pass here are accepted there.
`),
		Example: strings.TrimSpace(`
signer serve --addr 127.0.0.1:8080 --db ./tasks.sqlite
signer serve --memory
`),
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			listenAddr := strings.TrimSpace(addr)
			if listenAddr == "" {
				return writeErr(cmd, errors.New("serve: missing --addr"))
			}

			repo, dbUsed, closeRepo, err := openRepo(cmd.Context(), app, dbPath, memory)
			if err != nil {
				return writeErr(cmd, err)
			}
			defer func() { _ = closeRepo() }()

			logger := log.New(cmd.ErrOrStderr(), "signer-serve ", log.LstdFlags|log.LUTC)
			srv := &http.Server{
				Handler:           taskstore.NewHandler(repo, logger),
				ReadHeaderTimeout: 5 * time.Second,
			}

			ln, err := net.Listen("tcp", listenAddr)
			if err != nil {
				return writeErr(cmd, err)
			}
			actualAddr := ln.Addr().String()

			storeKind := "sqlite"
			if memory {
				storeKind = "memory"
			}
			_ = writeOut(cmd, app, map[string]any{
				"data": map[string]any{
					"addr":      actualAddr,
					"url":       "http://" + actualAddr,
					"store":     storeKind,
					"db":        dbUsed,
					"startedAt": time.Now().UTC().Format(time.RFC3339Nano),
				},
			})

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			errCh := make(chan error, 1)
			go func() {
				logger.Printf("listening on %s", actualAddr)
				errCh <- srv.Serve(ln)
			}()

			select {
			case err := <-errCh:
				if errors.Is(err, http.ErrServerClosed) {
					return nil
				}
				return writeErr(cmd, err)
			case <-ctx.Done():
				logger.Printf("shutting down")
				shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				return srv.Shutdown(shutdownCtx)
			}
		},
	}

	cmd.Flags().StringVar(&addr, "addr", envOr("SIGNER_ADDR", "127.0.0.1:8080"), "Bind address (host:port or :port)")
	cmd.Flags().StringVar(&dbPath, "db", envOr("SIGNER_DB", ""), "SQLite file (default: config db, then ~/.signer/tasks.sqlite)")
	cmd.Flags().BoolVar(&memory, "memory", false, "Keep tasks in memory only")
	return cmd
}

// openRepo picks the store backend. The returned path is empty for memory
// stores.
func openRepo(ctx context.Context, app *App, dbPath string, memory bool) (taskstore.Repo, string, func() error, error) {
	if memory {
		return taskstore.NewMemoryRepo(), "", func() error { return nil }, nil
	}
	path := strings.TrimSpace(dbPath)
	if path == "" && app.cfg != nil {
		path = strings.TrimSpace(app.cfg.DB)
	}
	if path == "" {
		p, err := config.DefaultDBPath()
		if err != nil {
			return nil, "", nil, err
		}
		path = p
	}
	repo, err := taskstore.OpenSQLite(ctx, path)
	if err != nil {
		return nil, "", nil, err
	}
	return repo, path, repo.Close, nil
}
