package cli

import (
	"fmt"
	"os"
	"strings"
	"time"

	"signer-cli/internal/client"
	"signer-cli/internal/config"
	"signer-cli/internal/editor"
	"signer-cli/internal/format"
	"signer-cli/internal/tui"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

const defaultServer = "http://127.0.0.1:8080"

type App struct {
	Server     string
	Timeout    time.Duration
	PrettyJSON bool
	Format     string
	// KeepEdits skips the reload of a dirty active task after a list refresh.
	KeepEdits bool

	cfg    *config.Config
	cfgErr error
}

func NewRootCmd() *cobra.Command {
	// Values from ./.env fill in unset SIGNER_* variables only.
	_ = godotenv.Load()

	app := &App{}
	app.cfg, app.cfgErr = config.Load()
	if app.cfg == nil {
		app.cfg = &config.Config{}
	}

	cmd := &cobra.Command{
		Use:          "signer",
		Short:        "Sign task editor (TUI + scriptable CLI)",
		SilenceUsage: true,
		Example: strings.TrimSpace(`
  # Start the interactive editor
  signer --server http://127.0.0.1:8080

  # Run a local store to edit against
  signer serve --db ./tasks.sqlite

  # Scriptable edits
  signer tasks create alpha
  signer tasks set alpha chats.0.chat_id=-100 chats.0.actions.0.text=hello
`),
		RunE: func(cmd *cobra.Command, args []string) error {
			// No subcommand => interactive editor.
			if len(args) == 0 {
				return runTUI(cmd, app)
			}
			return cmd.Help()
		},
	}

	cmd.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		if app.cfgErr != nil {
			fmt.Fprintf(cmd.ErrOrStderr(), "warning: ignoring config file: %v\n", app.cfgErr)
		}
		return nil
	}

	serverDefault := defaultServer
	if app.cfg.Server != "" {
		serverDefault = app.cfg.Server
	}
	timeoutDefault := app.cfg.TimeoutOr(client.DefaultTimeout)
	if v := envOr("SIGNER_TIMEOUT", ""); v != "" {
		if d, err := time.ParseDuration(v); err == nil && d > 0 {
			timeoutDefault = d
		}
	}

	cmd.PersistentFlags().StringVar(&app.Server, "server", envOr("SIGNER_SERVER", serverDefault), "Task store base URL")
	cmd.PersistentFlags().DurationVar(&app.Timeout, "timeout", timeoutDefault, "Per-request timeout")
	cmd.PersistentFlags().BoolVar(&app.PrettyJSON, "pretty", false, "Pretty-print JSON output")
	cmd.PersistentFlags().StringVar(&app.Format, "format", envOr("SIGNER_FORMAT", "json"), "Output format (json|yaml)")
	cmd.PersistentFlags().BoolVar(&app.KeepEdits, "keep-edits-on-refresh", app.cfg.KeepEditsOnRefresh(), "Keep unsaved edits when the task list refreshes")

	cmd.AddCommand(newTasksCmd(app))
	cmd.AddCommand(newActionsCmd(app))
	cmd.AddCommand(newServeCmd(app))
	cmd.AddCommand(newConfigCmd(app))
	cmd.AddCommand(newDocsCmd(app))

	return cmd
}

func runTUI(cmd *cobra.Command, app *App) error {
	ctrl, err := app.controller()
	if err != nil {
		return writeErr(cmd, err)
	}
	return tui.Run(ctrl, app.session(), tui.Options{
		Server:   app.Server,
		Theme:    app.cfg.Theme(),
		DebugLog: os.Getenv("SIGNER_TUI_DEBUG_LOG"),
	})
}

func (app *App) client() (*client.Client, error) {
	return client.New(app.Server, app.Timeout)
}

func (app *App) controller() (*editor.Controller, error) {
	c, err := app.client()
	if err != nil {
		return nil, err
	}
	return editor.NewController(c, app.Timeout), nil
}

func (app *App) session() *editor.Session {
	return editor.NewSession(editor.Options{KeepEditsOnRefresh: app.KeepEdits})
}

func envOr(k, d string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return d
}

func writeOut(cmd *cobra.Command, app *App, v any) error {
	return format.Write(cmd.OutOrStdout(), v, app.Format, app.PrettyJSON)
}

func writeErr(cmd *cobra.Command, err error) error {
	fmt.Fprintln(cmd.ErrOrStderr(), err.Error())
	return err
}
