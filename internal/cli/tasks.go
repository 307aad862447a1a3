package cli

import (
	"errors"
	"fmt"
	"strings"

	"signer-cli/internal/editor"

	"github.com/spf13/cobra"
)

func newTasksCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tasks",
		Short: "Sign task commands",
	}
	cmd.AddCommand(newTasksListCmd(app))
	cmd.AddCommand(newTasksShowCmd(app))
	cmd.AddCommand(newTasksCreateCmd(app))
	cmd.AddCommand(newTasksSetCmd(app))
	cmd.AddCommand(newTasksDeleteCmd(app))
	cmd.AddCommand(newTasksTemplateCmd(app))
	return cmd
}

type taskOut struct {
	Name   string `json:"name"`
	Config any    `json:"config"`
}

func newTasksListCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List task names",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctrl, err := app.controller()
			if err != nil {
				return writeErr(cmd, err)
			}
			s := app.session()
			if err := ctrl.Run(cmd.Context(), s, s.Refresh()); err != nil {
				return writeErr(cmd, errTask("list tasks", "", err))
			}
			return writeOut(cmd, app, map[string]any{"data": s.Tasks()})
		},
	}
}

// loadTask opens a session on name. Without an action catalogue the session
// carries on with an empty registry, as the editor does.
func loadTask(cmd *cobra.Command, app *App, name string) (*editor.Controller, *editor.Session, error) {
	ctrl, err := app.controller()
	if err != nil {
		return nil, nil, err
	}
	s := app.session()
	if err := ctrl.Run(cmd.Context(), s, editor.ActionsRequest{}); err != nil {
		fmt.Fprintf(cmd.ErrOrStderr(), "warning: %s\n", s.Status().Text)
	}
	if err := ctrl.Run(cmd.Context(), s, s.Select(name)); err != nil {
		return nil, nil, errTask("load task", name, err)
	}
	return ctrl, s, nil
}

func newTasksShowCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "show <name>",
		Short: "Show a task's config",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			_, s, err := loadTask(cmd, app, args[0])
			if err != nil {
				return writeErr(cmd, err)
			}
			return writeOut(cmd, app, map[string]any{"data": taskOut{Name: s.Active(), Config: s.Document()}})
		},
	}
}

func newTasksCreateCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "create <name>",
		Short: "Create a task with the store's default config",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctrl, err := app.controller()
			if err != nil {
				return writeErr(cmd, err)
			}
			s := app.session()
			req, err := s.Create(args[0])
			if err != nil {
				return writeErr(cmd, errTask("create", "", err))
			}
			if err := ctrl.Run(cmd.Context(), s, req); err != nil {
				return writeErr(cmd, errTask("create", strings.TrimSpace(args[0]), err))
			}
			return writeOut(cmd, app, map[string]any{"data": taskOut{Name: s.Active(), Config: s.Document()}})
		},
	}
}

func newTasksSetCmd(app *App) *cobra.Command {
	var dryRun bool
	var addChats int
	var addActions []int

	cmd := &cobra.Command{
		Use:   "set <name> [<path>=<value>...]",
		Short: "Edit task fields and save",
		Long: strings.TrimSpace(`
Apply one or more field edits to a task, then save it.

--add-chat and --add-action run before the field edits, so new chats and
actions can be filled in by the same call.

Paths name a general field (sign_at), a chat field (chats.0.chat_id) or an
action field (chats.0.actions.1.text). Setting chats.N.actions.M.action changes
the action type. Values are coerced exactly as in the editor; run
` + "`signer docs fields`" + ` for the rules.
`),
		Example: strings.TrimSpace(`
signer tasks set alpha sign_at=07:30 random_seconds=60
signer tasks set alpha chats.0.actions.0.action=2
signer tasks set alpha --add-chat chats.1.chat_id=-100 chats.1.actions.0.text=hi
`),
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			name := args[0]
			if len(args) == 1 && addChats == 0 && len(addActions) == 0 {
				return writeErr(cmd, errors.New("nothing to change"))
			}
			ctrl, s, err := loadTask(cmd, app, name)
			if err != nil {
				return writeErr(cmd, err)
			}
			for i := 0; i < addChats; i++ {
				if _, err := s.AddChat(); err != nil {
					return writeErr(cmd, err)
				}
			}
			for _, chat := range addActions {
				if _, err := s.AddAction(chat); err != nil {
					return writeErr(cmd, fmt.Errorf("add action to chat %d: %s", chat, editor.Describe(err)))
				}
			}
			for _, arg := range args[1:] {
				path, value, ok := strings.Cut(arg, "=")
				if !ok {
					return writeErr(cmd, fmt.Errorf("expected <path>=<value>; got %q", arg))
				}
				ref, err := editor.ParseFieldRef(strings.TrimSpace(path))
				if err != nil {
					return writeErr(cmd, err)
				}
				if err := s.SetField(ref, value); err != nil {
					return writeErr(cmd, fmt.Errorf("%s: %s", ref, editor.Describe(err)))
				}
			}

			if !dryRun {
				req, err := s.Save()
				if err != nil {
					return writeErr(cmd, errTask("save", name, err))
				}
				if err := ctrl.Run(cmd.Context(), s, req); err != nil {
					return writeErr(cmd, errTask("save", name, err))
				}
			}
			return writeOut(cmd, app, map[string]any{
				"data":  taskOut{Name: name, Config: s.Document()},
				"saved": !dryRun,
			})
		},
	}

	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Print the edited config without saving")
	cmd.Flags().IntVar(&addChats, "add-chat", 0, "Append this many chats before editing")
	cmd.Flags().Lookup("add-chat").NoOptDefVal = "1"
	cmd.Flags().IntSliceVar(&addActions, "add-action", nil, "Append an action to chat N before editing (repeatable)")
	return cmd
}

func newTasksDeleteCmd(app *App) *cobra.Command {
	var yes bool

	cmd := &cobra.Command{
		Use:   "delete <name>",
		Short: "Delete a task",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			name := args[0]
			if !yes {
				return writeErr(cmd, errors.New("refusing to delete without --yes"))
			}
			ctrl, s, err := loadTask(cmd, app, name)
			if err != nil {
				return writeErr(cmd, err)
			}
			req, err := s.Delete()
			if err != nil {
				return writeErr(cmd, errTask("delete", name, err))
			}
			if err := ctrl.Run(cmd.Context(), s, req); err != nil {
				return writeErr(cmd, errTask("delete", name, err))
			}
			return writeOut(cmd, app, map[string]any{"data": map[string]any{"deleted": name, "remaining": s.Tasks()}})
		},
	}

	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "Confirm the deletion")
	return cmd
}

func newTasksTemplateCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "template",
		Short: "Show the config new tasks start from",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := app.client()
			if err != nil {
				return writeErr(cmd, err)
			}
			t, err := c.Template(cmd.Context())
			if err != nil {
				return writeErr(cmd, errTask("load template", "", err))
			}
			return writeOut(cmd, app, map[string]any{"data": t})
		},
	}
}
