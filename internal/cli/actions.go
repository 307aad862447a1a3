package cli

import (
	"signer-cli/internal/editor"

	"github.com/spf13/cobra"
)

func newActionsCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "actions",
		Short: "List the action types the store accepts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctrl, err := app.controller()
			if err != nil {
				return writeErr(cmd, err)
			}
			s := app.session()
			if err := ctrl.Run(cmd.Context(), s, editor.ActionsRequest{}); err != nil {
				return writeErr(cmd, errTask("load action types", "", err))
			}
			return writeOut(cmd, app, map[string]any{"data": s.Registry().Descriptors()})
		},
	}
}
