package tui

import (
	"log"
	"strings"

	"signer-cli/internal/editor"

	tea "github.com/charmbracelet/bubbletea"
)

type Options struct {
	// Server is shown in the header.
	Server string
	// Theme is the config file preference ("light", "dark", "auto" or "").
	Theme string
	// DebugLog names a file for key and request tracing; empty disables it.
	DebugLog string
}

// Run starts the interactive editor and blocks until the user quits.
func Run(ctrl *editor.Controller, sess *editor.Session, opts Options) error {
	applyColorProfilePreference()
	applyThemePreference(opts.Theme)

	m := newAppModel(ctrl, sess, opts.Server)
	if path := strings.TrimSpace(opts.DebugLog); path != "" {
		f, err := tea.LogToFile(path, "signer")
		if err != nil {
			return err
		}
		defer f.Close()
		m.debug = true
		log.Printf("editor start server=%s", opts.Server)
	}

	_, err := tea.NewProgram(m, tea.WithAltScreen()).Run()
	return err
}
