package tui

import (
	"context"
	"time"

	"signer-cli/internal/editor"

	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
)

const pickerWidth = 28

type appModel struct {
	ctrl    *editor.Controller
	session *editor.Session
	view    editor.View

	width  int
	height int

	pane   pane
	picker list.Model
	// shownActive is the task the picker cursor was last moved to.
	shownActive string

	controls []control
	focus    int

	modal        modalKind
	input        textinput.Model
	editRef      editor.FieldRef
	confirmFocus confirmModalFocus

	// busy counts request batches in flight.
	busy      int
	statusTTL time.Duration

	server string
	debug  bool
}

type taskItem struct {
	name   string
	active bool
}

func (i taskItem) FilterValue() string { return i.name }
func (i taskItem) Title() string {
	if i.active {
		return "● " + i.name
	}
	return "  " + i.name
}
func (i taskItem) Description() string { return "" }

func newAppModel(ctrl *editor.Controller, sess *editor.Session, server string) appModel {
	m := appModel{
		ctrl:      ctrl,
		session:   sess,
		pane:      panePicker,
		statusTTL: editor.StatusTTL,
		server:    server,
		busy:      1, // Init's start batch
	}
	m.picker = newPicker()
	m.input = textinput.New()
	m.input.Prompt = ""
	m.input.CharLimit = 512
	m.refresh()
	return m
}

func newPicker() list.Model {
	d := list.NewDefaultDelegate()
	d.ShowDescription = false
	d.SetSpacing(0)

	l := list.New([]list.Item{}, d, 0, 0)
	l.Title = "Tasks"
	l.SetShowTitle(false)
	l.SetShowHelp(false)
	l.SetShowStatusBar(false)
	l.SetShowPagination(false)
	l.SetFilteringEnabled(true)
	l.SetStatusBarItemName("task", "tasks")
	// esc closes modals and leaves the form pane; it never quits.
	l.KeyMap.Quit.SetKeys("q")
	return l
}

func (m appModel) Init() tea.Cmd {
	return m.perform(m.session.Start()...)
}

// perform returns one command that runs reqs in order off the event loop and
// reports all of their results together.
func (m appModel) perform(reqs ...editor.Request) tea.Cmd {
	if len(reqs) == 0 {
		return nil
	}
	ctrl := m.ctrl
	return func() tea.Msg {
		results := make([]editor.Result, 0, len(reqs))
		for _, req := range reqs {
			results = append(results, ctrl.Perform(context.Background(), req))
		}
		return resultsMsg{results: results}
	}
}

func (m *appModel) run(reqs ...editor.Request) tea.Cmd {
	cmd := m.perform(reqs...)
	if cmd != nil {
		m.busy++
	}
	return cmd
}

// refresh re-renders the session and rebuilds everything derived from it.
func (m *appModel) refresh() {
	m.view = editor.Render(m.session)

	items := make([]list.Item, 0, len(m.view.Picker.Items))
	activeIdx := -1
	for i, it := range m.view.Picker.Items {
		items = append(items, taskItem{name: it.Name, active: it.Active})
		if it.Active {
			activeIdx = i
		}
	}
	_ = m.picker.SetItems(items)

	if active := m.session.Active(); active != m.shownActive {
		m.shownActive = active
		m.focus = 0
		if activeIdx >= 0 {
			m.picker.Select(activeIdx)
		}
	}

	m.controls = buildControls(m.view.Form)
	m.focus = clampFocus(m.controls, m.focus)
	if m.view.Form == nil && m.pane == paneForm && m.busy == 0 {
		m.pane = panePicker
	}
}

func (m *appModel) resize() {
	h := m.bodyHeight()
	if h < 1 {
		h = 1
	}
	m.picker.SetSize(pickerWidth, h)
}

// bodyHeight is the height left for the panes under the two header lines and
// above the status and footer lines.
func (m appModel) bodyHeight() int {
	return m.height - 4
}

func (m appModel) focused() (control, bool) {
	if m.focus < 0 || m.focus >= len(m.controls) {
		return control{}, false
	}
	c := m.controls[m.focus]
	return c, c.focusable()
}

// batch is tea.Batch without nil commands, so a lone command stays unwrapped.
func batch(cmds ...tea.Cmd) tea.Cmd {
	var out []tea.Cmd
	for _, c := range cmds {
		if c != nil {
			out = append(out, c)
		}
	}
	switch len(out) {
	case 0:
		return nil
	case 1:
		return out[0]
	}
	return tea.Batch(out...)
}
