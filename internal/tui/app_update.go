package tui

import (
	"log"
	"time"

	"signer-cli/internal/editor"

	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
)

func (m appModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	before := m.session.Status().Seq
	m, cmd := m.update(msg)

	// Every new status message gets its own dismiss timer; ExpireStatus ignores
	// timers for messages that were already replaced.
	if st := m.session.Status(); st.Seq != before && st.Kind != editor.StatusNone && m.statusTTL > 0 {
		seq := st.Seq
		cmd = batch(cmd, tea.Tick(m.statusTTL, func(time.Time) tea.Msg { return statusDoneMsg{seq: seq} }))
	}
	return m, cmd
}

func (m appModel) update(msg tea.Msg) (appModel, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.resize()
		return m, nil

	case resultsMsg:
		if m.busy > 0 {
			m.busy--
		}
		var follow []editor.Request
		for _, res := range msg.results {
			if m.debug {
				log.Printf("result %T err=%v", res, res.Err())
			}
			follow = append(follow, m.session.Apply(res)...)
		}
		cmd := m.run(follow...)
		m.refresh()
		return m, cmd

	case statusDoneMsg:
		if m.session.ExpireStatus(msg.seq) {
			m.refresh()
		}
		return m, nil

	case tea.KeyMsg:
		if m.debug {
			log.Printf("key %q pane=%d modal=%d", msg.String(), m.pane, m.modal)
		}
		if m.modal != modalNone {
			return m.updateModal(msg)
		}
		return m.updateKey(msg)
	}

	if m.pane == panePicker {
		var cmd tea.Cmd
		m.picker, cmd = m.picker.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m appModel) updateKey(msg tea.KeyMsg) (appModel, tea.Cmd) {
	// While the picker filter has focus every key is filter input.
	if m.pane == panePicker && m.picker.FilterState() == list.Filtering {
		var cmd tea.Cmd
		m.picker, cmd = m.picker.Update(msg)
		return m, cmd
	}

	switch msg.String() {
	case "ctrl+c", "q":
		return m, tea.Quit
	case "tab", "shift+tab":
		if m.pane == panePicker && m.view.Form != nil {
			m.pane = paneForm
		} else {
			m.pane = panePicker
		}
		return m, nil
	case "?":
		m.modal = modalHelp
		return m, nil
	case "n":
		m.openInput(modalCreate, "", "my_sign_task")
		return m, nil
	case "r":
		return m, m.run(m.session.Refresh())
	case "ctrl+s":
		req, err := m.session.Save()
		if err != nil {
			return m, nil
		}
		return m, m.run(req)
	case "D":
		if m.session.DeleteEnabled() {
			m.modal = modalConfirmDelete
			m.confirmFocus = confirmFocusCancel
		}
		return m, nil
	}

	if m.pane == paneForm {
		return m.updateForm(msg)
	}
	return m.updatePicker(msg)
}

func (m appModel) updatePicker(msg tea.KeyMsg) (appModel, tea.Cmd) {
	if msg.String() == "enter" {
		it, ok := m.picker.SelectedItem().(taskItem)
		if !ok {
			return m, nil
		}
		m.pane = paneForm
		cmd := m.run(m.session.Select(it.name))
		m.refresh()
		return m, cmd
	}
	var cmd tea.Cmd
	m.picker, cmd = m.picker.Update(msg)
	return m, cmd
}

func (m appModel) updateForm(msg tea.KeyMsg) (appModel, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.pane = panePicker
		return m, nil
	case "up", "k", "ctrl+p":
		m.focus = nextFocusable(m.controls, m.focus, -1)
		return m, nil
	case "down", "j", "ctrl+n":
		m.focus = nextFocusable(m.controls, m.focus, 1)
		return m, nil
	case "home", "g":
		m.focus = clampFocus(m.controls, 0)
		return m, nil
	case "end", "G":
		m.focus = nextFocusable(m.controls, len(m.controls), -1)
		return m, nil
	}

	c, ok := m.focused()
	if !ok {
		return m, nil
	}
	key := msg.String()
	switch c.kind {
	case controlField:
		if key == "enter" || key == "e" {
			m.editRef = c.field.Ref
			m.openInput(modalEditField, c.field.Value, c.field.Placeholder)
		}
	case controlType:
		delta := 0
		switch key {
		case "left", "h":
			delta = -1
		case "right", "l", "enter", " ":
			delta = 1
		}
		if delta == 0 {
			return m, nil
		}
		if v, changed := c.sel.Cycle(delta); changed {
			_ = m.session.SetActionType(c.chat, c.action, v)
			m.refresh()
		}
	case controlButton:
		if key == "enter" || key == " " {
			m.press(c)
		}
	}
	return m, nil
}

// press runs a form button. Failed edits leave the focus where it was.
func (m *appModel) press(c control) {
	var target func(cs []control) int
	switch c.button {
	case buttonAddChat:
		idx, err := m.session.AddChat()
		if err == nil {
			target = func(cs []control) int { return firstOf(cs, controlField, idx, -1) }
		}
	case buttonRemoveChat:
		_ = m.session.RemoveChat(c.chat)
	case buttonAddAction:
		idx, err := m.session.AddAction(c.chat)
		if err == nil {
			target = func(cs []control) int { return firstOf(cs, controlType, c.chat, idx) }
		}
	case buttonRemoveAction:
		_ = m.session.RemoveAction(c.chat, c.action)
	}
	m.refresh()
	if target != nil {
		if i := target(m.controls); i >= 0 {
			m.focus = i
		}
	}
}

// firstOf finds the first control of kind in chat (and action, when action is
// not negative).
func firstOf(cs []control, kind controlKind, chat, action int) int {
	for i, c := range cs {
		if c.kind != kind || c.chat != chat {
			continue
		}
		if kind == controlField && c.field.Ref.Scope != editor.ScopeChat {
			continue
		}
		if action >= 0 && c.action != action {
			continue
		}
		return i
	}
	return -1
}

func (m *appModel) openInput(kind modalKind, value, placeholder string) {
	m.modal = kind
	m.input.SetValue(value)
	m.input.Placeholder = placeholder
	m.input.CursorEnd()
	m.input.Focus()
}

func (m *appModel) closeModal() {
	m.modal = modalNone
	m.input.Blur()
	m.input.SetValue("")
}

func (m appModel) updateModal(msg tea.KeyMsg) (appModel, tea.Cmd) {
	switch m.modal {
	case modalHelp:
		switch msg.String() {
		case "esc", "?", "q", "enter":
			m.modal = modalNone
		}
		return m, nil

	case modalConfirmDelete:
		return m.updateConfirmDelete(msg)

	case modalCreate, modalEditField:
		switch msg.String() {
		case "esc":
			m.closeModal()
			return m, nil
		case "enter":
			return m.submitInput()
		}
		var cmd tea.Cmd
		m.input, cmd = m.input.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m appModel) submitInput() (appModel, tea.Cmd) {
	value := m.input.Value()
	kind := m.modal
	m.closeModal()

	switch kind {
	case modalCreate:
		req, err := m.session.Create(value)
		if err != nil {
			m.refresh()
			return m, nil
		}
		return m, m.run(req)
	case modalEditField:
		_ = m.session.SetField(m.editRef, value)
		m.refresh()
	}
	return m, nil
}

func (m appModel) updateConfirmDelete(msg tea.KeyMsg) (appModel, tea.Cmd) {
	confirm := false
	switch msg.String() {
	case "esc", "n":
		m.modal = modalNone
		return m, nil
	case "tab", "shift+tab", "left", "right", "h", "l":
		if m.confirmFocus == confirmFocusConfirm {
			m.confirmFocus = confirmFocusCancel
		} else {
			m.confirmFocus = confirmFocusConfirm
		}
		return m, nil
	case "y":
		confirm = true
	case "enter":
		confirm = m.confirmFocus == confirmFocusConfirm
	default:
		return m, nil
	}

	m.modal = modalNone
	if !confirm {
		return m, nil
	}
	req, err := m.session.Delete()
	if err != nil {
		return m, nil
	}
	return m, m.run(req)
}
