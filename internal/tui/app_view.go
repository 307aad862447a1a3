package tui

import (
	"strings"

	"signer-cli/internal/docs"
	"signer-cli/internal/editor"

	"github.com/charmbracelet/lipgloss"
)

func (m appModel) View() string {
	if m.width <= 0 || m.height <= 0 {
		return ""
	}
	if m.modal != modalNone {
		return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, m.renderModal())
	}

	bodyH := m.bodyHeight()
	if bodyH < 1 {
		bodyH = 1
	}
	formW := m.width - pickerWidth - 3
	if formW < 10 {
		formW = 10
	}

	left := normalizePane(m.renderPicker(bodyH), pickerWidth, bodyH)
	sep := styleMuted().Render(strings.TrimSuffix(strings.Repeat(" │ \n", bodyH), "\n"))
	right := normalizePane(m.renderForm(formW, bodyH), formW, bodyH)

	return strings.Join([]string{
		m.renderHeader(),
		lipgloss.JoinHorizontal(lipgloss.Top, left, sep, right),
		m.renderStatus(),
		m.renderFooter(),
	}, "\n")
}

func (m appModel) renderHeader() string {
	h := m.view.Header

	title := styleHeading().Render(h.Title)
	if h.Dirty {
		title += "  " + lipgloss.NewStyle().Foreground(colorDirtyFg).Render("● unsaved")
	}
	if m.busy > 0 {
		title += "  " + styleMuted().Render("syncing…")
	}

	on := lipgloss.NewStyle().Foreground(colorAccentFg).Background(colorAccent).Padding(0, 1)
	off := styleMuted().Padding(0, 1)
	affordance := func(label string, enabled bool) string {
		if enabled {
			return on.Render(label)
		}
		return off.Render(label)
	}
	actions := lipgloss.JoinHorizontal(lipgloss.Top,
		affordance("ctrl+s save", h.SaveEnabled), " ",
		affordance("D delete", h.DeleteEnabled),
	)

	gap := m.width - lipgloss.Width(title) - lipgloss.Width(actions)
	if gap < 1 {
		gap = 1
	}
	line1 := title + strings.Repeat(" ", gap) + actions

	sub := h.Subtitle
	if m.server != "" {
		sub += "  ·  " + m.server
	}
	return normalizePane(line1+"\n"+styleMuted().Render(sub), m.width, 2)
}

func (m appModel) renderPicker(height int) string {
	head := "Tasks"
	if m.pane == panePicker {
		head = styleHeading().Render(head)
	} else {
		head = styleMuted().Render(head)
	}
	if len(m.view.Picker.Items) == 0 {
		return head + "\n\n" + styleMuted().Render(m.view.Picker.Placeholder)
	}
	p := m.picker
	p.SetSize(pickerWidth, height-1)
	return head + "\n" + p.View()
}

func (m appModel) renderForm(width, height int) string {
	if m.view.Form == nil {
		msg := editor.EmptyStateText
		if m.busy > 0 && m.session.Active() == "" && m.pane == paneForm {
			msg = "Loading…"
		}
		return styleMuted().Width(width).Render(msg)
	}

	lines := make([]string, 0, len(m.controls))
	for i, c := range m.controls {
		ln := renderControl(c)
		if m.pane == paneForm && i == m.focus {
			ln = styleFocused().Render(ln)
		}
		lines = append(lines, ln)
	}
	start, end := scrollWindow(len(lines), height, m.focus)
	return strings.Join(lines[start:end], "\n")
}

func renderControl(c control) string {
	pad := strings.Repeat("  ", c.indent)
	switch c.kind {
	case controlSection:
		return styleHeading().Render(c.label)
	case controlField:
		value := c.field.Value
		if value == "" {
			value = styleMuted().Render(placeholderText(c.field.Placeholder))
		}
		return pad + c.label + ": " + value
	case controlType:
		label := c.sel.Label()
		if !c.sel.Known {
			label = lipgloss.NewStyle().Foreground(colorErrorFg).Render(label)
		}
		return pad + c.label + ": ‹ " + label + " ›"
	case controlButton:
		return pad + styleMuted().Render("["+c.label+"]")
	}
	return ""
}

func placeholderText(p string) string {
	if p == "" {
		return "(empty)"
	}
	return "(" + p + ")"
}

func (m appModel) renderStatus() string {
	st := m.view.Status
	if st.Kind == editor.StatusNone || st.Text == "" {
		return ""
	}
	style := lipgloss.NewStyle().Foreground(colorSuccessFg)
	if st.Kind == editor.StatusError {
		style = lipgloss.NewStyle().Foreground(colorErrorFg)
	}
	return normalizePane(style.Render(st.Text), m.width, 1)
}

func (m appModel) renderFooter() string {
	var hint string
	switch m.pane {
	case panePicker:
		hint = "enter: open   n: new   /: filter   r: refresh   tab: form   ?: help   q: quit"
	case paneForm:
		hint = "↑/↓: move   enter: edit   ←/→: type   ctrl+s: save   esc: list   ?: help"
	}
	return normalizePane(styleMuted().Render(hint), m.width, 1)
}

func (m appModel) renderModal() string {
	switch m.modal {
	case modalCreate:
		return renderInputModal(m.width, "New task", "Name", m.input.View(), "enter: create   esc: cancel")
	case modalEditField:
		label := m.editRef.String()
		if c, ok := m.focused(); ok && c.kind == controlField {
			label = c.label
		}
		return renderInputModal(m.width, "Edit field", label, m.input.View(), "enter: apply   esc: cancel")
	case modalConfirmDelete:
		body := "Delete task " + m.session.Active() + "? This cannot be undone."
		return renderConfirmModal(m.width, "Delete task", body, "Delete", "Cancel", m.confirmFocus)
	case modalHelp:
		md, _ := docs.Get("keys")
		body := renderMarkdown(md, modalBodyWidth(m.width))
		if limit := m.height - 6; limit > 0 {
			lines := strings.Split(body, "\n")
			if len(lines) > limit {
				body = strings.Join(lines[:limit], "\n")
			}
		}
		return renderModalBox(m.width, "Help", body)
	}
	return ""
}
