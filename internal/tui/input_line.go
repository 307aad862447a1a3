package tui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
	xansi "github.com/charmbracelet/x/ansi"
)

const minInputWidth = 10

var lineBreaks = strings.NewReplacer("\r\n", " ", "\n", " ", "\r", " ")

// renderInputLine draws a text input as a single padded row of width w on the
// input background.
func renderInputLine(w int, inputView string) string {
	w = max(w, minInputWidth)
	cell := " " + lineBreaks.Replace(inputView) + " "
	line := lipgloss.PlaceHorizontal(w, lipgloss.Left, cell,
		lipgloss.WithWhitespaceChars(" "),
		lipgloss.WithWhitespaceBackground(colorInputBg),
	)
	if xansi.StringWidth(line) <= w {
		return line
	}
	return xansi.Truncate(line, w, "") + "\x1b[0m"
}
