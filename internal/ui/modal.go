package ui

import (
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// Modal is the interface for modal dialogs.
// The Update method returns the updated modal, a command, and a bool indicating if the modal should close.
type Modal interface {
	Update(msg tea.Msg, keys keyMap) (Modal, tea.Cmd, bool)
	View(theme Theme, width, height int) string
}

// messageModal is a dismissable alert.
type messageModal struct {
	title string
	body  string
	alert bool
}

func newMessageModal(title, body string, alert bool) messageModal {
	return messageModal{title: title, body: body, alert: alert}
}

func (d messageModal) Update(msg tea.Msg, keys keyMap) (Modal, tea.Cmd, bool) {
	km, ok := msg.(tea.KeyMsg)
	if !ok {
		return d, nil, false
	}
	if key.Matches(km, keys.Confirm, keys.Cancel, keys.Quit) {
		return nil, nil, true
	}
	return d, nil, false
}

func (d messageModal) View(theme Theme, width, height int) string {
	styles := theme.Styles()
	titleStyle := styles.AccentText.Bold(true)
	border := theme.Accent
	if d.alert {
		titleStyle = styles.DangerText
		border = theme.Danger
	}
	body := titleStyle.Render(d.title) + "\n\n" +
		styles.Text.Render(d.body) + "\n\n" +
		styles.FaintText.Render("enter/esc to dismiss")
	return placeModal(theme, border, body, width, height)
}

// confirmModal asks before running onConfirm.
type confirmModal struct {
	title     string
	body      string
	onConfirm tea.Cmd
}

func newConfirmModal(title, body string, onConfirm tea.Cmd) confirmModal {
	return confirmModal{title: title, body: body, onConfirm: onConfirm}
}

func (d confirmModal) Update(msg tea.Msg, keys keyMap) (Modal, tea.Cmd, bool) {
	km, ok := msg.(tea.KeyMsg)
	if !ok {
		return d, nil, false
	}
	switch {
	case key.Matches(km, keys.Confirm):
		return nil, d.onConfirm, true
	case key.Matches(km, keys.Cancel):
		return nil, nil, true
	}
	return d, nil, false
}

func (d confirmModal) View(theme Theme, width, height int) string {
	styles := theme.Styles()
	body := styles.WarningText.Bold(true).Render(d.title) + "\n\n" +
		styles.Text.Render(d.body) + "\n\n" +
		styles.AccentText.Render("enter/y") + styles.MutedText.Render(" confirm   ") +
		styles.AccentText.Render("esc/n") + styles.MutedText.Render(" cancel")
	return placeModal(theme, theme.Warning, body, width, height)
}

// placeModal centers a bordered box over the screen.
func placeModal(theme Theme, border, content string, width, height int) string {
	modalWidth := min(60, max(width-4, 20))
	box := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color(border)).
		Padding(1, 2).
		Width(modalWidth).
		Render(strings.TrimRight(content, "\n"))

	return lipgloss.Place(
		width,
		height,
		lipgloss.Center,
		lipgloss.Center,
		box,
		lipgloss.WithWhitespaceChars(" "),
		lipgloss.WithWhitespaceForeground(lipgloss.Color(theme.Background)),
	)
}
