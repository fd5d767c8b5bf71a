package ui

import (
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"reci/internal/model"
	"reci/internal/nav"
)

// toast is the one-shot notification line. Arming a new toast replaces the
// current one; only the expiry tick carrying the current id clears it.
type toast struct {
	id    int
	text  string
	level nav.Level
}

func (t *toast) arm(text string, level nav.Level, d time.Duration) tea.Cmd {
	t.id++
	t.text = text
	t.level = level
	id := t.id
	return tea.Tick(d, func(time.Time) tea.Msg {
		return model.ToastExpiredMsg{ID: id}
	})
}

func (t *toast) expire(id int) {
	if id == t.id {
		t.text = ""
	}
}

func (t toast) visible() bool {
	return t.text != ""
}

func (t toast) View(width int) string {
	style := StatusBarStyle
	switch t.level {
	case nav.LevelSuccess:
		style = SuccessStyle
	case nav.LevelWarn:
		style = WarningStyle
	}
	return style.Width(width).Render(t.text)
}
