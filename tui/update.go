package tui

import (
	"errors"

	"ainewsbot/types"

	tea "github.com/charmbracelet/bubbletea"
)

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKeyPress(msg)
	case tea.WindowSizeMsg:
		m.Width = msg.Width
		return m, nil
	case TickMsg:
		return m, tea.Batch(pollStatus(m.Client), tickCmd())
	case StatusUpdateMsg:
		if msg.Err != nil {
			m.Connected = false
			m.Err = msg.Err
			return m, nil
		}
		return m.applyStatus(msg.Status), nil
	case CycleStartedMsg:
		switch {
		case msg.Err == nil:
			m.Notice = "🔄 Cycle started"
			m.InProgress = true
		case errors.Is(msg.Err, types.ErrCycleInProgress):
			m.Notice = "⏳ A cycle is already running"
		default:
			m.Notice = ""
			m.Err = msg.Err
		}
		return m, pollStatus(m.Client)
	}
	return m, nil
}

func (m Model) handleKeyPress(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c", "q":
		return m, tea.Quit
	case "r", "R":
		if m.InProgress {
			m.Notice = "⏳ A cycle is already running"
			return m, nil
		}
		m.Notice = "📤 Requesting cycle..."
		return m, startCycle(m.Client)
	}
	return m, nil
}
