package tui

import (
	"time"

	tea "github.com/charmbracelet/bubbletea"
)

const pollInterval = time.Second

// StatusUpdateMsg carries the result of one status poll.
type StatusUpdateMsg struct {
	Status *Status
	Err    error
}

// TickMsg is sent periodically to trigger polling.
type TickMsg struct {
	Time time.Time
}

// CycleStartedMsg is sent after a manual trigger request returns.
type CycleStartedMsg struct {
	Err error
}

func pollStatus(client *Client) tea.Cmd {
	return func() tea.Msg {
		status, err := client.GetStatus()
		return StatusUpdateMsg{Status: status, Err: err}
	}
}

func startCycle(client *Client) tea.Cmd {
	return func() tea.Msg {
		return CycleStartedMsg{Err: client.StartCycle()}
	}
}

func tickCmd() tea.Cmd {
	return tea.Tick(pollInterval, func(t time.Time) tea.Msg {
		return TickMsg{Time: t}
	})
}
