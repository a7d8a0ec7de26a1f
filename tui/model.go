// Package tui is a terminal monitor for a running ainewsbot service.
package tui

import (
	"time"

	"ainewsbot/types"

	tea "github.com/charmbracelet/bubbletea"
)

const maxLogLines = 10

// Model is the monitor state. Everything except Notice is synced from the service.
type Model struct {
	Client *Client

	State      types.State
	InProgress bool
	Logs       []types.LogEntry
	LastReport *types.CycleReport
	LastError  string
	NextRun    *time.Time

	// Notice is the outcome of the last key press, e.g. a rejected trigger.
	Notice string
	Err    error

	Connected bool
	// Width of the terminal; 0 until the first resize message.
	Width int
}

// NewModel creates a monitor for the service at baseURL.
func NewModel(baseURL string) Model {
	return Model{
		Client: NewClient(baseURL),
		State:  types.StateIdle,
	}
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	return tea.Batch(pollStatus(m.Client), tickCmd())
}

func (m Model) applyStatus(s *Status) Model {
	m.Connected = true
	m.Err = nil
	m.State = s.State
	m.InProgress = s.InProgress
	m.LastReport = s.LastReport
	m.LastError = s.Error
	m.NextRun = s.NextRun
	m.Logs = s.Logs
	if len(m.Logs) > maxLogLines {
		m.Logs = m.Logs[len(m.Logs)-maxLogLines:]
	}
	return m
}
