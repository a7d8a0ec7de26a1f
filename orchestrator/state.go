package orchestrator

import (
	"fmt"
	"sync"
	"time"

	"ainewsbot/types"
)

const maxLogs = 50

// StateManager holds the coordinator state shown by the status API.
type StateManager struct {
	mu sync.RWMutex

	currentState types.State
	cycleID      string
	lastReport   *types.CycleReport
	lastErr      error

	// ring buffer of recent log lines
	logs    []types.LogEntry
	maxLogs int

	now func() time.Time
}

// NewStateManager creates an idle state manager.
func NewStateManager() *StateManager {
	return &StateManager{
		currentState: types.StateIdle,
		logs:         make([]types.LogEntry, 0, maxLogs),
		maxLogs:      maxLogs,
		now:          time.Now,
	}
}

// AddLog appends a line to the ring buffer.
func (m *StateManager) AddLog(message string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.addLogLocked(message)
}

func (m *StateManager) addLogLocked(message string) {
	m.logs = append(m.logs, types.LogEntry{Timestamp: m.now(), Message: message})
	if len(m.logs) > m.maxLogs {
		m.logs = m.logs[len(m.logs)-m.maxLogs:]
	}
}

// Begin marks the start of a cycle and clears the previous error.
func (m *StateManager) Begin(cycleID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.cycleID = cycleID
	m.lastErr = nil
	m.currentState = types.StateFetching
}

func (m *StateManager) SetState(state types.State) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.currentState = state
}

func (m *StateManager) State() types.State {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.currentState
}

// SetError moves to the failed state and records err.
func (m *StateManager) SetError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.currentState = types.StateFailed
	m.lastErr = err
	m.addLogLocked(fmt.Sprintf("Error: %v", err))
}

// Finish stores the cycle report and returns to idle. The last error, if any, is kept.
func (m *StateManager) Finish(report *types.CycleReport) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.lastReport = report
	m.currentState = types.StateIdle
}

// LastReport returns the report of the latest finished cycle, or nil.
func (m *StateManager) LastReport() *types.CycleReport {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.lastReport
}

// Status returns a snapshot for the status API.
func (m *StateManager) Status() types.StatusResponse {
	m.mu.RLock()
	defer m.mu.RUnlock()

	resp := types.StatusResponse{
		State:      m.currentState,
		Logs:       append([]types.LogEntry{}, m.logs...),
		LastReport: m.lastReport,
	}
	if m.lastErr != nil {
		resp.Error = m.lastErr.Error()
	}
	return resp
}
