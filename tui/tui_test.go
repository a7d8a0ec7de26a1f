package tui

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"ainewsbot/types"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/mattn/go-runewidth"
)

func TestClientGetStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/status" {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"state":"enriching","in_progress":true,"logs":[{"message":"📰 2 new"}],
			"last_report":{"cycle_id":"abc","status":"partial"},"next_run":"2025-03-10T03:00:00Z"}`))
	}))
	defer srv.Close()

	s, err := NewClient(srv.URL + "/").GetStatus()
	if err != nil {
		t.Fatalf("GetStatus: %v", err)
	}
	if s.State != types.StateEnriching || !s.InProgress || len(s.Logs) != 1 || s.LastReport.Status != types.CyclePartial {
		t.Fatalf("status = %+v", s)
	}
	if s.NextRun == nil || s.NextRun.Hour() != 3 {
		t.Fatalf("next run = %v", s.NextRun)
	}
}

func TestClientStartCycle(t *testing.T) {
	tests := []struct {
		name    string
		code    int
		wantErr error
		anyErr  bool
	}{
		{"accepted", http.StatusAccepted, nil, false},
		{"busy", http.StatusConflict, types.ErrCycleInProgress, true},
		{"broken", http.StatusInternalServerError, nil, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if r.Method != http.MethodPost || r.URL.Path != "/api/cycles" {
					t.Errorf("unexpected %s %s", r.Method, r.URL.Path)
				}
				w.WriteHeader(tt.code)
			}))
			defer srv.Close()

			err := NewClient(srv.URL).StartCycle()
			if (err != nil) != tt.anyErr {
				t.Fatalf("err = %v", err)
			}
			if tt.wantErr != nil && !errors.Is(err, tt.wantErr) {
				t.Fatalf("err = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestUpdateAppliesStatus(t *testing.T) {
	m := NewModel("http://localhost:0")
	logs := make([]types.LogEntry, 25)
	for i := range logs {
		logs[i].Message = "line"
	}
	logs[24].Message = "last"

	next, _ := m.Update(StatusUpdateMsg{Status: &Status{StatusResponse: types.StatusResponse{
		State: types.StateCommitting, InProgress: true, Logs: logs,
	}}})
	got := next.(Model)
	if !got.Connected || got.State != types.StateCommitting || !got.InProgress {
		t.Fatalf("model = %+v", got)
	}
	if len(got.Logs) != maxLogLines || got.Logs[maxLogLines-1].Message != "last" {
		t.Fatalf("logs = %d, tail %q", len(got.Logs), got.Logs[len(got.Logs)-1].Message)
	}

	next, _ = got.Update(StatusUpdateMsg{Err: errors.New("connection refused")})
	if next.(Model).Connected {
		t.Fatalf("poll failure should mark the model disconnected")
	}
}

func TestRunKeyRespectsRunningCycle(t *testing.T) {
	m := NewModel("http://localhost:0")
	key := tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'r'}}

	m.InProgress = true
	next, cmd := m.Update(key)
	if cmd != nil {
		t.Fatalf("no trigger expected while a cycle runs")
	}
	if !strings.Contains(next.(Model).Notice, "already running") {
		t.Fatalf("notice = %q", next.(Model).Notice)
	}

	m.InProgress = false
	_, cmd = m.Update(key)
	if cmd == nil {
		t.Fatalf("expected a trigger command")
	}

	next, _ = m.Update(CycleStartedMsg{Err: types.ErrCycleInProgress})
	if !strings.Contains(next.(Model).Notice, "already running") {
		t.Fatalf("notice = %q", next.(Model).Notice)
	}
}

func TestViewShowsReport(t *testing.T) {
	m := NewModel("http://localhost:0")
	m.Connected = true
	m.LastReport = &types.CycleReport{
		CycleID:     "0123456789",
		Status:      types.CyclePartial,
		ArticlesNew: 7,
		Sources:     []types.SourceOutcome{{SourceID: "zdnet", Status: types.SourceFailed, Error: "timeout"}},
	}
	out := m.View()
	for _, want := range []string{"01234567", "7 new", "[zdnet] timeout", textFooterIdle} {
		if !strings.Contains(out, want) {
			t.Fatalf("view missing %q:\n%s", want, out)
		}
	}
}

func TestViewFitsWideLogLines(t *testing.T) {
	m := NewModel("http://localhost:0")
	m.Connected = true
	m.Logs = []types.LogEntry{{Message: strings.Repeat("生成AI", 40)}}

	next, _ := m.Update(tea.WindowSizeMsg{Width: 40, Height: 20})
	m = next.(Model)
	for _, line := range strings.Split(m.View(), "\n") {
		if strings.Contains(line, "生成AI") && runewidth.StringWidth(line) > 40 {
			t.Fatalf("line wider than terminal (%d): %q", runewidth.StringWidth(line), line)
		}
	}
}
