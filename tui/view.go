package tui

import (
	"fmt"
	"strings"
	"time"

	"ainewsbot/types"

	"github.com/mattn/go-runewidth"
)

const (
	textFooterIdle    = "Press 'r' to run a cycle | Press 'q' to quit"
	textFooterRunning = "Cycle running | Press 'q' to quit (the service keeps running)"
)

// View implements tea.Model.
func (m Model) View() string {
	var b strings.Builder

	b.WriteString(TitleStyle.Render("📰 ainewsbot monitor"))
	b.WriteString("\n\n")

	b.WriteString(m.stateText())
	b.WriteString("\n")
	if m.NextRun != nil && !m.InProgress {
		b.WriteString(InfoStyle.Render("⏰ Next run: " + m.NextRun.Local().Format("2006-01-02 15:04")))
		b.WriteString("\n")
	}
	if m.Notice != "" {
		b.WriteString(InfoStyle.Render(m.Notice))
		b.WriteString("\n")
	}
	b.WriteString("\n")

	if m.LastReport != nil {
		b.WriteString(BoxStyle.Render(formatReport(m.LastReport)))
		b.WriteString("\n\n")
	}

	if len(m.Logs) > 0 {
		b.WriteString(InfoStyle.Render("📝 Recent Activity:"))
		b.WriteString("\n")
		for _, e := range m.Logs {
			line := fmt.Sprintf("   %s %s", e.Timestamp.Local().Format("15:04:05"), e.Message)
			b.WriteString(InfoStyle.Render(m.fit(line)))
			b.WriteString("\n")
		}
		b.WriteString("\n")
	}

	if m.InProgress {
		b.WriteString(InfoStyle.Render(textFooterRunning))
	} else {
		b.WriteString(InfoStyle.Render(textFooterIdle))
	}
	return b.String()
}

// fit truncates a line to the terminal width. Japanese text is two columns per rune.
func (m Model) fit(line string) string {
	if m.Width <= 0 {
		return line
	}
	return runewidth.Truncate(line, m.Width, "…")
}

func (m Model) stateText() string {
	if !m.Connected {
		msg := "❌ Not connected to ainewsbot"
		if m.Err != nil {
			msg += ": " + m.Err.Error()
		}
		return ErrorStyle.Render(msg)
	}
	if m.Err != nil {
		return ErrorStyle.Render(fmt.Sprintf("❌ Error: %v", m.Err))
	}

	switch m.State {
	case types.StateIdle:
		if m.LastError != "" {
			return WarningStyle.Render("⚠️ Idle, last cycle failed: " + m.LastError)
		}
		return HighlightStyle.Render("👋 Idle")
	case types.StateFetching:
		return StatusStyle.Render("⏳ Fetching sources...")
	case types.StateProcessing:
		return StatusStyle.Render("🔍 Normalizing and deduplicating...")
	case types.StateEnriching:
		return StatusStyle.Render("✍️ Summarizing articles...")
	case types.StateCommitting:
		return StatusStyle.Render("📦 Committing batch...")
	case types.StateFailed:
		return ErrorStyle.Render("❌ Cycle failed: " + m.LastError)
	default:
		return string(m.State)
	}
}

func formatReport(r *types.CycleReport) string {
	var b strings.Builder

	status := StatusStyle.Render(r.Status)
	switch r.Status {
	case types.CyclePartial:
		status = WarningStyle.Render(r.Status)
	case types.CycleFailed:
		status = ErrorStyle.Render(r.Status)
	}
	fmt.Fprintf(&b, "Last cycle %s: %s\n", shortID(r.CycleID), status)
	if !r.FinishedAt.IsZero() {
		fmt.Fprintf(&b, "Finished: %s (%s)\n", r.FinishedAt.Local().Format("2006-01-02 15:04:05"),
			r.FinishedAt.Sub(r.StartedAt).Round(100*time.Millisecond))
	}
	fmt.Fprintf(&b, "Sources: %d attempted, %d failed\n", r.SourcesAttempted, r.SourcesFailed)
	fmt.Fprintf(&b, "Articles: %d new | %d updated | %d unchanged\n", r.ArticlesNew, r.ArticlesUpdated, r.ArticlesUnchanged)
	fmt.Fprintf(&b, "Skipped: %d invalid | %d filtered | %d deferred\n", r.ArticlesInvalid, r.ArticlesFiltered, r.ArticlesDeferred)
	fmt.Fprintf(&b, "Committed: %d (failures %d, enrichment failures %d)", r.Committed, r.CommitFailures, r.EnrichmentFailures)
	for _, s := range r.Sources {
		if s.Status != types.SourceSuccess {
			fmt.Fprintf(&b, "\n%s [%s] %s", WarningStyle.Render("⚠️"), s.SourceID, s.Error)
		}
	}
	if r.Error != "" {
		fmt.Fprintf(&b, "\n%s", ErrorStyle.Render(r.Error))
	}
	return b.String()
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
