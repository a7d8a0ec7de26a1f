package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"ainewsbot/config"
	"ainewsbot/normalize"
	"ainewsbot/store"
	"ainewsbot/types"

	"github.com/gin-gonic/gin"
)

type fakeStatus struct{ resp types.StatusResponse }

func (f fakeStatus) Status() types.StatusResponse { return f.resp }

type failingReader struct{}

func (failingReader) Query(context.Context, types.Filter) ([]types.Article, error) {
	return nil, errors.New("sheet unavailable")
}

func seededStore(t *testing.T) *store.Memory {
	t.Helper()
	m := store.NewMemory()
	day := func(d int) *time.Time {
		ts := time.Date(2025, 3, d, 10, 0, 0, 0, normalize.Tokyo)
		return &ts
	}
	fetched := time.Date(2025, 3, 20, 0, 0, 0, 0, time.UTC)
	articles := []types.Article{
		{SourceID: "ledgeai", SourceName: "Ledge.ai", ExternalID: "1", Title: "生成AIの導入事例", URL: "https://ledge.ai/1",
			PublishedAt: day(10), Category: "AI・テクノロジー, 企業導入", Score: 5, Content: "本文", ContentHash: "h1", FetchedAt: fetched},
		{SourceID: "ainow", SourceName: "AINOW", ExternalID: "2", Title: "DX推進", URL: "https://ainow.ai/2",
			PublishedAt: day(12), Category: "DX・デジタル化", Score: 3, ContentHash: "h2", FetchedAt: fetched},
		{SourceID: "prtimes", SourceName: "PR TIMES", ExternalID: "3", Title: "業務効率化ツール発表", URL: "https://prtimes.jp/3",
			PublishedAt: day(15), Category: "企業効率化", Score: 2, ContentHash: "h3", FetchedAt: fetched},
	}
	if _, err := m.UpsertBatch(context.Background(), articles); err != nil {
		t.Fatalf("seed: %v", err)
	}
	return m
}

func newTestRouter(t *testing.T, deps Deps) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)
	return NewRouter(deps)
}

func do(r *gin.Engine, method, target string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(method, target, nil)
	r.ServeHTTP(w, req)
	return w
}

func TestHealth(t *testing.T) {
	r := newTestRouter(t, Deps{})
	w := do(r, http.MethodGet, "/api/health")
	if w.Code != http.StatusOK || w.Body.String() != `{"status":"ok"}` {
		t.Fatalf("health = %d %s", w.Code, w.Body.String())
	}
}

func TestStartCycle(t *testing.T) {
	busy := false
	r := newTestRouter(t, Deps{Trigger: func(string) bool { return !busy }})

	if w := do(r, http.MethodPost, "/api/cycles"); w.Code != http.StatusAccepted {
		t.Fatalf("idle trigger = %d", w.Code)
	}
	busy = true
	w := do(r, http.MethodPost, "/api/cycles")
	if w.Code != http.StatusConflict {
		t.Fatalf("busy trigger = %d", w.Code)
	}
	var body map[string]string
	json.Unmarshal(w.Body.Bytes(), &body)
	if body["error"] != types.ErrCycleInProgress.Error() {
		t.Fatalf("body = %v", body)
	}
}

func TestStatus(t *testing.T) {
	next := time.Date(2025, 3, 10, 3, 0, 0, 0, time.UTC)
	r := newTestRouter(t, Deps{
		Status: fakeStatus{types.StatusResponse{
			State:      types.StateEnriching,
			InProgress: true,
			Logs:       []types.LogEntry{{Message: "📰 3 new"}},
			LastReport: &types.CycleReport{CycleID: "c1", Status: types.CycleSucceeded},
		}},
		NextRun: func() time.Time { return next },
	})

	w := do(r, http.MethodGet, "/api/status")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	var body struct {
		State      types.State        `json:"state"`
		InProgress bool               `json:"in_progress"`
		Logs       []types.LogEntry   `json:"logs"`
		LastReport *types.CycleReport `json:"last_report"`
		NextRun    time.Time          `json:"next_run"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.State != types.StateEnriching || !body.InProgress || len(body.Logs) != 1 ||
		body.LastReport.CycleID != "c1" || !body.NextRun.Equal(next) {
		t.Fatalf("body = %+v", body)
	}
}

type listResponse struct {
	Articles []types.Article `json:"articles"`
	Total    int             `json:"total"`
	Page     int             `json:"page"`
	PerPage  int             `json:"per_page"`
}

func TestListArticles(t *testing.T) {
	r := newTestRouter(t, Deps{Reader: seededStore(t)})

	tests := []struct {
		name  string
		query string
		want  []string
		total int
	}{
		{"default newest first", "", []string{"3", "2", "1"}, 3},
		{"by source", "?source=ledgeai&source=ainow", []string{"2", "1"}, 2},
		{"comma sources", "?source=ledgeai,prtimes", []string{"3", "1"}, 2},
		{"by secondary category", "?category=企業導入", []string{"1"}, 1},
		{"date range inclusive", "?from=2025-03-12&to=2025-03-15", []string{"3", "2"}, 2},
		{"min score", "?min_score=3&sort=score", []string{"1", "2"}, 2},
		{"text", "?q=dx", []string{"2"}, 1},
		{"paged", "?per_page=2&page=2", []string{"1"}, 3},
		{"page past end", "?page=5", []string{}, 3},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := do(r, http.MethodGet, "/api/articles"+tt.query)
			if w.Code != http.StatusOK {
				t.Fatalf("code = %d body %s", w.Code, w.Body.String())
			}
			var resp listResponse
			if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
				t.Fatalf("decode: %v", err)
			}
			var ids []string
			for _, a := range resp.Articles {
				ids = append(ids, a.ExternalID)
				if a.Content != "" {
					t.Fatalf("content leaked in list response")
				}
			}
			if len(ids) != len(tt.want) || resp.Total != tt.total {
				t.Fatalf("ids = %v total %d, want %v total %d", ids, resp.Total, tt.want, tt.total)
			}
			for i := range ids {
				if ids[i] != tt.want[i] {
					t.Fatalf("ids = %v, want %v", ids, tt.want)
				}
			}
		})
	}
}

func TestListArticlesBadParams(t *testing.T) {
	r := newTestRouter(t, Deps{Reader: seededStore(t)})
	for _, q := range []string{
		"?from=10-03-2025",
		"?to=yesterday",
		"?from=2025-03-15&to=2025-03-01",
		"?min_score=9",
		"?page=0",
		"?per_page=1000",
		"?sort=random",
	} {
		if w := do(r, http.MethodGet, "/api/articles"+q); w.Code != http.StatusBadRequest {
			t.Fatalf("%s: code = %d", q, w.Code)
		}
	}
}

func TestListArticlesReaderFailure(t *testing.T) {
	r := newTestRouter(t, Deps{Reader: failingReader{}})
	if w := do(r, http.MethodGet, "/api/articles"); w.Code != http.StatusInternalServerError {
		t.Fatalf("code = %d", w.Code)
	}
	if w := do(r, http.MethodGet, "/api/stats"); w.Code != http.StatusInternalServerError {
		t.Fatalf("stats code = %d", w.Code)
	}
}

func TestStats(t *testing.T) {
	r := newTestRouter(t, Deps{Reader: seededStore(t)})
	w := do(r, http.MethodGet, "/api/stats")
	var body struct {
		Total      int            `json:"total"`
		ByCategory map[string]int `json:"by_category"`
		BySource   map[string]int `json:"by_source"`
		ByScore    map[string]int `json:"by_score"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.Total != 3 || body.ByCategory["企業導入"] != 1 || body.BySource["PR TIMES"] != 1 || body.ByScore["5"] != 1 {
		t.Fatalf("stats = %+v", body)
	}
}

func TestSources(t *testing.T) {
	sources := config.DefaultSources()
	sources[0].Disabled = true
	r := newTestRouter(t, Deps{Sources: sources})

	w := do(r, http.MethodGet, "/api/sources")
	var body struct {
		Sources []config.SourceConfig `json:"sources"`
		Enabled int                   `json:"enabled"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(body.Sources) != len(sources) || body.Enabled != len(sources)-1 {
		t.Fatalf("sources = %d enabled = %d", len(body.Sources), body.Enabled)
	}
}
