package api

import (
	"fmt"
	"log"
	"net/http"
	"strconv"
	"strings"
	"time"

	"ainewsbot/normalize"
	"ainewsbot/types"

	"github.com/gin-gonic/gin"
)

const (
	defaultPerPage = 30
	maxPerPage     = 100
)

// RegisterArticleRoutes registers the display read endpoints.
func RegisterArticleRoutes(r *gin.Engine, h *handlers) {
	r.GET("/api/articles", h.handleListArticles)
	r.GET("/api/stats", h.handleStats)
}

// handleListArticles serves committed articles filtered by source, category, date range,
// score and free text, newest first unless sort says otherwise.
func (h *handlers) handleListArticles(c *gin.Context) {
	if h.deps.Reader == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "store not configured"})
		return
	}
	f, page, perPage, err := parseFilter(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	all, err := h.deps.Reader.Query(c.Request.Context(), f)
	if err != nil {
		log.Printf("❌ API Error: query articles: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	total := len(all)
	start := min((page-1)*perPage, total)
	end := min(start+perPage, total)
	items := make([]types.Article, 0, end-start)
	for _, a := range all[start:end] {
		a.Content = ""
		items = append(items, a)
	}

	c.JSON(http.StatusOK, gin.H{
		"articles": items,
		"total":    total,
		"page":     page,
		"per_page": perPage,
	})
}

func (h *handlers) handleStats(c *gin.Context) {
	if h.deps.Reader == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "store not configured"})
		return
	}
	all, err := h.deps.Reader.Query(c.Request.Context(), types.Filter{})
	if err != nil {
		log.Printf("❌ API Error: stats: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	byCategory := map[string]int{}
	bySource := map[string]int{}
	byScore := map[string]int{}
	for _, a := range all {
		for _, cat := range types.SplitCategories(a.Category) {
			byCategory[cat]++
		}
		name := a.SourceName
		if name == "" {
			name = a.SourceID
		}
		bySource[name]++
		if a.Score > 0 {
			byScore[strconv.Itoa(a.Score)]++
		}
	}
	c.JSON(http.StatusOK, gin.H{
		"total":       len(all),
		"by_category": byCategory,
		"by_source":   bySource,
		"by_score":    byScore,
	})
}

// parseFilter reads the query string. Paging is returned separately so the
// handler can report the total before slicing.
func parseFilter(c *gin.Context) (types.Filter, int, int, error) {
	f := types.Filter{
		Category: strings.TrimSpace(c.Query("category")),
		Query:    strings.TrimSpace(c.Query("q")),
		Sort:     c.DefaultQuery("sort", types.SortByDate),
	}
	for _, s := range c.QueryArray("source") {
		for _, part := range strings.Split(s, ",") {
			if part = strings.TrimSpace(part); part != "" {
				f.Sources = append(f.Sources, part)
			}
		}
	}

	switch f.Sort {
	case types.SortByDate, types.SortByScore, types.SortByCategory, types.SortBySource:
	default:
		return f, 0, 0, fmt.Errorf("invalid sort %q", f.Sort)
	}

	if v := c.Query("from"); v != "" {
		t, err := time.ParseInLocation("2006-01-02", v, normalize.Tokyo)
		if err != nil {
			return f, 0, 0, fmt.Errorf("invalid from date %q: want YYYY-MM-DD", v)
		}
		f.From = &t
	}
	if v := c.Query("to"); v != "" {
		t, err := time.ParseInLocation("2006-01-02", v, normalize.Tokyo)
		if err != nil {
			return f, 0, 0, fmt.Errorf("invalid to date %q: want YYYY-MM-DD", v)
		}
		end := t.Add(24*time.Hour - time.Nanosecond)
		f.To = &end
	}
	if f.From != nil && f.To != nil && f.To.Before(*f.From) {
		return f, 0, 0, fmt.Errorf("to is before from")
	}

	minScore, err := intParam(c, "min_score", 0, 0, 5)
	if err != nil {
		return f, 0, 0, err
	}
	f.MinScore = minScore

	page, err := intParam(c, "page", 1, 1, 1<<20)
	if err != nil {
		return f, 0, 0, err
	}
	perPage, err := intParam(c, "per_page", defaultPerPage, 1, maxPerPage)
	if err != nil {
		return f, 0, 0, err
	}
	return f, page, perPage, nil
}

func intParam(c *gin.Context, name string, def, lo, hi int) (int, error) {
	v := c.Query(name)
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < lo || n > hi {
		return 0, fmt.Errorf("invalid %s %q: want an integer between %d and %d", name, v, lo, hi)
	}
	return n, nil
}
