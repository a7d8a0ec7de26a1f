package store

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"slices"
	"strings"
	"time"
	"unicode/utf8"

	"ainewsbot/normalize"
	"ainewsbot/types"

	"golang.org/x/oauth2/google"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"
)

// SheetHeader is the first row of every category worksheet.
var SheetHeader = []string{
	"No.", "ソース", "タイトル", "日付", "タグ", "重要度", "要約",
	"URL", "実URL", "カテゴリ", "ソースID", "記事ID", "ハッシュ", "取得日時",
}

const (
	sheetDateLayout = "2006/01/02 15:04"
	maxStars        = 5
	lastColumn      = "N"
)

// column positions within a row
const (
	colNo = iota
	colSource
	colTitle
	colDate
	colTags
	colScore
	colSummary
	colLink
	colURL
	colCategory
	colSourceID
	colExternalID
	colHash
	colFetchedAt
	numColumns
)

// Three attempts in total.
var defaultRetryWaits = []time.Duration{3 * time.Second, 6 * time.Second}

// SheetsOptions configures the Google Sheets store.
type SheetsOptions struct {
	CredentialsFile string
	SpreadsheetID   string
	// Service replaces the authenticated client, e.g. one pointed at a test server.
	Service    *sheets.Service
	RetryWaits []time.Duration
}

// Sheets stores articles in one worksheet per primary category.
// Article content is not written; the sheet is a display store.
type Sheets struct {
	svc   *sheets.Service
	id    string
	waits []time.Duration
}

// NewSheets authenticates with a service-account key and checks the spreadsheet is reachable.
func NewSheets(ctx context.Context, opts SheetsOptions) (*Sheets, error) {
	if opts.SpreadsheetID == "" {
		return nil, &types.ConfigError{Field: "SPREADSHEET_ID", Reason: "required for the sheets backend"}
	}
	svc := opts.Service
	if svc == nil {
		if opts.CredentialsFile == "" {
			return nil, &types.ConfigError{Field: "GOOGLE_CREDENTIALS_FILE", Reason: "required for the sheets backend"}
		}
		data, err := os.ReadFile(opts.CredentialsFile)
		if err != nil {
			return nil, fmt.Errorf("failed to read credentials file: %w", err)
		}
		jwt, err := google.JWTConfigFromJSON(data, sheets.SpreadsheetsScope)
		if err != nil {
			return nil, fmt.Errorf("failed to parse service account key: %w", err)
		}
		svc, err = sheets.NewService(ctx, option.WithHTTPClient(jwt.Client(ctx)))
		if err != nil {
			return nil, fmt.Errorf("failed to create sheets service: %w", err)
		}
	}
	waits := opts.RetryWaits
	if waits == nil {
		waits = defaultRetryWaits
	}
	s := &Sheets{svc: svc, id: opts.SpreadsheetID, waits: waits}

	if _, err := s.titles(ctx); err != nil {
		return nil, fmt.Errorf("open spreadsheet %s: %w", opts.SpreadsheetID, err)
	}
	log.Printf("✅ Google Sheets store ready (spreadsheet %s)", opts.SpreadsheetID)
	return s, nil
}

func (s *Sheets) Close() error { return nil }

// location of a stored row
type location struct {
	sheet     string
	row       int
	fetchedAt time.Time
}

type sheetIndex struct {
	rows   map[types.ArticleKey]location
	hashes types.KeySnapshot
	counts map[string]int
}

func (s *Sheets) LoadKeySnapshot(ctx context.Context) (types.KeySnapshot, error) {
	idx, err := s.index(ctx)
	if err != nil {
		return nil, err
	}
	return idx.hashes, nil
}

// UpsertBatch updates known rows in place with one batch update and appends new rows per sheet.
// A failing sheet only rejects its own rows.
func (s *Sheets) UpsertBatch(ctx context.Context, articles []types.Article) ([]types.RowOutcome, error) {
	if len(articles) == 0 {
		return nil, nil
	}
	idx, err := s.index(ctx)
	if err != nil {
		return nil, err
	}

	out := make([]types.RowOutcome, len(articles))
	var (
		updates    []*sheets.ValueRange
		updateRows []int
		appends    = make(map[string][]int)
		sheetOrder []string
	)
	for i, a := range articles {
		key := a.Key()
		if reason := checkRow(a); reason != "" {
			out[i] = types.Rejected(key, reason)
			continue
		}
		if loc, ok := idx.rows[key]; ok && loc.row > 0 {
			out[i] = types.Committed(key)
			if a.FetchedAt.Before(loc.fetchedAt) {
				continue
			}
			row := articleRow(a, 0)[colSource:]
			updates = append(updates, &sheets.ValueRange{
				Range:  fmt.Sprintf("%s!B%d:%s%d", quoteSheet(loc.sheet), loc.row, lastColumn, loc.row),
				Values: [][]interface{}{row},
			})
			updateRows = append(updateRows, i)
			continue
		}
		sheet := sheetFor(a)
		if loc, ok := idx.rows[key]; ok {
			sheet = loc.sheet
		}
		if _, ok := appends[sheet]; !ok {
			sheetOrder = append(sheetOrder, sheet)
		}
		appends[sheet] = append(appends[sheet], i)
		// later duplicates of the key in this batch update the row being appended
		idx.rows[key] = location{sheet: sheet, row: -1}
	}

	if len(updates) > 0 {
		err := s.retry(ctx, "batch update", func() error {
			_, err := s.svc.Spreadsheets.Values.BatchUpdate(s.id, &sheets.BatchUpdateValuesRequest{
				ValueInputOption: "USER_ENTERED",
				Data:             updates,
			}).Context(ctx).Do()
			return err
		})
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			log.Printf("⚠️ sheets: in-place update of %d rows failed: %v", len(updateRows), err)
			for _, i := range updateRows {
				out[i] = types.Rejected(articles[i].Key(), err.Error())
			}
		}
	}

	for _, sheet := range sheetOrder {
		rows := appends[sheet]
		err := s.appendRows(ctx, sheet, idx, articles, rows)
		for _, i := range rows {
			if err != nil {
				out[i] = types.Rejected(articles[i].Key(), err.Error())
			} else {
				out[i] = types.Committed(articles[i].Key())
			}
		}
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			log.Printf("⚠️ sheets: append to %s failed: %v", sheet, err)
		}
	}
	return out, nil
}

func (s *Sheets) appendRows(ctx context.Context, sheet string, idx *sheetIndex, articles []types.Article, rows []int) error {
	count, exists := idx.counts[sheet]
	if !exists {
		if err := s.createSheet(ctx, sheet); err != nil {
			return err
		}
		idx.counts[sheet] = 0
	}

	values := make([][]interface{}, 0, len(rows))
	kept := make(map[types.ArticleKey]int) // key -> article index whose row is in values
	pos := make(map[types.ArticleKey]int)
	for _, i := range rows {
		a := articles[i]
		if j, dup := kept[a.Key()]; dup {
			if !a.FetchedAt.Before(articles[j].FetchedAt) {
				p := pos[a.Key()]
				values[p] = articleRow(a, count+p+1)
				kept[a.Key()] = i
			}
			continue
		}
		kept[a.Key()] = i
		pos[a.Key()] = len(values)
		values = append(values, articleRow(a, count+len(values)+1))
	}

	err := s.retry(ctx, "append "+sheet, func() error {
		_, err := s.svc.Spreadsheets.Values.Append(s.id, quoteSheet(sheet)+"!A1", &sheets.ValueRange{Values: values}).
			ValueInputOption("USER_ENTERED").
			InsertDataOption("INSERT_ROWS").
			Context(ctx).Do()
		return err
	})
	if err != nil {
		return err
	}
	idx.counts[sheet] = count + len(values)
	return nil
}

func (s *Sheets) createSheet(ctx context.Context, sheet string) error {
	err := s.retry(ctx, "add sheet "+sheet, func() error {
		_, err := s.svc.Spreadsheets.BatchUpdate(s.id, &sheets.BatchUpdateSpreadsheetRequest{
			Requests: []*sheets.Request{{
				AddSheet: &sheets.AddSheetRequest{Properties: &sheets.SheetProperties{Title: sheet}},
			}},
		}).Context(ctx).Do()
		return err
	})
	if err != nil {
		return err
	}
	header := make([]interface{}, len(SheetHeader))
	for i, h := range SheetHeader {
		header[i] = h
	}
	err = s.retry(ctx, "write header "+sheet, func() error {
		_, err := s.svc.Spreadsheets.Values.Update(s.id, quoteSheet(sheet)+"!A1", &sheets.ValueRange{
			Values: [][]interface{}{header},
		}).ValueInputOption("RAW").Context(ctx).Do()
		return err
	})
	if err != nil {
		return err
	}
	log.Printf("📄 sheets: created worksheet %s", sheet)
	return nil
}

func (s *Sheets) Query(ctx context.Context, f types.Filter) ([]types.Article, error) {
	titles, err := s.titles(ctx)
	if err != nil {
		return nil, err
	}
	if len(titles) == 0 {
		return []types.Article{}, nil
	}
	ranges := make([]string, len(titles))
	for i, t := range titles {
		ranges[i] = fmt.Sprintf("%s!A2:%s", quoteSheet(t), lastColumn)
	}
	resp, err := s.batchGet(ctx, ranges)
	if err != nil {
		return nil, err
	}
	var all []types.Article
	for _, vr := range resp.ValueRanges {
		for _, row := range vr.Values {
			if a, ok := rowArticle(cells(row)); ok {
				all = append(all, a)
			}
		}
	}
	return f.Apply(all), nil
}

// index reads the key columns of every category sheet.
func (s *Sheets) index(ctx context.Context) (*sheetIndex, error) {
	titles, err := s.titles(ctx)
	if err != nil {
		return nil, err
	}
	idx := &sheetIndex{
		rows:   make(map[types.ArticleKey]location),
		hashes: make(types.KeySnapshot),
		counts: make(map[string]int),
	}
	if len(titles) == 0 {
		return idx, nil
	}
	ranges := make([]string, len(titles))
	for i, t := range titles {
		ranges[i] = fmt.Sprintf("%s!K2:%s", quoteSheet(t), lastColumn)
	}
	resp, err := s.batchGet(ctx, ranges)
	if err != nil {
		return nil, err
	}
	for i, vr := range resp.ValueRanges {
		if i >= len(titles) {
			break
		}
		sheet := titles[i]
		idx.counts[sheet] = len(vr.Values)
		for r, raw := range vr.Values {
			row := cells(raw)
			for len(row) < 4 {
				row = append(row, "")
			}
			key := types.ArticleKey{SourceID: row[0], ExternalID: row[1]}
			if key.SourceID == "" || key.ExternalID == "" {
				continue
			}
			fetched, _ := time.Parse(time.RFC3339Nano, row[3])
			idx.rows[key] = location{sheet: sheet, row: r + 2, fetchedAt: fetched}
			idx.hashes[key] = row[2]
		}
	}
	return idx, nil
}

// titles lists the worksheets that hold articles.
func (s *Sheets) titles(ctx context.Context) ([]string, error) {
	var ss *sheets.Spreadsheet
	err := s.retry(ctx, "get spreadsheet", func() error {
		var err error
		ss, err = s.svc.Spreadsheets.Get(s.id).Fields("sheets.properties.title").Context(ctx).Do()
		return err
	})
	if err != nil {
		return nil, err
	}
	known := normalize.CategoryNames()
	var out []string
	for _, sh := range ss.Sheets {
		if sh.Properties != nil && slices.Contains(known, sh.Properties.Title) {
			out = append(out, sh.Properties.Title)
		}
	}
	return out, nil
}

func (s *Sheets) batchGet(ctx context.Context, ranges []string) (*sheets.BatchGetValuesResponse, error) {
	var resp *sheets.BatchGetValuesResponse
	err := s.retry(ctx, "batch get", func() error {
		var err error
		resp, err = s.svc.Spreadsheets.Values.BatchGet(s.id).Ranges(ranges...).Context(ctx).Do()
		return err
	})
	return resp, err
}

// retry repeats fn while the API answers with a rate-limit error.
func (s *Sheets) retry(ctx context.Context, op string, fn func() error) error {
	for attempt := 0; ; attempt++ {
		err := fn()
		if err == nil || !rateLimited(err) || attempt >= len(s.waits) {
			if err != nil {
				return fmt.Errorf("sheets %s: %w", op, err)
			}
			return nil
		}
		wait := s.waits[attempt]
		log.Printf("🔄 sheets %s rate limited, waiting %s (retry %d/%d)", op, wait, attempt+1, len(s.waits))
		t := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			t.Stop()
			return ctx.Err()
		case <-t.C:
		}
	}
}

func rateLimited(err error) bool {
	var gerr *googleapi.Error
	if !errors.As(err, &gerr) {
		return false
	}
	if gerr.Code == http.StatusTooManyRequests {
		return true
	}
	for _, item := range gerr.Errors {
		if strings.Contains(strings.ToLower(item.Reason), "ratelimit") || strings.Contains(item.Reason, "quota") {
			return true
		}
	}
	return strings.Contains(strings.ToLower(gerr.Message), "quota")
}

// sheetFor picks the worksheet of an article: its primary category.
func sheetFor(a types.Article) string {
	if c := a.PrimaryCategory(); c != "" {
		return c
	}
	return normalize.OtherCategory
}

// articleRow renders an article as a sheet row. Text cells carry a leading
// apostrophe so the sheet never interprets them as formulas, numbers or dates.
func articleRow(a types.Article, no int) []interface{} {
	row := make([]interface{}, numColumns)
	row[colNo] = no
	row[colSource] = literal(a.SourceName)
	row[colTitle] = literal(a.Title)
	row[colDate] = ""
	if a.PublishedAt != nil {
		row[colDate] = literal(a.PublishedAt.In(normalize.Tokyo).Format(sheetDateLayout))
	}
	row[colTags] = literal(strings.Join(a.Tags, ", "))
	row[colScore] = stars(a.Score)
	row[colSummary] = literal(a.Summary)
	row[colLink] = fmt.Sprintf(`=HYPERLINK("%s","記事を開く")`, strings.ReplaceAll(a.URL, `"`, `""`))
	row[colURL] = literal(a.URL)
	row[colCategory] = literal(a.Category)
	row[colSourceID] = literal(a.SourceID)
	row[colExternalID] = literal(a.ExternalID)
	row[colHash] = literal(a.ContentHash)
	row[colFetchedAt] = literal(a.FetchedAt.UTC().Format(time.RFC3339Nano))
	return row
}

// rowArticle parses a row as displayed by the sheet.
func rowArticle(row []string) (types.Article, bool) {
	for len(row) < numColumns {
		row = append(row, "")
	}
	a := types.Article{
		SourceName:  row[colSource],
		Title:       row[colTitle],
		Summary:     row[colSummary],
		URL:         row[colURL],
		Category:    row[colCategory],
		SourceID:    row[colSourceID],
		ExternalID:  row[colExternalID],
		ContentHash: row[colHash],
		Score:       countStars(row[colScore]),
	}
	if a.SourceID == "" || a.ExternalID == "" {
		return types.Article{}, false
	}
	if row[colDate] != "" {
		if t, err := time.ParseInLocation(sheetDateLayout, row[colDate], normalize.Tokyo); err == nil {
			a.PublishedAt = &t
		}
	}
	if row[colTags] != "" {
		for _, t := range strings.Split(row[colTags], ",") {
			if t = strings.TrimSpace(t); t != "" {
				a.Tags = append(a.Tags, t)
			}
		}
	}
	if t, err := time.Parse(time.RFC3339Nano, row[colFetchedAt]); err == nil {
		a.FetchedAt = t
	}
	return a, true
}

func stars(score int) string {
	if score <= 0 {
		return ""
	}
	score = min(score, maxStars)
	return strings.Repeat("⭐", score) + strings.Repeat("☆", maxStars-score)
}

func countStars(s string) int {
	return utf8.RuneCountInString(s) - utf8.RuneCountInString(strings.ReplaceAll(s, "⭐", ""))
}

func literal(s string) string {
	if s == "" {
		return ""
	}
	return "'" + s
}

func quoteSheet(title string) string {
	return "'" + strings.ReplaceAll(title, "'", "''") + "'"
}

func cells(row []interface{}) []string {
	out := make([]string, len(row))
	for i, v := range row {
		out[i] = fmt.Sprint(v)
	}
	return out
}
