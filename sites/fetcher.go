package sites

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"sync"
	"time"

	"ainewsbot/config"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html/charset"
)

const (
	userAgent = "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) " +
		"AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"
	acceptHeader   = "text/html,application/xhtml+xml,application/xml;q=0.9,image/webp,*/*;q=0.8"
	acceptLanguage = "ja,en-US;q=0.9,en;q=0.8"

	maxBodyBytes = 8 << 20
)

// StatusError is returned for non-2xx responses.
type StatusError struct {
	URL  string
	Code int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("GET %s: status %d", e.URL, e.Code)
}

// Retryable reports whether another attempt could succeed.
func (e *StatusError) Retryable() bool {
	return e.Code == http.StatusTooManyRequests || e.Code >= 500
}

// FetcherOptions configures a PageFetcher. Zero values fall back to the package defaults.
type FetcherOptions struct {
	Timeout  time.Duration
	Attempts int
	Backoff  time.Duration
	Delay    time.Duration
	Client   *http.Client
}

// PageFetcher downloads pages for one site: browser-like headers, a per-request
// timeout, bounded retry with exponential backoff and a politeness delay.
type PageFetcher struct {
	client   *http.Client
	timeout  time.Duration
	attempts int
	backoff  time.Duration
	delay    time.Duration

	mu   sync.Mutex
	last time.Time
}

// NewPageFetcher creates a fetcher.
func NewPageFetcher(opts FetcherOptions) *PageFetcher {
	f := &PageFetcher{
		client:   opts.Client,
		timeout:  opts.Timeout,
		attempts: opts.Attempts,
		backoff:  opts.Backoff,
		delay:    opts.Delay,
	}
	if f.client == nil {
		f.client = &http.Client{}
	}
	if f.timeout <= 0 {
		f.timeout = config.DefaultRequestTimeout
	}
	if f.attempts < 1 {
		f.attempts = config.DefaultFetchRetries
	}
	if f.backoff <= 0 {
		f.backoff = config.DefaultRetryBackoff
	}
	return f
}

// Page is a downloaded, UTF-8 decoded HTML page.
type Page struct {
	URL  *url.URL
	Body []byte
	Doc  *goquery.Document
}

// Resolve turns an href found on the page into an absolute URL.
func (p *Page) Resolve(href string) (*url.URL, error) {
	ref, err := url.Parse(href)
	if err != nil {
		return nil, err
	}
	return p.URL.ResolveReference(ref), nil
}

// Page downloads and parses an HTML page.
func (f *PageFetcher) Page(ctx context.Context, rawURL string) (*Page, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("parse url %q: %w", rawURL, err)
	}
	body, err := f.Bytes(ctx, rawURL)
	if err != nil {
		return nil, err
	}
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("parse html %s: %w", rawURL, err)
	}
	return &Page{URL: u, Body: body, Doc: doc}, nil
}

// Bytes downloads rawURL and returns the body decoded to UTF-8.
func (f *PageFetcher) Bytes(ctx context.Context, rawURL string) ([]byte, error) {
	if _, err := url.ParseRequestURI(rawURL); err != nil {
		return nil, fmt.Errorf("bad url %q: %w", rawURL, err)
	}
	var lastErr error
	for attempt := 0; attempt < f.attempts; attempt++ {
		if attempt > 0 {
			wait := f.backoff * (1 << uint(attempt-1))
			log.Printf("🔄 retry %d/%d for %s in %s: %v", attempt+1, f.attempts, rawURL, wait, lastErr)
			if err := sleep(ctx, wait); err != nil {
				return nil, err
			}
		}
		if err := f.politeWait(ctx); err != nil {
			return nil, err
		}

		body, err := f.get(ctx, rawURL)
		if err == nil {
			return body, nil
		}
		lastErr = err
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		if !retryable(err) {
			break
		}
	}
	return nil, lastErr
}

func (f *PageFetcher) get(ctx context.Context, rawURL string) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, f.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", acceptHeader)
	req.Header.Set("Accept-Language", acceptLanguage)

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("GET %s: %w", rawURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		return nil, &StatusError{URL: rawURL, Code: resp.StatusCode}
	}

	// Some sites (ITmedia) still serve Shift_JIS
	r, err := charset.NewReader(io.LimitReader(resp.Body, maxBodyBytes), resp.Header.Get("Content-Type"))
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", rawURL, err)
	}
	body, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", rawURL, err)
	}
	return body, nil
}

// politeWait spaces consecutive requests of this fetcher by the configured delay.
func (f *PageFetcher) politeWait(ctx context.Context) error {
	if f.delay <= 0 {
		return nil
	}
	f.mu.Lock()
	wait := time.Until(f.last.Add(f.delay))
	if wait < 0 {
		wait = 0
	}
	f.last = time.Now().Add(wait)
	f.mu.Unlock()
	return sleep(ctx, wait)
}

func retryable(err error) bool {
	var se *StatusError
	if errors.As(err, &se) {
		return se.Retryable()
	}
	// transport errors: refused, reset, per-request timeout
	return true
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
