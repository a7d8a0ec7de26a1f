package sites

import (
	"net/http"
	"strconv"

	"ainewsbot/config"
	"ainewsbot/types"
)

// Build creates the enabled adapters of cfg, each with its own page fetcher.
// client may be nil.
func Build(cfg *config.Config, client *http.Client) ([]SiteAdapter, error) {
	var adapters []SiteAdapter
	for _, src := range config.Enabled(cfg.Sources) {
		sc := SiteConfig{
			ID:           src.ID,
			Name:         src.Name,
			BaseURL:      src.BaseURL,
			ListingPaths: src.Paths,
			MaxPages:     src.MaxPages,
			MaxItems:     src.MaxItems,
			Timeout:      cfg.SourceTimeout(src),
			Retries:      cfg.FetchRetries,
			Enabled:      true,
		}
		if sc.Name == "" {
			sc.Name = src.ID
		}
		fetcher := NewPageFetcher(FetcherOptions{
			Timeout:  sc.Timeout,
			Attempts: cfg.FetchRetries,
			Backoff:  cfg.RetryBackoff,
			Delay:    cfg.RequestDelay,
			Client:   client,
		})

		a, err := newAdapter(src, sc, fetcher)
		if err != nil {
			return nil, err
		}
		adapters = append(adapters, a)
	}
	return adapters, nil
}

func newAdapter(src config.SourceConfig, sc SiteConfig, fetcher *PageFetcher) (SiteAdapter, error) {
	switch src.Kind {
	case config.KindLedgeAI:
		return NewLedgeAI(sc, fetcher), nil
	case config.KindAINow:
		return NewAINow(sc, fetcher), nil
	case config.KindPRTimes:
		return NewPRTimes(sc, fetcher), nil
	case config.KindITmedia:
		return NewITmediaAIPlus(sc, fetcher), nil
	case config.KindZDNet:
		return NewZDNetJapan(sc, fetcher), nil
	case config.KindRSS:
		if src.FeedURL == "" {
			return nil, &types.ConfigError{Field: "sources." + src.ID, Reason: "rss source needs feed_url"}
		}
		return NewRSSFeed(sc, src.FeedURL, fetcher), nil
	default:
		return nil, &types.ConfigError{Field: "sources." + src.ID, Reason: "unknown kind " + strconv.Quote(src.Kind)}
	}
}

// Names maps adapter ids to display names.
func Names(adapters []SiteAdapter) map[string]string {
	names := make(map[string]string, len(adapters))
	for _, a := range adapters {
		names[a.ID()] = a.Name()
	}
	return names
}
