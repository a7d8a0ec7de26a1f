// Package sites contains one adapter per news site plus a generic RSS adapter.
package sites

import (
	"context"
	"iter"
	"time"

	"ainewsbot/types"
)

// SiteAdapter fetches raw items from one external site.
//
// Fetch downloads the listing pages before returning. When none of them could be
// fetched it returns a *types.FetchError. The sequence then downloads one detail
// page per step; a failed detail yields (RawItem{}, err) and iteration continues.
// Iterating again requires a new call to Fetch.
type SiteAdapter interface {
	ID() string
	Name() string
	Fetch(ctx context.Context) (iter.Seq2[types.RawItem, error], error)
}

// SiteConfig is the per-adapter configuration.
type SiteConfig struct {
	ID           string
	Name         string
	BaseURL      string
	ListingPaths []string
	MaxPages     int
	MaxItems     int
	Timeout      time.Duration
	Retries      int
	Enabled      bool
}

func (c SiteConfig) maxPages() int {
	if c.MaxPages < 1 {
		return 1
	}
	return c.MaxPages
}

func (c SiteConfig) paths(defaults []string) []string {
	if len(c.ListingPaths) > 0 {
		return c.ListingPaths
	}
	return defaults
}
