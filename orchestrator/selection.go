package orchestrator

import (
	"sort"

	"ainewsbot/deduplication"
)

// selectEntries applies the per-run limits to the batched candidates.
//
// Sources with a positive cap keep arrival order and contribute at most cap
// entries each. The remaining sources are taken newest first until the run
// holds maxTotal entries (0 means unlimited). Everything else is deferred: it
// stays out of the store and is classified as New again next cycle.
func selectEntries(entries []deduplication.Entry, maxTotal int, caps map[string]int) ([]deduplication.Entry, int) {
	var (
		capped   []deduplication.Entry
		uncapped []deduplication.Entry
		taken    = make(map[string]int)
		deferred int
	)
	for _, e := range entries {
		src := e.Article.SourceID
		limit, ok := caps[src]
		if !ok || limit <= 0 {
			uncapped = append(uncapped, e)
			continue
		}
		if taken[src] >= limit {
			deferred++
			continue
		}
		taken[src]++
		capped = append(capped, e)
	}

	if maxTotal > 0 && len(capped) > maxTotal {
		deferred += len(capped) - maxTotal
		capped = capped[:maxTotal]
	}

	sort.SliceStable(uncapped, func(i, j int) bool {
		a, b := uncapped[i].Article.PublishedAt, uncapped[j].Article.PublishedAt
		switch {
		case a == nil:
			return false
		case b == nil:
			return true
		default:
			return a.After(*b)
		}
	})
	if maxTotal > 0 {
		room := maxTotal - len(capped)
		if len(uncapped) > room {
			deferred += len(uncapped) - room
			uncapped = uncapped[:room]
		}
	}

	return append(uncapped, capped...), deferred
}
