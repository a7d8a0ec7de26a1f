// Package archive keeps a JSON copy of every committed batch in object storage.
package archive

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"ainewsbot/types"
)

// ErrNoArchive is returned by Latest when nothing was archived yet.
var ErrNoArchive = errors.New("no archived cycle")

// ObjectStore is the part of S3 the archive needs.
type ObjectStore interface {
	Put(ctx context.Context, key string, body []byte, contentType string) error
	Get(ctx context.Context, key string) ([]byte, error)
	Exists(ctx context.Context, key string) (bool, error)
	List(ctx context.Context, prefix string) ([]Object, error)
}

// Record is the archived content of one cycle.
type Record struct {
	Report   *types.CycleReport `json:"report"`
	Articles []types.Article    `json:"articles"`
}

// Archive writes one object per cycle under <prefix>cycles/YYYY/MM/DD/<cycle_id>.json.
type Archive struct {
	objects ObjectStore
	prefix  string
	timeout time.Duration
}

func New(objects ObjectStore, prefix string) *Archive {
	if prefix != "" {
		prefix = strings.Trim(prefix, "/") + "/"
	}
	return &Archive{objects: objects, prefix: prefix, timeout: 30 * time.Second}
}

// Key returns the object key of a cycle.
func (a *Archive) Key(report *types.CycleReport) string {
	day := report.StartedAt.UTC().Format("2006/01/02")
	return a.prefix + "cycles/" + day + "/" + report.CycleID + ".json"
}

// Publish archives the committed batch. Cycles that committed nothing are skipped.
func (a *Archive) Publish(ctx context.Context, report *types.CycleReport, committed []types.Article) error {
	if report == nil || len(committed) == 0 {
		return nil
	}
	ctx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()

	key := a.Key(report)
	exists, err := a.objects.Exists(ctx, key)
	if err != nil {
		return fmt.Errorf("check %s: %w", key, err)
	}
	if exists {
		log.Printf("⚠️ archive %s already exists; skipping", key)
		return nil
	}

	body, err := json.MarshalIndent(Record{Report: report, Articles: committed}, "", "  ")
	if err != nil {
		return fmt.Errorf("encode archive: %w", err)
	}
	if err := a.objects.Put(ctx, key, body, "application/json"); err != nil {
		return fmt.Errorf("upload %s: %w", key, err)
	}
	log.Printf("📦 Archived %d articles to %s", len(committed), key)
	return nil
}

// Latest returns the key of the most recently written archive.
func (a *Archive) Latest(ctx context.Context) (string, error) {
	objects, err := a.objects.List(ctx, a.prefix+"cycles/")
	if err != nil {
		return "", fmt.Errorf("list archives: %w", err)
	}
	var latest Object
	for _, o := range objects {
		if !strings.HasSuffix(o.Key, ".json") {
			continue
		}
		if latest.Key == "" || o.LastModified.After(latest.LastModified) ||
			(o.LastModified.Equal(latest.LastModified) && o.Key > latest.Key) {
			latest = o
		}
	}
	if latest.Key == "" {
		return "", ErrNoArchive
	}
	return latest.Key, nil
}

// Load reads an archived cycle.
func (a *Archive) Load(ctx context.Context, key string) (*Record, error) {
	body, err := a.objects.Get(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("download %s: %w", key, err)
	}
	var r Record
	if err := json.Unmarshal(body, &r); err != nil {
		return nil, fmt.Errorf("decode %s: %w", key, err)
	}
	return &r, nil
}
