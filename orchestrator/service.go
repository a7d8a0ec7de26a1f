package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"

	"ainewsbot/archive"
	"ainewsbot/config"
	"ainewsbot/enrich"
	"ainewsbot/events"
	"ainewsbot/sites"
	"ainewsbot/store"
)

// Service is a coordinator wired from configuration together with the
// resources it owns.
type Service struct {
	Coordinator *Coordinator
	Backend     store.Backend
	// Reader serves the display read API through a cache invalidated on every commit.
	Reader *store.CachedReader

	closers []io.Closer
}

// NewService opens the configured store, builds the adapters, the optional
// summarizer and every optional publisher (Kafka, S3), and wires them into a
// coordinator. Optional integrations that fail to start are logged and skipped;
// a store that fails to open is fatal.
func NewService(ctx context.Context, cfg *config.Config) (*Service, error) {
	adapters, err := sites.Build(cfg, nil)
	if err != nil {
		return nil, err
	}
	log.Printf("✅ %d source(s) enabled", len(adapters))

	backend, err := store.Open(ctx, cfg.Store)
	if err != nil {
		return nil, fmt.Errorf("open %s store: %w", cfg.Store.Backend, err)
	}
	log.Printf("✅ %s store ready", cfg.Store.Backend)

	svc := &Service{
		Backend: backend,
		Reader:  store.NewCachedReader(backend, cfg.ReadCacheTTL),
		closers: []io.Closer{backend},
	}

	enricher, err := enrich.FromConfig(cfg.Summarizer, cfg.Redis)
	if err != nil {
		svc.Close()
		return nil, err
	}
	if enricher != nil {
		svc.closers = append(svc.closers, enricher)
	}

	publishers := []Publisher{svc.Reader}
	if len(cfg.Kafka.Brokers) > 0 {
		p, err := events.NewPublisher(cfg.Kafka)
		if err != nil {
			log.Printf("⚠️ Kafka publisher disabled: %v", err)
		} else {
			publishers = append(publishers, p)
			svc.closers = append(svc.closers, p)
		}
	}
	if cfg.S3.Bucket != "" {
		objects, err := archive.NewS3(ctx, cfg.S3)
		if err != nil {
			log.Printf("⚠️ S3 archive disabled: %v", err)
		} else {
			publishers = append(publishers, archive.New(objects, cfg.S3.Prefix))
			log.Printf("✅ archiving cycles to s3://%s/%s", cfg.S3.Bucket, cfg.S3.Prefix)
		}
	}

	svc.Coordinator, err = New(Options{
		Adapters:      adapters,
		Store:         backend,
		Enricher:      enricher,
		Publishers:    publishers,
		FetchWorkers:  cfg.FetchWorkers,
		MaxArticles:   cfg.MaxArticlesPerRun,
		SourceCaps:    cfg.SourceCaps,
		KeywordFilter: cfg.KeywordFilter,
	})
	if err != nil {
		svc.Close()
		return nil, err
	}
	return svc, nil
}

// Close releases the store and publishers in reverse order of creation.
func (s *Service) Close() error {
	var errs []error
	for i := len(s.closers) - 1; i >= 0; i-- {
		if err := s.closers[i].Close(); err != nil {
			errs = append(errs, err)
		}
	}
	s.closers = nil
	return errors.Join(errs...)
}
