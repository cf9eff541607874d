package ingest

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/creatorpulse/creatorpulse/internal/domain"
	"github.com/creatorpulse/creatorpulse/internal/infrastructure/cache"
	"github.com/creatorpulse/creatorpulse/internal/infrastructure/logging"
)

// DefaultConcurrency is how many sources are fetched at once.
const DefaultConcurrency = 4

// Fetcher pulls the latest items of a single source.
type Fetcher interface {
	Fetch(ctx context.Context, source *domain.Source) ([]domain.ContentItem, error)
}

// MetricsRecorder abstracts prometheus metrics for ingestion.
type MetricsRecorder interface {
	RecordUpstreamError(service string)
}

// Ingestor fans fetches out over the registered fetchers.
// implements application.ContentIngestor.
type Ingestor struct {
	fetchers    map[domain.SourceType]Fetcher
	cache       *cache.FetchCache
	concurrency int
	logger      *logging.Logger
	metrics     MetricsRecorder
}

// NewIngestor creates an ingestor with no fetchers registered.
func NewIngestor(concurrency int, logger *logging.Logger) *Ingestor {
	if concurrency <= 0 {
		concurrency = DefaultConcurrency
	}
	return &Ingestor{
		fetchers:    make(map[domain.SourceType]Fetcher),
		concurrency: concurrency,
		logger:      logger.WithComponent("ingestor"),
	}
}

// Register sets the fetcher used for a source type.
func (i *Ingestor) Register(t domain.SourceType, f Fetcher) *Ingestor {
	i.fetchers[t] = f
	return i
}

// WithCache enables per-source result caching.
func (i *Ingestor) WithCache(c *cache.FetchCache) *Ingestor {
	i.cache = c
	return i
}

// WithMetrics sets the metrics recorder for observability.
func (i *Ingestor) WithMetrics(m MetricsRecorder) *Ingestor {
	i.metrics = m
	return i
}

// Supports reports whether a fetcher is registered for t.
func (i *Ingestor) Supports(t domain.SourceType) bool {
	_, ok := i.fetchers[t]
	return ok
}

// Fetch fetches every source concurrently and returns the items in source order.
// failing sources are logged and skipped; only cancellation is an error.
func (i *Ingestor) Fetch(ctx context.Context, sources []*domain.Source) ([]domain.ContentItem, error) {
	results := make([][]domain.ContentItem, len(sources))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(i.concurrency)

	for idx, source := range sources {
		if !source.IsActive() {
			continue
		}
		fetcher, ok := i.fetchers[source.Type()]
		if !ok {
			i.logger.Debug("no fetcher configured, source skipped",
				"source_id", source.ID().String(),
				"source_type", source.Type().String(),
			)
			continue
		}

		g.Go(func() error {
			items, err := i.fetchOne(gctx, fetcher, source)
			if err != nil {
				if gctx.Err() != nil {
					return gctx.Err()
				}
				if i.metrics != nil {
					i.metrics.RecordUpstreamError(source.Type().String())
				}
				i.logger.SourceFetchFailed(source.ID().String(), source.Type().String(), source.Handle(), err)
				return nil
			}
			results[idx] = items
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("fetching sources: %w", err)
	}

	var items []domain.ContentItem
	for _, r := range results {
		items = append(items, r...)
	}
	return items, nil
}

func (i *Ingestor) fetchOne(ctx context.Context, fetcher Fetcher, source *domain.Source) ([]domain.ContentItem, error) {
	start := time.Now()

	if i.cache == nil {
		return fetcher.Fetch(ctx, source)
	}

	items, hit, err := i.cache.GetOrFetch(ctx, source, fetcher.Fetch)
	if err != nil {
		return nil, err
	}

	i.logger.Debug("source fetched",
		"source_id", source.ID().String(),
		"cache_hit", hit,
		"items", len(items),
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return items, nil
}
