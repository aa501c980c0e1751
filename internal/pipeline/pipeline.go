package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/ppiankov/vacdash/internal/cache"
	"github.com/ppiankov/vacdash/internal/model"
	"github.com/ppiankov/vacdash/internal/worker"
)

// Pipeline turns the field data API into dashboard snapshots:
// fetch -> flatten -> tabulate -> clean -> summarize.
type Pipeline struct {
	fetcher  *Fetcher
	pool     *worker.Pool
	maxPages int

	cache    cache.Cache // nil disables caching
	cacheKey string
	ttl      time.Duration

	logger zerolog.Logger

	mu       sync.Mutex
	snapshot *model.Snapshot
}

// cachedPayload is what the cache holds for one data set
type cachedPayload struct {
	ID        string    `json:"id"`
	SourceURL string    `json:"source_url"`
	FetchedAt time.Time `json:"fetched_at"`
	Pages     [][]byte  `json:"pages"`
}

// NewPipeline creates a new pipeline. c may be nil to fetch on every call.
func NewPipeline(cfg *model.Config, c cache.Cache, logger zerolog.Logger) *Pipeline {
	limiter := worker.NewLimiter(cfg.RateLimiting.RequestsPerSecond, cfg.RateLimiting.BurstSize)
	fetcher := NewFetcher(cfg.API, cfg.HTTP, limiter)

	firstURL, err := fetcher.RequestURL(cfg.API.PageNumber)
	if err != nil {
		firstURL = cfg.API.BaseURL
	}

	return &Pipeline{
		fetcher:  fetcher,
		pool:     worker.NewPool(cfg.Fetch.Workers),
		maxPages: cfg.Fetch.MaxPages,
		cache:    c,
		cacheKey: cache.CacheKey(fmt.Sprintf("%s#pages=%d", firstURL, cfg.Fetch.MaxPages)),
		ttl:      cfg.Cache.TTL,
		logger:   logger.With().Str("component", "pipeline").Logger(),
	}
}

// Dashboard returns the current snapshot, fetching only when the cache has
// no valid entry. The derived snapshot is reused while the cached data is unchanged.
func (p *Pipeline) Dashboard(ctx context.Context) (*model.Snapshot, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if payload, ok := p.cached(ctx); ok {
		if p.snapshot != nil && p.snapshot.ID == payload.ID {
			return p.snapshot, nil
		}
		snap, err := Build(payload.ID, payload.SourceURL, payload.FetchedAt, payload.Pages)
		if err == nil {
			p.snapshot = snap
			return snap, nil
		}
		p.logger.Warn().Err(err).Msg("discarding unusable cached payload")
		_ = p.cache.Delete(ctx, p.cacheKey)
	}

	start := time.Now()
	sourceURL, _ := p.fetcher.RequestURL(p.fetcher.FirstPage())
	if p.maxPages > 1 {
		p.logger.Debug().
			Int("max_pages", p.maxPages).
			Int("workers", p.pool.Workers()).
			Msg("fetching pages concurrently")
	}
	pages, err := fetchPages(ctx, p.fetcher, p.pool, p.maxPages)
	if err != nil {
		p.logger.Error().Err(err).Str("url", sourceURL).Msg("field data fetch failed")
		return nil, fmt.Errorf("fetch: %w", err)
	}

	payload := &cachedPayload{
		ID:        uuid.NewString(),
		SourceURL: sourceURL,
		FetchedAt: time.Now().UTC(),
		Pages:     pages,
	}

	snap, err := Build(payload.ID, payload.SourceURL, payload.FetchedAt, payload.Pages)
	if err != nil {
		p.logger.Error().Err(err).Msg("field data unusable")
		return nil, err
	}

	if snap.Dashboard.Records >= len(pages)*p.fetcher.PageSize() {
		p.logger.Warn().
			Int("pages", len(pages)).
			Int("page_size", p.fetcher.PageSize()).
			Msg("every fetched page was full, field data may be truncated")
	}

	p.logger.Info().
		Str("snapshot", snap.ID).
		Int("pages", snap.Pages).
		Int("records", snap.Dashboard.Records).
		Int("columns", snap.Dashboard.Columns).
		Dur("took", time.Since(start).Round(time.Millisecond)).
		Msg("fetched field data")

	p.store(ctx, payload)
	p.snapshot = snap
	return snap, nil
}

// Refresh drops the cached data set and fetches a new one
func (p *Pipeline) Refresh(ctx context.Context) (*model.Snapshot, error) {
	p.Invalidate(ctx)
	return p.Dashboard(ctx)
}

// Invalidate drops the cached data set without fetching
func (p *Pipeline) Invalidate(ctx context.Context) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.cache != nil {
		if err := p.cache.Delete(ctx, p.cacheKey); err != nil {
			p.logger.Warn().Err(err).Msg("cache delete failed")
		}
	}
	p.snapshot = nil
	p.logger.Info().Msg("field data cache invalidated")
}

// CacheHealth reports whether the cache backend is reachable; nil when caching is off
func (p *Pipeline) CacheHealth(ctx context.Context) error {
	if p.cache == nil {
		return nil
	}
	return p.cache.Ping(ctx)
}

// Build runs the pure part of the pipeline over already fetched page bodies
func Build(id, sourceURL string, fetchedAt time.Time, pages [][]byte) (*model.Snapshot, error) {
	var items []model.RawItem
	for _, body := range pages {
		pageItems, err := DecodeItems(body)
		if err != nil {
			return nil, err
		}
		items = append(items, pageItems...)
	}

	records, err := FlattenAll(items)
	if err != nil {
		return nil, err
	}

	table := Tabulate(records)
	Clean(table)

	return &model.Snapshot{
		ID:        id,
		SourceURL: sourceURL,
		FetchedAt: fetchedAt,
		Pages:     len(pages),
		Dashboard: Summarize(table),
		Table:     table,
	}, nil
}

func (p *Pipeline) cached(ctx context.Context) (*cachedPayload, bool) {
	if p.cache == nil {
		return nil, false
	}
	raw, found := p.cache.Get(ctx, p.cacheKey)
	if !found {
		return nil, false
	}
	var payload cachedPayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		p.logger.Warn().Err(err).Msg("cached payload corrupt")
		return nil, false
	}
	return &payload, true
}

func (p *Pipeline) store(ctx context.Context, payload *cachedPayload) {
	if p.cache == nil {
		return
	}
	raw, err := json.Marshal(payload)
	if err != nil {
		p.logger.Warn().Err(err).Msg("cache encode failed")
		return
	}
	if err := p.cache.Set(ctx, p.cacheKey, raw, p.ttl); err != nil {
		p.logger.Warn().Err(err).Msg("cache write failed")
	}
}
