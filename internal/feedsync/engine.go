// Package feedsync orchestrates paginated feed fetches with cache fallback.
// The contract: never block on the network, never overwrite fresh cache state
// with a cancelled fetch, and always degrade to the last known-good page
// instead of erroring, except for auth failures which must interrupt the flow.
package feedsync

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/sahayakapp/sahayak-core/internal/cache"
	"github.com/sahayakapp/sahayak-core/internal/domain"
)

// DefaultPageSize is the page size requested from the remote when the caller
// does not configure one.
const DefaultPageSize = 20

// FeedQuery identifies one logical feed. Collection, Category and Sort form
// the cache signature; Search is ephemeral and bypasses the cache entirely.
type FeedQuery struct {
	Collection string
	Category   string
	Search     string
	Sort       string
}

// PageResult is one loaded page plus its provenance.
type PageResult struct {
	Page domain.FeedPage

	// FromCache is true when the items came from the local cache rather
	// than a live fetch.
	FromCache bool

	// HasMore is the short-page heuristic: true when the page is exactly
	// the requested size. It is a hint, not a guarantee — a remote that
	// post-filters after applying its limit can return a short page with
	// more data behind it. The cursor is populated regardless, so callers
	// that know better can keep paging.
	HasMore bool
}

// Engine loads feed pages from the remote source, keeping the cache warm on
// success and falling back to it on failure.
type Engine struct {
	source   domain.EntitySource
	store    *cache.Store
	net      domain.Connectivity
	logger   *slog.Logger
	pageSize int

	mu   sync.Mutex
	gens map[string]uint64 // per-key load generation, guards cancelled writers
}

// NewEngine creates an engine. pageSize <= 0 selects DefaultPageSize.
func NewEngine(source domain.EntitySource, store *cache.Store, net domain.Connectivity, logger *slog.Logger, pageSize int) *Engine {
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	return &Engine{
		source:   source,
		store:    store,
		net:      net,
		logger:   logger,
		pageSize: pageSize,
		gens:     make(map[string]uint64),
	}
}

// PageSize returns the configured page size.
func (e *Engine) PageSize() int { return e.pageSize }

// LoadFirstPage loads page one of a feed.
//
// A cached payload, when present, is the provisional answer: it is returned
// as-is when offline, and kept as the fallback when the live fetch fails.
// A successful fetch supersedes it and refreshes the cache. Auth failures
// propagate without fallback so the caller can force re-authentication.
func (e *Engine) LoadFirstPage(ctx context.Context, q FeedQuery) (PageResult, error) {
	key := cache.FeedKey(q.Collection, q.Category, q.Sort)
	gen := e.nextGen(key)

	var cached domain.FeedPage
	haveCached := false
	if q.Search == "" {
		haveCached = e.store.Get(ctx, key, &cached)
	}

	if !e.net.Online() {
		// Offline: the provisional cached result (or empty) is final.
		offlineServesTotal.Inc()
		return PageResult{
			Page:      cached,
			FromCache: haveCached,
			HasMore:   len(cached.Items) == e.pageSize,
		}, nil
	}

	page, err := e.source.ListEntities(ctx, domain.EntityQuery{
		Collection: q.Collection,
		Category:   q.Category,
		Search:     q.Search,
		Sort:       q.Sort,
		Limit:      e.pageSize,
	})
	if err != nil {
		if domain.IsUnauthorized(err) {
			return PageResult{}, fmt.Errorf("load first page %s: %w", key, err)
		}
		if haveCached {
			e.logger.Warn("feed fetch failed, serving cached page", "key", key, "error", err)
			fallbacksTotal.Inc()
			return PageResult{
				Page:      cached,
				FromCache: true,
				HasMore:   len(cached.Items) == e.pageSize,
			}, nil
		}
		return PageResult{}, fmt.Errorf("load first page %s: %w", key, err)
	}
	fetchesTotal.Inc()

	// Refresh the cache only for first-page, search-free results, and only
	// if this load is still the latest for the key and was not cancelled.
	// A cancelled load must never clobber a newer page.
	if q.Search == "" && ctx.Err() == nil && e.currentGen(key) == gen {
		e.store.Put(context.WithoutCancel(ctx), key, page)
	}

	return PageResult{Page: page, HasMore: len(page.Items) == e.pageSize}, nil
}

// LoadNextPage fetches a continuation. Continuations never touch the cache:
// the opaque cursor is forwarded verbatim and failures propagate to the
// caller, who keeps the pages it already has.
func (e *Engine) LoadNextPage(ctx context.Context, q FeedQuery, cursor string) (PageResult, error) {
	page, err := e.source.ListEntities(ctx, domain.EntityQuery{
		Collection: q.Collection,
		Category:   q.Category,
		Search:     q.Search,
		Sort:       q.Sort,
		Cursor:     cursor,
		Limit:      e.pageSize,
	})
	if err != nil {
		return PageResult{}, fmt.Errorf("load next page %s: %w", q.Collection, err)
	}
	fetchesTotal.Inc()

	return PageResult{Page: page, HasMore: len(page.Items) == e.pageSize}, nil
}

func (e *Engine) nextGen(key string) uint64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.gens[key]++
	return e.gens[key]
}

func (e *Engine) currentGen(key string) uint64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.gens[key]
}
