package feedsync

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"reflect"
	"testing"

	"github.com/sahayakapp/sahayak-core/internal/cache"
	"github.com/sahayakapp/sahayak-core/internal/domain"
)

type fakeSource struct {
	fn    func(ctx context.Context, q domain.EntityQuery) (domain.FeedPage, error)
	calls int
}

func (f *fakeSource) ListEntities(ctx context.Context, q domain.EntityQuery) (domain.FeedPage, error) {
	f.calls++
	return f.fn(ctx, q)
}

type fakeNet struct{ online bool }

func (f *fakeNet) Online() bool { return f.online }

func newTestEngine(t *testing.T, src *fakeSource, online bool, pageSize int) (*Engine, *cache.Store) {
	t.Helper()
	store, err := cache.Open(t.TempDir(), slog.Default())
	if err != nil {
		t.Fatalf("open cache: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	return NewEngine(src, store, &fakeNet{online: online}, slog.Default(), pageSize), store
}

func pageOf(ids ...string) domain.FeedPage {
	items := make([]domain.Entity, len(ids))
	for i, id := range ids {
		items[i] = domain.Entity{ID: id}
	}
	p := domain.FeedPage{Items: items}
	if len(ids) > 0 {
		p.Cursor = ids[len(ids)-1]
	}
	return p
}

func TestLoadFirstPageOfflineIdempotence(t *testing.T) {
	src := &fakeSource{fn: func(context.Context, domain.EntityQuery) (domain.FeedPage, error) {
		t.Fatal("offline load must not hit the network")
		return domain.FeedPage{}, nil
	}}
	e, store := newTestEngine(t, src, false, 20)
	ctx := context.Background()

	q := FeedQuery{Collection: "posts", Category: "jobs", Sort: "newest"}
	want := pageOf("p1", "p2")
	store.Put(ctx, cache.FeedKey(q.Collection, q.Category, q.Sort), want)

	for i := 0; i < 3; i++ {
		res, err := e.LoadFirstPage(ctx, q)
		if err != nil {
			t.Fatalf("call %d: %v", i, err)
		}
		if !res.FromCache || !reflect.DeepEqual(res.Page, want) {
			t.Fatalf("call %d: expected unchanged cached page, got %+v", i, res)
		}
	}
	if src.calls != 0 {
		t.Fatalf("source called %d times while offline", src.calls)
	}
}

func TestLoadFirstPageOfflineNoCache(t *testing.T) {
	src := &fakeSource{fn: func(context.Context, domain.EntityQuery) (domain.FeedPage, error) {
		return domain.FeedPage{}, nil
	}}
	e, _ := newTestEngine(t, src, false, 20)

	res, err := e.LoadFirstPage(context.Background(), FeedQuery{Collection: "posts"})
	if err != nil {
		t.Fatalf("offline empty load must not error: %v", err)
	}
	if len(res.Page.Items) != 0 || res.FromCache || res.HasMore {
		t.Fatalf("expected empty final result, got %+v", res)
	}
	if src.calls != 0 {
		t.Fatal("source must not be called offline")
	}
}

func TestLoadFirstPageFreshOverwritesCache(t *testing.T) {
	fresh := pageOf("new1", "new2")
	src := &fakeSource{fn: func(context.Context, domain.EntityQuery) (domain.FeedPage, error) {
		return fresh, nil
	}}
	e, store := newTestEngine(t, src, true, 20)
	ctx := context.Background()

	q := FeedQuery{Collection: "posts"}
	key := cache.FeedKey(q.Collection, q.Category, q.Sort)
	store.Put(ctx, key, pageOf("old"))

	res, err := e.LoadFirstPage(ctx, q)
	if err != nil {
		t.Fatalf("LoadFirstPage: %v", err)
	}
	if res.FromCache || !reflect.DeepEqual(res.Page, fresh) {
		t.Fatalf("fresh data must supersede cache, got %+v", res)
	}

	var got domain.FeedPage
	if !store.Get(ctx, key, &got) || !reflect.DeepEqual(got, fresh) {
		t.Fatalf("cache not refreshed: %+v", got)
	}
}

func TestLoadFirstPageFallsBackToCacheOnFailure(t *testing.T) {
	src := &fakeSource{fn: func(context.Context, domain.EntityQuery) (domain.FeedPage, error) {
		return domain.FeedPage{}, errors.New("connection reset")
	}}
	e, store := newTestEngine(t, src, true, 20)
	ctx := context.Background()

	q := FeedQuery{Collection: "posts"}
	want := pageOf("cached1")
	store.Put(ctx, cache.FeedKey(q.Collection, q.Category, q.Sort), want)

	res, err := e.LoadFirstPage(ctx, q)
	if err != nil {
		t.Fatalf("fallback must not error: %v", err)
	}
	if !res.FromCache || !reflect.DeepEqual(res.Page, want) {
		t.Fatalf("expected cached fallback, got %+v", res)
	}
}

func TestLoadFirstPageFailureWithoutCache(t *testing.T) {
	src := &fakeSource{fn: func(context.Context, domain.EntityQuery) (domain.FeedPage, error) {
		return domain.FeedPage{}, errors.New("connection reset")
	}}
	e, _ := newTestEngine(t, src, true, 20)

	if _, err := e.LoadFirstPage(context.Background(), FeedQuery{Collection: "posts"}); err == nil {
		t.Fatal("expected error with no cache to fall back to")
	}
}

func TestLoadFirstPageAuthErrorSkipsFallback(t *testing.T) {
	src := &fakeSource{fn: func(context.Context, domain.EntityQuery) (domain.FeedPage, error) {
		return domain.FeedPage{}, fmt.Errorf("status 401: %w", domain.ErrUnauthorized)
	}}
	e, store := newTestEngine(t, src, true, 20)
	ctx := context.Background()

	q := FeedQuery{Collection: "posts"}
	store.Put(ctx, cache.FeedKey(q.Collection, q.Category, q.Sort), pageOf("cached1"))

	_, err := e.LoadFirstPage(ctx, q)
	if !domain.IsUnauthorized(err) {
		t.Fatalf("auth failure must propagate, got %v", err)
	}
}

func TestLoadFirstPageSearchBypassesCache(t *testing.T) {
	fresh := pageOf("hit1")
	src := &fakeSource{fn: func(_ context.Context, q domain.EntityQuery) (domain.FeedPage, error) {
		if q.Search != "drill" {
			t.Errorf("search not forwarded: %+v", q)
		}
		return fresh, nil
	}}
	e, store := newTestEngine(t, src, true, 20)
	ctx := context.Background()

	q := FeedQuery{Collection: "posts", Search: "drill"}
	key := cache.FeedKey(q.Collection, q.Category, q.Sort)
	warm := pageOf("warm1")
	store.Put(ctx, key, warm)

	res, err := e.LoadFirstPage(ctx, q)
	if err != nil {
		t.Fatalf("LoadFirstPage: %v", err)
	}
	if res.FromCache {
		t.Fatal("search results must not come from cache")
	}

	// The shared key must still hold the pre-search payload.
	var got domain.FeedPage
	if !store.Get(ctx, key, &got) || !reflect.DeepEqual(got, warm) {
		t.Fatalf("search result leaked into shared cache key: %+v", got)
	}
}

func TestLoadFirstPageSearchFailureDoesNotFallBack(t *testing.T) {
	src := &fakeSource{fn: func(context.Context, domain.EntityQuery) (domain.FeedPage, error) {
		return domain.FeedPage{}, errors.New("timeout")
	}}
	e, store := newTestEngine(t, src, true, 20)
	ctx := context.Background()

	q := FeedQuery{Collection: "posts", Search: "drill"}
	store.Put(ctx, cache.FeedKey(q.Collection, q.Category, q.Sort), pageOf("warm1"))

	if _, err := e.LoadFirstPage(ctx, q); err == nil {
		t.Fatal("ephemeral search must not be answered from the shared cache")
	}
}

func TestHasMoreHeuristicAcrossPages(t *testing.T) {
	full := make([]string, 20)
	for i := range full {
		full[i] = fmt.Sprintf("p%d", i)
	}
	short := make([]string, 12)
	for i := range short {
		short[i] = fmt.Sprintf("q%d", i)
	}

	src := &fakeSource{fn: func(_ context.Context, q domain.EntityQuery) (domain.FeedPage, error) {
		if q.Cursor == "" {
			return pageOf(full...), nil
		}
		return pageOf(short...), nil
	}}
	e, _ := newTestEngine(t, src, true, 20)
	ctx := context.Background()

	q := FeedQuery{Collection: "posts"}
	first, err := e.LoadFirstPage(ctx, q)
	if err != nil {
		t.Fatalf("first page: %v", err)
	}
	if !first.HasMore {
		t.Fatal("full first page should report more")
	}

	next, err := e.LoadNextPage(ctx, q, first.Page.Cursor)
	if err != nil {
		t.Fatalf("next page: %v", err)
	}
	if next.HasMore {
		t.Fatal("short page should report end of feed")
	}
	if len(next.Page.Items) != 12 {
		t.Fatalf("expected 12 items, got %d", len(next.Page.Items))
	}
}

func TestLoadNextPageNeverWritesCache(t *testing.T) {
	src := &fakeSource{fn: func(context.Context, domain.EntityQuery) (domain.FeedPage, error) {
		return pageOf("cont1"), nil
	}}
	e, store := newTestEngine(t, src, true, 20)
	ctx := context.Background()

	q := FeedQuery{Collection: "posts"}
	key := cache.FeedKey(q.Collection, q.Category, q.Sort)
	warm := pageOf("warm1")
	store.Put(ctx, key, warm)

	if _, err := e.LoadNextPage(ctx, q, "cursor1"); err != nil {
		t.Fatalf("LoadNextPage: %v", err)
	}

	var got domain.FeedPage
	if !store.Get(ctx, key, &got) || !reflect.DeepEqual(got, warm) {
		t.Fatalf("continuation overwrote first-page cache: %+v", got)
	}
}

func TestCancelledLoadDoesNotWriteCache(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	src := &fakeSource{fn: func(context.Context, domain.EntityQuery) (domain.FeedPage, error) {
		// Screen unmounts while the fetch is in flight.
		cancel()
		return pageOf("stale1"), nil
	}}
	e, store := newTestEngine(t, src, true, 20)

	q := FeedQuery{Collection: "posts"}
	key := cache.FeedKey(q.Collection, q.Category, q.Sort)
	warm := pageOf("warm1")
	store.Put(context.Background(), key, warm)

	if _, err := e.LoadFirstPage(ctx, q); err != nil {
		t.Fatalf("LoadFirstPage: %v", err)
	}

	var got domain.FeedPage
	if !store.Get(context.Background(), key, &got) || !reflect.DeepEqual(got, warm) {
		t.Fatalf("cancelled load wrote stale data: %+v", got)
	}
}

func TestSupersededLoadDoesNotWriteCache(t *testing.T) {
	var e *Engine
	var store *cache.Store
	ctx := context.Background()
	q := FeedQuery{Collection: "posts"}
	key := cache.FeedKey(q.Collection, q.Category, q.Sort)

	nested := false
	src := &fakeSource{}
	src.fn = func(context.Context, domain.EntityQuery) (domain.FeedPage, error) {
		if !nested {
			nested = true
			// A newer load for the same key starts and finishes while
			// this one is still in flight.
			if _, err := e.LoadFirstPage(ctx, q); err != nil {
				t.Fatalf("nested load: %v", err)
			}
			return pageOf("stale1"), nil
		}
		return pageOf("fresh1"), nil
	}
	e, store = newTestEngine(t, src, true, 20)

	if _, err := e.LoadFirstPage(ctx, q); err != nil {
		t.Fatalf("outer load: %v", err)
	}

	var got domain.FeedPage
	if !store.Get(ctx, key, &got) || len(got.Items) != 1 || got.Items[0].ID != "fresh1" {
		t.Fatalf("superseded load clobbered newer cache state: %+v", got)
	}
}
