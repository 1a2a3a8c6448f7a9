package fetch

import (
	"context"

	"prodsync/internal/cache"
)

// CachedFetcher serves a stored snapshot when one exists for the target and
// delegates to Next otherwise, storing what it fetched.
type CachedFetcher struct {
	Next  Fetcher
	Cache *cache.PageCache
}

func (f *CachedFetcher) Fetch(ctx context.Context, target string) (string, error) {
	if html, ok := f.Cache.Get(ctx, target); ok {
		return html, nil
	}
	html, err := f.Next.Fetch(ctx, target)
	if err != nil {
		return "", err
	}
	f.Cache.Set(ctx, target, html)
	return html, nil
}
