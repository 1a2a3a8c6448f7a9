package fetch

import "context"

// Fetcher produces a rendered-markup snapshot for a target: a product URL
// for the HTTP adapter, a search query for the browser adapter. How long
// acquisition blocks (network, page waits) is entirely the adapter's concern.
type Fetcher interface {
	Fetch(ctx context.Context, target string) (string, error)
}
