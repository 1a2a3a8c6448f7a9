package fetch

import (
	"context"
	"fmt"
	"time"

	"github.com/chromedp/chromedp"
)

const (
	searchInput    = `div.header-bottom-in input.quick-search-input`
	searchButton   = `div.header-bottom-in input.search-button-first-form`
	firstResult    = `div.tab-content-wrapper div.br-pp-imadds a`
	productHeading = `div[data-section="top"] h1`
)

// BrowserFetcher drives a real browser through the storefront: search for
// the target query, open the first result, wait until the product heading
// renders, snapshot the page. Needed for pages that assemble their markup in
// script. With AllocatorWS set it attaches to a remote browser instead of
// launching a local one.
type BrowserFetcher struct {
	SiteURL     string
	AllocatorWS string
	Timeout     time.Duration
}

func (f *BrowserFetcher) Fetch(ctx context.Context, target string) (string, error) {
	parent := ctx
	if f.AllocatorWS != "" {
		var cancel context.CancelFunc
		parent, cancel = chromedp.NewRemoteAllocator(ctx, f.AllocatorWS)
		defer cancel()
	}

	bctx, cancel := chromedp.NewContext(parent)
	defer cancel()

	timeout := f.Timeout
	if timeout <= 0 {
		timeout = 90 * time.Second
	}
	bctx, cancel = context.WithTimeout(bctx, timeout)
	defer cancel()

	var html string
	err := chromedp.Run(bctx,
		chromedp.Navigate(f.SiteURL),
		chromedp.WaitVisible(searchInput, chromedp.ByQuery),
		chromedp.SendKeys(searchInput, target, chromedp.ByQuery),
		chromedp.Click(searchButton, chromedp.ByQuery),
		chromedp.WaitVisible(firstResult, chromedp.ByQuery),
		chromedp.Click(firstResult, chromedp.ByQuery),
		chromedp.WaitVisible(productHeading, chromedp.ByQuery),
		chromedp.OuterHTML("html", &html, chromedp.ByQuery),
	)
	if err != nil {
		return "", fmt.Errorf("browser fetch for %q: %w", target, err)
	}
	return html, nil
}
