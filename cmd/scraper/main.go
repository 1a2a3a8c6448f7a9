package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"prodsync/internal/cache"
	"prodsync/internal/config"
	"prodsync/internal/db"
	"prodsync/internal/extract"
	"prodsync/internal/fetch"
	"prodsync/internal/observability"
	"prodsync/internal/repository"
)

// go run cmd/scraper/main.go -mode=http -url="https://brain.com.ua/ukr/Mobilniy_telefon_Apple_iPhone_16_Pro_Max_256GB_Black_Titanium-p1145443.html"
// go run cmd/scraper/main.go -mode=browser -query="Apple iPhone 15 128GB Black"
func main() {
	mode := flag.String("mode", "http", "Acquisition mode: 'http' or 'browser'")
	url := flag.String("url", "", "Product page URL (http mode)")
	query := flag.String("query", "Apple iPhone 15 128GB Black", "Storefront search query (browser mode)")
	flag.Parse()

	cfg := config.Load()
	ctx := context.Background()

	conn, err := db.Open(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("db: %v", err)
	}
	defer conn.Close()
	if err := db.EnsureSchema(ctx, conn); err != nil {
		log.Fatalf("schema: %v", err)
	}

	observability.Start(cfg.MetricsPort)

	var fetcher fetch.Fetcher
	target := *url
	if target == "" {
		target = cfg.ProductURL
	}
	switch *mode {
	case "browser":
		fetcher = &fetch.BrowserFetcher{SiteURL: cfg.SiteURL, AllocatorWS: cfg.BrowserWS}
		target = *query
	default:
		fetcher = &fetch.HTTPFetcher{}
	}

	if cfg.RedisURL != "" {
		pages, err := cache.New(cfg.RedisURL, cfg.CacheTTL)
		if err != nil {
			log.Printf("page cache disabled: %v", err)
		} else {
			fetcher = &fetch.CachedFetcher{Next: fetcher, Cache: pages}
		}
	}

	html, err := fetcher.Fetch(ctx, target)
	if err != nil {
		log.Fatalf("fetch %s: %v", target, err)
	}
	observability.FetchTotal.WithLabelValues(*mode).Inc()

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		log.Fatalf("parse: %v", err)
	}

	rec := extract.New().Extract(doc)

	repo := &repository.ProductRepository{DB: conn}
	res, err := repo.Sync(ctx, rec)
	if err != nil {
		log.Printf("sync rolled back: %v", err)
	} else {
		log.Printf("synced product %s (created=%v images=%d values=%d)",
			res.ProductID, res.Created, res.Images, res.AttributeValues)
	}

	out, _ := json.MarshalIndent(rec, "", "  ")
	fmt.Fprintln(os.Stdout, string(out))
}
