package metadata

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/dgraph-io/ristretto/v2"
)

const userAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/91.0.4472.124 Safari/537.36"

type FetcherConfig struct {
	Timeout  time.Duration
	CacheTTL time.Duration
}

// Fetcher downloads pages and extracts their metadata. Results are cached
// by normalized URL so repeated saves of the same page skip the network.
type Fetcher struct {
	client *http.Client
	cache  *ristretto.Cache[string, Metadata]
	ttl    time.Duration
}

func NewFetcher(cfg FetcherConfig) (*Fetcher, error) {
	cache, err := ristretto.NewCache(&ristretto.Config[string, Metadata]{
		NumCounters: 10_000,
		MaxCost:     1_000,
		BufferItems: 64,
	})
	if err != nil {
		return nil, fmt.Errorf("create metadata cache: %w", err)
	}
	return &Fetcher{
		client: &http.Client{Timeout: cfg.Timeout},
		cache:  cache,
		ttl:    cfg.CacheTTL,
	}, nil
}

// Fetch returns the metadata of the page at rawURL. Failures are reported
// through the error return but are expected to be non-fatal for callers:
// a link is still saved when its page cannot be read.
func (f *Fetcher) Fetch(ctx context.Context, rawURL string) (Metadata, error) {
	target := NormalizeURL(rawURL)
	if md, ok := f.cache.Get(target); ok {
		return md, nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return Metadata{}, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := f.client.Do(req)
	if err != nil {
		slog.Warn("failed to fetch page metadata", "url", target, "error", err.Error())
		return Metadata{}, fmt.Errorf("fetch %s: %w", target, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode/100 != 2 {
		slog.Warn("unexpected status fetching page metadata", "url", target, "status", resp.StatusCode)
		return Metadata{}, fmt.Errorf("fetch %s: status %d", target, resp.StatusCode)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		slog.Error("failed to parse page metadata", "url", target, "error", err.Error())
		return Metadata{}, fmt.Errorf("parse %s: %w", target, err)
	}

	// resp.Request.URL reflects the final URL after redirects, which keeps
	// relative favicon references anchored to the right host.
	md := Extract(doc, resp.Request.URL)
	f.cache.SetWithTTL(target, md, 1, f.ttl)
	f.cache.Wait()
	return md, nil
}

func (f *Fetcher) Close() {
	f.cache.Close()
}
