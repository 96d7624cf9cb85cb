package search

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"strings"

	sitemap "github.com/oxffaa/gopher-parse-sitemap"

	"github.com/procurehq/vendorscout/internal/fetch"
	"github.com/procurehq/vendorscout/internal/registry"
)

// SitemapProvider discovers product URLs by walking the sitemaps that
// allow-listed vendor domains declare in robots.txt, keeping entries whose
// path mentions the query terms. It needs no third-party search API, only
// the vendors' own published listings.
type SitemapProvider struct {
	fetcher  *fetch.Fetcher
	registry *registry.Registry
	logger   *slog.Logger

	// MaxDepth bounds recursion through sitemap index files.
	MaxDepth int
	// MaxPerDomain caps URLs taken from a single vendor so one huge sitemap
	// does not crowd out the rest of the allow-list.
	MaxPerDomain int
}

// NewSitemapProvider initializes a provider over the given fetcher and
// vendor registry.
func NewSitemapProvider(fetcher *fetch.Fetcher, reg *registry.Registry, logger *slog.Logger) *SitemapProvider {
	if logger == nil {
		logger = slog.Default()
	}
	return &SitemapProvider{
		fetcher:      fetcher,
		registry:     reg,
		logger:       logger,
		MaxDepth:     2,
		MaxPerDomain: 40,
	}
}

// Search implements Provider.
func (p *SitemapProvider) Search(ctx context.Context, query string, specs []string, limit int) ([]string, error) {
	terms := queryTerms(query, specs)
	if len(terms) == 0 {
		return nil, nil
	}

	var out []string
	for _, domain := range p.registry.Domains() {
		if ctx.Err() != nil {
			break
		}
		if len(out) >= limit {
			break
		}

		host := "https://" + domain
		maps, err := p.fetcher.Sitemaps(ctx, host)
		if err != nil || len(maps) == 0 {
			continue
		}

		taken := 0
		for _, sm := range maps {
			if taken >= p.MaxPerDomain || len(out) >= limit {
				break
			}
			urls, err := p.walk(ctx, sm, 0)
			if err != nil {
				p.logger.Debug("sitemap walk failed", "url", sm, "err", err)
				continue
			}
			for _, u := range urls {
				if matchesTerms(u, terms) {
					out = append(out, u)
					taken++
					if taken >= p.MaxPerDomain || len(out) >= limit {
						break
					}
				}
			}
		}
	}

	return out, nil
}

// walk fetches a sitemap or sitemap index and extracts page URLs, recursing
// into nested sitemaps up to MaxDepth.
func (p *SitemapProvider) walk(ctx context.Context, sitemapURL string, depth int) ([]string, error) {
	result, err := p.fetcher.Fetch(ctx, sitemapURL)
	if err != nil {
		return nil, err
	}
	if !result.OK() {
		return nil, fmt.Errorf("sitemap fetch failed: status=%d err=%q", result.StatusCode, result.Error)
	}

	var urls []string
	err = sitemap.Parse(bytes.NewReader(result.Body), func(e sitemap.Entry) error {
		urls = append(urls, e.GetLocation())
		return nil
	})

	if err != nil || len(urls) == 0 {
		// May be a sitemap index instead of a leaf sitemap.
		var nested []string
		indexErr := sitemap.ParseIndex(bytes.NewReader(result.Body), func(e sitemap.IndexEntry) error {
			nested = append(nested, e.GetLocation())
			return nil
		})
		if indexErr != nil || (len(urls) == 0 && len(nested) == 0) {
			return nil, fmt.Errorf("not a parseable sitemap or index")
		}

		if depth >= p.MaxDepth {
			return urls, nil
		}
		for _, n := range nested {
			if ctx.Err() != nil {
				break
			}
			got, werr := p.walk(ctx, n, depth+1)
			if werr != nil {
				p.logger.Debug("nested sitemap failed", "url", n, "err", werr)
				continue
			}
			urls = append(urls, got...)
		}
	}

	return urls, nil
}

// queryTerms lowercases and splits the query plus spec strings into match
// tokens, dropping short stop-word-ish fragments.
func queryTerms(query string, specs []string) []string {
	var terms []string
	for _, src := range append([]string{query}, specs...) {
		for _, tok := range strings.Fields(strings.ToLower(src)) {
			if len(tok) >= 3 {
				terms = append(terms, tok)
			}
		}
	}
	return terms
}

// matchesTerms reports whether any query term appears in the URL path.
func matchesTerms(rawURL string, terms []string) bool {
	lower := strings.ToLower(rawURL)
	for _, t := range terms {
		if strings.Contains(lower, t) {
			return true
		}
	}
	return false
}
