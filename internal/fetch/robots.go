package fetch

import (
	"context"
	"fmt"
	"net/url"
	"sync"

	"github.com/temoto/robotstxt"
)

// robotsGate caches per-host robots.txt and answers allow/deny questions.
// Fetch or parse failures fail open: a vendor that cannot serve robots.txt
// should not silently vanish from discovery results.
type robotsGate struct {
	fetcher *Fetcher
	mu      sync.RWMutex
	cache   map[string]*robotstxt.RobotsData
}

func newRobotsGate(fetcher *Fetcher) *robotsGate {
	return &robotsGate{
		fetcher: fetcher,
		cache:   make(map[string]*robotstxt.RobotsData),
	}
}

func (g *robotsGate) allowed(ctx context.Context, targetURL, agent string) (bool, error) {
	u, err := url.Parse(targetURL)
	if err != nil {
		return false, fmt.Errorf("invalid url: %w", err)
	}

	host := u.Scheme + "://" + u.Host
	data, err := g.getOrFetch(ctx, host)
	if err != nil || data == nil {
		return true, nil
	}

	return data.FindGroup(agent).Test(u.Path), nil
}

// sitemaps returns the sitemap URLs declared in the host's robots.txt.
func (g *robotsGate) sitemaps(ctx context.Context, host string) ([]string, error) {
	data, err := g.getOrFetch(ctx, host)
	if err != nil || data == nil {
		return nil, nil
	}
	return data.Sitemaps, nil
}

func (g *robotsGate) getOrFetch(ctx context.Context, host string) (*robotstxt.RobotsData, error) {
	g.mu.RLock()
	data, exists := g.cache[host]
	g.mu.RUnlock()
	if exists {
		return data, nil
	}

	g.mu.Lock()
	defer g.mu.Unlock()
	if data, exists = g.cache[host]; exists {
		return data, nil
	}

	result, err := g.fetcher.fetchDirect(ctx, host+"/robots.txt")
	if err != nil || result.Error != "" {
		g.cache[host] = nil
		return nil, fmt.Errorf("robots.txt fetch failed")
	}
	if result.StatusCode >= 400 {
		g.cache[host] = nil
		return nil, nil
	}

	parsed, err := robotstxt.FromBytes(result.Body)
	if err != nil {
		g.cache[host] = nil
		return nil, fmt.Errorf("robots.txt parse failed: %w", err)
	}

	g.cache[host] = parsed
	return parsed, nil
}
