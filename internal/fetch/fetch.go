package fetch

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/google/uuid"

	"github.com/procurehq/vendorscout/internal/fingerprint"
	"github.com/procurehq/vendorscout/pkg/httpclient"
	"github.com/procurehq/vendorscout/pkg/proxy"
	"github.com/procurehq/vendorscout/pkg/ratelimit"
	"github.com/procurehq/vendorscout/pkg/useragent"
)

type contextKey string

const proxyKey contextKey = "proxy_url"

// Result captures one page retrieval. A failed fetch is a Result with a
// non-empty Error, not a Go error: one bad vendor page must never abort a
// discovery run.
type Result struct {
	ID         string
	URL        string
	StatusCode int
	Headers    map[string][]string
	Body       []byte
	Duration   time.Duration
	Blocked    bool
	BlockedBy  string // e.g. "Cloudflare", "Akamai"
	FetchedAt  time.Time
	Error      string
}

// OK reports whether the fetch produced a usable 2xx page.
func (r *Result) OK() bool {
	return r.Error == "" && !r.Blocked && r.StatusCode >= 200 && r.StatusCode < 300
}

// Config configures a Fetcher.
type Config struct {
	Timeout       time.Duration
	MaxRedirects  int
	UseCookieJar  bool
	Fingerprint   fingerprint.Profile
	UAPool        *useragent.Pool
	ProxyPool     *proxy.Pool
	Limiter       *ratelimit.Limiter
	RespectRobots bool
	RobotsAgent   string
}

// Fetcher retrieves vendor pages with a browser-like request signature.
// One Fetcher handles arbitrarily many URLs and is safe for concurrent use.
type Fetcher struct {
	cfg    Config
	client *httpclient.Client
	robots *robotsGate
}

// New initializes a Fetcher. A zero timeout defaults to 10 seconds.
func New(cfg Config) (*Fetcher, error) {
	if cfg.Timeout == 0 {
		cfg.Timeout = 10 * time.Second
	}
	if cfg.UAPool == nil {
		cfg.UAPool = useragent.NewPool(nil)
	}
	if string(cfg.Fingerprint) == "" {
		cfg.Fingerprint = fingerprint.ProfileChrome
	}
	if cfg.RobotsAgent == "" {
		cfg.RobotsAgent = "*"
	}

	// The proxy URL travels in the request context so one shared transport
	// can rotate proxies per request.
	proxyFunc := func(req *http.Request) (*url.URL, error) {
		if val := req.Context().Value(proxyKey); val != nil {
			if u, ok := val.(*url.URL); ok {
				return u, nil
			}
		}
		if req.URL.Hostname() == "127.0.0.1" || req.URL.Hostname() == "localhost" {
			return nil, nil
		}
		return http.ProxyFromEnvironment(req)
	}

	transport, err := fingerprint.Transport(cfg.Fingerprint, proxyFunc)
	if err != nil {
		return nil, fmt.Errorf("failed to setup transport: %w", err)
	}

	client, err := httpclient.New(httpclient.Config{
		Timeout:      cfg.Timeout,
		MaxRedirects: cfg.MaxRedirects,
		UseCookieJar: cfg.UseCookieJar,
		Transport:    transport,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create client: %w", err)
	}

	f := &Fetcher{cfg: cfg, client: client}
	f.robots = newRobotsGate(f)
	return f, nil
}

// Fetch retrieves targetURL. The returned error is non-nil only for
// programmer mistakes (nil context); transport and HTTP failures are
// reported through Result.Error.
func (f *Fetcher) Fetch(ctx context.Context, targetURL string) (*Result, error) {
	if f.cfg.Limiter != nil {
		if err := f.cfg.Limiter.Wait(ctx); err != nil {
			return &Result{
				ID:        uuid.New().String(),
				URL:       targetURL,
				FetchedAt: time.Now().UTC(),
				Error:     fmt.Sprintf("rate limiter: %v", err),
			}, nil
		}
	}

	if f.cfg.RespectRobots {
		allowed, err := f.robots.allowed(ctx, targetURL, f.cfg.RobotsAgent)
		if err == nil && !allowed {
			return &Result{
				ID:        uuid.New().String(),
				URL:       targetURL,
				FetchedAt: time.Now().UTC(),
				Error:     "disallowed by robots.txt",
			}, nil
		}
	}

	return f.fetchDirect(ctx, targetURL)
}

// Sitemaps returns the sitemap URLs declared by the host's robots.txt.
// host carries a scheme, e.g. "https://cdw.com".
func (f *Fetcher) Sitemaps(ctx context.Context, host string) ([]string, error) {
	return f.robots.sitemaps(ctx, host)
}

// fetchDirect retrieves a URL without consulting the robots gate; the gate
// itself uses this path for robots.txt.
func (f *Fetcher) fetchDirect(ctx context.Context, targetURL string) (*Result, error) {
	start := time.Now()
	result := &Result{
		ID:        uuid.New().String(),
		URL:       targetURL,
		FetchedAt: start.UTC(),
	}

	var activeProxy *url.URL
	if f.cfg.ProxyPool != nil {
		activeProxy = f.cfg.ProxyPool.Next()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, targetURL, nil)
	if err != nil {
		result.Error = fmt.Sprintf("failed to create request: %v", err)
		result.Duration = time.Since(start)
		return result, nil
	}

	if activeProxy != nil {
		req = req.WithContext(context.WithValue(req.Context(), proxyKey, activeProxy))
	}

	req.Header.Set("User-Agent", f.cfg.UAPool.Next())
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,image/avif,image/webp,*/*;q=0.8")
	req.Header.Set("Accept-Language", "en-US,en;q=0.5")

	resp, err := f.client.Do(req.Context(), req)
	if err != nil {
		if activeProxy != nil {
			_ = f.cfg.ProxyPool.MarkFailure(activeProxy)
		}
		result.Error = fmt.Sprintf("request failed: %v", err)
		result.Duration = time.Since(start)
		return result, nil
	}
	defer resp.Body.Close()

	if activeProxy != nil {
		_ = f.cfg.ProxyPool.MarkSuccess(activeProxy)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		result.Error = fmt.Sprintf("failed to read body: %v", err)
	}

	result.StatusCode = resp.StatusCode
	result.Headers = resp.Header
	result.Body = body
	result.Duration = time.Since(start)

	detectBlock(result)

	return result, nil
}
