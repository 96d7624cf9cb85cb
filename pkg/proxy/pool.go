package proxy

import (
	"errors"
	"net/url"
	"strings"
	"sync"
	"time"
)

// entry tracks the health of a single proxy endpoint.
type entry struct {
	url           *url.URL
	failures      int
	disabledUntil time.Time
}

// Pool rotates outbound requests across proxy endpoints, disabling an
// endpoint for a cooldown period once it accumulates too many failures.
type Pool struct {
	mu          sync.Mutex
	entries     []*entry
	idx         int
	maxFailures int
	cooldown    time.Duration
}

// Config defines pool behavior.
type Config struct {
	// MaxFailures before an endpoint is benched.
	MaxFailures int
	// Cooldown is how long a benched endpoint stays out of rotation.
	Cooldown time.Duration
}

// NewPool creates an empty pool with the given settings, applying defaults
// for zero values.
func NewPool(cfg Config) *Pool {
	if cfg.MaxFailures <= 0 {
		cfg.MaxFailures = 3
	}
	if cfg.Cooldown <= 0 {
		cfg.Cooldown = 5 * time.Minute
	}
	return &Pool{maxFailures: cfg.MaxFailures, cooldown: cfg.Cooldown}
}

// Add parses raw proxy URLs into the pool. A missing scheme defaults to http.
func (p *Pool) Add(rawURLs ...string) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	for _, raw := range rawURLs {
		raw = strings.TrimSpace(raw)
		if raw == "" {
			continue
		}
		if !strings.Contains(raw, "://") {
			raw = "http://" + raw
		}
		u, err := url.Parse(raw)
		if err != nil {
			return err
		}
		p.entries = append(p.entries, &entry{url: u})
	}
	return nil
}

// Next returns the next healthy proxy URL, or nil when the pool is empty or
// every endpoint is cooling down.
func (p *Pool) Next() *url.URL {
	p.mu.Lock()
	defer p.mu.Unlock()

	if len(p.entries) == 0 {
		return nil
	}

	now := time.Now()
	for range p.entries {
		e := p.entries[p.idx]
		p.idx = (p.idx + 1) % len(p.entries)

		if !e.disabledUntil.IsZero() && now.After(e.disabledUntil) {
			e.disabledUntil = time.Time{}
			e.failures = 0
		}
		if e.disabledUntil.IsZero() {
			return e.url
		}
	}
	return nil
}

// MarkSuccess records a successful request through proxyURL.
func (p *Pool) MarkSuccess(proxyURL *url.URL) error {
	return p.mark(proxyURL, func(e *entry) {
		if e.failures > 0 {
			e.failures--
		}
	})
}

// MarkFailure records a failed request through proxyURL, benching it once
// failures reach the configured maximum.
func (p *Pool) MarkFailure(proxyURL *url.URL) error {
	return p.mark(proxyURL, func(e *entry) {
		e.failures++
		if e.failures >= p.maxFailures {
			e.disabledUntil = time.Now().Add(p.cooldown)
		}
	})
}

func (p *Pool) mark(proxyURL *url.URL, fn func(*entry)) error {
	if proxyURL == nil {
		return errors.New("nil proxy url")
	}
	p.mu.Lock()
	defer p.mu.Unlock()

	target := proxyURL.String()
	for _, e := range p.entries {
		if e.url.String() == target {
			fn(e)
			return nil
		}
	}
	return errors.New("proxy not in pool")
}

// Len returns the number of endpoints in the pool, healthy or not.
func (p *Pool) Len() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.entries)
}
