package pipeline

import (
	"context"
	"log/slog"
	"net/url"

	"github.com/procurehq/vendorscout/internal/registry"
	"github.com/procurehq/vendorscout/internal/search"
)

// Retriever produces the bounded candidate URL set that seeds extraction.
// It filters the search provider's results down to allow-listed vendor
// domains so extraction effort is never spent on pages that cannot become
// purchase-ready offers.
type Retriever struct {
	provider search.Provider
	registry *registry.Registry
	logger   *slog.Logger
}

// NewRetriever creates a Retriever over the given provider and registry.
func NewRetriever(provider search.Provider, reg *registry.Registry, logger *slog.Logger) *Retriever {
	if logger == nil {
		logger = slog.Default()
	}
	return &Retriever{provider: provider, registry: reg, logger: logger}
}

// Run returns up to limit deduplicated, allow-listed candidate URLs for the
// query. An unavailable search provider yields an empty slice; the caller
// treats that as zero candidates found, not an error.
func (r *Retriever) Run(ctx context.Context, query string, specs []string, limit int) []string {
	if query == "" || limit <= 0 {
		return nil
	}

	raw, err := r.provider.Search(ctx, query, specs, limit*2)
	if err != nil {
		r.logger.Warn("search provider unavailable", "query", query, "err", err)
		return nil
	}

	seen := make(map[string]struct{}, len(raw))
	var out []string
	for _, u := range raw {
		if len(out) >= limit {
			break
		}
		norm, ok := normalizeURL(u)
		if !ok {
			continue
		}
		if _, dup := seen[norm]; dup {
			continue
		}
		seen[norm] = struct{}{}
		if !r.registry.Allows(norm) {
			continue
		}
		out = append(out, norm)
	}

	r.logger.Debug("retrieved candidate urls", "query", query, "returned", len(out), "raw", len(raw))
	return out
}

// normalizeURL strips fragments and rejects non-https URLs; vendor purchase
// pages are always https.
func normalizeURL(raw string) (string, bool) {
	u, err := url.Parse(raw)
	if err != nil {
		return "", false
	}
	if u.Scheme != "https" {
		return "", false
	}
	u.Fragment = ""
	return u.String(), true
}
