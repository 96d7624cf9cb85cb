// Package search abstracts the external listing capability that seeds the
// discovery pipeline with candidate product URLs.
package search

import "context"

// Provider returns candidate URLs for a product query. Implementations may
// use a search API, vendor sitemaps, or site-specific listings. limit caps
// the number of results. An unavailable provider returns an empty slice, not
// an error the pipeline would surface: zero candidates is a valid outcome.
type Provider interface {
	Search(ctx context.Context, query string, specs []string, limit int) ([]string, error)
}

// ProviderFunc adapts a function to the Provider interface.
type ProviderFunc func(ctx context.Context, query string, specs []string, limit int) ([]string, error)

func (f ProviderFunc) Search(ctx context.Context, query string, specs []string, limit int) ([]string, error) {
	return f(ctx, query, specs, limit)
}
