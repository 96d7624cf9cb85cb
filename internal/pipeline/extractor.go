package pipeline

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/procurehq/vendorscout/internal/candidate"
	"github.com/procurehq/vendorscout/internal/fetch"
	"github.com/procurehq/vendorscout/internal/metrics"
	"github.com/procurehq/vendorscout/internal/registry"
)

// PageFetcher retrieves one page. Satisfied by *fetch.Fetcher; tests supply
// a stub.
type PageFetcher interface {
	Fetch(ctx context.Context, targetURL string) (*fetch.Result, error)
}

// Parser attempts platform-specific extraction from a known storefront
// layout. Returning nil means the layout did not match and the generic
// parse runs instead.
type Parser interface {
	Name() string
	TryParse(doc *goquery.Document, pageURL string) *candidate.Raw
}

// Extractor turns one candidate URL into a raw candidate record. Total
// failure returns nil, which the orchestrator treats as "candidate
// skipped"; with Strict disabled a deterministic synthetic record derived
// from the vendor registry is emitted instead, flagged as synthetic.
type Extractor struct {
	fetcher  PageFetcher
	registry *registry.Registry
	parsers  []Parser
	logger   *slog.Logger

	// Strict drops candidates whose page could not be fetched or parsed.
	// When false, a flagged synthetic fallback record surfaces instead.
	Strict bool
}

// NewExtractor creates an Extractor. parsers are tried in order before the
// generic pattern extraction.
func NewExtractor(fetcher PageFetcher, reg *registry.Registry, parsers []Parser, logger *slog.Logger) *Extractor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Extractor{
		fetcher:  fetcher,
		registry: reg,
		parsers:  parsers,
		logger:   logger,
		Strict:   true,
	}
}

// Run extracts a raw candidate from pageURL, or returns nil when the
// candidate should be skipped.
func (e *Extractor) Run(ctx context.Context, pageURL string) *candidate.Raw {
	domain := hostOf(pageURL)

	result, err := e.fetcher.Fetch(ctx, pageURL)
	if err != nil || !result.OK() {
		reason := "fetch_error"
		if err == nil && result.Blocked {
			reason = "blocked"
			e.logger.Debug("fetch blocked by bot protection", "url", pageURL, "src", result.BlockedBy)
		}
		metrics.ExtractionsTotal.WithLabelValues(domain, reason).Inc()
		return e.fallback(pageURL)
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(result.Body))
	if err != nil {
		metrics.ExtractionsTotal.WithLabelValues(domain, "unparseable").Inc()
		return e.fallback(pageURL)
	}

	raw := e.parse(doc, string(result.Body), pageURL)
	if raw == nil {
		metrics.ExtractionsTotal.WithLabelValues(domain, "unparseable").Inc()
		return e.fallback(pageURL)
	}

	// Structured-data blocks frequently omit brand and mpn, and titles do
	// not always carry a model token. The registry and the product name
	// stand in so a sparse page still reaches the validator complete.
	if raw.VendorName == "" {
		if v := e.registry.ByURL(pageURL); v != nil {
			raw.VendorName = v.Name
		}
	}
	if raw.Model == "" {
		raw.Model = raw.ProductName
	}

	raw.PurchaseURL = pageURL
	raw.EvidenceURLs = append([]string{pageURL}, raw.EvidenceURLs...)
	metrics.ExtractionsTotal.WithLabelValues(domain, "ok").Inc()
	return raw
}

// parse tries platform-specific parsers first, then the generic pattern
// extraction.
func (e *Extractor) parse(doc *goquery.Document, html, pageURL string) *candidate.Raw {
	for _, p := range e.parsers {
		if raw := p.TryParse(doc, pageURL); raw != nil {
			e.logger.Debug("platform parser matched", "parser", p.Name(), "url", pageURL)
			return raw
		}
	}
	return e.genericParse(doc, html, pageURL)
}

// genericParse extracts title, price, availability, identifiers and contact
// data with layout-independent heuristics. A page without a usable title is
// not a product page and yields nil.
func (e *Extractor) genericParse(doc *goquery.Document, html, pageURL string) *candidate.Raw {
	title := parseTitle(doc)
	if title == "" {
		return nil
	}

	return &candidate.Raw{
		ProductName:     title,
		Model:           parseModel(title),
		SKU:             parseSKU(html),
		Price:           parsePrice(html, doc),
		Currency:        "USD",
		Availability:    parseAvailability(html),
		ShipsTo:         []string{"USA"},
		DeliveryDays:    parseDeliveryDays(html),
		SalesEmail:      parseSalesEmail(html),
		SalesPhone:      parsePhone(html),
		ReturnPolicyURL: parseReturnPolicyURL(doc),
		BusinessAddress: parseAddress(html),
		Notes:           fmt.Sprintf("extracted %s", time.Now().UTC().Format("2006-01-02")),
	}
}

func (e *Extractor) fallback(pageURL string) *candidate.Raw {
	if e.Strict {
		return nil
	}
	return syntheticRecord(e.registry, pageURL)
}

func hostOf(rawURL string) string {
	if u, err := url.Parse(rawURL); err == nil {
		return u.Hostname()
	}
	return ""
}
