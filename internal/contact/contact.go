// Package contact locates a sales contact for a vendor page: a direct email
// when one is published, otherwise a contact form URL.
package contact

import (
	"bytes"
	"context"
	"log/slog"
	"net/url"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/procurehq/vendorscout/internal/fetch"
	"github.com/procurehq/vendorscout/pkg/ratelimit"
)

// Lookup resolves a sales email or contact form for a purchase URL. Both
// return values may be empty when nothing was found; err is reserved for
// cancellation.
type Lookup interface {
	FindSalesContact(ctx context.Context, pageURL string) (email, formURL string, err error)
}

// LookupFunc adapts a function to Lookup.
type LookupFunc func(ctx context.Context, pageURL string) (string, string, error)

func (f LookupFunc) FindSalesContact(ctx context.Context, pageURL string) (string, string, error) {
	return f(ctx, pageURL)
}

var (
	emailRe = regexp.MustCompile(`[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}`)
)

// PageFetcher is the single-page retrieval dependency; satisfied by
// *fetch.Fetcher.
type PageFetcher interface {
	Fetch(ctx context.Context, targetURL string) (*fetch.Result, error)
}

// Scanner implements Lookup by fetching the vendor's contact page and
// scanning it for a sales address or form. Lookups are rate-limited
// separately from extraction so default-filling cannot stampede a vendor.
type Scanner struct {
	fetcher PageFetcher
	limiter *ratelimit.Limiter
	logger  *slog.Logger
}

// NewScanner creates a Scanner. limiter may be nil for unlimited lookups.
func NewScanner(fetcher PageFetcher, limiter *ratelimit.Limiter, logger *slog.Logger) *Scanner {
	if logger == nil {
		logger = slog.Default()
	}
	return &Scanner{fetcher: fetcher, limiter: limiter, logger: logger}
}

// FindSalesContact fetches the site's /contact page (falling back to the
// page itself) and scans for a sales email or a contact form.
func (s *Scanner) FindSalesContact(ctx context.Context, pageURL string) (string, string, error) {
	if s.limiter != nil {
		if err := s.limiter.Wait(ctx); err != nil {
			return "", "", err
		}
	}

	u, err := url.Parse(pageURL)
	if err != nil {
		return "", "", nil
	}
	base := u.Scheme + "://" + u.Host

	for _, target := range []string{base + "/contact", base + "/contact-us", pageURL} {
		if ctx.Err() != nil {
			return "", "", ctx.Err()
		}
		email, form := s.scanPage(ctx, target)
		if email != "" || form != "" {
			return email, form, nil
		}
	}
	return "", "", nil
}

func (s *Scanner) scanPage(ctx context.Context, target string) (email, formURL string) {
	result, err := s.fetcher.Fetch(ctx, target)
	if err != nil || !result.OK() {
		return "", ""
	}

	html := string(result.Body)
	for _, e := range emailRe.FindAllString(html, -1) {
		lower := strings.ToLower(e)
		if strings.Contains(lower, "sales") || strings.Contains(lower, "contact") {
			return e, ""
		}
		if email == "" {
			email = e
		}
	}
	if email != "" {
		return email, ""
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(result.Body))
	if err != nil {
		return "", ""
	}
	if doc.Find("form").Length() > 0 {
		return "", target
	}
	return "", ""
}
