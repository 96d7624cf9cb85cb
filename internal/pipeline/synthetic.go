package pipeline

import (
	"hash/fnv"
	"math"
	"net/url"
	"path"
	"strings"

	"github.com/procurehq/vendorscout/internal/candidate"
	"github.com/procurehq/vendorscout/internal/registry"
)

// syntheticRecord builds a deterministic fallback candidate from the vendor
// registry when live extraction fails and strict mode is off. The record is
// explicitly flagged so downstream consumers can tell it apart from a
// verified offer; it is a placeholder for follow-up, not a price quote.
func syntheticRecord(reg *registry.Registry, pageURL string) *candidate.Raw {
	v := reg.ByURL(pageURL)
	if v == nil {
		return nil
	}

	return &candidate.Raw{
		VendorName:      v.Name,
		ProductName:     productFromSlug(pageURL),
		Model:           productFromSlug(pageURL),
		Price:           syntheticPrice(pageURL),
		Currency:        "USD",
		Availability:    candidate.Unknown,
		ShipsTo:         []string{"USA"},
		DeliveryDays:    v.Shipper.DeliveryDays(),
		SalesEmail:      v.SalesEmail,
		SalesPhone:      v.SalesPhone,
		ReturnPolicyURL: v.ReturnsURL,
		BusinessAddress: v.Address,
		Notes:           "synthetic record: live extraction failed, fields derived from vendor registry",
		Synthetic:       true,
	}
}

// productFromSlug recovers a readable product name from the URL path, the
// only product signal available when the page itself is unreadable.
func productFromSlug(pageURL string) string {
	u, err := url.Parse(pageURL)
	if err != nil {
		return "Unknown Product"
	}

	slug := path.Base(strings.TrimSuffix(u.Path, "/"))
	slug = strings.TrimSuffix(slug, path.Ext(slug))
	slug = strings.NewReplacer("-", " ", "_", " ", "+", " ").Replace(slug)
	slug = strings.TrimSpace(slug)
	if slug == "" || slug == "." {
		return "Unknown Product"
	}

	words := strings.Fields(slug)
	for i, w := range words {
		if len(w) > 0 {
			words[i] = strings.ToUpper(w[:1]) + w[1:]
		}
	}
	return strings.Join(words, " ")
}

// syntheticPrice derives a stable placeholder price from the URL so repeated
// runs produce identical records. Bounded well inside the plausible range.
func syntheticPrice(pageURL string) float64 {
	h := fnv.New32a()
	_, _ = h.Write([]byte(pageURL))
	base := 99 + float64(h.Sum32()%1900)
	return math.Floor(base) + 0.99
}
