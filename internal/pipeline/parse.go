package pipeline

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/procurehq/vendorscout/internal/candidate"
)

// Plausible price bounds in USD. Anything outside is page noise: order
// counts, ZIP codes, review totals.
const (
	minPlausiblePrice = 1
	maxPlausiblePrice = 100000
)

var (
	priceTokenRe = regexp.MustCompile(`\$(\d{1,3}(?:,\d{3})*(?:\.\d{2})?)`)
	priceJSONRe  = regexp.MustCompile(`"(?:price|amount|cost)"\s*:\s*"?(\d+(?:\.\d+)?)`)
	emailRe      = regexp.MustCompile(`[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}`)
	phoneRe      = regexp.MustCompile(`\(?\d{3}\)?[-.\s]\d{3}[-.\s]?\d{4}`)
	addressRe    = regexp.MustCompile(`\d+\s+[A-Za-z0-9 .]+(?:Ave|St|Rd|Blvd|Way|Dr|Ln|Ct|Pl)\b[^,<]*,\s*[A-Za-z .]+,\s*[A-Z]{2}\s+\d{5}`)
	skuRe        = regexp.MustCompile(`(?i)(?:SKU|Part\s+Number|Item\s+Number|MPN)[:\s#]+([A-Z0-9][A-Z0-9-]{2,})`)
	modelRe      = regexp.MustCompile(`(?i)\b(?:RTX|GTX|Model)\s+([A-Z0-9-]+)`)
	titleCleanRe = regexp.MustCompile(`\s+`)
)

// parseTitle extracts the product name, preferring the og:title meta tag
// over the document title and first heading.
func parseTitle(doc *goquery.Document) string {
	candidates := []string{
		doc.Find(`meta[property="og:title"]`).AttrOr("content", ""),
		doc.Find("title").First().Text(),
		doc.Find("h1").First().Text(),
	}
	for _, c := range candidates {
		t := titleCleanRe.ReplaceAllString(strings.TrimSpace(c), " ")
		if len(t) >= 10 && len(t) < 200 {
			return t
		}
	}
	return ""
}

// parsePrice scans the raw HTML for currency-prefixed numeric tokens and
// structured price fields, keeps plausible values, and returns the most
// frequently occurring one. The mode defends against picking a "related
// products" price over the primary offer; ties go to the first occurrence.
func parsePrice(html string, doc *goquery.Document) float64 {
	var found []float64

	if meta := doc.Find(`meta[property="product:price:amount"]`).AttrOr("content", ""); meta != "" {
		if p, err := strconv.ParseFloat(meta, 64); err == nil && plausiblePrice(p) {
			found = append(found, p)
		}
	}

	for _, m := range priceTokenRe.FindAllStringSubmatch(html, -1) {
		if p, err := strconv.ParseFloat(strings.ReplaceAll(m[1], ",", ""), 64); err == nil && plausiblePrice(p) {
			found = append(found, p)
		}
	}
	for _, m := range priceJSONRe.FindAllStringSubmatch(html, -1) {
		if p, err := strconv.ParseFloat(m[1], 64); err == nil && plausiblePrice(p) {
			found = append(found, p)
		}
	}

	if len(found) == 0 {
		return 0
	}

	counts := make(map[float64]int, len(found))
	firstSeen := make(map[float64]int, len(found))
	for i, p := range found {
		counts[p]++
		if _, ok := firstSeen[p]; !ok {
			firstSeen[p] = i
		}
	}

	best := found[0]
	for _, p := range found {
		if counts[p] > counts[best] || (counts[p] == counts[best] && firstSeen[p] < firstSeen[best]) {
			best = p
		}
	}
	return best
}

func plausiblePrice(p float64) bool {
	return p >= minPlausiblePrice && p <= maxPlausiblePrice
}

// parseAvailability classifies stock status from page keywords, defaulting
// to unknown when no indicator is present. Out-of-stock wording is checked
// before in-stock wording because storefronts print "add to cart" even on
// sold-out pages.
func parseAvailability(html string) candidate.Availability {
	lower := strings.ToLower(html)

	switch {
	case containsAny(lower, "out of stock", "sold out", "currently unavailable"):
		return candidate.OutOfStock
	case containsAny(lower, "pre-order", "preorder"):
		return candidate.Preorder
	case containsAny(lower, "backorder", "back-order", "back order"):
		return candidate.Backorder
	case containsAny(lower, "in stock", "add to cart", "buy now", "available now"):
		return candidate.InStock
	}
	return candidate.Unknown
}

func containsAny(s string, subs ...string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}

// parseModel pulls a model identifier from the title. Empty means no
// identifier was found; the extractor substitutes the product name.
func parseModel(title string) string {
	if m := modelRe.FindStringSubmatch(title); m != nil {
		return strings.TrimSpace(m[1])
	}
	return ""
}

func parseSKU(html string) string {
	if m := skuRe.FindStringSubmatch(html); m != nil {
		return m[1]
	}
	return ""
}

// parseSalesEmail prefers addresses that look like a sales or support
// contact; any address beats none.
func parseSalesEmail(html string) string {
	emails := emailRe.FindAllString(html, -1)
	for _, e := range emails {
		lower := strings.ToLower(e)
		if containsAny(lower, "sales", "contact", "info", "support") {
			return e
		}
	}
	if len(emails) > 0 {
		return emails[0]
	}
	return ""
}

func parsePhone(html string) string {
	return phoneRe.FindString(html)
}

func parseAddress(html string) string {
	return strings.TrimSpace(addressRe.FindString(html))
}

// parseReturnPolicyURL looks for a link whose target or text mentions
// returns.
func parseReturnPolicyURL(doc *goquery.Document) string {
	var found string
	doc.Find("a[href]").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		href, _ := s.Attr("href")
		if strings.Contains(strings.ToLower(href), "return") ||
			strings.Contains(strings.ToLower(s.Text()), "return policy") {
			found = href
			return false
		}
		return true
	})
	return found
}

// deliveryBuckets maps shipping wording to an estimate in days. An explicit,
// auditable table rather than NLP.
var deliveryBuckets = []struct {
	keywords []string
	days     int
}{
	{[]string{"same day", "overnight"}, 1},
	{[]string{"1-2 days", "next day"}, 2},
	{[]string{"2-3 days"}, 3},
	{[]string{"3-5 days"}, 5},
	{[]string{"5-7 days"}, 7},
	{[]string{"1-2 weeks"}, 10},
}

const defaultDeliveryDays = 7

// parseDeliveryDays buckets shipping keywords into a day estimate,
// defaulting to 7.
func parseDeliveryDays(html string) int {
	lower := strings.ToLower(html)
	for _, b := range deliveryBuckets {
		if containsAny(lower, b.keywords...) {
			return b.days
		}
	}
	return defaultDeliveryDays
}
