package pipeline

import (
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"

	"github.com/procurehq/vendorscout/internal/candidate"
)

func docFrom(t *testing.T, html string) *goquery.Document {
	t.Helper()
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		t.Fatalf("failed to parse html: %v", err)
	}
	return doc
}

func TestParseTitlePrefersOGTitle(t *testing.T) {
	html := `<html><head>
		<meta property="og:title" content="Lenovo ThinkPad X1 Carbon Gen 12">
		<title>Buy laptops | MegaStore</title>
	</head><body><h1>Deal of the day</h1></body></html>`

	got := parseTitle(docFrom(t, html))
	if got != "Lenovo ThinkPad X1 Carbon Gen 12" {
		t.Errorf("parseTitle = %q", got)
	}
}

func TestParseTitleFallsBackToTitleTag(t *testing.T) {
	html := `<html><head><title>ThinkPad X1 Carbon Gen 12 Laptop</title></head><body></body></html>`

	got := parseTitle(docFrom(t, html))
	if got != "ThinkPad X1 Carbon Gen 12 Laptop" {
		t.Errorf("parseTitle = %q", got)
	}
}

func TestParseTitleRejectsTooShort(t *testing.T) {
	html := `<html><head><title>Home</title></head><body></body></html>`

	if got := parseTitle(docFrom(t, html)); got != "" {
		t.Errorf("expected empty title for short text, got %q", got)
	}
}

func TestParsePriceMostFrequentWins(t *testing.T) {
	// The primary offer price repeats across the page; a related-products
	// price appears once.
	html := `<html><body>
		<span>$1,299.99</span>
		<div>Related: $49.99</div>
		<span>$1,299.99</span>
	</body></html>`

	got := parsePrice(html, docFrom(t, html))
	if got != 1299.99 {
		t.Errorf("parsePrice = %v, want 1299.99", got)
	}
}

func TestParsePriceTieGoesToFirstOccurrence(t *testing.T) {
	html := `<html><body><span>$500.00</span><span>$200.00</span></body></html>`

	got := parsePrice(html, docFrom(t, html))
	if got != 500.00 {
		t.Errorf("parsePrice = %v, want 500 (first occurrence)", got)
	}
}

func TestParsePriceIgnoresImplausible(t *testing.T) {
	// $0.50 is below the floor, $250,000 above the ceiling.
	html := `<html><body><span>$0.50</span><span>$250,000.00</span><span>$899.00</span></body></html>`

	got := parsePrice(html, docFrom(t, html))
	if got != 899.00 {
		t.Errorf("parsePrice = %v, want 899", got)
	}
}

func TestParsePriceFromJSONField(t *testing.T) {
	html := `<html><body><script>var offer = {"price": "1549.00"};</script></body></html>`

	got := parsePrice(html, docFrom(t, html))
	if got != 1549.00 {
		t.Errorf("parsePrice = %v, want 1549", got)
	}
}

func TestParsePriceNothingFound(t *testing.T) {
	html := `<html><body>Contact us for a quote</body></html>`

	if got := parsePrice(html, docFrom(t, html)); got != 0 {
		t.Errorf("parsePrice = %v, want 0", got)
	}
}

func TestParseAvailability(t *testing.T) {
	tests := []struct {
		html string
		want candidate.Availability
	}{
		{"<p>In Stock - ships today</p>", candidate.InStock},
		{"<button>Add to Cart</button>", candidate.InStock},
		{"<p>Sorry, this item is out of stock</p>", candidate.OutOfStock},
		// Sold-out pages still render the cart button; out-of-stock wording wins.
		{"<p>Sold out</p><button>Add to cart</button>", candidate.OutOfStock},
		{"<p>Available for pre-order</p>", candidate.Preorder},
		{"<p>On backorder, ships in 3 weeks</p>", candidate.Backorder},
		{"<p>A plain page</p>", candidate.Unknown},
	}
	for _, tt := range tests {
		if got := parseAvailability(tt.html); got != tt.want {
			t.Errorf("parseAvailability(%q) = %q, want %q", tt.html, got, tt.want)
		}
	}
}

func TestParseSalesEmailPrefersSalesAddress(t *testing.T) {
	html := `<p>webmaster@example.com</p><p>sales@example.com</p>`

	if got := parseSalesEmail(html); got != "sales@example.com" {
		t.Errorf("parseSalesEmail = %q", got)
	}

	html = `<p>someone@example.com</p>`
	if got := parseSalesEmail(html); got != "someone@example.com" {
		t.Errorf("parseSalesEmail fallback = %q", got)
	}

	if got := parseSalesEmail("<p>no addresses here</p>"); got != "" {
		t.Errorf("parseSalesEmail on empty = %q", got)
	}
}

func TestParseSKU(t *testing.T) {
	html := `<p>SKU: AB12345-X</p>`
	if got := parseSKU(html); got != "AB12345-X" {
		t.Errorf("parseSKU = %q", got)
	}

	html = `<p>Part Number: 20XW004LUS</p>`
	if got := parseSKU(html); got != "20XW004LUS" {
		t.Errorf("parseSKU part number = %q", got)
	}
}

func TestParseAddress(t *testing.T) {
	html := `<footer>Visit us at 200 N Milwaukee Ave, Vernon Hills, IL 60061</footer>`
	got := parseAddress(html)
	if !strings.Contains(got, "Milwaukee Ave") || !strings.Contains(got, "60061") {
		t.Errorf("parseAddress = %q", got)
	}
}

func TestParseDeliveryDays(t *testing.T) {
	tests := []struct {
		html string
		want int
	}{
		{"free overnight shipping", 1},
		{"ships next day", 2},
		{"delivery in 2-3 days", 3},
		{"arrives in 3-5 days", 5},
		{"allow 1-2 weeks for delivery", 10},
		{"no shipping info", 7},
	}
	for _, tt := range tests {
		if got := parseDeliveryDays(tt.html); got != tt.want {
			t.Errorf("parseDeliveryDays(%q) = %d, want %d", tt.html, got, tt.want)
		}
	}
}

func TestParseReturnPolicyURL(t *testing.T) {
	html := `<html><body>
		<a href="/about">About</a>
		<a href="/returns-policy">Returns</a>
	</body></html>`

	if got := parseReturnPolicyURL(docFrom(t, html)); got != "/returns-policy" {
		t.Errorf("parseReturnPolicyURL = %q", got)
	}
}

func TestParseModel(t *testing.T) {
	tests := []struct {
		title string
		want  string
	}{
		{"ThinkPad Model X123 Laptop", "X123"},
		{"GeForce RTX 4090 Founders Edition", "4090"},
		{"Plain product title without identifiers", ""},
	}
	for _, tt := range tests {
		if got := parseModel(tt.title); got != tt.want {
			t.Errorf("parseModel(%q) = %q, want %q", tt.title, got, tt.want)
		}
	}
}
