package pipeline

import (
	"testing"

	"github.com/procurehq/vendorscout/internal/candidate"
)

func TestJSONLDParserProductBlock(t *testing.T) {
	html := `<html><head><script type="application/ld+json">
	{"@type":"Product","name":"ThinkPad X1 Carbon","sku":"21KC","mpn":"21KC002HUS",
	 "brand":{"name":"Lenovo"},
	 "offers":{"price":1649.99,"priceCurrency":"USD","availability":"https://schema.org/InStock"}}
	</script></head><body></body></html>`

	raw := JSONLDParser{}.TryParse(docFrom(t, html), "https://example.com/p/1")
	if raw == nil {
		t.Fatal("expected a record")
	}
	if raw.ProductName != "ThinkPad X1 Carbon" {
		t.Errorf("ProductName = %q", raw.ProductName)
	}
	if raw.VendorName != "Lenovo" {
		t.Errorf("VendorName = %q", raw.VendorName)
	}
	if raw.Price != 1649.99 {
		t.Errorf("Price = %v", raw.Price)
	}
	if raw.Availability != candidate.InStock {
		t.Errorf("Availability = %q", raw.Availability)
	}
}

func TestJSONLDParserGraphContainer(t *testing.T) {
	html := `<html><head><script type="application/ld+json">
	{"@graph":[
	  {"@type":"Organization","name":"Shop"},
	  {"@type":"Product","name":"Widget Pro 2000","offers":{"price":"49.99","availability":"https://schema.org/OutOfStock"}}
	]}
	</script></head><body></body></html>`

	raw := JSONLDParser{}.TryParse(docFrom(t, html), "https://example.com/p/2")
	if raw == nil {
		t.Fatal("expected a record")
	}
	if raw.ProductName != "Widget Pro 2000" {
		t.Errorf("ProductName = %q", raw.ProductName)
	}
	if raw.Availability != candidate.OutOfStock {
		t.Errorf("Availability = %q", raw.Availability)
	}
	if raw.Currency != "USD" {
		t.Errorf("Currency = %q, want USD default", raw.Currency)
	}
}

func TestJSONLDParserOfferArray(t *testing.T) {
	html := `<html><head><script type="application/ld+json">
	{"@type":"Product","name":"Widget Pro 3000",
	 "offers":[{"price":"99.00","priceCurrency":"USD","availability":"https://schema.org/BackOrder"}]}
	</script></head><body></body></html>`

	raw := JSONLDParser{}.TryParse(docFrom(t, html), "https://example.com/p/3")
	if raw == nil {
		t.Fatal("expected a record")
	}
	if raw.Price != 99.00 {
		t.Errorf("Price = %v", raw.Price)
	}
	if raw.Availability != candidate.Backorder {
		t.Errorf("Availability = %q", raw.Availability)
	}
}

func TestJSONLDParserSkipsForeignCurrency(t *testing.T) {
	html := `<html><head><script type="application/ld+json">
	{"@type":"Product","name":"Widget Pro 4000",
	 "offers":{"price":"89.00","priceCurrency":"EUR","availability":"https://schema.org/InStock"}}
	</script></head><body></body></html>`

	if raw := (JSONLDParser{}).TryParse(docFrom(t, html), "https://example.com/p/6"); raw != nil {
		t.Errorf("expected nil for a non-USD offer, got %+v", raw)
	}

	// A later block priced in USD is still usable.
	html = `<html><head>
	<script type="application/ld+json">
	{"@type":"Product","name":"Widget Pro 4000 EU",
	 "offers":{"price":"89.00","priceCurrency":"EUR"}}
	</script>
	<script type="application/ld+json">
	{"@type":"Product","name":"Widget Pro 4000",
	 "offers":{"price":"99.00","priceCurrency":"USD","availability":"https://schema.org/InStock"}}
	</script>
	</head><body></body></html>`

	raw := JSONLDParser{}.TryParse(docFrom(t, html), "https://example.com/p/7")
	if raw == nil {
		t.Fatal("expected the USD block to match")
	}
	if raw.ProductName != "Widget Pro 4000" {
		t.Errorf("ProductName = %q, want the USD block's product", raw.ProductName)
	}
	if raw.Price != 99.00 {
		t.Errorf("Price = %v, want 99.00", raw.Price)
	}
	if raw.Currency != "USD" {
		t.Errorf("Currency = %q, want USD", raw.Currency)
	}
}

func TestJSONLDParserNoProduct(t *testing.T) {
	html := `<html><head><script type="application/ld+json">
	{"@type":"BreadcrumbList"}
	</script></head><body></body></html>`

	if raw := (JSONLDParser{}).TryParse(docFrom(t, html), "https://example.com/p/4"); raw != nil {
		t.Errorf("expected nil for non-product structured data, got %+v", raw)
	}

	if raw := (JSONLDParser{}).TryParse(docFrom(t, "<html><body></body></html>"), "https://example.com/p/5"); raw != nil {
		t.Errorf("expected nil without ld+json blocks, got %+v", raw)
	}
}
