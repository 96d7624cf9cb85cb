package pipeline

import (
	"encoding/json"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/procurehq/vendorscout/internal/candidate"
)

// ldProduct mirrors the subset of a schema.org Product block that vendor
// product pages actually populate.
type ldProduct struct {
	Type   string   `json:"@type"`
	Name   string   `json:"name"`
	SKU    string   `json:"sku"`
	MPN    string   `json:"mpn"`
	Brand  ldBrand  `json:"brand"`
	Offers ldOffers `json:"offers"`
}

type ldBrand struct {
	Name string `json:"name"`
}

// ldNumber accepts a price given either as a JSON number or a quoted string,
// both of which appear in the wild.
type ldNumber string

func (n *ldNumber) UnmarshalJSON(data []byte) error {
	*n = ldNumber(strings.Trim(string(data), `"`))
	return nil
}

type ldOffer struct {
	Price         ldNumber `json:"price"`
	PriceCurrency string   `json:"priceCurrency"`
	Availability  string   `json:"availability"`
}

// ldOffers tolerates both a single offer object and an offer array.
type ldOffers struct {
	Price        string
	Currency     string
	Availability string
}

func (o *ldOffers) UnmarshalJSON(data []byte) error {
	var one ldOffer
	if err := json.Unmarshal(data, &one); err == nil {
		o.Price = string(one.Price)
		o.Currency = one.PriceCurrency
		o.Availability = one.Availability
		return nil
	}

	var many []ldOffer
	if err := json.Unmarshal(data, &many); err != nil {
		return err
	}
	if len(many) > 0 {
		o.Price = string(many[0].Price)
		o.Currency = many[0].PriceCurrency
		o.Availability = many[0].Availability
	}
	return nil
}

// JSONLDParser extracts product data from schema.org Product blocks embedded
// as application/ld+json. Structured data beats pattern heuristics whenever a
// page carries it, so this parser runs before the generic extraction.
type JSONLDParser struct{}

func (JSONLDParser) Name() string { return "jsonld" }

func (JSONLDParser) TryParse(doc *goquery.Document, pageURL string) *candidate.Raw {
	var raw *candidate.Raw

	doc.Find(`script[type="application/ld+json"]`).EachWithBreak(func(_ int, sel *goquery.Selection) bool {
		prod, ok := decodeProduct(sel.Text())
		if !ok {
			return true
		}

		// Candidates are priced in USD only. A block declaring another
		// currency cannot feed price ranking, so scanning continues in
		// case a USD offer block follows.
		if prod.Offers.Currency != "" && !strings.EqualFold(prod.Offers.Currency, "USD") {
			return true
		}

		price, _ := strconv.ParseFloat(prod.Offers.Price, 64)
		if price < minPlausiblePrice || price > maxPlausiblePrice {
			price = 0
		}

		raw = &candidate.Raw{
			VendorName:   prod.Brand.Name,
			ProductName:  prod.Name,
			Model:        prod.MPN,
			SKU:          prod.SKU,
			Price:        price,
			Currency:     "USD",
			Availability: ldAvailability(prod.Offers.Availability),
			ShipsTo:      []string{"USA"},
		}
		return false
	})

	if raw == nil || raw.ProductName == "" {
		return nil
	}
	return raw
}

// decodeProduct parses one ld+json block, unwrapping @graph containers.
func decodeProduct(text string) (ldProduct, bool) {
	text = strings.TrimSpace(text)

	var prod ldProduct
	if err := json.Unmarshal([]byte(text), &prod); err == nil && strings.EqualFold(prod.Type, "Product") {
		return prod, true
	}

	var graph struct {
		Graph []json.RawMessage `json:"@graph"`
	}
	if err := json.Unmarshal([]byte(text), &graph); err == nil {
		for _, node := range graph.Graph {
			var p ldProduct
			if err := json.Unmarshal(node, &p); err == nil && strings.EqualFold(p.Type, "Product") {
				return p, true
			}
		}
	}

	var list []json.RawMessage
	if err := json.Unmarshal([]byte(text), &list); err == nil {
		for _, node := range list {
			var p ldProduct
			if err := json.Unmarshal(node, &p); err == nil && strings.EqualFold(p.Type, "Product") {
				return p, true
			}
		}
	}

	return ldProduct{}, false
}

func ldAvailability(schemaURL string) candidate.Availability {
	switch {
	case strings.Contains(schemaURL, "InStock"):
		return candidate.InStock
	case strings.Contains(schemaURL, "OutOfStock"), strings.Contains(schemaURL, "SoldOut"):
		return candidate.OutOfStock
	case strings.Contains(schemaURL, "BackOrder"):
		return candidate.Backorder
	case strings.Contains(schemaURL, "PreOrder"):
		return candidate.Preorder
	default:
		return candidate.Unknown
	}
}
