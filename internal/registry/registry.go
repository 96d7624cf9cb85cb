package registry

import (
	"net/url"
	"strings"
)

// ShipperTier buckets vendors by how quickly they typically deliver.
type ShipperTier string

const (
	ShipperFast       ShipperTier = "fast"
	ShipperStandard   ShipperTier = "standard"
	ShipperEnterprise ShipperTier = "enterprise"
)

// DeliveryDays returns the delivery estimate in days for the tier.
func (t ShipperTier) DeliveryDays() int {
	switch t {
	case ShipperFast:
		return 3
	case ShipperStandard:
		return 5
	case ShipperEnterprise:
		return 7
	}
	return 7
}

// Vendor describes one known vendor: its domains, reputation tier,
// shipping behavior and published sales contacts. Loaded from configuration
// at startup rather than hardcoded per call site.
type Vendor struct {
	Name        string      `mapstructure:"name" json:"name"`
	Domains     []string    `mapstructure:"domains" json:"domains"`
	Tier        int         `mapstructure:"tier" json:"tier"` // 1 enterprise distributor, 2 known retailer, 3 unknown
	Shipper     ShipperTier `mapstructure:"shipper" json:"shipper"`
	SalesEmail  string      `mapstructure:"sales_email" json:"sales_email,omitempty"`
	SalesPhone  string      `mapstructure:"sales_phone" json:"sales_phone,omitempty"`
	Address     string      `mapstructure:"address" json:"address,omitempty"`
	ReturnsURL  string      `mapstructure:"returns_url" json:"returns_url,omitempty"`
	USConfirmed bool        `mapstructure:"us_confirmed" json:"us_confirmed"`
}

// Registry is the lookup table over configured vendors. It is built once at
// startup and read-only afterwards, so it is safe for concurrent use.
type Registry struct {
	vendors  []Vendor
	byDomain map[string]*Vendor
}

// New builds a registry from the given vendor list.
func New(vendors []Vendor) *Registry {
	r := &Registry{
		vendors:  vendors,
		byDomain: make(map[string]*Vendor),
	}
	for i := range r.vendors {
		for _, d := range r.vendors[i].Domains {
			r.byDomain[strings.ToLower(d)] = &r.vendors[i]
		}
	}
	return r
}

// ByURL resolves the vendor owning the host of rawURL, matching the
// registered domain or any subdomain of it.
func (r *Registry) ByURL(rawURL string) *Vendor {
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil
	}
	return r.byHost(u.Hostname())
}

func (r *Registry) byHost(host string) *Vendor {
	host = strings.ToLower(strings.TrimPrefix(host, "www."))
	if v, ok := r.byDomain[host]; ok {
		return v
	}
	for domain, v := range r.byDomain {
		if strings.HasSuffix(host, "."+domain) {
			return v
		}
	}
	return nil
}

// ByName resolves a vendor by a case-insensitive substring match on its
// configured name, mirroring how offers name vendors inconsistently.
func (r *Registry) ByName(name string) *Vendor {
	name = strings.ToLower(name)
	if name == "" {
		return nil
	}
	for i := range r.vendors {
		if strings.Contains(name, strings.ToLower(r.vendors[i].Name)) {
			return &r.vendors[i]
		}
	}
	return nil
}

// Allows reports whether rawURL belongs to a registered vendor domain.
// The retriever uses this to avoid spending extraction effort on pages
// that cannot become purchase-ready offers.
func (r *Registry) Allows(rawURL string) bool {
	return r.ByURL(rawURL) != nil
}

// Domains returns every registered vendor domain.
func (r *Registry) Domains() []string {
	out := make([]string, 0, len(r.byDomain))
	for d := range r.byDomain {
		out = append(out, d)
	}
	return out
}

// Tier returns the reputation tier for the named vendor, or 3 when unknown.
func (r *Registry) Tier(vendorName string) int {
	if v := r.ByName(vendorName); v != nil && v.Tier >= 1 && v.Tier <= 3 {
		return v.Tier
	}
	return 3
}

// DeliveryEstimate returns the shipping estimate in days for the named
// vendor based on its shipper tier, defaulting to 7 days.
func (r *Registry) DeliveryEstimate(vendorName string) int {
	if v := r.ByName(vendorName); v != nil {
		return v.Shipper.DeliveryDays()
	}
	return 7
}

// IsKnownUS reports whether the named vendor is on the configured list of
// confirmed US vendors.
func (r *Registry) IsKnownUS(vendorName string) bool {
	v := r.ByName(vendorName)
	return v != nil && v.USConfirmed
}

// Default returns the registry shipped with the binary: the enterprise
// distributors and retail channels procurement teams actually buy from.
// A config file replaces this wholesale when provided.
func Default() *Registry {
	return New([]Vendor{
		{Name: "CDW", Domains: []string{"cdw.com"}, Tier: 1, Shipper: ShipperStandard, SalesEmail: "sales@cdw.com", SalesPhone: "(800) 800-4239", Address: "200 N Milwaukee Ave, Vernon Hills, IL 60061", USConfirmed: true},
		{Name: "Insight", Domains: []string{"insight.com"}, Tier: 1, Shipper: ShipperStandard, SalesEmail: "sales@insight.com", SalesPhone: "(800) 446-4478", Address: "6820 S Harl Ave, Tempe, AZ 85283", USConfirmed: true},
		{Name: "WWT", Domains: []string{"wwt.com"}, Tier: 1, Shipper: ShipperEnterprise, SalesEmail: "sales@wwt.com", Address: "1 World Wide Technology Blvd, St. Louis, MO 63134", USConfirmed: true},
		{Name: "SHI", Domains: []string{"shi.com"}, Tier: 1, Shipper: ShipperEnterprise, SalesEmail: "sales@shi.com", Address: "290 Davidson Ave, Somerset, NJ 08873", USConfirmed: true},
		{Name: "Connection", Domains: []string{"connection.com"}, Tier: 1, Shipper: ShipperEnterprise, SalesEmail: "sales@connection.com", Address: "100 Enterprise Dr, Rocky Hill, CT 06067", USConfirmed: true},
		{Name: "Zones", Domains: []string{"zones.com"}, Tier: 1, Shipper: ShipperEnterprise, SalesEmail: "sales@zones.com", Address: "1100 112th Ave NE, Bellevue, WA 98004", USConfirmed: true},
		{Name: "Amazon", Domains: []string{"amazon.com"}, Tier: 2, Shipper: ShipperFast, SalesEmail: Webform, Address: "410 Terry Ave N, Seattle, WA 98109", USConfirmed: true},
		{Name: "Best Buy", Domains: []string{"bestbuy.com"}, Tier: 2, Shipper: ShipperFast, SalesEmail: Webform, Address: "7601 Penn Ave S, Richfield, MN 55423", USConfirmed: true},
		{Name: "Newegg", Domains: []string{"newegg.com"}, Tier: 2, Shipper: ShipperFast, SalesEmail: Webform, Address: "17560 Rowland St, City of Industry, CA 91748", USConfirmed: true},
		{Name: "B&H Photo", Domains: []string{"bhphotovideo.com"}, Tier: 2, Shipper: ShipperStandard, SalesEmail: "sales@bhphotovideo.com", SalesPhone: "(800) 606-6969", Address: "420 9th Ave, New York, NY 10001", USConfirmed: true},
		{Name: "Adorama", Domains: []string{"adorama.com"}, Tier: 2, Shipper: ShipperStandard, SalesEmail: "sales@adorama.com", Address: "42 W 18th St, New York, NY 10011", USConfirmed: true},
		{Name: "Micro Center", Domains: []string{"microcenter.com"}, Tier: 2, Shipper: ShipperStandard, SalesEmail: "sales@microcenter.com", Address: "4119 Leap Rd, Hilliard, OH 43026", USConfirmed: true},
	})
}

// Webform mirrors candidate.Webform without importing it; the registry is a
// leaf package.
const Webform = "webform"
