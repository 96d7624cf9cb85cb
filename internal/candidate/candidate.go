package candidate

import "time"

// Availability classifies the stock status of a vendor offer.
type Availability string

const (
	InStock    Availability = "in_stock"
	Backorder  Availability = "backorder"
	Preorder   Availability = "preorder"
	OutOfStock Availability = "out_of_stock"
	Unknown    Availability = "unknown"
)

// Valid reports whether a is one of the recognized availability states.
func (a Availability) Valid() bool {
	switch a {
	case InStock, Backorder, Preorder, OutOfStock, Unknown:
		return true
	}
	return false
}

// VerificationMethod records how a vendor's US status was established.
type VerificationMethod string

const (
	MethodDomainSuffix   VerificationMethod = "domain_suffix"
	MethodContactAddress VerificationMethod = "contact_address"
	MethodKnownVendor    VerificationMethod = "known_vendor_list"
	MethodWebform        VerificationMethod = "webform"
)

// USVerification holds the evidence that a vendor operates from the US.
type USVerification struct {
	IsUSVendor      bool               `json:"is_us_vendor"`
	Method          VerificationMethod `json:"method"`
	BusinessAddress string             `json:"business_address"`
}

// Webform is the sentinel sales contact used when no direct email was found
// but the vendor exposes a contact form.
const Webform = "webform"

// Raw is the weakly populated record the extractor produces from a single
// page. Fields may be missing; the validator decides admissibility and
// upgrades a Raw into a Candidate.
type Raw struct {
	VendorName      string       `json:"vendor_name"`
	ProductName     string       `json:"product_name"`
	Model           string       `json:"model"`
	SKU             string       `json:"sku,omitempty"`
	Price           float64      `json:"price"`
	Currency        string       `json:"currency"`
	Availability    Availability `json:"availability"`
	ShipsTo         []string     `json:"ships_to"`
	DeliveryDays    int          `json:"delivery_window_days"`
	PurchaseURL     string       `json:"purchase_url"`
	EvidenceURLs    []string     `json:"evidence_urls"`
	SalesEmail      string       `json:"sales_email,omitempty"`
	SalesPhone      string       `json:"sales_phone,omitempty"`
	ReturnPolicyURL string       `json:"return_policy_url,omitempty"`
	BusinessAddress string       `json:"business_address,omitempty"`
	Notes           string       `json:"notes,omitempty"`
	Synthetic       bool         `json:"synthetic,omitempty"`
}

// Candidate is a fully populated, validated vendor offer. It is only
// produced by the validator; after that it is never mutated. The ranked
// candidate list is the unit stored in the cache.
type Candidate struct {
	VendorName      string         `json:"vendor_name"`
	ProductName     string         `json:"product_name"`
	Model           string         `json:"model"`
	SKU             string         `json:"sku,omitempty"`
	Price           float64        `json:"price"`
	Currency        string         `json:"currency"`
	Availability    Availability   `json:"availability"`
	ShipsTo         []string       `json:"ships_to"`
	DeliveryDays    int            `json:"delivery_window_days"`
	PurchaseURL     string         `json:"purchase_url"`
	EvidenceURLs    []string       `json:"evidence_urls"`
	SalesEmail      string         `json:"sales_email"`
	SalesPhone      string         `json:"sales_phone,omitempty"`
	ReturnPolicyURL string         `json:"return_policy_url,omitempty"`
	Notes           string         `json:"notes,omitempty"`
	USVerification  USVerification `json:"us_vendor_verification"`
	LastChecked     time.Time      `json:"last_checked_utc"`
}
