package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"github.com/procurehq/vendorscout/internal/candidate"
	"github.com/procurehq/vendorscout/internal/contact"
	"github.com/procurehq/vendorscout/internal/metrics"
	"github.com/procurehq/vendorscout/internal/registry"
)

// RejectReason explains why a raw candidate was dropped.
type RejectReason string

const (
	RejectMissingFields RejectReason = "missing_fields"
	RejectNonUS         RejectReason = "non_us"
	RejectSpecMismatch  RejectReason = "spec_mismatch"
)

// TLD lists for the US-vendor domain heuristic.
var (
	nonUSSuffixes = []string{".ca", ".co.uk", ".uk", ".de", ".eu", ".au", ".nz", ".fr", ".it", ".es", ".jp", ".cn", ".in"}
	usSuffixes    = []string{".com", ".us", ".org", ".net", ".edu", ".gov"}
)

var usStates = map[string]struct{}{
	"al": {}, "ak": {}, "az": {}, "ar": {}, "ca": {}, "co": {}, "ct": {}, "de": {},
	"fl": {}, "ga": {}, "hi": {}, "ia": {}, "id": {}, "il": {}, "in": {}, "ks": {},
	"ky": {}, "la": {}, "ma": {}, "md": {}, "me": {}, "mi": {}, "mn": {}, "mo": {},
	"ms": {}, "mt": {}, "nc": {}, "nd": {}, "ne": {}, "nh": {}, "nj": {}, "nm": {},
	"nv": {}, "ny": {}, "oh": {}, "ok": {}, "or": {}, "pa": {}, "ri": {}, "sc": {},
	"sd": {}, "tn": {}, "tx": {}, "ut": {}, "va": {}, "vt": {}, "wa": {}, "wi": {},
	"wv": {}, "wy": {},
}

// Validator decides admissibility of raw candidates and upgrades accepted
// ones to fully-populated Candidates. It is the only stage that mutates
// candidate data (default-filling); output records are immutable afterwards.
type Validator struct {
	registry *registry.Registry
	contact  contact.Lookup
	logger   *slog.Logger

	// SpecMatchRatio is the fraction of required specs that must match.
	SpecMatchRatio float64
}

// NewValidator creates a Validator. lookup may be nil, in which case
// default-filling falls back to the registry and the webform sentinel.
func NewValidator(reg *registry.Registry, lookup contact.Lookup, logger *slog.Logger) *Validator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Validator{
		registry:       reg,
		contact:        lookup,
		logger:         logger,
		SpecMatchRatio: 0.25,
	}
}

// Run validates raw against requiredSpecs. It returns either a fully
// populated Candidate or a rejection reason, never a partial record.
func (v *Validator) Run(ctx context.Context, raw *candidate.Raw, requiredSpecs []string) (*candidate.Candidate, RejectReason) {
	if reason := v.check(raw, requiredSpecs); reason != "" {
		metrics.ValidationsTotal.WithLabelValues(string(reason)).Inc()
		v.logger.Debug("candidate rejected", "vendor", raw.VendorName, "reason", reason)
		return nil, reason
	}

	c := v.fill(ctx, raw)
	metrics.ValidationsTotal.WithLabelValues("accepted").Inc()
	return c, ""
}

func (v *Validator) check(raw *candidate.Raw, requiredSpecs []string) RejectReason {
	if raw.VendorName == "" || raw.ProductName == "" || raw.Model == "" ||
		raw.Price <= 0 || raw.Currency == "" || raw.Availability == "" ||
		raw.PurchaseURL == "" {
		return RejectMissingFields
	}

	usOK, _ := v.verifyUS(raw)
	if !usOK {
		return RejectNonUS
	}

	if len(requiredSpecs) > 0 {
		text := strings.Join([]string{raw.ProductName, raw.Model, raw.Notes, raw.SKU}, " ")
		if specMatches(text, requiredSpecs) < minSpecMatches(len(requiredSpecs), v.SpecMatchRatio) {
			return RejectSpecMismatch
		}
	}

	return ""
}

// verifyUS applies the US-vendor policy. A known non-US TLD with no US
// address evidence is an outright rejection regardless of other signals;
// otherwise the known-vendor list, the address, and the domain suffix are
// accepted in that order.
func (v *Validator) verifyUS(raw *candidate.Raw) (bool, candidate.USVerification) {
	host := strings.ToLower(hostname(raw.PurchaseURL))
	addressUS := hasUSAddressIndicator(raw.BusinessAddress)

	for _, suffix := range nonUSSuffixes {
		if strings.HasSuffix(host, suffix) {
			if !addressUS {
				return false, candidate.USVerification{}
			}
			return true, candidate.USVerification{
				IsUSVendor:      true,
				Method:          candidate.MethodContactAddress,
				BusinessAddress: raw.BusinessAddress,
			}
		}
	}

	if v.registry.IsKnownUS(raw.VendorName) {
		return true, candidate.USVerification{
			IsUSVendor:      true,
			Method:          candidate.MethodKnownVendor,
			BusinessAddress: v.businessAddress(raw),
		}
	}

	if addressUS {
		return true, candidate.USVerification{
			IsUSVendor:      true,
			Method:          candidate.MethodContactAddress,
			BusinessAddress: raw.BusinessAddress,
		}
	}

	for _, suffix := range usSuffixes {
		if strings.HasSuffix(host, suffix) {
			return true, candidate.USVerification{
				IsUSVendor:      true,
				Method:          candidate.MethodDomainSuffix,
				BusinessAddress: raw.BusinessAddress,
			}
		}
	}

	return false, candidate.USVerification{}
}

func (v *Validator) businessAddress(raw *candidate.Raw) string {
	if raw.BusinessAddress != "" {
		return raw.BusinessAddress
	}
	if vendor := v.registry.ByName(raw.VendorName); vendor != nil {
		return vendor.Address
	}
	return ""
}

// fill upgrades an admissible raw record into a Candidate, supplying
// defaults for the optional fields the extractor could not determine.
func (v *Validator) fill(ctx context.Context, raw *candidate.Raw) *candidate.Candidate {
	_, verification := v.verifyUS(raw)

	c := &candidate.Candidate{
		VendorName:      raw.VendorName,
		ProductName:     raw.ProductName,
		Model:           raw.Model,
		SKU:             raw.SKU,
		Price:           raw.Price,
		Currency:        raw.Currency,
		Availability:    raw.Availability,
		ShipsTo:         raw.ShipsTo,
		DeliveryDays:    raw.DeliveryDays,
		PurchaseURL:     raw.PurchaseURL,
		EvidenceURLs:    raw.EvidenceURLs,
		SalesEmail:      raw.SalesEmail,
		SalesPhone:      raw.SalesPhone,
		ReturnPolicyURL: raw.ReturnPolicyURL,
		Notes:           raw.Notes,
		USVerification:  verification,
		LastChecked:     time.Now().UTC(),
	}

	if !c.Availability.Valid() {
		c.Availability = candidate.Unknown
	}
	if len(c.ShipsTo) == 0 {
		c.ShipsTo = []string{"USA"}
	}
	if len(c.EvidenceURLs) == 0 {
		c.EvidenceURLs = []string{c.PurchaseURL}
	}

	if c.SalesEmail == "" {
		c.SalesEmail = v.discoverContact(ctx, c)
	}

	if c.DeliveryDays <= 0 {
		c.DeliveryDays = v.registry.DeliveryEstimate(c.VendorName)
	}

	return c
}

// discoverContact tries the side lookup, then the registry, then falls back
// to the webform sentinel. Lookup failure is recoverable: the candidate
// stays, only its contact quality drops.
func (v *Validator) discoverContact(ctx context.Context, c *candidate.Candidate) string {
	if v.contact != nil {
		email, formURL, err := v.contact.FindSalesContact(ctx, c.PurchaseURL)
		if err == nil {
			if email != "" {
				return email
			}
			if formURL != "" {
				c.Notes = strings.TrimSpace(fmt.Sprintf("%s | contact: %s", c.Notes, formURL))
				return candidate.Webform
			}
		}
	}

	if vendor := v.registry.ByName(c.VendorName); vendor != nil && vendor.SalesEmail != "" {
		return vendor.SalesEmail
	}
	return candidate.Webform
}

func hostname(rawURL string) string {
	if u, err := url.Parse(rawURL); err == nil {
		return u.Hostname()
	}
	return ""
}

// hasUSAddressIndicator reports whether the address names a US state or the
// country itself.
func hasUSAddressIndicator(address string) bool {
	if address == "" {
		return false
	}
	lower := strings.ToLower(address)
	if strings.Contains(lower, "united states") || strings.Contains(lower, "usa") {
		return true
	}
	for _, tok := range strings.FieldsFunc(lower, func(r rune) bool {
		return r == ' ' || r == ',' || r == '.'
	}) {
		if _, ok := usStates[tok]; ok {
			return true
		}
	}
	return false
}
