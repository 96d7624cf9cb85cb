package pipeline

import (
	"sort"
	"strings"

	"github.com/procurehq/vendorscout/internal/candidate"
	"github.com/procurehq/vendorscout/internal/registry"
)

// manufacturer wording in vendor name or notes promotes a candidate over
// resellers: buying direct shortens the support chain.
var manufacturerMarkers = []string{"manufacturer", "mfr", "direct", "official", "oem"}

// Ranker imposes the total order presented to the caller. The sort is
// stable and pure over its input: a fixed candidate set always yields the
// same order regardless of extraction completion order.
type Ranker struct {
	registry *registry.Registry
}

// NewRanker creates a Ranker over the vendor registry's reputation tiers.
func NewRanker(reg *registry.Registry) *Ranker {
	return &Ranker{registry: reg}
}

// rankKey is the six-part sort key; each component ascending, earlier
// components dominate.
type rankKey struct {
	stock      int     // in_stock first
	price      float64 // cheaper first
	delivery   int     // faster first
	mfr        int     // manufacturer-direct before resellers
	reputation int     // registry tier 1 < 2 < 3
	contact    int     // direct email < webform < absent
}

func (k rankKey) less(o rankKey) bool {
	if k.stock != o.stock {
		return k.stock < o.stock
	}
	if k.price != o.price {
		return k.price < o.price
	}
	if k.delivery != o.delivery {
		return k.delivery < o.delivery
	}
	if k.mfr != o.mfr {
		return k.mfr < o.mfr
	}
	if k.reputation != o.reputation {
		return k.reputation < o.reputation
	}
	return k.contact < o.contact
}

// Run returns candidates in rank order. The input slice is not mutated;
// ties keep input order.
func (r *Ranker) Run(candidates []candidate.Candidate) []candidate.Candidate {
	ranked := make([]candidate.Candidate, len(candidates))
	copy(ranked, candidates)

	sort.SliceStable(ranked, func(i, j int) bool {
		return r.key(&ranked[i]).less(r.key(&ranked[j]))
	})
	return ranked
}

func (r *Ranker) key(c *candidate.Candidate) rankKey {
	k := rankKey{price: c.Price, delivery: c.DeliveryDays, mfr: 1, contact: 2}

	if c.Availability != candidate.InStock {
		k.stock = 1
	}

	haystack := strings.ToLower(c.Notes + " " + c.VendorName)
	for _, marker := range manufacturerMarkers {
		if strings.Contains(haystack, marker) {
			k.mfr = 0
			break
		}
	}

	k.reputation = r.registry.Tier(c.VendorName)

	switch {
	case c.SalesEmail != "" && c.SalesEmail != candidate.Webform:
		k.contact = 0
	case c.SalesEmail == candidate.Webform:
		k.contact = 1
	}

	return k
}
