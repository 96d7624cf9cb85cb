package pipeline

import (
	"testing"

	"github.com/procurehq/vendorscout/internal/candidate"
	"github.com/procurehq/vendorscout/internal/registry"
)

func TestRankerInStockFirst(t *testing.T) {
	r := NewRanker(registry.Default())

	in := []candidate.Candidate{
		{VendorName: "A", Price: 10, Availability: candidate.OutOfStock},
		{VendorName: "B", Price: 999, Availability: candidate.InStock},
		{VendorName: "C", Price: 5, Availability: candidate.Unknown},
	}

	out := r.Run(in)
	if out[0].VendorName != "B" {
		t.Fatalf("expected in-stock candidate first, got %s", out[0].VendorName)
	}
}

func TestRankerCheaperFirstWithinStock(t *testing.T) {
	r := NewRanker(registry.Default())

	in := []candidate.Candidate{
		{VendorName: "A", Price: 300, Availability: candidate.InStock},
		{VendorName: "B", Price: 100, Availability: candidate.InStock},
		{VendorName: "C", Price: 200, Availability: candidate.InStock},
	}

	out := r.Run(in)
	want := []string{"B", "C", "A"}
	for i, name := range want {
		if out[i].VendorName != name {
			t.Errorf("position %d = %s, want %s", i, out[i].VendorName, name)
		}
	}
}

func TestRankerManufacturerBeforeReseller(t *testing.T) {
	r := NewRanker(registry.Default())

	in := []candidate.Candidate{
		{VendorName: "Reseller Co", Price: 100, DeliveryDays: 5, Availability: candidate.InStock},
		{VendorName: "Widget Co", Notes: "official manufacturer store", Price: 100, DeliveryDays: 5, Availability: candidate.InStock},
	}

	out := r.Run(in)
	if out[0].VendorName != "Widget Co" {
		t.Errorf("expected manufacturer-direct first, got %s", out[0].VendorName)
	}
}

func TestRankerContactQualityBreaksTies(t *testing.T) {
	r := NewRanker(registry.Default())

	in := []candidate.Candidate{
		{VendorName: "NoContact Ltd", Price: 100, DeliveryDays: 5, Availability: candidate.InStock},
		{VendorName: "Form Ltd", Price: 100, DeliveryDays: 5, Availability: candidate.InStock, SalesEmail: candidate.Webform},
		{VendorName: "Email Ltd", Price: 100, DeliveryDays: 5, Availability: candidate.InStock, SalesEmail: "sales@email.example"},
	}

	out := r.Run(in)
	want := []string{"Email Ltd", "Form Ltd", "NoContact Ltd"}
	for i, name := range want {
		if out[i].VendorName != name {
			t.Errorf("position %d = %s, want %s", i, out[i].VendorName, name)
		}
	}
}

func TestRankerDeterministic(t *testing.T) {
	r := NewRanker(registry.Default())

	in := []candidate.Candidate{
		{VendorName: "CDW", Price: 450, DeliveryDays: 5, Availability: candidate.InStock, SalesEmail: "sales@cdw.com"},
		{VendorName: "Newegg", Price: 450, DeliveryDays: 3, Availability: candidate.InStock, SalesEmail: candidate.Webform},
		{VendorName: "Obscure Shop", Price: 430, DeliveryDays: 7, Availability: candidate.Backorder},
		{VendorName: "Amazon", Price: 440, DeliveryDays: 2, Availability: candidate.InStock},
	}

	first := r.Run(in)
	for run := 0; run < 5; run++ {
		again := r.Run(in)
		for i := range first {
			if again[i].VendorName != first[i].VendorName {
				t.Fatalf("run %d position %d = %s, want %s", run, i, again[i].VendorName, first[i].VendorName)
			}
		}
	}

	// Input slice must not be reordered.
	if in[0].VendorName != "CDW" || in[2].VendorName != "Obscure Shop" {
		t.Error("ranker mutated its input slice")
	}
}

func TestRankerTiesKeepInputOrder(t *testing.T) {
	r := NewRanker(registry.Default())

	in := []candidate.Candidate{
		{VendorName: "First Co", Price: 100, DeliveryDays: 5, Availability: candidate.InStock},
		{VendorName: "Second Co", Price: 100, DeliveryDays: 5, Availability: candidate.InStock},
	}

	out := r.Run(in)
	if out[0].VendorName != "First Co" || out[1].VendorName != "Second Co" {
		t.Errorf("tie broke input order: got %s, %s", out[0].VendorName, out[1].VendorName)
	}
}
