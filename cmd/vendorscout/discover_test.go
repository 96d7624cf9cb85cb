package main

import "testing"

// Pages are zero-based everywhere; a bare discover must request the first
// page, not an empty second one.
func TestDiscoverPageFlagDefaultsToFirstPage(t *testing.T) {
	flag := discoverCmd.Flags().Lookup("page")
	if flag == nil {
		t.Fatal("page flag not registered")
	}
	if flag.DefValue != "0" {
		t.Errorf("page flag default = %q, want 0", flag.DefValue)
	}
}
