package main

import "testing"

func TestPriceCache(t *testing.T) {
	pc := NewPriceCache()

	if _, ok := pc.Mid("BTC"); ok {
		t.Error("Expected no mid before first update")
	}

	pc.SetMid("BTC", 50000)
	pc.SetMid("BTC", 50100) // latest write wins
	pc.SetMid("ETH", 3000)
	pc.SetVolume("BTC", 123.4)

	if mid, ok := pc.Mid("BTC"); !ok || mid != 50100 {
		t.Errorf("Expected BTC mid 50100, got %f (ok=%v)", mid, ok)
	}
	if vol, ok := pc.Volume("BTC"); !ok || vol != 123.4 {
		t.Errorf("Expected BTC volume 123.4, got %f (ok=%v)", vol, ok)
	}
	if pc.Len() != 2 {
		t.Errorf("Expected 2 cached mids, got %d", pc.Len())
	}

	// Mids returns a copy, not the live map
	mids := pc.Mids()
	mids["BTC"] = 1
	if mid, _ := pc.Mid("BTC"); mid != 50100 {
		t.Error("Mutating the Mids copy must not touch the cache")
	}
}
