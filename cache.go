package main

import "sync"

// PriceCache holds the latest mid-price and 1m candle volume per asset,
// written by the allMids and candle feed handlers, read by enrichment and
// the periodic summaries. Bounded by the fixed asset universe, no eviction.
type PriceCache struct {
	mu      sync.RWMutex
	mids    map[string]float64
	volumes map[string]float64
}

func NewPriceCache() *PriceCache {
	return &PriceCache{
		mids:    make(map[string]float64),
		volumes: make(map[string]float64),
	}
}

// SetMid records the latest mid-price for a coin.
func (pc *PriceCache) SetMid(coin string, price float64) {
	pc.mu.Lock()
	pc.mids[coin] = price
	pc.mu.Unlock()
}

// Mid returns the latest mid-price for a coin.
func (pc *PriceCache) Mid(coin string) (float64, bool) {
	pc.mu.RLock()
	defer pc.mu.RUnlock()
	v, ok := pc.mids[coin]
	return v, ok
}

// SetVolume records the latest candle volume for a coin.
func (pc *PriceCache) SetVolume(coin string, volume float64) {
	pc.mu.Lock()
	pc.volumes[coin] = volume
	pc.mu.Unlock()
}

// Volume returns the latest candle volume for a coin.
func (pc *PriceCache) Volume(coin string) (float64, bool) {
	pc.mu.RLock()
	defer pc.mu.RUnlock()
	v, ok := pc.volumes[coin]
	return v, ok
}

// Mids returns a copy of the current mid-price map.
func (pc *PriceCache) Mids() map[string]float64 {
	pc.mu.RLock()
	defer pc.mu.RUnlock()
	out := make(map[string]float64, len(pc.mids))
	for k, v := range pc.mids {
		out[k] = v
	}
	return out
}

// Len returns the number of cached mid-prices, shown by /status.
func (pc *PriceCache) Len() int {
	pc.mu.RLock()
	defer pc.mu.RUnlock()
	return len(pc.mids)
}
