package main

import (
	"math"
	"strconv"
	"sync"

	"hyperwhale/config"
)

// ============================================================================
// CORE DATA STRUCTURES
// ============================================================================

// Trade is a single fill as pushed by the Hyperliquid trades channel.
// Price and size arrive as decimal strings on the wire.
type Trade struct {
	Coin string `json:"coin"`
	Side string `json:"side"` // "A" = buy/long, "B" = sell/short
	Px   string `json:"px"`
	Sz   string `json:"sz"`
	Time int64  `json:"time"` // Unix milliseconds
	Hash string `json:"hash"`
}

// Price returns the parsed execution price, or false if not a finite number.
func (t Trade) Price() (float64, bool) {
	return parseFinite(t.Px)
}

// Size returns the parsed size, or false if not a finite number.
func (t Trade) Size() (float64, bool) {
	return parseFinite(t.Sz)
}

// parseFinite rejects the "NaN"/"Inf" strings ParseFloat accepts; they
// never appear in legitimate fills and would poison the notional math.
func parseFinite(s string) (float64, bool) {
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false
	}
	return v, true
}

// IsLong reports whether the aggressor was the buyer.
func (t Trade) IsLong() bool {
	return t.Side == "A"
}

// WhaleEvent is a qualifying trade with its notional value attached.
// It exists only between detection and formatting, never persisted.
type WhaleEvent struct {
	Trade    Trade
	Notional float64
}

// ============================================================================
// WHALE DETECTOR
// ============================================================================

// WhaleDetector filters trades against a mutable notional threshold.
type WhaleDetector struct {
	mu        sync.RWMutex
	threshold float64
}

func NewWhaleDetector(threshold float64) *WhaleDetector {
	if threshold < config.MinWhaleThreshold {
		threshold = config.MinWhaleThreshold
	}
	return &WhaleDetector{threshold: threshold}
}

// Classify reports whether the trade qualifies and its notional value.
// Non-numeric price or size never qualifies.
func (d *WhaleDetector) Classify(trade Trade) (WhaleEvent, bool) {
	px, ok := trade.Price()
	if !ok {
		return WhaleEvent{}, false
	}
	sz, ok := trade.Size()
	if !ok {
		return WhaleEvent{}, false
	}

	notional := px * sz
	if math.IsInf(notional, 0) || !(notional >= d.Threshold()) {
		return WhaleEvent{}, false
	}
	return WhaleEvent{Trade: trade, Notional: notional}, true
}

// Threshold returns the current whale threshold.
func (d *WhaleDetector) Threshold() float64 {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.threshold
}

// SetThreshold updates the threshold. Values below the floor are rejected
// and the previous threshold is kept. Applies only to subsequent trades.
func (d *WhaleDetector) SetThreshold(v float64) bool {
	if v < config.MinWhaleThreshold {
		return false
	}
	d.mu.Lock()
	d.threshold = v
	d.mu.Unlock()
	return true
}

// ============================================================================
// WHALE LEVELS
// ============================================================================

// WhaleLevel is a named tier for a notional value, used in alert text.
type WhaleLevel struct {
	Name string
	Icon string
	Tag  string
}

// GetWhaleLevel bands a notional value into its tier.
func GetWhaleLevel(value float64) WhaleLevel {
	switch {
	case value >= 1_000_000:
		return WhaleLevel{Name: "MEGA WHALE", Icon: "🐋👑", Tag: "MegaWhale"}
	case value >= 500_000:
		return WhaleLevel{Name: "WHALE", Icon: "🐋", Tag: "Whale"}
	case value >= 200_000:
		return WhaleLevel{Name: "BIG FISH", Icon: "🐟", Tag: "BigFish"}
	default:
		return WhaleLevel{Name: "LARGE TRADER", Icon: "🦈", Tag: "LargeTrader"}
	}
}

// IsMega reports whether the level is the top tier (used for FCM pushes).
func (wl WhaleLevel) IsMega() bool {
	return wl.Tag == "MegaWhale"
}
