package main

import (
	"context"
	"fmt"
	"log"
	"strconv"
	"sync"
	"time"

	"hyperwhale/config"
)

// NotAvailable is the sentinel rendered for any field whose lookup failed.
const NotAvailable = "N/A"

// MarketSnapshot is the denormalized view-model handed to the formatter.
// Every field is already display-formatted; failed lookups leave their
// fields at "N/A". Built fresh per alert, never cached.
type MarketSnapshot struct {
	MarkPrice         string
	PriceChange24h    string
	PriceImpact       string
	Volume24h         string
	OpenInterest      string
	OiChange          string
	FundingRate       string
	NextFunding       string
	EstimatedLeverage string
	LiquidationRisk   string
	MarketImpact      string
}

func newMarketSnapshot() *MarketSnapshot {
	return &MarketSnapshot{
		MarkPrice:         NotAvailable,
		PriceChange24h:    NotAvailable,
		PriceImpact:       NotAvailable,
		Volume24h:         NotAvailable,
		OpenInterest:      NotAvailable,
		OiChange:          NotAvailable,
		FundingRate:       NotAvailable,
		NextFunding:       NotAvailable,
		EstimatedLeverage: NotAvailable,
		LiquidationRisk:   "Unknown",
		MarketImpact:      "Unknown",
	}
}

// AlertEnricher runs the auxiliary lookups for a qualifying trade and
// derives the presentation heuristics. Band cutoffs come from config.
type AlertEnricher struct {
	client *MarketDataClient
	cache  *PriceCache

	leverageBands [3]float64
	liqRiskBands  [2]float64
	impactBands   [2]float64
}

func NewAlertEnricher(client *MarketDataClient, cache *PriceCache, cfg *config.Config) *AlertEnricher {
	return &AlertEnricher{
		client:        client,
		cache:         cache,
		leverageBands: cfg.LeverageBands,
		liqRiskBands:  cfg.LiqRiskBands,
		impactBands:   cfg.ImpactBands,
	}
}

// Enrich issues the independent lookups concurrently and waits for all of
// them to settle. A single failed lookup only blanks its own fields; the
// alert is still sent with partial data. Returns nil when every lookup
// failed, which the formatter renders as a placeholder section.
func (e *AlertEnricher) Enrich(ctx context.Context, ev WhaleEvent) *MarketSnapshot {
	coin := ev.Trade.Coin
	snap := newMarketSnapshot()

	var (
		mu        sync.Mutex
		wg        sync.WaitGroup
		succeeded int
	)

	settle := func(name string, err error, apply func()) {
		mu.Lock()
		defer mu.Unlock()
		if err != nil {
			log.Printf("⚠️ Enrichment lookup %s failed for %s: %v", name, coin, err)
			return
		}
		succeeded++
		apply()
	}

	wg.Add(5)

	go func() {
		defer wg.Done()
		meta, err := e.client.Meta(ctx)
		settle("meta", err, func() {
			if !universeHas(meta, coin) {
				log.Printf("⚠️ %s not in exchange universe", coin)
			}
		})
	}()

	go func() {
		defer wg.Done()
		mids, err := e.client.AllMids(ctx)
		settle("allMids", err, func() {
			if mid, ok := parseFloat(mids[coin]); ok {
				snap.MarkPrice = formatUSD(mid)
			}
		})
	}()

	go func() {
		defer wg.Done()
		stats, err := e.client.Stats24h(ctx)
		settle("24hrStats", err, func() {
			e.applyStats(snap, stats[coin])
		})
	}()

	go func() {
		defer wg.Done()
		funding, err := e.client.FundingHistory(ctx, coin, time.Now().UnixMilli())
		settle("fundingHistory", err, func() {
			applyFunding(snap, funding, coin)
		})
	}()

	go func() {
		defer wg.Done()
		start := time.Now().Add(-48 * time.Hour).UnixMilli()
		candles, err := e.client.CandleSnapshot(ctx, coin, "1d", start)
		settle("candleSnapshot", err, func() {
			if change, ok := dailyChange(candles); ok {
				snap.PriceChange24h = fmt.Sprintf("%.2f", change)
			}
		})
	}()

	wg.Wait()

	if succeeded == 0 {
		return nil
	}

	// Price impact is computed against the cached mid at detection time,
	// never against a freshly fetched price.
	if px, ok := ev.Trade.Price(); ok {
		ref := px
		if mid, ok := e.cache.Mid(coin); ok && mid > 0 {
			ref = mid
		}
		snap.PriceImpact = fmt.Sprintf("%.2f", (px-ref)/ref*100)
	}

	return snap
}

func (e *AlertEnricher) applyStats(snap *MarketSnapshot, stats AssetStats) {
	volume, volOK := parseFloat(stats.Volume)
	oi, oiOK := parseFloat(stats.OpenInterest)

	if volOK {
		snap.Volume24h = fmt.Sprintf("%.1fM", volume/1_000_000)
	}
	if oiOK {
		snap.OpenInterest = fmt.Sprintf("%.1fM", oi/1_000_000)
	}
	if change, ok := parseFloat(stats.OiChange); ok {
		snap.OiChange = fmt.Sprintf("%.2f%%", change*100)
	}

	snap.EstimatedLeverage = e.estimateLeverage(oi, volume, oiOK && volOK)
	if volOK {
		snap.LiquidationRisk = e.assessLiquidationRisk(volume)
	}
	if oiOK {
		snap.MarketImpact = e.assessMarketImpact(oi)
	}
}

// estimateLeverage bands the open-interest-to-volume ratio into coarse
// buckets. A heuristic for display, not an exchange-verified figure.
func (e *AlertEnricher) estimateLeverage(oi, volume float64, ok bool) string {
	if !ok || volume == 0 {
		return NotAvailable
	}
	ratio := oi / volume
	switch {
	case ratio > e.leverageBands[0]:
		return "50+"
	case ratio > e.leverageBands[1]:
		return "20-50"
	case ratio > e.leverageBands[2]:
		return "10-20"
	default:
		return "2-10"
	}
}

func (e *AlertEnricher) assessLiquidationRisk(volume24h float64) string {
	switch {
	case volume24h > e.liqRiskBands[0]:
		return "🟢 Low"
	case volume24h > e.liqRiskBands[1]:
		return "🟡 Medium"
	default:
		return "🔴 High"
	}
}

func (e *AlertEnricher) assessMarketImpact(oi float64) string {
	switch {
	case oi > e.impactBands[0]:
		return "🟢 Minimal"
	case oi > e.impactBands[1]:
		return "🟡 Moderate"
	default:
		return "🔴 High"
	}
}

func applyFunding(snap *MarketSnapshot, entries []FundingEntry, coin string) {
	for _, entry := range entries {
		if entry.Coin != coin {
			continue
		}
		if rate, ok := parseFloat(entry.FundingRate); ok {
			snap.FundingRate = fmt.Sprintf("%.4f", rate*100)
		}
		if entry.NextFundingTime > 0 {
			snap.NextFunding = time.UnixMilli(entry.NextFundingTime).Format("15:04:05")
		}
		return
	}
}

// dailyChange returns the percent move between the last two daily closes.
func dailyChange(candles []Candle) (float64, bool) {
	if len(candles) < 2 {
		return 0, false
	}
	last, lastOK := parseFloat(candles[len(candles)-1].Close)
	prev, prevOK := parseFloat(candles[len(candles)-2].Close)
	if !lastOK || !prevOK || prev == 0 {
		return 0, false
	}
	return (last - prev) / prev * 100, true
}

func universeHas(meta *MetaResponse, coin string) bool {
	if meta == nil {
		return false
	}
	for _, asset := range meta.Universe {
		if asset.Name == coin {
			return true
		}
	}
	return false
}

func parseFloat(s string) (float64, bool) {
	if s == "" {
		return 0, false
	}
	v, err := strconv.ParseFloat(s, 64)
	return v, err == nil
}
