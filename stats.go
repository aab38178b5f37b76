package main

import (
	"fmt"
	"sort"
	"sync"
	"time"
)

// StatsTracker keeps thread-safe counters for /status, /top and the
// periodic summaries. Daily figures are reset by the daily summary job.
type StatsTracker struct {
	mu            sync.RWMutex
	startTime     time.Time
	messagesSent  int64
	whalesTotal   int64
	whalesToday   int64
	whaleVolume   float64 // today's whale notional, USD
	whalesByAsset map[string]int64
	biggestTrades []WhaleEvent // today's top trades, descending by notional
	maxTopTracked int
}

func NewStatsTracker() *StatsTracker {
	return &StatsTracker{
		startTime:     time.Now(),
		whalesByAsset: make(map[string]int64),
		maxTopTracked: 5,
	}
}

// RecordWhale counts a detected whale toward the daily figures.
func (st *StatsTracker) RecordWhale(ev WhaleEvent) {
	st.mu.Lock()
	defer st.mu.Unlock()

	st.whalesTotal++
	st.whalesToday++
	st.whaleVolume += ev.Notional
	st.whalesByAsset[ev.Trade.Coin]++

	st.biggestTrades = append(st.biggestTrades, ev)
	sort.Slice(st.biggestTrades, func(i, j int) bool {
		return st.biggestTrades[i].Notional > st.biggestTrades[j].Notional
	})
	if len(st.biggestTrades) > st.maxTopTracked {
		st.biggestTrades = st.biggestTrades[:st.maxTopTracked]
	}
}

// RecordMessages counts outbound deliveries.
func (st *StatsTracker) RecordMessages(n int) {
	st.mu.Lock()
	st.messagesSent += int64(n)
	st.mu.Unlock()
}

// StatsSnapshot is a point-in-time view of the counters.
type StatsSnapshot struct {
	MessagesSent  int64
	WhalesTotal   int64
	WhalesToday   int64
	WhaleVolume   float64
	WhalesByAsset map[string]int64
	BiggestTrades []WhaleEvent
	Uptime        time.Duration
}

// Snapshot copies the current counters.
func (st *StatsTracker) Snapshot() StatsSnapshot {
	st.mu.RLock()
	defer st.mu.RUnlock()

	byAsset := make(map[string]int64, len(st.whalesByAsset))
	for k, v := range st.whalesByAsset {
		byAsset[k] = v
	}
	top := make([]WhaleEvent, len(st.biggestTrades))
	copy(top, st.biggestTrades)

	return StatsSnapshot{
		MessagesSent:  st.messagesSent,
		WhalesTotal:   st.whalesTotal,
		WhalesToday:   st.whalesToday,
		WhaleVolume:   st.whaleVolume,
		WhalesByAsset: byAsset,
		BiggestTrades: top,
		Uptime:        time.Since(st.startTime),
	}
}

// ResetDaily clears the daily figures after the daily summary goes out.
// Lifetime counters (messages, total whales, uptime) are kept.
func (st *StatsTracker) ResetDaily() {
	st.mu.Lock()
	defer st.mu.Unlock()
	st.whalesToday = 0
	st.whaleVolume = 0
	st.whalesByAsset = make(map[string]int64)
	st.biggestTrades = nil
}

// FormatUptime renders a duration as "Xh Ym".
func FormatUptime(d time.Duration) string {
	hours := int(d.Hours())
	minutes := int(d.Minutes()) % 60
	return fmt.Sprintf("%dh %dm", hours, minutes)
}
