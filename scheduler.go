package main

import (
	"log"
	"time"

	"github.com/robfig/cron/v3"
)

// SchedulerLoop drives the fixed-interval jobs: feed heartbeat, periodic
// market summary and the end-of-day digest. Every firing only reads the
// caches and calls the dispatcher, so overlapping firings are harmless.
// Missed ticks are skipped, never queued.
type SchedulerLoop struct {
	feed       *FeedConnection
	cache      *PriceCache
	stats      *StatsTracker
	formatter  *MessageFormatter
	dispatcher *Dispatcher
	assets     []string

	heartbeatEvery time.Duration
	summaryEvery   time.Duration
	dailySpec      string

	cron *cron.Cron
	done chan struct{}
}

func NewSchedulerLoop(feed *FeedConnection, cache *PriceCache, stats *StatsTracker,
	formatter *MessageFormatter, dispatcher *Dispatcher, assets []string,
	heartbeatEvery, summaryEvery time.Duration, dailySpec string) *SchedulerLoop {
	return &SchedulerLoop{
		feed:           feed,
		cache:          cache,
		stats:          stats,
		formatter:      formatter,
		dispatcher:     dispatcher,
		assets:         assets,
		heartbeatEvery: heartbeatEvery,
		summaryEvery:   summaryEvery,
		dailySpec:      dailySpec,
		cron:           cron.New(cron.WithLocation(time.UTC)),
		done:           make(chan struct{}),
	}
}

// Start launches the timers. Non-blocking.
func (s *SchedulerLoop) Start() error {
	if _, err := s.cron.AddFunc(s.dailySpec, s.SendDailySummary); err != nil {
		return err
	}
	s.cron.Start()

	go func() {
		heartbeat := time.NewTicker(s.heartbeatEvery)
		summary := time.NewTicker(s.summaryEvery)
		defer heartbeat.Stop()
		defer summary.Stop()

		for {
			select {
			case <-s.done:
				return
			case <-heartbeat.C:
				s.feed.Ping()
			case <-summary.C:
				s.SendMarketSummary()
			}
		}
	}()

	log.Printf("⏰ Scheduler started (heartbeat %s, summary %s, daily %q)",
		s.heartbeatEvery, s.summaryEvery, s.dailySpec)
	return nil
}

// Stop halts the timers.
func (s *SchedulerLoop) Stop() {
	close(s.done)
	s.cron.Stop()
}

// SendMarketSummary posts the periodic market update to the channel.
func (s *SchedulerLoop) SendMarketSummary() {
	if !s.dispatcher.HasChannel() {
		return
	}
	text := s.formatter.MarketSummary(s.cache.Mids(), s.assets, s.stats.Snapshot())
	if err := s.dispatcher.NotifyChannel(text); err != nil {
		log.Printf("⚠️ Error sending market summary: %v", err)
	}
}

// SendDailySummary posts the daily digest and resets the daily counters.
func (s *SchedulerLoop) SendDailySummary() {
	if s.dispatcher.HasChannel() {
		text := s.formatter.DailySummary(s.stats.Snapshot())
		if err := s.dispatcher.NotifyChannel(text); err != nil {
			log.Printf("⚠️ Error sending daily summary: %v", err)
		}
	}
	s.stats.ResetDaily()
}
