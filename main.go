package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"hyperwhale/config"
)

func main() {
	log.Println("🚀 Starting Hyperliquid Whale Tracker Bot...")

	cfg := config.LoadConfig()
	log.Printf("📢 Channel ID: %s", cfg.ChannelID)
	log.Printf("🎯 Whale Threshold: $%.0f", cfg.WhaleThreshold)

	bot, err := tgbotapi.NewBotAPI(cfg.TelegramBotToken)
	if err != nil {
		log.Fatalf("❌ Failed to init Telegram Bot: %v", err)
	}
	log.Printf("✅ Authorized on account %s", bot.Self.UserName)

	cache := NewPriceCache()
	stats := NewStatsTracker()
	subs := NewSubscriberStore(cfg.SubscriberFile)
	detector := NewWhaleDetector(cfg.WhaleThreshold)
	dispatcher := NewDispatcher(bot, cfg.ChannelID, cfg.AdminChatID, subs, stats)

	// Top-level panic guard: report to the operator, then let external
	// supervision restart the process.
	defer func() {
		if r := recover(); r != nil {
			log.Printf("🚨 Uncaught panic: %v", r)
			dispatcher.NotifyAdmin(fmt.Sprintf("🚨 *Bot crashed:* %v\nRestart pending.", r))
			dispatcher.NotifyChannel("🚨 Bot hit an unexpected error and will restart...")
			os.Exit(1)
		}
	}()

	client := NewMarketDataClient(cfg.APIURL, cfg.RequestTimeout)
	enricher := NewAlertEnricher(client, cache, cfg)
	formatter := NewMessageFormatter(cfg.DetailedAlerts)

	pushService := NewPushService()
	go pushService.StartWorker()

	whaleChan := make(chan WhaleEvent, 64)

	onFatal := func() {
		text := "🚨 *Bot Connection Lost*\nFeed gave up reconnecting. Manual restart required."
		dispatcher.NotifyAdmin(text)
		if err := dispatcher.NotifyChannel(text); err != nil {
			log.Printf("⚠️ Failed to notify channel: %v", err)
		}
	}

	feed := NewFeedConnection(cfg.WSURL, cfg.Assets, cfg.MaxReconnectAttempts, cfg.ReconnectBaseDelay,
		cache, detector, func(ev WhaleEvent) {
			select {
			case whaleChan <- ev:
			default:
				log.Printf("⚠️ Whale queue full, dropping %s alert", ev.Trade.Coin)
			}
		}, onFatal)

	// Alert pipeline: whale -> enrich -> format -> broadcast (+push).
	go func() {
		for ev := range whaleChan {
			stats.RecordWhale(ev)
			go func(ev WhaleEvent) {
				defer func() {
					if r := recover(); r != nil {
						log.Printf("🚨 Alert pipeline panic: %v", r)
						dispatcher.NotifyAdmin(fmt.Sprintf("🚨 *Alert pipeline error:* %v", r))
					}
				}()

				snap := enricher.Enrich(context.Background(), ev)
				text := formatter.WhaleAlert(ev, snap)
				sent := dispatcher.Broadcast(text)
				pushService.SendWhaleAlert(ev)
				log.Printf("✅ Alert sent to %d recipients: %s $%.0f", sent, ev.Trade.Coin, ev.Notional)
			}(ev)
		}
	}()

	go feed.Run()

	scheduler := NewSchedulerLoop(feed, cache, stats, formatter, dispatcher, cfg.Assets,
		cfg.HeartbeatInterval, cfg.MarketSummaryInterval, cfg.DailySummarySpec)
	if err := scheduler.Start(); err != nil {
		log.Fatalf("❌ Failed to start scheduler: %v", err)
	}

	listener := NewCommandListener(bot, dispatcher, subs, detector, formatter, feed,
		cache, stats, cfg.Assets, cfg.ChannelID)
	go listener.Run()

	// Health endpoints.
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", SimpleHealthCheck)
	mux.HandleFunc("/ping", FeedHealthCheck(feed))
	go func() {
		log.Printf("🌐 Health server on %s", cfg.HealthAddr)
		if err := http.ListenAndServe(cfg.HealthAddr, mux); err != nil {
			log.Printf("⚠️ Health server stopped: %v", err)
		}
	}()

	// Channel connectivity test.
	if dispatcher.HasChannel() {
		if err := dispatcher.NotifyChannel("🤖 Bot connected and watching for whale movements!"); err != nil {
			log.Printf("❌ Channel connection test failed: %v", err)
		} else {
			log.Println("✅ Channel connection test successful")
		}
	}

	log.Println("✅ All systems go")

	// Graceful shutdown: close the feed, best-effort maintenance notice.
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	log.Println("Shutting down bot...")
	scheduler.Stop()
	feed.Close()
	if err := dispatcher.NotifyChannel("🔴 Bot going down for maintenance..."); err != nil {
		log.Printf("⚠️ Failed to send maintenance notice: %v", err)
	}
}
