package main

import (
	"fmt"
	"log"
	"strconv"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"hyperwhale/config"
)

// CommandListener polls Telegram updates and routes the recognized
// commands. Unrecognized text is ignored.
type CommandListener struct {
	bot        *tgbotapi.BotAPI
	dispatcher *Dispatcher
	subs       *SubscriberStore
	detector   *WhaleDetector
	formatter  *MessageFormatter
	feed       *FeedConnection
	cache      *PriceCache
	stats      *StatsTracker
	assets     []string
	channelID  string
}

func NewCommandListener(bot *tgbotapi.BotAPI, dispatcher *Dispatcher, subs *SubscriberStore,
	detector *WhaleDetector, formatter *MessageFormatter, feed *FeedConnection,
	cache *PriceCache, stats *StatsTracker, assets []string, channelID string) *CommandListener {
	return &CommandListener{
		bot:        bot,
		dispatcher: dispatcher,
		subs:       subs,
		detector:   detector,
		formatter:  formatter,
		feed:       feed,
		cache:      cache,
		stats:      stats,
		assets:     assets,
		channelID:  channelID,
	}
}

// Run blocks polling for updates. Run it on its own goroutine.
func (cl *CommandListener) Run() {
	log.Println("📢 TELEGRAM: Listening for commands...")
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60

	updates := cl.bot.GetUpdatesChan(u)
	for update := range updates {
		if update.Message == nil || !update.Message.IsCommand() {
			continue
		}
		chatID := update.Message.Chat.ID
		reply := cl.HandleCommand(chatID, update.Message.Command(), update.Message.CommandArguments())
		if reply == "" {
			continue
		}
		if err := cl.dispatcher.SendTo(chatID, reply); err != nil {
			log.Printf("⚠️ Error replying to %d: %v", chatID, err)
		}
	}
}

// HandleCommand maps one command to its reply text. An empty reply means
// the input is ignored.
func (cl *CommandListener) HandleCommand(chatID int64, command, args string) string {
	switch command {
	case "start":
		cl.subs.Add(chatID)
		return cl.formatter.Welcome(cl.detector.Threshold(), cl.channelID)

	case "subscribe":
		cl.subs.Add(chatID)
		return "✅ Subscribed to whale notifications!"

	case "unsubscribe":
		cl.subs.Remove(chatID)
		return "❌ Unsubscribed from whale notifications."

	case "status":
		return cl.formatter.StatusReport(
			cl.feed.IsConnected(),
			cl.subs.Len(),
			cl.channelID != "",
			cl.detector.Threshold(),
			len(cl.assets),
			cl.cache.Len(),
			cl.stats.Snapshot(),
		)

	case "threshold":
		value, err := strconv.Atoi(args)
		if err != nil {
			return "Usage: /threshold <amount>"
		}
		if !cl.detector.SetThreshold(float64(value)) {
			return fmt.Sprintf("❌ Minimum threshold is $%s", formatValue(config.MinWhaleThreshold))
		}
		return fmt.Sprintf("✅ Whale threshold set to $%s", formatValue(float64(value)))

	case "assets":
		return cl.formatter.AssetsList(cl.assets, cl.detector.Threshold())

	case "top":
		return cl.formatter.TopReport(cl.stats.Snapshot())
	}

	return ""
}
