package main

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"
)

// ============================================================================
// MESSAGE FORMATTER
// ============================================================================

// MessageFormatter renders view-models into Telegram Markdown. Pure string
// work, no I/O. The detailed flag switches between the rich alert with the
// market-data block and the short one-glance variant.
type MessageFormatter struct {
	detailed bool
}

func NewMessageFormatter(detailed bool) *MessageFormatter {
	return &MessageFormatter{detailed: detailed}
}

// WhaleAlert renders a qualifying trade. A nil snapshot renders a loading
// placeholder instead of dropping the message. Missing fields render as
// "N/A", never as an error.
func (f *MessageFormatter) WhaleAlert(ev WhaleEvent, snap *MarketSnapshot) string {
	level := GetWhaleLevel(ev.Notional)
	side, sideIcon := sideLabel(ev.Trade)

	price, _ := ev.Trade.Price()
	size, _ := ev.Trade.Size()

	if !f.detailed {
		return fmt.Sprintf("%s *%s* %s\n%s-PERP | %s\n💰 $%s @ $%s\n\n#%s #%s #Hyperliquid",
			level.Icon, level.Name, sideIcon,
			ev.Trade.Coin, side,
			formatValue(ev.Notional), formatPrice(price),
			level.Tag, ev.Trade.Coin)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%s *%s* %s\n\n", level.Icon, level.Name, sideIcon)
	fmt.Fprintf(&b, "🏷 *%s-PERP* | %s Position\n", ev.Trade.Coin, side)
	fmt.Fprintf(&b, "💰 *Value:* $%s\n", formatValue(ev.Notional))
	fmt.Fprintf(&b, "📊 *Size:* %s %s\n", formatSize(size), ev.Trade.Coin)
	fmt.Fprintf(&b, "💵 *Price:* $%s\n\n", formatPrice(price))

	b.WriteString("📈 *Market Data:*\n")
	if snap == nil {
		b.WriteString("⏳ Loading market data...\n")
	} else {
		fmt.Fprintf(&b, "• Mark Price: $%s\n", snap.MarkPrice)
		fmt.Fprintf(&b, "• 24h Change: %s%%\n", snap.PriceChange24h)
		fmt.Fprintf(&b, "• Price Impact: %s%%\n", snap.PriceImpact)
		fmt.Fprintf(&b, "• 24h Volume: $%s\n", snap.Volume24h)
		fmt.Fprintf(&b, "• Open Interest: $%s\n", snap.OpenInterest)
		fmt.Fprintf(&b, "• OI Change: %s\n", snap.OiChange)
		fmt.Fprintf(&b, "• Funding Rate: %s%%\n", snap.FundingRate)
		fmt.Fprintf(&b, "• Next Funding: %s\n\n", snap.NextFunding)

		b.WriteString("⚡ *Trade Metrics:*\n")
		fmt.Fprintf(&b, "• Estimated Leverage: %sx\n", snap.EstimatedLeverage)
		fmt.Fprintf(&b, "• Liquidation Risk: %s\n", snap.LiquidationRisk)
		fmt.Fprintf(&b, "• Market Impact: %s\n", snap.MarketImpact)
	}

	fmt.Fprintf(&b, "\n🕐 *Time:* %s\n", time.UnixMilli(ev.Trade.Time).Format("02 Jan 2006 15:04:05"))
	fmt.Fprintf(&b, "🔗 *Trade:* [View on Hyperliquid](https://app.hyperliquid.xyz/trade/%s)\n", ev.Trade.Coin)
	fmt.Fprintf(&b, "🧾 *Transaction:* [%s...](https://hyperliquid.xyz/tx/%s)\n\n", shortHash(ev.Trade.Hash), ev.Trade.Hash)

	fmt.Fprintf(&b, "%s\n\n", marketSentiment(ev.Trade.Coin, side))
	fmt.Fprintf(&b, "#%s #%s #%s #Hyperliquid", level.Tag, ev.Trade.Coin, side)

	return b.String()
}

// Welcome renders the /start reply.
func (f *MessageFormatter) Welcome(threshold float64, channel string) string {
	if channel == "" {
		channel = "Channel not configured"
	}
	return fmt.Sprintf(`🐋 *Hyperliquid Whale Tracker Bot*

Welcome! This bot sends real-time notifications about:
• Whale movements in perpetual futures (>$%s)
• Large long/short positions with leverage info
• High trading volume and unusual activity
• Open interest changes and funding rate impacts

*Commands:*
/subscribe - Subscribe to notifications
/unsubscribe - Unsubscribe from notifications
/status - Bot connection status
/threshold [amount] - Set minimum whale threshold
/assets - List monitored assets
/top - Top whale activity today

The bot is live! 🚀

*Join Channel:* %s`, formatValue(threshold), channel)
}

// StatusReport renders the /status reply.
func (f *MessageFormatter) StatusReport(connected bool, subscribers int, channelConfigured bool, threshold float64, assets, cachedPrices int, stats StatsSnapshot) string {
	connection := "🔴 Disconnected"
	if connected {
		connection = "🟢 Connected"
	}
	channel := "❌ Not configured"
	if channelConfigured {
		channel = "✅ Connected"
	}
	return fmt.Sprintf(`*Bot Status:*
Connection: %s
Private Subscribers: %d
Channel: %s
Whale Threshold: $%s
Monitored Assets: %d
Price Cache: %d assets

*Recent Activity:*
• Messages sent: %d
• Whales detected today: %d
• Uptime: %s`,
		connection, subscribers, channel, formatValue(threshold), assets, cachedPrices,
		stats.MessagesSent, stats.WhalesToday, FormatUptime(stats.Uptime))
}

// AssetsList renders the /assets reply.
func (f *MessageFormatter) AssetsList(assets []string, threshold float64) string {
	var b strings.Builder
	b.WriteString("*Monitored assets:*\n")
	for _, asset := range assets {
		fmt.Fprintf(&b, "• %s-PERP\n", asset)
	}
	fmt.Fprintf(&b, "\n*Total:* %d assets\n*Threshold:* $%s+ trades", len(assets), formatValue(threshold))
	return b.String()
}

// TopReport renders the /top reply from today's tracked whales.
func (f *MessageFormatter) TopReport(stats StatsSnapshot) string {
	var b strings.Builder
	b.WriteString("📊 *Top Whale Activity Today*\n\n")

	b.WriteString("🥇 *Biggest Trades:*\n")
	if len(stats.BiggestTrades) == 0 {
		b.WriteString("• No whales detected yet\n")
	}
	for _, ev := range stats.BiggestTrades {
		side, _ := sideLabel(ev.Trade)
		fmt.Fprintf(&b, "• %s-PERP: $%s %s\n", ev.Trade.Coin, formatValue(ev.Notional), side)
	}

	b.WriteString("\n🔥 *Most Active Assets:*\n")
	for _, entry := range sortedAssetCounts(stats.WhalesByAsset) {
		fmt.Fprintf(&b, "• %s: %d whale trades\n", entry.coin, entry.count)
	}

	fmt.Fprintf(&b, "\n💰 *Total Whale Volume:* $%s\n", formatValue(stats.WhaleVolume))
	fmt.Fprintf(&b, "⏰ *Last Updated:* %s", time.Now().Format("02 Jan 2006 15:04:05"))
	return b.String()
}

// MarketSummary renders the periodic market update for the channel.
func (f *MessageFormatter) MarketSummary(mids map[string]float64, assets []string, stats StatsSnapshot) string {
	var b strings.Builder
	b.WriteString("📊 *Hyperliquid Market Update*\n\n")

	b.WriteString("💹 *Current Prices:*\n")
	listed := 0
	for _, asset := range assets {
		if mid, ok := mids[asset]; ok {
			fmt.Fprintf(&b, "• %s: $%s\n", asset, formatPrice(mid))
			listed++
		}
	}
	if listed == 0 {
		b.WriteString("• Waiting for price feed...\n")
	}

	b.WriteString("\n🐋 *Whale Activity Today:*\n")
	fmt.Fprintf(&b, "• Whales Detected: %d\n", stats.WhalesToday)
	fmt.Fprintf(&b, "• Total Volume: $%s\n", formatValue(stats.WhaleVolume))
	if len(stats.BiggestTrades) > 0 {
		top := stats.BiggestTrades[0]
		fmt.Fprintf(&b, "• Biggest Trade: $%s %s\n", formatValue(top.Notional), top.Trade.Coin)
	}

	b.WriteString("\n#MarketUpdate #Hyperliquid")
	return b.String()
}

// DailySummary renders the end-of-day digest for the channel.
func (f *MessageFormatter) DailySummary(stats StatsSnapshot) string {
	var b strings.Builder
	b.WriteString("📈 *Daily Hyperliquid Summary*\n\n")

	b.WriteString("🐋 *Whale Highlights:*\n")
	if len(stats.BiggestTrades) > 0 {
		top := stats.BiggestTrades[0]
		side, _ := sideLabel(top.Trade)
		fmt.Fprintf(&b, "• Biggest Trade: $%s %s %s\n", formatValue(top.Notional), top.Trade.Coin, side)
	} else {
		b.WriteString("• No whales detected today\n")
	}
	fmt.Fprintf(&b, "• Total Whale Volume: $%s\n", formatValue(stats.WhaleVolume))
	fmt.Fprintf(&b, "• Whale Trades: %d\n", stats.WhalesToday)

	b.WriteString("\n🔥 *Most Active Assets:*\n")
	counts := sortedAssetCounts(stats.WhalesByAsset)
	if len(counts) == 0 {
		b.WriteString("• Quiet day across the board\n")
	}
	for _, entry := range counts {
		fmt.Fprintf(&b, "• %s: %d whale trades\n", entry.coin, entry.count)
	}

	b.WriteString("\n#DailySummary #Hyperliquid\n*Next update in 24 hours*")
	return b.String()
}

// ============================================================================
// HELPERS
// ============================================================================

func sideLabel(t Trade) (string, string) {
	if t.IsLong() {
		return "LONG", "🟢📈"
	}
	return "SHORT", "🔴📉"
}

func shortHash(hash string) string {
	if len(hash) <= 8 {
		return hash
	}
	return hash[:8]
}

var sentiments = map[string][2]string{
	"BTC": {"🚀 *Bitcoin bulls stepping in!*", "🐻 *Bitcoin bears taking control!*"},
	"ETH": {"⚡ *Ethereum momentum building!*", "📉 *Ethereum under pressure!*"},
	"SOL": {"☀️ *Solana heating up!*", "🌧 *Solana cooling down!*"},
}

func marketSentiment(coin, side string) string {
	idx := 1
	if side == "LONG" {
		idx = 0
	}
	if pair, ok := sentiments[coin]; ok {
		return pair[idx]
	}
	if side == "LONG" {
		return "📈 *Bullish momentum detected!*"
	}
	return "📉 *Bearish pressure increasing!*"
}

type assetCount struct {
	coin  string
	count int64
}

func sortedAssetCounts(byAsset map[string]int64) []assetCount {
	out := make([]assetCount, 0, len(byAsset))
	for coin, count := range byAsset {
		out = append(out, assetCount{coin, count})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].count != out[j].count {
			return out[i].count > out[j].count
		}
		return out[i].coin < out[j].coin
	})
	return out
}

// formatValue renders a notional with thousands separators, no decimals.
func formatValue(v float64) string {
	return addCommas(strconv.FormatFloat(v, 'f', 0, 64))
}

// formatPrice renders a price with thousands separators, up to 6 decimals.
func formatPrice(v float64) string {
	return addCommas(trimZeros(strconv.FormatFloat(v, 'f', 6, 64)))
}

// formatSize renders a trade size with up to 4 decimals.
func formatSize(v float64) string {
	return addCommas(trimZeros(strconv.FormatFloat(v, 'f', 4, 64)))
}

// formatUSD renders a dollar amount with separators, up to 2 decimals.
func formatUSD(v float64) string {
	return addCommas(trimZeros(strconv.FormatFloat(v, 'f', 2, 64)))
}

func trimZeros(s string) string {
	if !strings.Contains(s, ".") {
		return s
	}
	s = strings.TrimRight(s, "0")
	return strings.TrimSuffix(s, ".")
}

// addCommas inserts thousands separators into the integer part of a
// formatted decimal string.
func addCommas(s string) string {
	neg := strings.HasPrefix(s, "-")
	if neg {
		s = s[1:]
	}
	intPart, frac := s, ""
	if i := strings.Index(s, "."); i >= 0 {
		intPart, frac = s[:i], s[i:]
	}

	var b strings.Builder
	for i, r := range intPart {
		if i > 0 && (len(intPart)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(r)
	}

	out := b.String() + frac
	if neg {
		out = "-" + out
	}
	return out
}
