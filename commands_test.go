package main

import (
	"strings"
	"testing"
)

func newTestListener() *CommandListener {
	feed := NewFeedConnection("", nil, 0, 0, NewPriceCache(), NewWhaleDetector(50000), func(WhaleEvent) {}, nil)
	return &CommandListener{
		subs:      NewSubscriberStore(""),
		detector:  NewWhaleDetector(50000),
		formatter: NewMessageFormatter(true),
		feed:      feed,
		cache:     NewPriceCache(),
		stats:     NewStatsTracker(),
		assets:    []string{"BTC", "ETH", "SOL"},
		channelID: "@whalewatch",
	}
}

func TestStartSubscribes(t *testing.T) {
	cl := newTestListener()

	reply := cl.HandleCommand(100, "start", "")
	if !strings.Contains(reply, "Hyperliquid Whale Tracker Bot") {
		t.Errorf("Expected welcome message, got: %s", reply)
	}
	if cl.subs.Len() != 1 {
		t.Errorf("Expected /start to subscribe, set is %v", cl.subs.List())
	}
}

func TestSubscribeIdempotent(t *testing.T) {
	cl := newTestListener()

	cl.HandleCommand(100, "subscribe", "")
	cl.HandleCommand(100, "subscribe", "")
	if cl.subs.Len() != 1 {
		t.Errorf("Expected one entry after double subscribe, got %d", cl.subs.Len())
	}

	// Unsubscribing an unknown id is a no-op
	reply := cl.HandleCommand(999, "unsubscribe", "")
	if reply == "" {
		t.Error("Expected an unsubscribe reply even for unknown ids")
	}
	if cl.subs.Len() != 1 {
		t.Errorf("Expected set untouched, got %d", cl.subs.Len())
	}
}

func TestThresholdCommand(t *testing.T) {
	cl := newTestListener()

	// Below floor: rejected, prior threshold kept
	reply := cl.HandleCommand(100, "threshold", "500")
	if !strings.Contains(reply, "Minimum threshold is $1,000") {
		t.Errorf("Expected rejection reply, got: %s", reply)
	}
	if cl.detector.Threshold() != 50000 {
		t.Errorf("Expected threshold unchanged, got %f", cl.detector.Threshold())
	}

	// Valid
	reply = cl.HandleCommand(100, "threshold", "100000")
	if !strings.Contains(reply, "$100,000") {
		t.Errorf("Expected confirmation, got: %s", reply)
	}
	if cl.detector.Threshold() != 100000 {
		t.Errorf("Expected threshold 100000, got %f", cl.detector.Threshold())
	}

	// Garbage argument
	reply = cl.HandleCommand(100, "threshold", "lots")
	if !strings.Contains(reply, "Usage") {
		t.Errorf("Expected usage hint, got: %s", reply)
	}
}

func TestStatusCommand(t *testing.T) {
	cl := newTestListener()
	cl.subs.Add(100)
	cl.cache.SetMid("BTC", 50000)

	reply := cl.HandleCommand(100, "status", "")
	for _, want := range []string{
		"🔴 Disconnected",
		"Private Subscribers: 1",
		"Whale Threshold: $50,000",
		"Monitored Assets: 3",
		"Price Cache: 1 assets",
	} {
		if !strings.Contains(reply, want) {
			t.Errorf("Expected status to contain %q, got:\n%s", want, reply)
		}
	}
}

func TestAssetsAndTopCommands(t *testing.T) {
	cl := newTestListener()
	cl.stats.RecordWhale(WhaleEvent{Trade: Trade{Coin: "BTC", Side: "A"}, Notional: 300000})

	assets := cl.HandleCommand(100, "assets", "")
	if !strings.Contains(assets, "• BTC-PERP") || !strings.Contains(assets, "*Total:* 3 assets") {
		t.Errorf("Unexpected assets reply:\n%s", assets)
	}

	top := cl.HandleCommand(100, "top", "")
	if !strings.Contains(top, "BTC-PERP: $300,000 LONG") {
		t.Errorf("Unexpected top reply:\n%s", top)
	}
}

func TestUnknownCommandIgnored(t *testing.T) {
	cl := newTestListener()
	if reply := cl.HandleCommand(100, "moon", "when"); reply != "" {
		t.Errorf("Expected unknown command to be ignored, got: %s", reply)
	}
}
