package main

import (
	"testing"
	"time"
)

func TestReconnectDelaySchedule(t *testing.T) {
	base := 5000 * time.Millisecond
	want := []time.Duration{
		5000 * time.Millisecond,
		10000 * time.Millisecond,
		15000 * time.Millisecond,
		20000 * time.Millisecond,
		25000 * time.Millisecond,
	}
	for i, expected := range want {
		if got := ReconnectDelay(base, i+1); got != expected {
			t.Errorf("attempt %d: expected %s, got %s", i+1, expected, got)
		}
	}
}

func TestFatalSignalFiresOnce(t *testing.T) {
	fatals := make(chan struct{}, 10)
	feed := NewFeedConnection("ws://127.0.0.1:1/ws", []string{"BTC"}, 3, time.Millisecond,
		NewPriceCache(), NewWhaleDetector(50000),
		func(WhaleEvent) {},
		func() { fatals <- struct{}{} })

	done := make(chan struct{})
	go func() {
		feed.Run()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not give up after the attempt ceiling")
	}

	if n := len(fatals); n != 1 {
		t.Errorf("Expected fatal signal exactly once, got %d", n)
	}
	state := feed.State()
	if state.Status != StatusClosed {
		t.Errorf("Expected closed state, got %s", state.Status)
	}
	if state.ReconnectAttempts != 3 {
		t.Errorf("Expected attempts at ceiling 3, got %d", state.ReconnectAttempts)
	}
}

func newTestFeed(onWhale func(WhaleEvent)) (*FeedConnection, *PriceCache) {
	cache := NewPriceCache()
	feed := NewFeedConnection("", nil, 0, 0, cache, NewWhaleDetector(50000), onWhale, nil)
	return feed, cache
}

func TestHandleMessageRoutesTrades(t *testing.T) {
	var whales []WhaleEvent
	feed, _ := newTestFeed(func(ev WhaleEvent) { whales = append(whales, ev) })

	feed.handleMessage([]byte(`{"channel":"trades","data":[
		{"coin":"BTC","side":"A","px":"50000","sz":"2","time":1700000000000,"hash":"0xabc"},
		{"coin":"BTC","side":"B","px":"50000","sz":"0.1","time":1700000000001,"hash":"0xdef"},
		{"coin":"ETH","side":"A","px":"oops","sz":"1000","time":1700000000002,"hash":"0x123"}
	]}`))

	if len(whales) != 1 {
		t.Fatalf("Expected 1 whale, got %d", len(whales))
	}
	if whales[0].Trade.Hash != "0xabc" || whales[0].Notional != 100000 {
		t.Errorf("Unexpected whale: %+v", whales[0])
	}
}

func TestHandleMessageRoutesMids(t *testing.T) {
	feed, cache := newTestFeed(func(WhaleEvent) {})

	feed.handleMessage([]byte(`{"channel":"allMids","data":{"BTC":"50001.5","ETH":"3000","BAD":"x"}}`))

	if mid, ok := cache.Mid("BTC"); !ok || mid != 50001.5 {
		t.Errorf("Expected BTC mid 50001.5, got %f (ok=%v)", mid, ok)
	}
	if _, ok := cache.Mid("BAD"); ok {
		t.Error("Expected non-numeric mid to be skipped")
	}
}

func TestHandleMessageRoutesCandles(t *testing.T) {
	feed, cache := newTestFeed(func(WhaleEvent) {})

	// Volume as a string
	feed.handleMessage([]byte(`{"channel":"candle","data":{"coin":"BTC","v":"123.4"}}`))
	if vol, ok := cache.Volume("BTC"); !ok || vol != 123.4 {
		t.Errorf("Expected BTC volume 123.4, got %f (ok=%v)", vol, ok)
	}

	// Volume as a number, symbol under "s"
	feed.handleMessage([]byte(`{"channel":"candle","data":{"s":"ETH","v":42}}`))
	if vol, ok := cache.Volume("ETH"); !ok || vol != 42 {
		t.Errorf("Expected ETH volume 42, got %f (ok=%v)", vol, ok)
	}
}

func TestHandleMessageTolerant(t *testing.T) {
	called := false
	feed, cache := newTestFeed(func(WhaleEvent) { called = true })

	// Unknown topic is ignored
	feed.handleMessage([]byte(`{"channel":"orders","data":{"x":1}}`))
	// Malformed JSON is dropped without panicking
	feed.handleMessage([]byte(`{not json`))
	// Wrong payload shape for a known topic
	feed.handleMessage([]byte(`{"channel":"trades","data":{"not":"an array"}}`))

	if called {
		t.Error("Expected no whale callbacks from garbage input")
	}
	if cache.Len() != 0 {
		t.Error("Expected no cache writes from garbage input")
	}
}
