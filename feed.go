package main

import (
	"encoding/json"
	"log"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// ============================================================================
// FEED CONNECTION
// ============================================================================

// ConnectionStatus is the lifecycle state of the feed connection.
type ConnectionStatus int

const (
	StatusConnecting ConnectionStatus = iota
	StatusOpen
	StatusClosed
)

func (s ConnectionStatus) String() string {
	switch s {
	case StatusConnecting:
		return "connecting"
	case StatusOpen:
		return "open"
	default:
		return "closed"
	}
}

// ConnectionState is a snapshot of the connection lifecycle for /status.
type ConnectionState struct {
	Status            ConnectionStatus
	ReconnectAttempts int
}

// FeedConnection manages the single streaming connection to the Hyperliquid
// WebSocket feed: connect, subscribe, route inbound messages, reconnect
// with linear backoff up to a ceiling, then give up and signal a fatal
// connectivity event exactly once.
type FeedConnection struct {
	url         string
	assets      []string
	maxAttempts int
	baseDelay   time.Duration
	dialer      *websocket.Dialer

	cache    *PriceCache
	detector *WhaleDetector
	onWhale  func(WhaleEvent)
	onFatal  func()

	mu       sync.Mutex
	conn     *websocket.Conn
	status   ConnectionStatus
	attempts int

	fatalOnce sync.Once
	done      chan struct{}
	closeOnce sync.Once
}

func NewFeedConnection(url string, assets []string, maxAttempts int, baseDelay time.Duration,
	cache *PriceCache, detector *WhaleDetector, onWhale func(WhaleEvent), onFatal func()) *FeedConnection {
	return &FeedConnection{
		url:         url,
		assets:      assets,
		maxAttempts: maxAttempts,
		baseDelay:   baseDelay,
		dialer:      websocket.DefaultDialer,
		cache:       cache,
		detector:    detector,
		onWhale:     onWhale,
		onFatal:     onFatal,
		status:      StatusClosed,
		done:        make(chan struct{}),
	}
}

// Run drives the connection lifecycle until Close is called or the
// reconnect ceiling is reached. Blocks; run it on its own goroutine.
func (f *FeedConnection) Run() {
	for {
		select {
		case <-f.done:
			return
		default:
		}

		f.transition(StatusConnecting)
		conn, _, err := f.dialer.Dial(f.url, nil)
		if err != nil {
			log.Printf("❌ Feed connection failed: %v", err)
			f.transition(StatusClosed)
			if !f.scheduleReconnect() {
				return
			}
			continue
		}

		f.mu.Lock()
		f.conn = conn
		f.mu.Unlock()
		f.transition(StatusOpen)
		log.Println("✅ Connected to Hyperliquid WebSocket")

		if err := f.subscribeAll(conn); err != nil {
			log.Printf("❌ Subscribe failed: %v", err)
		}

		f.readLoop(conn)

		f.mu.Lock()
		f.conn = nil
		f.mu.Unlock()
		f.transition(StatusClosed)

		select {
		case <-f.done:
			return
		default:
		}
		if !f.scheduleReconnect() {
			return
		}
	}
}

// transition is the single place connection state changes. A successful
// open resets the reconnect counter.
func (f *FeedConnection) transition(status ConnectionStatus) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.status = status
	if status == StatusOpen {
		f.attempts = 0
	}
}

// scheduleReconnect waits out the linear backoff before the next attempt.
// Delay grows 1x, 2x, 3x the base interval. Returns false once the attempt
// ceiling is reached, after firing the fatal signal exactly once.
func (f *FeedConnection) scheduleReconnect() bool {
	f.mu.Lock()
	if f.attempts >= f.maxAttempts {
		f.mu.Unlock()
		log.Println("🚨 Max reconnection attempts reached")
		f.fatalOnce.Do(func() {
			if f.onFatal != nil {
				f.onFatal()
			}
		})
		return false
	}
	f.attempts++
	attempt := f.attempts
	f.mu.Unlock()

	delay := ReconnectDelay(f.baseDelay, attempt)
	log.Printf("Attempting to reconnect... (%d/%d) in %s", attempt, f.maxAttempts, delay)

	select {
	case <-time.After(delay):
		return true
	case <-f.done:
		return false
	}
}

// ReconnectDelay is the linear backoff schedule: base * attempt.
func ReconnectDelay(base time.Duration, attempt int) time.Duration {
	return base * time.Duration(attempt)
}

func (f *FeedConnection) readLoop(conn *websocket.Conn) {
	for {
		_, message, err := conn.ReadMessage()
		if err != nil {
			log.Printf("❌ WebSocket read error: %v", err)
			conn.Close()
			return
		}
		f.handleMessage(message)
	}
}

// State returns the current lifecycle snapshot.
func (f *FeedConnection) State() ConnectionState {
	f.mu.Lock()
	defer f.mu.Unlock()
	return ConnectionState{Status: f.status, ReconnectAttempts: f.attempts}
}

// IsConnected reports whether the feed is open.
func (f *FeedConnection) IsConnected() bool {
	return f.State().Status == StatusOpen
}

// Ping sends a heartbeat frame. A no-op unless the connection is open.
func (f *FeedConnection) Ping() {
	f.mu.Lock()
	conn := f.conn
	open := f.status == StatusOpen
	f.mu.Unlock()
	if !open || conn == nil {
		return
	}
	if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(5*time.Second)); err != nil {
		log.Printf("⚠️ Heartbeat ping failed: %v", err)
	}
}

// Close stops the lifecycle loop and closes the current connection.
func (f *FeedConnection) Close() {
	f.closeOnce.Do(func() {
		close(f.done)
	})
	f.mu.Lock()
	conn := f.conn
	f.mu.Unlock()
	if conn != nil {
		conn.Close()
	}
}

// ============================================================================
// SUBSCRIPTIONS
// ============================================================================

type subscription struct {
	Type     string `json:"type"`
	Coin     string `json:"coin,omitempty"`
	Interval string `json:"interval,omitempty"`
}

type subscribeRequest struct {
	Method       string       `json:"method"`
	Subscription subscription `json:"subscription"`
}

// subscribeAll issues one subscription per asset for trades and candles,
// plus a single allMids subscription.
func (f *FeedConnection) subscribeAll(conn *websocket.Conn) error {
	for _, coin := range f.assets {
		if err := conn.WriteJSON(subscribeRequest{
			Method:       "subscribe",
			Subscription: subscription{Type: "trades", Coin: coin},
		}); err != nil {
			return err
		}
		log.Printf("📡 Subscribed to %s trades", coin)
	}

	if err := conn.WriteJSON(subscribeRequest{
		Method:       "subscribe",
		Subscription: subscription{Type: "allMids"},
	}); err != nil {
		return err
	}
	log.Println("📡 Subscribed to allMids")

	for _, coin := range f.assets {
		if err := conn.WriteJSON(subscribeRequest{
			Method:       "subscribe",
			Subscription: subscription{Type: "candle", Coin: coin, Interval: "1m"},
		}); err != nil {
			return err
		}
	}
	log.Println("📡 Subscribed to candles")
	return nil
}

// ============================================================================
// INBOUND ROUTER
// ============================================================================

type feedMessage struct {
	Channel string          `json:"channel"`
	Data    json.RawMessage `json:"data"`
}

// wireFloat decodes a JSON number or a numeric string.
type wireFloat float64

func (w *wireFloat) UnmarshalJSON(b []byte) error {
	s := strings.Trim(string(b), `"`)
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return err
	}
	*w = wireFloat(v)
	return nil
}

type candleUpdate struct {
	Coin   string    `json:"coin"`
	Symbol string    `json:"s"`
	Volume wireFloat `json:"v"`
}

// handleMessage routes one inbound frame by its channel discriminator.
// Parse failures are logged and dropped without tearing down the
// connection; unknown channels are ignored.
func (f *FeedConnection) handleMessage(raw []byte) {
	var msg feedMessage
	if err := json.Unmarshal(raw, &msg); err != nil {
		log.Printf("⚠️ Error parsing WebSocket message: %v", err)
		return
	}

	switch msg.Channel {
	case "trades":
		f.handleTrades(msg.Data)
	case "allMids":
		f.handleAllMids(msg.Data)
	case "candle":
		f.handleCandle(msg.Data)
	}
}

func (f *FeedConnection) handleTrades(data json.RawMessage) {
	var trades []Trade
	if err := json.Unmarshal(data, &trades); err != nil {
		log.Printf("⚠️ Error parsing trades payload: %v", err)
		return
	}
	for _, trade := range trades {
		if ev, ok := f.detector.Classify(trade); ok {
			f.onWhale(ev)
		}
	}
}

func (f *FeedConnection) handleAllMids(data json.RawMessage) {
	var mids map[string]string
	if err := json.Unmarshal(data, &mids); err != nil {
		log.Printf("⚠️ Error parsing allMids payload: %v", err)
		return
	}
	for coin, priceStr := range mids {
		if price, ok := parseFloat(priceStr); ok {
			f.cache.SetMid(coin, price)
		}
	}
}

func (f *FeedConnection) handleCandle(data json.RawMessage) {
	var candle candleUpdate
	if err := json.Unmarshal(data, &candle); err != nil {
		log.Printf("⚠️ Error parsing candle payload: %v", err)
		return
	}
	coin := candle.Coin
	if coin == "" {
		coin = candle.Symbol
	}
	if coin == "" {
		return
	}
	f.cache.SetVolume(coin, float64(candle.Volume))
}
