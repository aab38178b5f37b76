package main

import (
	"encoding/json"
	"errors"
	"log"
	"os"
	"sort"
	"strconv"
	"strings"
	"sync"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// ============================================================================
// SUBSCRIBER STORE
// ============================================================================

// SubscriberStore is the set of private chat ids receiving alerts.
// Membership changes are idempotent. The set is snapshotted to a JSON file
// on every change so subscribers survive a restart.
type SubscriberStore struct {
	mu   sync.RWMutex
	ids  map[int64]struct{}
	file string
}

func NewSubscriberStore(file string) *SubscriberStore {
	s := &SubscriberStore{
		ids:  make(map[int64]struct{}),
		file: file,
	}
	s.load()
	return s
}

// Add subscribes a chat id. Returns false if it was already subscribed.
func (s *SubscriberStore) Add(id int64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.ids[id]; ok {
		return false
	}
	s.ids[id] = struct{}{}
	s.save()
	return true
}

// Remove unsubscribes a chat id. A no-op for unknown ids.
func (s *SubscriberStore) Remove(id int64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.ids[id]; !ok {
		return false
	}
	delete(s.ids, id)
	s.save()
	return true
}

// List returns the current members in ascending order.
func (s *SubscriberStore) List() []int64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]int64, 0, len(s.ids))
	for id := range s.ids {
		out = append(out, id)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

func (s *SubscriberStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.ids)
}

// load reads the snapshot file. Missing file means an empty set.
func (s *SubscriberStore) load() {
	if s.file == "" {
		return
	}
	data, err := os.ReadFile(s.file)
	if err != nil {
		return
	}
	var ids []int64
	if err := json.Unmarshal(data, &ids); err != nil {
		log.Printf("⚠️ Failed to parse subscriber file: %v", err)
		return
	}
	for _, id := range ids {
		s.ids[id] = struct{}{}
	}
	log.Printf("✅ Loaded %d persisted subscribers", len(ids))
}

// save writes the snapshot. Caller holds the lock.
func (s *SubscriberStore) save() {
	if s.file == "" {
		return
	}
	ids := make([]int64, 0, len(s.ids))
	for id := range s.ids {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	data, _ := json.Marshal(ids)
	if err := os.WriteFile(s.file, data, 0644); err != nil {
		log.Printf("⚠️ Failed to save subscribers: %v", err)
	}
}

// ============================================================================
// DISPATCHER
// ============================================================================

// telegramSender is the slice of the Telegram bot API the dispatcher needs.
// *tgbotapi.BotAPI satisfies it.
type telegramSender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

// Dispatcher fans a formatted message out to the broadcast channel and the
// subscriber set. Best effort: no retry, no ordering guarantee, failures
// isolated per recipient.
type Dispatcher struct {
	bot       telegramSender
	channelID string // numeric chat id or @channelname, empty = no channel
	adminID   int64
	subs      *SubscriberStore
	stats     *StatsTracker
}

func NewDispatcher(bot telegramSender, channelID string, adminID int64, subs *SubscriberStore, stats *StatsTracker) *Dispatcher {
	if channelID != "" && !strings.HasPrefix(channelID, "@") {
		if _, err := strconv.ParseInt(channelID, 10, 64); err != nil {
			log.Printf("❌ Invalid CHANNEL_ID %q (want numeric id or @channelname), channel broadcasts disabled", channelID)
			channelID = ""
		}
	}
	return &Dispatcher{
		bot:       bot,
		channelID: channelID,
		adminID:   adminID,
		subs:      subs,
		stats:     stats,
	}
}

// Broadcast sends to the channel first, then every subscriber. A recipient
// that permanently rejects delivery (bot blocked) is pruned from the set;
// any other failure is logged and the recipient kept. Returns the number
// of successful sends.
func (d *Dispatcher) Broadcast(text string) int {
	sent := 0

	if d.channelID != "" {
		if err := d.sendTo(d.channelMessage(text)); err != nil {
			log.Printf("❌ Error sending to channel: %v", err)
		} else {
			sent++
		}
	}

	for _, chatID := range d.subs.List() {
		if err := d.SendTo(chatID, text); err != nil {
			if isPermanentFailure(err) {
				d.subs.Remove(chatID)
				log.Printf("🗑 Removed blocked subscriber: %d", chatID)
			} else {
				log.Printf("⚠️ Error sending to %d: %v", chatID, err)
			}
			continue
		}
		sent++
	}

	if d.stats != nil && sent > 0 {
		d.stats.RecordMessages(sent)
	}
	return sent
}

// SendTo delivers a single message to one chat.
func (d *Dispatcher) SendTo(chatID int64, text string) error {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = tgbotapi.ModeMarkdown
	msg.DisableWebPagePreview = true
	return d.sendTo(msg)
}

// NotifyChannel sends to the broadcast channel only.
func (d *Dispatcher) NotifyChannel(text string) error {
	if d.channelID == "" {
		return nil
	}
	return d.sendTo(d.channelMessage(text))
}

// NotifyAdmin sends an operator-facing message to the admin chat.
func (d *Dispatcher) NotifyAdmin(text string) {
	if d.adminID == 0 {
		return
	}
	if err := d.SendTo(d.adminID, text); err != nil {
		log.Printf("⚠️ Failed to notify admin: %v", err)
	}
}

// HasChannel reports whether a broadcast channel is configured.
func (d *Dispatcher) HasChannel() bool {
	return d.channelID != ""
}

func (d *Dispatcher) channelMessage(text string) tgbotapi.MessageConfig {
	var msg tgbotapi.MessageConfig
	if strings.HasPrefix(d.channelID, "@") {
		msg = tgbotapi.NewMessageToChannel(d.channelID, text)
	} else {
		id, _ := strconv.ParseInt(d.channelID, 10, 64)
		msg = tgbotapi.NewMessage(id, text)
	}
	msg.ParseMode = tgbotapi.ModeMarkdown
	msg.DisableWebPagePreview = true
	return msg
}

func (d *Dispatcher) sendTo(msg tgbotapi.MessageConfig) error {
	_, err := d.bot.Send(msg)
	return err
}

// isPermanentFailure reports whether the delivery error means the recipient
// is unreachable for good (bot blocked or chat gone).
func isPermanentFailure(err error) bool {
	var apiErr *tgbotapi.Error
	if errors.As(err, &apiErr) {
		return apiErr.Code == 403
	}
	return false
}
