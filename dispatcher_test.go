package main

import (
	"errors"
	"path/filepath"
	"testing"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// fakeSender records outbound messages and fails selected chats.
type fakeSender struct {
	sent     []tgbotapi.MessageConfig
	failWith map[int64]error
}

func (f *fakeSender) Send(c tgbotapi.Chattable) (tgbotapi.Message, error) {
	msg, ok := c.(tgbotapi.MessageConfig)
	if !ok {
		return tgbotapi.Message{}, errors.New("unexpected chattable")
	}
	f.sent = append(f.sent, msg)
	if err, ok := f.failWith[msg.ChatID]; ok && err != nil {
		return tgbotapi.Message{}, err
	}
	return tgbotapi.Message{}, nil
}

func (f *fakeSender) targets() []int64 {
	out := make([]int64, len(f.sent))
	for i, msg := range f.sent {
		out[i] = msg.ChatID
	}
	return out
}

func TestSubscriberStoreIdempotent(t *testing.T) {
	s := NewSubscriberStore("")

	if !s.Add(100) {
		t.Error("Expected first add to report a change")
	}
	if s.Add(100) {
		t.Error("Expected second add to be a no-op")
	}
	if s.Len() != 1 {
		t.Errorf("Expected 1 subscriber, got %d", s.Len())
	}

	if s.Remove(999) {
		t.Error("Expected removing unknown id to be a no-op")
	}
	if !s.Remove(100) {
		t.Error("Expected remove to report a change")
	}
	if s.Len() != 0 {
		t.Errorf("Expected empty set, got %d", s.Len())
	}
}

func TestSubscriberStorePersistence(t *testing.T) {
	file := filepath.Join(t.TempDir(), "subs.json")

	s := NewSubscriberStore(file)
	s.Add(100)
	s.Add(200)
	s.Add(300)
	s.Remove(200)

	reloaded := NewSubscriberStore(file)
	got := reloaded.List()
	if len(got) != 2 || got[0] != 100 || got[1] != 300 {
		t.Errorf("Expected [100 300] after reload, got %v", got)
	}
}

func TestBroadcastChannelFirst(t *testing.T) {
	sender := &fakeSender{}
	subs := NewSubscriberStore("")
	subs.Add(100)
	subs.Add(200)

	d := NewDispatcher(sender, "42", 0, subs, NewStatsTracker())
	sent := d.Broadcast("hello")

	if sent != 3 {
		t.Errorf("Expected 3 successful sends, got %d", sent)
	}
	targets := sender.targets()
	if len(targets) != 3 || targets[0] != 42 {
		t.Errorf("Expected channel first, got %v", targets)
	}
}

func TestBroadcastPrunesBlockedRecipient(t *testing.T) {
	blocked := &tgbotapi.Error{Code: 403, Message: "Forbidden: bot was blocked by the user"}
	sender := &fakeSender{failWith: map[int64]error{200: blocked}}
	subs := NewSubscriberStore("")
	subs.Add(100)
	subs.Add(200)
	subs.Add(300)

	d := NewDispatcher(sender, "", 0, subs, NewStatsTracker())
	sent := d.Broadcast("whale")

	if sent != 2 {
		t.Errorf("Expected 2 successful sends, got %d", sent)
	}
	// 200 is pruned, the others stay
	if subs.Len() != 2 {
		t.Errorf("Expected blocked subscriber pruned, set is %v", subs.List())
	}
	// No short-circuit: 300 was still attempted after 200 failed
	targets := sender.targets()
	if len(targets) != 3 || targets[2] != 300 {
		t.Errorf("Expected all recipients attempted in order, got %v", targets)
	}
}

func TestBroadcastKeepsTransientFailures(t *testing.T) {
	flaky := &tgbotapi.Error{Code: 429, Message: "Too Many Requests"}
	sender := &fakeSender{failWith: map[int64]error{100: flaky}}
	subs := NewSubscriberStore("")
	subs.Add(100)
	subs.Add(200)

	d := NewDispatcher(sender, "", 0, subs, NewStatsTracker())
	sent := d.Broadcast("whale")

	if sent != 1 {
		t.Errorf("Expected 1 successful send, got %d", sent)
	}
	if subs.Len() != 2 {
		t.Errorf("Expected transient failure to keep the subscriber, set is %v", subs.List())
	}
}

func TestChannelUsernameTarget(t *testing.T) {
	sender := &fakeSender{}
	d := NewDispatcher(sender, "@whalewatch", 0, NewSubscriberStore(""), nil)

	if err := d.NotifyChannel("hi"); err != nil {
		t.Fatalf("NotifyChannel: %v", err)
	}
	if len(sender.sent) != 1 || sender.sent[0].ChannelUsername != "@whalewatch" {
		t.Errorf("Expected @channel target, got %+v", sender.sent)
	}
}

func TestInvalidChannelIDDisablesChannel(t *testing.T) {
	sender := &fakeSender{}
	subs := NewSubscriberStore("")
	subs.Add(100)
	d := NewDispatcher(sender, "whalewatch", 0, subs, NewStatsTracker())

	// Neither numeric nor @username: the channel must be dropped, not
	// silently mapped to chat id 0.
	if d.HasChannel() {
		t.Error("Expected malformed channel id to disable the channel")
	}
	if sent := d.Broadcast("hi"); sent != 1 {
		t.Errorf("Expected subscriber-only delivery, got %d sends", sent)
	}
	for _, msg := range sender.sent {
		if msg.ChatID == 0 && msg.ChannelUsername == "" {
			t.Errorf("Unexpected send to chat id 0: %+v", msg)
		}
	}
}
