package main

import (
	"context"
	"fmt"
	"log"
	"os"

	firebase "firebase.google.com/go"
	"firebase.google.com/go/messaging"
	"google.golang.org/api/option"
)

// PushService mirrors mega-whale alerts to FCM topic subscribers (the
// mobile app audience). Optional: a nil service is returned when no
// credentials file is present, and every method is nil-safe.
type PushService struct {
	client *messaging.Client
	app    *firebase.App
	queue  chan pushMessage
}

type pushMessage struct {
	Topic string
	Title string
	Body  string
	Data  map[string]string
}

func NewPushService() *PushService {
	credFile := "serviceAccountKey.json"
	if _, err := os.Stat(credFile); os.IsNotExist(err) {
		log.Println("⚠️ FCM: serviceAccountKey.json not found in root. Push notifications disabled.")
		return nil
	}

	opt := option.WithCredentialsFile(credFile)
	app, err := firebase.NewApp(context.Background(), nil, opt)
	if err != nil {
		log.Printf("⚠️ FCM: Error initializing app: %v", err)
		return nil
	}

	client, err := app.Messaging(context.Background())
	if err != nil {
		log.Printf("⚠️ FCM: Error getting messaging client: %v", err)
		return nil
	}

	log.Println("✅ FCM Push Service Initialized (serviceAccountKey.json)")
	return &PushService{
		client: client,
		app:    app,
		queue:  make(chan pushMessage, 500),
	}
}

// StartWorker drains the queue, sending pushes one at a time.
func (ps *PushService) StartWorker() {
	if ps == nil {
		return
	}
	log.Println("🚀 Push Worker Started")
	for msg := range ps.queue {
		message := &messaging.Message{
			Notification: &messaging.Notification{
				Title: msg.Title,
				Body:  msg.Body,
			},
			Data:  msg.Data,
			Topic: msg.Topic,
		}

		response, err := ps.client.Send(context.Background(), message)
		if err != nil {
			log.Printf("⚠️ FCM Send Error: %v", err)
		} else {
			log.Printf("📲 Push Sent: %s (MSG ID: %s)", msg.Body, response)
		}
	}
}

// SendWhaleAlert queues a push for a mega-level whale. Drops the message
// instead of blocking when the queue is full.
func (ps *PushService) SendWhaleAlert(ev WhaleEvent) {
	if ps == nil || ps.client == nil {
		return
	}
	level := GetWhaleLevel(ev.Notional)
	if !level.IsMega() {
		return
	}

	side, _ := sideLabel(ev.Trade)
	valueStr := fmt.Sprintf("$%.1fM", ev.Notional/1_000_000)

	select {
	case ps.queue <- pushMessage{
		Topic: "ALL_WHALES",
		Title: fmt.Sprintf("%s %s", level.Icon, level.Name),
		Body:  fmt.Sprintf("%s %s %s detected!", valueStr, ev.Trade.Coin, side),
		Data: map[string]string{
			"symbol": ev.Trade.Coin,
			"value":  fmt.Sprintf("%.0f", ev.Notional),
			"price":  ev.Trade.Px,
			"side":   side,
		},
	}:
	default:
		log.Println("⚠️ Push Queue Full! Dropping alert.")
	}
}
