package main

import (
	"context"
	"encoding/json"
	"log"
	"os"
	"os/signal"
	"syscall"

	"edutrack/internal/alert"
	"edutrack/internal/config"
	"edutrack/internal/notify"
	"edutrack/internal/store"
)

// Notifier consumes guardian pings from the queue and delivers them. The
// demo delivery channel is the log; a real deployment would plug SMS or
// e-mail providers in here.
func main() {
	cfg := config.Load()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		log.Println("shutdown signal received")
		cancel()
	}()

	var q notify.Queue
	if cfg.QueueBackend == "memory" {
		// An in-memory queue is per-process; the notifier only makes
		// sense against the shared Redis backend.
		log.Println("QUEUE_BACKEND=memory: nothing to consume in a separate process, using redis")
	}
	redisClient := store.NewRedis(cfg.RedisAddr)
	defer redisClient.Close()
	q = notify.NewRedisQueue(redisClient.Client, "edutrack:notifications")

	messages, err := q.Consume(ctx)
	if err != nil {
		log.Fatalf("queue consume init failed: %v", err)
	}

	log.Println("notifier started, waiting for messages...")
	for msg := range messages {
		switch msg.Type {
		case "guardian-ping":
			ping, err := notify.DecodeGuardianPing(msg)
			if err != nil {
				log.Printf("decode guardian ping failed: %v", err)
				continue
			}
			deliver(ping)

		case "alert":
			var a alert.Alert
			if err := json.Unmarshal(msg.Body, &a); err != nil {
				log.Printf("decode alert failed: %v", err)
				continue
			}
			log.Printf("broadcast [%s→%s] %s: %s", a.Type, a.Target, a.Title, a.Message)
		}
	}

	log.Println("notifier stopped")
}

func deliver(p notify.GuardianPing) {
	contact := p.Contact
	if contact == "" {
		contact = "(no contact on file)"
	}
	log.Printf("notify %s %s: %s entrou na escola às %s (%s)",
		p.Guardian, contact, p.StudentName, p.Time, p.Status)
}
