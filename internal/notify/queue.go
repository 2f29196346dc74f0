// Package notify carries guardian notifications from the gate terminal to
// the delivery worker.
package notify

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"

	"edutrack/internal/metrics"
	"edutrack/internal/roster"
)

// Message is one notification on the wire.
type Message struct {
	Type string
	Body []byte
}

// GuardianPing tells a guardian their student passed the gate.
type GuardianPing struct {
	StudentID   string        `json:"student_id"`
	StudentName string        `json:"student_name"`
	Guardian    string        `json:"guardian"`
	Contact     string        `json:"contact"`
	Status      roster.Status `json:"status"`
	Time        string        `json:"time"`
}

// NewGuardianMessage encodes a ping as a queue message.
func NewGuardianMessage(p GuardianPing) (Message, error) {
	body, err := json.Marshal(p)
	if err != nil {
		return Message{}, err
	}
	return Message{Type: "guardian-ping", Body: body}, nil
}

// DecodeGuardianPing reads a ping back out of a message body.
func DecodeGuardianPing(m Message) (GuardianPing, error) {
	var p GuardianPing
	err := json.Unmarshal(m.Body, &p)
	return p, err
}

// PublishGuardianPing encodes and publishes a ping, counting it as
// published once the queue accepted it.
func PublishGuardianPing(ctx context.Context, q Queue, p GuardianPing) error {
	msg, err := NewGuardianMessage(p)
	if err != nil {
		return err
	}
	if err := q.Publish(ctx, msg); err != nil {
		return err
	}
	metrics.NotificationsTotal.Inc()
	return nil
}

// Queue is the abstraction over different backends.
type Queue interface {
	Publish(ctx context.Context, msg Message) error
	Consume(ctx context.Context) (<-chan Message, error)
}

// InMemory is a minimal channel-backed queue for dev/testing.
type InMemory struct {
	ch chan Message
}

// NewInMemory creates a bounded in-memory queue.
func NewInMemory(size int) *InMemory {
	return &InMemory{ch: make(chan Message, size)}
}

// Publish enqueues a message.
func (q *InMemory) Publish(ctx context.Context, msg Message) error {
	select {
	case q.ch <- msg:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Consume returns a channel for workers.
func (q *InMemory) Consume(ctx context.Context) (<-chan Message, error) {
	out := make(chan Message)
	go func() {
		defer close(out)
		for {
			select {
			case msg := <-q.ch:
				out <- msg
			case <-ctx.Done():
				return
			}
		}
	}()
	return out, nil
}

// RedisQueue implements a simple Redis list-backed queue.
type RedisQueue struct {
	client *redis.Client
	key    string
}

// NewRedisQueue builds a queue using LPUSH/BRPOP semantics.
func NewRedisQueue(client *redis.Client, key string) *RedisQueue {
	if key == "" {
		key = "edutrack:notifications"
	}
	return &RedisQueue{client: client, key: key}
}

// Publish enqueues a message.
func (q *RedisQueue) Publish(ctx context.Context, msg Message) error {
	return q.client.LPush(ctx, q.key, serialize(msg)).Err()
}

// Consume streams messages using BRPOP.
func (q *RedisQueue) Consume(ctx context.Context) (<-chan Message, error) {
	out := make(chan Message)
	go func() {
		defer close(out)
		for {
			res, err := q.client.BRPop(ctx, 5*time.Second, q.key).Result()
			if err != nil {
				if err == redis.Nil {
					continue
				}
				if ctx.Err() != nil {
					return
				}
				continue
			}
			if len(res) == 2 {
				if msg, err := deserialize(res[1]); err == nil {
					out <- msg
				}
			}
		}
	}()
	return out, nil
}

// serialize is a tiny helper to store messages as Type|Body.
func serialize(msg Message) string {
	return msg.Type + "|" + string(msg.Body)
}

func deserialize(s string) (Message, error) {
	for i, r := range s {
		if r == '|' {
			return Message{Type: s[:i], Body: []byte(s[i+1:])}, nil
		}
	}
	return Message{Body: []byte(s)}, nil
}
