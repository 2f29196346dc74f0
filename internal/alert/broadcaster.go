// Package alert handles emergency broadcasts: a single active banner with
// timed auto-dismiss, and the send pipeline that fans an alert out.
package alert

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"edutrack/internal/metrics"
)

// Type is the severity of an emergency alert.
type Type string

const (
	TypeCritical Type = "CRITICAL"
	TypeUrgent   Type = "URGENT"
	TypeInfo     Type = "INFO"
)

// Target selects who the alert is pushed to.
type Target string

const (
	TargetAll      Target = "ALL"
	TargetTeachers Target = "TEACHERS"
	TargetParents  Target = "PARENTS"
)

// Alert is one emergency broadcast.
type Alert struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Message   string    `json:"message"`
	Type      Type      `json:"type"`
	Target    Target    `json:"target"`
	Timestamp time.Time `json:"timestamp"`
}

var (
	ErrTitleRequired   = errors.New("alert title required")
	ErrMessageRequired = errors.New("alert message required")
	ErrBadType         = errors.New("unknown alert type")
	ErrBadTarget       = errors.New("unknown alert target")
)

// Validate checks the composition form's required fields.
func (a Alert) Validate() error {
	if strings.TrimSpace(a.Title) == "" {
		return ErrTitleRequired
	}
	if strings.TrimSpace(a.Message) == "" {
		return ErrMessageRequired
	}
	switch a.Type {
	case TypeCritical, TypeUrgent, TypeInfo:
	default:
		return ErrBadType
	}
	switch a.Target {
	case TargetAll, TargetTeachers, TargetParents:
	default:
		return ErrBadTarget
	}
	return nil
}

// Broadcaster owns the single "current alert" slot. Triggering replaces
// whatever is showing; the banner clears itself after the display TTL
// unless dismissed first. Expiry timers carry an epoch so a stale timer
// never clears a newer alert.
type Broadcaster struct {
	ttl time.Duration
	now func() time.Time

	mu      sync.Mutex
	current *Alert
	epoch   uint64
}

// NewBroadcaster builds a broadcaster with the given display duration.
// A non-positive ttl falls back to the 8s banner default.
func NewBroadcaster(ttl time.Duration) *Broadcaster {
	if ttl <= 0 {
		ttl = 8 * time.Second
	}
	return &Broadcaster{ttl: ttl, now: time.Now}
}

// Trigger makes a the current alert and schedules its auto-dismiss.
// Missing id/timestamp are filled in.
func (b *Broadcaster) Trigger(a Alert) (Alert, error) {
	if err := a.Validate(); err != nil {
		return Alert{}, err
	}
	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	if a.Timestamp.IsZero() {
		a.Timestamp = b.now()
	}

	b.mu.Lock()
	b.current = &a
	b.epoch++
	epoch := b.epoch
	metrics.AlertActive.Set(1)
	b.mu.Unlock()

	time.AfterFunc(b.ttl, func() { b.expire(epoch) })
	return a, nil
}

// Current returns the active alert, or nil when the banner is clear.
func (b *Broadcaster) Current() *Alert {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.current == nil {
		return nil
	}
	a := *b.current
	return &a
}

// Dismiss clears the banner immediately.
func (b *Broadcaster) Dismiss() {
	b.mu.Lock()
	b.current = nil
	b.epoch++
	metrics.AlertActive.Set(0)
	b.mu.Unlock()
}

func (b *Broadcaster) expire(epoch uint64) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.epoch != epoch {
		return
	}
	b.current = nil
	b.epoch++
	metrics.AlertActive.Set(0)
}

// Dispatch lets the broadcaster sit at the end of a send pipeline.
func (b *Broadcaster) Dispatch(_ context.Context, a Alert) error {
	_, err := b.Trigger(a)
	return err
}
