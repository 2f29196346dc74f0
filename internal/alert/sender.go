package alert

import (
	"context"
	"fmt"
	"time"
)

// Dispatcher delivers a validated alert to one destination: the on-screen
// banner, the guardian push queue, or a real push service.
type Dispatcher interface {
	Dispatch(ctx context.Context, a Alert) error
}

// DispatcherFunc adapts a function to the Dispatcher interface.
type DispatcherFunc func(ctx context.Context, a Alert) error

func (f DispatcherFunc) Dispatch(ctx context.Context, a Alert) error { return f(ctx, a) }

// Sender runs the management form's send pipeline: a fixed number of
// fixed-interval progress ticks (the stand-in for network latency),
// followed by dispatch to every destination.
type Sender struct {
	Ticks       int
	Interval    time.Duration
	Dispatchers []Dispatcher
}

// NewSender builds a sender; non-positive ticks/interval get the form's
// demo timings.
func NewSender(ticks int, interval time.Duration, dispatchers ...Dispatcher) *Sender {
	if ticks <= 0 {
		ticks = 10
	}
	if interval <= 0 {
		interval = 200 * time.Millisecond
	}
	return &Sender{Ticks: ticks, Interval: interval, Dispatchers: dispatchers}
}

// Send validates the alert, walks progress from 0 to 100 and dispatches.
// The progress callback may be nil. Cancelling the context aborts between
// ticks and nothing is dispatched.
func (s *Sender) Send(ctx context.Context, a Alert, progress func(pct int)) error {
	if err := a.Validate(); err != nil {
		return err
	}
	if progress != nil {
		progress(0)
	}
	ticker := time.NewTicker(s.Interval)
	defer ticker.Stop()
	for i := 1; i <= s.Ticks; i++ {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if progress != nil {
				progress(i * 100 / s.Ticks)
			}
		}
	}

	for _, d := range s.Dispatchers {
		if err := d.Dispatch(ctx, a); err != nil {
			return fmt.Errorf("alert dispatch: %w", err)
		}
	}
	return nil
}
