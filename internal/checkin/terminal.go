// Package checkin drives the portaria terminal: a small state machine over
// IDLE, SCANNING, SUCCESS and ERROR that identifies a student, stamps the
// roster and keeps the day's entry journal.
package checkin

import (
	"context"
	"errors"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"

	"edutrack/internal/metrics"
	"edutrack/internal/roster"
)

// State of the terminal screen.
type State string

const (
	StateIdle     State = "IDLE"
	StateScanning State = "SCANNING"
	StateSuccess  State = "SUCCESS"
	StateError    State = "ERROR"
)

// Method selects how a student is identified at the gate.
type Method string

const (
	MethodFacial Method = "FACIAL"
	MethodQR     Method = "QR"
	MethodManual Method = "MANUAL"
)

// ErrNotIdle is returned when a scan starts while another is in flight.
var ErrNotIdle = errors.New("terminal is not idle")

// LogEntry is one line of the terminal's entry journal.
type LogEntry struct {
	ID     string        `json:"id"`
	Name   string        `json:"name"`
	Time   string        `json:"time"`
	Status roster.Status `json:"status"`
	Kind   string        `json:"kind"` // always "ENTRADA" at the gate
}

const journalCap = 200

// Notification is handed to the notify hook when a check-in succeeds, so
// guardians can be told their student arrived.
type Notification struct {
	StudentID   string
	StudentName string
	Guardian    string
	Contact     string
	Status      roster.Status
	Time        string
}

// Options configures a Terminal. Roster and Matchers are mandatory; zero
// durations fall back to the demo timings.
type Options struct {
	Roster   *roster.Store
	Matchers map[Method]Matcher
	Camera   CameraProvider
	Cutoff   Cutoff
	// ScanDelay is the simulated read time before evaluation.
	ScanDelay time.Duration
	// SuccessHold is how long SUCCESS stays before reverting to IDLE.
	SuccessHold time.Duration
	// Now is the clock; defaults to time.Now.
	Now func() time.Time
	// Notify receives a guardian notification per successful check-in.
	Notify func(Notification)
}

// Terminal is safe for concurrent use; timer callbacks carry the epoch at
// which they were scheduled and no-op if any transition happened since.
type Terminal struct {
	roster   *roster.Store
	matchers map[Method]Matcher
	camera   CameraProvider
	cutoff   Cutoff
	scan     time.Duration
	hold     time.Duration
	now      func() time.Time
	notify   func(Notification)

	mu      sync.Mutex
	state   State
	method  Method
	epoch   uint64
	matched *roster.Student
	errMsg  string
	capture Capture
	journal []LogEntry
}

// NewTerminal builds an idle facial-method terminal.
func NewTerminal(opts Options) *Terminal {
	if opts.ScanDelay <= 0 {
		opts.ScanDelay = 3 * time.Second
	}
	if opts.SuccessHold <= 0 {
		opts.SuccessHold = 3 * time.Second
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.Cutoff == (Cutoff{}) {
		opts.Cutoff = Cutoff{Hour: 8, Minute: 15}
	}
	return &Terminal{
		roster:   opts.Roster,
		matchers: opts.Matchers,
		camera:   opts.Camera,
		cutoff:   opts.Cutoff,
		scan:     opts.ScanDelay,
		hold:     opts.SuccessHold,
		now:      opts.Now,
		notify:   opts.Notify,
		state:    StateIdle,
		method:   MethodFacial,
	}
}

// State returns the current screen state.
func (t *Terminal) State() State {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.state
}

// Method returns the active identification method.
func (t *Terminal) Method() Method {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.method
}

// Matched returns the student shown on the SUCCESS screen, or nil.
func (t *Terminal) Matched() *roster.Student {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.matched == nil {
		return nil
	}
	st := *t.matched
	return &st
}

// ErrorMessage returns the operator-facing text of the last error.
func (t *Terminal) ErrorMessage() string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.errMsg
}

// Journal returns the day's entries, newest first.
func (t *Terminal) Journal() []LogEntry {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]LogEntry, len(t.journal))
	copy(out, t.journal)
	return out
}

// ClearJournal drops the (ephemeral) entry history.
func (t *Terminal) ClearJournal() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.journal = nil
}

// SetMethod switches the identification method and resets to IDLE,
// releasing any capture a facial scan was holding.
func (t *Terminal) SetMethod(m Method) error {
	switch m {
	case MethodFacial, MethodQR, MethodManual:
	default:
		return errors.New("unknown method")
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	t.method = m
	t.toIdleLocked()
	return nil
}

// Start begins a scan. For the facial method it acquires the camera first;
// a failed acquisition lands directly in ERROR with a categorized message.
// For QR and manual the sample is evaluated after the simulated delay.
func (t *Terminal) Start(sample Sample) error {
	t.mu.Lock()
	if t.state != StateIdle {
		t.mu.Unlock()
		return ErrNotIdle
	}
	t.state = StateScanning
	t.errMsg = ""
	t.epoch++
	epoch := t.epoch
	method := t.method
	t.mu.Unlock()

	if method == MethodFacial {
		capture, err := t.camera.Acquire(DefaultConstraints())
		if err != nil {
			metrics.ScanErrorsTotal.WithLabelValues(CameraErrorCategory(err)).Inc()
			t.failScan(epoch, CameraErrorMessage(err))
			return nil
		}
		t.mu.Lock()
		if t.state != StateScanning || t.epoch != epoch {
			// Cancelled while we were acquiring; don't leak the handle.
			t.mu.Unlock()
			capture.Release()
			return nil
		}
		t.capture = capture
		t.mu.Unlock()
	}

	time.AfterFunc(t.scan, func() { t.evaluate(epoch, sample) })
	return nil
}

// Cancel aborts a running scan and returns to IDLE.
func (t *Terminal) Cancel() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.state != StateScanning {
		return
	}
	t.toIdleLocked()
}

// Retry re-attempts a scan from the ERROR screen.
func (t *Terminal) Retry(sample Sample) error {
	t.mu.Lock()
	if t.state != StateError {
		t.mu.Unlock()
		return errors.New("nothing to retry")
	}
	t.toIdleLocked()
	t.mu.Unlock()
	return t.Start(sample)
}

// FallbackToManual leaves the ERROR screen for the manual method.
func (t *Terminal) FallbackToManual() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.method = MethodManual
	t.toIdleLocked()
}

// evaluate runs after the scan delay; stale epochs are a guaranteed no-op.
func (t *Terminal) evaluate(epoch uint64, sample Sample) {
	t.mu.Lock()
	if t.state != StateScanning || t.epoch != epoch {
		t.mu.Unlock()
		return
	}
	matcher := t.matchers[t.method]
	method := t.method
	t.mu.Unlock()

	if matcher == nil {
		t.failScan(epoch, "no matcher configured for method "+string(method))
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	student, err := matcher.Match(ctx, sample, t.roster)
	if err != nil {
		metrics.ScanErrorsTotal.WithLabelValues("no_match").Inc()
		t.failScan(epoch, "Student not recognized. Try again or use manual entry.")
		return
	}

	now := t.now()
	status := t.cutoff.Classify(now)
	stamp := now.Format("15:04")
	student.Status = status
	student.LastAccess = stamp

	t.mu.Lock()
	if t.state != StateScanning || t.epoch != epoch {
		// Cancelled while the matcher was in flight; the roster must not
		// see anything from this scan.
		t.mu.Unlock()
		return
	}
	if err := t.roster.UpdateStatus(student.ID, status, stamp); err != nil {
		// Matched someone the roster no longer knows; log, never crash.
		log.Printf("checkin: update %s failed: %v", student.ID, err)
	}
	t.releaseCaptureLocked()
	t.state = StateSuccess
	t.matched = &student
	t.epoch++
	next := t.epoch
	t.journal = append([]LogEntry{{
		ID:     uuid.NewString(),
		Name:   student.Name,
		Time:   stamp,
		Status: status,
		Kind:   "ENTRADA",
	}}, t.journal...)
	if len(t.journal) > journalCap {
		t.journal = t.journal[:journalCap]
	}
	t.mu.Unlock()

	metrics.CheckinsTotal.WithLabelValues(string(method), string(status)).Inc()
	if t.notify != nil {
		t.notify(Notification{
			StudentID:   student.ID,
			StudentName: student.Name,
			Guardian:    student.GuardianName,
			Contact:     student.GuardianPhone,
			Status:      status,
			Time:        stamp,
		})
	}

	time.AfterFunc(t.hold, func() { t.reset(next) })
}

// reset reverts SUCCESS to IDLE once the hold elapses.
func (t *Terminal) reset(epoch uint64) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.state != StateSuccess || t.epoch != epoch {
		return
	}
	t.state = StateIdle
	t.matched = nil
	t.epoch++
}

func (t *Terminal) failScan(epoch uint64, msg string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.epoch != epoch {
		return
	}
	t.releaseCaptureLocked()
	t.state = StateError
	t.errMsg = msg
	t.matched = nil
	t.epoch++
}

// toIdleLocked is every path back to IDLE: bump the epoch so in-flight
// timers die, and release the camera.
func (t *Terminal) toIdleLocked() {
	t.releaseCaptureLocked()
	t.state = StateIdle
	t.matched = nil
	t.errMsg = ""
	t.epoch++
}

func (t *Terminal) releaseCaptureLocked() {
	if t.capture != nil {
		t.capture.Release()
		t.capture = nil
	}
}
