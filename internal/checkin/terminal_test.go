package checkin

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"edutrack/internal/roster"
)

func fixedClock(hh, mm int) func() time.Time {
	return func() time.Time {
		return time.Date(2024, 5, 20, hh, mm, 0, 0, time.Local)
	}
}

type stubMatcher struct {
	id  string
	err error
}

func (m stubMatcher) Match(_ context.Context, _ Sample, r *roster.Store) (roster.Student, error) {
	if m.err != nil {
		return roster.Student{}, m.err
	}
	return r.Get(m.id)
}

func newTestTerminal(t *testing.T, method Method, m Matcher, cam CameraProvider, clock func() time.Time) (*Terminal, *roster.Store) {
	t.Helper()
	store := roster.NewStore(roster.Seed())
	if cam == nil {
		cam = &MockCamera{}
	}
	term := NewTerminal(Options{
		Roster:      store,
		Matchers:    map[Method]Matcher{method: m},
		Camera:      cam,
		Cutoff:      Cutoff{Hour: 8, Minute: 15},
		ScanDelay:   10 * time.Millisecond,
		SuccessHold: 30 * time.Millisecond,
		Now:         clock,
	})
	require.NoError(t, term.SetMethod(method))
	return term, store
}

func TestCutoffClassify(t *testing.T) {
	c := Cutoff{Hour: 8, Minute: 15}
	tests := []struct {
		hh, mm int
		want   roster.Status
	}{
		{7, 50, roster.StatusInSchool},
		{8, 14, roster.StatusInSchool},
		{8, 15, roster.StatusInSchool}, // boundary counts as on time
		{8, 16, roster.StatusLate},
		{10, 0, roster.StatusLate},
	}
	for _, tt := range tests {
		got := c.Classify(time.Date(2024, 5, 20, tt.hh, tt.mm, 0, 0, time.Local))
		assert.Equal(t, tt.want, got, "%02d:%02d", tt.hh, tt.mm)
	}
}

func TestParseCutoff(t *testing.T) {
	c, err := ParseCutoff("08:15")
	require.NoError(t, err)
	assert.Equal(t, Cutoff{Hour: 8, Minute: 15}, c)

	_, err = ParseCutoff("25:00")
	assert.Error(t, err)
	_, err = ParseCutoff("bogus")
	assert.Error(t, err)
}

func TestCheckinEndToEnd_OnTime(t *testing.T) {
	term, store := newTestTerminal(t, MethodManual, stubMatcher{id: "103"}, nil, fixedClock(8, 10))
	require.Equal(t, 4, store.Len())

	require.NoError(t, term.Start(Sample{Code: "103"}))
	assert.Equal(t, StateScanning, term.State())

	require.Eventually(t, func() bool { return term.State() == StateSuccess }, time.Second, time.Millisecond)

	matched := term.Matched()
	require.NotNil(t, matched)
	assert.Equal(t, "Carla Oliveira", matched.Name)
	assert.Equal(t, roster.StatusInSchool, matched.Status)
	assert.Equal(t, "08:10", matched.LastAccess)

	got, err := store.Get("103")
	require.NoError(t, err)
	assert.Equal(t, roster.StatusInSchool, got.Status)
	assert.Equal(t, "08:10", got.LastAccess)

	journal := term.Journal()
	require.Len(t, journal, 1)
	assert.Equal(t, "Carla Oliveira", journal[0].Name)
	assert.Equal(t, "08:10", journal[0].Time)
	assert.Equal(t, "ENTRADA", journal[0].Kind)

	// SUCCESS reverts to IDLE and the matched reference is cleared.
	require.Eventually(t, func() bool { return term.State() == StateIdle }, time.Second, time.Millisecond)
	assert.Nil(t, term.Matched())
}

func TestCheckin_AfterCutoffIsLate(t *testing.T) {
	term, store := newTestTerminal(t, MethodQR, stubMatcher{id: "102"}, nil, fixedClock(8, 40))

	require.NoError(t, term.Start(Sample{Code: "102"}))
	require.Eventually(t, func() bool { return term.State() == StateSuccess }, time.Second, time.Millisecond)

	got, err := store.Get("102")
	require.NoError(t, err)
	assert.Equal(t, roster.StatusLate, got.Status)
	assert.Equal(t, "08:40", got.LastAccess)
}

func TestCheckin_NotifiesGuardian(t *testing.T) {
	store := roster.NewStore(roster.Seed())
	notified := make(chan Notification, 1)
	term := NewTerminal(Options{
		Roster:      store,
		Matchers:    map[Method]Matcher{MethodManual: stubMatcher{id: "101"}},
		Camera:      &MockCamera{},
		ScanDelay:   10 * time.Millisecond,
		SuccessHold: 30 * time.Millisecond,
		Now:         fixedClock(7, 55),
		Notify:      func(n Notification) { notified <- n },
	})
	require.NoError(t, term.SetMethod(MethodManual))
	require.NoError(t, term.Start(Sample{Code: "101"}))

	select {
	case n := <-notified:
		assert.Equal(t, "Ana Silva", n.StudentName)
		assert.Equal(t, "Maria Silva", n.Guardian)
		assert.Equal(t, roster.StatusInSchool, n.Status)
		assert.Equal(t, "07:55", n.Time)
	case <-time.After(time.Second):
		t.Fatal("no guardian notification published")
	}
}

func TestStart_WhileScanningFails(t *testing.T) {
	term, _ := newTestTerminal(t, MethodManual, stubMatcher{id: "101"}, nil, fixedClock(8, 0))
	require.NoError(t, term.Start(Sample{Code: "101"}))
	assert.ErrorIs(t, term.Start(Sample{Code: "101"}), ErrNotIdle)
}

func TestCancel_ReturnsToIdleAndKillsTimer(t *testing.T) {
	term, store := newTestTerminal(t, MethodManual, stubMatcher{id: "101"}, nil, fixedClock(8, 0))
	before, _ := store.Get("101")

	require.NoError(t, term.Start(Sample{Code: "101"}))
	term.Cancel()
	assert.Equal(t, StateIdle, term.State())

	// The scheduled evaluation must be a no-op after cancel.
	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, StateIdle, term.State())
	after, _ := store.Get("101")
	assert.Equal(t, before, after)
	assert.Empty(t, term.Journal())
}

func TestFacial_CameraDeniedGoesToError(t *testing.T) {
	cam := &MockCamera{Err: ErrCameraDenied}
	term, _ := newTestTerminal(t, MethodFacial, stubMatcher{id: "101"}, cam, fixedClock(8, 0))

	require.NoError(t, term.Start(Sample{}))
	assert.Equal(t, StateError, term.State())
	assert.Equal(t, "Camera permission was denied.", term.ErrorMessage())
}

func TestFacial_NoDeviceMessage(t *testing.T) {
	cam := &MockCamera{Err: ErrNoCameraDevice}
	term, _ := newTestTerminal(t, MethodFacial, stubMatcher{id: "101"}, cam, fixedClock(8, 0))

	require.NoError(t, term.Start(Sample{}))
	assert.Equal(t, StateError, term.State())
	assert.Equal(t, "No camera found on this device.", term.ErrorMessage())
}

func TestFacial_GenericAcquisitionFailure(t *testing.T) {
	cam := &MockCamera{Err: errors.New("usb bus reset")}
	term, _ := newTestTerminal(t, MethodFacial, stubMatcher{id: "101"}, cam, fixedClock(8, 0))

	require.NoError(t, term.Start(Sample{}))
	assert.Equal(t, StateError, term.State())
	assert.Contains(t, term.ErrorMessage(), "video source")
}

func TestFacial_CaptureReleasedOnEveryExit(t *testing.T) {
	cam := &MockCamera{}
	term, _ := newTestTerminal(t, MethodFacial, stubMatcher{id: "104"}, cam, fixedClock(8, 0))

	// Exit via cancel.
	require.NoError(t, term.Start(Sample{}))
	term.Cancel()
	assert.Zero(t, cam.Leaked())

	// Exit via success.
	require.NoError(t, term.Start(Sample{}))
	require.Eventually(t, func() bool { return term.State() == StateSuccess }, time.Second, time.Millisecond)
	assert.Zero(t, cam.Leaked())
	require.Eventually(t, func() bool { return term.State() == StateIdle }, time.Second, time.Millisecond)

	// Exit via method switch mid-scan.
	require.NoError(t, term.Start(Sample{}))
	require.NoError(t, term.SetMethod(MethodManual))
	assert.Zero(t, cam.Leaked())
}

func TestError_RetryAndManualFallback(t *testing.T) {
	cam := &MockCamera{Err: ErrCameraDenied}
	term, _ := newTestTerminal(t, MethodFacial, stubMatcher{id: "101"}, cam, fixedClock(8, 0))

	require.NoError(t, term.Start(Sample{}))
	require.Equal(t, StateError, term.State())

	// Retry with the camera still broken lands back in ERROR.
	require.NoError(t, term.Retry(Sample{}))
	assert.Equal(t, StateError, term.State())

	// Fallback switches method and clears the error.
	term.FallbackToManual()
	assert.Equal(t, StateIdle, term.State())
	assert.Equal(t, MethodManual, term.Method())
	assert.Empty(t, term.ErrorMessage())
}

func TestRetry_OnlyFromError(t *testing.T) {
	term, _ := newTestTerminal(t, MethodManual, stubMatcher{id: "101"}, nil, fixedClock(8, 0))
	assert.Error(t, term.Retry(Sample{}))
}

func TestNoMatch_GoesToError(t *testing.T) {
	term, store := newTestTerminal(t, MethodManual, stubMatcher{err: ErrNoMatch}, nil, fixedClock(8, 0))
	before := store.List()

	require.NoError(t, term.Start(Sample{Code: "nope"}))
	require.Eventually(t, func() bool { return term.State() == StateError }, time.Second, time.Millisecond)
	assert.Contains(t, term.ErrorMessage(), "not recognized")
	assert.Equal(t, before, store.List())
}

func TestRandomMatcher_PicksRosterMember(t *testing.T) {
	store := roster.NewStore(roster.Seed())
	m := NewRandomMatcher(42)

	for i := 0; i < 20; i++ {
		st, err := m.Match(context.Background(), Sample{}, store)
		require.NoError(t, err)
		_, err = store.Get(st.ID)
		assert.NoError(t, err)
	}
}

func TestRandomMatcher_EmptyRoster(t *testing.T) {
	m := NewRandomMatcher(1)
	_, err := m.Match(context.Background(), Sample{}, roster.NewStore(nil))
	assert.ErrorIs(t, err, ErrNoMatch)
}

func TestIDMatcher(t *testing.T) {
	store := roster.NewStore(roster.Seed())
	st, err := IDMatcher{}.Match(context.Background(), Sample{Code: "104"}, store)
	require.NoError(t, err)
	assert.Equal(t, "Diego Lima", st.Name)

	_, err = IDMatcher{}.Match(context.Background(), Sample{Code: "404"}, store)
	assert.ErrorIs(t, err, ErrNoMatch)
}

func TestJournal_NewestFirstAndClearable(t *testing.T) {
	term, _ := newTestTerminal(t, MethodManual, stubMatcher{id: "101"}, nil, fixedClock(8, 0))

	for i := 0; i < 2; i++ {
		require.NoError(t, term.Start(Sample{Code: "101"}))
		require.Eventually(t, func() bool { return term.State() == StateIdle && len(term.Journal()) == i+1 },
			time.Second, time.Millisecond)
	}
	require.Len(t, term.Journal(), 2)

	term.ClearJournal()
	assert.Empty(t, term.Journal())
}

// blockingMatcher holds the match open until released, so tests can act
// while a scan evaluation is in flight.
type blockingMatcher struct {
	inner   Matcher
	entered chan struct{}
	release chan struct{}
}

func (m *blockingMatcher) Match(ctx context.Context, s Sample, r *roster.Store) (roster.Student, error) {
	close(m.entered)
	<-m.release
	return m.inner.Match(ctx, s, r)
}

func TestCancelDuringMatchLeavesRosterUntouched(t *testing.T) {
	m := &blockingMatcher{
		inner:   stubMatcher{id: "101"},
		entered: make(chan struct{}),
		release: make(chan struct{}),
	}
	term, store := newTestTerminal(t, MethodManual, m, nil, fixedClock(10, 0))

	before, err := store.Get("101")
	require.NoError(t, err)

	require.NoError(t, term.Start(Sample{Code: "101"}))
	<-m.entered
	term.Cancel()
	close(m.release)

	// Let the stale evaluation run to completion.
	time.Sleep(30 * time.Millisecond)

	assert.Equal(t, StateIdle, term.State())
	assert.Empty(t, term.Journal())

	after, err := store.Get("101")
	require.NoError(t, err)
	assert.Equal(t, before.Status, after.Status)
	assert.Equal(t, before.LastAccess, after.LastAccess)
}
