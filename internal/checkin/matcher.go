package checkin

import (
	"context"
	"errors"
	"math/rand"
	"sync"

	"edutrack/internal/roster"
)

// ErrNoMatch means the scan completed but no roster member was identified.
var ErrNoMatch = errors.New("no matching student")

// Sample is whatever the active method captured: an image URL for facial,
// the decoded payload for QR, the typed id for manual entry.
type Sample struct {
	ImageURL string
	Code     string
}

// Matcher identifies a roster member from a captured sample. The terminal
// depends only on this contract, so the mock matcher and the real face or
// QR matchers are interchangeable.
type Matcher interface {
	Match(ctx context.Context, sample Sample, r *roster.Store) (roster.Student, error)
}

// RandomMatcher stands in for biometric matching by picking a pseudo-random
// roster member, the way the demo terminal did.
type RandomMatcher struct {
	mu  sync.Mutex
	rng *rand.Rand
}

// NewRandomMatcher seeds the mock matcher. A zero seed gives varied picks.
func NewRandomMatcher(seed int64) *RandomMatcher {
	return &RandomMatcher{rng: rand.New(rand.NewSource(seed))}
}

func (m *RandomMatcher) Match(_ context.Context, _ Sample, r *roster.Store) (roster.Student, error) {
	students := r.List()
	if len(students) == 0 {
		return roster.Student{}, ErrNoMatch
	}
	m.mu.Lock()
	i := m.rng.Intn(len(students))
	m.mu.Unlock()
	return students[i], nil
}

// IDMatcher resolves QR and manual entries, whose sample code is the
// student id itself.
type IDMatcher struct{}

func (IDMatcher) Match(_ context.Context, sample Sample, r *roster.Store) (roster.Student, error) {
	st, err := r.Get(sample.Code)
	if err != nil {
		return roster.Student{}, ErrNoMatch
	}
	return st, nil
}

// GallerySearcher is the slice of the face service the face matcher needs:
// a 1:N search over the enrolled gallery.
type GallerySearcher interface {
	Search(ctx context.Context, imageURL string) (studentID string, similarity float64, err error)
}

// FaceMatcher identifies students through the face-recognition service.
type FaceMatcher struct {
	Gallery GallerySearcher
}

func (m *FaceMatcher) Match(ctx context.Context, sample Sample, r *roster.Store) (roster.Student, error) {
	id, _, err := m.Gallery.Search(ctx, sample.ImageURL)
	if err != nil {
		return roster.Student{}, err
	}
	st, err := r.Get(id)
	if err != nil {
		// The gallery knows a face the roster does not; treat as no match.
		return roster.Student{}, ErrNoMatch
	}
	return st, nil
}
