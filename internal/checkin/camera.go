package checkin

import (
	"errors"
	"sync"
)

// Camera acquisition failures, categorized the way the gate UI reports
// them. Anything else falls into the generic bucket.
var (
	ErrCameraDenied   = errors.New("camera permission denied")
	ErrNoCameraDevice = errors.New("no camera device found")
)

// Constraints describe the capture the facial method asks for.
type Constraints struct {
	FacingMode string
	Width      int
	Height     int
}

// DefaultConstraints matches the gate terminal's front camera request.
func DefaultConstraints() Constraints {
	return Constraints{FacingMode: "user", Width: 1280, Height: 720}
}

// Capture is a live video handle. Release must be called on every exit
// from the scanning state; releasing twice is harmless.
type Capture interface {
	Release()
}

// CameraProvider acquires capture hardware. Acquisition is fallible and
// must return one of the categorized errors when it can.
type CameraProvider interface {
	Acquire(c Constraints) (Capture, error)
}

// CameraErrorMessage maps an acquisition error to the operator-facing text.
func CameraErrorMessage(err error) string {
	switch {
	case errors.Is(err, ErrCameraDenied):
		return "Camera permission was denied."
	case errors.Is(err, ErrNoCameraDevice):
		return "No camera found on this device."
	default:
		return "Could not start the video source. Check device permissions."
	}
}

// CameraErrorCategory labels an acquisition error for metrics.
func CameraErrorCategory(err error) string {
	switch {
	case errors.Is(err, ErrCameraDenied):
		return "permission_denied"
	case errors.Is(err, ErrNoCameraDevice):
		return "no_device"
	default:
		return "other"
	}
}

// MockCamera is the capture provider used on kiosks without real hardware
// and in tests. Err, when set, makes every acquisition fail with it.
type MockCamera struct {
	Err error

	mu       sync.Mutex
	acquired int
	released int
}

type mockCapture struct {
	cam  *MockCamera
	once sync.Once
}

func (c *mockCapture) Release() {
	c.once.Do(func() {
		c.cam.mu.Lock()
		c.cam.released++
		c.cam.mu.Unlock()
	})
}

// Acquire hands out a fake capture or fails with the configured error.
func (m *MockCamera) Acquire(Constraints) (Capture, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	m.mu.Lock()
	m.acquired++
	m.mu.Unlock()
	return &mockCapture{cam: m}, nil
}

// Leaked reports captures acquired but never released.
func (m *MockCamera) Leaked() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.acquired - m.released
}
