// Package kiosk controls the TV display mode: a fullscreen, read-only
// rendition of the dashboard for hallway panels.
package kiosk

import (
	"fmt"
	"sync"
)

// Mode of the display.
type Mode string

const (
	ModeNormal Mode = "NORMAL"
	ModeTV     Mode = "TV"
)

// Theme of the TV panel.
type Theme string

const (
	ThemeDark  Theme = "dark"
	ThemeLight Theme = "light"
)

// Presenter is the windowing collaborator that owns fullscreen. Its
// OnExit callback fires whenever the environment leaves fullscreen for
// any reason, not only through ExitFullscreen.
type Presenter interface {
	EnterFullscreen() error
	ExitFullscreen() error
	OnExit(func())
}

// Controller tracks display mode and keeps it consistent with the
// presenter's actual fullscreen state.
type Controller struct {
	presenter Presenter

	mu    sync.Mutex
	mode  Mode
	theme Theme
}

// NewController starts in normal mode with the dark TV theme and
// subscribes to the presenter's exit events.
func NewController(p Presenter) *Controller {
	c := &Controller{presenter: p, mode: ModeNormal, theme: ThemeDark}
	p.OnExit(c.handleFullscreenExit)
	return c
}

// EnterTV switches to the TV panel; the mode only changes if the
// presenter granted fullscreen.
func (c *Controller) EnterTV() error {
	if err := c.presenter.EnterFullscreen(); err != nil {
		return fmt.Errorf("enter fullscreen: %w", err)
	}
	c.mu.Lock()
	c.mode = ModeTV
	c.mu.Unlock()
	return nil
}

// ExitTV leaves the TV panel explicitly.
func (c *Controller) ExitTV() error {
	c.mu.Lock()
	c.mode = ModeNormal
	c.mu.Unlock()
	if err := c.presenter.ExitFullscreen(); err != nil {
		return fmt.Errorf("exit fullscreen: %w", err)
	}
	return nil
}

// handleFullscreenExit reverts to normal mode when fullscreen was left
// through any external path (remote control, window manager, Esc).
func (c *Controller) handleFullscreenExit() {
	c.mu.Lock()
	c.mode = ModeNormal
	c.mu.Unlock()
}

// ToggleTheme flips the TV theme and returns the new one.
func (c *Controller) ToggleTheme() Theme {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.theme == ThemeDark {
		c.theme = ThemeLight
	} else {
		c.theme = ThemeDark
	}
	return c.theme
}

// Mode returns the current display mode.
func (c *Controller) Mode() Mode {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.mode
}

// Theme returns the current TV theme.
func (c *Controller) Theme() Theme {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.theme
}

// HeadlessPresenter is the presenter used when no real windowing API is
// attached (server deployments, tests). SimulateExternalExit mimics the
// environment dropping out of fullscreen on its own.
type HeadlessPresenter struct {
	mu         sync.Mutex
	fullscreen bool
	onExit     func()
	EnterErr   error
}

func (p *HeadlessPresenter) EnterFullscreen() error {
	if p.EnterErr != nil {
		return p.EnterErr
	}
	p.mu.Lock()
	p.fullscreen = true
	p.mu.Unlock()
	return nil
}

func (p *HeadlessPresenter) ExitFullscreen() error {
	p.mu.Lock()
	p.fullscreen = false
	p.mu.Unlock()
	return nil
}

func (p *HeadlessPresenter) OnExit(f func()) {
	p.mu.Lock()
	p.onExit = f
	p.mu.Unlock()
}

// Fullscreen reports the simulated fullscreen state.
func (p *HeadlessPresenter) Fullscreen() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.fullscreen
}

// SimulateExternalExit drops fullscreen and notifies the subscriber.
func (p *HeadlessPresenter) SimulateExternalExit() {
	p.mu.Lock()
	p.fullscreen = false
	f := p.onExit
	p.mu.Unlock()
	if f != nil {
		f()
	}
}
