package audio

import (
	"log/slog"
	"sync"
	"time"

	"github.com/ayusman/edorun/internal/hold"
)

// DefaultFadeDuration is the length of the fade-out after detection ends.
const DefaultFadeDuration = 350 * time.Millisecond

// playFailedMessage is shown when playback cannot be started.
const playFailedMessage = "BGM を再生できませんでした。操作後に再度お試しください。"

// ControllerConfig configures a Controller.
type ControllerConfig struct {
	Volume       float64       // nominal playback volume
	FadeDuration time.Duration // linear fade-out length
}

// DefaultControllerConfig returns the default controller configuration.
func DefaultControllerConfig() ControllerConfig {
	return ControllerConfig{
		Volume:       DefaultVolume,
		FadeDuration: DefaultFadeDuration,
	}
}

// Controller couples playback to the hold status: it starts the track when the
// stance becomes detected and fades it out when detection ends.
// It is driven by the frame loop through Apply and Tick and is safe for concurrent use.
type Controller struct {
	mu     sync.Mutex
	player Player
	config ControllerConfig
	logger *slog.Logger

	status    hold.Status
	fading    bool
	fadeStart time.Time
	fadeFrom  float64
	err       string
}

// NewController creates a controller for player. A nil player disables audio.
func NewController(player Player, config ControllerConfig, logger *slog.Logger) *Controller {
	if config.FadeDuration <= 0 {
		config.FadeDuration = DefaultFadeDuration
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Controller{
		player: player,
		config: config,
		logger: logger,
		status: hold.StatusIdle,
	}
}

// Apply reacts to the current hold status. Only status changes have an effect.
func (c *Controller) Apply(status hold.Status, now time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()

	prev := c.status
	c.status = status
	if c.player == nil || prev == status {
		return
	}

	if status == hold.StatusDetected {
		// Re-entry cancels any fade and resumes at nominal volume
		c.fading = false
		if c.player.Paused() {
			c.player.SetVolume(c.config.Volume)
			if err := c.player.Play(); err != nil {
				c.err = playFailedMessage
				c.logger.Warn("audio playback failed", "error", err)
				return
			}
			c.logger.Info("audio playback started")
		} else {
			c.player.SetVolume(c.config.Volume)
		}
		c.err = ""
		return
	}

	if !c.fading && !c.player.Paused() {
		c.fading = true
		c.fadeStart = now
		c.fadeFrom = c.player.Volume()
		c.tickLocked(now)
	}
}

// Tick advances an in-progress fade. It is called once per frame.
func (c *Controller) Tick(now time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.tickLocked(now)
}

func (c *Controller) tickLocked(now time.Time) {
	if !c.fading || c.player == nil {
		return
	}

	progress := min(float64(now.Sub(c.fadeStart))/float64(c.config.FadeDuration), 1)
	c.player.SetVolume(max(c.fadeFrom*(1-progress), 0))

	if progress >= 1 {
		c.silenceLocked()
	}
}

// silenceLocked pauses, rewinds and restores the nominal volume (must hold mu).
func (c *Controller) silenceLocked() {
	c.fading = false
	if err := c.player.Pause(); err != nil {
		c.logger.Warn("audio pause failed", "error", err)
	}
	c.player.Rewind()
	c.player.SetVolume(c.config.Volume)
}

// Cancel aborts any fade and stops playback immediately, leaving the controller
// idle and ready for the next detection.
func (c *Controller) Cancel() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.status = hold.StatusIdle
	if c.player == nil {
		return
	}
	if c.fading || !c.player.Paused() {
		c.silenceLocked()
	}
}

// Fading reports whether a fade-out is in progress.
func (c *Controller) Fading() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.fading
}

// Error returns the last playback error message, or "" if none.
func (c *Controller) Error() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.err
}

// SetVolume changes the nominal volume. A playing track that is not fading
// picks it up immediately.
func (c *Controller) SetVolume(v float64) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.config.Volume = clampVolume(v)
	if c.player != nil && !c.fading && !c.player.Paused() {
		c.player.SetVolume(c.config.Volume)
	}
}

// SetFadeDuration changes the length of subsequent fades. Values <= 0 are ignored.
func (c *Controller) SetFadeDuration(d time.Duration) {
	if d <= 0 {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.config.FadeDuration = d
}

// Close cancels playback and releases the player.
func (c *Controller) Close() error {
	c.Cancel()
	if c.player == nil {
		return nil
	}
	return c.player.Close()
}
