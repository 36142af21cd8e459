package playback

import "math"

// UnmuteVolume is restored by ToggleMute when no level was remembered.
const UnmuteVolume = 0.7

// SetVolume sets the volume, clamped to [0, 1].
func (c *Controller) SetVolume(v float64) {
	if math.IsNaN(v) {
		return
	}
	v = clamp01(v)
	c.media.SetVolume(v)
	c.state.Volume = v
}

// AdjustVolume changes the volume by delta, clamped to [0, 1].
func (c *Controller) AdjustVolume(delta float64) {
	c.SetVolume(c.media.Volume() + delta)
}

// ToggleMute silences the element, remembering the level, or restores the
// remembered level. Without one UnmuteVolume is used.
func (c *Controller) ToggleMute() {
	if c.media.Volume() > 0 {
		c.state.PreviousVolume = c.media.Volume()
		c.SetVolume(0)
		return
	}

	restore := c.state.PreviousVolume
	if restore <= 0 {
		restore = UnmuteVolume
	}
	c.SetVolume(restore)
}
