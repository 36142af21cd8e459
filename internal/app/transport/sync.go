package transport

import (
	zlog "github.com/rs/zerolog/log"

	"github.com/osa030/vinylbox/internal/app/playback"
)

// Player is the subset of the playback controller driven by transport input.
type Player interface {
	TogglePlay() error
	SeekBy(delta float64)
	SeekRatio(ratio float64)
	SetVolume(v float64)
	AdjustVolume(delta float64)
	BeginDrag(target playback.DragTarget)
	EndDrags()
	Dragging(target playback.DragTarget) bool
	SeekStep() float64
	VolumeStep() float64
}

// Verify the playback controller satisfies Player at compile time.
var _ Player = (*playback.Controller)(nil)

// Sync dispatches transport input to the player.
type Sync struct {
	player   Player
	progress Bar
	volume   Bar
}

// NewSync creates a dispatcher for player.
func NewSync(player Player) *Sync {
	return &Sync{player: player}
}

// SetLayout records the bar geometry produced by the latest render.
func (s *Sync) SetLayout(progress, volume Bar) {
	s.progress = progress
	s.volume = volume
}

// Layout returns the recorded bar geometry.
func (s *Sync) Layout() (progress, volume Bar) {
	return s.progress, s.volume
}

// HitTest returns the bar under the cell (x, y).
func (s *Sync) HitTest(x, y int) Target {
	switch {
	case s.progress.Contains(x, y):
		return TargetProgress
	case s.volume.Contains(x, y):
		return TargetVolume
	default:
		return TargetNone
	}
}

// Pointer applies the drag protocol. It reports whether the event was consumed.
//
// A press on a bar starts a drag and applies the position at once, motion
// keeps applying it, and a release anywhere ends every drag.
func (s *Sync) Pointer(ev Pointer) bool {
	switch ev.Action {
	case PointerDown:
		switch ev.Target {
		case TargetProgress:
			s.player.BeginDrag(playback.DragProgress)
			s.player.SeekRatio(s.progress.Ratio(ev.X))
			return true
		case TargetVolume:
			s.player.BeginDrag(playback.DragVolume)
			s.player.SetVolume(s.volume.Ratio(ev.X))
			return true
		}
		return false

	case PointerMove:
		consumed := false
		if s.player.Dragging(playback.DragProgress) {
			s.player.SeekRatio(s.progress.Ratio(ev.X))
			consumed = true
		}
		if s.player.Dragging(playback.DragVolume) {
			s.player.SetVolume(s.volume.Ratio(ev.X))
			consumed = true
		}
		return consumed

	case PointerUp:
		dragging := s.player.Dragging(playback.DragProgress) || s.player.Dragging(playback.DragVolume)
		s.player.EndDrags()
		return dragging
	}
	return false
}

// Key applies a keyboard shortcut. It reports whether the key was consumed,
// in which case the display must not apply its own behaviour for it.
func (s *Sync) Key(ev KeyPress) bool {
	if ev.TextInputFocused {
		return false
	}

	switch ev.Key {
	case " ", "space":
		if err := s.player.TogglePlay(); err != nil {
			zlog.Debug().Err(err).Msg("transport: toggle play ignored")
		}
	case "left":
		s.player.SeekBy(-s.player.SeekStep())
	case "right":
		s.player.SeekBy(s.player.SeekStep())
	case "up":
		s.player.AdjustVolume(s.player.VolumeStep())
	case "down":
		s.player.AdjustVolume(-s.player.VolumeStep())
	default:
		return false
	}
	return true
}
