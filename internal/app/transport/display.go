package transport

import (
	"fmt"
	"math"

	"github.com/osa030/vinylbox/internal/app/playback"
	"github.com/osa030/vinylbox/internal/app/timefmt"
)

// VolumeIcon selects the speaker glyph.
type VolumeIcon int

const (
	IconMuted VolumeIcon = iota
	IconLow
	IconFull
)

// String returns the string representation of the icon.
func (i VolumeIcon) String() string {
	switch i {
	case IconMuted:
		return "muted"
	case IconLow:
		return "low"
	default:
		return "full"
	}
}

// VolumeView is the rendered volume control.
type VolumeView struct {
	Fill    float64 // Fraction of the bar filled, 0..1
	Percent int     // Rounded percentage
	Label   string  // "70%"
	Icon    VolumeIcon
}

// Volume renders the volume control for v.
func Volume(v float64) VolumeView {
	if math.IsNaN(v) {
		v = 0
	}
	v = math.Max(0, math.Min(1, v))

	icon := IconFull
	switch {
	case v == 0:
		icon = IconMuted
	case v < 0.5:
		icon = IconLow
	}

	pct := int(math.Round(v * 100))
	return VolumeView{
		Fill:    v,
		Percent: pct,
		Label:   fmt.Sprintf("%d%%", pct),
		Icon:    icon,
	}
}

// ProgressView is the rendered position display.
type ProgressView struct {
	Percent float64 // currentTime / duration * 100, 0 while duration is unknown
	Elapsed string
	Total   string
}

// Progress renders the position display.
func Progress(current, duration float64) ProgressView {
	v := ProgressView{
		Elapsed: timefmt.FormatElapsed(current),
		Total:   timefmt.FormatElapsed(duration),
	}
	if duration > 0 && !math.IsInf(duration, 0) && !math.IsNaN(current) {
		v.Percent = math.Max(0, math.Min(100, current/duration*100))
	}
	return v
}

// Cells returns how many of width cells are filled for a fraction in [0, 1].
func Cells(fraction float64, width int) int {
	if width <= 0 || math.IsNaN(fraction) {
		return 0
	}
	n := int(math.Round(fraction * float64(width)))
	return max(0, min(width, n))
}

// NowPlayingView holds the now-playing labels.
type NowPlayingView struct {
	Title    string // Track name
	Position string // "Track 2 of 9"
}

// NowPlaying renders the labels for the track at index.
func NowPlaying(name string, index, count int) NowPlayingView {
	if count <= 0 {
		return NowPlayingView{}
	}
	return NowPlayingView{
		Title:    name,
		Position: fmt.Sprintf("Track %d of %d", index+1, count),
	}
}

// ShuffleLabel returns the shuffle button title.
func ShuffleLabel(on bool) string {
	if on {
		return "Shuffle On"
	}
	return "Shuffle Off"
}

// RepeatLabel returns the repeat button title.
func RepeatLabel(mode playback.RepeatMode) string {
	switch mode {
	case playback.RepeatAll:
		return "Repeat All"
	case playback.RepeatOne:
		return "Repeat One"
	default:
		return "Repeat Off"
	}
}
