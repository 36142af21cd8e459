package transport

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/osa030/vinylbox/internal/app/playback"
)

func TestVolume(t *testing.T) {
	tests := []struct {
		name  string
		in    float64
		label string
		icon  VolumeIcon
	}{
		{name: "muted", in: 0, label: "0%", icon: IconMuted},
		{name: "low", in: 0.3, label: "30%", icon: IconLow},
		{name: "just below half", in: 0.49, label: "49%", icon: IconLow},
		{name: "half is full", in: 0.5, label: "50%", icon: IconFull},
		{name: "rounded", in: 0.706, label: "71%", icon: IconFull},
		{name: "clamped", in: 1.4, label: "100%", icon: IconFull},
		{name: "nan", in: math.NaN(), label: "0%", icon: IconMuted},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := Volume(tt.in)
			assert.Equal(t, tt.label, v.Label)
			assert.Equal(t, tt.icon, v.Icon)
			assert.GreaterOrEqual(t, v.Fill, 0.0)
			assert.LessOrEqual(t, v.Fill, 1.0)
		})
	}
}

func TestProgress(t *testing.T) {
	p := Progress(65, 130)
	assert.Equal(t, "1:05", p.Elapsed)
	assert.Equal(t, "2:10", p.Total)
	assert.Equal(t, 50.0, p.Percent)

	unknown := Progress(12, math.NaN())
	assert.Equal(t, "0:12", unknown.Elapsed)
	assert.Equal(t, "0:00", unknown.Total)
	assert.Equal(t, 0.0, unknown.Percent)

	assert.Equal(t, 0.0, Progress(5, 0).Percent)
	assert.Equal(t, 100.0, Progress(140, 130).Percent)
}

func TestCells(t *testing.T) {
	assert.Equal(t, 0, Cells(0, 20))
	assert.Equal(t, 10, Cells(0.5, 20))
	assert.Equal(t, 20, Cells(1.2, 20))
	assert.Equal(t, 0, Cells(-1, 20))
	assert.Equal(t, 0, Cells(0.5, 0))
}

func TestNowPlaying(t *testing.T) {
	v := NowPlaying("Blue in Green", 1, 9)
	assert.Equal(t, "Blue in Green", v.Title)
	assert.Equal(t, "Track 2 of 9", v.Position)

	assert.Equal(t, NowPlayingView{}, NowPlaying("", 0, 0))
}

func TestLabels(t *testing.T) {
	assert.Equal(t, "Shuffle On", ShuffleLabel(true))
	assert.Equal(t, "Shuffle Off", ShuffleLabel(false))
	assert.Equal(t, "Repeat Off", RepeatLabel(playback.RepeatOff))
	assert.Equal(t, "Repeat All", RepeatLabel(playback.RepeatAll))
	assert.Equal(t, "Repeat One", RepeatLabel(playback.RepeatOne))
}
