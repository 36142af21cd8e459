package transport

import (
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/osa030/vinylbox/internal/app/media"
	"github.com/osa030/vinylbox/internal/app/navigation"
	"github.com/osa030/vinylbox/internal/app/playback"
	"github.com/osa030/vinylbox/internal/domain/playlist"
	"github.com/osa030/vinylbox/internal/domain/track"
)

func newTestSync(t *testing.T) (*Sync, *playback.Controller, *media.Mock) {
	t.Helper()
	m := media.NewMock()
	c := playback.NewController(m, navigation.New(rand.NewPCG(3, 4)), playback.DefaultConfig())
	c.SetPlaylist(playlist.New("songs.json", []track.Track{
		{Name: "Intro", URL: "intro.mp3"},
		{Name: "Outro", URL: "outro.mp3"},
	}))
	require.NoError(t, c.Prime())

	s := NewSync(c)
	// 11 columns wide so that each column is a tenth.
	s.SetLayout(Bar{X: 10, Y: 5, Width: 11}, Bar{X: 40, Y: 7, Width: 11})
	return s, c, m
}

func TestBar_Ratio(t *testing.T) {
	b := Bar{X: 10, Y: 0, Width: 11}

	assert.Equal(t, 0.0, b.Ratio(10))
	assert.Equal(t, 0.5, b.Ratio(15))
	assert.Equal(t, 1.0, b.Ratio(20))
	assert.Equal(t, 0.0, b.Ratio(2), "left of the bar clamps to 0")
	assert.Equal(t, 1.0, b.Ratio(99), "right of the bar clamps to 1")
	assert.Equal(t, 0.0, Bar{}.Ratio(5))
}

func TestSync_HitTest(t *testing.T) {
	s, _, _ := newTestSync(t)

	assert.Equal(t, TargetProgress, s.HitTest(10, 5))
	assert.Equal(t, TargetProgress, s.HitTest(20, 5))
	assert.Equal(t, TargetNone, s.HitTest(21, 5))
	assert.Equal(t, TargetVolume, s.HitTest(45, 7))
	assert.Equal(t, TargetNone, s.HitTest(45, 6))
}

func TestSync_ProgressDrag(t *testing.T) {
	s, c, m := newTestSync(t)
	m.SetDuration(200)

	assert.True(t, s.Pointer(Pointer{Action: PointerDown, Target: TargetProgress, X: 15}))
	assert.True(t, c.Dragging(playback.DragProgress))
	assert.Equal(t, 100.0, m.CurrentTime())

	assert.True(t, s.Pointer(Pointer{Action: PointerMove, X: 20}))
	assert.Equal(t, 200.0, m.CurrentTime())

	// Release far away from the bar still ends the drag.
	assert.True(t, s.Pointer(Pointer{Action: PointerUp, X: 300}))
	assert.False(t, c.Dragging(playback.DragProgress))

	assert.False(t, s.Pointer(Pointer{Action: PointerMove, X: 10}))
	assert.Equal(t, 200.0, m.CurrentTime())
}

func TestSync_VolumeDrag(t *testing.T) {
	s, c, m := newTestSync(t)

	assert.True(t, s.Pointer(Pointer{Action: PointerDown, Target: TargetVolume, X: 42}))
	assert.True(t, c.Dragging(playback.DragVolume))
	assert.InDelta(t, 0.2, m.Volume(), 1e-9)

	s.Pointer(Pointer{Action: PointerMove, X: 0})
	assert.Equal(t, 0.0, m.Volume())

	s.Pointer(Pointer{Action: PointerMove, X: 48})
	assert.InDelta(t, 0.8, m.Volume(), 1e-9)
	assert.InDelta(t, 0.8, c.State().Volume, 1e-9)

	s.Pointer(Pointer{Action: PointerUp})
	assert.False(t, c.Dragging(playback.DragVolume))
}

func TestSync_PointerDownOutsideBars(t *testing.T) {
	s, c, _ := newTestSync(t)

	assert.False(t, s.Pointer(Pointer{Action: PointerDown, Target: TargetNone, X: 15}))
	assert.False(t, c.Dragging(playback.DragProgress))
	assert.False(t, s.Pointer(Pointer{Action: PointerUp}))
}

func TestSync_Keys(t *testing.T) {
	s, c, m := newTestSync(t)
	m.SetDuration(60)

	assert.True(t, s.Key(KeyPress{Key: " "}))
	assert.True(t, c.State().Playing)

	m.SetPosition(3)
	assert.True(t, s.Key(KeyPress{Key: "left"}))
	assert.Equal(t, 0.0, m.CurrentTime())

	m.SetPosition(58)
	assert.True(t, s.Key(KeyPress{Key: "right"}))
	assert.Equal(t, 60.0, m.CurrentTime())

	c.SetVolume(0.95)
	for i := 0; i < 5; i++ {
		assert.True(t, s.Key(KeyPress{Key: "up"}))
		assert.LessOrEqual(t, m.Volume(), 1.0)
	}
	assert.Equal(t, 1.0, m.Volume())

	assert.True(t, s.Key(KeyPress{Key: "down"}))
	assert.InDelta(t, 0.9, m.Volume(), 1e-9)

	assert.False(t, s.Key(KeyPress{Key: "x"}))
}

func TestSync_KeysIgnoredWhileTyping(t *testing.T) {
	s, c, m := newTestSync(t)

	assert.False(t, s.Key(KeyPress{Key: " ", TextInputFocused: true}))
	assert.False(t, s.Key(KeyPress{Key: "up", TextInputFocused: true}))
	assert.False(t, c.State().Playing)
	assert.InDelta(t, 0.7, m.Volume(), 1e-9)
}
