package playback

import (
	"fmt"
	"math"

	"github.com/cockroachdb/errors"
	zlog "github.com/rs/zerolog/log"

	"github.com/osa030/vinylbox/internal/app/media"
	"github.com/osa030/vinylbox/internal/app/navigation"
	"github.com/osa030/vinylbox/internal/domain/playlist"
	"github.com/osa030/vinylbox/internal/domain/track"
)

// Errors
var (
	ErrNoTracks        = errors.New("playlist is empty")
	ErrIndexOutOfRange = errors.New("track index out of range")
	ErrUnknownCommand  = errors.New("unknown command")
)

// PlaybackError reports a play command rejected by the media element.
// It is logged, never surfaced: the element's pause event corrects the state.
type PlaybackError struct {
	Index int
	Src   string
	Err   error
}

func (e *PlaybackError) Error() string {
	return fmt.Sprintf("play track %d (%s): %v", e.Index, e.Src, e.Err)
}

func (e *PlaybackError) Unwrap() error {
	return e.Err
}

// Config holds controller configuration.
type Config struct {
	RestartThreshold float64 // Seconds after which "previous" restarts the current track
	SeekStep         float64 // Seconds moved by a keyboard seek
	VolumeStep       float64 // Volume change of a keyboard step
	InitialVolume    float64 // Volume applied at startup, also the unmute fallback
}

// DefaultConfig returns the stock controller configuration.
func DefaultConfig() Config {
	return Config{
		RestartThreshold: 3,
		SeekStep:         5,
		VolumeStep:       0.1,
		InitialVolume:    0.7,
	}
}

// Controller owns the player state and is the only writer of the media element.
//
// It is not safe for concurrent use: every call must come from the single
// event loop that also consumes the element's events.
type Controller struct {
	media    media.Element
	policy   *navigation.Policy
	playlist *playlist.Playlist
	state    State
	config   Config
}

// NewController creates a controller over the given element and applies the
// initial volume.
func NewController(el media.Element, policy *navigation.Policy, config Config) *Controller {
	if policy == nil {
		policy = navigation.New(nil)
	}
	c := &Controller{
		media:    el,
		policy:   policy,
		playlist: playlist.New("", nil),
		config:   config,
	}
	c.SetVolume(config.InitialVolume)
	return c
}

// SetPlaylist installs the session's track sequence.
func (c *Controller) SetPlaylist(p *playlist.Playlist) {
	if p == nil {
		p = playlist.New("", nil)
	}
	c.playlist = p
	c.state.CurrentIndex = 0
}

// Playlist returns the current track sequence.
func (c *Controller) Playlist() *playlist.Playlist {
	return c.playlist
}

// Prime loads the first track without starting playback.
func (c *Controller) Prime() error {
	if c.playlist.IsEmpty() {
		return ErrNoTracks
	}
	return c.LoadTrack(0)
}

// LoadTrack points the element at the track and makes it current.
// Play/pause state is left alone; displays derive the labels and the active
// row from the new index.
func (c *Controller) LoadTrack(index int) error {
	t, ok := c.playlist.At(index)
	if !ok {
		return errors.Wrapf(ErrIndexOutOfRange, "index %d of %d", index, c.playlist.Len())
	}
	c.state.CurrentIndex = index
	c.media.SetSource(t.URL)
	zlog.Debug().Msgf("playback: loaded track: index=%d name=%s", index, t.Name)
	return nil
}

// Play loads the track at index and starts it.
// A rejected play command is logged; Playing stays optimistic until the
// element's pause event corrects it.
func (c *Controller) Play(index int) error {
	if err := c.LoadTrack(index); err != nil {
		return err
	}
	c.start(index)
	return nil
}

// TogglePlay pauses when playing, otherwise resumes the current track from
// its current position.
func (c *Controller) TogglePlay() error {
	if c.playlist.IsEmpty() {
		return ErrNoTracks
	}
	if c.state.Playing {
		c.media.Pause()
		c.state.Playing = false
		return nil
	}
	if c.media.Source() == "" {
		return c.Play(c.state.CurrentIndex)
	}
	c.start(c.state.CurrentIndex)
	return nil
}

// Pause pauses playback.
func (c *Controller) Pause() {
	c.media.Pause()
	c.state.Playing = false
}

// Next plays the track chosen by the navigation policy.
func (c *Controller) Next() error {
	if c.playlist.IsEmpty() {
		return ErrNoTracks
	}
	next := c.policy.NextIndex(c.state.CurrentIndex, c.playlist.Len(), c.state.Shuffle)
	return c.Play(next)
}

// Previous restarts the current track when more than RestartThreshold
// seconds have elapsed, otherwise plays the track chosen by the policy.
func (c *Controller) Previous() error {
	if c.playlist.IsEmpty() {
		return ErrNoTracks
	}
	if c.media.CurrentTime() > c.config.RestartThreshold {
		c.media.SetCurrentTime(0)
		return nil
	}
	prev := c.policy.PreviousIndex(c.state.CurrentIndex, c.playlist.Len(), c.state.Shuffle)
	return c.Play(prev)
}

// OnTrackEnded applies the end-of-track rules.
func (c *Controller) OnTrackEnded() error {
	if c.playlist.IsEmpty() {
		c.state.Playing = false
		return nil
	}

	if c.state.Repeat == RepeatOne {
		c.media.SetCurrentTime(0)
		c.start(c.state.CurrentIndex)
		return nil
	}

	last := c.state.CurrentIndex >= c.playlist.Len()-1
	if c.state.Repeat == RepeatAll || c.state.Shuffle || !last {
		return c.Next()
	}

	// Stay on the last track, paused at its end.
	c.state.Playing = false
	zlog.Debug().Msgf("playback: reached end of playlist: index=%d", c.state.CurrentIndex)
	return nil
}

// HandleMediaEvent keeps the state consistent with the element.
// Events for a source other than the current one are ignored.
func (c *Controller) HandleMediaEvent(ev media.Event) {
	if ev.Src != "" && ev.Src != c.media.Source() {
		zlog.Debug().Msgf("playback: ignoring stale event: type=%s src=%s", ev.Type, ev.Src)
		return
	}

	switch ev.Type {
	case media.EventPlay:
		c.state.Playing = true
	case media.EventPause:
		c.state.Playing = false
	case media.EventEnded:
		if err := c.OnTrackEnded(); err != nil {
			zlog.Error().Err(err).Msg("playback: failed to advance after track end")
		}
	case media.EventError:
		zlog.Warn().Err(ev.Err).Msgf("playback: media error: src=%s", ev.Src)
	case media.EventTimeUpdate, media.EventLoadedMetadata:
		// Displays read position and duration directly from the element.
	}
}

// SeekTo moves the position to seconds, clamped to [0, duration].
// The upper bound is not applied while the duration is unknown.
func (c *Controller) SeekTo(seconds float64) {
	if math.IsNaN(seconds) {
		return
	}
	seconds = math.Max(0, seconds)
	if d := c.media.Duration(); isKnown(d) {
		seconds = math.Min(d, seconds)
	}
	c.media.SetCurrentTime(seconds)
}

// SeekBy moves the position by delta seconds.
func (c *Controller) SeekBy(delta float64) {
	c.SeekTo(c.media.CurrentTime() + delta)
}

// SeekRatio moves the position to a fraction of the duration.
// Nothing happens while the duration is unknown.
func (c *Controller) SeekRatio(ratio float64) {
	d := c.media.Duration()
	if !isKnown(d) {
		return
	}
	c.SeekTo(clamp01(ratio) * d)
}

// SeekStep returns the configured keyboard seek step in seconds.
func (c *Controller) SeekStep() float64 {
	return c.config.SeekStep
}

// VolumeStep returns the configured keyboard volume step.
func (c *Controller) VolumeStep() float64 {
	return c.config.VolumeStep
}

// ToggleShuffle flips shuffle mode.
func (c *Controller) ToggleShuffle() {
	c.state.Shuffle = !c.state.Shuffle
}

// CycleRepeat advances the repeat mode.
func (c *Controller) CycleRepeat() {
	c.state.Repeat = c.state.Repeat.Next()
}

// BeginDrag marks a pointer drag on target as active.
func (c *Controller) BeginDrag(target DragTarget) {
	switch target {
	case DragProgress:
		c.state.DraggingProgress = true
	case DragVolume:
		c.state.DraggingVolume = true
	}
}

// EndDrags clears every drag flag.
func (c *Controller) EndDrags() {
	c.state.DraggingProgress = false
	c.state.DraggingVolume = false
}

// Dragging reports whether a drag on target is active.
func (c *Controller) Dragging(target DragTarget) bool {
	switch target {
	case DragProgress:
		return c.state.DraggingProgress
	case DragVolume:
		return c.state.DraggingVolume
	default:
		return false
	}
}

// Apply executes a command.
func (c *Controller) Apply(cmd Command) error {
	switch cmd.Kind {
	case CommandTogglePlay:
		return c.TogglePlay()
	case CommandPlay:
		return c.Play(cmd.Index)
	case CommandPause:
		c.Pause()
	case CommandNext:
		return c.Next()
	case CommandPrevious:
		return c.Previous()
	case CommandToggleShuffle:
		c.ToggleShuffle()
	case CommandCycleRepeat:
		c.CycleRepeat()
	case CommandToggleMute:
		c.ToggleMute()
	case CommandSetVolume:
		c.SetVolume(cmd.Value)
	case CommandSeek:
		c.SeekTo(cmd.Value)
	default:
		return errors.Wrapf(ErrUnknownCommand, "kind %d", cmd.Kind)
	}
	return nil
}

// State returns a copy of the player state.
func (c *Controller) State() State {
	return c.state
}

// CurrentTrack returns the current track.
func (c *Controller) CurrentTrack() (track.Track, bool) {
	return c.playlist.At(c.state.CurrentIndex)
}

// CurrentTime returns the element position in seconds.
func (c *Controller) CurrentTime() float64 {
	return c.media.CurrentTime()
}

// Duration returns the element duration in seconds (NaN while unknown).
func (c *Controller) Duration() float64 {
	return c.media.Duration()
}

// Snapshot returns a read-only view of the player.
func (c *Controller) Snapshot() Snapshot {
	s := Snapshot{
		Index:       c.state.CurrentIndex,
		TrackCount:  c.playlist.Len(),
		Playing:     c.state.Playing,
		Shuffle:     c.state.Shuffle,
		Repeat:      c.state.Repeat,
		Volume:      c.state.Volume,
		CurrentTime: c.media.CurrentTime(),
		Duration:    c.media.Duration(),
	}
	if t, ok := c.CurrentTrack(); ok {
		s.TrackName = t.Name
	}
	return s
}

// start issues the play command for the loaded track.
func (c *Controller) start(index int) {
	c.state.Playing = true
	if err := c.media.Play(); err != nil {
		perr := &PlaybackError{Index: index, Src: c.media.Source(), Err: err}
		zlog.Error().Err(perr).Msg("playback: play command rejected")
	}
}

func isKnown(d float64) bool {
	return !math.IsNaN(d) && !math.IsInf(d, 0) && d > 0
}

func clamp01(v float64) float64 {
	return math.Max(0, math.Min(1, v))
}
