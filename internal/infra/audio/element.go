// Package audio implements media.Element on top of the beep speaker.
package audio

import (
	"bytes"
	"context"
	"io"
	"math"
	"net/http"
	"net/url"
	"path"
	"strings"
	"sync"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/gopxl/beep/v2"
	"github.com/gopxl/beep/v2/effects"
	"github.com/gopxl/beep/v2/flac"
	"github.com/gopxl/beep/v2/mp3"
	"github.com/gopxl/beep/v2/speaker"
	"github.com/gopxl/beep/v2/wav"
	zlog "github.com/rs/zerolog/log"

	"github.com/osa030/vinylbox/internal/app/media"
	"github.com/osa030/vinylbox/internal/infra/download"
)

const (
	extMP3  = ".mp3"
	extFLAC = ".flac"
	extWAV  = ".wav"

	eventBuffer = 256
)

var (
	speakerMu          sync.Mutex
	speakerInitialized bool
	speakerSampleRate  beep.SampleRate
)

// Config configures an Element.
type Config struct {
	Tick       time.Duration // timeupdate cadence while playing
	HTTPClient *http.Client
}

// decoded is a loaded track. Fields touched by the speaker goroutine are
// only changed under speaker.Lock.
type decoded struct {
	streamer beep.StreamSeekCloser
	format   beep.Format
	ctrl     *beep.Ctrl
	volume   *effects.Volume
	started  bool // queued on the speaker
	ended    bool
}

// Element plays one source at a time through the system speaker.
// Loading is asynchronous: SetSource returns immediately and the element
// fires loadedmetadata (or error then pause) once the audio is decoded.
type Element struct {
	cfg Config

	mu            sync.Mutex
	src           string
	gen           uint64
	cancel        context.CancelFunc
	track         *decoded
	level         float64
	paused        bool
	playWhenReady bool
	pendingSeek   float64
	loadErr       error
	closed        bool

	events chan media.Event
	stop   chan struct{}
	wg     sync.WaitGroup
}

// Verify Element implements media.Element at compile time.
var _ media.Element = (*Element)(nil)

// New creates a paused element and starts its timeupdate ticker.
func New(cfg Config) *Element {
	if cfg.Tick <= 0 {
		cfg.Tick = 250 * time.Millisecond
	}
	if cfg.HTTPClient == nil {
		cfg.HTTPClient = &http.Client{Timeout: 5 * time.Minute}
	}
	e := &Element{
		cfg:    cfg,
		level:  1,
		paused: true,
		events: make(chan media.Event, eventBuffer),
		stop:   make(chan struct{}),
	}
	e.wg.Add(1)
	go e.tickLoop()
	return e
}

// Events returns the lifecycle event stream.
func (e *Element) Events() <-chan media.Event {
	return e.events
}

// SetSource stops the current track and starts loading src.
func (e *Element) SetSource(src string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return
	}

	e.unloadLocked()
	e.gen++
	e.src = src
	e.paused = true
	e.playWhenReady = false
	e.pendingSeek = 0
	e.loadErr = nil
	if src == "" {
		return
	}

	ctx, cancel := context.WithCancel(context.Background())
	e.cancel = cancel
	gen := e.gen
	e.wg.Add(1)
	go func() {
		defer e.wg.Done()
		e.load(ctx, gen, src)
	}()
}

// Source returns the current source.
func (e *Element) Source() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.src
}

// CurrentTime returns the playback position in seconds.
func (e *Element) CurrentTime() float64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.track == nil {
		return e.pendingSeek
	}
	speaker.Lock()
	pos := e.track.streamer.Position()
	speaker.Unlock()
	return e.track.format.SampleRate.D(pos).Seconds()
}

// SetCurrentTime seeks to seconds, clamped to the track bounds.
func (e *Element) SetCurrentTime(seconds float64) {
	if math.IsNaN(seconds) {
		return
	}
	seconds = math.Max(seconds, 0)

	e.mu.Lock()
	defer e.mu.Unlock()
	if e.track == nil {
		e.pendingSeek = seconds
		return
	}
	e.seekLocked(seconds)
	e.emit(media.EventTimeUpdate, nil)
}

// Duration returns the track length in seconds, NaN until loaded.
func (e *Element) Duration() float64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.track == nil {
		return math.NaN()
	}
	return e.track.format.SampleRate.D(e.track.streamer.Len()).Seconds()
}

// Volume returns the output level in [0, 1].
func (e *Element) Volume() float64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.level
}

// SetVolume sets the output level, clamped to [0, 1].
func (e *Element) SetVolume(v float64) {
	if math.IsNaN(v) {
		return
	}
	v = math.Min(math.Max(v, 0), 1)

	e.mu.Lock()
	defer e.mu.Unlock()
	e.level = v
	if e.track != nil {
		speaker.Lock()
		e.track.volume.Volume = levelToVolume(v)
		e.track.volume.Silent = v <= 0
		speaker.Unlock()
	}
}

// Paused reports whether playback is paused.
func (e *Element) Paused() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.paused
}

// Play starts or resumes playback. A play request made while the source is
// still loading is honoured once loading completes.
func (e *Element) Play() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return errors.New("audio element is closed")
	}
	if e.src == "" {
		return media.ErrNoSource
	}
	if !e.paused {
		return nil
	}

	e.paused = false
	e.emit(media.EventPlay, nil)
	if e.loadErr != nil {
		e.failLocked(e.loadErr)
		return e.loadErr
	}
	if e.track == nil {
		e.playWhenReady = true
		return nil
	}
	e.resumeLocked()
	return nil
}

// Pause pauses playback.
func (e *Element) Pause() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.playWhenReady = false
	if e.paused {
		return
	}
	e.paused = true
	if e.track != nil {
		speaker.Lock()
		e.track.ctrl.Paused = true
		speaker.Unlock()
	}
	e.emit(media.EventPause, nil)
}

// Close stops playback and releases the decoder.
func (e *Element) Close() error {
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return nil
	}
	e.closed = true
	e.unloadLocked()
	close(e.stop)
	e.mu.Unlock()

	e.wg.Wait()
	return nil
}

// load fetches and decodes src, then installs it if it is still current.
func (e *Element) load(ctx context.Context, gen uint64, src string) {
	streamer, format, err := fetchAndDecode(ctx, e.cfg.HTTPClient, src)
	if err == nil {
		err = initSpeaker(format.SampleRate)
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if gen != e.gen || e.closed {
		if streamer != nil {
			streamer.Close()
		}
		return
	}
	if err != nil {
		if streamer != nil {
			streamer.Close()
		}
		zlog.Warn().Err(err).Msgf("audio: failed to load %s", src)
		e.loadErr = err
		e.failLocked(err)
		return
	}

	var out beep.Streamer = streamer
	if sr := outputRate(); format.SampleRate != sr {
		out = beep.Resample(4, format.SampleRate, sr, streamer)
	}
	ctrl := &beep.Ctrl{Streamer: out, Paused: true}
	e.track = &decoded{
		streamer: streamer,
		format:   format,
		ctrl:     ctrl,
		volume: &effects.Volume{
			Streamer: ctrl,
			Base:     2,
			Volume:   levelToVolume(e.level),
			Silent:   e.level <= 0,
		},
	}
	zlog.Debug().Msgf("audio: loaded %s (%d Hz, %d samples)", src, format.SampleRate, streamer.Len())

	if e.pendingSeek > 0 {
		e.seekLocked(e.pendingSeek)
	}
	e.pendingSeek = 0
	e.emit(media.EventLoadedMetadata, nil)

	if e.playWhenReady {
		e.playWhenReady = false
		e.resumeLocked()
	}
}

// resumeLocked unpauses the current track, queueing it on the speaker if needed.
func (e *Element) resumeLocked() {
	t := e.track
	if !t.started {
		speaker.Lock()
		if t.ended {
			_ = t.streamer.Seek(0)
			t.ended = false
		}
		t.ctrl.Paused = false
		t.started = true
		speaker.Unlock()

		gen := e.gen
		speaker.Play(beep.Seq(t.volume, beep.Callback(func() {
			// Runs on the speaker goroutine with the speaker lock held
			go e.finish(gen)
		})))
		return
	}
	speaker.Lock()
	t.ctrl.Paused = false
	speaker.Unlock()
}

// finish handles the end of a track.
func (e *Element) finish(gen uint64) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if gen != e.gen || e.track == nil || e.closed {
		return
	}
	speaker.Lock()
	e.track.started = false
	e.track.ended = true
	e.track.ctrl.Paused = true
	speaker.Unlock()

	e.paused = true
	e.emit(media.EventPause, nil)
	e.emit(media.EventEnded, nil)
}

func (e *Element) seekLocked(seconds float64) {
	t := e.track
	n := t.format.SampleRate.N(time.Duration(seconds * float64(time.Second)))
	speaker.Lock()
	n = min(n, t.streamer.Len())
	if err := t.streamer.Seek(n); err != nil {
		zlog.Debug().Err(err).Msg("audio: seek failed")
	}
	if n < t.streamer.Len() {
		t.ended = false
	}
	speaker.Unlock()
}

// failLocked reports a failure and returns to the paused state.
func (e *Element) failLocked(err error) {
	e.playWhenReady = false
	e.paused = true
	e.emit(media.EventError, err)
	e.emit(media.EventPause, nil)
}

func (e *Element) unloadLocked() {
	if e.cancel != nil {
		e.cancel()
		e.cancel = nil
	}
	if e.track == nil {
		return
	}
	speaker.Clear()
	speaker.Lock()
	e.track.streamer.Close()
	speaker.Unlock()
	e.track = nil
}

func (e *Element) tickLoop() {
	defer e.wg.Done()
	ticker := time.NewTicker(e.cfg.Tick)
	defer ticker.Stop()
	for {
		select {
		case <-e.stop:
			return
		case <-ticker.C:
			e.mu.Lock()
			if e.track != nil && !e.paused {
				e.emit(media.EventTimeUpdate, nil)
			}
			e.mu.Unlock()
		}
	}
}

// emit queues an event without blocking the caller.
func (e *Element) emit(kind media.EventType, err error) {
	ev := media.Event{Type: kind, Src: e.src, Err: err}
	select {
	case e.events <- ev:
	default:
		zlog.Debug().Msgf("audio: dropped %s event", kind)
	}
}

// memFile keeps the decoders seekable over an in-memory buffer.
type memFile struct {
	*bytes.Reader
}

func (memFile) Close() error { return nil }

func fetchAndDecode(ctx context.Context, client *http.Client, src string) (beep.StreamSeekCloser, beep.Format, error) {
	rc, _, err := download.Open(ctx, client, src)
	if err != nil {
		return nil, beep.Format{}, err
	}
	data, err := io.ReadAll(rc)
	rc.Close()
	if err != nil {
		return nil, beep.Format{}, errors.Wrap(err, "failed to read audio")
	}
	return decode(extension(src), memFile{bytes.NewReader(data)})
}

func decode(ext string, f memFile) (beep.StreamSeekCloser, beep.Format, error) {
	var (
		streamer beep.StreamSeekCloser
		format   beep.Format
		err      error
	)
	switch ext {
	case extFLAC:
		streamer, format, err = flac.Decode(f)
	case extWAV:
		streamer, format, err = wav.Decode(f)
	default:
		streamer, format, err = mp3.Decode(f)
	}
	if err != nil {
		return nil, beep.Format{}, errors.Wrapf(err, "failed to decode %s audio", strings.TrimPrefix(ext, "."))
	}
	return streamer, format, nil
}

// extension returns the lowercased file extension of a URL or path,
// defaulting to mp3.
func extension(src string) string {
	p := src
	if u, err := url.Parse(src); err == nil && u.Scheme != "" {
		p = u.Path
	}
	switch ext := strings.ToLower(path.Ext(p)); ext {
	case extFLAC, extWAV, extMP3:
		return ext
	default:
		return extMP3
	}
}

func initSpeaker(sr beep.SampleRate) error {
	speakerMu.Lock()
	defer speakerMu.Unlock()
	if speakerInitialized {
		return nil
	}
	if err := speaker.Init(sr, sr.N(time.Second/10)); err != nil {
		return errors.Wrap(err, "failed to open audio device")
	}
	speakerSampleRate = sr
	speakerInitialized = true
	return nil
}

func outputRate() beep.SampleRate {
	speakerMu.Lock()
	defer speakerMu.Unlock()
	return speakerSampleRate
}

// levelToVolume maps a linear level to the effects.Volume exponent (base 2).
// 1.0 -> 0, 0.5 -> -1, 0.25 -> -2, 0 -> -10 (essentially silent).
func levelToVolume(level float64) float64 {
	if level <= 0 {
		return -10
	}
	if level >= 1 {
		return 0
	}
	return math.Log2(level)
}
