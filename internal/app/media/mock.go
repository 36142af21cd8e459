package media

import "math"

// Mock is a test double for Element.
// It fires lifecycle events synchronously into a buffered channel.
type Mock struct {
	src         string
	currentTime float64
	duration    float64
	volume      float64
	paused      bool
	playErr     error
	playCalls   int
	pauseCalls  int
	sources     []string
	seeks       []float64
	events      chan Event
}

// Verify Mock implements Element at compile time.
var _ Element = (*Mock)(nil)

// NewMock creates a paused mock element with full volume and unknown duration.
func NewMock() *Mock {
	return &Mock{
		duration: math.NaN(),
		volume:   1,
		paused:   true,
		events:   make(chan Event, 256),
	}
}

// SetSource records src and rewinds, leaving the mock paused.
func (m *Mock) SetSource(src string) {
	m.src = src
	m.sources = append(m.sources, src)
	m.currentTime = 0
	m.paused = true
}

// Source returns the current source.
func (m *Mock) Source() string { return m.src }

// CurrentTime returns the playback position in seconds.
func (m *Mock) CurrentTime() float64 { return m.currentTime }

// SetCurrentTime moves the position and records the seek.
func (m *Mock) SetCurrentTime(seconds float64) {
	m.currentTime = seconds
	m.seeks = append(m.seeks, seconds)
}

// Duration returns the duration set with SetDuration, NaN by default.
func (m *Mock) Duration() float64 { return m.duration }

// Volume returns the volume.
func (m *Mock) Volume() float64 { return m.volume }

// SetVolume sets the volume as given.
func (m *Mock) SetVolume(v float64) { m.volume = v }

// Paused reports whether the mock is paused.
func (m *Mock) Paused() bool { return m.paused }

// Play starts playback and fires play. Without a source, or after
// SetPlayErr, it fires error then pause and returns the error.
func (m *Mock) Play() error {
	m.playCalls++
	if m.src == "" {
		m.emit(Event{Type: EventError, Err: ErrNoSource})
		m.emit(Event{Type: EventPause})
		return ErrNoSource
	}
	if m.playErr != nil {
		m.emit(Event{Type: EventError, Src: m.src, Err: m.playErr})
		m.emit(Event{Type: EventPause, Src: m.src})
		return m.playErr
	}
	if m.paused {
		m.paused = false
		m.emit(Event{Type: EventPlay, Src: m.src})
	}
	return nil
}

// Pause stops playback, firing pause when it was playing.
func (m *Mock) Pause() {
	m.pauseCalls++
	if !m.paused {
		m.paused = true
		m.emit(Event{Type: EventPause, Src: m.src})
	}
}

// Events returns the lifecycle event channel.
func (m *Mock) Events() <-chan Event { return m.events }

// Close closes the event channel.
func (m *Mock) Close() error {
	close(m.events)
	return nil
}

// Finish simulates reaching the end of the current track.
func (m *Mock) Finish() {
	if !math.IsNaN(m.duration) {
		m.currentTime = m.duration
	}
	m.paused = true
	m.emit(Event{Type: EventPause, Src: m.src})
	m.emit(Event{Type: EventEnded, Src: m.src})
}

// SetDuration sets the reported duration.
func (m *Mock) SetDuration(seconds float64) { m.duration = seconds }

// SetPosition sets the current time without recording a seek.
func (m *Mock) SetPosition(seconds float64) { m.currentTime = seconds }

// SetPlayErr makes subsequent Play calls fail with err.
func (m *Mock) SetPlayErr(err error) { m.playErr = err }

// PlayCalls returns the number of Play calls.
func (m *Mock) PlayCalls() int { return m.playCalls }

// PauseCalls returns the number of Pause calls.
func (m *Mock) PauseCalls() int { return m.pauseCalls }

// Sources returns every source that was set, in order.
func (m *Mock) Sources() []string { return m.sources }

// Seeks returns every explicit seek position, in order.
func (m *Mock) Seeks() []float64 { return m.seeks }

// Drain returns and removes all pending events.
func (m *Mock) Drain() []Event {
	var out []Event
	for {
		select {
		case ev := <-m.events:
			out = append(out, ev)
		default:
			return out
		}
	}
}

func (m *Mock) emit(ev Event) {
	select {
	case m.events <- ev:
	default:
	}
}
