// Package media defines the contract of the audio element driven by the player.
package media

import "github.com/cockroachdb/errors"

// ErrNoSource is returned by Play when no source has been set.
var ErrNoSource = errors.New("no media source")

// EventType represents a media lifecycle event type.
type EventType int

const (
	EventPlay           EventType = iota // Playback started or resumed
	EventPause                           // Playback paused (also fired at the end of a track)
	EventEnded                           // Track reached its end
	EventTimeUpdate                      // Position advanced
	EventLoadedMetadata                  // Duration became known
	EventError                           // Loading or playback failed
)

// String returns the string representation of the event type.
func (e EventType) String() string {
	switch e {
	case EventPlay:
		return "play"
	case EventPause:
		return "pause"
	case EventEnded:
		return "ended"
	case EventTimeUpdate:
		return "timeupdate"
	case EventLoadedMetadata:
		return "loadedmetadata"
	case EventError:
		return "error"
	default:
		return "unknown"
	}
}

// Event is a lifecycle notification from an Element.
type Event struct {
	Type EventType
	Src  string // Source the event refers to
	Err  error  // Set for EventError
}

// Element is a single media element.
//
// Times are in seconds. Duration is NaN until metadata is loaded.
// Play may complete asynchronously; its failures are reported both as the
// returned error (when known immediately) and as EventError followed by
// EventPause, so observers of the event stream always see the real state.
type Element interface {
	SetSource(src string)
	Source() string
	CurrentTime() float64
	SetCurrentTime(seconds float64)
	Duration() float64
	Volume() float64
	SetVolume(v float64)
	Paused() bool
	Play() error
	Pause()
	Events() <-chan Event
	Close() error
}
