// Package playback provides the player state machine driving a media element.
package playback

import "strings"

// RepeatMode represents what happens when a track ends.
type RepeatMode int

const (
	RepeatOff RepeatMode = iota // Stop after the last track
	RepeatAll                   // Wrap around to the first track
	RepeatOne                   // Replay the current track
)

// String returns the string representation of the repeat mode.
func (r RepeatMode) String() string {
	switch r {
	case RepeatOff:
		return "off"
	case RepeatAll:
		return "all"
	case RepeatOne:
		return "one"
	default:
		return "unknown"
	}
}

// Next returns the following mode in the cycle Off → All → One → Off.
func (r RepeatMode) Next() RepeatMode {
	return (r + 1) % 3
}

// ParseRepeatMode converts a string to a RepeatMode.
func ParseRepeatMode(s string) (RepeatMode, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "off", "none", "":
		return RepeatOff, true
	case "all", "queue":
		return RepeatAll, true
	case "one", "track":
		return RepeatOne, true
	default:
		return RepeatOff, false
	}
}

// DragTarget identifies a draggable bar.
type DragTarget int

const (
	DragProgress DragTarget = iota // Position bar
	DragVolume                     // Volume bar
)

// String returns the string representation of the drag target.
func (d DragTarget) String() string {
	switch d {
	case DragProgress:
		return "progress"
	case DragVolume:
		return "volume"
	default:
		return "unknown"
	}
}

// State is the player state. It is owned by the Controller and handed out
// only as a copy.
type State struct {
	CurrentIndex   int        // Index into the playlist, valid whenever the playlist is non-empty
	Playing        bool       // Mirrors the media element, corrected by its play/pause events
	Shuffle        bool       // Random next/previous
	Repeat         RepeatMode // End-of-track behaviour
	Volume         float64    // Mirrors the media element volume (0..1)
	PreviousVolume float64    // Level restored when unmuting (0 means never set)

	DraggingProgress bool // Pointer drag on the position bar in progress
	DraggingVolume   bool // Pointer drag on the volume bar in progress
}
