package playback

import "strings"

// CommandKind represents a player command issued from outside the UI loop.
type CommandKind int

const (
	CommandTogglePlay    CommandKind = iota // Play/pause
	CommandPlay                             // Play the track at Index
	CommandPause                            // Pause
	CommandNext                             // Next track
	CommandPrevious                         // Previous track (or restart)
	CommandToggleShuffle                    // Toggle shuffle
	CommandCycleRepeat                      // Off → All → One
	CommandToggleMute                       // Mute/unmute
	CommandSetVolume                        // Set volume to Value
	CommandSeek                             // Seek to Value seconds
)

var commandNames = map[CommandKind]string{
	CommandTogglePlay:    "toggle",
	CommandPlay:          "play",
	CommandPause:         "pause",
	CommandNext:          "next",
	CommandPrevious:      "prev",
	CommandToggleShuffle: "shuffle",
	CommandCycleRepeat:   "repeat",
	CommandToggleMute:    "mute",
	CommandSetVolume:     "volume",
	CommandSeek:          "seek",
}

// String returns the string representation of the command kind.
func (k CommandKind) String() string {
	if name, ok := commandNames[k]; ok {
		return name
	}
	return "unknown"
}

// ParseCommandKind converts a command name to a CommandKind.
func ParseCommandKind(s string) (CommandKind, bool) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "previous" {
		s = "prev"
	}
	for kind, name := range commandNames {
		if name == s {
			return kind, true
		}
	}
	return 0, false
}

// Command is a request to change the player state.
type Command struct {
	Kind  CommandKind
	Index int     // Track index for CommandPlay
	Value float64 // Volume for CommandSetVolume, seconds for CommandSeek
}

// Snapshot is a read-only view of the player for displays and remote clients.
type Snapshot struct {
	Index       int
	TrackName   string
	TrackCount  int
	Playing     bool
	Shuffle     bool
	Repeat      RepeatMode
	Volume      float64
	CurrentTime float64
	Duration    float64 // NaN while unknown
}

// SameTrack reports whether both snapshots refer to the same track.
func (s Snapshot) SameTrack(o Snapshot) bool {
	return s.Index == o.Index && s.TrackName == o.TrackName && s.TrackCount == o.TrackCount
}

// SameMode reports whether both snapshots share play, shuffle, repeat and volume state.
func (s Snapshot) SameMode(o Snapshot) bool {
	return s.Playing == o.Playing && s.Shuffle == o.Shuffle && s.Repeat == o.Repeat && s.Volume == o.Volume
}
