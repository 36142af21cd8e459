// Package playlist provides the Playlist domain entity.
package playlist

import (
	"fmt"

	"github.com/osa030/vinylbox/internal/domain/track"
)

// Playlist is the ordered track sequence of a session.
// The order is the catalog order and never changes after loading.
type Playlist struct {
	Source string        // Where the catalog was loaded from
	tracks []track.Track // Tracks in playback order
}

// New creates a playlist from the given tracks. The slice is copied.
func New(source string, tracks []track.Track) *Playlist {
	cp := make([]track.Track, len(tracks))
	copy(cp, tracks)
	return &Playlist{
		Source: source,
		tracks: cp,
	}
}

// Len returns the number of tracks.
func (p *Playlist) Len() int {
	if p == nil {
		return 0
	}
	return len(p.tracks)
}

// IsEmpty reports whether the playlist has no tracks.
func (p *Playlist) IsEmpty() bool {
	return p.Len() == 0
}

// At returns the track at index i.
func (p *Playlist) At(i int) (track.Track, bool) {
	if i < 0 || i >= p.Len() {
		return track.Track{}, false
	}
	return p.tracks[i], true
}

// Tracks returns a copy of all tracks.
func (p *Playlist) Tracks() []track.Track {
	result := make([]track.Track, p.Len())
	if p != nil {
		copy(result, p.tracks)
	}
	return result
}

// Names returns all track names in playlist order.
func (p *Playlist) Names() []string {
	names := make([]string, p.Len())
	for i := range names {
		names[i] = p.tracks[i].Name
	}
	return names
}

// CountLabel returns the track count label shown in the header.
func (p *Playlist) CountLabel() string {
	return fmt.Sprintf("%d tracks", p.Len())
}
