// Package track provides the Track domain entity.
package track

import (
	"strings"
	"time"
)

// Track represents a single catalog entry.
// Tracks are immutable once the catalog has been loaded.
type Track struct {
	Name string     // Display name
	URL  string     // Audio resource location (http(s) URL or file path)
	Date *time.Time // Publication date (nil when absent)
}

// HasDate reports whether the track carries a publication date.
func (t *Track) HasDate() bool {
	return t.Date != nil && !t.Date.IsZero()
}

// FileName returns the file name used when the track is saved locally.
// Path separators are replaced so the name can never escape the target directory.
func (t *Track) FileName() string {
	name := strings.TrimSpace(t.Name)
	if name == "" {
		name = "track"
	}
	name = strings.NewReplacer("/", "_", "\\", "_", "\x00", "").Replace(name)
	if name == "." || name == ".." {
		name = "track"
	}
	return name + ".mp3"
}
