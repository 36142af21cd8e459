// Package transport translates pointer and keyboard input into player
// operations and renders the transport displays (progress, volume, labels).
package transport

import "math"

// PointerAction is the phase of a pointer interaction.
type PointerAction int

const (
	PointerDown PointerAction = iota
	PointerMove
	PointerUp
)

// Target is the bar a pointer press landed on.
type Target int

const (
	TargetNone Target = iota
	TargetProgress
	TargetVolume
)

// String returns the string representation of the target.
func (t Target) String() string {
	switch t {
	case TargetProgress:
		return "progress"
	case TargetVolume:
		return "volume"
	default:
		return "none"
	}
}

// Pointer is a pointer event in display columns.
// Target is only meaningful for PointerDown; move and up events are global.
type Pointer struct {
	Action PointerAction
	Target Target
	X      int
}

// KeyPress is a keyboard event.
type KeyPress struct {
	Key              string // Key name as reported by the display ("space", "left", ...)
	TextInputFocused bool   // Shortcuts are ignored while a text input has focus
}

// Bar is the on-screen geometry of a draggable bar.
type Bar struct {
	X     int // First column
	Y     int // Row
	Width int // Columns
}

// Contains reports whether the cell (x, y) lies on the bar.
func (b Bar) Contains(x, y int) bool {
	return b.Width > 0 && y == b.Y && x >= b.X && x < b.X+b.Width
}

// Ratio maps column x onto [0, 1] along the bar.
func (b Bar) Ratio(x int) float64 {
	if b.Width <= 1 {
		return 0
	}
	r := float64(x-b.X) / float64(b.Width-1)
	return math.Max(0, math.Min(1, r))
}
