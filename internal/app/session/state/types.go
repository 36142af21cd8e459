// Package state provides session state management.
package state

// Phase represents the catalog lifecycle of the session.
type Phase int

const (
	PhaseLoading Phase = iota // Catalog fetch in flight
	PhaseReady                // Catalog loaded with at least one track
	PhaseEmpty                // Catalog loaded but contains no tracks
	PhaseFailed               // Catalog could not be loaded
)

// String returns the string representation of the phase.
func (p Phase) String() string {
	switch p {
	case PhaseLoading:
		return "loading"
	case PhaseReady:
		return "ready"
	case PhaseEmpty:
		return "empty"
	case PhaseFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Info is a copy of the session state.
type Info struct {
	SessionID  string
	Phase      Phase
	Source     string // Catalog location
	TrackCount int
	Failure    string // Human readable load failure (PhaseFailed only)
}
