package session

import (
	"math"

	"google.golang.org/protobuf/types/known/structpb"

	"github.com/osa030/vinylbox/internal/app/playback"
	"github.com/osa030/vinylbox/internal/app/session/state"
)

// SnapshotFields encodes a player snapshot as notification fields.
// An unknown duration is sent as 0 with duration_known set to false.
func SnapshotFields(s playback.Snapshot) map[string]any {
	known := !math.IsNaN(s.Duration) && !math.IsInf(s.Duration, 0)
	duration := s.Duration
	if !known {
		duration = 0
	}
	current := s.CurrentTime
	if math.IsNaN(current) || math.IsInf(current, 0) {
		current = 0
	}

	return map[string]any{
		"index":          s.Index,
		"track_name":     s.TrackName,
		"track_count":    s.TrackCount,
		"playing":        s.Playing,
		"shuffle":        s.Shuffle,
		"repeat":         s.Repeat.String(),
		"volume":         s.Volume,
		"current_time":   current,
		"duration":       duration,
		"duration_known": known,
	}
}

// StatusFields encodes the session status.
func StatusFields(st Status) map[string]any {
	fields := SnapshotFields(st.Snapshot)
	fields["session_id"] = st.Info.SessionID
	fields["phase"] = st.Info.Phase.String()
	fields["source"] = st.Info.Source
	fields["failure"] = st.Info.Failure
	fields["subscribers"] = st.Subscribers
	return fields
}

// ParseSnapshot decodes a snapshot encoded by SnapshotFields.
func ParseSnapshot(s *structpb.Struct) playback.Snapshot {
	f := s.GetFields()
	repeat, _ := playback.ParseRepeatMode(f["repeat"].GetStringValue())

	snap := playback.Snapshot{
		Index:       int(f["index"].GetNumberValue()),
		TrackName:   f["track_name"].GetStringValue(),
		TrackCount:  int(f["track_count"].GetNumberValue()),
		Playing:     f["playing"].GetBoolValue(),
		Shuffle:     f["shuffle"].GetBoolValue(),
		Repeat:      repeat,
		Volume:      f["volume"].GetNumberValue(),
		CurrentTime: f["current_time"].GetNumberValue(),
		Duration:    f["duration"].GetNumberValue(),
	}
	if !f["duration_known"].GetBoolValue() {
		snap.Duration = math.NaN()
	}
	return snap
}

// ParseStatus decodes a status encoded by StatusFields.
func ParseStatus(s *structpb.Struct) Status {
	f := s.GetFields()
	return Status{
		Info: state.Info{
			SessionID:  f["session_id"].GetStringValue(),
			Phase:      parsePhase(f["phase"].GetStringValue()),
			Source:     f["source"].GetStringValue(),
			TrackCount: int(f["track_count"].GetNumberValue()),
			Failure:    f["failure"].GetStringValue(),
		},
		Snapshot:    ParseSnapshot(s),
		Subscribers: int(f["subscribers"].GetNumberValue()),
	}
}

func parsePhase(s string) state.Phase {
	for _, p := range []state.Phase{state.PhaseLoading, state.PhaseReady, state.PhaseEmpty, state.PhaseFailed} {
		if p.String() == s {
			return p
		}
	}
	return state.PhaseLoading
}
