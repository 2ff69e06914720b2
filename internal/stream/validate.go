// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package stream

// Defect messages, appended to Validation.Errors in this order.
const (
	DefectNoStream = "no media stream provided"
	DefectNoTracks = "stream has no tracks"
	DefectNoAudio  = "no active audio track"
	DefectNoVideo  = "no active video track"
)

// Requirements lists the track kinds that must be active.
type Requirements struct {
	Audio bool
	Video bool
}

// NoRequirements accepts any stream that has at least one track.
var NoRequirements = Requirements{}

// Validation is a read-only snapshot of a stream's readiness.
type Validation struct {
	Valid            bool     `json:"valid"`
	Errors           []string `json:"errors"`
	AudioTrackActive bool     `json:"audioTrackActive"`
	VideoTrackActive bool     `json:"videoTrackActive"`
	AudioTracks      int      `json:"audioTracks"`
	VideoTracks      int      `json:"videoTracks"`
}

// HardFailure reports the defects that refuse recording regardless of requirements:
// a missing stream or a stream without tracks.
func (v Validation) HardFailure() bool {
	for _, e := range v.Errors {
		if e == DefectNoStream || e == DefectNoTracks {
			return true
		}
	}
	return false
}

// Warnings lists soft defects: track kinds that were not required but are not active.
func (v Validation) Warnings(req Requirements) []string {
	if v.HardFailure() {
		return nil
	}
	var out []string
	if !req.Audio && !v.AudioTrackActive {
		out = append(out, DefectNoAudio)
	}
	if !req.Video && !v.VideoTrackActive {
		out = append(out, DefectNoVideo)
	}
	return out
}

// Validate inspects the current track state of s. It has no side effects.
func Validate(s Stream, req Requirements) Validation {
	v := Validation{Errors: []string{}}

	if s == nil {
		v.Errors = append(v.Errors, DefectNoStream)
		return v
	}

	total := 0
	for _, t := range s.Tracks() {
		if t == nil {
			continue
		}
		total++
		switch t.Kind() {
		case KindAudio:
			v.AudioTracks++
			if IsActive(t) {
				v.AudioTrackActive = true
			}
		case KindVideo:
			v.VideoTracks++
			if IsActive(t) {
				v.VideoTrackActive = true
			}
		}
	}

	if total == 0 {
		v.Errors = append(v.Errors, DefectNoTracks)
	}
	if req.Audio && !v.AudioTrackActive {
		v.Errors = append(v.Errors, DefectNoAudio)
	}
	if req.Video && !v.VideoTrackActive {
		v.Errors = append(v.Errors, DefectNoVideo)
	}

	v.Valid = len(v.Errors) == 0
	return v
}
