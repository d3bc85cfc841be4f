package domain

import "strings"

// TestingTrack is the track every unknown label falls back to.
const TestingTrack = "testing"

// trackCodes is the on-chain numbering of release tracks.
var trackCodes = map[string]uint8{
	"stable":  1,
	"beta":    2,
	"nightly": 3,
	"master":  3,
	"testing": 4,
}

// Track is the outcome of resolving a raw track label.
type Track struct {
	// Label is the resolved label, TestingTrack for unknown input.
	Label string
	// Raw is the label as it appeared in the metadata.
	Raw     string
	Code    uint8
	Enabled bool
}

// TrackResolver maps raw labels to track codes and applies the enabled set.
type TrackResolver struct {
	enabled map[string]bool
}

// NewTrackResolver creates a resolver that enables the given labels.
func NewTrackResolver(enabled []string) *TrackResolver {
	r := &TrackResolver{enabled: make(map[string]bool, len(enabled))}
	for _, label := range enabled {
		r.enabled[strings.ToLower(strings.TrimSpace(label))] = true
	}
	return r
}

// Resolve is total: every input maps to one of the known tracks. The enabled
// check applies to the resolved label, so unknown labels are enabled only if
// "testing" is.
func (r *TrackResolver) Resolve(raw string) Track {
	label := strings.ToLower(strings.TrimSpace(raw))
	code, ok := trackCodes[label]
	if !ok {
		label = TestingTrack
		code = trackCodes[TestingTrack]
	}
	return Track{
		Label:   label,
		Raw:     raw,
		Code:    code,
		Enabled: r.enabled[label],
	}
}
