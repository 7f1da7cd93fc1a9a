package timeline

import (
	"strings"
	"time"
)

// TrackType distinguishes video tracks, which contribute composition layers,
// from audio tracks, which never do.
type TrackType string

const (
	TrackVideo TrackType = "video"
	TrackAudio TrackType = "audio"
)

// Transform positions and sizes a clip on the canvas. Coordinates are canvas
// pixels; Opacity is 0.0-1.0 with 1.0 fully opaque.
type Transform struct {
	X       int
	Y       int
	Width   int
	Height  int
	Opacity float64
}

// Clip is a media reference placed on a track. Start is the clip's position on
// the timeline; TrimIn/TrimOut bound the source media interval that plays.
type Clip struct {
	ID        string
	FilePath  string
	Start     time.Duration
	TrimIn    time.Duration
	TrimOut   time.Duration
	FadeIn    time.Duration
	FadeOut   time.Duration
	Volume    float64
	Muted     bool
	Transform *Transform
}

// PlayDuration returns how long the clip occupies the timeline. Clips with
// trim_out at or before trim_in play for zero time.
func (c Clip) PlayDuration() time.Duration {
	if c.TrimOut <= c.TrimIn {
		return 0
	}
	return c.TrimOut - c.TrimIn
}

// End returns the clip's exclusive end position on the timeline.
func (c Clip) End() time.Duration {
	return c.Start + c.PlayDuration()
}

// Overlaps reports whether the clip's timeline interval intersects [start, end).
func (c Clip) Overlaps(start, end time.Duration) bool {
	d := c.PlayDuration()
	if d <= 0 {
		return false
	}
	return c.Start < end && c.Start+d > start
}

// Track is an ordered lane of clips. Number 1 is the bottom of the stack;
// higher numbers draw on top.
type Track struct {
	ID     string
	Number int
	Type   TrackType
	Clips  []Clip
}

// IsVideo reports whether the track contributes video layers.
func (t Track) IsVideo() bool {
	return strings.EqualFold(string(t.Type), string(TrackVideo))
}

// Timeline is a snapshot of the project: ordered tracks plus total duration
// and the output canvas size. The preview core never mutates it.
type Timeline struct {
	Tracks       []Track
	Duration     time.Duration
	CanvasWidth  int
	CanvasHeight int
}

// VideoTracks returns the timeline's video tracks in declaration order.
func (tl Timeline) VideoTracks() []Track {
	tracks := make([]Track, 0, len(tl.Tracks))
	for _, track := range tl.Tracks {
		if track.IsVideo() {
			tracks = append(tracks, track)
		}
	}
	return tracks
}
