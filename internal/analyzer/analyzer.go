package analyzer

import (
	"sort"
	"time"

	"preroll/internal/timeline"
)

// VideoLayer is one clip's contribution to a segment's composition stack.
// ZIndex is derived 1:1 from the track number; track 1 is the bottom layer.
type VideoLayer struct {
	Clip        timeline.Clip
	TrackNumber int
	ZIndex      int
}

// Segment is a maximal timeline interval over which the set of overlapping
// video layers is constant. Layers are ordered bottom to top. A segment with
// no layers is a gap and renders as solid black.
type Segment struct {
	Layers       []VideoLayer
	Start        time.Duration
	Duration     time.Duration
	CanvasWidth  int
	CanvasHeight int
}

// End returns the segment's exclusive end position.
func (s Segment) End() time.Duration {
	return s.Start + s.Duration
}

// Complexity classifies a segment by how it can be played back.
type Complexity int

const (
	// Simple segments have at most one video layer and play directly
	// from the underlying clip without compositing.
	Simple Complexity = iota
	// Complex segments overlap two or more video layers and require
	// offline compositing before playback.
	Complex
)

func (c Complexity) String() string {
	if c == Complex {
		return "complex"
	}
	return "simple"
}

// ClassifySegment reports whether a segment needs offline compositing.
func ClassifySegment(segment Segment) Complexity {
	if len(segment.Layers) > 1 {
		return Complex
	}
	return Simple
}

// DetectMultiTrackVideo reports whether more than one distinct video track has
// a clip overlapping [start, end).
func DetectMultiTrackVideo(tracks []timeline.Track, start, end time.Duration) bool {
	count := 0
	for _, track := range tracks {
		if !track.IsVideo() {
			continue
		}
		for _, clip := range track.Clips {
			if clip.Overlaps(start, end) {
				count++
				break
			}
		}
		if count > 1 {
			return true
		}
	}
	return false
}

// AnalyzeTimeline partitions the timeline into segments whose intervals
// exactly tile [0, duration) with no gaps or overlaps. Cut points are every
// clip start and end on a video track, plus 0 and the total duration; the
// same timeline always yields the same segmentation.
func AnalyzeTimeline(tl timeline.Timeline) []Segment {
	if tl.Duration <= 0 {
		return nil
	}

	cutSet := map[time.Duration]struct{}{
		0:           {},
		tl.Duration: {},
	}
	for _, track := range tl.VideoTracks() {
		for _, clip := range track.Clips {
			if clip.PlayDuration() <= 0 {
				continue
			}
			for _, cut := range []time.Duration{clip.Start, clip.End()} {
				if cut > 0 && cut < tl.Duration {
					cutSet[cut] = struct{}{}
				}
			}
		}
	}

	cuts := make([]time.Duration, 0, len(cutSet))
	for cut := range cutSet {
		cuts = append(cuts, cut)
	}
	sort.Slice(cuts, func(i, j int) bool { return cuts[i] < cuts[j] })

	segments := make([]Segment, 0, len(cuts)-1)
	for i := 0; i < len(cuts)-1; i++ {
		start, end := cuts[i], cuts[i+1]
		segments = append(segments, Segment{
			Layers:       layersAt(tl, start, end),
			Start:        start,
			Duration:     end - start,
			CanvasWidth:  tl.CanvasWidth,
			CanvasHeight: tl.CanvasHeight,
		})
	}
	return segments
}

func layersAt(tl timeline.Timeline, start, end time.Duration) []VideoLayer {
	var layers []VideoLayer
	for _, track := range tl.VideoTracks() {
		for _, clip := range track.Clips {
			if clip.Overlaps(start, end) {
				layers = append(layers, VideoLayer{
					Clip:        clip,
					TrackNumber: track.Number,
					ZIndex:      track.Number,
				})
				// One clip per track can be active in a constant-overlap
				// interval; later clips on the track start at a cut point.
				break
			}
		}
	}
	sort.SliceStable(layers, func(i, j int) bool {
		return layers[i].ZIndex < layers[j].ZIndex
	})
	return layers
}

// Stats aggregates a segmentation for status output.
type Stats struct {
	SimpleCount   int
	ComplexCount  int
	TotalDuration time.Duration
}

// CompositionStats summarizes how much of the timeline needs compositing.
func CompositionStats(segments []Segment) Stats {
	var stats Stats
	for _, segment := range segments {
		if ClassifySegment(segment) == Complex {
			stats.ComplexCount++
		} else {
			stats.SimpleCount++
		}
		stats.TotalDuration += segment.Duration
	}
	return stats
}
