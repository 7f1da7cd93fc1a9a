package analyzer

import (
	"testing"
	"time"

	"preroll/internal/timeline"
)

func videoClip(id, path string, start, playFor time.Duration) timeline.Clip {
	return timeline.Clip{
		ID:       id,
		FilePath: path,
		Start:    start,
		TrimOut:  playFor,
	}
}

func twoTrackTimeline() timeline.Timeline {
	// Track 1: clip A spans [0s, 5s). Track 2: clip B spans [2s, 4s).
	return timeline.Timeline{
		Duration:     5 * time.Second,
		CanvasWidth:  1920,
		CanvasHeight: 1080,
		Tracks: []timeline.Track{
			{
				ID: "t1", Number: 1, Type: timeline.TrackVideo,
				Clips: []timeline.Clip{videoClip("a", "/media/a.mp4", 0, 5*time.Second)},
			},
			{
				ID: "t2", Number: 2, Type: timeline.TrackVideo,
				Clips: []timeline.Clip{videoClip("b", "/media/b.mp4", 2*time.Second, 2*time.Second)},
			},
		},
	}
}

func TestAnalyzeTwoTrackOverlap(t *testing.T) {
	segments := AnalyzeTimeline(twoTrackTimeline())
	if len(segments) != 3 {
		t.Fatalf("segments = %d, want 3", len(segments))
	}

	wantBounds := []struct {
		start, duration time.Duration
		layers          int
	}{
		{0, 2 * time.Second, 1},
		{2 * time.Second, 2 * time.Second, 2},
		{4 * time.Second, time.Second, 1},
	}
	for i, want := range wantBounds {
		seg := segments[i]
		if seg.Start != want.start || seg.Duration != want.duration {
			t.Errorf("segment %d = [%v, %v), want [%v, %v)", i, seg.Start, seg.End(), want.start, want.start+want.duration)
		}
		if len(seg.Layers) != want.layers {
			t.Errorf("segment %d layers = %d, want %d", i, len(seg.Layers), want.layers)
		}
	}

	middle := segments[1]
	if ClassifySegment(middle) != Complex {
		t.Error("overlap segment should be complex")
	}
	if middle.Layers[0].ZIndex != 1 || middle.Layers[1].ZIndex != 2 {
		t.Errorf("layers not ordered bottom to top: %d, %d", middle.Layers[0].ZIndex, middle.Layers[1].ZIndex)
	}
	if middle.Layers[0].Clip.ID != "a" || middle.Layers[1].Clip.ID != "b" {
		t.Error("layer clips misassigned")
	}
}

func TestAnalyzeSegmentsTileTimeline(t *testing.T) {
	tl := twoTrackTimeline()
	// Add a third track with a clip poking past an existing cut.
	tl.Tracks = append(tl.Tracks, timeline.Track{
		ID: "t3", Number: 3, Type: timeline.TrackVideo,
		Clips: []timeline.Clip{videoClip("c", "/media/c.mp4", 3500*time.Millisecond, time.Second)},
	})

	segments := AnalyzeTimeline(tl)
	var cursor time.Duration
	for i, seg := range segments {
		if seg.Start != cursor {
			t.Fatalf("segment %d starts at %v, expected %v (gap or overlap)", i, seg.Start, cursor)
		}
		if seg.Duration <= 0 {
			t.Fatalf("segment %d has non-positive duration %v", i, seg.Duration)
		}
		cursor = seg.End()
	}
	if cursor != tl.Duration {
		t.Fatalf("segments end at %v, want %v", cursor, tl.Duration)
	}
}

func TestAnalyzeDeterministic(t *testing.T) {
	tl := twoTrackTimeline()
	first := AnalyzeTimeline(tl)
	second := AnalyzeTimeline(tl)
	if len(first) != len(second) {
		t.Fatalf("segment counts differ: %d vs %d", len(first), len(second))
	}
	for i := range first {
		if first[i].Start != second[i].Start || first[i].Duration != second[i].Duration {
			t.Errorf("segment %d differs across runs", i)
		}
	}
}

func TestAnalyzeEmptyTimeline(t *testing.T) {
	tl := timeline.Timeline{Duration: time.Second, CanvasWidth: 1920, CanvasHeight: 1080}
	segments := AnalyzeTimeline(tl)
	if len(segments) != 1 {
		t.Fatalf("segments = %d, want 1", len(segments))
	}
	seg := segments[0]
	if seg.Start != 0 || seg.Duration != time.Second {
		t.Errorf("segment = [%v, %v)", seg.Start, seg.End())
	}
	if len(seg.Layers) != 0 {
		t.Errorf("gap segment should have no layers, got %d", len(seg.Layers))
	}
	if ClassifySegment(seg) != Simple {
		t.Error("gap segment should classify simple")
	}
}

func TestAnalyzeZeroDuration(t *testing.T) {
	if segments := AnalyzeTimeline(timeline.Timeline{}); segments != nil {
		t.Errorf("zero-duration timeline should yield no segments, got %d", len(segments))
	}
}

func TestAnalyzeIgnoresInvertedTrims(t *testing.T) {
	tl := timeline.Timeline{
		Duration: 2 * time.Second,
		Tracks: []timeline.Track{{
			ID: "t1", Number: 1, Type: timeline.TrackVideo,
			Clips: []timeline.Clip{{
				ID: "bad", FilePath: "/media/bad.mp4",
				Start: time.Second, TrimIn: 2 * time.Second, TrimOut: time.Second,
			}},
		}},
	}
	segments := AnalyzeTimeline(tl)
	if len(segments) != 1 {
		t.Fatalf("segments = %d, want 1", len(segments))
	}
	if len(segments[0].Layers) != 0 {
		t.Error("zero-length clip should contribute no layers")
	}
}

func TestAnalyzeIgnoresAudioTracks(t *testing.T) {
	tl := twoTrackTimeline()
	tl.Tracks[1].Type = timeline.TrackAudio
	segments := AnalyzeTimeline(tl)
	for _, seg := range segments {
		if len(seg.Layers) > 1 {
			t.Error("audio track should not contribute layers")
		}
	}
}

func TestClassifySegment(t *testing.T) {
	layer := VideoLayer{TrackNumber: 1, ZIndex: 1}
	cases := []struct {
		layers []VideoLayer
		want   Complexity
	}{
		{nil, Simple},
		{[]VideoLayer{layer}, Simple},
		{[]VideoLayer{layer, layer}, Complex},
		{[]VideoLayer{layer, layer, layer}, Complex},
	}
	for _, tc := range cases {
		if got := ClassifySegment(Segment{Layers: tc.layers}); got != tc.want {
			t.Errorf("ClassifySegment with %d layers = %v, want %v", len(tc.layers), got, tc.want)
		}
	}
}

func TestDetectMultiTrackVideo(t *testing.T) {
	tl := twoTrackTimeline()
	if !DetectMultiTrackVideo(tl.Tracks, 2*time.Second, 4*time.Second) {
		t.Error("overlap window should detect multi-track video")
	}
	if DetectMultiTrackVideo(tl.Tracks, 0, time.Second) {
		t.Error("single-layer window should not detect multi-track video")
	}
	if DetectMultiTrackVideo(nil, 0, time.Second) {
		t.Error("no tracks should not detect multi-track video")
	}
}

func TestCompositionStats(t *testing.T) {
	segments := AnalyzeTimeline(twoTrackTimeline())
	stats := CompositionStats(segments)
	if stats.SimpleCount != 2 || stats.ComplexCount != 1 {
		t.Errorf("stats = %+v", stats)
	}
	if stats.TotalDuration != 5*time.Second {
		t.Errorf("total duration = %v", stats.TotalDuration)
	}
}
