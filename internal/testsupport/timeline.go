package testsupport

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"preroll/internal/timeline"
)

// OverlapTimeline returns a two-track timeline whose middle two seconds need
// compositing: clip A covers [0s, 5s) on track 1 and clip B covers [2s, 4s)
// on track 2.
func OverlapTimeline() timeline.Timeline {
	return timeline.Timeline{
		Duration:     5 * time.Second,
		CanvasWidth:  1920,
		CanvasHeight: 1080,
		Tracks: []timeline.Track{
			{
				ID: "track-1", Number: 1, Type: timeline.TrackVideo,
				Clips: []timeline.Clip{{
					ID: "clip-a", FilePath: "/media/a.mp4", TrimOut: 5 * time.Second,
				}},
			},
			{
				ID: "track-2", Number: 2, Type: timeline.TrackVideo,
				Clips: []timeline.Clip{{
					ID: "clip-b", FilePath: "/media/b.mp4",
					Start: 2 * time.Second, TrimOut: 2 * time.Second,
				}},
			},
		},
	}
}

// WriteTimelineJSON writes a timeline document for loader and CLI tests and
// returns its path.
func WriteTimelineJSON(t testing.TB, dir, document string) string {
	t.Helper()
	path := filepath.Join(dir, "timeline.json")
	if err := os.WriteFile(path, []byte(document), 0o644); err != nil {
		t.Fatalf("write timeline: %v", err)
	}
	return path
}

// OverlapTimelineJSON is the JSON form of OverlapTimeline for loader tests.
const OverlapTimelineJSON = `{
  "duration_ms": 5000,
  "canvas_width": 1920,
  "canvas_height": 1080,
  "tracks": [
    {
      "id": "track-1",
      "number": 1,
      "type": "video",
      "clips": [
        {"id": "clip-a", "file_path": "/media/a.mp4", "start_ms": 0, "trim_in_ms": 0, "trim_out_ms": 5000}
      ]
    },
    {
      "id": "track-2",
      "number": 2,
      "type": "video",
      "clips": [
        {"id": "clip-b", "file_path": "/media/b.mp4", "start_ms": 2000, "trim_in_ms": 0, "trim_out_ms": 2000}
      ]
    }
  ]
}`
