package timeline

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"preroll/internal/services"
)

// The project document uses snake_case keys and integer milliseconds for all
// times, matching what the editing subsystem exports.

type projectDoc struct {
	DurationMs   int64      `json:"duration_ms"`
	CanvasWidth  int        `json:"canvas_width"`
	CanvasHeight int        `json:"canvas_height"`
	Tracks       []trackDoc `json:"tracks"`
}

type trackDoc struct {
	ID     string    `json:"id"`
	Number int       `json:"number"`
	Type   string    `json:"type"`
	Clips  []clipDoc `json:"clips"`
}

type clipDoc struct {
	ID        string        `json:"id"`
	FilePath  string        `json:"file_path"`
	StartMs   int64         `json:"start_ms"`
	TrimInMs  int64         `json:"trim_in_ms"`
	TrimOutMs int64         `json:"trim_out_ms"`
	FadeInMs  int64         `json:"fade_in_ms"`
	FadeOutMs int64         `json:"fade_out_ms"`
	Volume    *float64      `json:"volume"`
	Muted     bool          `json:"muted"`
	Transform *transformDoc `json:"transform"`
}

type transformDoc struct {
	X       int      `json:"x"`
	Y       int      `json:"y"`
	Width   int      `json:"width"`
	Height  int      `json:"height"`
	Opacity *float64 `json:"opacity"`
}

const (
	defaultCanvasWidth  = 1920
	defaultCanvasHeight = 1080
)

// LoadFile reads a timeline project document from a JSON file.
func LoadFile(path string) (Timeline, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Timeline{}, services.Wrap(services.ErrNotFound, "timeline", "load", path, err)
	}
	return Parse(data)
}

// Parse decodes a timeline project document.
func Parse(data []byte) (Timeline, error) {
	var doc projectDoc
	if err := json.Unmarshal(data, &doc); err != nil {
		return Timeline{}, services.Wrap(services.ErrValidation, "timeline", "parse", "malformed project document", err)
	}
	if doc.DurationMs < 0 {
		return Timeline{}, services.Wrap(services.ErrValidation, "timeline", "parse", "duration_ms must not be negative", nil)
	}

	tl := Timeline{
		Duration:     millis(doc.DurationMs),
		CanvasWidth:  doc.CanvasWidth,
		CanvasHeight: doc.CanvasHeight,
	}
	if tl.CanvasWidth <= 0 || tl.CanvasHeight <= 0 {
		tl.CanvasWidth = defaultCanvasWidth
		tl.CanvasHeight = defaultCanvasHeight
	}

	for i, td := range doc.Tracks {
		track := Track{
			ID:     td.ID,
			Number: td.Number,
			Type:   TrackType(strings.ToLower(strings.TrimSpace(td.Type))),
		}
		if track.Number <= 0 {
			track.Number = i + 1
		}
		if track.Type != TrackVideo && track.Type != TrackAudio {
			return Timeline{}, services.Wrap(services.ErrValidation, "timeline", "parse",
				fmt.Sprintf("track %q: unknown type %q", td.ID, td.Type), nil)
		}
		for _, cd := range td.Clips {
			if strings.TrimSpace(cd.FilePath) == "" {
				return Timeline{}, services.Wrap(services.ErrValidation, "timeline", "parse",
					fmt.Sprintf("track %q: clip %q has no file path", td.ID, cd.ID), nil)
			}
			clip := Clip{
				ID:       cd.ID,
				FilePath: cd.FilePath,
				Start:    millis(cd.StartMs),
				TrimIn:   millis(cd.TrimInMs),
				TrimOut:  millis(cd.TrimOutMs),
				FadeIn:   millis(cd.FadeInMs),
				FadeOut:  millis(cd.FadeOutMs),
				Volume:   1.0,
				Muted:    cd.Muted,
			}
			if cd.Volume != nil {
				clip.Volume = *cd.Volume
			}
			if cd.Transform != nil {
				transform := Transform{
					X:       cd.Transform.X,
					Y:       cd.Transform.Y,
					Width:   cd.Transform.Width,
					Height:  cd.Transform.Height,
					Opacity: 1.0,
				}
				if cd.Transform.Opacity != nil {
					transform.Opacity = *cd.Transform.Opacity
				}
				clip.Transform = &transform
			}
			track.Clips = append(track.Clips, clip)
		}
		tl.Tracks = append(tl.Tracks, track)
	}
	return tl, nil
}

func millis(v int64) time.Duration {
	return time.Duration(v) * time.Millisecond
}
