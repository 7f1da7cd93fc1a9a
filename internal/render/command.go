package render

import (
	"context"
	"fmt"
	"time"

	"preroll/internal/analyzer"
)

// BuildCommand assembles the ffmpeg argument list for compositing a segment
// into outputPath: one input per layer in stacking order with per-input trim
// arguments, the filter graph, the selected encoder, and a web-compatible MP4
// output.
func (r *Renderer) BuildCommand(ctx context.Context, segment analyzer.Segment, outputPath string) ([]string, error) {
	r.resolveEncoder(ctx)

	filterGraph, err := GenerateFilterGraph(segment)
	if err != nil {
		return nil, err
	}

	args := []string{"-y", "-hide_banner", "-loglevel", "error"}

	for _, layer := range segment.Layers {
		// Seek into the source far enough to land on this segment's window.
		seek := layer.Clip.TrimIn + (segment.Start - layer.Clip.Start)
		if seek > 0 {
			args = append(args, "-ss", formatSeconds(seek))
		}
		args = append(args, "-t", formatSeconds(segment.Duration), "-i", layer.Clip.FilePath)
	}

	args = append(args, "-filter_complex", filterGraph, "-map", "["+outputLabel+"]")
	args = append(args, r.encoderArgs()...)
	args = append(args,
		"-pix_fmt", "yuv420p",
		"-movflags", "+faststart",
		"-an",
		"-f", "mp4",
		outputPath,
	)
	return args, nil
}

func formatSeconds(d time.Duration) string {
	return fmt.Sprintf("%.3f", d.Seconds())
}
