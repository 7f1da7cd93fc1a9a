package main

import (
	"context"
	"fmt"
	"io"
	"sort"

	"preroll/internal/analyzer"
	"preroll/internal/media/ffprobe"
	"preroll/internal/timeline"
)

// uniqueClips collects each distinct clip file the segments reference, with
// paths sorted for stable output.
func uniqueClips(segments []analyzer.Segment) ([]string, map[string]timeline.Clip) {
	clips := make(map[string]timeline.Clip)
	for _, segment := range segments {
		for _, layer := range segment.Layers {
			if _, ok := clips[layer.Clip.FilePath]; !ok {
				clips[layer.Clip.FilePath] = layer.Clip
			}
		}
	}
	paths := make([]string, 0, len(clips))
	for path := range clips {
		paths = append(paths, path)
	}
	sort.Strings(paths)
	return paths, clips
}

// probeClips warns about clip files ffmpeg will choke on; probe failures are
// advisory and never block the render.
func probeClips(ctx context.Context, binary string, segments []analyzer.Segment, out io.Writer) {
	paths, clips := uniqueClips(segments)
	for _, path := range paths {
		clip := clips[path]
		result, err := ffprobe.Inspect(ctx, binary, path)
		if err != nil {
			fmt.Fprintf(out, "warning: %s: %v\n", path, err)
			continue
		}
		if !result.HasVideo() {
			fmt.Fprintf(out, "warning: %s has no video stream\n", path)
			continue
		}
		if duration := result.Duration(); duration > 0 && duration < clip.TrimOut {
			fmt.Fprintf(out, "warning: %s is %s long but the clip trims out at %s\n",
				path, formatSeconds(duration), formatSeconds(clip.TrimOut))
		}
	}
}

// reportClipMedia prints probed duration and dimensions for every clip the
// segments reference.
func reportClipMedia(ctx context.Context, binary string, segments []analyzer.Segment, out io.Writer) {
	paths, _ := uniqueClips(segments)
	for _, path := range paths {
		result, err := ffprobe.Inspect(ctx, binary, path)
		if err != nil {
			fmt.Fprintf(out, "warning: %s: %v\n", path, err)
			continue
		}
		width, height, ok := result.Dimensions()
		if !ok {
			fmt.Fprintf(out, "warning: %s has no video stream\n", path)
			continue
		}
		fmt.Fprintf(out, "%s: %s %dx%d\n", path, formatSeconds(result.Duration()), width, height)
	}
}

// verifyArtifact probes a rendered segment file and reports an error when it
// cannot be read or carries no video stream.
func verifyArtifact(ctx context.Context, binary, path string) error {
	result, err := ffprobe.Inspect(ctx, binary, path)
	if err != nil {
		return fmt.Errorf("verify %s: %w", path, err)
	}
	if !result.HasVideo() {
		return fmt.Errorf("verify %s: rendered file has no video stream", path)
	}
	return nil
}
