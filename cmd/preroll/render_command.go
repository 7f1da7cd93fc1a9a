package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"preroll/internal/analyzer"
	"preroll/internal/render"
	"preroll/internal/timeline"
)

func newRenderCommand(ctx *commandContext) *cobra.Command {
	var segmentIndex int
	var renderAll bool
	var skipProbe bool
	var verify bool

	cmd := &cobra.Command{
		Use:   "render <timeline.json>",
		Short: "Render composited segments to the cache directory",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			logger, err := ctx.logger()
			if err != nil {
				return err
			}

			tl, err := timeline.LoadFile(args[0])
			if err != nil {
				return err
			}

			segments := analyzer.AnalyzeTimeline(tl)
			targets, err := selectSegments(segments, segmentIndex, renderAll)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if !skipProbe {
				probeClips(cmd.Context(), cfg.FFmpeg.FFprobeBinary, targets, out)
			}

			renderer := render.NewRenderer(cfg, logger)
			for _, segment := range targets {
				path, err := renderer.RenderSegment(cmd.Context(), segment)
				if err != nil {
					return err
				}
				if verify {
					if err := verifyArtifact(cmd.Context(), cfg.FFmpeg.FFprobeBinary, path); err != nil {
						return err
					}
				}
				fmt.Fprintf(out, "%s -> %s\n", formatSeconds(segment.Start), path)
			}
			fmt.Fprintf(out, "Rendered %d segment(s)\n", len(targets))
			return nil
		},
	}

	cmd.Flags().IntVarP(&segmentIndex, "segment", "s", 0, "Render only the numbered segment from `preroll analyze`")
	cmd.Flags().BoolVar(&renderAll, "all", false, "Render every segment, including single-layer ones")
	cmd.Flags().BoolVar(&skipProbe, "skip-probe", false, "Skip ffprobe validation of clip files")
	cmd.Flags().BoolVar(&verify, "verify", false, "Probe each rendered file and fail if it has no video stream")
	return cmd
}

func selectSegments(segments []analyzer.Segment, index int, all bool) ([]analyzer.Segment, error) {
	if index > 0 {
		if index > len(segments) {
			return nil, fmt.Errorf("segment %d out of range (timeline has %d segments)", index, len(segments))
		}
		return segments[index-1 : index], nil
	}
	if all {
		return segments, nil
	}
	var needed []analyzer.Segment
	for _, segment := range segments {
		if analyzer.ClassifySegment(segment) == analyzer.Complex {
			needed = append(needed, segment)
		}
	}
	if len(needed) == 0 {
		return nil, fmt.Errorf("timeline has no segments that need compositing (use --all to render anyway)")
	}
	return needed, nil
}
