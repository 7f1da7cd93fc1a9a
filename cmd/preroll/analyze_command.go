package main

import (
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"preroll/internal/analyzer"
	"preroll/internal/render"
	"preroll/internal/timeline"
)

func newAnalyzeCommand(ctx *commandContext) *cobra.Command {
	var probe bool

	cmd := &cobra.Command{
		Use:   "analyze <timeline.json>",
		Short: "Segment a timeline and report compositing needs",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			tl, err := timeline.LoadFile(args[0])
			if err != nil {
				return err
			}

			segments := analyzer.AnalyzeTimeline(tl)
			out := cmd.OutOrStdout()

			rows := make([][]string, 0, len(segments))
			for i, segment := range segments {
				rows = append(rows, []string{
					strconv.Itoa(i + 1),
					formatSeconds(segment.Start),
					formatSeconds(segment.End()),
					strconv.Itoa(len(segment.Layers)),
					analyzer.ClassifySegment(segment).String(),
					render.CacheKey(segment),
				})
			}
			headers := []string{"#", "Start", "End", "Layers", "Complexity", "Cache Key"}
			aligns := []columnAlignment{alignRight, alignRight, alignRight, alignRight, alignLeft, alignLeft}
			fmt.Fprintln(out, renderTable(out, headers, rows, aligns))

			stats := analyzer.CompositionStats(segments)
			fmt.Fprintf(out, "%d segments over %s: %d simple, %d complex\n",
				len(segments), formatSeconds(stats.TotalDuration), stats.SimpleCount, stats.ComplexCount)

			if probe {
				cfg, err := ctx.ensureConfig()
				if err != nil {
					return err
				}
				reportClipMedia(cmd.Context(), cfg.FFmpeg.FFprobeBinary, segments, out)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&probe, "probe", false, "Probe clip files with ffprobe and report duration and dimensions")
	return cmd
}

func formatSeconds(d time.Duration) string {
	return fmt.Sprintf("%.3fs", d.Seconds())
}
