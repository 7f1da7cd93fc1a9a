package main

import (
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"preroll/internal/daemon"
	"preroll/internal/timeline"
)

func newPreloadCommand(ctx *commandContext) *cobra.Command {
	var startAtMillis int64
	var holdOpen bool

	cmd := &cobra.Command{
		Use:   "preload <timeline.json>",
		Short: "Run the preloader against a simulated playback session",
		Long: "Preload starts the background renderer, then advances a simulated playhead\n" +
			"through the timeline in real time, enqueueing upcoming composited segments\n" +
			"exactly as an attached editor would. Interrupt with Ctrl-C to stop early.",
		Args: cobra.ExactArgs(1),
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

			signalCtx, cancel := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer cancel()

			d, err := daemon.New(cfg, logger)
			if err != nil {
				return err
			}
			if err := d.Start(signalCtx); err != nil {
				return err
			}
			defer d.Stop()

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Preloading %s of timeline from %s\n",
				formatSeconds(tl.Duration), formatSeconds(time.Duration(startAtMillis)*time.Millisecond))

			preloader := d.Preloader()
			playbackStart := time.Now()
			offset := time.Duration(startAtMillis) * time.Millisecond
			ticker := time.NewTicker(200 * time.Millisecond)
			defer ticker.Stop()

			for {
				playhead := offset + time.Since(playbackStart)
				if playhead > tl.Duration {
					playhead = tl.Duration
				}
				preloader.EnqueueUpcomingSegments(playhead, tl)

				status := preloader.Status()
				fmt.Fprintf(out, "\rplayhead %s  queue %d  cached %d  hit rate %.0f%%  rendering %v ",
					formatSeconds(playhead), status.QueueDepth, status.CachedSegments,
					status.CacheHitRate*100, status.Rendering)

				if playhead >= tl.Duration && status.QueueDepth == 0 && !status.Rendering {
					if !holdOpen {
						fmt.Fprintln(out)
						return nil
					}
				}

				select {
				case <-signalCtx.Done():
					fmt.Fprintln(out)
					return nil
				case <-ticker.C:
				}
			}
		},
	}

	cmd.Flags().Int64Var(&startAtMillis, "start-at", 0, "Playhead start position in milliseconds")
	cmd.Flags().BoolVar(&holdOpen, "hold", false, "Keep the preloader running after the playhead reaches the end")
	return cmd
}
