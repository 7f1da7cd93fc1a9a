package render

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"preroll/internal/analyzer"
	"preroll/internal/config"
	"preroll/internal/logging"
	"preroll/internal/services"
)

// Renderer composites timeline segments into playable MP4 files via ffmpeg.
// It is safe for concurrent use; callers are responsible for deduplicating
// renders of the same cache key.
type Renderer struct {
	cfg      *config.Config
	cacheDir string
	logger   *slog.Logger

	encoderOnce sync.Once
	encoder     string
}

// Error reports a failed render together with the cache key of the segment
// that produced it.
type Error struct {
	Key string
	Err error
}

func (e *Error) Error() string {
	return fmt.Sprintf("render segment %s: %v", e.Key, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// NewRenderer constructs a renderer writing into the configured cache
// directory.
func NewRenderer(cfg *config.Config, logger *slog.Logger) *Renderer {
	return &Renderer{
		cfg:      cfg,
		cacheDir: cfg.Paths.CacheDir,
		logger:   logging.NewComponentLogger(logger, "render"),
	}
}

// OutputPath returns the cache file path for a cache key.
func (r *Renderer) OutputPath(key string) string {
	return filepath.Join(r.cacheDir, key+".mp4")
}

// resolveEncoder picks the encoder once per renderer lifetime. Probing the
// ffmpeg build is not free, and the answer cannot change mid-run.
func (r *Renderer) resolveEncoder(ctx context.Context) {
	r.encoderOnce.Do(func() {
		r.encoder = r.selectEncoder(ctx)
		r.logger.InfoContext(ctx, "selected encoder", slog.String("encoder", r.encoder))
	})
}

// RenderSegment composites a segment and returns the cache file path. When the
// output already exists the render is skipped, so repeated calls for the same
// segment are cheap and safe.
func (r *Renderer) RenderSegment(ctx context.Context, segment analyzer.Segment) (string, error) {
	key := CacheKey(segment)
	outputPath := r.OutputPath(key)

	if info, err := os.Stat(outputPath); err == nil && info.Size() > 0 {
		return outputPath, nil
	}

	args, err := r.BuildCommand(ctx, segment, outputPath)
	if err != nil {
		return "", &Error{Key: key, Err: err}
	}

	r.logger.InfoContext(ctx, "rendering segment",
		logging.String(logging.FieldCacheKey, key),
		slog.Duration("start", segment.Start),
		slog.Duration("duration", segment.Duration),
		slog.Int("layers", len(segment.Layers)))

	output, err := runCommand(ctx, r.cfg.FFmpeg.Binary, args)
	if err != nil {
		// A failed ffmpeg run can leave a truncated file behind; never let
		// one be mistaken for a finished render.
		if removeErr := os.Remove(outputPath); removeErr != nil && !errors.Is(removeErr, fs.ErrNotExist) {
			r.logger.WarnContext(ctx, "failed to remove partial output",
				logging.String(logging.FieldCacheKey, key),
				logging.Error(removeErr))
		}
		detail := strings.TrimSpace(string(output))
		if detail == "" {
			detail = err.Error()
		}
		return "", &Error{Key: key, Err: services.Wrap(services.ErrExternalTool, "render", "ffmpeg", detail, err)}
	}

	info, err := os.Stat(outputPath)
	if err != nil || info.Size() == 0 {
		return "", &Error{Key: key, Err: services.Wrap(services.ErrExternalTool, "render", "ffmpeg",
			"ffmpeg exited cleanly but produced no output", err)}
	}

	return outputPath, nil
}
